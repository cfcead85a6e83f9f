package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"eshop-service/internal/auth"
	"eshop-service/internal/errs"
	"eshop-service/internal/models"
	"eshop-service/internal/store"
	"eshop-service/internal/util"
)

// AdminService handles user administration and super-admin management
// of administrator accounts.
type AdminService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(store *store.Store) *AdminService {
	return &AdminService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// CreateAdminRequest is the payload for creating an administrator
type CreateAdminRequest struct {
	Email     string `json:"email" binding:"required,email"`
	AdminName string `json:"adminName" binding:"required"`
	Password  string `json:"password" binding:"required,min=8"`
}

// UpdateAdminRequest is the payload for updating an administrator
type UpdateAdminRequest struct {
	AdminName string `json:"adminName" binding:"required"`
}

// ListUsers returns all shopper accounts.
func (s *AdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.store.ListUsers(ctx)
}

// DeleteUser removes a shopper account and its carts and wishlists.
func (s *AdminService) DeleteUser(ctx context.Context, id int64) error {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return errs.NotFound("USER_NOT_FOUND", "user not found")
	}
	if err := s.store.DeleteUser(ctx, id); err != nil {
		return err
	}
	s.logger.Info("User deleted", zap.Int64("user_id", id), zap.String("email", user.Email))
	return nil
}

// ListAdmins returns every ROLE_ADMIN account.
func (s *AdminService) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	return s.store.ListAdmins(ctx, models.RoleAdmin)
}

// CreateAdmin creates a ROLE_ADMIN account. The email must be unused
// across the whole identity namespace.
func (s *AdminService) CreateAdmin(ctx context.Context, req *CreateAdminRequest) (*models.Admin, error) {
	exists, err := s.store.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, errs.Validation("ALREADY_REGISTERED", "email is already registered")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &models.Admin{
		Email:        req.Email,
		AdminName:    req.AdminName,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	}
	if err := s.store.CreateAdmin(ctx, admin); err != nil {
		return nil, err
	}

	s.logger.Info("Admin created", zap.Int64("admin_id", admin.ID), zap.String("email", admin.Email))
	return admin, nil
}

// UpdateAdmin renames an administrator. The super admin account itself
// cannot be updated.
func (s *AdminService) UpdateAdmin(ctx context.Context, id int64, req *UpdateAdminRequest) (*models.Admin, error) {
	admin, err := s.requireMutableAdmin(ctx, id)
	if err != nil {
		return nil, err
	}

	admin.AdminName = req.AdminName
	if err := s.store.UpdateAdmin(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}

// DeleteAdmin removes an administrator. The super admin account itself
// cannot be deleted.
func (s *AdminService) DeleteAdmin(ctx context.Context, id int64) error {
	admin, err := s.requireMutableAdmin(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteAdmin(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Admin deleted", zap.Int64("admin_id", id), zap.String("email", admin.Email))
	return nil
}

// SeedSuperAdmin creates the super admin account on first startup.
func (s *AdminService) SeedSuperAdmin(ctx context.Context, email, name, password string) error {
	if email == "" || password == "" {
		s.logger.Warn("Super admin seed skipped, credentials not configured")
		return nil
	}

	existing, err := s.store.GetAdminByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check super admin: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	admin := &models.Admin{
		Email:        email,
		AdminName:    name,
		PasswordHash: hash,
		Role:         models.RoleSuperAdmin,
	}
	if err := s.store.CreateAdmin(ctx, admin); err != nil {
		return err
	}
	s.logger.Info("Super admin seeded", zap.String("email", email))
	return nil
}

func (s *AdminService) requireMutableAdmin(ctx context.Context, id int64) (*models.Admin, error) {
	admin, err := s.store.GetAdminByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load admin: %w", err)
	}
	if admin == nil {
		return nil, errs.NotFound("ADMIN_NOT_FOUND", "admin not found")
	}
	if admin.Role == models.RoleSuperAdmin {
		return nil, errs.Forbidden("FORBIDDEN", "super admin account cannot be modified")
	}
	return admin, nil
}
