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

// UserService handles shopper profile operations
type UserService struct {
	store  *store.Store
	logger *zap.Logger
}

// NewUserService creates a new user service
func NewUserService(store *store.Store) *UserService {
	return &UserService{
		store:  store,
		logger: util.GetLogger(),
	}
}

// UpdateProfileRequest is the profile update payload
type UpdateProfileRequest struct {
	FullName    string `json:"fullName" binding:"required"`
	PhoneNumber string `json:"phoneNumber"`
}

// ChangePasswordRequest is the password change payload
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=8"`
}

// GetProfile returns the shopper owning the email.
func (s *UserService) GetProfile(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, errs.NotFound("USER_NOT_FOUND", "user not found")
	}
	return user, nil
}

// UpdateProfile updates the shopper's display fields.
func (s *UserService) UpdateProfile(ctx context.Context, email string, req *UpdateProfileRequest) (*models.User, error) {
	user, err := s.GetProfile(ctx, email)
	if err != nil {
		return nil, err
	}

	user.FullName = req.FullName
	user.PhoneNumber = req.PhoneNumber
	if err := s.store.UpdateUserProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// ChangePassword verifies the current password for whichever identity
// owns the email and writes the new hash.
func (s *UserService) ChangePassword(ctx context.Context, email string, req *ChangePasswordRequest) error {
	user, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}

	if user != nil {
		if !auth.VerifyPassword(req.CurrentPassword, user.PasswordHash) {
			return errs.Unauthorized("BAD_CREDENTIALS", "current password is incorrect")
		}
		hash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		return s.store.UpdateUserPassword(ctx, user.ID, hash)
	}

	admin, err := s.store.GetAdminByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to load admin: %w", err)
	}
	if admin == nil {
		return errs.NotFound("NO_ACCOUNT", "no account exists for this email")
	}
	if !auth.VerifyPassword(req.CurrentPassword, admin.PasswordHash) {
		return errs.Unauthorized("BAD_CREDENTIALS", "current password is incorrect")
	}
	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.store.UpdateAdminPassword(ctx, admin.ID, hash)
}
