package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eshop-service/internal/errs"
	"eshop-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// GetUserByEmail retrieves a shopper by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE email = $1", email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a shopper by id.
func (s *Store) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetAdminByEmail retrieves an administrator by email.
func (s *Store) GetAdminByEmail(ctx context.Context, email string) (*models.Admin, error) {
	var admin models.Admin
	err := s.db.GetContext(ctx, &admin, "SELECT * FROM admins WHERE email = $1", email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// GetAdminByID retrieves an administrator by id.
func (s *Store) GetAdminByID(ctx context.Context, id int64) (*models.Admin, error) {
	var admin models.Admin
	err := s.db.GetContext(ctx, &admin, "SELECT * FROM admins WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

// FindPrincipalByEmail resolves an email to at most one identity,
// shopper first, then administrator. Returns nil when neither exists.
func (s *Store) FindPrincipalByEmail(ctx context.Context, email string) (*models.Principal, error) {
	user, err := s.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return &models.Principal{
			Email:        user.Email,
			DisplayName:  user.FullName,
			PasswordHash: user.PasswordHash,
			Role:         user.Role,
		}, nil
	}

	admin, err := s.GetAdminByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if admin == nil {
		return nil, nil
	}
	return &models.Principal{
		Email:        admin.Email,
		DisplayName:  admin.AdminName,
		PasswordHash: admin.PasswordHash,
		Role:         admin.Role,
	}, nil
}

// EmailExists reports whether the email is taken by a shopper or an
// administrator. The two tables share one identity namespace.
func (s *Store) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)
		     OR EXISTS(SELECT 1 FROM admins WHERE email = $1)`, email)
	return exists, err
}

// RegisterUserTx creates the shopper and marks the OTP used in one
// transaction, so a crash cannot leave a consumable code behind.
func (s *Store) RegisterUserTx(ctx context.Context, user *models.User, otpID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, user, `
			INSERT INTO users (email, full_name, phone_number, password_hash, verified, role)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at`,
			user.Email, user.FullName, user.PhoneNumber, user.PasswordHash, user.Verified, user.Role)
		if err != nil {
			if errs.IsUniqueViolation(err, "") {
				return errs.Validation("ALREADY_REGISTERED", "an account already exists with this email")
			}
			return fmt.Errorf("insert user: %w", err)
		}

		return markOtpUsed(ctx, tx, otpID)
	})
}

// UpdateUserPasswordTx writes the new hash and consumes the OTP together.
func (s *Store) UpdateUserPasswordTx(ctx context.Context, email, passwordHash string, otpID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE users SET password_hash = $1 WHERE email = $2", passwordHash, email)
		if err != nil {
			return fmt.Errorf("update user password: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return errs.NotFound("NO_ACCOUNT", "no account found with this email")
		}
		return markOtpUsed(ctx, tx, otpID)
	})
}

// UpdateAdminPasswordTx is the administrator variant of the reset path.
func (s *Store) UpdateAdminPasswordTx(ctx context.Context, email, passwordHash string, otpID int64) error {
	return s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE admins SET password_hash = $1 WHERE email = $2", passwordHash, email)
		if err != nil {
			return fmt.Errorf("update admin password: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return errs.NotFound("NO_ACCOUNT", "no account found with this email")
		}
		return markOtpUsed(ctx, tx, otpID)
	})
}

// UpdateUserProfile persists profile field changes.
func (s *Store) UpdateUserProfile(ctx context.Context, user *models.User) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET full_name = $1, phone_number = $2 WHERE id = $3",
		user.FullName, user.PhoneNumber, user.ID)
	return err
}

// UpdateUserPassword writes a new hash outside the OTP flow (change-password).
func (s *Store) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET password_hash = $1 WHERE id = $2", passwordHash, userID)
	return err
}

// UpdateAdminPassword writes a new hash for an admin (change-password).
func (s *Store) UpdateAdminPassword(ctx context.Context, adminID int64, passwordHash string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE admins SET password_hash = $1 WHERE id = $2", passwordHash, adminID)
	return err
}

// ListUsers returns all shopper accounts.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.SelectContext(ctx, &users, "SELECT * FROM users ORDER BY id")
	return users, err
}

// DeleteUser removes a shopper account.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NotFound("NOT_FOUND", "user not found")
	}
	return nil
}

// CreateAdmin persists a new administrator account.
func (s *Store) CreateAdmin(ctx context.Context, admin *models.Admin) error {
	err := s.db.GetContext(ctx, admin, `
		INSERT INTO admins (email, admin_name, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		admin.Email, admin.AdminName, admin.PasswordHash, admin.Role)
	if err != nil && errs.IsUniqueViolation(err, "") {
		return errs.Validation("ALREADY_REGISTERED", "an admin already exists with this email")
	}
	return err
}

// UpdateAdmin persists field changes on an administrator account.
func (s *Store) UpdateAdmin(ctx context.Context, admin *models.Admin) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE admins SET email = $1, admin_name = $2, password_hash = $3 WHERE id = $4",
		admin.Email, admin.AdminName, admin.PasswordHash, admin.ID)
	return err
}

// DeleteAdmin removes an administrator account.
func (s *Store) DeleteAdmin(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM admins WHERE id = $1", id)
	return err
}

// ListAdmins returns administrator accounts with the given role.
func (s *Store) ListAdmins(ctx context.Context, role string) ([]models.Admin, error) {
	var admins []models.Admin
	err := s.db.SelectContext(ctx, &admins,
		"SELECT * FROM admins WHERE role = $1 ORDER BY id", role)
	return admins, err
}
