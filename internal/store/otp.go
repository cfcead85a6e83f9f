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

// UpsertOtp replaces the single OTP row for an email. A register code
// and a reset code cannot coexist; the later issue wins.
func (s *Store) UpsertOtp(ctx context.Context, rec *models.OtpRecord) error {
	return s.db.GetContext(ctx, &rec.ID, `
		INSERT INTO otp_records (email, code, purpose, expires_at, used)
		VALUES ($1, $2, $3, $4, false)
		ON CONFLICT (email) DO UPDATE
		SET code = EXCLUDED.code,
		    purpose = EXCLUDED.purpose,
		    expires_at = EXCLUDED.expires_at,
		    used = false
		RETURNING id`,
		rec.Email, rec.Code, rec.Purpose, rec.ExpiresAt)
}

// GetOtpByEmail returns the current OTP row for an email, or nil.
func (s *Store) GetOtpByEmail(ctx context.Context, email string) (*models.OtpRecord, error) {
	var rec models.OtpRecord
	err := s.db.GetContext(ctx, &rec, "SELECT * FROM otp_records WHERE email = $1", email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// markOtpUsed consumes a code inside the caller's transaction. The
// used = false guard makes a second consume fail even under races.
func markOtpUsed(ctx context.Context, tx *sqlx.Tx, otpID int64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE otp_records SET used = true WHERE id = $1 AND used = false", otpID)
	if err != nil {
		return fmt.Errorf("mark otp used: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.Validation("OTP_USED", "OTP has already been used")
	}
	return nil
}
