package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"go.uber.org/zap"

	"eshop-service/internal/auth"
	"eshop-service/internal/errs"
	"eshop-service/internal/mailer"
	"eshop-service/internal/models"
	"eshop-service/internal/redisclient"
	"eshop-service/internal/store"
	"eshop-service/internal/util"
)

// AuthService orchestrates OTP issue, registration, login and
// password reset.
type AuthService struct {
	store  *store.Store
	redis  *redisclient.Client
	tokens *auth.TokenCodec
	mailer mailer.Mailer
	logger *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(store *store.Store, redis *redisclient.Client, tokens *auth.TokenCodec, m mailer.Mailer) *AuthService {
	return &AuthService{
		store:  store,
		redis:  redis,
		tokens: tokens,
		mailer: m,
		logger: util.GetLogger(),
	}
}

// RegisterRequest is the registration payload
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	FullName        string `json:"fullName" binding:"required"`
	PhoneNumber     string `json:"phoneNumber"`
	Password        string `json:"password" binding:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" binding:"required"`
	Otp             string `json:"otp" binding:"required"`
}

// LoginResponse carries the issued token and display data
type LoginResponse struct {
	Token    string `json:"jwt"`
	Role     string `json:"role"`
	Message  string `json:"message"`
	Username string `json:"username"`
}

// RequestRegisterOtp issues a registration OTP to an unknown email.
func (s *AuthService) RequestRegisterOtp(ctx context.Context, email string) error {
	ctx, span := util.StartSpan(ctx, "AuthService.RequestRegisterOtp")
	defer span.End()

	exists, err := s.store.EmailExists(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return errs.Validation("ALREADY_REGISTERED", "email is already registered")
	}

	return s.issueOtp(ctx, email, models.OtpPurposeRegister,
		"Your verification code",
		"Use this code to complete your registration: %s\r\nIt expires in 5 minutes.")
}

// RequestForgotPasswordOtp issues a password reset OTP to a known email.
func (s *AuthService) RequestForgotPasswordOtp(ctx context.Context, email string) error {
	ctx, span := util.StartSpan(ctx, "AuthService.RequestForgotPasswordOtp")
	defer span.End()

	principal, err := s.store.FindPrincipalByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to resolve account: %w", err)
	}
	if principal == nil {
		return errs.NotFound("NO_ACCOUNT", "no account exists for this email")
	}

	body := "Use this code to reset your password: %s\r\nIt expires in 5 minutes."
	if principal.Role != models.RoleShopper {
		body = "Use this code to reset your administrator password: %s\r\nIt expires in 5 minutes."
	}
	return s.issueOtp(ctx, email, models.OtpPurposeForgotPassword, "Password reset code", body)
}

func (s *AuthService) issueOtp(ctx context.Context, email, purpose, subject, bodyFormat string) error {
	allowed, err := s.redis.AllowOtpSend(ctx, email)
	if err != nil {
		s.logger.Warn("OTP throttle check failed, allowing send",
			zap.String("email", email), zap.Error(err))
	} else if !allowed {
		return errs.Validation("OTP_THROTTLED", "too many codes requested, try again later")
	}

	code, err := auth.GenerateOtp()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	rec := &models.OtpRecord{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: time.Now().UnixMilli() + auth.OtpTTLMillis,
	}
	if err := s.store.UpsertOtp(ctx, rec); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}

	if err := s.mailer.Send(email, subject, fmt.Sprintf(bodyFormat, code)); err != nil {
		return fmt.Errorf("failed to send otp email: %w", err)
	}

	util.OtpEmailsSentTotal.WithLabelValues(purpose).Inc()
	s.logger.Info("OTP issued", zap.String("email", email), zap.String("purpose", purpose))
	return nil
}

// Register validates the OTP and atomically creates the shopper.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*LoginResponse, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Register")
	defer span.End()

	if req.Password != req.ConfirmPassword {
		return nil, errs.Validation("PASSWORD_MISMATCH", "passwords do not match")
	}

	otp, err := s.validateOtp(ctx, req.Email, req.Otp, models.OtpPurposeRegister)
	if err != nil {
		return nil, err
	}

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

	user := &models.User{
		Email:        req.Email,
		FullName:     req.FullName,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: hash,
		Verified:     true,
		Role:         models.RoleShopper,
	}
	if err := s.store.RegisterUserTx(ctx, user, otp.ID); err != nil {
		return nil, err
	}

	token, err := s.tokens.Issue(user.Email, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("Shopper registered", zap.String("email", user.Email))
	return &LoginResponse{
		Token:    token,
		Role:     user.Role,
		Message:  "Registered successfully",
		Username: user.FullName,
	}, nil
}

// Login verifies credentials against the unified identity namespace.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	principal, err := s.store.FindPrincipalByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve account: %w", err)
	}
	if principal == nil {
		util.LoginsTotal.WithLabelValues("no_account").Inc()
		return nil, errs.Unauthorized("NO_ACCOUNT", "invalid email or password")
	}

	if !auth.VerifyPassword(password, principal.PasswordHash) {
		util.LoginsTotal.WithLabelValues("bad_credentials").Inc()
		return nil, errs.Unauthorized("BAD_CREDENTIALS", "invalid email or password")
	}

	token, err := s.tokens.Issue(principal.Email, principal.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	util.LoginsTotal.WithLabelValues("success").Inc()
	return &LoginResponse{
		Token:    token,
		Role:     principal.Role,
		Message:  "Login successful",
		Username: principal.DisplayName,
	}, nil
}

// ResetPassword validates the OTP and writes the new hash to whichever
// identity matches the email.
func (s *AuthService) ResetPassword(ctx context.Context, email, otpCode, newPassword string) error {
	ctx, span := util.StartSpan(ctx, "AuthService.ResetPassword")
	defer span.End()

	if len(newPassword) < 8 {
		return errs.Validation("WEAK_PASSWORD", "password must be at least 8 characters")
	}

	otp, err := s.validateOtp(ctx, email, otpCode, models.OtpPurposeForgotPassword)
	if err != nil {
		return err
	}

	principal, err := s.store.FindPrincipalByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to resolve account: %w", err)
	}
	if principal == nil {
		return errs.NotFound("NO_ACCOUNT", "no account exists for this email")
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if principal.Role == models.RoleShopper {
		err = s.store.UpdateUserPasswordTx(ctx, email, hash, otp.ID)
	} else {
		err = s.store.UpdateAdminPasswordTx(ctx, email, hash, otp.ID)
	}
	if err != nil {
		return err
	}

	s.logger.Info("Password reset", zap.String("email", email))
	return nil
}

// validateOtp enforces the full OTP matrix: missing, used, purpose,
// mismatch, expiry. Codes are compared byte-wise.
func (s *AuthService) validateOtp(ctx context.Context, email, code, purpose string) (*models.OtpRecord, error) {
	rec, err := s.store.GetOtpByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load otp: %w", err)
	}
	if rec == nil {
		return nil, errs.Validation("OTP_MISSING", "no OTP was requested for this email")
	}
	if rec.Used {
		return nil, errs.Validation("OTP_USED", "OTP has already been used")
	}
	if rec.Purpose != purpose {
		return nil, errs.Validation("OTP_MISMATCH", "OTP does not match")
	}
	if subtle.ConstantTimeCompare([]byte(rec.Code), []byte(code)) != 1 {
		return nil, errs.Validation("OTP_MISMATCH", "OTP does not match")
	}
	if time.Now().UnixMilli() > rec.ExpiresAt {
		return nil, errs.Validation("OTP_EXPIRED", "OTP has expired")
	}
	return rec, nil
}
