package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/bright-dela/alx-project-nexus/internal/auth"
	"github.com/bright-dela/alx-project-nexus/internal/models"
	pkgauth "github.com/bright-dela/alx-project-nexus/pkg/auth"
	pkglogger "github.com/bright-dela/alx-project-nexus/pkg/logger"
)

// UserRepository defines the interface for account persistence
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, id string, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}

// TokenDenylist revokes token IDs until their natural expiry
type TokenDenylist interface {
	Blacklist(ctx context.Context, jti string, expiresAt time.Time) error
	// Revoke is Blacklist that reports false when jti was already revoked.
	Revoke(ctx context.Context, jti string, expiresAt time.Time) (bool, error)
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// ValidationError carries per-field messages for a rejected request
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return models.ErrBadRequest
}

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// passwordFieldError converts a password policy failure into a field error
func passwordFieldError(field string, err error) error {
	var pwErr *pkgauth.PasswordValidationError
	if errors.As(err, &pwErr) {
		return fieldError(field, strings.Join(pwErr.Errors, " "))
	}
	return err
}

// RegisterInput is the data needed to create a password account
type RegisterInput struct {
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
}

// PasswordResetInput is the data needed to redeem a password reset code
type PasswordResetInput struct {
	Email              string
	OTP                string
	NewPassword        string
	NewPasswordConfirm string
}

// LoginResult is a token pair with the authenticated account
type LoginResult struct {
	Tokens *auth.TokenPair
	User   *models.User
}

// SocialLoginResult adds whether the account was created by this sign-in
type SocialLoginResult struct {
	LoginResult
	IsNewUser bool
}

// AuthService handles authentication business logic
type AuthService struct {
	users       UserRepository
	otp         *OTPService
	tracker     *LoginTrackingService
	tm          *auth.TokenManager
	denylist    TokenDenylist
	notifier    Notifier
	verifiers   map[string]auth.IdentityVerifier
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users UserRepository,
	otp *OTPService,
	tracker *LoginTrackingService,
	tm *auth.TokenManager,
	denylist TokenDenylist,
	notifier Notifier,
	verifiers []auth.IdentityVerifier,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *AuthService {
	byProvider := make(map[string]auth.IdentityVerifier, len(verifiers))
	for _, v := range verifiers {
		byProvider[v.Provider()] = v
	}

	return &AuthService{
		users:       users,
		otp:         otp,
		tracker:     tracker,
		tm:          tm,
		denylist:    denylist,
		notifier:    notifier,
		verifiers:   byProvider,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// Register creates an unverified account and queues its verification code
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	email := models.NormalizeEmail(in.Email)

	if in.Password != in.PasswordConfirm {
		return nil, fieldError("password", "Passwords do not match")
	}
	if err := pkgauth.ValidatePassword(in.Password, email); err != nil {
		return nil, passwordFieldError("password", err)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, fieldError("email", "user with this email already exists.")
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check existing user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hash, err := pkgauth.HashPassword(in.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.users.Create(ctx, &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, fieldError("email", "user with this email already exists.")
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID))
	s.auditLogger.LogAccountAction(ctx, "user_registered", user.ID, "", nil)

	// the account exists either way; a missing code can be re-requested
	s.sendVerificationCode(ctx, user)

	return user, nil
}

func (s *AuthService) sendVerificationCode(ctx context.Context, user *models.User) bool {
	code, err := s.otp.CreateOTP(ctx, user.Email, models.OTPPurposeVerification)
	if err != nil {
		s.logger.Error("failed to issue verification code",
			slog.String("user_id", user.ID),
			slog.Any("error", err))
		return false
	}
	if !s.notifier.Enqueue(verificationNotification(user, code)) {
		s.logger.Warn("verification email dropped", slog.String("user_id", user.ID))
	}
	return true
}

// VerifyEmail redeems a verification code and marks the account verified
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (*models.User, error) {
	email = models.NormalizeEmail(email)

	ok, err := s.otp.VerifyOTP(ctx, email, models.OTPPurposeVerification, code)
	if err != nil {
		s.logger.Error("failed to verify code", slog.Any("error", err))
		return nil, err
	}
	if !ok {
		return nil, models.ErrInvalidOTP
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user for verification", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !user.IsVerified {
		user.IsVerified = true
		if user, err = s.users.Update(ctx, user.ID, user); err != nil {
			s.logger.Error("failed to mark user verified", slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		s.auditLogger.LogAccountAction(ctx, "email_verified", user.ID, "", nil)
	}

	return user, nil
}

// ResendOTP issues a fresh verification code for an unverified account
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, models.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user for otp resend", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if user.IsVerified {
		return models.ErrAlreadyVerified
	}

	if !s.sendVerificationCode(ctx, user) {
		return models.ErrDependencyUnavailable
	}
	return nil
}

// Login authenticates a password account. The lock is consulted before the
// password so a locked account cannot be probed.
func (s *AuthService) Login(ctx context.Context, email, password string, lc models.LoginContext) (*LoginResult, error) {
	email = models.NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("login failed: invalid credentials")
			s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
				EventType:     "login_failed",
				IPAddress:     lc.IPAddress,
				FailureReason: "invalid_credentials",
			})
			return nil, models.ErrInvalidCredentials
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if s.tracker.IsLocked(ctx, email) {
		s.logger.Info("login blocked: account locked", slog.String("user_id", user.ID))
		s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     lc.IPAddress,
			FailureReason: "account_locked",
		})
		return nil, models.ErrAccountLocked
	}

	if !user.IsActive || pkgauth.ComparePassword(user.PasswordHash, password) != nil {
		s.logger.Info("login failed: invalid credentials", slog.String("user_id", user.ID))
		s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     lc.IPAddress,
			UserAgent:     lc.UserAgent,
			FailureReason: "invalid_credentials",
		})
		if _, err := s.tracker.RecordLoginAttempt(ctx, user, lc, false, "Invalid credentials"); err != nil {
			s.logger.Warn("failed login not recorded", slog.String("user_id", user.ID))
		}
		return nil, models.ErrInvalidCredentials
	}

	if !user.IsVerified {
		s.logger.Info("login blocked: email not verified", slog.String("user_id", user.ID))
		s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     lc.IPAddress,
			FailureReason: "email_not_verified",
		})
		return nil, models.ErrEmailNotVerified
	}

	return s.completeLogin(ctx, user, lc)
}

// completeLogin records a successful login and issues tokens
func (s *AuthService) completeLogin(ctx context.Context, user *models.User, lc models.LoginContext) (*LoginResult, error) {
	if _, err := s.tracker.RecordLoginAttempt(ctx, user, lc, true, ""); err != nil {
		s.logger.Warn("successful login not recorded", slog.String("user_id", user.ID))
	}

	pair, err := s.tm.GeneratePair(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate tokens", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		IPAddress: lc.IPAddress,
		UserAgent: lc.UserAgent,
		Success:   true,
	})

	return &LoginResult{Tokens: pair, User: user}, nil
}

// Logout revokes the caller's access token and, when given, their refresh
// token. The refresh token must belong to the caller.
func (s *AuthService) Logout(ctx context.Context, claims *models.TokenClaims, refreshToken string) error {
	if refreshToken = strings.TrimSpace(refreshToken); refreshToken != "" {
		refresh, err := s.tm.ValidateToken(refreshToken)
		if err != nil || refresh.Type != models.TokenTypeRefresh || refresh.UserID != claims.UserID {
			s.logger.Info("logout with invalid refresh token", slog.String("user_id", claims.UserID))
			return models.ErrInvalidToken
		}
		if err := s.denylist.Blacklist(ctx, refresh.ID, refresh.ExpiresAt.Time); err != nil {
			s.logger.Error("failed to revoke refresh token", slog.String("user_id", claims.UserID), slog.Any("error", err))
			return err
		}
	}

	if claims.ID != "" && claims.ExpiresAt != nil {
		if err := s.denylist.Blacklist(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			s.logger.Error("failed to revoke access token", slog.String("user_id", claims.UserID), slog.Any("error", err))
			return err
		}
	}

	s.logger.Info("user logged out", slog.String("user_id", claims.UserID))
	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: "logout",
		UserID:    claims.UserID,
		Success:   true,
	})
	return nil
}

// Refresh exchanges a refresh token for a new pair and revokes the old one
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error) {
	claims, err := s.tm.ValidateToken(strings.TrimSpace(refreshToken))
	if err != nil {
		s.logger.Info("refresh token validation failed", slog.Any("error", err))
		return nil, models.ErrInvalidToken
	}
	if claims.Type != models.TokenTypeRefresh {
		s.logger.Warn("refresh attempt with non-refresh token", slog.String("user_id", claims.UserID))
		return nil, models.ErrInvalidToken
	}

	revoked, err := s.denylist.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		s.logger.Error("denylist check failed", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, err
	}
	if revoked {
		s.logger.Warn("refresh attempt with revoked token", slog.String("user_id", claims.UserID))
		return nil, models.ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrInvalidToken
		}
		s.logger.Error("failed to get user for token refresh", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if !user.IsActive {
		s.logger.Info("token refresh blocked: account inactive", slog.String("user_id", user.ID))
		return nil, models.ErrInvalidToken
	}

	// only one concurrent refresh with the same token can revoke it
	claimed, err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
	if err != nil {
		s.logger.Error("failed to revoke rotated refresh token", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, err
	}
	if !claimed {
		s.logger.Warn("refresh attempt with revoked token", slog.String("user_id", user.ID))
		return nil, models.ErrInvalidToken
	}

	pair, err := s.tm.GeneratePair(user.ID, user.Email)
	if err != nil {
		s.logger.Error("failed to generate tokens", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAuthAttempt(ctx, pkglogger.AuditEvent{
		EventType: "token_refreshed",
		UserID:    user.ID,
		Success:   true,
	})
	return pair, nil
}

// RequestPasswordReset queues a reset code when the account exists. It
// reports success in every case so callers cannot probe for accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) {
	email = models.NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.logger.Error("failed to get user for password reset", slog.Any("error", err))
		}
		return
	}

	code, err := s.otp.CreateOTP(ctx, user.Email, models.OTPPurposePasswordReset)
	if err != nil {
		s.logger.Error("failed to issue reset code", slog.String("user_id", user.ID), slog.Any("error", err))
		return
	}
	if !s.notifier.Enqueue(passwordResetNotification(user.Email, code)) {
		s.logger.Warn("password reset email dropped", slog.String("user_id", user.ID))
	}

	s.auditLogger.LogAccountAction(ctx, "password_reset_requested", user.ID, "", nil)
}

// ConfirmPasswordReset redeems a reset code and sets the new password
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, in PasswordResetInput) error {
	email := models.NormalizeEmail(in.Email)

	if in.NewPassword != in.NewPasswordConfirm {
		return fieldError("new_password", "Passwords do not match")
	}
	if err := pkgauth.ValidatePassword(in.NewPassword, email); err != nil {
		return passwordFieldError("new_password", err)
	}

	ok, err := s.otp.VerifyOTP(ctx, email, models.OTPPurposePasswordReset, in.OTP)
	if err != nil {
		s.logger.Error("failed to verify reset code", slog.Any("error", err))
		return err
	}
	if !ok {
		return models.ErrInvalidOTP
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user for password reset", slog.Any("error", err))
		return models.ErrInternalServer
	}

	hash, err := pkgauth.HashPassword(in.NewPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		s.logger.Error("failed to update password", slog.String("user_id", user.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("password reset", slog.String("user_id", user.ID))
	s.auditLogger.LogAccountAction(ctx, "password_reset", user.ID, "", nil)
	return nil
}

// SocialLogin signs in with an identity provider token, creating or linking
// the account by email.
func (s *AuthService) SocialLogin(ctx context.Context, provider, token string, lc models.LoginContext) (*SocialLoginResult, error) {
	verifier, ok := s.verifiers[provider]
	if !ok {
		return nil, models.ErrUnsupportedProvider
	}

	identity, err := verifier.Verify(ctx, token)
	if err != nil {
		s.logger.Info("identity token rejected", slog.String("provider", provider), slog.Any("error", err))
		return nil, err
	}
	if !identity.EmailVerified {
		return nil, models.ErrProviderEmailUnverified
	}

	user, created, err := s.linkIdentity(ctx, identity)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		s.logger.Info("social login blocked: account inactive", slog.String("user_id", user.ID))
		return nil, models.ErrAccountDisabled
	}

	result, err := s.completeLogin(ctx, user, lc)
	if err != nil {
		return nil, err
	}

	return &SocialLoginResult{LoginResult: *result, IsNewUser: created}, nil
}

// linkIdentity returns the account for identity's email, creating a verified
// one if none exists and back-filling provider fields otherwise.
func (s *AuthService) linkIdentity(ctx context.Context, identity *models.ExternalIdentity) (*models.User, bool, error) {
	user, err := s.users.GetByEmail(ctx, identity.Email)
	if errors.Is(err, models.ErrNotFound) {
		user, err = s.users.Create(ctx, &models.User{
			Email:      identity.Email,
			FirstName:  identity.GivenName,
			LastName:   identity.FamilyName,
			IsVerified: true,
			IsActive:   true,
			Provider:   identity.Provider,
			ProviderID: identity.SubjectID,
		})
		if err == nil {
			s.auditLogger.LogAccountAction(ctx, "user_registered", user.ID, "", map[string]string{"provider": identity.Provider})
			return user, true, nil
		}
		if !errors.Is(err, models.ErrConflict) {
			s.logger.Error("failed to create social user", slog.Any("error", err))
			return nil, false, models.ErrInternalServer
		}
		// lost a race with a concurrent sign-in for the same email
		user, err = s.users.GetByEmail(ctx, identity.Email)
	}
	if err != nil {
		s.logger.Error("failed to get user for social login", slog.Any("error", err))
		return nil, false, models.ErrInternalServer
	}

	changed := false
	if user.Provider == "" {
		user.Provider = identity.Provider
		changed = true
	}
	if user.ProviderID == "" {
		user.ProviderID = identity.SubjectID
		changed = true
	}
	if !user.IsVerified {
		user.IsVerified = true
		changed = true
	}

	if changed {
		if user, err = s.users.Update(ctx, user.ID, user); err != nil {
			s.logger.Error("failed to link identity", slog.Any("error", err))
			return nil, false, models.ErrInternalServer
		}
	}

	return user, false, nil
}
