package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bright-dela/alx-project-nexus/internal/auth"
	"github.com/bright-dela/alx-project-nexus/internal/models"
	"github.com/bright-dela/alx-project-nexus/internal/services"
	pkghttp "github.com/bright-dela/alx-project-nexus/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	VerifyEmail(ctx context.Context, email, code string) (*models.User, error)
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, email, password string, lc models.LoginContext) (*services.LoginResult, error)
	Logout(ctx context.Context, claims *models.TokenClaims, refreshToken string) error
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	RequestPasswordReset(ctx context.Context, email string)
	ConfirmPasswordReset(ctx context.Context, in services.PasswordResetInput) error
	SocialLogin(ctx context.Context, provider, token string, lc models.LoginContext) (*services.SocialLoginResult, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	ipConfig *pkghttp.IPConfig
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		service:  service,
		ipConfig: ipConfig,
		logger:   logger,
	}
}

// Request DTOs

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required"`
	FirstName       string `json:"first_name" validate:"max=150"`
	LastName        string `json:"last_name" validate:"max=150"`
}

// VerifyEmailRequest represents the request body for email verification
type VerifyEmailRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,max=6"`
}

// EmailRequest is the body for endpoints that only take an email
type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LogoutRequest represents the request body for logout
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RefreshTokenRequest represents the request body for token refresh
type RefreshTokenRequest struct {
	Refresh string `json:"refresh" validate:"required"`
}

// PasswordResetConfirmRequest represents the request body for completing a reset
type PasswordResetConfirmRequest struct {
	Email              string `json:"email" validate:"required,email"`
	OTP                string `json:"otp" validate:"required,max=6"`
	NewPassword        string `json:"new_password" validate:"required"`
	NewPasswordConfirm string `json:"new_password_confirm" validate:"required"`
}

// GoogleAuthRequest represents the request body for Google sign-in
type GoogleAuthRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// decodeAndValidate writes the error response itself and reports whether
// the handler should continue.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		pkghttp.WriteBadRequest(w, r, "Invalid request body")
		return false
	}
	if details := ValidateRequest(dst); details != nil {
		pkghttp.WriteValidationError(w, r, "Validation failed", details)
		return false
	}
	return true
}

// writeServiceError handles the errors common to every endpoint
func (h *AuthHandler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	writeServiceError(w, r, h.logger, err)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var vErr *services.ValidationError
	switch {
	case errors.As(err, &vErr):
		pkghttp.WriteValidationError(w, r, "Validation failed", vErr.Fields)
	case errors.Is(err, models.ErrDependencyUnavailable):
		pkghttp.WriteError(w, r, http.StatusServiceUnavailable, "service_unavailable", "Service temporarily unavailable. Please try again later.")
	default:
		logger.Error("unhandled service error", slog.String("path", r.URL.Path), slog.Any("error", err))
		pkghttp.WriteInternalError(w, r, "Internal server error")
	}
}

func (h *AuthHandler) loginContext(r *http.Request) models.LoginContext {
	return models.LoginContext{
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: r.UserAgent(),
	}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), services.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	pkghttp.WriteSuccess(w, r, http.StatusCreated,
		"Registration successful. Please check your email for verification code.",
		map[string]string{"email": user.Email})
}

// VerifyEmail handles POST /api/auth/verify-email
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.VerifyEmail(r.Context(), req.Email, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidOTP):
			pkghttp.WriteError(w, r, http.StatusBadRequest, "invalid_otp", "Invalid or expired verification code")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, r, "User not found")
		default:
			h.writeServiceError(w, r, err)
		}
		return
	}

	pkghttp.WriteSuccess(w, r, http.StatusOK, "Email verified successfully", map[string]interface{}{
		"email":       user.Email,
		"is_verified": true,
	})
}

// ResendOTP handles POST /api/auth/resend-otp
func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.ResendOTP(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, models.ErrAlreadyVerified):
			pkghttp.WriteError(w, r, http.StatusBadRequest, "already_verified", "Email already verified")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, r, "User not found")
		default:
			h.writeServiceError(w, r, err)
		}
		return
	}

	pkghttp.WriteSuccess(w, r, http.StatusOK, "Verification code sent successfully",
		map[string]string{"email": models.NormalizeEmail(req.Email)})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password, h.loginContext(r))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidCredentials):
			pkghttp.WriteValidationError(w, r, "Invalid credentials",
				map[string]string{"non_field_errors": "Invalid credentials"})
		case errors.Is(err, models.ErrAccountLocked):
			pkghttp.WriteForbidden(w, r, "permission_error",
				"Account temporarily locked due to multiple failed login attempts. Please try again later.")
		case errors.Is(err, models.ErrEmailNotVerified):
			pkghttp.WriteForbidden(w, r, "permission_error", "Please verify your email before logging in")
		default:
			h.writeServiceError(w, r, err)
		}
		return
	}

	pkghttp.WriteSuccess(w, r, http.StatusOK, "Login successful", LoginResponse{
		Tokens: result.Tokens,
		User:   toUserResponse(result.User),
	})
}

// Logout handles POST /api/auth/logout (authenticated)
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, r, "Authentication credentials were not provided")
		return
	}

	var req LogoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		pkghttp.WriteBadRequest(w, r, "Invalid request body")
		return
	}

	if err := h.service.Logout(r.Context(), claims, req.RefreshToken); err != nil {
		if errors.Is(err, models.ErrInvalidToken) {
			pkghttp.WriteError(w, r, http.StatusBadRequest, "invalid_token", "Invalid token")
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	pkghttp.WriteSuccess(w, r, http.StatusOK, "Logout successful", nil)
}

// RefreshToken handles POST /api/auth/token/refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, models.ErrInvalidToken) {
			pkghttp.WriteUnauthorized(w, r, "Token is invalid or expired")
			return
		}
		h.writeServiceError(w, r, err)
		return
	}

	pkghttp.WriteSuccess(w, r, http.StatusOK, "Token refreshed successfully", pair)
}

// PasswordResetRequest handles POST /api/auth/password-reset. The response
// is the same whether or not the account exists.
func (h *AuthHandler) PasswordResetRequest(w http.ResponseWriter, r *http.Request) {
	var req EmailRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	h.service.RequestPasswordReset(r.Context(), req.Email)

	pkghttp.WriteSuccess(w, r, http.StatusOK, "If the email exists, a reset code has been sent",
		map[string]string{"email": models.NormalizeEmail(req.Email)})
}

// PasswordResetConfirm handles POST /api/auth/password-reset/confirm
func (h *AuthHandler) PasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	err := h.service.ConfirmPasswordReset(r.Context(), services.PasswordResetInput{
		Email:              req.Email,
		OTP:                req.OTP,
		NewPassword:        req.NewPassword,
		NewPasswordConfirm: req.NewPasswordConfirm,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidOTP):
			pkghttp.WriteError(w, r, http.StatusBadRequest, "invalid_otp", "Invalid or expired reset code")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, r, "User not found")
		default:
			h.writeServiceError(w, r, err)
		}
		return
	}

	pkghttp.WriteSuccess(w, r, http.StatusOK, "Password reset successful",
		map[string]string{"email": models.NormalizeEmail(req.Email)})
}

// GoogleLogin handles POST /api/auth/google
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	var req GoogleAuthRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.service.SocialLogin(r.Context(), auth.ProviderGoogle, req.IDToken, h.loginContext(r))
	if err != nil {
		switch {
		case errors.Is(err, models.ErrProviderEmailUnverified):
			pkghttp.WriteError(w, r, http.StatusBadRequest, "email_not_verified", "Email not verified by Google")
		case errors.Is(err, models.ErrProviderToken), errors.Is(err, models.ErrUnsupportedProvider):
			pkghttp.WriteError(w, r, http.StatusBadRequest, "google_auth_error", "Invalid Google token")
		case errors.Is(err, models.ErrAccountDisabled):
			pkghttp.WriteForbidden(w, r, "permission_error", "Account is deactivated")
		default:
			h.writeServiceError(w, r, err)
		}
		return
	}

	isNew := result.IsNewUser
	pkghttp.WriteSuccess(w, r, http.StatusOK, "Google authentication successful", LoginResponse{
		Tokens:    result.Tokens,
		User:      toUserResponse(result.User),
		IsNewUser: &isNew,
	})
}
