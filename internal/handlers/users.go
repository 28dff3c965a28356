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

// UserService defines the interface for an account holder's own data
type UserService interface {
	GetProfile(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, update services.ProfileUpdate) (*models.User, error)
	LoginHistory(ctx context.Context, userID string) ([]*models.LoginHistory, error)
	SecurityClaims(ctx context.Context, userID string) ([]*models.SecurityClaim, error)
}

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	service UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service UserService, logger *slog.Logger) *UserHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &UserHandler{
		service: service,
		logger:  logger,
	}
}

// UpdateProfileRequest represents the request body for profile changes.
// Omitted fields are left as they are.
type UpdateProfileRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
}

// currentUser returns the authenticated caller's ID or writes a 401
func currentUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, r, "Authentication credentials were not provided")
		return "", false
	}
	return claims.UserID, true
}

func (h *UserHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, models.ErrNotFound) {
		pkghttp.WriteNotFound(w, r, "User not found")
		return
	}
	writeServiceError(w, r, h.logger, err)
}

// Me handles GET /api/auth/me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetProfile(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	pkghttp.WriteSuccess(w, r, http.StatusOK, "User profile retrieved successfully", toUserResponse(user))
}

// UpdateMe handles PATCH /api/auth/me
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, services.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	pkghttp.WriteSuccess(w, r, http.StatusOK, "User profile updated successfully", toUserResponse(user))
}

// LoginHistory handles GET /api/auth/login-history
func (h *UserHandler) LoginHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	records, err := h.service.LoginHistory(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]LoginHistoryResponse, 0, len(records))
	for _, rec := range records {
		items = append(items, toLoginHistoryResponse(rec))
	}

	pkghttp.WriteSuccess(w, r, http.StatusOK, "Login history retrieved successfully", map[string]interface{}{
		"login_history": items,
		"count":         len(items),
	})
}

// SecurityClaims handles GET /api/auth/security-claims. Only unresolved
// claims are listed.
func (h *UserHandler) SecurityClaims(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	claims, err := h.service.SecurityClaims(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	items := make([]SecurityClaimResponse, 0, len(claims))
	for _, c := range claims {
		items = append(items, toSecurityClaimResponse(c))
	}

	pkghttp.WriteSuccess(w, r, http.StatusOK, "Security claims retrieved successfully", map[string]interface{}{
		"security_claims": items,
		"count":           len(items),
	})
}
