package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bright-dela/alx-project-nexus/internal/models"
	pkghttp "github.com/bright-dela/alx-project-nexus/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing user claims in context
	UserContextKey contextKey = "user"
)

// DenylistChecker reports whether a token ID has been revoked
type DenylistChecker interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// RevocationConfig holds configuration for token revocation behavior
type RevocationConfig struct {
	FailClosed bool // deny access when the denylist cannot be consulted
}

// AuthMiddleware validates bearer access tokens, consults the denylist and
// injects the claims into the request context.
func AuthMiddleware(tm *TokenManager, denylist DenylistChecker, cfg RevocationConfig, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				pkghttp.WriteUnauthorized(w, r, "Authentication credentials were not provided")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
				pkghttp.WriteUnauthorized(w, r, "Invalid authorization header format")
				return
			}

			claims, err := tm.ValidateToken(strings.TrimSpace(parts[1]))
			if err != nil {
				pkghttp.WriteUnauthorized(w, r, "Given token not valid for any token type")
				return
			}

			// refresh tokens are only accepted by the refresh and logout endpoints
			if claims.Type != models.TokenTypeAccess {
				pkghttp.WriteUnauthorized(w, r, "Given token not valid for any token type")
				return
			}

			if denylist != nil {
				revoked, err := denylist.IsBlacklisted(r.Context(), claims.ID)
				if err != nil {
					logger.Error("denylist check failed", slog.String("user_id", claims.UserID), slog.Any("error", err))
					if cfg.FailClosed {
						pkghttp.WriteError(w, r, http.StatusServiceUnavailable, "service_unavailable", "Unable to verify token status")
						return
					}
				}
				if revoked {
					pkghttp.WriteUnauthorized(w, r, "Token is blacklisted")
					return
				}
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(UserContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}

// WithClaims returns a copy of ctx carrying claims. Used by tests and
// internal callers that authenticate outside the middleware.
func WithClaims(ctx context.Context, claims *models.TokenClaims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}
