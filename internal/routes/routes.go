package routes

import (
	"log/slog"

	"github.com/bright-dela/alx-project-nexus/internal/auth"
	"github.com/bright-dela/alx-project-nexus/internal/handlers"
	"github.com/bright-dela/alx-project-nexus/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// Dependencies groups what the route table needs
type Dependencies struct {
	AuthHandler   *handlers.AuthHandler
	UserHandler   *handlers.UserHandler
	HealthHandler *handlers.HealthHandler
	TokenManager  *auth.TokenManager
	Denylist      auth.DenylistChecker
	Revocation    auth.RevocationConfig
	PublicLimit   middleware.RateLimitConfig
	UserLimit     middleware.RateLimitConfig
	Logger        *slog.Logger
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, deps Dependencies) {
	router.Get("/health", deps.HealthHandler.Health)

	router.Route("/api/auth", func(r chi.Router) {
		// Public routes - rate limited per client IP
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(deps.PublicLimit))

			r.Post("/register", deps.AuthHandler.Register)
			r.Post("/verify-email", deps.AuthHandler.VerifyEmail)
			r.Post("/resend-otp", deps.AuthHandler.ResendOTP)
			r.Post("/login", deps.AuthHandler.Login)
			r.Post("/token/refresh", deps.AuthHandler.RefreshToken)
			r.Post("/password-reset", deps.AuthHandler.PasswordResetRequest)
			r.Post("/password-reset/confirm", deps.AuthHandler.PasswordResetConfirm)
			r.Post("/google", deps.AuthHandler.GoogleLogin)
		})

		// Protected routes - bearer access token required
		r.Group(func(r chi.Router) {
			r.Use(auth.AuthMiddleware(deps.TokenManager, deps.Denylist, deps.Revocation, deps.Logger))
			r.Use(middleware.RateLimitByUserID(deps.UserLimit))

			r.Post("/logout", deps.AuthHandler.Logout)
			r.Get("/me", deps.UserHandler.Me)
			r.Patch("/me", deps.UserHandler.UpdateMe)
			r.Get("/login-history", deps.UserHandler.LoginHistory)
			r.Get("/security-claims", deps.UserHandler.SecurityClaims)
		})
	})
}
