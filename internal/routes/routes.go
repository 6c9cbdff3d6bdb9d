package routes

import (
	"github.com/adiwijaya/rukun/internal/auth"
	"github.com/adiwijaya/rukun/internal/handlers"
	"github.com/adiwijaya/rukun/internal/middleware"
	"github.com/adiwijaya/rukun/internal/models"
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	registrationHandler *handlers.RegistrationHandler,
	resetHandler *handlers.ResetHandler,
	adminHandler *handlers.AdminHandler,
	healthHandler *handlers.HealthHandler,
	tokenManager *auth.TokenManager,
	roleReader auth.RoleReader,
) {
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	router.Get("/health", healthHandler.Health)

	// Public routes - no authentication required
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(rateLimitConfig))

		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/refresh", authHandler.Refresh)

		r.Post("/auth/register", registrationHandler.Register)
		r.Post("/auth/register/accept", registrationHandler.Accept)
		r.Post("/auth/resend-otp", registrationHandler.ResendOTP)

		r.Post("/auth/forgot-password", resetHandler.ForgotPassword)
		r.Post("/auth/forgot-password/accept", resetHandler.Accept)
		r.Post("/auth/reset-password", resetHandler.ResetPassword)
	})

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.Authenticate(tokenManager))

		r.Post("/auth/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireLevel(roleReader, models.RoleAdmin))
			r.Get("/admin/roles", adminHandler.ListRoles)
			r.Get("/admin/users/pending", adminHandler.ListPending)
			r.Post("/admin/users/{id}/approve", adminHandler.Approve)
			r.Post("/admin/users/{id}/reject", adminHandler.Reject)
		})
	})
}
