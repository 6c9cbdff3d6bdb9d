package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/adiwijaya/rukun/internal/models"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing user claims in context
	UserContextKey contextKey = "user"
)

// RoleReader looks up role reference data for the authorization gate.
type RoleReader interface {
	GetByName(ctx context.Context, name string) (*models.Role, error)
}

// Authenticate validates the bearer access token and injects the
// decoded identity into the request context. It performs no database
// access: the signature alone is trusted, which is why access tokens
// stay short-lived.
func Authenticate(tm *TokenManager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "missing authorization header", http.StatusUnauthorized)
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := tm.ValidateToken(parts[1])
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			// Reset proof tokens must never grant API access
			if claims.Type != models.TokenTypeAccess {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLevel enforces role-based access by permission level. Both the
// required role and the caller's role are read from the role reference
// table; the comparison is "at least this privileged", so a
// higher-level role passes a lower-level requirement.
func RequireLevel(roles RoleReader, requiredRole string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r)
			if claims == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			required, err := roles.GetByName(r.Context(), requiredRole)
			if err != nil {
				// Role reference data is corrupt or missing
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			caller, err := roles.GetByName(r.Context(), claims.Role)
			if err != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
				return
			}

			if caller.Level < required.Level {
				http.Error(w, "forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
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
