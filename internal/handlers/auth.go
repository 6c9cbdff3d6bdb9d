package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adiwijaya/rukun/internal/auth"
	"github.com/adiwijaya/rukun/internal/models"
	"github.com/adiwijaya/rukun/internal/services"
	pkghttp "github.com/adiwijaya/rukun/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password, ipAddress string) (*services.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*services.AuthResponse, error)
	Logout(ctx context.Context, userID string) error
	GetUser(ctx context.Context, userID string) (*services.UserResponse, error)
}

// AuthHandler handles session lifecycle HTTP requests
type AuthHandler struct {
	service       AuthServiceInterface
	ipConfig      *pkghttp.IPConfig
	cookieConfig  auth.CookieConfig
	refreshMaxAge int
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig, cookieConfig auth.CookieConfig, refreshMaxAge int) *AuthHandler {
	return &AuthHandler{
		service:       service,
		ipConfig:      ipConfig,
		cookieConfig:  cookieConfig,
		refreshMaxAge: refreshMaxAge,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login handles user login. The access token is returned in the body;
// the refresh credential only ever travels in an httpOnly cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)

	authResp, err := h.service.Login(r.Context(), req.Email, req.Password, ipAddress)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized),
			errors.Is(err, models.ErrAccountLocked),
			errors.Is(err, models.ErrAccountSuspended),
			errors.Is(err, models.ErrForbidden):
			// One generic answer for every account state to prevent
			// user enumeration
			pkghttp.WriteUnauthorized(w, "Authentication failed")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	auth.SetRefreshTokenCookie(w, authResp.RefreshToken, h.refreshMaxAge, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, authResp)
}

// Refresh rotates the refresh credential from the cookie and returns a
// new access token. The replacement credential goes back out in the
// same cookie.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, err := auth.GetRefreshTokenCookie(r)
	if err != nil {
		pkghttp.WriteUnauthorized(w, "Missing refresh credential")
		return
	}

	authResp, err := h.service.Refresh(r.Context(), refreshToken)
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			auth.ClearRefreshTokenCookie(w, h.cookieConfig)
			pkghttp.WriteUnauthorized(w, "Invalid or expired refresh credential")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	auth.SetRefreshTokenCookie(w, authResp.RefreshToken, h.refreshMaxAge, h.cookieConfig)
	pkghttp.WriteJSON(w, http.StatusOK, authResp)
}

// Logout revokes the caller's refresh credentials and clears the
// cookie. Requires a valid access token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	if err := h.service.Logout(r.Context(), claims.UserID); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	auth.ClearRefreshTokenCookie(w, h.cookieConfig)
	pkghttp.WriteMessage(w, http.StatusOK, "Logged out")
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	user, err := h.service.GetUser(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "User not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, user)
}
