package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adiwijaya/rukun/internal/models"
	pkgauth "github.com/adiwijaya/rukun/pkg/auth"
	pkghttp "github.com/adiwijaya/rukun/pkg/http"
)

// ResetServiceInterface defines the interface for password recovery business logic
type ResetServiceInterface interface {
	RequestReset(ctx context.Context, email string) error
	VerifyReset(ctx context.Context, email, code string) error
	CompleteReset(ctx context.Context, email, newPassword string) error
}

// ResetHandler handles password recovery HTTP requests
type ResetHandler struct {
	service ResetServiceInterface
}

// NewResetHandler creates a new ResetHandler
func NewResetHandler(service ResetServiceInterface) *ResetHandler {
	return &ResetHandler{service: service}
}

// ForgotPasswordRequest represents the request body for a reset request
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// VerifyResetRequest represents the request body for reset code verification
type VerifyResetRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// ResetPasswordRequest represents the request body for completing a reset
type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	NewPassword string `json:"new_password" validate:"required"`
}

// ForgotPassword emails a reset code. The response is identical
// whether or not the address is registered.
func (h *ResetHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.RequestReset(r.Context(), req.Email); err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteMessage(w, http.StatusOK, "If the email is registered, a reset code has been sent")
}

// Accept trades a correct reset code for a single-use, time-boxed
// reset authorization. The authorization is held server-side; the
// client follows up with the new password only.
func (h *ResetHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req VerifyResetRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.VerifyReset(r.Context(), req.Email, req.Code); err != nil {
		switch {
		case errors.Is(err, models.ErrCodeExpired):
			pkghttp.WriteBadRequest(w, "Code expired or no reset in progress")
		case errors.Is(err, models.ErrCodeMismatch):
			pkghttp.WriteBadRequest(w, "Incorrect code")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteMessage(w, http.StatusOK, "Code accepted; you may now set a new password")
}

// ResetPassword spends the reset authorization and installs the new
// password. All sessions for the account end.
func (h *ResetHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.CompleteReset(r.Context(), req.Email, req.NewPassword); err != nil {
		var pve *pkgauth.PasswordValidationError
		switch {
		case errors.As(err, &pve):
			pkghttp.WriteBadRequest(w, pve.Error())
		case errors.Is(err, models.ErrForbidden):
			pkghttp.WriteForbidden(w, "Invalid or expired reset authorization")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteMessage(w, http.StatusOK, "Password updated")
}
