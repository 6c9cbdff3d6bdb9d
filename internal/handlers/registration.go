package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adiwijaya/rukun/internal/models"
	"github.com/adiwijaya/rukun/internal/services"
	pkgauth "github.com/adiwijaya/rukun/pkg/auth"
	pkghttp "github.com/adiwijaya/rukun/pkg/http"
)

// RegistrationServiceInterface defines the interface for registration business logic
type RegistrationServiceInterface interface {
	Submit(ctx context.Context, email, name, password string) error
	Verify(ctx context.Context, email, code string) (*services.UserResponse, error)
	Resend(ctx context.Context, email string) error
}

// RegistrationHandler handles OTP-gated signup HTTP requests
type RegistrationHandler struct {
	service RegistrationServiceInterface
}

// NewRegistrationHandler creates a new RegistrationHandler
func NewRegistrationHandler(service RegistrationServiceInterface) *RegistrationHandler {
	return &RegistrationHandler{service: service}
}

// RegisterRequest represents the request body for registration
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Password string `json:"password" validate:"required"`
}

// VerifyRegistrationRequest represents the request body for OTP verification
type VerifyRegistrationRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

// ResendOTPRequest represents the request body for code resend
type ResendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Register stages a registration and emails a verification code. No
// account exists until the code is verified.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.Submit(r.Context(), req.Email, req.Name, req.Password); err != nil {
		var pve *pkgauth.PasswordValidationError
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Email is already registered")
		case errors.As(err, &pve):
			pkghttp.WriteBadRequest(w, pve.Error())
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteMessage(w, http.StatusCreated, "Verification code sent")
}

// Accept verifies the emailed code and creates the account in
// pending-approval status.
func (h *RegistrationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req VerifyRegistrationRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.Verify(r.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrCodeExpired):
			pkghttp.WriteBadRequest(w, "Code expired or no registration in progress")
		case errors.Is(err, models.ErrCodeMismatch):
			pkghttp.WriteBadRequest(w, "Incorrect code")
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Email is already registered")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, user)
}

// ResendOTP reissues the registration code, replacing the outstanding
// one.
func (h *RegistrationHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req ResendOTPRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.Resend(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteBadRequest(w, "No registration in progress")
		case errors.Is(err, models.ErrTooManyRequests):
			pkghttp.WriteTooManyRequests(w, "Too many codes requested. Please try again later.")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	pkghttp.WriteMessage(w, http.StatusOK, "Verification code sent")
}
