package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/adiwijaya/rukun/internal/auth"
	"github.com/adiwijaya/rukun/internal/models"
	"github.com/adiwijaya/rukun/internal/services"
	pkghttp "github.com/adiwijaya/rukun/pkg/http"
	"github.com/go-chi/chi/v5"
)

// AdminServiceInterface defines the interface for administrative review
type AdminServiceInterface interface {
	ListPending(ctx context.Context, limit, offset int) ([]*services.UserResponse, error)
	ListRoles(ctx context.Context) ([]*services.RoleResponse, error)
	Approve(ctx context.Context, userID, approverID string) (*services.UserResponse, error)
	Reject(ctx context.Context, userID, approverID, reason string) (*services.UserResponse, error)
}

// AdminHandler handles admin-only HTTP requests
type AdminHandler struct {
	service AdminServiceInterface
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(service AdminServiceInterface) *AdminHandler {
	return &AdminHandler{service: service}
}

// RejectUserRequest represents the request body for rejecting a pending user
type RejectUserRequest struct {
	Reason string `json:"reason" validate:"required,min=1,max=500"`
}

// ListPending returns accounts awaiting approval.
func (h *AdminHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, err := h.service.ListPending(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"users": users,
		"count": len(users),
	})
}

// ListRoles returns the assignable roles and their permission levels.
func (h *AdminHandler) ListRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"roles": roles,
	})
}

// Approve activates a pending account.
func (h *AdminHandler) Approve(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	user, err := h.service.Approve(r.Context(), userID, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "No pending user with that id")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, user)
}

// Reject suspends a pending account with a recorded reason.
func (h *AdminHandler) Reject(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Unauthorized")
		return
	}

	var req RejectUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.service.Reject(r.Context(), userID, claims.UserID, req.Reason)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "No pending user with that id")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, user)
}
