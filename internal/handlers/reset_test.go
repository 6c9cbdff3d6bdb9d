package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/adiwijaya/rukun/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestResetHandler_ForgotPassword_AlwaysOK(t *testing.T) {
	for _, email := range []string{"known@example.com", "unknown@example.com"} {
		mockSvc := &MockResetService{
			RequestResetFunc: func(ctx context.Context, email string) error {
				return nil
			},
		}

		handler := NewResetHandler(mockSvc)

		req := httptest.NewRequest(http.MethodPost, "/auth/forgot-password",
			strings.NewReader(`{"email":"`+email+`"}`))
		rec := httptest.NewRecorder()

		handler.ForgotPassword(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestResetHandler_Accept_OpensResetWindow(t *testing.T) {
	mockSvc := &MockResetService{
		VerifyResetFunc: func(ctx context.Context, email, code string) error {
			assert.Equal(t, "715204", code)
			return nil
		},
	}

	handler := NewResetHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/auth/forgot-password/accept",
		strings.NewReader(`{"email":"warga@example.com","code":"715204"}`))
	rec := httptest.NewRecorder()

	handler.Accept(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	// The authorization stays server-side; nothing secret in the body
	assert.Contains(t, rec.Body.String(), "message")
	assert.NotContains(t, rec.Body.String(), "token")
}

func TestResetHandler_Accept_ExpiredCode(t *testing.T) {
	mockSvc := &MockResetService{
		VerifyResetFunc: func(ctx context.Context, email, code string) error {
			return models.ErrCodeExpired
		},
	}

	handler := NewResetHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/auth/forgot-password/accept",
		strings.NewReader(`{"email":"warga@example.com","code":"715204"}`))
	rec := httptest.NewRecorder()

	handler.Accept(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetHandler_ResetPassword_EmailAndPasswordSuffice(t *testing.T) {
	called := false
	mockSvc := &MockResetService{
		CompleteResetFunc: func(ctx context.Context, email, newPassword string) error {
			called = true
			assert.Equal(t, "warga@example.com", email)
			assert.Equal(t, "NewPassword456", newPassword)
			return nil
		},
	}

	handler := NewResetHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/auth/reset-password",
		strings.NewReader(`{"email":"warga@example.com","new_password":"NewPassword456"}`))
	rec := httptest.NewRecorder()

	handler.ResetPassword(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestResetHandler_ResetPassword_NoAuthorization(t *testing.T) {
	mockSvc := &MockResetService{
		CompleteResetFunc: func(ctx context.Context, email, newPassword string) error {
			return models.ErrForbidden
		},
	}

	handler := NewResetHandler(mockSvc)

	req := httptest.NewRequest(http.MethodPost, "/auth/reset-password",
		strings.NewReader(`{"email":"warga@example.com","new_password":"NewPassword456"}`))
	rec := httptest.NewRecorder()

	handler.ResetPassword(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestResetHandler_ResetPassword_MissingPassword(t *testing.T) {
	handler := NewResetHandler(&MockResetService{})

	req := httptest.NewRequest(http.MethodPost, "/auth/reset-password",
		strings.NewReader(`{"email":"warga@example.com"}`))
	rec := httptest.NewRecorder()

	handler.ResetPassword(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
