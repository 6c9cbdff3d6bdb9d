package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adiwijaya/rukun/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRoleReader struct {
	roles map[string]*models.Role
}

func (m *mockRoleReader) GetByName(ctx context.Context, name string) (*models.Role, error) {
	if role, ok := m.roles[name]; ok {
		return role, nil
	}
	return nil, models.ErrNotFound
}

func newMockRoles() *mockRoleReader {
	return &mockRoleReader{roles: map[string]*models.Role{
		models.RoleResident: {ID: "r1", Name: models.RoleResident, Level: 1},
		models.RoleManager:  {ID: "r2", Name: models.RoleManager, Level: 3},
		models.RoleAdmin:    {ID: "r3", Name: models.RoleAdmin, Level: 5},
	}}
}

func okHandler(t *testing.T, called *bool) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticate_ValidToken(t *testing.T) {
	tm := newTokenManager()
	token, err := tm.GenerateAccessToken("user123", "warga@example.com", models.RoleResident)
	require.NoError(t, err)

	var claims *models.TokenClaims
	handler := Authenticate(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims = GetUserFromContext(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, claims)
	assert.Equal(t, "user123", claims.UserID)
	assert.Equal(t, models.RoleResident, claims.Role)
}

func TestAuthenticate_MissingHeader(t *testing.T) {
	called := false
	handler := Authenticate(newTokenManager())(okHandler(t, &called))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuthenticate_MalformedHeader(t *testing.T) {
	called := false
	handler := Authenticate(newTokenManager())(okHandler(t, &called))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuthenticate_RejectsResetToken(t *testing.T) {
	tm := newTokenManager()
	token, err := tm.GenerateResetToken("warga@example.com")
	require.NoError(t, err)

	called := false
	handler := Authenticate(tm)(okHandler(t, &called))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	// A reset proof must never work as an access token
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestAuthenticate_RejectsExpiredToken(t *testing.T) {
	expired := NewTokenManager(testSecret, -1*time.Minute, 3*time.Minute)
	token, err := expired.GenerateAccessToken("user123", "warga@example.com", models.RoleResident)
	require.NoError(t, err)

	called := false
	handler := Authenticate(newTokenManager())(okHandler(t, &called))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func requestWithRole(t *testing.T, role string) *http.Request {
	t.Helper()
	claims := &models.TokenClaims{
		Type:   models.TokenTypeAccess,
		UserID: "user123",
		Email:  "warga@example.com",
		Role:   role,
	}
	req := httptest.NewRequest(http.MethodGet, "/admin/users/pending", nil)
	return req.WithContext(context.WithValue(req.Context(), UserContextKey, claims))
}

func TestRequireLevel_ExactRolePasses(t *testing.T) {
	called := false
	handler := RequireLevel(newMockRoles(), models.RoleAdmin)(okHandler(t, &called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithRole(t, models.RoleAdmin))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestRequireLevel_HigherLevelPasses(t *testing.T) {
	called := false
	handler := RequireLevel(newMockRoles(), models.RoleResident)(okHandler(t, &called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithRole(t, models.RoleManager))

	// "At least this privileged": manager outranks resident
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, called)
}

func TestRequireLevel_LowerLevelForbidden(t *testing.T) {
	called := false
	handler := RequireLevel(newMockRoles(), models.RoleAdmin)(okHandler(t, &called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithRole(t, models.RoleResident))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.False(t, called)
}

func TestRequireLevel_NoClaims(t *testing.T) {
	called := false
	handler := RequireLevel(newMockRoles(), models.RoleAdmin)(okHandler(t, &called))

	req := httptest.NewRequest(http.MethodGet, "/admin/users/pending", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, called)
}

func TestRequireLevel_UnknownRoleIsServerError(t *testing.T) {
	called := false
	handler := RequireLevel(newMockRoles(), models.RoleAdmin)(okHandler(t, &called))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, requestWithRole(t, "made-up-role"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, called)
}
