package services

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/adiwijaya/rukun/internal/models"
	pkglogger "github.com/adiwijaya/rukun/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(users UserRepository, tokens RefreshTokenRepository) *AuthService {
	logger := slog.Default()
	return NewAuthService(
		users, tokens,
		newTestTokenManager(), newTestTimingDelay(),
		logger, pkglogger.NewAuditLogger(logger),
		5, 15*time.Minute, 7*24*time.Hour, 15*time.Minute,
	)
}

func TestAuthService_Login_Success(t *testing.T) {
	user := NewTestUser("user123", "resident@example.com", "SecurePassword123")

	var persistedToken string
	mockUsers := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			assert.Equal(t, "resident@example.com", email)
			return user, nil
		},
	}
	mockTokens := &MockRefreshTokenRepository{
		CreateFunc: func(ctx context.Context, userID, token string, expiresAt time.Time) (*models.RefreshToken, error) {
			persistedToken = token
			return &models.RefreshToken{
				ID: "rt1", UserID: userID, Token: token,
				ExpiresAt: expiresAt, CreatedAt: time.Now(),
			}, nil
		},
	}

	svc := newTestAuthService(mockUsers, mockTokens)

	resp, err := svc.Login(context.Background(), "Resident@Example.com", "SecurePassword123", "203.0.113.7")

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, persistedToken, resp.RefreshToken)
	assert.Equal(t, int64(900), resp.ExpiresIn)
	assert.Equal(t, "user123", resp.User.ID)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	user := NewTestUser("user123", "resident@example.com", "SecurePassword123")

	failureRecorded := false
	mockUsers := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		RecordLoginFailureFunc: func(ctx context.Context, id string, maxFailures int, lockUntil time.Time) error {
			failureRecorded = true
			assert.Equal(t, "user123", id)
			assert.Equal(t, 5, maxFailures)
			return nil
		},
	}

	svc := newTestAuthService(mockUsers, &MockRefreshTokenRepository{})

	resp, err := svc.Login(context.Background(), "resident@example.com", "wrong-password", "")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
	assert.Nil(t, resp)
	assert.True(t, failureRecorded)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	mockUsers := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return nil, models.ErrNotFound
		},
	}

	svc := newTestAuthService(mockUsers, &MockRefreshTokenRepository{})

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever123", "")

	// Same error as a wrong password so callers cannot probe emails
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_Login_LockedAccount(t *testing.T) {
	user := NewTestUser("user123", "resident@example.com", "SecurePassword123")
	lockedUntil := time.Now().Add(10 * time.Minute)
	user.LockedUntil = &lockedUntil
	user.FailedLogins = 5

	mockUsers := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}

	svc := newTestAuthService(mockUsers, &MockRefreshTokenRepository{})

	_, err := svc.Login(context.Background(), "resident@example.com", "SecurePassword123", "")

	assert.ErrorIs(t, err, models.ErrAccountLocked)
}

func TestAuthService_Login_ExpiredLockClears(t *testing.T) {
	user := NewTestUser("user123", "resident@example.com", "SecurePassword123")
	lockedUntil := time.Now().Add(-1 * time.Minute)
	user.LockedUntil = &lockedUntil
	user.FailedLogins = 5

	failuresReset := false
	mockUsers := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		ResetLoginFailuresFunc: func(ctx context.Context, id string) error {
			failuresReset = true
			return nil
		},
	}

	svc := newTestAuthService(mockUsers, &MockRefreshTokenRepository{})

	resp, err := svc.Login(context.Background(), "resident@example.com", "SecurePassword123", "")

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.True(t, failuresReset)
}

func TestAuthService_Login_SuspendedAccount(t *testing.T) {
	user := NewTestUser("user123", "resident@example.com", "SecurePassword123")
	user.Status = models.StatusSuspended

	mockUsers := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}

	svc := newTestAuthService(mockUsers, &MockRefreshTokenRepository{})

	_, err := svc.Login(context.Background(), "resident@example.com", "SecurePassword123", "")

	assert.ErrorIs(t, err, models.ErrAccountSuspended)
}

func TestAuthService_Login_PendingAccount(t *testing.T) {
	user := NewTestUser("user123", "resident@example.com", "SecurePassword123")
	user.Status = models.StatusPending

	mockUsers := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}

	svc := newTestAuthService(mockUsers, &MockRefreshTokenRepository{})

	_, err := svc.Login(context.Background(), "resident@example.com", "SecurePassword123", "")

	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestAuthService_Refresh_RotatesCredential(t *testing.T) {
	user := NewTestUser("user123", "resident@example.com", "SecurePassword123")

	var rotatedOld, rotatedNew string
	mockUsers := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	}
	mockTokens := &MockRefreshTokenRepository{
		GetByTokenFunc: func(ctx context.Context, token string) (*models.RefreshToken, error) {
			return &models.RefreshToken{
				ID: "rt1", UserID: "user123", Token: token,
				ExpiresAt: time.Now().Add(24 * time.Hour), CreatedAt: time.Now(),
			}, nil
		},
		RotateFunc: func(ctx context.Context, oldToken, newToken string, expiresAt time.Time) (*models.RefreshToken, error) {
			rotatedOld, rotatedNew = oldToken, newToken
			return &models.RefreshToken{
				ID: "rt2", UserID: "user123", Token: newToken,
				ExpiresAt: expiresAt, CreatedAt: time.Now(),
			}, nil
		},
	}

	svc := newTestAuthService(mockUsers, mockTokens)

	resp, err := svc.Refresh(context.Background(), "old-credential")

	require.NoError(t, err)
	assert.Equal(t, "old-credential", rotatedOld)
	assert.Equal(t, rotatedNew, resp.RefreshToken)
	assert.NotEqual(t, "old-credential", resp.RefreshToken)
	assert.NotEmpty(t, resp.AccessToken)
}

func TestAuthService_Refresh_UnknownCredential(t *testing.T) {
	mockTokens := &MockRefreshTokenRepository{
		GetByTokenFunc: func(ctx context.Context, token string) (*models.RefreshToken, error) {
			return nil, models.ErrNotFound
		},
	}

	svc := newTestAuthService(&MockUserRepository{}, mockTokens)

	_, err := svc.Refresh(context.Background(), "revoked-credential")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_Refresh_ExpiredCredential(t *testing.T) {
	mockTokens := &MockRefreshTokenRepository{
		GetByTokenFunc: func(ctx context.Context, token string) (*models.RefreshToken, error) {
			return &models.RefreshToken{
				ID: "rt1", UserID: "user123", Token: token,
				ExpiresAt: time.Now().Add(-1 * time.Hour), CreatedAt: time.Now().Add(-8 * 24 * time.Hour),
			}, nil
		},
	}

	svc := newTestAuthService(&MockUserRepository{}, mockTokens)

	_, err := svc.Refresh(context.Background(), "stale-credential")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_Refresh_LostRotationRace(t *testing.T) {
	user := NewTestUser("user123", "resident@example.com", "SecurePassword123")

	mockUsers := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	}
	mockTokens := &MockRefreshTokenRepository{
		GetByTokenFunc: func(ctx context.Context, token string) (*models.RefreshToken, error) {
			return &models.RefreshToken{
				ID: "rt1", UserID: "user123", Token: token,
				ExpiresAt: time.Now().Add(24 * time.Hour), CreatedAt: time.Now(),
			}, nil
		},
		RotateFunc: func(ctx context.Context, oldToken, newToken string, expiresAt time.Time) (*models.RefreshToken, error) {
			// A concurrent request already consumed the credential
			return nil, models.ErrNotFound
		},
	}

	svc := newTestAuthService(mockUsers, mockTokens)

	_, err := svc.Refresh(context.Background(), "contested-credential")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_Refresh_EmptyCredential(t *testing.T) {
	svc := newTestAuthService(&MockUserRepository{}, &MockRefreshTokenRepository{})

	_, err := svc.Refresh(context.Background(), "   ")

	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthService_Logout_RevokesAll(t *testing.T) {
	revoked := ""
	mockTokens := &MockRefreshTokenRepository{
		RevokeAllForUserFunc: func(ctx context.Context, userID string) error {
			revoked = userID
			return nil
		},
	}

	svc := newTestAuthService(&MockUserRepository{}, mockTokens)

	err := svc.Logout(context.Background(), "user123")

	require.NoError(t, err)
	assert.Equal(t, "user123", revoked)
}
