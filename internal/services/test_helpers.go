package services

import (
	"context"
	"time"

	"github.com/adiwijaya/rukun/internal/auth"
	"github.com/adiwijaya/rukun/internal/models"
	pkgauth "github.com/adiwijaya/rukun/pkg/auth"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	GetByIDFunc            func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc         func(ctx context.Context, email string) (*models.User, error)
	CreateFunc             func(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePasswordFunc     func(ctx context.Context, id, passwordHash string) error
	RecordLoginFailureFunc func(ctx context.Context, id string, maxFailures int, lockUntil time.Time) error
	ResetLoginFailuresFunc func(ctx context.Context, id string) error
	ListPendingFunc        func(ctx context.Context, limit, offset int) ([]*models.User, error)
	ApproveFunc            func(ctx context.Context, id, approverID string) (*models.User, error)
	RejectFunc             func(ctx context.Context, id, approverID, reason string) (*models.User, error)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) RecordLoginFailure(ctx context.Context, id string, maxFailures int, lockUntil time.Time) error {
	if m.RecordLoginFailureFunc != nil {
		return m.RecordLoginFailureFunc(ctx, id, maxFailures, lockUntil)
	}
	return nil
}

func (m *MockUserRepository) ResetLoginFailures(ctx context.Context, id string) error {
	if m.ResetLoginFailuresFunc != nil {
		return m.ResetLoginFailuresFunc(ctx, id)
	}
	return nil
}

func (m *MockUserRepository) ListPending(ctx context.Context, limit, offset int) ([]*models.User, error) {
	if m.ListPendingFunc != nil {
		return m.ListPendingFunc(ctx, limit, offset)
	}
	return []*models.User{}, nil
}

func (m *MockUserRepository) Approve(ctx context.Context, id, approverID string) (*models.User, error) {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, id, approverID)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) Reject(ctx context.Context, id, approverID, reason string) (*models.User, error) {
	if m.RejectFunc != nil {
		return m.RejectFunc(ctx, id, approverID, reason)
	}
	return nil, models.ErrNotFound
}

// MockRoleRepository implements RoleRepository for testing
type MockRoleRepository struct {
	ListFunc func(ctx context.Context) ([]*models.Role, error)
}

func (m *MockRoleRepository) List(ctx context.Context) ([]*models.Role, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return []*models.Role{}, nil
}

// MockRefreshTokenRepository implements RefreshTokenRepository for testing
type MockRefreshTokenRepository struct {
	CreateFunc           func(ctx context.Context, userID, token string, expiresAt time.Time) (*models.RefreshToken, error)
	GetByTokenFunc       func(ctx context.Context, token string) (*models.RefreshToken, error)
	RotateFunc           func(ctx context.Context, oldToken, newToken string, expiresAt time.Time) (*models.RefreshToken, error)
	RevokeAllForUserFunc func(ctx context.Context, userID string) error
	PurgeExpiredFunc     func(ctx context.Context) (int64, error)
}

func (m *MockRefreshTokenRepository) Create(ctx context.Context, userID, token string, expiresAt time.Time) (*models.RefreshToken, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, userID, token, expiresAt)
	}
	return &models.RefreshToken{
		ID: "token123", UserID: userID, Token: token,
		ExpiresAt: expiresAt, CreatedAt: time.Now(),
	}, nil
}

func (m *MockRefreshTokenRepository) GetByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if m.GetByTokenFunc != nil {
		return m.GetByTokenFunc(ctx, token)
	}
	return nil, models.ErrNotFound
}

func (m *MockRefreshTokenRepository) Rotate(ctx context.Context, oldToken, newToken string, expiresAt time.Time) (*models.RefreshToken, error) {
	if m.RotateFunc != nil {
		return m.RotateFunc(ctx, oldToken, newToken, expiresAt)
	}
	return nil, models.ErrNotFound
}

func (m *MockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	if m.RevokeAllForUserFunc != nil {
		return m.RevokeAllForUserFunc(ctx, userID)
	}
	return nil
}

func (m *MockRefreshTokenRepository) PurgeExpired(ctx context.Context) (int64, error) {
	if m.PurgeExpiredFunc != nil {
		return m.PurgeExpiredFunc(ctx)
	}
	return 0, nil
}

// MockOTPStore implements OTPStore for testing
type MockOTPStore struct {
	SetFunc    func(ctx context.Context, purpose, email, code string, ttl time.Duration) error
	GetFunc    func(ctx context.Context, purpose, email string) (*models.OTPRecord, error)
	DeleteFunc func(ctx context.Context, purpose, email string) error
}

func (m *MockOTPStore) Set(ctx context.Context, purpose, email, code string, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, purpose, email, code, ttl)
	}
	return nil
}

func (m *MockOTPStore) Get(ctx context.Context, purpose, email string) (*models.OTPRecord, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, purpose, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockOTPStore) Delete(ctx context.Context, purpose, email string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, purpose, email)
	}
	return nil
}

// MockPendingStore implements PendingRegistrationStore for testing
type MockPendingStore struct {
	SetFunc     func(ctx context.Context, reg *models.PendingRegistration, ttl time.Duration) error
	ConsumeFunc func(ctx context.Context, email string) (*models.PendingRegistration, error)
	ExtendFunc  func(ctx context.Context, email string, ttl time.Duration) error
	ExistsFunc  func(ctx context.Context, email string) (bool, error)
}

func (m *MockPendingStore) Set(ctx context.Context, reg *models.PendingRegistration, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, reg, ttl)
	}
	return nil
}

func (m *MockPendingStore) Consume(ctx context.Context, email string) (*models.PendingRegistration, error) {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockPendingStore) Extend(ctx context.Context, email string, ttl time.Duration) error {
	if m.ExtendFunc != nil {
		return m.ExtendFunc(ctx, email, ttl)
	}
	return nil
}

func (m *MockPendingStore) Exists(ctx context.Context, email string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, email)
	}
	return false, nil
}

// MockResetStore implements ResetAuthorizationStore for testing
type MockResetStore struct {
	SetFunc     func(ctx context.Context, email, proofToken string, ttl time.Duration) error
	ConsumeFunc func(ctx context.Context, email string) (string, error)
}

func (m *MockResetStore) Set(ctx context.Context, email, proofToken string, ttl time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, email, proofToken, ttl)
	}
	return nil
}

func (m *MockResetStore) Consume(ctx context.Context, email string) (string, error) {
	if m.ConsumeFunc != nil {
		return m.ConsumeFunc(ctx, email)
	}
	return "", models.ErrNotFound
}

// MockThrottle implements ResendThrottle for testing
type MockThrottle struct {
	AllowFunc func(ctx context.Context, purpose, email string) (bool, error)
}

func (m *MockThrottle) Allow(ctx context.Context, purpose, email string) (bool, error) {
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, purpose, email)
	}
	return true, nil
}

// MockEmailService implements EmailService for testing
type MockEmailService struct {
	SendOTPEmailFunc func(ctx context.Context, email, code, purpose string, expiresIn time.Duration) error
}

func (m *MockEmailService) SendOTPEmail(ctx context.Context, email, code, purpose string, expiresIn time.Duration) error {
	if m.SendOTPEmailFunc != nil {
		return m.SendOTPEmailFunc(ctx, email, code, purpose, expiresIn)
	}
	return nil
}

// NewTestUser creates an active user with a hashed password for tests
func NewTestUser(id, email, password string) *models.User {
	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		panic(err)
	}

	now := time.Now()
	return &models.User{
		ID:            id,
		Email:         email,
		PasswordHash:  hash,
		Name:          "Test User",
		Role:          models.RoleResident,
		Status:        models.StatusActive,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// newTestTokenManager returns a TokenManager with a throwaway secret
func newTestTokenManager() *auth.TokenManager {
	return auth.NewTokenManager(
		"test-secret-key-for-unit-tests-only-0123456789",
		15*time.Minute,
		3*time.Minute,
	)
}

// newTestTimingDelay returns a TimingDelay that never sleeps
func newTestTimingDelay() *auth.TimingDelay {
	return auth.NewTimingDelay(auth.TimingConfig{BaseDelayMs: 0, RandomDelayMs: 0})
}
