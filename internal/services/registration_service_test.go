package services

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/adiwijaya/rukun/internal/cache"
	"github.com/adiwijaya/rukun/internal/models"
	pkgauth "github.com/adiwijaya/rukun/pkg/auth"
	pkglogger "github.com/adiwijaya/rukun/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistrationService(
	users UserRepository,
	pending PendingRegistrationStore,
	otps OTPStore,
	throttle ResendThrottle,
	email EmailService,
) *RegistrationService {
	logger := slog.Default()
	return NewRegistrationService(
		users, pending, otps, throttle, email,
		logger, pkglogger.NewAuditLogger(logger),
		10*time.Minute, 30*time.Second,
	)
}

func TestRegistrationService_Submit_StagesAndSendsCode(t *testing.T) {
	var staged *models.PendingRegistration
	var stagedTTL time.Duration
	var storedCode string
	var wg sync.WaitGroup
	wg.Add(1)

	mockPending := &MockPendingStore{
		SetFunc: func(ctx context.Context, reg *models.PendingRegistration, ttl time.Duration) error {
			staged = reg
			stagedTTL = ttl
			return nil
		},
	}
	mockOTPs := &MockOTPStore{
		SetFunc: func(ctx context.Context, purpose, email, code string, ttl time.Duration) error {
			assert.Equal(t, cache.PurposeRegister, purpose)
			storedCode = code
			assert.Equal(t, 10*time.Minute, ttl)
			return nil
		},
	}

	var sentCode string
	mockEmail := &MockEmailService{
		SendOTPEmailFunc: func(ctx context.Context, email, code, purpose string, expiresIn time.Duration) error {
			defer wg.Done()
			sentCode = code
			assert.Equal(t, "warga@example.com", email)
			return nil
		},
	}

	svc := newTestRegistrationService(&MockUserRepository{}, mockPending, mockOTPs, &MockThrottle{}, mockEmail)

	err := svc.Submit(context.Background(), "Warga@Example.com", "Budi Santoso", "SecurePassword123")
	require.NoError(t, err)
	wg.Wait()

	require.NotNil(t, staged)
	assert.Equal(t, "warga@example.com", staged.Email)
	assert.Equal(t, "Budi Santoso", staged.Name)
	// Pending payload outlives the code
	assert.Equal(t, 10*time.Minute+30*time.Second, stagedTTL)

	// Only the hash is staged, never the plaintext
	assert.NotContains(t, staged.PasswordHash, "SecurePassword123")
	assert.True(t, strings.HasPrefix(staged.PasswordHash, "$argon2id$"))
	assert.True(t, pkgauth.VerifyPassword("SecurePassword123", staged.PasswordHash))

	assert.Len(t, storedCode, 6)
	assert.Equal(t, storedCode, sentCode)
}

func TestRegistrationService_Submit_ExistingEmail(t *testing.T) {
	user := NewTestUser("user123", "warga@example.com", "SecurePassword123")
	mockUsers := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}

	svc := newTestRegistrationService(mockUsers, &MockPendingStore{}, &MockOTPStore{}, &MockThrottle{}, &MockEmailService{})

	err := svc.Submit(context.Background(), "warga@example.com", "Budi", "SecurePassword123")

	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestRegistrationService_Submit_WeakPassword(t *testing.T) {
	svc := newTestRegistrationService(&MockUserRepository{}, &MockPendingStore{}, &MockOTPStore{}, &MockThrottle{}, &MockEmailService{})

	err := svc.Submit(context.Background(), "warga@example.com", "Budi", "short")

	var pve *pkgauth.PasswordValidationError
	assert.ErrorAs(t, err, &pve)
}

func TestRegistrationService_Verify_CreatesPendingUser(t *testing.T) {
	hash, _ := pkgauth.HashPassword("SecurePassword123")

	mockOTPs := &MockOTPStore{
		GetFunc: func(ctx context.Context, purpose, email string) (*models.OTPRecord, error) {
			return &models.OTPRecord{Code: "482913", IssuedAt: time.Now()}, nil
		},
	}
	mockPending := &MockPendingStore{
		ConsumeFunc: func(ctx context.Context, email string) (*models.PendingRegistration, error) {
			return &models.PendingRegistration{
				Email: email, Name: "Budi Santoso", PasswordHash: hash, CreatedAt: time.Now(),
			}, nil
		},
	}

	var created *models.User
	mockUsers := &MockUserRepository{
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			user.ID = "user123"
			user.Role = models.RoleResident
			user.Status = models.StatusPending
			user.CreatedAt = time.Now()
			user.UpdatedAt = time.Now()
			created = user
			return user, nil
		},
	}

	svc := newTestRegistrationService(mockUsers, mockPending, mockOTPs, &MockThrottle{}, &MockEmailService{})

	resp, err := svc.Verify(context.Background(), "warga@example.com", "482913")

	require.NoError(t, err)
	assert.Equal(t, "user123", resp.ID)
	assert.Equal(t, models.StatusPending, resp.Status)
	require.NotNil(t, created)
	assert.True(t, created.EmailVerified)
	assert.Equal(t, hash, created.PasswordHash)
}

func TestRegistrationService_Verify_WrongCode(t *testing.T) {
	mockOTPs := &MockOTPStore{
		GetFunc: func(ctx context.Context, purpose, email string) (*models.OTPRecord, error) {
			return &models.OTPRecord{Code: "482913", IssuedAt: time.Now()}, nil
		},
	}
	consumed := false
	mockPending := &MockPendingStore{
		ConsumeFunc: func(ctx context.Context, email string) (*models.PendingRegistration, error) {
			consumed = true
			return nil, models.ErrNotFound
		},
	}

	svc := newTestRegistrationService(&MockUserRepository{}, mockPending, mockOTPs, &MockThrottle{}, &MockEmailService{})

	_, err := svc.Verify(context.Background(), "warga@example.com", "000000")

	assert.ErrorIs(t, err, models.ErrCodeMismatch)
	// A mismatch must leave the staged registration intact
	assert.False(t, consumed)
}

func TestRegistrationService_Verify_ExpiredCode(t *testing.T) {
	svc := newTestRegistrationService(&MockUserRepository{}, &MockPendingStore{}, &MockOTPStore{}, &MockThrottle{}, &MockEmailService{})

	_, err := svc.Verify(context.Background(), "warga@example.com", "482913")

	assert.ErrorIs(t, err, models.ErrCodeExpired)
}

func TestRegistrationService_Verify_PendingPayloadGone(t *testing.T) {
	mockOTPs := &MockOTPStore{
		GetFunc: func(ctx context.Context, purpose, email string) (*models.OTPRecord, error) {
			return &models.OTPRecord{Code: "482913", IssuedAt: time.Now()}, nil
		},
	}

	svc := newTestRegistrationService(&MockUserRepository{}, &MockPendingStore{}, mockOTPs, &MockThrottle{}, &MockEmailService{})

	_, err := svc.Verify(context.Background(), "warga@example.com", "482913")

	assert.ErrorIs(t, err, models.ErrCodeExpired)
}

func TestRegistrationService_Resend_ReplacesCode(t *testing.T) {
	var storedCode string
	var wg sync.WaitGroup
	wg.Add(1)

	mockPending := &MockPendingStore{
		ExistsFunc: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	mockOTPs := &MockOTPStore{
		SetFunc: func(ctx context.Context, purpose, email, code string, ttl time.Duration) error {
			storedCode = code
			return nil
		},
	}
	mockEmail := &MockEmailService{
		SendOTPEmailFunc: func(ctx context.Context, email, code, purpose string, expiresIn time.Duration) error {
			defer wg.Done()
			return nil
		},
	}

	svc := newTestRegistrationService(&MockUserRepository{}, mockPending, mockOTPs, &MockThrottle{}, mockEmail)

	err := svc.Resend(context.Background(), "warga@example.com")
	require.NoError(t, err)
	wg.Wait()

	assert.Len(t, storedCode, 6)
}

func TestRegistrationService_Resend_Throttled(t *testing.T) {
	mockPending := &MockPendingStore{
		ExistsFunc: func(ctx context.Context, email string) (bool, error) {
			return true, nil
		},
	}
	mockThrottle := &MockThrottle{
		AllowFunc: func(ctx context.Context, purpose, email string) (bool, error) {
			return false, nil
		},
	}

	svc := newTestRegistrationService(&MockUserRepository{}, mockPending, &MockOTPStore{}, mockThrottle, &MockEmailService{})

	err := svc.Resend(context.Background(), "warga@example.com")

	assert.ErrorIs(t, err, models.ErrTooManyRequests)
}

func TestRegistrationService_Resend_NothingStaged(t *testing.T) {
	svc := newTestRegistrationService(&MockUserRepository{}, &MockPendingStore{}, &MockOTPStore{}, &MockThrottle{}, &MockEmailService{})

	err := svc.Resend(context.Background(), "warga@example.com")

	assert.ErrorIs(t, err, models.ErrNotFound)
}
