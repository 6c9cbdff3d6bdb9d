package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/adiwijaya/rukun/internal/auth"
	"github.com/adiwijaya/rukun/internal/cache"
	"github.com/adiwijaya/rukun/internal/models"
	pkgauth "github.com/adiwijaya/rukun/pkg/auth"
	pkglogger "github.com/adiwijaya/rukun/pkg/logger"
)

// OTPStore holds one-time codes keyed by purpose and email
type OTPStore interface {
	Set(ctx context.Context, purpose, email, code string, ttl time.Duration) error
	Get(ctx context.Context, purpose, email string) (*models.OTPRecord, error)
	Delete(ctx context.Context, purpose, email string) error
}

// PendingRegistrationStore stages registrations awaiting verification
type PendingRegistrationStore interface {
	Set(ctx context.Context, reg *models.PendingRegistration, ttl time.Duration) error
	Consume(ctx context.Context, email string) (*models.PendingRegistration, error)
	Extend(ctx context.Context, email string, ttl time.Duration) error
	Exists(ctx context.Context, email string) (bool, error)
}

// ResendThrottle limits how often codes are reissued per email
type ResendThrottle interface {
	Allow(ctx context.Context, purpose, email string) (bool, error)
}

// RegistrationService handles OTP-gated account creation. No user row
// exists until the emailed code is verified; abandoned submissions
// evaporate with their TTL.
type RegistrationService struct {
	users       UserRepository
	pending     PendingRegistrationStore
	otps        OTPStore
	throttle    ResendThrottle
	email       EmailService
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	otpTTL      time.Duration
	grace       time.Duration
}

// NewRegistrationService creates a new RegistrationService
func NewRegistrationService(
	users UserRepository,
	pending PendingRegistrationStore,
	otps OTPStore,
	throttle ResendThrottle,
	email EmailService,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
	otpTTL, grace time.Duration,
) *RegistrationService {
	return &RegistrationService{
		users:       users,
		pending:     pending,
		otps:        otps,
		throttle:    throttle,
		email:       email,
		logger:      logger,
		auditLogger: auditLogger,
		otpTTL:      otpTTL,
		grace:       grace,
	}
}

// Submit stages a registration and emails a verification code. The
// password is hashed before staging so the plaintext never reaches the
// ephemeral store. Resubmitting the same email replaces the staged
// payload and code.
func (s *RegistrationService) Submit(ctx context.Context, email, name, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		// A live account already owns this email
		return models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check existing user", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := pkgauth.ValidatePassword(password); err != nil {
		return err
	}

	hash, err := pkgauth.HashPassword(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	reg := &models.PendingRegistration{
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
	// The staged payload outlives its code slightly so a code verified
	// at the last moment still finds its registration
	if err := s.pending.Set(ctx, reg, s.otpTTL+s.grace); err != nil {
		s.logger.Error("failed to stage registration", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.issueCode(ctx, cache.PurposeRegister, email); err != nil {
		return err
	}

	s.logger.Info("registration staged", slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}

// Verify consumes the staged registration on a correct code and
// creates the user in pending-approval status. The code and the staged
// payload are both single-use.
func (s *RegistrationService) Verify(ctx context.Context, email, code string) (*UserResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	record, err := s.otps.Get(ctx, cache.PurposeRegister, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrCodeExpired
		}
		s.logger.Error("failed to read OTP", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(code)) != 1 {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "register_verify_failed",
			FailureReason: "code_mismatch",
			Success:       false,
		})
		return nil, models.ErrCodeMismatch
	}

	if err := s.otps.Delete(ctx, cache.PurposeRegister, email); err != nil {
		s.logger.Error("failed to delete consumed OTP", slog.Any("error", err))
	}

	reg, err := s.pending.Consume(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Staged payload expired or was already consumed
			return nil, models.ErrCodeExpired
		}
		s.logger.Error("failed to consume pending registration", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.users.Create(ctx, &models.User{
		Email:         reg.Email,
		Name:          reg.Name,
		PasswordHash:  reg.PasswordHash,
		EmailVerified: true,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("registration verified", slog.String("user_id", user.ID))
	s.auditLogger.LogAccountAction("register_verified", user.ID, nil)

	return userModelToResponse(user), nil
}

// Resend reissues the registration code, replacing any outstanding
// one. Throttled per email so the endpoint cannot be used to spam an
// inbox.
func (s *RegistrationService) Resend(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	exists, err := s.pending.Exists(ctx, email)
	if err != nil {
		s.logger.Error("failed to check pending registration", slog.Any("error", err))
		return models.ErrInternalServer
	}
	if !exists {
		return models.ErrNotFound
	}

	allowed, err := s.throttle.Allow(ctx, cache.PurposeRegister, email)
	if err != nil {
		s.logger.Error("failed to check resend throttle", slog.Any("error", err))
		return models.ErrInternalServer
	}
	if !allowed {
		return models.ErrTooManyRequests
	}

	if err := s.pending.Extend(ctx, email, s.otpTTL+s.grace); err != nil && !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to extend pending registration", slog.Any("error", err))
	}

	if err := s.issueCode(ctx, cache.PurposeRegister, email); err != nil {
		return err
	}

	s.logger.Info("registration code resent", slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}

// issueCode generates, stores and emails a fresh one-time code. The
// send happens off the request path; a delivery failure leaves the
// code valid for a later resend.
func (s *RegistrationService) issueCode(ctx context.Context, purpose, email string) error {
	code, err := auth.GenerateOTP()
	if err != nil {
		s.logger.Error("failed to generate OTP", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.otps.Set(ctx, purpose, email, code, s.otpTTL); err != nil {
		s.logger.Error("failed to store OTP", slog.Any("error", err))
		return models.ErrInternalServer
	}

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.email.SendOTPEmail(sendCtx, email, code, purpose, s.otpTTL); err != nil {
			s.logger.Error("failed to send OTP email",
				slog.String("email", pkglogger.SanitizedEmail(email)),
				slog.Any("error", err))
		}
	}()

	return nil
}
