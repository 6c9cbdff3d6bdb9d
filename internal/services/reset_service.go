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

// ResetAuthorizationStore holds single-use reset proofs keyed by email
type ResetAuthorizationStore interface {
	Set(ctx context.Context, email, proofToken string, ttl time.Duration) error
	Consume(ctx context.Context, email string) (string, error)
}

// ResetService handles OTP-gated password recovery. The flow is
// request (email a code), verify (trade the code for a short-lived
// proof), complete (trade the proof for a new password).
type ResetService struct {
	users       UserRepository
	tokens      RefreshTokenRepository
	otps        OTPStore
	resets      ResetAuthorizationStore
	throttle    ResendThrottle
	tm          *auth.TokenManager
	email       EmailService
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	otpTTL      time.Duration
	proofTTL    time.Duration
}

// NewResetService creates a new ResetService
func NewResetService(
	users UserRepository,
	tokens RefreshTokenRepository,
	otps OTPStore,
	resets ResetAuthorizationStore,
	throttle ResendThrottle,
	tm *auth.TokenManager,
	email EmailService,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
	otpTTL, proofTTL time.Duration,
) *ResetService {
	return &ResetService{
		users:       users,
		tokens:      tokens,
		otps:        otps,
		resets:      resets,
		throttle:    throttle,
		tm:          tm,
		email:       email,
		logger:      logger,
		auditLogger: auditLogger,
		otpTTL:      otpTTL,
		proofTTL:    proofTTL,
	}
}

// RequestReset emails a reset code when the address belongs to a live
// account. It reports success either way so the endpoint cannot be
// used to probe which emails are registered.
func (s *ResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("reset requested for unknown email")
			return nil
		}
		s.logger.Error("failed to get user for reset", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if user.Status == models.StatusSuspended {
		s.logger.Info("reset requested for suspended account", slog.String("user_id", user.ID))
		return nil
	}

	allowed, err := s.throttle.Allow(ctx, cache.PurposeReset, email)
	if err != nil {
		s.logger.Error("failed to check resend throttle", slog.Any("error", err))
		return models.ErrInternalServer
	}
	if !allowed {
		// Swallow the throttle too; a different response would leak
		// that the account exists
		s.logger.Info("reset request throttled", slog.String("user_id", user.ID))
		return nil
	}

	code, err := auth.GenerateOTP()
	if err != nil {
		s.logger.Error("failed to generate OTP", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.otps.Set(ctx, cache.PurposeReset, email, code, s.otpTTL); err != nil {
		s.logger.Error("failed to store OTP", slog.Any("error", err))
		return models.ErrInternalServer
	}

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.email.SendOTPEmail(sendCtx, email, code, cache.PurposeReset, s.otpTTL); err != nil {
			s.logger.Error("failed to send reset email",
				slog.String("email", pkglogger.SanitizedEmail(email)),
				slog.Any("error", err))
		}
	}()

	s.auditLogger.LogAccountAction("reset_requested", user.ID, nil)
	return nil
}

// VerifyReset checks the code and, on a match, opens a short reset
// window: a signed proof token bound to the email is stored server-side
// and spent exactly once by CompleteReset. The proof never leaves the
// server; the client only needs the email and a new password next.
func (s *ResetService) VerifyReset(ctx context.Context, email, code string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	record, err := s.otps.Get(ctx, cache.PurposeReset, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrCodeExpired
		}
		s.logger.Error("failed to read OTP", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if subtle.ConstantTimeCompare([]byte(record.Code), []byte(code)) != 1 {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "reset_verify_failed",
			FailureReason: "code_mismatch",
			Success:       false,
		})
		return models.ErrCodeMismatch
	}

	if err := s.otps.Delete(ctx, cache.PurposeReset, email); err != nil {
		s.logger.Error("failed to delete consumed OTP", slog.Any("error", err))
	}

	proof, err := s.tm.GenerateResetToken(email)
	if err != nil {
		s.logger.Error("failed to generate reset proof", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.resets.Set(ctx, email, proof, s.proofTTL); err != nil {
		s.logger.Error("failed to store reset proof", slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("reset code verified", slog.String("email", pkglogger.SanitizedEmail(email)))
	return nil
}

// CompleteReset spends the stored proof and installs the new password.
// Every failure path is ErrForbidden; the proof is consumed before it
// is checked, so a rejected attempt cannot be retried.
func (s *ResetService) CompleteReset(ctx context.Context, email, newPassword string) error {
	email = strings.ToLower(strings.TrimSpace(email))

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return err
	}

	stored, err := s.resets.Consume(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrForbidden
		}
		s.logger.Error("failed to consume reset proof", slog.Any("error", err))
		return models.ErrInternalServer
	}

	claims, err := s.tm.ValidateToken(stored)
	if err != nil || claims.Type != models.TokenTypeReset || claims.Email != email {
		return models.ErrForbidden
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrForbidden
		}
		s.logger.Error("failed to get user for reset", slog.Any("error", err))
		return models.ErrInternalServer
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		s.logger.Error("failed to update password",
			slog.String("user_id", user.ID), slog.Any("error", err))
		s.auditLogger.LogPasswordChange(user.ID, false)
		return models.ErrInternalServer
	}

	// A reset ends every session; stolen refresh credentials die here
	if err := s.tokens.RevokeAllForUser(ctx, user.ID); err != nil {
		s.logger.Error("failed to revoke refresh credentials after reset",
			slog.String("user_id", user.ID), slog.Any("error", err))
	}

	s.logger.Info("password reset completed", slog.String("user_id", user.ID))
	s.auditLogger.LogPasswordChange(user.ID, true)
	return nil
}
