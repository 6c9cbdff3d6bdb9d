package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/adiwijaya/rukun/internal/auth"
	"github.com/adiwijaya/rukun/internal/models"
	pkgauth "github.com/adiwijaya/rukun/pkg/auth"
	pkglogger "github.com/adiwijaya/rukun/pkg/logger"
)

// UserRepository defines the persistence operations the services need
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	RecordLoginFailure(ctx context.Context, id string, maxFailures int, lockUntil time.Time) error
	ResetLoginFailures(ctx context.Context, id string) error
	ListPending(ctx context.Context, limit, offset int) ([]*models.User, error)
	Approve(ctx context.Context, id, approverID string) (*models.User, error)
	Reject(ctx context.Context, id, approverID, reason string) (*models.User, error)
}

// RefreshTokenRepository defines the refresh ledger operations
type RefreshTokenRepository interface {
	Create(ctx context.Context, userID, token string, expiresAt time.Time) (*models.RefreshToken, error)
	GetByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	Rotate(ctx context.Context, oldToken, newToken string, expiresAt time.Time) (*models.RefreshToken, error)
	RevokeAllForUser(ctx context.Context, userID string) error
	PurgeExpired(ctx context.Context) (int64, error)
}

// AuthService handles login, refresh and logout
type AuthService struct {
	users         UserRepository
	tokens        RefreshTokenRepository
	tm            *auth.TokenManager
	timing        *auth.TimingDelay
	logger        *slog.Logger
	auditLogger   *pkglogger.AuditLogger
	maxFailed     int
	lockout       time.Duration
	refreshExpiry time.Duration
	accessExpiry  time.Duration
}

// NewAuthService creates a new AuthService
func NewAuthService(
	users UserRepository,
	tokens RefreshTokenRepository,
	tm *auth.TokenManager,
	timing *auth.TimingDelay,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
	maxFailed int,
	lockout, refreshExpiry, accessExpiry time.Duration,
) *AuthService {
	return &AuthService{
		users:         users,
		tokens:        tokens,
		tm:            tm,
		timing:        timing,
		logger:        logger,
		auditLogger:   auditLogger,
		maxFailed:     maxFailed,
		lockout:       lockout,
		refreshExpiry: refreshExpiry,
		accessExpiry:  accessExpiry,
	}
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// AuthResponse represents the response from auth operations. The
// refresh token travels in an httpOnly cookie, never in the JSON body.
type AuthResponse struct {
	AccessToken  string        `json:"access_token"`
	ExpiresIn    int64         `json:"expires_in"`
	User         *UserResponse `json:"user"`
	RefreshToken string        `json:"-"`
}

// Login authenticates a user by email and password. All credential
// failures collapse to ErrUnauthorized so callers cannot distinguish
// an unknown email from a wrong password; the timing delay pads both
// paths to the same duration.
func (s *AuthService) Login(ctx context.Context, email, password, ipAddress string) (*AuthResponse, error) {
	start := time.Now()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		s.timing.WaitFrom(start, false)
		return nil, models.ErrUnauthorized
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				IPAddress:     ipAddress,
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			s.timing.WaitFrom(start, false)
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := validateAccountState(user); err != nil {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     ipAddress,
			FailureReason: "account_blocked",
			Success:       false,
		})
		s.timing.WaitFrom(start, false)
		return nil, err
	}

	if !pkgauth.VerifyPassword(password, user.PasswordHash) {
		lockUntil := time.Now().Add(s.lockout)
		if err := s.users.RecordLoginFailure(ctx, user.ID, s.maxFailed, lockUntil); err != nil {
			s.logger.Error("failed to record login failure",
				slog.String("user_id", user.ID), slog.Any("error", err))
		}
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			UserID:        user.ID,
			IPAddress:     ipAddress,
			FailureReason: "invalid_credentials",
			Success:       false,
		})
		s.timing.WaitFrom(start, false)
		return nil, models.ErrUnauthorized
	}

	if user.FailedLogins > 0 || user.LockedUntil != nil {
		if err := s.users.ResetLoginFailures(ctx, user.ID); err != nil {
			s.logger.Error("failed to reset login failures",
				slog.String("user_id", user.ID), slog.Any("error", err))
		}
	}

	resp, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		UserID:    user.ID,
		IPAddress: ipAddress,
		Success:   true,
	})

	return resp, nil
}

// Refresh exchanges a valid refresh credential for a fresh token pair.
// The presented credential is retired in the same transaction that
// records its replacement, so each credential works exactly once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	if refreshToken = strings.TrimSpace(refreshToken); refreshToken == "" {
		return nil, models.ErrUnauthorized
	}

	record, err := s.tokens.GetByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			s.logger.Info("refresh with unknown credential")
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to look up refresh credential", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if record.Expired() {
		s.logger.Info("refresh with expired credential", slog.String("user_id", record.UserID))
		return nil, models.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, record.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user for refresh",
			slog.String("user_id", record.UserID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := validateAccountState(user); err != nil {
		s.logger.Info("refresh blocked due to account state",
			slog.String("user_id", user.ID), slog.String("status", user.Status))
		return nil, models.ErrUnauthorized
	}

	newToken, err := auth.GenerateOpaqueToken(auth.RefreshTokenBytes)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	rotated, err := s.tokens.Rotate(ctx, refreshToken, newToken, time.Now().Add(s.refreshExpiry))
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Lost a rotation race or the credential was revoked
			// between lookup and rotate
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to rotate refresh credential",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	accessToken, err := s.tm.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		s.logger.Error("failed to generate access token",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("token refreshed", slog.String("user_id", user.ID))

	return &AuthResponse{
		AccessToken:  accessToken,
		ExpiresIn:    int64(s.accessExpiry.Seconds()),
		RefreshToken: rotated.Token,
		User:         userModelToResponse(user),
	}, nil
}

// Logout revokes every refresh credential the user holds. Revoking a
// credential that no longer exists is not an error.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		s.logger.Error("failed to revoke refresh credentials",
			slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.logger.Info("user logged out", slog.String("user_id", userID))
	s.auditLogger.LogAccountAction("logout", userID, nil)
	return nil
}

// GetUser returns the current user's profile.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get user", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return userModelToResponse(user), nil
}

func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (*AuthResponse, error) {
	accessToken, err := s.tm.GenerateAccessToken(user.ID, user.Email, user.Role)
	if err != nil {
		s.logger.Error("failed to generate access token",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	refreshToken, err := auth.GenerateOpaqueToken(auth.RefreshTokenBytes)
	if err != nil {
		s.logger.Error("failed to generate refresh token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if _, err := s.tokens.Create(ctx, user.ID, refreshToken, time.Now().Add(s.refreshExpiry)); err != nil {
		s.logger.Error("failed to persist refresh credential",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &AuthResponse{
		AccessToken:  accessToken,
		ExpiresIn:    int64(s.accessExpiry.Seconds()),
		RefreshToken: refreshToken,
		User:         userModelToResponse(user),
	}, nil
}

// validateAccountState checks whether the account may authenticate.
func validateAccountState(user *models.User) error {
	if user.LockedUntil != nil && user.LockedUntil.After(time.Now()) {
		return models.ErrAccountLocked
	}

	switch user.Status {
	case models.StatusActive:
		return nil
	case models.StatusSuspended:
		return models.ErrAccountSuspended
	default:
		// Pending accounts cannot sign in until approved
		return models.ErrForbidden
	}
}

func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		Status:    user.Status,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}
