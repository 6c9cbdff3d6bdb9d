package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/adiwijaya/rukun/internal/models"
	pkglogger "github.com/adiwijaya/rukun/pkg/logger"
)

// RoleRepository reads the static role reference table
type RoleRepository interface {
	List(ctx context.Context) ([]*models.Role, error)
}

// AdminService handles administrative review of pending accounts
type AdminService struct {
	users       UserRepository
	roles       RoleRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAdminService creates a new AdminService
func NewAdminService(users UserRepository, roles RoleRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AdminService {
	return &AdminService{
		users:       users,
		roles:       roles,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// RoleResponse is the API shape of a role reference row
type RoleResponse struct {
	Name        string `json:"name"`
	Level       int    `json:"level"`
	Description string `json:"description"`
}

// ListRoles returns the role reference table, least privileged first.
func (s *AdminService) ListRoles(ctx context.Context) ([]*RoleResponse, error) {
	roles, err := s.roles.List(ctx)
	if err != nil {
		s.logger.Error("failed to list roles", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	responses := make([]*RoleResponse, 0, len(roles))
	for _, role := range roles {
		responses = append(responses, &RoleResponse{
			Name:        role.Name,
			Level:       role.Level,
			Description: role.Description,
		})
	}
	return responses, nil
}

// ListPending returns accounts awaiting approval, oldest first.
func (s *AdminService) ListPending(ctx context.Context, limit, offset int) ([]*UserResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.users.ListPending(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list pending users", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	responses := make([]*UserResponse, 0, len(users))
	for _, user := range users {
		responses = append(responses, userModelToResponse(user))
	}
	return responses, nil
}

// Approve activates a pending account. Approving an account that is
// not pending returns ErrNotFound.
func (s *AdminService) Approve(ctx context.Context, userID, approverID string) (*UserResponse, error) {
	user, err := s.users.Approve(ctx, userID, approverID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to approve user",
			slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user approved",
		slog.String("user_id", user.ID), slog.String("approved_by", approverID))
	s.auditLogger.LogAccountAction("user_approved", user.ID, map[string]string{
		"approved_by": approverID,
	})

	return userModelToResponse(user), nil
}

// Reject suspends a pending account and records the reason.
func (s *AdminService) Reject(ctx context.Context, userID, approverID, reason string) (*UserResponse, error) {
	user, err := s.users.Reject(ctx, userID, approverID, reason)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to reject user",
			slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user rejected",
		slog.String("user_id", user.ID), slog.String("rejected_by", approverID))
	s.auditLogger.LogAccountAction("user_rejected", user.ID, map[string]string{
		"rejected_by": approverID,
		"reason":      reason,
	})

	return userModelToResponse(user), nil
}
