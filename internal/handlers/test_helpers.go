package handlers

import (
	"context"

	"github.com/adiwijaya/rukun/internal/services"
)

// MockAuthService implements AuthServiceInterface for testing
type MockAuthService struct {
	LoginFunc   func(ctx context.Context, email, password, ipAddress string) (*services.AuthResponse, error)
	RefreshFunc func(ctx context.Context, refreshToken string) (*services.AuthResponse, error)
	LogoutFunc  func(ctx context.Context, userID string) error
	GetUserFunc func(ctx context.Context, userID string) (*services.UserResponse, error)
}

func (m *MockAuthService) Login(ctx context.Context, email, password, ipAddress string) (*services.AuthResponse, error) {
	return m.LoginFunc(ctx, email, password, ipAddress)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*services.AuthResponse, error) {
	return m.RefreshFunc(ctx, refreshToken)
}

func (m *MockAuthService) Logout(ctx context.Context, userID string) error {
	return m.LogoutFunc(ctx, userID)
}

func (m *MockAuthService) GetUser(ctx context.Context, userID string) (*services.UserResponse, error) {
	return m.GetUserFunc(ctx, userID)
}

// MockRegistrationService implements RegistrationServiceInterface for testing
type MockRegistrationService struct {
	SubmitFunc func(ctx context.Context, email, name, password string) error
	VerifyFunc func(ctx context.Context, email, code string) (*services.UserResponse, error)
	ResendFunc func(ctx context.Context, email string) error
}

func (m *MockRegistrationService) Submit(ctx context.Context, email, name, password string) error {
	return m.SubmitFunc(ctx, email, name, password)
}

func (m *MockRegistrationService) Verify(ctx context.Context, email, code string) (*services.UserResponse, error) {
	return m.VerifyFunc(ctx, email, code)
}

func (m *MockRegistrationService) Resend(ctx context.Context, email string) error {
	return m.ResendFunc(ctx, email)
}

// MockResetService implements ResetServiceInterface for testing
type MockResetService struct {
	RequestResetFunc  func(ctx context.Context, email string) error
	VerifyResetFunc   func(ctx context.Context, email, code string) error
	CompleteResetFunc func(ctx context.Context, email, newPassword string) error
}

func (m *MockResetService) RequestReset(ctx context.Context, email string) error {
	return m.RequestResetFunc(ctx, email)
}

func (m *MockResetService) VerifyReset(ctx context.Context, email, code string) error {
	return m.VerifyResetFunc(ctx, email, code)
}

func (m *MockResetService) CompleteReset(ctx context.Context, email, newPassword string) error {
	return m.CompleteResetFunc(ctx, email, newPassword)
}

// MockAdminService implements AdminServiceInterface for testing
type MockAdminService struct {
	ListPendingFunc func(ctx context.Context, limit, offset int) ([]*services.UserResponse, error)
	ListRolesFunc   func(ctx context.Context) ([]*services.RoleResponse, error)
	ApproveFunc     func(ctx context.Context, userID, approverID string) (*services.UserResponse, error)
	RejectFunc      func(ctx context.Context, userID, approverID, reason string) (*services.UserResponse, error)
}

func (m *MockAdminService) ListPending(ctx context.Context, limit, offset int) ([]*services.UserResponse, error) {
	return m.ListPendingFunc(ctx, limit, offset)
}

func (m *MockAdminService) ListRoles(ctx context.Context) ([]*services.RoleResponse, error) {
	return m.ListRolesFunc(ctx)
}

func (m *MockAdminService) Approve(ctx context.Context, userID, approverID string) (*services.UserResponse, error) {
	return m.ApproveFunc(ctx, userID, approverID)
}

func (m *MockAdminService) Reject(ctx context.Context, userID, approverID, reason string) (*services.UserResponse, error) {
	return m.RejectFunc(ctx, userID, approverID, reason)
}
