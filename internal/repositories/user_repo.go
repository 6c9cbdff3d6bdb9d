package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/adiwijaya/rukun/internal/database"
	"github.com/adiwijaya/rukun/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, password_hash, name, role, status, email_verified,
	approved_by, approved_at, rejection_reason, failed_logins, locked_until,
	password_changed_at, created_at, updated_at, deleted_at`

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// rowScanner covers both pgx.Row and pgx.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User

	err := scanner.Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name,
		&user.Role, &user.Status, &user.EmailVerified,
		&user.ApprovedBy, &user.ApprovedAt, &user.RejectionReason,
		&user.FailedLogins, &user.LockedUntil,
		&user.PasswordChangedAt, &user.CreatedAt, &user.UpdatedAt, &user.DeletedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &user, nil
}

func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

// GetByID returns a live (non-deleted) user by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND deleted_at IS NULL`
	return scanUserRow(r.db.Pool.QueryRow(ctx, query, id))
}

// GetByEmail returns the live user for an email. At most one exists.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND deleted_at IS NULL`
	return scanUserRow(r.db.Pool.QueryRow(ctx, query, email))
}

// Create inserts a new user row. The partial unique index on live
// emails turns a duplicate into models.ErrConflict, which makes the
// registration commit idempotent on email.
func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	user.ID = uuid.New().String()

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if user.Role == "" {
		user.Role = models.RoleResident
	}
	if user.Status == "" {
		user.Status = models.StatusPending
	}

	query := `
		INSERT INTO users (id, email, password_hash, name, role, status, email_verified, password_changed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + userColumns

	return scanUserRow(r.db.Pool.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Name,
		user.Role, user.Status, user.EmailVerified,
		user.PasswordChangedAt, user.CreatedAt, user.UpdatedAt,
	))
}

// UpdatePassword replaces the stored hash and stamps the change time.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE users SET password_hash = $1, password_changed_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND deleted_at IS NULL
	`

	result, err := r.db.Pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return database.MapPostgresError(err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}
	return nil
}

// RecordLoginFailure bumps the failure counter atomically and locks the
// account once the threshold is reached.
func (r *UserRepository) RecordLoginFailure(ctx context.Context, id string, maxFailures int, lockUntil time.Time) error {
	query := `
		UPDATE users SET
			failed_logins = failed_logins + 1,
			locked_until = CASE WHEN failed_logins + 1 >= $2 THEN $3 ELSE locked_until END,
			updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	_, err := r.db.Pool.Exec(ctx, query, id, maxFailures, lockUntil)
	return database.MapPostgresError(err)
}

// ResetLoginFailures clears the counter and any lock after a
// successful authentication.
func (r *UserRepository) ResetLoginFailures(ctx context.Context, id string) error {
	query := `
		UPDATE users SET failed_logins = 0, locked_until = NULL, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`

	_, err := r.db.Pool.Exec(ctx, query, id)
	return database.MapPostgresError(err)
}

// ListPending returns users awaiting administrative approval.
func (r *UserRepository) ListPending(ctx context.Context, limit, offset int) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + ` FROM users
		WHERE status = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC LIMIT $2 OFFSET $3
	`

	rows, err := r.db.Pool.Query(ctx, query, models.StatusPending, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending users: %w", err)
	}

	return scanUserRows(rows)
}

// Approve activates a pending user and records the approver.
func (r *UserRepository) Approve(ctx context.Context, id, approverID string) (*models.User, error) {
	query := `
		UPDATE users SET status = $1, approved_by = $2, approved_at = NOW(), rejection_reason = NULL, updated_at = NOW()
		WHERE id = $3 AND status = $4 AND deleted_at IS NULL
		RETURNING ` + userColumns

	return scanUserRow(r.db.Pool.QueryRow(ctx, query,
		models.StatusActive, approverID, id, models.StatusPending,
	))
}

// Reject suspends a pending user and records the reason.
func (r *UserRepository) Reject(ctx context.Context, id, approverID, reason string) (*models.User, error) {
	query := `
		UPDATE users SET status = $1, approved_by = $2, approved_at = NOW(), rejection_reason = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5 AND deleted_at IS NULL
		RETURNING ` + userColumns

	return scanUserRow(r.db.Pool.QueryRow(ctx, query,
		models.StatusSuspended, approverID, reason, id, models.StatusPending,
	))
}
