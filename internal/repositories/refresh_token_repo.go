package repositories

import (
	"context"
	"time"

	"github.com/adiwijaya/rukun/internal/database"
	"github.com/adiwijaya/rukun/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RefreshTokenRepository manages the server-side refresh ledger. A row
// exists for every refresh credential the server still honors; deleting
// the row is revocation.
type RefreshTokenRepository struct {
	db *database.DB
}

func NewRefreshTokenRepository(db *database.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, userID, token string, expiresAt time.Time) (*models.RefreshToken, error) {
	record := &models.RefreshToken{
		ID:        uuid.New().String(),
		UserID:    userID,
		Token:     token,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}

	query := `
		INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		record.ID, record.UserID, record.Token, record.ExpiresAt, record.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return record, nil
}

func (r *RefreshTokenRepository) GetByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token, expires_at, created_at
		FROM refresh_tokens WHERE token = $1
	`

	var record models.RefreshToken
	err := r.db.Pool.QueryRow(ctx, query, token).Scan(
		&record.ID, &record.UserID, &record.Token, &record.ExpiresAt, &record.CreatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &record, nil
}

// Rotate retires the presented credential and installs its replacement
// in a single transaction. The delete is conditional on the row still
// existing and being unexpired, so concurrent presentations of the same
// credential produce exactly one winner; the losers see ErrNotFound.
func (r *RefreshTokenRepository) Rotate(ctx context.Context, oldToken, newToken string, expiresAt time.Time) (*models.RefreshToken, error) {
	record := &models.RefreshToken{
		ID:        uuid.New().String(),
		Token:     newToken,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}

	err := r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		deleteQuery := `
			DELETE FROM refresh_tokens
			WHERE token = $1 AND expires_at > NOW()
			RETURNING user_id
		`
		if err := tx.QueryRow(ctx, deleteQuery, oldToken).Scan(&record.UserID); err != nil {
			return database.MapPostgresError(err)
		}

		insertQuery := `
			INSERT INTO refresh_tokens (id, user_id, token, expires_at, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`
		_, err := tx.Exec(ctx, insertQuery,
			record.ID, record.UserID, record.Token, record.ExpiresAt, record.CreatedAt,
		)
		return database.MapPostgresError(err)
	})
	if err != nil {
		return nil, err
	}

	return record, nil
}

// RevokeAllForUser deletes every credential the user holds, ending all
// sessions at once.
func (r *RefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID string) error {
	query := `DELETE FROM refresh_tokens WHERE user_id = $1`

	_, err := r.db.Pool.Exec(ctx, query, userID)
	return database.MapPostgresError(err)
}

// PurgeExpired removes credentials past their expiry. Expired rows are
// already unusable; this just keeps the ledger small.
func (r *RefreshTokenRepository) PurgeExpired(ctx context.Context) (int64, error) {
	query := `DELETE FROM refresh_tokens WHERE expires_at <= NOW()`

	result, err := r.db.Pool.Exec(ctx, query)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
