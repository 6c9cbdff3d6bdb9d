package database

import (
	"context"
	"errors"
	"testing"

	"github.com/adiwijaya/rukun/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	pgx.Tx
	commitErr  error
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return t.commitErr
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	t.rolledBack = true
	return nil
}

type fakeBeginner struct {
	tx       *fakeTx
	beginErr error
}

func (b *fakeBeginner) Begin(ctx context.Context) (pgx.Tx, error) {
	if b.beginErr != nil {
		return nil, b.beginErr
	}
	return b.tx, nil
}

func TestRunInTransaction_Commits(t *testing.T) {
	tx := &fakeTx{}

	err := runInTransaction(context.Background(), &fakeBeginner{tx: tx}, func(pgx.Tx) error {
		return nil
	})

	require.NoError(t, err)
	assert.True(t, tx.committed)
	assert.False(t, tx.rolledBack)
}

func TestRunInTransaction_CommitErrorPropagates(t *testing.T) {
	commitErr := errors.New("unexpected EOF")
	tx := &fakeTx{commitErr: commitErr}

	err := runInTransaction(context.Background(), &fakeBeginner{tx: tx}, func(pgx.Tx) error {
		return nil
	})

	// A lost commit must not look like success; callers would hand out
	// state the database never persisted
	assert.ErrorIs(t, err, commitErr)
}

func TestRunInTransaction_FnErrorRollsBack(t *testing.T) {
	fnErr := errors.New("constraint violated")
	tx := &fakeTx{}

	err := runInTransaction(context.Background(), &fakeBeginner{tx: tx}, func(pgx.Tx) error {
		return fnErr
	})

	assert.ErrorIs(t, err, fnErr)
	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestRunInTransaction_BeginErrorPropagates(t *testing.T) {
	beginErr := errors.New("pool closed")

	err := runInTransaction(context.Background(), &fakeBeginner{beginErr: beginErr}, func(pgx.Tx) error {
		t.Fatal("fn must not run when begin fails")
		return nil
	})

	assert.ErrorIs(t, err, beginErr)
}

func TestRunInTransaction_PanicRollsBack(t *testing.T) {
	tx := &fakeTx{}

	assert.Panics(t, func() {
		_ = runInTransaction(context.Background(), &fakeBeginner{tx: tx}, func(pgx.Tx) error {
			panic("boom")
		})
	})

	assert.True(t, tx.rolledBack)
	assert.False(t, tx.committed)
}

func TestMapPostgresError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"no rows", pgx.ErrNoRows, models.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: "23505"}, models.ErrConflict},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, models.ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapPostgresError(tt.in))
		})
	}
}
