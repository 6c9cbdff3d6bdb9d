package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/adiwijaya/rukun/internal/models"
	"github.com/redis/go-redis/v9"
)

// ResetStore holds single-use reset authorizations keyed by email. The
// value is a signed proof token minted after OTP verification; it is
// consumed exactly once by the password-replacement step.
type ResetStore struct {
	rdb redis.UniversalClient
}

func NewResetStore(rdb redis.UniversalClient) *ResetStore {
	return &ResetStore{rdb: rdb}
}

func (s *ResetStore) key(email string) string {
	return "resetauth:" + email
}

func (s *ResetStore) Set(ctx context.Context, email, proofToken string, ttl time.Duration) error {
	if err := s.rdb.Set(ctx, s.key(email), proofToken, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store reset authorization: %w", err)
	}
	return nil
}

// Consume atomically reads and deletes the authorization, so at most
// one reset completes per authorization even under concurrent calls.
func (s *ResetStore) Consume(ctx context.Context, email string) (string, error) {
	proofToken, err := s.rdb.GetDel(ctx, s.key(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", models.ErrNotFound
		}
		return "", fmt.Errorf("failed to consume reset authorization: %w", err)
	}
	return proofToken, nil
}
