package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/adiwijaya/rukun/internal/models"
	"github.com/redis/go-redis/v9"
)

// PendingStore stages unconfirmed registrations keyed by email. A
// payload is written on submission and consumed exactly once on OTP
// verification; the TTL cleans up abandoned submissions.
type PendingStore struct {
	rdb redis.UniversalClient
}

func NewPendingStore(rdb redis.UniversalClient) *PendingStore {
	return &PendingStore{rdb: rdb}
}

func (s *PendingStore) key(email string) string {
	return "pending:" + email
}

// Set stages a registration. Concurrent submissions for the same email
// converge on the last write.
func (s *PendingStore) Set(ctx context.Context, reg *models.PendingRegistration, ttl time.Duration) error {
	payload, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("failed to encode pending registration: %w", err)
	}

	if err := s.rdb.Set(ctx, s.key(reg.Email), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to stage pending registration: %w", err)
	}
	return nil
}

// Consume atomically reads and deletes the staged payload. A second
// consumer, or a consumer arriving after TTL expiry, gets
// models.ErrNotFound.
func (s *PendingStore) Consume(ctx context.Context, email string) (*models.PendingRegistration, error) {
	payload, err := s.rdb.GetDel(ctx, s.key(email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to consume pending registration: %w", err)
	}

	var reg models.PendingRegistration
	if err := json.Unmarshal(payload, &reg); err != nil {
		return nil, fmt.Errorf("failed to decode pending registration: %w", err)
	}
	return &reg, nil
}

// Extend pushes out the TTL on a staged payload so a freshly resent
// code cannot outlive the registration it verifies.
func (s *PendingStore) Extend(ctx context.Context, email string, ttl time.Duration) error {
	ok, err := s.rdb.Expire(ctx, s.key(email), ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to extend pending registration: %w", err)
	}
	if !ok {
		return models.ErrNotFound
	}
	return nil
}

// Exists reports whether a staged payload is still present without
// consuming it.
func (s *PendingStore) Exists(ctx context.Context, email string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.key(email)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check pending registration: %w", err)
	}
	return n > 0, nil
}
