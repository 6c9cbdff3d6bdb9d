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

// OTP purposes. Each purpose is an independent key namespace so a
// registration code can never satisfy a reset verification.
const (
	PurposeRegister = "register"
	PurposeReset    = "reset"
)

// OTPStore holds one-time codes keyed by (purpose, email) with a TTL.
// Setting a code overwrites any previous one for the same key.
type OTPStore struct {
	rdb redis.UniversalClient
}

func NewOTPStore(rdb redis.UniversalClient) *OTPStore {
	return &OTPStore{rdb: rdb}
}

func (s *OTPStore) key(purpose, email string) string {
	return "otp:" + purpose + ":" + email
}

func (s *OTPStore) Set(ctx context.Context, purpose, email, code string, ttl time.Duration) error {
	record := models.OTPRecord{Code: code, IssuedAt: time.Now()}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode otp record: %w", err)
	}

	if err := s.rdb.Set(ctx, s.key(purpose, email), payload, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store otp: %w", err)
	}
	return nil
}

// Get returns the active code for the key, or models.ErrNotFound once
// the TTL has elapsed or no code was ever issued.
func (s *OTPStore) Get(ctx context.Context, purpose, email string) (*models.OTPRecord, error) {
	payload, err := s.rdb.Get(ctx, s.key(purpose, email)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read otp: %w", err)
	}

	var record models.OTPRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("failed to decode otp record: %w", err)
	}
	return &record, nil
}

func (s *OTPStore) Delete(ctx context.Context, purpose, email string) error {
	if err := s.rdb.Del(ctx, s.key(purpose, email)).Err(); err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}
	return nil
}
