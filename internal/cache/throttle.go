package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResendThrottle bounds how many OTP resends an email may request
// within a rolling window. The counter update is a single atomic INCR,
// so concurrent resend requests cannot slip past the limit.
type ResendThrottle struct {
	rdb    redis.UniversalClient
	max    int
	window time.Duration
}

func NewResendThrottle(rdb redis.UniversalClient, max int, window time.Duration) *ResendThrottle {
	return &ResendThrottle{rdb: rdb, max: max, window: window}
}

func (t *ResendThrottle) key(purpose, email string) string {
	return "resend:" + purpose + ":" + email
}

// Allow increments the counter for (purpose, email) and reports whether
// this request is still within the limit. The window starts at the
// first request and is not extended by later ones.
func (t *ResendThrottle) Allow(ctx context.Context, purpose, email string) (bool, error) {
	key := t.key(purpose, email)

	count, err := t.rdb.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment resend counter: %w", err)
	}

	if count == 1 {
		if err := t.rdb.Expire(ctx, key, t.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set resend window: %w", err)
		}
	}

	return count <= int64(t.max), nil
}
