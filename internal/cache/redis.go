package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adiwijaya/rukun/internal/config"
	"github.com/redis/go-redis/v9"
)

// NewClient connects to the ephemeral keyed store. The client is
// constructed once at process start and injected into every store that
// needs it.
func NewClient(cfg *config.RedisConfig, logger *slog.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("unable to ping redis: %w", err)
	}

	logger.Info("redis connection established", slog.String("addr", cfg.Addr))
	return rdb, nil
}
