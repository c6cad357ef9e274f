package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Connect opens a Redis client and pings it. It returns a nil client when
// Redis is disabled in the configuration.
func Connect(ctx context.Context, cfg config.RedisConfig) (redis.UniversalClient, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// NewIdempotencyStore returns a Redis store when a client is available and
// falls back to the in-memory store otherwise
func NewIdempotencyStore(client redis.UniversalClient, cfg config.IdempotencyConfig, logger *zap.Logger) shared.IdempotencyStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	if client == nil {
		logger.Warn("Redis unavailable, using in-memory idempotency store; duplicates are only suppressed per instance")
		return NewInMemoryIdempotencyStore()
	}
	logger.Info("Using Redis idempotency store", zap.String("key_prefix", cfg.KeyPrefix))
	return NewRedisIdempotencyStore(client, cfg.KeyPrefix)
}
