package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers processed keys so a handler runs at most once per key
type IdempotencyStore interface {
	// MarkProcessed returns true if the key was newly marked, false if it was already processed
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	Close() error
}

// IdempotencyConfig controls duplicate suppression for event handlers
type IdempotencyConfig struct {
	// TTL is how long a processed key is remembered
	TTL time.Duration
	// Enabled turns the check off entirely when false
	Enabled bool
}

// DefaultIdempotencyConfig remembers keys for 24 hours
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
