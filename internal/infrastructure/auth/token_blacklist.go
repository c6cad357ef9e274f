package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenBlacklist revokes tokens before they expire: single tokens on logout,
// and every token of an account when the account is deleted
type TokenBlacklist interface {
	// Revoke blacklists one token id for the rest of its lifetime
	Revoke(ctx context.Context, jti string, ttl time.Duration) error

	IsRevoked(ctx context.Context, jti string) (bool, error)

	// RevokeSubject rejects every token of a subject issued before the current
	// second. Token timestamps have second precision, so a token issued in the
	// same second stays valid.
	RevokeSubject(ctx context.Context, subject string, ttl time.Duration) error

	IsSubjectRevoked(ctx context.Context, subject string, issuedAt time.Time) (bool, error)
}

const defaultBlacklistPrefix = "rentflow:token:"

// RedisTokenBlacklist implements TokenBlacklist on Redis keys with a TTL
type RedisTokenBlacklist struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisTokenBlacklist creates a blacklist sharing an existing Redis client
func NewRedisTokenBlacklist(client redis.UniversalClient, keyPrefix string) *RedisTokenBlacklist {
	if keyPrefix == "" {
		keyPrefix = defaultBlacklistPrefix
	}
	return &RedisTokenBlacklist{client: client, keyPrefix: keyPrefix}
}

func (b *RedisTokenBlacklist) jtiKey(jti string) string {
	return b.keyPrefix + "jti:" + jti
}

func (b *RedisTokenBlacklist) subjectKey(subject string) string {
	return b.keyPrefix + "subject:" + subject
}

// Revoke implements TokenBlacklist
func (b *RedisTokenBlacklist) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.jtiKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// IsRevoked implements TokenBlacklist
func (b *RedisTokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := b.client.Exists(ctx, b.jtiKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}
	return n > 0, nil
}

// RevokeSubject implements TokenBlacklist
func (b *RedisTokenBlacklist) RevokeSubject(ctx context.Context, subject string, ttl time.Duration) error {
	if err := b.client.Set(ctx, b.subjectKey(subject), time.Now().Unix(), ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke subject tokens: %w", err)
	}
	return nil
}

// IsSubjectRevoked implements TokenBlacklist
func (b *RedisTokenBlacklist) IsSubjectRevoked(ctx context.Context, subject string, issuedAt time.Time) (bool, error) {
	value, err := b.client.Get(ctx, b.subjectKey(subject)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check subject revocation: %w", err)
	}
	revokedAt, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return false, fmt.Errorf("failed to parse revocation timestamp: %w", err)
	}
	return issuedAt.Unix() < revokedAt, nil
}

var _ TokenBlacklist = (*RedisTokenBlacklist)(nil)

// InMemoryTokenBlacklist keeps revocations in process memory.
// It is meant for tests and single-instance deployments without Redis.
type InMemoryTokenBlacklist struct {
	mu       sync.Mutex
	tokens   map[string]time.Time
	subjects map[string]time.Time
	now      func() time.Time
}

// NewInMemoryTokenBlacklist creates a new in-memory token blacklist
func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		tokens:   make(map[string]time.Time),
		subjects: make(map[string]time.Time),
		now:      time.Now,
	}
}

// Revoke implements TokenBlacklist
func (b *InMemoryTokenBlacklist) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens[jti] = b.now().Add(ttl)
	return nil
}

// IsRevoked implements TokenBlacklist
func (b *InMemoryTokenBlacklist) IsRevoked(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	expiresAt, ok := b.tokens[jti]
	if !ok {
		return false, nil
	}
	if b.now().After(expiresAt) {
		delete(b.tokens, jti)
		return false, nil
	}
	return true, nil
}

// RevokeSubject implements TokenBlacklist
func (b *InMemoryTokenBlacklist) RevokeSubject(_ context.Context, subject string, _ time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subjects[subject] = b.now().Truncate(time.Second)
	return nil
}

// IsSubjectRevoked implements TokenBlacklist
func (b *InMemoryTokenBlacklist) IsSubjectRevoked(_ context.Context, subject string, issuedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	revokedAt, ok := b.subjects[subject]
	if !ok {
		return false, nil
	}
	return issuedAt.Before(revokedAt), nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
