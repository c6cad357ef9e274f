package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rentflow/backend/internal/infrastructure/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryTokenBlacklist_Revoke(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.Revoke(ctx, "jti-1", time.Hour))

	revoked, err := blacklist.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = blacklist.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryTokenBlacklist_RevocationExpires(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	require.NoError(t, blacklist.Revoke(ctx, "jti-short", time.Millisecond))
	time.Sleep(10 * time.Millisecond)

	revoked, err := blacklist.IsRevoked(ctx, "jti-short")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryTokenBlacklist_RevokeSubject(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()
	issuedBefore := time.Now().Add(-time.Hour)

	revoked, err := blacklist.IsSubjectRevoked(ctx, "tenant@example.com", issuedBefore)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, blacklist.RevokeSubject(ctx, "tenant@example.com", time.Hour))

	revoked, err = blacklist.IsSubjectRevoked(ctx, "tenant@example.com", issuedBefore)
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = blacklist.IsSubjectRevoked(ctx, "tenant@example.com", time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.False(t, revoked, "tokens issued after the revocation stay valid")

	revoked, err = blacklist.IsSubjectRevoked(ctx, "other@example.com", issuedBefore)
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestInMemoryTokenBlacklist_Concurrent(t *testing.T) {
	blacklist := auth.NewInMemoryTokenBlacklist()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			jti := string(rune('a' + i%26))
			_ = blacklist.Revoke(ctx, jti, time.Hour)
			_, _ = blacklist.IsRevoked(ctx, jti)
		}(i)
	}
	wg.Wait()

	revoked, err := blacklist.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestNewRedisTokenBlacklist_ImplementsInterface(t *testing.T) {
	var _ auth.TokenBlacklist = auth.NewRedisTokenBlacklist(nil, "")
}
