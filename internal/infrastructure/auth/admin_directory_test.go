package auth

import (
	"context"
	"testing"

	"github.com/rentflow/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestConfigAdminDirectory(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("admin-password"), bcrypt.MinCost)
	require.NoError(t, err)

	dir, err := NewConfigAdminDirectory(config.AdminConfig{
		Accounts: []string{" Admin@Example.com ," + string(hash)},
	})
	require.NoError(t, err)
	ctx := context.Background()

	assert.True(t, dir.IsAdmin("admin@example.com"))
	assert.True(t, dir.IsAdmin("ADMIN@example.com"))
	assert.False(t, dir.IsAdmin("tenant@example.com"))

	assert.True(t, dir.VerifyAdmin(ctx, "admin@example.com", "admin-password"))
	assert.False(t, dir.VerifyAdmin(ctx, "admin@example.com", "wrong-password"))
	assert.False(t, dir.VerifyAdmin(ctx, "tenant@example.com", "admin-password"))
}

func TestNewConfigAdminDirectory_InvalidEntries(t *testing.T) {
	tests := []struct {
		name    string
		account string
	}{
		{"missing hash", "admin@example.com"},
		{"empty email", ",$2a$10$abc"},
		{"not a bcrypt hash", "admin@example.com,plaintext"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConfigAdminDirectory(config.AdminConfig{Accounts: []string{tt.account}})
			assert.Error(t, err)
		})
	}
}

func TestNewConfigAdminDirectory_Empty(t *testing.T) {
	dir, err := NewConfigAdminDirectory(config.AdminConfig{})
	require.NoError(t, err)
	assert.False(t, dir.IsAdmin("admin@example.com"))
}
