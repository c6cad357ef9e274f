package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/infrastructure/config"
	"golang.org/x/crypto/bcrypt"
)

// ConfigAdminDirectory serves administrator accounts from configuration.
// Each account is an email with a bcrypt password hash.
type ConfigAdminDirectory struct {
	hashes map[string][]byte
}

// NewConfigAdminDirectory parses "email,bcrypt-hash" entries
func NewConfigAdminDirectory(cfg config.AdminConfig) (*ConfigAdminDirectory, error) {
	d := &ConfigAdminDirectory{hashes: make(map[string][]byte, len(cfg.Accounts))}
	for _, account := range cfg.Accounts {
		email, hash, ok := strings.Cut(account, ",")
		email = identity.NormalizeEmail(email)
		hash = strings.TrimSpace(hash)
		if !ok || email == "" || hash == "" {
			return nil, fmt.Errorf("invalid admin account entry %q", email)
		}
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("admin account %s: invalid bcrypt hash: %w", email, err)
		}
		d.hashes[email] = []byte(hash)
	}
	return d, nil
}

// IsAdmin implements identity.AdminDirectory
func (d *ConfigAdminDirectory) IsAdmin(email string) bool {
	_, ok := d.hashes[identity.NormalizeEmail(email)]
	return ok
}

// VerifyAdmin implements identity.AdminDirectory
func (d *ConfigAdminDirectory) VerifyAdmin(_ context.Context, email, password string) bool {
	hash, ok := d.hashes[identity.NormalizeEmail(email)]
	if !ok {
		return false
	}
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

var _ identity.AdminDirectory = (*ConfigAdminDirectory)(nil)
