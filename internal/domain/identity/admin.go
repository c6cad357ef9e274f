package identity

import "context"

// AdminDirectory recognises administrator accounts, which live outside the user store
type AdminDirectory interface {
	IsAdmin(email string) bool

	// VerifyAdmin checks administrator credentials
	VerifyAdmin(ctx context.Context, email, password string) bool
}
