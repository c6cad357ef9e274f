package uow

import (
	"context"

	"github.com/rentflow/backend/internal/domain/billing"
	"github.com/rentflow/backend/internal/domain/identity"
	"github.com/rentflow/backend/internal/domain/metering"
	"github.com/rentflow/backend/internal/domain/property"
)

// TransactionScope runs a unit of work. If fn returns an error every write
// made through the repositories is rolled back; otherwise all are committed.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories gives access to every store within one unit of work.
// All repositories returned share the same underlying transaction.
type Repositories interface {
	Buildings() property.BuildingRepository
	Apartments() property.ApartmentRepository
	Readings() metering.ReadingRepository
	Invoices() billing.InvoiceRepository
	Users() identity.UserRepository
}

// NoOpTransactionScope hands out the same repositories without a transaction
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs fn directly
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s.repos)
}
