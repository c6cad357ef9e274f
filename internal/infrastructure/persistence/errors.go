package persistence

import (
	"errors"
	"fmt"

	"github.com/rentflow/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ErrUniqueViolation is returned when a write hits a unique index the services did not pre-check
var ErrUniqueViolation = shared.NewConflictError("UNIQUE_VIOLATION", "A record with the same unique key already exists")

// translateError maps gorm errors onto domain errors. notFound is returned for missing rows.
func translateError(err error, notFound error, op string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, ErrUniqueViolation)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
