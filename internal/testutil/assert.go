package testutil

import (
	"errors"
	"testing"

	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertDomainCode asserts that err wraps a DomainError with the given code
func AssertDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected a domain error, got %v", err)
	assert.Equal(t, code, de.Code)
}
