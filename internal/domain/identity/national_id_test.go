package identity

import (
	"errors"
	"testing"

	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidPESEL(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"44051401359", true},
		{"02070803628", true},
		{"44051401358", false},
		{"4405140135", false},
		{"440514013590", false},
		{"4405140135a", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidPESEL(tt.in))
		})
	}
}

func TestParseNationalID(t *testing.T) {
	id, err := ParseNationalID(" 44051401359 ")
	require.NoError(t, err)
	assert.Equal(t, "44051401359", id.String())

	_, err = ParseNationalID("12345678901")
	assert.True(t, errors.Is(err, shared.ErrValidation))
}
