package identity

import (
	"strings"

	"github.com/rentflow/backend/internal/domain/shared"
)

var peselWeights = [10]int{1, 3, 7, 9, 1, 3, 7, 9, 1, 3}

// NationalID is a PESEL number: eleven digits ending in a weighted checksum digit
type NationalID string

// ParseNationalID validates and returns a NationalID
func ParseNationalID(s string) (NationalID, error) {
	s = strings.TrimSpace(s)
	if !IsValidPESEL(s) {
		return "", shared.NewValidationError("INVALID_NATIONAL_ID", "Invalid PESEL number")
	}
	return NationalID(s), nil
}

// IsValidPESEL checks length, digits and the control digit
func IsValidPESEL(s string) bool {
	if len(s) != 11 {
		return false
	}
	sum := 0
	for i := 0; i < 11; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		if i < 10 {
			sum += int(c-'0') * peselWeights[i]
		}
	}
	control := (10 - sum%10) % 10
	return control == int(s[10]-'0')
}

// String implements fmt.Stringer
func (n NationalID) String() string {
	return string(n)
}
