package valueobject

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
)

var (
	buildingNumberPattern = regexp.MustCompile(`^\d+[A-Za-z]?$`)
	postalCodePattern     = regexp.MustCompile(`^\d{2}-\d{3}$`)
)

// Address is a value object representing a building address.
// It is immutable - all operations return new Address instances.
type Address struct {
	city       string
	street     string
	number     string
	postalCode string
}

// NewAddress validates and creates an Address
func NewAddress(city, street, number, postalCode string) (Address, error) {
	city = strings.TrimSpace(city)
	street = strings.TrimSpace(street)
	number = strings.TrimSpace(number)
	postalCode = strings.TrimSpace(postalCode)

	if city == "" {
		return Address{}, fmt.Errorf("city cannot be empty")
	}
	if len(city) > 100 {
		return Address{}, fmt.Errorf("city cannot exceed 100 characters")
	}
	if street == "" {
		return Address{}, fmt.Errorf("street cannot be empty")
	}
	if len(street) > 200 {
		return Address{}, fmt.Errorf("street cannot exceed 200 characters")
	}
	if !IsValidBuildingNumber(number) {
		return Address{}, fmt.Errorf("building number %q must be digits optionally followed by one letter", number)
	}
	if !IsValidPostalCode(postalCode) {
		return Address{}, fmt.Errorf("postal code %q must match NN-NNN", postalCode)
	}

	return Address{
		city:       city,
		street:     street,
		number:     number,
		postalCode: postalCode,
	}, nil
}

// MustNewAddress creates a new Address, panics on error
func MustNewAddress(city, street, number, postalCode string) Address {
	addr, err := NewAddress(city, street, number, postalCode)
	if err != nil {
		panic(err)
	}
	return addr
}

// IsValidBuildingNumber reports whether s looks like "12" or "12A"
func IsValidBuildingNumber(s string) bool {
	return buildingNumberPattern.MatchString(s)
}

// IsValidPostalCode reports whether s looks like "00-950"
func IsValidPostalCode(s string) bool {
	return postalCodePattern.MatchString(s)
}

// City returns the city
func (a Address) City() string {
	return a.city
}

// Street returns the street
func (a Address) Street() string {
	return a.street
}

// Number returns the building number
func (a Address) Number() string {
	return a.number
}

// PostalCode returns the postal code
func (a Address) PostalCode() string {
	return a.postalCode
}

// IsEmpty returns true if the address has no street
func (a Address) IsEmpty() bool {
	return a.street == ""
}

// FullAddress renders "street number, postalCode city"
func (a Address) FullAddress() string {
	if a.IsEmpty() {
		return ""
	}
	return fmt.Sprintf("%s %s, %s %s", a.street, a.number, a.postalCode, a.city)
}

// String implements fmt.Stringer
func (a Address) String() string {
	return a.FullAddress()
}

// Equals compares street, number and city case-insensitively and postal code exactly
func (a Address) Equals(other Address) bool {
	return a.Key() == other.Key()
}

// Key returns the normalized identity of the address, stored with a unique index
func (a Address) Key() string {
	return strings.Join([]string{
		Fold(a.street),
		Fold(a.number),
		Fold(a.city),
		a.postalCode,
	}, "|")
}

// Fold applies Unicode case folding, so "ŁÓDŹ" and "łódź" compare equal
func Fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
