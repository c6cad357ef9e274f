package identity

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rentflow/backend/internal/domain/shared"
	"golang.org/x/crypto/bcrypt"
)

// Role is the stored role of a user; administrators are not stored users
type Role string

const (
	RoleUser    Role = "USER"
	RoleManager Role = "MANAGER"
	RoleAdmin   Role = "ADMIN"
)

// IsValid reports whether the role can be stored on a user
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleManager
}

// String implements fmt.Stringer
func (r Role) String() string {
	return string(r)
}

const bcryptCost = 10

var (
	emailPattern     = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	telephonePattern = regexp.MustCompile(`^\+?[0-9]{9,15}$`)
)

// User is a tenant or manager account
type User struct {
	shared.BaseAggregateRoot
	Email              string
	FirstName          string
	LastName           string
	Telephone          string
	NationalID         NationalID
	PasswordHash       string
	Enabled            bool
	Role               Role
	ApartmentID        *uuid.UUID
	ManagedBuildingIDs []uuid.UUID
}

// Profile holds the personal fields of a user
type Profile struct {
	FirstName string
	LastName  string
	Telephone string
}

// NewUser creates a tenant account with a hashed password
func NewUser(email string, profile Profile, nationalID NationalID, password string) (*User, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := validateProfile(profile); err != nil {
		return nil, err
	}
	if nationalID == "" {
		return nil, shared.NewValidationError("INVALID_NATIONAL_ID", "PESEL is required")
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, shared.NewDomainError(shared.KindValidation, "PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	u := &User{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		Email:              email,
		FirstName:          strings.TrimSpace(profile.FirstName),
		LastName:           strings.TrimSpace(profile.LastName),
		Telephone:          strings.TrimSpace(profile.Telephone),
		NationalID:         nationalID,
		PasswordHash:       string(hash),
		Enabled:            true,
		Role:               RoleUser,
		ManagedBuildingIDs: make([]uuid.UUID, 0),
	}
	u.AddDomainEvent(NewUserRegisteredEvent(u))
	return u, nil
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if len(email) > 200 || !emailPattern.MatchString(email) {
		return "", shared.NewValidationError("INVALID_EMAIL", "Invalid email format")
	}
	return email, nil
}

// NormalizeEmail lower-cases and trims an email for lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateProfile(p Profile) error {
	if strings.TrimSpace(p.FirstName) == "" || strings.TrimSpace(p.LastName) == "" {
		return shared.NewValidationError("INVALID_NAME", "First and last name are required")
	}
	if !IsValidTelephone(strings.TrimSpace(p.Telephone)) {
		return shared.NewValidationError("INVALID_TELEPHONE", "Telephone must have 9 to 15 digits")
	}
	return nil
}

// IsValidTelephone accepts 9-15 digits with an optional leading plus
func IsValidTelephone(s string) bool {
	return telephonePattern.MatchString(s)
}

func validatePassword(password string) error {
	if len(password) < 8 {
		return shared.NewValidationError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 72 {
		return shared.NewValidationError("INVALID_PASSWORD", "Password cannot exceed 72 characters")
	}
	return nil
}

// VerifyPassword compares a plain password with the stored hash
func (u *User) VerifyPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// UpdateProfile replaces the personal fields
func (u *User) UpdateProfile(profile Profile) error {
	if err := validateProfile(profile); err != nil {
		return err
	}
	u.FirstName = strings.TrimSpace(profile.FirstName)
	u.LastName = strings.TrimSpace(profile.LastName)
	u.Telephone = strings.TrimSpace(profile.Telephone)
	u.IncrementVersion()
	return nil
}

// ChangeRole switches between tenant and manager
func (u *User) ChangeRole(role Role) error {
	if !role.IsValid() {
		return shared.NewValidationError("INVALID_ROLE", "Role must be USER or MANAGER")
	}
	u.Role = role
	u.IncrementVersion()
	return nil
}

// IsManager reports whether the user has the manager role
func (u *User) IsManager() bool {
	return u.Role == RoleManager
}

// FullName returns "First Last"
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// MoveInto records the apartment the user rents
func (u *User) MoveInto(apartmentID uuid.UUID) {
	u.ApartmentID = &apartmentID
	u.IncrementVersion()
}

// MoveOut clears the apartment reference
func (u *User) MoveOut() {
	if u.ApartmentID == nil {
		return
	}
	u.ApartmentID = nil
	u.IncrementVersion()
}

// Manages reports whether the user manages a building
func (u *User) Manages(buildingID uuid.UUID) bool {
	return slices.Contains(u.ManagedBuildingIDs, buildingID)
}

// StartManaging adds a building to the managed set
func (u *User) StartManaging(buildingID uuid.UUID) {
	if u.Manages(buildingID) {
		return
	}
	u.ManagedBuildingIDs = append(u.ManagedBuildingIDs, buildingID)
}

// StopManaging removes a building from the managed set
func (u *User) StopManaging(buildingID uuid.UUID) {
	u.ManagedBuildingIDs = slices.DeleteFunc(u.ManagedBuildingIDs, func(id uuid.UUID) bool { return id == buildingID })
}

// Snapshot returns the identity fields copied onto invoices
func (u *User) Snapshot() PersonSnapshot {
	return PersonSnapshot{
		FirstName:  u.FirstName,
		LastName:   u.LastName,
		NationalID: u.NationalID.String(),
		Email:      u.Email,
		Telephone:  u.Telephone,
	}
}

// PersonSnapshot is the point-in-time identity of a tenant or manager
type PersonSnapshot struct {
	FirstName  string
	LastName   string
	NationalID string
	Email      string
	Telephone  string
}

// IsEmpty reports whether no identity was captured
func (p PersonSnapshot) IsEmpty() bool {
	return p.Email == ""
}

// ResolveSnapshot looks a user up by email and returns the identity fields
// copied onto invoices. It fails with ErrUserNotFound when nobody matches.
func ResolveSnapshot(ctx context.Context, users UserRepository, email string) (PersonSnapshot, error) {
	u, err := users.FindByEmail(ctx, email)
	if err != nil {
		return PersonSnapshot{}, err
	}
	return u.Snapshot(), nil
}
