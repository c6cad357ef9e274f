package shared

import "errors"

// ErrorKind classifies a domain error independently of its specific code
type ErrorKind string

const (
	KindNotFound     ErrorKind = "NOT_FOUND"
	KindConflict     ErrorKind = "CONFLICT"
	KindInvalidState ErrorKind = "INVALID_STATE"
	KindValidation   ErrorKind = "VALIDATION_FAILED"
	KindUnauthorized ErrorKind = "UNAUTHORIZED"
	KindForbidden    ErrorKind = "FORBIDDEN"
)

// DomainError represents a domain-level error
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is reports whether target is a kind sentinel matching this error, or the same code.
// errors.Is(err, shared.ErrNotFound) matches every NotFound error regardless of code.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	if t.Code == string(t.Kind) {
		return e.Kind == t.Kind
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError creates a NotFound error with a specific code
func NewNotFoundError(code, message string) *DomainError {
	return NewDomainError(KindNotFound, code, message)
}

// NewConflictError creates a Conflict error with a specific code
func NewConflictError(code, message string) *DomainError {
	return NewDomainError(KindConflict, code, message)
}

// NewInvalidStateError creates an InvalidState error with a specific code
func NewInvalidStateError(code, message string) *DomainError {
	return NewDomainError(KindInvalidState, code, message)
}

// NewValidationError creates a ValidationFailure error with a specific code
func NewValidationError(code, message string) *DomainError {
	return NewDomainError(KindValidation, code, message)
}

// Kind sentinels, usable with errors.Is
var (
	ErrNotFound     = NewDomainError(KindNotFound, string(KindNotFound), "Resource not found")
	ErrConflict     = NewDomainError(KindConflict, string(KindConflict), "Resource already exists")
	ErrInvalidState = NewDomainError(KindInvalidState, string(KindInvalidState), "Operation not allowed in current state")
	ErrValidation   = NewDomainError(KindValidation, string(KindValidation), "Invalid input provided")
	ErrUnauthorized = NewDomainError(KindUnauthorized, string(KindUnauthorized), "Not authorized to perform this action")
	ErrForbidden    = NewDomainError(KindForbidden, string(KindForbidden), "Access to this resource is forbidden")
)

// KindOf returns the kind of err if it wraps a DomainError
func KindOf(err error) (ErrorKind, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}
