package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a DomainError for transport mapping.
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindNotFound     ErrorKind = "not_found"
	KindForbidden    ErrorKind = "forbidden"
	KindUnauthorized ErrorKind = "unauthorized"
	KindConflict     ErrorKind = "conflict"
	KindInvalidState ErrorKind = "invalid_state"
	KindUnavailable  ErrorKind = "unavailable"
)

// DomainError is a user-facing business rule rejection.
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

// New creates a DomainError with an explicit code.
func New(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{Kind: kind, Code: code, Message: message}
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is matches on Code so that sentinel errors compare equal to copies carrying a different message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of the error with a more specific message.
func (e *DomainError) WithMessage(format string, args ...interface{}) *DomainError {
	return &DomainError{Kind: e.Kind, Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// ErrStorageUnavailable is surfaced when the backing store cannot be reached.
var ErrStorageUnavailable = New(KindUnavailable, "STORAGE_UNAVAILABLE", "storage is temporarily unavailable")

// NewValidationError creates a generic validation error.
func NewValidationError(message string) *DomainError {
	return New(KindValidation, "VALIDATION_ERROR", message)
}

// NewNotFoundError creates an error for a missing entity.
func NewNotFoundError(entity, id string) *DomainError {
	return New(KindNotFound, "NOT_FOUND", fmt.Sprintf("%s not found: %s", entity, id))
}

// NewForbiddenError creates an authorization error.
func NewForbiddenError(message string) *DomainError {
	return New(KindForbidden, "FORBIDDEN", message)
}

// NewUnauthorizedError creates an authentication error.
func NewUnauthorizedError(message string) *DomainError {
	return New(KindUnauthorized, "UNAUTHORIZED", message)
}

// NewConflictError creates an error for a concurrent modification or uniqueness clash.
func NewConflictError(message string) *DomainError {
	return New(KindConflict, "CONFLICT", message)
}

// NewInvalidStateError creates an error for a disallowed state transition.
func NewInvalidStateError(from, to string) *DomainError {
	return New(KindInvalidState, "INVALID_TRANSITION", fmt.Sprintf("cannot transition from %s to %s", from, to))
}

// AsDomainError extracts a DomainError from an error chain.
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsNotFound reports whether err is a not-found DomainError.
func IsNotFound(err error) bool {
	de, ok := AsDomainError(err)
	return ok && de.Kind == KindNotFound
}
