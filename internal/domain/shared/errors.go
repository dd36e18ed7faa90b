// Package shared contains common domain types and errors that are used
// across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrFutureDate      = errors.New("date cannot be in the future")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")

	// External service errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "person", "attendance", "promotion"
	Op      string // Operation that failed, e.g., "Register", "Mark"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Person domain errors
var (
	ErrPersonNotFound     = NewDomainError("person", "Find", ErrNotFound, "person not found")
	ErrPersonExists       = NewDomainError("person", "Register", ErrAlreadyExists, "person already registered")
	ErrPersonNotActive    = NewDomainError("person", "CheckStatus", ErrInvalidState, "person is not active")
	ErrPersonDeleted      = NewDomainError("person", "CheckStatus", ErrInvalidState, "person is deleted")
	ErrEmptyName          = NewDomainError("person", "Validate", ErrEmptyValue, "full name is required")
	ErrBirthDateInFuture  = NewDomainError("person", "Validate", ErrFutureDate, "birth date is in the future")
	ErrAgeOutOfRange      = NewDomainError("person", "Validate", ErrValueOutOfRange, "age must be between 0 and 120")
	ErrInvalidBand        = NewDomainError("person", "Validate", ErrInvalidInput, "unknown age band")
	ErrInvalidStatusValue = NewDomainError("person", "Validate", ErrInvalidInput, "unknown person status")
	ErrInvalidTransition  = NewDomainError("person", "UpdateStatus", ErrStateTransition, "invalid status transition")
	ErrNoDeletionRequest  = NewDomainError("person", "ResolveDeletion", ErrInvalidState, "no pending deletion request")
)

// Attendance domain errors
var (
	ErrRecordNotFound   = NewDomainError("attendance", "Find", ErrNotFound, "attendance record not found")
	ErrSessionNotSunday = NewDomainError("attendance", "Validate", ErrInvalidInput, "session date is not a Sunday")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrFutureDate) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
