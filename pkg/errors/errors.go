package errors

import (
	"fmt"
)

// ErrInternal is the generic failure reported to clients when the cause must stay private.
var ErrInternal = NewInternalError("internal server error", nil)

// ValidationError represents a validation failure with field-level details
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// InvalidIDError is returned when an identifier is not in the store's addressable form.
type InvalidIDError struct {
	ID string
}

// NewInvalidIDError creates a new invalid id error
func NewInvalidIDError(id string) *InvalidIDError {
	return &InvalidIDError{ID: id}
}

// Error implements the error interface
func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("invalid user id: %q", e.ID)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// DuplicateError is returned when a unique field collides with an existing record.
type DuplicateError struct {
	Resource string
	Field    string
	Message  string
}

// NewDuplicateError creates a new duplicate error
func NewDuplicateError(resource, field, message string) *DuplicateError {
	return &DuplicateError{
		Resource: resource,
		Field:    field,
		Message:  message,
	}
}

// Error implements the error interface
func (e *DuplicateError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s with this %s already exists", e.Resource, e.Field)
}

// StoreUnavailableError wraps transport failures and timeouts talking to the store.
// Callers may retry it.
type StoreUnavailableError struct {
	Message string
	Err     error
}

// NewStoreUnavailableError creates a new store unavailable error
func NewStoreUnavailableError(message string, err error) *StoreUnavailableError {
	return &StoreUnavailableError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *StoreUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the failed call may be retried.
func (e *StoreUnavailableError) Retryable() bool {
	return true
}

// InternalError represents an internal server error with context
type InternalError struct {
	Message string
	Err     error
}

// NewInternalError creates a new internal error
func NewInternalError(message string, err error) *InternalError {
	return &InternalError{
		Message: message,
		Err:     err,
	}
}

// Error implements the error interface
func (e *InternalError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *InternalError) Unwrap() error {
	return e.Err
}

// Retryable is implemented by errors that a caller may safely retry.
type Retryable interface {
	Retryable() bool
}
