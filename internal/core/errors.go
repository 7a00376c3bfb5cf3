// Package core defines the error taxonomy shared by every jestbridge package.
package core

import (
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation ErrorCategory = "validation" // Malformed runner output or input
	ErrCatIO         ErrorCategory = "io"         // Open/stat/read/close failure
	ErrCatNotFound   ErrorCategory = "not_found"  // Resource not found
	ErrCatState      ErrorCategory = "state"      // Operation on a closed or misused handle
	ErrCatInternal   ErrorCategory = "internal"   // Unexpected internal error
)

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrIO creates an I/O error. The caller decides whether to reopen; nothing
// in this module retries on its own.
func ErrIO(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatIO,
		Code:      code,
		Message:   message,
		Retryable: true,
	}
}

// ErrState creates a state error.
func ErrState(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatState,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) *DomainError {
	return &DomainError{
		Category:  ErrCatNotFound,
		Code:      CodeNotFound,
		Message:   fmt.Sprintf("%s not found: %s", resource, id),
		Retryable: false,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// Predefined error codes
const (
	CodeNotFound = "NOT_FOUND"

	// Validation error codes
	CodeMissingTitle  = "MISSING_TITLE"
	CodeParseFailed   = "PARSE_FAILED"
	CodeInvalidConfig = "INVALID_CONFIG"
	CodeInvalidPath   = "INVALID_PATH"

	// I/O error codes
	CodeOpenFailed  = "OPEN_FAILED"
	CodeStatFailed  = "STAT_FAILED"
	CodeReadFailed  = "READ_FAILED"
	CodeWriteFailed = "WRITE_FAILED"
	CodeCloseFailed = "CLOSE_FAILED"
	CodeWatchFailed = "WATCH_FAILED"

	// State error codes
	CodeStreamStopped = "STREAM_STOPPED"
)
