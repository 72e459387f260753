package common

import (
	"errors"
	"fmt"
)

// ErrorKind is the failure taxonomy every caller-facing error resolves to.
// Raw dependency error codes never cross the package boundary; they are
// carried in Code for logging only.
type ErrorKind string

const (
	KindValidation   ErrorKind = "VALIDATION_ERROR"    // bad input shape, caller's fault
	KindRetryable    ErrorKind = "RETRYABLE_ERROR"     // transient dependency failure
	KindNonRetryable ErrorKind = "NON_RETRYABLE_ERROR" // permanent dependency failure
	KindCircuitOpen  ErrorKind = "CIRCUIT_OPEN"        // dependency presumed down, failed fast
)

// ProcessingError is the application error type. Message is safe to show to
// the end caller; Code and Cause hold the technical details.
type ProcessingError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Cause   error
}

func (e *ProcessingError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// Retryable reports whether the resilience layer may attempt the operation
// again.
func (e *ProcessingError) Retryable() bool {
	return e.Kind == KindRetryable
}

func NewValidationError(message string) *ProcessingError {
	return &ProcessingError{Kind: KindValidation, Message: message}
}

func NewRetryableError(code, message string, cause error) *ProcessingError {
	return &ProcessingError{Kind: KindRetryable, Code: code, Message: message, Cause: cause}
}

func NewNonRetryableError(code, message string, cause error) *ProcessingError {
	return &ProcessingError{Kind: KindNonRetryable, Code: code, Message: message, Cause: cause}
}

func NewCircuitOpenError(dependency string) *ProcessingError {
	return &ProcessingError{
		Kind:    KindCircuitOpen,
		Message: fmt.Sprintf("%s is unavailable, failing fast", dependency),
	}
}

// KindOf returns the taxonomy kind of err, or "" if err is not a
// ProcessingError.
func KindOf(err error) ErrorKind {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsRetryable reports whether err is a transient failure worth retrying.
// Errors outside the taxonomy are never retried.
func IsRetryable(err error) bool {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Retryable()
	}
	return false
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
