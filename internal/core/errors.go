// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Request errors
	ErrInvalidSymbol    = &Error{Code: "INVALID_SYMBOL", Message: "missing symbol"}
	ErrMethodNotAllowed = &Error{Code: "METHOD_NOT_ALLOWED", Message: "method not allowed"}

	// Upstream errors. These never leave the fact aggregator.
	ErrUpstreamFetch  = &Error{Code: "UPSTREAM_FETCH_FAILED", Message: "upstream fetch failed"}
	ErrUpstreamStatus = &Error{Code: "UPSTREAM_STATUS", Message: "upstream returned an error status"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Generation errors
	ErrGeneration = &Error{Code: "GENERATION_FAILED", Message: "narrative generation failed"}

	// Anything else
	ErrInternal = &Error{Code: "INTERNAL_ERROR", Message: "an internal error occurred"}
)
