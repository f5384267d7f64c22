// Package errors provides structured error types for scatter.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the store, loaders and the CLI
//   - Machine-readable error codes for programmatic handling
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Codes are grouped by the kind of failure:
//   - SCHEMA_*, MISSING_SCHEMA, INVALID_SCHEMA: configuration errors found while
//     resolving schema declarations. They are programmer errors and never retried.
//   - NODE_*, TYPE_MISMATCH, DUPLICATE_ID: invariant violations raised by the store.
//   - MISSING_NODE: a reference could not be resolved during load.
//   - INVALID_*, NOT_FOUND, NETWORK_*, INTERNAL_*: input, backend and internal errors.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeNodeReferenced, "node is referred, cannot be disposed")
//	if errors.Is(err, errors.ErrCodeNodeReferenced) {
//	    // force it, or drop the referrers first
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeMissingNode, loaderErr, "failed to fetch missing node: %s", id)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Schema configuration errors
	ErrCodeSchemaCycle   Code = "SCHEMA_CYCLE"
	ErrCodeMissingSchema Code = "MISSING_SCHEMA"
	ErrCodeInvalidSchema Code = "INVALID_SCHEMA"

	// Store invariant violations
	ErrCodeNodeReferenced Code = "NODE_REFERENCED"
	ErrCodeNodeDetached   Code = "NODE_DETACHED"
	ErrCodeTypeMismatch   Code = "TYPE_MISMATCH"
	ErrCodeDuplicateID    Code = "DUPLICATE_ID"

	// Load resolution errors
	ErrCodeMissingNode Code = "MISSING_NODE"

	// Input validation errors
	ErrCodeInvalidInput Code = "INVALID_INPUT"
	ErrCodeInvalidPath  Code = "INVALID_PATH"

	// Resource not found errors
	ErrCodeNotFound Code = "NOT_FOUND"

	// Backend errors
	ErrCodeNetwork Code = "NETWORK_ERROR"
	ErrCodeTimeout Code = "TIMEOUT"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
