// Package errors provides structured error types for deprule.
//
// Every failure the tool can report carries a machine-readable [Code] so that
// the command line can tell structural errors (a bad template, an unreadable
// rules file, an unknown package) apart, and so tests can assert on the
// category instead of the message text.
//
// # Error Codes
//
//   - UNSUPPORTED_PLACEHOLDER, MALFORMED_TEMPLATE: format template compilation
//   - RULES_IO, RULES_SCHEMA: rules file reading and decoding
//   - PACKAGE_NOT_FOUND, AMBIGUOUS_PACKAGE, INVALID_VERSION: root lookup
//   - METADATA, INVALID_GRAPH: cargo metadata collection and graph building
//   - INVALID_INPUT, INVALID_PACKAGE, INVALID_PATH: user supplied values
//
// # Usage
//
//	err := errors.New(errors.ErrCodePackageNotFound, "no crates found for package `%s`", spec)
//	if errors.Is(err, errors.ErrCodePackageNotFound) {
//	    // handle lookup failure
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeRulesIO, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Template errors
	ErrCodeUnsupportedPlaceholder Code = "UNSUPPORTED_PLACEHOLDER"
	ErrCodeMalformedTemplate      Code = "MALFORMED_TEMPLATE"

	// Rules file errors
	ErrCodeRulesIO     Code = "RULES_IO"
	ErrCodeRulesSchema Code = "RULES_SCHEMA"

	// Lookup errors
	ErrCodePackageNotFound  Code = "PACKAGE_NOT_FOUND"
	ErrCodeAmbiguousPackage Code = "AMBIGUOUS_PACKAGE"
	ErrCodeInvalidVersion   Code = "INVALID_VERSION"

	// Collaborator errors
	ErrCodeMetadata     Code = "METADATA"
	ErrCodeInvalidGraph Code = "INVALID_GRAPH"

	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

	// Internal errors
	ErrCodeInternal Code = "INTERNAL_ERROR"
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
// It unwraps the error chain looking for an *Error with a matching code,
// so a RULES_IO error wrapped by the CLI still reports as RULES_IO.
func Is(err error, code Code) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Cause
	}
	return false
}

// GetCode extracts the outermost error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message (and cause) without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %s", e.Message, UserMessage(e.Cause))
		}
		return e.Message
	}
	return err.Error()
}
