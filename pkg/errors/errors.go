// Package errors provides structured error types for ocrbench.
//
// Every failure that a caller may want to branch on carries a [Code]. The
// batch aggregator copies the code of instance-parse and solution-validation
// failures into the result row, so codes are part of the output contract and
// must stay stable.
//
// # Error Codes
//
// Codes are grouped by the stage that produces them:
//   - instance parsing: MISSING_HEADER, MALFORMED_HEADER, INVALID_ID, ...
//   - solution validation: OUT_OF_RANGE_VERTEX, DUPLICATE_VERTEX, INCOMPLETE_ORDERING,
//     and INVALID_BOUND_VALUE for solvers that print a bound instead of an ordering
//   - configuration: INVALID_CONFIG, INVALID_PATH, EXECUTABLE_NOT_FOUND
//   - INTERNAL_ERROR and UNSUPPORTED for everything else
//
// # Usage
//
//	err := errors.New(errors.ErrCodeSameLayerEdge, "line %d: edge %d-%d joins two fixed vertices", n, u, v)
//	if errors.Is(err, errors.ErrCodeSameLayerEdge) {
//	    // handle
//	}
//
//	err = errors.Wrap(errors.ErrCodeInvalidPath, origErr, "open instance %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Instance parse errors.
const (
	ErrCodeMissingHeader     Code = "MISSING_HEADER"
	ErrCodeMalformedHeader   Code = "MALFORMED_HEADER"
	ErrCodeInvalidID         Code = "INVALID_ID"
	ErrCodeMalformedEdge     Code = "MALFORMED_EDGE"
	ErrCodeEndpointRange     Code = "ENDPOINT_OUT_OF_RANGE"
	ErrCodeSameLayerEdge     Code = "SAME_LAYER_EDGE"
	ErrCodeDuplicateEdge     Code = "DUPLICATE_EDGE"
	ErrCodeEdgeCountMismatch Code = "EDGE_COUNT_MISMATCH"
)

// Solution validation errors.
const (
	ErrCodeInvalidVertexID    Code = "INVALID_VERTEX_ID"
	ErrCodeOutOfRangeVertex   Code = "OUT_OF_RANGE_VERTEX"
	ErrCodeDuplicateVertex    Code = "DUPLICATE_VERTEX"
	ErrCodeIncompleteOrdering Code = "INCOMPLETE_ORDERING"
	ErrCodeInvalidBoundValue  Code = "INVALID_BOUND_VALUE"
)

// Configuration errors.
const (
	ErrCodeInvalidConfig      Code = "INVALID_CONFIG"
	ErrCodeInvalidPath        Code = "INVALID_PATH"
	ErrCodeExecutableNotFound Code = "EXECUTABLE_NOT_FOUND"
)

// Internal errors.
const (
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
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the chain holds no *Error.
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
