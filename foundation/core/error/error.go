// File: error.go
// Title: Core Error Implementation
// Description: The Error type with a code and the stack of the code that
//              raised it. Compatible with errors.Is/As through Unwrap; code
//              lookups walk the whole chain.
// Version: v0.3.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with contextual errors
// - 2026-10-19 v0.2.0: NewSkip, Caller provenance, chain-aware code lookup
// - 2026-10-19 v0.3.0: Details, operation, request id and JSON form removed;
//   severity is derived from the code

package error

import (
	"errors"
	"fmt"
	"runtime"
)

// MaxStackFrames limits the number of stack frames captured
const MaxStackFrames = 20

// Error is an error carrying a code and where it was raised
type Error struct {
	message    string
	cause      error
	code       Code
	stackTrace []StackFrame
}

// StackFrame represents a single frame in the stack trace
type StackFrame struct {
	Function string
	File     string
	Line     int
}

// New creates a new Error with the given message
func New(message string) *Error {
	return newError(message, 4)
}

// NewSkip creates a new Error whose stack trace starts skip frames above
// the caller. Helper constructors use it so the recorded caller is the
// code that raised the error, not the helper.
func NewSkip(skip int, message string) *Error {
	return newError(message, 4+skip)
}

func newError(message string, skip int) *Error {
	return &Error{
		message:    message,
		code:       CodeUnknown,
		stackTrace: captureStackTrace(skip),
	}
}

// Wrap wraps an existing error with additional context. The code of a
// wrapped *Error is preserved.
func Wrap(err error, message string) *Error {
	if err == nil {
		return nil
	}
	wrapped := newError(message, 4)
	wrapped.cause = err
	if inner, ok := As(err); ok {
		wrapped.code = inner.code
	}
	return wrapped
}

// Error implements the standard error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.message, e.cause.Error())
	}
	return e.message
}

// Unwrap returns the underlying cause for error unwrapping
func (e *Error) Unwrap() error {
	return e.cause
}

// WithCode sets the error code
func (e *Error) WithCode(code Code) *Error {
	e.code = code
	return e
}

// Code returns the error code
func (e *Error) Code() Code {
	return e.code
}

// Severity returns the severity of the error's code
func (e *Error) Severity() Severity {
	return GetSeverityFromCode(e.code)
}

// Caller returns the file and line where the error was raised.
func (e *Error) Caller() (string, int) {
	if len(e.stackTrace) == 0 {
		return "", 0
	}
	return e.stackTrace[0].File, e.stackTrace[0].Line
}

func captureStackTrace(skip int) []StackFrame {
	pcs := make([]uintptr, MaxStackFrames)
	n := runtime.Callers(skip, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	result := make([]StackFrame, 0, n)
	for {
		frame, more := frames.Next()
		result = append(result, StackFrame{
			Function: frame.Function,
			File:     frame.File,
			Line:     frame.Line,
		})
		if !more {
			break
		}
	}
	return result
}

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// HasCode checks if an error carries a specific code
func HasCode(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode returns the error code from an error, or CodeUnknown
func GetCode(err error) Code {
	if e, ok := As(err); ok {
		return e.code
	}
	return CodeUnknown
}
