// File: codes.go
// Title: Error Code Definitions
// Description: Standardized error codes. The BES codes map one-to-one onto
//              the request error taxonomy and its numeric status values.
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with core error codes
// - 2026-10-19 v0.2.0: BES taxonomy codes and status mapping, transport codes

package error

// Code represents a structured error code for categorizing errors
type Code string

const (
	// Generic codes
	CodeUnknown      Code = "UNKNOWN"
	CodeInternal     Code = "INTERNAL"
	CodeNotFound     Code = "NOT_FOUND"
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeForbidden    Code = "FORBIDDEN"

	// Storage
	CodeDatabaseError  Code = "DATABASE_ERROR"
	CodeDuplicateEntry Code = "DUPLICATE_ENTRY"
	CodeStoreClosed    Code = "STORE_CLOSED"

	// Configuration
	CodeConfigError   Code = "CONFIG_ERROR"
	CodeMissingConfig Code = "MISSING_CONFIG"
	CodeInvalidConfig Code = "INVALID_CONFIG"

	// Transport
	CodeConnectionFailed   Code = "CONNECTION_FAILED"
	CodeServiceUnavailable Code = "SERVICE_UNAVAILABLE"

	// BES request taxonomy
	CodeSyntaxUser    Code = "BES_SYNTAX_USER"
	CodeHandler       Code = "BES_HANDLER"
	CodeBESInternal   Code = "BES_INTERNAL"
	CodeInternalFatal Code = "BES_INTERNAL_FATAL"
	CodeBESForbidden  Code = "BES_FORBIDDEN"
	CodeBESNotFound   Code = "BES_NOT_FOUND"
)

// Numeric request status values reported to clients and logs.
const (
	StatusOK            = 0
	StatusInternal      = 1
	StatusInternalFatal = 2
	StatusSyntaxUser    = 3
	StatusForbidden     = 4
	StatusNotFound      = 5
)

// String returns the string representation of the error code
func (c Code) String() string {
	return string(c)
}

// Status returns the numeric request status for this code. Codes outside
// the request taxonomy are reported as internal errors.
func (c Code) Status() int {
	switch c {
	case CodeSyntaxUser, CodeInvalidInput:
		return StatusSyntaxUser
	case CodeInternalFatal:
		return StatusInternalFatal
	case CodeBESForbidden, CodeForbidden:
		return StatusForbidden
	case CodeBESNotFound, CodeNotFound:
		return StatusNotFound
	default:
		return StatusInternal
	}
}

// UserFacing reports whether messages with this code may be shown to the
// client verbatim.
func (c Code) UserFacing() bool {
	switch c {
	case CodeSyntaxUser, CodeInvalidInput, CodeBESForbidden, CodeForbidden, CodeBESNotFound, CodeNotFound:
		return true
	default:
		return false
	}
}
