// File: severity.go
// Title: Error Severity Levels
// Description: Severity levels used to pick the log level of a failed
//              request and to decide whether the server keeps serving.
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with severity levels
// - 2026-10-19 v0.2.0: Severity derived from BES taxonomy codes

package error

// Severity represents the severity level of an error
type Severity int

const (
	// SeverityLow is a user-caused failure such as a malformed request.
	SeverityLow Severity = iota
	// SeverityMedium is the default for uncategorized errors.
	SeverityMedium
	// SeverityHigh is a server-side defect; the request failed but serving continues.
	SeverityHigh
	// SeverityCritical means the server must not continue serving requests.
	SeverityCritical
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// GetSeverityFromCode determines appropriate severity level based on error code
func GetSeverityFromCode(code Code) Severity {
	switch code {
	case CodeInternalFatal:
		return SeverityCritical
	case CodeBESInternal, CodeInternal, CodeHandler, CodeDatabaseError, CodeStoreClosed,
		CodeConfigError, CodeMissingConfig, CodeInvalidConfig:
		return SeverityHigh
	case CodeSyntaxUser, CodeInvalidInput, CodeBESNotFound, CodeNotFound,
		CodeBESForbidden, CodeForbidden, CodeDuplicateEntry:
		return SeverityLow
	default:
		return SeverityMedium
	}
}
