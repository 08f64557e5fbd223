// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     beserr
// Description: Request error taxonomy: constructors, status classification
//              and the error-info object sent back to clients
// License:     MIT
// ============================================================================

package beserr

import (
	"fmt"

	mdwerror "github.com/msto63/bes/foundation/core/error"
)

// GenericInternalMessage is what clients see for internal failures. The
// real message and its provenance stay in the server log.
const GenericInternalMessage = "The server encountered an internal error while processing the request"

// SyntaxUser reports a malformed request, an unknown command or an unknown
// store, definition or container. Safe to show to the client verbatim.
func SyntaxUser(format string, args ...interface{}) *mdwerror.Error {
	return newErr(mdwerror.CodeSyntaxUser, format, args)
}

// Handler reports a deployment defect found while building or running a
// plan, such as a missing response or data handler registration.
func Handler(format string, args ...interface{}) *mdwerror.Error {
	return newErr(mdwerror.CodeHandler, format, args)
}

// Internal reports an unexpected failure inside a handler.
func Internal(format string, args ...interface{}) *mdwerror.Error {
	return newErr(mdwerror.CodeBESInternal, format, args)
}

// InternalFatal reports a failure after which the server must stop serving.
func InternalFatal(format string, args ...interface{}) *mdwerror.Error {
	return newErr(mdwerror.CodeInternalFatal, format, args)
}

// Forbidden reports a resource access policy violation.
func Forbidden(format string, args ...interface{}) *mdwerror.Error {
	return newErr(mdwerror.CodeBESForbidden, format, args)
}

// NotFound reports a resource that does not exist.
func NotFound(format string, args ...interface{}) *mdwerror.Error {
	return newErr(mdwerror.CodeBESNotFound, format, args)
}

// Wrap attaches a taxonomy code to an arbitrary error, typically an I/O or
// database failure surfacing from a store.
func Wrap(err error, code mdwerror.Code, message string) *mdwerror.Error {
	if err == nil {
		return nil
	}
	return mdwerror.Wrap(err, message).WithCode(code)
}

// newErr formats only when arguments are given so that raw request text
// containing '%' is never mangled.
func newErr(code mdwerror.Code, format string, args []interface{}) *mdwerror.Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	// NewSkip(2): skip newErr and the exported constructor.
	return mdwerror.NewSkip(2, msg).WithCode(code)
}

// Status returns the numeric request status of err: 0 for nil, otherwise
// the status of its code. Errors without a taxonomy code count as internal.
func Status(err error) int {
	if err == nil {
		return mdwerror.StatusOK
	}
	return mdwerror.GetCode(err).Status()
}

// IsFatal reports whether err means the server must not continue serving.
func IsFatal(err error) bool {
	return mdwerror.HasCode(err, mdwerror.CodeInternalFatal)
}

// TypeName returns the taxonomy member name of err.
func TypeName(err error) string {
	switch mdwerror.GetCode(err) {
	case mdwerror.CodeSyntaxUser, mdwerror.CodeInvalidInput:
		return "SyntaxUserError"
	case mdwerror.CodeHandler:
		return "HandlerError"
	case mdwerror.CodeInternalFatal:
		return "InternalFatalError"
	case mdwerror.CodeBESForbidden, mdwerror.CodeForbidden:
		return "ForbiddenError"
	case mdwerror.CodeBESNotFound, mdwerror.CodeNotFound:
		return "NotFoundError"
	default:
		return "InternalError"
	}
}

// ErrorInfo is the structured error carried in an execution context after
// a failed stage. Message is what the client sees.
type ErrorInfo struct {
	Type    string
	Status  int
	Code    mdwerror.Code
	Message string
	Detail  string
	File    string
	Line    int
	Fatal   bool
}

// NewInfo converts err into an ErrorInfo. Handler errors are reported
// verbatim since they name the missing registration; internal errors are
// replaced by GenericInternalMessage.
func NewInfo(err error) *ErrorInfo {
	if err == nil {
		return nil
	}
	code := mdwerror.GetCode(err)
	info := &ErrorInfo{
		Type:    TypeName(err),
		Status:  Status(err),
		Code:    code,
		Message: err.Error(),
		Detail:  err.Error(),
		Fatal:   IsFatal(err),
	}
	if e, ok := mdwerror.As(err); ok {
		info.File, info.Line = e.Caller()
	}
	if !code.UserFacing() && code != mdwerror.CodeHandler {
		info.Message = GenericInternalMessage
	}
	return info
}
