// Package error provides structured errors for the BES services.
//
// Package: error
// Title: BES Error Handling Framework
// Description: Structured errors carrying a code and the caller that raised
//              them. Severity follows from the code. Codes cover the BES request
//              taxonomy (syntax, handler, internal, fatal, forbidden, not
//              found) next to the generic storage and configuration codes.
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with contextual errors and codes
// - 2026-10-19 v0.2.0: BES taxonomy codes, caller provenance, errors.As lookups
//
// Usage:
//
//	import mdwerror "github.com/msto63/bes/foundation/core/error"
//
//	err := mdwerror.New("Could not find the symbolic name c1").
//		WithCode(mdwerror.CodeSyntaxUser)
//
//	if mdwerror.HasCode(err, mdwerror.CodeSyntaxUser) {
//		// report verbatim to the client
//	}
package error
