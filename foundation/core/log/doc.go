// Package log provides structured logging for the BES services.
//
// Package: log
// Title: BES Structured Logging Framework
// Description: Leveled, structured logging with contextual fields, request
//              and client-origin context, and pluggable formatters. The Mark
//              formatter produces the delimiter-separated request log lines
//              the BES dispatcher writes for every command it receives.
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with structured logging and error integration
// - 2026-10-19 v0.2.0: Mark formatter, origin context, synchronous writes only
//
// Usage:
//
//	import mdwlog "github.com/msto63/bes/foundation/core/log"
//
//	logger := mdwlog.NewWithConfig(mdwlog.Config{
//		Level:  mdwlog.LevelInfo,
//		Format: mdwlog.FormatMark,
//		Name:   "bes",
//	})
//	logger.WithOrigin("127.0.0.1:4312").Info("request received",
//		mdwlog.Field("command", "get das for d1;"))
package log
