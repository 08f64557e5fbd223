// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     logging
// Description: Key/value logger used by the server components
// License:     MIT
// ============================================================================

package logging

import (
	"io"

	mdwlog "github.com/msto63/bes/foundation/core/log"
)

// Logger wraps the Foundation logger with key/value arguments
type Logger struct {
	*mdwlog.Logger
	name string
}

// New creates a logger with the default configuration
func New(name string) *Logger {
	return &Logger{
		Logger: NewLogger(DefaultLoggerConfig(name)),
		name:   name,
	}
}

// NewFromConfig creates a logger from cfg
func NewFromConfig(cfg LoggerConfig) *Logger {
	return &Logger{
		Logger: NewLogger(cfg),
		name:   cfg.ServiceName,
	}
}

// NewWithWriter creates a text logger writing to w
func NewWithWriter(name string, w io.Writer) *Logger {
	cfg := DefaultLoggerConfig(name)
	cfg.Format = "text"
	cfg.Output = w
	return NewFromConfig(cfg)
}

// Discard returns a logger that drops everything
func Discard() *Logger {
	return NewWithWriter("discard", io.Discard)
}

// Name returns the logger name
func (l *Logger) Name() string {
	return l.name
}

// With returns a logger that adds the given key/value pairs to every line
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{
		Logger: l.Logger.WithFields(toFields(keysAndValues...)),
		name:   l.name,
	}
}

// ForRequest returns a logger whose lines carry the request id and the
// client origin
func (l *Logger) ForRequest(requestID, origin string) *Logger {
	return &Logger{
		Logger: l.Logger.WithRequestID(requestID).WithOrigin(origin),
		name:   l.name,
	}
}

// Component returns a logger tagged with a component field
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.Logger.Debug(msg, toFields(keysAndValues...))
}

// Info logs an info message
func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.Logger.Info(msg, toFields(keysAndValues...))
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.Logger.Warn(msg, toFields(keysAndValues...))
}

// Error logs an error message
func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.Logger.Error(msg, toFields(keysAndValues...))
}

// toFields converts key-value pairs to mdwlog.Fields
func toFields(keysAndValues ...interface{}) mdwlog.Fields {
	if len(keysAndValues) == 0 {
		return nil
	}

	fields := make(mdwlog.Fields)
	for i := 0; i < len(keysAndValues)-1; i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}
