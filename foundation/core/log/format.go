// File: format.go
// Title: Log Format Definitions
// Description: Output formats for log entries: JSON, text, logfmt and the
//              mark-delimited BES request log format.
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-19
//
// Change History:
// - 2025-01-24 v0.1.0: Initial implementation with multiple output formats
// - 2026-10-19 v0.2.0: Mark formatter, sorted field output

package log

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Format represents the output format for log messages
type Format int

const (
	// FormatJSON outputs structured JSON logs
	FormatJSON Format = iota
	// FormatText outputs human-readable text logs
	FormatText
	// FormatLogfmt outputs key=value pairs
	FormatLogfmt
	// FormatMark outputs [time][pid][level] followed by delimiter-separated fields
	FormatMark
)

// DefaultMark is the field delimiter used by the Mark formatter.
const DefaultMark = "|&|"

// String returns the string representation of the format
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatText:
		return "text"
	case FormatLogfmt:
		return "logfmt"
	case FormatMark:
		return "mark"
	default:
		return "unknown"
	}
}

// ParseFormat parses a string into a log format
func ParseFormat(format string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	case "logfmt":
		return FormatLogfmt, nil
	case "mark", "bes":
		return FormatMark, nil
	default:
		return FormatJSON, &ParseError{Input: format, Type: "format"}
	}
}

// Formatter defines the interface for log formatters
type Formatter interface {
	Format(entry *Entry) ([]byte, error)
}

// JSONFormatter formats log entries as JSON
type JSONFormatter struct {
	TimestampFormat string
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{TimestampFormat: time.RFC3339}
}

// Format formats a log entry as JSON
func (f *JSONFormatter) Format(entry *Entry) ([]byte, error) {
	data := map[string]interface{}{
		"timestamp": entry.Timestamp.Format(f.TimestampFormat),
		"level":     entry.Level.String(),
		"message":   entry.Message,
	}
	if entry.Logger != "" {
		data["logger"] = entry.Logger
	}
	if entry.RequestID != "" {
		data["request_id"] = entry.RequestID
	}
	if entry.Origin != "" {
		data["origin"] = entry.Origin
	}
	for k, v := range entry.Fields {
		if err, ok := v.(error); ok {
			v = err.Error()
		}
		data[k] = v
	}
	if entry.Caller != nil {
		data["caller"] = fmt.Sprintf("%s:%d", entry.Caller.File, entry.Caller.Line)
	}
	if entry.Duration > 0 {
		data["duration_ms"] = float64(entry.Duration.Nanoseconds()) / 1e6
	}

	out, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}

// TextFormatter formats log entries as human-readable text
type TextFormatter struct {
	TimestampFormat string
}

// NewTextFormatter creates a new text formatter
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{TimestampFormat: "15:04:05"}
}

// Format formats a log entry as text
func (f *TextFormatter) Format(entry *Entry) ([]byte, error) {
	parts := []string{
		entry.Timestamp.Format(f.TimestampFormat),
		fmt.Sprintf("[%s]", entry.Level.ShortString()),
	}
	if entry.Logger != "" {
		parts = append(parts, fmt.Sprintf("{%s}", entry.Logger))
	}
	if entry.RequestID != "" || entry.Origin != "" {
		var ctx []string
		if entry.RequestID != "" {
			ctx = append(ctx, "req="+entry.RequestID)
		}
		if entry.Origin != "" {
			ctx = append(ctx, "from="+entry.Origin)
		}
		parts = append(parts, fmt.Sprintf("(%s)", strings.Join(ctx, ",")))
	}
	parts = append(parts, entry.Message)

	if len(entry.Fields) > 0 {
		fieldParts := make([]string, 0, len(entry.Fields))
		for _, k := range entry.Fields.Keys() {
			fieldParts = append(fieldParts, fmt.Sprintf("%s=%v", k, entry.Fields[k]))
		}
		parts = append(parts, fmt.Sprintf("[%s]", strings.Join(fieldParts, " ")))
	}
	if entry.Duration > 0 {
		parts = append(parts, fmt.Sprintf("duration=%s", entry.Duration))
	}
	return []byte(strings.Join(parts, " ") + "\n"), nil
}

// LogfmtFormatter formats log entries in logfmt format (key=value pairs)
type LogfmtFormatter struct {
	TimestampFormat string
}

// NewLogfmtFormatter creates a new logfmt formatter
func NewLogfmtFormatter() *LogfmtFormatter {
	return &LogfmtFormatter{TimestampFormat: time.RFC3339}
}

// Format formats a log entry in logfmt format
func (f *LogfmtFormatter) Format(entry *Entry) ([]byte, error) {
	parts := []string{
		"timestamp=" + entry.Timestamp.Format(f.TimestampFormat),
		"level=" + entry.Level.String(),
		fmt.Sprintf("message=%q", entry.Message),
	}
	if entry.Logger != "" {
		parts = append(parts, "logger="+entry.Logger)
	}
	if entry.RequestID != "" {
		parts = append(parts, "request_id="+entry.RequestID)
	}
	if entry.Origin != "" {
		parts = append(parts, fmt.Sprintf("origin=%q", entry.Origin))
	}
	for _, k := range entry.Fields.Keys() {
		if str, ok := entry.Fields[k].(string); ok {
			parts = append(parts, fmt.Sprintf("%s=%q", k, str))
		} else {
			parts = append(parts, fmt.Sprintf("%s=%v", k, entry.Fields[k]))
		}
	}
	if entry.Duration > 0 {
		parts = append(parts, fmt.Sprintf("duration_ms=%.3f", float64(entry.Duration.Nanoseconds())/1e6))
	}
	return []byte(strings.Join(parts, " ") + "\n"), nil
}

// MarkFormatter writes the BES request log line:
//
//	[timestamp][pid][level]origin<mark>request-id<mark>field...<mark>message
//
// Field values are written without their keys, in key order.
type MarkFormatter struct {
	Mark            string
	TimestampFormat string
	pid             int
}

// NewMarkFormatter creates a mark formatter. An empty mark selects DefaultMark.
func NewMarkFormatter(mark string) *MarkFormatter {
	if mark == "" {
		mark = DefaultMark
	}
	return &MarkFormatter{
		Mark:            mark,
		TimestampFormat: time.RFC3339,
		pid:             os.Getpid(),
	}
}

// Format formats a log entry as a mark-delimited line
func (f *MarkFormatter) Format(entry *Entry) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s][pid:%d][%s]", entry.Timestamp.UTC().Format(f.TimestampFormat), f.pid, entry.Level.String())

	var fields []string
	if entry.Origin != "" {
		fields = append(fields, entry.Origin)
	}
	if entry.RequestID != "" {
		fields = append(fields, entry.RequestID)
	}
	for _, k := range entry.Fields.Keys() {
		fields = append(fields, fmt.Sprint(entry.Fields[k]))
	}
	fields = append(fields, entry.Message)

	b.WriteString(strings.Join(fields, f.Mark))
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// GetFormatter returns a formatter for the specified format
func GetFormatter(format Format) Formatter {
	switch format {
	case FormatText:
		return NewTextFormatter()
	case FormatLogfmt:
		return NewLogfmtFormatter()
	case FormatMark:
		return NewMarkFormatter("")
	default:
		return NewJSONFormatter()
	}
}
