package logging

import (
	"bytes"
	"strings"
	"testing"

	mdwlog "github.com/msto63/bes/foundation/core/log"
)

func TestNew(t *testing.T) {
	logger := New("test-service")

	if logger == nil {
		t.Fatal("New() returned nil")
	}
	if logger.name != "test-service" {
		t.Errorf("name = %v, want test-service", logger.name)
	}
}

func TestLogger_LogMethods(t *testing.T) {
	// Test that log methods don't panic
	logger := New("test")

	// These should not panic
	logger.Debug("debug message", "key", "value")
	logger.Info("info message", "key", "value")
	logger.Warn("warn message", "key", "value")
	logger.Error("error message", "key", "value")
}

func TestLogger_MultipleKeyValues(t *testing.T) {
	logger := New("test")

	// Should not panic with multiple key-value pairs
	logger.Info("message", "key1", "value1", "key2", 42, "key3", true)
}

func TestLogger_EmptyKeyValues(t *testing.T) {
	logger := New("test")

	// Should not panic without key-values
	logger.Info("message without key-values")
}

func TestLogger_OddKeyValues(t *testing.T) {
	logger := New("test")

	// Should not panic with odd number of key-values
	logger.Info("message", "key1", "value1", "orphan")
}

func TestNewLogger_Level(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
	}{
		{"debug", true},
		{"DEBUG", true},
		{"info", false},
		{"bogus", false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewFromConfig(LoggerConfig{ServiceName: "bes", Level: tt.level, Format: "text", Output: &buf})
			logger.Debug("cache miss")
			if got := strings.Contains(buf.String(), "cache miss"); got != tt.wantDebug {
				t.Errorf("debug logged = %v, want %v", got, tt.wantDebug)
			}
		})
	}
}

func TestDefaultLoggerConfig(t *testing.T) {
	cfg := DefaultLoggerConfig("my-service")

	if cfg.ServiceName != "my-service" {
		t.Errorf("ServiceName = %v, want my-service", cfg.ServiceName)
	}
	if cfg.Level != "info" {
		t.Errorf("Level = %v, want info", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Errorf("Format = %v, want json", cfg.Format)
	}
}

func TestNewLogger(t *testing.T) {
	cfg := LoggerConfig{
		ServiceName: "test-service",
		Level:       "debug",
		Format:      "json",
	}

	logger := NewLogger(cfg)

	if logger == nil {
		t.Fatal("NewLogger() returned nil")
	}
}

func TestToFields(t *testing.T) {
	// Empty input
	fields := toFields()
	if fields != nil {
		t.Error("toFields() with no args should return nil")
	}

	// Valid key-value pairs
	fields = toFields("key1", "value1", "key2", 42)
	if fields == nil {
		t.Fatal("toFields() returned nil")
	}
	if fields["key1"] != "value1" {
		t.Errorf("fields[key1] = %v, want value1", fields["key1"])
	}
	if fields["key2"] != 42 {
		t.Errorf("fields[key2] = %v, want 42", fields["key2"])
	}

	// Non-string key (should be skipped)
	fields = toFields(123, "value")
	if len(fields) != 0 {
		t.Errorf("Non-string key should be skipped, got %v fields", len(fields))
	}
}

func TestLogger_Component(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter("test", &buf).Component("container-list")
	logger.Info("store added", "store", "default")

	out := buf.String()
	if !strings.Contains(out, "component=container-list") {
		t.Errorf("output %q should carry the component field", out)
	}
	if !strings.Contains(out, "store=default") {
		t.Errorf("output %q should carry the store field", out)
	}
}

func TestNewLogger_MarkFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LoggerConfig{
		ServiceName: "bes",
		Format:      "mark",
		Mark:        "|&|",
		Output:      &buf,
	})
	logger.Info("request received", mdwlog.Field("command", "show version;"))

	if !strings.Contains(buf.String(), "show version;|&|request received") {
		t.Errorf("mark output = %q", buf.String())
	}
}

func TestDiscard(t *testing.T) {
	Discard().Info("dropped", "key", "value")
}

func BenchmarkLogger_Info(b *testing.B) {
	logger := New("benchmark")

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		logger.Info("benchmark message", "iteration", i)
	}
}
