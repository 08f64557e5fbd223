// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     config
// Description: Typed server settings (listener, logging, reporting) loaded
//              from the TOML file that also carries the BES keys
// License:     MIT
// ============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the settings of one server process
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Client   ClientConfig   `toml:"client"`
	Logging  LoggingConfig  `toml:"logging"`
	Reporter ReporterConfig `toml:"reporter"`

	// KeysFile holds the BES.* keys. Empty means the keys live in the
	// configuration file itself.
	KeysFile string `toml:"keys_file"`

	path string
}

// ServerConfig holds the gRPC listener settings
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port"`
	MaxMessageSize int      `toml:"max_message_size"`
	Timeout        Duration `toml:"timeout"`
	Reflection     bool     `toml:"reflection"`
}

// ClientConfig holds the settings of the bes client command
type ClientConfig struct {
	Target  string   `toml:"target"`
	Timeout Duration `toml:"timeout"`
}

// LoggingConfig selects the log level, format and destination
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	File   string `toml:"file"`
	// Delimiter separates the fields of the mark format
	Delimiter string `toml:"delimiter"`
}

// ReporterConfig configures the request database
type ReporterConfig struct {
	SQLitePath string   `toml:"sqlite_path"`
	Retention  Duration `toml:"retention"`
}

// Duration wraps time.Duration for TOML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the settings used when no file is given
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from a TOML file
func Load(path string) (*Config, error) {
	path = os.ExpandEnv(path)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.path = path

	cfg.applyDefaults()
	cfg.expandEnvVars()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv loads the file named by BES_CONFIG, or the first file found
// in the default locations. Without any file the defaults are returned.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv("BES_CONFIG")
	if path == "" {
		defaultPaths := []string{
			"./configs/bes.toml",
			"./bes.toml",
			filepath.Join(os.Getenv("HOME"), ".config/bes/bes.toml"),
		}
		for _, p := range defaultPaths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 10022
	}
	if c.Server.MaxMessageSize == 0 {
		c.Server.MaxMessageSize = 16 * 1024 * 1024
	}
	if c.Server.Timeout.Duration == 0 {
		c.Server.Timeout.Duration = 5 * time.Minute
	}

	if c.Client.Target == "" {
		c.Client.Target = fmt.Sprintf("localhost:%d", c.Server.Port)
	}
	if c.Client.Timeout.Duration == 0 {
		c.Client.Timeout.Duration = 30 * time.Second
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "mark"
	}
	if c.Logging.Delimiter == "" {
		c.Logging.Delimiter = "|&|"
	}

	if c.Reporter.Retention.Duration == 0 {
		c.Reporter.Retention.Duration = 30 * 24 * time.Hour
	}
}

// expandEnvVars expands environment variables in path settings
func (c *Config) expandEnvVars() {
	c.KeysFile = os.ExpandEnv(c.KeysFile)
	c.Logging.File = os.ExpandEnv(c.Logging.File)
	c.Reporter.SQLitePath = os.ExpandEnv(c.Reporter.SQLitePath)
}

// Validate checks the settings for values the server cannot run with
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Server.MaxMessageSize < 0 {
		return fmt.Errorf("server.max_message_size must not be negative")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("logging.level %q is not a log level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text", "logfmt", "mark":
	default:
		return fmt.Errorf("logging.format %q is not a log format", c.Logging.Format)
	}
	return nil
}

// Address returns the listen address of the server
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Path returns the file the configuration was loaded from, empty for
// defaults.
func (c *Config) Path() string {
	return c.path
}

// KeysPath returns the file the BES keys are read from, empty when there
// is none.
func (c *Config) KeysPath() string {
	if c.KeysFile != "" {
		if !filepath.IsAbs(c.KeysFile) && c.path != "" {
			return filepath.Join(filepath.Dir(c.path), c.KeysFile)
		}
		return c.KeysFile
	}
	return c.path
}
