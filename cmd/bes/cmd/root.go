// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     cmd
// Description: Cobra commands of the bes binary
// License:     MIT
// ============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/msto63/bes/internal/dispatch"
	"github.com/msto63/bes/internal/keys"
	"github.com/msto63/bes/pkg/core/config"
	"github.com/msto63/bes/pkg/core/logging"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "bes",
	Short: "BES - Back-End Server",
	Long: `The Back-End Server answers data access requests written in the BES
command language or as XML request documents.

Commands:
  standalone - run requests in-process and print the responses
  serve      - start the gRPC dispatcher service
  client     - send requests to a running server
  translate  - turn legacy commands into an XML request document`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $BES_CONFIG or ./configs/bes.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func printError(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
}

func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.LoadFromEnv()
}

// newLogger builds the process logger. Log lines go to stderr so that
// responses on stdout stay clean, plus the configured log file.
func newLogger(cfg *config.Config, name string) (*logging.Logger, io.Closer, error) {
	lc := logging.LoggerConfig{
		ServiceName: name,
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		Mark:        cfg.Logging.Delimiter,
		Output:      os.Stderr,
	}
	if verbose {
		lc.Level = "debug"
	}

	var closer io.Closer = io.NopCloser(nil)
	if cfg.Logging.File != "" {
		f, err := os.OpenFile(cfg.Logging.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		lc.AdditionalOutputs = append(lc.AdditionalOutputs, f)
		closer = f
	}
	return logging.NewFromConfig(lc), closer, nil
}

func loadKeys(cfg *config.Config) (*keys.Keys, error) {
	path := cfg.KeysPath()
	if path == "" {
		return keys.Empty(), nil
	}
	return keys.Load(path, "BES")
}

// newEnvironment loads configuration and builds the dispatch environment
func newEnvironment(name string) (*config.Config, *dispatch.Environment, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	logger, logCloser, err := newLogger(cfg, name)
	if err != nil {
		return nil, nil, nil, err
	}
	k, err := loadKeys(cfg)
	if err != nil {
		logCloser.Close()
		return nil, nil, nil, fmt.Errorf("failed to load keys: %w", err)
	}
	if _, ok := k.GetValue(keys.LogDelimiter); !ok {
		k.Set(keys.LogDelimiter, cfg.Logging.Delimiter)
	}

	env, err := dispatch.NewEnvironment(dispatch.Options{
		Keys:     k,
		Logger:   logger,
		ReportDB: cfg.Reporter.SQLitePath,
	})
	if err != nil {
		logCloser.Close()
		return nil, nil, nil, err
	}
	cleanup := func() {
		if err := env.Close(); err != nil {
			printError("closing environment", err)
		}
		logCloser.Close()
	}
	return cfg, env, cleanup, nil
}

// readInput returns the -c text, the contents of the -i file, or stdin
func readInput(command, file string) (string, error) {
	switch {
	case command != "" && file != "":
		return "", fmt.Errorf("use either -c or -i, not both")
	case command != "":
		return command, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("no input; use -c or -i")
	}
	return string(data), nil
}
