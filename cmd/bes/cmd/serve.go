// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     cmd
// Description: bes serve: the gRPC server
// License:     MIT
// ============================================================================

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/msto63/bes/internal/reporter"
	"github.com/msto63/bes/internal/server"
	coreGrpc "github.com/msto63/bes/pkg/core/grpc"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dispatcher service",
	Long: `Starts the bes.Dispatcher gRPC service. The server stops on SIGINT,
SIGTERM or after answering a request with an internal fatal error.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides the config file)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, env, cleanup, err := newEnvironment("bes")
	if err != nil {
		return err
	}
	defer cleanup()
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	if rep, ok := env.Reporters.Find("sqlite"); ok && cfg.Reporter.Retention.Duration > 0 {
		if db, ok := rep.(*reporter.SQLiteReporter); ok {
			n, err := db.Prune(context.Background(), cfg.Reporter.Retention.Duration)
			if err != nil {
				env.Logger.Warn("pruning request records failed", "error", err)
			} else if n > 0 {
				env.Logger.Info("pruned request records", "count", n, "retention", cfg.Reporter.Retention.Duration)
			}
		}
	}

	grpcCfg := coreGrpc.DefaultServerConfig()
	grpcCfg.Host = cfg.Server.Host
	grpcCfg.Port = cfg.Server.Port
	grpcCfg.MaxMsgSize = cfg.Server.MaxMessageSize
	grpcCfg.EnableReflection = cfg.Server.Reflection
	srv := server.New(env, server.Config{GRPC: grpcCfg, Timeout: cfg.Server.Timeout.Duration})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	fmt.Printf("BES listening on %s\n", cfg.Address())

	select {
	case sig := <-sigCh:
		env.Logger.Info("shutting down", "signal", sig.String())
	case <-srv.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	done := make(chan struct{})
	go func() {
		srv.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		env.Logger.Warn("graceful stop timed out")
	}
	return nil
}
