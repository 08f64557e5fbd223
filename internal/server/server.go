// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     server
// Description: gRPC dispatcher service over the request interface
// License:     MIT
// ============================================================================

// Package server exposes the dispatch driver as the bes.Dispatcher gRPC
// service.
package server

import (
	"bytes"
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/msto63/bes/internal/dispatch"
	coreGrpc "github.com/msto63/bes/pkg/core/grpc"
	"github.com/msto63/bes/pkg/core/logging"
)

// Config holds server configuration
type Config struct {
	GRPC coreGrpc.ServerConfig
	// Timeout bounds a single request; zero means no limit
	Timeout time.Duration
}

// DefaultConfig returns default server configuration
func DefaultConfig() Config {
	return Config{
		GRPC:    coreGrpc.DefaultServerConfig(),
		Timeout: 5 * time.Minute,
	}
}

// Server is the dispatcher gRPC server
type Server struct {
	env    *dispatch.Environment
	iface  *dispatch.Interface
	grpc   *coreGrpc.Server
	logger *logging.Logger
	config Config

	stopOnce sync.Once
	done     chan struct{}
}

// Ensure Server implements DispatcherServer
var _ DispatcherServer = (*Server)(nil)

// New creates a server over env. The environment stays owned by the
// caller.
func New(env *dispatch.Environment, cfg Config) *Server {
	logger := env.Logger.Component("server")
	s := &Server{
		env:    env,
		iface:  dispatch.NewInterface(env),
		grpc:   coreGrpc.NewServer(cfg.GRPC, env.Logger),
		logger: logger,
		config: cfg,
		done:   make(chan struct{}),
	}
	RegisterDispatcherServer(s.grpc.GRPCServer(), s)
	return s
}

// Execute runs one legacy command
func (s *Server) Execute(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return s.execute(ctx, in.GetValue(), false)
}

// ExecuteXML runs one XML request document
func (s *Server) ExecuteXML(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return s.execute(ctx, in.GetValue(), true)
}

func (s *Server) execute(ctx context.Context, raw string, xml bool) (*wrapperspb.BytesValue, error) {
	select {
	case <-s.done:
		return nil, status.Error(codes.Unavailable, "server is shutting down")
	default:
	}
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	var out bytes.Buffer
	res := s.iface.Execute(ctx, dispatch.Request{
		Command:   raw,
		XML:       xml,
		Origin:    coreGrpc.PeerAddress(ctx),
		RequestID: coreGrpc.GetRequestID(ctx),
		Output:    &out,
		Format:    incomingFormat(ctx),
	})

	if err := grpc.SetHeader(ctx, metadata.Pairs(StatusHeader, strconv.Itoa(res.Status))); err != nil {
		s.logger.Debug("failed to set status header", "error", err)
	}
	if res.Fatal {
		s.logger.Error("fatal error, stopping server", "request_id", res.RequestID, "error", res.Err)
		// GracefulStop waits for this call to return
		go s.Stop()
	}
	return wrapperspb.Bytes(out.Bytes()), nil
}

func incomingFormat(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if values := md.Get(FormatHeader); len(values) > 0 {
		return values[0]
	}
	return ""
}

// Start listens on the configured address and serves until stopped
func (s *Server) Start() error {
	s.logger.Info("Starting BES server", "host", s.config.GRPC.Host, "port", s.config.GRPC.Port)
	return s.grpc.Start()
}

// Serve serves on lis until stopped
func (s *Server) Serve(lis net.Listener) error {
	return s.grpc.Serve(lis)
}

// Stop gracefully stops the server. It is safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping BES server")
		close(s.done)
		s.grpc.Stop()
	})
}

// Done is closed once the server begins stopping
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Address returns the address the server listens on
func (s *Server) Address() string {
	return s.grpc.Address()
}
