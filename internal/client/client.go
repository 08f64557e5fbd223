// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     client
// Description: gRPC client and legacy-to-XML translation
// License:     MIT
// ============================================================================

// Package client talks to a running BES server over gRPC and translates
// legacy command strings into XML request documents.
package client

import (
	"context"
	"strconv"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/wrapperspb"

	mdwerror "github.com/msto63/bes/foundation/core/error"
	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/server"
	"github.com/msto63/bes/internal/tokenizer"
	coreGrpc "github.com/msto63/bes/pkg/core/grpc"
	"github.com/msto63/bes/pkg/core/logging"
)

// Config holds client configuration
type Config struct {
	Target  string
	Timeout time.Duration
	// Format is sent with legacy commands; empty means text
	Format string
}

// Response is one reply of the server
type Response struct {
	Body      []byte
	Status    int
	RequestID string
}

// Failed reports whether the server answered with an error
func (r *Response) Failed() bool {
	return r.Status != 0
}

// Client is a dispatcher client
type Client struct {
	conn   *grpc.ClientConn
	config Config
	logger *logging.Logger
}

// New connects to cfg.Target. opts are appended to the default dial
// options.
func New(cfg Config, logger *logging.Logger, opts ...grpc.DialOption) (*Client, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	conn, err := coreGrpc.Dial(coreGrpc.DefaultClientConfig(cfg.Target), logger, opts...)
	if err != nil {
		return nil, beserr.Wrap(err, mdwerror.CodeConnectionFailed, "failed to connect to "+cfg.Target)
	}
	return &Client{conn: conn, config: cfg, logger: logger.Component("client")}, nil
}

// Execute sends one legacy command
func (c *Client) Execute(ctx context.Context, cmd string) (*Response, error) {
	if c.config.Format != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, server.FormatHeader, c.config.Format)
	}
	return c.call(ctx, server.ExecuteMethod, cmd)
}

// ExecuteAll splits raw into its commands and sends them in order. It
// stops at the first transport failure; error replies do not stop it.
func (c *Client) ExecuteAll(ctx context.Context, raw string) ([]*Response, error) {
	cmds, err := tokenizer.Split(raw)
	if err != nil {
		return nil, err
	}
	if len(cmds) == 0 {
		return nil, beserr.SyntaxUser("No commands to send")
	}
	responses := make([]*Response, 0, len(cmds))
	for _, cmd := range cmds {
		resp, err := c.Execute(ctx, cmd)
		if err != nil {
			return responses, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// ExecuteXML sends one XML request document
func (c *Client) ExecuteXML(ctx context.Context, doc string) (*Response, error) {
	return c.call(ctx, server.ExecuteXMLMethod, doc)
}

func (c *Client) call(ctx context.Context, method, body string) (*Response, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	var header metadata.MD
	out := new(wrapperspb.BytesValue)
	if err := c.conn.Invoke(ctx, method, wrapperspb.String(body), out, grpc.Header(&header)); err != nil {
		c.logger.Debug("call failed", "method", method, "error", err)
		return nil, beserr.Wrap(err, mdwerror.CodeServiceUnavailable, "request to "+c.config.Target+" failed")
	}

	resp := &Response{Body: out.GetValue()}
	if values := header.Get(server.StatusHeader); len(values) > 0 {
		resp.Status, _ = strconv.Atoi(values[0])
	}
	if values := header.Get(coreGrpc.RequestIDHeader); len(values) > 0 {
		resp.RequestID = values[0]
	}
	return resp, nil
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}
