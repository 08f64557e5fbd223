// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     dhi
// Description: Per-request execution context
// License:     MIT
// ============================================================================

package dhi

import (
	"context"
	"io"
	"maps"
	"time"

	"github.com/msto63/bes/internal/beserr"
)

// Transport describes where a request came from
type Transport struct {
	Origin    string
	RequestID string
	Protocol  string
}

// ExecutionContext is the plan built for one request (or one command of an
// XML document). Commands fill it in, the response handler executes it and
// the transmitter sends what it produced.
type ExecutionContext struct {
	ctx context.Context

	// Selected containers, referenced not owned
	Containers []*Container
	cursor     int

	// Property bag keyed by the names in data.go
	Data map[string]string

	Action          string
	ResponseHandler ResponseHandler
	Error           *beserr.ErrorInfo

	Transport Transport
	Output    io.Writer
	StartTime time.Time

	// Settings are the "set context" values of the client the request
	// came from; nil means the handlers' shared settings
	Settings *ContextManager
}

// NewExecutionContext creates an empty plan writing to out
func NewExecutionContext(ctx context.Context, transport Transport, out io.Writer) *ExecutionContext {
	if ctx == nil {
		ctx = context.Background()
	}
	if transport.Protocol == "" {
		transport.Protocol = ProtocolText
	}
	d := &ExecutionContext{
		ctx:       ctx,
		Data:      make(map[string]string),
		Transport: transport,
		Output:    out,
		StartTime: time.Now(),
	}
	if transport.RequestID != "" {
		d.Data[RequestID] = transport.RequestID
	}
	return d
}

// Context returns the Go context of the request
func (d *ExecutionContext) Context() context.Context {
	return d.ctx
}

// Clone returns a copy that shares upstream values (transport, output,
// data) but none of the per-command state. The container slice is copied;
// the containers themselves are shared.
func (d *ExecutionContext) Clone() *ExecutionContext {
	cp := &ExecutionContext{
		ctx:        d.ctx,
		Containers: append([]*Container(nil), d.Containers...),
		Data:       maps.Clone(d.Data),
		Action:     d.Action,
		Transport:  d.Transport,
		Output:     d.Output,
		StartTime:  d.StartTime,
		Settings:   d.Settings,
	}
	if cp.Data == nil {
		cp.Data = make(map[string]string)
	}
	return cp
}

// Reset clears the plan for reuse by another request on the same
// connection.
func (d *ExecutionContext) Reset() {
	d.Containers = nil
	d.cursor = 0
	d.Data = make(map[string]string)
	if d.Transport.RequestID != "" {
		d.Data[RequestID] = d.Transport.RequestID
	}
	d.Action = ""
	d.ResponseHandler = nil
	d.Error = nil
	d.StartTime = time.Now()
}

// AddContainer appends c to the selection
func (d *ExecutionContext) AddContainer(c *Container) {
	d.Containers = append(d.Containers, c)
}

// FindContainer returns the selected container with the given symbolic name
func (d *ExecutionContext) FindContainer(symbolicName string) *Container {
	for _, c := range d.Containers {
		if c.SymbolicName == symbolicName {
			return c
		}
	}
	return nil
}

// FirstContainer resets the cursor and returns the first container or nil
func (d *ExecutionContext) FirstContainer() *Container {
	d.cursor = 0
	return d.Current()
}

// NextContainer advances the cursor and returns the container under it or
// nil once the selection is exhausted.
func (d *ExecutionContext) NextContainer() *Container {
	if d.cursor < len(d.Containers) {
		d.cursor++
	}
	return d.Current()
}

// Current returns the container under the cursor or nil
func (d *ExecutionContext) Current() *Container {
	if d.cursor < 0 || d.cursor >= len(d.Containers) {
		return nil
	}
	return d.Containers[d.cursor]
}

// Get returns a data value, empty when unset
func (d *ExecutionContext) Get(key string) string {
	return d.Data[key]
}

// Set stores a data value
func (d *ExecutionContext) Set(key, value string) {
	d.Data[key] = value
}

// IsSilent reports whether the command asked for no confirmation text
func (d *ExecutionContext) IsSilent() bool {
	return d.Data[Silent] == "yes"
}

// IsXML reports whether responses go back as XML documents
func (d *ExecutionContext) IsXML() bool {
	return d.Transport.Protocol == ProtocolXML
}

// Duration returns the time since the plan was created
func (d *ExecutionContext) Duration() time.Duration {
	return time.Since(d.StartTime)
}
