// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     reporter
// Description: Per-request reporting to the log and a SQLite database
// License:     MIT
// ============================================================================

// Package reporter records finished requests, after their status has been
// logged.
package reporter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	mdwerror "github.com/msto63/bes/foundation/core/error"

	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/dhi"
	"github.com/msto63/bes/pkg/core/logging"
)

// Record describes one finished request
type Record struct {
	ID        string
	Timestamp time.Time
	RequestID string
	Origin    string
	Action    string
	Command   string
	RealNames string
	Status    int
	ErrorType string
	Duration  time.Duration
}

// NewRecord summarizes d
func NewRecord(d *dhi.ExecutionContext) *Record {
	r := &Record{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		RequestID: d.Transport.RequestID,
		Origin:    d.Transport.Origin,
		Action:    d.Action,
		Command:   d.Get(dhi.LogInfo),
		RealNames: d.Get(dhi.RealNameList),
		Duration:  d.Duration(),
	}
	if d.Error != nil {
		r.Status = d.Error.Status
		r.ErrorType = d.Error.Type
	}
	return r
}

// Reporter receives every finished request
type Reporter interface {
	Report(ctx context.Context, r *Record) error
}

type named struct {
	name string
	rep  Reporter
}

// List is the ordered set of reporters
type List struct {
	reporters []named
	mu        sync.RWMutex
}

// NewList creates an empty list
func NewList() *List {
	return &List{}
}

// Add appends rep under name; false if the name is taken
func (l *List) Add(name string, rep Reporter) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, n := range l.reporters {
		if n.name == name {
			return false
		}
	}
	l.reporters = append(l.reporters, named{name: name, rep: rep})
	return true
}

// Remove drops the reporter registered under name
func (l *List) Remove(name string) (Reporter, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, n := range l.reporters {
		if n.name == name {
			l.reporters = append(l.reporters[:i], l.reporters[i+1:]...)
			return n.rep, true
		}
	}
	return nil, false
}

// Find returns the reporter registered under name
func (l *List) Find(name string) (Reporter, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, n := range l.reporters {
		if n.name == name {
			return n.rep, true
		}
	}
	return nil, false
}

// Names returns the reporter names in registration order
func (l *List) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	names := make([]string, len(l.reporters))
	for i, n := range l.reporters {
		names[i] = n.name
	}
	return names
}

// ReportAll hands the record of d to every reporter. A failing reporter
// does not keep the others from running.
func (l *List) ReportAll(d *dhi.ExecutionContext) error {
	l.mu.RLock()
	reporters := append([]named(nil), l.reporters...)
	l.mu.RUnlock()

	rec := NewRecord(d)
	var errs []error
	for _, n := range reporters {
		if err := n.rep.Report(d.Context(), rec); err != nil {
			errs = append(errs, beserr.Wrap(err, mdwerror.GetCode(err), "reporter "+n.name))
		}
	}
	return errors.Join(errs...)
}

// Close closes every reporter that holds resources
func (l *List) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var errs []error
	for _, n := range l.reporters {
		if c, ok := n.rep.(interface{ Close() error }); ok {
			errs = append(errs, c.Close())
		}
	}
	l.reporters = nil
	return errors.Join(errs...)
}

// LogReporter writes one log line per request
type LogReporter struct {
	logger *logging.Logger
}

// NewLogReporter creates a reporter logging through logger
func NewLogReporter(logger *logging.Logger) *LogReporter {
	return &LogReporter{logger: logger.Component("reporter")}
}

func (r *LogReporter) Report(_ context.Context, rec *Record) error {
	kv := []interface{}{
		"request_id", rec.RequestID,
		"action", rec.Action,
		"status", rec.Status,
		"duration", rec.Duration.String(),
	}
	if rec.RealNames != "" {
		kv = append(kv, "real_names", rec.RealNames)
	}
	if rec.Status != 0 {
		r.logger.Warn("request report", append(kv, "error_type", rec.ErrorType)...)
		return nil
	}
	r.logger.Info("request report", kv...)
	return nil
}
