// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     health
// Description: Named server checks with a bounded wait, reported by show status
// License:     MIT
// ============================================================================

package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Status represents the health status of the server
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
	StatusUnknown   Status = "unknown"
)

// CheckResult is the outcome of one check
type CheckResult struct {
	Name     string
	Status   Status
	Message  string
	Duration time.Duration
}

// Checker is a named health check
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

type namedCheck struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

// NewChecker creates a named checker from a function
func NewChecker(name string, fn func(ctx context.Context) CheckResult) Checker {
	return &namedCheck{name: name, fn: fn}
}

func (c *namedCheck) Name() string {
	return c.name
}

func (c *namedCheck) Check(ctx context.Context) CheckResult {
	return c.fn(ctx)
}

// Registry runs the registered checks. A check that has not answered
// within the registry timeout is reported as unknown.
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	timeout  time.Duration
}

// NewRegistry creates an empty registry. A timeout of zero waits for
// every check.
func NewRegistry(timeout time.Duration) *Registry {
	return &Registry{
		checkers: make(map[string]Checker),
		timeout:  timeout,
	}
}

// Register adds checker, replacing one of the same name
func (r *Registry) Register(checker Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[checker.Name()] = checker
}

// Report is the combined result of all checks, sorted by name
type Report struct {
	Status Status        `json:"status"`
	Checks []CheckResult `json:"checks"`
}

// Check runs all checks concurrently and combines their results. Any
// unhealthy check makes the report unhealthy; a degraded or unanswered
// one makes it degraded.
func (r *Registry) Check(ctx context.Context) *Report {
	r.mu.RLock()
	checkers := make([]Checker, 0, len(r.checkers))
	for _, c := range r.checkers {
		checkers = append(checkers, c)
	}
	r.mu.RUnlock()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	results := make(chan CheckResult, len(checkers))
	for _, checker := range checkers {
		go func(c Checker) {
			start := time.Now()
			result := c.Check(ctx)
			result.Duration = time.Since(start)
			result.Name = c.Name()
			results <- result
		}(checker)
	}

	answered := make(map[string]CheckResult, len(checkers))
collect:
	for len(answered) < len(checkers) {
		select {
		case result := <-results:
			answered[result.Name] = result
		case <-ctx.Done():
			break collect
		}
	}

	report := &Report{Status: StatusHealthy, Checks: make([]CheckResult, 0, len(checkers))}
	for _, c := range checkers {
		result, ok := answered[c.Name()]
		if !ok {
			result = CheckResult{Name: c.Name(), Status: StatusUnknown, Message: "no answer: " + ctx.Err().Error()}
		}
		report.Checks = append(report.Checks, result)
		switch result.Status {
		case StatusUnhealthy:
			report.Status = StatusUnhealthy
		case StatusDegraded, StatusUnknown:
			if report.Status != StatusUnhealthy {
				report.Status = StatusDegraded
			}
		}
	}
	sort.Slice(report.Checks, func(i, j int) bool {
		return report.Checks[i].Name < report.Checks[j].Name
	})
	return report
}

// CountCheck reports unhealthy when count() is below min. It backs the
// registry checks (stores, data handlers) of the server.
func CountCheck(name string, count func() int, min int) Checker {
	return NewChecker(name, func(ctx context.Context) CheckResult {
		n := count()
		result := CheckResult{
			Name:    name,
			Status:  StatusHealthy,
			Message: fmt.Sprintf("%d registered", n),
		}
		if n < min {
			result.Status = StatusUnhealthy
			result.Message = fmt.Sprintf("%d registered, need at least %d", n, min)
		}
		return result
	})
}

// PingCheck reports unhealthy when ping fails
func PingCheck(name string, ping func(ctx context.Context) error) Checker {
	return NewChecker(name, func(ctx context.Context) CheckResult {
		if err := ping(ctx); err != nil {
			return CheckResult{Name: name, Status: StatusUnhealthy, Message: err.Error()}
		}
		return CheckResult{Name: name, Status: StatusHealthy, Message: "reachable"}
	})
}
