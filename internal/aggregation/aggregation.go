// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     aggregation
// Description: Named aggregators run after a definition is answered
// License:     MIT
// ============================================================================

// Package aggregation combines the per-container responses of a request
// into one, using the handler a definition names.
package aggregation

import (
	"sort"
	"strings"
	"sync"

	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/dhi"
	"github.com/msto63/bes/internal/response"
)

// Aggregator rewrites the response of d according to cmd
type Aggregator func(cmd string, d *dhi.ExecutionContext) error

// Registry maps aggregation handler names to aggregators
type Registry struct {
	aggs map[string]Aggregator
	mu   sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{aggs: make(map[string]Aggregator)}
}

// Add registers fn under name; false if the name is taken
func (r *Registry) Add(name string, fn Aggregator) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.aggs[name]; ok {
		return false
	}
	r.aggs[name] = fn
	return true
}

// Remove unregisters name
func (r *Registry) Remove(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.aggs[name]; !ok {
		return false
	}
	delete(r.aggs, name)
	return true
}

// Find returns the aggregator registered under name
func (r *Registry) Find(name string) (Aggregator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.aggs[name]
	return fn, ok
}

// Names returns the registered handler names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.aggs))
	for n := range r.aggs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Invoke runs the aggregation named in d. Requests without an aggregation
// command are left alone.
func (r *Registry) Invoke(d *dhi.ExecutionContext) error {
	cmd := d.Get(dhi.AggregationCommand)
	if cmd == "" {
		return nil
	}
	name := d.Get(dhi.AggregationHandler)
	fn, ok := r.Find(name)
	if !ok {
		return beserr.Handler("The aggregation handler '%s' does not exist", name)
	}
	return fn(cmd, d)
}

// Join is the built-in aggregator. It merges the datasets of a data
// response into one dataset named cmd. Variables are the union in first-seen
// order; rows are appended, with empty values for variables a dataset
// lacks.
func Join(cmd string, d *dhi.ExecutionContext) error {
	if d.ResponseHandler == nil {
		return beserr.Internal("No response to aggregate for '%s'", d.Action)
	}
	resp, ok := d.ResponseHandler.Response().(*response.DataResponse)
	if !ok {
		return beserr.SyntaxUser("The '%s' response cannot be aggregated", d.Action)
	}
	datasets := resp.Datasets()
	if len(datasets) < 2 {
		return nil
	}

	joined := &response.Dataset{Name: cmd}
	index := make(map[string]int)
	var sources []string
	for _, ds := range datasets {
		sources = append(sources, ds.Source)
		for _, v := range ds.Variables {
			if _, ok := index[v.Name]; !ok {
				index[v.Name] = len(joined.Variables)
				joined.Variables = append(joined.Variables, v)
			}
		}
	}
	for _, ds := range datasets {
		for _, row := range ds.Rows {
			out := make([]string, len(joined.Variables))
			for i, v := range ds.Variables {
				if i < len(row) {
					out[index[v.Name]] = row[i]
				}
			}
			joined.Rows = append(joined.Rows, out)
		}
	}
	joined.Source = strings.Join(sources, ", ")
	resp.Replace([]*response.Dataset{joined})
	return nil
}
