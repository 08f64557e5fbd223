// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     request
// Description: Data handler registry and per-container execution
// License:     MIT
// ============================================================================

// Package request routes a plan to the data-type plugins that fill in its
// response.
package request

import (
	"sort"
	"sync"

	"github.com/msto63/bes/internal/dhi"
)

// Method fills in the response of d for one container (or for the whole
// request when run through ExecuteOnce or ExecuteAll).
type Method func(d *dhi.ExecutionContext) (bool, error)

// Handler is a data-type plugin with one method per response type
type Handler interface {
	Name() string
	AddMethod(action string, fn Method) bool
	RemoveMethod(action string) bool
	FindMethod(action string) (Method, bool)
	Methods() []string
}

// Base is a map backed Handler that plugins embed
type Base struct {
	name    string
	methods map[string]Method
	mu      sync.RWMutex
}

// NewBase creates a handler with no methods
func NewBase(name string) *Base {
	return &Base{name: name, methods: make(map[string]Method)}
}

// Name returns the data type the handler serves
func (b *Base) Name() string {
	return b.name
}

// AddMethod registers fn for action; false if one is registered already
func (b *Base) AddMethod(action string, fn Method) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.methods[action]; ok {
		return false
	}
	b.methods[action] = fn
	return true
}

// RemoveMethod removes the method for action
func (b *Base) RemoveMethod(action string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.methods[action]; !ok {
		return false
	}
	delete(b.methods, action)
	return true
}

// FindMethod returns the method for action
func (b *Base) FindMethod(action string) (Method, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	fn, ok := b.methods[action]
	return fn, ok
}

// Methods returns the handled actions, sorted
func (b *Base) Methods() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	actions := make([]string, 0, len(b.methods))
	for a := range b.methods {
		actions = append(actions, a)
	}
	sort.Strings(actions)
	return actions
}
