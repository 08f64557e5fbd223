package response

import (
	"sort"
	"sync"
	"time"

	"github.com/msto63/bes/internal/container"
	"github.com/msto63/bes/internal/definition"
	"github.com/msto63/bes/internal/dhi"
	"github.com/msto63/bes/internal/keys"
	"github.com/msto63/bes/internal/request"
	"github.com/msto63/bes/pkg/core/health"
	"github.com/msto63/bes/pkg/core/logging"
)

// Deps are the server registries response handlers work on
type Deps struct {
	Requests    *request.List
	Containers  *container.List
	Definitions *definition.List
	Contexts    *dhi.ContextManager
	Keys        *keys.Keys
	Health      *health.Registry
	Logger      *logging.Logger
	Started     time.Time
}

// Factory creates a fresh handler for one request
type Factory func(deps *Deps) dhi.ResponseHandler

// Registry maps actions to handler factories
type Registry struct {
	deps      *Deps
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry whose handlers get deps
func NewRegistry(deps *Deps) *Registry {
	return &Registry{deps: deps, factories: make(map[string]Factory)}
}

// Add registers a factory; false if the action is taken
func (r *Registry) Add(action string, f Factory) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[action]; ok {
		return false
	}
	r.factories[action] = f
	return true
}

// Remove unregisters an action
func (r *Registry) Remove(action string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[action]; !ok {
		return false
	}
	delete(r.factories, action)
	return true
}

// Find creates a new handler for action
func (r *Registry) Find(action string) (dhi.ResponseHandler, bool) {
	r.mu.RLock()
	f, ok := r.factories[action]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return f(r.deps), true
}

// Names returns the registered actions, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
