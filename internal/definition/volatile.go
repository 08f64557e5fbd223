package definition

import (
	"context"
	"sync"

	"github.com/msto63/bes/internal/dhi"
)

// Volatile is an in-memory definition store
type Volatile struct {
	name  string
	order []string
	defs  map[string]*Definition
	mu    sync.RWMutex
}

// NewVolatile creates an empty in-memory store
func NewVolatile(name string) *Volatile {
	return &Volatile{name: name, defs: make(map[string]*Definition)}
}

// Name returns the store name
func (v *Volatile) Name() string {
	return v.name
}

// Add stores a copy of def
func (v *Volatile) Add(_ context.Context, def *Definition) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.defs[def.Name]; ok {
		return false, nil
	}
	v.defs[def.Name] = def.Clone()
	v.order = append(v.order, def.Name)
	return true, nil
}

// Del removes one definition together with its containers
func (v *Volatile) Del(_ context.Context, name string) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.defs[name]; !ok {
		return false, nil
	}
	delete(v.defs, name)
	for i, n := range v.order {
		if n == name {
			v.order = append(v.order[:i], v.order[i+1:]...)
			break
		}
	}
	return true, nil
}

// DelAll removes every definition
func (v *Volatile) DelAll(_ context.Context) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.defs = make(map[string]*Definition)
	v.order = nil
	return true, nil
}

// LookFor returns a copy of the named definition
func (v *Volatile) LookFor(_ context.Context, name string) (*Definition, bool, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	def, ok := v.defs[name]
	if !ok {
		return nil, false, nil
	}
	return def.Clone(), true, nil
}

// Show lists the store
func (v *Volatile) Show(_ context.Context, info dhi.InfoBuilder) error {
	v.mu.RLock()
	defs := make([]*Definition, 0, len(v.order))
	for _, name := range v.order {
		defs = append(defs, v.defs[name])
	}
	v.mu.RUnlock()
	showDefinitions(info, v.name, defs)
	return nil
}
