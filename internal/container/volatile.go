package container

import (
	"context"
	"sync"

	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/dhi"
)

// memory keeps containers in insertion order
type memory struct {
	order []string
	items map[string]*dhi.Container
	mu    sync.RWMutex
}

func newMemory() *memory {
	return &memory{items: make(map[string]*dhi.Container)}
}

func (m *memory) put(c *dhi.Container) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[c.SymbolicName]; !ok {
		m.order = append(m.order, c.SymbolicName)
	}
	m.items[c.SymbolicName] = c
}

func (m *memory) del(sym string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[sym]; !ok {
		return false
	}
	delete(m.items, sym)
	for i, name := range m.order {
		if name == sym {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

func (m *memory) delAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.order = nil
	m.items = make(map[string]*dhi.Container)
}

func (m *memory) get(sym string) (*dhi.Container, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.items[sym]
	if !ok {
		return nil, false
	}
	return c.Clone(), true
}

func (m *memory) all() []*dhi.Container {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*dhi.Container, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.items[name].Clone())
	}
	return out
}

// Volatile is an in-memory container store
type Volatile struct {
	name  string
	types *TypeMatch
	mem   *memory
}

// NewVolatile creates an empty in-memory store. types may be nil.
func NewVolatile(name string, types *TypeMatch) *Volatile {
	return &Volatile{name: name, types: types, mem: newMemory()}
}

// Name returns the store name
func (v *Volatile) Name() string {
	return v.name
}

// Add stores a container. An empty type is inferred from the real name.
func (v *Volatile) Add(_ context.Context, sym, real, typ string) error {
	if sym == "" || real == "" {
		return beserr.SyntaxUser("Unable to add container, symbolic name and real name must be specified")
	}
	if typ == "" {
		typ = v.types.Match(real)
	}
	if typ == "" {
		return beserr.SyntaxUser("Unable to add container, type of data must be specified for %s", real)
	}
	v.mem.put(dhi.NewContainer(sym, real, typ))
	return nil
}

// Del removes one container
func (v *Volatile) Del(_ context.Context, sym string) (bool, error) {
	return v.mem.del(sym), nil
}

// DelAll removes every container
func (v *Volatile) DelAll(_ context.Context) (bool, error) {
	v.mem.delAll()
	return true, nil
}

// LookFor returns a copy of the named container
func (v *Volatile) LookFor(_ context.Context, sym string) (*dhi.Container, bool, error) {
	c, ok := v.mem.get(sym)
	return c, ok, nil
}

// Show lists the store
func (v *Volatile) Show(_ context.Context, info dhi.InfoBuilder) error {
	showContainers(info, v.name, v.mem.all())
	return nil
}
