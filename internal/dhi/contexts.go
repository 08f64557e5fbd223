package dhi

import (
	"sort"
	"sync"
)

// ContextManager holds the name/value settings written by "set context".
// Each client origin has its own manager.
type ContextManager struct {
	values map[string]string
	mu     sync.RWMutex
}

// NewContextManager creates an empty context manager
func NewContextManager() *ContextManager {
	return &ContextManager{values: make(map[string]string)}
}

// Set stores a setting
func (m *ContextManager) Set(name, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[name] = value
}

// Get returns a setting and whether it exists
func (m *ContextManager) Get(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[name]
	return v, ok
}

// Unset removes a setting
func (m *ContextManager) Unset(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[name]; !ok {
		return false
	}
	delete(m.values, name)
	return true
}

// List returns every setting name in sorted order together with a copy of
// the values.
func (m *ContextManager) List() ([]string, map[string]string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.values))
	values := make(map[string]string, len(m.values))
	for k, v := range m.values {
		names = append(names, k)
		values[k] = v
	}
	sort.Strings(names)
	return names, values
}
