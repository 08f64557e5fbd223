// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     storelist
// Description: Reference-counted list of named stores
// License:     MIT
// ============================================================================

// Package storelist is the ordered, reference-counted list of named stores
// shared by the container and definition store lists.
package storelist

import (
	"io"
	"sync"
)

// Named is anything with a unique store name
type Named interface {
	Name() string
}

type entry[S Named] struct {
	store S
	refs  int
}

// List keeps stores in registration order. One mutex guards every
// operation; exported methods lock once and call the unlocked helpers.
type List[S Named] struct {
	entries []*entry[S]
	mu      sync.Mutex
}

// New creates an empty list
func New[S Named]() *List[S] {
	return &List[S]{}
}

// Add appends s with a reference count of one. It returns false and leaves
// the list unchanged when a store with the same name exists.
func (l *List[S]) Add(s S) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.indexLocked(s.Name()) >= 0 {
		return false
	}
	l.entries = append(l.entries, &entry[S]{store: s, refs: 1})
	return true
}

// Ref increments the reference count of the named store
func (l *List[S]) Ref(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(name)
	if i < 0 {
		return false
	}
	l.entries[i].refs++
	return true
}

// Deref decrements the reference count of the named store. At zero the
// store is removed and closed if it is an io.Closer.
func (l *List[S]) Deref(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(name)
	if i < 0 {
		return false
	}
	l.entries[i].refs--
	if l.entries[i].refs == 0 {
		l.removeLocked(i)
	}
	return true
}

// Find returns the named store. The store stays usable after a concurrent
// Deref; closed stores report that on their next operation.
func (l *List[S]) Find(name string) (S, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(name)
	if i < 0 {
		var zero S
		return zero, false
	}
	return l.entries[i].store, true
}

// Use runs fn on the named store while the list is locked, so the store
// cannot be removed while fn runs. fn must not call back into the list.
func (l *List[S]) Use(name string, fn func(S) error) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(name)
	if i < 0 {
		return false, nil
	}
	return true, fn(l.entries[i].store)
}

// Stores returns the stores in registration order
func (l *List[S]) Stores() []S {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]S, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.store
	}
	return out
}

// Each calls fn for each store in registration order until fn returns
// false. It iterates a snapshot, so fn may call back into the list.
func (l *List[S]) Each(fn func(S) bool) {
	for _, s := range l.Stores() {
		if !fn(s) {
			return
		}
	}
}

// Names returns the store names in registration order
func (l *List[S]) Names() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	names := make([]string, len(l.entries))
	for i, e := range l.entries {
		names[i] = e.store.Name()
	}
	return names
}

// RefCount returns the reference count of the named store, 0 if absent
func (l *List[S]) RefCount(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.indexLocked(name)
	if i < 0 {
		return 0
	}
	return l.entries[i].refs
}

// Len returns the number of stores
func (l *List[S]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Close removes every store regardless of its count
func (l *List[S]) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	var firstErr error
	for len(l.entries) > 0 {
		if err := l.removeLocked(len(l.entries) - 1); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (l *List[S]) indexLocked(name string) int {
	for i, e := range l.entries {
		if e.store.Name() == name {
			return i
		}
	}
	return -1
}

func (l *List[S]) removeLocked(i int) error {
	e := l.entries[i]
	l.entries = append(l.entries[:i], l.entries[i+1:]...)
	if c, ok := any(e.store).(io.Closer); ok {
		return c.Close()
	}
	return nil
}
