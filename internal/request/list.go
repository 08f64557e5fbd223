// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     request
// Description: Data handler list and its executors
// License:     MIT
// ============================================================================

package request

import (
	"strings"
	"sync"

	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/dhi"
)

// List holds one Handler per data type
type List struct {
	order    []string
	handlers map[string]Handler
	mu       sync.RWMutex
}

// NewList creates an empty list
func NewList() *List {
	return &List{handlers: make(map[string]Handler)}
}

// Add registers h; false if its data type is taken
func (l *List) Add(h Handler) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.handlers[h.Name()]; ok {
		return false
	}
	l.handlers[h.Name()] = h
	l.order = append(l.order, h.Name())
	return true
}

// Remove unregisters and returns the handler for name
func (l *List) Remove(name string) (Handler, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.handlers[name]
	if !ok {
		return nil, false
	}
	delete(l.handlers, name)
	for i, n := range l.order {
		if n == name {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	return h, true
}

// Find returns the handler for a data type
func (l *List) Find(name string) (Handler, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	h, ok := l.handlers[name]
	return h, ok
}

// Handlers returns the handlers in registration order
func (l *List) Handlers() []Handler {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Handler, len(l.order))
	for i, n := range l.order {
		out[i] = l.handlers[n]
	}
	return out
}

// Names returns the registered data types joined by ", "
func (l *List) Names() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return strings.Join(l.order, ", ")
}

// ExecuteEach runs the action's method for every valid container in
// selection order and records their real names in real_name_list. The
// first failure aborts the iteration.
func (l *List) ExecuteEach(d *dhi.ExecutionContext) error {
	d.Set(dhi.RealNameList, "")
	for c := d.FirstContainer(); c != nil; c = d.NextContainer() {
		if !c.Valid {
			continue
		}
		if err := l.ExecuteCurrent(d); err != nil {
			return err
		}
		appendRealName(d, c.RealName)
	}
	return nil
}

// ExecuteOnce runs the method of the first container's handler once; that
// method is expected to handle every container of the request.
func (l *List) ExecuteOnce(d *dhi.ExecutionContext) error {
	c := d.FirstContainer()
	if c == nil {
		return beserr.Internal("There are no containers to handle the response type '%s'", d.Action)
	}
	if err := l.ExecuteCurrent(d); err != nil {
		return err
	}
	d.Set(dhi.RealNameList, "")
	for _, c := range d.Containers {
		if c.Valid {
			appendRealName(d, c.RealName)
		}
	}
	return nil
}

// ExecuteAll runs the action's method of every registered handler that
// has one, in registration order, regardless of the selection.
func (l *List) ExecuteAll(d *dhi.ExecutionContext) error {
	for _, h := range l.Handlers() {
		fn, ok := h.FindMethod(d.Action)
		if !ok {
			continue
		}
		done, err := fn(d)
		if err != nil {
			return err
		}
		if !done {
			return beserr.Internal("Request handler for '%s' failed to handle the response type '%s'", h.Name(), d.Action)
		}
	}
	return nil
}

// ExecuteCurrent runs the action's method for the container under the
// cursor.
func (l *List) ExecuteCurrent(d *dhi.ExecutionContext) error {
	c := d.Current()
	if c == nil {
		return beserr.Internal("There is no current container to handle the response type '%s'", d.Action)
	}
	h, ok := l.Find(c.Type)
	if !ok {
		return beserr.Handler("The data handler '%s' does not exist", c.Type)
	}
	fn, ok := h.FindMethod(d.Action)
	if !ok {
		return beserr.Handler("Request handler for '%s' does not handle the response type '%s'", c.Type, d.Action)
	}
	done, err := fn(d)
	if err != nil {
		return err
	}
	if !done {
		return beserr.Internal("Request handler for '%s' failed to handle the response type '%s'", c.Type, d.Action)
	}
	return nil
}

func appendRealName(d *dhi.ExecutionContext, name string) {
	if list := d.Get(dhi.RealNameList); list != "" {
		d.Set(dhi.RealNameList, list+", "+name)
		return
	}
	d.Set(dhi.RealNameList, name)
}
