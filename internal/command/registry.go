// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     command
// Description: Legacy command registry and grammar
// License:     MIT
// ============================================================================

// Package command parses legacy text requests such as
// "get das for d1;" into an execution plan.
package command

import (
	"sort"
	"strings"
	"sync"

	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/container"
	"github.com/msto63/bes/internal/dhi"
	"github.com/msto63/bes/internal/response"
	"github.com/msto63/bes/internal/tokenizer"
	"github.com/msto63/bes/pkg/core/logging"
)

// Command parses one request. The tokenizer cursor is on the command's own
// keyword when ParseRequest is called.
type Command interface {
	ParseRequest(t *tokenizer.Tokenizer, d *dhi.ExecutionContext) (dhi.ResponseHandler, error)
}

type terminal struct{}

func (terminal) ParseRequest(t *tokenizer.Tokenizer, _ *dhi.ExecutionContext) (dhi.ResponseHandler, error) {
	return nil, beserr.Internal("a terminal command has no grammar of its own")
}

// Terminal marks a sub-command that is a leaf of its primary's grammar
// (e.g. "show.help"). It is never delegated to.
var Terminal Command = terminal{}

// IsTerminal reports whether c is the Terminal marker
func IsTerminal(c Command) bool {
	_, ok := c.(terminal)
	return ok
}

type entry struct {
	cmd  Command
	subs map[string]Command
}

// Registry holds the commands of the legacy grammar, keyed by primary
// keyword and optional sub keyword.
type Registry struct {
	entries    map[string]*entry
	responses  *response.Registry
	containers *container.List
	logger     *logging.Logger
	mu         sync.RWMutex
}

// NewRegistry creates an empty registry. Parsed commands find their
// response handlers in responses and their containers in containers.
func NewRegistry(responses *response.Registry, containers *container.List, logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Registry{
		entries:    make(map[string]*entry),
		responses:  responses,
		containers: containers,
		logger:     logger.Component("command-registry"),
	}
}

func splitName(name string) (primary, sub string) {
	if i := strings.IndexByte(name, '.'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return name, ""
}

// Add registers cmd as "primary" or "primary.sub". A name can be
// registered once.
func (r *Registry) Add(name string, cmd Command) error {
	primary, sub := splitName(name)
	if primary == "" || cmd == nil || (sub == "" && strings.Contains(name, ".")) {
		return beserr.Internal("Invalid command registration '%s'", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entries[primary]
	if e == nil {
		e = &entry{}
		r.entries[primary] = e
	}
	if sub == "" {
		if e.cmd != nil {
			return beserr.Internal("The command '%s' is already registered", name)
		}
		e.cmd = cmd
	} else {
		if _, ok := e.subs[sub]; ok {
			return beserr.Internal("The command '%s' is already registered", name)
		}
		if e.subs == nil {
			e.subs = make(map[string]Command)
		}
		e.subs[sub] = cmd
	}
	r.logger.Debug("command registered", "command", name)
	return nil
}

// Del removes name. Removing a primary keeps its sub-commands.
func (r *Registry) Del(name string) bool {
	primary, sub := splitName(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entries[primary]
	if e == nil {
		return false
	}
	if sub == "" {
		if e.cmd == nil {
			return false
		}
		e.cmd = nil
	} else {
		if _, ok := e.subs[sub]; !ok {
			return false
		}
		delete(e.subs, sub)
	}
	if e.cmd == nil && len(e.subs) == 0 {
		delete(r.entries, primary)
	}
	return true
}

// Find looks up "primary" or "primary.sub"
func (r *Registry) Find(name string) (Command, bool) {
	primary, sub := splitName(name)
	if sub != "" {
		return r.Sub(primary, sub)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e := r.entries[primary]; e != nil && e.cmd != nil {
		return e.cmd, true
	}
	return nil, false
}

// Sub looks up the sub-command sub of primary
func (r *Registry) Sub(primary, sub string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e := r.entries[primary]
	if e == nil {
		return nil, false
	}
	c, ok := e.subs[sub]
	return c, ok
}

// Names returns every registered name, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for primary, e := range r.entries {
		if e.cmd != nil {
			names = append(names, primary)
		}
		for sub := range e.subs {
			names = append(names, primary+"."+sub)
		}
	}
	sort.Strings(names)
	return names
}

// delegate returns the sub-command of primary that parses tok on its own
func (r *Registry) delegate(primary, tok string) (Command, bool) {
	c, ok := r.Sub(primary, tok)
	if !ok || IsTerminal(c) {
		return nil, false
	}
	return c, true
}

// respond selects action for d and creates its response handler
func (r *Registry) respond(d *dhi.ExecutionContext, action string) (dhi.ResponseHandler, error) {
	h, ok := r.responses.Find(action)
	if !ok {
		return nil, beserr.SyntaxUser("Unable to find the response handler for '%s'", action)
	}
	d.Action = action
	d.ResponseHandler = h
	return h, nil
}

// Parse tokenizes raw and runs the grammar of its first keyword into d
func Parse(r *Registry, raw string, d *dhi.ExecutionContext) (dhi.ResponseHandler, error) {
	t, err := tokenizer.Tokenize(raw)
	if err != nil {
		return nil, err
	}
	first, err := t.First()
	if err != nil {
		return nil, err
	}
	cmd, ok := r.Find(first)
	if !ok {
		return nil, beserr.SyntaxUser("Unknown command: '%s'", first)
	}
	h, err := cmd.ParseRequest(t, d)
	if err != nil {
		return nil, err
	}
	if consumed := len(t.Consumed()); consumed != t.Len() {
		return nil, t.ParseError("Unexpected text after the end of the command")
	}
	return h, nil
}
