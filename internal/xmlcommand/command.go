// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     xmlcommand
// Description: XML command registry and document planning
// License:     MIT
// ============================================================================

package xmlcommand

import (
	"sort"
	"sync"

	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/container"
	"github.com/msto63/bes/internal/dhi"
	"github.com/msto63/bes/internal/response"
	"github.com/msto63/bes/pkg/core/logging"
)

// XMLCommand is one command element of a request document. It works on
// its own copy of the request context.
type XMLCommand interface {
	// ParseRequest fills the context from the element
	ParseRequest(n *Node) error
	// HasResponse reports whether the command's response is the one sent
	HasResponse() bool
	// PrepRequest runs once every command of the document is parsed
	PrepRequest() error
	Context() *dhi.ExecutionContext
}

// Deps are the server registries commands consult while parsing
type Deps struct {
	Responses  *response.Registry
	Containers *container.List
	Logger     *logging.Logger
}

// Factory creates a command working on a copy of base
type Factory func(base *dhi.ExecutionContext, deps *Deps) XMLCommand

// Registry maps element names to command factories
type Registry struct {
	factories map[string]Factory
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Add registers f for element name
func (r *Registry) Add(name string, f Factory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return beserr.Internal("The XML command '%s' is already registered", name)
	}
	r.factories[name] = f
	return nil
}

// Del unregisters name
func (r *Registry) Del(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; !ok {
		return false
	}
	delete(r.factories, name)
	return true
}

// Find returns the factory for element name
func (r *Registry) Find(name string) (Factory, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factories[name]
	return f, ok
}

// Names returns the registered element names, sorted
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

// Base implements the parts shared by all commands. Commands embed it.
type Base struct {
	d    *dhi.ExecutionContext
	deps *Deps
	doc  *document
}

// document is what the commands of one request share during preparation
type document struct {
	// containers declared by setContainer commands, by symbolic name
	containers map[string]declared
}

type declared struct {
	store     string
	container *dhi.Container
}

// declarer is a command that creates a container when executed
type declarer interface {
	declares() (store string, c *dhi.Container)
}

func (b *Base) bind(doc *document) {
	b.doc = doc
}

// lookup finds a container declared in the same document
func (doc *document) lookup(store, name string) (*dhi.Container, bool) {
	if doc == nil {
		return nil, false
	}
	decl, ok := doc.containers[name]
	if !ok || (store != "" && store != decl.store) {
		return nil, false
	}
	return decl.container.Clone(), true
}

// NewBase copies base for a new command
func NewBase(base *dhi.ExecutionContext, deps *Deps) Base {
	return Base{d: base.Clone(), deps: deps}
}

func (b *Base) Context() *dhi.ExecutionContext {
	return b.d
}

func (b *Base) HasResponse() bool {
	return false
}

func (b *Base) PrepRequest() error {
	return nil
}

// SetResponse creates the response handler for the context's action and
// logs the command, rendered as text.
func (b *Base) SetResponse(text string) error {
	h, ok := b.deps.Responses.Find(b.d.Action)
	if !ok {
		return beserr.SyntaxUser("The response handler '%s' does not exist", b.d.Action)
	}
	b.d.ResponseHandler = h
	b.d.Set(dhi.LogInfo, text)
	if b.deps.Logger != nil {
		b.deps.Logger.Info("request received",
			"origin", b.d.Transport.Origin,
			"command", text)
	}
	return nil
}

// checkName fails unless n is the element the command parses
func checkName(n *Node, want string) error {
	if n.Name != want {
		return beserr.SyntaxUser("The %s command cannot parse a %s element", want, n.Name)
	}
	return nil
}

// required returns a non-empty attribute or a syntax error naming it
func required(n *Node, attr string) (string, error) {
	v, ok := n.Attr(attr)
	if !ok || v == "" {
		return "", beserr.SyntaxUser("The %s command requires the %s attribute", n.Name, attr)
	}
	return v, nil
}

// Plan parses a request document. base receives the document's request
// id and is copied for every command. Every command is parsed before any
// is prepared, so commands may refer to each other in any order; a define
// may use a container that a setContainer of the same document creates.
func Plan(r *Registry, deps *Deps, doc *Node, base *dhi.ExecutionContext) ([]XMLCommand, error) {
	if doc.Name != "request" {
		return nil, beserr.SyntaxUser("The root element of a request must be request, found %s", doc.Name)
	}
	reqID, ok := doc.Attr("reqID")
	if !ok {
		reqID, _ = doc.Attr("id")
	}
	if reqID == "" {
		return nil, beserr.SyntaxUser("The request element must have a reqID attribute")
	}
	if doc.Value != "" {
		return nil, beserr.SyntaxUser("The request element must not contain a value")
	}
	base.Transport.RequestID = reqID
	base.Set(dhi.RequestID, reqID)

	var cmds []XMLCommand
	responding := ""
	for _, child := range doc.Children {
		f, ok := r.Find(child.Name)
		if !ok {
			return nil, beserr.SyntaxUser("Unable to find command %s", child.Name)
		}
		cmd := f(base, deps)
		if err := cmd.ParseRequest(child); err != nil {
			return nil, err
		}
		if cmd.HasResponse() {
			if responding != "" {
				return nil, beserr.SyntaxUser("Commands %s and %s both return a response. Only one command per request may return a response",
					responding, child.Name)
			}
			responding = child.Name
		}
		cmds = append(cmds, cmd)
	}
	if len(cmds) == 0 {
		return nil, beserr.SyntaxUser("The request document contains no commands")
	}

	decl := &document{containers: make(map[string]declared)}
	for _, cmd := range cmds {
		if dc, ok := cmd.(declarer); ok {
			store, c := dc.declares()
			decl.containers[c.SymbolicName] = declared{store: store, container: c}
		}
		if b, ok := cmd.(interface{ bind(*document) }); ok {
			b.bind(decl)
		}
	}
	for _, cmd := range cmds {
		if err := cmd.PrepRequest(); err != nil {
			return nil, err
		}
	}
	return cmds, nil
}
