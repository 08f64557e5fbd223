package command

import (
	"github.com/msto63/bes/internal/dhi"
	"github.com/msto63/bes/internal/response"
	"github.com/msto63/bes/internal/tokenizer"
)

// ShowLeaves are the show sub-commands that take no arguments
var ShowLeaves = []string{"help", "version", "status", "context", "containers", "definitions", "keys"}

// RegisterBuiltins adds the core grammar to r
func RegisterBuiltins(r *Registry) error {
	cmds := []struct {
		name string
		cmd  Command
	}{
		{"define", &defineCommand{reg: r}},
		{"get", &getCommand{reg: r}},
		{"set", &baseCommand{reg: r, name: "set"}},
		{"set.container", &setContainerCommand{reg: r}},
		{"set.context", &setContextCommand{reg: r}},
		{"delete", &deleteCommand{reg: r}},
		{"delete.container", &deleteOneCommand{reg: r, action: response.ActionDeleteContainer, key: dhi.SymbolicName}},
		{"delete.containers", &deleteAllCommand{reg: r, action: response.ActionDeleteContainers}},
		{"delete.definition", &deleteOneCommand{reg: r, action: response.ActionDeleteDefinition, key: dhi.DefName}},
		{"delete.definitions", &deleteAllCommand{reg: r, action: response.ActionDeleteDefinitions}},
		{"show", &showCommand{reg: r}},
		{"show.error", &showErrorCommand{reg: r}},
	}
	for _, c := range cmds {
		if err := r.Add(c.name, c.cmd); err != nil {
			return err
		}
	}
	for _, leaf := range ShowLeaves {
		if err := r.Add("show."+leaf, Terminal); err != nil {
			return err
		}
	}
	return nil
}

// expectEnd consumes the terminating semicolon
func expectEnd(t *tokenizer.Tokenizer) error {
	tok, err := t.Next()
	if err != nil {
		return err
	}
	if tok != ";" {
		return t.ParseError("Expected ; but found " + tok)
	}
	return nil
}

// word consumes a token that must not be punctuation
func word(t *tokenizer.Tokenizer, what string) (string, error) {
	tok, err := t.Next()
	if err != nil {
		return "", err
	}
	if tok == ";" || tok == "," {
		return "", t.ParseError("Expected " + what + " but found " + tok)
	}
	return tok, nil
}

// optionalStore parses "[<keyword> <store>] ;"
func optionalStore(t *tokenizer.Tokenizer, d *dhi.ExecutionContext, keyword string) error {
	tok, err := t.Next()
	if err != nil {
		return err
	}
	if tok == ";" {
		return nil
	}
	if tok != keyword {
		return t.ParseError("Expected " + keyword + " or ; but found " + tok)
	}
	store, err := word(t, "the name of a store")
	if err != nil {
		return err
	}
	d.Set(dhi.StoreName, store)
	return expectEnd(t)
}

// baseCommand is a primary keyword with no grammar beyond its
// sub-commands, such as set.
type baseCommand struct {
	reg  *Registry
	name string
}

func (c *baseCommand) ParseRequest(t *tokenizer.Tokenizer, d *dhi.ExecutionContext) (dhi.ResponseHandler, error) {
	tok, err := t.Next()
	if err != nil {
		return nil, err
	}
	if sub, ok := c.reg.delegate(c.name, tok); ok {
		return sub.ParseRequest(t, d)
	}
	return nil, t.ParseError("Unknown " + c.name + " command " + tok)
}

// get <type> for <def> [return as <name>] [using <url>]
// [contentStartId <id>] [mimeBoundary <boundary>] ;
type getCommand struct {
	reg *Registry
}

func (c *getCommand) ParseRequest(t *tokenizer.Tokenizer, d *dhi.ExecutionContext) (dhi.ResponseHandler, error) {
	typ, err := word(t, "a response type")
	if err != nil {
		return nil, err
	}
	if sub, ok := c.reg.delegate("get", typ); ok {
		return sub.ParseRequest(t, d)
	}
	if err := t.Expect("for"); err != nil {
		return nil, err
	}
	def, err := word(t, "the name of a definition")
	if err != nil {
		return nil, err
	}
	d.Set(dhi.DefName, def)

	options := map[string]string{
		"using":          dhi.URL,
		"contentStartId": dhi.ContentStartID,
		"mimeBoundary":   dhi.MimeBoundary,
	}
	for {
		tok, err := t.Next()
		if err != nil {
			return nil, err
		}
		if tok == ";" {
			break
		}
		if tok == "return" {
			if err := t.Expect("as"); err != nil {
				return nil, err
			}
			name, err := word(t, "a return format")
			if err != nil {
				return nil, err
			}
			d.Set(dhi.ReturnCommand, name)
			continue
		}
		key, ok := options[tok]
		if !ok {
			return nil, t.ParseError("Expected return, using, contentStartId, mimeBoundary or ; but found " + tok)
		}
		value, err := word(t, "a value for "+tok)
		if err != nil {
			return nil, err
		}
		if tokenizer.IsQuoted(value) {
			value = value[1 : len(value)-1]
		}
		d.Set(key, value)
	}

	action := "get." + typ
	if _, ok := c.reg.responses.Find(action); !ok {
		return nil, t.ParseError("The response type " + typ + " is not supported")
	}
	return c.reg.respond(d, action)
}

// set container [silently] [in <store>] values <sym>,<real>[,<type>] ;
type setContainerCommand struct {
	reg *Registry
}

func (c *setContainerCommand) ParseRequest(t *tokenizer.Tokenizer, d *dhi.ExecutionContext) (dhi.ResponseHandler, error) {
	tok, err := t.Next()
	if err != nil {
		return nil, err
	}
	if tok == "silently" {
		d.Set(dhi.Silent, "yes")
		if tok, err = t.Next(); err != nil {
			return nil, err
		}
	}
	if tok == "in" {
		store, err := word(t, "the name of a container store")
		if err != nil {
			return nil, err
		}
		d.Set(dhi.StoreName, store)
		if tok, err = t.Next(); err != nil {
			return nil, err
		}
	}
	if tok != "values" {
		return nil, t.ParseError("Expected values but found " + tok)
	}

	sym, err := word(t, "a symbolic name")
	if err != nil {
		return nil, err
	}
	if err := t.Expect(","); err != nil {
		return nil, err
	}
	realName, err := word(t, "a real name")
	if err != nil {
		return nil, err
	}
	d.Set(dhi.SymbolicName, sym)
	d.Set(dhi.RealName, realName)

	tok, err = t.Next()
	if err != nil {
		return nil, err
	}
	if tok == "," {
		typ, err := word(t, "a data type")
		if err != nil {
			return nil, err
		}
		d.Set(dhi.ContainerType, typ)
		if tok, err = t.Next(); err != nil {
			return nil, err
		}
	}
	if tok != ";" {
		return nil, t.ParseError("Expected ; but found " + tok)
	}
	return c.reg.respond(d, response.ActionSetContainer)
}

// set context <name> to <value> ;
type setContextCommand struct {
	reg *Registry
}

func (c *setContextCommand) ParseRequest(t *tokenizer.Tokenizer, d *dhi.ExecutionContext) (dhi.ResponseHandler, error) {
	name, err := word(t, "the name of a context")
	if err != nil {
		return nil, err
	}
	if err := t.Expect("to"); err != nil {
		return nil, err
	}
	value, err := word(t, "a context value")
	if err != nil {
		return nil, err
	}
	if tokenizer.IsQuoted(value) {
		value = value[1 : len(value)-1]
	}
	if err := expectEnd(t); err != nil {
		return nil, err
	}
	d.Set(dhi.ContextName, name)
	d.Set(dhi.ContextValue, value)
	return c.reg.respond(d, response.ActionSetContext)
}

// delete [silently] <sub> ...
type deleteCommand struct {
	reg *Registry
}

func (c *deleteCommand) ParseRequest(t *tokenizer.Tokenizer, d *dhi.ExecutionContext) (dhi.ResponseHandler, error) {
	tok, err := t.Next()
	if err != nil {
		return nil, err
	}
	if sub, ok := c.reg.delegate("delete", tok); ok {
		return sub.ParseRequest(t, d)
	}
	if tok != "silently" {
		return nil, t.ParseError("Unknown delete command " + tok)
	}
	d.Set(dhi.Silent, "yes")
	if tok, err = t.Next(); err != nil {
		return nil, err
	}
	if sub, ok := c.reg.delegate("delete", tok); ok {
		return sub.ParseRequest(t, d)
	}
	return nil, t.ParseError("Unknown delete command " + tok)
}

// delete container|definition <name> [from <store>] ;
type deleteOneCommand struct {
	reg    *Registry
	action string
	key    string
}

func (c *deleteOneCommand) ParseRequest(t *tokenizer.Tokenizer, d *dhi.ExecutionContext) (dhi.ResponseHandler, error) {
	name, err := word(t, "a name to delete")
	if err != nil {
		return nil, err
	}
	d.Set(c.key, name)
	if err := optionalStore(t, d, "from"); err != nil {
		return nil, err
	}
	return c.reg.respond(d, c.action)
}

// delete containers|definitions [from <store>] ;
type deleteAllCommand struct {
	reg    *Registry
	action string
}

func (c *deleteAllCommand) ParseRequest(t *tokenizer.Tokenizer, d *dhi.ExecutionContext) (dhi.ResponseHandler, error) {
	if err := optionalStore(t, d, "from"); err != nil {
		return nil, err
	}
	return c.reg.respond(d, c.action)
}

// show <leaf> ; or a registered show sub-command
type showCommand struct {
	reg *Registry
}

func (c *showCommand) ParseRequest(t *tokenizer.Tokenizer, d *dhi.ExecutionContext) (dhi.ResponseHandler, error) {
	tok, err := t.Next()
	if err != nil {
		return nil, err
	}
	if sub, ok := c.reg.delegate("show", tok); ok {
		return sub.ParseRequest(t, d)
	}
	if _, ok := c.reg.Sub("show", tok); !ok {
		return nil, t.ParseError("Unknown show command " + tok)
	}
	if err := expectEnd(t); err != nil {
		return nil, err
	}
	return c.reg.respond(d, "show."+tok)
}

// show error <1-5> ;
type showErrorCommand struct {
	reg *Registry
}

func (c *showErrorCommand) ParseRequest(t *tokenizer.Tokenizer, d *dhi.ExecutionContext) (dhi.ResponseHandler, error) {
	typ, err := word(t, "an error type")
	if err != nil {
		return nil, err
	}
	if err := expectEnd(t); err != nil {
		return nil, err
	}
	d.Set(dhi.ShowErrorType, typ)
	return c.reg.respond(d, response.ActionShowError)
}
