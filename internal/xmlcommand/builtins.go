package xmlcommand

import (
	"strings"

	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/container"
	"github.com/msto63/bes/internal/dhi"
	"github.com/msto63/bes/internal/response"
	"github.com/msto63/bes/internal/tokenizer"
)

// RegisterBuiltins adds the core commands to r
func RegisterBuiltins(r *Registry) error {
	factories := map[string]Factory{
		"define":            newDefine,
		"get":               newGet,
		"setContainer":      newSetContainer,
		"setContext":        newSetContext,
		"deleteContainer":   newDelete("deleteContainer", response.ActionDeleteContainer, dhi.SymbolicName),
		"deleteContainers":  newDelete("deleteContainers", response.ActionDeleteContainers, ""),
		"deleteDefinition":  newDelete("deleteDefinition", response.ActionDeleteDefinition, dhi.DefName),
		"deleteDefinitions": newDelete("deleteDefinitions", response.ActionDeleteDefinitions, ""),
		"showError":         newShowError,
	}
	for _, leaf := range []string{"Help", "Version", "Status", "Context", "Containers", "Definitions", "Keys"} {
		factories["show"+leaf] = newShow("show"+leaf, "show."+strings.ToLower(leaf))
	}
	for name, f := range factories {
		if err := r.Add(name, f); err != nil {
			return err
		}
	}
	return nil
}

// containerSpec is a container element of define, resolved by PrepRequest
type containerSpec struct {
	name           string
	space          string
	constraint     string
	attributes     string
	dap4Constraint string
	dap4Function   string
}

type defineCommand struct {
	Base
	containers     []containerSpec
	dap4Constraint string
	dap4Function   string
}

func newDefine(base *dhi.ExecutionContext, deps *Deps) XMLCommand {
	return &defineCommand{Base: NewBase(base, deps)}
}

// ParseRequest parses
//
//	<define name="d" space="store">
//	    <constraint>default ce</constraint>
//	    <container name="c" space="store">
//	        <constraint>ce</constraint>
//	        <attributes>a,b</attributes>
//	    </container>
//	    <aggregate handler="h" cmd="c"/>
//	</define>
func (c *defineCommand) ParseRequest(n *Node) error {
	if err := checkName(n, "define"); err != nil {
		return err
	}
	name, err := required(n, "name")
	if err != nil {
		return err
	}
	d := c.d
	d.Set(dhi.DefName, name)
	if space, ok := n.Attr("space"); ok && space != "" {
		d.Set(dhi.StoreName, space)
	}

	for _, child := range n.Children {
		switch child.Name {
		case "container":
			spec, err := parseContainer(child)
			if err != nil {
				return err
			}
			c.containers = append(c.containers, spec)
		case "aggregate":
			handler, err := required(child, "handler")
			if err != nil {
				return err
			}
			cmd, err := required(child, "cmd")
			if err != nil {
				return err
			}
			d.Set(dhi.AggregationHandler, handler)
			d.Set(dhi.AggregationCommand, cmd)
		case "constraint":
			d.Set(dhi.DefaultConstraint, child.Value)
		case "dap4constraint":
			c.dap4Constraint = child.Value
		case "dap4function":
			c.dap4Function = child.Value
		default:
			return beserr.SyntaxUser("The define command does not accept a %s element", child.Name)
		}
	}
	if len(c.containers) == 0 {
		return beserr.SyntaxUser("The define command requires at least one container element")
	}

	d.Action = response.ActionDefine
	return c.SetResponse(c.text())
}

func parseContainer(n *Node) (containerSpec, error) {
	var spec containerSpec
	name, err := required(n, "name")
	if err != nil {
		return spec, err
	}
	spec.name = name
	spec.space, _ = n.Attr("space")

	seen := make(map[string]bool)
	for _, child := range n.Children {
		if seen[child.Name] {
			return spec, beserr.SyntaxUser("Container %s has more than one %s element", name, child.Name)
		}
		seen[child.Name] = true
		if len(child.Attrs) > 0 {
			return spec, beserr.SyntaxUser("The %s element of container %s takes no attributes", child.Name, name)
		}
		if child.Value == "" {
			return spec, beserr.SyntaxUser("The %s element of container %s must not be empty", child.Name, name)
		}
		switch child.Name {
		case "constraint":
			spec.constraint = child.Value
		case "attributes":
			spec.attributes = child.Value
		case "dap4constraint":
			spec.dap4Constraint = child.Value
		case "dap4function":
			spec.dap4Function = child.Value
		default:
			return spec, beserr.SyntaxUser("Container %s does not accept a %s element", name, child.Name)
		}
	}
	return spec, nil
}

// PrepRequest resolves the containers. A container declared by a
// setContainer of the same document is used before the stores.
func (c *defineCommand) PrepRequest() error {
	for _, spec := range c.containers {
		found, ok := c.doc.lookup(spec.space, spec.name)
		if !ok {
			var err error
			if found, err = c.resolve(spec); err != nil {
				return err
			}
		}
		if found == nil {
			return beserr.SyntaxUser("Could not find the container %s", spec.name)
		}

		found.Constraint = firstOf(spec.constraint, c.d.Get(dhi.DefaultConstraint))
		found.Attributes = spec.attributes
		found.DAP4Constraint = firstOf(spec.dap4Constraint, c.dap4Constraint)
		found.DAP4Function = firstOf(spec.dap4Function, c.dap4Function)
		c.d.AddContainer(found)
	}
	return nil
}

// resolve looks spec up in its store, or in every store in order
func (c *defineCommand) resolve(spec containerSpec) (*dhi.Container, error) {
	ctx := c.d.Context()
	stores := c.deps.Containers.Stores()
	if spec.space != "" {
		store, ok := c.deps.Containers.Find(spec.space)
		if !ok {
			return nil, beserr.SyntaxUser("The container store %s does not exist", spec.space)
		}
		stores = []container.Storage{store}
	}
	for _, store := range stores {
		found, ok, err := store.LookFor(ctx, spec.name)
		if err != nil {
			return nil, err
		}
		if ok {
			return found, nil
		}
	}
	return nil, nil
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// text renders the command in the legacy grammar
func (c *defineCommand) text() string {
	var b strings.Builder
	b.WriteString("define " + c.d.Get(dhi.DefName))
	if store := c.d.Get(dhi.StoreName); store != "" {
		b.WriteString(" in " + store)
	}
	names := make([]string, len(c.containers))
	var props []string
	for i, spec := range c.containers {
		names[i] = spec.name
		if spec.constraint != "" {
			props = append(props, spec.name+`.constraint="`+tokenizer.Escape(spec.constraint)+`"`)
		}
		if spec.attributes != "" {
			props = append(props, spec.name+`.attributes="`+tokenizer.Escape(spec.attributes)+`"`)
		}
	}
	b.WriteString(" as " + strings.Join(names, ","))
	if len(props) > 0 {
		b.WriteString(" with " + strings.Join(props, ","))
	}
	if ce := c.d.Get(dhi.DefaultConstraint); ce != "" {
		b.WriteString(` constraint "` + tokenizer.Escape(ce) + `"`)
	}
	if cmd := c.d.Get(dhi.AggregationCommand); cmd != "" {
		b.WriteString(" aggregate using " + c.d.Get(dhi.AggregationHandler) + ` by "` + tokenizer.Escape(cmd) + `"`)
	}
	b.WriteString(";")
	return b.String()
}

type getCommand struct {
	Base
}

func newGet(base *dhi.ExecutionContext, deps *Deps) XMLCommand {
	return &getCommand{Base: NewBase(base, deps)}
}

// ParseRequest parses <get type="dds" definition="d" returnAs="name"/>
func (c *getCommand) ParseRequest(n *Node) error {
	if err := checkName(n, "get"); err != nil {
		return err
	}
	typ, err := required(n, "type")
	if err != nil {
		return err
	}
	def, err := required(n, "definition")
	if err != nil {
		return err
	}
	d := c.d
	d.Set(dhi.DefName, def)
	text := "get " + typ + " for " + def
	optional := []struct{ attr, key, clause string }{
		{"returnAs", dhi.ReturnCommand, " return as "},
		{"url", dhi.URL, " using "},
		{"contentStartId", dhi.ContentStartID, " contentStartId "},
		{"mimeBoundary", dhi.MimeBoundary, " mimeBoundary "},
	}
	for _, o := range optional {
		if v, ok := n.Attr(o.attr); ok && v != "" {
			d.Set(o.key, v)
			text += o.clause + v
		}
	}
	d.Action = "get." + typ
	return c.SetResponse(text + ";")
}

func (c *getCommand) HasResponse() bool {
	return true
}

type setContainerCommand struct {
	Base
}

func newSetContainer(base *dhi.ExecutionContext, deps *Deps) XMLCommand {
	return &setContainerCommand{Base: NewBase(base, deps)}
}

// ParseRequest parses <setContainer name="c" space="store" type="csv">real</setContainer>
func (c *setContainerCommand) ParseRequest(n *Node) error {
	if err := checkName(n, "setContainer"); err != nil {
		return err
	}
	name, err := required(n, "name")
	if err != nil {
		return err
	}
	if n.Value == "" {
		return beserr.SyntaxUser("The setContainer command requires the real name of container %s", name)
	}
	d := c.d
	d.Set(dhi.SymbolicName, name)
	d.Set(dhi.RealName, n.Value)
	text := "set container"
	if space, ok := n.Attr("space"); ok && space != "" {
		d.Set(dhi.StoreName, space)
		text += " in " + space
	}
	text += " values " + name + "," + n.Value
	if typ, ok := n.Attr("type"); ok && typ != "" {
		d.Set(dhi.ContainerType, typ)
		text += "," + typ
	}
	d.Action = response.ActionSetContainer
	return c.SetResponse(text + ";")
}

func (c *setContainerCommand) declares() (string, *dhi.Container) {
	store := firstOf(c.d.Get(dhi.StoreName), dhi.DefaultStore)
	return store, dhi.NewContainer(c.d.Get(dhi.SymbolicName), c.d.Get(dhi.RealName), c.d.Get(dhi.ContainerType))
}

type setContextCommand struct {
	Base
}

func newSetContext(base *dhi.ExecutionContext, deps *Deps) XMLCommand {
	return &setContextCommand{Base: NewBase(base, deps)}
}

// ParseRequest parses <setContext name="n">value</setContext>. The
// context is set when the command executes, before later commands run.
func (c *setContextCommand) ParseRequest(n *Node) error {
	if err := checkName(n, "setContext"); err != nil {
		return err
	}
	name, err := required(n, "name")
	if err != nil {
		return err
	}
	c.d.Set(dhi.ContextName, name)
	c.d.Set(dhi.ContextValue, n.Value)
	c.d.Action = response.ActionSetContext
	return c.SetResponse("set context " + name + " to " + n.Value + ";")
}

type deleteCommand struct {
	Base
	element string
	action  string
	key     string
}

func newDelete(element, action, key string) Factory {
	return func(base *dhi.ExecutionContext, deps *Deps) XMLCommand {
		return &deleteCommand{Base: NewBase(base, deps), element: element, action: action, key: key}
	}
}

// ParseRequest parses the delete commands, e.g.
// <deleteContainer name="c" space="store"/> or <deleteDefinitions/>
func (c *deleteCommand) ParseRequest(n *Node) error {
	if err := checkName(n, c.element); err != nil {
		return err
	}
	words := strings.SplitN(c.action, ".", 2)
	text := "delete " + words[1]
	if c.key != "" {
		name, err := required(n, "name")
		if err != nil {
			return err
		}
		c.d.Set(c.key, name)
		text += " " + name
	}
	if space, ok := n.Attr("space"); ok && space != "" {
		c.d.Set(dhi.StoreName, space)
		text += " from " + space
	}
	c.d.Action = c.action
	return c.SetResponse(text + ";")
}

type showErrorCommand struct {
	Base
}

func newShowError(base *dhi.ExecutionContext, deps *Deps) XMLCommand {
	return &showErrorCommand{Base: NewBase(base, deps)}
}

// ParseRequest parses <showError type="3"/>
func (c *showErrorCommand) ParseRequest(n *Node) error {
	if err := checkName(n, "showError"); err != nil {
		return err
	}
	typ, err := required(n, "type")
	if err != nil {
		return err
	}
	c.d.Set(dhi.ShowErrorType, typ)
	c.d.Action = response.ActionShowError
	return c.SetResponse("show error " + typ + ";")
}

func (c *showErrorCommand) HasResponse() bool {
	return true
}

type showCommand struct {
	Base
	element string
	action  string
}

func newShow(element, action string) Factory {
	return func(base *dhi.ExecutionContext, deps *Deps) XMLCommand {
		return &showCommand{Base: NewBase(base, deps), element: element, action: action}
	}
}

func (c *showCommand) ParseRequest(n *Node) error {
	if err := checkName(n, c.element); err != nil {
		return err
	}
	c.d.Action = c.action
	return c.SetResponse(strings.Replace(c.action, ".", " ", 1) + ";")
}

func (c *showCommand) HasResponse() bool {
	return true
}
