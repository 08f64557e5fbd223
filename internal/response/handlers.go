// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     response
// Description: Built-in response handlers
// License:     MIT
// ============================================================================

package response

import (
	"strconv"
	"strings"
	"time"

	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/definition"
	"github.com/msto63/bes/internal/dhi"
	"github.com/msto63/bes/internal/keys"
	"github.com/msto63/bes/pkg/core/version"
)

// Built-in actions
const (
	ActionDAS               = "get.das"
	ActionDDS               = "get.dds"
	ActionData              = "get.dods"
	ActionDDX               = "get.ddx"
	ActionDefine            = "define"
	ActionSetContainer      = "set.container"
	ActionSetContext        = "set.context"
	ActionDeleteContainer   = "delete.container"
	ActionDeleteContainers  = "delete.containers"
	ActionDeleteDefinition  = "delete.definition"
	ActionDeleteDefinitions = "delete.definitions"
	ActionShowError         = "show.error"
	ActionShowHelp          = "show.help"
	ActionShowVersion       = "show.version"
	ActionShowStatus        = "show.status"
	ActionShowContext       = "show.context"
	ActionShowContainers    = "show.containers"
	ActionShowDefinitions   = "show.definitions"
	ActionShowKeys          = "show.keys"
	ActionNull              = "null"
)

// HelpFormatContext is the context setting that switches help to HTML
const HelpFormatContext = "help_format"

// coreHelp is the help section of the dispatcher itself
var coreHelp = []string{
	`define <def> [in <store>] as <c>[,<c>...] [with <c>.constraint="<ce>"[,<c>.attributes="<a>"]...] [aggregate using <handler> by "<cmd>"];`,
	`get das|dds|dods|ddx for <def> [return as <name>];`,
	`set container [in <store>] values <sym>,<real>[,<type>];`,
	`set context <name> to <value>;`,
	`delete container <name> [from <store>];`,
	`delete containers [from <store>];`,
	`delete definition <name> [from <store>];`,
	`delete definitions [from <store>];`,
	`show help|version|status|context|containers|definitions|keys;`,
	`show error <1-5>;`,
}

type executeFunc func(h *handler, d *dhi.ExecutionContext) error
type transmitFunc func(h *handler, t dhi.Transmitter, d *dhi.ExecutionContext) error

// handler is the table-driven ResponseHandler behind every built-in action
type handler struct {
	name     string
	deps     *Deps
	response dhi.Response
	execute  executeFunc
	transmit transmitFunc
}

func (h *handler) Name() string {
	return h.name
}

func (h *handler) Execute(d *dhi.ExecutionContext) error {
	if h.execute == nil {
		return nil
	}
	return h.execute(h, d)
}

func (h *handler) Transmit(t dhi.Transmitter, d *dhi.ExecutionContext) error {
	if h.response == nil || h.transmit == nil {
		return nil
	}
	return h.transmit(h, t, d)
}

func (h *handler) Response() any {
	if h.response == nil {
		return nil
	}
	return h.response
}

// NewFactory builds a factory for a table-driven handler. Either function
// may be nil.
func NewFactory(action string, execute executeFunc, transmit transmitFunc) Factory {
	return func(deps *Deps) dhi.ResponseHandler {
		return &handler{name: action, deps: deps, execute: execute, transmit: transmit}
	}
}

// RegisterBuiltins adds every built-in action to r
func RegisterBuiltins(r *Registry) {
	builtins := []struct {
		action   string
		execute  executeFunc
		transmit transmitFunc
	}{
		{ActionDAS, executeGet(KindDAS, false), sendData},
		{ActionDDS, executeGet(KindDDS, false), sendData},
		{ActionData, executeGet(KindData, false), sendData},
		{ActionDDX, executeGet(KindDDX, true), sendData},
		{ActionDefine, executeDefine, sendText},
		{ActionSetContainer, executeSetContainer, sendText},
		{ActionSetContext, executeSetContext, sendText},
		{ActionDeleteContainer, executeDeleteContainer, sendText},
		{ActionDeleteContainers, executeDeleteContainers, sendText},
		{ActionDeleteDefinition, executeDeleteDefinition, sendText},
		{ActionDeleteDefinitions, executeDeleteDefinitions, sendText},
		{ActionShowError, executeShowError, sendText},
		{ActionShowHelp, executeShowHelp, sendHelp},
		{ActionShowVersion, executeShowVersion, sendText},
		{ActionShowStatus, executeShowStatus, sendText},
		{ActionShowContext, executeShowContext, sendText},
		{ActionShowContainers, executeShowContainers, sendText},
		{ActionShowDefinitions, executeShowDefinitions, sendText},
		{ActionShowKeys, executeShowKeys, sendText},
		{ActionNull, nil, nil},
	}
	for _, b := range builtins {
		r.Add(b.action, NewFactory(b.action, b.execute, b.transmit))
	}
}

// InfoKind returns the XML element name of the info answering action
func InfoKind(action string) string {
	parts := strings.Split(action, ".")
	for i := 1; i < len(parts); i++ {
		if parts[i] != "" {
			parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
		}
	}
	return strings.Join(parts, "")
}

func sendText(h *handler, t dhi.Transmitter, d *dhi.ExecutionContext) error {
	return t.SendText(h.response, d)
}

func sendHelp(h *handler, t dhi.Transmitter, d *dhi.ExecutionContext) error {
	if format, ok := h.contexts(d).Get(HelpFormatContext); ok && format == "html" && !d.IsXML() {
		return t.SendHTML(h.response, d)
	}
	return t.SendText(h.response, d)
}

func sendData(h *handler, t dhi.Transmitter, d *dhi.ExecutionContext) error {
	resp, ok := h.response.(*DataResponse)
	if !ok {
		return t.SendText(h.response, d)
	}
	switch resp.Kind {
	case KindDAS:
		return t.SendDAS(resp, d)
	case KindDDS:
		return t.SendDDS(resp, d)
	case KindData:
		return t.SendData(resp, d)
	default:
		return t.SendDDX(resp, d)
	}
}

// info starts the info response of h
func (h *handler) info(d *dhi.ExecutionContext) *Info {
	info := NewInfo(d, InfoKind(h.name))
	h.response = info
	return info
}

// contexts returns the settings of the client d came from
func (h *handler) contexts(d *dhi.ExecutionContext) *dhi.ContextManager {
	if d.Settings != nil {
		return d.Settings
	}
	return h.deps.Contexts
}

// confirm answers a state-changing command with msg unless it is silent
func (h *handler) confirm(d *dhi.ExecutionContext, msg string) {
	info := h.info(d)
	if !d.IsSilent() && msg != "" {
		info.AddData(msg + "\n")
	}
}

func storeName(d *dhi.ExecutionContext) string {
	if s := d.Get(dhi.StoreName); s != "" {
		return s
	}
	return dhi.DefaultStore
}

func executeGet(kind Kind, once bool) executeFunc {
	return func(h *handler, d *dhi.ExecutionContext) error {
		if err := resolveDefinition(h.deps, d); err != nil {
			return err
		}
		h.response = NewDataResponse(kind)
		if once {
			return h.deps.Requests.ExecuteOnce(d)
		}
		return h.deps.Requests.ExecuteEach(d)
	}
}

// resolveDefinition loads the containers of the requested definition into
// the selection.
func resolveDefinition(deps *Deps, d *dhi.ExecutionContext) error {
	name := d.Get(dhi.DefName)
	if name == "" {
		if len(d.Containers) > 0 {
			return nil
		}
		return beserr.SyntaxUser("No definition was specified for the %s request", d.Action)
	}
	def, ok, err := deps.Definitions.LookFor(d.Context(), name)
	if err != nil {
		return err
	}
	if !ok {
		return beserr.SyntaxUser("Unable to find definition %s", name)
	}
	d.Containers = nil
	for _, c := range def.Containers {
		d.AddContainer(c)
	}
	if def.AggCmd != "" {
		d.Set(dhi.AggregationHandler, def.AggHandler)
		d.Set(dhi.AggregationCommand, def.AggCmd)
	}
	return nil
}

func executeDefine(h *handler, d *dhi.ExecutionContext) error {
	name := d.Get(dhi.DefName)
	store := storeName(d)
	storage, ok := h.deps.Definitions.Find(store)
	if !ok {
		return beserr.SyntaxUser("Unable to add definition %s, the definition store %s does not exist", name, store)
	}
	if len(d.Containers) == 0 {
		return beserr.SyntaxUser("Unable to add definition %s, it names no containers", name)
	}

	def := &definition.Definition{
		Name:       name,
		AggHandler: d.Get(dhi.AggregationHandler),
		AggCmd:     d.Get(dhi.AggregationCommand),
	}
	defaultCE := d.Get(dhi.DefaultConstraint)
	for _, c := range d.Containers {
		cp := c.Clone()
		if cp.Constraint == "" {
			cp.Constraint = defaultCE
		}
		def.Containers = append(def.Containers, cp)
	}

	// define replaces an existing definition of the same name
	if _, err := storage.Del(d.Context(), name); err != nil {
		return err
	}
	added, err := storage.Add(d.Context(), def)
	if err != nil {
		return err
	}
	if !added {
		return beserr.Internal("Unable to add definition %s to the definition store %s", name, store)
	}
	h.confirm(d, "Successfully added definition "+name+" to definition store "+store)
	return nil
}

func executeSetContainer(h *handler, d *dhi.ExecutionContext) error {
	sym := d.Get(dhi.SymbolicName)
	store := storeName(d)
	storage, ok := h.deps.Containers.Find(store)
	if !ok {
		return beserr.SyntaxUser("Unable to add container %s, the container store %s does not exist", sym, store)
	}
	if err := storage.Add(d.Context(), sym, d.Get(dhi.RealName), d.Get(dhi.ContainerType)); err != nil {
		return err
	}
	h.confirm(d, "Successfully added container "+sym+" to container store "+store)
	return nil
}

func executeSetContext(h *handler, d *dhi.ExecutionContext) error {
	h.contexts(d).Set(d.Get(dhi.ContextName), d.Get(dhi.ContextValue))
	h.info(d)
	return nil
}

func executeDeleteContainer(h *handler, d *dhi.ExecutionContext) error {
	sym := d.Get(dhi.SymbolicName)
	store := d.Get(dhi.StoreName)
	if store == "" {
		deleted, err := h.deps.Containers.DeleteContainer(d.Context(), sym)
		if err != nil {
			return err
		}
		if !deleted {
			return beserr.SyntaxUser("Unable to delete container. The container %s does not exist", sym)
		}
		h.confirm(d, "Successfully deleted container "+sym)
		return nil
	}

	storage, ok := h.deps.Containers.Find(store)
	if !ok {
		return beserr.SyntaxUser("Unable to delete container. The container store %s does not exist", store)
	}
	deleted, err := storage.Del(d.Context(), sym)
	if err != nil {
		return err
	}
	if !deleted {
		return beserr.SyntaxUser("Unable to delete container. The container %s does not exist in the container store %s", sym, store)
	}
	h.confirm(d, "Successfully deleted container "+sym+" from container store "+store)
	return nil
}

func executeDeleteContainers(h *handler, d *dhi.ExecutionContext) error {
	store := storeName(d)
	storage, ok := h.deps.Containers.Find(store)
	if !ok {
		return beserr.SyntaxUser("Unable to delete containers. The container store %s does not exist", store)
	}
	if _, err := storage.DelAll(d.Context()); err != nil {
		return err
	}
	h.confirm(d, "Successfully deleted all containers from container store "+store)
	return nil
}

func executeDeleteDefinition(h *handler, d *dhi.ExecutionContext) error {
	name := d.Get(dhi.DefName)
	store := storeName(d)
	storage, ok := h.deps.Definitions.Find(store)
	if !ok {
		return beserr.SyntaxUser("Unable to delete definition. The definition store %s does not exist", store)
	}
	deleted, err := storage.Del(d.Context(), name)
	if err != nil {
		return err
	}
	if !deleted {
		return beserr.SyntaxUser("Unable to delete definition. The definition %s does not exist in the definition store %s", name, store)
	}
	h.confirm(d, "Successfully deleted definition "+name+" from definition store "+store)
	return nil
}

func executeDeleteDefinitions(h *handler, d *dhi.ExecutionContext) error {
	store := storeName(d)
	storage, ok := h.deps.Definitions.Find(store)
	if !ok {
		return beserr.SyntaxUser("Unable to delete definitions. The definition store %s does not exist", store)
	}
	if _, err := storage.DelAll(d.Context()); err != nil {
		return err
	}
	h.confirm(d, "Successfully deleted all definitions from definition store "+store)
	return nil
}

func executeShowError(h *handler, d *dhi.ExecutionContext) error {
	value := d.Get(dhi.ShowErrorType)
	n, err := strconv.Atoi(value)
	if err != nil || n < 1 || n > 5 {
		return beserr.SyntaxUser("The error type must be a number from 1 to 5, found '%s'", value)
	}
	msg := "This is a test of error type " + value
	switch n {
	case 1:
		return beserr.Internal(msg)
	case 2:
		return beserr.InternalFatal(msg)
	case 3:
		return beserr.SyntaxUser(msg)
	case 4:
		return beserr.Forbidden(msg)
	default:
		return beserr.NotFound(msg)
	}
}

func executeShowHelp(h *handler, d *dhi.ExecutionContext) error {
	info := h.info(d)
	info.BeginTag("module", dhi.Attr{Name: "name", Value: "bes"}, dhi.Attr{Name: "version", Value: version.Server})
	for _, line := range coreHelp {
		info.AddTag("command", line)
	}
	info.EndTag("module")
	return h.deps.Requests.ExecuteAll(d)
}

func executeShowVersion(h *handler, d *dhi.ExecutionContext) error {
	info := h.info(d)
	if admin, ok := h.deps.Keys.GetValue(keys.ServerAdministrator); ok && admin != "" {
		info.AddTag("Administrator", admin)
	}
	info.AddTag("library", version.Server, dhi.Attr{Name: "name", Value: "bes"})
	info.BeginTag("serviceVersion", dhi.Attr{Name: "name", Value: "dap"})
	for _, p := range version.DAPProtocols {
		info.AddTag("version", p)
	}
	info.EndTag("serviceVersion")
	return h.deps.Requests.ExecuteAll(d)
}

func executeShowStatus(h *handler, d *dhi.ExecutionContext) error {
	info := h.info(d)
	uptime := time.Since(h.deps.Started).Round(time.Second)
	if h.deps.Health == nil {
		info.AddTag("status", "unknown")
		info.AddTag("uptime", uptime.String())
		return nil
	}
	report := h.deps.Health.Check(d.Context())
	info.AddTag("status", string(report.Status))
	info.AddTag("uptime", uptime.String())
	for _, c := range report.Checks {
		info.AddTag("check", c.Message,
			dhi.Attr{Name: "name", Value: c.Name},
			dhi.Attr{Name: "status", Value: string(c.Status)})
	}
	return nil
}

func executeShowContext(h *handler, d *dhi.ExecutionContext) error {
	info := h.info(d)
	names, values := h.contexts(d).List()
	for _, n := range names {
		info.AddTag("context", values[n], dhi.Attr{Name: "name", Value: n})
	}
	return nil
}

func executeShowContainers(h *handler, d *dhi.ExecutionContext) error {
	return h.deps.Containers.Show(d.Context(), h.info(d))
}

func executeShowDefinitions(h *handler, d *dhi.ExecutionContext) error {
	return h.deps.Definitions.Show(d.Context(), h.info(d))
}

func executeShowKeys(h *handler, d *dhi.ExecutionContext) error {
	info := h.info(d)
	for _, name := range h.deps.Keys.Names() {
		value, _ := h.deps.Keys.GetValue(name)
		info.AddTag("key", value, dhi.Attr{Name: "name", Value: name})
	}
	return nil
}
