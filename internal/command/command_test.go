package command

import (
	"context"
	"reflect"
	"strings"
	"testing"

	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/container"
	"github.com/msto63/bes/internal/definition"
	"github.com/msto63/bes/internal/dhi"
	"github.com/msto63/bes/internal/keys"
	"github.com/msto63/bes/internal/request"
	"github.com/msto63/bes/internal/response"
	"github.com/msto63/bes/internal/tokenizer"
)

type fixture struct {
	reg  *Registry
	deps *response.Deps
}

func newFixture(t *testing.T, settings map[string]string) *fixture {
	t.Helper()
	k := keys.FromMap(settings)
	containers := container.NewList(k, nil)
	containers.Add(container.NewVolatile(dhi.DefaultStore, nil))
	definitions := definition.NewList(k, nil)
	definitions.Add(definition.NewVolatile(dhi.DefaultStore))
	deps := &response.Deps{
		Requests:    request.NewList(),
		Containers:  containers,
		Definitions: definitions,
		Contexts:    dhi.NewContextManager(),
		Keys:        k,
	}
	responses := response.NewRegistry(deps)
	response.RegisterBuiltins(responses)

	reg := NewRegistry(responses, containers, nil)
	if err := RegisterBuiltins(reg); err != nil {
		t.Fatalf("RegisterBuiltins() error = %v", err)
	}
	return &fixture{reg: reg, deps: deps}
}

func (f *fixture) addContainer(t *testing.T, sym, real, typ string) {
	t.Helper()
	store, _ := f.deps.Containers.Find(dhi.DefaultStore)
	if err := store.Add(context.Background(), sym, real, typ); err != nil {
		t.Fatal(err)
	}
}

func newContext() *dhi.ExecutionContext {
	return dhi.NewExecutionContext(context.Background(), dhi.Transport{RequestID: "t"}, nil)
}

// run parses and executes one request
func (f *fixture) run(t *testing.T, raw string) (*dhi.ExecutionContext, error) {
	t.Helper()
	d := newContext()
	h, err := Parse(f.reg, raw, d)
	if err != nil {
		return d, err
	}
	return d, h.Execute(d)
}

func TestRegistry_AddFindDel(t *testing.T) {
	reg := NewRegistry(nil, nil, nil)
	cmd := &baseCommand{reg: reg, name: "x"}

	if err := reg.Add("x", cmd); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := reg.Add("x", cmd); err == nil {
		t.Error("Add() should reject a duplicate name")
	}
	if err := reg.Add("x.y", Terminal); err != nil {
		t.Fatalf("Add(x.y) error = %v", err)
	}
	if err := reg.Add("x.", cmd); err == nil {
		t.Error("Add(x.) should be rejected")
	}

	if got, ok := reg.Find("x.y"); !ok || !IsTerminal(got) {
		t.Errorf("Find(x.y) = %v, %v", got, ok)
	}
	if got, ok := reg.Sub("x", "y"); !ok || !IsTerminal(got) {
		t.Errorf("Sub(x, y) = %v, %v", got, ok)
	}
	if got := reg.Names(); !reflect.DeepEqual(got, []string{"x", "x.y"}) {
		t.Errorf("Names() = %v", got)
	}

	if !reg.Del("x") || reg.Del("x") {
		t.Error("Del(x) should succeed once")
	}
	if _, ok := reg.Sub("x", "y"); !ok {
		t.Error("deleting a primary should keep its sub-commands")
	}
	if !reg.Del("x.y") {
		t.Error("Del(x.y) = false")
	}
	if len(reg.Names()) != 0 {
		t.Errorf("Names() = %v, want empty", reg.Names())
	}
}

// Scenario: define then delete twice
func TestDefineThenDeleteDefinition(t *testing.T) {
	f := newFixture(t, nil)
	f.addContainer(t, "c1", "/data/a.csv", "csv")

	if _, err := f.run(t, "define d1 as c1;"); err != nil {
		t.Fatalf("define error = %v", err)
	}
	def, ok, _ := f.deps.Definitions.LookFor(context.Background(), "d1")
	if !ok || len(def.Containers) != 1 || def.Containers[0].SymbolicName != "c1" {
		t.Fatalf("definition d1 = %+v, %v", def, ok)
	}

	if _, err := f.run(t, "delete definition d1;"); err != nil {
		t.Fatalf("first delete error = %v", err)
	}
	_, err := f.run(t, "delete definition d1;")
	if err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("second delete error = %v", err)
	}
	if beserr.TypeName(err) != "SyntaxUserError" {
		t.Errorf("TypeName() = %v, want SyntaxUserError", beserr.TypeName(err))
	}
}

// Scenario: projections and aggregation
func TestDefine_ProjectionAndAggregation(t *testing.T) {
	f := newFixture(t, nil)
	f.addContainer(t, "c1", "/a", "csv")
	f.addContainer(t, "c2", "/b", "csv")

	d := newContext()
	_, err := Parse(f.reg, `define d1 as c1,c2 with c1.constraint="x=1",c2.attributes="lat,lon" aggregate using agg by "cmd";`, d)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(d.Containers) != 2 {
		t.Fatalf("containers = %d, want 2", len(d.Containers))
	}
	c1, c2 := d.Containers[0], d.Containers[1]
	if c1.SymbolicName != "c1" || c1.Constraint != "x=1" || c1.Attributes != "" {
		t.Errorf("c1 = %+v", c1)
	}
	if c2.SymbolicName != "c2" || c2.Attributes != "lat,lon" || c2.Constraint != "" {
		t.Errorf("c2 = %+v", c2)
	}
	if d.Get(dhi.AggregationHandler) != "agg" || d.Get(dhi.AggregationCommand) != "cmd" {
		t.Errorf("aggregation = %q %q", d.Get(dhi.AggregationHandler), d.Get(dhi.AggregationCommand))
	}
	if d.Action != response.ActionDefine || d.ResponseHandler == nil {
		t.Errorf("Action = %v, handler = %v", d.Action, d.ResponseHandler)
	}

	// the store keeps its own copy
	orig, _, _ := f.deps.Containers.LookFor(context.Background(), "c1")
	if orig.Constraint != "" {
		t.Error("a projection must not modify the stored container")
	}
}

func TestDefine_Grammar(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr string
		check   func(t *testing.T, d *dhi.ExecutionContext)
	}{
		{
			name: "store and silently",
			raw:  "define silently d in default as c1;",
			check: func(t *testing.T, d *dhi.ExecutionContext) {
				if d.Get(dhi.StoreName) != "default" || !d.IsSilent() {
					t.Errorf("store = %q, silent = %v", d.Get(dhi.StoreName), d.IsSilent())
				}
			},
		},
		{
			name: "aggregate by before using",
			raw:  `define d as c1 aggregate by "join all" using join;`,
			check: func(t *testing.T, d *dhi.ExecutionContext) {
				if d.Get(dhi.AggregationHandler) != "join" || d.Get(dhi.AggregationCommand) != "join all" {
					t.Errorf("aggregation = %q %q", d.Get(dhi.AggregationHandler), d.Get(dhi.AggregationCommand))
				}
			},
		},
		{
			name: "default constraint",
			raw:  `define d as c1 with c1.constraint="a" constraint "b";`,
			check: func(t *testing.T, d *dhi.ExecutionContext) {
				if d.Get(dhi.DefaultConstraint) != "b" || d.Containers[0].Constraint != "a" {
					t.Errorf("default = %q, c1 = %q", d.Get(dhi.DefaultConstraint), d.Containers[0].Constraint)
				}
			},
		},
		{name: "projection outside selection", raw: `define d as c1 with c2.constraint="x";`, wantErr: "in the projection but not in the selection"},
		{name: "missing as", raw: "define d c1;", wantErr: "Expected the keyword in or as"},
		{name: "unquoted value", raw: "define d as c1 with c1.constraint= x;", wantErr: "must be enclosed by quotes"},
		{name: "bad property", raw: `define d as c1 with c1.units="x";`, wantErr: "Expected property declaration"},
		{name: "aggregate without by", raw: "define d as c1 aggregate using agg;", wantErr: `Expected by`},
		{name: "unknown container", raw: "define d as nope;", wantErr: "Could not find the symbolic name nope"},
		{name: "trailing comma", raw: "define d as c1,;", wantErr: "Expected a container name"},
		{name: "incomplete", raw: "define d as c1 with;", wantErr: "Expected property declaration"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			f.addContainer(t, "c1", "/a", "csv")
			d := newContext()
			_, err := Parse(f.reg, tt.raw, d)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("Parse() error = %v, want %q", err, tt.wantErr)
				}
				if beserr.Status(err) != 3 {
					t.Errorf("Status() = %v, want 3", beserr.Status(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			tt.check(t, d)
		})
	}
}

func TestDefine_NiceSelectsInvalidContainer(t *testing.T) {
	f := newFixture(t, map[string]string{keys.ContainerPersistence: "nice"})
	d := newContext()
	if _, err := Parse(f.reg, "define d as ghost;", d); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(d.Containers) != 1 || d.Containers[0].Valid {
		t.Errorf("containers = %+v, want one invalid container", d.Containers)
	}
}

// Scenario: set container replaces
func TestSetContainer_Replaces(t *testing.T) {
	f := newFixture(t, nil)
	for _, raw := range []string{"set container values sym,real,type;", "set container values sym,real2,type2;"} {
		if _, err := f.run(t, raw); err != nil {
			t.Fatalf("%s: %v", raw, err)
		}
	}
	store, _ := f.deps.Containers.Find(dhi.DefaultStore)
	var buf recorder
	store.Show(context.Background(), &buf)
	if buf.count("container") != 1 {
		t.Errorf("containers in store = %d, want 1", buf.count("container"))
	}
	c, _, _ := store.LookFor(context.Background(), "sym")
	if c.RealName != "real2" || c.Type != "type2" {
		t.Errorf("container = %+v", c)
	}
}

func TestSetContainer_Grammar(t *testing.T) {
	tests := []struct {
		raw       string
		wantStore string
		wantType  string
		silent    bool
		wantErr   bool
	}{
		{raw: "set container values a,/x;"},
		{raw: "set container in default values a,/x,csv;", wantStore: "default", wantType: "csv"},
		{raw: "set container silently values a,/x;", silent: true},
		{raw: "set container values a;", wantErr: true},
		{raw: "set container values a,/x,csv,extra;", wantErr: true},
		{raw: "set container a,/x;", wantErr: true},
		{raw: "set nothing;", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			f := newFixture(t, nil)
			d := newContext()
			_, err := Parse(f.reg, tt.raw, d)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if d.Get(dhi.SymbolicName) != "a" || d.Get(dhi.RealName) != "/x" {
				t.Errorf("values = %q %q", d.Get(dhi.SymbolicName), d.Get(dhi.RealName))
			}
			if d.Get(dhi.StoreName) != tt.wantStore || d.Get(dhi.ContainerType) != tt.wantType {
				t.Errorf("store = %q, type = %q", d.Get(dhi.StoreName), d.Get(dhi.ContainerType))
			}
			if d.IsSilent() != tt.silent {
				t.Errorf("IsSilent() = %v, want %v", d.IsSilent(), tt.silent)
			}
		})
	}
}

func TestGet_Grammar(t *testing.T) {
	f := newFixture(t, nil)
	d := newContext()
	_, err := Parse(f.reg, `get dds for d1 return as netcdf using "http://x/y" contentStartId id1 mimeBoundary b1;`, d)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	want := map[string]string{
		dhi.DefName:        "d1",
		dhi.ReturnCommand:  "netcdf",
		dhi.URL:            "http://x/y",
		dhi.ContentStartID: "id1",
		dhi.MimeBoundary:   "b1",
	}
	for k, v := range want {
		if got := d.Get(k); got != v {
			t.Errorf("Get(%s) = %v, want %v", k, got, v)
		}
	}
	if d.Action != response.ActionDDS {
		t.Errorf("Action = %v, want %v", d.Action, response.ActionDDS)
	}

	for _, raw := range []string{"get xyz for d1;", "get das d1;", "get das for d1 as x;"} {
		if _, err := Parse(f.reg, raw, newContext()); beserr.Status(err) != 3 {
			t.Errorf("Parse(%q) error = %v, want a syntax error", raw, err)
		}
	}
}

func TestDeleteAndContext_Grammar(t *testing.T) {
	tests := []struct {
		raw        string
		wantAction string
		wantKey    string
		wantValue  string
	}{
		{"delete container c1 from default;", response.ActionDeleteContainer, dhi.StoreName, "default"},
		{"delete silently containers;", response.ActionDeleteContainers, dhi.Silent, "yes"},
		{"delete definition d1;", response.ActionDeleteDefinition, dhi.DefName, "d1"},
		{"delete definitions from store2;", response.ActionDeleteDefinitions, dhi.StoreName, "store2"},
		{`set context errors to "xml";`, response.ActionSetContext, dhi.ContextValue, "xml"},
		{"show error 4;", response.ActionShowError, dhi.ShowErrorType, "4"},
		{"show containers;", response.ActionShowContainers, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			f := newFixture(t, nil)
			d := newContext()
			if _, err := Parse(f.reg, tt.raw, d); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if d.Action != tt.wantAction {
				t.Errorf("Action = %v, want %v", d.Action, tt.wantAction)
			}
			if tt.wantKey != "" && d.Get(tt.wantKey) != tt.wantValue {
				t.Errorf("Get(%s) = %v, want %v", tt.wantKey, d.Get(tt.wantKey), tt.wantValue)
			}
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []string{
		"frobnicate now;",
		"show nothing;",
		"show help extra;",
		"delete everything;",
		"delete silently everything;",
		"delete container;",
		"set context a b;",
	}
	for _, raw := range tests {
		t.Run(raw, func(t *testing.T) {
			f := newFixture(t, nil)
			_, err := Parse(f.reg, raw, newContext())
			if beserr.Status(err) != 3 {
				t.Errorf("Parse() error = %v, want a syntax error", err)
			}
		})
	}
}

// stubCommand records whether it was asked to parse
type stubCommand struct {
	reg    *Registry
	called bool
}

func (s *stubCommand) ParseRequest(t *tokenizer.Tokenizer, d *dhi.ExecutionContext) (dhi.ResponseHandler, error) {
	s.called = true
	for {
		tok, err := t.Next()
		if err != nil {
			return nil, err
		}
		if tok == ";" {
			return s.reg.respond(d, response.ActionNull)
		}
	}
}

func TestDelegationPrecedence(t *testing.T) {
	for _, primary := range []string{"show", "get", "set", "delete"} {
		t.Run(primary, func(t *testing.T) {
			f := newFixture(t, nil)
			stub := &stubCommand{reg: f.reg}
			if err := f.reg.Add(primary+".custom", stub); err != nil {
				t.Fatal(err)
			}
			d := newContext()
			if _, err := Parse(f.reg, primary+" custom any tokens at all;", d); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if !stub.called {
				t.Error("the sub-command was not delegated to")
			}
			if d.Action != response.ActionNull {
				t.Errorf("Action = %v, want null", d.Action)
			}
		})
	}
}

func TestTerminalFallsThrough(t *testing.T) {
	f := newFixture(t, nil)
	for _, leaf := range ShowLeaves {
		d := newContext()
		if _, err := Parse(f.reg, "show "+leaf+";", d); err != nil {
			t.Errorf("show %s: %v", leaf, err)
			continue
		}
		if d.Action != "show."+leaf {
			t.Errorf("Action = %v, want show.%s", d.Action, leaf)
		}
	}
}

func TestMissingResponseHandler(t *testing.T) {
	f := newFixture(t, nil)
	f.reg.responses.Remove(response.ActionShowKeys)
	_, err := Parse(f.reg, "show keys;", newContext())
	if err == nil || beserr.Status(err) != 3 {
		t.Errorf("Parse() error = %v, want a syntax error", err)
	}
}

// recorder counts the tags written by a store listing
type recorder struct {
	tags []string
}

func (r *recorder) BeginTag(name string, _ ...dhi.Attr)  { r.tags = append(r.tags, name) }
func (r *recorder) AddTag(name, _ string, _ ...dhi.Attr) { r.tags = append(r.tags, name) }
func (r *recorder) EndTag(string)                        {}
func (r *recorder) AddData(string)                       {}
func (r *recorder) count(name string) int {
	n := 0
	for _, tag := range r.tags {
		if tag == name {
			n++
		}
	}
	return n
}
