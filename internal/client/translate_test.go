package client

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/msto63/bes/internal/dispatch"
	"github.com/msto63/bes/internal/keys"
	"github.com/msto63/bes/pkg/core/logging"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		want string
	}{
		{"set container", "set container in catalog values c1,data/a.csv,csv;",
			`<setContainer name="c1" space="catalog" type="csv">data/a.csv</setContainer>`},
		{"set container silently", "set container silently values c1,a.csv;",
			`<setContainer name="c1">a.csv</setContainer>`},
		{"set context", `set context errors to "x & y";`,
			`<setContext name="errors">x &amp; y</setContext>`},
		{"define", `define d in store as c1,c2 with c1.constraint="a<3", c2.attributes="b";`,
			`<define name="d" space="store"><container name="c1"><constraint>a&lt;3</constraint></container><container name="c2"><attributes>b</attributes></container></define>`},
		{"define default constraint", `define d as c1 constraint "t" aggregate using join by "merge";`,
			`<define name="d"><constraint>t</constraint><container name="c1"/><aggregate handler="join" cmd="merge"/></define>`},
		{"get", "get dds for d return as nc;", `<get type="dds" definition="d" returnAs="nc"/>`},
		{"delete container", "delete silently container c1 from catalog;", `<deleteContainer name="c1" space="catalog"/>`},
		{"delete definitions", "delete definitions;", `<deleteDefinitions/>`},
		{"show", "show containers;", `<showContainers/>`},
		{"show error", "show error 3;", `<showError type="3"/>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Translate(tt.cmd)
			if err != nil {
				t.Fatalf("Translate() error = %v", err)
			}
			if !strings.Contains(got, tt.want) {
				t.Errorf("Translate() = %q, want %q", got, tt.want)
			}
			if !strings.Contains(got, `<request reqID="`) {
				t.Errorf("Translate() = %q, want a request element", got)
			}
		})
	}
}

func TestTranslate_Errors(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
	}{
		{"empty", "  "},
		{"unknown", "frobnicate;"},
		{"set", "set nothing;"},
		{"define without as", "define d c1;"},
		{"projection not selected", `define d as c1 with c2.constraint="x";`},
		{"unquoted constraint", "define d as c1 with c1.constraint=x;"},
		{"aggregate incomplete", "define d as c1 aggregate using join;"},
		{"get extra", "get dds for d please;"},
		{"delete", "delete everything;"},
		{"incomplete", "get dds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Translate(tt.cmd); err == nil {
				t.Errorf("Translate(%q) error = nil, want error", tt.cmd)
			}
		})
	}
}

// A translated session gives the same result as the legacy commands.
func TestTranslate_RunsInEnvironment(t *testing.T) {
	dir := t.TempDir()
	env, err := dispatch.NewEnvironment(dispatch.Options{
		Keys:   keys.FromMap(map[string]string{keys.CacheDir: filepath.Join(dir, "cache")}),
		Logger: logging.Discard(),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer env.Close()

	doc, err := Translate(`set container values c1,obs.csv,csv; define d as c1 with c1.constraint="temp"; show definitions;`)
	if err != nil {
		t.Fatal(err)
	}
	var out bytes.Buffer
	res := dispatch.NewInterface(env).Execute(context.Background(), dispatch.Request{Command: doc, XML: true, Output: &out})
	if res.Status != 0 {
		t.Fatalf("Status = %d (%v): %s", res.Status, res.Err, out.String())
	}
	if !strings.Contains(out.String(), "d") || !strings.Contains(out.String(), "temp") {
		t.Errorf("show definitions = %q, want definition d with its constraint", out.String())
	}
}
