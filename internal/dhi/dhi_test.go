package dhi

import (
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestExecutionContext_Cursor(t *testing.T) {
	d := NewExecutionContext(context.Background(), Transport{}, nil)
	if d.FirstContainer() != nil {
		t.Error("FirstContainer() on empty selection should be nil")
	}

	d.AddContainer(NewContainer("c1", "/a", "csv"))
	d.AddContainer(NewContainer("c2", "/b", "csv"))

	var got []string
	for c := d.FirstContainer(); c != nil; c = d.NextContainer() {
		got = append(got, c.SymbolicName)
	}
	if len(got) != 2 || got[0] != "c1" || got[1] != "c2" {
		t.Errorf("iteration = %v, want [c1 c2]", got)
	}
	if d.NextContainer() != nil {
		t.Error("NextContainer() past end should stay nil")
	}
	if c := d.FirstContainer(); c == nil || c.SymbolicName != "c1" {
		t.Error("FirstContainer() should restart the scan")
	}
}

func TestExecutionContext_Clone(t *testing.T) {
	d := NewExecutionContext(context.Background(), Transport{RequestID: "r1", Protocol: ProtocolXML}, nil)
	c := NewContainer("c1", "/a", "csv")
	d.AddContainer(c)
	d.Set(DefName, "d1")

	cp := d.Clone()
	cp.Set(DefName, "d2")
	cp.AddContainer(NewContainer("c2", "/b", "csv"))

	if d.Get(DefName) != "d1" {
		t.Errorf("original data changed to %v", d.Get(DefName))
	}
	if len(d.Containers) != 1 {
		t.Errorf("original selection len = %v, want 1", len(d.Containers))
	}
	if cp.Containers[0] != c {
		t.Error("clone should reference the same container")
	}
	if cp.Get(RequestID) != "r1" || !cp.IsXML() {
		t.Error("clone should keep the transport")
	}
}

func TestExecutionContext_Reset(t *testing.T) {
	d := NewExecutionContext(nil, Transport{RequestID: "r1"}, nil)
	d.Action = "get.das"
	d.Set(Silent, "yes")
	d.AddContainer(NewContainer("c1", "/a", "csv"))
	d.Reset()

	if d.Action != "" || len(d.Containers) != 0 || d.IsSilent() {
		t.Error("Reset() should clear the plan")
	}
	if d.Get(RequestID) != "r1" {
		t.Error("Reset() should keep the request id")
	}
	if d.Transport.Protocol != ProtocolText {
		t.Errorf("Protocol = %v, want %v", d.Transport.Protocol, ProtocolText)
	}
}

func TestContainer_IsCompressed(t *testing.T) {
	exts := []string{"gz", ".Z", "bz2"}
	tests := []struct {
		real string
		want bool
	}{
		{"/data/x.csv.gz", true},
		{"/data/x.Z", true},
		{"/data/x.bz2", true},
		{"/data/x.csv", false},
		{"/data/gz", false},
	}
	for _, tt := range tests {
		t.Run(tt.real, func(t *testing.T) {
			c := NewContainer("c", tt.real, "csv")
			if got := c.IsCompressed(exts); got != tt.want {
				t.Errorf("IsCompressed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContainer_AccessGzip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "data.csv.gz")

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write([]byte("a,b\n1,2\n"))
	zw.Close()
	if err := os.WriteFile(src, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}

	c := NewContainer("c", src, "csv")
	cache := filepath.Join(dir, "cache")
	path, err := c.Access(cache, []string{"gz"})
	if err != nil {
		t.Fatalf("Access() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a,b\n1,2\n" {
		t.Errorf("decompressed = %q", data)
	}

	again, err := c.Access(cache, []string{"gz"})
	if err != nil || again != path {
		t.Errorf("second Access() = %v, %v, want cached %v", again, err, path)
	}
}

func TestContainer_AccessPlain(t *testing.T) {
	c := NewContainer("c", "/data/x.csv", "csv")
	path, err := c.Access(t.TempDir(), []string{"gz"})
	if err != nil || path != "/data/x.csv" {
		t.Errorf("Access() = %v, %v, want real name", path, err)
	}
}

func TestContextManager(t *testing.T) {
	m := NewContextManager()
	m.Set("errors", "xml")
	m.Set("dap_format", "dap2")

	if v, ok := m.Get("errors"); !ok || v != "xml" {
		t.Errorf("Get() = %v, %v", v, ok)
	}
	names, values := m.List()
	if len(names) != 2 || names[0] != "dap_format" || values["errors"] != "xml" {
		t.Errorf("List() = %v, %v", names, values)
	}
	if !m.Unset("errors") || m.Unset("errors") {
		t.Error("Unset() should succeed once")
	}
}
