package container

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/dhi"
	"github.com/msto63/bes/internal/keys"
)

// recorder is an InfoBuilder that records tags as lines
type recorder struct {
	lines []string
}

func (r *recorder) BeginTag(name string, attrs ...dhi.Attr) {
	r.lines = append(r.lines, "begin "+name+attrString(attrs))
}
func (r *recorder) AddTag(name, value string, attrs ...dhi.Attr) {
	r.lines = append(r.lines, name+attrString(attrs)+" "+value)
}
func (r *recorder) EndTag(name string) { r.lines = append(r.lines, "end "+name) }
func (r *recorder) AddData(s string)   { r.lines = append(r.lines, s) }

func attrString(attrs []dhi.Attr) string {
	var b strings.Builder
	for _, a := range attrs {
		b.WriteString(" " + a.Name + "=" + a.Value)
	}
	return b.String()
}

func TestVolatile_AddReplaces(t *testing.T) {
	ctx := context.Background()
	v := NewVolatile("default", nil)
	if err := v.Add(ctx, "sym", "real", "type"); err != nil {
		t.Fatal(err)
	}
	if err := v.Add(ctx, "sym", "real2", "type2"); err != nil {
		t.Fatal(err)
	}

	c, ok, _ := v.LookFor(ctx, "sym")
	if !ok {
		t.Fatal("LookFor() should find sym")
	}
	if c.RealName != "real2" || c.Type != "type2" {
		t.Errorf("LookFor() = %+v, want real2/type2", c)
	}
	rec := &recorder{}
	v.Show(ctx, rec)
	if len(rec.lines) != 3 {
		t.Errorf("Show() = %v, want exactly one container", rec.lines)
	}
}

func TestVolatile_LookForReturnsCopy(t *testing.T) {
	ctx := context.Background()
	v := NewVolatile("default", nil)
	v.Add(ctx, "c1", "/a", "csv")

	c, _, _ := v.LookFor(ctx, "c1")
	c.Constraint = "x"
	again, _, _ := v.LookFor(ctx, "c1")
	if again.Constraint != "" {
		t.Error("changes to a looked up container must not reach the store")
	}
}

func TestVolatile_TypeInference(t *testing.T) {
	ctx := context.Background()
	tm, err := ParseTypeMatch(`csv:.*\.csv(\.gz)?$;nc:.*\.nc$;`)
	if err != nil {
		t.Fatal(err)
	}
	v := NewVolatile("default", tm)

	tests := []struct {
		real    string
		want    string
		wantErr bool
	}{
		{"/data/a.csv", "csv", false},
		{"/data/a.csv.gz", "csv", false},
		{"/data/b.nc", "nc", false},
		{"/data/c.hdf", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.real, func(t *testing.T) {
			err := v.Add(ctx, "s", tt.real, "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("Add() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			c, _, _ := v.LookFor(ctx, "s")
			if c.Type != tt.want {
				t.Errorf("Type = %v, want %v", c.Type, tt.want)
			}
		})
	}
}

func TestParseTypeMatch_Invalid(t *testing.T) {
	for _, spec := range []string{"csv", "csv:(", ":x"} {
		if _, err := ParseTypeMatch(spec); err == nil {
			t.Errorf("ParseTypeMatch(%q) expected error", spec)
		}
	}
}

func TestFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		wantErr string
		wantN   int
	}{
		{"valid", "# comment\nc1 /data/a.csv csv\n\nc2 /data/b.csv csv\n", "", 2},
		{"too many", "c1 /data/a.csv csv extra\n", "Too many fields", 0},
		{"incomplete", "c1 /data/a.csv\n", "Incomplete", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".txt")
			os.WriteFile(path, []byte(tt.content), 0644)

			store, err := NewFile("files", path)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("NewFile() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFile() error = %v", err)
			}
			rec := &recorder{}
			store.Show(ctx, rec)
			if got := len(rec.lines) - 2; got != tt.wantN {
				t.Errorf("containers = %v, want %v", got, tt.wantN)
			}
			if err := store.Add(ctx, "x", "y", "z"); err == nil {
				t.Error("Add() on a file store should fail")
			}
			if ok, _ := store.Del(ctx, "c1"); !ok {
				t.Error("Del() should remove from the loaded copy")
			}
		})
	}

	if _, err := NewFile("missing", filepath.Join(dir, "nope")); err == nil {
		t.Error("NewFile() on a missing file should fail")
	}
}

func TestSQLite_Persistence(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "containers.db")

	store, err := NewSQLite("persistent", path, nil)
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	store.Add(ctx, "c1", "/a", "csv")
	store.Add(ctx, "c2", "/b", "csv")
	store.Add(ctx, "c1", "/a2", "nc")
	store.Close()

	reopened, err := NewSQLite("persistent", path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	c, ok, err := reopened.LookFor(ctx, "c1")
	if err != nil || !ok {
		t.Fatalf("LookFor() = %v, %v", ok, err)
	}
	if c.RealName != "/a2" || c.Type != "nc" {
		t.Errorf("LookFor() = %+v, want /a2 nc", c)
	}

	rec := &recorder{}
	reopened.Show(ctx, rec)
	if len(rec.lines) != 4 || !strings.Contains(rec.lines[1], "name=c1") {
		t.Errorf("Show() = %v", rec.lines)
	}

	if ok, _ := reopened.Del(ctx, "c2"); !ok {
		t.Error("Del(c2) = false")
	}
	if ok, _ := reopened.Del(ctx, "c2"); ok {
		t.Error("second Del(c2) = true")
	}
	if ok, err := reopened.DelAll(ctx); !ok || err != nil {
		t.Errorf("DelAll() = %v, %v", ok, err)
	}
}

func TestSQLite_Closed(t *testing.T) {
	ctx := context.Background()
	store, err := NewSQLite("s", filepath.Join(t.TempDir(), "c.db"), nil)
	if err != nil {
		t.Fatal(err)
	}
	store.Close()
	if _, _, err := store.LookFor(ctx, "x"); err == nil || !strings.Contains(err.Error(), "closed") {
		t.Errorf("LookFor() on closed store error = %v", err)
	}
}

func TestList_SearchOrder(t *testing.T) {
	ctx := context.Background()
	l := NewList(nil, nil)
	first := NewVolatile("first", nil)
	second := NewVolatile("second", nil)
	l.Add(first)
	l.Add(second)

	second.Add(ctx, "shared", "/second", "csv")
	second.Add(ctx, "only2", "/only2", "csv")
	first.Add(ctx, "shared", "/first", "csv")

	c, ok, err := l.LookFor(ctx, "shared")
	if err != nil || !ok || c.RealName != "/first" {
		t.Errorf("LookFor(shared) = %v, %v, %v, want /first", c, ok, err)
	}
	c, ok, _ = l.LookFor(ctx, "only2")
	if !ok || c.RealName != "/only2" {
		t.Errorf("LookFor(only2) = %v", c)
	}
}

func TestList_MissPolicy(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name       string
		value      string
		wantErr    bool
		wantStatus int
	}{
		{"unset is strict", "", true, 3},
		{"strict", "strict", true, 3},
		{"nice", "Nice", false, 0},
		{"invalid", "lenient", true, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := keys.Empty()
			if tt.value != "" {
				k = keys.FromMap(map[string]string{keys.ContainerPersistence: tt.value})
			}
			l := NewList(k, nil)
			l.Add(NewVolatile("default", nil))

			_, ok, err := l.LookFor(ctx, "missing")
			if ok {
				t.Fatal("LookFor() found a missing container")
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("LookFor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := beserr.Status(err); got != tt.wantStatus {
				t.Errorf("Status() = %v, want %v", got, tt.wantStatus)
			}
		})
	}
}

func TestList_DeleteContainer(t *testing.T) {
	ctx := context.Background()
	l := NewList(nil, nil)
	a, b := NewVolatile("a", nil), NewVolatile("b", nil)
	l.Add(a)
	l.Add(b)
	a.Add(ctx, "c", "/a", "csv")
	b.Add(ctx, "c", "/b", "csv")

	if ok, _ := l.DeleteContainer(ctx, "c"); !ok {
		t.Fatal("DeleteContainer() = false")
	}
	if _, ok, _ := a.LookFor(ctx, "c"); ok {
		t.Error("container still in store a")
	}
	if _, ok, _ := b.LookFor(ctx, "c"); ok {
		t.Error("container still in store b")
	}
	if ok, _ := l.DeleteContainer(ctx, "c"); ok {
		t.Error("second DeleteContainer() = true")
	}
}

func TestList_AddConfigured(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "list.txt")
	os.WriteFile(file, []byte("c1 /data/a.csv csv\n"), 0644)

	k := keys.FromMap(map[string]string{
		keys.ContainerFileStores + ".files":  file,
		keys.ContainerSQLStores + ".persist": filepath.Join(dir, "p.db"),
	})
	l := NewList(k, nil)
	defer l.Close()
	if err := l.AddConfigured(); err != nil {
		t.Fatalf("AddConfigured() error = %v", err)
	}

	names := l.Names()
	want := []string{"default", "catalog", "files", "persist"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("Names() = %v, want %v", names, want)
	}
	if _, ok, err := l.LookFor(context.Background(), "c1"); !ok || err != nil {
		t.Errorf("LookFor(c1) = %v, %v", ok, err)
	}
}
