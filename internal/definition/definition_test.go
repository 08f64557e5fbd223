package definition

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/msto63/bes/internal/dhi"
	"github.com/msto63/bes/internal/keys"
)

type countingInfo struct {
	definitions int
	containers  int
}

func (c *countingInfo) BeginTag(name string, _ ...dhi.Attr) {
	if name == "definition" {
		c.definitions++
	}
}
func (c *countingInfo) AddTag(name, _ string, _ ...dhi.Attr) {
	if name == "container" {
		c.containers++
	}
}
func (c *countingInfo) EndTag(string)  {}
func (c *countingInfo) AddData(string) {}

func sampleDefinition(name string) *Definition {
	c1 := dhi.NewContainer("c1", "/a.csv", "csv")
	c1.Constraint = "x=1"
	c2 := dhi.NewContainer("c2", "/b.csv", "csv")
	c2.Attributes = "lat,lon"
	return &Definition{
		Name:       name,
		Containers: []*dhi.Container{c1, c2},
		AggHandler: "agg",
		AggCmd:     "cmd",
	}
}

func storesUnderTest(t *testing.T) map[string]Storage {
	sqlite, err := NewSQLite("persistent", filepath.Join(t.TempDir(), "defs.db"))
	if err != nil {
		t.Fatalf("NewSQLite() error = %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Storage{
		"volatile": NewVolatile("default"),
		"sqlite":   sqlite,
	}
}

func TestStorage_InvalidContainer(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			missing := &dhi.Container{SymbolicName: "gone"}
			def := &Definition{Name: "nice", Containers: []*dhi.Container{missing, dhi.NewContainer("c1", "/a.csv", "csv")}}
			if ok, err := store.Add(ctx, def); !ok || err != nil {
				t.Fatalf("Add() = %v, %v", ok, err)
			}
			got, ok, err := store.LookFor(ctx, "nice")
			if !ok || err != nil {
				t.Fatalf("LookFor() = %v, %v", ok, err)
			}
			if got.Containers[0].Valid {
				t.Error("LookFor() container gone Valid = true, want false")
			}
			if !got.Containers[1].Valid {
				t.Error("LookFor() container c1 Valid = false, want true")
			}
		})
	}
}

func TestStorage_Contract(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			def := sampleDefinition("d1")
			if ok, err := store.Add(ctx, def); !ok || err != nil {
				t.Fatalf("Add() = %v, %v", ok, err)
			}
			if ok, _ := store.Add(ctx, sampleDefinition("d1")); ok {
				t.Error("Add() duplicate = true, want false")
			}

			got, ok, err := store.LookFor(ctx, "d1")
			if !ok || err != nil {
				t.Fatalf("LookFor() = %v, %v", ok, err)
			}
			if len(got.Containers) != 2 || got.Containers[0].Constraint != "x=1" ||
				got.Containers[1].Attributes != "lat,lon" {
				t.Errorf("LookFor() containers = %+v", got.Containers)
			}
			if got.AggHandler != "agg" || got.AggCmd != "cmd" {
				t.Errorf("aggregation = %v/%v", got.AggHandler, got.AggCmd)
			}

			// The store owns its copy.
			def.Containers[0].Constraint = "changed"
			again, _, _ := store.LookFor(ctx, "d1")
			if again.Containers[0].Constraint != "x=1" {
				t.Error("store copy changed with the caller's definition")
			}

			info := &countingInfo{}
			store.Show(ctx, info)
			if info.definitions != 1 || info.containers != 2 {
				t.Errorf("Show() counted %d definitions, %d containers", info.definitions, info.containers)
			}

			if ok, _ := store.Del(ctx, "d1"); !ok {
				t.Error("Del() = false")
			}
			if ok, _ := store.Del(ctx, "d1"); ok {
				t.Error("second Del() = true")
			}
		})
	}
}

func TestStorage_DelAllIdempotent(t *testing.T) {
	ctx := context.Background()
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			store.Add(ctx, sampleDefinition("a"))
			store.Add(ctx, sampleDefinition("b"))
			for i := 0; i < 2; i++ {
				if ok, err := store.DelAll(ctx); !ok || err != nil {
					t.Errorf("DelAll() #%d = %v, %v, want true", i, ok, err)
				}
			}
			if _, ok, _ := store.LookFor(ctx, "a"); ok {
				t.Error("definition survived DelAll()")
			}
		})
	}
}

func TestList_LookForOrder(t *testing.T) {
	ctx := context.Background()
	l := NewList(nil, nil)
	first, second := NewVolatile("first"), NewVolatile("second")
	l.Add(first)
	l.Add(second)

	d := sampleDefinition("d")
	d.AggCmd = "second"
	second.Add(ctx, d)
	d = sampleDefinition("d")
	d.AggCmd = "first"
	first.Add(ctx, d)

	got, ok, err := l.LookFor(ctx, "d")
	if !ok || err != nil || got.AggCmd != "first" {
		t.Errorf("LookFor() = %v, %v, %v, want the first store's definition", got, ok, err)
	}
	if _, ok, _ := l.LookFor(ctx, "missing"); ok {
		t.Error("LookFor(missing) = true")
	}
}

func TestList_AddConfigured(t *testing.T) {
	k := keys.FromMap(map[string]string{
		keys.DefinitionSQLStores + ".saved": filepath.Join(t.TempDir(), "saved.db"),
	})
	l := NewList(k, nil)
	defer l.Close()
	if err := l.AddConfigured(); err != nil {
		t.Fatalf("AddConfigured() error = %v", err)
	}
	names := l.Names()
	if len(names) != 2 || names[0] != "default" || names[1] != "saved" {
		t.Errorf("Names() = %v, want [default saved]", names)
	}
}
