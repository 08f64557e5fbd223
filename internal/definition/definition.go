// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     definition
// Description: Definitions and the stores that hold them
// License:     MIT
// ============================================================================

// Package definition holds named container views created by "define" and
// the stores that keep them.
package definition

import (
	"context"

	"github.com/msto63/bes/internal/dhi"
)

// Definition is a saved, named list of containers
type Definition struct {
	Name       string
	Containers []*dhi.Container
	AggHandler string
	AggCmd     string
}

// Clone returns a deep copy; the containers are owned by the copy
func (d *Definition) Clone() *Definition {
	cp := &Definition{
		Name:       d.Name,
		AggHandler: d.AggHandler,
		AggCmd:     d.AggCmd,
		Containers: make([]*dhi.Container, len(d.Containers)),
	}
	for i, c := range d.Containers {
		cp.Containers[i] = c.Clone()
	}
	return cp
}

// Storage is a named store of definitions
type Storage interface {
	Name() string
	// Add stores a copy of def; false when the name is taken
	Add(ctx context.Context, def *Definition) (bool, error)
	Del(ctx context.Context, name string) (bool, error)
	// DelAll empties the store and reports true even if it was empty
	DelAll(ctx context.Context) (bool, error)
	// LookFor returns a copy of the named definition
	LookFor(ctx context.Context, name string) (*Definition, bool, error)
	Show(ctx context.Context, info dhi.InfoBuilder) error
}

func showDefinitions(info dhi.InfoBuilder, store string, defs []*Definition) {
	info.BeginTag("definitionStore", dhi.Attr{Name: "name", Value: store})
	for _, def := range defs {
		info.BeginTag("definition", dhi.Attr{Name: "name", Value: def.Name})
		for _, c := range def.Containers {
			attrs := []dhi.Attr{
				{Name: "name", Value: c.SymbolicName},
				{Name: "type", Value: c.Type},
			}
			if c.Constraint != "" {
				attrs = append(attrs, dhi.Attr{Name: "constraint", Value: c.Constraint})
			}
			if c.Attributes != "" {
				attrs = append(attrs, dhi.Attr{Name: "attributes", Value: c.Attributes})
			}
			info.AddTag("container", c.RealName, attrs...)
		}
		if def.AggHandler != "" {
			info.AddTag("aggregation", "",
				dhi.Attr{Name: "handler", Value: def.AggHandler},
				dhi.Attr{Name: "cmd", Value: def.AggCmd})
		}
		info.EndTag("definition")
	}
	info.EndTag("definitionStore")
}
