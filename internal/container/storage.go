// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     container
// Description: Container stores and the list that searches them
// License:     MIT
// ============================================================================

// Package container holds the container stores and the ordered list the
// server searches them in.
package container

import (
	"context"
	"regexp"
	"strings"

	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/dhi"
)

// Storage is a named store of containers
type Storage interface {
	Name() string
	// Add stores a container, replacing one with the same symbolic name
	Add(ctx context.Context, symbolicName, realName, containerType string) error
	Del(ctx context.Context, symbolicName string) (bool, error)
	DelAll(ctx context.Context) (bool, error)
	// LookFor returns a copy of the named container
	LookFor(ctx context.Context, symbolicName string) (*dhi.Container, bool, error)
	Show(ctx context.Context, info dhi.InfoBuilder) error
}

// TypeMatch infers a container type from its real name. Rules are given as
// "type:regex;type:regex;" and tried in order.
type TypeMatch struct {
	rules []typeRule
}

type typeRule struct {
	typ string
	re  *regexp.Regexp
}

// ParseTypeMatch parses a type match setting
func ParseTypeMatch(spec string) (*TypeMatch, error) {
	tm := &TypeMatch{}
	for _, part := range strings.Split(spec, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		typ, expr, ok := strings.Cut(part, ":")
		if !ok || typ == "" || expr == "" {
			return nil, beserr.SyntaxUser("Type match entry %q must be of the form type:regex", part)
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, beserr.SyntaxUser("Type match expression for %s is invalid: %v", typ, err)
		}
		tm.rules = append(tm.rules, typeRule{typ: typ, re: re})
	}
	return tm, nil
}

// Match returns the first type whose expression matches realName
func (tm *TypeMatch) Match(realName string) string {
	if tm == nil {
		return ""
	}
	for _, r := range tm.rules {
		if r.re.MatchString(realName) {
			return r.typ
		}
	}
	return ""
}

func showContainers(info dhi.InfoBuilder, store string, containers []*dhi.Container) {
	info.BeginTag("containerStore", dhi.Attr{Name: "name", Value: store})
	for _, c := range containers {
		info.AddTag("container", c.RealName,
			dhi.Attr{Name: "name", Value: c.SymbolicName},
			dhi.Attr{Name: "type", Value: c.Type})
	}
	info.EndTag("containerStore")
}
