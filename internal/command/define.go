// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     command
// Description: State machine of the define command
// License:     MIT
// ============================================================================

package command

import (
	"github.com/msto63/bes/internal/dhi"
	"github.com/msto63/bes/internal/response"
	"github.com/msto63/bes/internal/tokenizer"
)

type defineState int

const (
	defName           defineState = iota // [silently] <name>
	defInOrAs                            // in | as
	defStore                             // <store>
	defAs                                // as
	defContainer                         // <container>
	defAfterContainer                    // , | with | constraint | aggregate | ;
	defProperty                          // <c>.constraint= | <c>.attributes=
	defValue                             // "<value>"
	defAfterValue                        // , | constraint | aggregate | ;
	defDefaultCE                         // "<ce>"
	defAfterDefaultCE                    // aggregate | ;
	defAggregate                         // using | by
	defAggHandler                        // <handler>
	defAggCmd                            // "<cmd>"
	defAfterAgg                          // using | by | ;
	defDone
)

type defineCommand struct {
	reg *Registry
}

// defineParse is the state of one define parse
type defineParse struct {
	t        *tokenizer.Tokenizer
	d        *dhi.ExecutionContext
	reg      *Registry
	target   *dhi.Container
	kind     tokenizer.PropertyKind
	sawUsing bool
	sawBy    bool
}

// ParseRequest parses
//
//	define [silently] <def> [in <store>] as <c>[,<c>...]
//	    [with <c>.constraint="<ce>"[,<c>.attributes="<a>"]...]
//	    [constraint "<ce>"]
//	    [aggregate using <handler> by "<cmd>"] ;
//
// Containers are resolved while parsing.
func (c *defineCommand) ParseRequest(t *tokenizer.Tokenizer, d *dhi.ExecutionContext) (dhi.ResponseHandler, error) {
	p := &defineParse{t: t, d: d, reg: c.reg}
	state := defName
	for state != defDone {
		tok, err := t.Next()
		if err != nil {
			return nil, err
		}
		if state, err = p.step(state, tok); err != nil {
			return nil, err
		}
	}
	return c.reg.respond(d, response.ActionDefine)
}

func (p *defineParse) step(state defineState, tok string) (defineState, error) {
	switch state {
	case defName:
		if tok == "silently" && !p.d.IsSilent() {
			p.d.Set(dhi.Silent, "yes")
			return defName, nil
		}
		if tok == ";" {
			return 0, p.t.ParseError("Expected the name of the definition")
		}
		p.d.Set(dhi.DefName, tok)
		return defInOrAs, nil

	case defInOrAs:
		switch tok {
		case "in":
			return defStore, nil
		case "as":
			return defContainer, nil
		}
		return 0, p.t.ParseError("Expected the keyword in or as but found " + tok)

	case defStore:
		if tok == ";" {
			return 0, p.t.ParseError("Expected the name of the definition store")
		}
		p.d.Set(dhi.StoreName, tok)
		return defAs, nil

	case defAs:
		if tok != "as" {
			return 0, p.t.ParseError("Expected the keyword as but found " + tok)
		}
		return defContainer, nil

	case defContainer:
		if tok == ";" || tok == "," {
			return 0, p.t.ParseError("Expected a container name but found " + tok)
		}
		if err := p.addContainer(tok); err != nil {
			return 0, err
		}
		return defAfterContainer, nil

	case defAfterContainer:
		switch tok {
		case ",":
			return defContainer, nil
		case "with":
			return defProperty, nil
		}
		return p.tail(tok, "Expected , with constraint aggregate or ; after the container list but found ")

	case defProperty:
		name, kind, err := p.t.ParseContainerName(tok)
		if err != nil {
			return 0, err
		}
		target := p.d.FindContainer(name)
		if target == nil {
			return 0, p.t.ParseError("Container " + name + " is in the projection but not in the selection")
		}
		p.target, p.kind = target, kind
		return defValue, nil

	case defValue:
		value, err := p.t.RemoveQuotes(tok)
		if err != nil {
			return 0, err
		}
		if p.kind == tokenizer.KindConstraint {
			p.target.Constraint = value
		} else {
			p.target.Attributes = value
		}
		return defAfterValue, nil

	case defAfterValue:
		if tok == "," {
			return defProperty, nil
		}
		return p.tail(tok, "Expected , constraint aggregate or ; after the property list but found ")

	case defDefaultCE:
		value, err := p.t.RemoveQuotes(tok)
		if err != nil {
			return 0, err
		}
		p.d.Set(dhi.DefaultConstraint, value)
		return defAfterDefaultCE, nil

	case defAfterDefaultCE:
		switch tok {
		case "aggregate":
			return defAggregate, nil
		case ";":
			return defDone, nil
		}
		return 0, p.t.ParseError("Expected aggregate or ; but found " + tok)

	case defAggregate, defAfterAgg:
		switch {
		case tok == "using" && !p.sawUsing:
			p.sawUsing = true
			return defAggHandler, nil
		case tok == "by" && !p.sawBy:
			p.sawBy = true
			return defAggCmd, nil
		case tok == ";" && state == defAfterAgg && p.sawUsing && p.sawBy:
			return defDone, nil
		}
		if p.sawUsing {
			return 0, p.t.ParseError("Expected by \"<command>\" but found " + tok)
		}
		return 0, p.t.ParseError("Expected using <handler> but found " + tok)

	case defAggHandler:
		if tok == ";" || tokenizer.IsQuoted(tok) {
			return 0, p.t.ParseError("Expected the name of the aggregation handler but found " + tok)
		}
		p.d.Set(dhi.AggregationHandler, tok)
		return defAfterAgg, nil

	case defAggCmd:
		cmd, err := p.t.RemoveQuotes(tok)
		if err != nil {
			return 0, err
		}
		p.d.Set(dhi.AggregationCommand, cmd)
		return defAfterAgg, nil
	}
	return 0, p.t.ParseError("Unexpected token " + tok)
}

// tail handles the clauses that may follow the container or property list
func (p *defineParse) tail(tok, msg string) (defineState, error) {
	switch tok {
	case "constraint":
		return defDefaultCE, nil
	case "aggregate":
		return defAggregate, nil
	case ";":
		return defDone, nil
	}
	return 0, p.t.ParseError(msg + tok)
}

// addContainer looks the container up and selects a copy of it. In nice
// mode a missing container is selected as invalid so later stages skip it.
func (p *defineParse) addContainer(sym string) error {
	c, ok, err := p.reg.containers.LookFor(p.d.Context(), sym)
	if err != nil {
		return err
	}
	if !ok {
		c = dhi.NewContainer(sym, "", "")
		c.Valid = false
	}
	p.d.AddContainer(c)
	return nil
}
