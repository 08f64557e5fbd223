// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     client
// Description: Translation of legacy commands into an XML request
// License:     MIT
// ============================================================================

package client

import (
	"encoding/xml"
	"strings"

	"github.com/google/uuid"

	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/tokenizer"
)

// Translate turns a sequence of legacy commands into one XML request
// document with a fresh reqID. Modifiers without an XML form, such as
// silently, are dropped.
func Translate(raw string) (string, error) {
	cmds, err := tokenizer.Split(raw)
	if err != nil {
		return "", err
	}
	if len(cmds) == 0 {
		return "", beserr.SyntaxUser("No commands to translate")
	}

	var b strings.Builder
	b.WriteString(xml.Header)
	b.WriteString(`<request reqID="` + uuid.NewString() + `">` + "\n")
	for _, cmd := range cmds {
		t, err := tokenizer.Tokenize(cmd)
		if err != nil {
			return "", err
		}
		el, err := translateCommand(t)
		if err != nil {
			return "", err
		}
		b.WriteString("    " + el + "\n")
	}
	b.WriteString("</request>\n")
	return b.String(), nil
}

// element renders one XML element. Attributes with empty values are
// omitted.
type element struct {
	name     string
	attrs    [][2]string
	text     string
	children []*element
}

func (e *element) attr(name, value string) *element {
	if value != "" {
		e.attrs = append(e.attrs, [2]string{name, value})
	}
	return e
}

func (e *element) add(child *element) *element {
	e.children = append(e.children, child)
	return child
}

func (e *element) String() string {
	var b strings.Builder
	e.write(&b)
	return b.String()
}

func (e *element) write(b *strings.Builder) {
	b.WriteString("<" + e.name)
	for _, a := range e.attrs {
		b.WriteString(" " + a[0] + `="` + escape(a[1]) + `"`)
	}
	if e.text == "" && len(e.children) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteString(">")
	b.WriteString(escape(e.text))
	for _, c := range e.children {
		c.write(b)
	}
	b.WriteString("</" + e.name + ">")
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func translateCommand(t *tokenizer.Tokenizer) (string, error) {
	first, err := t.First()
	if err != nil {
		return "", err
	}
	var el *element
	switch first {
	case "set":
		el, err = translateSet(t)
	case "define":
		el, err = translateDefine(t)
	case "get":
		el, err = translateGet(t)
	case "delete":
		el, err = translateDelete(t)
	case "show":
		el, err = translateShow(t)
	default:
		return "", t.ParseError("Unable to translate the command " + first)
	}
	if err != nil {
		return "", err
	}
	return el.String(), nil
}

// next returns the next token, skipping silently when allowed
func next(t *tokenizer.Tokenizer, skipSilently bool) (string, error) {
	tok, err := t.Next()
	if err == nil && skipSilently && tok == "silently" {
		tok, err = t.Next()
	}
	return tok, err
}

func expectEnd(t *tokenizer.Tokenizer) error {
	tok, err := t.Next()
	if err != nil {
		return err
	}
	if tok != ";" {
		return t.ParseError("Expected ; but found " + tok)
	}
	return nil
}

// set container [silently] [in <store>] values <sym>,<real>[,<type>] ;
// set context <name> to <value> ;
func translateSet(t *tokenizer.Tokenizer) (*element, error) {
	sub, err := t.Next()
	if err != nil {
		return nil, err
	}
	switch sub {
	case "context":
		name, err := t.Next()
		if err != nil {
			return nil, err
		}
		if err := t.Expect("to"); err != nil {
			return nil, err
		}
		value, err := t.Next()
		if err != nil {
			return nil, err
		}
		if tokenizer.IsQuoted(value) {
			value = value[1 : len(value)-1]
		}
		if err := expectEnd(t); err != nil {
			return nil, err
		}
		return &element{name: "setContext", attrs: [][2]string{{"name", name}}, text: value}, nil

	case "container":
		el := &element{name: "setContainer"}
		tok, err := next(t, true)
		if err != nil {
			return nil, err
		}
		var store string
		if tok == "in" {
			if store, err = t.Next(); err != nil {
				return nil, err
			}
			if tok, err = t.Next(); err != nil {
				return nil, err
			}
		}
		if tok != "values" {
			return nil, t.ParseError("Expected values but found " + tok)
		}
		sym, err := t.Next()
		if err != nil {
			return nil, err
		}
		if err := t.Expect(","); err != nil {
			return nil, err
		}
		realName, err := t.Next()
		if err != nil {
			return nil, err
		}
		var typ string
		tok, err = t.Next()
		if err != nil {
			return nil, err
		}
		if tok == "," {
			if typ, err = t.Next(); err != nil {
				return nil, err
			}
			if tok, err = t.Next(); err != nil {
				return nil, err
			}
		}
		if tok != ";" {
			return nil, t.ParseError("Expected ; but found " + tok)
		}
		el.attr("name", sym).attr("space", store).attr("type", typ)
		el.text = realName
		return el, nil
	}
	return nil, t.ParseError("Expected container or context but found " + sub)
}

// define [silently] <def> [in <store>] as <c>[,<c>...]
// [with <c>.constraint="<ce>"[,<c>.attributes="<a>"]...] [constraint "<ce>"]
// [aggregate using <handler> by "<cmd>"] ;
func translateDefine(t *tokenizer.Tokenizer) (*element, error) {
	name, err := next(t, true)
	if err != nil {
		return nil, err
	}
	if name == ";" {
		return nil, t.ParseError("Expected the name of the definition")
	}
	el := (&element{name: "define"}).attr("name", name)

	tok, err := t.Next()
	if err != nil {
		return nil, err
	}
	if tok == "in" {
		store, err := t.Next()
		if err != nil {
			return nil, err
		}
		el.attr("space", store)
		if tok, err = t.Next(); err != nil {
			return nil, err
		}
	}
	if tok != "as" {
		return nil, t.ParseError("Expected the keyword as but found " + tok)
	}

	containers := map[string]*element{}
	var defaultCE *element
	for {
		c, err := t.Next()
		if err != nil {
			return nil, err
		}
		if c == ";" || c == "," {
			return nil, t.ParseError("Expected a container name but found " + c)
		}
		containers[c] = (&element{name: "container"}).attr("name", c)
		el.children = append(el.children, containers[c])
		if tok, err = t.Next(); err != nil {
			return nil, err
		}
		if tok != "," {
			break
		}
	}

	if tok == "with" {
		for {
			prop, err := t.Next()
			if err != nil {
				return nil, err
			}
			cname, kind, err := t.ParseContainerName(prop)
			if err != nil {
				return nil, err
			}
			target, ok := containers[cname]
			if !ok {
				return nil, t.ParseError("Container " + cname + " is in the projection but not in the selection")
			}
			vtok, err := t.Next()
			if err != nil {
				return nil, err
			}
			value, err := t.RemoveQuotes(vtok)
			if err != nil {
				return nil, err
			}
			child := "constraint"
			if kind == tokenizer.KindAttributes {
				child = "attributes"
			}
			target.add(&element{name: child, text: value})
			if tok, err = t.Next(); err != nil {
				return nil, err
			}
			if tok != "," {
				break
			}
		}
	}

	if tok == "constraint" {
		vtok, err := t.Next()
		if err != nil {
			return nil, err
		}
		value, err := t.RemoveQuotes(vtok)
		if err != nil {
			return nil, err
		}
		defaultCE = &element{name: "constraint", text: value}
		if tok, err = t.Next(); err != nil {
			return nil, err
		}
	}
	if defaultCE != nil {
		el.children = append([]*element{defaultCE}, el.children...)
	}

	if tok == "aggregate" {
		agg := &element{name: "aggregate"}
		var handler, cmd string
		for tok != ";" {
			if tok, err = t.Next(); err != nil {
				return nil, err
			}
			switch tok {
			case "using":
				if handler, err = t.Next(); err != nil {
					return nil, err
				}
			case "by":
				quoted, err := t.Next()
				if err != nil {
					return nil, err
				}
				if cmd, err = t.RemoveQuotes(quoted); err != nil {
					return nil, err
				}
			case ";":
			default:
				return nil, t.ParseError("Expected using, by or ; but found " + tok)
			}
		}
		if handler == "" || cmd == "" {
			return nil, t.ParseError("aggregate needs both using <handler> and by \"<command>\"")
		}
		el.add(agg.attr("handler", handler).attr("cmd", cmd))
	}

	if tok != ";" {
		return nil, t.ParseError("Expected with, constraint, aggregate or ; but found " + tok)
	}
	return el, nil
}

// get <type> for <def> [return as <name>] [using <url>]
// [contentStartId <id>] [mimeBoundary <boundary>] ;
func translateGet(t *tokenizer.Tokenizer) (*element, error) {
	typ, err := t.Next()
	if err != nil {
		return nil, err
	}
	if err := t.Expect("for"); err != nil {
		return nil, err
	}
	def, err := t.Next()
	if err != nil {
		return nil, err
	}
	el := (&element{name: "get"}).attr("type", typ).attr("definition", def)
	for {
		tok, err := t.Next()
		if err != nil {
			return nil, err
		}
		var attr string
		switch tok {
		case ";":
			return el, nil
		case "return":
			if err := t.Expect("as"); err != nil {
				return nil, err
			}
			attr = "returnAs"
		case "using":
			attr = "url"
		case "contentStartId", "mimeBoundary":
			attr = tok
		default:
			return nil, t.ParseError("Expected return, using, contentStartId, mimeBoundary or ; but found " + tok)
		}
		value, err := t.Next()
		if err != nil {
			return nil, err
		}
		el.attr(attr, value)
	}
}

// delete [silently] container|definition <name> [from <store>] ;
// delete [silently] containers|definitions [from <store>] ;
func translateDelete(t *tokenizer.Tokenizer) (*element, error) {
	sub, err := next(t, true)
	if err != nil {
		return nil, err
	}
	var el *element
	switch sub {
	case "container", "definition":
		name, err := t.Next()
		if err != nil {
			return nil, err
		}
		el = (&element{name: "delete" + capitalize(sub)}).attr("name", name)
	case "containers", "definitions":
		el = &element{name: "delete" + capitalize(sub)}
	default:
		return nil, t.ParseError("Expected container, containers, definition or definitions but found " + sub)
	}

	tok, err := t.Next()
	if err != nil {
		return nil, err
	}
	if tok == "from" {
		store, err := t.Next()
		if err != nil {
			return nil, err
		}
		el.attr("space", store)
		if tok, err = t.Next(); err != nil {
			return nil, err
		}
	}
	if tok != ";" {
		return nil, t.ParseError("Expected from or ; but found " + tok)
	}
	return el, nil
}

// show error <n> ; or show <leaf> ;
func translateShow(t *tokenizer.Tokenizer) (*element, error) {
	leaf, err := t.Next()
	if err != nil {
		return nil, err
	}
	if leaf == ";" {
		return nil, t.ParseError("Expected what to show")
	}
	if leaf == "error" {
		typ, err := t.Next()
		if err != nil {
			return nil, err
		}
		if err := expectEnd(t); err != nil {
			return nil, err
		}
		return (&element{name: "showError"}).attr("type", typ), nil
	}
	if err := expectEnd(t); err != nil {
		return nil, err
	}
	return &element{name: "show" + capitalize(leaf)}, nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
