// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     xmlcommand
// Description: XML request documents and their commands
// License:     MIT
// ============================================================================

// Package xmlcommand parses BES XML request documents into one execution
// context per command.
package xmlcommand

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"github.com/msto63/bes/internal/beserr"
)

// Node is one element of a request document
type Node struct {
	Name     string
	Attrs    map[string]string
	Value    string
	Children []*Node
}

// Attr returns the value of attribute name
func (n *Node) Attr(name string) (string, bool) {
	v, ok := n.Attrs[name]
	return v, ok
}

// ParseDocument reads a whole document and returns its root element.
// Attributes are flattened by local name, so a repeated attribute keeps
// its last value. Text is trimmed and dropped for elements that have
// children.
func ParseDocument(r io.Reader) (*Node, error) {
	dec := xml.NewDecoder(r)
	var root *Node
	var stack []*Node
	var text []*strings.Builder

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, beserr.SyntaxUser("Unable to parse the request document: %v", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{Name: t.Name.Local, Attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				n.Attrs[a.Name.Local] = a.Value
			}
			if len(stack) == 0 {
				if root != nil {
					return nil, beserr.SyntaxUser("The request document has more than one root element")
				}
				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
			text = append(text, &strings.Builder{})
		case xml.EndElement:
			n := stack[len(stack)-1]
			if len(n.Children) == 0 {
				n.Value = strings.TrimSpace(text[len(text)-1].String())
			}
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]
		case xml.CharData:
			if len(text) > 0 {
				text[len(text)-1].Write(t)
			} else if strings.TrimSpace(string(t)) != "" {
				return nil, beserr.SyntaxUser("The request document has text outside the root element")
			}
		}
	}
	if root == nil {
		return nil, beserr.SyntaxUser("The request document is empty")
	}
	return root, nil
}
