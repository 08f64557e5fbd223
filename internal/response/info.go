// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     response
// Description: Response handlers, their registry and response objects
// License:     MIT
// ============================================================================

// Package response holds the response handlers the commands select and the
// response objects they build.
package response

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/msto63/bes/internal/dhi"
)

// Namespace of XML responses
const Namespace = "http://xml.opendap.org/ns/bes/1.0#"

// Info is an informational response. For text clients it renders as
// indented lines; for XML clients it is a complete <response> document
// whose single child is named after the command.
type Info struct {
	xml   bool
	kind  string
	buf   bytes.Buffer
	enc   *xml.Encoder
	depth int
	err   error
	ended bool
}

// NewInfo creates an info response for the command kind (e.g.
// "showVersion") in the protocol of d.
func NewInfo(d *dhi.ExecutionContext, kind string) *Info {
	i := &Info{kind: kind}
	if d != nil && d.IsXML() {
		i.xml = true
		i.enc = xml.NewEncoder(&i.buf)
		i.enc.Indent("", "  ")
		i.start("response",
			dhi.Attr{Name: "xmlns", Value: Namespace},
			dhi.Attr{Name: "reqID", Value: d.Transport.RequestID})
		i.start(kind)
	}
	return i
}

// IsXML reports whether the info renders as XML
func (i *Info) IsXML() bool {
	return i.xml
}

// Kind returns the command the info answers
func (i *Info) Kind() string {
	return i.kind
}

// BeginTag opens a nested element
func (i *Info) BeginTag(name string, attrs ...dhi.Attr) {
	if i.xml {
		i.start(name, attrs...)
		return
	}
	i.line(name + textAttrs(attrs))
	i.depth++
}

// AddTag adds a leaf element
func (i *Info) AddTag(name, value string, attrs ...dhi.Attr) {
	if i.xml {
		i.start(name, attrs...)
		if value != "" {
			i.token(xml.CharData(value))
		}
		i.token(xml.EndElement{Name: xml.Name{Local: name}})
		return
	}
	text := name + textAttrs(attrs)
	if value != "" {
		text += ": " + value
	}
	i.line(text)
}

// EndTag closes the element opened by BeginTag
func (i *Info) EndTag(name string) {
	if i.xml {
		i.token(xml.EndElement{Name: xml.Name{Local: name}})
		return
	}
	if i.depth > 0 {
		i.depth--
	}
}

// AddData adds free text
func (i *Info) AddData(s string) {
	if i.xml {
		i.token(xml.CharData(s))
		return
	}
	i.buf.WriteString(s)
}

// End closes the document. Further additions are ignored.
func (i *Info) End() error {
	if i.ended {
		return i.err
	}
	if i.xml {
		i.token(xml.EndElement{Name: xml.Name{Local: i.kind}})
		i.token(xml.EndElement{Name: xml.Name{Local: "response"}})
		if err := i.enc.Flush(); err != nil && i.err == nil {
			i.err = err
		}
		i.buf.WriteByte('\n')
	}
	i.ended = true
	return i.err
}

// String returns the rendered response
func (i *Info) String() string {
	i.End()
	return i.buf.String()
}

// WriteTo writes the rendered response
func (i *Info) WriteTo(w io.Writer) (int64, error) {
	if err := i.End(); err != nil {
		return 0, err
	}
	n, err := w.Write(i.buf.Bytes())
	return int64(n), err
}

func (i *Info) start(name string, attrs ...dhi.Attr) {
	el := xml.StartElement{Name: xml.Name{Local: name}}
	for _, a := range attrs {
		el.Attr = append(el.Attr, xml.Attr{Name: xml.Name{Local: a.Name}, Value: a.Value})
	}
	i.token(el)
}

func (i *Info) token(t xml.Token) {
	if i.ended || i.err != nil {
		return
	}
	i.err = i.enc.EncodeToken(t)
}

func (i *Info) line(s string) {
	if i.ended {
		return
	}
	i.buf.WriteString(strings.Repeat("    ", i.depth))
	i.buf.WriteString(s)
	i.buf.WriteByte('\n')
}

func textAttrs(attrs []dhi.Attr) string {
	var b strings.Builder
	for _, a := range attrs {
		b.WriteString(" " + a.Name + "=\"" + a.Value + "\"")
	}
	return b.String()
}
