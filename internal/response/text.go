package response

import (
	"io"
	"strings"
)

// Text is a free-form text response, used by data handlers whose output is
// not a dataset description.
type Text struct {
	b strings.Builder
}

// NewText creates a text response holding s
func NewText(s string) *Text {
	t := &Text{}
	t.b.WriteString(s)
	return t
}

// Append adds s to the response
func (t *Text) Append(s string) {
	t.b.WriteString(s)
}

func (t *Text) String() string {
	return t.b.String()
}

// WriteTo writes the text
func (t *Text) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, t.b.String())
	return int64(n), err
}
