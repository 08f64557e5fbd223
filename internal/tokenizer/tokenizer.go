// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     tokenizer
// Description: Tokenizer for legacy BES commands
// License:     MIT
// ============================================================================

// Package tokenizer splits legacy BES command strings into tokens and
// provides the cursor used by the command grammars.
package tokenizer

import (
	"strings"

	"github.com/msto63/bes/internal/beserr"
)

// PropertyKind identifies which container property a projection token sets.
type PropertyKind int

const (
	// KindConstraint is set by a <container>.constraint= token.
	KindConstraint PropertyKind = 1
	// KindAttributes is set by a <container>.attributes= token.
	KindAttributes PropertyKind = 2
)

const (
	constraintSuffix = ".constraint="
	attributesSuffix = ".attributes="
	errorMarker      = "<----HERE IS THE ERROR"
)

// Tokenizer holds the tokens of one request and a cursor over them. The
// cursor starts before the first token; First must be called before Next
// or Current.
type Tokenizer struct {
	tokens []string
	cursor int
}

// Tokenize splits raw into tokens.
func Tokenize(raw string) (*Tokenizer, error) {
	t := &Tokenizer{cursor: -1}

	var current strings.Builder
	quoted := false
	escaped := false

	flush := func() {
		if current.Len() > 0 {
			t.tokens = append(t.tokens, current.String())
			current.Reset()
		}
	}

	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case ch == '"' && !escaped:
			if quoted {
				current.WriteByte('"')
				flush()
			} else {
				// A quote after other characters starts a new token.
				flush()
				current.WriteByte('"')
			}
			quoted = !quoted
		case quoted:
			if ch == '\\' && !escaped {
				escaped = true
				continue
			}
			current.WriteByte(ch)
			escaped = false
		case ch == ' ' || ch == '\n' || ch == '\r':
			flush()
		case ch == ',' || ch == ';':
			flush()
			t.tokens = append(t.tokens, string(ch))
		default:
			current.WriteByte(ch)
		}
	}
	flush()

	if quoted {
		return nil, beserr.SyntaxUser("Missing end quote in request: %s", raw)
	}
	if len(t.tokens) < 1 {
		return nil, beserr.SyntaxUser("Unknown command: '%s'", raw)
	}
	if t.tokens[len(t.tokens)-1] != ";" {
		return nil, beserr.SyntaxUser("The request must be terminated by a semicolon (;)")
	}
	return t, nil
}

// First rewinds the cursor to the first token and returns it. It may be
// called any number of times to restart a scan.
func (t *Tokenizer) First() (string, error) {
	if len(t.tokens) == 0 {
		t.cursor = -1
		return "", t.ParseError("Unknown command")
	}
	t.cursor = 0
	return t.tokens[0], nil
}

// Next advances the cursor and returns the token under it.
func (t *Tokenizer) Next() (string, error) {
	if t.cursor == -1 || t.cursor >= len(t.tokens)-1 {
		return "", t.ParseError("incomplete expression!")
	}
	t.cursor++
	return t.tokens[t.cursor], nil
}

// Current returns the token under the cursor without advancing.
func (t *Tokenizer) Current() (string, error) {
	if t.cursor == -1 || t.cursor > len(t.tokens)-1 {
		return "", t.ParseError("incomplete expression!")
	}
	return t.tokens[t.cursor], nil
}

// Expect advances and fails unless the next token equals want.
func (t *Tokenizer) Expect(want string) error {
	tok, err := t.Next()
	if err != nil {
		return err
	}
	if tok != want {
		return t.ParseError("Expected " + want + " but found " + tok)
	}
	return nil
}

// Len returns the number of tokens.
func (t *Tokenizer) Len() int {
	return len(t.tokens)
}

// Tokens returns a copy of all tokens.
func (t *Tokenizer) Tokens() []string {
	return append([]string(nil), t.tokens...)
}

// Consumed returns the tokens up to and including the cursor.
func (t *Tokenizer) Consumed() []string {
	if t.cursor < 0 {
		return nil
	}
	end := t.cursor + 1
	if end > len(t.tokens) {
		end = len(t.tokens)
	}
	return append([]string(nil), t.tokens[:end]...)
}

// ParseError builds the syntax error for a grammar failure at the cursor.
// The message lists every token consumed so far followed by a marker and
// then msg.
func (t *Tokenizer) ParseError(msg string) error {
	var b strings.Builder
	b.WriteString("Parse error.")
	if consumed := t.Consumed(); len(consumed) > 0 {
		b.WriteString("\n")
		for _, tok := range consumed {
			b.WriteString(tok)
			b.WriteString(" ")
		}
		b.WriteString(errorMarker)
	}
	if msg != "" {
		b.WriteString("\n")
		b.WriteString(msg)
	}
	return beserr.SyntaxUser(b.String())
}

// ParseContainerName splits a projection token such as c1.constraint= into
// the container name and the property it sets.
func (t *Tokenizer) ParseContainerName(tok string) (string, PropertyKind, error) {
	kind := KindConstraint
	where := strings.LastIndex(tok, constraintSuffix)
	if where == -1 {
		kind = KindAttributes
		where = strings.LastIndex(tok, attributesSuffix)
		if where == -1 {
			return "", 0, t.ParseError("Expected property declaration.")
		}
	}
	if rest := tok[where:]; rest != constraintSuffix && rest != attributesSuffix {
		return "", 0, t.ParseError("Invalid container property " + rest + " for container " + tok[:where] +
			". constraint expressions and attribute lists must be wrapped in quotes")
	}
	return tok[:where], kind, nil
}

// RemoveQuotes strips the surrounding double quotes of a quoted token.
func (t *Tokenizer) RemoveQuotes(tok string) (string, error) {
	if len(tok) < 2 || tok[0] != '"' || tok[len(tok)-1] != '"' {
		return "", t.ParseError("item " + tok + " must be enclosed by quotes")
	}
	return tok[1 : len(tok)-1], nil
}

// IsQuoted reports whether tok was a quoted span.
func IsQuoted(tok string) bool {
	return len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"'
}

// Join renders tokens back into a request string that tokenizes to the
// same sequence: tokens are separated by single spaces and the interior of
// quoted tokens is re-escaped.
func Join(tokens []string) string {
	parts := make([]string, len(tokens))
	for i, tok := range tokens {
		if IsQuoted(tok) {
			parts[i] = `"` + Escape(tok[1:len(tok)-1]) + `"`
			continue
		}
		parts[i] = tok
	}
	return strings.Join(parts, " ")
}

// Escape backslash-escapes quotes and backslashes for use inside a quoted
// span.
func Escape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Split breaks raw into its individual commands, each rendered with Join
// and ending in ";".
func Split(raw string) ([]string, error) {
	t, err := Tokenize(raw)
	if err != nil {
		return nil, err
	}
	var cmds []string
	start := 0
	for i, tok := range t.tokens {
		if tok != ";" {
			continue
		}
		if i > start {
			cmds = append(cmds, Join(t.tokens[start:i+1]))
		}
		start = i + 1
	}
	return cmds, nil
}
