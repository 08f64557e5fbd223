package tokenizer

import (
	"reflect"
	"strings"
	"testing"

	"github.com/msto63/bes/internal/beserr"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"simple", "get das for c1;", []string{"get", "das", "for", "c1", ";"}},
		{"newlines and returns", "show\r\nversion\n;", []string{"show", "version", ";"}},
		{"consecutive separators", "set  container in  cat values a,,b;;",
			[]string{"set", "container", "in", "cat", "values", "a", ",", ",", "b", ";", ";"}},
		{"comma list", "set container in catalog values c1,/data/x.nc;",
			[]string{"set", "container", "in", "catalog", "values", "c1", ",", "/data/x.nc", ";"}},
		{"quote mid token", `define d as c1 with c1.constraint="a,b; c";`,
			[]string{"define", "d", "as", "c1", "with", "c1.constraint=", `"a,b; c"`, ";"}},
		{"escaped quote", `set context k to "a\"b";`, []string{"set", "context", "k", "to", `"a"b"`, ";"}},
		{"escaped backslash", `x "a\\b";`, []string{"x", `"a\b"`, ";"}},
		{"empty quotes", `x "";`, []string{"x", `""`, ";"}},
		{"adjacent quotes", `x "a""b";`, []string{"x", `"a"`, `"b"`, ";"}},
		{"tab is not a separator", "a\tb;", []string{"a\tb", ";"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := Tokenize(tt.raw)
			if err != nil {
				t.Fatalf("Tokenize() error = %v", err)
			}
			if got := tok.Tokens(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokens() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTokenize_Errors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantMsg string
	}{
		{"missing end quote", `set context k to "abc;`, "Missing end quote"},
		{"empty", "   ", "Unknown command"},
		{"no semicolon", "show version", "terminated by a semicolon"},
		{"quoted semicolon does not terminate", `show ";"`, "terminated by a semicolon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.raw)
			if err == nil {
				t.Fatal("Tokenize() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Tokenize() error = %q, want it to contain %q", err.Error(), tt.wantMsg)
			}
			if beserr.Status(err) != 3 {
				t.Errorf("Status() = %v, want 3", beserr.Status(err))
			}
		})
	}
}

func TestTokenize_LastTokenIsTerminator(t *testing.T) {
	for _, raw := range []string{"a;", "a , b ;", `x "y";`, "show version ; ;"} {
		tok, err := Tokenize(raw)
		if err != nil {
			t.Fatalf("Tokenize(%q) error = %v", raw, err)
		}
		toks := tok.Tokens()
		if toks[len(toks)-1] != ";" {
			t.Errorf("Tokenize(%q) last token = %q, want ;", raw, toks[len(toks)-1])
		}
	}
}

func TestJoin_RoundTrip(t *testing.T) {
	inputs := []string{
		"get das for c1;",
		`define d as c1 with c1.constraint="a,b; c",c1.attributes="x";`,
		`set context k to "a\"b\\c";`,
		`x "" "a""b";`,
	}
	for _, raw := range inputs {
		first, err := Tokenize(raw)
		if err != nil {
			t.Fatalf("Tokenize(%q) error = %v", raw, err)
		}
		joined := Join(first.Tokens())
		second, err := Tokenize(joined)
		if err != nil {
			t.Fatalf("Tokenize(Join) error = %v for %q", err, joined)
		}
		if !reflect.DeepEqual(first.Tokens(), second.Tokens()) {
			t.Errorf("round trip of %q = %q, want %q", raw, second.Tokens(), first.Tokens())
		}
	}
}

func TestFirst_NoTokens(t *testing.T) {
	var tok Tokenizer
	first, err := tok.First()
	if err == nil || first != "" {
		t.Fatalf("First() = %q, %v, want a parse error", first, err)
	}
	if !strings.HasPrefix(err.Error(), "Parse error.") {
		t.Errorf("First() error = %v, want a parse error", err)
	}
	if _, err := tok.Next(); err == nil {
		t.Error("Next() after a failed First() should fail")
	}
}

func TestCursor(t *testing.T) {
	tok, err := Tokenize("show version;")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := tok.Next(); err == nil {
		t.Error("Next() before First() should fail")
	}
	if _, err := tok.Current(); err == nil {
		t.Error("Current() before First() should fail")
	}

	first, _ := tok.First()
	if first != "show" {
		t.Errorf("First() = %v, want show", first)
	}
	next, err := tok.Next()
	if err != nil || next != "version" {
		t.Errorf("Next() = %v, %v, want version", next, err)
	}
	cur, _ := tok.Current()
	if cur != "version" {
		t.Errorf("Current() = %v, want version", cur)
	}
	if _, err := tok.Next(); err != nil {
		t.Errorf("Next() to terminator error = %v", err)
	}
	_, err = tok.Next()
	if err == nil || !strings.Contains(err.Error(), "incomplete expression!") {
		t.Errorf("Next() past end error = %v, want incomplete expression", err)
	}

	// First restarts the scan.
	if again, _ := tok.First(); again != "show" {
		t.Errorf("First() again = %v, want show", again)
	}
}

func TestParseError_Format(t *testing.T) {
	tok, _ := Tokenize("get das for c1;")
	tok.First()
	tok.Next()

	err := tok.ParseError("Expected for")
	want := "Parse error.\nget das <----HERE IS THE ERROR\nExpected for"
	if err.Error() != want {
		t.Errorf("ParseError() = %q, want %q", err.Error(), want)
	}

	fresh, _ := Tokenize("x;")
	if got := fresh.ParseError("").Error(); got != "Parse error." {
		t.Errorf("ParseError() before scan = %q", got)
	}
}

func TestParseContainerName(t *testing.T) {
	tests := []struct {
		tok      string
		wantName string
		wantKind PropertyKind
		wantErr  string
	}{
		{"c1.constraint=", "c1", KindConstraint, ""},
		{"c1.attributes=", "c1", KindAttributes, ""},
		{"my.file.constraint=", "my.file", KindConstraint, ""},
		{"c1.constraint=x", "", 0, "must be wrapped in quotes"},
		{"c1.projection=", "", 0, "Expected property declaration."},
	}
	for _, tt := range tests {
		t.Run(tt.tok, func(t *testing.T) {
			tok, _ := Tokenize("x;")
			tok.First()
			name, kind, err := tok.ParseContainerName(tt.tok)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Errorf("ParseContainerName() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseContainerName() error = %v", err)
			}
			if name != tt.wantName || kind != tt.wantKind {
				t.Errorf("ParseContainerName() = %v, %v, want %v, %v", name, kind, tt.wantName, tt.wantKind)
			}
		})
	}
}

func TestRemoveQuotes(t *testing.T) {
	tok, _ := Tokenize("x;")
	if got, err := tok.RemoveQuotes(`"a b"`); err != nil || got != "a b" {
		t.Errorf("RemoveQuotes() = %q, %v", got, err)
	}
	if got, err := tok.RemoveQuotes(`""`); err != nil || got != "" {
		t.Errorf("RemoveQuotes(empty) = %q, %v", got, err)
	}
	for _, bad := range []string{`"`, `abc`, `"abc`, `abc"`} {
		if _, err := tok.RemoveQuotes(bad); err == nil {
			t.Errorf("RemoveQuotes(%q) expected error", bad)
		}
	}
}

func TestSplit(t *testing.T) {
	tests := []struct {
		raw     string
		want    []string
		wantErr bool
	}{
		{"show version;", []string{"show version ;"}, false},
		{"set container values c,/a.csv,csv; define d as c;", []string{"set container values c , /a.csv , csv ;", "define d as c ;"}, false},
		{`define d as c with c.constraint="a;b";get das for d;`, []string{`define d as c with c.constraint= "a;b" ;`, "get das for d ;"}, false},
		{"show version", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := Split(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Split() error = %v, wantErr %v", err, tt.wantErr)
			}
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("Split() = %q, want %q", got, tt.want)
			}
		})
	}
}
