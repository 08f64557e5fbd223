package stringx

import (
	"reflect"
	"testing"
)

func TestIsBlank(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"", true},
		{"  \t\n", true},
		{" x ", false},
	}
	for _, tt := range tests {
		if got := IsBlank(tt.in); got != tt.want {
			t.Errorf("IsBlank(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if got := IsNotBlank(tt.in); got == tt.want {
			t.Errorf("IsNotBlank(%q) = %v, want %v", tt.in, got, !tt.want)
		}
	}
}

func TestFirstNonBlank(t *testing.T) {
	if got := FirstNonBlank("", "  ", "default", "other"); got != "default" {
		t.Errorf("FirstNonBlank() = %q, want default", got)
	}
	if got := FirstNonBlank(" "); got != "" {
		t.Errorf("FirstNonBlank() = %q, want empty", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		max      int
		ellipsis string
		want     string
	}{
		{"short", "abc", 5, "...", "abc"},
		{"cut", "abcdefgh", 6, "...", "abc..."},
		{"runes", "äöüßäöü", 4, "…", "äöü…"},
		{"zero", "abc", 0, "...", ""},
		{"ellipsis longer than max", "abcdef", 2, "...", ".."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.in, tt.max, tt.ellipsis); got != tt.want {
				t.Errorf("Truncate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" gz, Z ,,bz2 ", ",")
	want := []string{"gz", "Z", "bz2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitList() = %v, want %v", got, want)
	}
	if got := SplitList("", ","); len(got) != 0 {
		t.Errorf("SplitList(empty) = %v, want empty", got)
	}
}

func TestEqualFoldAny(t *testing.T) {
	if !EqualFoldAny("NICE", "strict", "nice") {
		t.Error("EqualFoldAny() should match case-insensitively")
	}
	if EqualFoldAny("kind", "strict", "nice") {
		t.Error("EqualFoldAny() should not match unrelated values")
	}
}
