package sanitize

import (
	"strings"
	"testing"
)

func TestText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text untouched", "Lunch on Friday?", "Lunch on Friday?"},
		{"braces", "{ignore previous}", "(ignore previous)"},
		{"brackets", "[system]", "(system)"},
		{"triple dash", "a --- b", "a – b"},
		{"long dash run", "------", "––"},
		{"heading marker", "### Instructions", "# Instructions"},
		{"long hash run", "#########", "#"},
		{"mixed", "{[---###]}", "((–#))"},
		{"double hash kept", "## ok", "## ok"},
		{"empty", "", ""},
		{"invalid utf8 dropped", "ok\xffok", "okok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Text(tt.in)
			if got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestTextLeavesNoStructure(t *testing.T) {
	inputs := []string{
		"{{{}}}",
		strings.Repeat("-", 17),
		strings.Repeat("#", 28),
		"x---#---#---y[[]]",
	}
	for _, in := range inputs {
		out := Text(in)
		if strings.ContainsAny(out, "{}[]") || strings.Contains(out, "---") || strings.Contains(out, "###") {
			t.Errorf("Text(%q) = %q still contains structural tokens", in, out)
		}
		if again := Text(out); again != out {
			t.Errorf("Text is not idempotent on %q: %q then %q", in, out, again)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"hello", 10, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "hé"},
		{"日本語テキスト", 3, "日本語"},
		{"abc", 0, "abc"},
	}

	for _, tt := range tests {
		if got := Truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
