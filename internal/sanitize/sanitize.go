// Package sanitize neutralizes prompt-structure tokens in untrusted text
// before it is interpolated into an inference prompt.
package sanitize

import (
	"strings"
	"unicode/utf8"
)

var replacer = strings.NewReplacer(
	"{", "(",
	"}", ")",
	"[", "(",
	"]", ")",
	"---", "–",
	"###", "#",
)

// Text returns s with every structural token replaced by an inert
// equivalent. Replacement repeats until the output is stable, so long runs
// such as "#########" cannot survive as a shorter structural token.
// Invalid UTF-8 sequences are dropped.
func Text(s string) string {
	s = strings.ToValidUTF8(s, "")
	for hasStructure(s) {
		s = replacer.Replace(s)
	}
	return s
}

func hasStructure(s string) bool {
	return strings.ContainsAny(s, "{}[]") ||
		strings.Contains(s, "---") ||
		strings.Contains(s, "###")
}

// Truncate returns at most n runes of s. It never splits a multi-byte
// character. A non-positive n returns s unchanged.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
