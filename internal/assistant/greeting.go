package assistant

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var greetingPhrases = map[string]bool{
	"hi":             true,
	"hello":          true,
	"hey":            true,
	"hiya":           true,
	"howdy":          true,
	"yo":             true,
	"greetings":      true,
	"good morning":   true,
	"good afternoon": true,
	"good evening":   true,
}

// normalizeGreeting folds case and width, strips surrounding punctuation and
// collapses internal whitespace.
func normalizeGreeting(s string) string {
	s = norm.NFKC.String(s)
	s = cases.Fold().String(s)
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
	return strings.Join(strings.Fields(s), " ")
}

// IsGreeting reports whether input is a bare greeting that can be answered
// without consulting the inference service.
func IsGreeting(input string) bool {
	return greetingPhrases[normalizeGreeting(input)]
}

// GreetingReply returns a time-of-day greeting for the local hour of now.
func GreetingReply(now time.Time) string {
	switch h := now.Hour(); {
	case h < 12:
		return "Good morning! How can I help with your inbox today?"
	case h < 18:
		return "Good afternoon! How can I help with your inbox today?"
	default:
		return "Good evening! How can I help with your inbox today?"
	}
}
