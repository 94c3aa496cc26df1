// Package review locates suggested phrases in an essay and renders categorized highlights over it.
package review

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Normalize lowercases s, drops every rune that is neither an ASCII word
// character nor whitespace, and trims the result.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		lr := unicode.ToLower(r)
		switch {
		case isWordRune(lr):
			b.WriteRune(lr)
		case unicode.IsSpace(r):
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func isWordRune(r rune) bool {
	return r == '_' ||
		('a' <= r && r <= 'z') ||
		('A' <= r && r <= 'Z') ||
		('0' <= r && r <= '9')
}

func firstRune(s string) rune {
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

func lastRune(s string) rune {
	r, _ := utf8.DecodeLastRuneInString(s)
	return r
}
