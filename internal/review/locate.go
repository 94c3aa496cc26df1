package review

import (
	"strings"
	"unicode/utf8"
)

// Location is a half-open range in the normalized form of a text, counted in characters.
type Location struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Locate finds the first occurrence of phrase in haystack after normalizing
// both. The returned offsets are valid against Normalize(haystack) only.
// It reports false when the normalized phrase is empty or absent.
func Locate(haystack, phrase string) (Location, bool) {
	needle := Normalize(phrase)
	if needle == "" {
		return Location{}, false
	}
	text := Normalize(haystack)
	idx := strings.Index(text, needle)
	if idx < 0 {
		return Location{}, false
	}
	start := utf8.RuneCountInString(text[:idx])
	return Location{Start: start, End: start + utf8.RuneCountInString(needle)}, true
}
