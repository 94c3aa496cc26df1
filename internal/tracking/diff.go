// Package tracking records how a user changes the essay between submissions.
package tracking

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"

	"github.com/benvon/rewrite/internal/models"
)

// NewEssayThreshold is the length change, in characters, above which a change counts as a new essay.
const NewEssayThreshold = 1000

// Change describes the region of the new text that differs from the old text.
// Start and End are character offsets into the new text.
type Change struct {
	Start   int      `json:"startIndex"`
	End     int      `json:"endIndex"`
	Added   []string `json:"added"`
	Deleted []string `json:"deleted"`
}

// Content renders the change in the stored "Added: ...; Deleted: ..." form.
func (c Change) Content() string {
	return "Added: " + strings.Join(c.Added, " ") + "; Deleted: " + strings.Join(c.Deleted, " ")
}

// Classify reports whether newText replaces oldText wholesale or edits it.
func Classify(oldText, newText string) models.ChangeType {
	delta := utf8.RuneCountInString(newText) - utf8.RuneCountInString(oldText)
	if delta > NewEssayThreshold || -delta > NewEssayThreshold {
		return models.ChangeTypeNewEssay
	}
	return models.ChangeTypeUserEdit
}

// Diff compares two texts word by word. When nothing differs the change
// spans the whole new text.
func Diff(oldText, newText string) Change {
	before := tokenize(oldText)
	after := tokenize(newText)
	edits := myers.ComputeEdits(span.URIFromPath("essay"), encode(before), encode(after))

	offsets := make([]int, len(before)+1)
	for i, tok := range before {
		offsets[i+1] = offsets[i] + len(tok)
	}

	c := Change{Start: -1}
	delta := 0
	prevTo := -1
	var added, deleted strings.Builder
	flush := func() {
		if added.Len() > 0 {
			c.Added = append(c.Added, added.String())
		}
		if deleted.Len() > 0 {
			c.Deleted = append(c.Deleted, deleted.String())
		}
		added.Reset()
		deleted.Reset()
	}
	// myers reports one edit per token; edits that touch form one run
	for _, e := range edits {
		from := clamp(e.Span.Start().Line()-1, len(before))
		to := clamp(e.Span.End().Line()-1, len(before))
		if from != prevTo {
			flush()
		}
		prevTo = to

		del := strings.Join(before[from:to], "")
		ins := decode(e.NewText)

		start := offsets[from] + delta
		end := start + len(ins)
		if c.Start < 0 || start < c.Start {
			c.Start = start
		}
		if end > c.End {
			c.End = end
		}
		added.WriteString(ins)
		deleted.WriteString(del)
		delta += len(ins) - len(del)
	}
	flush()

	if c.Start < 0 {
		return Change{Start: 0, End: utf8.RuneCountInString(newText)}
	}
	c.Start = utf8.RuneCountInString(newText[:c.Start])
	c.End = utf8.RuneCountInString(newText[:c.End])
	return c
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}

// tokenize splits s into runs of word characters, runs of whitespace and
// single other characters. Concatenating the tokens yields s.
func tokenize(s string) []string {
	var tokens []string
	start := 0
	class := -1
	for i, r := range s {
		c := runeClass(r)
		if i > start && (c != class || c == classOther) {
			tokens = append(tokens, s[start:i])
			start = i
		}
		class = c
	}
	if start < len(s) {
		tokens = append(tokens, s[start:])
	}
	return tokens
}

const (
	classWord = iota
	classSpace
	classOther
)

func runeClass(r rune) int {
	switch {
	case unicode.IsLetter(r), unicode.IsDigit(r), r == '_', r == '\'':
		return classWord
	case unicode.IsSpace(r):
		return classSpace
	default:
		return classOther
	}
}

// encode writes one quoted token per line so the line differ compares tokens.
func encode(tokens []string) string {
	var b strings.Builder
	for _, tok := range tokens {
		b.WriteString(strconv.Quote(tok))
		b.WriteByte('\n')
	}
	return b.String()
}

func decode(lines string) string {
	var b strings.Builder
	for _, line := range strings.Split(lines, "\n") {
		if line == "" {
			continue
		}
		tok, err := strconv.Unquote(line)
		if err != nil {
			continue
		}
		b.WriteString(tok)
	}
	return b.String()
}
