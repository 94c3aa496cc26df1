package review

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/benvon/rewrite/internal/models"
)

// ErrUnknownCategory is returned in strict mode for an edit whose category has no highlight style.
var ErrUnknownCategory = errors.New("unknown edit category")

// Note is the annotation a single category attaches to a span.
type Note struct {
	EditID     int64
	Suggestion string
	Reasoning  string
	Completed  bool
}

// Mark is one category applied to a span. Seq orders marks by arrival across the document.
type Mark struct {
	Category models.Category
	Note     Note
	Seq      int
}

// Span is a highlighted byte range [Start, End) of the document text.
type Span struct {
	Start int
	End   int
	Marks []Mark
}

// Categories returns the span's categories in arrival order.
func (s Span) Categories() []models.Category {
	out := make([]models.Category, len(s.Marks))
	for i, m := range s.Marks {
		out[i] = m.Category
	}
	return out
}

func (s Span) has(c models.Category) bool {
	for _, m := range s.Marks {
		if m.Category == c {
			return true
		}
	}
	return false
}

// Document is essay text plus an ordered list of highlighted spans. Spans are
// sorted by (Start, End) and each range appears at most once; overlapping
// spans are allowed and are flattened only when rendering.
type Document struct {
	text     string
	spans    []Span
	seq      int
	strict   bool
	fallback string
}

// Option configures a Document.
type Option func(*Document)

// WithStrictCategories makes Apply reject categories without a highlight style.
func WithStrictCategories(strict bool) Option {
	return func(d *Document) {
		d.strict = strict
	}
}

// WithFallbackColor sets the color used for categories without a highlight style.
func WithFallbackColor(color string) Option {
	return func(d *Document) {
		if color != "" {
			d.fallback = color
		}
	}
}

// NewDocument creates a document over text with no highlights.
func NewDocument(text string, opts ...Option) *Document {
	d := &Document{text: text, fallback: DefaultFallbackColor}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Text returns the document's plain text.
func (d *Document) Text() string {
	return d.text
}

// Spans returns a copy of the document's spans.
func (d *Document) Spans() []Span {
	out := make([]Span, len(d.spans))
	for i, s := range d.spans {
		s.Marks = append([]Mark(nil), s.Marks...)
		out[i] = s
	}
	return out
}

// phrasePattern matches phrase literally and case-insensitively. Edges that
// are word characters must sit on a word boundary.
func phrasePattern(phrase string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?i)")
	if isWordRune(firstRune(phrase)) {
		b.WriteString(`\b`)
	}
	b.WriteString(regexp.QuoteMeta(phrase))
	if isWordRune(lastRune(phrase)) {
		b.WriteString(`\b`)
	}
	return regexp.Compile(b.String())
}

// Apply highlights every occurrence of edit.Phrase with edit.Type and returns
// the number of occurrences. An occurrence that already carries the category
// is left unchanged.
func (d *Document) Apply(edit models.Edit) (int, error) {
	if d.strict && !edit.Type.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, edit.Type)
	}
	phrase := strings.TrimSpace(edit.Phrase)
	if phrase == "" {
		return 0, nil
	}
	re, err := phrasePattern(phrase)
	if err != nil {
		return 0, fmt.Errorf("failed to compile phrase pattern: %w", err)
	}

	note := Note{
		EditID:     edit.ID,
		Suggestion: edit.Suggestion,
		Reasoning:  edit.Reasoning,
		Completed:  edit.Completed,
	}
	if strings.TrimSpace(note.Suggestion) == "" {
		note.Suggestion = DefaultSuggestion(edit.Type)
	}
	if strings.TrimSpace(note.Reasoning) == "" {
		note.Reasoning = DefaultReasoning(edit.Type)
	}

	matches := re.FindAllStringIndex(d.text, -1)
	for _, m := range matches {
		d.mark(m[0], m[1], edit.Type, note)
	}
	return len(matches), nil
}

func (d *Document) mark(start, end int, c models.Category, note Note) {
	i := sort.Search(len(d.spans), func(i int) bool {
		s := d.spans[i]
		return s.Start > start || (s.Start == start && s.End >= end)
	})
	if i < len(d.spans) && d.spans[i].Start == start && d.spans[i].End == end {
		if !d.spans[i].has(c) {
			d.spans[i].Marks = append(d.spans[i].Marks, d.nextMark(c, note))
		}
		return
	}
	d.spans = append(d.spans, Span{})
	copy(d.spans[i+1:], d.spans[i:])
	d.spans[i] = Span{Start: start, End: end, Marks: []Mark{d.nextMark(c, note)}}
}

func (d *Document) nextMark(c models.Category, note Note) Mark {
	m := Mark{Category: c, Note: note, Seq: d.seq}
	d.seq++
	return m
}

// marksAt returns the union of marks of every span covering [start, end),
// one per category, ordered by arrival.
func (d *Document) marksAt(start, end int) []Mark {
	var out []Mark
	for _, s := range d.spans {
		if s.Start > start {
			break
		}
		if s.End < end {
			continue
		}
		for _, m := range s.Marks {
			out = mergeMark(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func mergeMark(marks []Mark, m Mark) []Mark {
	for i := range marks {
		if marks[i].Category == m.Category {
			if m.Seq < marks[i].Seq {
				marks[i] = m
			}
			return marks
		}
	}
	return append(marks, m)
}

// boundaries returns the sorted distinct offsets where highlighting may change.
func (d *Document) boundaries() []int {
	seen := map[int]struct{}{0: {}, len(d.text): {}}
	for _, s := range d.spans {
		seen[s.Start] = struct{}{}
		seen[s.End] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for off := range seen {
		out = append(out, off)
	}
	sort.Ints(out)
	return out
}
