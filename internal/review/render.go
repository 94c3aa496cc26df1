package review

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/benvon/rewrite/internal/models"
)

// Render writes the document as markup. Overlapping spans are split into
// adjacent segments, each wrapped in one marker carrying the union of the
// categories covering it, so markers never nest. Newlines become <br>.
func (d *Document) Render() string {
	var b strings.Builder
	b.Grow(len(d.text) + len(d.spans)*160)
	bounds := d.boundaries()
	for i := 0; i+1 < len(bounds); i++ {
		start, end := bounds[i], bounds[i+1]
		segment := d.text[start:end]
		marks := d.marksAt(start, end)
		if len(marks) == 0 {
			writeText(&b, segment)
			continue
		}
		d.writeMarker(&b, marks, segment)
	}
	return b.String()
}

func (d *Document) writeMarker(b *strings.Builder, marks []Mark, segment string) {
	categories := make([]models.Category, len(marks))
	types := make([]string, len(marks))
	for i, m := range marks {
		categories[i] = m.Category
		types[i] = string(m.Category)
	}
	lead := marks[0].Note

	b.WriteString(`<span class="`)
	b.WriteString(html.EscapeString(ClassList(categories)))
	b.WriteString(`" data-type="`)
	b.WriteString(html.EscapeString(strings.Join(types, ",")))
	if lead.EditID != 0 {
		b.WriteString(`" data-highlight-id="`)
		b.WriteString(strconv.FormatInt(lead.EditID, 10))
		b.WriteString(`" data-completed="`)
		b.WriteString(strconv.FormatBool(lead.Completed))
	}
	b.WriteString(`" data-suggestion="`)
	b.WriteString(html.EscapeString(lead.Suggestion))
	b.WriteString(`" data-reasoning="`)
	b.WriteString(html.EscapeString(lead.Reasoning))
	b.WriteString(`" style="--highlight-shadows: `)
	b.WriteString(html.EscapeString(Shadows(categories, d.fallback)))
	b.WriteString(`">`)
	writeText(b, segment)
	b.WriteString(`</span>`)
}

func writeText(b *strings.Builder, s string) {
	b.WriteString(strings.ReplaceAll(html.EscapeString(s), "\n", "<br>"))
}

// Highlight applies edits to essay in order and renders the result.
func Highlight(essay string, edits []models.Edit, opts ...Option) (string, error) {
	d := NewDocument(essay, opts...)
	for _, e := range edits {
		if _, err := d.Apply(e); err != nil {
			return "", err
		}
	}
	return d.Render(), nil
}

// ApplyHighlight adds one edit to previously rendered markup.
func ApplyHighlight(markup string, edit models.Edit, opts ...Option) (string, error) {
	d, err := ParseMarkup(markup, opts...)
	if err != nil {
		return "", err
	}
	if _, err := d.Apply(edit); err != nil {
		return "", err
	}
	return d.Render(), nil
}
