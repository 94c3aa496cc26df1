package review

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/benvon/rewrite/internal/models"
)

type openSpan struct {
	start int
	marks []Mark
}

// ParseMarkup reads markup produced by Render back into a Document. Spans
// without a data-type attribute and any other tags are dropped, keeping
// their text.
func ParseMarkup(markup string, opts ...Option) (*Document, error) {
	d := NewDocument("", opts...)
	var text strings.Builder
	var stack []*openSpan

	z := html.NewTokenizer(strings.NewReader(markup))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				d.text = text.String()
				return d, nil
			}
			return nil, fmt.Errorf("failed to parse markup: %w", z.Err())
		case html.TextToken:
			text.WriteString(z.Token().Data)
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "br":
				text.WriteByte('\n')
			case "span":
				if tt == html.SelfClosingTagToken {
					continue
				}
				stack = append(stack, d.openSpan(tok, text.Len()))
			}
		case html.EndTagToken:
			tok := z.Token()
			if tok.Data != "span" || len(stack) == 0 {
				continue
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top == nil || text.Len() <= top.start {
				continue
			}
			d.text = text.String()
			for _, m := range top.marks {
				d.mark(top.start, text.Len(), m.Category, m.Note)
			}
		}
	}
}

func (d *Document) openSpan(tok html.Token, start int) *openSpan {
	attrs := make(map[string]string, len(tok.Attr))
	for _, a := range tok.Attr {
		attrs[a.Key] = a.Val
	}
	types, ok := attrs["data-type"]
	if !ok {
		return nil
	}
	lead := Note{
		Suggestion: attrs["data-suggestion"],
		Reasoning:  attrs["data-reasoning"],
	}
	if id, err := strconv.ParseInt(attrs["data-highlight-id"], 10, 64); err == nil {
		lead.EditID = id
	}
	lead.Completed = attrs["data-completed"] == "true"

	s := &openSpan{start: start}
	for _, t := range strings.Split(types, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		var note Note
		if len(s.marks) == 0 {
			note = lead
		}
		s.marks = append(s.marks, Mark{Category: models.Category(t), Note: note})
	}
	return s
}
