// Package mutate applies redaction verdicts to a live document tree.
package mutate

import (
	"strings"

	"github.com/dgallion1/blackout/internal/dom"
	"github.com/dgallion1/blackout/internal/tokenize"
	"golang.org/x/net/html"
)

// ApplyVerdicts replaces text with a fragment in which every run of redacted
// words is wrapped in a single span. verdicts is indexed like tokens;
// entries for whitespace tokens are ignored. Whitespace joins the open span
// when one is pending, otherwise it stays plain. Returns the number of words
// redacted.
func ApplyVerdicts(m dom.Model, text *html.Node, tokens []tokenize.Token, verdicts []bool) int {
	var (
		frag     []*html.Node
		redacted strings.Builder
		plain    strings.Builder
		count    int
	)
	flushPlain := func() {
		if plain.Len() > 0 {
			frag = append(frag, dom.NewText(plain.String()))
			plain.Reset()
		}
	}
	flushRedacted := func() {
		if redacted.Len() > 0 {
			frag = append(frag, dom.NewRedactedSpan(redacted.String()))
			redacted.Reset()
		}
	}

	for i, tok := range tokens {
		switch {
		case tok.Space && redacted.Len() > 0:
			redacted.WriteString(tok.Text)
		case tok.Space:
			plain.WriteString(tok.Text)
		case i < len(verdicts) && verdicts[i]:
			flushPlain()
			redacted.WriteString(tok.Text)
			count++
		default:
			flushRedacted()
			plain.WriteString(tok.Text)
		}
	}
	flushRedacted()
	flushPlain()

	if count == 0 {
		return 0
	}
	m.ReplaceNode(text, frag...)
	return count
}

// UnwrapSpan replaces a redacted span with its text and merges the result
// with neighbouring text nodes.
func UnwrapSpan(m dom.Model, span *html.Node) {
	parent := span.Parent
	if parent == nil {
		return
	}
	m.ReplaceNode(span, dom.NewText(dom.TextContent(span)))
	m.NormalizeRegion(parent)
}

// UnwrapAll unwraps every redacted span in the document and normalizes the
// body once. Returns the number of spans removed.
func UnwrapAll(m dom.Model) int {
	spans := m.QueryByClass(dom.RedactedClass)
	n := 0
	for _, span := range spans {
		if span.Parent == nil {
			continue
		}
		m.ReplaceNode(span, dom.NewText(dom.TextContent(span)))
		n++
	}
	if n > 0 {
		m.NormalizeRegion(m.Body())
	}
	return n
}

// WrapRange wraps runes [start, end) of text in a redacted span, splitting
// off the parts before and after. Returns nil when the clipped range is
// empty.
func WrapRange(m dom.Model, text *html.Node, start, end int) *html.Node {
	size := dom.RuneLen(text.Data)
	if start < 0 {
		start = 0
	}
	if end > size {
		end = size
	}
	if start >= end || text.Parent == nil {
		return nil
	}
	middle := text
	if start > 0 {
		middle = m.SplitTextAt(text, start)
	}
	if end-start < dom.RuneLen(middle.Data) {
		m.SplitTextAt(middle, end-start)
	}
	span := dom.NewRedactedElement()
	m.ReplaceNode(middle, span)
	span.AppendChild(middle)
	return span
}

// WrapWords replaces text with a fragment in which every word has its own
// span and whitespace stays plain. Returns the number of words wrapped.
func WrapWords(m dom.Model, text *html.Node, tokens []tokenize.Token) int {
	var frag []*html.Node
	count := 0
	for _, tok := range tokens {
		if tok.Space {
			frag = append(frag, dom.NewText(tok.Text))
			continue
		}
		frag = append(frag, dom.NewRedactedSpan(tok.Text))
		count++
	}
	if count == 0 {
		return 0
	}
	m.ReplaceNode(text, frag...)
	return count
}
