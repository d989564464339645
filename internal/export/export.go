// Package export renders a redacted document for output.
package export

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/dgallion1/blackout/internal/dom"
	"golang.org/x/net/html"
)

// Format names an output rendering.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// MaskRune replaces every non-space rune of redacted text in masked output.
const MaskRune = '█'

// ParseFormat accepts a format name; empty means HTML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "html":
		return FormatHTML, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// ContentType is the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatText:
		return "text/plain; charset=utf-8"
	}
	return "text/html; charset=utf-8"
}

// HTML renders the whole document with its redaction spans in place.
func HTML(doc *dom.Document) string {
	return doc.String()
}

// Mask returns s with every non-space rune replaced by MaskRune.
func Mask(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return r
		}
		return MaskRune
	}, s)
}

// Masked returns a copy of doc in which the text of every redacted span is
// masked. doc is not modified.
func Masked(doc *dom.Document) *dom.Document {
	out := doc.Clone()
	for _, span := range out.QueryByClass(dom.RedactedClass) {
		for _, t := range out.WalkText(span, nil) {
			t.Data = Mask(t.Data)
		}
	}
	return out
}

var mdConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// Markdown converts the masked document to Markdown.
func Markdown(doc *dom.Document) (string, error) {
	md, err := mdConverter.ConvertString(Masked(doc).String())
	if err != nil {
		return "", fmt.Errorf("convert markdown: %w", err)
	}
	return md, nil
}

// blockTags end a line in text output.
var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "div": true, "dl": true, "dt": true,
	"figcaption": true, "figure": true, "footer": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "nav": true,
	"ol": true, "p": true, "pre": true, "section": true, "table": true,
	"tr": true, "ul": true,
}

var hiddenTags = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true, "head": true,
}

// Segment is a run of output text. Redacted segments carry the original
// text; renderers decide whether to mask it.
type Segment struct {
	Text     string `json:"text"`
	Redacted bool   `json:"redacted,omitempty"`
}

// Segments flattens the body into text runs in reading order. Whitespace is
// collapsed outside <pre>; block elements end lines.
func Segments(doc *dom.Document) []Segment {
	var s segmenter
	s.walk(doc.Body(), false, false)
	return s.trimmed()
}

type segmenter struct {
	out []Segment
}

func (s *segmenter) walk(n *html.Node, pre, redacted bool) {
	switch n.Type {
	case html.TextNode:
		text := n.Data
		if !pre {
			text = collapseSpace(text)
			if s.atLineStart() {
				text = strings.TrimLeft(text, " ")
			}
		}
		s.emit(text, redacted)
		return
	case html.ElementNode:
		if hiddenTags[n.Data] {
			return
		}
		block := blockTags[n.Data]
		if block {
			s.newline()
		}
		pre = pre || n.Data == "pre"
		redacted = redacted || dom.IsRedacted(n)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			s.walk(c, pre, redacted)
		}
		if block {
			s.newline()
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		s.walk(c, pre, redacted)
	}
}

func (s *segmenter) emit(text string, redacted bool) {
	if text == "" {
		return
	}
	if k := len(s.out) - 1; k >= 0 && s.out[k].Redacted == redacted {
		s.out[k].Text += text
		return
	}
	s.out = append(s.out, Segment{Text: text, Redacted: redacted})
}

func (s *segmenter) atLineStart() bool {
	if len(s.out) == 0 {
		return true
	}
	return strings.HasSuffix(s.out[len(s.out)-1].Text, "\n")
}

func (s *segmenter) newline() {
	if s.atLineStart() {
		return
	}
	k := len(s.out) - 1
	if !s.out[k].Redacted {
		s.out[k].Text = strings.TrimRight(s.out[k].Text, " ")
	}
	s.emit("\n", false)
}

// trimmed drops the trailing newline.
func (s *segmenter) trimmed() []Segment {
	if k := len(s.out) - 1; k >= 0 && !s.out[k].Redacted {
		s.out[k].Text = strings.TrimRight(s.out[k].Text, "\n")
		if s.out[k].Text == "" {
			s.out = s.out[:k]
		}
	}
	return s.out
}

func collapseSpace(s string) string {
	var b strings.Builder
	space := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !space {
				b.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return b.String()
}
