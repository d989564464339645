package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/blackout/internal/dom"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLParser handles HTML files. With Sanitize set, scripts, event handlers
// and unsafe URLs are stripped before the tree is built; class and id
// attributes survive so existing redactions and anchors are kept.
type HTMLParser struct {
	Sanitize bool
}

// sanitizePolicy is safe for concurrent use once built.
var sanitizePolicy = newSanitizePolicy()

// newSanitizePolicy keeps the markers the classifier skips on: form
// controls, code-like elements and contenteditable regions. Embedded media
// is dropped with its fallback text.
func newSanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("span", "div", "article", "section", "header", "footer", "main", "nav", "aside", "label", "button", "time", "address")
	p.AllowElements("textarea", "select", "option", "optgroup", "datalist", "input")
	p.AllowElements("code", "pre", "kbd", "samp", "var")
	p.AllowAttrs("class", "id", "contenteditable").Globally()
	p.AllowAttrs("type", "value", "placeholder").OnElements("input")
	p.SkipElementsContent("svg", "canvas", "video", "audio", "object", "embed", "iframe", "noscript")
	return p
}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*dom.Document, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}

	doc, err := dom.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, err
	}
	if !p.Sanitize {
		return doc, nil
	}

	// The sanitizer drops <head>; carry the title over by hand.
	title := findTitle(doc.Root())
	if title == "" {
		title = titleFromFilename(filename)
	}
	clean := sanitizePolicy.SanitizeBytes(src)

	b := newBuilder(title)
	nodes, err := html.ParseFragment(bytes.NewReader(clean), b.body)
	if err != nil {
		return nil, fmt.Errorf("parse sanitized html: %w", err)
	}
	for _, n := range nodes {
		b.body.AppendChild(n)
	}
	return b.document(), nil
}

// Title returns the text of the document's <title>, if any.
func Title(doc *dom.Document) string {
	return findTitle(doc.Root())
}

func findTitle(root *html.Node) string {
	var title string
	dom.Walk(root, func(n *html.Node) bool {
		if title != "" {
			return false
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			title = strings.TrimSpace(dom.TextContent(n))
			return false
		}
		return true
	})
	return title
}
