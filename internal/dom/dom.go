package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// RedactedClass marks a span produced by the engine.
const RedactedClass = "blackout-redacted"

// ModeActiveClass is set on <body> while manual selection mode is engaged.
const ModeActiveClass = "blackout-mode-active"

// Model is the document capability the redaction engine depends on.
// Offsets are counted in runes.
type Model interface {
	Root() *html.Node
	Body() *html.Node
	QueryByClass(class string) []*html.Node
	WalkText(root *html.Node, accept func(*html.Node) bool) []*html.Node
	SplitTextAt(text *html.Node, offset int) *html.Node
	ReplaceNode(old *html.Node, repl ...*html.Node)
	NormalizeRegion(root *html.Node)
}

// Document is a Model backed by a parsed x/net/html tree.
type Document struct {
	root *html.Node
	body *html.Node
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	n, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return FromNode(n), nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// FromNode wraps an existing tree. When the tree has no <body>, the root
// itself is treated as the body.
func FromNode(root *html.Node) *Document {
	d := &Document{root: root}
	d.body = findBody(root)
	if d.body == nil {
		d.body = root
	}
	return d
}

func (d *Document) Root() *html.Node { return d.root }

func (d *Document) Body() *html.Node { return d.body }

// Render writes the whole document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// BodyHTML renders only the children of <body>.
func (d *Document) BodyHTML() string {
	var buf bytes.Buffer
	for c := d.body.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	return FromNode(Clone(d.root))
}

func (d *Document) QueryByClass(class string) []*html.Node {
	var out []*html.Node
	Walk(d.root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && HasClass(n, class) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// WalkText returns the text nodes under root in document order. A nil
// accept admits every text node.
func (d *Document) WalkText(root *html.Node, accept func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	Walk(root, func(n *html.Node) bool {
		if n.Type == html.TextNode && (accept == nil || accept(n)) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// SplitTextAt truncates text at offset and inserts the remainder as a new
// sibling text node, which it returns.
func (d *Document) SplitTextAt(text *html.Node, offset int) *html.Node {
	head, tail := splitRunes(text.Data, offset)
	text.Data = head
	next := &html.Node{Type: html.TextNode, Data: tail}
	if text.Parent != nil {
		text.Parent.InsertBefore(next, text.NextSibling)
	}
	return next
}

// ReplaceNode swaps old for repl, in order. Nodes in repl must be detached.
func (d *Document) ReplaceNode(old *html.Node, repl ...*html.Node) {
	parent := old.Parent
	if parent == nil {
		return
	}
	for _, n := range repl {
		parent.InsertBefore(n, old)
	}
	parent.RemoveChild(old)
}

// NormalizeRegion merges adjacent text nodes and drops empty ones under root.
func (d *Document) NormalizeRegion(root *html.Node) {
	var next *html.Node
	for c := root.FirstChild; c != nil; c = next {
		next = c.NextSibling
		switch c.Type {
		case html.TextNode:
			for next != nil && next.Type == html.TextNode {
				c.Data += next.Data
				after := next.NextSibling
				root.RemoveChild(next)
				next = after
			}
			if c.Data == "" {
				root.RemoveChild(c)
			}
		case html.ElementNode, html.DocumentNode:
			d.NormalizeRegion(c)
		}
	}
}

func findBody(n *html.Node) *html.Node {
	var body *html.Node
	Walk(n, func(c *html.Node) bool {
		if body != nil {
			return false
		}
		if c.Type == html.ElementNode && c.Data == "body" {
			body = c
			return false
		}
		return true
	})
	return body
}

func splitRunes(s string, offset int) (string, string) {
	if offset <= 0 {
		return "", s
	}
	i := 0
	for pos := range s {
		if i == offset {
			return s[:pos], s[pos:]
		}
		i++
	}
	return s, ""
}
