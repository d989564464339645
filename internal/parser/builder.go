package parser

import (
	"strings"

	"github.com/dgallion1/blackout/internal/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// builder assembles a minimal HTML document for formats that are not HTML
// to begin with.
type builder struct {
	root *html.Node
	body *html.Node
}

func newBuilder(title string) *builder {
	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	htmlEl := element(atom.Html)
	root.AppendChild(htmlEl)

	head := element(atom.Head)
	htmlEl.AppendChild(head)
	meta := element(atom.Meta)
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	head.AppendChild(meta)
	if title != "" {
		t := element(atom.Title)
		t.AppendChild(&html.Node{Type: html.TextNode, Data: title})
		head.AppendChild(t)
	}

	body := element(atom.Body)
	htmlEl.AppendChild(body)
	return &builder{root: root, body: body}
}

// add appends a new element under parent (the body when nil) and returns it.
// Non-empty text becomes its only child.
func (b *builder) add(parent *html.Node, a atom.Atom, text string) *html.Node {
	if parent == nil {
		parent = b.body
	}
	n := element(a)
	if text != "" {
		n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	}
	parent.AppendChild(n)
	return n
}

// paragraphs adds one <p> per blank-line separated block of text.
func (b *builder) paragraphs(parent *html.Node, text string) int {
	n := 0
	for _, para := range splitParagraphs(text) {
		b.add(parent, atom.P, para)
		n++
	}
	return n
}

func (b *builder) document() *dom.Document {
	return dom.FromNode(b.root)
}

func element(a atom.Atom) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
}

func headingAtom(level int) atom.Atom {
	switch level {
	case 1:
		return atom.H1
	case 2:
		return atom.H2
	case 3:
		return atom.H3
	case 4:
		return atom.H4
	case 5:
		return atom.H5
	}
	return atom.H6
}

// splitParagraphs splits on blank (or whitespace-only) lines. Lines inside
// a paragraph keep their newline.
func splitParagraphs(text string) []string {
	var (
		out     []string
		current strings.Builder
	)
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if strings.TrimSpace(line) == "" {
			if current.Len() > 0 {
				out = append(out, current.String())
				current.Reset()
			}
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		out = append(out, current.String())
	}
	return out
}
