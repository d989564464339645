// Package classify decides which elements may be redacted.
package classify

import (
	"strings"

	"github.com/dgallion1/blackout/internal/dom"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Profile selects a skip list.
type Profile int

const (
	// Standard is used by auto redaction and manual selection.
	Standard Profile = iota
	// RedactAll is used by the redact-all command. Links and buttons stay
	// eligible so their label text is covered too.
	RedactAll
)

func (p Profile) String() string {
	switch p {
	case Standard:
		return "standard"
	case RedactAll:
		return "redact_all"
	}
	return "unknown"
}

// containerTags are the text-bearing elements considered as containers.
var containerTags = atomSet(
	atom.P, atom.Article, atom.Section, atom.Div, atom.Li, atom.Td, atom.Th,
	atom.Blockquote, atom.Figcaption, atom.Dt, atom.Dd, atom.Span,
	atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6,
	atom.Label, atom.Strong, atom.Em, atom.B, atom.I, atom.Mark, atom.Small,
	atom.Cite, atom.Time, atom.Address, atom.Caption, atom.A, atom.Button,
)

var skipTags = atomSet(
	atom.Script, atom.Style, atom.Noscript, atom.Iframe, atom.Object, atom.Embed,
	atom.Input, atom.Textarea, atom.Select,
	atom.Code, atom.Pre, atom.Kbd, atom.Samp, atom.Var,
	atom.Svg, atom.Canvas, atom.Video, atom.Audio, atom.Img,
)

// The redact-all list is the same set today; it is kept separate so the two
// commands can diverge without touching each other.
var skipTagsRedactAll = atomSet(
	atom.Script, atom.Style, atom.Noscript, atom.Iframe, atom.Object, atom.Embed,
	atom.Input, atom.Textarea, atom.Select,
	atom.Code, atom.Pre, atom.Kbd, atom.Samp, atom.Var,
	atom.Svg, atom.Canvas, atom.Video, atom.Audio, atom.Img,
)

// blockAncestors disqualify everything beneath them.
var blockAncestors = atomSet(atom.Pre, atom.Code, atom.Script, atom.Style)

func atomSet(as ...atom.Atom) map[atom.Atom]bool {
	m := make(map[atom.Atom]bool, len(as))
	for _, a := range as {
		m[a] = true
	}
	return m
}

// Classifier answers eligibility questions for one profile.
type Classifier struct {
	profile Profile
	skip    map[atom.Atom]bool
}

func New(p Profile) *Classifier {
	c := &Classifier{profile: p, skip: skipTags}
	if p == RedactAll {
		c.skip = skipTagsRedactAll
	}
	return c
}

func (c *Classifier) Profile() Profile { return c.profile }

// Skip reports whether n must not be treated as a text container or as the
// parent of a redactable leaf.
func (c *Classifier) Skip(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return true
	}
	if c.skip[tagAtom(n)] {
		return true
	}
	if isContentEditable(n) {
		return true
	}
	if dom.HasClass(n, dom.RedactedClass) {
		return true
	}
	for a := n; a != nil; a = a.Parent {
		if a.Type == html.ElementNode && blockAncestors[tagAtom(a)] {
			return true
		}
	}
	return false
}

// IsEligibleContainer reports whether n is an allow-listed tag that is not
// skipped.
func (c *Classifier) IsEligibleContainer(n *html.Node) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	return containerTags[tagAtom(n)] && !c.Skip(n)
}

// AcceptLeaf reports whether a text node may be redacted, judged by its
// immediate parent.
func (c *Classifier) AcceptLeaf(t *html.Node) bool {
	if t == nil || t.Type != html.TextNode {
		return false
	}
	return !c.Skip(t.Parent)
}

// Containers returns the outermost eligible containers under root that carry
// visible text, in document order. Nested containers are folded into their
// ancestor so no text is processed twice.
func (c *Classifier) Containers(root *html.Node) []*html.Node {
	var out []*html.Node
	dom.Walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return n.Type == html.DocumentNode
		}
		if c.IsEligibleContainer(n) && strings.TrimSpace(dom.VisibleText(n)) != "" {
			out = append(out, n)
			return false
		}
		return true
	})
	return out
}

// Leaves returns the redactable text nodes under container, in document
// order. The slice is a one-shot snapshot; call again after mutating.
func (c *Classifier) Leaves(m dom.Model, container *html.Node) []*html.Node {
	return m.WalkText(container, c.AcceptLeaf)
}

func tagAtom(n *html.Node) atom.Atom {
	if n.DataAtom != 0 {
		return n.DataAtom
	}
	return atom.Lookup([]byte(strings.ToLower(n.Data)))
}

// isContentEditable follows the inherited contenteditable attribute.
func isContentEditable(n *html.Node) bool {
	for a := n; a != nil; a = a.Parent {
		if a.Type != html.ElementNode {
			continue
		}
		v, ok := dom.Attr(a, "contenteditable")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "true", "plaintext-only":
			return true
		case "false":
			return false
		}
	}
	return false
}
