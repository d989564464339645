package history

import (
	"fmt"
	"strings"

	"github.com/dgallion1/blackout/internal/dom"
	"golang.org/x/net/html"
)

// Step addresses one element below its parent: by id when the id is unique
// in the document, otherwise by 1-based position among element siblings.
type Step struct {
	Tag string `json:"tag"`
	ID  string `json:"id,omitempty"`
	Nth int    `json:"nth,omitempty"`
}

// Path addresses an element relative to <body>. An empty path is <body>
// itself. When the first step carries an ID it is resolved document-wide.
type Path []Step

// String renders the path as a CSS-like selector, for logs.
func (p Path) String() string {
	if len(p) == 0 {
		return "body"
	}
	parts := make([]string, len(p))
	for i, s := range p {
		if s.ID != "" {
			parts[i] = s.Tag + "#" + s.ID
		} else {
			parts[i] = fmt.Sprintf("%s:nth-child(%d)", s.Tag, s.Nth)
		}
	}
	return strings.Join(parts, " > ")
}

// idCounts tallies element ids under root so uniqueness can be checked
// without rescanning per element.
func idCounts(root *html.Node) map[string]int {
	counts := make(map[string]int)
	dom.Walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode {
			if id, ok := dom.Attr(n, "id"); ok && id != "" {
				counts[id]++
			}
		}
		return true
	})
	return counts
}

// pathTo builds the path from body down to el. The walk stops early at an
// ancestor with a unique id.
func pathTo(body, el *html.Node, ids map[string]int) Path {
	var rev Path
	for cur := el; cur != nil && cur != body; cur = cur.Parent {
		if cur.Type != html.ElementNode || cur.Data == "html" {
			break
		}
		step := Step{Tag: cur.Data}
		if id, ok := dom.Attr(cur, "id"); ok && id != "" && ids[id] == 1 {
			step.ID = id
			rev = append(rev, step)
			break
		}
		step.Nth = dom.ElementIndex(cur) + 1
		rev = append(rev, step)
	}
	p := make(Path, len(rev))
	for i, s := range rev {
		p[len(rev)-1-i] = s
	}
	return p
}

// resolve walks p from body. It fails with ErrPathResolution when any step
// no longer matches.
func resolve(root, body *html.Node, p Path) (*html.Node, error) {
	cur := body
	steps := p
	if len(steps) > 0 && steps[0].ID != "" {
		found := dom.ElementsByID(root, steps[0].ID)
		if len(found) != 1 || found[0].Data != steps[0].Tag {
			return nil, fmt.Errorf("%s: id %q: %w", p, steps[0].ID, ErrPathResolution)
		}
		cur = found[0]
		steps = steps[1:]
	}
	for _, s := range steps {
		next := dom.NthElementChild(cur, s.Nth-1)
		if next == nil || next.Data != s.Tag {
			return nil, fmt.Errorf("%s: step %s:nth-child(%d): %w", p, s.Tag, s.Nth, ErrPathResolution)
		}
		cur = next
	}
	return cur, nil
}
