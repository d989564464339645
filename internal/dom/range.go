package dom

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

var (
	ErrRangeOutOfBounds = errors.New("range out of bounds")
	ErrTextNotFound     = errors.New("text not found")
)

// Range is a selection between two text-node positions. Offsets are runes
// into the respective node's data; EndOffset is exclusive.
type Range struct {
	StartNode   *html.Node
	StartOffset int
	EndNode     *html.Node
	EndOffset   int
}

func (r Range) Collapsed() bool {
	return r.StartNode == nil || (r.StartNode == r.EndNode && r.StartOffset >= r.EndOffset)
}

// TextNodes returns the text nodes from StartNode through EndNode in
// document order. Nodes inside script or style content are included; callers
// filter them.
func (r Range) TextNodes() []*html.Node {
	if r.StartNode == nil || r.EndNode == nil {
		return nil
	}
	top := r.StartNode
	for top.Parent != nil {
		top = top.Parent
	}
	var out []*html.Node
	started, done := false, false
	Walk(top, func(n *html.Node) bool {
		if done {
			return false
		}
		if n.Type != html.TextNode {
			return true
		}
		if n == r.StartNode {
			started = true
		}
		if started {
			out = append(out, n)
		}
		if n == r.EndNode {
			done = true
		}
		return true
	})
	if !done {
		return nil
	}
	return out
}

// RangeFromOffsets maps the rune span [start, end) over the visible text of
// root to a Range.
func RangeFromOffsets(root *html.Node, start, end int) (Range, error) {
	if start < 0 || end <= start {
		return Range{}, fmt.Errorf("offsets [%d,%d): %w", start, end, ErrRangeOutOfBounds)
	}
	var r Range
	cum := 0
	for _, t := range visibleTextNodes(root) {
		n := utf8.RuneCountInString(t.Data)
		if n == 0 {
			continue
		}
		if r.StartNode == nil && start < cum+n {
			r.StartNode, r.StartOffset = t, start-cum
		}
		if r.StartNode != nil && end <= cum+n {
			r.EndNode, r.EndOffset = t, end-cum
			return r, nil
		}
		cum += n
	}
	return Range{}, fmt.Errorf("offsets [%d,%d) beyond %d runes: %w", start, end, cum, ErrRangeOutOfBounds)
}

// FindText locates the occurrence-th (0-based) match of needle in the
// visible text of root. The match may span several text nodes.
func FindText(root *html.Node, needle string, occurrence int) (Range, error) {
	if needle == "" {
		return Range{}, fmt.Errorf("empty needle: %w", ErrTextNotFound)
	}
	text := VisibleText(root)
	from := 0
	for i := 0; ; i++ {
		idx := strings.Index(text[from:], needle)
		if idx < 0 {
			return Range{}, fmt.Errorf("%q occurrence %d: %w", needle, occurrence, ErrTextNotFound)
		}
		idx += from
		if i == occurrence {
			start := utf8.RuneCountInString(text[:idx])
			return RangeFromOffsets(root, start, start+utf8.RuneCountInString(needle))
		}
		from = idx + len(needle)
	}
}
