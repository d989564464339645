// Package selection redacts an explicit range of the document.
package selection

import (
	"github.com/dgallion1/blackout/internal/classify"
	"github.com/dgallion1/blackout/internal/dom"
	"github.com/dgallion1/blackout/internal/mutate"
	"golang.org/x/net/html"
)

// Redact wraps the text covered by r in redacted spans, one per text node.
// Text nodes whose parent the classifier skips are left alone. Returns the
// number of spans created. The caller records history before calling.
func Redact(m dom.Model, c *classify.Classifier, r dom.Range) int {
	if r.Collapsed() {
		return 0
	}
	type segment struct {
		node       *html.Node
		start, end int
	}
	var segs []segment
	for _, t := range r.TextNodes() {
		if !c.AcceptLeaf(t) {
			continue
		}
		start, end := 0, dom.RuneLen(t.Data)
		if t == r.StartNode {
			start = r.StartOffset
		}
		if t == r.EndNode {
			end = r.EndOffset
		}
		if start < end {
			segs = append(segs, segment{t, start, end})
		}
	}

	// Collect first: wrapping splits nodes and would shift the walk.
	n := 0
	for _, s := range segs {
		if mutate.WrapRange(m, s.node, s.start, s.end) != nil {
			n++
		}
	}
	return n
}
