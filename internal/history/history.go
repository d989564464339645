// Package history keeps undo/redo stacks of document redaction state.
//
// Snapshots record where each redacted span lived (a structural path to its
// parent plus a text offset) and what it contained. Restoring a snapshot is
// a best-effort reconstruction: entries whose parent or text can no longer be
// found are dropped.
package history

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/blackout/internal/dom"
	"github.com/dgallion1/blackout/internal/mutate"
	"golang.org/x/net/html"
)

// DefaultLimit bounds each stack.
const DefaultLimit = 50

var (
	// ErrEmptyHistory is returned by Undo and Redo when there is nothing to
	// apply. It is not fatal.
	ErrEmptyHistory = errors.New("empty history")
	// ErrPathResolution marks a snapshot entry that could not be relocated.
	ErrPathResolution = errors.New("path resolution failure")
)

// Entry is one redacted span inside a Snapshot.
type Entry struct {
	Parent Path   `json:"parent"`
	Index  int    `json:"index"`
	Offset int    `json:"offset"`
	Text   string `json:"text"`
	Markup string `json:"markup"`
}

// Snapshot is the redaction state of a document at one point in time.
type Snapshot struct {
	Taken   time.Time `json:"taken"`
	Entries []Entry   `json:"entries"`
}

// Status summarises the stacks for callers.
type Status struct {
	CanUndo   bool `json:"canUndo"`
	CanRedo   bool `json:"canRedo"`
	UndoCount int  `json:"undoCount"`
	RedoCount int  `json:"redoCount"`
}

// RestoreResult reports how much of a snapshot was reapplied.
type RestoreResult struct {
	Restored int `json:"restored"`
	Dropped  int `json:"dropped"`
}

// Manager owns the undo and redo stacks for one document. It is not safe
// for concurrent use; the owning session serializes access.
type Manager struct {
	doc   dom.Model
	limit int
	log   *slog.Logger
	undo  []Snapshot
	redo  []Snapshot
}

// NewManager creates a manager. A non-positive limit means DefaultLimit.
func NewManager(doc dom.Model, limit int, log *slog.Logger) *Manager {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{doc: doc, limit: limit, log: log}
}

// Capture records every redacted span currently in the document.
func (m *Manager) Capture() Snapshot {
	body := m.doc.Body()
	ids := idCounts(m.doc.Root())
	snap := Snapshot{Taken: time.Now()}
	for _, span := range m.doc.QueryByClass(dom.RedactedClass) {
		parent := span.Parent
		if parent == nil || parent.Type != html.ElementNode || nestedInRedaction(span) {
			continue
		}
		snap.Entries = append(snap.Entries, Entry{
			Parent: pathTo(body, parent, ids),
			Index:  dom.ChildIndex(span),
			Offset: textOffset(parent, span),
			Text:   dom.TextContent(span),
			Markup: dom.OuterHTML(span),
		})
	}
	return snap
}

// Push captures the current state onto the undo stack and clears redo. Call
// it before every mutating command.
func (m *Manager) Push() {
	m.undo = m.pushBounded(m.undo, m.Capture())
	m.redo = nil
}

// Undo restores the state before the most recent command.
func (m *Manager) Undo() (RestoreResult, error) {
	if len(m.undo) == 0 {
		return RestoreResult{}, fmt.Errorf("undo: %w", ErrEmptyHistory)
	}
	m.redo = m.pushBounded(m.redo, m.Capture())
	prev := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	return m.Restore(prev), nil
}

// Redo reapplies the most recently undone state.
func (m *Manager) Redo() (RestoreResult, error) {
	if len(m.redo) == 0 {
		return RestoreResult{}, fmt.Errorf("redo: %w", ErrEmptyHistory)
	}
	m.undo = m.pushBounded(m.undo, m.Capture())
	next := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	return m.Restore(next), nil
}

func (m *Manager) Status() Status {
	return Status{
		CanUndo:   len(m.undo) > 0,
		CanRedo:   len(m.redo) > 0,
		UndoCount: len(m.undo),
		RedoCount: len(m.redo),
	}
}

// Restore removes every current redaction and reapplies s.
func (m *Manager) Restore(s Snapshot) RestoreResult {
	mutate.UnwrapAll(m.doc)
	m.doc.NormalizeRegion(m.doc.Body())

	var res RestoreResult
	for _, e := range s.Entries {
		if err := m.restoreEntry(e); err != nil {
			m.log.Debug("dropped snapshot entry", "parent", e.Parent.String(), "error", err)
			res.Dropped++
			continue
		}
		res.Restored++
	}
	return res
}

func (m *Manager) restoreEntry(e Entry) error {
	if e.Text == "" {
		return fmt.Errorf("empty text: %w", ErrPathResolution)
	}
	parent, err := resolve(m.doc.Root(), m.doc.Body(), e.Parent)
	if err != nil {
		return err
	}
	texts := m.doc.WalkText(parent, nil)
	if node, at, ok := locateAtOffset(texts, e.Offset, e.Text); ok {
		mutate.WrapRange(m.doc, node, at, at+dom.RuneLen(e.Text))
		return nil
	}
	for _, t := range texts {
		if dom.IsRedacted(t.Parent) {
			continue
		}
		if idx := strings.Index(t.Data, e.Text); idx >= 0 {
			at := dom.RuneLen(t.Data[:idx])
			mutate.WrapRange(m.doc, t, at, at+dom.RuneLen(e.Text))
			return nil
		}
	}
	return fmt.Errorf("%s: text %q: %w", e.Parent, e.Text, ErrPathResolution)
}

func (m *Manager) pushBounded(stack []Snapshot, s Snapshot) []Snapshot {
	stack = append(stack, s)
	if over := len(stack) - m.limit; over > 0 {
		stack = append(stack[:0:0], stack[over:]...)
	}
	return stack
}

// locateAtOffset finds the unredacted text node that holds want starting at
// rune offset off within the concatenated texts.
func locateAtOffset(texts []*html.Node, off int, want string) (*html.Node, int, bool) {
	cum := 0
	for _, t := range texts {
		n := dom.RuneLen(t.Data)
		if off >= cum && off < cum+n {
			if dom.IsRedacted(t.Parent) {
				return nil, 0, false
			}
			at := off - cum
			rest := t.Data[byteOffset(t.Data, at):]
			if strings.HasPrefix(rest, want) {
				return t, at, true
			}
			return nil, 0, false
		}
		cum += n
	}
	return nil, 0, false
}

// textOffset counts the runes of text under parent that precede span.
func textOffset(parent, span *html.Node) int {
	off := 0
	done := false
	dom.Walk(parent, func(n *html.Node) bool {
		if done {
			return false
		}
		if n == span {
			done = true
			return false
		}
		if n.Type == html.TextNode {
			off += dom.RuneLen(n.Data)
		}
		return true
	})
	return off
}

func nestedInRedaction(span *html.Node) bool {
	for a := span.Parent; a != nil; a = a.Parent {
		if dom.IsRedacted(a) {
			return true
		}
	}
	return false
}

func byteOffset(s string, runes int) int {
	i := 0
	for pos := range s {
		if i == runes {
			return pos
		}
		i++
	}
	return len(s)
}
