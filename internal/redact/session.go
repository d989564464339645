// Package redact runs redaction commands against one document at a time.
package redact

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgallion1/blackout/internal/classify"
	"github.com/dgallion1/blackout/internal/dom"
	"github.com/dgallion1/blackout/internal/history"
	"github.com/dgallion1/blackout/internal/mutate"
	"github.com/dgallion1/blackout/internal/policy"
	"github.com/dgallion1/blackout/internal/selection"
	"github.com/dgallion1/blackout/internal/tokenize"
	"github.com/google/uuid"
)

var (
	// ErrInactive is returned for selection redaction while the mode is off.
	ErrInactive = errors.New("redaction mode is not active")
	// ErrSpanNotFound is returned by Unredact for an index with no span.
	ErrSpanNotFound = errors.New("redacted span not found")
)

// Options configure a Session.
type Options struct {
	HistoryLimit int
	// Seed feeds policy.NewSource when Source is nil. Zero picks a seed from
	// the clock.
	Seed   uint64
	Source policy.Source
	// Defaults fill fields a command leaves unset.
	Defaults policy.Settings
	Logger   *slog.Logger
}

// Result is the outcome of one command. The history status is always
// current as of the end of the command.
type Result struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Redacted int    `json:"redactedElements"`
	Restored int    `json:"restoredElements"`
	Dropped  int    `json:"droppedEntries,omitempty"`
	history.Status
}

// Session owns one document together with its history and mode flag.
// Commands are serialized; each runs to completion before the next starts.
type Session struct {
	mu sync.Mutex

	ID        string
	Filename  string
	CreatedAt time.Time
	updatedAt time.Time

	doc      *dom.Document
	history  *history.Manager
	std      *classify.Classifier
	all      *classify.Classifier
	src      policy.Source
	defaults policy.Settings
	log      *slog.Logger
	active   bool
}

// NewSession wraps doc. The session takes ownership of the tree.
func NewSession(doc *dom.Document, opts Options) *Session {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	src := opts.Source
	if src == nil {
		src = policy.NewSource(opts.Seed)
	}
	defaults := opts.Defaults
	if defaults.Mode == "" {
		defaults = policy.DefaultSettings()
	}

	id := newID()
	now := time.Now()
	log = log.With("session", id)
	return &Session{
		ID:        id,
		CreatedAt: now,
		updatedAt: now,
		doc:       doc,
		history:   history.NewManager(doc, opts.HistoryLimit, log),
		std:       classify.New(classify.Standard),
		all:       classify.New(classify.RedactAll),
		src:       src,
		defaults:  defaults.Normalize(),
		log:       log,
	}
}

func newID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Defaults returns the settings used to fill unset command fields.
func (s *Session) Defaults() policy.Settings {
	return s.defaults
}

// Ping reports the history status without touching the document.
func (s *Session) Ping() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result(Result{Success: true})
}

// HistoryStatus reports the depth of both stacks.
func (s *Session) HistoryStatus() history.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Status()
}

// Active reports whether manual selection mode is on.
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Toggle turns manual selection mode on or off and marks <body> accordingly.
func (s *Session) Toggle(enabled bool) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	s.active = enabled
	if enabled {
		dom.AddClass(s.doc.Body(), dom.ModeActiveClass)
	} else {
		dom.RemoveClass(s.doc.Body(), dom.ModeActiveClass)
	}
	s.log.Debug("redaction mode toggled", "active", enabled)
	return s.result(Result{Success: true})
}

// AutoRedact runs the policy for settings over every eligible container.
// Redacted is the number of words hidden.
func (s *Session) AutoRedact(settings policy.Settings) Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.history.Push()

	settings = settings.Normalize()
	decider := policy.New(settings, s.src)
	count := 0
	for _, container := range s.std.Containers(s.doc.Body()) {
		for _, leaf := range s.std.Leaves(s.doc, container) {
			if strings.TrimSpace(leaf.Data) == "" {
				continue
			}
			tokens := tokenize.Split(leaf.Data)
			verdicts := make([]bool, len(tokens))
			st := decider.Start()
			for i, tok := range tokens {
				if tok.Space {
					continue
				}
				verdicts[i], st = decider.Decide(tok.Text, st)
			}
			count += mutate.ApplyVerdicts(s.doc, leaf, tokens, verdicts)
		}
	}
	s.log.Info("auto redaction applied", "mode", settings.Mode, "intensity", settings.Intensity, "words", count)
	return s.result(Result{Success: true, Redacted: count})
}

// RedactAll wraps every word of every eligible container in its own span.
func (s *Session) RedactAll() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.history.Push()

	count := 0
	for _, container := range s.all.Containers(s.doc.Body()) {
		for _, leaf := range s.all.Leaves(s.doc, container) {
			if strings.TrimSpace(leaf.Data) == "" {
				continue
			}
			count += mutate.WrapWords(s.doc, leaf, tokenize.Split(leaf.Data))
		}
	}
	s.log.Info("redact all applied", "words", count)
	return s.result(Result{Success: true, Redacted: count})
}

// Reset removes every redaction in the document.
func (s *Session) Reset() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	s.history.Push()

	n := mutate.UnwrapAll(s.doc)
	s.log.Info("redactions reset", "spans", n)
	return s.result(Result{Success: true, Restored: n})
}

// Undo restores the state before the last mutating command. An empty stack
// is reported in the result, not as an error.
func (s *Session) Undo() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	res, err := s.history.Undo()
	if errors.Is(err, history.ErrEmptyHistory) {
		return s.result(Result{Message: "Nothing to undo"})
	}
	return s.result(Result{Success: true, Restored: res.Restored, Dropped: res.Dropped})
}

// Redo reapplies the most recently undone state.
func (s *Session) Redo() Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	res, err := s.history.Redo()
	if errors.Is(err, history.ErrEmptyHistory) {
		return s.result(Result{Message: "Nothing to redo"})
	}
	return s.result(Result{Success: true, Restored: res.Restored, Dropped: res.Dropped})
}

// RedactSelection wraps the text covered by r. It requires manual selection
// mode. A collapsed range is a no-op and records no history.
func (s *Session) RedactSelection(r dom.Range) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.redactRange(r)
}

// RedactOffsets selects runes [start, end) of the visible body text and
// redacts them.
func (s *Session) RedactOffsets(start, end int) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return s.result(Result{}), ErrInactive
	}
	r, err := dom.RangeFromOffsets(s.doc.Body(), start, end)
	if err != nil {
		return s.result(Result{}), fmt.Errorf("select: %w", err)
	}
	return s.redactRange(r)
}

// RedactText selects the occurrence-th (0-based) match of text and redacts
// it.
func (s *Session) RedactText(text string, occurrence int) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return s.result(Result{}), ErrInactive
	}
	r, err := dom.FindText(s.doc.Body(), text, occurrence)
	if err != nil {
		return s.result(Result{}), fmt.Errorf("select: %w", err)
	}
	return s.redactRange(r)
}

func (s *Session) redactRange(r dom.Range) (Result, error) {
	if !s.active {
		return s.result(Result{}), ErrInactive
	}
	s.touch()
	if r.Collapsed() {
		return s.result(Result{Success: true}), nil
	}
	s.history.Push()
	n := selection.Redact(s.doc, s.std, r)
	s.log.Debug("selection redacted", "spans", n)
	return s.result(Result{Success: true, Redacted: n}), nil
}

// Unredact restores the text of the index-th (0-based, document order)
// redacted span.
func (s *Session) Unredact(index int) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	spans := s.doc.QueryByClass(dom.RedactedClass)
	if index < 0 || index >= len(spans) {
		return s.result(Result{}), fmt.Errorf("span %d of %d: %w", index, len(spans), ErrSpanNotFound)
	}
	s.history.Push()
	mutate.UnwrapSpan(s.doc, spans[index])
	return s.result(Result{Success: true, Restored: 1}), nil
}

// SpanCount returns the number of redacted spans in the document.
func (s *Session) SpanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.doc.QueryByClass(dom.RedactedClass))
}

// View runs fn with the document while holding the session lock. fn must
// not retain or mutate the document.
func (s *Session) View(fn func(doc *dom.Document) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.doc)
}

// UpdatedAt returns the time of the last command.
func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) touch() {
	s.updatedAt = time.Now()
}

func (s *Session) result(r Result) Result {
	r.Status = s.history.Status()
	return r
}
