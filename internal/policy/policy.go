// Package policy decides, word by word, whether text is redacted.
//
// Whitespace never reaches a Decider: callers route it straight to the
// output. State is per text node; start every node with Decider.Start.
package policy

import (
	"unicode"
	"unicode/utf8"
)

// privacyShowChance is the probability a long common word stays visible in
// privacy mode.
const privacyShowChance = 0.7

// gapRedrawThreshold: a draw above it re-rolls minGap while a gap is open.
const gapRedrawThreshold = 0.8

// State is the running state threaded through a text node.
type State struct {
	SinceVisible int
	MinGap       int
}

// Decider maps a word and running state to a verdict.
type Decider interface {
	Start() State
	Decide(word string, st State) (redact bool, next State)
}

// New returns the decider for s.Mode. s is normalized first.
func New(s Settings, src Source) Decider {
	s = s.Normalize()
	switch s.Mode {
	case ModePrivacy:
		return &privacy{src: src}
	case ModeRandom:
		return &random{src: src, showChance: 1 - s.Intensity}
	default:
		return &poetry{
			src:         src,
			showChance:  1 - s.Intensity,
			baseMinGap:  s.BaseMinGap(),
			minWordLen:  s.MinWordLength(),
			keepProper:  s.KeepProperNouns,
			keepLong:    s.KeepLongWords,
			keepNumbers: s.KeepNumbers,
		}
	}
}

// All redacts every word unconditionally.
type All struct{}

func (All) Start() State { return State{} }

func (All) Decide(string, State) (bool, State) { return true, State{} }

type privacy struct {
	src Source
}

func (p *privacy) Start() State { return State{} }

func (p *privacy) Decide(word string, st State) (bool, State) {
	switch {
	case IsProperNoun(word) || HasDigit(word):
		return true, st
	case utf8.RuneCountInString(word) < 4:
		return false, st
	default:
		return p.src.Float64() > privacyShowChance, st
	}
}

type random struct {
	src        Source
	showChance float64
}

func (r *random) Start() State { return State{} }

func (r *random) Decide(_ string, st State) (bool, State) {
	return r.src.Float64() > r.showChance, st
}

// poetry keeps visible words spread out: after a visible word at least
// MinGap words are redacted before another may show.
type poetry struct {
	src         Source
	showChance  float64
	baseMinGap  int
	minWordLen  int
	keepProper  bool
	keepLong    bool
	keepNumbers bool
}

func (p *poetry) Start() State {
	return State{MinGap: p.baseMinGap}
}

func (p *poetry) redraw() int {
	return p.src.IntN(3) + p.baseMinGap
}

func (p *poetry) Decide(word string, st State) (bool, State) {
	redact := true
	switch {
	case p.keepProper && IsProperNoun(word):
		redact = false
		st.SinceVisible = 0
		st.MinGap = p.redraw()
	case p.keepNumbers && HasDigit(word):
		redact = false
		st.SinceVisible = 0
	case p.keepLong && utf8.RuneCountInString(word) < p.minWordLen:
		// short words are always hidden
	case st.SinceVisible < st.MinGap:
		if p.src.Float64() > gapRedrawThreshold {
			st.MinGap = p.redraw()
		}
	default:
		if p.src.Float64() < p.showChance {
			redact = false
			st.SinceVisible = 0
			st.MinGap = p.redraw()
		}
	}
	st.SinceVisible++
	return redact, st
}

// IsProperNoun reports whether the first letter of word, after any leading
// non-letters, is uppercase.
func IsProperNoun(word string) bool {
	for _, r := range word {
		if unicode.IsLetter(r) {
			return unicode.IsUpper(r)
		}
	}
	return false
}

// HasDigit reports whether word contains a decimal digit.
func HasDigit(word string) bool {
	for _, r := range word {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
