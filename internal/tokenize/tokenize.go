// Package tokenize splits text into alternating word and whitespace runs.
package tokenize

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Token is a maximal run of either whitespace or non-whitespace.
type Token struct {
	Text  string
	Space bool
}

// Split tokenizes s. Joining the result always reproduces s; empty input
// yields no tokens.
func Split(s string) []Token {
	var out []Token
	start := 0
	inSpace := false
	for i, r := range s {
		sp := unicode.IsSpace(r)
		if i == 0 {
			inSpace = sp
			continue
		}
		if sp != inSpace {
			out = append(out, Token{Text: s[start:i], Space: inSpace})
			start = i
			inSpace = sp
		}
	}
	if start < len(s) {
		out = append(out, Token{Text: s[start:], Space: inSpace})
	}
	return out
}

// Join concatenates tokens back into text.
func Join(tokens []Token) string {
	var b strings.Builder
	for _, t := range tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

// Words counts the non-whitespace tokens.
func Words(tokens []Token) int {
	n := 0
	for _, t := range tokens {
		if !t.Space {
			n++
		}
	}
	return n
}

// Len is the token length in runes.
func (t Token) Len() int {
	return utf8.RuneCountInString(t.Text)
}
