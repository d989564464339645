package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/blackout/internal/dom"
	"golang.org/x/net/html/atom"
)

// TextParser handles plain text files. Blank lines separate paragraphs.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*dom.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	b := newBuilder(titleFromFilename(filename))
	var current strings.Builder
	flush := func() {
		if current.Len() > 0 {
			b.add(nil, atom.P, current.String())
			current.Reset()
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			flush()
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n")
		}
		current.WriteString(line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return b.document(), nil
}
