package export

import (
	"io"

	"github.com/dgallion1/blackout/internal/dom"
	"github.com/fatih/color"
)

// TextOptions control plain-text rendering.
type TextOptions struct {
	// Reveal prints redacted text instead of masking it.
	Reveal bool
	// Color highlights redacted runs. It honours color.NoColor.
	Color bool
}

var redactedColor = color.New(color.FgWhite, color.BgBlack)

// WriteText renders doc as plain text.
func WriteText(w io.Writer, doc *dom.Document, opts TextOptions) error {
	for _, seg := range Segments(doc) {
		text := seg.Text
		if seg.Redacted {
			if !opts.Reveal {
				text = Mask(text)
			}
			if opts.Color {
				text = redactedColor.Sprint(text)
			}
		}
		if _, err := io.WriteString(w, text); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}
