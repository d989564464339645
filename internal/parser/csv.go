package parser

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/blackout/internal/dom"
	"golang.org/x/net/html/atom"
)

// CSVParser renders CSV files as a table. The first row is the header.
type CSVParser struct{}

func (p *CSVParser) Parse(r io.Reader, filename string) (*dom.Document, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	b := newBuilder(titleFromFilename(filename))
	if len(records) == 0 {
		return b.document(), nil
	}

	table := b.add(nil, atom.Table, "")
	head := b.add(b.add(table, atom.Thead, ""), atom.Tr, "")
	for _, h := range records[0] {
		b.add(head, atom.Th, h)
	}
	tbody := b.add(table, atom.Tbody, "")
	for _, row := range records[1:] {
		tr := b.add(tbody, atom.Tr, "")
		for _, cell := range row {
			b.add(tr, atom.Td, cell)
		}
	}
	return b.document(), nil
}
