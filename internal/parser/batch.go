package parser

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dgallion1/blackout/internal/dom"
)

// Input is one file of a batch.
type Input struct {
	Filename string
	Data     []byte
}

// Output is the parse result for the Input at the same index.
type Output struct {
	Filename string
	Doc      *dom.Document
	Err      error
}

// ParseAll parses inputs with at most concurrency parsers running at once.
// Results keep input order. A cancelled ctx fails the inputs not yet started.
func ParseAll(ctx context.Context, inputs []Input, opts Options, concurrency int) []Output {
	if concurrency <= 0 {
		concurrency = 1
	}
	type indexed struct {
		idx int
		out Output
	}
	results := make(chan indexed, len(inputs))
	sem := make(chan struct{}, concurrency)

	for i, in := range inputs {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			results <- indexed{i, Output{Filename: in.Filename, Err: ctx.Err()}}
			continue
		}
		go func(i int, in Input) {
			defer func() { <-sem }()
			doc, err := parseOne(in, opts)
			results <- indexed{i, Output{Filename: in.Filename, Doc: doc, Err: err}}
		}(i, in)
	}

	out := make([]Output, len(inputs))
	for range inputs {
		r := <-results
		out[r.idx] = r.out
	}
	return out
}

func parseOne(in Input, opts Options) (*dom.Document, error) {
	p, err := ForFile(in.Filename, opts)
	if err != nil {
		return nil, err
	}
	doc, err := p.Parse(bytes.NewReader(in.Data), in.Filename)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", in.Filename, err)
	}
	return doc, nil
}
