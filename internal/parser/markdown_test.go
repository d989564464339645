package parser

import (
	"strings"
	"testing"
)

func TestMarkdownParser_Structure(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content with *emphasis*.

- one
- two
`
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "doc.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := Title(doc); got != "Title" {
		t.Errorf("expected title %q, got %q", "Title", got)
	}
	tags, texts := childTexts(doc)
	want := []string{"h1", "p", "h2", "p", "ul"}
	if strings.Join(tags, ",") != strings.Join(want, ",") {
		t.Fatalf("expected tags %v, got %v", want, tags)
	}
	if texts[3] != "Section A content with emphasis." {
		t.Errorf("unexpected paragraph %q", texts[3])
	}
	if !strings.Contains(doc.BodyHTML(), "<em>emphasis</em>") {
		t.Errorf("expected inline markup kept, got %s", doc.BodyHTML())
	}
}

func TestMarkdownParser_TitleFallsBackToFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"readme.md", "readme"},
		{"notes.markdown", "notes"},
		{"dir/plain.md", "plain"},
	}
	p := &MarkdownParser{}
	for _, tt := range tests {
		doc, err := p.Parse(strings.NewReader("text"), tt.filename)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tt.filename, err)
		}
		if got := Title(doc); got != tt.want {
			t.Errorf("filename=%q: expected title %q, got %q", tt.filename, tt.want, got)
		}
	}
}

func TestMarkdownParser_CodeBlocksStayCode(t *testing.T) {
	input := "Intro.\n\n```\nGET /api/users\n```\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "api.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(doc.BodyHTML(), "<pre><code>GET /api/users\n</code></pre>") {
		t.Errorf("expected fenced code rendered as pre/code, got %s", doc.BodyHTML())
	}
}

func TestMarkdownParser_Tables(t *testing.T) {
	input := "| a | b |\n|---|---|\n| 1 | 2 |\n"
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(input), "t.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tags, _ := childTexts(doc); len(tags) != 1 || tags[0] != "table" {
		t.Errorf("expected a table, got %v", tags)
	}
}

func TestMarkdownParser_EmptyInput(t *testing.T) {
	p := &MarkdownParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tags, _ := childTexts(doc); len(tags) != 0 {
		t.Errorf("expected 0 children for empty input, got %d", len(tags))
	}
}
