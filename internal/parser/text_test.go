package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/blackout/internal/dom"
	"golang.org/x/net/html"
)

// childTexts returns the tag and text of each element child of the body.
func childTexts(d *dom.Document) (tags, texts []string) {
	for c := d.Body().FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		tags = append(tags, c.Data)
		texts = append(texts, dom.TextContent(c))
	}
	return tags, texts
}

func TestTextParser_BasicParagraphSplitting(t *testing.T) {
	input := "First paragraph line one.\nFirst paragraph line two.\n\nSecond paragraph.\n\nThird paragraph."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := Title(doc); got != "notes" {
		t.Errorf("expected title %q, got %q", "notes", got)
	}
	tags, texts := childTexts(doc)
	if len(tags) != 3 {
		t.Fatalf("expected 3 paragraphs, got %d", len(tags))
	}

	want := []string{
		"First paragraph line one.\nFirst paragraph line two.",
		"Second paragraph.",
		"Third paragraph.",
	}
	for i, w := range want {
		if tags[i] != "p" || texts[i] != w {
			t.Errorf("child[%d]: expected <p>%q, got <%s>%q", i, w, tags[i], texts[i])
		}
	}
}

func TestTextParser_EmptyInput(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(""), "empty.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tags, _ := childTexts(doc); len(tags) != 0 {
		t.Errorf("expected 0 children for empty input, got %d", len(tags))
	}
}

func TestTextParser_MultipleBlankLines(t *testing.T) {
	// Multiple consecutive blank lines should not produce empty paragraphs.
	input := "Para one.\n\n\n\nPara two."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "gaps.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tags, _ := childTexts(doc); len(tags) != 2 {
		t.Fatalf("expected 2 children, got %d", len(tags))
	}
}

func TestTextParser_WhitespaceOnlyLines(t *testing.T) {
	// Lines with only whitespace should be treated as blank.
	input := "Para one.\n   \nPara two."
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader(input), "ws.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tags, _ := childTexts(doc); len(tags) != 2 {
		t.Fatalf("expected 2 children, got %d", len(tags))
	}
}

func TestTextParser_EscapesMarkup(t *testing.T) {
	p := &TextParser{}
	doc, err := p.Parse(strings.NewReader("a <b>not bold</b>"), "x.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(doc.BodyHTML(), "&lt;b&gt;") {
		t.Errorf("expected escaped markup, got %s", doc.BodyHTML())
	}
}

func TestCSVParser_Table(t *testing.T) {
	input := "name,city\nAda,London\nGrace,Arlington,extra\n"
	p := &CSVParser{}
	doc, err := p.Parse(strings.NewReader(input), "people.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "<table><thead><tr><th>name</th><th>city</th></tr></thead><tbody>" +
		"<tr><td>Ada</td><td>London</td></tr>" +
		"<tr><td>Grace</td><td>Arlington</td><td>extra</td></tr></tbody></table>"
	if got := doc.BodyHTML(); got != want {
		t.Errorf("unexpected table:\n got %s\nwant %s", got, want)
	}
}

func TestPagesDocument(t *testing.T) {
	doc := pagesDocument("report", "Page one text.\n\nSecond para.\f\f  \fLast page.")
	var ids []string
	for c := doc.Body().FirstChild; c != nil; c = c.NextSibling {
		id, _ := dom.Attr(c, "id")
		ids = append(ids, id)
	}
	if strings.Join(ids, ",") != "page-1,page-4" {
		t.Errorf("unexpected sections %v", ids)
	}
	if got := doc.Body().FirstChild.FirstChild.NextSibling; got == nil || dom.TextContent(got) != "Second para." {
		t.Errorf("expected second paragraph in page 1, got %s", doc.BodyHTML())
	}
}

func TestForFile(t *testing.T) {
	for _, name := range []string{"a.txt", "a.MD", "a.markdown", "a.csv", "a.html", "a.htm", "a.pdf", "a.docx"} {
		if _, err := ForFile(name, Options{}); err != nil {
			t.Errorf("%s: %v", name, err)
		}
		if !IsSupportedExtension(name) {
			t.Errorf("%s: expected supported", name)
		}
	}
	if _, err := ForFile("a.exe", Options{}); err == nil {
		t.Error("expected error for unsupported extension")
	}
	p, _ := ForFile("x.pdf", Options{FallbackPdftotext: true})
	if !p.(*PDFParser).FallbackPdftotext {
		t.Error("expected fallback option carried to the pdf parser")
	}
}
