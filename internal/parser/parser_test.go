package parser

import (
	"bytes"
	"strings"
	"testing"

	"github.com/dgallion1/litchunk/internal/document"
	"github.com/fumiama/go-docx"
)

func TestTypeForExtension(t *testing.T) {
	tests := []struct {
		ext  string
		want document.SourceType
		ok   bool
	}{
		{".pdf", document.SourcePDF, true},
		{"PDF", document.SourcePDF, true},
		{".DocX", document.SourceDOCX, true},
		{"html", document.SourceHTML, true},
		{".htm", document.SourceHTML, true},
		{".txt", "", false},
		{".md", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := TypeForExtension(tt.ext)
		if ok != tt.ok || got != tt.want {
			t.Errorf("TypeForExtension(%q): expected (%q, %v), got (%q, %v)", tt.ext, tt.want, tt.ok, got, ok)
		}
	}
}

func TestIsSupportedExtension(t *testing.T) {
	if !IsSupportedExtension("paper.PDF") {
		t.Error("expected paper.PDF to be supported")
	}
	if IsSupportedExtension("notes.txt") {
		t.Error("expected notes.txt to be unsupported")
	}
	if IsSupportedExtension("README") {
		t.Error("expected a name without extension to be unsupported")
	}
}

func TestForType_Unknown(t *testing.T) {
	if _, err := ForType(document.SourceUnknown, Options{}); err == nil {
		t.Fatal("expected error for unknown source type")
	}
}

func TestHTMLParser_DropsScriptAndStyle(t *testing.T) {
	input := `<html><head><title>Deep Learning Survey</title>
<style>body { color: red; }</style>
<script>var x = "hidden";</script></head>
<body><h1>Introduction</h1><p>Neural <b>networks</b> are everywhere.</p>
<div>Second block</div></body></html>`

	text, err := (&HTMLParser{}).Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{"Deep Learning Survey", "Introduction", "Neural networks are everywhere.", "Second block"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected text to contain %q, got %q", want, text)
		}
	}
	for _, unwanted := range []string{"color: red", "hidden"} {
		if strings.Contains(text, unwanted) {
			t.Errorf("expected text not to contain %q, got %q", unwanted, text)
		}
	}
}

func TestHTMLParser_BlocksDoNotGlue(t *testing.T) {
	text, err := (&HTMLParser{}).Parse(strings.NewReader("<p>alpha</p><p>beta</p><li>gamma</li>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(text, "alphabeta") || strings.Contains(text, "betagamma") {
		t.Errorf("expected block elements to be separated, got %q", text)
	}
}

func TestHTMLParser_EmptyDocument(t *testing.T) {
	text, err := (&HTMLParser{}).Parse(strings.NewReader("<html><body><script>x()</script></body></html>"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "" {
		t.Errorf("expected empty text, got %q", text)
	}
}

func buildDOCX(t *testing.T) []byte {
	t.Helper()
	w := docx.New().WithDefaultTheme()
	w.AddParagraph().AddText("Attention Is All You Need")
	w.AddParagraph()
	w.AddParagraph().AddText("The dominant sequence transduction models are complex.")

	tbl := w.AddTable(2, 2, 0, nil)
	cells := [][]string{{"Model", "BLEU"}, {"Transformer", "28.4"}}
	for i, row := range tbl.TableRows {
		for j, cell := range row.TableCells {
			cell.AddParagraph().AddText(cells[i][j])
		}
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		t.Fatalf("write docx fixture: %v", err)
	}
	return buf.Bytes()
}

func TestDOCXParser_ParagraphsThenTableCells(t *testing.T) {
	text, err := (&DOCXParser{}).Parse(bytes.NewReader(buildDOCX(t)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := strings.Join([]string{
		"Attention Is All You Need",
		"The dominant sequence transduction models are complex.",
		"Model",
		"BLEU",
		"Transformer",
		"28.4",
	}, "\n")
	if text != want {
		t.Errorf("expected %q, got %q", want, text)
	}
}

func TestDOCXParser_NotAZip(t *testing.T) {
	if _, err := (&DOCXParser{}).Parse(strings.NewReader("plain text, not a docx")); err == nil {
		t.Fatal("expected error for invalid docx")
	}
}

func TestPDFParser_InvalidWithoutFallback(t *testing.T) {
	p := &PDFParser{FallbackPdftotext: false}
	if _, err := p.Parse(strings.NewReader("%PDF-1.4 truncated garbage")); err == nil {
		t.Fatal("expected error for invalid pdf")
	}
}
