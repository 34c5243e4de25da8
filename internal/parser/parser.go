package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/litchunk/internal/document"
)

// Parser reads one document fully and returns its raw, uncleaned text.
type Parser interface {
	Parse(r io.Reader) (string, error)
}

// Options tune the per-type parsers.
type Options struct {
	// PDFFallback enables the pdftotext binary when the Go PDF reader fails.
	PDFFallback bool
}

// SupportedExtensions maps the extensions this service can extract to their
// source type.
var SupportedExtensions = map[string]document.SourceType{
	".pdf":  document.SourcePDF,
	".docx": document.SourceDOCX,
	".html": document.SourceHTML,
	".htm":  document.SourceHTML,
}

// NormalizeExtension lowercases ext and ensures a leading dot.
// "PDF", ".Pdf" and "pdf" all become ".pdf". Empty stays empty.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// TypeForExtension returns the source type for an extension, with or
// without its leading dot.
func TypeForExtension(ext string) (document.SourceType, bool) {
	t, ok := SupportedExtensions[NormalizeExtension(ext)]
	return t, ok
}

// IsSupportedExtension checks if a filename has a supported extension.
func IsSupportedExtension(filename string) bool {
	_, ok := TypeForExtension(filepath.Ext(filename))
	return ok
}

// ForType returns the parser for a source type.
func ForType(t document.SourceType, opts Options) (Parser, error) {
	switch t {
	case document.SourcePDF:
		return &PDFParser{FallbackPdftotext: opts.PDFFallback}, nil
	case document.SourceDOCX:
		return &DOCXParser{}, nil
	case document.SourceHTML:
		return &HTMLParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported source type: %s", t)
	}
}
