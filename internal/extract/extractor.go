package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/litchunk/internal/document"
	"github.com/dgallion1/litchunk/internal/parser"
	"github.com/gabriel-vasile/mimetype"
)

// Options configure an Extractor.
type Options struct {
	TitleMaxLength int
	// EnabledTypes restricts extraction; empty enables every supported type.
	EnabledTypes []document.SourceType
	PDFFallback  bool
}

// Extractor turns uploaded documents into cleaned text and a title.
// It keeps no per-document state.
type Extractor struct {
	log      *slog.Logger
	titleMax int
	enabled  map[document.SourceType]bool
	parsers  parser.Options
}

func New(log *slog.Logger, opts Options) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	if opts.TitleMaxLength <= 0 {
		opts.TitleMaxLength = DefaultTitleMaxLength
	}
	enabled := make(map[document.SourceType]bool)
	if len(opts.EnabledTypes) == 0 {
		for _, t := range parser.SupportedExtensions {
			enabled[t] = true
		}
	}
	for _, t := range opts.EnabledTypes {
		enabled[t] = true
	}
	return &Extractor{
		log:      log.With("component", "extractor"),
		titleMax: opts.TitleMaxLength,
		enabled:  enabled,
		parsers:  parser.Options{PDFFallback: opts.PDFFallback},
	}
}

// IsExtractable reports whether path has an extension this extractor will
// handle.
func (e *Extractor) IsExtractable(path string) bool {
	t, ok := parser.TypeForExtension(filepath.Ext(path))
	return ok && e.enabled[t]
}

// Extract reads the file at path and returns its cleaned text. The type is
// taken from declaredExt, or from the path when declaredExt is empty, or
// sniffed from the content when neither carries an extension.
func (e *Extractor) Extract(path, declaredExt string) (string, error) {
	_, text, err := e.extractFile(path, declaredExt)
	return text, err
}

// ExtractBytes extracts an in-memory upload. It never fails: any error
// degrades to a filename title with an empty body.
func (e *Extractor) ExtractBytes(data []byte, filename string) document.ExtractedText {
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = e.sniff(data)
	}
	t, text, err := e.extract(data, ext)
	return e.result(filename, ext, t, text, err)
}

// ExtractMetadata extracts the file at path, using originalFilename for the
// fallback title. It never fails.
func (e *Extractor) ExtractMetadata(path, originalFilename string) document.ExtractedText {
	ext := filepath.Ext(path)
	if ext == "" {
		ext = filepath.Ext(originalFilename)
	}
	if originalFilename == "" {
		originalFilename = filepath.Base(path)
	}
	t, text, err := e.extractFile(path, ext)
	return e.result(originalFilename, ext, t, text, err)
}

func (e *Extractor) extractFile(path, ext string) (document.SourceType, string, error) {
	if ext == "" {
		ext = filepath.Ext(path)
	}
	// Unsupported or disabled types are rejected before touching the file.
	if ext != "" {
		if _, err := e.resolve(ext); err != nil {
			return "", "", err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("%w: read %s: %v", ErrExtractionFailed, filepath.Base(path), err)
	}
	if ext == "" {
		ext = e.sniff(data)
	}
	return e.extract(data, ext)
}

func (e *Extractor) result(filename, ext string, t document.SourceType, text string, err error) document.ExtractedText {
	if t == "" {
		t = reportedType(ext)
	}
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, ErrUnsupportedFileType) {
			level = slog.LevelInfo
		}
		e.log.Log(context.Background(), level, "extraction failed",
			"filename", filename,
			"file_type", t,
			"error", err,
		)
		return document.ExtractedText{
			Title:      TitleFromFilename(filename),
			SourceType: t,
		}
	}
	return document.ExtractedText{
		Title:               TitleFromText(text, filename, e.titleMax),
		Body:                text,
		ExtractionSucceeded: true,
		SourceType:          t,
		TextLength:          utf8.RuneCountInString(text),
	}
}

// reportedType is the file type shown for an extension: the canonical type
// when supported, otherwise the raw extension without its dot.
func reportedType(ext string) document.SourceType {
	if t, ok := parser.TypeForExtension(ext); ok {
		return t
	}
	ext = strings.TrimPrefix(parser.NormalizeExtension(ext), ".")
	if ext == "" {
		return document.SourceUnknown
	}
	return document.SourceType(ext)
}

// resolve maps an extension to an enabled source type.
func (e *Extractor) resolve(ext string) (document.SourceType, error) {
	t, ok := parser.TypeForExtension(ext)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, parser.NormalizeExtension(ext))
	}
	if !e.enabled[t] {
		return "", fmt.Errorf("%w: %s", ErrExtractionUnavailable, t)
	}
	return t, nil
}

// sniff detects the extension from content, for uploads that arrive
// without one.
func (e *Extractor) sniff(data []byte) string {
	ext := mimetype.Detect(data).Extension()
	e.log.Debug("sniffed file type", "extension", ext)
	return ext
}

func (e *Extractor) extract(data []byte, ext string) (t document.SourceType, text string, err error) {
	t, err = e.resolve(ext)
	if err != nil {
		return "", "", err
	}

	p, err := parser.ForType(t, e.parsers)
	if err != nil {
		return t, "", fmt.Errorf("%w: %v", ErrExtractionUnavailable, err)
	}

	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("%w: %s parser panic: %v", ErrExtractionFailed, t, r)
		}
	}()

	raw, err := p.Parse(bytes.NewReader(data))
	if err != nil {
		return t, "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	text = Clean(raw)
	if text == "" {
		return t, "", fmt.Errorf("%w: no text in %s document", ErrExtractionFailed, t)
	}
	return t, text, nil
}
