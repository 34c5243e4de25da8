package chunker

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/litchunk/internal/document"
	"github.com/tmc/langchaingo/textsplitter"
)

// Separators are tried in order: paragraph, line, CJK sentence ends, Latin
// sentence ends, word, and finally single characters. A separator is kept
// at the start of the piece that follows it.
var Separators = []string{"\n\n", "\n", "。", "！", "？", ".", "!", "?", " ", ""}

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid chunker config")

// Config controls chunking behavior. Sizes are in characters.
type Config struct {
	ChunkSize    int // Target chunk size.
	ChunkOverlap int // Trailing context carried into the next chunk.
}

// DefaultConfig returns the service defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize:    1000,
		ChunkOverlap: 200,
	}
}

func (c Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size %d must be positive", ErrInvalidConfig, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be in [0, %d)", ErrInvalidConfig, c.ChunkOverlap, c.ChunkSize)
	}
	return nil
}

// Split breaks text into trimmed, non-empty segments in source order.
// Splitting never fails: an invalid config, a splitter error or a panic is
// logged and yields no segments.
func Split(text string, cfg Config, log *slog.Logger) (segs []document.Segment) {
	if log == nil {
		log = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		log.Warn("chunking skipped", "error", err)
		return nil
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("chunking panicked", "panic", r, "text_length", len(text))
			segs = nil
		}
	}()

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(cfg.ChunkSize),
		textsplitter.WithChunkOverlap(cfg.ChunkOverlap),
		textsplitter.WithSeparators(Separators),
		textsplitter.WithKeepSeparator(true),
	)
	parts, err := splitter.SplitText(text)
	if err != nil {
		log.Warn("chunking failed", "error", err)
		return nil
	}

	loc := newLocator(text)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		segs = append(segs, document.Segment{
			Index:       len(segs),
			Text:        part,
			CharLength:  utf8.RuneCountInString(part),
			StartOffset: loc.find(part),
		})
	}
	return segs
}

// locator finds chunk positions with a cursor that only moves forward, so a
// repeated passage maps to its own occurrence rather than the first one.
type locator struct {
	text     string
	next     int // byte offset just past the start of the previous match
	nextRune int // rune offset of next
}

func newLocator(text string) *locator {
	return &locator{text: text}
}

// find returns the rune offset of s. The search starts one character after
// the previous match, since overlapping chunks begin inside their
// predecessor, then falls back to the whole text. It returns -1 when s is
// not present.
func (l *locator) find(s string) int {
	if i := strings.Index(l.text[l.next:], s); i >= 0 {
		pos := l.next + i
		off := l.nextRune + utf8.RuneCountInString(l.text[l.next:pos])
		_, w := utf8.DecodeRuneInString(l.text[pos:])
		l.next, l.nextRune = pos+w, off+1
		return off
	}
	if i := strings.Index(l.text, s); i >= 0 {
		return utf8.RuneCountInString(l.text[:i])
	}
	return -1
}
