package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/dgallion1/litchunk/internal/document"
)

// checkSegments verifies the invariants every Split result must hold.
func checkSegments(t *testing.T, text string, segs []document.Segment) {
	t.Helper()
	runes := []rune(text)
	for i, s := range segs {
		if s.Index != i {
			t.Errorf("segment %d: expected index %d, got %d", i, i, s.Index)
		}
		if strings.TrimSpace(s.Text) != s.Text || s.Text == "" {
			t.Errorf("segment %d: expected trimmed non-empty text, got %q", i, s.Text)
		}
		if s.CharLength != utf8.RuneCountInString(s.Text) {
			t.Errorf("segment %d: expected char length %d, got %d", i, utf8.RuneCountInString(s.Text), s.CharLength)
		}
		if s.StartOffset >= 0 {
			end := s.StartOffset + s.CharLength
			if end > len(runes) {
				t.Errorf("segment %d: offset %d+%d past end of text", i, s.StartOffset, s.CharLength)
				continue
			}
			if got := string(runes[s.StartOffset:end]); got != s.Text {
				t.Errorf("segment %d: text at offset %d is %q, expected %q", i, s.StartOffset, got, s.Text)
			}
		}
	}
}

func TestSplit_ShortTextFitsOneSegment(t *testing.T) {
	text := "Transformers replaced recurrence with attention."
	segs := Split(text, DefaultConfig(), nil)

	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Text != text {
		t.Errorf("expected %q, got %q", text, segs[0].Text)
	}
	if segs[0].StartOffset != 0 {
		t.Errorf("expected offset 0, got %d", segs[0].StartOffset)
	}
	checkSegments(t, text, segs)
}

func TestSplit_SentenceBoundaries(t *testing.T) {
	text := "A. B. C."
	segs := Split(text, Config{ChunkSize: 4, ChunkOverlap: 0}, nil)

	if len(segs) < 2 {
		t.Fatalf("expected at least 2 segments, got %d: %+v", len(segs), segs)
	}
	for i, s := range segs {
		if s.CharLength > 6 {
			t.Errorf("segment %d: expected at most 6 chars, got %d (%q)", i, s.CharLength, s.Text)
		}
	}
	if !strings.HasPrefix(segs[0].Text, "A") {
		t.Errorf("expected first segment to start with A, got %q", segs[0].Text)
	}
	if !strings.Contains(segs[len(segs)-1].Text, "C") {
		t.Errorf("expected last segment to contain C, got %q", segs[len(segs)-1].Text)
	}
	for i := 1; i < len(segs); i++ {
		if segs[i].StartOffset <= segs[i-1].StartOffset {
			t.Errorf("expected increasing offsets, got %d then %d", segs[i-1].StartOffset, segs[i].StartOffset)
		}
	}
	checkSegments(t, text, segs)
}

func TestSplit_LargeTextCoversEveryWord(t *testing.T) {
	var words []string
	for i := range 300 {
		words = append(words, fmt.Sprintf("word%d", i))
	}
	text := strings.Join(words, " ")

	cfg := Config{ChunkSize: 80, ChunkOverlap: 20}
	segs := Split(text, cfg, nil)
	if len(segs) < 2 {
		t.Fatalf("expected multiple segments, got %d", len(segs))
	}
	checkSegments(t, text, segs)

	seen := make(map[string]bool)
	for _, s := range segs {
		for _, w := range strings.Fields(s.Text) {
			seen[w] = true
		}
		if s.CharLength > cfg.ChunkSize+cfg.ChunkOverlap {
			t.Errorf("segment %d: %d chars exceeds size+overlap", s.Index, s.CharLength)
		}
	}
	for _, w := range words {
		if !seen[w] {
			t.Errorf("expected %q to appear in some segment", w)
		}
	}
}

func TestSplit_OverlapCarriesContext(t *testing.T) {
	var words []string
	for i := range 100 {
		words = append(words, fmt.Sprintf("w%02d", i))
	}
	text := strings.Join(words, " ")

	segs := Split(text, Config{ChunkSize: 50, ChunkOverlap: 20}, nil)
	checkSegments(t, text, segs)

	overlapping := 0
	for i := 1; i < len(segs); i++ {
		prev := segs[i-1]
		if segs[i].StartOffset < prev.StartOffset+prev.CharLength {
			overlapping++
		}
	}
	if overlapping == 0 {
		t.Error("expected consecutive segments to share trailing context")
	}
}

func TestSplit_RepeatedPassagesGetTheirOwnOffsets(t *testing.T) {
	text := "alpha beta\n\nalpha beta\n\nalpha beta"
	segs := Split(text, Config{ChunkSize: 12, ChunkOverlap: 0}, nil)

	if len(segs) != 3 {
		t.Fatalf("expected 3 segments, got %d: %+v", len(segs), segs)
	}
	want := []int{0, 12, 24}
	for i, s := range segs {
		if s.StartOffset != want[i] {
			t.Errorf("segment %d: expected offset %d, got %d", i, want[i], s.StartOffset)
		}
	}
	checkSegments(t, text, segs)
}

func TestSplit_CJKOffsetsAreRunes(t *testing.T) {
	text := "第一句话很长。第二句话更长一些。第三句话结束了。"
	segs := Split(text, Config{ChunkSize: 8, ChunkOverlap: 0}, nil)

	if len(segs) < 2 {
		t.Fatalf("expected at least 2 segments, got %d", len(segs))
	}
	checkSegments(t, text, segs)
	for _, s := range segs {
		if s.StartOffset < 0 {
			t.Errorf("segment %d: expected to be located, got -1", s.Index)
		}
	}
}

func TestSplit_EmptyAndWhitespace(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n\t\n"} {
		if segs := Split(text, DefaultConfig(), nil); len(segs) != 0 {
			t.Errorf("expected no segments for %q, got %d", text, len(segs))
		}
	}
}

func TestSplit_InvalidConfigYieldsNothing(t *testing.T) {
	cfgs := []Config{
		{ChunkSize: 0, ChunkOverlap: 0},
		{ChunkSize: -5, ChunkOverlap: 0},
		{ChunkSize: 100, ChunkOverlap: 100},
		{ChunkSize: 100, ChunkOverlap: -1},
	}
	for _, cfg := range cfgs {
		if segs := Split("some perfectly fine text", cfg, nil); len(segs) != 0 {
			t.Errorf("config %+v: expected no segments, got %d", cfg, len(segs))
		}
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("expected default config to be valid, got %v", err)
	}
	if err := (Config{ChunkSize: 10, ChunkOverlap: 10}).Validate(); err == nil {
		t.Error("expected overlap equal to size to be rejected")
	}
}

func TestLocator_NotFound(t *testing.T) {
	loc := newLocator("hello world")
	if got := loc.find("missing"); got != -1 {
		t.Errorf("expected -1, got %d", got)
	}
	if got := loc.find("world"); got != 6 {
		t.Errorf("expected 6, got %d", got)
	}
	// Behind the cursor: falls back to a whole-text search.
	if got := loc.find("hello"); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}

func nonSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func TestSplit_KeepsSentenceTerminators(t *testing.T) {
	tests := []struct {
		text string
		size int
	}{
		{"A. B. C.", 4},
		{"第一句话很长。第二句话更长一些。第三句话结束了。", 8},
		{"First sentence here. Second sentence here. Third one.", 25},
		{"Really? Yes! Done.\n\nNext paragraph, with commas; and more.", 20},
	}
	for _, tt := range tests {
		segs := Split(tt.text, Config{ChunkSize: tt.size, ChunkOverlap: 0}, nil)
		checkSegments(t, tt.text, segs)

		var joined strings.Builder
		for _, s := range segs {
			joined.WriteString(s.Text)
		}
		if got, want := nonSpace(joined.String()), nonSpace(tt.text); got != want {
			t.Errorf("size %d: expected chunks to cover %q, got %q", tt.size, want, got)
		}
		for _, term := range []string{".", "。", "!", "?"} {
			if got, want := strings.Count(joined.String(), term), strings.Count(tt.text, term); got != want {
				t.Errorf("%q: expected %d %q, got %d", tt.text, want, term, got)
			}
		}
	}
}
