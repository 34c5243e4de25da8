package tokens

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-ego/gse"
)

// GseSegmenter splits mixed Chinese/Latin text into words and phrases with
// gse. The dictionary is large, so it is loaded once on first use and shared
// read-only afterwards.
type GseSegmenter struct {
	load func() (*gse.Segmenter, error)
}

// NewGseSegmenter returns a segmenter backed by the given dictionary files,
// or by the dictionary compiled into gse when none are given. Custom files
// replace the built-in dictionary rather than extend it.
func NewGseSegmenter(log *slog.Logger, dictFiles ...string) *GseSegmenter {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "segmenter")

	var files []string
	for _, f := range dictFiles {
		if f = strings.TrimSpace(f); f != "" {
			files = append(files, f)
		}
	}

	return &GseSegmenter{
		load: sync.OnceValues(func() (*gse.Segmenter, error) {
			return loadSegmenter(log, files)
		}),
	}
}

func loadSegmenter(log *slog.Logger, files []string) (*gse.Segmenter, error) {
	start := time.Now()
	// gse prints progress through the standard log package unless told not to.
	seg := &gse.Segmenter{SkipLog: true}

	source := "embedded"
	var err error
	if len(files) == 0 {
		err = seg.LoadDictEmbed()
	} else {
		source = strings.Join(files, ",")
		err = seg.LoadDict(source)
	}
	if err != nil {
		log.Warn("gse dictionary unavailable", "source", source, "error", err)
		return nil, fmt.Errorf("%w: load gse dictionary: %v", ErrSegmenterUnavailable, err)
	}

	log.Info("gse dictionary loaded",
		"source", source,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return seg, nil
}

// Cut segments text using the HMM mode for unknown words.
func (g *GseSegmenter) Cut(text string) (words []string, err error) {
	seg, err := g.load()
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			words, err = nil, fmt.Errorf("gse cut: %v", r)
		}
	}()
	return seg.Cut(text, true), nil
}
