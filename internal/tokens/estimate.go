package tokens

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"unicode"
)

// Method selects a token estimation strategy.
type Method string

const (
	MethodAuto  Method = "auto"
	MethodChars Method = "chars"
	MethodWords Method = "words"
	MethodExact Method = "exact"
)

// ParseMethod maps a configuration string to a Method. The empty string
// selects MethodAuto; "tiktoken" is accepted as an alias for MethodExact.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return MethodAuto, nil
	case "chars":
		return MethodChars, nil
	case "words":
		return MethodWords, nil
	case "exact", "tiktoken":
		return MethodExact, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

// Encoder produces an exact subword token count.
type Encoder interface {
	CountTokens(text string) (int, error)
}

// Segmenter splits text into language-aware words or phrases.
type Segmenter interface {
	Cut(text string) ([]string, error)
}

// Estimator approximates token counts. It holds only its injected
// collaborators; every call is independent.
type Estimator struct {
	encoder   Encoder
	segmenter Segmenter
	log       *slog.Logger
}

// NewEstimator builds an estimator. Either collaborator may be nil; the
// methods needing it then fall back down the chain.
func NewEstimator(enc Encoder, seg Segmenter, log *slog.Logger) *Estimator {
	if log == nil {
		log = slog.Default()
	}
	return &Estimator{encoder: enc, segmenter: seg, log: log}
}

// fallbackChain lists the methods tried, in order, for a requested method.
// MethodChars is always last and cannot fail.
func fallbackChain(m Method) []Method {
	switch m {
	case MethodChars:
		return []Method{MethodChars}
	case MethodWords:
		return []Method{MethodWords, MethodChars}
	case MethodExact:
		return []Method{MethodExact, MethodChars}
	default:
		return []Method{MethodExact, MethodWords, MethodChars}
	}
}

// Estimate returns 0 for empty text and at least 1 otherwise. Failures of
// the exact encoder or the segmenter are logged and never returned.
func (e *Estimator) Estimate(text string, m Method) int {
	if text == "" {
		return 0
	}
	chain := fallbackChain(m)
	for i, step := range chain {
		n, err := e.run(step, text)
		if err == nil {
			return max(n, 1)
		}
		if i+1 < len(chain) {
			e.log.Debug("token estimation fallback",
				"requested", m,
				"reason", &FallbackError{From: step, To: chain[i+1], Err: err},
			)
		}
	}
	return CountByChars(text)
}

func (e *Estimator) run(m Method, text string) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%s estimator panic: %v", m, r)
		}
	}()
	switch m {
	case MethodExact:
		if e.encoder == nil {
			return 0, ErrEncoderUnavailable
		}
		return e.encoder.CountTokens(text)
	case MethodWords:
		if e.segmenter == nil {
			return 0, ErrSegmenterUnavailable
		}
		words, err := e.segmenter.Cut(text)
		if err != nil {
			return 0, err
		}
		return CountByWords(words), nil
	default:
		return CountByChars(text), nil
	}
}

// isCJK reports whether r is in the CJK Unified Ideographs block.
func isCJK(r rune) bool {
	return r >= 0x4E00 && r <= 0x9FFF
}

// CountByChars counts each CJK ideograph as one token and every four other
// characters as one token.
func CountByChars(text string) int {
	if text == "" {
		return 0
	}
	cjk, other := 0, 0
	for _, r := range text {
		if isCJK(r) {
			cjk++
		} else {
			other++
		}
	}
	return max(cjk+other/4, 1)
}

// CountByWords weighs CJK-bearing segments at 1.5 tokens and Latin-bearing
// segments at 1 token. Whitespace, digits and punctuation segments are free.
func CountByWords(words []string) int {
	if len(words) == 0 {
		return 0
	}
	var total float64
	for _, w := range words {
		switch {
		case strings.IndexFunc(w, isCJK) >= 0:
			total += 1.5
		case strings.IndexFunc(w, isLatin) >= 0:
			total++
		}
	}
	return max(int(math.Round(total)), 1)
}

func isLatin(r rune) bool {
	return unicode.Is(unicode.Latin, r)
}
