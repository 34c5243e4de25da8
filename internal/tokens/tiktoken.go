package tokens

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is used when no model name is configured.
const DefaultEncoding = tiktoken.MODEL_CL100K_BASE

// TiktokenEncoder counts exact BPE tokens with tiktoken-go. The encoding is
// loaded on first use; tiktoken-go fetches BPE ranks over the network unless
// TIKTOKEN_CACHE_DIR already holds them, so a load failure surfaces on every
// call as ErrEncoderUnavailable and the estimator moves on.
type TiktokenEncoder struct {
	model string
	load  func() (*tiktoken.Tiktoken, error)
}

// NewTiktokenEncoder returns an encoder for model, which may also name an
// encoding directly. An empty model selects DefaultEncoding.
func NewTiktokenEncoder(model string) *TiktokenEncoder {
	model = strings.TrimSpace(model)
	return &TiktokenEncoder{
		model: model,
		load: sync.OnceValues(func() (*tiktoken.Tiktoken, error) {
			return loadEncoding(model)
		}),
	}
}

func loadEncoding(model string) (*tiktoken.Tiktoken, error) {
	if model == "" {
		model = DefaultEncoding
	}
	if knownEncoding(model) {
		tke, err := tiktoken.GetEncoding(model)
		if err != nil {
			return nil, fmt.Errorf("%w: load %s: %v", ErrEncoderUnavailable, model, err)
		}
		return tke, nil
	}
	if !knownModel(model) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	tke, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("%w: load encoding for %s: %v", ErrEncoderUnavailable, model, err)
	}
	return tke, nil
}

// knownEncoding reports whether name is an encoding (e.g. cl100k_base)
// rather than a model.
func knownEncoding(name string) bool {
	for _, enc := range tiktoken.MODEL_TO_ENCODING {
		if enc == name {
			return true
		}
	}
	return false
}

func knownModel(model string) bool {
	if _, ok := tiktoken.MODEL_TO_ENCODING[model]; ok {
		return true
	}
	for prefix := range tiktoken.MODEL_PREFIX_TO_ENCODING {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

// Model returns the configured model name ("" means DefaultEncoding).
func (t *TiktokenEncoder) Model() string {
	return t.model
}

// CountTokens returns the exact token count of text.
func (t *TiktokenEncoder) CountTokens(text string) (n int, err error) {
	tke, err := t.load()
	if err != nil {
		return 0, err
	}
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("tiktoken encode: %v", r)
		}
	}()
	return len(tke.Encode(text, nil, nil)), nil
}
