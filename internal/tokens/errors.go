package tokens

import (
	"errors"
	"fmt"
)

var (
	// ErrEncoderUnavailable is returned when no exact encoder was configured
	// or the encoding could not be loaded.
	ErrEncoderUnavailable = errors.New("exact token encoder unavailable")

	// ErrUnknownModel is returned when a model name has no known encoding.
	ErrUnknownModel = errors.New("unknown tokenizer model")

	// ErrSegmenterUnavailable is returned when no word segmenter is available.
	ErrSegmenterUnavailable = errors.New("word segmenter unavailable")

	// ErrUnknownMethod is returned by ParseMethod for unrecognised names.
	ErrUnknownMethod = errors.New("unknown token count method")
)

// FallbackError records why one estimation method gave way to the next.
// It is logged, never returned to callers of Estimate.
type FallbackError struct {
	From Method
	To   Method
	Err  error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("token estimation fell back from %s to %s: %v", e.From, e.To, e.Err)
}

func (e *FallbackError) Unwrap() error {
	return e.Err
}
