package pipeline

import "errors"

var (
	// ErrNoContent is returned when splitting yields nothing to enrich:
	// empty input, a failed extraction, or a splitter failure.
	ErrNoContent = errors.New("no content to chunk")

	// ErrInvalidChunkSpec is returned for a non-positive target size, an
	// overlap outside [0, size) or an unknown token method.
	ErrInvalidChunkSpec = errors.New("invalid chunk spec")

	// ErrEnrichmentFailed is returned when building chunk records fails.
	// No partial results accompany it.
	ErrEnrichmentFailed = errors.New("chunk enrichment failed")

	// ErrPoolClosed is returned for batch items submitted after Release.
	ErrPoolClosed = errors.New("batch pool closed")
)
