package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dgallion1/litchunk/internal/chunker"
	"github.com/dgallion1/litchunk/internal/document"
	"github.com/dgallion1/litchunk/internal/tokens"
)

// ChunkSpec is the per-call chunking request.
type ChunkSpec struct {
	TargetSize  int
	Overlap     int
	TokenMethod tokens.Method
}

// DefaultChunkSpec mirrors the service defaults.
func DefaultChunkSpec() ChunkSpec {
	cfg := chunker.DefaultConfig()
	return ChunkSpec{
		TargetSize:  cfg.ChunkSize,
		Overlap:     cfg.ChunkOverlap,
		TokenMethod: tokens.MethodAuto,
	}
}

func (s ChunkSpec) Validate() error {
	if err := s.chunkerConfig().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidChunkSpec, err)
	}
	if _, err := tokens.ParseMethod(string(s.TokenMethod)); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidChunkSpec, err)
	}
	return nil
}

func (s ChunkSpec) chunkerConfig() chunker.Config {
	return chunker.Config{ChunkSize: s.TargetSize, ChunkOverlap: s.Overlap}
}

// Extractor produces cleaned text and a title for a document.
type Extractor interface {
	ExtractMetadata(path, originalFilename string) document.ExtractedText
	ExtractBytes(data []byte, filename string) document.ExtractedText
}

// Estimator approximates token counts.
type Estimator interface {
	Estimate(text string, m tokens.Method) int
}

// Orchestrator runs split, estimate and enrich for one document at a time.
// It holds no per-call state and is safe for concurrent use.
type Orchestrator struct {
	extractor Extractor
	estimator Estimator
	log       *slog.Logger
}

func NewOrchestrator(ext Extractor, est Estimator, log *slog.Logger) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		extractor: ext,
		estimator: est,
		log:       log.With("component", "pipeline"),
	}
}

// Process splits text and enriches every segment into a Chunk, in source
// order. Any enrichment failure aborts the call without partial results.
func (o *Orchestrator) Process(text, literatureID, groupID string, spec ChunkSpec) ([]document.Chunk, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	method, _ := tokens.ParseMethod(string(spec.TokenMethod))
	log := o.log.With("literature_id", literatureID, "group_id", groupID)

	segs := chunker.Split(text, spec.chunkerConfig(), log)
	if len(segs) == 0 {
		log.Warn("no chunks produced", "text_length", len(text))
		return nil, ErrNoContent
	}

	chunks, err := o.enrich(segs, literatureID, groupID, method)
	if err != nil {
		log.Error("enrichment failed", "error", err)
		return nil, err
	}
	log.Info("processed literature text",
		"chunks", len(chunks),
		"token_method", method,
	)
	return chunks, nil
}

func (o *Orchestrator) enrich(segs []document.Segment, literatureID, groupID string, method tokens.Method) (chunks []document.Chunk, err error) {
	defer func() {
		if r := recover(); r != nil {
			chunks, err = nil, fmt.Errorf("%w: panic: %v", ErrEnrichmentFailed, r)
		}
	}()

	chunks = make([]document.Chunk, 0, len(segs))
	for _, s := range segs {
		chunks = append(chunks, document.Chunk{
			Index:           s.Index,
			Text:            s.Text,
			CharLength:      s.CharLength,
			EstimatedTokens: max(o.estimator.Estimate(s.Text, method), 1),
			StartOffset:     s.StartOffset,
			LiteratureID:    literatureID,
			GroupID:         groupID,
			ChunkType:       document.ChunkTypeLiteratureText,
			EmbeddingStatus: document.StatusPending,
		})
	}
	return chunks, nil
}

// Ingest extracts the file at path and chunks its text. The metadata is
// returned even when extraction fails; the error is then ErrNoContent.
func (o *Orchestrator) Ingest(path, filename, literatureID, groupID string, spec ChunkSpec) (document.ExtractedText, []document.Chunk, error) {
	if err := spec.Validate(); err != nil {
		return document.ExtractedText{}, nil, err
	}
	if filename == "" {
		filename = filepath.Base(path)
	}
	meta := o.extractor.ExtractMetadata(path, filename)
	return o.chunkExtracted(meta, filename, literatureID, groupID, spec)
}

// IngestBytes is Ingest for an in-memory upload.
func (o *Orchestrator) IngestBytes(data []byte, filename, literatureID, groupID string, spec ChunkSpec) (document.ExtractedText, []document.Chunk, error) {
	if err := spec.Validate(); err != nil {
		return document.ExtractedText{}, nil, err
	}
	meta := o.extractor.ExtractBytes(data, filename)
	return o.chunkExtracted(meta, filename, literatureID, groupID, spec)
}

func (o *Orchestrator) chunkExtracted(meta document.ExtractedText, filename, literatureID, groupID string, spec ChunkSpec) (document.ExtractedText, []document.Chunk, error) {
	if !meta.ExtractionSucceeded {
		return meta, nil, fmt.Errorf("%w: extraction failed for %s", ErrNoContent, filename)
	}
	chunks, err := o.Process(meta.Body, literatureID, groupID, spec)
	if err != nil && !errors.Is(err, ErrNoContent) {
		return meta, nil, fmt.Errorf("ingest %s: %w", filename, err)
	}
	return meta, chunks, err
}
