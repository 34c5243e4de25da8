package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/litchunk/internal/document"
	"github.com/panjf2000/ants/v2"
)

// BatchItem is one uploaded document in a batch.
type BatchItem struct {
	Filename     string
	Data         []byte
	LiteratureID string
	GroupID      string
}

// BatchResult is the outcome for one BatchItem.
type BatchResult struct {
	Filename string
	Metadata document.ExtractedText
	Chunks   []document.Chunk
	Err      error
	Elapsed  time.Duration
}

// Batch fans independent documents out over a bounded worker pool. Each
// document goes through the stateless Orchestrator on its own.
type Batch struct {
	orch *Orchestrator
	pool *ants.Pool
	log  *slog.Logger
}

// NewBatch creates a pool of size workers. Call Release when done.
func NewBatch(orch *Orchestrator, size int, log *slog.Logger) (*Batch, error) {
	if size < 1 {
		size = 1
	}
	if log == nil {
		log = slog.Default()
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, fmt.Errorf("create batch pool: %w", err)
	}
	return &Batch{orch: orch, pool: pool, log: log.With("component", "batch")}, nil
}

// Run ingests every item and returns results in item order. Items not yet
// started when ctx is done report ctx.Err().
func (b *Batch) Run(ctx context.Context, items []BatchItem, spec ChunkSpec) []BatchResult {
	results := make([]BatchResult, len(items))
	var wg sync.WaitGroup

	for i, item := range items {
		results[i].Filename = item.Filename
		if err := ctx.Err(); err != nil {
			results[i].Err = err
			continue
		}

		wg.Add(1)
		// Submit blocks while every worker is busy, so ctx may be done by
		// the time the task starts.
		err := b.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return
			}
			results[i] = b.ingest(item, spec)
		})
		if err != nil {
			wg.Done()
			if errors.Is(err, ants.ErrPoolClosed) {
				err = ErrPoolClosed
			}
			results[i].Err = err
		}
	}
	wg.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	b.log.Info("batch complete", "documents", len(items), "failed", failed)
	return results
}

func (b *Batch) ingest(item BatchItem, spec ChunkSpec) (res BatchResult) {
	start := time.Now()
	res.Filename = item.Filename
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("%w: panic: %v", ErrEnrichmentFailed, r)
		}
		res.Elapsed = time.Since(start)
	}()
	res.Metadata, res.Chunks, res.Err = b.orch.IngestBytes(item.Data, item.Filename, item.LiteratureID, item.GroupID, spec)
	return res
}

// Running reports the number of busy workers.
func (b *Batch) Running() int {
	return b.pool.Running()
}

// Release stops the pool. Later Run calls report ErrPoolClosed per item.
func (b *Batch) Release() {
	b.pool.Release()
}
