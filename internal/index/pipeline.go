// Package index turns externally-extracted chunk records into stored
// vectors: batch embedding, payload upsert, and cache invalidation for the
// reindexed repository.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/codescope/codescope/internal/cache"
	"github.com/codescope/codescope/internal/chunk"
	"github.com/codescope/codescope/internal/embed"
	cserrors "github.com/codescope/codescope/internal/errors"
	"github.com/codescope/codescope/internal/store"
)

// Status is the lifecycle state of one indexing run.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// DefaultBatchSize is the number of chunks embedded per provider call.
const DefaultBatchSize = 64

// Report summarizes one indexing run. A run completes when at least one
// batch lands; it fails only when every batch fails.
type Report struct {
	RepositoryID string        `json:"repository_id"`
	Status       Status        `json:"status"`
	Succeeded    int           `json:"succeeded"`
	Failed       int           `json:"failed"`
	Batches      int           `json:"batches"`
	Duration     time.Duration `json:"duration"`

	// BatchErrors holds one message per failed batch, for the aggregated
	// summary when a run fails outright.
	BatchErrors []string `json:"batch_errors,omitempty"`
}

// Pipeline indexes chunk batches for one repository at a time. Concurrent
// runs against different repositories are independent; serializing runs
// against the same repository is the caller's job.
type Pipeline struct {
	embedder  embed.Provider
	index     store.VectorIndex
	cache     *cache.Cache
	batchSize int
	logger    *slog.Logger
}

// NewPipeline wires an indexing pipeline.
func NewPipeline(embedder embed.Provider, index store.VectorIndex, resultCache *cache.Cache, batchSize int, logger *slog.Logger) *Pipeline {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		embedder:  embedder,
		index:     index,
		cache:     resultCache,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run validates, embeds, and upserts chunks in batches. A failed batch is
// logged and skipped; the run continues with the next batch. On any
// successful batch the repository's cached results are invalidated.
//
// The returned Report is non-nil even on error so callers always see the
// succeeded/failed counts.
func (p *Pipeline) Run(ctx context.Context, repositoryID string, chunks []*chunk.Chunk) (*Report, error) {
	report := &Report{RepositoryID: repositoryID, Status: StatusQueued}
	if repositoryID == "" {
		report.Status = StatusFailed
		return report, cserrors.Indexing("repository id is empty", nil)
	}
	if len(chunks) == 0 {
		report.Status = StatusFailed
		return report, cserrors.Indexing("no chunks to index", nil)
	}

	report.Status = StatusRunning
	start := time.Now()
	p.logger.Info("indexing started",
		"repository_id", repositoryID, "chunks", len(chunks), "batch_size", p.batchSize)

	for offset := 0; offset < len(chunks); offset += p.batchSize {
		end := min(offset+p.batchSize, len(chunks))
		batch := chunks[offset:end]
		report.Batches++

		if err := p.runBatch(ctx, repositoryID, batch); err != nil {
			report.Failed += len(batch)
			report.BatchErrors = append(report.BatchErrors,
				fmt.Sprintf("batch %d (%d chunks): %v", report.Batches, len(batch), err))
			p.logger.Error("batch failed, continuing",
				"repository_id", repositoryID, "batch", report.Batches,
				"chunks", len(batch), "error", err)
			continue
		}
		report.Succeeded += len(batch)
	}
	report.Duration = time.Since(start)

	if report.Succeeded == 0 {
		report.Status = StatusFailed
		summary := strings.Join(report.BatchErrors, "; ")
		p.logger.Error("indexing failed",
			"repository_id", repositoryID, "batches", report.Batches, "errors", summary)
		return report, cserrors.Indexing(
			fmt.Sprintf("all %d batches failed: %s", report.Batches, summary), nil)
	}

	report.Status = StatusCompleted
	if p.cache != nil {
		p.cache.InvalidateRepository(ctx, repositoryID)
	}
	p.logger.Info("indexing completed",
		"repository_id", repositoryID, "succeeded", report.Succeeded,
		"failed", report.Failed, "duration", report.Duration)
	return report, nil
}

// runBatch embeds one batch with a single provider call and upserts the
// resulting records.
func (p *Pipeline) runBatch(ctx context.Context, repositoryID string, batch []*chunk.Chunk) error {
	texts := make([]string, len(batch))
	for i, c := range batch {
		if err := c.Validate(); err != nil {
			return err
		}
		if c.RepositoryID != repositoryID {
			return cserrors.Indexing(fmt.Sprintf(
				"chunk %s belongs to repository %q, expected %q",
				c.ID, c.RepositoryID, repositoryID), nil)
		}
		texts[i] = c.SourceText
	}

	vectors, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}
	if len(vectors) != len(batch) {
		return cserrors.Indexing(fmt.Sprintf(
			"embedding count %d does not match batch size %d", len(vectors), len(batch)), nil)
	}

	records := make([]*store.Record, len(batch))
	for i, c := range batch {
		records[i] = &store.Record{ChunkID: c.ID, Vector: vectors[i], Chunk: c}
	}
	return p.index.Upsert(ctx, records)
}
