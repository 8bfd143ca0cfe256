// Package store defines the VectorIndex capability consumed by the search
// core, and a bundled local implementation (HNSW graph + SQLite payloads).
//
// The physical storage engine is an external collaborator as far as the
// pipeline is concerned; everything upstream depends only on VectorIndex.
package store

import (
	"context"
	"fmt"

	"github.com/codescope/codescope/internal/chunk"
)

// Filters restricts a nearest-neighbor lookup.
// Zero values mean "no filter".
type Filters struct {
	// RepositoryID restricts hits to one repository.
	RepositoryID string

	// Language restricts hits by programming language (lower-case).
	Language string

	// SymbolType restricts hits to one embedding space ("function" or
	// "call"). The retriever issues one lookup per space.
	SymbolType chunk.SymbolType
}

// Hit is a single nearest-neighbor result.
type Hit struct {
	// ChunkID identifies the stored chunk.
	ChunkID string

	// Score is the similarity in [0,1]; higher is more similar.
	Score float64

	// Chunk is the stored payload: full provenance for the result.
	Chunk *chunk.Chunk
}

// Record pairs a chunk payload with its embedding for upsert.
type Record struct {
	ChunkID string
	Vector  []float32
	Chunk   *chunk.Chunk
}

// VectorIndex is the nearest-neighbor capability the search core consumes.
// Implementations must be safe for concurrent use; search never mutates
// index contents.
type VectorIndex interface {
	// Search returns up to topK nearest neighbors of the query vector,
	// most similar first, honoring filters.
	Search(ctx context.Context, vector []float32, topK int, filters Filters) ([]*Hit, error)

	// Upsert inserts or replaces records by chunk ID.
	Upsert(ctx context.Context, records []*Record) error

	// Count returns the number of stored vectors.
	Count(ctx context.Context) (int, error)

	// Close releases resources.
	Close() error
}

// ErrDimensionMismatch indicates a vector of the wrong dimensionality.
type ErrDimensionMismatch struct {
	Expected int
	Got      int
}

func (e ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}
