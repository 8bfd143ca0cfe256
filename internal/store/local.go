package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/codescope/codescope/internal/chunk"
	cserrors "github.com/codescope/codescope/internal/errors"
)

// Local index file names inside the data directory.
const (
	graphFileName   = "vectors.hnsw"
	payloadFileName = "payloads.db"
	lockFileName    = "index.lock"
)

// filterOverscan is how many extra neighbors the graph lookup requests
// when post-filtering, so filtered spaces still fill topK.
const filterOverscan = 8

// LocalIndex is the bundled VectorIndex: a coder/hnsw graph for vectors
// and SQLite for chunk payloads, guarded by a file lock so only one
// process owns the data directory at a time.
type LocalIndex struct {
	mu      sync.RWMutex
	graph   *vectorGraph
	payload *payloadStore
	lock    *flock.Flock
	dataDir string
	closed  bool
}

var _ VectorIndex = (*LocalIndex)(nil)

// OpenLocalIndex opens (creating if needed) the index in dataDir.
func OpenLocalIndex(dataDir string, dims int) (*LocalIndex, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	lock := flock.New(filepath.Join(dataDir, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire index lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("index at %s is locked by another process", dataDir)
	}

	graph := newVectorGraph(dims)
	if err := graph.load(filepath.Join(dataDir, graphFileName)); err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("load vector graph: %w", err)
	}

	payload, err := openPayloadStore(filepath.Join(dataDir, payloadFileName))
	if err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	return &LocalIndex{
		graph:   graph,
		payload: payload,
		lock:    lock,
		dataDir: dataDir,
	}, nil
}

// Search finds topK nearest neighbors honoring filters.
// Filters are applied against stored payloads after the graph lookup,
// with overscan so filtered result sets still fill up.
func (x *LocalIndex) Search(ctx context.Context, vector []float32, topK int, filters Filters) ([]*Hit, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.closed {
		return nil, cserrors.Index(fmt.Errorf("local index is closed"))
	}
	if topK <= 0 {
		return []*Hit{}, nil
	}

	fetchK := topK
	if filters != (Filters{}) {
		fetchK = topK * filterOverscan
	}

	raw, err := x.graph.search(vector, fetchK)
	if err != nil {
		return nil, cserrors.Index(err)
	}
	if len(raw) == 0 {
		return []*Hit{}, nil
	}

	ids := make([]string, len(raw))
	for i, h := range raw {
		ids[i] = h.chunkID
	}
	payloads, err := x.payload.getChunks(ctx, ids)
	if err != nil {
		return nil, cserrors.Index(err)
	}

	hits := make([]*Hit, 0, topK)
	for _, h := range raw {
		c, ok := payloads[h.chunkID]
		if !ok {
			continue // vector without payload; superseded entry
		}
		if !matchesFilters(c, filters) {
			continue
		}
		hits = append(hits, &Hit{ChunkID: h.chunkID, Score: h.score, Chunk: c})
		if len(hits) == topK {
			break
		}
	}
	return hits, nil
}

// matchesFilters checks a payload against lookup filters.
func matchesFilters(c *chunk.Chunk, f Filters) bool {
	if f.RepositoryID != "" && c.RepositoryID != f.RepositoryID {
		return false
	}
	if f.Language != "" && c.Language != f.Language {
		return false
	}
	if f.SymbolType != "" && c.SymbolType != f.SymbolType {
		return false
	}
	return true
}

// Upsert inserts or replaces records, payload first so a vector is never
// searchable without its provenance.
func (x *LocalIndex) Upsert(ctx context.Context, records []*Record) error {
	if len(records) == 0 {
		return nil
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	if x.closed {
		return cserrors.Index(fmt.Errorf("local index is closed"))
	}

	chunks := make([]*chunk.Chunk, len(records))
	for i, r := range records {
		if r.Chunk == nil {
			return cserrors.Index(fmt.Errorf("record %s has no payload", r.ChunkID))
		}
		chunks[i] = r.Chunk
	}
	if err := x.payload.saveChunks(ctx, chunks); err != nil {
		return cserrors.Index(err)
	}

	for _, r := range records {
		if err := x.graph.add(r.ChunkID, r.Vector); err != nil {
			return cserrors.Index(err)
		}
	}
	return nil
}

// Count returns the number of stored vectors.
func (x *LocalIndex) Count(_ context.Context) (int, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.closed {
		return 0, cserrors.Index(fmt.Errorf("local index is closed"))
	}
	return x.graph.count(), nil
}

// Flush persists the vector graph to disk. Payloads are already durable
// in SQLite.
func (x *LocalIndex) Flush() error {
	x.mu.RLock()
	defer x.mu.RUnlock()

	if x.closed {
		return cserrors.Index(fmt.Errorf("local index is closed"))
	}
	if err := x.graph.save(filepath.Join(x.dataDir, graphFileName)); err != nil {
		return cserrors.Index(err)
	}
	return nil
}

// Close flushes, releases the file lock, and closes the payload store.
func (x *LocalIndex) Close() error {
	x.mu.Lock()
	if x.closed {
		x.mu.Unlock()
		return nil
	}
	x.mu.Unlock()

	err := x.Flush()

	x.mu.Lock()
	defer x.mu.Unlock()
	x.closed = true

	if closeErr := x.payload.close(); err == nil {
		err = closeErr
	}
	if unlockErr := x.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}
