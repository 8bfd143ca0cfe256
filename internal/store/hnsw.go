package store

import (
	"bufio"
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"
)

// HNSW graph defaults, tuned for code-chunk corpora.
const (
	defaultGraphM        = 16
	defaultGraphEfSearch = 64
)

// vectorGraph wraps a coder/hnsw graph with string-ID mapping and
// cosine-similarity scoring. It holds vectors only; payloads live in the
// SQLite store.
type vectorGraph struct {
	mu    sync.RWMutex
	graph *hnsw.Graph[uint64]
	dims  int

	idMap   map[string]uint64
	keyMap  map[uint64]string
	nextKey uint64
}

// graphMetadata persists ID mappings alongside the exported graph.
type graphMetadata struct {
	IDMap   map[string]uint64
	NextKey uint64
	Dims    int
}

// graphHit is a raw nearest-neighbor before payload filtering.
type graphHit struct {
	chunkID string
	score   float64
}

// newVectorGraph creates an empty cosine-metric graph.
func newVectorGraph(dims int) *vectorGraph {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = defaultGraphM
	g.EfSearch = defaultGraphEfSearch
	g.Ml = 0.25

	return &vectorGraph{
		graph:  g,
		dims:   dims,
		idMap:  make(map[string]uint64),
		keyMap: make(map[uint64]string),
	}
}

// add inserts or replaces a vector by chunk ID.
// Replacement uses lazy deletion: the old node stays in the graph but its
// key mapping is dropped, so it never surfaces in results.
func (g *vectorGraph) add(chunkID string, vector []float32) error {
	if len(vector) != g.dims {
		return ErrDimensionMismatch{Expected: g.dims, Got: len(vector)}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if oldKey, exists := g.idMap[chunkID]; exists {
		delete(g.keyMap, oldKey)
		delete(g.idMap, chunkID)
	}

	key := g.nextKey
	g.nextKey++

	vec := make([]float32, len(vector))
	copy(vec, vector)
	normalizeInPlace(vec)

	g.graph.Add(hnsw.MakeNode(key, vec))
	g.idMap[chunkID] = key
	g.keyMap[key] = chunkID
	return nil
}

// search returns up to k nearest neighbors, most similar first.
func (g *vectorGraph) search(vector []float32, k int) ([]graphHit, error) {
	if len(vector) != g.dims {
		return nil, ErrDimensionMismatch{Expected: g.dims, Got: len(vector)}
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.graph.Len() == 0 || k <= 0 {
		return []graphHit{}, nil
	}

	query := make([]float32, len(vector))
	copy(query, vector)
	normalizeInPlace(query)

	nodes := g.graph.Search(query, k)

	hits := make([]graphHit, 0, len(nodes))
	for _, node := range nodes {
		id, ok := g.keyMap[node.Key]
		if !ok {
			continue // lazily deleted node
		}
		distance := g.graph.Distance(query, node.Value)
		hits = append(hits, graphHit{
			chunkID: id,
			score:   cosineDistanceToScore(distance),
		})
	}
	return hits, nil
}

// count returns the number of live vectors.
func (g *vectorGraph) count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.idMap)
}

// save atomically persists the graph and ID mappings.
func (g *vectorGraph) save(path string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create index directory: %w", err)
	}

	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	if err := g.graph.Export(file); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("export graph: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename index file: %w", err)
	}

	return g.saveMetadata(path + ".meta")
}

func (g *vectorGraph) saveMetadata(path string) error {
	tmpPath := path + ".tmp"
	file, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create metadata file: %w", err)
	}

	meta := graphMetadata{IDMap: g.idMap, NextKey: g.nextKey, Dims: g.dims}
	if err := gob.NewEncoder(file).Encode(meta); err != nil {
		_ = file.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("encode metadata: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close metadata file: %w", err)
	}
	return os.Rename(tmpPath, path)
}

// load restores a previously saved graph. Missing files are not an error;
// the graph simply starts empty.
func (g *vectorGraph) load(path string) error {
	metaFile, err := os.Open(path + ".meta")
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open metadata file: %w", err)
	}
	defer func() { _ = metaFile.Close() }()

	var meta graphMetadata
	if err := gob.NewDecoder(metaFile).Decode(&meta); err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open index file: %w", err)
	}
	defer func() { _ = file.Close() }()

	g.mu.Lock()
	defer g.mu.Unlock()

	// coder/hnsw Import requires an io.ByteReader.
	if err := g.graph.Import(bufio.NewReader(file)); err != nil {
		return fmt.Errorf("import graph: %w", err)
	}

	g.idMap = meta.IDMap
	g.nextKey = meta.NextKey
	g.dims = meta.Dims
	g.keyMap = make(map[uint64]string, len(meta.IDMap))
	for id, key := range meta.IDMap {
		g.keyMap[key] = id
	}
	return nil
}

// cosineDistanceToScore maps cosine distance [0,2] to similarity [0,1].
func cosineDistanceToScore(distance float32) float64 {
	score := 1.0 - float64(distance)/2.0
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// normalizeInPlace scales v to unit length for cosine distance.
func normalizeInPlace(v []float32) {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}
	if sumSquares == 0 {
		return
	}
	inv := 1.0 / math.Sqrt(sumSquares)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
}
