package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"sync"
	"unicode"
)

// Static embedder constants.
const (
	staticTokenWeight = 0.7
	staticNgramWeight = 0.3
	staticNgramSize   = 3
)

// StaticProvider generates hash-based embeddings without a model backend.
// It is deterministic: the same text always yields the same vector, which
// makes it suitable for offline use and tests. Quality is far below a
// neural embedder; it captures token and character-ngram overlap only.
type StaticProvider struct {
	dims int

	mu     sync.RWMutex
	closed bool
}

var _ Provider = (*StaticProvider)(nil)

// NewStaticProvider creates a static embedder with the given dimensions.
func NewStaticProvider(dims int) *StaticProvider {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &StaticProvider{dims: dims}
}

// Embed generates one hash-based vector per text.
func (p *StaticProvider) Embed(_ context.Context, texts []string) ([][]float32, error) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return nil, fmt.Errorf("provider is closed")
	}
	p.mu.RUnlock()

	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = p.generateVector(text)
	}
	return vectors, nil
}

// generateVector builds a sparse token+ngram hash vector, unit normalized.
func (p *StaticProvider) generateVector(text string) []float32 {
	vector := make([]float32, p.dims)

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return vector
	}

	for _, token := range staticTokenize(trimmed) {
		vector[hashToIndex(token, p.dims)] += staticTokenWeight
	}

	normalized := strings.ToLower(trimmed)
	for i := 0; i+staticNgramSize <= len(normalized); i++ {
		ngram := normalized[i : i+staticNgramSize]
		vector[hashToIndex(ngram, p.dims)] += staticNgramWeight
	}

	return normalizeVector(vector)
}

// staticTokenize lower-cases and splits on non-alphanumeric runs.
func staticTokenize(text string) []string {
	var tokens []string
	var current strings.Builder

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			current.WriteRune(r)
		} else if current.Len() > 0 {
			tokens = append(tokens, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}
	return tokens
}

// hashToIndex maps a term to a vector index via FNV-1a.
func hashToIndex(term string, dims int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(term))
	return int(h.Sum32() % uint32(dims))
}

// Dimensions returns the embedding dimension.
func (p *StaticProvider) Dimensions() int {
	return p.dims
}

// ModelName returns the model identifier.
func (p *StaticProvider) ModelName() string {
	return fmt.Sprintf("static-%d", p.dims)
}

// Available is always true while open.
func (p *StaticProvider) Available(_ context.Context) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return !p.closed
}

// Close marks the provider closed.
func (p *StaticProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}
