// Package embed provides embedding providers for query and chunk text.
//
// The vector model itself is an external collaborator; this package only
// defines the Provider capability and clients for it.
package embed

import (
	"context"
	"math"
	"time"
)

// Common embedding constants.
const (
	// DefaultDimensions is the embedding dimension shared by all chunks
	// and queries in a deployment.
	DefaultDimensions = 768

	// DefaultTimeout is the default timeout for embedding requests.
	DefaultTimeout = 30 * time.Second
)

// Provider turns text into fixed-length numeric vectors.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Embed generates one vector per input text, in input order.
	// One call embeds a whole batch to amortize model overhead.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier.
	ModelName() string

	// Available reports whether the provider is ready.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// normalizeVector normalizes a vector to unit length.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	magnitude := math.Sqrt(sumSquares)
	if magnitude == 0 {
		return v
	}

	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}
