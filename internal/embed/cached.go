package embed

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	cserrors "github.com/codescope/codescope/internal/errors"
)

// DefaultEmbedCacheSize is the default number of embeddings to memoize.
// At 768 dimensions * 4 bytes * 1000 entries this is about 3MB.
const DefaultEmbedCacheSize = 1000

// CachedProvider wraps a Provider with LRU memoization so repeated query
// texts skip the model round trip.
type CachedProvider struct {
	inner Provider
	cache *lru.Cache[string, []float32]
}

var _ Provider = (*CachedProvider)(nil)

// NewCachedProvider creates a memoizing provider wrapping inner.
func NewCachedProvider(inner Provider, cacheSize int) *CachedProvider {
	if cacheSize <= 0 {
		cacheSize = DefaultEmbedCacheSize
	}
	cache, _ := lru.New[string, []float32](cacheSize)
	return &CachedProvider{
		inner: inner,
		cache: cache,
	}
}

// cacheKey hashes text together with the model name so switching models
// never serves stale vectors.
func (c *CachedProvider) cacheKey(text string) string {
	h := sha256.Sum256([]byte(text + "\x00" + c.inner.ModelName()))
	return hex.EncodeToString(h[:])
}

// Embed returns cached vectors where available and batches the rest
// through the inner provider in one call.
func (c *CachedProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	missIndices := make([]int, 0, len(texts))
	missTexts := make([]string, 0, len(texts))

	for i, text := range texts {
		if vec, ok := c.cache.Get(c.cacheKey(text)); ok {
			results[i] = vec
		} else {
			missIndices = append(missIndices, i)
			missTexts = append(missTexts, text)
		}
	}

	if len(missTexts) == 0 {
		return results, nil
	}

	fresh, err := c.inner.Embed(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, cserrors.Embedding(fmt.Errorf(
			"provider returned %d embeddings for %d inputs", len(fresh), len(missTexts)))
	}

	for j, idx := range missIndices {
		results[idx] = fresh[j]
		c.cache.Add(c.cacheKey(texts[idx]), fresh[j])
	}

	return results, nil
}

// Dimensions returns the embedding dimension (passthrough).
func (c *CachedProvider) Dimensions() int {
	return c.inner.Dimensions()
}

// ModelName returns the model identifier (passthrough).
func (c *CachedProvider) ModelName() string {
	return c.inner.ModelName()
}

// Available reports inner readiness (passthrough).
func (c *CachedProvider) Available(ctx context.Context) bool {
	return c.inner.Available(ctx)
}

// Close closes the inner provider.
func (c *CachedProvider) Close() error {
	return c.inner.Close()
}
