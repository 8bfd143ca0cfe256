package cache

import (
	"context"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestSearchKeyDeterministic(t *testing.T) {
	a := SearchKey("parse json", 10, "repo-a", "python", "text-to-code", "v1")
	b := SearchKey("parse json", 10, "repo-a", "python", "text-to-code", "v1")
	assert.Equal(t, a, b)
	assert.Contains(t, a, searchKeyPrefix)
}

func TestSearchKeyDivergence(t *testing.T) {
	base := SearchKey("parse json", 10, "repo-a", "python", "text-to-code", "v1")

	variants := []string{
		SearchKey("parse yaml", 10, "repo-a", "python", "text-to-code", "v1"),
		SearchKey("parse json", 20, "repo-a", "python", "text-to-code", "v1"),
		SearchKey("parse json", 10, "repo-b", "python", "text-to-code", "v1"),
		SearchKey("parse json", 10, "repo-a", "go", "text-to-code", "v1"),
		SearchKey("parse json", 10, "repo-a", "python", "code-to-code", "v1"),
		SearchKey("parse json", 10, "repo-a", "python", "text-to-code", "v2"),
	}
	for i, v := range variants {
		assert.NotEqual(t, base, v, "variant %d must change the key", i)
	}
}

func TestMemoryBackendTTLOnRead(t *testing.T) {
	b, err := newMemoryBackend(16)
	require.NoError(t, err)

	clock := time.Now()
	b.now = func() time.Time { return clock }

	b.set("k", []byte("v"), globalTagKey, time.Minute)
	got, ok := b.get("k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)

	clock = clock.Add(2 * time.Minute)
	_, ok = b.get("k")
	assert.False(t, ok)
	assert.Equal(t, 0, b.len(), "expired entry is removed on read")
}

func TestMemoryBackendEviction(t *testing.T) {
	b, err := newMemoryBackend(2)
	require.NoError(t, err)

	b.set("a", []byte("1"), globalTagKey, time.Minute)
	b.set("b", []byte("2"), globalTagKey, time.Minute)
	b.set("c", []byte("3"), globalTagKey, time.Minute)

	assert.Equal(t, 2, b.len())
	_, ok := b.get("a")
	assert.False(t, ok, "oldest entry is evicted at capacity")
}

func TestMemoryBackendInvalidateByTag(t *testing.T) {
	b, err := newMemoryBackend(16)
	require.NoError(t, err)

	b.set("repo-a-key", []byte("1"), repoTagKey("repo-a"), time.Minute)
	b.set("repo-b-key", []byte("2"), repoTagKey("repo-b"), time.Minute)
	b.set("global-key", []byte("3"), globalTagKey, time.Minute)

	removed := b.invalidate(repoTagKey("repo-a"), globalTagKey)
	assert.Equal(t, 2, removed)

	_, ok := b.get("repo-a-key")
	assert.False(t, ok)
	_, ok = b.get("global-key")
	assert.False(t, ok)
	_, ok = b.get("repo-b-key")
	assert.True(t, ok, "other repositories keep their entries")
}

// fakeRemote is an in-memory remoteBackend with a switchable outage.
type fakeRemote struct {
	values map[string][]byte
	tags   map[string][]string
	down   bool
	gets   int
	sets   int
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		values: make(map[string][]byte),
		tags:   make(map[string][]string),
	}
}

func (f *fakeRemote) get(_ context.Context, key string) ([]byte, bool, error) {
	f.gets++
	if f.down {
		return nil, false, fmt.Errorf("connection refused")
	}
	v, ok := f.values[key]
	return v, ok, nil
}

func (f *fakeRemote) set(_ context.Context, key string, value []byte, tag string, _ time.Duration) error {
	f.sets++
	if f.down {
		return fmt.Errorf("connection refused")
	}
	f.values[key] = value
	f.tags[tag] = append(f.tags[tag], key)
	return nil
}

func (f *fakeRemote) invalidate(_ context.Context, tags ...string) error {
	if f.down {
		return fmt.Errorf("connection refused")
	}
	for _, tag := range tags {
		for _, key := range f.tags[tag] {
			delete(f.values, key)
		}
		delete(f.tags, tag)
	}
	return nil
}

func (f *fakeRemote) ping(_ context.Context) error {
	if f.down {
		return fmt.Errorf("connection refused")
	}
	return nil
}

func (f *fakeRemote) close() error { return nil }

func TestCacheTwoTierRoundTrip(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	c, err := newWithBackend(remote, 16, discardLogger())
	require.NoError(t, err)

	key := SearchKey("parse json", 10, "", "", "text-to-code", "v1")
	c.Set(ctx, key, []byte("results"), "", time.Hour)

	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, []byte("results"), got)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Stores)
}

func TestCacheBackendOutageDegradesToLocal(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	remote.down = true
	c, err := newWithBackend(remote, 16, discardLogger())
	require.NoError(t, err)

	key := SearchKey("parse json", 10, "repo-a", "", "text-to-code", "v1")

	// First lookup misses without surfacing the backend error.
	_, ok := c.Get(ctx, key)
	assert.False(t, ok)

	// The store still lands in the local tier.
	c.Set(ctx, key, []byte("results"), "repo-a", time.Hour)
	got, ok := c.Get(ctx, key)
	require.True(t, ok)
	assert.Equal(t, []byte("results"), got)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Misses)
	assert.GreaterOrEqual(t, stats.RemoteErrors, uint64(2))
}

func TestCacheInvalidateRepositoryClearsGlobal(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	c, err := newWithBackend(remote, 16, discardLogger())
	require.NoError(t, err)

	repoKey := SearchKey("parse json", 10, "repo-a", "", "text-to-code", "v1")
	otherKey := SearchKey("parse json", 10, "repo-b", "", "text-to-code", "v1")
	globalKey := SearchKey("parse json", 10, "", "", "text-to-code", "v1")

	c.Set(ctx, repoKey, []byte("a"), "repo-a", time.Hour)
	c.Set(ctx, otherKey, []byte("b"), "repo-b", time.Hour)
	c.Set(ctx, globalKey, []byte("g"), "", time.Hour)

	c.InvalidateRepository(ctx, "repo-a")

	_, ok := c.Get(ctx, repoKey)
	assert.False(t, ok, "repository-scoped entry is dropped")
	_, ok = c.Get(ctx, globalKey)
	assert.False(t, ok, "global-scope entry may include the repository")
	_, ok = c.Get(ctx, otherKey)
	assert.True(t, ok, "other repositories are untouched")
}

func TestCacheInvalidationSurvivesOutage(t *testing.T) {
	ctx := context.Background()
	remote := newFakeRemote()
	c, err := newWithBackend(remote, 16, discardLogger())
	require.NoError(t, err)

	key := SearchKey("parse json", 10, "repo-a", "", "text-to-code", "v1")
	c.Set(ctx, key, []byte("a"), "repo-a", time.Hour)

	remote.down = true
	c.InvalidateRepository(ctx, "repo-a")

	// Local tier is cleared even though the backend call failed.
	remote.down = false
	delete(remote.values, key)
	_, ok := c.Get(ctx, key)
	assert.False(t, ok)
}

func TestCacheDisabled(t *testing.T) {
	ctx := context.Background()
	c, err := New(Options{Enabled: false}, discardLogger())
	require.NoError(t, err)

	c.Set(ctx, "k", []byte("v"), "", time.Hour)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.False(t, c.Stats().Enabled)
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}

func TestCacheLocalOnly(t *testing.T) {
	ctx := context.Background()
	c, err := New(Options{Enabled: true, LocalCapacity: 8}, discardLogger())
	require.NoError(t, err)

	c.Set(ctx, "k", []byte("v"), "", time.Hour)
	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, []byte("v"), got)
	stats := c.Stats()
	assert.True(t, stats.Enabled)
	assert.False(t, stats.RemoteActive)
}
