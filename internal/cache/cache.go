// Package cache is the two-tier result cache: Redis as the primary shared
// tier with a bounded in-process tier underneath it. The cache is strictly
// an accelerator; every backend failure degrades to a miss and the caller
// recomputes.
package cache

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	cserrors "github.com/codescope/codescope/internal/errors"
)

// Options configures the cache tiers.
type Options struct {
	// Enabled gates the whole cache; when false every lookup misses.
	Enabled bool

	// RedisAddr is the primary tier address. Empty runs local-only.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Timeout bounds each Redis call.
	Timeout time.Duration

	// LocalCapacity is the in-process tier's entry limit.
	LocalCapacity int
}

// Stats is a snapshot of cache activity since startup.
type Stats struct {
	Enabled       bool   `json:"enabled"`
	Hits          uint64 `json:"hits"`
	Misses        uint64 `json:"misses"`
	Stores        uint64 `json:"stores"`
	Invalidations uint64 `json:"invalidations"`
	RemoteErrors  uint64 `json:"remote_errors"`
	LocalEntries  int    `json:"local_entries"`
	RemoteActive  bool   `json:"remote_active"`
}

// Cache is the two-tier result cache. Safe for concurrent use.
type Cache struct {
	enabled bool
	remote  remoteBackend
	local   *memoryBackend
	logger  *slog.Logger

	hits          atomic.Uint64
	misses        atomic.Uint64
	stores        atomic.Uint64
	invalidations atomic.Uint64
	remoteErrors  atomic.Uint64
}

// New builds the cache. A missing Redis address leaves the cache running on
// the local tier alone; construction never requires Redis to be reachable.
func New(opts Options, logger *slog.Logger) (*Cache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !opts.Enabled {
		return &Cache{enabled: false, logger: logger}, nil
	}

	capacity := opts.LocalCapacity
	if capacity <= 0 {
		capacity = 1024
	}
	local, err := newMemoryBackend(capacity)
	if err != nil {
		return nil, err
	}

	c := &Cache{enabled: true, local: local, logger: logger}
	if opts.RedisAddr != "" {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 250 * time.Millisecond
		}
		c.remote = newRedisBackend(opts.RedisAddr, opts.RedisPassword, opts.RedisDB, timeout)
	}
	return c, nil
}

// newWithBackend is the test seam for injecting a fake remote tier.
func newWithBackend(remote remoteBackend, localCapacity int, logger *slog.Logger) (*Cache, error) {
	local, err := newMemoryBackend(localCapacity)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{enabled: true, remote: remote, local: local, logger: logger}, nil
}

// Get returns the cached value for key. The second return is false on any
// miss, including backend failure; errors never propagate to the caller.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !c.enabled {
		return nil, false
	}

	if c.remote != nil {
		value, ok, err := c.remote.get(ctx, key)
		if err != nil {
			c.remoteErrors.Add(1)
			c.logger.Debug("cache backend read failed, falling through",
				"key", key, "error", cserrors.Cache("get", err))
		} else if ok {
			c.hits.Add(1)
			return value, true
		}
	}

	if value, ok := c.local.get(key); ok {
		c.hits.Add(1)
		return value, true
	}

	c.misses.Add(1)
	return nil, false
}

// Set stores a value in both tiers, tagged by repository scope for
// invalidation. An empty repositoryID tags the entry global. Backend write
// failures are logged and dropped.
func (c *Cache) Set(ctx context.Context, key string, value []byte, repositoryID string, ttl time.Duration) {
	if !c.enabled || ttl <= 0 {
		return
	}
	tag := tagFor(repositoryID)

	c.local.set(key, value, tag, ttl)
	if c.remote != nil {
		if err := c.remote.set(ctx, key, value, tag, ttl); err != nil {
			c.remoteErrors.Add(1)
			c.logger.Debug("cache backend write failed",
				"key", key, "error", cserrors.Cache("set", err))
		}
	}
	c.stores.Add(1)
}

// InvalidateRepository drops every entry tagged with the repository plus all
// global-scope entries, which may contain the repository's chunks.
func (c *Cache) InvalidateRepository(ctx context.Context, repositoryID string) {
	if !c.enabled {
		return
	}
	tags := []string{repoTagKey(repositoryID), globalTagKey}

	removed := c.local.invalidate(tags...)
	if c.remote != nil {
		if err := c.remote.invalidate(ctx, tags...); err != nil {
			c.remoteErrors.Add(1)
			c.logger.Warn("cache backend invalidation failed",
				"repository_id", repositoryID, "error", cserrors.Cache("invalidate", err))
		}
	}

	c.invalidations.Add(1)
	c.logger.Info("cache invalidated",
		"repository_id", repositoryID, "local_removed", removed)
}

// Ping reports whether the primary tier is reachable.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.enabled || c.remote == nil {
		return nil
	}
	return c.remote.ping(ctx)
}

// Stats returns a snapshot of cache counters.
func (c *Cache) Stats() Stats {
	s := Stats{
		Enabled:       c.enabled,
		Hits:          c.hits.Load(),
		Misses:        c.misses.Load(),
		Stores:        c.stores.Load(),
		Invalidations: c.invalidations.Load(),
		RemoteErrors:  c.remoteErrors.Load(),
		RemoteActive:  c.remote != nil,
	}
	if c.local != nil {
		s.LocalEntries = c.local.len()
	}
	return s
}

// Close releases the backend connection.
func (c *Cache) Close() error {
	if c.local != nil {
		c.local.purge()
	}
	if c.remote != nil {
		return c.remote.close()
	}
	return nil
}
