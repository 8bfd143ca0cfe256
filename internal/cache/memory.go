package cache

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// memoryEntry is one local-tier value with its expiry and invalidation tag.
type memoryEntry struct {
	value     []byte
	tag       string
	expiresAt time.Time
}

// memoryBackend is the in-process fallback tier: a bounded LRU with
// expiry checked on read. It never fails; a full cache just evicts.
type memoryBackend struct {
	entries *lru.Cache[string, memoryEntry]
	now     func() time.Time
}

func newMemoryBackend(capacity int) (*memoryBackend, error) {
	entries, err := lru.New[string, memoryEntry](capacity)
	if err != nil {
		return nil, err
	}
	return &memoryBackend{entries: entries, now: time.Now}, nil
}

func (b *memoryBackend) get(key string) ([]byte, bool) {
	entry, ok := b.entries.Get(key)
	if !ok {
		return nil, false
	}
	if b.now().After(entry.expiresAt) {
		b.entries.Remove(key)
		return nil, false
	}
	return entry.value, true
}

func (b *memoryBackend) set(key string, value []byte, tag string, ttl time.Duration) {
	b.entries.Add(key, memoryEntry{
		value:     value,
		tag:       tag,
		expiresAt: b.now().Add(ttl),
	})
}

// invalidate drops every entry carrying one of the given tags.
func (b *memoryBackend) invalidate(tags ...string) int {
	drop := make(map[string]bool, len(tags))
	for _, tag := range tags {
		drop[tag] = true
	}

	removed := 0
	for _, key := range b.entries.Keys() {
		entry, ok := b.entries.Peek(key)
		if !ok {
			continue
		}
		if drop[entry.tag] {
			b.entries.Remove(key)
			removed++
		}
	}
	return removed
}

func (b *memoryBackend) len() int {
	return b.entries.Len()
}

func (b *memoryBackend) purge() {
	b.entries.Purge()
}
