// Package outlinecache memoizes generated outline text by (path, mtime),
// storing entries LZ4-compressed since outlines for large repositories
// accumulate quickly and compress well (repetitive "[N-M] name" lines).
package outlinecache

import (
	"sync"
	"time"

	"github.com/pierrec/lz4/v4"
)

type entry struct {
	mtime      time.Time
	compressed []byte
	rawLen     int
}

// Cache is a concurrent path -> outline memo, keyed by mtime. A race
// between two goroutines computing the same stale entry is accepted:
// both recomputations are functionally identical, so last-writer-wins is
// safe, per the spec's "concurrent map; compute may duplicate under race"
// rule.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	hits   int64
	misses int64
}

// New returns an empty outline cache.
func New() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// GetOrCompute returns the cached outline for path if an entry exists with
// a matching mtime; otherwise it calls f, caches the result under
// (path, mtime), and returns it.
func (c *Cache) GetOrCompute(path string, mtime time.Time, f func() string) string {
	c.mu.RLock()
	e, ok := c.entries[path]
	c.mu.RUnlock()

	if ok && e.mtime.Equal(mtime) {
		c.recordHit()

		return decompress(e)
	}

	c.recordMiss()

	result := f()

	c.mu.Lock()
	c.entries[path] = compress(mtime, result)
	c.mu.Unlock()

	return result
}

// Invalidate drops the cached outline for path, forcing recomputation on
// next access. Used when tilth_edit rewrites a file.
func (c *Cache) Invalidate(path string) {
	c.mu.Lock()
	delete(c.entries, path)
	c.mu.Unlock()
}

// CacheHits implements observability.CacheStatsProvider.
func (c *Cache) CacheHits() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.hits
}

// CacheMisses implements observability.CacheStatsProvider.
func (c *Cache) CacheMisses() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.misses
}

func (c *Cache) recordHit() {
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

func (c *Cache) recordMiss() {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}

func compress(mtime time.Time, s string) entry {
	src := []byte(s)

	dst := make([]byte, lz4.CompressBlockBound(len(src)))

	written, err := lz4.CompressBlock(src, dst, nil)
	if err != nil || written == 0 {
		// Incompressible or empty input: store raw with rawLen as a sentinel
		// meaning "use compressed verbatim".
		return entry{mtime: mtime, compressed: src, rawLen: 0}
	}

	return entry{mtime: mtime, compressed: dst[:written], rawLen: len(src)}
}

func decompress(e entry) string {
	if e.rawLen == 0 {
		return string(e.compressed)
	}

	dst := make([]byte, e.rawLen)

	n, err := lz4.UncompressBlock(e.compressed, dst)
	if err != nil {
		return ""
	}

	return string(dst[:n])
}
