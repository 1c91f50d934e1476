// Package bloomcache maintains one Bloom filter per source file, keyed by
// mtime, for fast "does this file possibly reference identifier X?"
// pre-filtering ahead of expensive tree-sitter parsing in the callee
// resolver.
package bloomcache

import (
	"sync"
	"time"

	"github.com/pityka/tilth/internal/identscan"
	"github.com/pityka/tilth/pkg/alg/bloom"
)

// targetFPR is the Bloom filter's construction false-positive rate, per the
// spec's fixed 1% target.
const targetFPR = 0.01

type entry struct {
	filter *bloom.Filter
	mtime  time.Time
}

// Cache is a concurrent map of path -> (filter, mtime). A race between two
// goroutines building the same stale entry is resolved last-writer-wins;
// both filters are functionally equivalent so this is safe.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	hits   int64
	misses int64
}

// New returns an empty Bloom filter cache.
func New() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// Contains reports whether symbol might appear in the file at path. If a
// cached filter exists with an mtime equal to mtime, it is queried directly
// -- even if content has since changed, the cache trusts mtime over content.
// Otherwise content is tokenized, a fresh filter is built and cached under
// (path, mtime), then queried.
func (c *Cache) Contains(path string, mtime time.Time, content []byte, symbol string) bool {
	c.mu.RLock()
	e, ok := c.entries[path]
	c.mu.RUnlock()

	if ok && e.mtime.Equal(mtime) {
		c.recordHit()

		return e.filter.Test([]byte(symbol))
	}

	c.recordMiss()

	filter := buildFilter(content)
	result := filter.Test([]byte(symbol))

	c.mu.Lock()
	c.entries[path] = entry{filter: filter, mtime: mtime}
	c.mu.Unlock()

	return result
}

// Invalidate drops the cached filter for path, forcing a rebuild on next
// access. Used when a file is rewritten by tilth_edit.
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

// buildFilter tokenizes content and inserts every identifier into a filter
// sized for the identifier count (minimum 1 to satisfy bloom's constructor).
func buildFilter(content []byte) *bloom.Filter {
	idents := identscan.Identifiers(content)

	n := uint(len(idents))
	if n == 0 {
		n = 1
	}

	filter, err := bloom.NewWithEstimates(n, targetFPR)
	if err != nil {
		// n >= 1 and 0 < targetFPR < 1 always hold, so construction cannot
		// fail; a non-nil error here would indicate a library contract
		// change, not a runtime condition to recover from.
		panic("bloomcache: unexpected bloom construction error: " + err.Error())
	}

	for _, ident := range idents {
		filter.Add([]byte(ident))
	}

	return filter
}
