package retrieval

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/stratumkb/stratum/core"
)

// Cache is a best-effort TTL cache for ranked retrieval results. Staleness
// up to the TTL is the accepted trade-off; there is no invalidation on
// ingestion writes. A nil *Cache is valid and never hits.
type Cache struct {
	cache *ristretto.Cache[uint64, []core.ResultChunk]
	ttl   time.Duration
}

// NewCache creates a result cache with the given TTL.
func NewCache(ttl time.Duration) (*Cache, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[uint64, []core.ResultChunk]{
		NumCounters: 100_000,
		MaxCost:     10_000,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &Cache{
		cache: cache,
		ttl:   ttl,
	}, nil
}

// Get returns the cached results for a key, if present and fresh.
func (c *Cache) Get(key uint64) ([]core.ResultChunk, bool) {
	if c == nil {
		return nil, false
	}
	return c.cache.Get(key)
}

// Set stores results under a key for the configured TTL. Admission is
// best-effort; a rejected write is not an error.
func (c *Cache) Set(key uint64, results []core.ResultChunk) {
	if c == nil {
		return
	}
	c.cache.SetWithTTL(key, results, int64(len(results))+1, c.ttl)
}

// Wait blocks until pending writes are applied. Only useful in tests.
func (c *Cache) Wait() {
	if c != nil {
		c.cache.Wait()
	}
}

// Close releases the cache's resources.
func (c *Cache) Close() {
	if c != nil {
		c.cache.Close()
	}
}

// cacheKey derives the cache key from everything that determines a ranked
// result: query text, caller scope, requested levels, and the ranking
// parameter version.
func cacheKey(query string, scope core.Scope, levels []core.Level, boostsVersion string) uint64 {
	var b strings.Builder
	b.WriteString(query)
	b.WriteByte(0)
	b.WriteString(scope.TenantID)
	b.WriteByte(0)
	b.WriteString(scope.SuiteID)
	b.WriteByte(0)
	b.WriteString(scope.ModuleID)
	b.WriteByte(0)
	for _, level := range levels {
		fmt.Fprintf(&b, "%d,", level)
	}
	b.WriteByte(0)
	b.WriteString(boostsVersion)
	return uint64(core.IDFromContent(b.String()))
}
