package clawsec

import (
	"sort"
	"sync"
	"time"
)

// DecisionCache is the deduplicating in-memory cache that makes the hot
// path cheap (§4.1.3). It is the same AVC-style pattern the teacher used
// for policy decisions, generalized from a string key to a CallFingerprint
// and from (Decision,reason) to a full AnalysisResult.
type DecisionCache struct {
	mu      sync.RWMutex
	entries map[CallFingerprint]cacheEntry
	ttl     time.Duration
	maxSize int

	hits   uint64
	misses uint64
}

type cacheEntry struct {
	result    AnalysisResult
	createdAt time.Time
	expiresAt time.Time
}

// DefaultCacheSize is the soft maximum entry count before eviction kicks in.
const DefaultCacheSize = 10000

// NewDecisionCache creates a cache with the given TTL and soft max size.
// maxSize <= 0 uses DefaultCacheSize.
func NewDecisionCache(ttl time.Duration, maxSize int) *DecisionCache {
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &DecisionCache{
		entries: make(map[CallFingerprint]cacheEntry),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get returns a copy of the cached result marked Cached=true, or
// (AnalysisResult{}, false) on miss or expiry. The stored value itself
// keeps Cached=false, per §4.1.3.
func (c *DecisionCache) Get(fp CallFingerprint) (AnalysisResult, bool) {
	c.mu.RLock()
	entry, ok := c.entries[fp]
	c.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
		return AnalysisResult{}, false
	}

	c.mu.Lock()
	c.hits++
	c.mu.Unlock()

	result := entry.result
	result.Cached = true
	// Detections is read-only downstream; sharing the slice is safe.
	return result, true
}

// Set stores result under fp. A set that loses the race to a concurrent set
// for the same key is observationally equivalent: same inputs, same
// decision (§5 ordering guarantees).
func (c *DecisionCache) Set(fp CallFingerprint, result AnalysisResult) {
	stored := result
	stored.Cached = false

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.entries) >= c.maxSize {
		c.evictLocked()
	}

	now := time.Now()
	c.entries[fp] = cacheEntry{
		result:    stored,
		createdAt: now,
		expiresAt: now.Add(c.ttl),
	}
}

// evictLocked drops expired entries first; if still at capacity, evicts the
// oldest 10% by createdAt. Caller must hold c.mu.
func (c *DecisionCache) evictLocked() {
	now := time.Now()
	for fp, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, fp)
		}
	}
	if len(c.entries) < c.maxSize {
		return
	}

	type aged struct {
		fp        CallFingerprint
		createdAt time.Time
	}
	all := make([]aged, 0, len(c.entries))
	for fp, e := range c.entries {
		all = append(all, aged{fp, e.createdAt})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].createdAt.Before(all[j].createdAt) })

	toEvict := len(all) / 10
	if toEvict == 0 && len(all) > 0 {
		toEvict = 1
	}
	for i := 0; i < toEvict; i++ {
		delete(c.entries, all[i].fp)
	}
}

// Invalidate removes every entry. Used after a live config reload, since
// detector configuration is immutable within one engine instance (§5).
func (c *DecisionCache) Invalidate() {
	c.mu.Lock()
	c.entries = make(map[CallFingerprint]cacheEntry)
	c.mu.Unlock()
}

// Size returns the current entry count.
func (c *DecisionCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns cache hit/miss counters and the derived hit rate percentage.
func (c *DecisionCache) Stats() (hits, misses uint64, hitRate float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hits, misses = c.hits, c.misses
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	return
}
