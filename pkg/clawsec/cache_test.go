package clawsec

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecisionCacheSetGetRoundTrip(t *testing.T) {
	cache := NewDecisionCache(time.Minute, 10)
	fp := CallFingerprint{1, 2, 3}

	_, ok := cache.Get(fp)
	assert.False(t, ok)

	cache.Set(fp, AnalysisResult{Action: ActionBlock})
	got, ok := cache.Get(fp)
	require.True(t, ok)
	assert.Equal(t, ActionBlock, got.Action)
	assert.True(t, got.Cached, "Get must mark the returned copy as cached")
}

func TestDecisionCacheStoredEntryNeverMarkedCached(t *testing.T) {
	cache := NewDecisionCache(time.Minute, 10)
	fp := CallFingerprint{9}
	cache.Set(fp, AnalysisResult{Action: ActionWarn, Cached: true})

	first, ok := cache.Get(fp)
	require.True(t, ok)
	assert.True(t, first.Cached)

	second, ok := cache.Get(fp)
	require.True(t, ok)
	assert.True(t, second.Cached, "repeated reads of the same entry must keep reporting cached")
}

func TestDecisionCacheExpiresAfterTTL(t *testing.T) {
	cache := NewDecisionCache(time.Millisecond, 10)
	fp := CallFingerprint{7}
	cache.Set(fp, AnalysisResult{Action: ActionAllow})

	time.Sleep(5 * time.Millisecond)
	_, ok := cache.Get(fp)
	assert.False(t, ok, "entry should have expired")
}

func TestDecisionCacheEvictsWhenOverCapacity(t *testing.T) {
	cache := NewDecisionCache(time.Minute, 2)
	cache.Set(CallFingerprint{1}, AnalysisResult{Action: ActionAllow})
	cache.Set(CallFingerprint{2}, AnalysisResult{Action: ActionAllow})
	cache.Set(CallFingerprint{3}, AnalysisResult{Action: ActionAllow})

	assert.LessOrEqual(t, cache.Size(), 2)
}

func TestDecisionCacheStatsTrackHitsAndMisses(t *testing.T) {
	cache := NewDecisionCache(time.Minute, 10)
	fp := CallFingerprint{4}

	cache.Get(fp) // miss
	cache.Set(fp, AnalysisResult{Action: ActionAllow})
	cache.Get(fp) // hit
	cache.Get(fp) // hit

	hits, misses, hitRate := cache.Stats()
	assert.Equal(t, uint64(2), hits)
	assert.Equal(t, uint64(1), misses)
	assert.InDelta(t, 200.0/3.0, hitRate, 0.01)
}

func TestDecisionCacheInvalidateClearsEverything(t *testing.T) {
	cache := NewDecisionCache(time.Minute, 10)
	fp := CallFingerprint{5}
	cache.Set(fp, AnalysisResult{Action: ActionAllow})

	cache.Invalidate()
	_, ok := cache.Get(fp)
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Size())
}
