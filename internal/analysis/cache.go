package analysis

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/inquesthq/inquest/internal/logging"
)

// CacheEntry wraps a completed analysis with its insertion time for TTL
// checks.
type CacheEntry struct {
	Key       string          // fingerprint, kept for debugging
	Result    *AnalysisResult // the cached analysis
	CreatedAt time.Time       // insertion timestamp
}

// CacheStats reports cache effectiveness counters.
type CacheStats struct {
	Entries   int     // current entry count
	Hits      uint64  // reads answered from cache
	Misses    uint64  // reads that found nothing usable
	Evictions uint64  // entries removed by capacity pressure
	Expired   uint64  // entries removed by TTL at read time
	HitRate   float64 // hits / (hits + misses), 0.0-1.0
}

// resultCache is the bounded, time-expiring store of completed analyses.
// Reads use Peek so recency never changes: eviction order stays insertion
// order, and capacity pressure always removes the oldest-inserted entry.
// Expired entries are detected and removed lazily on read.
type resultCache struct {
	lru    *lru.Cache[string, *CacheEntry]
	ttl    time.Duration
	mu     sync.Mutex
	logger *logging.Logger
	now    func() time.Time // swapped in tests

	// Metrics (atomic)
	hits      uint64
	misses    uint64
	evictions uint64
	expired   uint64
}

func newResultCache(capacity int, ttl time.Duration) (*resultCache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("cache capacity must be positive, got %d", capacity)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cache TTL must be positive, got %v", ttl)
	}

	lruCache, err := lru.New[string, *CacheEntry](capacity)
	if err != nil {
		return nil, fmt.Errorf("failed to create LRU cache: %w", err)
	}
	return &resultCache{
		lru:    lruCache,
		ttl:    ttl,
		logger: logging.GetLogger("analysis.cache"),
		now:    time.Now,
	}, nil
}

// Get returns the cached result for key. Entries older than the TTL count
// as misses and are removed.
func (rc *resultCache) Get(key string) (*AnalysisResult, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	entry, ok := rc.lru.Peek(key)
	if !ok {
		atomic.AddUint64(&rc.misses, 1)
		return nil, false
	}
	if rc.now().Sub(entry.CreatedAt) > rc.ttl {
		rc.lru.Remove(key)
		atomic.AddUint64(&rc.expired, 1)
		atomic.AddUint64(&rc.misses, 1)
		rc.logger.Debug("Result cache EXPIRED: key=%s age=%v", shortID(key), rc.now().Sub(entry.CreatedAt))
		return nil, false
	}
	atomic.AddUint64(&rc.hits, 1)
	return entry.Result, true
}

// Set stores a result under key. At capacity the oldest-inserted entry is
// evicted first. Re-setting an existing key counts as a fresh insertion:
// concurrent writers for the same key are idempotent, last writer wins.
func (rc *resultCache) Set(key string, result *AnalysisResult) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	// Remove first so Add always appends at the back of the eviction order.
	rc.lru.Remove(key)
	if evicted := rc.lru.Add(key, &CacheEntry{
		Key:       key,
		Result:    result,
		CreatedAt: rc.now(),
	}); evicted {
		atomic.AddUint64(&rc.evictions, 1)
		rc.logger.Debug("Result cache EVICT: inserting key=%s displaced oldest entry", shortID(key))
	}
}

// Len returns the current entry count.
func (rc *resultCache) Len() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.lru.Len()
}

// Stats returns a snapshot of the cache counters.
func (rc *resultCache) Stats() CacheStats {
	stats := CacheStats{
		Entries:   rc.Len(),
		Hits:      atomic.LoadUint64(&rc.hits),
		Misses:    atomic.LoadUint64(&rc.misses),
		Evictions: atomic.LoadUint64(&rc.evictions),
		Expired:   atomic.LoadUint64(&rc.expired),
	}
	if total := stats.Hits + stats.Misses; total > 0 {
		stats.HitRate = float64(stats.Hits) / float64(total)
	}
	return stats
}
