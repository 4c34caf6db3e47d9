// Package cache provides thread-safe caching implementations with built-in
// statistics tracking and optional Prometheus metrics integration.
//
// # Overview
//
// Two eviction strategies are available:
//   - Simple: no eviction (manual cleanup only)
//   - LRU: least recently used eviction, bounded by size
//
// A Noop cache is returned when caching is disabled via configuration, so call
// sites never branch on whether a cache exists.
//
// # Quick Start
//
//	memo, err := cache.NewLRU[bool](4096)
//	if err != nil {
//		return err
//	}
//	defer memo.Close()
//
//	if hit, found := memo.Get(pairKey); found {
//		return hit
//	}
//	result := expensiveCheck()
//	_, _ = memo.Set(pairKey, result)
//
// Config-driven construction:
//
//	c, err := cache.NewFromConfig[bool](cfg.CycleCache)
//
// # Uses in semledger
//
// The relationship graph memoizes cycle-check verdicts per (child, parent) pair
// in a bounded LRU so repeated hierarchy inserts stay cheap without letting the
// memo table grow with the input. When the memo cannot be built the graph falls
// back to a Noop cache and keeps working unmemoized.
//
// # Observability
//
// Statistics (hits, misses, sets, deletes, evictions, sizes) are always
// collected via atomic counters and exposed through Stats(). Passing a
// metric.MetricsRegistry with WithMetrics additionally exports them as
// Prometheus metrics under semledger_cache_* with a component label.
//
// # Thread Safety
//
// All operations are safe for concurrent use. Eviction callbacks run outside
// cache locks and may safely re-enter the cache.
package cache
