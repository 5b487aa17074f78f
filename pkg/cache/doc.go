// Package cache provides the proxy's response cache with a Redis backend.
//
// The cache is a plain get-or-compute key-value store with a fixed TTL:
//
// - Deterministic keys derived from the normalized request identity
// - Fixed staleness window configured once at construction
// - Prometheus metrics for observability
//
// Only successful payloads are stored. The access pattern is check, then
// store-on-miss; a race between two identical requests may produce a
// duplicate upstream call, which is tolerated.
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create cache manager with a one-hour staleness window
//	manager := cache.NewManager(redisClient, time.Hour)
//
//	// Create cache key from the normalized criteria
//	key := cache.Key{
//		Path:   "/api/v1/best-sellers",
//		Params: criteria.QueryValues(),
//	}
//
//	// Get from cache
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// Cache miss - call upstream, then manager.Set
//	}
//
// # Metrics
//
// The cache manager exports Prometheus metrics:
//
//   - nyt_cache_hits_total - Cache hits
//   - nyt_cache_misses_total - Cache misses
//   - nyt_cache_errors_total{operation} - Cache operation errors
package cache
