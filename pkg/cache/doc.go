// Package cache provides a Redis-backed response cache for catalog search
// requests.
//
// Keyword searches are interactive and tend to be repeated while a user pages
// back and forth, so their raw response bodies are kept in Redis for a short TTL.
// Collection runs never go through the cache: a run must see the catalog as
// it is when the run starts.
//
// Each entry is a Redis hash under <namespace>:<key> holding the body and
// its timestamps, with the key expiring at the entry's deadline.
// Invalidate drops a whole namespace.
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.SearchKey(url.Values{"keyword": []string{"city pop"}})
//
//	entry, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch from the catalog API, then:
//		_ = manager.Set(ctx, key, cache.NewEntry(body, cache.DefaultTTL))
//	}
//
// # Metrics
//
//   - tunecore_cache_hits_total - Cache hits
//   - tunecore_cache_misses_total - Cache misses
//   - tunecore_cache_size_bytes - Bytes written to the cache
//   - tunecore_cache_errors_total{operation} - Cache operation errors (get, set, delete, invalidate)
package cache
