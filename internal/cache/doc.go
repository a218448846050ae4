// Package cache provides the in-memory response cache used by the
// CacheResponse and InvalidateCache middlewares.
//
// Responses to GET requests are stored under their literal request target
// (path plus raw query) for a fixed TTL. Any write operation invalidates the
// whole cache. Each invalidation bumps a generation counter; a miss records
// the generation it observed and Store refuses to write when it has changed,
// so a request that raced an invalidation cannot repopulate stale data.
//
// Example:
//
//	rc, err := cache.New(30*time.Second, cache.WithMetrics(metrics))
//	if err != nil {
//	    return err
//	}
//	rc.StartSweeper(time.Minute)
//	defer rc.Stop()
package cache
