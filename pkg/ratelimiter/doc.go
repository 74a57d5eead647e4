// Package ratelimiter implements a token bucket limiter with an in-memory store
// and HTTP middleware.
//
//	store := ratelimiter.NewMemoryStore()
//	bucket, err := ratelimiter.NewBucket(store, ratelimiter.Config{
//		Capacity:       60,
//		RefillRate:     1,
//		RefillInterval: time.Second,
//	})
//	r.With(ratelimiter.Middleware(bucket, byClientIP, nil)).Post("/track", track)
//
// Buckets of idle keys stay in memory until Purge or Run removes them.
package ratelimiter
