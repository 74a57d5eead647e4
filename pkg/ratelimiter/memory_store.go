package ratelimiter

import (
	"context"
	"sync"
	"time"
)

const defaultStaleAfter = time.Hour

type bucketState struct {
	tokens     int
	lastRefill time.Time
	lastAccess time.Time
}

// MemoryStore keeps buckets in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	buckets map[string]*bucketState
	now     func() time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) MemoryOption {
	return func(ms *MemoryStore) {
		if now != nil {
			ms.now = now
		}
	}
}

// NewMemoryStore returns an empty store. Call Run to purge idle buckets.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	ms := &MemoryStore{buckets: make(map[string]*bucketState), now: time.Now}
	for _, opt := range opts {
		opt(ms)
	}
	return ms
}

func (ms *MemoryStore) ConsumeTokens(_ context.Context, key string, tokens int, cfg Config) (int, time.Time, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	b, ok := ms.buckets[key]
	if !ok {
		b = &bucketState{tokens: cfg.Capacity, lastRefill: now}
		ms.buckets[key] = b
	}

	// Intervals are capped so a long-idle bucket cannot overflow the token count.
	maxIntervals := int64(cfg.Capacity/cfg.RefillRate + 1)
	intervals := int(min(int64(now.Sub(b.lastRefill)/cfg.RefillInterval), maxIntervals))
	if intervals > 0 {
		b.tokens = min(b.tokens+intervals*cfg.RefillRate, cfg.Capacity)
		b.lastRefill = now
	}

	// A denied request does not dig the bucket further into debt.
	if b.tokens < tokens {
		b.lastAccess = now
		return b.tokens - tokens, b.lastRefill.Add(cfg.RefillInterval), nil
	}
	b.tokens -= tokens
	b.lastAccess = now
	return b.tokens, b.lastRefill.Add(cfg.RefillInterval), nil
}

func (ms *MemoryStore) Reset(_ context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.buckets, key)
	return nil
}

// Len returns the number of tracked keys.
func (ms *MemoryStore) Len() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return len(ms.buckets)
}

// Purge drops buckets idle for longer than staleAfter and returns how many went.
func (ms *MemoryStore) Purge(staleAfter time.Duration) int {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := ms.now()
	removed := 0
	for key, b := range ms.buckets {
		if now.Sub(b.lastAccess) > staleAfter {
			delete(ms.buckets, key)
			removed++
		}
	}
	return removed
}

// Run purges idle buckets every interval until ctx is done.
// It matches errgroup.Group.Go and treats cancellation as a clean exit.
func (ms *MemoryStore) Run(ctx context.Context, interval time.Duration) func() error {
	return func() error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				ms.Purge(defaultStaleAfter)
			}
		}
	}
}
