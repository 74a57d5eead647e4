package ratelimiter

import (
	"context"
	"fmt"
	"time"
)

// Config describes a token bucket.
type Config struct {
	Capacity       int           // burst size
	RefillRate     int           // tokens added per interval
	RefillInterval time.Duration // how often tokens are added
}

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.RefillRate <= 0 {
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, c.RefillRate)
	}
	if c.RefillInterval <= 0 {
		return fmt.Errorf("%w: refill interval must be positive, got %v", ErrInvalidConfig, c.RefillInterval)
	}
	return nil
}

// Result is the outcome of one check.
type Result struct {
	Limit     int
	Remaining int // negative when the request was denied
	ResetAt   time.Time
}

// Allowed reports whether the request may proceed.
func (r Result) Allowed() bool { return r.Remaining >= 0 }

// RetryAfter is how long a denied caller should wait; zero when allowed.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed() || !r.ResetAt.After(now) {
		return 0
	}
	return r.ResetAt.Sub(now)
}

// Store keeps bucket state per key.
type Store interface {
	// ConsumeTokens takes tokens from the bucket of key, refilling it first.
	ConsumeTokens(ctx context.Context, key string, tokens int, cfg Config) (remaining int, resetAt time.Time, err error)
	Reset(ctx context.Context, key string) error
}

// Bucket is a token bucket limiter over a Store.
type Bucket struct {
	store  Store
	config Config
}

// NewBucket validates cfg and returns a limiter.
func NewBucket(store Store, cfg Config) (*Bucket, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Bucket{store: store, config: cfg}, nil
}

// Allow consumes one token for key.
func (b *Bucket) Allow(ctx context.Context, key string) (Result, error) {
	return b.AllowN(ctx, key, 1)
}

// AllowN consumes n tokens for key.
func (b *Bucket) AllowN(ctx context.Context, key string, n int) (Result, error) {
	if n <= 0 {
		return Result{}, fmt.Errorf("%w: must be positive, got %d", ErrInvalidTokenCount, n)
	}
	remaining, resetAt, err := b.store.ConsumeTokens(ctx, key, n, b.config)
	if err != nil {
		return Result{}, err
	}
	return Result{Limit: b.config.Capacity, Remaining: remaining, ResetAt: resetAt}, nil
}

// Reset forgets the state of key.
func (b *Bucket) Reset(ctx context.Context, key string) error {
	return b.store.Reset(ctx, key)
}
