package reaper

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/conntrack/pkg/logger"
)

const (
	DefaultInterval  = 5 * time.Minute
	DefaultRetention = 48 * time.Hour
)

// Sweeper removes expired records. *connection.Store satisfies it.
type Sweeper interface {
	Sweep(ctx context.Context, retention time.Duration) (int, error)
}

// Reaper periodically evicts disconnected records older than the retention window.
type Reaper struct {
	store     Sweeper
	interval  time.Duration
	retention time.Duration
	logger    *slog.Logger
}

// Option configures a Reaper.
type Option func(*Reaper)

// WithInterval sets the tick interval. Non-positive values keep the default.
func WithInterval(d time.Duration) Option {
	return func(r *Reaper) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithRetention sets how long disconnected records are kept. Negative values keep the default.
func WithRetention(d time.Duration) Option {
	return func(r *Reaper) {
		if d >= 0 {
			r.retention = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Reaper) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a reaper for store.
func New(store Sweeper, opts ...Option) *Reaper {
	r := &Reaper{
		store:     store,
		interval:  DefaultInterval,
		retention: DefaultRetention,
		logger:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start ticks until ctx is cancelled and returns ctx.Err().
// A failing or panicking tick is logged and the loop continues.
func (r *Reaper) Start(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.InfoContext(ctx, "reaper started",
		slog.Duration("interval", r.interval),
		slog.Duration("retention", r.retention),
	)

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "reaper stopped")
			return ctx.Err()
		case <-ticker.C:
			_, _ = r.Tick(ctx)
		}
	}
}

// Run adapts Start to errgroup: a cancelled context is a clean shutdown.
func (r *Reaper) Run(ctx context.Context) func() error {
	return func() error {
		if err := r.Start(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}
}

// Tick performs one sweep and logs its outcome.
func (r *Reaper) Tick(ctx context.Context) (removed int, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("reaper: sweep panicked: %v", p)
			r.logger.ErrorContext(ctx, "reaper tick panicked", logger.Error(err))
		}
	}()

	start := time.Now()
	removed, err = r.store.Sweep(ctx, r.retention)
	if err != nil {
		r.logger.ErrorContext(ctx, "reaper tick failed", logger.Error(err))
		return 0, err
	}
	if removed > 0 {
		r.logger.InfoContext(ctx, "evicted disconnected connections",
			logger.Count(removed),
			logger.Duration(time.Since(start)),
		)
	}
	return removed, nil
}
