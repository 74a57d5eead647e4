package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrymomot/conntrack/pkg/connection"
	"github.com/dmitrymomot/conntrack/pkg/logger"
)

const (
	// DefaultHandlerTimeout bounds a single handler invocation.
	DefaultHandlerTimeout = 5 * time.Second
	// DefaultQueueSize is the number of undelivered events Publish accepts.
	DefaultQueueSize = 4096
)

// Bus delivers connect and disconnect notifications to subscribed handlers.
//
// Publish only appends to a bounded in-memory queue, so it is safe to call
// while holding a lock. Events published while the queue is full are dropped
// and counted in Stats. A single dispatcher goroutine (Start) drains the queue
// in publish order and calls NotifyConnect or NotifyDisconnect for each event.
//
// A handler that ignores its context keeps running after its timeout; the
// dispatcher moves on without it. Such handlers leak one goroutine per call.
type Bus struct {
	connect    []Handler
	disconnect []Handler
	subMu      sync.RWMutex

	queue   []connection.Event
	maxQ    int
	closed  bool
	queueMu sync.Mutex
	wake    chan struct{}
	started atomic.Bool

	timeout time.Duration
	logger  *slog.Logger

	delivered atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

// Option configures a Bus.
type Option func(*Bus)

// WithHandlerTimeout bounds each handler call. Non-positive values keep the default.
func WithHandlerTimeout(d time.Duration) Option {
	return func(b *Bus) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithQueueSize caps the dispatcher queue. Non-positive values keep the default.
func WithQueueSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.maxQ = n
		}
	}
}

// WithLogger sets the logger used for handler failures.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBus creates a bus with no subscribers.
func NewBus(opts ...Option) *Bus {
	b := &Bus{
		wake:    make(chan struct{}, 1),
		maxQ:    DefaultQueueSize,
		timeout: DefaultHandlerTimeout,
		logger:  logger.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// SubscribeConnect registers h for connect notifications. Delivery follows registration order.
func (b *Bus) SubscribeConnect(h Handler) {
	if h == nil {
		return
	}
	b.subMu.Lock()
	b.connect = append(b.connect, h)
	b.subMu.Unlock()
}

// SubscribeDisconnect registers h for disconnect notifications. Delivery follows registration order.
func (b *Bus) SubscribeDisconnect(h Handler) {
	if h == nil {
		return
	}
	b.subMu.Lock()
	b.disconnect = append(b.disconnect, h)
	b.subMu.Unlock()
}

// NotifyConnect synchronously calls every connect handler.
func (b *Bus) NotifyConnect(ctx context.Context, rec connection.Record) {
	b.subMu.RLock()
	handlers := b.connect
	b.subMu.RUnlock()
	b.notify(ctx, connection.EventConnect, handlers, rec)
}

// NotifyDisconnect synchronously calls every disconnect handler.
func (b *Bus) NotifyDisconnect(ctx context.Context, rec connection.Record) {
	b.subMu.RLock()
	handlers := b.disconnect
	b.subMu.RUnlock()
	b.notify(ctx, connection.EventDisconnect, handlers, rec)
}

// Publish enqueues ev for the dispatcher. It never blocks.
// Events published after the dispatcher stopped or while the queue is full are dropped.
func (b *Bus) Publish(ev connection.Event) {
	b.queueMu.Lock()
	if b.closed || len(b.queue) >= b.maxQ {
		b.queueMu.Unlock()
		b.dropped.Add(1)
		return
	}
	b.queue = append(b.queue, ev)
	b.queueMu.Unlock()

	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Start runs the dispatcher until ctx is cancelled, then delivers whatever is
// still queued and returns ctx.Err(). It must be called at most once.
// Handlers receive a context that keeps ctx's values but not its cancellation;
// each call is bounded by the handler timeout instead.
func (b *Bus) Start(ctx context.Context) error {
	if !b.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	dctx := context.WithoutCancel(ctx)
	for {
		select {
		case <-ctx.Done():
			b.queueMu.Lock()
			b.closed = true
			b.queueMu.Unlock()
			b.drain(dctx)
			return ctx.Err()
		case <-b.wake:
			b.drain(dctx)
		}
	}
}

// Run adapts Start to errgroup: a cancelled context is a clean shutdown.
func (b *Bus) Run(ctx context.Context) func() error {
	return func() error {
		if err := b.Start(ctx); err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	}
}

// Stats reports dispatcher counters.
type Stats struct {
	Delivered int64 `json:"delivered"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
	Pending   int   `json:"pending"`
}

// Stats returns a snapshot of the dispatcher counters.
func (b *Bus) Stats() Stats {
	b.queueMu.Lock()
	pending := len(b.queue)
	b.queueMu.Unlock()
	return Stats{
		Delivered: b.delivered.Load(),
		Failed:    b.failed.Load(),
		Dropped:   b.dropped.Load(),
		Pending:   pending,
	}
}

func (b *Bus) drain(ctx context.Context) {
	for {
		b.queueMu.Lock()
		batch := b.queue
		b.queue = nil
		b.queueMu.Unlock()

		if len(batch) == 0 {
			return
		}
		for _, ev := range batch {
			switch ev.Kind {
			case connection.EventConnect:
				b.NotifyConnect(ctx, ev.Record)
			case connection.EventDisconnect:
				b.NotifyDisconnect(ctx, ev.Record)
			default:
				b.logger.WarnContext(ctx, "unknown event kind", logger.Event(string(ev.Kind)))
			}
		}
	}
}

func (b *Bus) notify(ctx context.Context, kind connection.EventKind, handlers []Handler, rec connection.Record) {
	for i, h := range handlers {
		if err := b.invoke(ctx, h, rec); err != nil {
			b.failed.Add(1)
			b.logger.ErrorContext(ctx, "event handler failed",
				logger.Event(string(kind)),
				logger.Handler(fmt.Sprintf("%T#%d", h, i)),
				logger.ConnectionID(rec.ID),
				logger.Error(err),
			)
			continue
		}
		b.delivered.Add(1)
	}
}

// invoke runs h with a deadline. A handler that ignores its context is
// abandoned once the deadline passes; the caller moves on to the next one.
func (b *Bus) invoke(ctx context.Context, h Handler, rec connection.Record) error {
	hctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: %v", ErrHandlerPanic, r)
			}
		}()
		done <- h.Handle(hctx, rec)
	}()

	select {
	case err := <-done:
		return err
	case <-hctx.Done():
		return fmt.Errorf("%w after %s: %w", ErrHandlerTimeout, b.timeout, hctx.Err())
	}
}
