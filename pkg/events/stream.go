package events

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/conntrack/pkg/connection"
)

// DefaultStreamBuffer is the per-subscriber buffer used when NewStream gets a non-positive size.
const DefaultStreamBuffer = 16

// Stream fans connection events out to live subscribers such as SSE clients.
// A subscriber whose buffer is full is dropped instead of blocking delivery.
type Stream struct {
	subscribers map[*Subscription]struct{}
	bufferSize  int
	closed      bool
	mu          sync.RWMutex
	cleanupWg   sync.WaitGroup
	now         func() time.Time
}

// NewStream creates a stream with the given per-subscriber buffer.
func NewStream(bufferSize int) *Stream {
	if bufferSize <= 0 {
		bufferSize = DefaultStreamBuffer
	}
	return &Stream{
		subscribers: make(map[*Subscription]struct{}),
		bufferSize:  bufferSize,
		now:         time.Now,
	}
}

// Attach subscribes the stream to both connect and disconnect notifications of bus.
func (s *Stream) Attach(bus *Bus) {
	bus.SubscribeConnect(s.Handler(connection.EventConnect))
	bus.SubscribeDisconnect(s.Handler(connection.EventDisconnect))
}

// Handler returns a bus handler that forwards records as events of the given kind.
// Events carry the record's own connect or disconnect time.
func (s *Stream) Handler(kind connection.EventKind) Handler {
	return HandlerFunc(func(_ context.Context, rec connection.Record) error {
		s.Broadcast(connection.Event{Kind: kind, Record: rec, At: s.eventTime(kind, rec)})
		return nil
	})
}

func (s *Stream) eventTime(kind connection.EventKind, rec connection.Record) time.Time {
	switch {
	case kind == connection.EventDisconnect && rec.DisconnectedAt != nil:
		return *rec.DisconnectedAt
	case kind == connection.EventConnect && !rec.ConnectedAt.IsZero():
		return rec.ConnectedAt
	}
	return s.now()
}

// Subscribe registers a subscriber that is removed when ctx is done.
// Subscribing to a closed stream returns an already closed subscription.
func (s *Stream) Subscribe(ctx context.Context) *Subscription {
	sub := newSubscription(s.bufferSize)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		sub.close()
		return sub
	}
	s.subscribers[sub] = struct{}{}

	if ctx.Done() != nil {
		s.cleanupWg.Add(1)
		go func() {
			defer s.cleanupWg.Done()
			select {
			case <-ctx.Done():
			case <-sub.done:
			}
			s.unsubscribe(sub)
		}()
	}
	return sub
}

// Broadcast delivers ev to every subscriber without blocking.
func (s *Stream) Broadcast(ev connection.Event) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return
	}
	for sub := range s.subscribers {
		if !sub.send(ev) {
			go s.unsubscribe(sub)
		}
	}
}

// Len returns the number of live subscribers.
func (s *Stream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subscribers)
}

// Close closes every subscription. It is safe to call more than once.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for sub := range s.subscribers {
		sub.close()
	}
	clear(s.subscribers)
	s.mu.Unlock()

	s.cleanupWg.Wait()
	return nil
}

func (s *Stream) unsubscribe(sub *Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.subscribers, sub)
	sub.close()
}

// Subscription receives events from a Stream.
type Subscription struct {
	ch     chan connection.Event
	done   chan struct{}
	closed bool
	mu     sync.Mutex
}

func newSubscription(size int) *Subscription {
	return &Subscription{
		ch:   make(chan connection.Event, size),
		done: make(chan struct{}),
	}
}

// Events is closed when the subscription ends.
func (s *Subscription) Events() <-chan connection.Event { return s.ch }

// Done is closed when the subscription ends.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Close ends the subscription.
func (s *Subscription) Close() { s.close() }

func (s *Subscription) send(ev connection.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	select {
	case s.ch <- ev:
		return true
	default:
		return false
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true
	close(s.done)
	close(s.ch)
}
