package connection

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"
)

// Store is the in-memory registry of connection records.
// Mutations are serialized by one exclusive lock; queries share it.
// Every returned record is a copy.
type Store struct {
	records  map[string]*Record
	byIP     map[string]map[string]struct{}
	now      func() time.Time
	notifier Notifier
	mu       sync.RWMutex
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithNotifier sets the receiver of connect and disconnect events.
func WithNotifier(n Notifier) Option {
	return func(s *Store) {
		if n != nil {
			s.notifier = n
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		records:  make(map[string]*Record),
		byIP:     make(map[string]map[string]struct{}),
		now:      time.Now,
		notifier: noopNotifier{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TrackConnect creates or resets the record for id.
// An existing record keeps its username; its connection fields are replaced.
func (s *Store) TrackConnect(id, ip, userAgent string, opts ...TrackOption) (Record, error) {
	id, ip = strings.TrimSpace(id), strings.TrimSpace(ip)
	if id == "" {
		return Record{}, fmt.Errorf("%w: id is required", ErrValidation)
	}
	if ip == "" {
		return Record{}, fmt.Errorf("%w: ip is required", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rec, ok := s.records[id]
	if !ok {
		rec = &Record{ID: id, Username: DefaultUsername}
		s.records[id] = rec
	} else {
		s.unindex(rec)
	}

	rec.IP = ip
	rec.UserAgent = userAgent
	rec.ConnectedAt = now
	rec.DisconnectedAt = nil
	rec.Connected = true
	rec.Client = nil
	rec.Country = ""
	for _, opt := range opts {
		opt(rec)
	}
	s.index(rec)

	out := rec.clone()
	s.notifier.Publish(Event{Kind: EventConnect, Record: out.clone(), At: now})
	return out, nil
}

// TrackDisconnect marks the record as disconnected.
// Disconnecting an already disconnected record re-stamps DisconnectedAt.
func (s *Store) TrackDisconnect(id string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	now := s.now()
	rec.DisconnectedAt = &now
	rec.Connected = false

	out := rec.clone()
	s.notifier.Publish(Event{Kind: EventDisconnect, Record: out.clone(), At: now})
	return out, nil
}

// UpdateUsername sets the username of a record. An empty name resets it to DefaultUsername.
func (s *Store) UpdateUsername(id, username string) (Record, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		username = DefaultUsername
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	rec.Username = username
	return rec.clone(), nil
}

// Get returns the record for id.
func (s *Store) Get(id string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return rec.clone(), nil
}

// ByIP returns every record last seen from ip.
func (s *Store) ByIP(ip string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.byIP[strings.TrimSpace(ip)]
	out := make([]Record, 0, len(ids))
	for id := range ids {
		out = append(out, s.records[id].clone())
	}
	sortRecords(out)
	return out
}

// Active returns the connected records.
func (s *Store) Active() []Record {
	return s.collect(func(r *Record) bool { return r.Connected })
}

// All returns every record, connected or not.
func (s *Store) All() []Record {
	return s.collect(func(*Record) bool { return true })
}

// Count returns the number of records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// ActiveCount returns the number of connected records.
func (s *Store) ActiveCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, r := range s.records {
		if r.Connected {
			n++
		}
	}
	return n
}

// EvictOlderThan removes disconnected records whose disconnect happened at least retention ago.
// Connected records are never evicted. It returns the number of removed records.
func (s *Store) EvictOlderThan(retention time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, rec := range s.records {
		if rec.Connected || rec.DisconnectedAt == nil {
			continue
		}
		if now.Sub(*rec.DisconnectedAt) < retention {
			continue
		}
		s.unindex(rec)
		delete(s.records, id)
		removed++
	}
	return removed
}

// Sweep is EvictOlderThan for periodic callers.
// It fails without touching the store if ctx is done or retention is negative.
func (s *Store) Sweep(ctx context.Context, retention time.Duration) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if retention < 0 {
		return 0, fmt.Errorf("%w: negative retention %s", ErrValidation, retention)
	}
	return s.EvictOlderThan(retention), nil
}

func (s *Store) collect(keep func(*Record) bool) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, len(s.records))
	for _, r := range s.records {
		if keep(r) {
			out = append(out, r.clone())
		}
	}
	sortRecords(out)
	return out
}

func (s *Store) index(r *Record) {
	ids, ok := s.byIP[r.IP]
	if !ok {
		ids = make(map[string]struct{})
		s.byIP[r.IP] = ids
	}
	ids[r.ID] = struct{}{}
}

func (s *Store) unindex(r *Record) {
	ids := s.byIP[r.IP]
	delete(ids, r.ID)
	if len(ids) == 0 {
		delete(s.byIP, r.IP)
	}
}

// sortRecords orders by connection time, then id, so listings are stable.
func sortRecords(records []Record) {
	slices.SortFunc(records, func(a, b Record) int {
		if c := a.ConnectedAt.Compare(b.ConnectedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
