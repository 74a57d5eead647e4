package signature

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"sync/atomic"
)

// Candidate is an entry whose patterns matched a user agent.
type Candidate struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Catalog holds the device, browser and OS signatures.
// Reads go through immutable snapshots and never wait on writers;
// writers are serialized and publish a new snapshot on every effective change.
type Catalog struct {
	mu      sync.Mutex
	current atomic.Pointer[Snapshot]
}

// New validates the entries and builds a catalog.
// Registration order is preserved per category and breaks confidence ties.
// Each entry's Floor is set to its BaseConfidence.
func New(entries ...Entry) (*Catalog, error) {
	snap := &Snapshot{
		version: 1,
		entries: make(map[Category][]Entry, len(Categories)),
		index:   make(map[Category]map[string]int, len(Categories)),
	}
	for _, cat := range Categories {
		snap.index[cat] = make(map[string]int)
	}

	var errs []error
	for _, e := range entries {
		if err := e.validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := snap.index[e.Category][e.Name]; dup {
			errs = append(errs, fmt.Errorf("%w %s/%s: duplicate name", ErrInvalidEntry, e.Category, e.Name))
			continue
		}
		e = e.clone()
		e.Floor = e.BaseConfidence
		snap.index[e.Category][e.Name] = len(snap.entries[e.Category])
		snap.entries[e.Category] = append(snap.entries[e.Category], e)
	}
	errs = append(errs, snap.validateAssociations()...)
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	c := &Catalog{}
	c.current.Store(snap)
	return c, nil
}

// Snapshot returns the current immutable view of the catalog.
func (c *Catalog) Snapshot() (*Snapshot, error) {
	if c == nil {
		return nil, ErrUnavailable
	}
	snap := c.current.Load()
	if snap == nil {
		return nil, ErrUnavailable
	}
	return snap, nil
}

// Version returns the current snapshot version, or 0 when uninitialized.
func (c *Catalog) Version() uint64 {
	snap, err := c.Snapshot()
	if err != nil {
		return 0
	}
	return snap.version
}

// MatchCandidates returns the candidates of a category for an already normalized user agent.
func (c *Catalog) MatchCandidates(cat Category, normalizedUA string) ([]Candidate, error) {
	snap, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	return snap.MatchCandidates(cat, normalizedUA), nil
}

// Entries exports every entry of a category in registration order.
func (c *Catalog) Entries(cat Category) ([]Entry, error) {
	snap, err := c.Snapshot()
	if err != nil {
		return nil, err
	}
	if !cat.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}
	return snap.Entries(cat), nil
}

// Reinforce shifts an entry's base confidence by delta, clamped to [Floor, MaxConfidence].
func (c *Catalog) Reinforce(cat Category, name string, delta float64) (Entry, error) {
	return c.mutate(cat, name, func(e *Entry) bool {
		next := min(max(e.BaseConfidence+delta, e.Floor), MaxConfidence)
		if next == e.BaseConfidence {
			return false
		}
		e.BaseConfidence = next
		return true
	})
}

// AddPattern appends a pattern to an entry unless an identical one is already present.
// The returned bool reports whether the catalog changed.
func (c *Catalog) AddPattern(cat Category, name, raw string) (Entry, bool, error) {
	m, err := ParsePattern(raw)
	if err != nil {
		return Entry{}, false, err
	}
	var added bool
	e, err := c.mutate(cat, name, func(e *Entry) bool {
		if containsPattern(e.Patterns, m) {
			return false
		}
		e.Patterns = append(slices.Clone(e.Patterns), m)
		added = true
		return true
	})
	return e, added, err
}

// mutate applies fn to a copy of the named entry and publishes a new snapshot if fn reports a change.
func (c *Catalog) mutate(cat Category, name string, fn func(*Entry) bool) (Entry, error) {
	if c == nil {
		return Entry{}, ErrUnavailable
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := c.current.Load()
	if snap == nil {
		return Entry{}, ErrUnavailable
	}
	if !cat.Valid() {
		return Entry{}, fmt.Errorf("%w: %q", ErrUnknownCategory, cat)
	}
	idx, ok := snap.index[cat][name]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s/%s", ErrEntryNotFound, cat, name)
	}

	entry := snap.entries[cat][idx].clone()
	if !fn(&entry) {
		return entry, nil
	}

	next := snap.withEntry(cat, idx, entry)
	c.current.Store(next)
	return entry, nil
}

// Snapshot is an immutable view of the catalog at one version.
type Snapshot struct {
	version uint64
	entries map[Category][]Entry
	index   map[Category]map[string]int
}

// Version identifies the snapshot; it increases with every catalog mutation.
func (s *Snapshot) Version() uint64 { return s.version }

// MatchCandidates lists entries with at least one matching pattern,
// ordered by descending confidence and then by registration order.
func (s *Snapshot) MatchCandidates(cat Category, normalizedUA string) []Candidate {
	entries := s.entries[cat]
	out := make([]Candidate, 0, 4)
	for _, e := range entries {
		if e.Matches(normalizedUA) {
			out = append(out, Candidate{Name: e.Name, Confidence: e.BaseConfidence})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Confidence > out[j].Confidence
	})
	return out
}

// Lookup returns the named entry of a category.
func (s *Snapshot) Lookup(cat Category, name string) (Entry, bool) {
	idx, ok := s.index[cat][name]
	if !ok {
		return Entry{}, false
	}
	return s.entries[cat][idx], true
}

// Entries returns a copy of a category's entries in registration order.
func (s *Snapshot) Entries(cat Category) []Entry {
	src := s.entries[cat]
	out := make([]Entry, len(src))
	for i, e := range src {
		out[i] = e.clone()
	}
	return out
}

// Impossible reports whether either entry declares the other impossible.
func (s *Snapshot) Impossible(catA Category, nameA string, catB Category, nameB string) bool {
	return s.declares(catA, nameA, catB, nameB, func(e Entry) Associations { return e.Impossible })
}

// Unusual reports whether either entry declares the other unusual.
func (s *Snapshot) Unusual(catA Category, nameA string, catB Category, nameB string) bool {
	return s.declares(catA, nameA, catB, nameB, func(e Entry) Associations { return e.Unusual })
}

// Common reports whether either entry lists the other as a common association.
func (s *Snapshot) Common(catA Category, nameA string, catB Category, nameB string) bool {
	return s.declares(catA, nameA, catB, nameB, func(e Entry) Associations { return e.Common })
}

func (s *Snapshot) declares(catA Category, nameA string, catB Category, nameB string, pick func(Entry) Associations) bool {
	if a, ok := s.Lookup(catA, nameA); ok && pick(a).Has(catB, nameB) {
		return true
	}
	if b, ok := s.Lookup(catB, nameB); ok && pick(b).Has(catA, nameA) {
		return true
	}
	return false
}

func (s *Snapshot) withEntry(cat Category, idx int, e Entry) *Snapshot {
	next := &Snapshot{
		version: s.version + 1,
		entries: make(map[Category][]Entry, len(s.entries)),
		index:   s.index, // names never change after construction
	}
	for k, v := range s.entries {
		next.entries[k] = v
	}
	updated := slices.Clone(s.entries[cat])
	updated[idx] = e
	next.entries[cat] = updated
	return next
}

func (s *Snapshot) validateAssociations() []error {
	var errs []error
	for _, cat := range Categories {
		for _, e := range s.entries[cat] {
			for _, assoc := range []Associations{e.Common, e.Unusual, e.Impossible} {
				for target, names := range assoc {
					for _, n := range names {
						if _, ok := s.index[target][n]; !ok {
							errs = append(errs, fmt.Errorf("%w %s/%s: association references unknown %s %q",
								ErrInvalidEntry, cat, e.Name, target, n))
						}
					}
				}
			}
		}
	}
	return errs
}
