// Package book holds the in-memory order-book state store. It keeps exactly
// one best-bid/ask snapshot per (venue, symbol) key, written concurrently by
// many stream watchers and read by both detectors.
package book

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/jmorales/arbiscan/internal/domain"
)

type key struct {
	venue  string
	symbol string
}

// entry holds the snapshot for one key behind an atomic pointer, so reads
// and writes of unrelated keys never contend and a reader always observes a
// whole snapshot, never a torn one.
type entry struct {
	snap atomic.Pointer[domain.OrderBookSnapshot]
}

// Store is a concurrency-safe keyed store of the latest order-book snapshot
// per (venue, symbol). The mutex guards only the map structure; snapshot
// swaps go through per-key atomic pointers.
type Store struct {
	mu       sync.RWMutex
	books    map[key]*entry
	bySymbol map[string]map[string]*entry // symbol -> venue -> entry
	byVenue  map[string]map[string]*entry // venue -> symbol -> entry
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		books:    make(map[key]*entry),
		bySymbol: make(map[string]map[string]*entry),
		byVenue:  make(map[string]map[string]*entry),
	}
}

// Update replaces the stored snapshot for (snap.Venue, snap.Symbol) if the
// incoming snapshot is valid and not older than the one currently held. It
// reports whether the snapshot was applied.
func (s *Store) Update(snap domain.OrderBookSnapshot) bool {
	if !snap.Valid() {
		return false
	}
	e := s.lookup(snap.Venue, snap.Symbol)
	for {
		cur := e.snap.Load()
		if cur != nil && snap.UpdatedAt.Before(cur.UpdatedAt) {
			return false
		}
		c := snap
		if e.snap.CompareAndSwap(cur, &c) {
			return true
		}
	}
}

// Get returns an independent copy of the snapshot for the key, or ok=false
// when the key has never been written.
func (s *Store) Get(venue, symbol string) (domain.OrderBookSnapshot, bool) {
	s.mu.RLock()
	e := s.books[key{venue, symbol}]
	s.mu.RUnlock()
	if e == nil {
		return domain.OrderBookSnapshot{}, false
	}
	p := e.snap.Load()
	if p == nil {
		return domain.OrderBookSnapshot{}, false
	}
	return *p, true
}

// AllForSymbol returns the (venue, snapshot) pairs currently held for one
// symbol across all venues, ordered by venue name for deterministic pairwise
// scans.
func (s *Store) AllForSymbol(symbol string) []domain.VenueBook {
	s.mu.RLock()
	venues := s.bySymbol[symbol]
	refs := make([]struct {
		venue string
		e     *entry
	}, 0, len(venues))
	for v, e := range venues {
		refs = append(refs, struct {
			venue string
			e     *entry
		}{v, e})
	}
	s.mu.RUnlock()

	out := make([]domain.VenueBook, 0, len(refs))
	for _, r := range refs {
		if p := r.e.snap.Load(); p != nil {
			out = append(out, domain.VenueBook{Venue: r.venue, Snapshot: *p})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Venue < out[j].Venue })
	return out
}

// AllForVenue returns the snapshots currently held for every symbol of one
// venue, for triangular graph construction.
func (s *Store) AllForVenue(venue string) []domain.OrderBookSnapshot {
	s.mu.RLock()
	symbols := s.byVenue[venue]
	refs := make([]*entry, 0, len(symbols))
	for _, e := range symbols {
		refs = append(refs, e)
	}
	s.mu.RUnlock()

	out := make([]domain.OrderBookSnapshot, 0, len(refs))
	for _, e := range refs {
		if p := e.snap.Load(); p != nil {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Len returns the number of keys ever written, for observability.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

// lookup returns the entry for a key, creating it on first use.
func (s *Store) lookup(venue, symbol string) *entry {
	k := key{venue, symbol}
	s.mu.RLock()
	e := s.books[k]
	s.mu.RUnlock()
	if e != nil {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e = s.books[k]; e != nil {
		return e
	}
	e = &entry{}
	s.books[k] = e
	if s.bySymbol[symbol] == nil {
		s.bySymbol[symbol] = make(map[string]*entry)
	}
	s.bySymbol[symbol][venue] = e
	if s.byVenue[venue] == nil {
		s.byVenue[venue] = make(map[string]*entry)
	}
	s.byVenue[venue][symbol] = e
	return e
}
