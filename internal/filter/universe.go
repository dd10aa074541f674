package filter

import "sync"

// Universe is the mapping venue -> set of symbols currently eligible for
// watching. Each venue's set is replaced atomically on refresh; readers never
// observe a half-updated set for a single venue.
type Universe struct {
	mu      sync.RWMutex
	byVenue map[string][]string
}

// NewUniverse creates an empty Universe.
func NewUniverse() *Universe {
	return &Universe{byVenue: make(map[string][]string)}
}

// Replace swaps in a new symbol set for one venue. The caller must not mutate
// symbols afterwards.
func (u *Universe) Replace(venue string, symbols []string) {
	u.mu.Lock()
	u.byVenue[venue] = symbols
	u.mu.Unlock()
}

// Symbols returns the current symbol set for a venue. The returned slice is
// the immutable set installed by the last Replace and must not be mutated.
func (u *Universe) Symbols(venue string) []string {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.byVenue[venue]
}

// Contains reports whether a symbol is currently eligible on a venue.
func (u *Universe) Contains(venue, symbol string) bool {
	for _, s := range u.Symbols(venue) {
		if s == symbol {
			return true
		}
	}
	return false
}
