// Package dedupe tracks the listing IDs already delivered during one
// snapshot load. Offset pagination over a table that is being written to can
// return a row twice; the set lets the loader drop the repeat.
package dedupe

import "sync"

// Set records seen IDs. It lives for one load, so it is never trimmed.
type Set struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// New creates an empty Set.
func New() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// SeenAndRecord reports whether id was already recorded and records it if not.
func (s *Set) SeenAndRecord(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[id]; ok {
		return true
	}
	s.seen[id] = struct{}{}
	return false
}

// Size is the number of distinct IDs recorded.
func (s *Set) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
