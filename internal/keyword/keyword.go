// Package keyword holds the per-source tracked keyword sets.
//
// Membership is case-insensitive (adding "Pi" then "pi" yields one entry)
// but display preserves the casing the user first typed. All methods are
// safe for concurrent use.
package keyword

import (
	"strings"
	"sync"

	"github.com/abelbrown/keywatch/internal/fetch"
)

// Store is the mutable keyword set, scoped per source.
type Store struct {
	mu sync.Mutex
	// per-source insertion-ordered keywords, display casing
	bySource map[fetch.Source][]string
}

// New creates an empty Store.
func New() *Store {
	return &Store{bySource: make(map[fetch.Source][]string)}
}

// Add tracks a keyword for one source. Idempotent: adding a keyword that
// is already present (in any casing) is a no-op. Keywords that are empty
// after trimming are silently ignored. Reports whether the set changed.
func (s *Store) Add(src fetch.Source, kw string) bool {
	kw = strings.TrimSpace(kw)
	if kw == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.bySource[src] {
		if strings.EqualFold(existing, kw) {
			return false
		}
	}
	s.bySource[src] = append(s.bySource[src], kw)
	return true
}

// Remove stops tracking a keyword for one source. Removing a keyword that
// is not present is a no-op, never an error. Reports whether the set changed.
func (s *Store) Remove(src fetch.Source, kw string) bool {
	kw = strings.TrimSpace(kw)

	s.mu.Lock()
	defer s.mu.Unlock()

	kws := s.bySource[src]
	for i, existing := range kws {
		if strings.EqualFold(existing, kw) {
			s.bySource[src] = append(kws[:i], kws[i+1:]...)
			return true
		}
	}
	return false
}

// BySource returns the keywords tracked for one source, in insertion order.
func (s *Store) BySource(src fetch.Source) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.bySource[src]...)
}

// All returns the union of keywords across every source, duplicates
// collapsed case-insensitively, in source-then-insertion order.
func (s *Store) All() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var union []string
	seen := make(map[string]bool)
	for _, src := range fetch.AllSources() {
		for _, kw := range s.bySource[src] {
			key := strings.ToLower(kw)
			if seen[key] {
				continue
			}
			seen[key] = true
			union = append(union, kw)
		}
	}
	return union
}

// Empty reports whether no source has any keyword.
func (s *Store) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, kws := range s.bySource {
		if len(kws) > 0 {
			return false
		}
	}
	return true
}

// Snapshot copies the full per-source keyword map, for persistence and
// for pinning a fetch cycle's scope at its start.
func (s *Store) Snapshot() map[fetch.Source][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := make(map[fetch.Source][]string, len(s.bySource))
	for src, kws := range s.bySource {
		if len(kws) == 0 {
			continue
		}
		snap[src] = append([]string(nil), kws...)
	}
	return snap
}

// Replace swaps the entire keyword set, applying the same trimming and
// case-insensitive uniqueness as Add. Used when loading configuration.
func (s *Store) Replace(bySource map[fetch.Source][]string) {
	fresh := make(map[fetch.Source][]string)

	for src, kws := range bySource {
		var kept []string
		seen := make(map[string]bool)
		for _, kw := range kws {
			kw = strings.TrimSpace(kw)
			if kw == "" || seen[strings.ToLower(kw)] {
				continue
			}
			seen[strings.ToLower(kw)] = true
			kept = append(kept, kw)
		}
		if len(kept) > 0 {
			fresh[src] = kept
		}
	}

	s.mu.Lock()
	s.bySource = fresh
	s.mu.Unlock()
}
