// Package memory holds the bounded, insertion-ordered stores for query
// history and error context. Both are process-wide shared state: a single
// mutex per store makes append and read safe under concurrent sessions,
// and capacity enforcement evicts strictly oldest-first. An optional
// SQLite journal carries entries across sessions.
package memory

import (
	"fmt"
	"sync"

	"github.com/primerdb/primer/internal/model"
)

// HistoryStore is a bounded FIFO log of completed SQL attempts.
type HistoryStore struct {
	mu       sync.Mutex
	capacity int
	entries  []model.HistoryEntry
	journal  *Journal
}

// NewHistoryStore creates an unjournaled store with the given capacity.
// Capacity must be positive.
func NewHistoryStore(capacity int) *HistoryStore {
	if capacity < 1 {
		capacity = 1
	}
	return &HistoryStore{capacity: capacity}
}

// NewJournaledHistoryStore creates a store seeded with the newest
// `capacity` journaled entries; appends write through to the journal.
func NewJournaledHistoryStore(capacity int, journal *Journal) (*HistoryStore, error) {
	s := NewHistoryStore(capacity)
	s.journal = journal

	seed, err := journal.recentHistory(s.capacity)
	if err != nil {
		return nil, fmt.Errorf("seed history store: %w", err)
	}
	s.entries = seed
	return s, nil
}

// Append records an entry, evicting the oldest when the store is full.
// Capacity enforcement is atomic: concurrent appends never leave the
// store over capacity.
func (s *HistoryStore) Append(e model.HistoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, e)
	if len(s.entries) > s.capacity {
		s.entries = s.entries[len(s.entries)-s.capacity:]
	}
	if s.journal != nil {
		// Journal failures must not break the request path; the in-memory
		// window stays authoritative for this session.
		_ = s.journal.appendHistory(e)
	}
}

// Recent returns up to n of the most recently appended entries in
// chronological order (newest last).
func (s *HistoryStore) Recent(n int) []model.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n > len(s.entries) {
		n = len(s.entries)
	}
	if n <= 0 {
		return []model.HistoryEntry{}
	}
	out := make([]model.HistoryEntry, n)
	copy(out, s.entries[len(s.entries)-n:])
	return out
}

// Len returns the number of stored entries.
func (s *HistoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Capacity returns the configured maximum entry count.
func (s *HistoryStore) Capacity() int { return s.capacity }

// Clear removes all entries, including journaled ones.
func (s *HistoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	if s.journal != nil {
		_ = s.journal.clearHistory()
	}
}
