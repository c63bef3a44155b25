package memory

import (
	"fmt"
	"sync"

	"github.com/primerdb/primer/internal/model"
)

// ErrorStore is a bounded FIFO log of failed SQL attempts with their
// database error messages and optional corrective hints.
type ErrorStore struct {
	mu       sync.Mutex
	capacity int
	entries  []model.ErrorEntry
	journal  *Journal
}

// NewErrorStore creates an unjournaled store with the given capacity.
// Capacity must be positive.
func NewErrorStore(capacity int) *ErrorStore {
	if capacity < 1 {
		capacity = 1
	}
	return &ErrorStore{capacity: capacity}
}

// NewJournaledErrorStore creates a store seeded with the newest
// `capacity` journaled entries; appends write through to the journal.
func NewJournaledErrorStore(capacity int, journal *Journal) (*ErrorStore, error) {
	s := NewErrorStore(capacity)
	s.journal = journal

	seed, err := journal.recentErrors(s.capacity)
	if err != nil {
		return nil, fmt.Errorf("seed error store: %w", err)
	}
	s.entries = seed
	return s, nil
}

// Append records an entry, evicting the oldest when the store is full.
func (s *ErrorStore) Append(e model.ErrorEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append(s.entries, e)
	if len(s.entries) > s.capacity {
		s.entries = s.entries[len(s.entries)-s.capacity:]
	}
	if s.journal != nil {
		_ = s.journal.appendError(e)
	}
}

// Recent returns up to n of the most recently appended entries in
// chronological order (newest last).
func (s *ErrorStore) Recent(n int) []model.ErrorEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n > len(s.entries) {
		n = len(s.entries)
	}
	if n <= 0 {
		return []model.ErrorEntry{}
	}
	out := make([]model.ErrorEntry, n)
	copy(out, s.entries[len(s.entries)-n:])
	return out
}

// Len returns the number of stored entries.
func (s *ErrorStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Capacity returns the configured maximum entry count.
func (s *ErrorStore) Capacity() int { return s.capacity }

// Clear removes all entries, including journaled ones.
func (s *ErrorStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	if s.journal != nil {
		_ = s.journal.clearErrors()
	}
}
