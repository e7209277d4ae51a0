// SPDX-License-Identifier: MIT

// Package store provides the in-memory, thread-safe request status store.
// Entries live for the process lifetime; there is no eviction and no
// cross-process replication.
package store

import (
	"sync"

	"github.com/lepetpal/lepetpal/internal/types"
)

// Store maps request ids to their mutable Status records.
type Store struct {
	mu      sync.Mutex
	entries map[string]*types.Status
}

// New returns an empty store.
func New() *Store {
	return &Store{entries: make(map[string]*types.Status)}
}

// Create inserts a new status record for id, replacing any prior entry.
func (s *Store) Create(id string, initial types.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := initial.Clone()
	s.entries[id] = &st
}

// Update merges patch into the record for id. The write is silently ignored
// when the id is absent or the record is already terminal; the return value
// reports whether the merge was applied.
func (s *Store) Update(id string, patch types.Patch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.entries[id]
	if !ok {
		return false
	}
	return st.Apply(patch)
}

// Get returns a deep-copied snapshot of the record for id.
func (s *Store) Get(id string) (types.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.entries[id]
	if !ok {
		return types.Status{}, false
	}
	return st.Clone(), true
}

// Len reports the number of tracked requests.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
