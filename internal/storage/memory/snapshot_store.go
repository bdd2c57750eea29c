// Package memory provides an in-memory snapshot store for development
// and testing.
package memory

import (
	"context"
	"sync"

	"github.com/fedreg/ecfr-tracker/internal/tracker"
)

// Store holds the current snapshot behind a read-write lock.
type Store struct {
	mu      sync.RWMutex
	current *tracker.Snapshot
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Publish swaps in the new snapshot.
func (s *Store) Publish(_ context.Context, snap tracker.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = &snap
	return nil
}

// Current returns the latest snapshot, or false if none was published.
func (s *Store) Current() (tracker.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return tracker.Snapshot{}, false
	}
	return *s.current, true
}
