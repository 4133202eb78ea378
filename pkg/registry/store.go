package registry

import "sync/atomic"

// Store publishes snapshots. Current is lock-free; Replace is a single
// pointer swap, so concurrent readers see either the old snapshot or
// the new one, never a mixture.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates a store holding the given initial snapshot.
func NewStore(initial *Snapshot) *Store {
	s := &Store{}
	s.current.Store(initial)
	return s
}

// Current returns the currently published snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Replace atomically publishes a new snapshot. In-flight readers keep
// the snapshot they already captured.
func (s *Store) Replace(snap *Snapshot) {
	s.current.Store(snap)
}
