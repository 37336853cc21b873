package state

import "sync"

// Observer receives every new snapshot after it has been swapped in. It is
// invoked synchronously on the dispatching goroutine, so transitions are
// observed in dispatch order.
type Observer func(Snapshot)

// Store holds exactly one live snapshot. All writes go through Dispatch; the
// previous record is discarded after the swap, never aliased.
type Store struct {
	mu       sync.RWMutex
	snap     Snapshot
	observer Observer
}

// NewStore creates a store in the disconnected state with the given
// auto-reconnect preference.
func NewStore(autoReconnect bool, observer Observer) *Store {
	return &Store{
		snap: Snapshot{
			Status:        StatusDisconnected,
			AutoReconnect: autoReconnect,
		},
		observer: observer,
	}
}

// Current returns the live snapshot.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Dispatch applies ev, swaps in the resulting snapshot and notifies the
// observer. It returns the new snapshot.
func (s *Store) Dispatch(ev Event) Snapshot {
	s.mu.Lock()
	next := Apply(s.snap, ev)
	s.snap = next
	s.mu.Unlock()

	if s.observer != nil {
		s.observer(next)
	}
	return next
}
