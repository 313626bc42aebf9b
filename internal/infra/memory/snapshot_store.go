package memory

import (
	"context"
	"sync"

	"trivia-live/internal/domain"
)

// SnapshotStore is an in-memory implementation of app.SnapshotStore, used
// when no Redis is configured and in tests. Snapshots are cloned on both
// sides so callers never alias stored state.
type SnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]*domain.GameState
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		snapshots: make(map[string]*domain.GameState),
	}
}

func (s *SnapshotStore) Load(_ context.Context, roomID string) (*domain.GameState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.snapshots[roomID]
	if !ok {
		return nil, false, nil
	}
	return state.Clone(), true, nil
}

func (s *SnapshotStore) Save(_ context.Context, roomID string, state *domain.GameState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[roomID] = state.Clone()
	return nil
}
