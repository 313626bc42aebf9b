package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"trivia-live/internal/domain"
)

// SnapshotStore keeps one JSON snapshot per room in Redis, last write wins.
// With a zero TTL snapshots are kept indefinitely, matching the rule that a
// room persists once created.
type SnapshotStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSnapshotStore(client *redis.Client, ttl time.Duration) *SnapshotStore {
	return &SnapshotStore{client: client, ttl: ttl}
}

func (s *SnapshotStore) Load(ctx context.Context, roomID string) (*domain.GameState, bool, error) {
	raw, err := s.client.Get(ctx, s.key(roomID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot: %w", err)
	}
	state := domain.GameState{}
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if state.Participants == nil {
		state.Participants = make(map[string]*domain.Participant)
	}
	return &state, true, nil
}

func (s *SnapshotStore) Save(ctx context.Context, roomID string, state *domain.GameState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.key(roomID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *SnapshotStore) key(roomID string) string {
	return "room:" + roomID + ":state"
}
