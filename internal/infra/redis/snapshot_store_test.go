package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"trivia-live/internal/domain"
)

func newTestStore(t *testing.T, ttl time.Duration) (*SnapshotStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSnapshotStore(client, ttl), mr
}

func TestSnapshotStoreRoundTrip(t *testing.T) {
	store, mr := newTestStore(t, 0)
	ctx := context.Background()

	if _, ok, err := store.Load(ctx, "room-1"); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}

	state := domain.NewGameState()
	state.Phase = domain.PhaseLeaderboard
	state.CurrentQuestionIndex = 2
	state.Participants["c1"] = &domain.Participant{ID: "c1", Name: "Alice", Score: 1750}
	if err := store.Save(ctx, "room-1", state); err != nil {
		t.Fatalf("save: %v", err)
	}

	if !mr.Exists("room:room-1:state") {
		t.Fatalf("expected key room:room-1:state in redis")
	}

	loaded, ok, err := store.Load(ctx, "room-1")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if loaded.Phase != domain.PhaseLeaderboard || loaded.CurrentQuestionIndex != 2 {
		t.Fatalf("state corrupted: %+v", loaded)
	}
	if loaded.Participants["c1"].Score != 1750 {
		t.Fatalf("participant lost: %+v", loaded.Participants)
	}
}

func TestSnapshotStoreAppliesTTL(t *testing.T) {
	store, mr := newTestStore(t, time.Minute)
	if err := store.Save(context.Background(), "room-1", domain.NewGameState()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL("room:room-1:state"); ttl != time.Minute {
		t.Fatalf("expected 1m TTL on snapshot key, got %v", ttl)
	}
}

func TestSnapshotStoreZeroTTLPersists(t *testing.T) {
	store, mr := newTestStore(t, 0)
	if err := store.Save(context.Background(), "room-1", domain.NewGameState()); err != nil {
		t.Fatalf("save: %v", err)
	}
	if ttl := mr.TTL("room:room-1:state"); ttl != 0 {
		t.Fatalf("expected no expiry, got %v", ttl)
	}
}

func TestSnapshotStoreRejectsGarbage(t *testing.T) {
	store, mr := newTestStore(t, 0)
	mr.Set("room:room-1:state", "not-json")
	if _, _, err := store.Load(context.Background(), "room-1"); err == nil {
		t.Fatalf("expected unmarshal error for corrupt snapshot")
	}
}
