package app

import (
	"context"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"trivia-live/internal/domain"
)

// RoomRegistry lazily creates and owns one Room per room id. A room is
// populated on first access from the latest snapshot, or starts fresh in the
// lobby if none exists, and is never explicitly destroyed.
type RoomRegistry struct {
	store SnapshotStore
	bank  QuestionBank
	setID string
	clock clockwork.Clock

	mu    sync.Mutex
	rooms map[string]*Room
}

func NewRoomRegistry(store SnapshotStore, bank QuestionBank, setID string, clock clockwork.Clock) *RoomRegistry {
	return &RoomRegistry{
		store: store,
		bank:  bank,
		setID: setID,
		clock: clock,
		rooms: make(map[string]*Room),
	}
}

// GetOrCreate returns the coordinator for roomID, creating it on first
// access. Creation fails if the question set cannot be resolved, so a room
// never exists without validated content.
func (g *RoomRegistry) GetOrCreate(ctx context.Context, roomID string) (*Room, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if room, ok := g.rooms[roomID]; ok {
		return room, nil
	}

	questions, err := g.bank.QuestionSet(ctx, g.setID)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateSet(questions); err != nil {
		return nil, err
	}

	state := domain.NewGameState()
	if stored, ok, err := g.store.Load(ctx, roomID); err != nil {
		return nil, err
	} else if ok {
		state = stored
		log.Info().Str("room_id", roomID).Str("phase", string(state.Phase)).Msg("room restored from snapshot")
	}

	room := newRoom(roomID, questions, state, g.store, g.clock)
	g.rooms[roomID] = room
	log.Info().Str("room_id", roomID).Int("questions", len(questions)).Msg("room created")
	return room, nil
}

// Get returns an existing room without creating one.
func (g *RoomRegistry) Get(roomID string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.rooms[roomID]
	return room, ok
}
