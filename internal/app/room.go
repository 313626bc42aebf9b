// Package app contains the session coordinator: the authoritative per-room
// state machine, its timer authority, and the per-role state projections.
package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"trivia-live/internal/domain"
	"trivia-live/internal/scoring"
)

// SnapshotStore persists room snapshots, last write wins.
type SnapshotStore interface {
	Load(ctx context.Context, roomID string) (*domain.GameState, bool, error)
	Save(ctx context.Context, roomID string, state *domain.GameState) error
}

// QuestionBank resolves an ordered, validated question set.
type QuestionBank interface {
	QuestionSet(ctx context.Context, setID string) ([]domain.Question, error)
}

// Role tags a connection as the presenter driving the session or a
// participant answering questions.
type Role string

const (
	RolePresenter   Role = "presenter"
	RoleParticipant Role = "participant"
)

const maxNameLength = 20

// Room owns one session's authoritative state. All mutations run under a
// single mutex, so at most one is in flight per room; distinct rooms are
// fully independent.
type Room struct {
	id        string
	questions []domain.Question
	store     SnapshotStore
	clock     clockwork.Clock

	mu    sync.Mutex
	state *domain.GameState
	timer *questionTimer
	conns map[string]*connection
}

// questionTimer is the single cancellable deadline for the current question.
type questionTimer struct {
	timer  clockwork.Timer
	cancel chan struct{}
}

type connection struct {
	id   string
	role Role
	send chan []byte
}

func newRoom(id string, questions []domain.Question, state *domain.GameState, store SnapshotStore, clock clockwork.Clock) *Room {
	return &Room{
		id:        id,
		questions: questions,
		store:     store,
		clock:     clock,
		state:     state,
		conns:     make(map[string]*connection),
	}
}

// NewRoom builds a coordinator with a fresh lobby state. The registry is the
// normal entry point; this exists for tests needing a deterministic clock.
func NewRoom(id string, questions []domain.Question, store SnapshotStore, clock clockwork.Clock) *Room {
	return newRoom(id, questions, domain.NewGameState(), store, clock)
}

// ID returns the room identifier.
func (r *Room) ID() string { return r.id }

// TotalQuestions returns the size of the room's question set.
func (r *Room) TotalQuestions() int { return len(r.questions) }

// Attach registers a connection and returns its outbound channel, primed
// with the current state projection for the connection's role. The caller
// must call Detach when the connection goes away.
func (r *Room) Attach(connID string, role Role) <-chan []byte {
	r.mu.Lock()
	defer r.mu.Unlock()

	if role != RolePresenter {
		role = RoleParticipant
	}
	c := &connection{id: connID, role: role, send: make(chan []byte, 16)}
	r.conns[connID] = c
	c.push(r.payloadForLocked(c))
	return c.send
}

// Detach unregisters a connection and closes its channel. The participant
// record, if any, stays in the game state.
func (r *Room) Detach(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[connID]
	if !ok {
		return
	}
	delete(r.conns, connID)
	close(c.send)
}

// HandleJoin admits a new participant while the room is in the lobby.
// Re-joining from an already-present connection is a no-op. The returned
// error is diagnostic only; rejected joins get no reply on the wire.
func (r *Room) HandleJoin(connID, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Phase != domain.PhaseLobby {
		return domain.ErrInvalidTransition
	}
	if _, ok := r.state.Participants[connID]; ok {
		return nil
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.ErrInvalidName
	}
	if runes := []rune(name); len(runes) > maxNameLength {
		name = string(runes[:maxNameLength])
	}

	r.state.Participants[connID] = &domain.Participant{
		ID:     connID,
		Name:   name,
		Joined: len(r.state.Participants),
	}
	log.Debug().Str("room_id", r.id).Str("conn_id", connID).Str("name", name).Msg("participant joined")
	r.persistLocked()
	r.broadcastLocked()
	return nil
}

// HandleSubmitAnswer admits an answer for the current question. Unknown
// participants, duplicate submissions, and submissions past the deadline are
// rejected without a wire reply; the returned sentinel says which rule
// fired. When every participant has answered, the question resolves
// immediately, pre-empting the scheduled timer.
func (r *Room) HandleSubmitAnswer(connID string, value domain.AnswerValue, timestamp int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Phase != domain.PhaseQuestion {
		return domain.ErrInvalidTransition
	}
	participant, ok := r.state.Participants[connID]
	if !ok {
		return domain.ErrUnknownParticipant
	}
	if participant.AnswerFor(r.state.CurrentQuestionIndex) != nil {
		return domain.ErrDuplicateAnswer
	}
	if r.state.EndTime != nil && r.clock.Now().UnixMilli() > *r.state.EndTime {
		return domain.ErrLateAnswer
	}

	participant.Answers = append(participant.Answers, domain.Answer{
		QuestionIndex: r.state.CurrentQuestionIndex,
		Value:         value,
		Timestamp:     timestamp,
	})
	r.state.AnswerCount++
	r.persistLocked()
	r.broadcastLocked()

	total := len(r.state.Participants)
	if total > 0 && r.state.AnswerCount >= total {
		r.endQuestionLocked()
	}
	return nil
}

// HandlePresenterAction applies one of the presenter-driven transitions.
// Actions outside their guarding phase change nothing and report
// ErrInvalidTransition; the caller decides whether that is worth logging.
func (r *Room) HandlePresenterAction(action string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch action {
	case "start":
		if r.state.Phase != domain.PhaseLobby {
			return domain.ErrInvalidTransition
		}
		r.startQuestionLocked(0)

	case "next":
		if r.state.Phase != domain.PhaseLeaderboard {
			return domain.ErrInvalidTransition
		}
		r.startQuestionLocked(r.state.CurrentQuestionIndex + 1)

	case "show_results":
		// manual override of the timer path
		if r.state.Phase != domain.PhaseQuestion {
			return domain.ErrInvalidTransition
		}
		r.endQuestionLocked()

	case "show_leaderboard":
		if r.state.Phase != domain.PhaseResults {
			return domain.ErrInvalidTransition
		}
		r.state.Phase = domain.PhaseLeaderboard
		r.persistLocked()
		r.broadcastLocked()

	case "show_podium":
		if r.state.Phase != domain.PhaseLeaderboard {
			return domain.ErrInvalidTransition
		}
		r.state.Phase = domain.PhasePodium
		r.state.RevealedPodiumPlace = 3
		r.persistLocked()
		r.broadcastLocked()

	case "reveal_next":
		if r.state.Phase != domain.PhasePodium {
			return domain.ErrInvalidTransition
		}
		if r.state.RevealedPodiumPlace > 0 {
			r.state.RevealedPodiumPlace--
			r.persistLocked()
			r.broadcastLocked()
		}

	case "finish":
		if r.state.Phase != domain.PhasePodium {
			return domain.ErrInvalidTransition
		}
		r.state.Phase = domain.PhaseFinished
		r.persistLocked()
		r.broadcastLocked()

	default:
		return domain.ErrUnknownAction
	}
	return nil
}

func (r *Room) startQuestionLocked(index int) {
	r.cancelTimerLocked()

	if index >= len(r.questions) {
		r.state.Phase = domain.PhaseFinished
		r.persistLocked()
		r.broadcastLocked()
		return
	}

	question := r.questions[index]
	endTime := r.clock.Now().UnixMilli() + int64(question.TimerSeconds)*1000
	r.state.Phase = domain.PhaseQuestion
	r.state.CurrentQuestionIndex = index
	r.state.EndTime = &endTime
	r.state.AnswerCount = 0
	r.persistLocked()
	r.broadcastLocked()

	r.scheduleTimerLocked(question.TimerDuration())
	log.Debug().Str("room_id", r.id).Int("question", index).Int64("end_time", endTime).Msg("question started")
}

// endQuestionLocked resolves the current question: it cancels the pending
// timer, scores every recorded answer, and moves the room to results.
func (r *Room) endQuestionLocked() {
	r.cancelTimerLocked()

	question := r.questions[r.state.CurrentQuestionIndex]
	timerMs := int64(question.TimerSeconds) * 1000
	timerDuration := question.TimerDuration()

	for _, participant := range r.state.OrderedParticipants() {
		answer := participant.AnswerFor(r.state.CurrentQuestionIndex)
		if answer == nil {
			continue
		}

		// Elapsed time since the question was posed, derived from the
		// recorded submission timestamp, not server receipt time.
		responseMs := timerMs
		if r.state.EndTime != nil {
			responseMs = answer.Timestamp - (*r.state.EndTime - timerMs)
		}
		responseTime := time.Duration(responseMs) * time.Millisecond

		var score int
		switch question.Type {
		case domain.QuestionSingle:
			// a list value can never match a scalar ground truth; Int()
			// would read 0 and collide with option index 0
			if !answer.Value.IsList() {
				score = scoring.SingleChoice(answer.Value.Int(), question.CorrectIndex, responseTime, timerDuration)
			}
		case domain.QuestionMulti:
			score = scoring.MultiChoice(answer.Value.List, question.CorrectSet, responseTime, timerDuration)
		case domain.QuestionSlider:
			score = scoring.Slider(answer.Value.Number, question.CorrectValue, question.Min, question.Max)
		case domain.QuestionRanking:
			score = scoring.Ranking(answer.Value.List, question.CorrectOrder, responseTime, timerDuration)
		}

		answer.Score = score
		participant.Score += score
	}

	r.state.Phase = domain.PhaseResults
	r.state.EndTime = nil
	r.persistLocked()
	r.broadcastLocked()
	log.Debug().Str("room_id", r.id).Int("question", r.state.CurrentQuestionIndex).Msg("question resolved")
}

func (r *Room) scheduleTimerLocked(d time.Duration) {
	qt := &questionTimer{
		timer:  r.clock.NewTimer(d),
		cancel: make(chan struct{}),
	}
	r.timer = qt
	go func() {
		select {
		case <-qt.timer.Chan():
			r.onTimerFired(qt)
		case <-qt.cancel:
		}
	}()
}

func (r *Room) onTimerFired(qt *questionTimer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// a newer timer or an early resolution may have superseded this one
	if r.timer != qt {
		return
	}
	r.timer = nil
	if r.state.Phase != domain.PhaseQuestion {
		return
	}
	r.endQuestionLocked()
}

func (r *Room) cancelTimerLocked() {
	if r.timer == nil {
		return
	}
	r.timer.timer.Stop()
	close(r.timer.cancel)
	r.timer = nil
}

// persistLocked snapshots the state under the lock and writes it out without
// blocking the mutation path. A failed write is retried once, then logged.
func (r *Room) persistLocked() {
	snapshot := r.state.Clone()
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.store.Save(ctx, r.id, snapshot); err != nil {
			log.Warn().Err(err).Str("room_id", r.id).Msg("snapshot write failed, retrying")
			if err := r.store.Save(ctx, r.id, snapshot); err != nil {
				log.Error().Err(err).Str("room_id", r.id).Msg("snapshot write failed")
			}
		}
	}()
}

// broadcastLocked fans the projections out to every connection: the presenter
// payload is built once, participant payloads per connection. Every broadcast
// is a full-state replacement.
func (r *Room) broadcastLocked() {
	var presenterPayload []byte
	for _, c := range r.conns {
		if c.role == RolePresenter {
			if presenterPayload == nil {
				presenterPayload = marshalState(r.presenterStateLocked())
			}
			c.push(presenterPayload)
			continue
		}
		c.push(marshalState(r.participantStateLocked(c.id)))
	}
}

// push delivers without blocking the mutation path; when the buffer is full
// the oldest pending payload is dropped and the send retried, since every
// message is a full-state replacement anyway. Pushes run under the room
// mutex, so there is a single producer and the loop terminates as soon as a
// slot frees up.
func (c *connection) push(payload []byte) {
	for {
		select {
		case c.send <- payload:
			return
		default:
		}
		select {
		case <-c.send:
		default:
		}
	}
}

// StateSnapshot returns a copy of the authoritative state, for tests and
// diagnostics.
func (r *Room) StateSnapshot() *domain.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

// PresenterState builds the presenter projection of the current state.
func (r *Room) PresenterState() PresenterState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.presenterStateLocked()
}

// ParticipantState builds the projection for one participant connection.
func (r *Room) ParticipantState(connID string) ParticipantState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.participantStateLocked(connID)
}

func (r *Room) payloadForLocked(c *connection) []byte {
	if c.role == RolePresenter {
		return marshalState(r.presenterStateLocked())
	}
	return marshalState(r.participantStateLocked(c.id))
}
