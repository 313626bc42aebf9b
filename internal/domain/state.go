package domain

import (
	"encoding/json"
	"sort"
)

// Phase is the current stage of a room's lifecycle.
type Phase string

const (
	PhaseLobby       Phase = "lobby"
	PhaseQuestion    Phase = "question"
	PhaseResults     Phase = "results"
	PhaseLeaderboard Phase = "leaderboard"
	PhasePodium      Phase = "podium"
	PhaseFinished    Phase = "finished"
)

// AnswerValue holds a submitted answer: a plain number for single/slider
// questions, or an index list for multi/ranking. List is nil for the scalar
// form.
type AnswerValue struct {
	Number float64
	List   []int
}

// NumberValue builds a scalar answer value.
func NumberValue(n float64) AnswerValue { return AnswerValue{Number: n} }

// ListValue builds an index-list answer value.
func ListValue(indices []int) AnswerValue { return AnswerValue{List: indices} }

// IsList reports whether the value carries an index list.
func (v AnswerValue) IsList() bool { return v.List != nil }

// Int returns the scalar value as an option index.
func (v AnswerValue) Int() int { return int(v.Number) }

func (v AnswerValue) MarshalJSON() ([]byte, error) {
	if v.List != nil {
		return json.Marshal(v.List)
	}
	return json.Marshal(v.Number)
}

func (v *AnswerValue) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '[' {
		v.Number = 0
		return json.Unmarshal(data, &v.List)
	}
	v.List = nil
	return json.Unmarshal(data, &v.Number)
}

// Answer records one participant submission. Timestamp is the client
// wall-clock submission time in unix milliseconds. Score starts at 0 and is
// written exactly once at resolution, never recomputed.
type Answer struct {
	QuestionIndex int         `json:"questionIndex"`
	Value         AnswerValue `json:"value"`
	Timestamp     int64       `json:"timestamp"`
	Score         int         `json:"score"`
}

// Participant tracks one joined connection. Joined is the insertion sequence
// used to keep leaderboard ties stable. Answers holds at most one entry per
// question index, enforced by the admission rule.
type Participant struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Score   int      `json:"score"`
	Joined  int      `json:"joined"`
	Answers []Answer `json:"answers"`
}

// AnswerFor returns the participant's answer for the given question index,
// or nil.
func (p *Participant) AnswerFor(index int) *Answer {
	for i := range p.Answers {
		if p.Answers[i].QuestionIndex == index {
			return &p.Answers[i]
		}
	}
	return nil
}

// GameState is the authoritative per-room state. EndTime is unix milliseconds
// and set only while Phase == question. RevealedPodiumPlace counts remaining
// unrevealed podium places, starting at 3.
type GameState struct {
	Phase                Phase                   `json:"phase"`
	CurrentQuestionIndex int                     `json:"currentQuestionIndex"`
	EndTime              *int64                  `json:"endTime"`
	Participants         map[string]*Participant `json:"participants"`
	AnswerCount          int                     `json:"answerCount"`
	RevealedPodiumPlace  int                     `json:"revealedPodiumPlace"`
}

// NewGameState builds a fresh lobby state.
func NewGameState() *GameState {
	return &GameState{
		Phase:               PhaseLobby,
		Participants:        make(map[string]*Participant),
		RevealedPodiumPlace: 3,
	}
}

// OrderedParticipants returns participants in join order.
func (s *GameState) OrderedParticipants() []*Participant {
	out := make([]*Participant, 0, len(s.Participants))
	for _, p := range s.Participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Joined < out[j].Joined })
	return out
}

// Clone deep-copies the state so async persistence never races live mutation.
func (s *GameState) Clone() *GameState {
	data, err := json.Marshal(s)
	if err != nil {
		return NewGameState()
	}
	clone := GameState{}
	if err := json.Unmarshal(data, &clone); err != nil {
		return NewGameState()
	}
	if clone.Participants == nil {
		clone.Participants = make(map[string]*Participant)
	}
	return &clone
}
