package app

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"trivia-live/internal/domain"
	"trivia-live/internal/scoring"
)

// LeaderboardEntry is one ranked scoreboard row. Equal scores keep join
// order, so ranking is stable across broadcasts.
type LeaderboardEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
	Rank  int    `json:"rank"`
}

// QuestionView is the question as shown to answering clients: content only,
// never any ground-truth field.
type QuestionView struct {
	Type     domain.QuestionType `json:"type"`
	Question string              `json:"question"`
	Options  []string            `json:"options,omitempty"`
	Min      *float64            `json:"min,omitempty"`
	Max      *float64            `json:"max,omitempty"`
}

// ResultsSummary carries the ground truth plus an aggregate of submissions:
// a histogram over option indices for choice variants, the raw submitted
// values for slider, or a per-position distribution matrix for ranking.
type ResultsSummary struct {
	Distribution  map[string]int       `json:"distribution"`
	CorrectAnswer any                  `json:"correctAnswer"`
	Answers       []domain.AnswerValue `json:"answers,omitempty"`
	Positions     [][]int              `json:"positions,omitempty"`
}

// Podium exposes the top three entries with a revealed counter running from
// 0 (all hidden) up to 3.
type Podium struct {
	Third    *LeaderboardEntry `json:"third"`
	Second   *LeaderboardEntry `json:"second"`
	First    *LeaderboardEntry `json:"first"`
	Revealed int               `json:"revealed"`
}

// ParticipantSummary is the lobby roster row the presenter sees.
type ParticipantSummary struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// PresenterState is the full-state payload for presenter connections.
type PresenterState struct {
	Phase                domain.Phase         `json:"phase"`
	CurrentQuestionIndex int                  `json:"currentQuestionIndex"`
	TotalQuestions       int                  `json:"totalQuestions"`
	EndTime              *int64               `json:"endTime"`
	AnswerCount          int                  `json:"answerCount"`
	TotalParticipants    int                  `json:"totalParticipants"`
	Participants         []ParticipantSummary `json:"participants"`
	Question             *QuestionView        `json:"question,omitempty"`
	Results              *ResultsSummary      `json:"results,omitempty"`
	Leaderboard          []LeaderboardEntry   `json:"leaderboard,omitempty"`
	Podium               *Podium              `json:"podium,omitempty"`
}

// MyResult is a participant's personal outcome for the resolved question.
type MyResult struct {
	Outcome       string `json:"outcome"` // correct, partial, or wrong
	PointsEarned  int    `json:"pointsEarned"`
	NewTotal      int    `json:"newTotal"`
	CorrectAnswer string `json:"correctAnswer,omitempty"`
}

// ParticipantState is the full-state payload for participant connections.
type ParticipantState struct {
	Phase                domain.Phase       `json:"phase"`
	CurrentQuestionIndex int                `json:"currentQuestionIndex"`
	EndTime              *int64             `json:"endTime"`
	Question             *QuestionView      `json:"question,omitempty"`
	MyResult             *MyResult          `json:"myResult,omitempty"`
	MyRank               int                `json:"myRank,omitempty"`
	Leaderboard          []LeaderboardEntry `json:"leaderboard,omitempty"`
}

func (r *Room) presenterStateLocked() PresenterState {
	s := r.state
	out := PresenterState{
		Phase:                s.Phase,
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		TotalQuestions:       len(r.questions),
		EndTime:              s.EndTime,
		AnswerCount:          s.AnswerCount,
		TotalParticipants:    len(s.Participants),
		Participants:         make([]ParticipantSummary, 0, len(s.Participants)),
	}
	for _, p := range s.OrderedParticipants() {
		out.Participants = append(out.Participants, ParticipantSummary{Name: p.Name, Score: p.Score})
	}

	question := r.currentQuestion()

	if s.Phase == domain.PhaseQuestion || s.Phase == domain.PhaseResults {
		out.Question = questionView(question)
	}

	if s.Phase == domain.PhaseResults || s.Phase == domain.PhaseFinished {
		out.Results = r.resultsSummaryLocked(question)
	}

	if s.Phase == domain.PhaseLeaderboard || s.Phase == domain.PhaseFinished {
		out.Leaderboard = r.leaderboardLocked()
	}

	if s.Phase == domain.PhasePodium || s.Phase == domain.PhaseFinished {
		lb := r.leaderboardLocked()
		out.Leaderboard = lb
		out.Podium = &Podium{
			Third:    entryAt(lb, 2),
			Second:   entryAt(lb, 1),
			First:    entryAt(lb, 0),
			Revealed: 3 - s.RevealedPodiumPlace,
		}
	}

	return out
}

func (r *Room) participantStateLocked(connID string) ParticipantState {
	s := r.state
	out := ParticipantState{
		Phase:                s.Phase,
		CurrentQuestionIndex: s.CurrentQuestionIndex,
		EndTime:              s.EndTime,
	}

	question := r.currentQuestion()
	participant := s.Participants[connID]

	if s.Phase == domain.PhaseQuestion {
		out.Question = questionView(question)
	}

	if s.Phase == domain.PhaseResults && participant != nil {
		out.MyResult = buildMyResult(question, participant, s.CurrentQuestionIndex)
	}

	if s.Phase == domain.PhaseLeaderboard || s.Phase == domain.PhasePodium || s.Phase == domain.PhaseFinished {
		lb := r.leaderboardLocked()
		if len(lb) > 5 {
			out.Leaderboard = lb[:5]
		} else {
			out.Leaderboard = lb
		}
		if participant != nil {
			// rank lookup is by display name; two participants sharing a
			// name resolve to the first match
			for _, entry := range lb {
				if entry.Name == participant.Name {
					out.MyRank = entry.Rank
					break
				}
			}
		}
	}

	return out
}

func (r *Room) currentQuestion() domain.Question {
	idx := r.state.CurrentQuestionIndex
	if idx < 0 || idx >= len(r.questions) {
		return domain.Question{}
	}
	return r.questions[idx]
}

// leaderboardLocked sorts every participant by score descending; equal
// scores keep insertion order.
func (r *Room) leaderboardLocked() []LeaderboardEntry {
	ordered := r.state.OrderedParticipants()
	sortByScore(ordered)
	entries := make([]LeaderboardEntry, len(ordered))
	for i, p := range ordered {
		entries[i] = LeaderboardEntry{Name: p.Name, Score: p.Score, Rank: i + 1}
	}
	return entries
}

func (r *Room) resultsSummaryLocked(question domain.Question) *ResultsSummary {
	idx := r.state.CurrentQuestionIndex
	var answers []*domain.Answer
	for _, p := range r.state.OrderedParticipants() {
		if a := p.AnswerFor(idx); a != nil {
			answers = append(answers, a)
		}
	}

	summary := &ResultsSummary{Distribution: map[string]int{}}

	switch question.Type {
	case domain.QuestionSingle:
		for i := range question.Options {
			summary.Distribution[strconv.Itoa(i)] = 0
		}
		for _, a := range answers {
			summary.Distribution[strconv.Itoa(a.Value.Int())]++
		}
		summary.CorrectAnswer = question.CorrectIndex

	case domain.QuestionMulti:
		for i := range question.Options {
			summary.Distribution[strconv.Itoa(i)] = 0
		}
		for _, a := range answers {
			for _, idx := range a.Value.List {
				summary.Distribution[strconv.Itoa(idx)]++
			}
		}
		summary.CorrectAnswer = question.CorrectSet

	case domain.QuestionSlider:
		summary.CorrectAnswer = question.CorrectValue
		summary.Answers = make([]domain.AnswerValue, 0, len(answers))
		for _, a := range answers {
			summary.Answers = append(summary.Answers, a.Value)
		}

	case domain.QuestionRanking:
		summary.CorrectAnswer = question.CorrectOrder
		n := len(question.Options)
		summary.Positions = make([][]int, n)
		for i := range summary.Positions {
			summary.Positions[i] = make([]int, n)
		}
		for _, a := range answers {
			for pos, option := range a.Value.List {
				if pos < n && option >= 0 && option < n {
					summary.Positions[pos][option]++
				}
			}
		}
	}

	return summary
}

func buildMyResult(question domain.Question, participant *domain.Participant, questionIndex int) *MyResult {
	answer := participant.AnswerFor(questionIndex)

	score := 0
	if answer != nil {
		score = answer.Score
	}

	outcome := "wrong"
	if score > 0 {
		if answer != nil && exactMatch(question, answer) {
			outcome = "correct"
		} else {
			outcome = "partial"
		}
	}

	return &MyResult{
		Outcome:       outcome,
		PointsEarned:  score,
		NewTotal:      participant.Score,
		CorrectAnswer: renderCorrectAnswer(question),
	}
}

// exactMatch reports whether the answer matches the ground truth exactly,
// per variant. Slider counts as exact only on a perfect 1000.
func exactMatch(question domain.Question, answer *domain.Answer) bool {
	switch question.Type {
	case domain.QuestionSingle:
		return !answer.Value.IsList() && answer.Value.Int() == question.CorrectIndex
	case domain.QuestionMulti:
		if len(answer.Value.List) != len(question.CorrectSet) {
			return false
		}
		chosen := make(map[int]struct{}, len(answer.Value.List))
		for _, idx := range answer.Value.List {
			chosen[idx] = struct{}{}
		}
		for _, idx := range question.CorrectSet {
			if _, ok := chosen[idx]; !ok {
				return false
			}
		}
		return true
	case domain.QuestionSlider:
		return answer.Score == 1000
	case domain.QuestionRanking:
		if len(answer.Value.List) != len(question.CorrectOrder) {
			return false
		}
		for i, v := range question.CorrectOrder {
			if answer.Value.List[i] != v {
				return false
			}
		}
		return true
	}
	return false
}

// renderCorrectAnswer builds the human-readable ground truth shown to
// participants at results.
func renderCorrectAnswer(question domain.Question) string {
	switch question.Type {
	case domain.QuestionSingle:
		if question.CorrectIndex >= 0 && question.CorrectIndex < len(question.Options) {
			return question.Options[question.CorrectIndex]
		}
	case domain.QuestionMulti:
		return joinOptions(question.Options, question.CorrectSet, ", ")
	case domain.QuestionSlider:
		return scoring.FormatNumber(question.CorrectValue)
	case domain.QuestionRanking:
		return joinOptions(question.Options, question.CorrectOrder, " → ")
	}
	return ""
}

func joinOptions(options []string, indices []int, sep string) string {
	parts := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(options) {
			parts = append(parts, options[idx])
		}
	}
	return strings.Join(parts, sep)
}

func questionView(q domain.Question) *QuestionView {
	view := &QuestionView{
		Type:     q.Type,
		Question: q.Text,
		Options:  q.Options,
	}
	if q.Type == domain.QuestionSlider {
		min, max := q.Min, q.Max
		view.Min = &min
		view.Max = &max
	}
	return view
}

func entryAt(lb []LeaderboardEntry, i int) *LeaderboardEntry {
	if i >= len(lb) {
		return nil
	}
	entry := lb[i]
	return &entry
}

func sortByScore(participants []*domain.Participant) {
	sort.SliceStable(participants, func(i, j int) bool {
		return participants[i].Score > participants[j].Score
	})
}

func marshalState(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("marshal state payload")
		return []byte("{}")
	}
	return data
}
