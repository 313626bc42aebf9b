package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// QuestionType tags the four question variants.
type QuestionType string

const (
	QuestionSingle  QuestionType = "single"
	QuestionMulti   QuestionType = "multi"
	QuestionSlider  QuestionType = "slider"
	QuestionRanking QuestionType = "ranking"
)

// Question is the tagged union over the four variants. Which ground-truth
// field is meaningful depends on Type: CorrectIndex for single, CorrectSet
// for multi, CorrectValue (plus Min/Max) for slider, CorrectOrder for
// ranking. Immutable once loaded.
type Question struct {
	Type         QuestionType
	Text         string
	TimerSeconds int

	Options []string // single, multi, ranking

	CorrectIndex int     // single
	CorrectSet   []int   // multi
	CorrectValue float64 // slider
	Min          float64 // slider
	Max          float64 // slider
	CorrectOrder []int   // ranking
}

// wireQuestion mirrors the question bank JSON shape.
type wireQuestion struct {
	Type           QuestionType `json:"type"`
	Question       string       `json:"question"`
	TimerSeconds   int          `json:"timerSeconds"`
	Options        []string     `json:"options,omitempty"`
	CorrectAnswer  *float64     `json:"correctAnswer,omitempty"`
	CorrectAnswers []int        `json:"correctAnswers,omitempty"`
	CorrectOrder   []int        `json:"correctOrder,omitempty"`
	Min            *float64     `json:"min,omitempty"`
	Max            *float64     `json:"max,omitempty"`
}

func (q *Question) UnmarshalJSON(data []byte) error {
	var w wireQuestion
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	q.Type = w.Type
	q.Text = w.Question
	q.TimerSeconds = w.TimerSeconds
	q.Options = w.Options
	q.CorrectSet = w.CorrectAnswers
	q.CorrectOrder = w.CorrectOrder

	switch w.Type {
	case QuestionSingle:
		if w.CorrectAnswer == nil {
			return fmt.Errorf("%w: single question missing correctAnswer", ErrBankInvalid)
		}
		q.CorrectIndex = int(*w.CorrectAnswer)
	case QuestionMulti, QuestionRanking:
		// list-valued ground truth already copied
	case QuestionSlider:
		if w.CorrectAnswer == nil {
			return fmt.Errorf("%w: slider question missing correctAnswer", ErrBankInvalid)
		}
		q.CorrectValue = *w.CorrectAnswer
		if w.Min != nil {
			q.Min = *w.Min
		}
		if w.Max != nil {
			q.Max = *w.Max
		}
	default:
		return fmt.Errorf("%w: unknown question type %q", ErrBankInvalid, w.Type)
	}
	return nil
}

func (q Question) MarshalJSON() ([]byte, error) {
	w := wireQuestion{
		Type:         q.Type,
		Question:     q.Text,
		TimerSeconds: q.TimerSeconds,
		Options:      q.Options,
	}
	switch q.Type {
	case QuestionSingle:
		v := float64(q.CorrectIndex)
		w.CorrectAnswer = &v
	case QuestionMulti:
		w.CorrectAnswers = q.CorrectSet
	case QuestionSlider:
		v := q.CorrectValue
		min, max := q.Min, q.Max
		w.CorrectAnswer = &v
		w.Min = &min
		w.Max = &max
	case QuestionRanking:
		w.CorrectOrder = q.CorrectOrder
	}
	return json.Marshal(w)
}

// TimerDuration converts the configured countdown to a duration.
func (q Question) TimerDuration() time.Duration {
	return time.Duration(q.TimerSeconds) * time.Second
}

// Validate checks the variant-specific shape invariants.
func (q Question) Validate() error {
	if q.Text == "" {
		return fmt.Errorf("%w: empty question text", ErrBankInvalid)
	}
	if q.TimerSeconds <= 0 {
		return fmt.Errorf("%w: timerSeconds must be positive", ErrBankInvalid)
	}
	switch q.Type {
	case QuestionSingle:
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: single question needs options", ErrBankInvalid)
		}
		if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
			return fmt.Errorf("%w: correctAnswer %d out of range", ErrBankInvalid, q.CorrectIndex)
		}
	case QuestionMulti:
		if len(q.Options) == 0 {
			return fmt.Errorf("%w: multi question needs options", ErrBankInvalid)
		}
		if len(q.CorrectSet) == 0 {
			return fmt.Errorf("%w: multi question needs correctAnswers", ErrBankInvalid)
		}
		for _, idx := range q.CorrectSet {
			if idx < 0 || idx >= len(q.Options) {
				return fmt.Errorf("%w: correctAnswers index %d out of range", ErrBankInvalid, idx)
			}
		}
	case QuestionSlider:
		if q.Min <= 0 || q.Max <= q.Min {
			return fmt.Errorf("%w: slider needs 0 < min < max", ErrBankInvalid)
		}
		if q.CorrectValue < q.Min || q.CorrectValue > q.Max {
			return fmt.Errorf("%w: slider correctAnswer outside [min, max]", ErrBankInvalid)
		}
	case QuestionRanking:
		if len(q.Options) < 2 {
			return fmt.Errorf("%w: ranking question needs at least 2 options", ErrBankInvalid)
		}
		if !isPermutation(q.CorrectOrder, len(q.Options)) {
			return fmt.Errorf("%w: correctOrder is not a permutation of option indices", ErrBankInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown question type %q", ErrBankInvalid, q.Type)
	}
	return nil
}

func isPermutation(order []int, n int) bool {
	if len(order) != n {
		return false
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return false
		}
		seen[idx] = true
	}
	return true
}

// ValidateSet validates an ordered question list as a whole. An empty list is
// rejected so a room can never start without content.
func ValidateSet(questions []Question) error {
	if len(questions) == 0 {
		return ErrBankEmpty
	}
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}
	return nil
}
