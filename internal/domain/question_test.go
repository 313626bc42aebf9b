package domain

import (
	"encoding/json"
	"testing"
)

func TestQuestionDecodeDispatchesOnType(t *testing.T) {
	raw := `{"questions": [
		{"type": "single", "question": "q1", "options": ["a", "b"], "correctAnswer": 1, "timerSeconds": 10},
		{"type": "multi", "question": "q2", "options": ["a", "b", "c"], "correctAnswers": [0, 2], "timerSeconds": 10},
		{"type": "slider", "question": "q3", "min": 1, "max": 1000, "correctAnswer": 50, "timerSeconds": 15},
		{"type": "ranking", "question": "q4", "options": ["a", "b", "c"], "correctOrder": [2, 0, 1], "timerSeconds": 20}
	]}`

	var parsed struct {
		Questions []Question `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if err := ValidateSet(parsed.Questions); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if q := parsed.Questions[0]; q.Type != QuestionSingle || q.CorrectIndex != 1 {
		t.Fatalf("single decoded wrong: %+v", q)
	}
	if q := parsed.Questions[1]; len(q.CorrectSet) != 2 || q.CorrectSet[1] != 2 {
		t.Fatalf("multi decoded wrong: %+v", q)
	}
	if q := parsed.Questions[2]; q.CorrectValue != 50 || q.Min != 1 || q.Max != 1000 {
		t.Fatalf("slider decoded wrong: %+v", q)
	}
	if q := parsed.Questions[3]; len(q.CorrectOrder) != 3 || q.CorrectOrder[0] != 2 {
		t.Fatalf("ranking decoded wrong: %+v", q)
	}
}

func TestQuestionDecodeRejectsUnknownType(t *testing.T) {
	var q Question
	if err := json.Unmarshal([]byte(`{"type": "essay", "question": "q", "timerSeconds": 10}`), &q); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
}

func TestValidateSetRejectsEmptyAndMalformed(t *testing.T) {
	if err := ValidateSet(nil); err != ErrBankEmpty {
		t.Fatalf("expected ErrBankEmpty, got %v", err)
	}

	bad := []Question{
		{Type: QuestionSingle, Text: "q", Options: []string{"a"}, CorrectIndex: 3, TimerSeconds: 10},
	}
	if err := ValidateSet(bad); err == nil {
		t.Fatalf("out-of-range correct index must fail validation")
	}

	notPermutation := []Question{
		{Type: QuestionRanking, Text: "q", Options: []string{"a", "b", "c"}, CorrectOrder: []int{0, 0, 1}, TimerSeconds: 10},
	}
	if err := ValidateSet(notPermutation); err == nil {
		t.Fatalf("repeated index must fail permutation check")
	}

	zeroTimer := []Question{
		{Type: QuestionSingle, Text: "q", Options: []string{"a", "b"}, CorrectIndex: 0},
	}
	if err := ValidateSet(zeroTimer); err == nil {
		t.Fatalf("zero timer must fail validation")
	}
}

func TestAnswerValueDecodesScalarAndList(t *testing.T) {
	var scalar AnswerValue
	if err := json.Unmarshal([]byte(`42.5`), &scalar); err != nil {
		t.Fatalf("scalar decode: %v", err)
	}
	if scalar.IsList() || scalar.Number != 42.5 {
		t.Fatalf("scalar decoded wrong: %+v", scalar)
	}

	var list AnswerValue
	if err := json.Unmarshal([]byte(`[2, 0, 1]`), &list); err != nil {
		t.Fatalf("list decode: %v", err)
	}
	if !list.IsList() || len(list.List) != 3 || list.List[0] != 2 {
		t.Fatalf("list decoded wrong: %+v", list)
	}
}

func TestGameStateCloneIsDeep(t *testing.T) {
	state := NewGameState()
	state.Participants["c1"] = &Participant{ID: "c1", Name: "Alice", Answers: []Answer{
		{QuestionIndex: 0, Value: NumberValue(1), Timestamp: 123},
	}}

	clone := state.Clone()
	clone.Participants["c1"].Score = 500
	clone.Participants["c1"].Answers[0].Score = 500

	if state.Participants["c1"].Score != 0 || state.Participants["c1"].Answers[0].Score != 0 {
		t.Fatalf("clone must not alias the original")
	}
	if clone.RevealedPodiumPlace != 3 {
		t.Fatalf("clone lost podium counter: %d", clone.RevealedPodiumPlace)
	}
}
