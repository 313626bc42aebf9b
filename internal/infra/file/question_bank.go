// Package file loads the question bank from a JSON file on disk, the same
// shape the presentation tooling exports: {"questions": [...]}.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"trivia-live/internal/domain"
)

// QuestionBank serves a single ordered question set parsed once at startup.
// Construction fails if the file is missing, malformed, or empty, so a
// server never comes up without playable content.
type QuestionBank struct {
	questions []domain.Question
}

type questionFile struct {
	Questions []domain.Question `json:"questions"`
}

func NewQuestionBank(path string) (*QuestionBank, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	parsed := questionFile{}
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBankInvalid, err)
	}
	if err := domain.ValidateSet(parsed.Questions); err != nil {
		return nil, err
	}
	return &QuestionBank{questions: parsed.Questions}, nil
}

// QuestionSet returns the loaded list; a file bank holds exactly one set, so
// the set id is ignored.
func (b *QuestionBank) QuestionSet(_ context.Context, _ string) ([]domain.Question, error) {
	return b.questions, nil
}

// Len returns the number of loaded questions.
func (b *QuestionBank) Len() int { return len(b.questions) }
