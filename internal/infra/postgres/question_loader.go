package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"trivia-live/internal/domain"
)

// QuestionLoader loads question sets stored as JSONB in Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

func (l *QuestionLoader) LoadSet(ctx context.Context, setID string) ([]domain.Question, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_sets WHERE id=$1`, setID).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load question set: %w", err)
	}
	var parsed struct {
		Questions []domain.Question `json:"questions"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrBankInvalid, err)
	}
	return parsed.Questions, nil
}
