package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"trivia-live/internal/domain"
)

// SetLoader fetches a question set from a backing store (file, Postgres, ...).
type SetLoader interface {
	LoadSet(ctx context.Context, setID string) ([]domain.Question, error)
}

// QuestionBank caches question sets with TTL to avoid repeated backing-store
// hits when many rooms share a set.
type QuestionBank struct {
	loader SetLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionBank(loader SetLoader, ttl time.Duration) *QuestionBank {
	return &QuestionBank{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSet),
	}
}

func (b *QuestionBank) QuestionSet(ctx context.Context, setID string) ([]domain.Question, error) {
	now := b.clock()

	b.mu.RLock()
	if entry, ok := b.cache[setID]; ok && entry.expiresAt.After(now) {
		b.mu.RUnlock()
		return entry.questions, nil
	}
	b.mu.RUnlock()

	result, err, _ := b.sf.Do(setID, func() (interface{}, error) {
		now := b.clock()
		b.mu.RLock()
		if entry, ok := b.cache[setID]; ok && entry.expiresAt.After(now) {
			b.mu.RUnlock()
			return entry.questions, nil
		}
		b.mu.RUnlock()

		questions, err := b.loader.LoadSet(ctx, setID)
		if err != nil {
			return nil, err
		}
		if err := domain.ValidateSet(questions); err != nil {
			return nil, err
		}

		b.mu.Lock()
		b.cache[setID] = cachedSet{
			questions: questions,
			expiresAt: now.Add(b.ttlWithJitter()),
		}
		b.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// StaticSetLoader is a map-backed loader for tests and demo setups.
type StaticSetLoader struct {
	sets map[string][]domain.Question
}

func NewStaticSetLoader(sets map[string][]domain.Question) *StaticSetLoader {
	return &StaticSetLoader{sets: sets}
}

func (l *StaticSetLoader) LoadSet(_ context.Context, setID string) ([]domain.Question, error) {
	if questions, ok := l.sets[setID]; ok {
		return questions, nil
	}
	return nil, domain.ErrSetNotFound
}

func (b *QuestionBank) ttlWithJitter() time.Duration {
	if b.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(b.ttl) / 10
	return b.ttl + time.Duration(b.rnd.Int63n(jitterMax+1))
}
