package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizhost/internal/domain"
)

// QuizStore is an authoritative in-memory quiz store, used when no Postgres
// backend is configured and as the backing store in tests.
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[string]domain.QuizDefinition
	clock   func() time.Time
}

func NewQuizStore() *QuizStore {
	return &QuizStore{
		quizzes: make(map[string]domain.QuizDefinition),
		clock:   time.Now,
	}
}

// Seed installs pre-built quizzes keyed by their IDs (demo and test data).
func (s *QuizStore) Seed(quizzes map[string]domain.QuizDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, def := range quizzes {
		def.ID = id
		s.quizzes[id] = cloneQuiz(def)
	}
}

func (s *QuizStore) SaveQuiz(_ context.Context, def domain.QuizDefinition) (string, error) {
	if def.ID == "" {
		def.ID = uuid.NewString()
	}
	if def.CreatedAt.IsZero() {
		def.CreatedAt = s.clock()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.quizzes[def.ID] = cloneQuiz(def)
	return def.ID, nil
}

func (s *QuizStore) GetQuiz(_ context.Context, quizID string) (domain.QuizDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.quizzes[quizID]
	if !ok {
		return domain.QuizDefinition{}, domain.ErrQuizNotFound
	}
	return cloneQuiz(def), nil
}

// cloneQuiz copies the question slice so stored definitions stay immutable.
func cloneQuiz(def domain.QuizDefinition) domain.QuizDefinition {
	out := def
	out.Questions = make([]domain.Question, len(def.Questions))
	for i, q := range def.Questions {
		out.Questions[i] = q
		out.Questions[i].Options = append([]string(nil), q.Options...)
	}
	return out
}
