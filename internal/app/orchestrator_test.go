package app_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"quizhost/internal/app"
	"quizhost/internal/domain"
	"quizhost/internal/infra/memory"
)

type sentText struct {
	chat    int64
	text    string
	buttons []app.Button
}

type sentPoll struct {
	id      string
	chat    int64
	prompt  string
	options []string
	correct int
	limit   time.Duration
}

// fakeMessenger records outbound sends and hands out sequential poll IDs.
type fakeMessenger struct {
	mu        sync.Mutex
	texts     []sentText
	polls     []sentPoll
	failPolls bool
}

func (m *fakeMessenger) SendMessage(_ context.Context, chatID int64, text string, buttons []app.Button) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.texts = append(m.texts, sentText{chat: chatID, text: text, buttons: buttons})
	return nil
}

func (m *fakeMessenger) SendPoll(_ context.Context, chatID int64, prompt string, options []string, correctOption int, timeLimit time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPolls {
		return "", errors.New("transport down")
	}
	id := fmt.Sprintf("poll-%d", len(m.polls)+1)
	m.polls = append(m.polls, sentPoll{
		id:      id,
		chat:    chatID,
		prompt:  prompt,
		options: options,
		correct: correctOption,
		limit:   timeLimit,
	})
	return id, nil
}

func (m *fakeMessenger) lastText(t *testing.T) sentText {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.texts) == 0 {
		t.Fatalf("no messages sent")
	}
	return m.texts[len(m.texts)-1]
}

func (m *fakeMessenger) textCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.texts)
}

func (m *fakeMessenger) lastPoll(t *testing.T) sentPoll {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.polls) == 0 {
		t.Fatalf("no polls sent")
	}
	return m.polls[len(m.polls)-1]
}

func (m *fakeMessenger) pollCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.polls)
}

// captureStore remembers the ID of the last saved quiz so tests can reload
// what authoring persisted. Setting failSaves makes that many saves error
// before the store recovers.
type captureStore struct {
	*memory.QuizStore
	mu        sync.Mutex
	lastID    string
	failSaves int
}

func (s *captureStore) SaveQuiz(ctx context.Context, def domain.QuizDefinition) (string, error) {
	s.mu.Lock()
	if s.failSaves > 0 {
		s.failSaves--
		s.mu.Unlock()
		return "", errors.New("storage down")
	}
	s.mu.Unlock()

	id, err := s.QuizStore.SaveQuiz(ctx, def)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.lastID = id
	s.mu.Unlock()
	return id, nil
}

func (s *captureStore) savedID(t *testing.T) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastID == "" {
		t.Fatalf("no quiz was saved")
	}
	return s.lastID
}

type testEnv struct {
	orch    *app.Orchestrator
	msgr    *fakeMessenger
	store   *captureStore
	authors *memory.AuthoringRegistry
	runs    *memory.RunRegistry
}

func newTestEnv() *testEnv {
	msgr := &fakeMessenger{}
	store := &captureStore{QuizStore: memory.NewQuizStore()}
	authors := memory.NewAuthoringRegistry()
	runs := memory.NewRunRegistry()
	orch := app.NewOrchestrator(msgr, store, authors, runs, zap.NewNop(), 30*time.Second)
	return &testEnv{orch: orch, msgr: msgr, store: store, authors: authors, runs: runs}
}

func (e *testEnv) seedQuiz(id string, questions ...domain.Question) {
	e.store.Seed(map[string]domain.QuizDefinition{
		id: {
			ID:        id,
			CreatorID: 1,
			Title:     "Bio Mock",
			Questions: questions,
		},
	})
}

func fourOptionQuestion() domain.Question {
	return domain.Question{
		Prompt:  "Which organelle makes ATP?",
		Options: []string{"Nucleus", "Ribosome", "Mitochondrion", "Golgi"},
		Correct: 2,
	}
}
