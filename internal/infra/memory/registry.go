package memory

import (
	"sync"

	"quizhost/internal/app"
)

// AuthoringRegistry is the in-memory implementation of
// app.AuthoringRegistry. The map guards membership only; each session
// serializes its own state.
type AuthoringRegistry struct {
	mu       sync.RWMutex
	sessions map[int64]*app.AuthoringSession
}

func NewAuthoringRegistry() *AuthoringRegistry {
	return &AuthoringRegistry{sessions: make(map[int64]*app.AuthoringSession)}
}

func (r *AuthoringRegistry) Replace(authorID int64) *app.AuthoringSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	session := app.NewAuthoringSession(authorID)
	r.sessions[authorID] = session
	return session
}

func (r *AuthoringRegistry) Get(authorID int64) (*app.AuthoringSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[authorID]
	return session, ok
}

func (r *AuthoringRegistry) Delete(authorID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, authorID)
}

// RunRegistry is the in-memory implementation of app.RunRegistry.
type RunRegistry struct {
	mu   sync.RWMutex
	runs map[int64]*app.QuizRun
}

func NewRunRegistry() *RunRegistry {
	return &RunRegistry{runs: make(map[int64]*app.QuizRun)}
}

func (r *RunRegistry) Replace(chatID int64, run *app.QuizRun) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[chatID] = run
}

func (r *RunRegistry) Get(chatID int64) (*app.QuizRun, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	run, ok := r.runs[chatID]
	return run, ok
}

func (r *RunRegistry) Delete(chatID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.runs, chatID)
}
