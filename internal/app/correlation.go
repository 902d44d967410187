package app

import "sync"

// PollCorrelation ties a dispatched poll back to the run and question it
// belongs to. Answer events arrive keyed by poll identifier only.
type PollCorrelation struct {
	ChatID        int64
	QuestionIndex int
	CorrectOption int
}

// CorrelationTable is the process-wide mapping from outstanding poll
// identifiers to their correlations. It is mutated concurrently by the run
// coordinator (dispatch, advance) and the answer aggregator, and entries for
// a chat are purged on completion, abort, and restart so nothing leaks
// across runs.
type CorrelationTable struct {
	mu    sync.RWMutex
	polls map[string]PollCorrelation
}

func NewCorrelationTable() *CorrelationTable {
	return &CorrelationTable{polls: make(map[string]PollCorrelation)}
}

func (t *CorrelationTable) Put(pollID string, corr PollCorrelation) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.polls[pollID] = corr
}

func (t *CorrelationTable) Get(pollID string) (PollCorrelation, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	corr, ok := t.polls[pollID]
	return corr, ok
}

func (t *CorrelationTable) Remove(pollID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.polls, pollID)
}

// RemoveChat drops every outstanding correlation belonging to the chat.
func (t *CorrelationTable) RemoveChat(chatID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, corr := range t.polls {
		if corr.ChatID == chatID {
			delete(t.polls, id)
		}
	}
}

// Len reports the number of outstanding correlations.
func (t *CorrelationTable) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.polls)
}
