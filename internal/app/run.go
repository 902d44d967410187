package app

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"quizhost/internal/domain"
)

// RunMode controls how a run advances past a question. Solo runs have one
// respondent, so the answer itself closes the question. Group runs wait for
// the poll's time window to close and let participants answer independently.
type RunMode int

const (
	ModeSolo RunMode = iota
	ModeGroup
)

// RunStatus is the lifecycle of a quiz run. Completed is terminal: no
// further event mutates index or scores.
type RunStatus int

const (
	StatusNotStarted RunStatus = iota
	StatusInProgress
	StatusCompleted
)

// QuizRun delivers a finalized quiz to one chat, one timed poll at a time,
// and aggregates per-participant scores with exactly-once credit.
type QuizRun struct {
	chatID    int64
	quiz      domain.QuizDefinition
	mode      RunMode
	timeLimit time.Duration

	mu       sync.Mutex
	status   RunStatus
	index    int
	scores   map[int64]int
	answered map[int64]map[int]struct{}
	names    map[int64]string
}

// NewQuizRun builds a run over a validated definition. timeLimit is the
// per-question poll window, already resolved against the quiz override.
func NewQuizRun(chatID int64, quiz domain.QuizDefinition, mode RunMode, timeLimit time.Duration) *QuizRun {
	return &QuizRun{
		chatID:    chatID,
		quiz:      quiz,
		mode:      mode,
		timeLimit: timeLimit,
		status:    StatusNotStarted,
		scores:    make(map[int64]int),
		answered:  make(map[int64]map[int]struct{}),
		names:     make(map[int64]string),
	}
}

// Status reports the run's lifecycle state.
func (r *QuizRun) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Index reports the current question index.
func (r *QuizRun) Index() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index
}

// Score reports the participant's accumulated correct-answer count.
func (r *QuizRun) Score(participantID int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scores[participantID]
}

// Mode reports whether the run advances on answers or on poll closure.
func (r *QuizRun) Mode() RunMode {
	return r.mode
}

// start moves the run to InProgress and emits the dispatch of question 0.
func (r *QuizRun) start() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusNotStarted {
		return nil
	}
	r.status = StatusInProgress
	r.index = 0
	return []Action{r.pollActionLocked()}
}

// answerOutcome describes what applyAnswer did with a submission.
type answerOutcome struct {
	// consumed is false for duplicates and events hitting a run that is
	// not in progress.
	consumed bool
	correct  bool
}

// applyAnswer grants or denies credit for one submission. A participant's
// first submission per question index is the only one that counts; an
// abstain (chosen < 0) consumes the attempt and scores incorrect.
func (r *QuizRun) applyAnswer(participantID int64, name string, questionIndex, chosen, correctOption int) answerOutcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusInProgress || questionIndex != r.index {
		return answerOutcome{}
	}

	seen := r.answered[participantID]
	if seen == nil {
		seen = make(map[int]struct{})
		r.answered[participantID] = seen
	}
	if _, dup := seen[questionIndex]; dup {
		return answerOutcome{}
	}
	seen[questionIndex] = struct{}{}

	if name != "" {
		r.names[participantID] = name
	}
	correct := chosen >= 0 && chosen == correctOption
	if correct {
		r.scores[participantID]++
	} else if _, ok := r.scores[participantID]; !ok {
		r.scores[participantID] = 0
	}
	return answerOutcome{consumed: true, correct: correct}
}

// advancePast moves the run beyond questionIndex. It is a no-op unless the
// run is in progress and questionIndex is the current question, which keeps
// the index monotonic under duplicate or late advance triggers.
func (r *QuizRun) advancePast(questionIndex int) (actions []Action, advanced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusInProgress || questionIndex != r.index {
		return nil, false
	}

	r.index++
	if r.index == len(r.quiz.Questions) {
		r.status = StatusCompleted
		return []Action{SendText{ChatID: r.chatID, Text: r.summaryLocked()}}, true
	}
	return []Action{r.pollActionLocked()}, true
}

// abort terminates the run without a summary.
func (r *QuizRun) abort() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusInProgress {
		return false
	}
	r.status = StatusCompleted
	return true
}

func (r *QuizRun) pollActionLocked() Action {
	return SendQuizPoll{
		ChatID:        r.chatID,
		QuestionIndex: r.index,
		Question:      r.quiz.Questions[r.index],
		TimeLimit:     r.timeLimit,
	}
}

func (r *QuizRun) summaryLocked() string {
	total := len(r.quiz.Questions)

	if r.mode == ModeSolo {
		score := 0
		for _, s := range r.scores {
			score = s
		}
		pct := float64(score) / float64(total) * 100
		return fmt.Sprintf("Quiz complete!\n\nTitle: %s\nCorrect: %d / %d\nScore: %.1f%%", r.quiz.Title, score, total, pct)
	}

	if len(r.scores) == 0 {
		return fmt.Sprintf("Quiz complete!\n\nTitle: %s\nNo one answered.", r.quiz.Title)
	}

	type entry struct {
		id    int64
		name  string
		score int
	}
	entries := make([]entry, 0, len(r.scores))
	for id, score := range r.scores {
		name := r.names[id]
		if name == "" {
			name = fmt.Sprintf("player %d", id)
		}
		entries = append(entries, entry{id: id, name: name, score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].score != entries[j].score {
			return entries[i].score > entries[j].score
		}
		return entries[i].name < entries[j].name
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Quiz complete!\n\nTitle: %s\nResults:\n", r.quiz.Title)
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %s - %d / %d\n", i+1, e.name, e.score, total)
	}
	return strings.TrimRight(b.String(), "\n")
}
