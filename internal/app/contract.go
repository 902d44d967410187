package app

import (
	"context"
	"time"

	"quizhost/internal/domain"
)

// Button is an inline action offered alongside a message. Token is routed
// back verbatim as a ButtonClick event when pressed.
type Button struct {
	Label string
	Token string
}

// Messenger abstracts the chat transport. Sends are fire-and-forget from the
// state machines' perspective: a failed send is logged by the caller and
// never rolls back a committed transition.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, buttons []Button) error
	// SendPoll dispatches a timed, single-choice, graded poll and returns
	// the transport's opaque poll identifier used to correlate answers.
	SendPoll(ctx context.Context, chatID int64, prompt string, options []string, correctOption int, timeLimit time.Duration) (string, error)
}

// QuizStore persists finalized quiz definitions (in-memory, Postgres,
// Redis-cached, etc).
type QuizStore interface {
	SaveQuiz(ctx context.Context, def domain.QuizDefinition) (string, error)
	GetQuiz(ctx context.Context, quizID string) (domain.QuizDefinition, error)
}

// AuthoringRegistry maps author identity to its single authoring session.
type AuthoringRegistry interface {
	// Replace installs a fresh session for the author, discarding any
	// prior draft.
	Replace(authorID int64) *AuthoringSession
	Get(authorID int64) (*AuthoringSession, bool)
	Delete(authorID int64)
}

// RunRegistry maps chat identity to its single active quiz run.
type RunRegistry interface {
	// Replace installs the run for the chat, discarding any prior run.
	Replace(chatID int64, run *QuizRun)
	Get(chatID int64) (*QuizRun, bool)
	Delete(chatID int64)
}

// Inbound events, classified by the transport and routed to the matching
// session by the orchestrator.

// TextMessage is a free-form text message from an author.
type TextMessage struct {
	AuthorID int64
	Text     string
}

// ButtonClick carries back the opaque token of a pressed inline button.
type ButtonClick struct {
	AuthorID int64
	Token    string
}

// QuizPollSubmitted is a quiz-style poll forwarded during authoring.
// Correct is -1 when the poll carried no correct-option marker (wrong poll
// type or marker withheld by the transport).
type QuizPollSubmitted struct {
	AuthorID int64
	Prompt   string
	Options  []string
	Correct  int
}

// AnswerSubmitted is a participant's vote on a dispatched quiz poll.
// Option is -1 when the participant retracted or abstained; the attempt is
// still consumed and scored as incorrect.
type AnswerSubmitted struct {
	PollID          string
	ParticipantID   int64
	ParticipantName string
	Option          int
}

// PollClosed signals that a dispatched poll's time window elapsed. The
// coordinator runs no timers of its own; closure is signaled externally.
type PollClosed struct {
	PollID string
}
