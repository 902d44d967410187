package app

import (
	"time"

	"quizhost/internal/domain"
)

// Action is an outbound side effect emitted by a state transition. The
// transition commits first; the orchestrator executes the actions afterwards
// so a send failure can never unwind session state.
type Action interface {
	action()
}

// SendText delivers a plain message, optionally with inline buttons.
type SendText struct {
	ChatID  int64
	Text    string
	Buttons []Button
}

func (SendText) action() {}

// SendQuizPoll dispatches one question as a timed graded poll. The poll ID
// returned by the transport is recorded in the correlation table under
// QuestionIndex.
type SendQuizPoll struct {
	ChatID        int64
	QuestionIndex int
	Question      domain.Question
	TimeLimit     time.Duration
}

func (SendQuizPoll) action() {}
