package app

import (
	"fmt"
	"strings"
	"sync"

	"quizhost/internal/domain"
)

// AuthoringStage identifies which input an authoring session expects next.
// Each stage accepts exactly one kind of input; everything else is either
// rejected with a corrective prompt or ignored.
type AuthoringStage int

const (
	StageIdle AuthoringStage = iota
	StageAwaitingTitle
	StageAwaitingDescription
	StageAwaitingQuestions
)

const (
	msgAskTitle     = "Send the quiz title."
	msgTitleEmpty   = "The title cannot be empty. Send the quiz title."
	msgAskQuestions = "Now add questions:\n" +
		"- create a poll and set its type to Quiz\n" +
		"- mark the correct option\n" +
		"Send /done when you are finished."
	msgNotQuizPoll  = "Send a quiz-type poll with the correct option marked."
	msgNoQuestions  = "No questions added yet. Send at least one quiz poll before /done."
)

// AuthoringSession is the per-author dialog state machine that accumulates a
// quiz definition field by field. A fresh session starts at
// StageAwaitingTitle; a finish whose save succeeds removes the session from
// the registry.
type AuthoringSession struct {
	authorID int64

	mu          sync.Mutex
	stage       AuthoringStage
	title       string
	description string
	questions   []domain.Question
}

// NewAuthoringSession starts a new draft for the author. Installing it in
// the registry discards any prior unfinished draft.
func NewAuthoringSession(authorID int64) *AuthoringSession {
	return &AuthoringSession{
		authorID: authorID,
		stage:    StageAwaitingTitle,
	}
}

// Stage reports the session's current stage.
func (s *AuthoringSession) Stage() AuthoringStage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// isSkipToken reports whether the text is the literal description-skip token.
func isSkipToken(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == "skip" || t == "/skip"
}

// applyText feeds a free-form text message into the dialog. Text arriving
// while the session is idle or collecting questions belongs to other
// machines and produces no actions.
func (s *AuthoringSession) applyText(text string) []Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	trimmed := strings.TrimSpace(text)

	switch s.stage {
	case StageAwaitingTitle:
		if trimmed == "" {
			return []Action{SendText{ChatID: s.authorID, Text: msgTitleEmpty}}
		}
		s.title = trimmed
		s.stage = StageAwaitingDescription
		return []Action{SendText{
			ChatID: s.authorID,
			Text:   fmt.Sprintf("Title set: %s\n\nSend a description, or \"skip\" to leave it empty.", trimmed),
		}}

	case StageAwaitingDescription:
		if isSkipToken(trimmed) {
			s.description = ""
		} else {
			s.description = trimmed
		}
		s.stage = StageAwaitingQuestions
		return []Action{SendText{ChatID: s.authorID, Text: msgAskQuestions}}

	default:
		return nil
	}
}

// applyQuiz appends a question captured from a quiz-style poll. Invalid
// input leaves the stage unchanged and emits a corrective prompt.
func (s *AuthoringSession) applyQuiz(q domain.Question) []Action {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageAwaitingQuestions {
		return nil
	}
	if q.Correct < 0 || q.Validate() != nil {
		return []Action{SendText{ChatID: s.authorID, Text: msgNotQuizPoll}}
	}

	s.questions = append(s.questions, q)
	return []Action{SendText{
		ChatID: s.authorID,
		Text:   fmt.Sprintf("Question %d added. Send another poll or /done.", len(s.questions)),
	}}
}

// finishDraft snapshots the draft into a definition ready for persistence.
// The session keeps its state so a failed save can be retried with another
// finish; the caller discards the session once the save succeeds. With zero
// questions it stays in StageAwaitingQuestions and returns a corrective
// prompt instead.
func (s *AuthoringSession) finishDraft(timeLimitSeconds int) (domain.QuizDefinition, []Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stage != StageAwaitingQuestions {
		return domain.QuizDefinition{}, nil, false
	}
	if len(s.questions) == 0 {
		return domain.QuizDefinition{}, []Action{SendText{ChatID: s.authorID, Text: msgNoQuestions}}, false
	}

	def := domain.QuizDefinition{
		CreatorID:        s.authorID,
		Title:            s.title,
		Description:      s.description,
		Questions:        append([]domain.Question(nil), s.questions...),
		TimeLimitSeconds: timeLimitSeconds,
	}
	return def, nil, true
}
