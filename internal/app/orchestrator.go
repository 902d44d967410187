package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"quizhost/internal/domain"
)

// Button tokens routed back by the transport as ButtonClick events.
const (
	TokenCreate = "create"
	TokenHelp   = "help"
)

const helpText = "Commands:\n" +
	"/start - welcome message\n" +
	"/create - start building a quiz\n" +
	"/skip - skip the quiz description\n" +
	"/done [seconds] - finish quiz creation (optional per-question time limit)\n" +
	"/startquiz <id> - run a quiz in this chat\n" +
	"/abort - stop the current run"

// Orchestrator routes typed inbound events to the matching session state
// machine and executes the outbound actions each transition emits. Sessions
// serialize their own state; the orchestrator itself holds no mutable state
// beyond the registries and the correlation table it owns.
type Orchestrator struct {
	messenger    Messenger
	store        QuizStore
	authoring    AuthoringRegistry
	runs         RunRegistry
	correlations *CorrelationTable
	log          *zap.Logger

	defaultTimeLimit time.Duration
}

func NewOrchestrator(messenger Messenger, store QuizStore, authoring AuthoringRegistry, runs RunRegistry, log *zap.Logger, defaultTimeLimit time.Duration) *Orchestrator {
	if defaultTimeLimit <= 0 {
		defaultTimeLimit = 30 * time.Second
	}
	return &Orchestrator{
		messenger:        messenger,
		store:            store,
		authoring:        authoring,
		runs:             runs,
		correlations:     NewCorrelationTable(),
		log:              log,
		defaultTimeLimit: defaultTimeLimit,
	}
}

// Correlations exposes the outstanding-poll table, shared with tests and
// any transport that needs to observe poll lifecycle.
func (o *Orchestrator) Correlations() *CorrelationTable {
	return o.correlations
}

// Welcome greets a chat with the entry-point buttons.
func (o *Orchestrator) Welcome(ctx context.Context, chatID int64) {
	o.emit(ctx, []Action{SendText{
		ChatID: chatID,
		Text:   "Welcome to Quizhost!\nBuild your own quizzes and run them here or in a group.",
		Buttons: []Button{
			{Label: "Create new quiz", Token: TokenCreate},
			{Label: "Help", Token: TokenHelp},
		},
	}})
}

// StartAuthoring begins a fresh authoring dialog for the author, discarding
// any unfinished draft.
func (o *Orchestrator) StartAuthoring(ctx context.Context, authorID int64) {
	o.authoring.Replace(authorID)
	o.emit(ctx, []Action{SendText{ChatID: authorID, Text: msgAskTitle}})
}

// HandleText feeds a free-form text message into the author's dialog.
// Authors without an active dialog are ignored.
func (o *Orchestrator) HandleText(ctx context.Context, ev TextMessage) {
	session, ok := o.authoring.Get(ev.AuthorID)
	if !ok {
		o.log.Debug("text with no authoring session", zap.Int64("author", ev.AuthorID))
		return
	}
	o.emit(ctx, session.applyText(ev.Text))
}

// HandleButton reacts to inline-button tokens.
func (o *Orchestrator) HandleButton(ctx context.Context, ev ButtonClick) {
	switch ev.Token {
	case TokenCreate:
		o.StartAuthoring(ctx, ev.AuthorID)
	case TokenHelp:
		o.emit(ctx, []Action{SendText{ChatID: ev.AuthorID, Text: helpText}})
	default:
		o.log.Debug("unknown button token", zap.String("token", ev.Token), zap.Int64("author", ev.AuthorID))
	}
}

// HandleQuizInput feeds a quiz-style poll into the author's dialog as a
// candidate question.
func (o *Orchestrator) HandleQuizInput(ctx context.Context, ev QuizPollSubmitted) {
	session, ok := o.authoring.Get(ev.AuthorID)
	if !ok {
		o.log.Debug("quiz poll with no authoring session", zap.Int64("author", ev.AuthorID))
		return
	}
	o.emit(ctx, session.applyQuiz(domain.Question{
		Prompt:  ev.Prompt,
		Options: ev.Options,
		Correct: ev.Correct,
	}))
}

// FinishAuthoring finalizes and persists the author's draft. With zero
// questions the dialog stays open and a corrective prompt is sent instead.
// A failed save keeps the draft intact so another finish retries it; the
// session is discarded only once the quiz is stored.
func (o *Orchestrator) FinishAuthoring(ctx context.Context, authorID int64, timeLimitSeconds int) error {
	session, ok := o.authoring.Get(authorID)
	if !ok {
		return nil
	}

	def, actions, done := session.finishDraft(timeLimitSeconds)
	if !done {
		o.emit(ctx, actions)
		return nil
	}

	quizID, err := o.store.SaveQuiz(ctx, def)
	if err != nil {
		o.log.Error("saving quiz failed", zap.Int64("author", authorID), zap.Error(err))
		o.emit(ctx, []Action{SendText{ChatID: authorID, Text: "Could not save the quiz. Send /done to try again."}})
		return fmt.Errorf("save quiz: %w", err)
	}
	o.authoring.Delete(authorID)

	o.emit(ctx, []Action{SendText{
		ChatID: authorID,
		Text: fmt.Sprintf("Quiz created!\n\nTitle: %s\nQuestions: %d\n\nStart it with /startquiz %s",
			def.Title, len(def.Questions), quizID),
	}})
	return nil
}

// StartRun starts delivering the quiz in the chat. An in-progress run for
// the same chat is discarded along with its outstanding polls.
func (o *Orchestrator) StartRun(ctx context.Context, chatID int64, quizID string, mode RunMode) error {
	quiz, err := o.store.GetQuiz(ctx, quizID)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	if len(quiz.Questions) == 0 {
		return fmt.Errorf("start run: %w", domain.ErrEmptyQuiz)
	}

	timeLimit := o.defaultTimeLimit
	if quiz.TimeLimitSeconds > 0 {
		timeLimit = time.Duration(quiz.TimeLimitSeconds) * time.Second
	}

	o.correlations.RemoveChat(chatID)
	run := NewQuizRun(chatID, quiz, mode, timeLimit)
	o.runs.Replace(chatID, run)

	actions := append([]Action{SendText{
		ChatID: chatID,
		Text:   fmt.Sprintf("Starting %s. Good luck!", quiz.Title),
	}}, run.start()...)
	o.emit(ctx, actions)
	return nil
}

// AbortRun terminates the chat's run without a summary and drops its
// outstanding polls.
func (o *Orchestrator) AbortRun(ctx context.Context, chatID int64) error {
	run, ok := o.runs.Get(chatID)
	if !ok || !run.abort() {
		return domain.ErrRunNotFound
	}
	o.correlations.RemoveChat(chatID)
	o.runs.Delete(chatID)
	o.emit(ctx, []Action{SendText{ChatID: chatID, Text: "Quiz aborted."}})
	return nil
}

// HandleAnswer credits one submission against the poll it answers. Unknown
// poll identifiers and duplicate submissions are dropped without side
// effects; solo runs additionally get per-answer feedback and advance.
func (o *Orchestrator) HandleAnswer(ctx context.Context, ev AnswerSubmitted) {
	corr, ok := o.correlations.Get(ev.PollID)
	if !ok {
		o.log.Debug("answer for unknown poll", zap.String("poll", ev.PollID))
		return
	}
	run, ok := o.runs.Get(corr.ChatID)
	if !ok {
		o.correlations.Remove(ev.PollID)
		return
	}

	outcome := run.applyAnswer(ev.ParticipantID, ev.ParticipantName, corr.QuestionIndex, ev.Option, corr.CorrectOption)
	if !outcome.consumed {
		o.log.Debug("duplicate or late answer dropped",
			zap.String("poll", ev.PollID), zap.Int64("participant", ev.ParticipantID))
		return
	}

	if run.Mode() != ModeSolo {
		return
	}

	feedback := "Correct! +1"
	if !outcome.correct {
		answer := run.quiz.Questions[corr.QuestionIndex].Options[corr.CorrectOption]
		feedback = fmt.Sprintf("Wrong! The correct answer was: %s", answer)
	}
	o.emit(ctx, []Action{SendText{ChatID: corr.ChatID, Text: feedback}})

	o.advanceFrom(ctx, run, corr, ev.PollID)
}

// HandlePollClosed advances the run whose poll's time window elapsed. Solo
// runs that already advanced on the answer no longer hold the correlation
// and ignore the closure.
func (o *Orchestrator) HandlePollClosed(ctx context.Context, ev PollClosed) {
	corr, ok := o.correlations.Get(ev.PollID)
	if !ok {
		return
	}
	run, ok := o.runs.Get(corr.ChatID)
	if !ok {
		o.correlations.Remove(ev.PollID)
		return
	}
	o.advanceFrom(ctx, run, corr, ev.PollID)
}

func (o *Orchestrator) advanceFrom(ctx context.Context, run *QuizRun, corr PollCorrelation, pollID string) {
	actions, advanced := run.advancePast(corr.QuestionIndex)
	if !advanced {
		return
	}
	o.correlations.Remove(pollID)

	if run.Status() == StatusCompleted {
		o.correlations.RemoveChat(corr.ChatID)
		o.runs.Delete(corr.ChatID)
	}
	o.emit(ctx, actions)
}

// emit executes outbound actions after their transition has committed. Send
// failures are logged and never propagated back into session state. A poll's
// correlation is recorded only once SendPoll returns its id, so an answer
// update racing that return on another goroutine would be dropped as
// unknown; Telegram delivers answers on a later long-poll cycle, after the
// id is already recorded.
func (o *Orchestrator) emit(ctx context.Context, actions []Action) {
	for _, action := range actions {
		switch a := action.(type) {
		case SendText:
			if err := o.messenger.SendMessage(ctx, a.ChatID, a.Text, a.Buttons); err != nil {
				o.log.Warn("message send failed", zap.Int64("chat", a.ChatID), zap.Error(err))
			}
		case SendQuizPoll:
			pollID, err := o.messenger.SendPoll(ctx, a.ChatID, a.Question.Prompt, a.Question.Options, a.Question.Correct, a.TimeLimit)
			if err != nil {
				o.log.Error("poll dispatch failed",
					zap.Int64("chat", a.ChatID), zap.Int("question", a.QuestionIndex), zap.Error(err))
				continue
			}
			o.correlations.Put(pollID, PollCorrelation{
				ChatID:        a.ChatID,
				QuestionIndex: a.QuestionIndex,
				CorrectOption: a.Question.Correct,
			})
		}
	}
}
