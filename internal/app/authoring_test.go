package app_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"quizhost/internal/app"
)

func TestAuthoringHappyPath(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	env.orch.StartAuthoring(ctx, 7)
	env.orch.HandleText(ctx, app.TextMessage{AuthorID: 7, Text: "Bio Mock"})
	env.orch.HandleText(ctx, app.TextMessage{AuthorID: 7, Text: "skip"})
	env.orch.HandleQuizInput(ctx, app.QuizPollSubmitted{
		AuthorID: 7,
		Prompt:   "Which organelle makes ATP?",
		Options:  []string{"Nucleus", "Ribosome", "Mitochondrion", "Golgi"},
		Correct:  2,
	})
	if err := env.orch.FinishAuthoring(ctx, 7, 0); err != nil {
		t.Fatalf("finish: %v", err)
	}

	def, err := env.store.GetQuiz(ctx, env.store.savedID(t))
	if err != nil {
		t.Fatalf("reload saved quiz: %v", err)
	}
	if def.Title != "Bio Mock" {
		t.Fatalf("expected title Bio Mock, got %q", def.Title)
	}
	if def.Description != "" {
		t.Fatalf("expected empty description, got %q", def.Description)
	}
	if len(def.Questions) != 1 || def.Questions[0].Correct != 2 {
		t.Fatalf("expected 1 question with correct=2, got %+v", def.Questions)
	}
	if def.CreatorID != 7 {
		t.Fatalf("expected creator 7, got %d", def.CreatorID)
	}

	last := env.msgr.lastText(t)
	if !strings.Contains(last.text, "/startquiz") {
		t.Fatalf("expected summary with start command, got %q", last.text)
	}
}

func TestAuthoringRejectsEmptyTitle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	env.orch.StartAuthoring(ctx, 7)
	env.orch.HandleText(ctx, app.TextMessage{AuthorID: 7, Text: "   "})
	if got := env.msgr.lastText(t).text; !strings.Contains(got, "cannot be empty") {
		t.Fatalf("expected re-prompt for title, got %q", got)
	}

	// The stage did not change; a real title still works.
	env.orch.HandleText(ctx, app.TextMessage{AuthorID: 7, Text: "Bio Mock"})
	if got := env.msgr.lastText(t).text; !strings.Contains(got, "Title set") {
		t.Fatalf("expected title acknowledgement, got %q", got)
	}
}

func TestAuthoringStoresDescriptionVerbatim(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	env.orch.StartAuthoring(ctx, 7)
	env.orch.HandleText(ctx, app.TextMessage{AuthorID: 7, Text: "Bio Mock"})
	env.orch.HandleText(ctx, app.TextMessage{AuthorID: 7, Text: "All of chapter 4"})
	env.orch.HandleQuizInput(ctx, app.QuizPollSubmitted{
		AuthorID: 7,
		Prompt:   "Q",
		Options:  []string{"a", "b"},
		Correct:  0,
	})
	if err := env.orch.FinishAuthoring(ctx, 7, 0); err != nil {
		t.Fatalf("finish: %v", err)
	}

	def, err := env.store.GetQuiz(ctx, env.store.savedID(t))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if def.Description != "All of chapter 4" {
		t.Fatalf("expected description kept, got %q", def.Description)
	}
}

func TestAuthoringRejectsNonQuizPoll(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	env.orch.StartAuthoring(ctx, 7)
	env.orch.HandleText(ctx, app.TextMessage{AuthorID: 7, Text: "Bio Mock"})
	env.orch.HandleText(ctx, app.TextMessage{AuthorID: 7, Text: "skip"})

	// No correct-option marker.
	env.orch.HandleQuizInput(ctx, app.QuizPollSubmitted{
		AuthorID: 7,
		Prompt:   "Q",
		Options:  []string{"a", "b"},
		Correct:  -1,
	})
	if got := env.msgr.lastText(t).text; !strings.Contains(got, "quiz-type poll") {
		t.Fatalf("expected corrective prompt, got %q", got)
	}

	// Correct index out of range.
	env.orch.HandleQuizInput(ctx, app.QuizPollSubmitted{
		AuthorID: 7,
		Prompt:   "Q",
		Options:  []string{"a", "b"},
		Correct:  5,
	})
	if got := env.msgr.lastText(t).text; !strings.Contains(got, "quiz-type poll") {
		t.Fatalf("expected corrective prompt, got %q", got)
	}

	// Neither input was appended.
	if err := env.orch.FinishAuthoring(ctx, 7, 0); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if got := env.msgr.lastText(t).text; !strings.Contains(got, "No questions") {
		t.Fatalf("expected zero-questions rejection, got %q", got)
	}
}

func TestAuthoringFinishWithoutQuestionsKeepsSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	env.orch.StartAuthoring(ctx, 7)
	env.orch.HandleText(ctx, app.TextMessage{AuthorID: 7, Text: "Bio Mock"})
	env.orch.HandleText(ctx, app.TextMessage{AuthorID: 7, Text: "skip"})

	if err := env.orch.FinishAuthoring(ctx, 7, 0); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if session, ok := env.authors.Get(7); !ok || session.Stage() != app.StageAwaitingQuestions {
		t.Fatalf("expected the session to keep collecting questions")
	}

	// The session survived the rejected finish: adding a question and
	// finishing again persists a quiz.
	env.orch.HandleQuizInput(ctx, app.QuizPollSubmitted{
		AuthorID: 7,
		Prompt:   "Q",
		Options:  []string{"a", "b", "c"},
		Correct:  1,
	})
	if err := env.orch.FinishAuthoring(ctx, 7, 0); err != nil {
		t.Fatalf("finish after adding question: %v", err)
	}
	def, err := env.store.GetQuiz(ctx, env.store.savedID(t))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(def.Questions) != 1 {
		t.Fatalf("expected 1 question, got %d", len(def.Questions))
	}
}

func TestAuthoringRestartDiscardsDraft(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	env.orch.StartAuthoring(ctx, 7)
	env.orch.HandleText(ctx, app.TextMessage{AuthorID: 7, Text: "Draft One"})
	env.orch.HandleText(ctx, app.TextMessage{AuthorID: 7, Text: "skip"})
	env.orch.HandleQuizInput(ctx, app.QuizPollSubmitted{
		AuthorID: 7,
		Prompt:   "leaked question",
		Options:  []string{"a", "b"},
		Correct:  0,
	})

	// Second create discards the first draft entirely.
	env.orch.StartAuthoring(ctx, 7)
	env.orch.HandleText(ctx, app.TextMessage{AuthorID: 7, Text: "Draft Two"})
	env.orch.HandleText(ctx, app.TextMessage{AuthorID: 7, Text: "skip"})
	env.orch.HandleQuizInput(ctx, app.QuizPollSubmitted{
		AuthorID: 7,
		Prompt:   "kept question",
		Options:  []string{"x", "y"},
		Correct:  1,
	})
	if err := env.orch.FinishAuthoring(ctx, 7, 0); err != nil {
		t.Fatalf("finish: %v", err)
	}

	def, err := env.store.GetQuiz(ctx, env.store.savedID(t))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if def.Title != "Draft Two" {
		t.Fatalf("expected second draft's title, got %q", def.Title)
	}
	if len(def.Questions) != 1 || def.Questions[0].Prompt != "kept question" {
		t.Fatalf("first draft leaked into the persisted quiz: %+v", def.Questions)
	}
}

func TestAuthoringFinishRetriesAfterSaveFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	env.orch.StartAuthoring(ctx, 7)
	env.orch.HandleText(ctx, app.TextMessage{AuthorID: 7, Text: "Bio Mock"})
	env.orch.HandleText(ctx, app.TextMessage{AuthorID: 7, Text: "skip"})
	env.orch.HandleQuizInput(ctx, app.QuizPollSubmitted{
		AuthorID: 7,
		Prompt:   "Which organelle makes ATP?",
		Options:  []string{"Nucleus", "Ribosome", "Mitochondrion", "Golgi"},
		Correct:  2,
	})

	env.store.failSaves = 1
	if err := env.orch.FinishAuthoring(ctx, 7, 0); err == nil {
		t.Fatalf("expected the failed save to surface an error")
	}
	if got := env.msgr.lastText(t).text; !strings.Contains(got, "Could not save") {
		t.Fatalf("expected a save-failure message, got %q", got)
	}

	// The draft survived the failed save; /done again retries it.
	if session, ok := env.authors.Get(7); !ok || session.Stage() != app.StageAwaitingQuestions {
		t.Fatalf("expected the draft to survive the failed save")
	}
	if err := env.orch.FinishAuthoring(ctx, 7, 0); err != nil {
		t.Fatalf("retry finish: %v", err)
	}

	def, err := env.store.GetQuiz(ctx, env.store.savedID(t))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if def.Title != "Bio Mock" || len(def.Questions) != 1 {
		t.Fatalf("retry persisted a mangled quiz: %+v", def)
	}
	if _, ok := env.authors.Get(7); ok {
		t.Fatalf("expected the session to be discarded after the save succeeded")
	}
}

func TestAuthoringIgnoresTextWithoutSession(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	env.orch.HandleText(ctx, app.TextMessage{AuthorID: 7, Text: "hello"})
	env.orch.HandleQuizInput(ctx, app.QuizPollSubmitted{AuthorID: 7, Prompt: "Q", Options: []string{"a", "b"}, Correct: 0})
	if err := env.orch.FinishAuthoring(ctx, 7, 0); err != nil {
		t.Fatalf("finish: %v", err)
	}

	if n := env.msgr.textCount(); n != 0 {
		t.Fatalf("expected silence for sessionless input, got %d messages", n)
	}
}

func TestAuthoringTimeLimitOverride(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()

	env.orch.StartAuthoring(ctx, 7)
	env.orch.HandleText(ctx, app.TextMessage{AuthorID: 7, Text: "Timed"})
	env.orch.HandleText(ctx, app.TextMessage{AuthorID: 7, Text: "skip"})
	env.orch.HandleQuizInput(ctx, app.QuizPollSubmitted{AuthorID: 7, Prompt: "Q", Options: []string{"a", "b"}, Correct: 0})
	if err := env.orch.FinishAuthoring(ctx, 7, 45); err != nil {
		t.Fatalf("finish: %v", err)
	}

	id := env.store.savedID(t)
	def, err := env.store.GetQuiz(ctx, id)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if def.TimeLimitSeconds != 45 {
		t.Fatalf("expected 45s override, got %d", def.TimeLimitSeconds)
	}

	// The run's polls use the override, not the configured default.
	if err := env.orch.StartRun(ctx, 7, id, app.ModeSolo); err != nil {
		t.Fatalf("start run: %v", err)
	}
	if limit := env.msgr.lastPoll(t).limit; limit != 45*time.Second {
		t.Fatalf("expected 45s poll window, got %v", limit)
	}
}
