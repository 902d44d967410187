package memory

import (
	"testing"
	"time"

	"quizhost/internal/app"
	"quizhost/internal/domain"
)

func TestAuthoringRegistryReplaceDiscardsDraft(t *testing.T) {
	reg := NewAuthoringRegistry()

	first := reg.Replace(7)
	second := reg.Replace(7)
	if first == second {
		t.Fatalf("Replace must install a fresh session")
	}

	got, ok := reg.Get(7)
	if !ok || got != second {
		t.Fatalf("expected the second session, got %v ok=%v", got, ok)
	}

	reg.Delete(7)
	if _, ok := reg.Get(7); ok {
		t.Fatalf("expected session removed")
	}
}

func TestRunRegistryLifecycle(t *testing.T) {
	reg := NewRunRegistry()

	quiz := domain.QuizDefinition{
		Title:     "t",
		Questions: []domain.Question{{Prompt: "Q", Options: []string{"a", "b"}, Correct: 0}},
	}
	run := app.NewQuizRun(100, quiz, app.ModeSolo, 30*time.Second)
	reg.Replace(100, run)

	got, ok := reg.Get(100)
	if !ok || got != run {
		t.Fatalf("expected the registered run")
	}

	reg.Delete(100)
	if _, ok := reg.Get(100); ok {
		t.Fatalf("expected run removed")
	}
}
