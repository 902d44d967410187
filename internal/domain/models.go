package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	// MinOptions and MaxOptions bound the option list of a question,
	// mirroring the limits of chat-platform quiz polls.
	MinOptions = 2
	MaxOptions = 10
)

// Question is a single graded multiple-choice question. Options keep their
// insertion order; Correct is the 0-based index of the right option.
type Question struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	Correct int      `json:"correct"`
}

// Validate checks the option count and that Correct indexes an option.
func (q Question) Validate() error {
	if strings.TrimSpace(q.Prompt) == "" {
		return fmt.Errorf("%w: empty prompt", ErrInvalidInput)
	}
	if len(q.Options) < MinOptions || len(q.Options) > MaxOptions {
		return fmt.Errorf("%w: need %d-%d options, got %d", ErrInvalidInput, MinOptions, MaxOptions, len(q.Options))
	}
	if q.Correct < 0 || q.Correct >= len(q.Options) {
		return fmt.Errorf("%w: correct option %d out of range", ErrInvalidInput, q.Correct)
	}
	return nil
}

// QuizDefinition is a finalized, immutable quiz. It is created once an
// authoring session finishes and is owned by the quiz store afterwards.
type QuizDefinition struct {
	ID          string     `json:"id"`
	CreatorID   int64      `json:"creatorId"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
	// TimeLimitSeconds overrides the configured per-question poll window
	// when positive.
	TimeLimitSeconds int       `json:"timeLimitSeconds,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Validate checks that the definition is runnable.
func (d QuizDefinition) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return fmt.Errorf("%w: empty title", ErrInvalidInput)
	}
	if len(d.Questions) == 0 {
		return ErrEmptyQuiz
	}
	for i, q := range d.Questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("question %d: %w", i, err)
		}
	}
	return nil
}
