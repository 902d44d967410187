package domain

import "errors"

var (
	// ErrQuizNotFound is returned when a quiz ID does not resolve to a
	// stored definition.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrEmptyQuiz indicates a quiz without questions was started or finalized.
	ErrEmptyQuiz = errors.New("quiz has no questions")
	// ErrInvalidInput indicates malformed authoring input where a
	// structured value was required.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRunNotFound is returned when a chat has no active quiz run.
	ErrRunNotFound = errors.New("no active quiz run")
)
