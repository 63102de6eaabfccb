// Package messages defines Bubbletea message types for the chat TUI.
package messages

import (
	"github.com/custodia-labs/kurator/internal/core/domain"
)

// QuestionSubmitted is sent when the user presses enter on a question.
type QuestionSubmitted struct {
	Question string
}

// AnswerCompleted carries the engine's record for a question back to the model.
type AnswerCompleted struct {
	Question string
	Record   *domain.AnswerRecord
	Err      error
}

// StoreLoaded reports the generation the engine is serving.
type StoreLoaded struct {
	Info domain.StoreInfo
	Err  error
}

// ErrorOccurred signals that an error happened outside a question.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
