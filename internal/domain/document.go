package domain

import "context"

// QuizDocument is the quiz as served by the quiz service
type QuizDocument struct {
	Questions []DocumentQuestion `json:"questions"`
}

// DocumentQuestion is a question in the served document
type DocumentQuestion struct {
	Description string           `json:"description"`
	Options     []DocumentOption `json:"options"`
}

// DocumentOption is one answer option in the served document
type DocumentOption struct {
	Description string `json:"description"`
	IsCorrect   bool   `json:"is_correct"`
}

// QuizSource defines where quiz documents come from
type QuizSource interface {
	// Fetch retrieves the quiz document
	Fetch(ctx context.Context) (*QuizDocument, error)
}
