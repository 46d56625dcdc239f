package loader

import "github.com/zizouhuweidi/quizflow/internal/domain"

var fallbackQuestions = []domain.Question{
	{
		Text:          "What is the capital of France?",
		Options:       []string{"London", "Berlin", "Paris", "Madrid"},
		CorrectAnswer: "Paris",
	},
	{
		Text:          "Which planet is known as the Red Planet?",
		Options:       []string{"Venus", "Mars", "Jupiter", "Saturn"},
		CorrectAnswer: "Mars",
	},
	{
		Text:          "What is 2 + 2?",
		Options:       []string{"3", "4", "5", "6"},
		CorrectAnswer: "4",
	},
}

// Fallback returns a copy of the built-in quiz used when loading fails
func Fallback() domain.QuizSet {
	questions := make([]domain.Question, len(fallbackQuestions))
	for i, q := range fallbackQuestions {
		options := make([]string, len(q.Options))
		copy(options, q.Options)
		questions[i] = domain.Question{Text: q.Text, Options: options, CorrectAnswer: q.CorrectAnswer}
	}
	return domain.QuizSet{Questions: questions}
}
