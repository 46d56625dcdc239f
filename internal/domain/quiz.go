package domain

import (
	"context"
	"errors"
	"fmt"
)

// QuestionTime is the countdown every question starts with, in seconds
const QuestionTime = 30

// Phase is the coarse-grained state of a quiz session
type Phase string

const (
	PhaseStart   Phase = "start"   // Waiting for the player to begin
	PhasePlaying Phase = "playing" // A question is on screen and the countdown runs
	PhaseResults Phase = "results" // Every question has been answered
)

// Question is a single multiple choice question
type Question struct {
	Text          string   `json:"text"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
}

// HasOption reports whether answer is one of the question's options
func (q Question) HasOption(answer string) bool {
	for _, opt := range q.Options {
		if opt == answer {
			return true
		}
	}
	return false
}

// QuizSet is the ordered list of questions a session walks through
type QuizSet struct {
	Questions []Question `json:"questions"`
}

// Len returns the number of questions in the set
func (s QuizSet) Len() int {
	return len(s.Questions)
}

// AnswerRecord captures what happened on one question
type AnswerRecord struct {
	QuestionText   string  `json:"question"`
	SelectedAnswer *string `json:"selected_answer"` // nil when the countdown ran out
	CorrectAnswer  string  `json:"correct_answer"`
	IsCorrect      bool    `json:"is_correct"`
}

// Verdict is the closing remark shown with the final score
type Verdict string

const (
	VerdictGreat Verdict = "great"
	VerdictGood  Verdict = "good"
)

// VerdictFor returns the verdict for a final score
func VerdictFor(score int) Verdict {
	if score > 50 {
		return VerdictGreat
	}
	return VerdictGood
}

// Snapshot is a read-only copy of a session's state handed to the presentation layer
type Snapshot struct {
	SessionID        string         `json:"session_id,omitempty"`
	Phase            Phase          `json:"phase"`
	QuestionNumber   int            `json:"question_number"` // 1-based, 0 outside playing
	TotalQuestions   int            `json:"total_questions"`
	Question         *Question      `json:"question,omitempty"` // correct answer is blanked
	Score            int            `json:"score"`
	Streak           int            `json:"streak"`
	SecondsRemaining int            `json:"seconds_remaining"`
	Answers          []AnswerRecord `json:"answers"`
	Verdict          Verdict        `json:"verdict,omitempty"`
}

// Common errors
var (
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrQuizUnavailable   = errors.New("quiz is not available")
	ErrEmptyQuizSet      = errors.New("quiz set has no questions")
)

// LoadStage names the step of a quiz load that failed
type LoadStage string

const (
	LoadStageFetch     LoadStage = "fetch"
	LoadStageStatus    LoadStage = "status"
	LoadStageDecode    LoadStage = "decode"
	LoadStageShape     LoadStage = "shape"
	LoadStageTransform LoadStage = "transform"
)

// LoadError is returned when the quiz document could not be fetched or understood
type LoadError struct {
	Stage LoadStage
	Err   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load quiz (%s): %v", e.Stage, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Status describes whether the quiz data is ready to be played
type Status string

const (
	StatusLoading Status = "loading"
	StatusError   Status = "error"
	StatusReady   Status = "ready"
)

// View is everything the presentation layer needs to render the screen
type View struct {
	Status   Status   `json:"status"`
	Error    string   `json:"error,omitempty"`
	Snapshot Snapshot `json:"snapshot"`
}

// QuizService defines the two player actions plus the manual reload
type QuizService interface {
	// View returns the current screen state
	View() View

	// Start begins (or restarts) a session
	Start(ctx context.Context) (Snapshot, error)

	// SubmitAnswer answers question (1-based, 0 for whichever is current);
	// nil means no answer
	SubmitAnswer(ctx context.Context, question int, answer *string) (Snapshot, error)

	// Reload fetches the quiz again and replaces the session
	Reload(ctx context.Context) error
}
