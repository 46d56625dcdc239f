package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/labstack/gommon/log"
	"github.com/zizouhuweidi/quizflow/internal/domain"
	"github.com/zizouhuweidi/quizflow/internal/validation"
)

// Loader turns a quiz source into a playable QuizSet. It never leaves the
// caller without questions: on failure it returns the fallback set together
// with the error.
type Loader struct {
	source domain.QuizSource
	logger *log.Logger
}

// New creates a loader reading from source
func New(source domain.QuizSource, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.New("loader")
	}
	return &Loader{
		source: source,
		logger: logger,
	}
}

// Load fetches and normalizes the quiz. A non-nil error means the returned
// set is the fallback; the error is always a *domain.LoadError.
func (l *Loader) Load(ctx context.Context) (domain.QuizSet, error) {
	set, err := l.load(ctx)
	if err != nil {
		var loadErr *domain.LoadError
		if !errors.As(err, &loadErr) {
			err = &domain.LoadError{Stage: domain.LoadStageFetch, Err: err}
		}
		l.logger.Errorf("using fallback quiz: %v", err)
		return Fallback(), err
	}

	for _, issue := range validation.CheckQuizSet(set) {
		l.logger.Warnf("question %d: %s", issue.Question+1, issue.Message)
	}
	l.logger.Infof("loaded %d questions", set.Len())

	return set, nil
}

func (l *Loader) load(ctx context.Context) (domain.QuizSet, error) {
	doc, err := l.source.Fetch(ctx)
	if err != nil {
		return domain.QuizSet{}, err
	}
	return Transform(doc)
}

// Transform converts a served document into the canonical question shape.
// A question without any option marked correct gets an empty correct answer.
func Transform(doc *domain.QuizDocument) (domain.QuizSet, error) {
	if doc == nil {
		return domain.QuizSet{}, &domain.LoadError{Stage: domain.LoadStageShape, Err: errors.New("no document")}
	}
	if len(doc.Questions) == 0 {
		return domain.QuizSet{}, &domain.LoadError{Stage: domain.LoadStageShape, Err: domain.ErrEmptyQuizSet}
	}

	questions := make([]domain.Question, 0, len(doc.Questions))
	for i, dq := range doc.Questions {
		if dq.Options == nil {
			return domain.QuizSet{}, &domain.LoadError{
				Stage: domain.LoadStageTransform,
				Err:   fmt.Errorf("question %d has no options list", i+1),
			}
		}

		options := make([]string, 0, len(dq.Options))
		for _, opt := range dq.Options {
			options = append(options, opt.Description)
		}

		questions = append(questions, domain.Question{
			Text:          dq.Description,
			Options:       options,
			CorrectAnswer: firstCorrect(dq.Options),
		})
	}

	return domain.QuizSet{Questions: questions}, nil
}

func firstCorrect(options []domain.DocumentOption) string {
	for _, opt := range options {
		if opt.IsCorrect {
			return opt.Description
		}
	}
	return ""
}
