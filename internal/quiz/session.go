package quiz

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/zizouhuweidi/quizflow/internal/domain"
)

// Scoring constants
const (
	basePoints     = 10 // awarded for every correct answer
	timeBonusStep  = 5  // one bonus point per this many seconds left
	streakBonusDiv = 2  // one bonus point per this many answers in the streak
)

// Points returns the score for a correct answer given the seconds left on
// the countdown and the streak including this answer.
func Points(secondsRemaining, streak int) int {
	return basePoints + secondsRemaining/timeBonusStep + streak/streakBonusDiv
}

// Listener is called with a fresh snapshot after every state change. It runs
// while the session is locked, so it must not block or call back into the
// session.
type Listener func(domain.Snapshot)

// Option configures a Session
type Option func(*Session)

// WithTicker overrides how countdown tickers are created
func WithTicker(f TickerFactory) Option {
	return func(s *Session) {
		s.newTicker = f
	}
}

// WithListener registers a listener for state changes
func WithListener(l Listener) Option {
	return func(s *Session) {
		s.listener = l
	}
}

// Session is the quiz state machine: start -> playing -> results.
// All mutations go through Start, SubmitAnswer and countdown ticks.
type Session struct {
	mu sync.Mutex

	quiz    domain.QuizSet
	id      string
	phase   domain.Phase
	index   int
	score   int
	streak  int
	seconds int
	answers []domain.AnswerRecord

	newTicker  TickerFactory
	listener   Listener
	cancel     context.CancelFunc
	generation uint64
	closed     bool
}

// NewSession creates a session in the start phase
func NewSession(quiz domain.QuizSet, opts ...Option) (*Session, error) {
	if quiz.Len() == 0 {
		return nil, domain.ErrEmptyQuizSet
	}

	s := &Session{
		quiz:      quiz,
		phase:     domain.PhaseStart,
		seconds:   domain.QuestionTime,
		answers:   []domain.AnswerRecord{},
		newTicker: NewTicker,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start resets the session and begins the first question. It is valid from
// the start and results phases.
func (s *Session) Start() (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.phase == domain.PhasePlaying {
		return s.snapshot(), domain.ErrInvalidTransition
	}

	s.id = uuid.NewString()
	s.phase = domain.PhasePlaying
	s.index = 0
	s.score = 0
	s.streak = 0
	s.seconds = domain.QuestionTime
	s.answers = []domain.AnswerRecord{}
	s.startCountdown()

	s.notify()
	return s.snapshot(), nil
}

// SubmitAnswer answers the current question. A nil answer counts as no
// answer and is always wrong.
func (s *Session) SubmitAnswer(answer *string) (domain.Snapshot, error) {
	return s.SubmitAnswerTo(0, answer)
}

// SubmitAnswerTo answers question, numbered from 1 like
// Snapshot.QuestionNumber. An answer meant for a question that is no longer
// current, because the countdown moved on, is rejected. Zero accepts
// whichever question is current.
func (s *Session) SubmitAnswerTo(question int, answer *string) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.phase != domain.PhasePlaying || s.index >= s.quiz.Len() {
		return s.snapshot(), domain.ErrInvalidTransition
	}
	if question != 0 && question != s.index+1 {
		return s.snapshot(), domain.ErrInvalidTransition
	}

	s.submit(answer)
	s.notify()
	return s.snapshot(), nil
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Close stops the countdown. The session accepts no transitions afterwards.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopCountdown()
	s.closed = true
}

// submit scores the current question and advances. Must be called with
// s.mu held and the session playing.
func (s *Session) submit(answer *string) {
	q := s.quiz.Questions[s.index]

	// An empty correct answer means the source marked no option correct;
	// nothing can match it.
	isCorrect := answer != nil && q.CorrectAnswer != "" && *answer == q.CorrectAnswer

	if isCorrect {
		s.streak++
		// Time bonus uses the countdown before it is reset, streak bonus
		// the streak after it was incremented.
		s.score += Points(s.seconds, s.streak)
	} else {
		s.streak = 0
	}

	var selected *string
	if answer != nil {
		v := *answer
		selected = &v
	}
	s.answers = append(s.answers, domain.AnswerRecord{
		QuestionText:   q.Text,
		SelectedAnswer: selected,
		CorrectAnswer:  q.CorrectAnswer,
		IsCorrect:      isCorrect,
	})

	if s.index+1 < s.quiz.Len() {
		s.index++
		s.seconds = domain.QuestionTime
		s.startCountdown()
		return
	}

	s.phase = domain.PhaseResults
	s.stopCountdown()
}

func (s *Session) notify() {
	if s.listener != nil {
		s.listener(s.snapshot())
	}
}

func (s *Session) snapshot() domain.Snapshot {
	snap := domain.Snapshot{
		SessionID:        s.id,
		Phase:            s.phase,
		TotalQuestions:   s.quiz.Len(),
		Score:            s.score,
		Streak:           s.streak,
		SecondsRemaining: s.seconds,
		Answers:          make([]domain.AnswerRecord, len(s.answers)),
	}
	copy(snap.Answers, s.answers)

	switch s.phase {
	case domain.PhasePlaying:
		q := s.quiz.Questions[s.index]
		options := make([]string, len(q.Options))
		copy(options, q.Options)
		snap.QuestionNumber = s.index + 1
		snap.Question = &domain.Question{Text: q.Text, Options: options}
	case domain.PhaseResults:
		snap.Verdict = domain.VerdictFor(s.score)
	}

	return snap
}
