package service

import (
	"context"
	"sync"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/zizouhuweidi/quizflow/internal/domain"
	"github.com/zizouhuweidi/quizflow/internal/quiz"
	"github.com/zizouhuweidi/quizflow/internal/session"
)

// StateMessage is the message type carrying a domain.View to clients
const StateMessage = "state"

// QuizLoader loads a playable quiz set
type QuizLoader interface {
	Load(ctx context.Context) (domain.QuizSet, error)
}

// Broadcaster pushes messages to every connected client. It must not block.
type Broadcaster interface {
	Broadcast(messageType string, payload any)
}

// EventQueue accepts events for the Redis mirror. It must not block.
type EventQueue interface {
	Enqueue(event session.Event) bool
}

// Options tune the quiz service
type Options struct {
	// PlayFallback lets the player start the fallback quiz after a failed load
	PlayFallback bool

	// SessionOptions are passed to every new quiz.Session
	SessionOptions []quiz.Option

	Logger *log.Logger
}

// QuizService implements the domain.QuizService interface. It owns the load
// status and the single quiz session, and fans state changes out to clients.
type QuizService struct {
	loader QuizLoader
	hub    Broadcaster
	events EventQueue
	opts   Options
	logger *log.Logger

	reloadMu sync.Mutex

	mu      sync.RWMutex
	status  domain.Status
	loadErr error
	session *quiz.Session
}

var _ domain.QuizService = (*QuizService)(nil)

// NewQuizService creates a new quiz service. events may be nil when no
// mirror is configured.
func NewQuizService(loader QuizLoader, hub Broadcaster, events EventQueue, opts Options) *QuizService {
	logger := opts.Logger
	if logger == nil {
		logger = log.New("quiz")
	}
	return &QuizService{
		loader: loader,
		hub:    hub,
		events: events,
		opts:   opts,
		logger: logger,
		status: domain.StatusLoading,
	}
}

// View returns the current screen state
func (s *QuizService) View() domain.View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	view := domain.View{Status: s.status}
	if s.loadErr != nil {
		view.Error = s.loadErr.Error()
	}
	if s.session != nil {
		view.Snapshot = s.session.Snapshot()
	} else {
		view.Snapshot = domain.Snapshot{Phase: domain.PhaseStart, Answers: []domain.AnswerRecord{}}
	}
	return view
}

// Reload drops the current session, loads the quiz again and prepares a new
// session in the start phase. A failed load still yields a session over the
// fallback set, with the status set to error.
func (s *QuizService) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	s.mu.Lock()
	if s.session != nil {
		s.session.Close()
		s.session = nil
	}
	s.status = domain.StatusLoading
	s.loadErr = nil
	s.mu.Unlock()
	s.broadcastView()

	set, loadErr := s.loader.Load(ctx)

	status := domain.StatusReady
	errMsg := ""
	if loadErr != nil {
		status = domain.StatusError
		errMsg = loadErr.Error()
	}

	opts := append([]quiz.Option{}, s.opts.SessionOptions...)
	opts = append(opts, quiz.WithListener(s.listener(status, errMsg)))
	sess, err := quiz.NewSession(set, opts...)
	if err != nil {
		// Only reachable with a loader that returns an empty set and no error
		s.mu.Lock()
		s.status = domain.StatusError
		s.loadErr = err
		s.mu.Unlock()
		s.broadcastView()
		return err
	}

	s.mu.Lock()
	s.session = sess
	s.status = status
	s.loadErr = loadErr
	s.mu.Unlock()

	if loadErr != nil {
		s.logger.Warnf("quiz loaded from fallback: %v", loadErr)
	} else {
		s.logger.Infof("quiz ready with %d questions", set.Len())
	}

	view := s.broadcastView()
	s.enqueue(session.EventQuizLoaded, view.Snapshot)

	return loadErr
}

// Start begins (or restarts) a session
func (s *QuizService) Start(ctx context.Context) (domain.Snapshot, error) {
	sess, err := s.playable(true)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return sess.Start()
}

// SubmitAnswer answers question (0 for the current one); nil means no answer
func (s *QuizService) SubmitAnswer(ctx context.Context, question int, answer *string) (domain.Snapshot, error) {
	sess, err := s.playable(false)
	if err != nil {
		return domain.Snapshot{}, err
	}
	return sess.SubmitAnswerTo(question, answer)
}

// Close stops the current session's countdown
func (s *QuizService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session != nil {
		s.session.Close()
	}
}

// playable returns the session if the load status allows playing it. The
// fallback gate only applies to starting; a session that was started keeps
// accepting answers.
func (s *QuizService) playable(starting bool) (*quiz.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.session == nil || s.status == domain.StatusLoading {
		return nil, domain.ErrQuizUnavailable
	}
	if starting && s.status == domain.StatusError && !s.opts.PlayFallback {
		return nil, domain.ErrQuizUnavailable
	}
	return s.session, nil
}

func (s *QuizService) broadcastView() domain.View {
	view := s.View()
	if s.hub != nil {
		s.hub.Broadcast(StateMessage, view)
	}
	return view
}

// listener builds the session listener. The load status of a session never
// changes, so it is captured here instead of read under s.mu.
func (s *QuizService) listener(status domain.Status, errMsg string) quiz.Listener {
	var prev domain.Snapshot
	return func(snap domain.Snapshot) {
		if s.hub != nil {
			s.hub.Broadcast(StateMessage, domain.View{Status: status, Error: errMsg, Snapshot: snap})
		}
		if eventType := classify(prev, snap); eventType != "" {
			s.enqueue(eventType, snap)
		}
		prev = snap
	}
}

func (s *QuizService) enqueue(eventType string, snap domain.Snapshot) {
	if s.events == nil {
		return
	}
	s.events.Enqueue(session.Event{Type: eventType, Snapshot: snap, At: time.Now().UTC()})
}

// classify names the transition between two snapshots. Countdown ticks
// return "".
func classify(prev, next domain.Snapshot) string {
	switch {
	case next.Phase == domain.PhasePlaying && (prev.Phase != domain.PhasePlaying || prev.SessionID != next.SessionID):
		return session.EventSessionStarted
	case len(next.Answers) > len(prev.Answers) && next.Phase == domain.PhaseResults:
		return session.EventSessionFinished
	case len(next.Answers) > len(prev.Answers):
		return session.EventAnswerRecorded
	default:
		return ""
	}
}

