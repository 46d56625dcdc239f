package quiz

import (
	"context"
	"time"

	"github.com/zizouhuweidi/quizflow/internal/domain"
)

// tickInterval is how often the countdown decrements
const tickInterval = 1 * time.Second

// Ticker delivers countdown ticks
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFactory creates a Ticker firing every d
type TickerFactory func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// NewTicker wraps time.NewTicker
func NewTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

// startCountdown replaces any running countdown with a fresh one for the
// current question. Must be called with s.mu held.
func (s *Session) startCountdown() {
	s.stopCountdown()

	s.generation++
	gen := s.generation

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	ticker := s.newTicker(tickInterval)
	go s.runCountdown(ctx, ticker, gen)
}

// stopCountdown cancels the running countdown, if any. Must be called with s.mu held.
func (s *Session) stopCountdown() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	// Bumping the generation makes ticks already in flight stale.
	s.generation++
}

func (s *Session) runCountdown(ctx context.Context, ticker Ticker, gen uint64) {
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			if !s.tick(gen) {
				return
			}
		}
	}
}

// tick applies one countdown step. It returns false once the countdown
// that produced it is no longer current.
func (s *Session) tick(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation || s.phase != domain.PhasePlaying {
		return false
	}

	if s.seconds > 0 {
		s.seconds--
	}

	if s.seconds == 0 {
		// Time is up: behave as if the player gave no answer. submit
		// starts the next question's countdown or stops it on the last one.
		s.submit(nil)
		s.notify()
		return false
	}

	s.notify()
	return true
}
