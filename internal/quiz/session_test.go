package quiz

import (
	"errors"
	"testing"
	"time"

	"github.com/zizouhuweidi/quizflow/internal/domain"
)

// manualTicker only fires when the test sends on it
type manualTicker struct {
	c       chan time.Time
	stopped chan struct{}
}

func (t *manualTicker) C() <-chan time.Time { return t.c }
func (t *manualTicker) Stop() {
	select {
	case <-t.stopped:
	default:
		close(t.stopped)
	}
}

// tickerRecorder hands out manual tickers and remembers them in creation order
type tickerRecorder struct {
	created chan *manualTicker
}

func newTickerRecorder() *tickerRecorder {
	return &tickerRecorder{created: make(chan *manualTicker, 64)}
}

func (r *tickerRecorder) factory(time.Duration) Ticker {
	t := &manualTicker{c: make(chan time.Time), stopped: make(chan struct{})}
	r.created <- t
	return t
}

func (r *tickerRecorder) next(t *testing.T) *manualTicker {
	t.Helper()
	select {
	case tk := <-r.created:
		return tk
	case <-time.After(time.Second):
		t.Fatalf("no ticker created")
		return nil
	}
}

func testQuiz() domain.QuizSet {
	return domain.QuizSet{Questions: []domain.Question{
		{Text: "Q1", Options: []string{"a", "b"}, CorrectAnswer: "a"},
		{Text: "Q2", Options: []string{"c", "d"}, CorrectAnswer: "d"},
		{Text: "Q3", Options: []string{"e", "f"}, CorrectAnswer: "e"},
	}}
}

func str(s string) *string { return &s }

func newTestSession(t *testing.T, quiz domain.QuizSet, opts ...Option) *Session {
	t.Helper()
	rec := newTickerRecorder()
	opts = append([]Option{WithTicker(rec.factory)}, opts...)
	s, err := NewSession(quiz, opts...)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestNewSessionRejectsEmptyQuiz(t *testing.T) {
	if _, err := NewSession(domain.QuizSet{}); !errors.Is(err, domain.ErrEmptyQuizSet) {
		t.Fatalf("expected ErrEmptyQuizSet, got %v", err)
	}
}

func TestPoints(t *testing.T) {
	cases := []struct {
		seconds, streak, want int
	}{
		{27, 2, 16},
		{30, 1, 16},
		{4, 1, 10},
		{0, 5, 12},
		{15, 4, 15},
	}
	for _, tc := range cases {
		if got := Points(tc.seconds, tc.streak); got != tc.want {
			t.Fatalf("Points(%d, %d) = %d, want %d", tc.seconds, tc.streak, got, tc.want)
		}
	}
}

func TestStartResetsState(t *testing.T) {
	s := newTestSession(t, testQuiz())

	snap := s.Snapshot()
	if snap.Phase != domain.PhaseStart || snap.Question != nil {
		t.Fatalf("unexpected initial snapshot: %+v", snap)
	}

	snap, err := s.Start()
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if snap.Phase != domain.PhasePlaying || snap.QuestionNumber != 1 || snap.SecondsRemaining != domain.QuestionTime {
		t.Fatalf("unexpected playing snapshot: %+v", snap)
	}
	if snap.Question == nil || snap.Question.Text != "Q1" {
		t.Fatalf("expected first question, got %+v", snap.Question)
	}
	if snap.Question.CorrectAnswer != "" {
		t.Fatalf("snapshot leaks the correct answer")
	}
	if snap.SessionID == "" {
		t.Fatalf("expected a session id")
	}
}

func TestStartWhilePlayingIsInvalid(t *testing.T) {
	s := newTestSession(t, testQuiz())
	if _, err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := s.SubmitAnswer(str("a")); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}

	before := s.Snapshot()
	if _, err := s.Start(); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	after := s.Snapshot()
	if after.Score != before.Score || after.QuestionNumber != before.QuestionNumber || len(after.Answers) != 1 {
		t.Fatalf("state changed on invalid start: %+v", after)
	}
}

func TestSubmitOutsidePlayingIsInvalid(t *testing.T) {
	s := newTestSession(t, testQuiz())
	if _, err := s.SubmitAnswer(str("a")); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition in start phase, got %v", err)
	}
	if got := s.Snapshot(); len(got.Answers) != 0 || got.Phase != domain.PhaseStart {
		t.Fatalf("state changed: %+v", got)
	}
}

func TestNAnswersReachResults(t *testing.T) {
	quiz := testQuiz()
	s := newTestSession(t, quiz)
	if _, err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	selections := []*string{str("a"), nil, str("f")}
	var snap domain.Snapshot
	for i, sel := range selections {
		var err error
		snap, err = s.SubmitAnswer(sel)
		if err != nil {
			t.Fatalf("SubmitAnswer %d: %v", i, err)
		}
		if i < len(selections)-1 && snap.Phase != domain.PhasePlaying {
			t.Fatalf("left playing early after answer %d", i)
		}
	}

	if snap.Phase != domain.PhaseResults {
		t.Fatalf("expected results, got %s", snap.Phase)
	}
	if len(snap.Answers) != quiz.Len() {
		t.Fatalf("expected %d answers, got %d", quiz.Len(), len(snap.Answers))
	}
	for i, rec := range snap.Answers {
		if rec.QuestionText != quiz.Questions[i].Text {
			t.Fatalf("answer %d out of order: %q", i, rec.QuestionText)
		}
		if rec.CorrectAnswer != quiz.Questions[i].CorrectAnswer {
			t.Fatalf("answer %d has correct answer %q", i, rec.CorrectAnswer)
		}
	}
	if !snap.Answers[0].IsCorrect || snap.Answers[1].IsCorrect || snap.Answers[2].IsCorrect {
		t.Fatalf("unexpected correctness: %+v", snap.Answers)
	}
	if snap.Answers[1].SelectedAnswer != nil {
		t.Fatalf("expected nil selection for skipped question")
	}
	if snap.Question != nil || snap.QuestionNumber != 0 {
		t.Fatalf("results snapshot should not carry a question")
	}

	if _, err := s.SubmitAnswer(str("a")); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition in results, got %v", err)
	}
}

func TestScoringUsesIncrementedStreakAndCurrentSeconds(t *testing.T) {
	s := newTestSession(t, testQuiz())
	if _, err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// First answer with the full 30 seconds: 10 + 6 + 0.
	snap, _ := s.SubmitAnswer(str("a"))
	if snap.Score != 16 || snap.Streak != 1 {
		t.Fatalf("after first answer score=%d streak=%d", snap.Score, snap.Streak)
	}

	// Three ticks bring the countdown to 27; streak becomes 2: 10 + 5 + 1.
	for i := 0; i < 3; i++ {
		s.tick(s.generation)
	}
	if got := s.Snapshot().SecondsRemaining; got != 27 {
		t.Fatalf("expected 27 seconds, got %d", got)
	}
	snap, _ = s.SubmitAnswer(str("d"))
	if snap.Score != 32 || snap.Streak != 2 {
		t.Fatalf("after second answer score=%d streak=%d", snap.Score, snap.Streak)
	}
	if snap.SecondsRemaining != domain.QuestionTime {
		t.Fatalf("countdown not reset: %d", snap.SecondsRemaining)
	}

	snap, _ = s.SubmitAnswer(str("f"))
	if snap.Score != 32 || snap.Streak != 0 {
		t.Fatalf("wrong answer changed score: score=%d streak=%d", snap.Score, snap.Streak)
	}
}

func TestTimeoutSubmitsNullAnswer(t *testing.T) {
	quiz := domain.QuizSet{Questions: []domain.Question{
		{Text: "Q1", Options: []string{"a", "b"}, CorrectAnswer: "a"},
		{Text: "Q2", Options: []string{"a", "b"}, CorrectAnswer: "a"},
		{Text: "Q3", Options: []string{"a", "b"}, CorrectAnswer: "a"},
		{Text: "Q4", Options: []string{"a", "b"}, CorrectAnswer: "a"},
		{Text: "Q5", Options: []string{"a", "b"}, CorrectAnswer: "a"},
	}}
	s := newTestSession(t, quiz)
	if _, err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := s.SubmitAnswer(str("a")); err != nil {
			t.Fatalf("SubmitAnswer: %v", err)
		}
	}
	before := s.Snapshot()
	if before.Streak != 3 {
		t.Fatalf("expected streak 3, got %d", before.Streak)
	}

	gen := s.generation
	for i := 0; i < domain.QuestionTime-1; i++ {
		if !s.tick(gen) {
			t.Fatalf("countdown ended early at tick %d", i)
		}
	}
	if s.tick(gen) {
		t.Fatalf("countdown should end when it reaches zero")
	}

	after := s.Snapshot()
	if after.Streak != 0 || after.Score != before.Score {
		t.Fatalf("timeout changed score or kept streak: %+v", after)
	}
	if len(after.Answers) != 4 {
		t.Fatalf("expected 4 answers, got %d", len(after.Answers))
	}
	last := after.Answers[3]
	if last.SelectedAnswer != nil || last.IsCorrect {
		t.Fatalf("expected null incorrect record, got %+v", last)
	}
	if after.QuestionNumber != 5 || after.SecondsRemaining != domain.QuestionTime {
		t.Fatalf("expected fresh countdown on question 5, got %+v", after)
	}
}

func TestLateAnswerAfterTimeoutIsRejected(t *testing.T) {
	s := newTestSession(t, testQuiz())
	if _, err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	gen := s.generation
	for i := 0; i < domain.QuestionTime; i++ {
		s.tick(gen)
	}
	before := s.Snapshot()
	if before.QuestionNumber != 2 || len(before.Answers) != 1 {
		t.Fatalf("expected timeout to move to question 2, got %+v", before)
	}

	// the player picked "a" for question 1 just as its countdown ran out
	after, err := s.SubmitAnswerTo(1, str("a"))
	if !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if len(after.Answers) != 1 || after.QuestionNumber != 2 || after.Score != 0 {
		t.Fatalf("late answer changed state: %+v", after)
	}

	snap, err := s.SubmitAnswerTo(2, str("d"))
	if err != nil {
		t.Fatalf("SubmitAnswerTo: %v", err)
	}
	if last := snap.Answers[len(snap.Answers)-1]; last.QuestionText != "Q2" || !last.IsCorrect {
		t.Fatalf("answer for question 2 recorded as %+v", last)
	}
}

func TestStaleTicksAreIgnored(t *testing.T) {
	s := newTestSession(t, testQuiz())
	if _, err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	firstQuestion := s.generation
	if _, err := s.SubmitAnswer(str("a")); err != nil {
		t.Fatalf("SubmitAnswer: %v", err)
	}
	if s.tick(firstQuestion) {
		t.Fatalf("tick from the previous question was accepted")
	}
	if got := s.Snapshot().SecondsRemaining; got != domain.QuestionTime {
		t.Fatalf("stale tick changed countdown to %d", got)
	}

	current := s.generation
	s.SubmitAnswer(str("d"))
	s.SubmitAnswer(str("e"))
	if s.tick(current) {
		t.Fatalf("tick accepted in results phase")
	}
	if got := s.Snapshot(); got.Phase != domain.PhaseResults || len(got.Answers) != 3 {
		t.Fatalf("results state changed: %+v", got)
	}
}

func TestRestartFromResults(t *testing.T) {
	s := newTestSession(t, testQuiz())
	s.Start()
	s.SubmitAnswer(str("a"))
	s.SubmitAnswer(str("d"))
	first, _ := s.SubmitAnswer(str("e"))
	if first.Phase != domain.PhaseResults || first.Score == 0 {
		t.Fatalf("unexpected first run: %+v", first)
	}

	snap, err := s.Start()
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if snap.Score != 0 || snap.Streak != 0 || snap.QuestionNumber != 1 ||
		snap.SecondsRemaining != domain.QuestionTime || len(snap.Answers) != 0 {
		t.Fatalf("restart did not reset: %+v", snap)
	}
	if snap.SessionID == first.SessionID {
		t.Fatalf("restart should issue a new session id")
	}
}

func TestEmptyCorrectAnswerNeverMatches(t *testing.T) {
	quiz := domain.QuizSet{Questions: []domain.Question{
		{Text: "Nobody is right", Options: []string{"", "x"}, CorrectAnswer: ""},
	}}
	for _, sel := range []*string{str(""), str("x"), nil} {
		s := newTestSession(t, quiz)
		s.Start()
		snap, err := s.SubmitAnswer(sel)
		if err != nil {
			t.Fatalf("SubmitAnswer: %v", err)
		}
		if snap.Answers[0].IsCorrect || snap.Score != 0 {
			t.Fatalf("selection %v scored on an empty correct answer", sel)
		}
	}
}

func TestVerdict(t *testing.T) {
	s := newTestSession(t, testQuiz())
	s.Start()
	s.SubmitAnswer(str("a"))
	s.SubmitAnswer(str("d"))
	snap, _ := s.SubmitAnswer(str("e"))
	// 16 + 17 + 17
	if snap.Score != 50 || snap.Verdict != domain.VerdictGood {
		t.Fatalf("score=%d verdict=%s", snap.Score, snap.Verdict)
	}
}

func TestCountdownRunsOnTicker(t *testing.T) {
	rec := newTickerRecorder()
	changes := make(chan domain.Snapshot, 128)
	s, err := NewSession(testQuiz(),
		WithTicker(rec.factory),
		WithListener(func(snap domain.Snapshot) { changes <- snap }),
	)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	defer s.Close()

	s.Start()
	<-changes
	first := rec.next(t)

	for i := 0; i < domain.QuestionTime; i++ {
		first.c <- time.Now()
		<-changes
	}

	snap := s.Snapshot()
	if snap.QuestionNumber != 2 || len(snap.Answers) != 1 || snap.Answers[0].SelectedAnswer != nil {
		t.Fatalf("timeout did not advance: %+v", snap)
	}

	select {
	case <-first.stopped:
	case <-time.After(time.Second):
		t.Fatalf("first question's ticker was not stopped")
	}

	second := rec.next(t)
	s.SubmitAnswer(str("d"))
	<-changes
	select {
	case <-second.stopped:
	case <-time.After(time.Second):
		t.Fatalf("second question's ticker was not stopped")
	}
}

func TestCloseStopsCountdown(t *testing.T) {
	rec := newTickerRecorder()
	s, _ := NewSession(testQuiz(), WithTicker(rec.factory))
	s.Start()
	tk := rec.next(t)

	s.Close()
	select {
	case <-tk.stopped:
	case <-time.After(time.Second):
		t.Fatalf("ticker not stopped on close")
	}
	if _, err := s.Start(); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("closed session accepted start: %v", err)
	}
}
