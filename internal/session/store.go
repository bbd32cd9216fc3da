// Package session implements the quiz session state machine: lifecycle,
// question cursor, per-question countdown and the answer log.
package session

import (
	"math"
	"sync"
	"time"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
)

// State is the lifecycle state of a session.
type State int

const (
	StateNotInitialized State = iota
	StateReady                // questions loaded, not started (fresh or resumed)
	StateInProgress
	StateFinished     // completed, results hidden
	StateResultsShown // completed, results revealed
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StateInProgress:
		return "in_progress"
	case StateFinished:
		return "finished"
	case StateResultsShown:
		return "results_shown"
	default:
		return "not_initialized"
	}
}

// EventKind identifies a store notification.
type EventKind string

const (
	EventTick      EventKind = "tick"
	EventAnswered  EventKind = "answered"
	EventTimedOut  EventKind = "timed_out"
	EventAdvanced  EventKind = "advanced"
	EventCompleted EventKind = "completed"
	EventReset     EventKind = "reset"
)

// Event is emitted after a state transition, outside the store lock.
type Event struct {
	Kind      EventKind
	Index     int              // question index the event refers to
	Remaining int              // seconds left, for EventTick
	Answer    *entities.Answer // for EventAnswered and EventTimedOut
}

// Listener receives store events. Listeners may call back into the store.
type Listener func(Event)

// ProgressSink persists progress. It is called synchronously, under the store
// lock, after every progress mutation and must not call back into the store.
type ProgressSink func(p *entities.Progress)

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock driving countdowns.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithListener subscribes l to store events.
func WithListener(l Listener) Option {
	return func(s *Store) { s.listeners = append(s.listeners, l) }
}

// WithProgressSink sets the progress persistence hook.
func WithProgressSink(fn ProgressSink) Option {
	return func(s *Store) { s.sink = fn }
}

// Store holds one quiz session. It is safe for concurrent use.
type Store struct {
	mu sync.Mutex

	clock     Clock
	listeners []Listener
	sink      ProgressSink

	state        State
	questions    []entities.Question
	timerEnabled bool
	progress     *entities.Progress

	questionStartedAt time.Time
	countdown         *countdown
	token             uint64

	pending []Event
}

// NewStore creates an empty, not initialized store.
func NewStore(opts ...Option) *Store {
	s := &Store{clock: RealClock()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe adds a listener.
func (s *Store) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Initialize loads a question set. Existing in-progress progress is kept when
// the same ordered set is loaded again, otherwise progress starts fresh.
// Empty input is ignored.
func (s *Store) Initialize(questions []entities.Question, timerEnabled bool) {
	if len(questions) == 0 {
		return
	}

	s.mu.Lock()
	defer s.unlockAndEmit()

	s.cancelCountdownLocked()

	resume := s.progress.InProgress() && entities.SameOrder(s.questions, questions)
	if resume {
		s.progress.CurrentQuestionIndex = len(s.progress.Answers)
	} else {
		s.progress = entities.NewProgress()
	}

	s.questions = entities.CloneQuestions(questions)
	s.timerEnabled = timerEnabled
	s.state = StateReady
}

// Restore hydrates progress loaded from durable storage. Progress that does
// not match the loaded question order is discarded.
func (s *Store) Restore(p *entities.Progress) bool {
	s.mu.Lock()
	defer s.unlockAndEmit()

	if len(s.questions) == 0 || p == nil || !s.consistentLocked(p) {
		return false
	}

	s.cancelCountdownLocked()
	s.progress = p.Clone()

	if s.progress.IsCompleted {
		s.progress.CurrentQuestionIndex = len(s.questions) - 1
		s.state = StateFinished
		return true
	}

	// The cursor always lands on the first unresolved question.
	s.progress.CurrentQuestionIndex = len(s.progress.Answers)
	s.state = StateReady
	return true
}

// Start begins the session and the countdown of the current question.
func (s *Store) Start() bool {
	s.mu.Lock()
	defer s.unlockAndEmit()

	if s.state != StateReady {
		return false
	}

	s.state = StateInProgress
	s.questionStartedAt = s.clock.Now()
	s.startCountdownLocked()
	return true
}

// Answer records the selected option value for the current question. It
// returns false when the question was already resolved or the session is not
// running.
func (s *Store) Answer(selected string) (entities.Answer, bool) {
	s.mu.Lock()
	defer s.unlockAndEmit()

	q, ok := s.unresolvedLocked()
	if !ok {
		return entities.Answer{}, false
	}

	// Cancel first so a tick racing with this answer can no longer time out.
	s.cancelCountdownLocked()

	spent := s.elapsedLocked()
	if s.timerEnabled {
		spent = min(spent, entities.TimeLimit(q.Difficulty))
	}

	a := entities.Answer{
		QuestionID:     q.ID,
		SelectedAnswer: selected,
		IsCorrect:      q.IsCorrect(selected),
		TimeSpent:      spent,
	}
	s.resolveLocked(a, EventAnswered)
	return a, true
}

// Timeout resolves the current question as timed out. It is a no-op when the
// timer is disabled or the question was already resolved.
func (s *Store) Timeout() bool {
	s.mu.Lock()
	defer s.unlockAndEmit()

	return s.timeoutLocked()
}

// Next moves to the following question once the current one is resolved.
func (s *Store) Next() bool {
	s.mu.Lock()
	defer s.unlockAndEmit()

	if s.state != StateInProgress {
		return false
	}

	idx := s.progress.CurrentQuestionIndex
	if len(s.progress.Answers) <= idx || idx+1 >= len(s.questions) {
		return false
	}

	s.progress.CurrentQuestionIndex++
	s.questionStartedAt = s.clock.Now()
	s.startCountdownLocked()

	s.pending = append(s.pending, Event{Kind: EventAdvanced, Index: s.progress.CurrentQuestionIndex})
	s.persistLocked()
	return true
}

// ResetProgressOnly drops the answer log but keeps the loaded questions.
func (s *Store) ResetProgressOnly() {
	s.mu.Lock()
	defer s.unlockAndEmit()

	s.cancelCountdownLocked()
	s.progress = entities.NewProgress()
	if len(s.questions) > 0 {
		s.state = StateReady
	} else {
		s.state = StateNotInitialized
	}

	s.pending = append(s.pending, Event{Kind: EventReset})
	s.persistLocked()
}

// ResetQuiz clears progress and the question set. Callers pair it with
// clearing persisted state.
func (s *Store) ResetQuiz() {
	s.mu.Lock()
	defer s.unlockAndEmit()

	s.cancelCountdownLocked()
	s.progress = nil
	s.questions = nil
	s.timerEnabled = false
	s.state = StateNotInitialized

	s.pending = append(s.pending, Event{Kind: EventReset})
}

// CompleteQuiz reveals the results of a finished session.
func (s *Store) CompleteQuiz() bool {
	s.mu.Lock()
	defer s.unlockAndEmit()

	if s.state != StateFinished {
		return false
	}
	s.state = StateResultsShown
	return true
}

// Close cancels the running countdown.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.unlockAndEmit()

	s.cancelCountdownLocked()
}

// State returns the lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Progress returns a copy of the current progress, nil when not initialized.
func (s *Store) Progress() *entities.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress.Clone()
}

// Questions returns a copy of the loaded question set.
func (s *Store) Questions() []entities.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return entities.CloneQuestions(s.questions)
}

// TimerEnabled reports whether questions expire.
func (s *Store) TimerEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timerEnabled
}

// CurrentQuestion returns the question under the cursor.
func (s *Store) CurrentQuestion() (entities.Question, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.progress == nil || len(s.questions) == 0 {
		return entities.Question{}, 0, false
	}
	idx := s.progress.CurrentQuestionIndex
	return s.questions[idx].Clone(), idx, true
}

// RemainingSeconds returns the seconds left on the current question, or
// entities.NoLimit when the timer is disabled.
func (s *Store) RemainingSeconds() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.timerEnabled {
		return entities.NoLimit
	}
	if s.countdown != nil {
		return s.countdown.remaining
	}
	if q, ok := s.currentLocked(); ok && s.state == StateReady {
		return entities.TimeLimit(q.Difficulty)
	}
	return 0
}

// Result compiles the current answer log against the question set.
func (s *Store) Result() *entities.Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.questions) == 0 || s.progress == nil {
		return nil
	}
	answers := make([]entities.Answer, len(s.progress.Answers))
	copy(answers, s.progress.Answers)
	return entities.CompileResult(s.questions, answers)
}

func (s *Store) timeoutLocked() bool {
	if !s.timerEnabled {
		return false
	}

	q, ok := s.unresolvedLocked()
	if !ok {
		return false
	}

	s.cancelCountdownLocked()

	a := entities.Answer{
		QuestionID: q.ID,
		IsTimeout:  true,
		TimeSpent:  entities.TimeLimit(q.Difficulty),
	}
	s.resolveLocked(a, EventTimedOut)
	return true
}

func (s *Store) resolveLocked(a entities.Answer, kind EventKind) {
	idx := s.progress.CurrentQuestionIndex
	s.progress.Record(a)
	s.pending = append(s.pending, Event{Kind: kind, Index: idx, Answer: &a})

	if len(s.progress.Answers) == len(s.questions) {
		s.progress.IsCompleted = true
		score := entities.CompileResult(s.questions, s.progress.Answers).Score
		s.progress.Score = &score
		s.state = StateFinished
		s.pending = append(s.pending, Event{Kind: EventCompleted, Index: idx})
	}

	s.persistLocked()
}

// unresolvedLocked returns the current question if the session is running
// and the question has no answer yet.
func (s *Store) unresolvedLocked() (entities.Question, bool) {
	if s.state != StateInProgress {
		return entities.Question{}, false
	}

	idx := s.progress.CurrentQuestionIndex
	if len(s.progress.Answers) != idx || idx >= len(s.questions) {
		return entities.Question{}, false
	}

	q := s.questions[idx]
	if s.progress.HasAnswer(q.ID) {
		return entities.Question{}, false
	}
	return q, true
}

func (s *Store) currentLocked() (entities.Question, bool) {
	if s.progress == nil || s.progress.CurrentQuestionIndex >= len(s.questions) {
		return entities.Question{}, false
	}
	return s.questions[s.progress.CurrentQuestionIndex], true
}

func (s *Store) consistentLocked(p *entities.Progress) bool {
	if len(p.Answers) > len(s.questions) {
		return false
	}
	for i, a := range p.Answers {
		if a.QuestionID != s.questions[i].ID {
			return false
		}
	}
	if p.IsCompleted && len(p.Answers) != len(s.questions) {
		return false
	}
	return true
}

func (s *Store) elapsedLocked() int {
	if s.questionStartedAt.IsZero() {
		return 0
	}
	d := s.clock.Now().Sub(s.questionStartedAt)
	if d < 0 {
		return 0
	}
	return int(math.Round(d.Seconds()))
}

func (s *Store) startCountdownLocked() {
	s.cancelCountdownLocked()

	q, ok := s.currentLocked()
	if !ok || !s.timerEnabled || len(s.progress.Answers) > s.progress.CurrentQuestionIndex {
		return
	}

	s.token++
	cd := &countdown{
		token:     s.token,
		remaining: entities.TimeLimit(q.Difficulty),
	}
	s.countdown = cd
	s.scheduleTickLocked(cd)
}

func (s *Store) scheduleTickLocked(cd *countdown) {
	token := cd.token
	cd.timer = s.clock.AfterFunc(time.Second, func() { s.tick(token) })
}

func (s *Store) tick(token uint64) {
	s.mu.Lock()
	defer s.unlockAndEmit()

	cd := s.countdown
	if cd == nil || cd.token != token || s.state != StateInProgress {
		return
	}

	cd.remaining--
	if cd.remaining <= 0 {
		s.timeoutLocked()
		return
	}

	s.pending = append(s.pending, Event{
		Kind:      EventTick,
		Index:     s.progress.CurrentQuestionIndex,
		Remaining: cd.remaining,
	})
	s.scheduleTickLocked(cd)
}

func (s *Store) cancelCountdownLocked() {
	if s.countdown == nil {
		return
	}
	s.countdown.stop()
	s.countdown = nil
	s.token++
}

func (s *Store) persistLocked() {
	if s.sink != nil && s.progress != nil {
		s.sink(s.progress.Clone())
	}
}

func (s *Store) unlockAndEmit() {
	events := s.pending
	s.pending = nil
	listeners := append([]Listener(nil), s.listeners...)
	s.mu.Unlock()

	for _, ev := range events {
		for _, l := range listeners {
			l(ev)
		}
	}
}
