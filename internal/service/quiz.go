package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
	"github.com/aliskhannn/quizzer/internal/integrity"
	"github.com/aliskhannn/quizzer/internal/metrics"
	"github.com/aliskhannn/quizzer/internal/persistence"
	"github.com/aliskhannn/quizzer/internal/session"
	"github.com/aliskhannn/quizzer/internal/storage"
)

var (
	ErrFetchFailed    = errors.New("failed to fetch questions")
	ErrNoSession      = errors.New("no quiz session")
	ErrNotCompleted   = errors.New("quiz session is not completed")
	ErrSessionExpired = errors.New("quiz session time budget is exhausted")
	ErrSessionReset   = errors.New("quiz session was reset while questions were loading")
	ErrMissingOwner   = errors.New("missing client id")
	ErrInvalidOption  = errors.New("invalid option")
)

// Config holds session tuning parameters.
type Config struct {
	SessionBudget  time.Duration
	SnapshotTTL    time.Duration
	WarningSeconds int
	IdleTTL        time.Duration // runtimes untouched for longer are dropped from memory
}

// DefaultConfig returns the default session parameters.
func DefaultConfig() Config {
	return Config{
		SessionBudget:  persistence.DefaultBudget,
		SnapshotTTL:    persistence.DefaultTTL,
		WarningSeconds: integrity.DefaultWarningSeconds,
		IdleTTL:        2 * time.Hour,
	}
}

// QuizService runs quiz sessions for many owners. Each (quiz type, owner)
// pair gets its own Runtime.
type QuizService struct {
	source   QuestionSource
	sink     HistorySink
	kv       persistence.KV
	cache    *storage.QuestionSetStorage
	shuffler *Shuffler
	clock    session.Clock
	cfg      Config
	logger   *zap.Logger
	onEvent  EventHandler

	fetches singleflight.Group

	mu       sync.Mutex
	runtimes map[RuntimeKey]*Runtime
}

// NewQuizService creates a new QuizService.
func NewQuizService(
	source QuestionSource,
	sink HistorySink,
	kv persistence.KV,
	cache *storage.QuestionSetStorage,
	shuffler *Shuffler,
	clock session.Clock,
	cfg Config,
	logger *zap.Logger,
) *QuizService {
	if clock == nil {
		clock = session.RealClock()
	}
	if shuffler == nil {
		shuffler = NewShuffler(nil)
	}
	return &QuizService{
		source:   source,
		sink:     sink,
		kv:       kv,
		cache:    cache,
		shuffler: shuffler,
		clock:    clock,
		cfg:      cfg,
		logger:   logger,
		runtimes: make(map[RuntimeKey]*Runtime),
	}
}

// SetEventHandler sets the session event handler (called after the delivery
// layer is created, before any session runs).
func (s *QuizService) SetEventHandler(h EventHandler) {
	s.onEvent = h
}

func (s *QuizService) runtime(quizType entities.QuizType, owner string) (*Runtime, error) {
	if owner == "" {
		return nil, ErrMissingOwner
	}

	key := RuntimeKey{QuizType: quizType, Owner: owner}

	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.runtimes[key]
	if !ok {
		rt = s.newRuntime(quizType, owner)
		s.runtimes[key] = rt
	}
	rt.touch(s.clock.Now())
	return rt, nil
}

// existing returns an initialized runtime or ErrNoSession.
func (s *QuizService) existing(ctx context.Context, quizType entities.QuizType, owner string) (*Runtime, error) {
	rt, err := s.runtime(quizType, owner)
	if err != nil {
		return nil, err
	}
	if rt.store.State() == session.StateNotInitialized {
		if _, err := s.Load(ctx, owner, quizType); err != nil {
			return nil, err
		}
	}
	return rt, nil
}

func (s *QuizService) view(ctx context.Context, rt *Runtime) *View {
	return buildView(rt, rt.adapter.RemainingSessionMinutes(ctx))
}

// Prepare fetches, shuffles and persists a fresh question set for the filter.
// The session is left in the ready state.
func (s *QuizService) Prepare(ctx context.Context, owner string, filter entities.Filter) (*View, error) {
	if err := filter.Validate(-1); err != nil {
		return nil, err
	}

	rt, err := s.runtime(filter.QuizType, owner)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	rt.generation++
	gen := rt.generation
	rt.mu.Unlock()

	questions, err := s.fetch(ctx, filter)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.generation != gen {
		s.logger.Info("dropping late question set",
			zap.String("owner", owner),
			zap.String("filter", filter.Key()),
		)
		return nil, ErrSessionReset
	}

	if err := s.install(ctx, rt, filter, s.shuffler.ShuffleSession(questions)); err != nil {
		return nil, err
	}
	s.cache.Store(questionSetKey(owner, filter), questions)

	return s.view(ctx, rt), nil
}

// questionSetKey identifies the question set an owner fetched for a filter.
// Owners never replay each other's sets.
func questionSetKey(owner string, filter entities.Filter) string {
	return owner + "|" + filter.Key()
}

// fetch loads the question set for the filter. Concurrent calls for the same
// filter share one request to the source.
func (s *QuizService) fetch(ctx context.Context, filter entities.Filter) ([]entities.Question, error) {
	key := filter.Key()
	qt := string(filter.QuizType)

	v, err, shared := s.fetches.Do(key, func() (any, error) {
		available, err := s.source.Count(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("%w: count: %w", ErrFetchFailed, err)
		}
		if err := filter.Validate(available); err != nil {
			return nil, err
		}

		questions, err := s.source.Fetch(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
		}
		questions = uniqueByID(questions)
		if len(questions) < filter.Count {
			return nil, fmt.Errorf("%w: requested %d, received %d",
				entities.ErrNotEnoughQuestions, filter.Count, len(questions))
		}
		return questions[:filter.Count], nil
	})
	if err != nil {
		metrics.QuestionFetches.WithLabelValues(qt, "error").Inc()
		s.logger.Warn("question fetch failed", zap.String("filter", key), zap.Error(err))
		return nil, err
	}

	result := "ok"
	if shared {
		result = "shared"
	}
	metrics.QuestionFetches.WithLabelValues(qt, result).Inc()

	return entities.CloneQuestions(v.([]entities.Question)), nil
}

// uniqueByID drops questions whose id was already seen. A session can only
// resolve each id once.
func uniqueByID(questions []entities.Question) []entities.Question {
	seen := make(map[string]struct{}, len(questions))
	out := questions[:0:0]
	for _, q := range questions {
		if _, ok := seen[q.ID]; ok {
			continue
		}
		seen[q.ID] = struct{}{}
		out = append(out, q)
	}
	return out
}

// install replaces the runtime session with a freshly shuffled set.
// rt.mu must be held.
func (s *QuizService) install(
	ctx context.Context, rt *Runtime, filter entities.Filter, shuffled []entities.Question,
) error {
	rt.monitor.Reset()
	rt.store.ResetQuiz()

	if err := rt.adapter.ClearAll(ctx); err != nil {
		s.logger.Warn("failed to clear previous session", zap.Error(err))
	}
	if _, err := rt.adapter.Save(ctx, filter, shuffled, true); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	rt.filter = filter
	rt.store.Initialize(shuffled, filter.TimerEnabled)
	return nil
}

// Load is the page-load entry point. An attempt with at least one answer is
// resumed with the same question order; otherwise the stored set is
// reshuffled.
func (s *QuizService) Load(ctx context.Context, owner string, quizType entities.QuizType) (*View, error) {
	rt, err := s.runtime(quizType, owner)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	var liveID string
	if cur := rt.adapter.Current(); cur != nil && rt.store.State() != session.StateNotInitialized {
		liveID = cur.SessionID
	}

	snap := rt.adapter.Load(ctx)
	if snap == nil {
		if rt.store.State() == session.StateNotInitialized {
			return nil, ErrNoSession
		}
		return s.view(ctx, rt), nil
	}

	// The runtime already runs this session: its countdown and budget stand.
	if liveID != "" && liveID == snap.SessionID {
		v := s.view(ctx, rt)
		v.Resumed = snap.Resumable()
		return v, nil
	}

	rt.filter = snap.Filter
	key := questionSetKey(owner, snap.Filter)
	if _, ok := s.cache.Get(key); !ok {
		s.cache.Store(key, snap.Questions)
	}

	switch {
	case snap.Resumable(), snap.Progress != nil && snap.Progress.IsCompleted:
		rt.store.Initialize(snap.Questions, snap.Filter.TimerEnabled)
		if !rt.store.Restore(snap.Progress) {
			s.logger.Warn("stored progress does not match question set",
				zap.String("owner", owner),
				zap.String("session_id", snap.SessionID),
			)
			rt.store.ResetProgressOnly()
		}

		v := s.view(ctx, rt)
		v.Resumed = snap.Resumable()
		return v, nil

	default:
		if err := s.install(ctx, rt, snap.Filter, s.shuffler.ShuffleSession(snap.Questions)); err != nil {
			return nil, err
		}
		return s.view(ctx, rt), nil
	}
}

// Start begins the prepared session. A session whose time budget ran out is
// reset and ErrSessionExpired is returned; the next Start begins a new attempt.
func (s *QuizService) Start(ctx context.Context, owner string, quizType entities.QuizType) (*View, error) {
	rt, err := s.existing(ctx, quizType, owner)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.adapter.RemainingSessionMinutes(ctx) == 0 {
		rt.monitor.Reset()
		rt.store.ResetProgressOnly()
		if err := rt.adapter.ClearSessionStart(ctx); err != nil {
			s.logger.Warn("failed to clear session start", zap.Error(err))
		}
		return nil, ErrSessionExpired
	}

	if rt.store.Start() {
		if err := rt.adapter.MarkSessionStart(ctx); err != nil {
			s.logger.Warn("failed to mark session start", zap.Error(err))
		}
		metrics.SessionsStarted.WithLabelValues(string(quizType)).Inc()
	}

	return s.view(ctx, rt), nil
}

// Answer records the selected option value for the current question.
// accepted is false when the question was already resolved.
func (s *QuizService) Answer(
	ctx context.Context, owner string, quizType entities.QuizType, value string,
) (view *View, accepted bool, err error) {
	rt, err := s.existing(ctx, quizType, owner)
	if err != nil {
		return nil, false, err
	}

	_, accepted = rt.store.Answer(value)
	return s.view(ctx, rt), accepted, nil
}

// AnswerIndex answers with the option shown at index.
func (s *QuizService) AnswerIndex(
	ctx context.Context, owner string, quizType entities.QuizType, index int,
) (*View, bool, error) {
	rt, err := s.existing(ctx, quizType, owner)
	if err != nil {
		return nil, false, err
	}

	q, _, ok := rt.store.CurrentQuestion()
	if !ok {
		return nil, false, ErrNoSession
	}
	options := q.DisplayOptions()
	if index < 0 || index >= len(options) {
		return nil, false, fmt.Errorf("%w: index %d out of range", ErrInvalidOption, index)
	}

	return s.Answer(ctx, owner, quizType, options[index])
}

// Next moves to the following question.
func (s *QuizService) Next(ctx context.Context, owner string, quizType entities.QuizType) (*View, bool, error) {
	rt, err := s.existing(ctx, quizType, owner)
	if err != nil {
		return nil, false, err
	}

	moved := rt.store.Next()
	return s.view(ctx, rt), moved, nil
}

// Current returns the session view without changing it.
func (s *QuizService) Current(ctx context.Context, owner string, quizType entities.QuizType) (*View, error) {
	rt, err := s.existing(ctx, quizType, owner)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, rt), nil
}

// Complete reveals the results of a finished session.
func (s *QuizService) Complete(ctx context.Context, owner string, quizType entities.QuizType) (*View, error) {
	rt, err := s.existing(ctx, quizType, owner)
	if err != nil {
		return nil, err
	}

	if !rt.store.CompleteQuiz() && rt.store.State() != session.StateResultsShown {
		return nil, ErrNotCompleted
	}
	return s.view(ctx, rt), nil
}

// Results returns the compiled result and the review list for the filter.
func (s *QuizService) Results(
	ctx context.Context, owner string, quizType entities.QuizType, filter entities.ReviewFilter,
) (*entities.Result, []entities.QuestionReview, error) {
	rt, err := s.existing(ctx, quizType, owner)
	if err != nil {
		return nil, nil, err
	}

	p := rt.store.Progress()
	if p == nil || !p.IsCompleted {
		return nil, nil, ErrNotCompleted
	}

	res := rt.store.Result()
	return res, res.Review(filter), nil
}

// Signal passes an integrity signal to the session monitor.
func (s *QuizService) Signal(
	ctx context.Context, owner string, quizType entities.QuizType, sig integrity.Signal,
) (integrity.Reaction, error) {
	rt, err := s.existing(ctx, quizType, owner)
	if err != nil {
		return integrity.Reaction{}, err
	}
	return rt.monitor.Observe(sig), nil
}

// PlayAgain starts a new attempt on the same question set without fetching.
func (s *QuizService) PlayAgain(ctx context.Context, owner string, quizType entities.QuizType) (*View, error) {
	rt, err := s.existing(ctx, quizType, owner)
	if err != nil {
		return nil, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.monitor.Reset()
	rt.store.ResetProgressOnly()
	rt.generation++

	questions, ok := s.cache.Get(questionSetKey(owner, rt.filter))
	if !ok {
		questions = rt.store.Questions()
	}
	if len(questions) == 0 {
		return nil, ErrNoSession
	}

	if err := s.install(ctx, rt, rt.filter, s.shuffler.ShuffleSession(questions)); err != nil {
		return nil, err
	}
	return s.view(ctx, rt), nil
}

// Stop discards the session and all persisted state. Question sets still
// loading for it are dropped when they arrive.
func (s *QuizService) Stop(ctx context.Context, owner string, quizType entities.QuizType) error {
	rt, err := s.runtime(quizType, owner)
	if err != nil {
		return err
	}

	rt.mu.Lock()
	rt.generation++
	rt.monitor.Reset()
	rt.store.ResetQuiz()
	err = rt.adapter.ClearAll(ctx)
	rt.mu.Unlock()

	s.mu.Lock()
	if s.runtimes[RuntimeKey{QuizType: quizType, Owner: owner}] == rt {
		delete(s.runtimes, RuntimeKey{QuizType: quizType, Owner: owner})
	}
	s.mu.Unlock()
	rt.close()

	if err != nil {
		return fmt.Errorf("stop session: %w", err)
	}
	return nil
}

// SubmitHistory sends the result of a completed session to the history sink.
// Persisted session state is cleared once the sink accepts it.
func (s *QuizService) SubmitHistory(
	ctx context.Context, owner string, quizType entities.QuizType,
) (entities.SubmitResult, error) {
	rt, err := s.existing(ctx, quizType, owner)
	if err != nil {
		return entities.SubmitResult{}, err
	}

	rt.mu.Lock()
	defer rt.mu.Unlock()

	p := rt.store.Progress()
	if p == nil || !p.IsCompleted {
		return entities.SubmitResult{}, ErrNotCompleted
	}

	payload := rt.store.Result().HistoryPayload()
	res, err := s.sink.Submit(ctx, owner, payload)
	if err != nil {
		metrics.HistorySubmissions.WithLabelValues("error").Inc()
		return entities.SubmitResult{}, fmt.Errorf("submit history: %w", err)
	}
	if !res.Success {
		metrics.HistorySubmissions.WithLabelValues("rejected").Inc()
		return res, nil
	}

	metrics.HistorySubmissions.WithLabelValues("ok").Inc()

	// A submitted session is over; a second submit finds nothing to send.
	rt.generation++
	rt.monitor.Reset()
	rt.store.ResetQuiz()
	if err := rt.adapter.ClearAll(ctx); err != nil {
		s.logger.Warn("failed to clear submitted session", zap.Error(err))
	}
	return res, nil
}

// Sweep drops runtimes idle since before cutoff from memory. Their persisted
// snapshots stay in storage until they expire.
func (s *QuizService) Sweep(cutoff time.Time) int {
	s.mu.Lock()
	var idle []*Runtime
	for key, rt := range s.runtimes {
		if rt.idleSince().Before(cutoff) {
			idle = append(idle, rt)
			delete(s.runtimes, key)
		}
	}
	s.mu.Unlock()

	for _, rt := range idle {
		rt.close()
	}
	return len(idle)
}

// Active returns the number of runtimes held in memory.
func (s *QuizService) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.runtimes)
}
