package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
)

const (
	// DefaultBudget is the wall-clock budget of one session.
	DefaultBudget = 60 * time.Minute
	// DefaultTTL is how long an untouched snapshot is kept.
	DefaultTTL = 24 * time.Hour
)

// ErrNoSnapshot is returned when progress is saved before any snapshot.
var ErrNoSnapshot = errors.New("no session snapshot")

// Key builds the storage key of a session value. Each quiz type has its own
// namespace.
func Key(quizType entities.QuizType, owner, name string) string {
	return fmt.Sprintf("quizzer:%s:%s:%s", quizType, owner, name)
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithTTL sets the snapshot expiration.
func WithTTL(ttl time.Duration) Option {
	return func(a *Adapter) { a.ttl = ttl }
}

// WithBudget sets the session wall-clock budget.
func WithBudget(d time.Duration) Option {
	return func(a *Adapter) { a.budget = d }
}

// WithNow overrides the time source.
func WithNow(now func() time.Time) Option {
	return func(a *Adapter) { a.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) { a.log = l }
}

// Adapter persists the snapshot of one (quiz type, owner) session.
type Adapter struct {
	kv       KV
	quizType entities.QuizType
	owner    string

	ttl    time.Duration
	budget time.Duration
	now    func() time.Time
	log    *zap.Logger

	mu      sync.Mutex
	current *entities.Snapshot
}

// NewAdapter creates an Adapter for the given quiz type and owner.
func NewAdapter(kv KV, quizType entities.QuizType, owner string, opts ...Option) *Adapter {
	a := &Adapter{
		kv:       kv,
		quizType: quizType,
		owner:    owner,
		ttl:      DefaultTTL,
		budget:   DefaultBudget,
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Adapter) snapshotKey() string {
	return Key(a.quizType, a.owner, "snapshot")
}

func (a *Adapter) startedAtKey() string {
	return Key(a.quizType, a.owner, "started_at")
}

// Save writes a new snapshot for the question set. Any stored progress is
// dropped.
func (a *Adapter) Save(
	ctx context.Context, filter entities.Filter, questions []entities.Question, fresh bool,
) (*entities.Snapshot, error) {
	snap := &entities.Snapshot{
		Version:      entities.SnapshotVersion,
		SessionID:    uuid.NewString(),
		QuizType:     a.quizType,
		Filter:       filter,
		Questions:    entities.CloneQuestions(questions),
		FreshShuffle: fresh,
		CreatedAt:    a.now().UTC(),
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.writeLocked(ctx, snap); err != nil {
		return nil, err
	}
	a.current = snap
	return snap, nil
}

// Load returns the stored snapshot or nil. Storage errors, corrupt data and
// snapshots of another schema version are logged and treated as absent.
func (a *Adapter) Load(ctx context.Context) *entities.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.current = nil

	raw, err := a.kv.Get(ctx, a.snapshotKey())
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.log.Warn("load snapshot", zap.String("key", a.snapshotKey()), zap.Error(err))
		}
		return nil
	}

	var snap entities.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		a.log.Warn("corrupt snapshot", zap.String("key", a.snapshotKey()), zap.Error(err))
		return nil
	}
	if snap.Version != entities.SnapshotVersion || snap.QuizType != a.quizType || len(snap.Questions) == 0 {
		a.log.Warn("discarding incompatible snapshot",
			zap.String("key", a.snapshotKey()),
			zap.Int("version", snap.Version),
		)
		return nil
	}

	a.current = &snap
	return &snap
}

// SaveProgress stores progress into the current snapshot.
func (a *Adapter) SaveProgress(ctx context.Context, p *entities.Progress) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current == nil {
		return ErrNoSnapshot
	}

	snap := *a.current
	snap.Progress = p.Clone()
	if err := a.writeLocked(ctx, &snap); err != nil {
		return err
	}
	a.current = &snap
	return nil
}

// Current returns the last snapshot saved or loaded by this adapter.
func (a *Adapter) Current() *entities.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Clear removes the snapshot.
func (a *Adapter) Clear(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.current = nil
	if err := a.kv.Delete(ctx, a.snapshotKey()); err != nil {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}

// ClearAll removes the snapshot and the session timing marker.
func (a *Adapter) ClearAll(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.current = nil
	if err := a.kv.Delete(ctx, a.snapshotKey(), a.startedAtKey()); err != nil {
		return fmt.Errorf("clear session state: %w", err)
	}
	return nil
}

// MarkSessionStart records the session start time unless it is already set.
func (a *Adapter) MarkSessionStart(ctx context.Context) error {
	_, err := a.kv.Get(ctx, a.startedAtKey())
	switch {
	case err == nil:
		return nil
	case !errors.Is(err, ErrNotFound):
		return fmt.Errorf("read session start: %w", err)
	}

	stamp := []byte(a.now().UTC().Format(time.RFC3339Nano))
	if err := a.kv.Set(ctx, a.startedAtKey(), stamp, a.ttl); err != nil {
		return fmt.Errorf("mark session start: %w", err)
	}
	return nil
}

// ClearSessionStart removes the session timing marker.
func (a *Adapter) ClearSessionStart(ctx context.Context) error {
	if err := a.kv.Delete(ctx, a.startedAtKey()); err != nil {
		return fmt.Errorf("clear session start: %w", err)
	}
	return nil
}

// RemainingSessionMinutes returns the whole minutes left in the session
// budget, rounded up, between 0 and the budget. Without a start marker the
// full budget is returned.
func (a *Adapter) RemainingSessionMinutes(ctx context.Context) int {
	full := int(math.Ceil(a.budget.Minutes()))

	raw, err := a.kv.Get(ctx, a.startedAtKey())
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			a.log.Warn("read session start", zap.Error(err))
		}
		return full
	}

	startedAt, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		a.log.Warn("corrupt session start marker", zap.Error(err))
		return full
	}

	left := a.budget - a.now().Sub(startedAt)
	if left <= 0 {
		return 0
	}
	return min(full, int(math.Ceil(left.Minutes())))
}

func (a *Adapter) writeLocked(ctx context.Context, snap *entities.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := a.kv.Set(ctx, a.snapshotKey(), raw, a.ttl); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}
