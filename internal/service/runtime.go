package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
	"github.com/aliskhannn/quizzer/internal/integrity"
	"github.com/aliskhannn/quizzer/internal/metrics"
	"github.com/aliskhannn/quizzer/internal/persistence"
	"github.com/aliskhannn/quizzer/internal/session"
)

// RuntimeKey identifies the session of one owner for one quiz type.
type RuntimeKey struct {
	QuizType entities.QuizType
	Owner    string
}

// EventHandler receives session events of every runtime.
type EventHandler func(key RuntimeKey, ev session.Event)

// Runtime bundles the store, integrity monitor and persistence adapter of a
// single session.
type Runtime struct {
	quizType entities.QuizType
	owner    string

	store   *session.Store
	monitor *integrity.Monitor
	adapter *persistence.Adapter

	// mu serializes multi-step operations on the runtime.
	mu         sync.Mutex
	filter     entities.Filter
	generation uint64

	seenMu   sync.Mutex
	lastSeen time.Time
}

func (s *QuizService) newRuntime(quizType entities.QuizType, owner string) *Runtime {
	key := RuntimeKey{QuizType: quizType, Owner: owner}
	log := s.logger.With(zap.String("quiz_type", string(quizType)), zap.String("owner", owner))

	rt := &Runtime{
		quizType: quizType,
		owner:    owner,
		lastSeen: s.clock.Now(),
	}

	rt.adapter = persistence.NewAdapter(s.kv, quizType, owner,
		persistence.WithTTL(s.cfg.SnapshotTTL),
		persistence.WithBudget(s.cfg.SessionBudget),
		persistence.WithNow(s.clock.Now),
		persistence.WithLogger(log),
	)

	rt.store = session.NewStore(
		session.WithClock(s.clock),
		session.WithProgressSink(func(p *entities.Progress) {
			if err := rt.adapter.SaveProgress(context.Background(), p); err != nil {
				log.Warn("failed to persist progress", zap.Error(err))
			}
		}),
		session.WithListener(func(ev session.Event) {
			s.observe(key, ev)
		}),
	)

	rt.monitor = integrity.NewMonitor(rt.store, func() {
		order := rt.store.Questions()
		timer := rt.store.TimerEnabled()
		rt.store.ResetProgressOnly()
		rt.store.Initialize(order, timer)
	},
		integrity.WithClock(s.clock),
		integrity.WithWarningSeconds(s.cfg.WarningSeconds),
		integrity.WithLogger(log),
	)

	return rt
}

func (s *QuizService) observe(key RuntimeKey, ev session.Event) {
	qt := string(key.QuizType)
	switch ev.Kind {
	case session.EventAnswered, session.EventTimedOut:
		if ev.Answer != nil {
			metrics.Answers.WithLabelValues(qt, metrics.Outcome(ev.Answer.IsCorrect, ev.Answer.IsTimeout)).Inc()
		}
	case session.EventCompleted:
		metrics.SessionsCompleted.WithLabelValues(qt).Inc()
	}

	if s.onEvent != nil {
		s.onEvent(key, ev)
	}
}

func (rt *Runtime) touch(now time.Time) {
	rt.seenMu.Lock()
	rt.lastSeen = now
	rt.seenMu.Unlock()
}

func (rt *Runtime) idleSince() time.Time {
	rt.seenMu.Lock()
	defer rt.seenMu.Unlock()
	return rt.lastSeen
}

func (rt *Runtime) close() {
	rt.monitor.Close()
	rt.store.Close()
}
