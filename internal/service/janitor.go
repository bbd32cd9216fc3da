package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/aliskhannn/quizzer/internal/storage"
)

// ExpiredPurger is implemented by KV backends that need explicit cleanup of
// expired keys.
type ExpiredPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Janitor periodically drops idle sessions from memory, stale question sets
// from the cache and expired snapshots from storage.
type Janitor struct {
	quizzes *QuizService
	cache   *storage.QuestionSetStorage
	purger  ExpiredPurger // optional
	spec    string
	idleTTL time.Duration
	logger  *zap.Logger
}

// NewJanitor creates a janitor running on the cron spec.
func NewJanitor(
	quizzes *QuizService,
	cache *storage.QuestionSetStorage,
	purger ExpiredPurger,
	spec string,
	idleTTL time.Duration,
	logger *zap.Logger,
) *Janitor {
	return &Janitor{
		quizzes: quizzes,
		cache:   cache,
		purger:  purger,
		spec:    spec,
		idleTTL: idleTTL,
		logger:  logger,
	}
}

// Start runs the cleanup schedule until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) {
	j.logger.Info("session janitor started", zap.String("schedule", j.spec))

	c := cron.New(cron.WithLocation(time.UTC))

	_, err := c.AddFunc(j.spec, func() {
		j.Sweep(ctx, time.Now())
	})
	if err != nil {
		j.logger.Error("failed to add cron job", zap.Error(err))
		return
	}

	c.Start()

	<-ctx.Done()

	<-c.Stop().Done()
	j.logger.Info("session janitor stopped")
}

// Sweep runs one cleanup pass.
func (j *Janitor) Sweep(ctx context.Context, now time.Time) {
	cutoff := now.Add(-j.idleTTL)

	sessions := j.quizzes.Sweep(cutoff)
	sets := j.cache.PurgeOlderThan(cutoff)

	var snapshots int64
	if j.purger != nil {
		n, err := j.purger.PurgeExpired(ctx)
		if err != nil {
			j.logger.Error("failed to purge expired snapshots", zap.Error(err))
		}
		snapshots = n
	}

	j.logger.Info("janitor sweep finished",
		zap.Int("sessions", sessions),
		zap.Int("question_sets", sets),
		zap.Int64("snapshots", snapshots),
		zap.Int("active", j.quizzes.Active()),
	)
}
