package service

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
)

// QuestionSource serves questions for a filter.
type QuestionSource interface {
	// Count returns how many questions match the filter, ignoring Count.
	Count(ctx context.Context, filter entities.Filter) (int, error)
	// Fetch returns at most filter.Count questions.
	Fetch(ctx context.Context, filter entities.Filter) ([]entities.Question, error)
}

// HistorySink records a finished session.
type HistorySink interface {
	Submit(ctx context.Context, owner string, payload entities.HistoryPayload) (entities.SubmitResult, error)
}

// Transactor runs fn inside a database transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx pgx.Tx) error) error
}
