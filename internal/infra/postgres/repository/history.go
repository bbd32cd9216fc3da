package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
	"github.com/aliskhannn/quizzer/internal/infra/postgres"
)

// HistoryRepository stores submitted quiz results.
type HistoryRepository struct {
	db postgres.DBTX
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(db postgres.DBTX) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create inserts the history header and returns its id.
func (r *HistoryRepository) Create(
	ctx context.Context, owner string, correct, wrong int, submittedAt time.Time,
) (int64, error) {
	query := `
		INSERT INTO quiz_history (owner, correct_count, wrong_count, submitted_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	if err := r.db.QueryRow(ctx, query, owner, correct, wrong, submittedAt).Scan(&id); err != nil {
		return 0, fmt.Errorf("create quiz history: %w", err)
	}

	return id, nil
}

// SaveAnswer inserts one answer record of a history entry.
func (r *HistoryRepository) SaveAnswer(ctx context.Context, historyID int64, rec entities.AnswerRecord) error {
	query := `
		INSERT INTO quiz_history_answers (
			history_id, question_id, user_answer, is_correct, is_timeout, time_spent
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(
		ctx,
		query,
		historyID,
		rec.QuestionID,
		rec.UserAnswer,
		rec.IsCorrect,
		rec.IsTimeOut,
		rec.TimeSpent,
	)
	if err != nil {
		return fmt.Errorf("save history answer: %w", err)
	}

	return nil
}
