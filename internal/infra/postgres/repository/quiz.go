package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
	"github.com/aliskhannn/quizzer/internal/infra/postgres"
)

// QuestionRepository serves quiz questions from the questions table.
type QuestionRepository struct {
	db postgres.DBTX
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(db postgres.DBTX) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// Count returns how many questions match the filter.
func (r *QuestionRepository) Count(ctx context.Context, filter entities.Filter) (int, error) {
	where, args := filterClause(filter)
	query := `SELECT COUNT(*) FROM questions WHERE ` + where

	var n int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}

	return n, nil
}

// Fetch returns up to filter.Count random questions matching the filter.
func (r *QuestionRepository) Fetch(ctx context.Context, filter entities.Filter) ([]entities.Question, error) {
	where, args := filterClause(filter)
	args = append(args, filter.Count)
	query := fmt.Sprintf(`
		SELECT id, prompt, options, correct_answer, difficulty, subject,
		       COALESCE(hint, ''), COALESCE(reference_url, ''), tags
		FROM questions
		WHERE %s
		ORDER BY random()
		LIMIT $%d
	`, where, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	defer rows.Close()

	questions := make([]entities.Question, 0, filter.Count)
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}

	return questions, nil
}

func scanQuestion(row pgx.Row) (entities.Question, error) {
	var (
		q          entities.Question
		difficulty string
	)
	err := row.Scan(
		&q.ID,
		&q.Prompt,
		&q.Options,
		&q.CorrectAnswer,
		&difficulty,
		&q.Subject,
		&q.Hint,
		&q.ReferenceURL,
		&q.Tags,
	)
	q.Difficulty = entities.Difficulty(difficulty)
	return q, err
}

// filterClause builds the WHERE clause and its arguments for a filter.
func filterClause(f entities.Filter) (string, []any) {
	conds := []string{"quiz_type = $1"}
	args := []any{string(f.QuizType)}

	add := func(column string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	switch f.QuizType {
	case entities.QuizTypeAcademic:
		add("level", f.Level)
		add("faculty", f.Faculty)
		add("year", f.Year)
	case entities.QuizTypeEntrance:
		add("entrance_name", f.EntranceName)
		if f.Difficulty != "" {
			add("difficulty", string(f.Difficulty))
		}
	}

	if len(f.Subjects) > 0 {
		args = append(args, f.Subjects)
		conds = append(conds, fmt.Sprintf("subject = ANY($%d)", len(args)))
	}

	return strings.Join(conds, " AND "), args
}
