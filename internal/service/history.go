package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
	"github.com/aliskhannn/quizzer/internal/infra/postgres/repository"
)

// HistoryService is a HistorySink writing to Postgres. The header and every
// answer record are stored in one transaction.
type HistoryService struct {
	tr Transactor
}

func NewHistoryService(tr Transactor) *HistoryService {
	return &HistoryService{tr: tr}
}

func (s *HistoryService) Submit(
	ctx context.Context, owner string, payload entities.HistoryPayload,
) (entities.SubmitResult, error) {
	err := s.tr.WithinTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		historyRepo := repository.NewHistoryRepository(tx)

		id, err := historyRepo.Create(ctx, owner,
			len(payload.CorrectQuestions), len(payload.WrongQuestions), time.Now().UTC())
		if err != nil {
			return err
		}

		for _, group := range [][]entities.AnswerRecord{payload.CorrectQuestions, payload.WrongQuestions} {
			for _, rec := range group {
				if err := historyRepo.SaveAnswer(ctx, id, rec); err != nil {
					return err
				}
			}
		}

		return nil
	})
	if err != nil {
		return entities.SubmitResult{}, fmt.Errorf("store history: %w", err)
	}

	return entities.SubmitResult{Success: true, Message: "quiz history saved"}, nil
}
