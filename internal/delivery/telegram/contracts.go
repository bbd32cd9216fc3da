package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
	"github.com/aliskhannn/quizzer/internal/service"
	"github.com/aliskhannn/quizzer/internal/storage"
)

// Bot is the part of the Telegram API client the handler uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

type QuizService interface {
	Prepare(ctx context.Context, owner string, filter entities.Filter) (*service.View, error)
	Load(ctx context.Context, owner string, quizType entities.QuizType) (*service.View, error)
	Start(ctx context.Context, owner string, quizType entities.QuizType) (*service.View, error)
	AnswerIndex(ctx context.Context, owner string, quizType entities.QuizType, index int) (*service.View, bool, error)
	Next(ctx context.Context, owner string, quizType entities.QuizType) (*service.View, bool, error)
	Current(ctx context.Context, owner string, quizType entities.QuizType) (*service.View, error)
	Complete(ctx context.Context, owner string, quizType entities.QuizType) (*service.View, error)
	Results(ctx context.Context, owner string, quizType entities.QuizType, filter entities.ReviewFilter) (*entities.Result, []entities.QuestionReview, error)
	PlayAgain(ctx context.Context, owner string, quizType entities.QuizType) (*service.View, error)
	Stop(ctx context.Context, owner string, quizType entities.QuizType) error
	SubmitHistory(ctx context.Context, owner string, quizType entities.QuizType) (entities.SubmitResult, error)
}

type MessageStorage interface {
	Store(userID int64, msg storage.QuestionMessage)
	Get(userID int64, quizType entities.QuizType) (storage.QuestionMessage, bool)
	Delete(userID int64, quizType entities.QuizType)
}
