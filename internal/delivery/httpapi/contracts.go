package httpapi

import (
	"context"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
	"github.com/aliskhannn/quizzer/internal/integrity"
	"github.com/aliskhannn/quizzer/internal/service"
)

// QuizService is the session API the handlers depend on.
type QuizService interface {
	Prepare(ctx context.Context, owner string, filter entities.Filter) (*service.View, error)
	Load(ctx context.Context, owner string, quizType entities.QuizType) (*service.View, error)
	Start(ctx context.Context, owner string, quizType entities.QuizType) (*service.View, error)
	Answer(ctx context.Context, owner string, quizType entities.QuizType, value string) (*service.View, bool, error)
	Next(ctx context.Context, owner string, quizType entities.QuizType) (*service.View, bool, error)
	Complete(ctx context.Context, owner string, quizType entities.QuizType) (*service.View, error)
	Results(ctx context.Context, owner string, quizType entities.QuizType, filter entities.ReviewFilter) (*entities.Result, []entities.QuestionReview, error)
	Signal(ctx context.Context, owner string, quizType entities.QuizType, sig integrity.Signal) (integrity.Reaction, error)
	PlayAgain(ctx context.Context, owner string, quizType entities.QuizType) (*service.View, error)
	Stop(ctx context.Context, owner string, quizType entities.QuizType) error
	SubmitHistory(ctx context.Context, owner string, quizType entities.QuizType) (entities.SubmitResult, error)
}
