package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
	"github.com/aliskhannn/quizzer/internal/service"
)

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if cb.Message == nil || cb.From == nil {
		h.answerCallback(cb, "")
		return
	}

	qc, ok := parseQuizCallback(decodeCallback(cb.Data))
	if !ok {
		h.logger.Debug("unknown callback", zap.String("data", cb.Data))
		h.answerCallback(cb, "")
		return
	}

	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	userID := cb.From.ID
	owner := ownerOf(userID)

	var (
		notice string
		err    error
	)

	switch qc.Sub {
	case quizStart:
		err = h.callbackStart(ctx, chatID, messageID, userID, qc.QuizType)
	case quizAnswer:
		notice, err = h.callbackAnswer(ctx, chatID, messageID, userID, qc)
	case quizNext:
		err = h.callbackNext(ctx, chatID, messageID, userID, qc.QuizType)
	case quizResults:
		var view *service.View
		if view, err = h.quizService.Complete(ctx, owner, qc.QuizType); err == nil {
			h.messages.Delete(userID, qc.QuizType)
			err = h.showSession(chatID, messageID, userID, view)
		}
	case quizReview:
		err = h.callbackReview(ctx, chatID, owner, qc)
	case quizHistory:
		notice, err = h.callbackHistory(ctx, owner, qc.QuizType)
	case quizAgain:
		var view *service.View
		if view, err = h.quizService.PlayAgain(ctx, owner, qc.QuizType); err == nil {
			err = h.showSession(chatID, 0, userID, view)
		}
	default:
		h.logger.Debug("unknown quiz callback", zap.String("data", cb.Data))
	}

	if err != nil {
		text, known := userMessage(err)
		if !known {
			h.logger.Error("callback error",
				zap.String("data", cb.Data),
				zap.Int64("user_id", userID),
				zap.Error(err),
			)
		}
		notice = text
	}

	h.answerCallback(cb, notice)
}

// callbackStart starts the session and turns the ready message into the
// first unanswered question.
func (h *Handler) callbackStart(ctx context.Context, chatID int64, messageID int, userID int64, qt entities.QuizType) error {
	view, err := h.quizService.Start(ctx, ownerOf(userID), qt)
	if err != nil {
		return err
	}
	return h.showSession(chatID, messageID, userID, view)
}

// callbackAnswer answers the question the keyboard belongs to. Presses on an
// older question's keyboard are ignored.
func (h *Handler) callbackAnswer(
	ctx context.Context, chatID int64, messageID int, userID int64, qc quizCallback,
) (string, error) {
	questionIndex, ok1 := qc.intArg(0)
	optionIndex, ok2 := qc.intArg(1)
	if !ok1 || !ok2 {
		return "", nil
	}

	owner := ownerOf(userID)
	current, err := h.quizService.Current(ctx, owner, qc.QuizType)
	if err != nil {
		return "", err
	}
	if current.Question == nil || current.Question.Index != questionIndex || current.Answer != nil {
		return msgQuestionClosed, nil
	}

	view, accepted, err := h.quizService.AnswerIndex(ctx, owner, qc.QuizType, optionIndex)
	if err != nil {
		return "", err
	}
	if !accepted {
		return msgQuestionClosed, nil
	}

	// The last answer finishes the session; feedback is still shown first.
	text, kb := renderAnswered(view)
	return "", h.send(newEditWithMarkup(chatID, messageID, text, kb))
}

// callbackNext moves on and sends the next question as a new message, so the
// resolved one stays in the chat.
func (h *Handler) callbackNext(ctx context.Context, chatID int64, messageID int, userID int64, qt entities.QuizType) error {
	view, moved, err := h.quizService.Next(ctx, ownerOf(userID), qt)
	if err != nil {
		return err
	}
	if !moved {
		return nil
	}

	// Drop the Next button from the resolved question.
	_ = h.send(tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, tgbotapi.NewInlineKeyboardMarkup()))

	return h.showSession(chatID, 0, userID, view)
}

func (h *Handler) callbackReview(ctx context.Context, chatID int64, owner string, qc quizCallback) error {
	filter := entities.ReviewAll
	if len(qc.Args) > 0 {
		f, err := entities.ParseReviewFilter(qc.Args[0])
		if err != nil {
			return nil
		}
		filter = f
	}

	_, review, err := h.quizService.Results(ctx, owner, qc.QuizType, filter)
	if err != nil {
		return err
	}

	return h.send(newMessage(chatID, renderReview(filter, review)))
}

func (h *Handler) callbackHistory(ctx context.Context, owner string, qt entities.QuizType) (string, error) {
	res, err := h.quizService.SubmitHistory(ctx, owner, qt)
	if err != nil {
		if errors.Is(err, service.ErrNotCompleted) || errors.Is(err, service.ErrNoSession) {
			return "", err
		}
		h.logger.Warn("history submission failed", zap.String("owner", owner), zap.Error(err))
		return msgInternalError, nil
	}
	if !res.Success {
		return msgHistoryRejected + res.Error, nil
	}
	return msgHistorySaved, nil
}
