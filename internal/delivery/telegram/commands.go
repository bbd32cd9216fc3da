package telegram

import (
	"context"
	"errors"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
	"github.com/aliskhannn/quizzer/internal/service"
	"github.com/aliskhannn/quizzer/internal/session"
	"github.com/aliskhannn/quizzer/internal/storage"
)

type filterParser func(args string) (entities.Filter, error)

// handlePrepare fetches a new question set and shows the Start button.
func (h *Handler) handlePrepare(userID int64, args string, parse filterParser) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		filter, err := parse(args)
		if errors.Is(err, errUsage) {
			usage := msgAcademicUsage
			if filter.QuizType == entities.QuizTypeEntrance {
				usage = msgEntranceUsage
			}
			return h.send(newPlainMessage(chatID, usage))
		}
		if err != nil {
			return err
		}

		h.logger.Debug("preparing quiz",
			zap.Int64("user_id", userID),
			zap.String("filter", filter.Key()),
		)

		view, err := h.quizService.Prepare(ctx, ownerOf(userID), filter)
		if err != nil {
			return err
		}

		return h.showSession(chatID, 0, userID, view)
	}
}

// handleResume shows an unfinished session where it was left.
func (h *Handler) handleResume(userID int64, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		qt, err := parseQuizTypeArg(args)
		if err != nil {
			return err
		}

		view, err := h.quizService.Load(ctx, ownerOf(userID), qt)
		if err != nil {
			return err
		}

		return h.showSession(chatID, 0, userID, view)
	}
}

// handleAgain replays the last question set in a new order.
func (h *Handler) handleAgain(userID int64, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		qt, err := parseQuizTypeArg(args)
		if err != nil {
			return err
		}

		view, err := h.quizService.PlayAgain(ctx, ownerOf(userID), qt)
		if err != nil {
			return err
		}

		return h.showSession(chatID, 0, userID, view)
	}
}

// handleStop discards the session and its question message.
func (h *Handler) handleStop(userID int64, args string) HandlerFunc {
	return func(ctx context.Context, chatID int64) error {
		qt, err := parseQuizTypeArg(args)
		if err != nil {
			return err
		}

		if err := h.quizService.Stop(ctx, ownerOf(userID), qt); err != nil {
			return err
		}

		if msg, ok := h.messages.Get(userID, qt); ok {
			_ = h.send(tgbotapi.NewDeleteMessage(msg.ChatID, msg.MessageID))
			h.messages.Delete(userID, qt)
		}

		return h.send(newPlainMessage(chatID, msgStopped))
	}
}

// showSession renders the view according to its state. A zero messageID
// sends a new message, otherwise that message is edited.
func (h *Handler) showSession(chatID int64, messageID int, userID int64, v *service.View) error {
	var (
		text       string
		kb         *tgbotapi.InlineKeyboardMarkup
		isQuestion bool
	)

	switch v.State {
	case session.StateReady.String():
		text, kb = renderReady(v)
	case session.StateInProgress.String():
		if v.Question == nil {
			return service.ErrNoSession
		}
		if v.Answer != nil {
			text, kb = renderAnswered(v)
		} else {
			text, kb = renderQuestion(v)
			isQuestion = true
		}
	case session.StateFinished.String(), session.StateResultsShown.String():
		if v.Result == nil {
			return service.ErrNotCompleted
		}
		text, kb = renderResult(v.QuizType, v.Result)
	default:
		return service.ErrNoSession
	}

	var c tgbotapi.Chattable
	if messageID == 0 {
		msg := newMessage(chatID, text)
		if kb != nil {
			msg.ReplyMarkup = *kb
		}
		c = msg
	} else {
		c = newEditWithMarkup(chatID, messageID, text, kb)
	}

	sent, err := h.sendMessage(c)
	if err != nil {
		return err
	}

	if isQuestion {
		if messageID == 0 {
			messageID = sent.MessageID
		}
		h.messages.Store(userID, storage.QuestionMessage{
			ChatID:    chatID,
			MessageID: messageID,
			QuizType:  v.QuizType,
			Index:     v.Question.Index,
		})
	}

	return nil
}
