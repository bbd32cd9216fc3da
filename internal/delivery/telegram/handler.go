package telegram

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/quizzer/internal/service"
	"github.com/aliskhannn/quizzer/internal/session"
)

// ownerPrefix namespaces Telegram users among session owners.
const ownerPrefix = "tg:"

func ownerOf(userID int64) string {
	return ownerPrefix + strconv.FormatInt(userID, 10)
}

func userOf(owner string) (int64, bool) {
	rest, ok := strings.CutPrefix(owner, ownerPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	return id, err == nil
}

type Handler struct {
	bot         Bot
	logger      *zap.Logger
	quizService QuizService
	messages    MessageStorage
}

func NewHandler(
	bot Bot,
	logger *zap.Logger,
	quizService QuizService,
	messages MessageStorage,
) *Handler {
	return &Handler{
		bot:         bot,
		logger:      logger,
		quizService: quizService,
		messages:    messages,
	}
}

func (h *Handler) Run(ctx context.Context) error {
	h.logger.Info("telegram handler started")
	defer h.logger.Info("telegram handler stopped")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		h.logger.Debug("callback received",
			zap.Int64("user_id", update.CallbackQuery.From.ID),
			zap.String("data", update.CallbackQuery.Data),
		)
		h.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil || update.Message.From == nil {
		h.logger.Debug("update without message and callback")
		return
	}

	h.logger.Debug("update received",
		zap.Int64("chat_id", update.Message.Chat.ID),
		zap.String("text", update.Message.Text),
	)

	chatID := update.Message.Chat.ID
	userID := update.Message.From.ID

	if !update.Message.IsCommand() {
		_ = h.send(newPlainMessage(chatID, msgUnknownCommand))
		return
	}

	args := update.Message.CommandArguments()

	switch update.Message.Command() {
	case "start", "help":
		_ = h.send(newMessage(chatID, welcomeMarkdownV2()))

	case "academic":
		_ = h.withErrorHandling(h.handlePrepare(userID, args, parseAcademicArgs))(ctx, chatID)

	case "entrance":
		_ = h.withErrorHandling(h.handlePrepare(userID, args, parseEntranceArgs))(ctx, chatID)

	case "resume":
		_ = h.withErrorHandling(h.handleResume(userID, args))(ctx, chatID)

	case "again":
		_ = h.withErrorHandling(h.handleAgain(userID, args))(ctx, chatID)

	case "stop":
		_ = h.withErrorHandling(h.handleStop(userID, args))(ctx, chatID)

	default:
		_ = h.send(newPlainMessage(chatID, msgUnknownCommand))
	}
}

// OnSessionEvent edits the question message of a Telegram user whose
// question timed out while no handler was running.
func (h *Handler) OnSessionEvent(key service.RuntimeKey, ev session.Event) {
	if ev.Kind != session.EventTimedOut {
		return
	}

	userID, ok := userOf(key.Owner)
	if !ok {
		return
	}

	msg, ok := h.messages.Get(userID, key.QuizType)
	if !ok || msg.Index != ev.Index {
		return
	}

	view, err := h.quizService.Current(context.Background(), key.Owner, key.QuizType)
	if err != nil {
		h.logger.Warn("failed to load timed out session",
			zap.Int64("user_id", userID),
			zap.Error(err),
		)
		return
	}

	text, kb := renderAnswered(view)
	_ = h.send(newEditWithMarkup(msg.ChatID, msg.MessageID, text, kb))
}

func (h *Handler) sendError(chatID int64, err string) {
	_ = h.send(newPlainMessage(chatID, err))
}

func (h *Handler) send(c tgbotapi.Chattable) error {
	_, err := h.sendMessage(c)
	return err
}

func (h *Handler) sendMessage(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	m, err := h.bot.Send(c)
	if err != nil {
		h.logger.Error("failed to send telegram message",
			zap.Error(err),
		)
	}
	return m, err
}

// answerCallback removes the button "clock" and optionally shows text.
func (h *Handler) answerCallback(cb *tgbotapi.CallbackQuery, text string) {
	if _, err := h.bot.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
		h.logger.Debug("callback answer error", zap.Error(err))
	}
}
