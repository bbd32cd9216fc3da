// messages.go contains message templates and formatting functions for Telegram.

package telegram

import (
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
	"github.com/aliskhannn/quizzer/internal/service"
)

// Error messages.
const (
	msgAcademicUsage     = "Use: /academic <level> <faculty> <year> [count] [notimer] [subject...]\nExample: /academic bachelor science 1 10 physics"
	msgEntranceUsage     = "Use: /entrance <name> [easy|medium|hard] [count] [notimer] [subject...]\nExample: /entrance IOE hard 20"
	msgQuizTypeUsage     = "Specify the quiz: academic or entrance. Example: /resume academic"
	msgInvalidFilter     = "These quiz options are not valid. Check the command and try again."
	msgNotEnough         = "There are not enough questions for this selection. Ask for fewer questions or pick other subjects."
	msgQuizUnavailable   = "Could not load questions, try again later."
	msgNoSession         = "You have no quiz of this type. Start one with /academic or /entrance."
	msgNotCompleted      = "Answer every question before viewing results."
	msgSessionExpired    = "The time for this session ran out. Your answers were cleared; press Start to begin again."
	msgSessionReset      = "The quiz was reset while questions were loading."
	msgQuestionClosed    = "This question is already closed."
	msgStopped           = "Quiz stopped. All progress was discarded."
	msgHistorySaved      = "Result saved to your history."
	msgHistoryRejected   = "History was not saved: "
	msgInternalError     = "Something went wrong. Try again later."
	msgUnknownCommand    = "Unknown command. Send /help for the list of commands."
	reviewLimit          = 10
	optionLetters        = "ABCDEFGHIJ"
	reviewPromptMaxRunes = 80
)

// userMessage maps an error to the text shown in the chat. known is false for
// errors the user cannot act on.
func userMessage(err error) (text string, known bool) {
	switch {
	case errors.Is(err, entities.ErrNotEnoughQuestions):
		return msgNotEnough, true
	case errors.Is(err, entities.ErrInvalidFilter):
		return msgInvalidFilter, true
	case errors.Is(err, entities.ErrInvalidQuizType), errors.Is(err, errUsage):
		return msgQuizTypeUsage, true
	case errors.Is(err, service.ErrNoSession):
		return msgNoSession, true
	case errors.Is(err, service.ErrNotCompleted):
		return msgNotCompleted, true
	case errors.Is(err, service.ErrSessionExpired):
		return msgSessionExpired, true
	case errors.Is(err, service.ErrSessionReset):
		return msgSessionReset, true
	case errors.Is(err, service.ErrFetchFailed):
		return msgQuizUnavailable, false
	default:
		return msgInternalError, false
	}
}

// md escapes plain text for MarkdownV2.
func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdownV2, s)
}

func bold(s string) string {
	return "*" + md(s) + "*"
}

func italic(s string) string {
	return "_" + md(s) + "_"
}

// newMessage creates a message with MarkdownV2 parse mode.
func newMessage(chatID int64, text string) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	return msg
}

// newPlainMessage creates a plain message without MarkdownV2 parse mode.
func newPlainMessage(chatID int64, text string) tgbotapi.MessageConfig {
	return tgbotapi.NewMessage(chatID, text)
}

// newEditWithMarkup creates an edit with MarkdownV2 parse mode and an
// optional keyboard.
func newEditWithMarkup(chatID int64, msgID int, text string, kb *tgbotapi.InlineKeyboardMarkup) tgbotapi.EditMessageTextConfig {
	edit := tgbotapi.NewEditMessageText(chatID, msgID, text)
	edit.ParseMode = tgbotapi.ModeMarkdownV2
	if kb != nil {
		edit.ReplyMarkup = kb
	}
	return edit
}

// welcomeMarkdownV2 builds the welcome message safely for MarkdownV2.
func welcomeMarkdownV2() string {
	var sb strings.Builder

	sb.WriteString(bold("Quizzer"))
	sb.WriteString("\n\n")
	sb.WriteString(md("Timed multiple-choice quizzes for coursework and entrance exams. Questions and options are shuffled for every attempt."))
	sb.WriteString("\n\n")

	sb.WriteString(bold("Commands"))
	sb.WriteString("\n")
	sb.WriteString(md("/academic <level> <faculty> <year> [count] [notimer] [subject...] prepares a coursework quiz"))
	sb.WriteString("\n")
	sb.WriteString(md("/entrance <name> [difficulty] [count] [notimer] [subject...] prepares an entrance exam quiz"))
	sb.WriteString("\n")
	sb.WriteString(md("/resume <academic|entrance> continues an unfinished quiz"))
	sb.WriteString("\n")
	sb.WriteString(md("/again <academic|entrance> replays the same questions in a new order"))
	sb.WriteString("\n")
	sb.WriteString(md("/stop <academic|entrance> discards a quiz"))
	sb.WriteString("\n\n")

	sb.WriteString(italic("Easy questions give you 10 seconds, medium 15 and hard 20."))

	return sb.String()
}

func quizTitle(qt entities.QuizType) string {
	if qt == entities.QuizTypeEntrance {
		return "Entrance quiz"
	}
	return "Academic quiz"
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
