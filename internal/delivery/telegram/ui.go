package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
)

// buildReadyKeyboard builds keyboard for a prepared session.
func buildReadyKeyboard(qt entities.QuizType) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("▶️ Start", buildQuizStartCallback(qt)),
		),
	)
}

// buildAnswerKeyboard builds one lettered button per option, two per row.
func buildAnswerKeyboard(qt entities.QuizType, questionIndex, options int) tgbotapi.InlineKeyboardMarkup {
	var (
		rows [][]tgbotapi.InlineKeyboardButton
		row  []tgbotapi.InlineKeyboardButton
	)
	for i := 0; i < options; i++ {
		button := tgbotapi.NewInlineKeyboardButtonData(
			string(optionLetter(i)),
			buildQuizAnswerCallback(qt, questionIndex, i),
		)
		row = append(row, button)
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildAnsweredKeyboard builds keyboard for a resolved question.
func buildAnsweredKeyboard(qt entities.QuizType, finished bool) tgbotapi.InlineKeyboardMarkup {
	if finished {
		return tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData("📊 Results", buildQuizResultsCallback(qt)),
			),
		)
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Next ▶️", buildQuizNextCallback(qt)),
		),
	)
}

// buildResultKeyboard builds keyboard for quiz results screen.
func buildResultKeyboard(qt entities.QuizType) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Correct", buildQuizReviewCallback(qt, entities.ReviewCorrect)),
			tgbotapi.NewInlineKeyboardButtonData("❌ Incorrect", buildQuizReviewCallback(qt, entities.ReviewIncorrect)),
			tgbotapi.NewInlineKeyboardButtonData("⏰ Timed out", buildQuizReviewCallback(qt, entities.ReviewTimeout)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💾 Save to history", buildQuizHistoryCallback(qt)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Play again", buildQuizAgainCallback(qt)),
		),
	)
}
