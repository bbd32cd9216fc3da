package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
	"github.com/aliskhannn/quizzer/internal/service"
)

// renderReady renders a prepared session waiting for Start.
func renderReady(v *service.View) (string, *tgbotapi.InlineKeyboardMarkup) {
	total := 0
	if v.Question != nil {
		total = v.Question.Total
	}

	timer := "timer on"
	if !v.TimerEnabled {
		timer = "no timer"
	}

	var sb strings.Builder
	sb.WriteString(bold(quizTitle(v.QuizType) + " ready"))
	sb.WriteString("\n\n")
	sb.WriteString(md(fmt.Sprintf("📝 %d questions · %s", total, timer)))
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("⌛ %d minutes left in this session", v.RemainingMinutes)))

	if v.Resumed && v.Progress != nil {
		sb.WriteString("\n")
		sb.WriteString(italic(fmt.Sprintf("Resuming at question %d.", len(v.Progress.Answers)+1)))
	}

	kb := buildReadyKeyboard(v.QuizType)
	return sb.String(), &kb
}

// renderQuestion renders the current unanswered question.
func renderQuestion(v *service.View) (string, *tgbotapi.InlineKeyboardMarkup) {
	q := v.Question

	var sb strings.Builder
	sb.WriteString(bold(fmt.Sprintf("Question %d/%d", q.Index+1, q.Total)))
	if q.Subject != "" {
		sb.WriteString(md(" · " + q.Subject))
	}
	sb.WriteString(md(" · " + string(q.Difficulty)))
	sb.WriteString("\n\n")
	sb.WriteString(md(q.Prompt))
	sb.WriteString("\n\n")

	for i, option := range q.Options {
		sb.WriteString(md(fmt.Sprintf("%c. %s", optionLetter(i), option)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	if q.TimeLimit == entities.NoLimit {
		sb.WriteString(italic("No time limit"))
	} else {
		sb.WriteString(italic(fmt.Sprintf("⏱ %d seconds to answer", q.TimeLimit)))
	}

	kb := buildAnswerKeyboard(v.QuizType, q.Index, len(q.Options))
	return sb.String(), &kb
}

// renderAnswered renders the current question after it was resolved.
func renderAnswered(v *service.View) (string, *tgbotapi.InlineKeyboardMarkup) {
	q := v.Question
	if q == nil || v.Answer == nil {
		return md(msgQuestionClosed), nil
	}

	var sb strings.Builder
	sb.WriteString(bold(fmt.Sprintf("Question %d/%d", q.Index+1, q.Total)))
	sb.WriteString("\n\n")
	sb.WriteString(md(q.Prompt))
	sb.WriteString("\n\n")

	switch {
	case v.Answer.IsTimeout:
		sb.WriteString(bold("⏰ Time's up"))
	case v.Answer.IsCorrect:
		sb.WriteString(bold("✅ Correct"))
	default:
		sb.WriteString(bold("❌ Incorrect"))
		sb.WriteString("\n")
		sb.WriteString(md("Your answer: " + v.Answer.SelectedAnswer))
	}
	sb.WriteString("\n")
	sb.WriteString(md("Correct answer: " + q.CorrectAnswer))

	if q.Hint != "" {
		sb.WriteString("\n\n")
		sb.WriteString(italic("💡 " + q.Hint))
	}
	if q.ReferenceURL != "" {
		sb.WriteString("\n")
		sb.WriteString(md("📖 " + q.ReferenceURL))
	}

	kb := buildAnsweredKeyboard(v.QuizType, v.Finished())
	return sb.String(), &kb
}

// renderResult renders the result screen.
func renderResult(qt entities.QuizType, r *entities.Result) (string, *tgbotapi.InlineKeyboardMarkup) {
	var sb strings.Builder
	sb.WriteString(bold(quizTitle(qt) + " results"))
	sb.WriteString("\n\n")
	sb.WriteString(bold(fmt.Sprintf("🎯 Score: %d%%", r.Score)))
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("✅ Correct: %d / %d", r.CorrectCount, r.TotalQuestions)))
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("❌ Incorrect: %d", r.WrongCount)))
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("⏰ Timed out: %d", r.TimeoutCount)))
	sb.WriteString("\n")
	sb.WriteString(md(fmt.Sprintf("⏱ Average time: %.1fs", r.AverageTimeSeconds)))

	kb := buildResultKeyboard(qt)
	return sb.String(), &kb
}

// renderReview renders the reviewed questions for a filter.
func renderReview(filter entities.ReviewFilter, review []entities.QuestionReview) string {
	var sb strings.Builder
	sb.WriteString(bold(fmt.Sprintf("Review: %s (%d)", filter, len(review))))

	if len(review) == 0 {
		sb.WriteString("\n\n")
		sb.WriteString(italic("Nothing here."))
		return sb.String()
	}

	for i, item := range review {
		if i == reviewLimit {
			sb.WriteString("\n\n")
			sb.WriteString(italic(fmt.Sprintf("…and %d more", len(review)-reviewLimit)))
			break
		}

		sb.WriteString("\n\n")
		sb.WriteString(md(fmt.Sprintf("%d. %s", item.Index+1, truncate(item.Question.Prompt, reviewPromptMaxRunes))))
		sb.WriteString("\n")

		switch {
		case item.Answer == nil:
			sb.WriteString(md("   not answered"))
		case item.Answer.IsTimeout:
			sb.WriteString(md("   timed out"))
		default:
			sb.WriteString(md("   your answer: " + item.Answer.SelectedAnswer))
		}
		if item.Answer == nil || !item.Answer.IsCorrect {
			sb.WriteString("\n")
			sb.WriteString(md("   correct: " + item.Question.CorrectAnswer))
		}
	}

	return sb.String()
}

func optionLetter(i int) rune {
	if i < len(optionLetters) {
		return rune(optionLetters[i])
	}
	return '?'
}
