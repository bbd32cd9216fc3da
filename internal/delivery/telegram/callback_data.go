package telegram

import (
	"strconv"
	"strings"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
)

// Callback action constants.
const (
	actionQuiz = "quiz"
)

// Quiz sub-actions.
const (
	quizStart   = "start"
	quizAnswer  = "answer"
	quizNext    = "next"
	quizResults = "results"
	quizReview  = "review"
	quizHistory = "history"
	quizAgain   = "again"
)

// callbackData represents structured callback data.
type callbackData struct {
	Action string
	Params []string
	Raw    string
}

// encode creates callback string.
func (cd callbackData) encode() string {
	if len(cd.Params) == 0 {
		return cd.Action
	}
	return cd.Action + ":" + strings.Join(cd.Params, ":")
}

// decodeCallback parses callback data string.
func decodeCallback(data string) callbackData {
	parts := strings.Split(data, ":")
	if len(parts) == 0 {
		return callbackData{Raw: data}
	}

	return callbackData{
		Action: parts[0],
		Params: parts[1:],
		Raw:    data,
	}
}

// quizCallback is a decoded quiz button press.
type quizCallback struct {
	Sub      string
	QuizType entities.QuizType
	Args     []string
}

// parseQuizCallback decodes "quiz:<sub>:<type>[:args...]". Callbacks without
// a quiz type default to the academic quiz.
func parseQuizCallback(cd callbackData) (quizCallback, bool) {
	if cd.Action != actionQuiz || len(cd.Params) == 0 {
		return quizCallback{}, false
	}

	qc := quizCallback{Sub: cd.Params[0], QuizType: entities.QuizTypeAcademic}
	if len(cd.Params) > 1 {
		qt, err := entities.ParseQuizType(cd.Params[1])
		if err != nil {
			return quizCallback{}, false
		}
		qc.QuizType = qt
		qc.Args = cd.Params[2:]
	}

	return qc, true
}

// intArg returns the i-th argument as a non-negative integer.
func (qc quizCallback) intArg(i int) (int, bool) {
	if i >= len(qc.Args) {
		return 0, false
	}
	n, err := strconv.Atoi(qc.Args[i])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

func buildQuizCallback(sub string, quizType entities.QuizType, args ...string) string {
	params := []string{sub, string(quizType)}
	params = append(params, args...)
	return callbackData{
		Action: actionQuiz,
		Params: params,
	}.encode()
}

// buildQuizAnswerCallback builds callback data for answering a quiz question.
// The question index lets stale keyboards be rejected.
func buildQuizAnswerCallback(quizType entities.QuizType, questionIndex, optionIndex int) string {
	return buildQuizCallback(quizAnswer, quizType, strconv.Itoa(questionIndex), strconv.Itoa(optionIndex))
}

func buildQuizStartCallback(quizType entities.QuizType) string {
	return buildQuizCallback(quizStart, quizType)
}

func buildQuizNextCallback(quizType entities.QuizType) string {
	return buildQuizCallback(quizNext, quizType)
}

func buildQuizResultsCallback(quizType entities.QuizType) string {
	return buildQuizCallback(quizResults, quizType)
}

func buildQuizReviewCallback(quizType entities.QuizType, filter entities.ReviewFilter) string {
	return buildQuizCallback(quizReview, quizType, string(filter))
}

func buildQuizHistoryCallback(quizType entities.QuizType) string {
	return buildQuizCallback(quizHistory, quizType)
}

func buildQuizAgainCallback(quizType entities.QuizType) string {
	return buildQuizCallback(quizAgain, quizType)
}
