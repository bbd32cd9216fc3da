package entities

import (
	"fmt"
	"math"
)

// ReviewFilter selects a subset of reviewed questions on the result screen.
type ReviewFilter string

const (
	ReviewAll       ReviewFilter = "all"
	ReviewCorrect   ReviewFilter = "correct"
	ReviewIncorrect ReviewFilter = "incorrect" // wrong, timeouts excluded
	ReviewTimeout   ReviewFilter = "timeout"
)

// ParseReviewFilter parses a review filter, defaulting to ReviewAll.
func ParseReviewFilter(s string) (ReviewFilter, error) {
	switch f := ReviewFilter(s); f {
	case "":
		return ReviewAll, nil
	case ReviewAll, ReviewCorrect, ReviewIncorrect, ReviewTimeout:
		return f, nil
	default:
		return "", fmt.Errorf("unknown review filter %q", s)
	}
}

// QuestionReview pairs a question with the answer given to it, if any.
type QuestionReview struct {
	Index    int      `json:"index"`
	Question Question `json:"question"`
	Answer   *Answer  `json:"answer,omitempty"` // nil when left unanswered
}

// Outcome classifies the review for filtering.
func (r QuestionReview) Outcome() ReviewFilter {
	switch {
	case r.Answer == nil:
		return ReviewIncorrect
	case r.Answer.IsTimeout:
		return ReviewTimeout
	case r.Answer.IsCorrect:
		return ReviewCorrect
	default:
		return ReviewIncorrect
	}
}

// Breakdown holds the per-question review precomputed for every filter.
type Breakdown map[ReviewFilter][]QuestionReview

// Result is the compiled outcome of a session.
type Result struct {
	TotalQuestions     int       `json:"total_questions"`
	Score              int       `json:"score"` // 0-100
	CorrectCount       int       `json:"correct_count"`
	WrongCount         int       `json:"wrong_count"` // includes unanswered, excludes timeouts
	TimeoutCount       int       `json:"timeout_count"`
	AverageTimeSeconds float64   `json:"average_time_seconds"`
	Breakdown          Breakdown `json:"-"`
	Answers            []Answer  `json:"-"`
}

// Review returns the precomputed review list for the filter.
func (r *Result) Review(filter ReviewFilter) []QuestionReview {
	return r.Breakdown[filter]
}

// AnswerRecord is one entry of a history submission.
type AnswerRecord struct {
	QuestionID string `json:"questionId"`
	UserAnswer string `json:"userAnswer"`
	IsCorrect  bool   `json:"isCorrect"`
	IsTimeOut  bool   `json:"isTimeOut"`
	TimeSpent  int    `json:"timeSpent"`
}

// HistoryPayload is the body handed to the history sink.
type HistoryPayload struct {
	CorrectQuestions []AnswerRecord `json:"correctQuestions"`
	WrongQuestions   []AnswerRecord `json:"wrongQuestions"`
}

// SubmitResult is the history sink response.
type SubmitResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HistoryPayload splits the answer log into correct and wrong records.
// Timed out answers are reported as wrong.
func (r *Result) HistoryPayload() HistoryPayload {
	payload := HistoryPayload{
		CorrectQuestions: make([]AnswerRecord, 0),
		WrongQuestions:   make([]AnswerRecord, 0),
	}

	for _, a := range r.Answers {
		rec := AnswerRecord{
			QuestionID: a.QuestionID,
			UserAnswer: a.SelectedAnswer,
			IsCorrect:  a.IsCorrect,
			IsTimeOut:  a.IsTimeout,
			TimeSpent:  a.TimeSpent,
		}
		if a.IsCorrect {
			payload.CorrectQuestions = append(payload.CorrectQuestions, rec)
		} else {
			payload.WrongQuestions = append(payload.WrongQuestions, rec)
		}
	}

	return payload
}

// CompileResult aggregates the answer log of a session. Questions left
// unanswered count as wrong, so the score is always relative to the full
// question set.
func CompileResult(questions []Question, answers []Answer) *Result {
	byID := make(map[string]Answer, len(answers))
	for _, a := range answers {
		byID[a.QuestionID] = a
	}

	res := &Result{
		TotalQuestions: len(questions),
		Breakdown: Breakdown{
			ReviewAll:       make([]QuestionReview, 0, len(questions)),
			ReviewCorrect:   make([]QuestionReview, 0),
			ReviewIncorrect: make([]QuestionReview, 0),
			ReviewTimeout:   make([]QuestionReview, 0),
		},
		Answers: answers,
	}

	totalTime := 0
	answered := 0
	for i, q := range questions {
		review := QuestionReview{Index: i, Question: q}
		if a, ok := byID[q.ID]; ok {
			review.Answer = &a
			totalTime += a.TimeSpent
			answered++
		}

		outcome := review.Outcome()
		switch outcome {
		case ReviewCorrect:
			res.CorrectCount++
		case ReviewTimeout:
			res.TimeoutCount++
		default:
			res.WrongCount++
		}

		res.Breakdown[ReviewAll] = append(res.Breakdown[ReviewAll], review)
		res.Breakdown[outcome] = append(res.Breakdown[outcome], review)
	}

	if len(questions) > 0 {
		res.Score = int(math.Round(float64(res.CorrectCount) / float64(len(questions)) * 100))
	}
	if answered > 0 {
		res.AverageTimeSeconds = float64(totalTime) / float64(answered)
	}

	return res
}
