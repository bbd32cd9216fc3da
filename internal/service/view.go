package service

import (
	"github.com/aliskhannn/quizzer/internal/domain/entities"
	"github.com/aliskhannn/quizzer/internal/session"
)

// QuestionView is a question as shown to the student. The correct answer is
// only revealed once the question is resolved.
type QuestionView struct {
	Index         int                 `json:"index"`
	Total         int                 `json:"total"`
	ID            string              `json:"id"`
	Prompt        string              `json:"prompt"`
	Options       []string            `json:"options"`
	Difficulty    entities.Difficulty `json:"difficulty"`
	Subject       string              `json:"subject,omitempty"`
	Hint          string              `json:"hint,omitempty"`
	ReferenceURL  string              `json:"reference_url,omitempty"`
	TimeLimit     int                 `json:"time_limit"`
	CorrectAnswer string              `json:"correct_answer,omitempty"`
}

// View is a snapshot of a session for delivery layers.
type View struct {
	SessionID        string             `json:"session_id,omitempty"`
	QuizType         entities.QuizType  `json:"quiz_type"`
	State            string             `json:"state"`
	Resumed          bool               `json:"resumed"`
	TimerEnabled     bool               `json:"timer_enabled"`
	Question         *QuestionView      `json:"question,omitempty"`
	Answer           *entities.Answer   `json:"answer,omitempty"` // answer of the current question, if resolved
	RemainingSeconds int                `json:"remaining_seconds"`
	WarningSeconds   int                `json:"warning_seconds"`
	RemainingMinutes int                `json:"remaining_minutes"`
	Progress         *entities.Progress `json:"progress,omitempty"`
	Result           *entities.Result   `json:"result,omitempty"`
}

// Finished reports whether every question is resolved.
func (v *View) Finished() bool {
	return v.Progress != nil && v.Progress.IsCompleted
}

// HasNext reports whether another question follows the current one.
func (v *View) HasNext() bool {
	return v.Question != nil && v.Question.Index+1 < v.Question.Total
}

func buildView(rt *Runtime, remainingMinutes int) *View {
	store := rt.store
	v := &View{
		QuizType:         rt.quizType,
		State:            store.State().String(),
		TimerEnabled:     store.TimerEnabled(),
		RemainingSeconds: store.RemainingSeconds(),
		WarningSeconds:   rt.monitor.Warning(),
		RemainingMinutes: remainingMinutes,
		Progress:         store.Progress(),
	}
	if snap := rt.adapter.Current(); snap != nil {
		v.SessionID = snap.SessionID
	}

	q, idx, ok := store.CurrentQuestion()
	if ok {
		total := len(store.Questions())
		v.Question = &QuestionView{
			Index:        idx,
			Total:        total,
			ID:           q.ID,
			Prompt:       q.Prompt,
			Options:      q.DisplayOptions(),
			Difficulty:   q.Difficulty,
			Subject:      q.Subject,
			Hint:         q.Hint,
			ReferenceURL: q.ReferenceURL,
			TimeLimit:    entities.TimeLimit(q.Difficulty),
		}
		if !v.TimerEnabled {
			v.Question.TimeLimit = entities.NoLimit
		}
		if v.Progress != nil && idx < len(v.Progress.Answers) {
			a := v.Progress.Answers[idx]
			v.Answer = &a
			v.Question.CorrectAnswer = q.CorrectAnswer
		}
	}

	switch store.State() {
	case session.StateFinished, session.StateResultsShown:
		v.Result = store.Result()
	}

	return v
}
