package entities

// Answer records how a single question was resolved. It is created exactly
// once per question and never modified afterwards.
type Answer struct {
	QuestionID     string `json:"question_id"`
	SelectedAnswer string `json:"selected_answer"` // empty when timed out
	IsCorrect      bool   `json:"is_correct"`
	IsTimeout      bool   `json:"is_timeout"`
	TimeSpent      int    `json:"time_spent"` // seconds
}

// Progress is the mutable cursor of a session.
type Progress struct {
	CurrentQuestionIndex int      `json:"current_question_index"`
	Answers              []Answer `json:"answers"`
	CorrectCount         int      `json:"correct_count"`
	WrongCount           int      `json:"wrong_count"`
	TimeoutCount         int      `json:"timeout_count"`
	IsCompleted          bool     `json:"is_completed"`
	TotalTime            int      `json:"total_time"` // seconds
	Score                *int     `json:"score,omitempty"`
}

// NewProgress returns an empty progress.
func NewProgress() *Progress {
	return &Progress{Answers: make([]Answer, 0)}
}

// InProgress reports whether at least one answer is recorded and the session
// is not completed yet.
func (p *Progress) InProgress() bool {
	return p != nil && len(p.Answers) > 0 && !p.IsCompleted
}

// HasAnswer reports whether an answer for the question id is already recorded.
func (p *Progress) HasAnswer(questionID string) bool {
	for _, a := range p.Answers {
		if a.QuestionID == questionID {
			return true
		}
	}
	return false
}

// Record appends an answer and updates the running counters.
func (p *Progress) Record(a Answer) {
	p.Answers = append(p.Answers, a)
	p.TotalTime += a.TimeSpent

	switch {
	case a.IsTimeout:
		p.TimeoutCount++
	case a.IsCorrect:
		p.CorrectCount++
	default:
		p.WrongCount++
	}
}

// Clone returns a deep copy of the progress.
func (p *Progress) Clone() *Progress {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Answers = make([]Answer, len(p.Answers))
	copy(cp.Answers, p.Answers)
	if p.Score != nil {
		score := *p.Score
		cp.Score = &score
	}
	return &cp
}
