package entities

// Difficulty is the difficulty level of a question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	default:
		return false
	}
}

// Question is a multiple choice question served to a student.
// Correctness is always decided by comparing option values with CorrectAnswer,
// never by option position.
type Question struct {
	ID            string     `json:"id"`
	Prompt        string     `json:"prompt"`
	Options       []string   `json:"options"`        // original option order
	CorrectAnswer string     `json:"correct_answer"` // value of the correct option
	Difficulty    Difficulty `json:"difficulty"`
	Subject       string     `json:"subject"`
	Hint          string     `json:"hint,omitempty"`
	ReferenceURL  string     `json:"reference_url,omitempty"`
	Tags          []string   `json:"tags,omitempty"`

	// ShuffledOptions is a permutation of Options fixed for the whole session.
	ShuffledOptions []string `json:"shuffled_options,omitempty"`
}

// IsCorrect reports whether the selected option value is the correct one.
func (q *Question) IsCorrect(selected string) bool {
	return selected != "" && selected == q.CorrectAnswer
}

// DisplayOptions returns the options in the order they are shown to the student.
func (q *Question) DisplayOptions() []string {
	if len(q.ShuffledOptions) > 0 {
		return q.ShuffledOptions
	}
	return q.Options
}

// Clone returns a deep copy of the question.
func (q Question) Clone() Question {
	q.Options = cloneStrings(q.Options)
	q.Tags = cloneStrings(q.Tags)
	q.ShuffledOptions = cloneStrings(q.ShuffledOptions)
	return q
}

// CloneQuestions returns a deep copy of the list.
func CloneQuestions(questions []Question) []Question {
	if questions == nil {
		return nil
	}
	out := make([]Question, len(questions))
	for i := range questions {
		out[i] = questions[i].Clone()
	}
	return out
}

// SameOrder reports whether both lists hold the same question ids in the same order.
func SameOrder(a, b []Question) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			return false
		}
	}
	return true
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
