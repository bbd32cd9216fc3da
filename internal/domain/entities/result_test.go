package entities

import (
	"errors"
	"testing"
)

func threeQuestions() []Question {
	return []Question{
		{ID: "q1", CorrectAnswer: "a", Difficulty: DifficultyEasy},
		{ID: "q2", CorrectAnswer: "b", Difficulty: DifficultyMedium},
		{ID: "q3", CorrectAnswer: "c", Difficulty: DifficultyHard},
	}
}

func TestCompileResult(t *testing.T) {
	answers := []Answer{
		{QuestionID: "q1", SelectedAnswer: "a", IsCorrect: true, TimeSpent: 4},
		{QuestionID: "q2", IsTimeout: true, TimeSpent: 15},
		{QuestionID: "q3", SelectedAnswer: "x", TimeSpent: 8},
	}

	res := CompileResult(threeQuestions(), answers)

	if res.TotalQuestions != 3 || res.CorrectCount != 1 || res.TimeoutCount != 1 || res.WrongCount != 1 {
		t.Fatalf("counts = %+v", res)
	}
	if res.Score != 33 {
		t.Fatalf("Score = %d, want 33", res.Score)
	}
	if res.AverageTimeSeconds != 9 {
		t.Fatalf("AverageTimeSeconds = %v, want 9", res.AverageTimeSeconds)
	}

	tests := []struct {
		filter ReviewFilter
		ids    []string
	}{
		{ReviewAll, []string{"q1", "q2", "q3"}},
		{ReviewCorrect, []string{"q1"}},
		{ReviewIncorrect, []string{"q3"}},
		{ReviewTimeout, []string{"q2"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			got := res.Review(tt.filter)
			if len(got) != len(tt.ids) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.ids))
			}
			for i, id := range tt.ids {
				if got[i].Question.ID != id {
					t.Fatalf("review[%d] = %s, want %s", i, got[i].Question.ID, id)
				}
			}
		})
	}
}

func TestCompileResultCountsUnansweredAsWrong(t *testing.T) {
	res := CompileResult(threeQuestions(), []Answer{
		{QuestionID: "q1", SelectedAnswer: "a", IsCorrect: true, TimeSpent: 6},
	})

	if res.Score != 33 || res.WrongCount != 2 {
		t.Fatalf("score = %d, wrong = %d", res.Score, res.WrongCount)
	}
	if res.AverageTimeSeconds != 6 {
		t.Fatalf("AverageTimeSeconds = %v", res.AverageTimeSeconds)
	}
	if got := res.Review(ReviewIncorrect); len(got) != 2 || got[0].Answer != nil {
		t.Fatalf("incorrect review = %+v", got)
	}
}

func TestCompileResultEmpty(t *testing.T) {
	res := CompileResult(nil, nil)
	if res.Score != 0 || res.AverageTimeSeconds != 0 || len(res.Review(ReviewAll)) != 0 {
		t.Fatalf("result = %+v", res)
	}
}

func TestHistoryPayloadReportsTimeoutsAsWrong(t *testing.T) {
	res := CompileResult(threeQuestions(), []Answer{
		{QuestionID: "q1", SelectedAnswer: "a", IsCorrect: true, TimeSpent: 3},
		{QuestionID: "q2", IsTimeout: true, TimeSpent: 15},
	})

	p := res.HistoryPayload()
	if len(p.CorrectQuestions) != 1 || p.CorrectQuestions[0].QuestionID != "q1" {
		t.Fatalf("correct = %+v", p.CorrectQuestions)
	}
	if len(p.WrongQuestions) != 1 || !p.WrongQuestions[0].IsTimeOut || p.WrongQuestions[0].UserAnswer != "" {
		t.Fatalf("wrong = %+v", p.WrongQuestions)
	}
}

func TestParseReviewFilter(t *testing.T) {
	if f, err := ParseReviewFilter(""); err != nil || f != ReviewAll {
		t.Fatalf("empty = %q, %v", f, err)
	}
	if f, err := ParseReviewFilter("timeout"); err != nil || f != ReviewTimeout {
		t.Fatalf("timeout = %q, %v", f, err)
	}
	if _, err := ParseReviewFilter("wrong"); err == nil {
		t.Fatal("unknown filter accepted")
	}
}

func TestTimeLimit(t *testing.T) {
	tests := map[Difficulty]int{
		DifficultyEasy:   10,
		DifficultyMedium: 15,
		DifficultyHard:   20,
		"":               15,
	}
	for d, want := range tests {
		if got := TimeLimit(d); got != want {
			t.Errorf("TimeLimit(%q) = %d, want %d", d, got, want)
		}
	}
}

func TestFilterValidate(t *testing.T) {
	tests := []struct {
		name      string
		filter    Filter
		available int
		want      error
	}{
		{"academic ok", Filter{QuizType: QuizTypeAcademic, Level: "l", Faculty: "f", Year: "1", Count: 5}, 5, nil},
		{"academic missing year", Filter{QuizType: QuizTypeAcademic, Level: "l", Faculty: "f", Count: 5}, -1, ErrInvalidFilter},
		{"entrance bad difficulty", Filter{QuizType: QuizTypeEntrance, EntranceName: "IOE", Difficulty: "extreme", Count: 1}, -1, ErrInvalidFilter},
		{"zero count", Filter{QuizType: QuizTypeEntrance, EntranceName: "IOE"}, -1, ErrInvalidFilter},
		{"too many", Filter{QuizType: QuizTypeEntrance, EntranceName: "IOE", Count: 6}, 5, ErrNotEnoughQuestions},
		{"unknown type", Filter{QuizType: "trivia", Count: 1}, -1, ErrInvalidQuizType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.filter.Validate(tt.available)
			if tt.want == nil && err != nil {
				t.Fatalf("Validate() = %v", err)
			}
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFilterKeyIgnoresSubjectOrderAndTimer(t *testing.T) {
	a := Filter{QuizType: QuizTypeEntrance, EntranceName: "IOE", Subjects: []string{"math", "physics"}, Count: 10, TimerEnabled: true}
	b := Filter{QuizType: QuizTypeEntrance, EntranceName: "IOE", Subjects: []string{"physics", "math"}, Count: 10}

	if a.Key() != b.Key() {
		t.Fatalf("keys differ: %q vs %q", a.Key(), b.Key())
	}

	b.Count = 11
	if a.Key() == b.Key() {
		t.Fatal("count must be part of the key")
	}
	if a.Subjects[0] != "math" {
		t.Fatal("Key() must not reorder the filter subjects")
	}
}

func TestSnapshotResumable(t *testing.T) {
	qs := threeQuestions()
	started := &Progress{Answers: []Answer{{QuestionID: "q1"}}}

	tests := []struct {
		name string
		snap *Snapshot
		want bool
	}{
		{"nil", nil, false},
		{"no progress", &Snapshot{Questions: qs}, false},
		{"started", &Snapshot{Questions: qs, Progress: started}, true},
		{"completed", &Snapshot{Questions: qs, Progress: &Progress{Answers: started.Answers, IsCompleted: true}}, false},
		{"no questions", &Snapshot{Progress: started}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snap.Resumable(); got != tt.want {
				t.Fatalf("Resumable() = %v, want %v", got, tt.want)
			}
		})
	}
}
