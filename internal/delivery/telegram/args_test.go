package telegram

import (
	"errors"
	"testing"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
)

func TestParseAcademicArgs(t *testing.T) {
	f, err := parseAcademicArgs("bachelor science 1 5 notimer physics chemistry")
	if err != nil {
		t.Fatalf("parseAcademicArgs() error = %v", err)
	}

	if f.QuizType != entities.QuizTypeAcademic || f.Level != "bachelor" || f.Faculty != "science" || f.Year != "1" {
		t.Fatalf("filter = %+v", f)
	}
	if f.Count != 5 || f.TimerEnabled {
		t.Fatalf("count/timer = %d/%v", f.Count, f.TimerEnabled)
	}
	if len(f.Subjects) != 2 || f.Subjects[0] != "physics" {
		t.Fatalf("subjects = %v", f.Subjects)
	}
	if err := f.Validate(-1); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestParseEntranceArgs(t *testing.T) {
	tests := []struct {
		args       string
		difficulty entities.Difficulty
		count      int
		subjects   int
	}{
		{"IOE", "", defaultQuestionCount, 0},
		{"IOE Hard", entities.DifficultyHard, defaultQuestionCount, 0},
		{"IOE easy 20", entities.DifficultyEasy, 20, 0},
		{"IOE 15 physics", "", 15, 1},
	}

	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			f, err := parseEntranceArgs(tt.args)
			if err != nil {
				t.Fatalf("error = %v", err)
			}
			if f.EntranceName != "IOE" || f.Difficulty != tt.difficulty || f.Count != tt.count || len(f.Subjects) != tt.subjects {
				t.Fatalf("filter = %+v", f)
			}
			if !f.TimerEnabled {
				t.Fatal("timer should default to on")
			}
		})
	}
}

func TestParseArgsUsage(t *testing.T) {
	if f, err := parseAcademicArgs("bachelor science"); !errors.Is(err, errUsage) || f.QuizType != entities.QuizTypeAcademic {
		t.Fatalf("academic = %+v, %v", f, err)
	}
	if f, err := parseEntranceArgs(""); !errors.Is(err, errUsage) || f.QuizType != entities.QuizTypeEntrance {
		t.Fatalf("entrance = %+v, %v", f, err)
	}
	if _, err := parseEntranceArgs("IOE 0"); !errors.Is(err, errUsage) {
		t.Fatalf("zero count error = %v", err)
	}
	if _, err := parseQuizTypeArg(""); !errors.Is(err, errUsage) {
		t.Fatalf("empty quiz type error = %v", err)
	}
	if _, err := parseQuizTypeArg("trivia"); !errors.Is(err, entities.ErrInvalidQuizType) {
		t.Fatalf("unknown quiz type error = %v", err)
	}
}
