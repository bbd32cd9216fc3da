package entities

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// QuizType separates academic quizzes from entrance-exam quizzes.
// The two types never share session state.
type QuizType string

const (
	QuizTypeAcademic QuizType = "academic"
	QuizTypeEntrance QuizType = "entrance"
)

var (
	ErrInvalidQuizType    = errors.New("invalid quiz type")
	ErrInvalidFilter      = errors.New("invalid quiz filter")
	ErrNotEnoughQuestions = errors.New("requested question count exceeds available questions")
)

// ParseQuizType parses a quiz type from user input.
func ParseQuizType(s string) (QuizType, error) {
	switch qt := QuizType(strings.ToLower(strings.TrimSpace(s))); qt {
	case QuizTypeAcademic, QuizTypeEntrance:
		return qt, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidQuizType, s)
	}
}

// Filter narrows which questions are fetched for a session.
type Filter struct {
	QuizType QuizType `json:"quiz_type"`

	// Academic category path.
	Level   string `json:"level,omitempty"`
	Faculty string `json:"faculty,omitempty"`
	Year    string `json:"year,omitempty"`

	// Entrance category.
	EntranceName string     `json:"entrance_name,omitempty"`
	Difficulty   Difficulty `json:"difficulty,omitempty"`

	Subjects     []string `json:"subjects,omitempty"`
	Count        int      `json:"count"`
	TimerEnabled bool     `json:"timer_enabled"`
}

// Validate checks the filter shape and that the requested count can be served
// from the available questions. available < 0 skips the availability check.
func (f Filter) Validate(available int) error {
	switch f.QuizType {
	case QuizTypeAcademic:
		if f.Level == "" || f.Faculty == "" || f.Year == "" {
			return fmt.Errorf("%w: academic quiz requires level, faculty and year", ErrInvalidFilter)
		}
	case QuizTypeEntrance:
		if f.EntranceName == "" {
			return fmt.Errorf("%w: entrance quiz requires entrance name", ErrInvalidFilter)
		}
		if f.Difficulty != "" && !f.Difficulty.Valid() {
			return fmt.Errorf("%w: unknown difficulty %q", ErrInvalidFilter, f.Difficulty)
		}
	default:
		return ErrInvalidQuizType
	}

	if f.Count < 1 {
		return fmt.Errorf("%w: question count must be positive", ErrInvalidFilter)
	}

	if available >= 0 && f.Count > available {
		return fmt.Errorf("%w: requested %d, available %d", ErrNotEnoughQuestions, f.Count, available)
	}

	return nil
}

// Key returns a stable identifier for the filter, used for caching and
// de-duplicating in-flight fetches. The timer flag does not affect the
// question set and is left out.
func (f Filter) Key() string {
	subjects := slices.Clone(f.Subjects)
	slices.Sort(subjects)

	parts := []string{string(f.QuizType)}
	switch f.QuizType {
	case QuizTypeAcademic:
		parts = append(parts, f.Level, f.Faculty, f.Year)
	case QuizTypeEntrance:
		parts = append(parts, f.EntranceName, string(f.Difficulty))
	}
	parts = append(parts, strings.Join(subjects, ","), strconv.Itoa(f.Count))

	return strings.Join(parts, "|")
}
