package telegram

import (
	"testing"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
)

func TestQuizCallbackRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		sub      string
		quizType entities.QuizType
		args     []string
	}{
		{"start", buildQuizStartCallback(entities.QuizTypeEntrance), quizStart, entities.QuizTypeEntrance, nil},
		{"answer", buildQuizAnswerCallback(entities.QuizTypeAcademic, 3, 1), quizAnswer, entities.QuizTypeAcademic, []string{"3", "1"}},
		{"review", buildQuizReviewCallback(entities.QuizTypeAcademic, entities.ReviewTimeout), quizReview, entities.QuizTypeAcademic, []string{"timeout"}},
		{"legacy without type", "quiz:next", quizNext, entities.QuizTypeAcademic, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if len(tt.data) > 64 {
				t.Fatalf("callback data %q exceeds Telegram's 64 byte limit", tt.data)
			}

			qc, ok := parseQuizCallback(decodeCallback(tt.data))
			if !ok {
				t.Fatalf("parseQuizCallback(%q) failed", tt.data)
			}
			if qc.Sub != tt.sub || qc.QuizType != tt.quizType {
				t.Fatalf("got %+v", qc)
			}
			if len(qc.Args) != len(tt.args) {
				t.Fatalf("args = %v, want %v", qc.Args, tt.args)
			}
			for i := range tt.args {
				if qc.Args[i] != tt.args[i] {
					t.Fatalf("args = %v, want %v", qc.Args, tt.args)
				}
			}
		})
	}
}

func TestParseQuizCallbackRejects(t *testing.T) {
	for _, data := range []string{"", "quiz", "name:3", "quiz:start:trivia"} {
		if _, ok := parseQuizCallback(decodeCallback(data)); ok {
			t.Errorf("parseQuizCallback(%q) accepted", data)
		}
	}
}

func TestQuizCallbackIntArg(t *testing.T) {
	qc, _ := parseQuizCallback(decodeCallback("quiz:answer:academic:2:x"))

	if n, ok := qc.intArg(0); !ok || n != 2 {
		t.Fatalf("intArg(0) = %d, %v", n, ok)
	}
	if _, ok := qc.intArg(1); ok {
		t.Fatal("intArg(1) should reject non-numeric input")
	}
	if _, ok := qc.intArg(5); ok {
		t.Fatal("intArg(5) should reject missing input")
	}
}
