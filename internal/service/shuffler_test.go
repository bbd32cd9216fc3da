package service

import (
	"fmt"
	"math/rand"
	"slices"
	"testing"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
)

func sampleQuestions(n int) []entities.Question {
	qs := make([]entities.Question, n)
	for i := range qs {
		qs[i] = entities.Question{
			ID:            fmt.Sprintf("q%d", i+1),
			Prompt:        fmt.Sprintf("Question %d", i+1),
			Options:       []string{"alpha", "beta", "gamma", "delta"},
			CorrectAnswer: "gamma",
			Difficulty:    entities.DifficultyMedium,
		}
	}
	return qs
}

func ids(qs []entities.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func TestShuffleSessionPreservesContent(t *testing.T) {
	in := sampleQuestions(20)
	before := ids(in)

	s := NewShuffler(rand.New(rand.NewSource(7)))
	out := s.ShuffleSession(in)

	if !slices.Equal(ids(in), before) {
		t.Fatalf("input order was modified")
	}
	for _, q := range in {
		if q.ShuffledOptions != nil {
			t.Fatalf("input question %s got shuffled options", q.ID)
		}
	}

	got := ids(out)
	want := slices.Clone(before)
	slices.Sort(got)
	slices.Sort(want)
	if !slices.Equal(got, want) {
		t.Fatalf("shuffled ids = %v, want permutation of %v", got, want)
	}

	for _, q := range out {
		opts := slices.Clone(q.ShuffledOptions)
		orig := slices.Clone(q.Options)
		slices.Sort(opts)
		slices.Sort(orig)
		if !slices.Equal(opts, orig) {
			t.Fatalf("question %s options %v are not a permutation of %v", q.ID, q.ShuffledOptions, q.Options)
		}
	}
}

// Correctness is decided by value, so a shuffled display order never changes
// which option counts as correct.
func TestShuffleSessionCorrectnessByValue(t *testing.T) {
	s := NewShuffler(rand.New(rand.NewSource(11)))
	out := s.ShuffleSession([]entities.Question{{
		ID:            "q1",
		Options:       []string{"A", "B", "C", "D"},
		CorrectAnswer: "C",
	}})

	q := out[0]
	for _, opt := range q.DisplayOptions() {
		if got := q.IsCorrect(opt); got != (opt == "C") {
			t.Fatalf("IsCorrect(%q) = %v", opt, got)
		}
	}
}

func TestShuffleSessionRerandomizes(t *testing.T) {
	in := sampleQuestions(10)
	s := NewShuffler(rand.New(rand.NewSource(3)))

	first := ids(s.ShuffleSession(in))
	for i := 0; i < 10; i++ {
		if !slices.Equal(first, ids(s.ShuffleSession(in))) {
			return
		}
	}
	t.Fatalf("eleven shuffles of ten questions produced the same order")
}

func TestShuffleSessionEmpty(t *testing.T) {
	s := NewShuffler(nil)
	if out := s.ShuffleSession(nil); len(out) != 0 {
		t.Fatalf("ShuffleSession(nil) = %v", out)
	}
}
