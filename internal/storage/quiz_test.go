package storage

import (
	"testing"
	"time"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
)

func TestQuestionSetStorageCopies(t *testing.T) {
	s := NewQuestionSetStorage()
	in := []entities.Question{{ID: "q1", Options: []string{"a", "b"}}}
	s.Store("k", in)

	in[0].Options[0] = "mutated"
	got, ok := s.Get("k")
	if !ok || got[0].Options[0] != "a" {
		t.Fatalf("Get() = %+v, %v; stored set was aliased", got, ok)
	}

	got[0].Options[1] = "mutated"
	again, _ := s.Get("k")
	if again[0].Options[1] != "b" {
		t.Fatalf("returned set was aliased")
	}
}

func TestQuestionSetStoragePurge(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	s := NewQuestionSetStorage()
	s.now = func() time.Time { return now }

	s.Store("old", []entities.Question{{ID: "q1"}})
	now = now.Add(time.Hour)
	s.Store("new", []entities.Question{{ID: "q2"}})

	if n := s.PurgeOlderThan(now.Add(-time.Minute)); n != 1 {
		t.Fatalf("PurgeOlderThan() = %d, want 1", n)
	}
	if _, ok := s.Get("old"); ok {
		t.Fatalf("old set survived purge")
	}
	if _, ok := s.Get("new"); !ok {
		t.Fatalf("new set was purged")
	}
}
