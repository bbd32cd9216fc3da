package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
)

func testQuestions() []entities.Question {
	return []entities.Question{
		{ID: "q1", Options: []string{"a", "b"}, CorrectAnswer: "a", Difficulty: entities.DifficultyEasy},
		{ID: "q2", Options: []string{"a", "b"}, CorrectAnswer: "b", Difficulty: entities.DifficultyHard},
	}
}

func testFilter() entities.Filter {
	return entities.Filter{
		QuizType:     entities.QuizTypeEntrance,
		EntranceName: "medical",
		Count:        2,
		TimerEnabled: true,
	}
}

type failingKV struct{}

func (failingKV) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("storage unavailable")
}

func (failingKV) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("storage unavailable")
}

func (failingKV) Delete(context.Context, ...string) error {
	return errors.New("storage unavailable")
}

func TestAdapterSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	a := NewAdapter(kv, entities.QuizTypeEntrance, "owner-1")

	saved, err := a.Save(ctx, testFilter(), testQuestions(), true)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.SessionID == "" {
		t.Fatalf("Save() produced empty session id")
	}

	p := entities.NewProgress()
	p.Record(entities.Answer{QuestionID: "q1", SelectedAnswer: "a", IsCorrect: true, TimeSpent: 3})
	p.CurrentQuestionIndex = 1
	if err := a.SaveProgress(ctx, p); err != nil {
		t.Fatalf("SaveProgress() error = %v", err)
	}

	reloaded := NewAdapter(kv, entities.QuizTypeEntrance, "owner-1")
	snap := reloaded.Load(ctx)
	if snap == nil {
		t.Fatalf("Load() = nil")
	}
	if snap.SessionID != saved.SessionID || !snap.FreshShuffle || snap.Filter.EntranceName != "medical" {
		t.Fatalf("Load() = %+v", snap)
	}
	if !entities.SameOrder(snap.Questions, testQuestions()) {
		t.Fatalf("question order not preserved")
	}
	if !snap.Resumable() || len(snap.Progress.Answers) != 1 {
		t.Fatalf("snapshot progress = %+v, want resumable with one answer", snap.Progress)
	}
}

func TestAdapterLoadFailsOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("missing", func(t *testing.T) {
		a := NewAdapter(NewMemoryKV(), entities.QuizTypeAcademic, "o")
		if snap := a.Load(ctx); snap != nil {
			t.Fatalf("Load() = %+v, want nil", snap)
		}
	})

	t.Run("corrupt json", func(t *testing.T) {
		kv := NewMemoryKV()
		_ = kv.Set(ctx, Key(entities.QuizTypeAcademic, "o", "snapshot"), []byte("{not json"), 0)
		a := NewAdapter(kv, entities.QuizTypeAcademic, "o")
		if snap := a.Load(ctx); snap != nil {
			t.Fatalf("Load() = %+v, want nil", snap)
		}
	})

	t.Run("unknown version", func(t *testing.T) {
		kv := NewMemoryKV()
		_ = kv.Set(ctx, Key(entities.QuizTypeAcademic, "o", "snapshot"),
			[]byte(`{"version":99,"quiz_type":"academic","questions":[{"id":"q1"}]}`), 0)
		a := NewAdapter(kv, entities.QuizTypeAcademic, "o")
		if snap := a.Load(ctx); snap != nil {
			t.Fatalf("Load() = %+v, want nil", snap)
		}
	})

	t.Run("storage error", func(t *testing.T) {
		a := NewAdapter(failingKV{}, entities.QuizTypeAcademic, "o")
		if snap := a.Load(ctx); snap != nil {
			t.Fatalf("Load() = %+v, want nil", snap)
		}
		if got := a.RemainingSessionMinutes(ctx); got != 60 {
			t.Fatalf("RemainingSessionMinutes() = %d, want 60", got)
		}
	})
}

func TestAdapterQuizTypesDoNotShareState(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()

	academic := NewAdapter(kv, entities.QuizTypeAcademic, "o")
	entrance := NewAdapter(kv, entities.QuizTypeEntrance, "o")

	if _, err := academic.Save(ctx, entities.Filter{QuizType: entities.QuizTypeAcademic}, testQuestions(), true); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if snap := entrance.Load(ctx); snap != nil {
		t.Fatalf("entrance adapter saw academic snapshot")
	}
	if err := entrance.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}
	if snap := academic.Load(ctx); snap == nil {
		t.Fatalf("entrance ClearAll removed academic snapshot")
	}
}

func TestAdapterSaveProgressWithoutSnapshot(t *testing.T) {
	a := NewAdapter(NewMemoryKV(), entities.QuizTypeAcademic, "o")
	err := a.SaveProgress(context.Background(), entities.NewProgress())
	if !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("SaveProgress() error = %v, want ErrNoSnapshot", err)
	}
}

func TestAdapterRemainingSessionMinutes(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	kv := NewMemoryKV()
	a := NewAdapter(kv, entities.QuizTypeAcademic, "o", WithNow(func() time.Time { return now }))

	if got := a.RemainingSessionMinutes(ctx); got != 60 {
		t.Fatalf("without marker = %d, want 60", got)
	}
	if err := a.MarkSessionStart(ctx); err != nil {
		t.Fatalf("MarkSessionStart() error = %v", err)
	}

	cases := []struct {
		elapsed time.Duration
		want    int
	}{
		{0, 60},
		{30 * time.Second, 60},
		{59*time.Minute + 1*time.Second, 1},
		{60 * time.Minute, 0},
		{3 * time.Hour, 0},
	}
	start := now
	for _, tc := range cases {
		now = start.Add(tc.elapsed)
		if got := a.RemainingSessionMinutes(ctx); got != tc.want {
			t.Errorf("after %v = %d, want %d", tc.elapsed, got, tc.want)
		}
	}

	// A second mark keeps the original start.
	now = start.Add(10 * time.Minute)
	_ = a.MarkSessionStart(ctx)
	if got := a.RemainingSessionMinutes(ctx); got != 50 {
		t.Fatalf("after re-mark = %d, want 50", got)
	}

	if err := a.ClearAll(ctx); err != nil {
		t.Fatalf("ClearAll() error = %v", err)
	}
	if got := a.RemainingSessionMinutes(ctx); got != 60 {
		t.Fatalf("after ClearAll = %d, want 60", got)
	}
}

func TestRedisKV(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	ctx := context.Background()
	kv := NewRedisKV(rdb)

	if _, err := kv.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}

	a := NewAdapter(kv, entities.QuizTypeEntrance, "o", WithTTL(time.Hour))
	if _, err := a.Save(ctx, testFilter(), testQuestions(), false); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if snap := a.Load(ctx); snap == nil || snap.FreshShuffle {
		t.Fatalf("Load() = %+v", snap)
	}

	mr.FastForward(2 * time.Hour)
	if snap := a.Load(ctx); snap != nil {
		t.Fatalf("Load() after TTL = %+v, want nil", snap)
	}

	_ = kv.Set(ctx, "k1", []byte("v"), 0)
	_ = kv.Set(ctx, "k2", []byte("v"), 0)
	if err := kv.Delete(ctx, "k1", "k2"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if mr.Exists("k1") || mr.Exists("k2") {
		t.Fatalf("keys survived Delete")
	}
}

func TestMemoryKVExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	kv := NewMemoryKV()
	kv.now = func() time.Time { return now }

	_ = kv.Set(ctx, "k", []byte("v"), time.Minute)
	if _, err := kv.Get(ctx, "k"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	now = now.Add(time.Minute)
	if _, err := kv.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get() after expiry error = %v, want ErrNotFound", err)
	}
}
