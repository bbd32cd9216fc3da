package service

import (
	"math/rand"
	"sync"
	"time"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
)

// Shuffler randomizes question order and option order for a session.
type Shuffler struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewShuffler creates a shuffler. A nil rng is seeded from the current time.
func NewShuffler(rng *rand.Rand) *Shuffler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Shuffler{rng: rng}
}

// ShuffleSession returns a shuffled copy of questions. Every question in the
// copy carries its own permutation of the options in ShuffledOptions.
// The input is never modified.
func (s *Shuffler) ShuffleSession(questions []entities.Question) []entities.Question {
	out := entities.CloneQuestions(questions)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })

	for i := range out {
		opts := append([]string(nil), out[i].Options...)
		s.rng.Shuffle(len(opts), func(a, b int) { opts[a], opts[b] = opts[b], opts[a] })
		out[i].ShuffledOptions = opts
	}

	return out
}
