package storage

import (
	"sync"
	"time"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
)

type questionSet struct {
	questions []entities.Question
	storedAt  time.Time
}

// QuestionSetStorage provides in-memory storage for fetched question sets,
// keyed per owner and filter, so that "play again" never needs another fetch.
type QuestionSetStorage struct {
	mu   sync.RWMutex
	sets map[string]questionSet
	now  func() time.Time
}

// NewQuestionSetStorage creates a new QuestionSetStorage.
func NewQuestionSetStorage() *QuestionSetStorage {
	return &QuestionSetStorage{
		sets: make(map[string]questionSet),
		now:  time.Now,
	}
}

// Store saves a copy of the question set under key.
func (s *QuestionSetStorage) Store(key string, questions []entities.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[key] = questionSet{
		questions: entities.CloneQuestions(questions),
		storedAt:  s.now(),
	}
}

// Get retrieves a copy of the question set stored under key.
func (s *QuestionSetStorage) Get(key string) ([]entities.Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sets[key]
	if !ok {
		return nil, false
	}
	return entities.CloneQuestions(set.questions), true
}

// PurgeOlderThan removes sets stored before cutoff and returns how many were
// removed.
func (s *QuestionSetStorage) PurgeOlderThan(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key, set := range s.sets {
		if set.storedAt.Before(cutoff) {
			delete(s.sets, key)
			n++
		}
	}
	return n
}
