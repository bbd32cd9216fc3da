package storage

import (
	"sync"
	"time"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
)

// QuestionMessage points at the chat message that shows the current question.
type QuestionMessage struct {
	ChatID    int64
	MessageID int
	QuizType  entities.QuizType
	Index     int
	SentAt    time.Time
}

type messageKey struct {
	userID   int64
	quizType entities.QuizType
}

// QuestionMessageStorage keeps the question message of every Telegram user
// and quiz type, so countdown events can edit it after the handler returned.
type QuestionMessageStorage struct {
	mu       sync.RWMutex
	messages map[messageKey]QuestionMessage
}

func NewQuestionMessageStorage() *QuestionMessageStorage {
	return &QuestionMessageStorage{
		messages: make(map[messageKey]QuestionMessage),
	}
}

func (s *QuestionMessageStorage) Store(userID int64, msg QuestionMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}
	s.messages[messageKey{userID, msg.QuizType}] = msg
}

func (s *QuestionMessageStorage) Get(userID int64, quizType entities.QuizType) (QuestionMessage, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msg, ok := s.messages[messageKey{userID, quizType}]
	return msg, ok
}

func (s *QuestionMessageStorage) Delete(userID int64, quizType entities.QuizType) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.messages, messageKey{userID, quizType})
}
