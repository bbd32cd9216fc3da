package telegram

import (
	"context"
	"fmt"
	"math/rand"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
	"github.com/aliskhannn/quizzer/internal/persistence"
	"github.com/aliskhannn/quizzer/internal/service"
	"github.com/aliskhannn/quizzer/internal/session/sessiontest"
	"github.com/aliskhannn/quizzer/internal/storage"
)

const (
	testChatID = int64(100)
	testUserID = int64(7)
)

type fakeBot struct {
	mu       sync.Mutex
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sent = append(b.sent, c)
	b.nextID++
	return tgbotapi.Message{MessageID: b.nextID}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.requests = append(b.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (b *fakeBot) last() tgbotapi.Chattable {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent[len(b.sent)-1]
}

func (b *fakeBot) lastNotice() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	cb, _ := b.requests[len(b.requests)-1].(tgbotapi.CallbackConfig)
	return cb.Text
}

type stubSource struct {
	questions []entities.Question
}

func (s *stubSource) Count(context.Context, entities.Filter) (int, error) {
	return len(s.questions), nil
}

func (s *stubSource) Fetch(_ context.Context, f entities.Filter) ([]entities.Question, error) {
	return entities.CloneQuestions(s.questions[:min(f.Count, len(s.questions))]), nil
}

type stubSink struct {
	payloads []entities.HistoryPayload
}

func (s *stubSink) Submit(_ context.Context, _ string, p entities.HistoryPayload) (entities.SubmitResult, error) {
	s.payloads = append(s.payloads, p)
	return entities.SubmitResult{Success: true, Message: "saved"}, nil
}

type fixture struct {
	bot      *fakeBot
	handler  *Handler
	quizzes  *service.QuizService
	messages *storage.QuestionMessageStorage
	sink     *stubSink
	clock    *sessiontest.Clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	questions := make([]entities.Question, 2)
	for i := range questions {
		questions[i] = entities.Question{
			ID:            fmt.Sprintf("q%d", i+1),
			Prompt:        fmt.Sprintf("Question %d?", i+1),
			Options:       []string{"wrong one", "right", "wrong two", "wrong three"},
			CorrectAnswer: "right",
			Difficulty:    entities.DifficultyEasy,
		}
	}

	clock := sessiontest.NewClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	sink := &stubSink{}
	quizzes := service.NewQuizService(
		&stubSource{questions: questions},
		sink,
		persistence.NewMemoryKV(),
		storage.NewQuestionSetStorage(),
		service.NewShuffler(rand.New(rand.NewSource(3))),
		clock,
		service.DefaultConfig(),
		zap.NewNop(),
	)

	bot := &fakeBot{}
	messages := storage.NewQuestionMessageStorage()
	h := NewHandler(bot, zap.NewNop(), quizzes, messages)
	quizzes.SetEventHandler(h.OnSessionEvent)

	return &fixture{bot: bot, handler: h, quizzes: quizzes, messages: messages, sink: sink, clock: clock}
}

func (f *fixture) command(text string) {
	cmd, _, _ := strings.Cut(text, " ")
	f.handler.handleUpdate(context.Background(), tgbotapi.Update{
		Message: &tgbotapi.Message{
			Text:     text,
			Chat:     &tgbotapi.Chat{ID: testChatID},
			From:     &tgbotapi.User{ID: testUserID},
			Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
		},
	})
}

func (f *fixture) press(messageID int, data string) {
	f.handler.handleUpdate(context.Background(), tgbotapi.Update{
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    &tgbotapi.User{ID: testUserID},
			Message: &tgbotapi.Message{MessageID: messageID, Chat: &tgbotapi.Chat{ID: testChatID}},
			Data:    data,
		},
	})
}

func (f *fixture) correctOption(t *testing.T) int {
	t.Helper()
	view, err := f.quizzes.Current(context.Background(), ownerOf(testUserID), entities.QuizTypeEntrance)
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	return slices.Index(view.Question.Options, "right")
}

func editText(t *testing.T, c tgbotapi.Chattable) string {
	t.Helper()
	edit, ok := c.(tgbotapi.EditMessageTextConfig)
	if !ok {
		t.Fatalf("last message is %T, want an edit", c)
	}
	return edit.Text
}

func TestQuizFlowOverTelegram(t *testing.T) {
	f := newFixture(t)

	f.command("/entrance IOE easy 2")
	ready, ok := f.bot.last().(tgbotapi.MessageConfig)
	if !ok || !strings.Contains(ready.Text, "Entrance quiz ready") {
		t.Fatalf("ready message = %+v", f.bot.last())
	}

	f.press(1, buildQuizStartCallback(entities.QuizTypeEntrance))
	if text := editText(t, f.bot.last()); !strings.Contains(text, "Question 1/2") {
		t.Fatalf("first question = %q", text)
	}
	msg, ok := f.messages.Get(testUserID, entities.QuizTypeEntrance)
	if !ok || msg.MessageID != 1 || msg.Index != 0 {
		t.Fatalf("stored message = %+v, %v", msg, ok)
	}

	answer := buildQuizAnswerCallback(entities.QuizTypeEntrance, 0, f.correctOption(t))
	f.clock.Advance(2 * time.Second)
	f.press(1, answer)
	if text := editText(t, f.bot.last()); !strings.Contains(text, "Correct") {
		t.Fatalf("feedback = %q", text)
	}

	// A second press on the same keyboard is rejected.
	f.press(1, answer)
	if notice := f.bot.lastNotice(); notice != msgQuestionClosed {
		t.Fatalf("notice = %q, want %q", notice, msgQuestionClosed)
	}

	f.press(1, buildQuizNextCallback(entities.QuizTypeEntrance))
	next, ok := f.bot.last().(tgbotapi.MessageConfig)
	if !ok || !strings.Contains(next.Text, "Question 2/2") {
		t.Fatalf("second question = %+v", f.bot.last())
	}
	msg, _ = f.messages.Get(testUserID, entities.QuizTypeEntrance)
	if msg.Index != 1 || msg.MessageID == 1 {
		t.Fatalf("stored message = %+v", msg)
	}

	// Easy questions time out after 10 seconds; the bot edits the message itself.
	f.clock.Advance(11 * time.Second)
	if text := editText(t, f.bot.last()); !strings.Contains(text, "Time's up") {
		t.Fatalf("timeout edit = %q", text)
	}

	f.press(msg.MessageID, buildQuizResultsCallback(entities.QuizTypeEntrance))
	if text := editText(t, f.bot.last()); !strings.Contains(text, "Score: 50%") {
		t.Fatalf("results = %q", text)
	}

	f.press(msg.MessageID, buildQuizHistoryCallback(entities.QuizTypeEntrance))
	if notice := f.bot.lastNotice(); notice != msgHistorySaved {
		t.Fatalf("notice = %q", notice)
	}
	if len(f.sink.payloads) != 1 || len(f.sink.payloads[0].CorrectQuestions) != 1 || len(f.sink.payloads[0].WrongQuestions) != 1 {
		t.Fatalf("payloads = %+v", f.sink.payloads)
	}
}

func TestCommandErrors(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		command string
		want    string
	}{
		{"/entrance", msgEntranceUsage},
		{"/academic bachelor", msgAcademicUsage},
		{"/entrance IOE 5", msgNotEnough},
		{"/resume", msgQuizTypeUsage},
		{"/resume academic", msgNoSession},
		{"/unknown", msgUnknownCommand},
	}

	for _, tt := range tests {
		t.Run(tt.command, func(t *testing.T) {
			f.command(tt.command)
			msg, ok := f.bot.last().(tgbotapi.MessageConfig)
			if !ok || msg.Text != tt.want {
				t.Fatalf("reply = %+v, want %q", f.bot.last(), tt.want)
			}
		})
	}
}

func TestStopDiscardsSession(t *testing.T) {
	f := newFixture(t)

	f.command("/entrance IOE 2")
	f.press(1, buildQuizStartCallback(entities.QuizTypeEntrance))

	f.command("/stop entrance")
	msg, ok := f.bot.last().(tgbotapi.MessageConfig)
	if !ok || msg.Text != msgStopped {
		t.Fatalf("reply = %+v", f.bot.last())
	}
	if _, ok := f.messages.Get(testUserID, entities.QuizTypeEntrance); ok {
		t.Fatal("question message should be forgotten")
	}

	f.command("/resume entrance")
	msg, _ = f.bot.last().(tgbotapi.MessageConfig)
	if msg.Text != msgNoSession {
		t.Fatalf("resume after stop = %q", msg.Text)
	}
}

func TestOwnerNamespace(t *testing.T) {
	if got := ownerOf(42); got != "tg:42" {
		t.Fatalf("ownerOf(42) = %q", got)
	}
	if id, ok := userOf("tg:42"); !ok || id != 42 {
		t.Fatalf("userOf = %d, %v", id, ok)
	}
	if _, ok := userOf("browser-client"); ok {
		t.Fatal("non-Telegram owners must be ignored")
	}
}
