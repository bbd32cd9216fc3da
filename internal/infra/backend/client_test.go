package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func newTestClient(rt http.RoundTripper) *Client {
	return NewClient("http://backend.test/api/", &http.Client{Transport: rt})
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

func TestFetchBuildsEntranceQuery(t *testing.T) {
	var seen *http.Request

	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		seen = r
		return jsonResponse(http.StatusOK, `{"questions":[
			{"id":"q1","prompt":"?","options":["a","b"],"correct_answer":"a","difficulty":"hard"},
			{"id":"q2","prompt":"?","options":["a","b"],"correct_answer":"b","difficulty":"easy"},
			{"id":"q3","prompt":"?","options":["a","b"],"correct_answer":"b","difficulty":"easy"}
		]}`), nil
	}))

	filter := entities.Filter{
		QuizType:     entities.QuizTypeEntrance,
		EntranceName: "engineering",
		Difficulty:   entities.DifficultyHard,
		Subjects:     []string{"physics", "math"},
		Count:        2,
	}
	questions, err := client.Fetch(context.Background(), filter)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected at most 2 questions, got %d", len(questions))
	}
	if questions[0].Difficulty != entities.DifficultyHard || questions[0].CorrectAnswer != "a" {
		t.Fatalf("unexpected first question: %+v", questions[0])
	}

	if seen.URL.Path != "/api/questions/entrance" {
		t.Fatalf("unexpected path %q", seen.URL.Path)
	}
	q := seen.URL.Query()
	if q.Get("entrance") != "engineering" || q.Get("difficulty") != "hard" ||
		q.Get("subjects") != "physics,math" || q.Get("count") != "2" {
		t.Fatalf("unexpected query %q", seen.URL.RawQuery)
	}
}

func TestCountAcademic(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if r.URL.Path != "/api/questions/academic/count" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if r.URL.Query().Get("faculty") != "science" || r.URL.Query().Has("count") {
			t.Fatalf("unexpected query %q", r.URL.RawQuery)
		}
		return jsonResponse(http.StatusOK, `{"count":42}`), nil
	}))

	n, err := client.Count(context.Background(), entities.Filter{
		QuizType: entities.QuizTypeAcademic,
		Level:    "bachelor",
		Faculty:  "science",
		Year:     "2",
		Count:    10,
	})
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if n != 42 {
		t.Fatalf("expected 42, got %d", n)
	}
}

func TestFetchPropagatesNonOKStatus(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadGateway, ``), nil
	}))

	if _, err := client.Fetch(context.Background(), entities.Filter{QuizType: entities.QuizTypeAcademic, Count: 1}); err == nil {
		t.Fatalf("expected error for non-200 status")
	}
}

func TestFetchJSONDecodeError(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `not-json`), nil
	}))

	if _, err := client.Fetch(context.Background(), entities.Filter{QuizType: entities.QuizTypeAcademic, Count: 1}); err == nil {
		t.Fatalf("expected JSON decode error")
	}
}

func TestSubmitSendsPayload(t *testing.T) {
	var got entities.HistoryPayload
	var owner string

	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/history" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		owner = r.Header.Get("X-Client-ID")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		return jsonResponse(http.StatusOK, `{"success":true,"message":"saved"}`), nil
	}))

	payload := entities.HistoryPayload{
		CorrectQuestions: []entities.AnswerRecord{{QuestionID: "q1", UserAnswer: "a", IsCorrect: true, TimeSpent: 4}},
		WrongQuestions:   []entities.AnswerRecord{{QuestionID: "q2", IsTimeOut: true, TimeSpent: 15}},
	}
	res, err := client.Submit(context.Background(), "student-7", payload)
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if !res.Success || res.Message != "saved" {
		t.Fatalf("unexpected result %+v", res)
	}
	if owner != "student-7" {
		t.Fatalf("expected owner header, got %q", owner)
	}
	if len(got.CorrectQuestions) != 1 || len(got.WrongQuestions) != 1 || !got.WrongQuestions[0].IsTimeOut {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestSubmitRejected(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, `{"success":true,"error":"duplicate submission"}`), nil
	}))

	res, err := client.Submit(context.Background(), "o", entities.HistoryPayload{})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if res.Success || res.Error != "duplicate submission" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestSubmitServerError(t *testing.T) {
	client := newTestClient(roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusInternalServerError, `{"success":false,"error":"db down"}`), nil
	}))

	if _, err := client.Submit(context.Background(), "o", entities.HistoryPayload{}); err == nil {
		t.Fatalf("expected error for 500 status")
	}
}
