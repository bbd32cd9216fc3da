// Package backend talks to the external quiz backend that owns the question
// bank and the history of submitted sessions.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
)

const defaultTimeout = 10 * time.Second

// Client is a question source and history sink backed by the quiz backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for baseURL. A nil httpClient gets a default
// client with a timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

type countResponse struct {
	Count int `json:"count"`
}

type questionsResponse struct {
	Questions []entities.Question `json:"questions"`
}

// Count returns the number of questions available for the filter.
func (c *Client) Count(ctx context.Context, filter entities.Filter) (int, error) {
	var payload countResponse
	path := "/questions/" + string(filter.QuizType) + "/count"
	if err := c.get(ctx, path, filterQuery(filter, false), &payload); err != nil {
		return 0, err
	}
	return payload.Count, nil
}

// Fetch returns at most filter.Count questions.
func (c *Client) Fetch(ctx context.Context, filter entities.Filter) ([]entities.Question, error) {
	var payload questionsResponse
	if err := c.get(ctx, "/questions/"+string(filter.QuizType), filterQuery(filter, true), &payload); err != nil {
		return nil, err
	}

	questions := payload.Questions
	if len(questions) > filter.Count {
		questions = questions[:filter.Count]
	}
	return questions, nil
}

// Submit posts the history payload on behalf of owner.
func (c *Client) Submit(
	ctx context.Context, owner string, payload entities.HistoryPayload,
) (entities.SubmitResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return entities.SubmitResult{}, fmt.Errorf("marshal history: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/history", bytes.NewReader(body))
	if err != nil {
		return entities.SubmitResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Client-ID", owner)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entities.SubmitResult{}, err
	}
	defer resp.Body.Close()

	var res entities.SubmitResult
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		if resp.StatusCode != http.StatusOK {
			return entities.SubmitResult{}, fmt.Errorf("backend returned status %d", resp.StatusCode)
		}
		return entities.SubmitResult{}, fmt.Errorf("decode history response: %w", err)
	}

	// A 4xx with a body is a rejection the caller can show; anything else is a failure.
	if resp.StatusCode >= http.StatusInternalServerError {
		return entities.SubmitResult{}, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, res.Error)
	}
	if resp.StatusCode != http.StatusOK {
		res.Success = false
	}

	return res, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("backend returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func filterQuery(f entities.Filter, withCount bool) url.Values {
	q := url.Values{}

	switch f.QuizType {
	case entities.QuizTypeAcademic:
		q.Set("level", f.Level)
		q.Set("faculty", f.Faculty)
		q.Set("year", f.Year)
	case entities.QuizTypeEntrance:
		q.Set("entrance", f.EntranceName)
		if f.Difficulty != "" {
			q.Set("difficulty", string(f.Difficulty))
		}
	}

	if len(f.Subjects) > 0 {
		q.Set("subjects", strings.Join(f.Subjects, ","))
	}
	if withCount {
		q.Set("count", strconv.Itoa(f.Count))
	}

	return q
}
