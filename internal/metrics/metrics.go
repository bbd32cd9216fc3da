// Package metrics holds the prometheus collectors of the service.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	SessionsStarted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizzer_sessions_started_total",
			Help: "Quiz sessions started",
		},
		[]string{"quiz_type"},
	)

	SessionsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizzer_sessions_completed_total",
			Help: "Quiz sessions that resolved every question",
		},
		[]string{"quiz_type"},
	)

	Answers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizzer_answers_total",
			Help: "Resolved questions by outcome",
		},
		[]string{"quiz_type", "outcome"},
	)

	IntegritySignals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizzer_integrity_signals_total",
			Help: "Integrity signals observed during an in-progress session",
		},
		[]string{"signal"},
	)

	IntegrityResets = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "quizzer_integrity_resets_total",
			Help: "Attempts reset after an integrity warning expired",
		},
	)

	QuestionFetches = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizzer_question_fetches_total",
			Help: "Question source fetches by result",
		},
		[]string{"quiz_type", "result"},
	)

	HistorySubmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quizzer_history_submissions_total",
			Help: "History submissions by result",
		},
		[]string{"result"},
	)
)

var once sync.Once

// Init registers the collectors with the default registry. It is safe to call
// more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			SessionsStarted,
			SessionsCompleted,
			Answers,
			IntegritySignals,
			IntegrityResets,
			QuestionFetches,
			HistorySubmissions,
		)
	})
}

// Outcome labels a resolved answer.
func Outcome(isCorrect, isTimeout bool) string {
	switch {
	case isTimeout:
		return "timeout"
	case isCorrect:
		return "correct"
	default:
		return "wrong"
	}
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
