package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
	"github.com/aliskhannn/quizzer/internal/integrity"
)

// ClientIDHeader carries the opaque id that namespaces a client's sessions.
const ClientIDHeader = "X-Client-ID"

// Handler serves the quiz session API.
type Handler struct {
	quizzes QuizService
	logger  *zap.Logger
}

func NewHandler(quizzes QuizService, logger *zap.Logger) *Handler {
	return &Handler{quizzes: quizzes, logger: logger}
}

type prepareRequest struct {
	Level        string   `json:"level"`
	Faculty      string   `json:"faculty"`
	Year         string   `json:"year"`
	EntranceName string   `json:"entrance_name"`
	Difficulty   string   `json:"difficulty"`
	Subjects     []string `json:"subjects"`
	Count        int      `json:"count" binding:"required,min=1"`
	TimerEnabled *bool    `json:"timer_enabled"`
}

type answerRequest struct {
	Value string `json:"value" binding:"required"`
}

type signalRequest struct {
	Signal string `json:"signal" binding:"required"`
}

type answerResponse struct {
	Accepted bool `json:"accepted"`
	View     any  `json:"session"`
}

type resultsResponse struct {
	Result *entities.Result          `json:"result"`
	Filter entities.ReviewFilter     `json:"filter"`
	Review []entities.QuestionReview `json:"review"`
}

// sessionParams extracts the client id and quiz type of the request.
func sessionParams(c *gin.Context) (string, entities.QuizType, bool) {
	quizType, err := entities.ParseQuizType(c.Param("type"))
	if err != nil {
		badRequest(c, err.Error())
		return "", "", false
	}

	owner := c.GetHeader(ClientIDHeader)
	if owner == "" {
		badRequest(c, "missing "+ClientIDHeader+" header")
		return "", "", false
	}

	return owner, quizType, true
}

func (h *Handler) Prepare(c *gin.Context) {
	owner, quizType, ok := sessionParams(c)
	if !ok {
		return
	}

	var req prepareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	filter := entities.Filter{
		QuizType:     quizType,
		Level:        req.Level,
		Faculty:      req.Faculty,
		Year:         req.Year,
		EntranceName: req.EntranceName,
		Difficulty:   entities.Difficulty(req.Difficulty),
		Subjects:     req.Subjects,
		Count:        req.Count,
		TimerEnabled: req.TimerEnabled == nil || *req.TimerEnabled,
	}

	view, err := h.quizzes.Prepare(c.Request.Context(), owner, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	created(c, view)
}

func (h *Handler) Load(c *gin.Context) {
	owner, quizType, ok := sessionParams(c)
	if !ok {
		return
	}

	view, err := h.quizzes.Load(c.Request.Context(), owner, quizType)
	if err != nil {
		h.handleError(c, err)
		return
	}

	success(c, view)
}

func (h *Handler) Start(c *gin.Context) {
	owner, quizType, ok := sessionParams(c)
	if !ok {
		return
	}

	view, err := h.quizzes.Start(c.Request.Context(), owner, quizType)
	if err != nil {
		h.handleError(c, err)
		return
	}

	success(c, view)
}

func (h *Handler) Answer(c *gin.Context) {
	owner, quizType, ok := sessionParams(c)
	if !ok {
		return
	}

	var req answerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	view, accepted, err := h.quizzes.Answer(c.Request.Context(), owner, quizType, req.Value)
	if err != nil {
		h.handleError(c, err)
		return
	}

	success(c, answerResponse{Accepted: accepted, View: view})
}

func (h *Handler) Next(c *gin.Context) {
	owner, quizType, ok := sessionParams(c)
	if !ok {
		return
	}

	view, moved, err := h.quizzes.Next(c.Request.Context(), owner, quizType)
	if err != nil {
		h.handleError(c, err)
		return
	}

	success(c, answerResponse{Accepted: moved, View: view})
}

func (h *Handler) Complete(c *gin.Context) {
	owner, quizType, ok := sessionParams(c)
	if !ok {
		return
	}

	view, err := h.quizzes.Complete(c.Request.Context(), owner, quizType)
	if err != nil {
		h.handleError(c, err)
		return
	}

	success(c, view)
}

func (h *Handler) Results(c *gin.Context) {
	owner, quizType, ok := sessionParams(c)
	if !ok {
		return
	}

	filter, err := entities.ParseReviewFilter(c.Query("filter"))
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	res, review, err := h.quizzes.Results(c.Request.Context(), owner, quizType, filter)
	if err != nil {
		h.handleError(c, err)
		return
	}

	success(c, resultsResponse{Result: res, Filter: filter, Review: review})
}

func (h *Handler) Signal(c *gin.Context) {
	owner, quizType, ok := sessionParams(c)
	if !ok {
		return
	}

	var req signalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	sig, err := integrity.ParseSignal(req.Signal)
	if err != nil {
		badRequest(c, err.Error())
		return
	}

	reaction, err := h.quizzes.Signal(c.Request.Context(), owner, quizType, sig)
	if err != nil {
		h.handleError(c, err)
		return
	}

	success(c, reaction)
}

func (h *Handler) PlayAgain(c *gin.Context) {
	owner, quizType, ok := sessionParams(c)
	if !ok {
		return
	}

	view, err := h.quizzes.PlayAgain(c.Request.Context(), owner, quizType)
	if err != nil {
		h.handleError(c, err)
		return
	}

	success(c, view)
}

func (h *Handler) Stop(c *gin.Context) {
	owner, quizType, ok := sessionParams(c)
	if !ok {
		return
	}

	if err := h.quizzes.Stop(c.Request.Context(), owner, quizType); err != nil {
		h.handleError(c, err)
		return
	}

	success(c, nil)
}

func (h *Handler) SubmitHistory(c *gin.Context) {
	owner, quizType, ok := sessionParams(c)
	if !ok {
		return
	}

	res, err := h.quizzes.SubmitHistory(c.Request.Context(), owner, quizType)
	if err != nil {
		h.handleError(c, err)
		return
	}

	if !res.Success {
		fail(c, http.StatusUnprocessableEntity, res.Error)
		return
	}

	success(c, res)
}

func (h *Handler) Health(c *gin.Context) {
	success(c, gin.H{"status": "ok"})
}
