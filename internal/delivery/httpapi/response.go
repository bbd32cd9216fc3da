package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aliskhannn/quizzer/internal/domain/entities"
	"github.com/aliskhannn/quizzer/internal/service"
)

// Response is the JSON envelope of every API reply.
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "success",
		Data:    data,
	})
}

func created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, Response{
		Code:    http.StatusCreated,
		Message: "created",
		Data:    data,
	})
}

func fail(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, Response{
		Code:    code,
		Message: message,
	})
}

func badRequest(c *gin.Context, message string) {
	fail(c, http.StatusBadRequest, message)
}

// statusOf maps service errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, entities.ErrInvalidFilter),
		errors.Is(err, entities.ErrInvalidQuizType),
		errors.Is(err, entities.ErrNotEnoughQuestions),
		errors.Is(err, service.ErrMissingOwner),
		errors.Is(err, service.ErrInvalidOption):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrNoSession):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNotCompleted),
		errors.Is(err, service.ErrSessionReset),
		errors.Is(err, service.ErrSessionExpired):
		return http.StatusConflict
	case errors.Is(err, service.ErrFetchFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) handleError(c *gin.Context, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		h.logger.Error("internal server error",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		fail(c, code, "internal server error")
		return
	}
	if code == http.StatusBadGateway {
		h.logger.Warn("upstream failure", zap.String("path", c.FullPath()), zap.Error(err))
	}
	fail(c, code, err.Error())
}
