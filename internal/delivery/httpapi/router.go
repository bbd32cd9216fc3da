package httpapi

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aliskhannn/quizzer/internal/metrics"
)

// NewRouter registers the quiz session API on a new gin engine.
func NewRouter(h *Handler, limiter *RateLimiter, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(metrics.MetricsMiddleware())

	router.GET("/metrics", metrics.PrometheusHandler())

	api := router.Group("/api")
	api.GET("/health", h.Health)

	quiz := api.Group("/quizzes/:type/session")
	{
		quiz.POST("", h.Prepare)
		quiz.GET("", h.Load)
		quiz.DELETE("", h.Stop)
		quiz.POST("/start", h.Start)
		quiz.POST("/answer", h.Answer)
		quiz.POST("/next", h.Next)
		quiz.POST("/complete", h.Complete)
		quiz.POST("/again", h.PlayAgain)
		quiz.GET("/results", h.Results)
		quiz.POST("/history", h.SubmitHistory)
		quiz.POST("/signals", limiter.Middleware(), h.Signal)
	}

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}
