package webhook

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/danielolaszy/triage/internal/logging"
)

// SetupRoutes registers the receiver endpoints on router.
func SetupRoutes(router *gin.Engine, h *Handler) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.POST("/webhooks/github", h.HandleGitHub)

	automation := router.Group("/automation")
	{
		automation.GET("/log", h.ListLog)
		automation.DELETE("/log", h.ClearLog)
	}
}

// NewRouter returns a gin engine with recovery, request logging and the
// receiver routes.
func NewRouter(h *Handler) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())
	SetupRoutes(router, h)
	return router
}

func requestLogger() gin.HandlerFunc {
	logger := logging.With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds())
	}
}
