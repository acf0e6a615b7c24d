// Package httpapi exposes the timer engine as a local JSON API.
package httpapi

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the handler routes. Request logs go to logger.
func NewRouter(h *Handler, logger *log.Logger) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")

	timer := api.Group("/timer")
	timer.GET("/state", h.GetState)
	timer.POST("/start", h.Start)
	timer.POST("/pause", h.transition(h.timer.PauseSession))
	timer.POST("/resume", h.transition(h.timer.ResumeSession))
	timer.POST("/skip", h.transition(h.timer.SkipSession))
	timer.POST("/stop", h.transition(h.timer.StopSession))
	timer.POST("/reset", h.transition(h.timer.Reset))
	timer.GET("/settings", h.GetSettings)
	timer.PUT("/settings", h.UpdateSettings)

	api.GET("/sessions", h.ListSessions)
	api.GET("/sessions/last", h.GetLastSession)
	api.GET("/stats", h.GetStats)

	return engine
}
