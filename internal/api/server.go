package api

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer wires the management API routes.
func NewServer(handler *Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Formatter: func(param gin.LogFormatterParams) string {
			return fmt.Sprintf("%s - [%s] \"%s %s %d %s\"\n",
				param.ClientIP,
				param.TimeStamp.Format(time.RFC3339),
				param.Method,
				param.Path,
				param.StatusCode,
				param.Latency,
			)
		},
	}))
	r.Use(gin.Recovery())

	r.GET("/health", handler.Health)

	api := r.Group("/api/v1")
	{
		api.GET("/emails", handler.ListEmails)
		api.GET("/emails/:id", handler.GetEmail)
		api.GET("/emails/:id/log", handler.GetEmailLog)
		api.POST("/emails/:id/approve", handler.ApproveEmail)
		api.POST("/emails/:id/reject", handler.RejectEmail)
		api.POST("/emails/:id/archive", handler.ArchiveEmail)
		api.DELETE("/emails/:id", handler.DeleteEmail)

		api.POST("/listener/check-now", handler.CheckNow)
		api.GET("/listener/status", handler.ListenerStatus)
	}

	return r
}
