package router

import (
	"github.com/gin-gonic/gin"

	"github.com/ashwinyue/next-ai/internal/config"
	"github.com/ashwinyue/next-ai/internal/handler"
	"github.com/ashwinyue/next-ai/internal/middleware"
)

// SetupRouter wires the request-dispatch engine's HTTP surface: a health
// check and the four auth-gated agent endpoints.
func SetupRouter(cfg *config.Config, h *handler.Handlers) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RecoveryMiddleware())
	r.Use(middleware.LoggingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	agentGroup := r.Group("/agent")
	agentGroup.Use(middleware.RequireAuth(cfg))
	{
		agentGroup.POST("/stream", h.Agent.StreamAgent)
		agentGroup.GET("/history/:conversationId", h.Agent.GetHistory)
		agentGroup.GET("/conversations", h.Agent.ListConversations)
		agentGroup.DELETE("/conversations/:conversationId", h.Agent.DeleteConversation)
	}

	return r
}
