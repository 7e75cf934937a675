package app

import (
	"github.com/gin-gonic/gin"

	"study_tutor_backend/pkg/monitoring"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")
	{
		api.GET("/health", c.health.HealthCheck)
		api.GET("/decks", c.deck.ListDecks)

		// 会话四操作 + 只读快照
		session := api.Group("/session")
		{
			session.GET("", c.session.GetSession)
			session.POST("/answer", c.session.SubmitAnswer)
			session.POST("/skip", c.session.Skip)
			session.POST("/restart", c.session.Restart)
			session.POST("/deck", c.session.LoadDeck)
		}
	}
}
