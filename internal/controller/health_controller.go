package controller

import (
	"time"

	"github.com/gin-gonic/gin"

	"study_tutor_backend/internal/service"
	"study_tutor_backend/internal/util"
)

type HealthController struct {
	ai      *service.AIService
	started time.Time
}

func NewHealthController(ai *service.AIService) *HealthController {
	return &HealthController{ai: ai, started: time.Now()}
}

// HealthCheck 健康检查
// @Summary 服务健康状态
// @Tags Health
// @Produce json
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	util.Success(ctx, gin.H{
		"status":        "ok",
		"uptime":        time.Since(c.started).Round(time.Second).String(),
		"ai_configured": c.ai.Configured(),
		"model":         c.ai.DefaultModel(),
	})
}
