package controller

import (
	"context"
	"net/http"
	"time"

	"quiz_console/internal/service"
	"quiz_console/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

type HealthController struct {
	Gate  *service.SessionGate
	Redis *redis.Client
}

// NewHealthController rdb 为 nil 表示未使用 redis 会话存储
func NewHealthController(gate *service.SessionGate, rdb *redis.Client) *HealthController {
	return &HealthController{Gate: gate, Redis: rdb}
}

// @Summary 健康检查
// @Description 检查服务状态、会话存储连通性和 gate 状态
// @Tags 系统
// @Produce json
// @Success 200 {object} util.Response
// @Failure 503 {object} util.Response
// @Router /api/health [get]
func (c *HealthController) HealthCheck(ctx *gin.Context) {
	components := gin.H{
		"session_gate": c.Gate.State().String(),
	}

	if c.Redis != nil {
		pingCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		if err := c.Redis.Ping(pingCtx).Err(); err != nil {
			util.Error(ctx, http.StatusServiceUnavailable, "Session store unavailable")
			return
		}
		components["redis"] = "up"
	}

	util.Success(ctx, gin.H{
		"status":     "ok",
		"components": components,
	})
}
