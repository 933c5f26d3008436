package middleware

import (
	"net/http"

	"quiz_console/internal/service"
	"quiz_console/internal/util"

	"github.com/gin-gonic/gin"
)

// SessionRequired 仅在 gate 为已登录时放行。首次检查完成前返回 503，不做跳转
func SessionRequired(gate *service.SessionGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch gate.State() {
		case service.StateAuthenticated:
			c.Next()
		case service.StateUnauthenticated:
			c.AbortWithStatusJSON(http.StatusUnauthorized, util.Response{
				Code:    http.StatusUnauthorized,
				Message: "Unauthorized",
				Data:    gin.H{"redirect": util.LoginPath},
			})
		default:
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, util.Response{
				Code:    http.StatusServiceUnavailable,
				Message: util.ErrSessionUnknown.Error(),
			})
		}
	}
}

// RedirectIfAuthenticated 已登录时访问登录接口直接返回首页地址
func RedirectIfAuthenticated(gate *service.SessionGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		if gate.State() == service.StateAuthenticated {
			c.AbortWithStatusJSON(http.StatusOK, util.Response{
				Code:    http.StatusOK,
				Message: "already authenticated",
				Data:    gin.H{"redirect": util.HomePath},
			})
			return
		}
		c.Next()
	}
}
