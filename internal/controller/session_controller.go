package controller

import (
	"net/http"

	"quiz_console/internal/service"
	"quiz_console/internal/util"

	"github.com/gin-gonic/gin"
)

type SessionController struct {
	Gate *service.SessionGate
	Hub  *service.SessionHub
}

func NewSessionController(gate *service.SessionGate, hub *service.SessionHub) *SessionController {
	return &SessionController{Gate: gate, Hub: hub}
}

// LoginRequest 登录请求
// swagger:model LoginRequest
type LoginRequest struct {
	Code string `json:"code" binding:"required" example:"my-access-code"`
}

// Login godoc
// @Summary 使用访问码登录
// @Description 访问码正确时建立 7 天有效的会话，并通知所有已打开的页面
// @Tags 会话
// @Accept  json
// @Produce  json
// @Param   body body LoginRequest true "访问码"
// @Success 200 {object} util.Response{data=service.SessionSnapshot} "登录成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Failure 401 {object} util.Response "访问码错误"
// @Failure 429 {object} util.Response "请求过于频繁"
// @Failure 500 {object} util.Response "会话写入失败"
// @Router /api/login [post]
func (c *SessionController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	res, err := c.Gate.Login(ctx.Request.Context(), req.Code)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	if res == service.LoginRejected {
		util.Error(ctx, http.StatusUnauthorized, "Invalid access code")
		return
	}

	util.Success(ctx, service.Snapshot(ctx.Request.Context(), c.Gate))
}

// Logout godoc
// @Summary 登出
// @Description 清除会话并通知所有已打开的页面，可重复调用
// @Tags 会话
// @Produce  json
// @Success 200 {object} util.Response{data=object} "已登出"
// @Router /api/logout [post]
func (c *SessionController) Logout(ctx *gin.Context) {
	c.Gate.Logout(ctx.Request.Context())
	util.Success(ctx, gin.H{"redirect": util.LoginPath})
}

// Status godoc
// @Summary 当前会话状态
// @Description 返回会话状态与剩余时间（含越南语展示文本）
// @Tags 会话
// @Produce  json
// @Success 200 {object} util.Response{data=service.SessionSnapshot} "成功"
// @Router /api/session [get]
func (c *SessionController) Status(ctx *gin.Context) {
	util.Success(ctx, service.Snapshot(ctx.Request.Context(), c.Gate))
}

// Events godoc
// @Summary 会话变更推送
// @Description 建立 WebSocket 连接，会话登录、登出或过期时推送 SESSION_CHANGED
// @Tags 会话
// @Success 101 {string} string "Switching Protocols"
// @Router /api/session/ws [get]
func (c *SessionController) Events(ctx *gin.Context) {
	c.Hub.ServeWs(ctx.Writer, ctx.Request)
}
