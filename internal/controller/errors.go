package controller

import (
	"errors"

	"quiz_console/internal/service"
	"quiz_console/internal/util"

	"github.com/gin-gonic/gin"
)

// respondError 将服务层错误映射为 HTTP 响应
func respondError(ctx *gin.Context, action string, err error) {
	var ve *service.ValidationError
	var re *service.BackendRejectedError
	var te *service.TransportError

	switch {
	case errors.As(err, &ve):
		util.InvalidFields(ctx, ve.Fields)
	case errors.Is(err, service.ErrNotConfirmed):
		util.Conflict(ctx, "confirmation required: "+service.DeletePrompt)
	case errors.Is(err, service.ErrSuperseded):
		util.Conflict(ctx, "superseded by a newer request")
	case errors.Is(err, service.ErrAuthInvalid):
		util.Unauthorized(ctx)
	case errors.As(err, &re), errors.As(err, &te):
		util.BadGateway(ctx, service.AlertMessage(action, err))
	default:
		util.LogInternalError(ctx, err)
	}
}

// confirmed 删除确认：?confirm=true 或 X-Confirm: true
func confirmed(ctx *gin.Context) bool {
	v := ctx.Query(util.ConfirmQuery)
	if v == "" {
		v = ctx.GetHeader(util.ConfirmHeader)
	}
	return v == "true" || v == "1" || v == "yes"
}
