package controller

import (
	"quiz_console/internal/model"
	"quiz_console/internal/service"
	"quiz_console/internal/util"

	"github.com/gin-gonic/gin"
)

// CatalogController 表单下拉框的数据源
type CatalogController struct {
	Console *service.Console
}

func NewCatalogController(console *service.Console) *CatalogController {
	return &CatalogController{Console: console}
}

// QuestionSetOptions godoc
// @Summary 题集下拉选项
// @Description 当前题集列表投影为 (id, 显示名称)，用于题目过滤；列表为空时先拉取一次
// @Tags 资源
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.SelectOption} "成功"
// @Failure 502 {object} util.Response "后端请求失败"
// @Router /api/question-sets/options [get]
func (c *CatalogController) QuestionSetOptions(ctx *gin.Context) {
	sets := c.Console.QuestionSets.Items()
	if len(sets) == 0 {
		fetched, err := c.Console.QuestionSets.List(ctx.Request.Context(), "")
		if err != nil {
			respondError(ctx, "fetching question set", err)
			return
		}
		sets = fetched
	}
	util.Success(ctx, service.QuestionSetOptions(sets))
}

// Variants godoc
// @Summary 题目类型选项
// @Tags 资源
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.SelectOption} "成功"
// @Router /api/questions/variants [get]
func (c *CatalogController) Variants(ctx *gin.Context) {
	util.Success(ctx, model.Variants)
}
