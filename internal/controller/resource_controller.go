package controller

import (
	"quiz_console/internal/model"
	"quiz_console/internal/service"
	"quiz_console/internal/util"

	"github.com/gin-gonic/gin"
)

// ResourceController 一种资源的 REST 接口，转发到服务层的 ResourceController
type ResourceController[K model.Entity, P any] struct {
	Resources   *service.ResourceController[K, P]
	filterParam string
}

func NewResourceController[K model.Entity, P any](resources *service.ResourceController[K, P], filterParam string) *ResourceController[K, P] {
	return &ResourceController[K, P]{Resources: resources, filterParam: filterParam}
}

func (c *ResourceController[K, P]) action(op string) string {
	return op + " " + c.Resources.Noun()
}

// ResourceList 列表响应，附带当前过滤键
type ResourceList[K any] struct {
	Items  []K    `json:"items"`
	Filter string `json:"filter,omitempty"`
}

// List godoc
// @Summary 资源列表
// @Description 从后端拉取列表；questions 支持 question_set_id 过滤，为空时不过滤
// @Tags 资源
// @Produce  json
// @Param   resource path string true "资源类型" Enums(categories, question-sets, questions)
// @Param   question_set_id query string false "题集 ID（仅 questions）"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 401 {object} util.Response "未登录"
// @Failure 502 {object} util.Response "后端请求失败"
// @Router /api/{resource} [get]
func (c *ResourceController[K, P]) List(ctx *gin.Context) {
	filter := ""
	if c.filterParam != "" {
		filter = ctx.Query(c.filterParam)
	}

	// 每次页面加载都重新拉取
	items, err := c.Resources.List(ctx.Request.Context(), filter)
	if err != nil {
		respondError(ctx, c.action("fetching"), err)
		return
	}
	if items == nil {
		items = []K{}
	}
	util.Success(ctx, ResourceList[K]{Items: items, Filter: filter})
}

// Refresh godoc
// @Summary 强制刷新列表
// @Description 按当前过滤键重新拉取列表
// @Tags 资源
// @Produce  json
// @Param   resource path string true "资源类型" Enums(categories, question-sets, questions)
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 502 {object} util.Response "后端请求失败"
// @Router /api/{resource}/refresh [post]
func (c *ResourceController[K, P]) Refresh(ctx *gin.Context) {
	items, err := c.Resources.Refresh(ctx.Request.Context())
	if err != nil {
		respondError(ctx, c.action("fetching"), err)
		return
	}
	util.Success(ctx, ResourceList[K]{Items: items, Filter: c.Resources.Filter()})
}

// Get godoc
// @Summary 获取单个资源
// @Description 获取资源详情用于编辑表单
// @Tags 资源
// @Produce  json
// @Param   resource path string true "资源类型" Enums(categories, question-sets, questions)
// @Param   id path string true "资源 ID"
// @Success 200 {object} util.Response{data=object} "成功"
// @Failure 502 {object} util.Response "后端请求失败"
// @Router /api/{resource}/{id} [get]
func (c *ResourceController[K, P]) Get(ctx *gin.Context) {
	item, err := c.Resources.GetOne(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		respondError(ctx, c.action("fetching"), err)
		return
	}
	util.Success(ctx, item)
}

// Create godoc
// @Summary 创建资源
// @Description 提交前校验必填字段；选择题至少需要一个完整选项
// @Tags 资源
// @Accept  json
// @Produce  json
// @Param   resource path string true "资源类型" Enums(categories, question-sets, questions)
// @Param   body body object true "请求体"
// @Success 201 {object} util.Response "创建成功"
// @Failure 400 {object} util.ValidationResponse "字段校验失败"
// @Failure 502 {object} util.Response "后端拒绝或请求失败"
// @Router /api/{resource} [post]
func (c *ResourceController[K, P]) Create(ctx *gin.Context) {
	var payload P
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		util.BadRequest(ctx, util.ErrInvalidPayload.Error()+": "+err.Error())
		return
	}
	if err := c.Resources.Create(ctx.Request.Context(), payload); err != nil {
		respondError(ctx, c.action("creating"), err)
		return
	}
	util.Created(ctx, ResourceList[K]{Items: c.Resources.Items(), Filter: c.Resources.Filter()})
}

// Update godoc
// @Summary 更新资源
// @Tags 资源
// @Accept  json
// @Produce  json
// @Param   resource path string true "资源类型" Enums(categories, question-sets, questions)
// @Param   id path string true "资源 ID"
// @Param   body body object true "请求体"
// @Success 200 {object} util.Response "更新成功"
// @Failure 400 {object} util.ValidationResponse "字段校验失败"
// @Failure 502 {object} util.Response "后端拒绝或请求失败"
// @Router /api/{resource}/{id} [put]
func (c *ResourceController[K, P]) Update(ctx *gin.Context) {
	var payload P
	if err := ctx.ShouldBindJSON(&payload); err != nil {
		util.BadRequest(ctx, util.ErrInvalidPayload.Error()+": "+err.Error())
		return
	}
	if err := c.Resources.Update(ctx.Request.Context(), ctx.Param("id"), payload); err != nil {
		respondError(ctx, c.action("updating"), err)
		return
	}
	util.Success(ctx, ResourceList[K]{Items: c.Resources.Items(), Filter: c.Resources.Filter()})
}

// Delete godoc
// @Summary 删除资源
// @Description 不可逆操作，需携带 confirm=true 或 X-Confirm: true
// @Tags 资源
// @Produce  json
// @Param   resource path string true "资源类型" Enums(categories, question-sets, questions)
// @Param   id path string true "资源 ID"
// @Param   confirm query bool false "确认删除"
// @Success 200 {object} util.Response "删除成功"
// @Failure 409 {object} util.Response "未确认"
// @Failure 502 {object} util.Response "后端拒绝或请求失败"
// @Router /api/{resource}/{id} [delete]
func (c *ResourceController[K, P]) Delete(ctx *gin.Context) {
	reqCtx := ctx.Request.Context()
	if confirmed(ctx) {
		reqCtx = service.WithConfirmation(reqCtx)
	}
	if err := c.Resources.Remove(reqCtx, ctx.Param("id")); err != nil {
		respondError(ctx, c.action("deleting"), err)
		return
	}
	util.Success(ctx, ResourceList[K]{Items: c.Resources.Items(), Filter: c.Resources.Filter()})
}

// State godoc
// @Summary 资源界面状态
// @Description 加载标记、单项获取标记、当前过滤键和正在编辑的资源
// @Tags 资源
// @Produce  json
// @Param   resource path string true "资源类型" Enums(categories, question-sets, questions)
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/{resource}/state [get]
func (c *ResourceController[K, P]) State(ctx *gin.Context) {
	util.Success(ctx, c.Resources.State())
}

// ClearSelected godoc
// @Summary 关闭编辑表单
// @Description 清除选中的资源
// @Tags 资源
// @Produce  json
// @Param   resource path string true "资源类型" Enums(categories, question-sets, questions)
// @Success 200 {object} util.Response{data=object} "成功"
// @Router /api/{resource}/selected [delete]
func (c *ResourceController[K, P]) ClearSelected(ctx *gin.Context) {
	c.Resources.ClearSelected()
	util.Success(ctx, c.Resources.State())
}

// Register 挂载到 group 下的 path
func (c *ResourceController[K, P]) Register(group *gin.RouterGroup, path string) {
	r := group.Group(path)
	r.GET("", c.List)
	r.POST("", c.Create)
	r.POST("/refresh", c.Refresh)
	r.GET("/state", c.State)
	r.DELETE("/selected", c.ClearSelected)
	r.GET("/:id", c.Get)
	r.PUT("/:id", c.Update)
	r.DELETE("/:id", c.Delete)
}
