package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"quiz_console/internal/model"
	"quiz_console/pkg/logger"

	"go.uber.org/zap"
)

// Alerter 阻塞式失败提示
type Alerter interface {
	Alert(ctx context.Context, message string)
}

type AlertFunc func(ctx context.Context, message string)

func (f AlertFunc) Alert(ctx context.Context, message string) { f(ctx, message) }

// LogAlerter 无交互界面时只记录日志
type LogAlerter struct{}

func (LogAlerter) Alert(_ context.Context, message string) {
	logger.Log.Warn("Alert", zap.String("message", message))
}

// Confirmer 不可逆操作前向操作员确认
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

type confirmedKey struct{}

// WithConfirmation 标记 ctx 上的操作已由操作员确认，HTTP 层据请求参数设置
func WithConfirmation(ctx context.Context) context.Context {
	return context.WithValue(ctx, confirmedKey{}, true)
}

// ContextConfirmer 读取 WithConfirmation 的标记
type ContextConfirmer struct{}

func (ContextConfirmer) Confirm(ctx context.Context, _ string) bool {
	ok, _ := ctx.Value(confirmedKey{}).(bool)
	return ok
}

// DeletePrompt 删除前的确认文案
const DeletePrompt = "Bạn có chắc chắn muốn xóa?"

// ResourceBackend 资源在后端的 CRUD，由 *Endpoint 实现
type ResourceBackend[K model.Entity] interface {
	Resource() string
	List(ctx context.Context, filterKey string) ([]K, error)
	Get(ctx context.Context, id string) (K, error)
	Create(ctx context.Context, payload interface{}) (*K, error)
	Update(ctx context.Context, id string, payload interface{}) error
	Delete(ctx context.Context, id string) error
}

type ResourceOptions[P any] struct {
	// Noun 出现在提示文案里，如 "question"
	Noun      string
	Alerter   Alerter
	Confirmer Confirmer
	// Normalize 在校验和发送前整理请求体
	Normalize func(P) P
}

// ResourceController 一种资源的列表、选中项和加载状态，以及增删改查的统一失败处理
type ResourceController[K model.Entity, P any] struct {
	backend   ResourceBackend[K]
	noun      string
	alerter   Alerter
	confirmer Confirmer
	normalize func(P) P

	mu     sync.RWMutex
	items  []K
	filter string
	// listedFilter 当前 items 实际对应的过滤键，仅在拉取成功时更新
	listedFilter string
	listed       bool
	selected     *K
	listing      int
	removing     int
	fetchingOne  int
	listSeq      uint64
	oneSeq       uint64
}

func NewResourceController[K model.Entity, P any](backend ResourceBackend[K], opts ResourceOptions[P]) *ResourceController[K, P] {
	c := &ResourceController[K, P]{
		backend:   backend,
		noun:      opts.Noun,
		alerter:   opts.Alerter,
		confirmer: opts.Confirmer,
		normalize: opts.Normalize,
	}
	if c.noun == "" {
		c.noun = backend.Resource()
	}
	if c.alerter == nil {
		c.alerter = LogAlerter{}
	}
	if c.confirmer == nil {
		c.confirmer = ContextConfirmer{}
	}
	return c
}

func (c *ResourceController[K, P]) fail(ctx context.Context, op string, err error) error {
	action := fmt.Sprintf("%s %s", op, c.noun)
	var ve *ValidationError
	if errors.As(err, &ve) {
		logger.Log.Info("Validation failed", zap.String("action", action), zap.Any("fields", ve.Fields))
	} else {
		logger.Log.Error("Resource operation failed", zap.String("action", action), zap.Error(err))
	}
	c.alerter.Alert(ctx, AlertMessage(action, err))
	return err
}

// List 拉取列表，成功时整体替换，失败时保留原列表。只接受最新一次请求的响应
func (c *ResourceController[K, P]) List(ctx context.Context, filterKey string) ([]K, error) {
	c.mu.Lock()
	c.listSeq++
	seq := c.listSeq
	c.filter = filterKey
	c.listing++
	c.mu.Unlock()

	items, err := c.backend.List(ctx, filterKey)

	c.mu.Lock()
	c.listing--
	if seq != c.listSeq {
		c.mu.Unlock()
		logger.Log.Debug("Discarding stale list response", zap.String("resource", c.noun), zap.Uint64("seq", seq))
		return nil, ErrSuperseded
	}
	if err != nil {
		c.mu.Unlock()
		return nil, c.fail(ctx, "fetching", err)
	}
	if items == nil {
		items = []K{}
	}
	c.items = items
	c.listed = true
	c.listedFilter = filterKey
	out := append([]K(nil), items...)
	c.mu.Unlock()
	return out, nil
}

// SetFilter 过滤键变化时重新拉取；空值请求不过滤的列表。
// 只有已成功拉取过该过滤键的列表时才直接返回缓存
func (c *ResourceController[K, P]) SetFilter(ctx context.Context, filterKey string) ([]K, error) {
	c.mu.RLock()
	unchanged := c.listed && c.listedFilter == filterKey && c.filter == filterKey
	c.mu.RUnlock()
	if unchanged {
		return c.Items(), nil
	}
	return c.List(ctx, filterKey)
}

// Refresh 按当前过滤键重新拉取
func (c *ResourceController[K, P]) Refresh(ctx context.Context) ([]K, error) {
	return c.List(ctx, c.Filter())
}

// GetOne 获取单个实体用于编辑表单，成功后成为选中项
func (c *ResourceController[K, P]) GetOne(ctx context.Context, id string) (K, error) {
	var zero K
	if strings.TrimSpace(id) == "" {
		return zero, c.fail(ctx, "fetching", &ValidationError{Fields: map[string]string{"id": "is required"}})
	}

	c.mu.Lock()
	c.oneSeq++
	seq := c.oneSeq
	c.fetchingOne++
	c.mu.Unlock()

	item, err := c.backend.Get(ctx, id)

	c.mu.Lock()
	c.fetchingOne--
	if seq != c.oneSeq {
		c.mu.Unlock()
		return zero, ErrSuperseded
	}
	if err != nil {
		c.mu.Unlock()
		return zero, c.fail(ctx, "fetching", err)
	}
	c.selected = &item
	c.mu.Unlock()
	return item, nil
}

func (c *ResourceController[K, P]) prepare(payload P) (P, error) {
	if c.normalize != nil {
		payload = c.normalize(payload)
	}
	return payload, ValidatePayload(payload)
}

// Create 校验通过后提交，成功后按当前过滤键刷新一次列表
func (c *ResourceController[K, P]) Create(ctx context.Context, payload P) error {
	payload, err := c.prepare(payload)
	if err != nil {
		return c.fail(ctx, "creating", err)
	}
	if _, err := c.backend.Create(ctx, payload); err != nil {
		return c.fail(ctx, "creating", err)
	}
	logger.Log.Info("Resource created", zap.String("resource", c.noun))
	c.Refresh(ctx)
	return nil
}

// Update 同 Create，目标为已有 id
func (c *ResourceController[K, P]) Update(ctx context.Context, id string, payload P) error {
	if strings.TrimSpace(id) == "" {
		return c.fail(ctx, "updating", &ValidationError{Fields: map[string]string{"id": "is required"}})
	}
	payload, err := c.prepare(payload)
	if err != nil {
		return c.fail(ctx, "updating", err)
	}
	if err := c.backend.Update(ctx, id, payload); err != nil {
		return c.fail(ctx, "updating", err)
	}
	logger.Log.Info("Resource updated", zap.String("resource", c.noun), zap.String("id", id))
	c.mu.Lock()
	if c.selected != nil && (*c.selected).GetID() == id {
		c.selected = nil
	}
	c.mu.Unlock()
	c.Refresh(ctx)
	return nil
}

// Remove 需先确认；成功后刷新一次列表，失败时列表不变
func (c *ResourceController[K, P]) Remove(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return c.fail(ctx, "deleting", &ValidationError{Fields: map[string]string{"id": "is required"}})
	}
	if !c.confirmer.Confirm(ctx, DeletePrompt) {
		logger.Log.Info("Delete not confirmed", zap.String("resource", c.noun), zap.String("id", id))
		return ErrNotConfirmed
	}

	c.mu.Lock()
	c.removing++
	c.mu.Unlock()

	err := c.backend.Delete(ctx, id)

	c.mu.Lock()
	c.removing--
	c.mu.Unlock()

	if err != nil {
		return c.fail(ctx, "deleting", err)
	}
	logger.Log.Info("Resource deleted", zap.String("resource", c.noun), zap.String("id", id))
	c.Refresh(ctx)
	return nil
}

func (c *ResourceController[K, P]) Items() []K {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]K(nil), c.items...)
}

func (c *ResourceController[K, P]) ClearSelected() {
	c.mu.Lock()
	c.selected = nil
	c.mu.Unlock()
}

func (c *ResourceController[K, P]) Filter() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.filter
}

// ResourceState 界面所需的加载标记、过滤键和选中项
type ResourceState[K any] struct {
	Loading     bool   `json:"loading"`
	FetchingOne bool   `json:"fetching_one"`
	Filter      string `json:"filter"`
	Selected    *K     `json:"selected"`
}

func (c *ResourceController[K, P]) State() ResourceState[K] {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st := ResourceState[K]{
		Loading:     c.listing > 0 || c.removing > 0,
		FetchingOne: c.fetchingOne > 0,
		Filter:      c.filter,
	}
	if c.selected != nil {
		sel := *c.selected
		st.Selected = &sel
	}
	return st
}

func (c *ResourceController[K, P]) Noun() string {
	return c.noun
}
