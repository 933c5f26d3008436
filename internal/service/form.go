package service

import (
	"context"
	"errors"
	"sync"
)

// Form 新建/编辑表单的状态：是否打开、当前值、字段错误
type Form[P any] struct {
	mu      sync.Mutex
	open    bool
	values  P
	errors  map[string]string
	initial func() P
}

// NewForm initial 提供空表单的默认值，nil 时为零值
func NewForm[P any](initial func() P) *Form[P] {
	if initial == nil {
		initial = func() P {
			var zero P
			return zero
		}
	}
	return &Form[P]{initial: initial, values: initial()}
}

// Open 打开表单；values 为 nil 时使用默认值（新建），否则用于编辑
func (f *Form[P]) Open(values *P) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = true
	f.errors = nil
	if values != nil {
		f.values = *values
	} else {
		f.values = f.initial()
	}
}

// Close 关闭并清空表单
func (f *Form[P]) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reset()
}

func (f *Form[P]) reset() {
	f.open = false
	f.values = f.initial()
	f.errors = nil
}

func (f *Form[P]) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *Form[P]) Values() P {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.values
}

func (f *Form[P]) SetValues(values P) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values = values
}

func (f *Form[P]) Errors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Submit 提交当前值。成功时清空并关闭；校验失败标记字段并保持打开；其他失败保持打开且保留输入
func (f *Form[P]) Submit(ctx context.Context, submit func(context.Context, P) error) error {
	values := f.Values()
	err := submit(ctx, values)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		f.reset()
		return nil
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		f.errors = ve.Fields
	} else {
		f.errors = nil
	}
	return err
}
