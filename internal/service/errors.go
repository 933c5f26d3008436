package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrAuthInvalid 会话缺失、不匹配或过期
	ErrAuthInvalid = errors.New("session invalid")
	// ErrNotConfirmed 操作员未确认删除
	ErrNotConfirmed = errors.New("operation not confirmed")
	// ErrSuperseded 有更新的请求已发出，本次响应被丢弃
	ErrSuperseded = errors.New("response superseded by a newer request")
)

// ValidationError 提交前的字段校验失败，key 为 JSON 字段路径
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "validation failed: " + strings.Join(keys, ", ")
}

// BackendRejectedError 后端返回 success:false
type BackendRejectedError struct {
	Resource  string
	Operation string
	Status    int
}

func (e *BackendRejectedError) Error() string {
	return fmt.Sprintf("backend rejected %s %s (status %d)", e.Operation, e.Resource, e.Status)
}

// TransportError 网络、超时、非 JSON 或解码失败
type TransportError struct {
	Resource  string
	Operation string
	Err       error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Resource, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AlertMessage 给操作员看的失败提示
func AlertMessage(op string, err error) string {
	var ve *ValidationError
	var re *BackendRejectedError
	var te *TransportError
	switch {
	case errors.As(err, &ve):
		return fmt.Sprintf("Error %s: please fill in the required fields", op)
	case errors.As(err, &re):
		return fmt.Sprintf("Error %s", op)
	case errors.As(err, &te):
		return fmt.Sprintf("Error %s: %v", op, te.Err)
	default:
		return fmt.Sprintf("Error %s: %v", op, err)
	}
}
