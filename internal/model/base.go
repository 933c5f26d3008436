package model

import (
	"github.com/google/uuid"
)

// Entity 控制台可管理的资源（分类、题集、题目）的公共约束
type Entity interface {
	GetID() string
}

// ResourceKind 资源类型，对应后端的一个 endpoint
type ResourceKind string

const (
	KindCategory    ResourceKind = "category"
	KindQuestionSet ResourceKind = "question_set"
	KindQuestion    ResourceKind = "question"
)

// SelectOption 下拉选项 (id, 显示文本)
type SelectOption struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Disabled bool   `json:"disabled,omitempty"`
}

func GenerateUUID() string {
	return uuid.New().String()
}
