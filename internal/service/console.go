package service

import (
	"quiz_console/internal/config"
	"quiz_console/internal/model"
)

type (
	CategoryController    = ResourceController[model.Category, model.CategoryPayload]
	QuestionSetController = ResourceController[model.QuestionSet, model.QuestionSetPayload]
	QuestionController    = ResourceController[model.Question, model.QuestionPayload]
)

// Console 一个执行上下文内的全部控制器：会话 gate 与三种资源
type Console struct {
	Gate         *SessionGate
	Categories   *CategoryController
	QuestionSets *QuestionSetController
	Questions    *QuestionController
}

func NewConsole(cfg config.BackendConfig, gate *SessionGate, client *BackendClient, alerter Alerter, confirmer Confirmer) *Console {
	return &Console{
		Gate: gate,
		Categories: NewResourceController[model.Category, model.CategoryPayload](
			NewEndpoint[model.Category](client, string(model.KindCategory), cfg.CategoryPath, ""),
			ResourceOptions[model.CategoryPayload]{Noun: "category", Alerter: alerter, Confirmer: confirmer},
		),
		QuestionSets: NewResourceController[model.QuestionSet, model.QuestionSetPayload](
			NewEndpoint[model.QuestionSet](client, string(model.KindQuestionSet), cfg.QuestionSetPath, ""),
			ResourceOptions[model.QuestionSetPayload]{Noun: "question set", Alerter: alerter, Confirmer: confirmer},
		),
		Questions: NewResourceController[model.Question, model.QuestionPayload](
			NewEndpoint[model.Question](client, string(model.KindQuestion), cfg.QuestionPath, cfg.QuestionFilter),
			ResourceOptions[model.QuestionPayload]{
				Noun:      "question",
				Alerter:   alerter,
				Confirmer: confirmer,
				Normalize: model.QuestionPayload.Normalized,
			},
		),
	}
}

// QuestionSetOptions 当前题集列表的下拉选项，作为题目过滤的可选值
func (c *Console) QuestionSetOptions() []model.SelectOption {
	return QuestionSetOptions(c.QuestionSets.Items())
}
