package service

import "quiz_console/internal/model"

// QuestionSetOptions 题集列表投影为题目过滤下拉框的选项
func QuestionSetOptions(sets []model.QuestionSet) []model.SelectOption {
	options := make([]model.SelectOption, 0, len(sets))
	for _, s := range sets {
		options = append(options, model.SelectOption{Value: s.ID, Label: s.Label()})
	}
	return options
}
