package model

// swagger:model QuestionSet
type QuestionSet struct {
	ID     string `json:"id"`
	NameEN string `json:"name_en"`
	NameVI string `json:"name_vi"`
}

func (s QuestionSet) GetID() string {
	return s.ID
}

// QuestionSetPayload 创建/更新题集的请求体
type QuestionSetPayload struct {
	NameEN string `json:"name_en" validate:"notblank"`
	NameVI string `json:"name_vi" validate:"notblank"`
}

func (s QuestionSet) Payload() QuestionSetPayload {
	return QuestionSetPayload{NameEN: s.NameEN, NameVI: s.NameVI}
}

// Label 下拉框显示文本，优先越南语名称
func (s QuestionSet) Label() string {
	if s.NameVI != "" {
		return s.NameVI
	}
	if s.NameEN != "" {
		return s.NameEN
	}
	return s.ID
}
