package model

// swagger:model Category
type Category struct {
	ID     string `json:"id"`
	NameEN string `json:"name_en"`
	NameVI string `json:"name_vi"`
}

func (c Category) GetID() string {
	return c.ID
}

// CategoryPayload 创建/更新分类的请求体
type CategoryPayload struct {
	NameEN string `json:"name_en" validate:"notblank"`
	NameVI string `json:"name_vi" validate:"notblank"`
}

// Payload 用已有分类填充编辑表单
func (c Category) Payload() CategoryPayload {
	return CategoryPayload{NameEN: c.NameEN, NameVI: c.NameVI}
}
