package model

// VariantName 题目的作答类型
type VariantName string

const (
	VariantMultipleChoice VariantName = "multiple_choice"
	VariantOpenEnded      VariantName = "open_ended"
)

// Variants 可选的题目类型 (value, label)
var Variants = []SelectOption{
	{Value: string(VariantMultipleChoice), Label: "Multiple Choice"},
	{Value: string(VariantOpenEnded), Label: "Open Ended"},
}

type Option struct {
	ID     string `json:"id,omitempty"`
	TextEN string `json:"text_en"`
	TextVI string `json:"text_vi"`
}

type QuestionVariant struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Options []Option `json:"options,omitempty"`
}

type Topic struct {
	ID     string `json:"id"`
	NameEN string `json:"name_en"`
	NameVI string `json:"name_vi"`
}

type TopicQuestion struct {
	ID         string `json:"id"`
	TopicID    string `json:"topic_id"`
	QuestionID string `json:"question_id"`
	Topics     Topic  `json:"topics"`
}

// swagger:model Question
type Question struct {
	ID              string            `json:"id"`
	QuestionEN      string            `json:"question_en"`
	QuestionVI      string            `json:"question_vi"`
	ExampleEN       string            `json:"example_en,omitempty"`
	ExampleVI       string            `json:"example_vi,omitempty"`
	QuestionVariant []QuestionVariant `json:"question_variant"`
	TopicsQuestions []TopicQuestion   `json:"topics_questions"`
	QuestionSetID   string            `json:"question_set_id,omitempty"`
}

func (q Question) GetID() string {
	return q.ID
}

// VariantName 后端以单元素数组返回类型，空数组表示未设置
func (q Question) VariantName() string {
	if len(q.QuestionVariant) == 0 {
		return ""
	}
	return q.QuestionVariant[0].Name
}

func (q Question) Options() []Option {
	if len(q.QuestionVariant) == 0 {
		return nil
	}
	return q.QuestionVariant[0].Options
}

// Payload 用已有题目填充编辑表单
func (q Question) Payload() QuestionPayload {
	p := QuestionPayload{
		QuestionEN:    q.QuestionEN,
		QuestionVI:    q.QuestionVI,
		ExampleEN:     q.ExampleEN,
		ExampleVI:     q.ExampleVI,
		VariantName:   q.VariantName(),
		QuestionSetID: q.QuestionSetID,
		Options:       []OptionPayload{},
	}
	for _, o := range q.Options() {
		p.Options = append(p.Options, OptionPayload{TextEN: o.TextEN, TextVI: o.TextVI})
	}
	return p
}

type OptionPayload struct {
	TextEN string `json:"text_en" validate:"notblank"`
	TextVI string `json:"text_vi" validate:"notblank"`
}

// QuestionPayload 创建/更新题目的请求体
type QuestionPayload struct {
	QuestionEN    string          `json:"question_en" validate:"notblank"`
	QuestionVI    string          `json:"question_vi" validate:"notblank"`
	ExampleEN     string          `json:"example_en"`
	ExampleVI     string          `json:"example_vi"`
	VariantName   string          `json:"question_variant_name" validate:"required,oneof=multiple_choice open_ended"`
	Options       []OptionPayload `json:"question_variant_options" validate:"dive"`
	QuestionSetID string          `json:"question_set_id,omitempty"`
}

// Normalized 非选择题不携带选项，选项始终序列化为数组
func (p QuestionPayload) Normalized() QuestionPayload {
	if VariantName(p.VariantName) != VariantMultipleChoice || p.Options == nil {
		p.Options = []OptionPayload{}
	}
	return p
}

// NewQuestionPayload 新建表单默认值：一个空选项
func NewQuestionPayload() QuestionPayload {
	return QuestionPayload{Options: []OptionPayload{{}}}
}
