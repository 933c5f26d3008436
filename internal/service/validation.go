package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"quiz_console/internal/model"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func payloadValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		// 错误字段使用 JSON 名称
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		v.RegisterStructValidation(questionPayloadRule, model.QuestionPayload{})
		validate = v
	})
	return validate
}

// 选择题至少一个选项
func questionPayloadRule(sl validator.StructLevel) {
	p := sl.Current().Interface().(model.QuestionPayload)
	if model.VariantName(p.VariantName) == model.VariantMultipleChoice && len(p.Options) == 0 {
		sl.ReportError(p.Options, "question_variant_options", "Options", "min_options", "")
	}
}

// ValidatePayload 提交前校验，失败返回 *ValidationError
func ValidatePayload(payload interface{}) error {
	err := payloadValidator().Struct(payload)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldKey(fe.Namespace())] = fieldMessage(fe)
	}
	return &ValidationError{Fields: fields}
}

// fieldKey 去掉顶层结构体名: QuestionPayload.question_variant_options[0].text_vi
func fieldKey(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min_options":
		return "at least one option is required"
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}
