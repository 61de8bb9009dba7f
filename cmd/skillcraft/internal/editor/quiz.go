package editor

import (
	"errors"
	"fmt"
	"strings"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

// ErrInvalidQuiz 测验表单校验失败，可同时 errors.As 出 FieldErrors
var ErrInvalidQuiz = errors.New("INVALID_QUIZ")

// QuizOptionCount 单选题固定的选项数
const QuizOptionCount = 4

// BuildQuiz 根据显式选择的题型组装测验并校验。body 只能是 MultipleChoice 或 TrueFalse
func BuildQuiz(question, tag string, body models.QuizBody) (models.Quiz, error) {
	q := models.Quiz{Question: strings.TrimSpace(question), Tag: strings.TrimSpace(tag), Body: body}
	if mc, ok := body.(models.MultipleChoice); ok {
		opts := make([]string, len(mc.Options))
		for i, o := range mc.Options {
			opts[i] = strings.TrimSpace(o)
		}
		q.Body = models.MultipleChoice{Options: opts, Answer: strings.TrimSpace(mc.Answer)}
	}
	return q, ValidateQuiz(q)
}

// ValidateQuiz 题干与标签必填；单选题需要四个非空选项且答案为其中之一
func ValidateQuiz(q models.Quiz) error {
	fe := FieldErrors{}
	requireText(fe, "question", q.Question)
	requireText(fe, "tag", q.Tag)
	switch b := q.Body.(type) {
	case models.MultipleChoice:
		validateOptions(fe, b)
	case models.TrueFalse:
	case nil:
		fe["type"] = "is required"
	default:
		fe["type"] = fmt.Sprintf("unsupported quiz type %T", b)
	}
	if len(fe) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidQuiz, fe)
}

func validateOptions(fe FieldErrors, mc models.MultipleChoice) {
	if len(mc.Options) != QuizOptionCount {
		fe["options"] = fmt.Sprintf("exactly %d options are required", QuizOptionCount)
		return
	}
	for i, o := range mc.Options {
		if strings.TrimSpace(o) == "" {
			fe[fmt.Sprintf("options[%d]", i)] = "is required"
		}
	}
	for _, o := range mc.Options {
		if o == mc.Answer && o != "" {
			return
		}
	}
	fe["answer"] = "must be one of the options"
}
