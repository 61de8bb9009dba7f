package models

import (
	"encoding/json"
	"fmt"
)

// QuizKind 测验类型（线上 type 字段）
type QuizKind string

const (
	QuizMultipleChoice QuizKind = "MultipleChoices"
	QuizTrueFalse      QuizKind = "TrueFalse"
)

// QuizBody 测验题型相关字段，只有 MultipleChoice 与 TrueFalse 两种实现
type QuizBody interface {
	Kind() QuizKind
}

// MultipleChoice 单选题
type MultipleChoice struct {
	Options []string
	Answer  string
}

func (MultipleChoice) Kind() QuizKind { return QuizMultipleChoice }

// TrueFalse 判断题
type TrueFalse struct {
	Answer bool
}

func (TrueFalse) Kind() QuizKind { return QuizTrueFalse }

// Quiz 测验。学员视图拿到的 Body 可能不含答案
type Quiz struct {
	ID       string
	Question string
	Tag      string
	Body     QuizBody
}

// Kind 返回题型，Body 为空时视为单选题
func (q Quiz) Kind() QuizKind {
	if q.Body == nil {
		return QuizMultipleChoice
	}
	return q.Body.Kind()
}

type quizWire struct {
	ID       string          `json:"id,omitempty"`
	Type     QuizKind        `json:"type"`
	Question string          `json:"question"`
	Tag      string          `json:"tag"`
	Options  []string        `json:"options,omitempty"`
	Answer   json.RawMessage `json:"answer,omitempty"`
}

// MarshalJSON 按题型输出扁平的线上结构
func (q Quiz) MarshalJSON() ([]byte, error) {
	w := quizWire{ID: q.ID, Type: q.Kind(), Question: q.Question, Tag: q.Tag}
	var answer interface{}
	switch b := q.Body.(type) {
	case MultipleChoice:
		w.Options = b.Options
		if b.Answer != "" {
			answer = b.Answer
		}
	case *MultipleChoice:
		w.Options = b.Options
		if b.Answer != "" {
			answer = b.Answer
		}
	case TrueFalse:
		answer = b.Answer
	case *TrueFalse:
		answer = b.Answer
	}
	if answer != nil {
		raw, err := json.Marshal(answer)
		if err != nil {
			return nil, err
		}
		w.Answer = raw
	}
	return json.Marshal(w)
}

// UnmarshalJSON 根据 type 字段还原题型
func (q *Quiz) UnmarshalJSON(data []byte) error {
	var w quizWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	q.ID, q.Question, q.Tag = w.ID, w.Question, w.Tag
	switch w.Type {
	case QuizTrueFalse:
		tf := TrueFalse{}
		if len(w.Answer) > 0 {
			if err := json.Unmarshal(w.Answer, &tf.Answer); err != nil {
				return fmt.Errorf("decode true/false answer: %w", err)
			}
		}
		q.Body = tf
	case QuizMultipleChoice, "":
		mc := MultipleChoice{Options: w.Options}
		if len(w.Answer) > 0 {
			if err := json.Unmarshal(w.Answer, &mc.Answer); err != nil {
				return fmt.Errorf("decode multiple choice answer: %w", err)
			}
		}
		q.Body = mc
	default:
		return fmt.Errorf("unknown quiz type %q", w.Type)
	}
	return nil
}
