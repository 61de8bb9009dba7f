package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/editor"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

func newQuizCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "测验管理与作答",
	}
	cmd.AddCommand(newQuizListCmd())
	cmd.AddCommand(newQuizGetCmd())
	cmd.AddCommand(newQuizCreateCmd())
	cmd.AddCommand(newQuizUpdateCmd())
	cmd.AddCommand(newQuizDeleteCmd())
	cmd.AddCommand(newQuizAnswerCmd())
	return cmd
}

func newQuizListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "列出测验",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := filterFromFlags(cmd)
			items, err := appFrom(cmd).API.ListQuizzes(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printOutput(cmd, items, func(w io.Writer) {
				writeQuizzes(w, items)
				writePageHint(w, len(items), f)
			})
		},
	}
	addFilterFlags(c, true)
	return withRoute(c, "/editor/quizzes")
}

func newQuizGetCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "get <id>",
		Short: "查看测验",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := appFrom(cmd).API.GetQuiz(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printOutput(cmd, q, func(w io.Writer) { writeQuiz(w, q) })
		},
	}
	return withRoute(c, "/quizzes/:id")
}

func addQuizFlags(c *cobra.Command) {
	c.Flags().String("type", "", "题型: mc (单选) / tf (判断)")
	c.Flags().String("question", "", "题干")
	c.Flags().String("tag", "", "标签")
	c.Flags().StringArray("option", nil, fmt.Sprintf("单选题选项，重复 %d 次", editor.QuizOptionCount))
	c.Flags().String("answer", "", "答案：单选题为选项文本或序号，判断题为 true/false")
}

// quizFromFlags 以 base 为底，按标志覆盖后组装并校验
func quizFromFlags(cmd *cobra.Command, base models.Quiz) (models.Quiz, error) {
	question, tag := base.Question, base.Tag
	if cmd.Flags().Changed("question") {
		question = mustGetString(cmd, "question")
	}
	if cmd.Flags().Changed("tag") {
		tag = mustGetString(cmd, "tag")
	}

	kind := base.Kind()
	if cmd.Flags().Changed("type") {
		switch strings.ToLower(mustGetString(cmd, "type")) {
		case "mc", "multiple", strings.ToLower(string(models.QuizMultipleChoice)):
			kind = models.QuizMultipleChoice
		case "tf", "truefalse", strings.ToLower(string(models.QuizTrueFalse)):
			kind = models.QuizTrueFalse
		default:
			return models.Quiz{}, fmt.Errorf("%w: type must be mc or tf", editor.ErrInvalidQuiz)
		}
	}

	answer := mustGetString(cmd, "answer")
	var body models.QuizBody
	switch kind {
	case models.QuizTrueFalse:
		tf, _ := base.Body.(models.TrueFalse)
		if cmd.Flags().Changed("answer") {
			v, err := strconv.ParseBool(answer)
			if err != nil {
				return models.Quiz{}, fmt.Errorf("%w: answer must be true or false", editor.ErrInvalidQuiz)
			}
			tf.Answer = v
		}
		body = tf
	default:
		mc, _ := base.Body.(models.MultipleChoice)
		if cmd.Flags().Changed("option") {
			mc.Options, _ = cmd.Flags().GetStringArray("option")
		}
		if cmd.Flags().Changed("answer") {
			mc.Answer = optionAnswer(mc.Options, answer)
		}
		body = mc
	}
	return editor.BuildQuiz(question, tag, body)
}

// optionAnswer 序号（从 1 开始）换成对应选项文本
func optionAnswer(options []string, answer string) string {
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
		return options[n-1]
	}
	return answer
}

func newQuizCreateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "create",
		Short: "创建测验",
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := quizFromFlags(cmd, models.Quiz{})
			if err != nil {
				return err
			}
			saved, err := appFrom(cmd).API.CreateQuiz(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printOutput(cmd, saved, func(w io.Writer) {
				fmt.Fprint(w, "created: ")
				writeQuiz(w, saved)
			})
		},
	}
	addQuizFlags(c)
	return withRoute(c, "/editor/quizzes")
}

func newQuizUpdateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "update <id>",
		Short: "更新测验，未指定的字段保持不变",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			current, err := app.API.GetQuiz(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			q, err := quizFromFlags(cmd, *current)
			if err != nil {
				return err
			}
			saved, err := app.API.UpdateQuiz(cmd.Context(), args[0], q)
			if err != nil {
				return err
			}
			return printOutput(cmd, saved, func(w io.Writer) {
				fmt.Fprint(w, "updated: ")
				writeQuiz(w, saved)
			})
		},
	}
	addQuizFlags(c)
	return withRoute(c, "/editor/quizzes")
}

func newQuizDeleteCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "delete <id>",
		Short: "删除测验",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appFrom(cmd).API.DeleteQuiz(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printMessage(cmd, "quiz %s deleted", args[0])
		},
	}
	return withRoute(c, "/editor/quizzes")
}

type answerView struct {
	QuizID  string `json:"quizId"`
	Answer  string `json:"answer"`
	Correct bool   `json:"correct"`
}

func newQuizAnswerCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "answer <id> [answer]",
		Short: "作答测验；未给出答案时显示题目并从标准输入读取",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			q, err := app.API.GetQuiz(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var answer string
			if len(args) == 2 {
				answer = args[1]
			} else {
				p := newPrompter(cmd)
				writeQuiz(p.out, q)
				if answer, err = p.ask("your answer: "); err != nil {
					return err
				}
			}
			if mc, ok := q.Body.(models.MultipleChoice); ok {
				answer = optionAnswer(mc.Options, answer)
			}

			correct, err := app.API.CheckAnswer(cmd.Context(), q.ID, answer)
			if err != nil {
				return err
			}
			v := answerView{QuizID: q.ID, Answer: answer, Correct: correct}
			return printOutput(cmd, v, func(w io.Writer) {
				if correct {
					fmt.Fprintln(w, "correct")
				} else {
					fmt.Fprintln(w, "incorrect")
				}
			})
		},
	}
	return withRoute(c, "/quizzes/:id")
}
