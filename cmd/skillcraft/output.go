package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/format"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

// printOutput 按全局输出格式打印：json 模式序列化 v，text 模式调用 text
func printOutput(cmd *cobra.Command, v interface{}, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if appFrom(cmd).Config.Output == "json" {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		fmt.Fprintln(w, string(data))
		return nil
	}
	text(w)
	return nil
}

// printMessage 只有 text 模式输出提示，json 模式输出 {"message": ...}
func printMessage(cmd *cobra.Command, msg string, args ...interface{}) error {
	s := fmt.Sprintf(msg, args...)
	return printOutput(cmd, map[string]string{"message": s}, func(w io.Writer) {
		fmt.Fprintln(w, s)
	})
}

func table(w io.Writer, header ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, cols ...interface{}) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	fmt.Fprintln(tw, strings.Join(parts, "\t"))
}

func writeRoadmaps(w io.Writer, items []models.Roadmap) {
	tw := table(w, "ID", "NAME", "TAGS", "SALARY", "DURATION")
	for _, r := range items {
		row(tw, r.ID, r.Name, strings.Join(r.Tags, ","), dash(format.Salary(r.Salary)), format.Duration(r.DurationInMinutes))
	}
	_ = tw.Flush()
}

func writeRoadmap(w io.Writer, r *models.Roadmap) {
	fmt.Fprintf(w, "%s  [%s]\n", r.Name, r.ID)
	if r.Description != "" {
		fmt.Fprintf(w, "  %s\n", r.Description)
	}
	if len(r.Tags) > 0 {
		fmt.Fprintf(w, "  tags: %s\n", strings.Join(r.Tags, ", "))
	}
	if s := format.Salary(r.Salary); s != "" {
		fmt.Fprintf(w, "  salary: %s\n", s)
	}
	fmt.Fprintf(w, "  duration: %s\n", format.Duration(r.DurationInMinutes))
	for i, m := range r.Milestones {
		fmt.Fprintf(w, "  %d. %s (%s)\n", i+1, m.Name, format.Duration(m.DurationInMinutes))
		for _, s := range m.Steps {
			fmt.Fprintf(w, "     - %s (%s)\n", s.Name, format.Duration(s.DurationInMinutes))
		}
	}
}

func writeMilestones(w io.Writer, items []models.Milestone) {
	tw := table(w, "ID", "NAME", "STEPS", "DURATION")
	for _, m := range items {
		row(tw, m.ID, m.Name, len(m.Steps), format.Duration(m.DurationInMinutes))
	}
	_ = tw.Flush()
}

func writeMilestone(w io.Writer, m *models.Milestone) {
	fmt.Fprintf(w, "%s  [%s]\n", m.Name, m.ID)
	if m.Description != "" {
		fmt.Fprintf(w, "  %s\n", m.Description)
	}
	fmt.Fprintf(w, "  duration: %s\n", format.Duration(m.DurationInMinutes))
	for i, s := range m.Steps {
		fmt.Fprintf(w, "  %d. %s (%s)\n", i+1, s.Name, format.Duration(s.DurationInMinutes))
	}
}

func writeSteps(w io.Writer, items []models.Step) {
	tw := table(w, "ID", "NAME", "DURATION")
	for _, s := range items {
		row(tw, s.ID, s.Name, format.Duration(s.DurationInMinutes))
	}
	_ = tw.Flush()
}

func writeStep(w io.Writer, s *models.Step) {
	fmt.Fprintf(w, "%s  [%s]\n", s.Name, s.ID)
	if s.Description != "" {
		fmt.Fprintf(w, "  %s\n", s.Description)
	}
	fmt.Fprintf(w, "  duration: %s\n", format.Duration(s.DurationInMinutes))
}

func writeQuizzes(w io.Writer, items []models.Quiz) {
	tw := table(w, "ID", "TYPE", "TAG", "QUESTION")
	for _, q := range items {
		row(tw, q.ID, q.Kind(), q.Tag, q.Question)
	}
	_ = tw.Flush()
}

func writeQuiz(w io.Writer, q *models.Quiz) {
	fmt.Fprintf(w, "%s  [%s, %s]\n", q.Question, q.Kind(), q.Tag)
	switch b := q.Body.(type) {
	case models.MultipleChoice:
		for i, o := range b.Options {
			mark := " "
			if b.Answer != "" && o == b.Answer {
				mark = "*"
			}
			fmt.Fprintf(w, "  %s %d) %s\n", mark, i+1, o)
		}
	case models.TrueFalse:
		fmt.Fprintln(w, "  true / false")
	}
}

func writeUsers(w io.Writer, items []models.User) {
	tw := table(w, "ID", "NAME", "EMAIL", "ROLE")
	for _, u := range items {
		row(tw, u.ID, strings.TrimSpace(u.FirstName+" "+u.LastName), u.Email, u.Role)
	}
	_ = tw.Flush()
}

// writePageHint 服务端不返回总数，满页时提示可能还有下一页
func writePageHint(w io.Writer, got int, f models.ListFilter) {
	if models.IsLastPage(got, f) {
		return
	}
	fmt.Fprintf(w, "(more results: --page %d)\n", f.PageNumber+1)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
