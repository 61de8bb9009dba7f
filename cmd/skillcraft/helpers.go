package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/format"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

// addFilterFlags 列表命令共用的过滤与分页标志
func addFilterFlags(cmd *cobra.Command, withTag bool) {
	cmd.Flags().String("name", "", "按名称过滤")
	if withTag {
		cmd.Flags().String("tag", "", "按标签过滤")
	}
	cmd.Flags().Int("page", 0, "页码（从 0 开始）")
	cmd.Flags().Int("page-size", 0, "每页条数（0 表示全部）")
}

// filterFromFlags 读取 addFilterFlags 注册的标志
func filterFromFlags(cmd *cobra.Command) models.ListFilter {
	f := models.ListFilter{Name: mustGetString(cmd, "name")}
	if cmd.Flags().Lookup("tag") != nil {
		f.Tag = mustGetString(cmd, "tag")
	}
	f.PageNumber, _ = cmd.Flags().GetInt("page")
	f.PageSize, _ = cmd.Flags().GetInt("page-size")
	return f
}

// addDurationFlags 步骤时长以 天/时/分 录入
func addDurationFlags(cmd *cobra.Command) {
	cmd.Flags().Int("days", 0, "时长：天（1 天 = 8 小时）")
	cmd.Flags().Int("hours", 0, "时长：小时")
	cmd.Flags().Int("minutes", 0, "时长：分钟")
}

// durationFromFlags 未设置的分量沿用 base
func durationFromFlags(cmd *cobra.Command, base format.Parts) format.Parts {
	p := base
	if cmd.Flags().Changed("days") {
		p.Days, _ = cmd.Flags().GetInt("days")
	}
	if cmd.Flags().Changed("hours") {
		p.Hours, _ = cmd.Flags().GetInt("hours")
	}
	if cmd.Flags().Changed("minutes") {
		p.Minutes, _ = cmd.Flags().GetInt("minutes")
	}
	return p
}

func durationChanged(cmd *cobra.Command) bool {
	return cmd.Flags().Changed("days") || cmd.Flags().Changed("hours") || cmd.Flags().Changed("minutes")
}

// mustGetString 获取必选的字符串标志
func mustGetString(cmd *cobra.Command, flag string) string {
	v, _ := cmd.Flags().GetString(flag)
	return v
}

// prompter 从标准输入逐行读取，用于交互式编辑会话与密码录入
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPrompter(cmd *cobra.Command) *prompter {
	return &prompter{in: bufio.NewScanner(cmd.InOrStdin()), out: cmd.ErrOrStderr()}
}

var errInputClosed = errors.New("INPUT_CLOSED")

// ask 打印提示并返回去掉首尾空白的一行；输入结束时返回 errInputClosed
func (p *prompter) ask(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// stringOrPrompt 标志为空时从输入读取
func stringOrPrompt(cmd *cobra.Command, p *prompter, flag, prompt string) (string, error) {
	if v := mustGetString(cmd, flag); v != "" {
		return v, nil
	}
	return p.ask(prompt)
}
