package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd 组装完整命令树，测试中每次构造新实例
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "skillcraft",
		Short: "SkillCraft 学习平台命令行客户端",
		Long: `skillcraft - SkillCraft 学习平台命令行客户端

浏览路线图、记录学习进度、编辑课程内容与管理用户。
配置优先级: 命令行标志 > 环境变量 (SKILLCRAFT_*) > ~/.skillcraft/config.yaml`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupApp,
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return teardownApp(cmd)
		},
	}

	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newDashboardCmd())
	rootCmd.AddCommand(newRoadmapCmd())
	rootCmd.AddCommand(newMilestoneCmd())
	rootCmd.AddCommand(newStepCmd())
	rootCmd.AddCommand(newQuizCmd())
	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newProfileCmd())
	rootCmd.AddCommand(newProgressCmd())
	rootCmd.AddCommand(newThemeCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newDevCmd())

	return rootCmd
}
