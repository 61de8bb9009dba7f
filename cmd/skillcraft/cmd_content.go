package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/editor"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/guard"
)

func newRoadmapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roadmap",
		Short: "路线图浏览与编辑",
	}
	cmd.AddCommand(newRoadmapListCmd())
	cmd.AddCommand(newRoadmapGetCmd())
	cmd.AddCommand(newRoadmapDeleteCmd())
	cmd.AddCommand(newRoadmapCreateCmd())
	cmd.AddCommand(newRoadmapEditCmd())
	return cmd
}

func newRoadmapListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "列出路线图",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := filterFromFlags(cmd)
			items, err := appFrom(cmd).API.ListRoadmaps(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printOutput(cmd, items, func(w io.Writer) {
				writeRoadmaps(w, items)
				writePageHint(w, len(items), f)
			})
		},
	}
	addFilterFlags(c, true)
	return c
}

func newRoadmapGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "查看路线图及其里程碑与步骤",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := appFrom(cmd).API.GetRoadmap(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printOutput(cmd, r, func(w io.Writer) { writeRoadmap(w, r) })
		},
	}
}

func newRoadmapDeleteCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "delete <id>",
		Short: "删除路线图",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appFrom(cmd).API.DeleteRoadmap(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printMessage(cmd, "roadmap %s deleted", args[0])
		},
	}
	return withRoute(c, guard.EditorHome)
}

func newMilestoneCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "milestone",
		Short: "里程碑浏览与编辑",
	}
	cmd.AddCommand(newMilestoneListCmd())
	cmd.AddCommand(newMilestoneGetCmd())
	cmd.AddCommand(newMilestoneDeleteCmd())
	cmd.AddCommand(newMilestoneCreateCmd())
	cmd.AddCommand(newMilestoneEditCmd())
	return cmd
}

func newMilestoneListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "列出里程碑",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := filterFromFlags(cmd)
			items, err := appFrom(cmd).API.ListMilestones(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printOutput(cmd, items, func(w io.Writer) {
				writeMilestones(w, items)
				writePageHint(w, len(items), f)
			})
		},
	}
	addFilterFlags(c, false)
	return c
}

func newMilestoneGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "查看里程碑及其步骤",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := appFrom(cmd).API.GetMilestone(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printOutput(cmd, m, func(w io.Writer) { writeMilestone(w, m) })
		},
	}
}

func newMilestoneDeleteCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "delete <id>",
		Short: "删除里程碑",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appFrom(cmd).API.DeleteMilestone(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printMessage(cmd, "milestone %s deleted", args[0])
		},
	}
	return withRoute(c, "/editor/milestones")
}

func newStepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "步骤管理",
	}
	cmd.AddCommand(newStepListCmd())
	cmd.AddCommand(newStepGetCmd())
	cmd.AddCommand(newStepCreateCmd())
	cmd.AddCommand(newStepUpdateCmd())
	cmd.AddCommand(newStepDeleteCmd())
	return cmd
}

func newStepListCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "list",
		Short: "列出步骤",
		RunE: func(cmd *cobra.Command, args []string) error {
			f := filterFromFlags(cmd)
			items, err := appFrom(cmd).API.ListSteps(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printOutput(cmd, items, func(w io.Writer) {
				writeSteps(w, items)
				writePageHint(w, len(items), f)
			})
		},
	}
	addFilterFlags(c, false)
	return c
}

func newStepGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "查看步骤",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := appFrom(cmd).API.GetStep(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printOutput(cmd, s, func(w io.Writer) { writeStep(w, s) })
		},
	}
}

func newStepCreateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "create",
		Short: "创建步骤",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			ed := editor.NewStepEditor(app.API, editor.WithLogger(app.Logger))
			defer ed.Close()
			if err := ed.LoadForCreate(cmd.Context()); err != nil {
				return err
			}
			return saveStep(cmd, ed)
		},
	}
	c.Flags().String("name", "", "步骤名称（必选）")
	c.Flags().String("description", "", "步骤描述（必选）")
	addDurationFlags(c)
	return withRoute(c, "/editor/steps")
}

func newStepUpdateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "update <id>",
		Short: "更新步骤，未指定的字段保持不变",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			ed := editor.NewStepEditor(app.API, editor.WithLogger(app.Logger))
			defer ed.Close()
			if err := ed.LoadForEdit(cmd.Context(), args[0]); err != nil {
				return err
			}
			return saveStep(cmd, ed)
		},
	}
	c.Flags().String("name", "", "步骤名称")
	c.Flags().String("description", "", "步骤描述")
	addDurationFlags(c)
	return withRoute(c, "/editor/steps")
}

// saveStep 将标志写入草稿并保存；只有显式设置的标志覆盖已加载的值
func saveStep(cmd *cobra.Command, ed *editor.StepEditor) error {
	if cmd.Flags().Changed("name") {
		if err := ed.SetName(mustGetString(cmd, "name")); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("description") {
		if err := ed.SetDescription(mustGetString(cmd, "description")); err != nil {
			return err
		}
	}
	if durationChanged(cmd) {
		if err := ed.SetDuration(durationFromFlags(cmd, ed.Draft().Duration)); err != nil {
			return err
		}
	}
	s, err := ed.Save(cmd.Context())
	if err != nil {
		return err
	}
	return printOutput(cmd, s, func(w io.Writer) {
		fmt.Fprint(w, "saved: ")
		writeStep(w, s)
	})
}

func newStepDeleteCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "delete <id>",
		Short: "删除步骤",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appFrom(cmd).API.DeleteStep(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printMessage(cmd, "step %s deleted", args[0])
		},
	}
	return withRoute(c, "/editor/steps")
}
