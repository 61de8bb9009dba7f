package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/format"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/progress"
)

const (
	profileRoute  = "/profile"
	progressRoute = "/roadmaps/:id/progress"
)

func newProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "个人档案中的路线图与 energy",
	}
	cmd.AddCommand(newProfileRoadmapsCmd())
	cmd.AddCommand(newProfileAddCmd())
	cmd.AddCommand(newProfileRemoveCmd())
	cmd.AddCommand(newProfileEnergyCmd())
	cmd.AddCommand(newProfileFinishCmd())
	return cmd
}

func newProfileRoadmapsCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "roadmaps",
		Short: "列出档案中的路线图",
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := appFrom(cmd).API.MyRoadmaps(cmd.Context())
			if err != nil {
				return err
			}
			return printOutput(cmd, items, func(w io.Writer) { writeRoadmaps(w, items) })
		},
	}
	return withRoute(c, profileRoute)
}

func newProfileAddCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "add <roadmap-id>",
		Short: "将路线图加入档案",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appFrom(cmd).API.AddRoadmapToProfile(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printMessage(cmd, "roadmap %s added to your profile", args[0])
		},
	}
	return withRoute(c, profileRoute)
}

func newProfileRemoveCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "remove <roadmap-id>",
		Short: "将路线图移出档案",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := appFrom(cmd).API.RemoveRoadmapFromProfile(cmd.Context(), args[0]); err != nil {
				return err
			}
			return printMessage(cmd, "roadmap %s removed from your profile", args[0])
		},
	}
	return withRoute(c, profileRoute)
}

type energyView struct {
	UserID string `json:"userId"`
	Energy *int   `json:"energy"`
}

func newProfileEnergyCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "energy [user-id]",
		Short: "查看 energy；不带参数时刷新当前学员",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			v := energyView{}
			if len(args) == 1 {
				value, err := app.API.GetEnergy(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				v.UserID, v.Energy = args[0], &value
			} else {
				v.UserID = app.Session.Principal().ID
				if e := app.Session.RefreshEnergy(cmd.Context()); e.Known {
					value := e.Value
					v.Energy = &value
				}
			}
			return printOutput(cmd, v, func(w io.Writer) {
				if v.Energy == nil {
					fmt.Fprintln(w, "energy: unknown")
					return
				}
				fmt.Fprintf(w, "energy: %d\n", *v.Energy)
			})
		},
	}
	return withRoute(c, profileRoute)
}

func newProfileFinishCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "finish <roadmap-id>",
		Short: "将档案中的路线图标记为已完成（--undo 取消）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			undo, _ := cmd.Flags().GetBool("undo")
			if err := appFrom(cmd).API.SetRoadmapStatus(cmd.Context(), args[0], !undo); err != nil {
				return err
			}
			if undo {
				return printMessage(cmd, "roadmap %s marked as in progress", args[0])
			}
			return printMessage(cmd, "roadmap %s marked as finished", args[0])
		},
	}
	c.Flags().Bool("undo", false, "取消完成标记")
	return withRoute(c, profileRoute)
}

func newProgressCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "路线图学习进度",
	}
	cmd.AddCommand(newProgressShowCmd())
	cmd.AddCommand(newProgressMarkCmd())
	cmd.AddCommand(newProgressToggleProfileCmd())
	return cmd
}

// progressView 进度页
type progressView struct {
	RoadmapID         string   `json:"roadmapId"`
	Name              string   `json:"name"`
	InProfile         bool     `json:"inProfile"`
	Finished          []string `json:"finishedStepIds"`
	CompletedDuration int      `json:"completedMinutes"`
	TotalDuration     int      `json:"totalMinutes"`
	Percentage        float64  `json:"percentage"`

	roadmap *models.Roadmap
}

func newProgressView(tr *progress.Tracker) progressView {
	r := tr.Roadmap()
	return progressView{
		RoadmapID:         r.ID,
		Name:              r.Name,
		InProfile:         tr.InProfile(),
		Finished:          tr.Finished(),
		CompletedDuration: tr.CompletedDuration(),
		TotalDuration:     tr.TotalDuration(),
		Percentage:        tr.Percentage(),
		roadmap:           r,
	}
}

func writeProgress(w io.Writer, v progressView) {
	done := map[string]bool{}
	for _, id := range v.Finished {
		done[id] = true
	}
	member := "not in profile"
	if v.InProfile {
		member = "in profile"
	}
	fmt.Fprintf(w, "%s  [%s, %s]\n", v.Name, v.RoadmapID, member)
	for _, m := range v.roadmap.Milestones {
		fmt.Fprintf(w, "  %s\n", m.Name)
		for _, s := range m.Steps {
			mark := " "
			if done[s.ID] {
				mark = "x"
			}
			fmt.Fprintf(w, "    [%s] %s (%s)  %s\n", mark, s.Name, format.Duration(s.DurationInMinutes), s.ID)
		}
	}
	fmt.Fprintf(w, "progress: %s of %s (%s)\n",
		format.Duration(v.CompletedDuration), format.Duration(v.TotalDuration), format.Percentage(v.Percentage))
}

// openTracker 为当前用户初始化单个路线图的进度
func openTracker(cmd *cobra.Command, roadmapID string) (*progress.Tracker, error) {
	app := appFrom(cmd)
	tr := progress.New(app.API, progress.WithLogger(app.Logger))
	if err := tr.Initialize(cmd.Context(), app.Session.Principal().ID, roadmapID); err != nil {
		tr.Close()
		return nil, err
	}
	return tr, nil
}

func newProgressShowCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "show <roadmap-id>",
		Short: "显示路线图的完成情况",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := openTracker(cmd, args[0])
			if err != nil {
				return err
			}
			defer tr.Close()
			v := newProgressView(tr)
			return printOutput(cmd, v, func(w io.Writer) { writeProgress(w, v) })
		},
	}
	return withRoute(c, progressRoute)
}

func newProgressMarkCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "mark <roadmap-id> <step>...",
		Short: "勾选步骤（按 id 或名称）并提交；--undo 取消勾选",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			undo, _ := cmd.Flags().GetBool("undo")
			tr, err := openTracker(cmd, args[0])
			if err != nil {
				return err
			}
			defer tr.Close()

			var refs []models.Ref
			for _, m := range tr.Roadmap().Milestones {
				refs = append(refs, models.StepRefs(m.Steps)...)
			}
			for _, key := range args[1:] {
				ref, ok := resolveRef(refs, key)
				if !ok {
					return fmt.Errorf("%w: %s", progress.ErrUnknownStep, key)
				}
				if tr.IsSelected(ref.ID) == !undo {
					continue
				}
				if _, err := tr.Toggle(ref.ID); err != nil {
					return err
				}
			}
			if err := tr.Commit(cmd.Context()); err != nil {
				return err
			}
			v := newProgressView(tr)
			return printOutput(cmd, v, func(w io.Writer) { writeProgress(w, v) })
		},
	}
	c.Flags().Bool("undo", false, "取消勾选")
	return withRoute(c, progressRoute)
}

func newProgressToggleProfileCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "toggle-profile <roadmap-id>",
		Short: "将路线图加入或移出档案",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := openTracker(cmd, args[0])
			if err != nil {
				return err
			}
			defer tr.Close()
			if _, err := tr.ToggleProfileMembership(cmd.Context()); err != nil {
				return err
			}
			v := newProgressView(tr)
			return printOutput(cmd, v, func(w io.Writer) { writeProgress(w, v) })
		},
	}
	return withRoute(c, progressRoute)
}
