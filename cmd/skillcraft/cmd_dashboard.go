package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/format"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/guard"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/progress"
)

// dashboardView 按角色落地视图汇总
type dashboardView struct {
	Home     string            `json:"home"`
	Roadmaps []models.Roadmap  `json:"roadmaps,omitempty"`
	Progress []roadmapProgress `json:"progress,omitempty"`
	Energy   *int              `json:"energy,omitempty"`
	Counts   map[string]int    `json:"counts,omitempty"`
	Users    []models.User     `json:"users,omitempty"`
	Roles    []models.RoleInfo `json:"roles,omitempty"`
}

type roadmapProgress struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Completed  int     `json:"completedMinutes"`
	Total      int     `json:"totalMinutes"`
	Percentage float64 `json:"percentage"`
}

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "显示当前角色的落地视图（未登录时为公开目录）",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			p := app.Session.Principal()
			home := guard.Home
			if p != nil {
				home = guard.Landing(p.Role)
			}
			var (
				v   *dashboardView
				err error
			)
			switch home {
			case guard.AdminHome:
				v, err = adminDashboard(cmd)
			case guard.EditorHome:
				v, err = editorDashboard(cmd)
			default:
				v, err = learnerDashboard(cmd, p)
			}
			if err != nil {
				return err
			}
			v.Home = home
			return printOutput(cmd, v, func(w io.Writer) { writeDashboard(w, v) })
		},
	}
}

func adminDashboard(cmd *cobra.Command) (*dashboardView, error) {
	app := appFrom(cmd)
	v := &dashboardView{}
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() (err error) {
		v.Users, err = app.API.ListUsers(ctx, models.ListFilter{})
		return err
	})
	g.Go(func() (err error) {
		v.Roles, err = app.API.ListRoles(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	v.Counts = map[string]int{}
	for _, u := range v.Users {
		v.Counts[string(u.Role)]++
	}
	return v, nil
}

func editorDashboard(cmd *cobra.Command) (*dashboardView, error) {
	app := appFrom(cmd)
	var roadmaps, milestones, steps, quizzes int
	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error {
		items, err := app.API.ListRoadmaps(ctx, models.ListFilter{})
		roadmaps = len(items)
		return err
	})
	g.Go(func() error {
		items, err := app.API.ListMilestones(ctx, models.ListFilter{})
		milestones = len(items)
		return err
	})
	g.Go(func() error {
		items, err := app.API.ListSteps(ctx, models.ListFilter{})
		steps = len(items)
		return err
	})
	g.Go(func() error {
		items, err := app.API.ListQuizzes(ctx, models.ListFilter{})
		quizzes = len(items)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &dashboardView{Counts: map[string]int{
		"roadmaps":   roadmaps,
		"milestones": milestones,
		"steps":      steps,
		"quizzes":    quizzes,
	}}, nil
}

// learnerDashboard 已登录学员展示档案中的路线图进度与 energy，未登录时展示公开目录
func learnerDashboard(cmd *cobra.Command, p *models.Principal) (*dashboardView, error) {
	app := appFrom(cmd)
	ctx := cmd.Context()
	if p == nil {
		items, err := app.API.ListRoadmaps(ctx, models.ListFilter{})
		if err != nil {
			return nil, err
		}
		return &dashboardView{Roadmaps: items}, nil
	}

	mine, err := app.API.MyRoadmaps(ctx)
	if err != nil {
		return nil, err
	}
	v := &dashboardView{Progress: make([]roadmapProgress, len(mine))}
	g, gctx := errgroup.WithContext(ctx)
	for i := range mine {
		i := i
		g.Go(func() error {
			tr := progress.New(app.API, progress.WithLogger(app.Logger))
			defer tr.Close()
			if err := tr.Initialize(gctx, p.ID, mine[i].ID); err != nil {
				return err
			}
			v.Progress[i] = roadmapProgress{
				ID:         mine[i].ID,
				Name:       mine[i].Name,
				Completed:  tr.CompletedDuration(),
				Total:      tr.TotalDuration(),
				Percentage: tr.Percentage(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if e := app.Session.Energy(); e.Known {
		value := e.Value
		v.Energy = &value
	}
	return v, nil
}

func writeDashboard(w io.Writer, v *dashboardView) {
	fmt.Fprintf(w, "== %s ==\n", v.Home)
	switch v.Home {
	case guard.AdminHome:
		fmt.Fprintf(w, "users: %d  (", len(v.Users))
		for i, r := range v.Roles {
			if i > 0 {
				fmt.Fprint(w, ", ")
			}
			fmt.Fprintf(w, "%s %d", r.Name, v.Counts[r.Name])
		}
		fmt.Fprintln(w, ")")
		writeUsers(w, v.Users)
	case guard.EditorHome:
		for _, k := range []string{"roadmaps", "milestones", "steps", "quizzes"} {
			fmt.Fprintf(w, "%-11s %d\n", k+":", v.Counts[k])
		}
	default:
		if v.Progress == nil {
			writeRoadmaps(w, v.Roadmaps)
			return
		}
		if v.Energy != nil {
			fmt.Fprintf(w, "energy: %d\n", *v.Energy)
		} else {
			fmt.Fprintln(w, "energy: unknown")
		}
		if len(v.Progress) == 0 {
			fmt.Fprintln(w, "no roadmaps in your profile yet: skillcraft profile add <roadmap-id>")
			return
		}
		tw := table(w, "ID", "ROADMAP", "DONE", "TOTAL", "PROGRESS")
		for _, p := range v.Progress {
			row(tw, p.ID, p.Name, format.Duration(p.Completed), format.Duration(p.Total), format.Percentage(p.Percentage))
		}
		_ = tw.Flush()
	}
}
