package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/editor"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/format"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

var errQuit = errors.New("QUIT")

// composer 路线图与里程碑编辑器在交互会话中的共同操作
type composer interface {
	SetName(string) error
	SetDescription(string) error
	MoveToSelected(id string) (bool, error)
	MoveToAvailable(id string) (bool, error)
	Reorder(index int, dir editor.Direction) (bool, error)
	TotalMinutes() int
	Close()
}

// composeSession 逐行读取指令操作编辑器，save 成功或 quit 时结束
type composeSession struct {
	entity    string
	child     string
	ed        composer
	pools     func() (available, selected []models.Ref)
	show      func(w io.Writer)
	save      func(ctx context.Context) (interface{}, func(io.Writer), error)
	newChild  func(ctx context.Context, p *prompter) error
	editChild func(ctx context.Context, p *prompter, id string) error
	extra     map[string]func(arg string) error
}

const composeHelp = `commands:
  name <text>            set name
  desc <text>            set description
  add <id|name>          move an available %[1]s into the selection
  remove <id|name>       move a selected %[1]s back to available
  up <n> / down <n>      move the n-th selected %[1]s
  new                    create a %[1]s and add it to available
  edit <id|name>         edit a %[1]s, then refresh both lists
%[2]s  show                   print the draft
  save                   validate and save
  quit                   discard the draft
`

func (s *composeSession) help(w io.Writer) {
	extra := ""
	if _, ok := s.extra["tag"]; ok {
		extra = "  tag <t> / untag <t>    add or remove a tag\n  salary <amount>        set the yearly salary\n"
	}
	fmt.Fprintf(w, composeHelp, s.child, extra)
}

// run 结束时返回已保存的实体；quit 或输入结束返回 errQuit
func (s *composeSession) run(ctx context.Context, p *prompter) (interface{}, func(io.Writer), error) {
	s.show(p.out)
	for {
		line, err := p.ask(s.entity + "> ")
		if errors.Is(err, errInputClosed) {
			return nil, nil, errQuit
		}
		if err != nil {
			return nil, nil, err
		}
		verb, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch verb {
		case "":
			continue
		case "help", "?":
			s.help(p.out)
		case "show":
			s.show(p.out)
		case "name":
			err = s.ed.SetName(arg)
		case "desc":
			err = s.ed.SetDescription(arg)
		case "add":
			err = s.move(p.out, arg, true)
		case "remove":
			err = s.move(p.out, arg, false)
		case "up", "down":
			err = s.reorder(p.out, verb, arg)
		case "new":
			err = s.newChild(ctx, p)
		case "edit":
			avail, sel := s.pools()
			ref, ok := resolveRef(append(sel, avail...), arg)
			if !ok {
				fmt.Fprintf(p.out, "no %s matches %q\n", s.child, arg)
				continue
			}
			err = s.editChild(ctx, p, ref.ID)
		case "save":
			saved, text, saveErr := s.save(ctx)
			if saveErr == nil {
				return saved, text, nil
			}
			err = saveErr
		case "quit", "exit":
			s.ed.Close()
			return nil, nil, errQuit
		default:
			fn, ok := s.extra[verb]
			if !ok {
				fmt.Fprintf(p.out, "unknown command %q (try help)\n", verb)
				continue
			}
			err = fn(arg)
		}
		if err != nil {
			reportError(p.out, err)
		}
	}
}

func (s *composeSession) move(w io.Writer, key string, toSelected bool) error {
	avail, sel := s.pools()
	from := sel
	if toSelected {
		from = avail
	}
	ref, ok := resolveRef(from, key)
	if !ok {
		fmt.Fprintf(w, "no %s matches %q\n", s.child, key)
		return nil
	}
	if toSelected {
		_, err := s.ed.MoveToSelected(ref.ID)
		return err
	}
	_, err := s.ed.MoveToAvailable(ref.ID)
	return err
}

func (s *composeSession) reorder(w io.Writer, verb, arg string) error {
	n, err := strconv.Atoi(arg)
	if err != nil {
		fmt.Fprintf(w, "%s needs a position, e.g. %s 2\n", verb, verb)
		return nil
	}
	dir := editor.Up
	if verb == "down" {
		dir = editor.Down
	}
	moved, err := s.ed.Reorder(n-1, dir)
	if err == nil && !moved {
		fmt.Fprintln(w, "nothing to move")
	}
	return err
}

// reportError 交互会话中的错误只提示，不结束会话
func reportError(w io.Writer, err error) {
	var fe editor.FieldErrors
	if errors.As(err, &fe) {
		fmt.Fprintln(w, "cannot save:")
		for _, line := range strings.Split(strings.TrimPrefix(fe.Error(), "validation failed: "), "; ") {
			fmt.Fprintf(w, "  %s\n", line)
		}
		return
	}
	fmt.Fprintf(w, "error: %v\n", err)
}

// resolveRef 先按 id 再按名称匹配
func resolveRef(refs []models.Ref, key string) (models.Ref, bool) {
	for _, r := range refs {
		if r.ID == key {
			return r, true
		}
	}
	for _, r := range refs {
		if r.Name == key {
			return r, true
		}
	}
	return models.Ref{}, false
}

func writePools(w io.Writer, available, selected []models.Ref) {
	fmt.Fprintln(w, "  selected:")
	if len(selected) == 0 {
		fmt.Fprintln(w, "    (none)")
	}
	for i, r := range selected {
		fmt.Fprintf(w, "    %d. %s [%s]\n", i+1, r.Name, r.ID)
	}
	fmt.Fprintln(w, "  available:")
	if len(available) == 0 {
		fmt.Fprintln(w, "    (none)")
	}
	for _, r := range available {
		fmt.Fprintf(w, "    - %s [%s]\n", r.Name, r.ID)
	}
}

func roadmapSession(ed *editor.RoadmapEditor) *composeSession {
	return &composeSession{
		entity: "roadmap",
		child:  "milestone",
		ed:     ed,
		pools: func() ([]models.Ref, []models.Ref) {
			d := ed.Draft()
			return d.Available, d.Selected
		},
		show: func(w io.Writer) {
			d := ed.Draft()
			fmt.Fprintf(w, "roadmap %q\n", d.Name)
			fmt.Fprintf(w, "  description: %s\n", d.Description)
			fmt.Fprintf(w, "  tags: %s\n", strings.Join(d.Tags, ", "))
			fmt.Fprintf(w, "  salary: %s\n", dash(format.Salary(d.Salary)))
			fmt.Fprintf(w, "  duration: %s\n", format.Duration(ed.TotalMinutes()))
			writePools(w, d.Available, d.Selected)
		},
		save: func(ctx context.Context) (interface{}, func(io.Writer), error) {
			r, err := ed.Save(ctx)
			if err != nil {
				return nil, nil, err
			}
			return r, func(w io.Writer) {
				fmt.Fprint(w, "saved: ")
				writeRoadmap(w, r)
			}, nil
		},
		newChild: func(ctx context.Context, p *prompter) error {
			child, err := ed.NewMilestone(ctx)
			if err != nil {
				return err
			}
			if _, _, err := milestoneSession(child).run(ctx, p); err != nil && !errors.Is(err, errQuit) {
				return err
			}
			fmt.Fprintln(p.out, "back to roadmap")
			return nil
		},
		editChild: func(ctx context.Context, p *prompter, id string) error {
			child, err := ed.EditMilestone(ctx, id)
			if err != nil {
				return err
			}
			if _, _, err := milestoneSession(child).run(ctx, p); err != nil && !errors.Is(err, errQuit) {
				return err
			}
			fmt.Fprintln(p.out, "back to roadmap")
			return nil
		},
		extra: map[string]func(string) error{
			"tag": func(arg string) error {
				_, err := ed.AddTag(arg)
				return err
			},
			"untag": func(arg string) error {
				_, err := ed.RemoveTag(arg)
				return err
			},
			"salary": func(arg string) error {
				v, err := strconv.ParseFloat(strings.ReplaceAll(arg, ",", ""), 64)
				if err != nil {
					return fmt.Errorf("salary must be a number: %w", err)
				}
				return ed.SetSalary(v)
			},
		},
	}
}

func milestoneSession(ed *editor.MilestoneEditor) *composeSession {
	return &composeSession{
		entity: "milestone",
		child:  "step",
		ed:     ed,
		pools: func() ([]models.Ref, []models.Ref) {
			d := ed.Draft()
			return d.Available, d.Selected
		},
		show: func(w io.Writer) {
			d := ed.Draft()
			fmt.Fprintf(w, "milestone %q\n", d.Name)
			fmt.Fprintf(w, "  description: %s\n", d.Description)
			fmt.Fprintf(w, "  duration: %s\n", format.Duration(ed.TotalMinutes()))
			writePools(w, d.Available, d.Selected)
		},
		save: func(ctx context.Context) (interface{}, func(io.Writer), error) {
			m, err := ed.Save(ctx)
			if err != nil {
				return nil, nil, err
			}
			return m, func(w io.Writer) {
				fmt.Fprint(w, "saved: ")
				writeMilestone(w, m)
			}, nil
		},
		newChild: func(ctx context.Context, p *prompter) error {
			child, err := ed.NewStep(ctx)
			if err != nil {
				return err
			}
			_, err = stepForm(ctx, p, child)
			return err
		},
		editChild: func(ctx context.Context, p *prompter, id string) error {
			child, err := ed.EditStep(ctx, id)
			if err != nil {
				return err
			}
			_, err = stepForm(ctx, p, child)
			return err
		},
	}
}

// stepForm 逐项询问步骤字段（空输入保留当前值），校验失败时可重试
func stepForm(ctx context.Context, p *prompter, ed *editor.StepEditor) (*models.Step, error) {
	defer ed.Close()
	for {
		d := ed.Draft()
		name, err := p.ask(fmt.Sprintf("step name [%s]: ", d.Name))
		if err != nil {
			return nil, err
		}
		desc, err := p.ask(fmt.Sprintf("description [%s]: ", d.Description))
		if err != nil {
			return nil, err
		}
		parts := d.Duration
		for _, f := range []struct {
			label string
			dst   *int
		}{{"days", &parts.Days}, {"hours", &parts.Hours}, {"minutes", &parts.Minutes}} {
			v, err := p.ask(fmt.Sprintf("%s [%d]: ", f.label, *f.dst))
			if err != nil {
				return nil, err
			}
			if v == "" {
				continue
			}
			n, convErr := strconv.Atoi(v)
			if convErr != nil || n < 0 {
				fmt.Fprintf(p.out, "%s must be a non-negative number, keeping %d\n", f.label, *f.dst)
				continue
			}
			*f.dst = n
		}

		if name != "" {
			_ = ed.SetName(name)
		}
		if desc != "" {
			_ = ed.SetDescription(desc)
		}
		_ = ed.SetDuration(parts)

		s, err := ed.Save(ctx)
		if err == nil {
			fmt.Fprintf(p.out, "step saved: %s (%s)\n", s.Name, format.Duration(s.DurationInMinutes))
			return s, nil
		}
		reportError(p.out, err)
		again, askErr := p.ask("retry? [y/N]: ")
		if askErr != nil || !strings.EqualFold(again, "y") {
			return nil, nil
		}
	}
}

// applyComposeFlags 在进入交互会话前应用命令行给出的初始值
func applyComposeFlags(cmd *cobra.Command, s *composeSession) error {
	if cmd.Flags().Changed("name") {
		if err := s.ed.SetName(mustGetString(cmd, "name")); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("description") {
		if err := s.ed.SetDescription(mustGetString(cmd, "description")); err != nil {
			return err
		}
	}
	ids, _ := cmd.Flags().GetStringSlice("select")
	for _, id := range ids {
		avail, sel := s.pools()
		if _, ok := resolveRef(sel, id); ok {
			continue
		}
		ref, ok := resolveRef(avail, id)
		if !ok {
			return fmt.Errorf("%w: %s", editor.ErrUnknownItem, id)
		}
		if _, err := s.ed.MoveToSelected(ref.ID); err != nil {
			return err
		}
	}
	return nil
}

func applyRoadmapFlags(cmd *cobra.Command, ed *editor.RoadmapEditor, s *composeSession) error {
	if err := applyComposeFlags(cmd, s); err != nil {
		return err
	}
	tags, _ := cmd.Flags().GetStringSlice("tag")
	for _, t := range tags {
		if _, err := ed.AddTag(t); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("salary") {
		v, _ := cmd.Flags().GetFloat64("salary")
		return ed.SetSalary(v)
	}
	return nil
}

func addComposeFlags(c *cobra.Command, child string) {
	c.Flags().String("name", "", "名称")
	c.Flags().String("description", "", "描述")
	c.Flags().StringSlice("select", nil, "按顺序选中的"+child+"（id 或名称）")
	c.Flags().Bool("save", false, "应用标志后直接保存，不进入交互会话")
}

// runCompose 直接保存或进入交互会话
func runCompose(cmd *cobra.Command, s *composeSession) error {
	ctx := cmd.Context()
	var (
		saved interface{}
		text  func(io.Writer)
		err   error
	)
	if direct, _ := cmd.Flags().GetBool("save"); direct {
		saved, text, err = s.save(ctx)
	} else {
		p := newPrompter(cmd)
		fmt.Fprintf(p.out, "editing %s, type help for commands\n", s.entity)
		saved, text, err = s.run(ctx, p)
	}
	if errors.Is(err, errQuit) {
		return printMessage(cmd, "%s discarded", s.entity)
	}
	if err != nil {
		return err
	}
	return printOutput(cmd, saved, text)
}

func newRoadmapCreateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "create",
		Short: "从里程碑池组合新路线图（交互式）",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			ed := editor.NewRoadmapEditor(app.API, editor.WithLogger(app.Logger))
			defer ed.Close()
			if err := ed.LoadForCreate(cmd.Context()); err != nil {
				return err
			}
			s := roadmapSession(ed)
			if err := applyRoadmapFlags(cmd, ed, s); err != nil {
				return err
			}
			return runCompose(cmd, s)
		},
	}
	addComposeFlags(c, "milestone")
	c.Flags().StringSlice("tag", nil, "标签")
	c.Flags().Float64("salary", 0, "年薪")
	return withRoute(c, "/editor/roadmaps/new")
}

func newRoadmapEditCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "edit <id>",
		Short: "编辑已有路线图（交互式）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			ed := editor.NewRoadmapEditor(app.API, editor.WithLogger(app.Logger))
			defer ed.Close()
			if err := ed.LoadForEdit(cmd.Context(), args[0]); err != nil {
				return err
			}
			s := roadmapSession(ed)
			if err := applyRoadmapFlags(cmd, ed, s); err != nil {
				return err
			}
			return runCompose(cmd, s)
		},
	}
	addComposeFlags(c, "milestone")
	c.Flags().StringSlice("tag", nil, "追加的标签")
	c.Flags().Float64("salary", 0, "年薪")
	return withRoute(c, "/editor/roadmaps/edit/:id")
}

func newMilestoneCreateCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "create",
		Short: "从步骤池组合新里程碑（交互式）",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			ed := editor.NewMilestoneEditor(app.API, editor.WithLogger(app.Logger))
			defer ed.Close()
			if err := ed.LoadForCreate(cmd.Context()); err != nil {
				return err
			}
			s := milestoneSession(ed)
			if err := applyComposeFlags(cmd, s); err != nil {
				return err
			}
			return runCompose(cmd, s)
		},
	}
	addComposeFlags(c, "step")
	return withRoute(c, "/editor/milestones")
}

func newMilestoneEditCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "edit <id>",
		Short: "编辑已有里程碑（交互式）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := appFrom(cmd)
			ed := editor.NewMilestoneEditor(app.API, editor.WithLogger(app.Logger))
			defer ed.Close()
			if err := ed.LoadForEdit(cmd.Context(), args[0]); err != nil {
				return err
			}
			s := milestoneSession(ed)
			if err := applyComposeFlags(cmd, s); err != nil {
				return err
			}
			return runCompose(cmd, s)
		},
	}
	addComposeFlags(c, "step")
	return withRoute(c, "/editor/milestones")
}
