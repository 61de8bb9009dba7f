package editor

import (
	"context"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/format"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

// MilestoneDraft 里程碑编辑器的当前草稿
type MilestoneDraft struct {
	ID          string
	Name        string
	Description string
	Available   []models.Ref
	Selected    []models.Ref
}

// MilestoneEditor 从步骤池组合里程碑
type MilestoneEditor struct {
	core
	src         MilestoneSource
	id          string
	name        string
	description string
	pools       *Pools
	minutes     map[string]int
	onSaved     func(ctx context.Context, saved models.Milestone)
}

// NewMilestoneEditor 创建处于 Loading 状态的里程碑编辑器
func NewMilestoneEditor(src MilestoneSource, opts ...Option) *MilestoneEditor {
	e := &MilestoneEditor{src: src, pools: NewPools(nil, nil), minutes: map[string]int{}}
	e.init("milestone", opts)
	return e
}

// LoadForCreate 全部步骤进入 Available，Selected 为空
func (e *MilestoneEditor) LoadForCreate(ctx context.Context) error {
	if err := e.beginLoad(); err != nil {
		return err
	}
	steps, err := e.src.ListSteps(ctx, models.ListFilter{})
	if err := e.lockAfterRemote(); err != nil {
		return err
	}
	defer e.mu.Unlock()
	if err != nil {
		return e.finishLoadLocked(err)
	}
	e.trackLocked(steps)
	e.pools = NewPools(models.StepRefs(steps), nil)
	return e.finishLoadLocked(nil)
}

// LoadForEdit Selected 为里程碑现有步骤（保持持久化顺序），Available 为其余候选
func (e *MilestoneEditor) LoadForEdit(ctx context.Context, id string) error {
	if err := e.beginLoad(); err != nil {
		return err
	}
	m, err := e.src.GetMilestone(ctx, id)
	var steps []models.Step
	if err == nil {
		steps, err = e.src.ListSteps(ctx, models.ListFilter{})
	}
	if err := e.lockAfterRemote(); err != nil {
		return err
	}
	defer e.mu.Unlock()
	if err != nil {
		return e.finishLoadLocked(err)
	}
	e.id, e.name, e.description = m.ID, m.Name, m.Description
	e.trackLocked(steps)
	e.trackLocked(m.Steps)
	e.pools = NewPools(models.StepRefs(steps), models.StepRefs(m.Steps))
	return e.finishLoadLocked(nil)
}

func (e *MilestoneEditor) trackLocked(steps []models.Step) {
	for _, s := range steps {
		e.minutes[s.ID] = s.DurationInMinutes
	}
}

func (e *MilestoneEditor) SetName(v string) error { return e.mutate(func() { e.name = v }) }

func (e *MilestoneEditor) SetDescription(v string) error {
	return e.mutate(func() { e.description = v })
}

// MoveToSelected 返回 false 表示 id 不在 Available
func (e *MilestoneEditor) MoveToSelected(id string) (bool, error) {
	var moved bool
	err := e.mutate(func() { moved = e.pools.MoveToSelected(id) })
	return moved, err
}

// MoveToAvailable 返回 false 表示 id 不在 Selected
func (e *MilestoneEditor) MoveToAvailable(id string) (bool, error) {
	var moved bool
	err := e.mutate(func() { moved = e.pools.MoveToAvailable(id) })
	return moved, err
}

// Reorder 交换已选步骤的相邻位置
func (e *MilestoneEditor) Reorder(index int, dir Direction) (bool, error) {
	var moved bool
	err := e.mutate(func() { moved = e.pools.Reorder(index, dir) })
	return moved, err
}

// Draft 返回草稿副本
func (e *MilestoneEditor) Draft() MilestoneDraft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return MilestoneDraft{
		ID:          e.id,
		Name:        e.name,
		Description: e.description,
		Available:   e.pools.Available(),
		Selected:    e.pools.Selected(),
	}
}

// TotalMinutes 已选步骤的时长之和
func (e *MilestoneEditor) TotalMinutes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := 0
	for _, id := range e.pools.SelectedIDs() {
		total += e.minutes[id]
	}
	return total
}

// CreateStepInline 远端创建步骤并追加到 Available，不自动选中
func (e *MilestoneEditor) CreateStepInline(ctx context.Context, p models.StepPayload) (*models.Step, error) {
	e.mu.Lock()
	if err := e.checkReadyLocked(); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.mu.Unlock()

	draft := StepDraft{Name: p.Name, Description: p.Description, Duration: format.Parts{Minutes: p.DurationInMinutes}}
	if fe := validateStepDraft(draft); len(fe) > 0 {
		return nil, fe
	}

	st, err := e.src.CreateStep(ctx, p)
	if lockErr := e.lockAfterRemote(); lockErr != nil {
		return nil, lockErr
	}
	defer e.mu.Unlock()
	if err != nil {
		e.lastErr = err
		return nil, err
	}
	e.minutes[st.ID] = st.DurationInMinutes
	e.pools.AppendAvailable(st.Ref())
	return st, nil
}

// NewStep 返回嵌套的步骤创建表单；保存成功后新步骤进入 Available
func (e *MilestoneEditor) NewStep(ctx context.Context) (*StepEditor, error) {
	e.mu.Lock()
	if err := e.checkReadyLocked(); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	logger := e.logger
	e.mu.Unlock()

	child := NewStepEditor(e.src, WithLogger(logger))
	child.onSaved = func(ctx context.Context, st models.Step) {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed {
			return
		}
		e.minutes[st.ID] = st.DurationInMinutes
		e.pools.AppendAvailable(st.Ref())
	}
	if err := child.LoadForCreate(ctx); err != nil {
		return nil, err
	}
	return child, nil
}

// EditStep 返回针对单个步骤的嵌套编辑器；其保存成功后本编辑器从远端重新同步两个池
func (e *MilestoneEditor) EditStep(ctx context.Context, id string) (*StepEditor, error) {
	e.mu.Lock()
	if err := e.checkReadyLocked(); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	if !e.pools.Contains(id) {
		e.mu.Unlock()
		return nil, ErrUnknownItem
	}
	logger := e.logger
	e.mu.Unlock()

	child := NewStepEditor(e.src, WithLogger(logger))
	child.onSaved = func(ctx context.Context, _ models.Step) {
		if err := e.Resync(ctx); err != nil {
			e.logger.Warn("editor_resync_failed", "entity", "milestone", "error", err)
		}
	}
	if err := child.LoadForEdit(ctx, id); err != nil {
		return nil, err
	}
	return child, nil
}

// Resync 从远端重新拉取候选步骤，保留本地归属与顺序，刷新展示名
func (e *MilestoneEditor) Resync(ctx context.Context) error {
	steps, err := e.src.ListSteps(ctx, models.ListFilter{})
	if lockErr := e.lockAfterRemote(); lockErr != nil {
		return lockErr
	}
	defer e.mu.Unlock()
	if err != nil {
		e.lastErr = err
		return err
	}
	e.trackLocked(steps)
	e.pools.Refresh(models.StepRefs(steps))
	return nil
}

// Validate 本地校验
func (e *MilestoneEditor) Validate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.validateLocked().orNil()
}

func (e *MilestoneEditor) validateLocked() FieldErrors {
	fe := FieldErrors{}
	requireText(fe, "name", e.name)
	requireText(fe, "description", e.description)
	return fe
}

// Save 校验后按 {name, description, stepsIds} 创建或更新
func (e *MilestoneEditor) Save(ctx context.Context) (*models.Milestone, error) {
	e.mu.Lock()
	if err := e.checkReadyLocked(); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	if fe := e.validateLocked(); len(fe) > 0 {
		e.mu.Unlock()
		return nil, fe
	}
	id := e.id
	payload := models.MilestonePayload{Name: e.name, Description: e.description, StepsIDs: e.pools.SelectedIDs()}
	e.beginSaveLocked()
	e.mu.Unlock()

	var (
		m   *models.Milestone
		err error
	)
	if id == "" {
		m, err = e.src.CreateMilestone(ctx, payload)
	} else {
		m, err = e.src.UpdateMilestone(ctx, id, payload)
	}

	if lockErr := e.lockAfterRemote(); lockErr != nil {
		e.abortSave()
		return nil, lockErr
	}
	e.finishSaveLocked(err)
	if err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.id, e.name, e.description = "", "", ""
	e.pools = NewPools(nil, nil)
	hook := e.onSaved
	e.mu.Unlock()

	e.logger.Info("editor_saved", "entity", "milestone", "id", m.ID)
	if hook != nil {
		hook(ctx, *m)
	}
	return m, nil
}
