package editor

import (
	"context"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

// RoadmapDraft 路线图编辑器的当前草稿
type RoadmapDraft struct {
	ID          string
	Name        string
	Description string
	Tags        []string
	Salary      float64
	Available   []models.Ref
	Selected    []models.Ref
}

// RoadmapEditor 从里程碑池组合路线图
type RoadmapEditor struct {
	core
	src         RoadmapSource
	id          string
	name        string
	description string
	salary      float64
	tags        *Tags
	pools       *Pools
	minutes     map[string]int
}

// NewRoadmapEditor 创建处于 Loading 状态的路线图编辑器
func NewRoadmapEditor(src RoadmapSource, opts ...Option) *RoadmapEditor {
	e := &RoadmapEditor{src: src, tags: NewTags(nil), pools: NewPools(nil, nil), minutes: map[string]int{}}
	e.init("roadmap", opts)
	return e
}

// LoadForCreate 全部里程碑进入 Available，Selected 为空
func (e *RoadmapEditor) LoadForCreate(ctx context.Context) error {
	if err := e.beginLoad(); err != nil {
		return err
	}
	ms, err := e.src.ListMilestones(ctx, models.ListFilter{})
	if err := e.lockAfterRemote(); err != nil {
		return err
	}
	defer e.mu.Unlock()
	if err != nil {
		return e.finishLoadLocked(err)
	}
	e.trackLocked(ms)
	e.pools = NewPools(models.MilestoneRefs(ms), nil)
	return e.finishLoadLocked(nil)
}

// LoadForEdit Selected 为路线图现有里程碑（保持持久化顺序），Available 为其余候选
func (e *RoadmapEditor) LoadForEdit(ctx context.Context, id string) error {
	if err := e.beginLoad(); err != nil {
		return err
	}
	r, err := e.src.GetRoadmap(ctx, id)
	var ms []models.Milestone
	if err == nil {
		ms, err = e.src.ListMilestones(ctx, models.ListFilter{})
	}
	if err := e.lockAfterRemote(); err != nil {
		return err
	}
	defer e.mu.Unlock()
	if err != nil {
		return e.finishLoadLocked(err)
	}
	e.id, e.name, e.description, e.salary = r.ID, r.Name, r.Description, r.Salary
	e.tags = NewTags(r.Tags)
	e.trackLocked(ms)
	e.trackLocked(r.Milestones)
	e.pools = NewPools(models.MilestoneRefs(ms), models.MilestoneRefs(r.Milestones))
	return e.finishLoadLocked(nil)
}

func (e *RoadmapEditor) trackLocked(ms []models.Milestone) {
	for _, m := range ms {
		e.minutes[m.ID] = m.DurationInMinutes
	}
}

func (e *RoadmapEditor) SetName(v string) error { return e.mutate(func() { e.name = v }) }

func (e *RoadmapEditor) SetDescription(v string) error {
	return e.mutate(func() { e.description = v })
}

func (e *RoadmapEditor) SetSalary(v float64) error { return e.mutate(func() { e.salary = v }) }

// AddTag 重复标签为 no-op，返回 false
func (e *RoadmapEditor) AddTag(tag string) (bool, error) {
	var added bool
	err := e.mutate(func() { added = e.tags.Add(tag) })
	return added, err
}

// RemoveTag 不存在的标签为 no-op，返回 false
func (e *RoadmapEditor) RemoveTag(tag string) (bool, error) {
	var removed bool
	err := e.mutate(func() { removed = e.tags.Remove(tag) })
	return removed, err
}

func (e *RoadmapEditor) MoveToSelected(id string) (bool, error) {
	var moved bool
	err := e.mutate(func() { moved = e.pools.MoveToSelected(id) })
	return moved, err
}

func (e *RoadmapEditor) MoveToAvailable(id string) (bool, error) {
	var moved bool
	err := e.mutate(func() { moved = e.pools.MoveToAvailable(id) })
	return moved, err
}

func (e *RoadmapEditor) Reorder(index int, dir Direction) (bool, error) {
	var moved bool
	err := e.mutate(func() { moved = e.pools.Reorder(index, dir) })
	return moved, err
}

// Draft 返回草稿副本
func (e *RoadmapEditor) Draft() RoadmapDraft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return RoadmapDraft{
		ID:          e.id,
		Name:        e.name,
		Description: e.description,
		Tags:        e.tags.List(),
		Salary:      e.salary,
		Available:   e.pools.Available(),
		Selected:    e.pools.Selected(),
	}
}

// TotalMinutes 已选里程碑的时长之和
func (e *RoadmapEditor) TotalMinutes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := 0
	for _, id := range e.pools.SelectedIDs() {
		total += e.minutes[id]
	}
	return total
}

// CreateMilestoneInline 远端创建里程碑并追加到 Available，不自动选中
func (e *RoadmapEditor) CreateMilestoneInline(ctx context.Context, p models.MilestonePayload) (*models.Milestone, error) {
	e.mu.Lock()
	if err := e.checkReadyLocked(); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	e.mu.Unlock()

	fe := FieldErrors{}
	requireText(fe, "name", p.Name)
	requireText(fe, "description", p.Description)
	if len(fe) > 0 {
		return nil, fe
	}

	m, err := e.src.CreateMilestone(ctx, p)
	if lockErr := e.lockAfterRemote(); lockErr != nil {
		return nil, lockErr
	}
	defer e.mu.Unlock()
	if err != nil {
		e.lastErr = err
		return nil, err
	}
	e.minutes[m.ID] = m.DurationInMinutes
	e.pools.AppendAvailable(m.Ref())
	return m, nil
}

// NewMilestone 返回嵌套的里程碑创建编辑器；保存成功后新里程碑进入 Available，
// 本编辑器的草稿保持不变
func (e *RoadmapEditor) NewMilestone(ctx context.Context) (*MilestoneEditor, error) {
	e.mu.Lock()
	if err := e.checkReadyLocked(); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	logger := e.logger
	e.mu.Unlock()

	child := NewMilestoneEditor(e.src, WithLogger(logger))
	child.onSaved = func(ctx context.Context, m models.Milestone) {
		e.mu.Lock()
		defer e.mu.Unlock()
		if e.closed {
			return
		}
		e.minutes[m.ID] = m.DurationInMinutes
		e.pools.AppendAvailable(m.Ref())
	}
	if err := child.LoadForCreate(ctx); err != nil {
		return nil, err
	}
	return child, nil
}

// EditMilestone 返回针对单个里程碑的嵌套编辑器；其保存成功后本编辑器从远端重新同步
func (e *RoadmapEditor) EditMilestone(ctx context.Context, id string) (*MilestoneEditor, error) {
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

	child := NewMilestoneEditor(e.src, WithLogger(logger))
	child.onSaved = func(ctx context.Context, _ models.Milestone) {
		if err := e.Resync(ctx); err != nil {
			e.logger.Warn("editor_resync_failed", "entity", "roadmap", "error", err)
		}
	}
	if err := child.LoadForEdit(ctx, id); err != nil {
		return nil, err
	}
	return child, nil
}

// Resync 从远端重新拉取候选里程碑，保留本地归属与顺序，刷新展示名与时长
func (e *RoadmapEditor) Resync(ctx context.Context) error {
	ms, err := e.src.ListMilestones(ctx, models.ListFilter{})
	if lockErr := e.lockAfterRemote(); lockErr != nil {
		return lockErr
	}
	defer e.mu.Unlock()
	if err != nil {
		e.lastErr = err
		return err
	}
	e.trackLocked(ms)
	e.pools.Refresh(models.MilestoneRefs(ms))
	return nil
}

// Validate 本地校验
func (e *RoadmapEditor) Validate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.validateLocked().orNil()
}

func (e *RoadmapEditor) validateLocked() FieldErrors {
	fe := FieldErrors{}
	requireText(fe, "name", e.name)
	requireText(fe, "description", e.description)
	if e.salary <= 0 {
		fe["salary"] = "must be greater than zero"
	}
	return fe
}

// Save 校验后按 {name, description, tags, salary, milestonesIds} 创建或更新
func (e *RoadmapEditor) Save(ctx context.Context) (*models.Roadmap, error) {
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
	payload := models.RoadmapPayload{
		Name:          e.name,
		Description:   e.description,
		Tags:          e.tags.List(),
		Salary:        e.salary,
		MilestonesIDs: e.pools.SelectedIDs(),
	}
	e.beginSaveLocked()
	e.mu.Unlock()

	var (
		r   *models.Roadmap
		err error
	)
	if id == "" {
		r, err = e.src.CreateRoadmap(ctx, payload)
	} else {
		r, err = e.src.UpdateRoadmap(ctx, id, payload)
	}

	if lockErr := e.lockAfterRemote(); lockErr != nil {
		e.abortSave()
		return nil, lockErr
	}
	defer e.mu.Unlock()
	e.finishSaveLocked(err)
	if err != nil {
		return nil, err
	}
	e.id, e.name, e.description, e.salary = "", "", "", 0
	e.tags = NewTags(nil)
	e.pools = NewPools(nil, nil)
	e.logger.Info("editor_saved", "entity", "roadmap", "id", r.ID)
	return r, nil
}
