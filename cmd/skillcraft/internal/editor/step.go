package editor

import (
	"context"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/format"
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

// StepDraft 步骤编辑器的当前草稿
type StepDraft struct {
	ID          string
	Name        string
	Description string
	Duration    format.Parts
}

// Minutes 草稿时长折算为分钟
func (d StepDraft) Minutes() int { return format.Flatten(d.Duration) }

// StepEditor 单个步骤的创建 / 编辑表单，时长以 {天, 时, 分} 录入
type StepEditor struct {
	core
	src     StepSource
	draft   StepDraft
	onSaved func(ctx context.Context, saved models.Step)
}

// NewStepEditor 创建处于 Loading 状态的步骤编辑器
func NewStepEditor(src StepSource, opts ...Option) *StepEditor {
	e := &StepEditor{src: src}
	e.init("step", opts)
	return e
}

// LoadForCreate 空白草稿
func (e *StepEditor) LoadForCreate(ctx context.Context) error {
	if err := e.beginLoad(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.finishLoadLocked(nil)
}

// LoadForEdit 拉取步骤并把存储的分钟数拆回 {天, 时, 分}
func (e *StepEditor) LoadForEdit(ctx context.Context, id string) error {
	if err := e.beginLoad(); err != nil {
		return err
	}
	st, err := e.src.GetStep(ctx, id)
	if err := e.lockAfterRemote(); err != nil {
		return err
	}
	defer e.mu.Unlock()
	if err != nil {
		return e.finishLoadLocked(err)
	}
	e.draft = StepDraft{ID: st.ID, Name: st.Name, Description: st.Description, Duration: format.Split(st.DurationInMinutes)}
	return e.finishLoadLocked(nil)
}

func (e *StepEditor) SetName(v string) error { return e.mutate(func() { e.draft.Name = v }) }

func (e *StepEditor) SetDescription(v string) error {
	return e.mutate(func() { e.draft.Description = v })
}

func (e *StepEditor) SetDuration(p format.Parts) error {
	return e.mutate(func() { e.draft.Duration = p })
}

// Draft 返回草稿副本
func (e *StepEditor) Draft() StepDraft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// Validate 本地校验
func (e *StepEditor) Validate() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return validateStepDraft(e.draft).orNil()
}

func validateStepDraft(d StepDraft) FieldErrors {
	fe := FieldErrors{}
	requireText(fe, "name", d.Name)
	requireText(fe, "description", d.Description)
	switch {
	case d.Duration.Days < 0 || d.Duration.Hours < 0 || d.Duration.Minutes < 0:
		fe["duration"] = "days, hours and minutes must not be negative"
	case d.Minutes() <= 0:
		fe["duration"] = "must be greater than zero"
	}
	return fe
}

// Save 校验后创建或更新步骤；校验失败时不发请求
func (e *StepEditor) Save(ctx context.Context) (*models.Step, error) {
	e.mu.Lock()
	if err := e.checkReadyLocked(); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	if fe := validateStepDraft(e.draft); len(fe) > 0 {
		e.mu.Unlock()
		return nil, fe
	}
	d := e.draft
	e.beginSaveLocked()
	e.mu.Unlock()

	payload := models.StepPayload{Name: d.Name, Description: d.Description, DurationInMinutes: d.Minutes()}
	var (
		st  *models.Step
		err error
	)
	if d.ID == "" {
		st, err = e.src.CreateStep(ctx, payload)
	} else {
		st, err = e.src.UpdateStep(ctx, d.ID, payload)
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
	e.draft = StepDraft{}
	hook := e.onSaved
	e.mu.Unlock()

	e.logger.Info("editor_saved", "entity", "step", "id", st.ID)
	if hook != nil {
		hook(ctx, *st)
	}
	return st, nil
}
