// Package editor 组合路线图 / 里程碑 / 步骤的编辑器。
//
// 每个编辑器实例的状态机：Loading → Ready → Saving → Done；
// 保存失败回到 Ready 并保留草稿；加载失败进入 Failed，不重试。
package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
	"github.com/houzhh15/skillcraft/pkg/logger"
	"github.com/houzhh15/skillcraft/pkg/metrics"
)

var (
	// ErrNotReady 当前状态不允许该操作
	ErrNotReady = errors.New("EDITOR_NOT_READY")
	// ErrClosed 编辑器已关闭，进行中的远端结果被丢弃
	ErrClosed = errors.New("EDITOR_CLOSED")
	// ErrUnknownItem id 不在任何池中
	ErrUnknownItem = errors.New("UNKNOWN_ITEM")
)

// State 编辑器状态
type State int

const (
	Loading State = iota
	Ready
	Saving
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Ready:
		return "ready"
	case Saving:
		return "saving"
	case Done:
		return "done"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// FieldErrors 本地校验失败，字段名 → 提示。不会触发网络调用
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (fe FieldErrors) orNil() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

func requireText(fe FieldErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		fe[field] = "is required"
	}
}

// StepSource 步骤相关的远端操作
type StepSource interface {
	ListSteps(ctx context.Context, f models.ListFilter) ([]models.Step, error)
	GetStep(ctx context.Context, id string) (*models.Step, error)
	CreateStep(ctx context.Context, p models.StepPayload) (*models.Step, error)
	UpdateStep(ctx context.Context, id string, p models.StepPayload) (*models.Step, error)
}

// MilestoneSource 里程碑编辑器需要的远端操作
type MilestoneSource interface {
	StepSource
	ListMilestones(ctx context.Context, f models.ListFilter) ([]models.Milestone, error)
	GetMilestone(ctx context.Context, id string) (*models.Milestone, error)
	CreateMilestone(ctx context.Context, p models.MilestonePayload) (*models.Milestone, error)
	UpdateMilestone(ctx context.Context, id string, p models.MilestonePayload) (*models.Milestone, error)
}

// RoadmapSource 路线图编辑器需要的远端操作
type RoadmapSource interface {
	MilestoneSource
	GetRoadmap(ctx context.Context, id string) (*models.Roadmap, error)
	CreateRoadmap(ctx context.Context, p models.RoadmapPayload) (*models.Roadmap, error)
	UpdateRoadmap(ctx context.Context, id string, p models.RoadmapPayload) (*models.Roadmap, error)
}

// Option 配置编辑器
type Option func(*core)

// WithLogger 注入 logger
func WithLogger(l *slog.Logger) Option {
	return func(c *core) { c.logger = l }
}

// core 各编辑器共享的状态机与关闭语义。
// 远端调用期间不持锁；调用返回后重新加锁并检查 closed，已关闭则丢弃结果
type core struct {
	mu      sync.Mutex
	entity  string
	state   State
	closed  bool
	loadErr error
	lastErr error
	logger  *slog.Logger
}

func (c *core) init(entity string, opts []Option) {
	c.entity, c.state, c.logger = entity, Loading, logger.Discard()
	for _, opt := range opts {
		opt(c)
	}
}

// State 当前状态
func (c *core) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LoadError 进入 Failed 时的页面级错误
func (c *core) LoadError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loadErr
}

// LastError 最近一次保存或同步失败
func (c *core) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Close 关闭编辑器，之后到达的远端结果不再生效
func (c *core) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// mutate 在 Ready 状态下执行本地修改
func (c *core) mutate(fn func()) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkReadyLocked(); err != nil {
		return err
	}
	fn()
	return nil
}

func (c *core) checkReadyLocked() error {
	if c.closed {
		return ErrClosed
	}
	if c.state != Ready {
		return ErrNotReady
	}
	return nil
}

// beginLoad 只允许在 Loading 状态调用一次
func (c *core) beginLoad() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if c.state != Loading {
		return ErrNotReady
	}
	return nil
}

// finishLoadLocked 调用方持锁
func (c *core) finishLoadLocked(err error) error {
	if err != nil {
		c.state = Failed
		c.loadErr = err
		c.logger.Warn("editor_load_failed", "entity", c.entity, "error", err)
		return err
	}
	c.state = Ready
	return nil
}

// lockAfterRemote 远端调用返回后加锁；已关闭时返回 ErrClosed 且不持锁
func (c *core) lockAfterRemote() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	return nil
}

// beginSaveLocked 校验通过后进入 Saving，调用方持锁
func (c *core) beginSaveLocked() {
	c.state = Saving
	c.lastErr = nil
}

// finishSaveLocked 成功进入 Done，失败回到 Ready 并记录错误
func (c *core) finishSaveLocked(err error) {
	if err != nil {
		c.state = Ready
		c.lastErr = err
		metrics.RecordEditorSave(c.entity, "failed")
		c.logger.Warn("editor_save_failed", "entity", c.entity, "error", err)
		return
	}
	c.state = Done
	metrics.RecordEditorSave(c.entity, "ok")
}

// abortSave 保存期间编辑器被关闭
func (c *core) abortSave() {
	metrics.RecordEditorSave(c.entity, "discarded")
}
