// Package progress 对单个路线图的本地勾选状态与远端已完成集合做对账。
//
// 模型：本地工作集 selected + 远端基线 baseline，Commit 时按差集提交。
package progress

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
	"github.com/houzhh15/skillcraft/pkg/logger"
	"github.com/houzhh15/skillcraft/pkg/metrics"
)

var (
	ErrNotInitialized = errors.New("TRACKER_NOT_INITIALIZED")
	ErrUnknownStep    = errors.New("UNKNOWN_STEP")
	ErrClosed         = errors.New("TRACKER_CLOSED")
)

// Source 进度跟踪需要的远端操作
type Source interface {
	GetRoadmap(ctx context.Context, id string) (*models.Roadmap, error)
	CheckRoadmapInProfile(ctx context.Context, roadmapID string) (bool, error)
	GetFinishedSteps(ctx context.Context, roadmapID string) ([]string, error)
	FinishSteps(ctx context.Context, stepIDs []string) error
	UnfinishSteps(ctx context.Context, stepIDs []string) error
	AddRoadmapToProfile(ctx context.Context, roadmapID string) error
	RemoveRoadmapFromProfile(ctx context.Context, roadmapID string) error
}

// Tracker 单个路线图的进度
type Tracker struct {
	mu     sync.Mutex
	src    Source
	logger *slog.Logger

	userID    string
	roadmap   *models.Roadmap
	order     []string
	minutes   map[string]int
	inProfile bool
	baseline  map[string]bool
	selected  map[string]bool
	ready     bool
	closed    bool
}

// Option 配置 Tracker
type Option func(*Tracker)

// WithLogger 注入 logger
func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.logger = l }
}

// New 创建未初始化的 Tracker
func New(src Source, opts ...Option) *Tracker {
	t := &Tracker{src: src, logger: logger.Discard()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Initialize 并发拉取路线图、档案归属与已完成集合；本地工作集初始等于基线
func (t *Tracker) Initialize(ctx context.Context, userID, roadmapID string) error {
	var (
		roadmap   *models.Roadmap
		inProfile bool
		finished  []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		roadmap, err = t.src.GetRoadmap(gctx, roadmapID)
		return err
	})
	g.Go(func() error {
		var err error
		inProfile, err = t.src.CheckRoadmapInProfile(gctx, roadmapID)
		return err
	})
	g.Go(func() error {
		var err error
		finished, err = t.src.GetFinishedSteps(gctx, roadmapID)
		return err
	})
	err := g.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if err != nil {
		t.logger.Warn("progress_init_failed", "roadmap_id", roadmapID, "error", err)
		return err
	}

	t.userID = userID
	t.roadmap = roadmap
	t.order = roadmap.StepIDs()
	t.minutes = map[string]int{}
	for _, m := range roadmap.Milestones {
		for _, s := range m.Steps {
			t.minutes[s.ID] = s.DurationInMinutes
		}
	}
	t.inProfile = inProfile
	t.baseline = map[string]bool{}
	for _, id := range finished {
		if _, ok := t.minutes[id]; ok {
			t.baseline[id] = true
		}
	}
	t.selected = clone(t.baseline)
	t.ready = true
	return nil
}

// Toggle 翻转本地勾选，不触发远端调用；返回翻转后的状态
func (t *Tracker) Toggle(stepID string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.usableLocked(); err != nil {
		return false, err
	}
	if _, ok := t.minutes[stepID]; !ok {
		return false, ErrUnknownStep
	}
	if t.selected[stepID] {
		delete(t.selected, stepID)
		return false, nil
	}
	t.selected[stepID] = true
	return true, nil
}

// Diff 待提交的差集，按路线图顺序
func (t *Tracker) Diff() (toFinish, toUnfinish []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.diffLocked()
}

func (t *Tracker) diffLocked() (toFinish, toUnfinish []string) {
	for _, id := range t.order {
		switch {
		case t.selected[id] && !t.baseline[id]:
			toFinish = append(toFinish, id)
		case !t.selected[id] && t.baseline[id]:
			toUnfinish = append(toUnfinish, id)
		}
	}
	return toFinish, toUnfinish
}

// Commit 并发提交两个差集（为空则跳过）。只有全部成功才把基线更新为本地工作集；
// 部分失败时基线保持不变，下次提交会重新计算完整差集
func (t *Tracker) Commit(ctx context.Context) error {
	t.mu.Lock()
	if err := t.usableLocked(); err != nil {
		t.mu.Unlock()
		return err
	}
	toFinish, toUnfinish := t.diffLocked()
	snapshot := clone(t.selected)
	t.mu.Unlock()

	if len(toFinish) == 0 && len(toUnfinish) == 0 {
		metrics.RecordProgressCommit("noop")
		return nil
	}

	var finishErr, unfinishErr error
	var g errgroup.Group
	if len(toFinish) > 0 {
		g.Go(func() error {
			finishErr = t.src.FinishSteps(ctx, toFinish)
			return finishErr
		})
	}
	if len(toUnfinish) > 0 {
		g.Go(func() error {
			unfinishErr = t.src.UnfinishSteps(ctx, toUnfinish)
			return unfinishErr
		})
	}
	err := g.Wait()

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		metrics.RecordProgressCommit("discarded")
		return ErrClosed
	}
	if err != nil {
		outcome := "failed"
		if (finishErr == nil && len(toFinish) > 0) || (unfinishErr == nil && len(toUnfinish) > 0) {
			outcome = "partial"
		}
		metrics.RecordProgressCommit(outcome)
		t.logger.Warn("progress_commit_failed",
			"roadmap_id", t.roadmap.ID,
			"outcome", outcome,
			"finish", len(toFinish),
			"unfinish", len(toUnfinish),
			"error", err,
		)
		return err
	}
	t.baseline = snapshot
	metrics.RecordProgressCommit("ok")
	t.logger.Info("progress_committed", "roadmap_id", t.roadmap.ID, "finish", len(toFinish), "unfinish", len(toUnfinish))
	return nil
}

// ToggleProfileMembership 加入或移出档案；本地标记只在远端成功后翻转
func (t *Tracker) ToggleProfileMembership(ctx context.Context) (bool, error) {
	t.mu.Lock()
	if err := t.usableLocked(); err != nil {
		t.mu.Unlock()
		return false, err
	}
	id, in := t.roadmap.ID, t.inProfile
	t.mu.Unlock()

	var err error
	if in {
		err = t.src.RemoveRoadmapFromProfile(ctx, id)
	} else {
		err = t.src.AddRoadmapToProfile(ctx, id)
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return in, ErrClosed
	}
	if err != nil {
		return t.inProfile, err
	}
	t.inProfile = !in
	return t.inProfile, nil
}

// TotalDuration 路线图全部步骤时长之和（分钟）
func (t *Tracker) TotalDuration() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, id := range t.order {
		total += t.minutes[id]
	}
	return total
}

// CompletedDuration 本地已勾选步骤时长之和（分钟）
func (t *Tracker) CompletedDuration() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	done := 0
	for id := range t.selected {
		done += t.minutes[id]
	}
	return done
}

// Percentage 完成百分比，总时长为 0 时返回 0
func (t *Tracker) Percentage() float64 {
	return Percentage(t.CompletedDuration(), t.TotalDuration())
}

// Percentage completed/total*100，total<=0 时为 0
func Percentage(completed, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(completed) / float64(total) * 100
}

// Dirty 本地工作集与基线不一致
func (t *Tracker) Dirty() bool {
	toFinish, toUnfinish := t.Diff()
	return len(toFinish) > 0 || len(toUnfinish) > 0
}

// Selected 本地已勾选的 step，按路线图顺序
func (t *Tracker) Selected() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inOrderLocked(t.selected)
}

// Finished 最近一次确认的远端基线，按路线图顺序
func (t *Tracker) Finished() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inOrderLocked(t.baseline)
}

func (t *Tracker) IsSelected(stepID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.selected[stepID]
}

func (t *Tracker) InProfile() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.inProfile
}

// Roadmap 初始化时拉取的路线图
func (t *Tracker) Roadmap() *models.Roadmap {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.roadmap
}

// Close 之后到达的远端结果不再生效
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
}

func (t *Tracker) usableLocked() error {
	if t.closed {
		return ErrClosed
	}
	if !t.ready {
		return ErrNotInitialized
	}
	return nil
}

func (t *Tracker) inOrderLocked(set map[string]bool) []string {
	out := []string{}
	for _, id := range t.order {
		if set[id] {
			out = append(out, id)
		}
	}
	return out
}

func clone(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		if v {
			out[k] = true
		}
	}
	return out
}
