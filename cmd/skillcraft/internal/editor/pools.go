package editor

import "github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"

// Direction 已选池内的移动方向
type Direction int

const (
	Up Direction = iota
	Down
)

// Pools 候选集合的两分区：Available 与 Selected 互不重叠，并集为全部候选。
// 只有 Selected 有意义的顺序。
type Pools struct {
	available []models.Ref
	selected  []models.Ref
}

// NewPools candidates 为全部候选，selected 为已选（保持给定顺序），
// Available = candidates - selected（按 id 求差）
func NewPools(candidates, selected []models.Ref) *Pools {
	p := &Pools{selected: dedupe(selected)}
	chosen := idSet(p.selected)
	for _, r := range dedupe(candidates) {
		if _, ok := chosen[r.ID]; !ok {
			p.available = append(p.available, r)
		}
	}
	return p
}

// MoveToSelected 从 Available 移到 Selected 末尾；不在 Available 时为 no-op
func (p *Pools) MoveToSelected(id string) bool {
	var r models.Ref
	var ok bool
	if p.available, r, ok = take(p.available, id); !ok {
		return false
	}
	p.selected = append(p.selected, r)
	return true
}

// MoveToAvailable 从 Selected 移到 Available 末尾；不在 Selected 时为 no-op
func (p *Pools) MoveToAvailable(id string) bool {
	var r models.Ref
	var ok bool
	if p.selected, r, ok = take(p.selected, id); !ok {
		return false
	}
	p.available = append(p.available, r)
	return true
}

// Reorder 与相邻位置交换；越界或边界移动为 no-op
func (p *Pools) Reorder(index int, dir Direction) bool {
	if index < 0 || index >= len(p.selected) {
		return false
	}
	other := index - 1
	if dir == Down {
		other = index + 1
	}
	if other < 0 || other >= len(p.selected) {
		return false
	}
	p.selected[index], p.selected[other] = p.selected[other], p.selected[index]
	return true
}

// AppendAvailable 新建的候选只进入 Available，不自动选中
func (p *Pools) AppendAvailable(r models.Ref) {
	if p.Contains(r.ID) {
		return
	}
	p.available = append(p.available, r)
}

// Refresh 用远端最新候选列表重新同步：保留本地归属与顺序，刷新展示名，
// 远端已不存在的条目被移除，新出现的候选追加到 Available
func (p *Pools) Refresh(fresh []models.Ref) {
	byID := make(map[string]models.Ref, len(fresh))
	for _, r := range fresh {
		byID[r.ID] = r
	}
	keep := func(refs []models.Ref) []models.Ref {
		out := refs[:0]
		for _, r := range refs {
			if f, ok := byID[r.ID]; ok {
				out = append(out, f)
				delete(byID, r.ID)
			}
		}
		return out
	}
	p.selected = keep(p.selected)
	p.available = keep(p.available)
	for _, r := range fresh {
		if _, ok := byID[r.ID]; ok {
			p.available = append(p.available, r)
			delete(byID, r.ID)
		}
	}
}

// Contains 报告 id 是否在任一池中
func (p *Pools) Contains(id string) bool {
	return indexOf(p.available, id) >= 0 || indexOf(p.selected, id) >= 0
}

// IsSelected 报告 id 是否已选
func (p *Pools) IsSelected(id string) bool {
	return indexOf(p.selected, id) >= 0
}

func (p *Pools) Available() []models.Ref { return append([]models.Ref(nil), p.available...) }

func (p *Pools) Selected() []models.Ref { return append([]models.Ref(nil), p.selected...) }

// SelectedIDs 按已选顺序返回 id，用于保存请求体
func (p *Pools) SelectedIDs() []string {
	out := make([]string, 0, len(p.selected))
	for _, r := range p.selected {
		out = append(out, r.ID)
	}
	return out
}

func take(refs []models.Ref, id string) ([]models.Ref, models.Ref, bool) {
	i := indexOf(refs, id)
	if i < 0 {
		return refs, models.Ref{}, false
	}
	r := refs[i]
	return append(refs[:i:i], refs[i+1:]...), r, true
}

func indexOf(refs []models.Ref, id string) int {
	for i, r := range refs {
		if r.ID == id {
			return i
		}
	}
	return -1
}

func idSet(refs []models.Ref) map[string]struct{} {
	out := make(map[string]struct{}, len(refs))
	for _, r := range refs {
		out[r.ID] = struct{}{}
	}
	return out
}

func dedupe(refs []models.Ref) []models.Ref {
	seen := make(map[string]struct{}, len(refs))
	out := make([]models.Ref, 0, len(refs))
	for _, r := range refs {
		if _, ok := seen[r.ID]; ok {
			continue
		}
		seen[r.ID] = struct{}{}
		out = append(out, r)
	}
	return out
}
