package models

// Ref 池中条目的轻量投影，仅包含 id 与展示名
type Ref struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Step 学习路线中的原子任务
type Step struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	DurationInMinutes int    `json:"durationInMinutes"`
}

// Ref 返回 step 的投影
func (s Step) Ref() Ref { return Ref{ID: s.ID, Name: s.Name} }

// Milestone 路线图的阶段，由有序的 Step 组成
type Milestone struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	Description       string `json:"description"`
	DurationInMinutes int    `json:"durationInMinutes"`
	Steps             []Step `json:"steps"`
}

// Ref 返回 milestone 的投影
func (m Milestone) Ref() Ref { return Ref{ID: m.ID, Name: m.Name} }

// Roadmap 学习路线图
type Roadmap struct {
	ID                string      `json:"id"`
	Name              string      `json:"name"`
	Description       string      `json:"description"`
	Tags              []string    `json:"tags"`
	Salary            float64     `json:"salary"`
	DurationInMinutes int         `json:"durationInMinutes"`
	Milestones        []Milestone `json:"milestones"`
}

// StepIDs 返回路线图可达的全部 step id（按出现顺序，去重）
func (r *Roadmap) StepIDs() []string {
	if r == nil {
		return nil
	}
	seen := map[string]struct{}{}
	out := []string{}
	for _, m := range r.Milestones {
		for _, s := range m.Steps {
			if _, ok := seen[s.ID]; ok {
				continue
			}
			seen[s.ID] = struct{}{}
			out = append(out, s.ID)
		}
	}
	return out
}

// RoadmapPayload 创建/更新路线图的请求体
type RoadmapPayload struct {
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	Tags          []string `json:"tags"`
	Salary        float64  `json:"salary"`
	MilestonesIDs []string `json:"milestonesIds"`
}

// MilestonePayload 创建/更新里程碑的请求体
type MilestonePayload struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	StepsIDs    []string `json:"stepsIds"`
}

// StepPayload 创建/更新步骤的请求体
type StepPayload struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	DurationInMinutes int    `json:"durationInMinutes"`
}

// Refs 将 milestone 列表投影为 Ref 列表
func MilestoneRefs(ms []Milestone) []Ref {
	out := make([]Ref, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Ref())
	}
	return out
}

// StepRefs 将 step 列表投影为 Ref 列表
func StepRefs(ss []Step) []Ref {
	out := make([]Ref, 0, len(ss))
	for _, s := range ss {
		out = append(out, s.Ref())
	}
	return out
}
