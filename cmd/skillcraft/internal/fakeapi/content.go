package fakeapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

func filterFrom(c *gin.Context) models.ListFilter {
	f := models.ListFilter{Name: c.Query("name"), Tag: c.Query("tag")}
	f.PageNumber, _ = strconv.Atoi(c.Query("pageNumber"))
	f.PageSize, _ = strconv.Atoi(c.Query("pageSize"))
	return f
}

// paginate 页码从 0 开始；PageSize<=0 返回全部
func paginate[T any](items []T, f models.ListFilter) []T {
	if f.PageSize <= 0 {
		return items
	}
	start := f.PageNumber * f.PageSize
	if start < 0 || start >= len(items) {
		return []T{}
	}
	end := start + f.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// ---- 视图组装（调用方持锁） ----

func (s *Server) milestoneView(m *milestoneRecord) models.Milestone {
	out := models.Milestone{ID: m.ID, Name: m.Name, Description: m.Description, Steps: []models.Step{}}
	for _, id := range m.StepIDs {
		if st, ok := s.steps[id]; ok {
			out.Steps = append(out.Steps, *st)
			out.DurationInMinutes += st.DurationInMinutes
		}
	}
	return out
}

func (s *Server) roadmapView(r *roadmapRecord) models.Roadmap {
	out := models.Roadmap{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Tags:        append([]string{}, r.Tags...),
		Salary:      r.Salary,
		Milestones:  []models.Milestone{},
	}
	for _, id := range r.MilestoneIDs {
		if m, ok := s.milestones[id]; ok {
			mv := s.milestoneView(m)
			out.Milestones = append(out.Milestones, mv)
			out.DurationInMinutes += mv.DurationInMinutes
		}
	}
	return out
}

func (s *Server) createStep(p models.StepPayload) models.Step {
	st := &models.Step{ID: uuid.NewString(), Name: p.Name, Description: p.Description, DurationInMinutes: p.DurationInMinutes}
	s.steps[st.ID] = st
	s.stepOrder = append(s.stepOrder, st.ID)
	return *st
}

func (s *Server) createMilestone(p models.MilestonePayload) models.Milestone {
	m := &milestoneRecord{ID: uuid.NewString(), Name: p.Name, Description: p.Description, StepIDs: append([]string{}, p.StepsIDs...)}
	s.milestones[m.ID] = m
	s.msOrder = append(s.msOrder, m.ID)
	return s.milestoneView(m)
}

func (s *Server) createRoadmap(p models.RoadmapPayload) models.Roadmap {
	r := &roadmapRecord{
		ID:           uuid.NewString(),
		Name:         p.Name,
		Description:  p.Description,
		Tags:         append([]string{}, p.Tags...),
		Salary:       p.Salary,
		MilestoneIDs: append([]string{}, p.MilestonesIDs...),
	}
	s.roadmaps[r.ID] = r
	s.rmOrder = append(s.rmOrder, r.ID)
	return s.roadmapView(r)
}

func (s *Server) createQuiz(q models.Quiz) models.Quiz {
	q.ID = uuid.NewString()
	s.quizzes[q.ID] = q
	s.quizOrder = append(s.quizOrder, q.ID)
	return q
}

// ---- 校验 ----

func validateStep(p models.StepPayload) string {
	if strings.TrimSpace(p.Name) == "" {
		return "name is required"
	}
	if p.DurationInMinutes <= 0 {
		return "durationInMinutes must be positive"
	}
	return ""
}

// missingRef 返回第一个未知 id，调用方持锁
func (s *Server) missingRef(ids []string, known func(string) bool) string {
	for _, id := range ids {
		if !known(id) {
			return id
		}
	}
	return ""
}

func validateQuiz(q models.Quiz) string {
	if strings.TrimSpace(q.Question) == "" {
		return "question is required"
	}
	if mc, ok := q.Body.(models.MultipleChoice); ok {
		if len(mc.Options) < 2 {
			return "at least two options are required"
		}
		for _, o := range mc.Options {
			if o == mc.Answer {
				return ""
			}
		}
		return "answer must be one of the options"
	}
	return ""
}

// ---- Roadmaps ----

func (s *Server) handleListRoadmaps(c *gin.Context) {
	f := filterFrom(c)
	s.mu.RLock()
	out := []models.Roadmap{}
	for _, id := range s.rmOrder {
		r := s.roadmaps[id]
		if f.Name != "" && !containsFold(r.Name, f.Name) {
			continue
		}
		if f.Tag != "" && !hasTag(r.Tags, f.Tag) {
			continue
		}
		out = append(out, s.roadmapView(r))
	}
	s.mu.RUnlock()
	c.JSON(http.StatusOK, paginate(out, f))
}

func (s *Server) handleGetRoadmap(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roadmaps[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "roadmap not found"})
		return
	}
	c.JSON(http.StatusOK, s.roadmapView(r))
}

func (s *Server) bindRoadmap(c *gin.Context) (models.RoadmapPayload, bool) {
	var p models.RoadmapPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return p, false
	}
	if strings.TrimSpace(p.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return p, false
	}
	return p, true
}

func (s *Server) handleCreateRoadmap(c *gin.Context) {
	p, ok := s.bindRoadmap(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id := s.missingRef(p.MilestonesIDs, func(id string) bool { _, ok := s.milestones[id]; return ok }); id != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown milestone " + id})
		return
	}
	c.JSON(http.StatusCreated, s.createRoadmap(p))
}

func (s *Server) handleUpdateRoadmap(c *gin.Context) {
	p, ok := s.bindRoadmap(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, found := s.roadmaps[c.Param("id")]
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "roadmap not found"})
		return
	}
	if id := s.missingRef(p.MilestonesIDs, func(id string) bool { _, ok := s.milestones[id]; return ok }); id != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown milestone " + id})
		return
	}
	r.Name, r.Description, r.Salary = p.Name, p.Description, p.Salary
	r.Tags = append([]string{}, p.Tags...)
	r.MilestoneIDs = append([]string{}, p.MilestonesIDs...)
	c.JSON(http.StatusOK, s.roadmapView(r))
}

func (s *Server) handleDeleteRoadmap(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.roadmaps[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "roadmap not found"})
		return
	}
	delete(s.roadmaps, id)
	s.rmOrder = removeID(s.rmOrder, id)
	for _, u := range s.users {
		u.roadmaps = removeID(u.roadmaps, id)
		delete(u.finishedRoadmaps, id)
	}
	c.Status(http.StatusNoContent)
}

// ---- Milestones ----

func (s *Server) handleListMilestones(c *gin.Context) {
	f := filterFrom(c)
	s.mu.RLock()
	out := []models.Milestone{}
	for _, id := range s.msOrder {
		m := s.milestones[id]
		if f.Name != "" && !containsFold(m.Name, f.Name) {
			continue
		}
		out = append(out, s.milestoneView(m))
	}
	s.mu.RUnlock()
	c.JSON(http.StatusOK, paginate(out, f))
}

func (s *Server) handleGetMilestone(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.milestones[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "milestone not found"})
		return
	}
	c.JSON(http.StatusOK, s.milestoneView(m))
}

func (s *Server) bindMilestone(c *gin.Context) (models.MilestonePayload, bool) {
	var p models.MilestonePayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return p, false
	}
	if strings.TrimSpace(p.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return p, false
	}
	return p, true
}

func (s *Server) handleCreateMilestone(c *gin.Context) {
	p, ok := s.bindMilestone(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if id := s.missingRef(p.StepsIDs, func(id string) bool { _, ok := s.steps[id]; return ok }); id != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown step " + id})
		return
	}
	c.JSON(http.StatusCreated, s.createMilestone(p))
}

func (s *Server) handleUpdateMilestone(c *gin.Context) {
	p, ok := s.bindMilestone(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, found := s.milestones[c.Param("id")]
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "milestone not found"})
		return
	}
	if id := s.missingRef(p.StepsIDs, func(id string) bool { _, ok := s.steps[id]; return ok }); id != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown step " + id})
		return
	}
	m.Name, m.Description = p.Name, p.Description
	m.StepIDs = append([]string{}, p.StepsIDs...)
	c.JSON(http.StatusOK, s.milestoneView(m))
}

func (s *Server) handleDeleteMilestone(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.milestones[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "milestone not found"})
		return
	}
	delete(s.milestones, id)
	s.msOrder = removeID(s.msOrder, id)
	for _, r := range s.roadmaps {
		r.MilestoneIDs = removeID(r.MilestoneIDs, id)
	}
	c.Status(http.StatusNoContent)
}

// ---- Steps ----

func (s *Server) handleListSteps(c *gin.Context) {
	f := filterFrom(c)
	s.mu.RLock()
	out := []models.Step{}
	for _, id := range s.stepOrder {
		st := s.steps[id]
		if f.Name != "" && !containsFold(st.Name, f.Name) {
			continue
		}
		out = append(out, *st)
	}
	s.mu.RUnlock()
	c.JSON(http.StatusOK, paginate(out, f))
}

func (s *Server) handleGetStep(c *gin.Context) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.steps[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "step not found"})
		return
	}
	c.JSON(http.StatusOK, *st)
}

func (s *Server) handleCreateStep(c *gin.Context) {
	var p models.StepPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if msg := validateStep(p); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusCreated, s.createStep(p))
}

func (s *Server) handleUpdateStep(c *gin.Context) {
	var p models.StepPayload
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	if msg := validateStep(p); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.steps[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "step not found"})
		return
	}
	st.Name, st.Description, st.DurationInMinutes = p.Name, p.Description, p.DurationInMinutes
	c.JSON(http.StatusOK, *st)
}

func (s *Server) handleDeleteStep(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.steps[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "step not found"})
		return
	}
	delete(s.steps, id)
	s.stepOrder = removeID(s.stepOrder, id)
	for _, m := range s.milestones {
		m.StepIDs = removeID(m.StepIDs, id)
	}
	for _, u := range s.users {
		delete(u.finishedSteps, id)
	}
	c.Status(http.StatusNoContent)
}

// ---- Quizzes ----

// learnerView 学员看不到答案
func learnerView(q models.Quiz) models.Quiz {
	switch b := q.Body.(type) {
	case models.MultipleChoice:
		q.Body = models.MultipleChoice{Options: b.Options}
	case models.TrueFalse:
		q.Body = models.TrueFalse{}
	}
	return q
}

func (s *Server) quizFor(c *gin.Context, q models.Quiz) models.Quiz {
	if u := s.currentUser(c); u != nil && u.Role == models.RoleUser {
		return learnerView(q)
	}
	return q
}

func (s *Server) handleListQuizzes(c *gin.Context) {
	f := filterFrom(c)
	s.mu.RLock()
	out := []models.Quiz{}
	for _, id := range s.quizOrder {
		q := s.quizzes[id]
		if f.Name != "" && !containsFold(q.Question, f.Name) {
			continue
		}
		if f.Tag != "" && !strings.EqualFold(q.Tag, f.Tag) {
			continue
		}
		out = append(out, q)
	}
	s.mu.RUnlock()
	out = paginate(out, f)
	for i := range out {
		out[i] = s.quizFor(c, out[i])
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetQuiz(c *gin.Context) {
	s.mu.RLock()
	q, ok := s.quizzes[c.Param("id")]
	s.mu.RUnlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "quiz not found"})
		return
	}
	c.JSON(http.StatusOK, s.quizFor(c, q))
}

// kindFromPath 写入端点决定题型
func kindFromPath(c *gin.Context) models.QuizKind {
	if strings.Contains(c.FullPath(), "/TrueFalseQuiz") {
		return models.QuizTrueFalse
	}
	return models.QuizMultipleChoice
}

func bindQuiz(c *gin.Context) (models.Quiz, bool) {
	var q models.Quiz
	if err := c.ShouldBindJSON(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return q, false
	}
	if q.Kind() != kindFromPath(c) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "quiz type does not match endpoint"})
		return q, false
	}
	if msg := validateQuiz(q); msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return q, false
	}
	return q, true
}

func (s *Server) handleCreateQuiz(c *gin.Context) {
	q, ok := bindQuiz(c)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusCreated, s.createQuiz(q))
}

func (s *Server) handleUpdateQuiz(c *gin.Context) {
	q, ok := bindQuiz(c)
	if !ok {
		return
	}
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.quizzes[id]; !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "quiz not found"})
		return
	}
	q.ID = id
	s.quizzes[id] = q
	c.JSON(http.StatusOK, q)
}

func (s *Server) handleDeleteQuiz(c *gin.Context) {
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[id]; !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "quiz not found"})
		return
	}
	delete(s.quizzes, id)
	s.quizOrder = removeID(s.quizOrder, id)
	c.Status(http.StatusNoContent)
}

// handleAnswer PUT /answer/:id，请求体为 JSON 字符串
func (s *Server) handleAnswer(c *gin.Context) {
	var answer string
	if err := c.ShouldBindJSON(&answer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "answer must be a string"})
		return
	}
	s.mu.RLock()
	q, ok := s.quizzes[c.Param("id")]
	s.mu.RUnlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "quiz not found"})
		return
	}
	correct := false
	switch b := q.Body.(type) {
	case models.MultipleChoice:
		correct = answer == b.Answer
	case models.TrueFalse:
		v, err := strconv.ParseBool(strings.TrimSpace(answer))
		correct = err == nil && v == b.Answer
	}
	c.JSON(http.StatusOK, correct)
}
