package fakeapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

// withUser 在写锁内对当前用户执行 fn
func (s *Server) withUser(c *gin.Context, fn func(u *userRecord)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[c.GetString("user")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	fn(u)
}

func (s *Server) handleMyRoadmaps(c *gin.Context) {
	s.withUser(c, func(u *userRecord) {
		out := []models.Roadmap{}
		for _, id := range u.roadmaps {
			if r, ok := s.roadmaps[id]; ok {
				out = append(out, s.roadmapView(r))
			}
		}
		c.JSON(http.StatusOK, out)
	})
}

func (s *Server) handleAddRoadmap(c *gin.Context) {
	id := c.Param("id")
	s.withUser(c, func(u *userRecord) {
		if _, ok := s.roadmaps[id]; !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "roadmap not found"})
			return
		}
		if indexOf(u.roadmaps, id) < 0 {
			u.roadmaps = append(u.roadmaps, id)
		}
		c.Status(http.StatusNoContent)
	})
}

func (s *Server) handleRemoveRoadmap(c *gin.Context) {
	id := c.Param("id")
	s.withUser(c, func(u *userRecord) {
		u.roadmaps = removeID(u.roadmaps, id)
		delete(u.finishedRoadmaps, id)
		c.Status(http.StatusNoContent)
	})
}

func (s *Server) handleCheckRoadmap(c *gin.Context) {
	id := c.Param("id")
	s.withUser(c, func(u *userRecord) {
		c.JSON(http.StatusOK, indexOf(u.roadmaps, id) >= 0)
	})
}

// handleFinishedSteps 返回该路线图可达 step 中已完成的部分，按路线图顺序
func (s *Server) handleFinishedSteps(c *gin.Context) {
	id := c.Param("id")
	s.withUser(c, func(u *userRecord) {
		r, ok := s.roadmaps[id]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "roadmap not found"})
			return
		}
		view := s.roadmapView(r)
		out := []string{}
		for _, stepID := range view.StepIDs() {
			if u.finishedSteps[stepID] {
				out = append(out, stepID)
			}
		}
		c.JSON(http.StatusOK, out)
	})
}

func bindIDs(c *gin.Context) ([]string, bool) {
	var ids []string
	if err := c.ShouldBindJSON(&ids); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected a list of step ids"})
		return nil, false
	}
	return ids, true
}

// handleFinishSteps 每个新完成的 step 增加 1 点 energy
func (s *Server) handleFinishSteps(c *gin.Context) {
	ids, ok := bindIDs(c)
	if !ok {
		return
	}
	s.withUser(c, func(u *userRecord) {
		for _, id := range ids {
			if _, known := s.steps[id]; !known {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown step " + id})
				return
			}
		}
		for _, id := range ids {
			if !u.finishedSteps[id] {
				u.finishedSteps[id] = true
				u.energy++
			}
		}
		c.Status(http.StatusNoContent)
	})
}

func (s *Server) handleUnfinishSteps(c *gin.Context) {
	ids, ok := bindIDs(c)
	if !ok {
		return
	}
	s.withUser(c, func(u *userRecord) {
		for _, id := range ids {
			delete(u.finishedSteps, id)
		}
		c.Status(http.StatusNoContent)
	})
}

func (s *Server) handleRoadmapStatus(c *gin.Context) {
	id := c.Param("id")
	finished, err := strconv.ParseBool(c.DefaultQuery("finish", "true"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "finish must be a boolean"})
		return
	}
	s.withUser(c, func(u *userRecord) {
		if indexOf(u.roadmaps, id) < 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "roadmap not in profile"})
			return
		}
		u.finishedRoadmaps[id] = finished
		c.Status(http.StatusNoContent)
	})
}

// handleEnergy 只允许本人或管理员查询
func (s *Server) handleEnergy(c *gin.Context) {
	target := c.Param("userId")
	caller := s.currentUser(c)
	if caller == nil || (caller.ID != target && caller.Role != models.RoleAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	s.mu.RLock()
	u, ok := s.users[target]
	var energy int
	if ok {
		energy = u.energy
	}
	s.mu.RUnlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, energy)
}
