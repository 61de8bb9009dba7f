package fakeapi

import (
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

// DemoPassword 沙箱种子账号的统一密码
const DemoPassword = "password"

// Demo 种子数据中的账号
type Demo struct {
	Admin   models.User
	Editor  models.User
	Learner models.User
	Roadmap models.Roadmap
}

// SeedDemo 写入一套可直接浏览的示例数据
func (s *Server) SeedDemo() Demo {
	d := Demo{
		Admin:   s.AddUser(models.User{FirstName: "Grace", LastName: "Hopper", Email: "admin@skillcraft.dev", Role: models.RoleAdmin}, DemoPassword),
		Editor:  s.AddUser(models.User{FirstName: "Alan", LastName: "Turing", Email: "editor@skillcraft.dev", Role: models.RoleEditor}, DemoPassword),
		Learner: s.AddUser(models.User{FirstName: "Ada", LastName: "Lovelace", Email: "learner@skillcraft.dev", Role: models.RoleUser}, DemoPassword),
	}

	syntax := s.AddStep(models.StepPayload{Name: "Go syntax tour", Description: "Variables, control flow, functions", DurationInMinutes: 240})
	types := s.AddStep(models.StepPayload{Name: "Structs and interfaces", DurationInMinutes: 480})
	errs := s.AddStep(models.StepPayload{Name: "Error handling", DurationInMinutes: 120})
	goroutines := s.AddStep(models.StepPayload{Name: "Goroutines and channels", DurationInMinutes: 960})
	ctx := s.AddStep(models.StepPayload{Name: "context.Context", DurationInMinutes: 180})
	httpStep := s.AddStep(models.StepPayload{Name: "net/http servers", DurationInMinutes: 600})

	basics := s.AddMilestone(models.MilestonePayload{Name: "Language basics", StepsIDs: []string{syntax.ID, types.ID, errs.ID}})
	conc := s.AddMilestone(models.MilestonePayload{Name: "Concurrency", StepsIDs: []string{goroutines.ID, ctx.ID}})
	s.AddMilestone(models.MilestonePayload{Name: "Web services", StepsIDs: []string{httpStep.ID}})

	d.Roadmap = s.AddRoadmap(models.RoadmapPayload{
		Name:          "Go Backend Developer",
		Description:   "From first program to production services",
		Tags:          []string{"go", "backend"},
		Salary:        120000,
		MilestonesIDs: []string{basics.ID, conc.ID},
	})

	s.AddQuiz(models.Quiz{
		Question: "Which keyword starts a goroutine?",
		Tag:      "go",
		Body:     models.MultipleChoice{Options: []string{"go", "async", "spawn"}, Answer: "go"},
	})
	s.AddQuiz(models.Quiz{
		Question: "A nil map can be read from.",
		Tag:      "go",
		Body:     models.TrueFalse{Answer: true},
	})
	s.SetEnergy(d.Learner.ID, 5)
	return d
}
