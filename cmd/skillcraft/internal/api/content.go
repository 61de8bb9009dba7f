package api

import (
	"context"
	"net/http"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

// ---- Roadmaps ----

func (c *Client) ListRoadmaps(ctx context.Context, f models.ListFilter) ([]models.Roadmap, error) {
	var out []models.Roadmap
	if err := c.do(ctx, http.MethodGet, "/Roadmaps", f.Query(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetRoadmap(ctx context.Context, id string) (*models.Roadmap, error) {
	var out models.Roadmap
	if err := c.do(ctx, http.MethodGet, "/Roadmaps/"+escape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateRoadmap(ctx context.Context, p models.RoadmapPayload) (*models.Roadmap, error) {
	var out models.Roadmap
	if err := c.do(ctx, http.MethodPost, "/Roadmaps", nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateRoadmap(ctx context.Context, id string, p models.RoadmapPayload) (*models.Roadmap, error) {
	var out models.Roadmap
	if err := c.do(ctx, http.MethodPut, "/Roadmaps/"+escape(id), nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteRoadmap(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/Roadmaps/"+escape(id), nil, nil, nil)
}

// ---- Milestones ----

func (c *Client) ListMilestones(ctx context.Context, f models.ListFilter) ([]models.Milestone, error) {
	var out []models.Milestone
	if err := c.do(ctx, http.MethodGet, "/Milestones", f.Query(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetMilestone(ctx context.Context, id string) (*models.Milestone, error) {
	var out models.Milestone
	if err := c.do(ctx, http.MethodGet, "/Milestones/"+escape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateMilestone(ctx context.Context, p models.MilestonePayload) (*models.Milestone, error) {
	var out models.Milestone
	if err := c.do(ctx, http.MethodPost, "/Milestones", nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateMilestone(ctx context.Context, id string, p models.MilestonePayload) (*models.Milestone, error) {
	var out models.Milestone
	if err := c.do(ctx, http.MethodPut, "/Milestones/"+escape(id), nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteMilestone(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/Milestones/"+escape(id), nil, nil, nil)
}

// ---- Steps ----

func (c *Client) ListSteps(ctx context.Context, f models.ListFilter) ([]models.Step, error) {
	var out []models.Step
	if err := c.do(ctx, http.MethodGet, "/Steps", f.Query(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetStep(ctx context.Context, id string) (*models.Step, error) {
	var out models.Step
	if err := c.do(ctx, http.MethodGet, "/Steps/"+escape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateStep(ctx context.Context, p models.StepPayload) (*models.Step, error) {
	var out models.Step
	if err := c.do(ctx, http.MethodPost, "/Steps", nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateStep(ctx context.Context, id string, p models.StepPayload) (*models.Step, error) {
	var out models.Step
	if err := c.do(ctx, http.MethodPut, "/Steps/"+escape(id), nil, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteStep(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/Steps/"+escape(id), nil, nil, nil)
}

// ---- Quizzes ----

// quizBase 按题型选择写入端点
func quizBase(kind models.QuizKind) string {
	if kind == models.QuizTrueFalse {
		return "/TrueFalseQuiz"
	}
	return "/MultipleChoicesQuiz"
}

func (c *Client) ListQuizzes(ctx context.Context, f models.ListFilter) ([]models.Quiz, error) {
	var out []models.Quiz
	if err := c.do(ctx, http.MethodGet, "/MultipleChoicesQuiz", f.Query(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetQuiz(ctx context.Context, id string) (*models.Quiz, error) {
	var out models.Quiz
	if err := c.do(ctx, http.MethodGet, "/MultipleChoicesQuiz/"+escape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateQuiz(ctx context.Context, q models.Quiz) (*models.Quiz, error) {
	var out models.Quiz
	if err := c.do(ctx, http.MethodPost, quizBase(q.Kind()), nil, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateQuiz(ctx context.Context, id string, q models.Quiz) (*models.Quiz, error) {
	q.ID = id
	var out models.Quiz
	if err := c.do(ctx, http.MethodPut, quizBase(q.Kind())+"/"+escape(id), nil, q, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteQuiz(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/MultipleChoicesQuiz/"+escape(id), nil, nil, nil)
}

// CheckAnswer 提交所选答案，返回是否正确
func (c *Client) CheckAnswer(ctx context.Context, id, answer string) (bool, error) {
	var correct bool
	if err := c.do(ctx, http.MethodPut, "/answer/"+escape(id), nil, answer, &correct); err != nil {
		return false, err
	}
	return correct, nil
}
