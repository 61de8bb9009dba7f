package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

// authResponse 兼容两种返回：裸 JSON 字符串 token，或 {token, message}
type authResponse struct {
	models.AuthResult
}

func (a *authResponse) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &a.Token)
	}
	return json.Unmarshal(data, &a.AuthResult)
}

// ---- Auth ----

func (c *Client) Login(ctx context.Context, cred models.Credentials) (models.AuthResult, error) {
	var out authResponse
	err := c.do(ctx, http.MethodPost, "/Auth/login", nil, cred, &out)
	return out.AuthResult, err
}

func (c *Client) Signup(ctx context.Context, req models.SignupRequest) (models.AuthResult, error) {
	var out authResponse
	err := c.do(ctx, http.MethodPost, "/Auth/signUp", nil, req, &out)
	return out.AuthResult, err
}

func (c *Client) VerifyEmail(ctx context.Context, email, token string) (models.AuthResult, error) {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", token)
	var out authResponse
	err := c.do(ctx, http.MethodGet, "/Auth/verify", q, nil, &out)
	return out.AuthResult, err
}

func (c *Client) ChangePassword(ctx context.Context, req models.PasswordChange) error {
	return c.do(ctx, http.MethodPut, "/Auth", nil, req, nil)
}

// ---- Users / Roles ----

func (c *Client) ListUsers(ctx context.Context, f models.ListFilter) ([]models.User, error) {
	var out []models.User
	if err := c.do(ctx, http.MethodGet, "/Users", f.Query(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetUser(ctx context.Context, id string) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, "/Users/"+escape(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateUser(ctx context.Context, u models.User) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodPut, "/Users/"+escape(u.ID), nil, u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/Users/"+escape(id), nil, nil, nil)
}

func (c *Client) ListRoles(ctx context.Context) ([]models.RoleInfo, error) {
	var out []models.RoleInfo
	if err := c.do(ctx, http.MethodGet, "/Roles", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ---- Profile ----

func (c *Client) MyRoadmaps(ctx context.Context) ([]models.Roadmap, error) {
	var out []models.Roadmap
	if err := c.do(ctx, http.MethodGet, "/Profile/MyRoadmaps", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AddRoadmapToProfile(ctx context.Context, roadmapID string) error {
	return c.do(ctx, http.MethodPut, "/Profile/AddRoadmap/"+escape(roadmapID), nil, nil, nil)
}

func (c *Client) RemoveRoadmapFromProfile(ctx context.Context, roadmapID string) error {
	return c.do(ctx, http.MethodPut, "/Profile/RemoveRoadmap/"+escape(roadmapID), nil, nil, nil)
}

func (c *Client) CheckRoadmapInProfile(ctx context.Context, roadmapID string) (bool, error) {
	var in bool
	err := c.do(ctx, http.MethodGet, "/Profile/CheckRoadmap/"+escape(roadmapID), nil, nil, &in)
	return in, err
}

func (c *Client) GetFinishedSteps(ctx context.Context, roadmapID string) ([]string, error) {
	var out []string
	if err := c.do(ctx, http.MethodGet, "/Profile/FinishedSteps/"+escape(roadmapID), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FinishSteps(ctx context.Context, stepIDs []string) error {
	return c.do(ctx, http.MethodPut, "/Profile/FinishSteps", nil, stepIDs, nil)
}

func (c *Client) UnfinishSteps(ctx context.Context, stepIDs []string) error {
	return c.do(ctx, http.MethodPut, "/Profile/UnFinishSteps", nil, stepIDs, nil)
}

// SetRoadmapStatus 标记路线图完成/未完成
func (c *Client) SetRoadmapStatus(ctx context.Context, roadmapID string, finished bool) error {
	q := url.Values{}
	q.Set("finish", strconv.FormatBool(finished))
	return c.do(ctx, http.MethodPut, "/Profile/Roadmaps/"+escape(roadmapID), q, nil, nil)
}

func (c *Client) GetEnergy(ctx context.Context, userID string) (int, error) {
	var energy int
	err := c.do(ctx, http.MethodGet, "/Profile/energy/"+escape(userID), nil, nil, &energy)
	return energy, err
}
