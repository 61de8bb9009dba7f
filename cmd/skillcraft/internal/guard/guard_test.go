package guard

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

func principal(role models.Role) *models.Principal {
	return &models.Principal{ID: "u-1", Role: role}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name          string
		bootstrapping bool
		p             *models.Principal
		required      []models.Role
		want          Decision
	}{
		{"bootstrapping suspends", true, principal(models.RoleAdmin), nil, Decision{Kind: Suspend}},
		{"bootstrapping without principal suspends", true, nil, adminRoles, Decision{Kind: Suspend}},
		{"anonymous redirects to login", false, nil, nil, Decision{Kind: Redirect, Target: LoginPath}},
		{"any authenticated", false, principal(models.RoleUser), nil, Decision{Kind: Allow}},
		{"user on admin view", false, principal(models.RoleUser), adminRoles, Decision{Kind: Redirect, Target: Home}},
		{"editor on admin view", false, principal(models.RoleEditor), adminRoles, Decision{Kind: Redirect, Target: EditorHome}},
		{"admin on editor view", false, principal(models.RoleAdmin), editorRoles, Decision{Kind: Allow}},
		{"editor on editor view", false, principal(models.RoleEditor), editorRoles, Decision{Kind: Allow}},
		{"unknown role redirects home", false, principal(models.Role("Guest")), learnerRoles, Decision{Kind: Redirect, Target: Home}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decide(tt.bootstrapping, tt.p, tt.required))
		})
	}
}

func TestLanding(t *testing.T) {
	assert.Equal(t, AdminHome, Landing(models.RoleAdmin))
	assert.Equal(t, EditorHome, Landing(models.RoleEditor))
	assert.Equal(t, Home, Landing(models.RoleUser))
}

func TestCheck(t *testing.T) {
	// 公开视图
	assert.Equal(t, Allow, Check("/roadmaps", false, nil).Kind)
	assert.Equal(t, Allow, Check("/roadmaps/42", false, nil).Kind)

	// 带参数的受保护视图
	assert.Equal(t, Decision{Kind: Redirect, Target: LoginPath}, Check("/quizzes/7", false, nil))
	assert.Equal(t, Allow, Check("/quizzes/7", false, principal(models.RoleUser)).Kind)
	assert.Equal(t, Allow, Check("/editor/roadmaps/edit/9", false, principal(models.RoleAdmin)).Kind)
	assert.Equal(t, Decision{Kind: Redirect, Target: Home}, Check("/editor/roadmaps/edit/9", false, principal(models.RoleUser)))
	assert.Equal(t, Decision{Kind: Redirect, Target: EditorHome}, Check("/admin/users", false, principal(models.RoleEditor)))
}

func TestLookup(t *testing.T) {
	r, ok := Lookup("/editor/roadmaps/new")
	assert.True(t, ok)
	assert.Equal(t, editorRoles, r.Roles)

	_, ok = Lookup("/editor/roadmaps/edit/")
	assert.False(t, ok)
	_, ok = Lookup("/nope")
	assert.False(t, ok)
}
