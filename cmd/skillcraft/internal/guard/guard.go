// Package guard 根据会话状态与角色要求决定视图能否渲染。
package guard

import (
	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

// LoginPath 登录入口
const LoginPath = "/login"

// 各角色的默认落地视图
const (
	AdminHome  = "/admin/dashboard"
	EditorHome = "/editor/dashboard"
	Home       = "/"
)

// Kind 守卫结论
type Kind int

const (
	// Suspend 会话初始化尚未完成，什么都不渲染
	Suspend Kind = iota
	// Allow 允许渲染
	Allow
	// Redirect 跳转到 Decision.Target
	Redirect
)

func (k Kind) String() string {
	switch k {
	case Suspend:
		return "suspend"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision 守卫结果
type Decision struct {
	Kind   Kind
	Target string
}

// Landing 角色对应的默认落地视图
func Landing(role models.Role) string {
	switch role {
	case models.RoleAdmin:
		return AdminHome
	case models.RoleEditor:
		return EditorHome
	default:
		return Home
	}
}

// Decide 纯函数：required 为空表示任意已登录用户
func Decide(bootstrapping bool, p *models.Principal, required []models.Role) Decision {
	if bootstrapping {
		return Decision{Kind: Suspend}
	}
	if p == nil {
		return Decision{Kind: Redirect, Target: LoginPath}
	}
	if len(required) > 0 && !hasRole(required, p.Role) {
		return Decision{Kind: Redirect, Target: Landing(p.Role)}
	}
	return Decision{Kind: Allow}
}

func hasRole(roles []models.Role, r models.Role) bool {
	for _, v := range roles {
		if v == r {
			return true
		}
	}
	return false
}
