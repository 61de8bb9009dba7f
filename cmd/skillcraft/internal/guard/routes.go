package guard

import (
	"strings"

	"github.com/houzhh15/skillcraft/cmd/skillcraft/internal/models"
)

// Route 受保护视图。Roles 为空表示任意已登录用户
type Route struct {
	Path  string
	Roles []models.Role
}

var (
	learnerRoles = []models.Role{models.RoleUser, models.RoleAdmin, models.RoleEditor}
	editorRoles  = []models.Role{models.RoleEditor, models.RoleAdmin}
	adminRoles   = []models.Role{models.RoleAdmin}
)

// Routes 受保护视图表，未列出的路径为公开视图
var Routes = []Route{
	{Path: "/quizzes/:id"},
	{Path: "/roadmaps/:id/progress"},
	{Path: "/profile", Roles: learnerRoles},
	{Path: "/admin/dashboard", Roles: adminRoles},
	{Path: "/admin/users", Roles: adminRoles},
	{Path: "/editor/dashboard", Roles: editorRoles},
	{Path: "/editor/roadmaps/new", Roles: editorRoles},
	{Path: "/editor/roadmaps/edit/:id", Roles: editorRoles},
	{Path: "/editor/milestones", Roles: editorRoles},
	{Path: "/editor/steps", Roles: editorRoles},
	{Path: "/editor/quizzes", Roles: editorRoles},
}

// Lookup 按模式匹配路径（":" 开头的段匹配任意值）
func Lookup(path string) (Route, bool) {
	for _, r := range Routes {
		if match(r.Path, path) {
			return r, true
		}
	}
	return Route{}, false
}

// Check 对路径执行守卫；公开视图总是允许
func Check(path string, bootstrapping bool, p *models.Principal) Decision {
	r, ok := Lookup(path)
	if !ok {
		if bootstrapping {
			return Decision{Kind: Suspend}
		}
		return Decision{Kind: Allow}
	}
	return Decide(bootstrapping, p, r.Roles)
}

func match(pattern, path string) bool {
	ps := strings.Split(strings.Trim(pattern, "/"), "/")
	xs := strings.Split(strings.Trim(path, "/"), "/")
	if len(ps) != len(xs) {
		return false
	}
	for i := range ps {
		if strings.HasPrefix(ps[i], ":") {
			if xs[i] == "" {
				return false
			}
			continue
		}
		if ps[i] != xs[i] {
			return false
		}
	}
	return true
}
