package models

// Role 用户角色
type Role string

const (
	RoleUser   Role = "User"
	RoleEditor Role = "Editor"
	RoleAdmin  Role = "Admin"
)

// AllRoles 按权限从低到高排列
var AllRoles = []Role{RoleUser, RoleEditor, RoleAdmin}

// Valid 判断角色是否合法
func (r Role) Valid() bool {
	for _, v := range AllRoles {
		if v == r {
			return true
		}
	}
	return false
}

// Principal 当前会话持有者（由 token 解码得到）
type Principal struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

// DisplayName 返回 "名 姓"
func (p *Principal) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// User 用户管理视图使用的用户记录
type User struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
}

// RoleInfo /Roles 返回的角色条目
type RoleInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Credentials 登录请求
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignupRequest 注册请求
type SignupRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// PasswordChange 修改密码请求
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// AuthResult 登录/注册/邮箱验证的结果，Token 为空表示服务端未直接签发会话
type AuthResult struct {
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}
