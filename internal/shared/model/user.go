package model

import "time"

// UserRole 用户角色
type UserRole string

const (
	UserRoleAdmin    UserRole = "admin"
	UserRoleOperator UserRole = "operator"
	UserRoleCommuter UserRole = "commuter"
)

// ValidRole 校验角色是否在封闭枚举内
func ValidRole(r UserRole) bool {
	switch r {
	case UserRoleAdmin, UserRoleOperator, UserRoleCommuter:
		return true
	}
	return false
}

// SessionToken 用户文档内嵌的会话令牌条目
//
// 登录/注册时追加，登出时按 token 精确移除。
// 追加前会剔除 expires_at 已过期的条目，避免列表无限增长。
type SessionToken struct {
	Token     string    `json:"token" bson:"token"`
	IssuedAt  time.Time `json:"issued_at" bson:"issued_at"`
	ExpiresAt time.Time `json:"expires_at" bson:"expires_at"`
}

// User 用户
type User struct {
	ID            string         `json:"id" bson:"_id"`
	Email         string         `json:"email" bson:"email"`
	PasswordHash  string         `json:"-" bson:"password_hash"` // never expose in JSON
	Role          UserRole       `json:"role" bson:"role"`
	SessionTokens []SessionToken `json:"-" bson:"session_tokens,omitempty"`
	CreatedAt     time.Time      `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" bson:"updated_at"`
}

// PublicUser 对外暴露的用户视图（注册/登录响应）
type PublicUser struct {
	ID    string   `json:"id"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
}

// Public 返回不含凭据的用户视图
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Role: u.Role}
}
