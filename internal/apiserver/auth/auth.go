// Package auth 用户认证：JWT 令牌管理、密码哈希、HTTP 中间件
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"transit-admin/internal/shared/model"
)

// contextKey context 键类型
type contextKey string

const (
	ctxKeyAuthUser  contextKey = "auth_user"
	ctxKeyAuthToken contextKey = "auth_token"
)

// bcryptCost 密码哈希代价因子
const bcryptCost = 10

// CookieName 会话令牌 Cookie 名称
const CookieName = "token"

// Config 认证配置
//
// 签名密钥和令牌时长通过构造注入，不依赖进程级全局状态。
type Config struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
	// SecureCookies 仅在生产环境置位，控制 Set-Cookie 的 Secure 属性
	SecureCookies bool `yaml:"-"`
}

// DefaultConfig 返回默认认证配置
func DefaultConfig() Config {
	return Config{
		JWTSecret: "",
		TokenTTL:  time.Hour,
	}
}

// Validate 启动时校验；签名密钥缺失属于致命配置错误
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("auth: JWT secret is not configured")
	}
	return nil
}

// ============================================================================
// 密码哈希
// ============================================================================

// HashPassword 使用 bcrypt 哈希密码
//
// 盐随机生成，同一明文多次哈希产生不同摘要。
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(bytes), err
}

// CheckPassword 验证密码
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// ============================================================================
// JWT Token
// ============================================================================

// 令牌校验失败的分类错误
var (
	ErrTokenExpired          = errors.New("auth: token expired")
	ErrTokenSignatureInvalid = errors.New("auth: token signature invalid")
	ErrTokenMalformed        = errors.New("auth: token malformed")
)

// Claims JWT 声明
//
// role 是签发时刻的快照。授权判定始终以 Authenticate 重新
// 加载的用户记录为准，不信任这里的 role 声明。
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// GenerateToken 签发会话令牌，有效期 cfg.TokenTTL
//
// jti 取随机 UUID：同一秒内的两次签发也会得到不同令牌，
// 会话登记表按 token 精确撤销时不会误伤其他会话。
func GenerateToken(cfg Config, userID string, role model.UserRole) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.TokenTTL)),
		},
		Role: string(role),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// ParseToken 解析并验证 JWT
//
// 失败类型归类为 ErrTokenExpired / ErrTokenSignatureInvalid / ErrTokenMalformed。
func ParseToken(cfg Config, tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignatureInvalid
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		}
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrTokenMalformed
	}
	return claims, nil
}

// ============================================================================
// Context 辅助函数
// ============================================================================

// WithUser 将认证用户注入 context
func WithUser(ctx context.Context, user *model.User) context.Context {
	return context.WithValue(ctx, ctxKeyAuthUser, user)
}

// GetUser 从 context 获取认证用户
func GetUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(ctxKeyAuthUser).(*model.User)
	return user
}

// WithToken 将原始令牌注入 context（供登出时撤销会话）
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyAuthToken, token)
}

// GetToken 从 context 获取原始令牌
func GetToken(ctx context.Context) string {
	tok, _ := ctx.Value(ctxKeyAuthToken).(string)
	return tok
}
