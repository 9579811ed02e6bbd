package auth

import (
	"log"
	"net/http"
	"strings"

	"transit-admin/internal/shared/model"
)

// Authenticate JWT 认证中间件
//
// 令牌提取优先 Authorization: Bearer，其次回退到 Cookie。
// 校验通过后重新加载用户记录，把用户与原始令牌注入 context；
// 后续的角色判定只看重新加载的记录，令牌里的 role 声明只是
// 签发时的快照，账号被删除后令牌立即失效。
//
// 已知取舍：这里不反查会话登记表，登出撤销的令牌在签名/时效
// 仍有效期间依旧可用，直到过期。
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractToken(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "access denied: no token provided")
			return
		}

		claims, err := ParseToken(h.cfg, token)
		if err != nil {
			log.Printf("[auth] token parse error: %v", err)
			writeError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		user, err := h.store.GetUserByID(r.Context(), claims.Subject)
		if err != nil {
			log.Printf("[auth] GetUserByID error: %v", err)
			writeError(w, http.StatusInternalServerError, "server error")
			return
		}
		if user == nil {
			writeError(w, http.StatusUnauthorized, "user not found")
			return
		}

		ctx := WithUser(r.Context(), user)
		ctx = WithToken(ctx, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole 角色守卫，要求已通过 Authenticate
func RequireRole(role model.UserRole, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := GetUser(r.Context())
		if user == nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		if user.Role != role {
			writeError(w, http.StatusForbidden, "access denied: "+string(role)+" privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminOnly 管理员专属路由
func (h *Handler) AdminOnly(next http.HandlerFunc) http.Handler {
	return h.Authenticate(RequireRole(model.UserRoleAdmin, next))
}

// OperatorOnly 运营方专属路由
func (h *Handler) OperatorOnly(next http.HandlerFunc) http.Handler {
	return h.Authenticate(RequireRole(model.UserRoleOperator, next))
}

// CommuterOnly 乘客专属路由
func (h *Handler) CommuterOnly(next http.HandlerFunc) http.Handler {
	return h.Authenticate(RequireRole(model.UserRoleCommuter, next))
}

// extractToken 从请求中提取令牌：Bearer 头优先，Cookie 兜底
func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
