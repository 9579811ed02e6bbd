package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"transit-admin/internal/shared/model"
	"transit-admin/internal/shared/storage"
)

func seedUser(t *testing.T, store *storage.MemStore, id, email string, role model.UserRole) *model.User {
	t.Helper()
	now := time.Now()
	user := &model.User{
		ID: id, Email: email,
		PasswordHash: "irrelevant",
		Role:         role,
		CreatedAt:    now, UpdatedAt: now,
	}
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user
}

// echoUser 把 context 中的认证用户 ID 写回响应，便于断言
func echoUser(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r.Context())
	w.Write([]byte(user.ID))
}

func TestAuthenticate_TokenExtraction(t *testing.T) {
	store := storage.NewMemStore()
	h := NewHandler(store, testConfig())
	seedUser(t, store, "usr-header", "h@x.com", model.UserRoleCommuter)
	seedUser(t, store, "usr-cookie", "c@x.com", model.UserRoleCommuter)

	headerToken, _ := GenerateToken(h.cfg, "usr-header", model.UserRoleCommuter)
	cookieToken, _ := GenerateToken(h.cfg, "usr-cookie", model.UserRoleCommuter)

	handler := h.Authenticate(http.HandlerFunc(echoUser))

	tests := []struct {
		name       string
		bearer     string
		cookie     string
		wantStatus int
		wantBody   string
	}{
		{"仅 Bearer 头", headerToken, "", http.StatusOK, "usr-header"},
		{"仅 Cookie", "", cookieToken, http.StatusOK, "usr-cookie"},
		{"两者都有时 Bearer 优先", headerToken, cookieToken, http.StatusOK, "usr-header"},
		{"无令牌", "", "", http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/protected", nil)
			if tt.bearer != "" {
				r.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			if tt.cookie != "" {
				r.AddCookie(&http.Cookie{Name: CookieName, Value: tt.cookie})
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
			if tt.wantBody != "" && w.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", w.Body.String(), tt.wantBody)
			}
		})
	}
}

func TestAuthenticate_Rejections(t *testing.T) {
	store := storage.NewMemStore()
	h := NewHandler(store, testConfig())
	seedUser(t, store, "usr-001", "a@x.com", model.UserRoleCommuter)

	expiredCfg := h.cfg
	expiredCfg.TokenTTL = -time.Minute
	expiredToken, _ := GenerateToken(expiredCfg, "usr-001", model.UserRoleCommuter)

	otherCfg := h.cfg
	otherCfg.JWTSecret = "another-secret"
	forgedToken, _ := GenerateToken(otherCfg, "usr-001", model.UserRoleCommuter)

	// 签名/时效有效但用户已被删除
	vanishedToken, _ := GenerateToken(h.cfg, "usr-gone", model.UserRoleCommuter)

	handler := h.Authenticate(http.HandlerFunc(echoUser))

	tests := []struct {
		name  string
		token string
	}{
		{"过期令牌", expiredToken},
		{"伪造签名", forgedToken},
		{"格式非法", "garbage"},
		{"用户已不存在", vanishedToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/protected", nil)
			r.Header.Set("Authorization", "Bearer "+tt.token)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)

			// 所有令牌类失败统一折叠为 401
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	store := storage.NewMemStore()
	h := NewHandler(store, testConfig())
	seedUser(t, store, "usr-admin", "admin@x.com", model.UserRoleAdmin)
	seedUser(t, store, "usr-commuter", "c@x.com", model.UserRoleCommuter)

	adminToken, _ := GenerateToken(h.cfg, "usr-admin", model.UserRoleAdmin)
	commuterToken, _ := GenerateToken(h.cfg, "usr-commuter", model.UserRoleCommuter)

	adminRoute := h.AdminOnly(echoUser)
	operatorRoute := h.OperatorOnly(echoUser)
	commuterRoute := h.CommuterOnly(echoUser)

	tests := []struct {
		name       string
		handler    http.Handler
		token      string
		wantStatus int
	}{
		{"admin 通过 admin 守卫", adminRoute, adminToken, http.StatusOK},
		{"commuter 被 admin 守卫拒绝", adminRoute, commuterToken, http.StatusForbidden},
		{"admin 被 operator 守卫拒绝", operatorRoute, adminToken, http.StatusForbidden},
		{"commuter 通过 commuter 守卫", commuterRoute, commuterToken, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/protected", nil)
			r.Header.Set("Authorization", "Bearer "+tt.token)
			w := httptest.NewRecorder()
			tt.handler.ServeHTTP(w, r)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d (%s)", w.Code, tt.wantStatus, w.Body.String())
			}
		})
	}
}

// TestRequireRole_UsesStoredRole 角色判定只看重新加载的用户记录，
// 不信任令牌里签发时刻的 role 快照
func TestRequireRole_UsesStoredRole(t *testing.T) {
	store := storage.NewMemStore()
	h := NewHandler(store, testConfig())

	// 存储中的角色是 admin，但令牌携带的是过期的 commuter 快照
	seedUser(t, store, "usr-001", "a@x.com", model.UserRoleAdmin)
	staleToken, _ := GenerateToken(h.cfg, "usr-001", model.UserRoleCommuter)

	r := httptest.NewRequest("GET", "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+staleToken)
	w := httptest.NewRecorder()
	h.AdminOnly(echoUser).ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Errorf("admin route with stale claim: status = %d, want 200", w.Code)
	}

	// 反向：快照是 commuter，存储角色是 admin，commuter 守卫应拒绝
	w = httptest.NewRecorder()
	h.CommuterOnly(echoUser).ServeHTTP(w, r)
	if w.Code != http.StatusForbidden {
		t.Errorf("commuter route with admin stored role: status = %d, want 403", w.Code)
	}
}
