package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transit-admin/internal/shared/model"
	"transit-admin/internal/shared/storage"
)

func newTestHandler(t *testing.T) (*Handler, *storage.MemStore) {
	t.Helper()
	store := storage.NewMemStore()
	return NewHandler(store, testConfig()), store
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path string, body any, opts ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	for _, opt := range opts {
		opt(req)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	return m
}

func withBearer(token string) func(*http.Request) {
	return func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	}
}

func TestRegister_ThenLogin(t *testing.T) {
	h, store := newTestHandler(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	w := doJSON(t, mux, "POST", "/api/v1/auth/register", map[string]string{
		"email": "a@x.com", "password": "pw123456", "role": "commuter",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reg := decodeBody(t, w)
	t1, _ := reg["token"].(string)
	require.NotEmpty(t, t1)

	// 注册签发的令牌应解析回同一用户与角色
	claims, err := ParseToken(h.cfg, t1)
	require.NoError(t, err)
	assert.Equal(t, "commuter", claims.Role)

	user, err := store.GetUserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, claims.Subject, user.ID)
	// 注册与登录遵循同一会话记录策略：注册也写入会话登记表
	require.Len(t, user.SessionTokens, 1)
	assert.Equal(t, t1, user.SessionTokens[0].Token)

	// 密码不以明文存储
	assert.NotEqual(t, "pw123456", user.PasswordHash)
	assert.True(t, CheckPassword("pw123456", user.PasswordHash))

	w = doJSON(t, mux, "POST", "/api/v1/auth/login", map[string]string{
		"email": "a@x.com", "password": "pw123456",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decodeBody(t, w)
	t2, _ := login["token"].(string)
	require.NotEmpty(t, t2)
	assert.NotEqual(t, t1, t2)

	claims2, err := ParseToken(h.cfg, t2)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims2.Subject)
	assert.Equal(t, "commuter", claims2.Role)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	h, store := newTestHandler(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	w := doJSON(t, mux, "POST", "/api/v1/auth/register", map[string]string{
		"email": "a@x.com", "password": "pw123456", "role": "commuter",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, mux, "POST", "/api/v1/auth/register", map[string]string{
		"email": "a@x.com", "password": "other-password", "role": "operator",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "user already exists with this email", decodeBody(t, w)["error"])

	// 首个用户不受影响
	user, err := store.GetUserByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, model.UserRoleCommuter, user.Role)
	assert.True(t, CheckPassword("pw123456", user.PasswordHash))
}

func TestRegister_Validation(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"缺少字段", map[string]string{"email": "a@x.com"}},
		{"邮箱格式错误", map[string]string{"email": "not-an-email", "password": "pw123456", "role": "commuter"}},
		{"密码过短", map[string]string{"email": "a@x.com", "password": "short", "role": "commuter"}},
		{"角色不在枚举内", map[string]string{"email": "a@x.com", "password": "pw123456", "role": "superuser"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, mux, "POST", "/api/v1/auth/register", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

// TestLogin_NonEnumerable 未知邮箱与密码错误返回完全一致的响应
func TestLogin_NonEnumerable(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	w := doJSON(t, mux, "POST", "/api/v1/auth/register", map[string]string{
		"email": "a@x.com", "password": "pw123456", "role": "commuter",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	wrongPw := doJSON(t, mux, "POST", "/api/v1/auth/login", map[string]string{
		"email": "a@x.com", "password": "bad-password",
	})
	noUser := doJSON(t, mux, "POST", "/api/v1/auth/login", map[string]string{
		"email": "nobody@x.com", "password": "pw123456",
	})

	assert.Equal(t, http.StatusBadRequest, wrongPw.Code)
	assert.Equal(t, wrongPw.Code, noUser.Code)
	assert.Equal(t, wrongPw.Body.String(), noUser.Body.String())
}

func TestLogin_SetsSessionCookie(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	doJSON(t, mux, "POST", "/api/v1/auth/register", map[string]string{
		"email": "a@x.com", "password": "pw123456", "role": "commuter",
	})
	w := doJSON(t, mux, "POST", "/api/v1/auth/login", map[string]string{
		"email": "a@x.com", "password": "pw123456",
	})
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, CookieName, c.Name)
	assert.NotEmpty(t, c.Value)
	assert.True(t, c.HttpOnly)
	assert.False(t, c.Secure) // 非生产配置
	assert.Equal(t, int(time.Hour.Seconds()), c.MaxAge)
	assert.Equal(t, decodeBody(t, w)["token"], c.Value)
}

func TestLogin_SecureCookieInProduction(t *testing.T) {
	store := storage.NewMemStore()
	cfg := testConfig()
	cfg.SecureCookies = true
	h := NewHandler(store, cfg)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	doJSON(t, mux, "POST", "/api/v1/auth/register", map[string]string{
		"email": "a@x.com", "password": "pw123456", "role": "commuter",
	})
	w := doJSON(t, mux, "POST", "/api/v1/auth/login", map[string]string{
		"email": "a@x.com", "password": "pw123456",
	})
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.True(t, cookies[0].Secure)
}

// TestLogout_RevokesOnlyPresentedToken 注册得 T1，登录得 T2，
// 用 T2 登出后登记表只剩 T1，两个令牌的签名/时效均不受影响
func TestLogout_RevokesOnlyPresentedToken(t *testing.T) {
	h, store := newTestHandler(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	w := doJSON(t, mux, "POST", "/api/v1/auth/register", map[string]string{
		"email": "a@x.com", "password": "pw123456", "role": "commuter",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	t1 := decodeBody(t, w)["token"].(string)

	w = doJSON(t, mux, "POST", "/api/v1/auth/login", map[string]string{
		"email": "a@x.com", "password": "pw123456",
	})
	require.Equal(t, http.StatusOK, w.Code)
	t2 := decodeBody(t, w)["token"].(string)
	require.NotEqual(t, t1, t2)

	user, _ := store.GetUserByEmail(context.Background(), "a@x.com")
	require.Len(t, user.SessionTokens, 2)

	w = doJSON(t, mux, "POST", "/api/v1/auth/logout", nil, withBearer(t2))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Cookie 被清除
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, CookieName, cookies[0].Name)
	assert.Less(t, cookies[0].MaxAge, 0)

	// 登记表只剩 T1；T2 在密码学意义上仍有效（已知取舍）
	user, _ = store.GetUserByID(context.Background(), user.ID)
	require.Len(t, user.SessionTokens, 1)
	assert.Equal(t, t1, user.SessionTokens[0].Token)
	_, err := ParseToken(h.cfg, t2)
	assert.NoError(t, err)
}

func TestLogout_WithoutToken(t *testing.T) {
	h, _ := newTestHandler(t)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	w := doJSON(t, mux, "POST", "/api/v1/auth/logout", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestEnsureAdminUser(t *testing.T) {
	store := storage.NewMemStore()

	require.NoError(t, EnsureAdminUser(store, "admin@ntc.lk", "admin-pw-123"))
	user, err := store.GetUserByEmail(context.Background(), "admin@ntc.lk")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, model.UserRoleAdmin, user.Role)

	// 再次调用是幂等的
	require.NoError(t, EnsureAdminUser(store, "admin@ntc.lk", "admin-pw-123"))

	// 未配置时跳过
	require.NoError(t, EnsureAdminUser(store, "", ""))
}
