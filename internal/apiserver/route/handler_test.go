package route

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

	"transit-admin/internal/apiserver/auth"
	"transit-admin/internal/shared/model"
	"transit-admin/internal/shared/storage"
)

// newTestEnv 构造带认证的路由；返回管理员与乘客令牌各一枚
func newTestEnv(t *testing.T) (*http.ServeMux, *storage.MemStore, string, string) {
	t.Helper()
	store := storage.NewMemStore()

	cfg := auth.DefaultConfig()
	cfg.JWTSecret = "test-secret"
	authHandler := auth.NewHandler(store, cfg)

	now := time.Now()
	for _, u := range []*model.User{
		{ID: "usr-admin", Email: "admin@x.com", PasswordHash: "irrelevant", Role: model.UserRoleAdmin, CreatedAt: now, UpdatedAt: now},
		{ID: "usr-commuter", Email: "c@x.com", PasswordHash: "irrelevant", Role: model.UserRoleCommuter, CreatedAt: now, UpdatedAt: now},
	} {
		require.NoError(t, store.CreateUser(context.Background(), u))
	}

	adminToken, err := auth.GenerateToken(cfg, "usr-admin", model.UserRoleAdmin)
	require.NoError(t, err)
	commuterToken, err := auth.GenerateToken(cfg, "usr-commuter", model.UserRoleCommuter)
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewHandler(store).RegisterRoutes(mux, authHandler)
	return mux, store, adminToken, commuterToken
}

func doJSON(t *testing.T, mux *http.ServeMux, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

func createRoute(t *testing.T, mux *http.ServeMux, token, number, start, end string) string {
	t.Helper()
	w := doJSON(t, mux, "POST", "/api/v1/admin/routes", token, map[string]any{
		"number": number, "start": start, "end": end, "total_distance": 100.5,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["route"].(map[string]any)["id"].(string)
}

func TestRouteCreate_Validation(t *testing.T) {
	mux, _, adminToken, _ := newTestEnv(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"缺少 number", map[string]any{"start": "A", "end": "B"}},
		{"缺少 start", map[string]any{"number": "R1", "end": "B"}},
		{"缺少 end", map[string]any{"number": "R1", "start": "A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, mux, "POST", "/api/v1/admin/routes", adminToken, tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRouteCreate_DuplicateNumber(t *testing.T) {
	mux, _, adminToken, _ := newTestEnv(t)

	createRoute(t, mux, adminToken, "R870", "Colombo", "Kandy")
	w := doJSON(t, mux, "POST", "/api/v1/admin/routes", adminToken, map[string]any{
		"number": "R870", "start": "Galle", "end": "Matara",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouteSearch(t *testing.T) {
	mux, _, adminToken, commuterToken := newTestEnv(t)

	id1 := createRoute(t, mux, adminToken, "R1", "Colombo", "Kandy")
	createRoute(t, mux, adminToken, "R2", "Colombo", "Galle")
	createRoute(t, mux, adminToken, "R3", "Jaffna", "Kandy")

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"无过滤条件返回全部", "", 3},
		{"按起点过滤", "?start=Colombo", 2},
		{"按终点过滤", "?end=Kandy", 2},
		{"起终点组合", "?start=Colombo&end=Kandy", 1},
		{"按 route_id 过滤", "?route_id=" + id1, 1},
		{"无匹配", "?start=Nowhere", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, mux, "GET", "/api/v1/admin/routes"+tt.query, adminToken, nil)
			require.Equal(t, http.StatusOK, w.Code)
			var list []map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
			assert.Len(t, list, tt.want)
		})
	}

	// 乘客走自己的路径得到同样的结果
	w := doJSON(t, mux, "GET", "/api/v1/commuter/routes?start=Colombo", commuterToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 2)
}

func TestRouteUpdateAndDelete(t *testing.T) {
	mux, _, adminToken, _ := newTestEnv(t)

	id := createRoute(t, mux, adminToken, "R5", "Colombo", "Kandy")

	w := doJSON(t, mux, "PUT", "/api/v1/admin/routes/"+id, adminToken, map[string]any{
		"end": "Nuwara Eliya", "total_distance": 180.0,
	})
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Nuwara Eliya", body["route"].(map[string]any)["end"])

	w = doJSON(t, mux, "DELETE", "/api/v1/admin/routes/"+id, adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, mux, "DELETE", "/api/v1/admin/routes/"+id, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouteRoles(t *testing.T) {
	mux, _, _, commuterToken := newTestEnv(t)

	// 乘客不能走管理路径
	w := doJSON(t, mux, "POST", "/api/v1/admin/routes", commuterToken, map[string]any{
		"number": "R9", "start": "A", "end": "B",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 乘客路径对乘客开放
	w = doJSON(t, mux, "GET", "/api/v1/commuter/routes", commuterToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
