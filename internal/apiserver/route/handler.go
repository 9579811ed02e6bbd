// Package route 班线领域 - HTTP 处理
package route

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"transit-admin/internal/apiserver/auth"
	"transit-admin/internal/shared/model"
	"transit-admin/internal/shared/storage"
)

// Handler 班线领域 HTTP 处理器
type Handler struct {
	store storage.RouteStore
}

// NewHandler 创建班线处理器
func NewHandler(store storage.RouteStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册班线相关路由
//
// 管理路径为管理员专属；乘客可通过 commuter 路径搜索班线。
func (h *Handler) RegisterRoutes(mux *http.ServeMux, a *auth.Handler) {
	mux.Handle("POST /api/v1/admin/routes", a.AdminOnly(h.Create))
	mux.Handle("GET /api/v1/admin/routes", a.AdminOnly(h.Search))
	mux.Handle("PUT /api/v1/admin/routes/{id}", a.AdminOnly(h.Update))
	mux.Handle("DELETE /api/v1/admin/routes/{id}", a.AdminOnly(h.Delete))

	mux.Handle("GET /api/v1/commuter/routes", a.CommuterOnly(h.Search))
}

type createRequest struct {
	Number        string  `json:"number"`
	Start         string  `json:"start"`
	End           string  `json:"end"`
	TotalDistance float64 `json:"total_distance"`
}

// Create 新建班线
// POST /api/v1/admin/routes
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Number == "" || req.Start == "" || req.End == "" {
		writeError(w, http.StatusBadRequest, "number, start and end are required")
		return
	}

	existing, err := h.store.GetRouteByNumber(r.Context(), req.Number)
	if err != nil {
		log.Printf("[route.create] GetRouteByNumber error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusBadRequest, "route number already exists")
		return
	}

	now := time.Now()
	route := &model.Route{
		ID:            generateID("rt"),
		Number:        req.Number,
		Start:         req.Start,
		End:           req.End,
		TotalDistance: req.TotalDistance,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := h.store.CreateRoute(r.Context(), route); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "route number already exists")
			return
		}
		log.Printf("[route.create] CreateRoute error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	log.Printf("[route] Route created: %s (%s)", route.Number, route.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Route created successfully",
		"route":   route,
	})
}

// Search 按 route_id / start / end 搜索班线
// GET /api/v1/admin/routes
// GET /api/v1/commuter/routes
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.RouteFilter{
		ID:    q.Get("route_id"),
		Start: q.Get("start"),
		End:   q.Get("end"),
	}

	routes, err := h.store.SearchRoutes(r.Context(), filter)
	if err != nil {
		log.Printf("[route.search] SearchRoutes error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, routes)
}

// Update 更新班线
// PUT /api/v1/admin/routes/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	route, err := h.store.UpdateRoute(r.Context(), id, updates)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "route not found")
			return
		}
		log.Printf("[route.update] UpdateRoute error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Route updated successfully",
		"route":   route,
	})
}

// Delete 删除班线
// DELETE /api/v1/admin/routes/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.store.DeleteRoute(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "route not found")
			return
		}
		log.Printf("[route.delete] DeleteRoute error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	log.Printf("[route] Route deleted: %s", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Route deleted successfully"})
}
