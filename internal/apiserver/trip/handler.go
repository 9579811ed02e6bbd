// Package trip 班次领域 - HTTP 处理
package trip

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"transit-admin/internal/apiserver/auth"
	"transit-admin/internal/shared/cache"
	"transit-admin/internal/shared/model"
	"transit-admin/internal/shared/storage"
)

// Handler 班次领域 HTTP 处理器
type Handler struct {
	store  storage.TripStore
	routes storage.RouteStore
	buses  storage.BusStore
	cache  cache.TripCache
}

// NewHandler 创建班次处理器
//
// 创建班次需要校验班线与车辆存在，因此额外依赖两者的只读存储。
func NewHandler(store storage.TripStore, routes storage.RouteStore, buses storage.BusStore, tc cache.TripCache) *Handler {
	if tc == nil {
		tc = cache.NewNoOpTripCache()
	}
	return &Handler{store: store, routes: routes, buses: buses, cache: tc}
}

// RegisterRoutes 注册班次相关路由
//
// 写操作为管理员专属；运营方与乘客分别经各自路径读取班次列表。
func (h *Handler) RegisterRoutes(mux *http.ServeMux, a *auth.Handler) {
	mux.Handle("POST /api/v1/admin/trips", a.AdminOnly(h.Create))
	mux.Handle("GET /api/v1/admin/trips", a.AdminOnly(h.List))
	mux.Handle("PUT /api/v1/admin/trips/{tripId}", a.AdminOnly(h.Update))
	mux.Handle("POST /api/v1/admin/trips/{tripId}/cancel", a.AdminOnly(h.Cancel))

	mux.Handle("GET /api/v1/operator/trips", a.OperatorOnly(h.List))
	mux.Handle("GET /api/v1/commuter/trips", a.CommuterOnly(h.List))
}

type createRequest struct {
	TripID     string `json:"trip_id"`
	RouteID    string `json:"route_id"`
	BusID      string `json:"bus_id"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Date       string `json:"date"`
	TotalSeats int    `json:"total_seats"`
}

// Create 新增班次
// POST /api/v1/admin/trips
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TripID == "" || req.RouteID == "" || req.BusID == "" {
		writeError(w, http.StatusBadRequest, "trip_id, route_id and bus_id are required")
		return
	}

	// 班线与车辆必须已存在
	route, err := h.routes.GetRouteByID(r.Context(), req.RouteID)
	if err != nil {
		log.Printf("[trip.create] GetRouteByID error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if route == nil {
		writeError(w, http.StatusNotFound, "route not found")
		return
	}

	bus, err := h.buses.GetBusByID(r.Context(), req.BusID)
	if err != nil {
		log.Printf("[trip.create] GetBusByID error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if bus == nil {
		writeError(w, http.StatusNotFound, "bus not found")
		return
	}

	existing, err := h.store.GetTripByTripID(r.Context(), req.TripID)
	if err != nil {
		log.Printf("[trip.create] GetTripByTripID error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusBadRequest, "trip with this ID already exists")
		return
	}

	now := time.Now()
	trip := &model.Trip{
		ID:               generateID("trp"),
		TripID:           req.TripID,
		RouteID:          req.RouteID,
		BusID:            req.BusID,
		StartTime:        req.StartTime,
		EndTime:          req.EndTime,
		Date:             req.Date,
		TotalSeats:       req.TotalSeats,
		AvailableSeats:   req.TotalSeats,
		BookedSeats:      []int{},
		NotProvidedSeats: []int{},
		Status:           model.TripStatusScheduled,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := h.store.CreateTrip(r.Context(), trip); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "trip with this ID already exists")
			return
		}
		log.Printf("[trip.create] CreateTrip error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	h.invalidateCache(r)

	log.Printf("[trip] Trip added: %s (%s)", trip.TripID, trip.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Trip added successfully",
		"trip":    trip,
	})
}

// List 列出所有班次，优先走缓存
// GET /api/v1/admin/trips
// GET /api/v1/operator/trips
// GET /api/v1/commuter/trips
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if trips, err := h.cache.GetTripList(r.Context()); err != nil {
		// 缓存故障降级为直接查库
		log.Printf("[trip.list] cache read error: %v", err)
	} else if trips != nil {
		writeJSON(w, http.StatusOK, trips)
		return
	}

	trips, err := h.store.ListTrips(r.Context())
	if err != nil {
		log.Printf("[trip.list] ListTrips error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	if err := h.cache.SetTripList(r.Context(), trips); err != nil {
		log.Printf("[trip.list] cache write error: %v", err)
	}
	writeJSON(w, http.StatusOK, trips)
}

// Update 更新班次
// PUT /api/v1/admin/trips/{tripId}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("tripId")

	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	trip, err := h.store.UpdateTripByTripID(r.Context(), tripID, updates)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "trip not found")
			return
		}
		log.Printf("[trip.update] UpdateTripByTripID error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	h.invalidateCache(r)

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Trip updated successfully",
		"trip":    trip,
	})
}

// Cancel 取消班次（状态置为 cancelled，不删除记录）
// POST /api/v1/admin/trips/{tripId}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	tripID := r.PathValue("tripId")

	trip, err := h.store.UpdateTripByTripID(r.Context(), tripID, map[string]any{
		"status": string(model.TripStatusCancelled),
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "trip not found")
			return
		}
		log.Printf("[trip.cancel] UpdateTripByTripID error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	h.invalidateCache(r)

	log.Printf("[trip] Trip cancelled: %s", tripID)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Trip canceled successfully",
		"trip":    trip,
	})
}

func (h *Handler) invalidateCache(r *http.Request) {
	if err := h.cache.InvalidateTripList(r.Context()); err != nil {
		log.Printf("[trip] cache invalidate error: %v", err)
	}
}
