// Package bus 车辆领域 - HTTP 处理
package bus

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

// Handler 车辆领域 HTTP 处理器
type Handler struct {
	store storage.BusStore
}

// NewHandler 创建车辆处理器
func NewHandler(store storage.BusStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册车辆相关路由（全部管理员专属）
func (h *Handler) RegisterRoutes(mux *http.ServeMux, a *auth.Handler) {
	mux.Handle("POST /api/v1/admin/buses", a.AdminOnly(h.Create))
	mux.Handle("GET /api/v1/admin/buses", a.AdminOnly(h.List))
	mux.Handle("GET /api/v1/admin/buses/{ntcNo}", a.AdminOnly(h.Get))
	mux.Handle("PUT /api/v1/admin/buses/{ntcNo}", a.AdminOnly(h.Update))
	mux.Handle("DELETE /api/v1/admin/buses/{ntcNo}", a.AdminOnly(h.Delete))
}

type createRequest struct {
	NTCNo       string `json:"ntc_no"`
	BusNo       string `json:"bus_no"`
	DriverID    string `json:"driver_id"`
	ConductorID string `json:"conductor_id"`
	BusType     string `json:"bus_type"`
	BusName     string `json:"bus_name"`
	RouteID     string `json:"route_id"`
}

// Create 新增车辆
// POST /api/v1/admin/buses
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.NTCNo == "" || req.BusNo == "" {
		writeError(w, http.StatusBadRequest, "ntc_no and bus_no are required")
		return
	}

	existing, err := h.store.GetBusByNTCNo(r.Context(), req.NTCNo)
	if err != nil {
		log.Printf("[bus.create] GetBusByNTCNo error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusBadRequest, "bus with this NTC number already exists")
		return
	}

	now := time.Now()
	bus := &model.Bus{
		ID:          generateID("bus"),
		NTCNo:       req.NTCNo,
		BusNo:       req.BusNo,
		DriverID:    req.DriverID,
		ConductorID: req.ConductorID,
		BusType:     model.BusType(req.BusType),
		BusName:     req.BusName,
		RouteID:     req.RouteID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.store.CreateBus(r.Context(), bus); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "bus with this NTC number already exists")
			return
		}
		log.Printf("[bus.create] CreateBus error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	log.Printf("[bus] Bus added: %s (%s)", bus.NTCNo, bus.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Bus added successfully",
		"bus":     bus,
	})
}

// List 列出所有车辆
// GET /api/v1/admin/buses
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	buses, err := h.store.ListBuses(r.Context())
	if err != nil {
		log.Printf("[bus.list] ListBuses error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	writeJSON(w, http.StatusOK, buses)
}

// Get 按 NTC 编号获取车辆
// GET /api/v1/admin/buses/{ntcNo}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ntcNo := r.PathValue("ntcNo")

	bus, err := h.store.GetBusByNTCNo(r.Context(), ntcNo)
	if err != nil {
		log.Printf("[bus.get] GetBusByNTCNo error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if bus == nil {
		writeError(w, http.StatusNotFound, "bus not found")
		return
	}
	writeJSON(w, http.StatusOK, bus)
}

// Update 按 NTC 编号更新车辆
// PUT /api/v1/admin/buses/{ntcNo}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ntcNo := r.PathValue("ntcNo")

	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	bus, err := h.store.UpdateBusByNTCNo(r.Context(), ntcNo, updates)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "bus not found")
			return
		}
		log.Printf("[bus.update] UpdateBusByNTCNo error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Bus updated successfully",
		"bus":     bus,
	})
}

// Delete 按 NTC 编号删除车辆
// DELETE /api/v1/admin/buses/{ntcNo}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ntcNo := r.PathValue("ntcNo")

	if err := h.store.DeleteBusByNTCNo(r.Context(), ntcNo); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "bus not found")
			return
		}
		log.Printf("[bus.delete] DeleteBusByNTCNo error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	log.Printf("[bus] Bus deleted: %s", ntcNo)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Bus deleted successfully"})
}
