// Package operator 运营方账号管理 - HTTP 处理
package operator

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"transit-admin/internal/apiserver/auth"
	"transit-admin/internal/shared/model"
	"transit-admin/internal/shared/storage"
)

// Handler 运营方账号管理 HTTP 处理器
type Handler struct {
	store storage.UserStore
}

// NewHandler 创建运营方账号处理器
func NewHandler(store storage.UserStore) *Handler {
	return &Handler{store: store}
}

// RegisterRoutes 注册运营方账号路由（全部管理员专属）
func (h *Handler) RegisterRoutes(mux *http.ServeMux, a *auth.Handler) {
	mux.Handle("POST /api/v1/admin/operators", a.AdminOnly(h.Create))
	mux.Handle("GET /api/v1/admin/operators", a.AdminOnly(h.List))
	mux.Handle("PUT /api/v1/admin/operators/{id}", a.AdminOnly(h.Update))
	mux.Handle("DELETE /api/v1/admin/operators/{id}", a.AdminOnly(h.Delete))
}

type createRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateRequest struct {
	Email string `json:"email"`
}

// publicView 运营方账号的对外视图
func publicView(u *model.User) model.PublicUser {
	return u.Public()
}

// Create 新增运营方账号，角色强制为 operator
// POST /api/v1/admin/operators
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	existing, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[operator.create] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusBadRequest, "operator with this email already exists")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("[operator.create] HashPassword error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	now := time.Now()
	op := &model.User{
		ID:           "usr-" + uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.UserRoleOperator,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.store.CreateUser(r.Context(), op); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "operator with this email already exists")
			return
		}
		log.Printf("[operator.create] CreateUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	log.Printf("[operator] Operator added: %s (%s)", op.Email, op.ID)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Operator added successfully",
		"operator": publicView(op),
	})
}

// List 列出所有运营方账号
// GET /api/v1/admin/operators
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ops, err := h.store.ListOperators(r.Context())
	if err != nil {
		log.Printf("[operator.list] ListOperators error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	views := make([]model.PublicUser, 0, len(ops))
	for _, op := range ops {
		views = append(views, publicView(op))
	}
	writeJSON(w, http.StatusOK, views)
}

// Update 更新运营方账号
// PUT /api/v1/admin/operators/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email != "" && !isValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "invalid email format")
		return
	}

	op, err := h.store.UpdateOperator(r.Context(), id, req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "operator not found")
			return
		}
		log.Printf("[operator.update] UpdateOperator error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Operator updated successfully",
		"operator": publicView(op),
	})
}

// Delete 删除运营方账号
// DELETE /api/v1/admin/operators/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	if err := h.store.DeleteOperator(r.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(w, http.StatusNotFound, "operator not found")
			return
		}
		log.Printf("[operator.delete] DeleteOperator error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	log.Printf("[operator] Operator deleted: %s", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Operator deleted successfully"})
}
