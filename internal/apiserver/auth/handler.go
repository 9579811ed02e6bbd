package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"

	"transit-admin/internal/shared/model"
	"transit-admin/internal/shared/storage"
)

// UserStore 用户与会话存储接口
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	AddSessionToken(ctx context.Context, userID string, tok model.SessionToken) error
	RemoveSessionToken(ctx context.Context, userID, token string) error
}

// Handler 认证 HTTP 处理器
type Handler struct {
	store UserStore
	cfg   Config
}

// NewHandler 创建认证处理器
func NewHandler(store UserStore, cfg Config) *Handler {
	return &Handler{store: store, cfg: cfg}
}

// RegisterRoutes 注册认证相关路由
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/auth/register", h.Register)
	mux.HandleFunc("POST /api/v1/auth/login", h.Login)
	mux.Handle("POST /api/v1/auth/logout", h.Authenticate(http.HandlerFunc(h.Logout)))
}

// ============================================================================
// 请求/响应类型
// ============================================================================

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Message string           `json:"message"`
	Token   string           `json:"token"`
	User    model.PublicUser `json:"user"`
}

// ============================================================================
// Handlers
// ============================================================================

// Register 用户注册
//
// 重复 email 返回 400；注册成功即签发令牌并记录会话，
// 与登录遵循同一会话记录策略。
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" || req.Role == "" {
		writeError(w, http.StatusBadRequest, "email, password, role are required")
		return
	}
	if !isValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "invalid email format")
		return
	}
	if len(req.Password) < 8 {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}
	role := model.UserRole(req.Role)
	if !model.ValidRole(role) {
		writeError(w, http.StatusBadRequest, "role must be admin, operator or commuter")
		return
	}

	// 检查邮箱是否已注册
	existing, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[auth.register] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if existing != nil {
		writeError(w, http.StatusBadRequest, "user already exists with this email")
		return
	}

	// 哈希密码
	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Printf("[auth.register] HashPassword error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	now := time.Now()
	user := &model.User{
		ID:           generateUserID(),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		// 存在性检查与插入之间的竞态由唯一索引兜底
		if errors.Is(err, storage.ErrDuplicate) {
			writeError(w, http.StatusBadRequest, "user already exists with this email")
			return
		}
		log.Printf("[auth.register] CreateUser error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	token, err := h.issueSession(r.Context(), user)
	if err != nil {
		log.Printf("[auth.register] issue session error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	log.Printf("[auth] User registered: %s (%s, role=%s)", user.Email, user.ID, user.Role)
	writeJSON(w, http.StatusCreated, authResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    user.Public(),
	})
}

// Login 用户登录
//
// 未知邮箱与密码错误返回同一错误，避免账号枚举。
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		log.Printf("[auth.login] GetUserByEmail error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}
	if user == nil || !CheckPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusBadRequest, "invalid email or password")
		return
	}

	token, err := h.issueSession(r.Context(), user)
	if err != nil {
		log.Printf("[auth.login] issue session error: %v", err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	// 双通道下发：浏览器走 Cookie，API 客户端读响应体
	h.setSessionCookie(w, token)

	log.Printf("[auth] User logged in: %s", user.Email)
	writeJSON(w, http.StatusOK, authResponse{
		Message: "Login successful",
		Token:   token,
		User:    user.Public(),
	})
}

// Logout 用户登出
//
// 清除 Cookie 并撤销会话；用户记录缺失时记日志但仍然返回成功。
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user := GetUser(r.Context())
	token := GetToken(r.Context())

	h.clearSessionCookie(w)

	if err := h.store.RemoveSessionToken(r.Context(), user.ID, token); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.Printf("[auth.logout] user %s no longer exists, treating logout as success", user.ID)
		} else {
			log.Printf("[auth.logout] RemoveSessionToken error: %v", err)
			writeError(w, http.StatusInternalServerError, "server error")
			return
		}
	}

	log.Printf("[auth] User logged out: %s", user.Email)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// issueSession 签发令牌并写入会话登记表
func (h *Handler) issueSession(ctx context.Context, user *model.User) (string, error) {
	token, err := GenerateToken(h.cfg, user.ID, user.Role)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	now := time.Now()
	tok := model.SessionToken{
		Token:     token,
		IssuedAt:  now,
		ExpiresAt: now.Add(h.cfg.TokenTTL),
	}
	if err := h.store.AddSessionToken(ctx, user.ID, tok); err != nil {
		return "", fmt.Errorf("record session: %w", err)
	}
	return token, nil
}

// ============================================================================
// Cookie
// ============================================================================

func (h *Handler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		Expires:  time.Now().Add(h.cfg.TokenTTL),
		MaxAge:   int(h.cfg.TokenTTL.Seconds()),
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cfg.SecureCookies,
		MaxAge:   -1,
	})
}

// ============================================================================
// Admin Bootstrap
// ============================================================================

// EnsureAdminUser 确保管理员用户存在（启动时调用）
// 如果配置了 adminEmail 且数据库中不存在该用户，则自动创建
func EnsureAdminUser(store UserStore, adminEmail, adminPassword string) error {
	if adminEmail == "" || adminPassword == "" {
		return nil
	}

	ctx := context.Background()
	existing, err := store.GetUserByEmail(ctx, adminEmail)
	if err != nil {
		return fmt.Errorf("check admin user: %w", err)
	}
	if existing != nil {
		log.Printf("[auth] Admin user already exists: %s (%s)", adminEmail, existing.ID)
		return nil
	}

	hash, err := HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	now := time.Now()
	user := &model.User{
		ID:           generateUserID(),
		Email:        adminEmail,
		PasswordHash: hash,
		Role:         model.UserRoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	log.Printf("[auth] Created admin user: %s (%s)", adminEmail, user.ID)
	return nil
}

// ============================================================================
// 工具函数
// ============================================================================

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func isValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

func generateUserID() string {
	return "usr-" + uuid.NewString()
}
