// Package server 路由配置与核心基础设施
//
// 本文件定义 HTTP API 路由，将请求分发到各领域独立包。
// 仍保留在本包的模块：
//   - metrics.go: Prometheus 指标
package server

import (
	"net/http"

	"transit-admin/internal/apiserver/auth"
	"transit-admin/internal/apiserver/bus"
	"transit-admin/internal/apiserver/operator"
	"transit-admin/internal/apiserver/route"
	"transit-admin/internal/apiserver/trip"
	"transit-admin/internal/shared/cache"
	"transit-admin/internal/shared/storage"
)

// Handler API 处理器
//
// Handler 是所有 HTTP API 的入口，负责：
//   - 路由请求到对应的处理函数
//   - 管理存储层连接
//   - 维护 Prometheus 指标
type Handler struct {
	store      storage.PersistentStore // MongoDB 存储层（持久化业务数据）
	tripCache  cache.TripCache         // 车次列表缓存（Redis，可选）
	authConfig auth.Config             // 认证配置
	metrics    *Metrics                // Prometheus 指标
}

// NewHandler 创建 Handler 实例
func NewHandler(store storage.PersistentStore, tripCache cache.TripCache, authCfg auth.Config) *Handler {
	if tripCache == nil {
		tripCache = cache.NewNoOpTripCache()
	}
	return &Handler{
		store:      store,
		tripCache:  tripCache,
		authConfig: authCfg,
		metrics:    NewMetrics("transit_admin"),
	}
}

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health - 服务健康检查
//
// 认证 (Auth):
//   - POST /api/v1/auth/register - 注册用户
//   - POST /api/v1/auth/login    - 登录
//   - POST /api/v1/auth/logout   - 登出（撤销会话令牌）
//
// 车辆管理 (Bus, 仅管理员):
//   - POST   /api/v1/admin/buses          - 添加车辆
//   - GET    /api/v1/admin/buses          - 列出车辆
//   - GET    /api/v1/admin/buses/{ntcNo}  - 获取车辆详情
//   - PUT    /api/v1/admin/buses/{ntcNo}  - 更新车辆
//   - DELETE /api/v1/admin/buses/{ntcNo}  - 删除车辆
//
// 线路管理 (Route):
//   - POST   /api/v1/admin/routes       - 添加线路（管理员）
//   - GET    /api/v1/admin/routes       - 查询线路（管理员）
//   - PUT    /api/v1/admin/routes/{id}  - 更新线路（管理员）
//   - DELETE /api/v1/admin/routes/{id}  - 删除线路（管理员）
//   - GET    /api/v1/commuter/routes    - 查询线路（乘客）
//
// 车次管理 (Trip):
//   - POST /api/v1/admin/trips                 - 排班车次（管理员）
//   - GET  /api/v1/admin/trips                 - 列出车次（管理员）
//   - PUT  /api/v1/admin/trips/{tripId}        - 更新车次（管理员）
//   - POST /api/v1/admin/trips/{tripId}/cancel - 取消车次（管理员）
//   - GET  /api/v1/operator/trips              - 列出车次（运营方）
//   - GET  /api/v1/commuter/trips              - 列出车次（乘客）
//
// 运营方账户管理 (Operator, 仅管理员):
//   - POST   /api/v1/admin/operators      - 创建运营方账户
//   - GET    /api/v1/admin/operators      - 列出运营方账户
//   - PUT    /api/v1/admin/operators/{id} - 更新运营方账户
//   - DELETE /api/v1/admin/operators/{id} - 删除运营方账户
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	// Auth 路由（认证中间件由各资源路由按需包裹）
	authHandler := auth.NewHandler(h.store, h.authConfig)
	authHandler.RegisterRoutes(mux)

	// Bus 接口
	busHandler := bus.NewHandler(h.store)
	busHandler.RegisterRoutes(mux, authHandler)

	// Route 接口
	routeHandler := route.NewHandler(h.store)
	routeHandler.RegisterRoutes(mux, authHandler)

	// Trip 接口
	tripHandler := trip.NewHandler(h.store, h.store, h.store, h.tripCache)
	tripHandler.RegisterRoutes(mux, authHandler)

	// Operator 接口
	opHandler := operator.NewHandler(h.store)
	opHandler.RegisterRoutes(mux, authHandler)

	// 应用指标中间件
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用 CORS 中间件
	return corsMiddleware(apiHandler)
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于负载均衡器和监控系统检查服务状态。
// 返回 {"status": "ok"} 表示服务正常运行。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
