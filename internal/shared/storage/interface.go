// Package storage 定义持久化存储层抽象接口
//
// 设计原则：依赖倒置 (DIP)
//   - 调用方只依赖接口，不知道具体实现
//   - 具体实现在子包中：mongostore/
//   - 初始化时通过依赖注入传入实现
package storage

import (
	"context"

	"transit-admin/internal/shared/model"
)

// UserStore 用户与会话存储
//
// AddSessionToken / RemoveSessionToken 都是对单个用户文档的
// 原子更新，同一用户并发登录/登出不会丢失写入。
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id string) (*model.User, error)

	// AddSessionToken 追加会话令牌，同时剔除已过期条目
	AddSessionToken(ctx context.Context, userID string, tok model.SessionToken) error
	// RemoveSessionToken 按 token 精确移除；不存在时为幂等空操作
	RemoveSessionToken(ctx context.Context, userID, token string) error

	// 运营方账号管理（强制 role=operator）
	ListOperators(ctx context.Context) ([]*model.User, error)
	UpdateOperator(ctx context.Context, id string, email string) (*model.User, error)
	DeleteOperator(ctx context.Context, id string) error
}

// BusStore 车辆存储
type BusStore interface {
	CreateBus(ctx context.Context, bus *model.Bus) error
	GetBusByNTCNo(ctx context.Context, ntcNo string) (*model.Bus, error)
	GetBusByID(ctx context.Context, id string) (*model.Bus, error)
	ListBuses(ctx context.Context) ([]*model.Bus, error)
	UpdateBusByNTCNo(ctx context.Context, ntcNo string, updates map[string]any) (*model.Bus, error)
	DeleteBusByNTCNo(ctx context.Context, ntcNo string) error
}

// RouteStore 班线存储
type RouteStore interface {
	CreateRoute(ctx context.Context, route *model.Route) error
	GetRouteByNumber(ctx context.Context, number string) (*model.Route, error)
	GetRouteByID(ctx context.Context, id string) (*model.Route, error)
	SearchRoutes(ctx context.Context, filter model.RouteFilter) ([]*model.Route, error)
	UpdateRoute(ctx context.Context, id string, updates map[string]any) (*model.Route, error)
	DeleteRoute(ctx context.Context, id string) error
}

// TripStore 班次存储
type TripStore interface {
	CreateTrip(ctx context.Context, trip *model.Trip) error
	GetTripByTripID(ctx context.Context, tripID string) (*model.Trip, error)
	ListTrips(ctx context.Context) ([]*model.Trip, error)
	UpdateTripByTripID(ctx context.Context, tripID string, updates map[string]any) (*model.Trip, error)
}

// PersistentStore 聚合所有持久化接口
type PersistentStore interface {
	UserStore
	BusStore
	RouteStore
	TripStore

	Close() error
}
