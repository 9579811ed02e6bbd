// Package cache 定义缓存层抽象接口
//
// 具体实现在子包中：redis/。未配置 Redis 时使用 NoOpTripCache，
// 所有读取都 miss，写入/失效为 空操作。
package cache

import (
	"context"
	"time"

	"transit-admin/internal/shared/model"
)

// Key 前缀与 TTL 常量
const (
	KeyTripList = "transit:cache:trips"

	// TTLTripList 班次列表缓存时长；任何班次写操作会主动失效
	TTLTripList = 30 * time.Second
)

// TripCache 班次列表缓存
//
// GetTripList 未命中时返回 (nil, nil)。
type TripCache interface {
	GetTripList(ctx context.Context) ([]*model.Trip, error)
	SetTripList(ctx context.Context, trips []*model.Trip) error
	InvalidateTripList(ctx context.Context) error
	Close() error
}

// ============================================================================
// NoOpTripCache - 空操作实现（未配置 Redis / 测试）
// ============================================================================

// NoOpTripCache 空操作缓存
type NoOpTripCache struct{}

// NewNoOpTripCache 创建 NoOpTripCache 实例
func NewNoOpTripCache() *NoOpTripCache { return &NoOpTripCache{} }

func (c *NoOpTripCache) GetTripList(context.Context) ([]*model.Trip, error) { return nil, nil }
func (c *NoOpTripCache) SetTripList(context.Context, []*model.Trip) error   { return nil }
func (c *NoOpTripCache) InvalidateTripList(context.Context) error           { return nil }
func (c *NoOpTripCache) Close() error                                       { return nil }

// 确保 NoOpTripCache 实现了 TripCache 接口
var _ TripCache = (*NoOpTripCache)(nil)
