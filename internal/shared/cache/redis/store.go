// Package redis Redis 缓存实现
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"transit-admin/internal/shared/cache"
	"transit-admin/internal/shared/model"
)

// Store Redis 缓存存储
type Store struct {
	client *redis.Client
}

// NewStoreFromURL 从 URL 创建 Redis 缓存实例
func NewStoreFromURL(redisURL string) (*Store, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Printf("[Redis/Cache] Connected to %s", opts.Addr)
	return &Store{client: client}, nil
}

// NewStoreFromClient 复用已有连接创建缓存实例
func NewStoreFromClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close 关闭 Redis 连接
func (s *Store) Close() error {
	return s.client.Close()
}

// ============================================================================
// TripCache
// ============================================================================

// GetTripList 读取班次列表缓存，未命中返回 (nil, nil)
func (s *Store) GetTripList(ctx context.Context) ([]*model.Trip, error) {
	data, err := s.client.Get(ctx, cache.KeyTripList).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var trips []*model.Trip
	if err := json.Unmarshal([]byte(data), &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

// SetTripList 写入班次列表缓存，TTL 到期自动失效
func (s *Store) SetTripList(ctx context.Context, trips []*model.Trip) error {
	data, err := json.Marshal(trips)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cache.KeyTripList, data, cache.TTLTripList).Err()
}

// InvalidateTripList 班次写操作后主动失效缓存
func (s *Store) InvalidateTripList(ctx context.Context) error {
	return s.client.Del(ctx, cache.KeyTripList).Err()
}

// 确保 Store 实现了 TripCache 接口
var _ cache.TripCache = (*Store)(nil)
