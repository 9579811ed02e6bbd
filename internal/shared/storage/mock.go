// Package storage 提供存储层抽象
//
// mock.go 提供用于测试的内存实现
package storage

import (
	"context"
	"sync"
	"time"

	"transit-admin/internal/shared/model"
)

// MemStore 内存版 PersistentStore，仅用于单元测试
//
// 行为与 mongostore 保持一致：按 key 查不到时返回 (nil, nil)，
// 唯一键冲突返回 ErrDuplicate，按 ID 更新/删除未命中返回 ErrNotFound。
type MemStore struct {
	mu     sync.Mutex
	users  map[string]*model.User // by ID
	buses  map[string]*model.Bus  // by ID
	routes map[string]*model.Route
	trips  map[string]*model.Trip
}

// NewMemStore 创建内存存储实例
func NewMemStore() *MemStore {
	return &MemStore{
		users:  make(map[string]*model.User),
		buses:  make(map[string]*model.Bus),
		routes: make(map[string]*model.Route),
		trips:  make(map[string]*model.Trip),
	}
}

// Close 关闭存储
func (s *MemStore) Close() error { return nil }

// ============================================================================
// UserStore
// ============================================================================

func (s *MemStore) CreateUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return ErrDuplicate
		}
	}
	cp := *user
	s.users[user.ID] = &cp
	return nil
}

func (s *MemStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemStore) GetUserByID(_ context.Context, id string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, nil
}

func (s *MemStore) AddSessionToken(_ context.Context, userID string, tok model.SessionToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now()
	kept := u.SessionTokens[:0]
	for _, st := range u.SessionTokens {
		if st.ExpiresAt.After(now) {
			kept = append(kept, st)
		}
	}
	u.SessionTokens = append(kept, tok)
	u.UpdatedAt = now
	return nil
}

func (s *MemStore) RemoveSessionToken(_ context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return ErrNotFound
	}
	kept := u.SessionTokens[:0]
	for _, st := range u.SessionTokens {
		if st.Token != token {
			kept = append(kept, st)
		}
	}
	u.SessionTokens = kept
	u.UpdatedAt = time.Now()
	return nil
}

func (s *MemStore) ListOperators(_ context.Context) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.User
	for _, u := range s.users {
		if u.Role == model.UserRoleOperator {
			cp := *u
			out = append(out, &cp)
		}
	}
	if out == nil {
		out = []*model.User{}
	}
	return out, nil
}

func (s *MemStore) UpdateOperator(_ context.Context, id string, email string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.Role != model.UserRoleOperator {
		return nil, ErrNotFound
	}
	if email != "" {
		u.Email = email
	}
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (s *MemStore) DeleteOperator(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.Role != model.UserRoleOperator {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// ============================================================================
// BusStore
// ============================================================================

func (s *MemStore) CreateBus(_ context.Context, bus *model.Bus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.buses {
		if b.NTCNo == bus.NTCNo {
			return ErrDuplicate
		}
	}
	cp := *bus
	s.buses[bus.ID] = &cp
	return nil
}

func (s *MemStore) GetBusByNTCNo(_ context.Context, ntcNo string) (*model.Bus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.buses {
		if b.NTCNo == ntcNo {
			cp := *b
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemStore) GetBusByID(_ context.Context, id string) (*model.Bus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.buses[id]; ok {
		cp := *b
		return &cp, nil
	}
	return nil, nil
}

func (s *MemStore) ListBuses(_ context.Context) ([]*model.Bus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Bus{}
	for _, b := range s.buses {
		cp := *b
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemStore) UpdateBusByNTCNo(_ context.Context, ntcNo string, updates map[string]any) (*model.Bus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.buses {
		if b.NTCNo == ntcNo {
			applyBusUpdates(b, updates)
			b.UpdatedAt = time.Now()
			cp := *b
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemStore) DeleteBusByNTCNo(_ context.Context, ntcNo string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, b := range s.buses {
		if b.NTCNo == ntcNo {
			delete(s.buses, id)
			return nil
		}
	}
	return ErrNotFound
}

func applyBusUpdates(b *model.Bus, updates map[string]any) {
	if v, ok := updates["bus_no"].(string); ok {
		b.BusNo = v
	}
	if v, ok := updates["bus_name"].(string); ok {
		b.BusName = v
	}
	if v, ok := updates["bus_type"].(string); ok {
		b.BusType = model.BusType(v)
	}
	if v, ok := updates["driver_id"].(string); ok {
		b.DriverID = v
	}
	if v, ok := updates["conductor_id"].(string); ok {
		b.ConductorID = v
	}
	if v, ok := updates["route_id"].(string); ok {
		b.RouteID = v
	}
}

// ============================================================================
// RouteStore
// ============================================================================

func (s *MemStore) CreateRoute(_ context.Context, route *model.Route) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.routes {
		if r.Number == route.Number {
			return ErrDuplicate
		}
	}
	cp := *route
	s.routes[route.ID] = &cp
	return nil
}

func (s *MemStore) GetRouteByNumber(_ context.Context, number string) (*model.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.routes {
		if r.Number == number {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemStore) GetRouteByID(_ context.Context, id string) (*model.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.routes[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (s *MemStore) SearchRoutes(_ context.Context, filter model.RouteFilter) ([]*model.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Route{}
	for _, r := range s.routes {
		if filter.ID != "" && r.ID != filter.ID {
			continue
		}
		if filter.Start != "" && r.Start != filter.Start {
			continue
		}
		if filter.End != "" && r.End != filter.End {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemStore) UpdateRoute(_ context.Context, id string, updates map[string]any) (*model.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.routes[id]
	if !ok {
		return nil, ErrNotFound
	}
	if v, ok := updates["start"].(string); ok {
		r.Start = v
	}
	if v, ok := updates["end"].(string); ok {
		r.End = v
	}
	if v, ok := updates["total_distance"].(float64); ok {
		r.TotalDistance = v
	}
	r.UpdatedAt = time.Now()
	cp := *r
	return &cp, nil
}

func (s *MemStore) DeleteRoute(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.routes[id]; !ok {
		return ErrNotFound
	}
	delete(s.routes, id)
	return nil
}

// ============================================================================
// TripStore
// ============================================================================

func (s *MemStore) CreateTrip(_ context.Context, trip *model.Trip) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.trips {
		if t.TripID == trip.TripID {
			return ErrDuplicate
		}
	}
	cp := *trip
	s.trips[trip.ID] = &cp
	return nil
}

func (s *MemStore) GetTripByTripID(_ context.Context, tripID string) (*model.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.trips {
		if t.TripID == tripID {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *MemStore) ListTrips(_ context.Context) ([]*model.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*model.Trip{}
	for _, t := range s.trips {
		cp := *t
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemStore) UpdateTripByTripID(_ context.Context, tripID string, updates map[string]any) (*model.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.trips {
		if t.TripID == tripID {
			if v, ok := updates["start_time"].(string); ok {
				t.StartTime = v
			}
			if v, ok := updates["end_time"].(string); ok {
				t.EndTime = v
			}
			if v, ok := updates["date"].(string); ok {
				t.Date = v
			}
			if v, ok := updates["status"].(string); ok {
				t.Status = model.TripStatus(v)
			}
			t.UpdatedAt = time.Now()
			cp := *t
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// 确保 MemStore 实现了 PersistentStore 接口
var _ PersistentStore = (*MemStore)(nil)
