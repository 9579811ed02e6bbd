package mongostore

import (
	"context"
	"time"

	"transit-admin/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// 班线文档允许外部更新的字段
var routeUpdatableFields = map[string]bool{
	"start":          true,
	"end":            true,
	"total_distance": true,
}

// ============================================================================
// RouteStore
// ============================================================================

func (s *Store) CreateRoute(ctx context.Context, route *model.Route) error {
	return insertOne(ctx, s.col(ColRoutes), route)
}

func (s *Store) GetRouteByNumber(ctx context.Context, number string) (*model.Route, error) {
	return findOne[model.Route](ctx, s.col(ColRoutes), bson.D{{Key: "number", Value: number}})
}

func (s *Store) GetRouteByID(ctx context.Context, id string) (*model.Route, error) {
	return findOne[model.Route](ctx, s.col(ColRoutes), bson.D{{Key: "_id", Value: id}})
}

// SearchRoutes 按 id / start / end 任意组合过滤，条件为空时列出全部
func (s *Store) SearchRoutes(ctx context.Context, filter model.RouteFilter) ([]*model.Route, error) {
	query := bson.D{}
	if filter.ID != "" {
		query = append(query, bson.E{Key: "_id", Value: filter.ID})
	}
	if filter.Start != "" {
		query = append(query, bson.E{Key: "start", Value: filter.Start})
	}
	if filter.End != "" {
		query = append(query, bson.E{Key: "end", Value: filter.End})
	}
	opts := options.Find().SetSort(bson.D{{Key: "number", Value: 1}})
	return findMany[model.Route](ctx, s.col(ColRoutes), query, opts)
}

func (s *Store) UpdateRoute(ctx context.Context, id string, updates map[string]any) (*model.Route, error) {
	update := filterUpdates(updates, routeUpdatableFields)
	update = append(update, bson.E{Key: "updated_at", Value: time.Now()})
	return findOneAndUpdate[model.Route](ctx, s.col(ColRoutes),
		bson.D{{Key: "_id", Value: id}}, update)
}

func (s *Store) DeleteRoute(ctx context.Context, id string) error {
	return deleteOne(ctx, s.col(ColRoutes), bson.D{{Key: "_id", Value: id}})
}
