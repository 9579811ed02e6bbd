package mongostore

import (
	"context"
	"time"

	"transit-admin/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// 车辆文档允许外部更新的字段
var busUpdatableFields = map[string]bool{
	"bus_no":       true,
	"bus_name":     true,
	"bus_type":     true,
	"driver_id":    true,
	"conductor_id": true,
	"route_id":     true,
}

// ============================================================================
// BusStore
// ============================================================================

func (s *Store) CreateBus(ctx context.Context, bus *model.Bus) error {
	return insertOne(ctx, s.col(ColBuses), bus)
}

func (s *Store) GetBusByNTCNo(ctx context.Context, ntcNo string) (*model.Bus, error) {
	return findOne[model.Bus](ctx, s.col(ColBuses), bson.D{{Key: "ntc_no", Value: ntcNo}})
}

func (s *Store) GetBusByID(ctx context.Context, id string) (*model.Bus, error) {
	return findOne[model.Bus](ctx, s.col(ColBuses), bson.D{{Key: "_id", Value: id}})
}

func (s *Store) ListBuses(ctx context.Context) ([]*model.Bus, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Bus](ctx, s.col(ColBuses), bson.D{}, opts)
}

func (s *Store) UpdateBusByNTCNo(ctx context.Context, ntcNo string, updates map[string]any) (*model.Bus, error) {
	update := filterUpdates(updates, busUpdatableFields)
	update = append(update, bson.E{Key: "updated_at", Value: time.Now()})
	return findOneAndUpdate[model.Bus](ctx, s.col(ColBuses),
		bson.D{{Key: "ntc_no", Value: ntcNo}}, update)
}

func (s *Store) DeleteBusByNTCNo(ctx context.Context, ntcNo string) error {
	return deleteOne(ctx, s.col(ColBuses), bson.D{{Key: "ntc_no", Value: ntcNo}})
}

// filterUpdates 将请求体的更新 map 过滤为仅含白名单字段的 $set 文档
func filterUpdates(updates map[string]any, allowed map[string]bool) bson.D {
	var doc bson.D
	for k, v := range updates {
		if allowed[k] {
			doc = append(doc, bson.E{Key: k, Value: v})
		}
	}
	return doc
}
