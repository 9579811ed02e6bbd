package mongostore

import (
	"context"
	"time"

	"transit-admin/internal/shared/model"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// 班次文档允许外部更新的字段
var tripUpdatableFields = map[string]bool{
	"start_time":      true,
	"end_time":        true,
	"date":            true,
	"total_seats":     true,
	"available_seats": true,
	"status":          true,
}

// ============================================================================
// TripStore
// ============================================================================

func (s *Store) CreateTrip(ctx context.Context, trip *model.Trip) error {
	return insertOne(ctx, s.col(ColTrips), trip)
}

func (s *Store) GetTripByTripID(ctx context.Context, tripID string) (*model.Trip, error) {
	return findOne[model.Trip](ctx, s.col(ColTrips), bson.D{{Key: "trip_id", Value: tripID}})
}

func (s *Store) ListTrips(ctx context.Context) ([]*model.Trip, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.Trip](ctx, s.col(ColTrips), bson.D{}, opts)
}

func (s *Store) UpdateTripByTripID(ctx context.Context, tripID string, updates map[string]any) (*model.Trip, error) {
	update := filterUpdates(updates, tripUpdatableFields)
	update = append(update, bson.E{Key: "updated_at", Value: time.Now()})
	return findOneAndUpdate[model.Trip](ctx, s.col(ColTrips),
		bson.D{{Key: "trip_id", Value: tripID}}, update)
}
