package mongostore

import (
	"context"
	"time"

	"transit-admin/internal/shared/model"
	"transit-admin/internal/shared/storage"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ============================================================================
// UserStore
// ============================================================================

func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	return insertOne(ctx, s.col(ColUsers), user)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "email", Value: email}})
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return findOne[model.User](ctx, s.col(ColUsers), bson.D{{Key: "_id", Value: id}})
}

// AddSessionToken 追加会话令牌
//
// 先 $pull 掉 expires_at 已过期的条目再 $push 新条目。
// MongoDB 不允许同一次 update 对同一字段既 $pull 又 $push，
// 因此拆成两次单文档原子更新；两次之间的窗口只影响清理时机，不影响正确性。
func (s *Store) AddSessionToken(ctx context.Context, userID string, tok model.SessionToken) error {
	col := s.col(ColUsers)
	filter := bson.D{{Key: "_id", Value: userID}}

	_, err := col.UpdateOne(ctx, filter, bson.D{
		{Key: "$pull", Value: bson.D{
			{Key: "session_tokens", Value: bson.D{
				{Key: "expires_at", Value: bson.D{{Key: "$lt", Value: time.Now()}}},
			}},
		}},
	})
	if err != nil {
		return wrapError(err)
	}

	res, err := col.UpdateOne(ctx, filter, bson.D{
		{Key: "$push", Value: bson.D{{Key: "session_tokens", Value: tok}}},
		{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now()}}},
	})
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// RemoveSessionToken 按 token 精确移除会话条目
//
// token 不在列表中时为幂等空操作；用户不存在返回 ErrNotFound。
func (s *Store) RemoveSessionToken(ctx context.Context, userID, token string) error {
	res, err := s.col(ColUsers).UpdateOne(ctx,
		bson.D{{Key: "_id", Value: userID}},
		bson.D{
			{Key: "$pull", Value: bson.D{
				{Key: "session_tokens", Value: bson.D{{Key: "token", Value: token}}},
			}},
			{Key: "$set", Value: bson.D{{Key: "updated_at", Value: time.Now()}}},
		},
	)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ============================================================================
// 运营方账号管理
// ============================================================================

func (s *Store) ListOperators(ctx context.Context) ([]*model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return findMany[model.User](ctx, s.col(ColUsers),
		bson.D{{Key: "role", Value: model.UserRoleOperator}}, opts)
}

func (s *Store) UpdateOperator(ctx context.Context, id string, email string) (*model.User, error) {
	update := bson.D{{Key: "updated_at", Value: time.Now()}}
	if email != "" {
		update = append(update, bson.E{Key: "email", Value: email})
	}
	// 过滤条件带上 role，确保只会改到运营方账号
	return findOneAndUpdate[model.User](ctx, s.col(ColUsers), bson.D{
		{Key: "_id", Value: id},
		{Key: "role", Value: model.UserRoleOperator},
	}, update)
}

func (s *Store) DeleteOperator(ctx context.Context, id string) error {
	return deleteOne(ctx, s.col(ColUsers), bson.D{
		{Key: "_id", Value: id},
		{Key: "role", Value: model.UserRoleOperator},
	})
}
