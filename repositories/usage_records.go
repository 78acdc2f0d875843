package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"edu-gen/models"
)

const reserveAttempts = 3

type UsageRepository struct {
	col *mongo.Collection
}

func NewUsageRepository(db *mongo.Database) *UsageRepository {
	return &UsageRepository{col: db.Collection("usage_records")}
}

// Find 는 (user_id, date) 레코드를 반환한다. 없으면 ErrNotFound.
func (r *UsageRepository) Find(ctx context.Context, userID, date string) (*models.UsageRecord, error) {
	var rec models.UsageRecord
	if err := r.col.FindOne(ctx, bson.M{"user_id": userID, "date": date}).Decode(&rec); err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// Reserve 는 count + pending < limit 일 때만 pending 을 하나 늘린다.
// 한도가 찼으면 (현재 레코드, false, nil) 을 반환하고 아무것도 바꾸지 않는다.
func (r *UsageRepository) Reserve(ctx context.Context, userID, date string, limit int) (*models.UsageRecord, bool, error) {
	now := time.Now()
	filter := bson.M{
		"user_id":  userID,
		"date":     date,
		"reserved": bson.M{"$lt": limit},
	}
	update := bson.M{
		"$setOnInsert": bson.M{"count": 0, "created_at": now},
		"$inc":         bson.M{"pending": 1, "reserved": 1},
		"$set":         bson.M{"updated_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	for attempt := 0; attempt < reserveAttempts; attempt++ {
		var rec models.UsageRecord
		err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec)
		if err == nil {
			return &rec, true, nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			return nil, false, err
		}
		// 필터가 맞지 않아 upsert 가 기존 레코드와 충돌했다: 한도 초과이거나 동시 최초 삽입이다.
		existing, findErr := r.Find(ctx, userID, date)
		if findErr != nil {
			return nil, false, findErr
		}
		if existing.Reserved >= limit {
			return existing, false, nil
		}
	}
	existing, err := r.Find(ctx, userID, date)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// Commit 은 발행이 끝난 예약을 확정한다: count++, pending--.
func (r *UsageRepository) Commit(ctx context.Context, userID, date string) (*models.UsageRecord, error) {
	return r.settle(ctx, userID, date, bson.M{"count": 1, "pending": -1})
}

// Release 는 발행에 실패한 예약을 돌려준다. count 는 건드리지 않는다.
func (r *UsageRepository) Release(ctx context.Context, userID, date string) (*models.UsageRecord, error) {
	return r.settle(ctx, userID, date, bson.M{"pending": -1, "reserved": -1})
}

func (r *UsageRepository) settle(ctx context.Context, userID, date string, inc bson.M) (*models.UsageRecord, error) {
	filter := bson.M{"user_id": userID, "date": date, "pending": bson.M{"$gt": 0}}
	update := bson.M{"$inc": inc, "$set": bson.M{"updated_at": time.Now()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec models.UsageRecord
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec); err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}
