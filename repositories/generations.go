package repositories

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"edu-gen/models"
)

type GenerationRepository struct {
	col *mongo.Collection
}

func NewGenerationRepository(db *mongo.Database) *GenerationRepository {
	return &GenerationRepository{col: db.Collection("generation_requests")}
}

// BeginInput 은 generate 이벤트 하나로 시작되는 시도를 설명한다.
type BeginInput struct {
	ID      string
	UserID  string
	Prompt  string
	Tags    []string
	EventID string
}

func (r *GenerationRepository) Get(ctx context.Context, id string) (*models.GenerationRecord, error) {
	var rec models.GenerationRecord
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&rec); err != nil {
		return nil, notFound(err)
	}
	return &rec, nil
}

// EnsurePending 은 레코드가 없을 때만 pending 상태로 만든다. 기존 레코드는 바꾸지 않는다.
func (r *GenerationRepository) EnsurePending(ctx context.Context, in BeginInput) error {
	now := time.Now()
	update := bson.M{
		"$setOnInsert": bson.M{
			"user_id":            in.UserID,
			"prompt":             in.Prompt,
			"tags":               in.Tags,
			"state":              models.GenerationPending,
			"attempts":           0,
			"last_event_id":      in.EventID,
			"terminal_published": false,
			"created_at":         now,
			"updated_at":         now,
		},
	}
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": in.ID}, update, options.Update().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return nil
	}
	return err
}

// Begin 은 완료되지 않은 요청을 generating 으로 옮기고 attempts 를 올린다.
// 이미 completed 이거나 같은 이벤트로 failed 가 된 요청이면 (nil, ErrStateConflict).
func (r *GenerationRepository) Begin(ctx context.Context, in BeginInput) (*models.GenerationRecord, error) {
	now := time.Now()
	filter := bson.M{
		"_id": in.ID,
		"$nor": bson.A{
			bson.M{"state": models.GenerationCompleted},
			bson.M{"state": models.GenerationFailed, "last_event_id": in.EventID},
		},
	}
	update := bson.M{
		"$setOnInsert": bson.M{
			"user_id":    in.UserID,
			"prompt":     in.Prompt,
			"tags":       in.Tags,
			"created_at": now,
		},
		"$set": bson.M{
			"state":              models.GenerationGenerating,
			"last_event_id":      in.EventID,
			"terminal_published": false,
			"updated_at":         now,
		},
		"$unset": bson.M{"last_error": "", "error_kind": ""},
		"$inc":   bson.M{"attempts": 1},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var rec models.GenerationRecord
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrStateConflict
		}
		return nil, err
	}
	return &rec, nil
}

// MarkCompleted 는 generating 인 요청만 completed 로 바꾼다. 그 사이 다른 소비자가 끝냈거나
// 복구 스윕이 failed 로 정리했으면 ErrStateConflict.
func (r *GenerationRepository) MarkCompleted(ctx context.Context, id string, articleID primitive.ObjectID, slug string) error {
	now := time.Now()
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id, "state": models.GenerationGenerating}, bson.M{
		"$set": bson.M{
			"state":              models.GenerationCompleted,
			"article_id":         articleID,
			"slug":               slug,
			"terminal_published": false,
			"completed_at":       now,
			"updated_at":         now,
		},
		"$unset": bson.M{"last_error": "", "error_kind": ""},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStateConflict
	}
	return nil
}

// MarkFailed 는 pending/generating 인 요청만 failed 로 바꾼다.
// 이미 completed 나 failed 로 끝난 요청이면 ErrStateConflict.
func (r *GenerationRepository) MarkFailed(ctx context.Context, id, reason, kind string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "state": bson.M{"$in": []models.GenerationState{models.GenerationPending, models.GenerationGenerating}}},
		bson.M{"$set": bson.M{
			"state":              models.GenerationFailed,
			"last_error":         reason,
			"error_kind":         kind,
			"terminal_published": false,
			"updated_at":         time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStateConflict
	}
	return nil
}

func (r *GenerationRepository) MarkTerminalPublished(ctx context.Context, id string) error {
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"terminal_published": true, "updated_at": time.Now()},
	})
	return err
}

// ResetForRetry 는 failed 요청을 pending 으로 되돌려 새 generate 이벤트를 받을 수 있게 한다.
// failed 가 아니면 ErrStateConflict, 없으면 ErrNotFound.
func (r *GenerationRepository) ResetForRetry(ctx context.Context, id, eventID string) (*models.GenerationRecord, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var rec models.GenerationRecord
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "state": models.GenerationFailed},
		bson.M{"$set": bson.M{
			"state":              models.GenerationPending,
			"last_event_id":      eventID,
			"terminal_published": false,
			"updated_at":         time.Now(),
		}},
		opts,
	).Decode(&rec)
	if err == nil {
		return &rec, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}
	if _, getErr := r.Get(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrStateConflict
}

// ListByUser 는 사용자의 최근 요청을 반환한다.
func (r *GenerationRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]models.GenerationRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.GenerationRecord
	for cur.Next(ctx) {
		var rec models.GenerationRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, cur.Err()
}

// ListUnpublishedTerminal 은 completed/failed 로 끝났지만 터미널 이벤트 발행이
// 확인되지 않은 요청 중 before 이전에 갱신된 것을 오래된 순으로 반환한다.
func (r *GenerationRepository) ListUnpublishedTerminal(ctx context.Context, before time.Time, limit int64) ([]models.GenerationRecord, error) {
	filter := bson.M{
		"state":              bson.M{"$in": []models.GenerationState{models.GenerationCompleted, models.GenerationFailed}},
		"terminal_published": false,
		"updated_at":         bson.M{"$lt": before},
	}
	return r.listOldest(ctx, filter, limit)
}

// ListStalled 는 before 이후로 갱신되지 않은 pending/generating 요청을 오래된 순으로 반환한다.
// 재시도를 모두 소진하고 DLQ 로 간 generate 이벤트의 요청이 여기에 남는다.
func (r *GenerationRepository) ListStalled(ctx context.Context, before time.Time, limit int64) ([]models.GenerationRecord, error) {
	filter := bson.M{
		"state":      bson.M{"$in": []models.GenerationState{models.GenerationPending, models.GenerationGenerating}},
		"updated_at": bson.M{"$lt": before},
	}
	return r.listOldest(ctx, filter, limit)
}

// MarkStalled 는 요청이 아직 pending/generating 이고 before 이후 갱신되지 않았을 때만 failed 로 바꾼다.
// 그 사이 워커가 손댔으면 ErrStateConflict.
func (r *GenerationRepository) MarkStalled(ctx context.Context, id string, before time.Time, reason, kind string) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{
			"_id":        id,
			"state":      bson.M{"$in": []models.GenerationState{models.GenerationPending, models.GenerationGenerating}},
			"updated_at": bson.M{"$lt": before},
		},
		bson.M{"$set": bson.M{
			"state":              models.GenerationFailed,
			"last_error":         reason,
			"error_kind":         kind,
			"terminal_published": false,
			"updated_at":         time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStateConflict
	}
	return nil
}

func (r *GenerationRepository) listOldest(ctx context.Context, filter bson.M, limit int64) ([]models.GenerationRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}}).SetLimit(limit)
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.GenerationRecord
	for cur.Next(ctx) {
		var rec models.GenerationRecord
		if err := cur.Decode(&rec); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, cur.Err()
}
