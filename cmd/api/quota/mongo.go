package quota

import (
	"context"
	"errors"
	"fmt"

	"edu-gen/models"
	"edu-gen/repositories"
)

// UsageStore 는 usage_records 에 대한 조건부 갱신이다. repositories.UsageRepository 가 구현한다.
type UsageStore interface {
	Find(ctx context.Context, userID, date string) (*models.UsageRecord, error)
	Reserve(ctx context.Context, userID, date string, limit int) (*models.UsageRecord, bool, error)
	Commit(ctx context.Context, userID, date string) (*models.UsageRecord, error)
	Release(ctx context.Context, userID, date string) (*models.UsageRecord, error)
}

// MongoTracker 는 (user_id, date) 유니크 인덱스 위의 조건부 upsert 로 한도를 지킨다.
type MongoTracker struct {
	store UsageStore
	limit int
}

func NewMongoTracker(store UsageStore, limit int) *MongoTracker {
	return &MongoTracker{store: store, limit: limit}
}

func (t *MongoTracker) Limit() int { return t.limit }

func (t *MongoTracker) CheckAndReserve(ctx context.Context, userID, date string) (Reservation, Usage, error) {
	rec, ok, err := t.store.Reserve(ctx, userID, date, t.limit)
	if err != nil {
		return Reservation{}, Usage{}, fmt.Errorf("usage 예약 실패: %w", err)
	}
	if !ok {
		return Reservation{}, Usage{}, &QuotaExceededError{Usage: newUsage(date, rec.Count+rec.Pending, t.limit)}
	}
	return Reservation{UserID: userID, Date: date}, newUsage(date, rec.Count, t.limit), nil
}

func (t *MongoTracker) Commit(ctx context.Context, r Reservation) (Usage, error) {
	rec, err := t.store.Commit(ctx, r.UserID, r.Date)
	if errors.Is(err, repositories.ErrNotFound) {
		return Usage{}, ErrNoReservation
	}
	if err != nil {
		return Usage{}, fmt.Errorf("usage 확정 실패: %w", err)
	}
	return newUsage(r.Date, rec.Count, t.limit), nil
}

func (t *MongoTracker) Release(ctx context.Context, r Reservation) error {
	_, err := t.store.Release(ctx, r.UserID, r.Date)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrNoReservation
	}
	if err != nil {
		return fmt.Errorf("usage 반환 실패: %w", err)
	}
	return nil
}

func (t *MongoTracker) GetUsage(ctx context.Context, userID, date string) (Usage, error) {
	rec, err := t.store.Find(ctx, userID, date)
	if errors.Is(err, repositories.ErrNotFound) {
		return newUsage(date, 0, t.limit), nil
	}
	if err != nil {
		return Usage{}, fmt.Errorf("usage 조회 실패: %w", err)
	}
	return newUsage(date, rec.Count, t.limit), nil
}
