package quota

import (
	"context"
	"errors"
	"fmt"
)

// Usage 는 사용자의 하루 사용량이다. Remaining = max(0, Limit - Current).
type Usage struct {
	Date      string `json:"date"`
	Current   int    `json:"current"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`
}

func newUsage(date string, current, limit int) Usage {
	remaining := limit - current
	if remaining < 0 {
		remaining = 0
	}
	return Usage{Date: date, Current: current, Limit: limit, Remaining: remaining}
}

// Reservation 은 CheckAndReserve 가 잡은 슬롯 하나이다. Commit 또는 Release 로 정리해야 한다.
type Reservation struct {
	UserID string
	Date   string
}

// QuotaExceededError 는 한도가 찬 상태의 사용량을 담는다.
// Current 는 진행 중인 예약까지 센 값이라 Remaining 은 항상 0 이다.
type QuotaExceededError struct {
	Usage Usage
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("daily generation quota exceeded (%d/%d)", e.Usage.Current, e.Usage.Limit)
}

var ErrNoReservation = errors.New("no pending reservation")

// Tracker 는 사용자별 일일 생성 횟수를 관리한다.
//
// CheckAndReserve 는 count + pending < limit 일 때만 원자적으로 슬롯을 잡는다.
// 이벤트 발행에 성공하면 Commit (count 증가), 실패하면 Release 를 호출한다.
// count 는 하루 안에서 줄어들지 않는다.
type Tracker interface {
	CheckAndReserve(ctx context.Context, userID, date string) (Reservation, Usage, error)
	Commit(ctx context.Context, r Reservation) (Usage, error)
	Release(ctx context.Context, r Reservation) error
	GetUsage(ctx context.Context, userID, date string) (Usage, error)
	Limit() int
}
