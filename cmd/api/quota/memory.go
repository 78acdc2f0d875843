package quota

import (
	"context"
	"sync"
)

type memoryCounter struct {
	count   int
	pending int
}

// MemoryTracker 는 프로세스 메모리에 사용량을 둔다. 로컬 실행과 테스트용이다.
type MemoryTracker struct {
	mu       sync.Mutex
	limit    int
	counters map[Reservation]*memoryCounter
}

func NewMemoryTracker(limit int) *MemoryTracker {
	return &MemoryTracker{limit: limit, counters: map[Reservation]*memoryCounter{}}
}

func (t *MemoryTracker) Limit() int { return t.limit }

func (t *MemoryTracker) counter(key Reservation) *memoryCounter {
	c, ok := t.counters[key]
	if !ok {
		c = &memoryCounter{}
		t.counters[key] = c
	}
	return c
}

func (t *MemoryTracker) CheckAndReserve(ctx context.Context, userID, date string) (Reservation, Usage, error) {
	if err := ctx.Err(); err != nil {
		return Reservation{}, Usage{}, err
	}
	key := Reservation{UserID: userID, Date: date}

	t.mu.Lock()
	defer t.mu.Unlock()
	c := t.counter(key)
	if c.count+c.pending >= t.limit {
		return Reservation{}, Usage{}, &QuotaExceededError{Usage: newUsage(date, c.count+c.pending, t.limit)}
	}
	c.pending++
	return key, newUsage(date, c.count, t.limit), nil
}

func (t *MemoryTracker) Commit(ctx context.Context, r Reservation) (Usage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.counters[r]
	if !ok || c.pending == 0 {
		return Usage{}, ErrNoReservation
	}
	c.pending--
	c.count++
	return newUsage(r.Date, c.count, t.limit), nil
}

func (t *MemoryTracker) Release(ctx context.Context, r Reservation) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.counters[r]
	if !ok || c.pending == 0 {
		return ErrNoReservation
	}
	c.pending--
	return nil
}

func (t *MemoryTracker) GetUsage(ctx context.Context, userID, date string) (Usage, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	count := 0
	if c, ok := t.counters[Reservation{UserID: userID, Date: date}]; ok {
		count = c.count
	}
	return newUsage(date, count, t.limit), nil
}
