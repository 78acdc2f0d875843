package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// count + pending < limit 이면 pending 을 올린다. 반환: 허용 {1, count}, 초과 {0, count + pending}
var reserveScript = redis.NewScript(`
local count = tonumber(redis.call('HGET', KEYS[1], 'count') or '0')
local pending = tonumber(redis.call('HGET', KEYS[1], 'pending') or '0')
if count + pending >= tonumber(ARGV[1]) then
  return {0, count + pending}
end
redis.call('HINCRBY', KEYS[1], 'pending', 1)
return {1, count}
`)

// pending 을 내리고 ARGV[1] 이 1 이면 count 를 올린다. 예약이 없으면 -1.
var settleScript = redis.NewScript(`
local pending = tonumber(redis.call('HGET', KEYS[1], 'pending') or '0')
if pending <= 0 then
  return -1
end
redis.call('HINCRBY', KEYS[1], 'pending', -1)
if ARGV[1] == '1' then
  return redis.call('HINCRBY', KEYS[1], 'count', 1)
end
return tonumber(redis.call('HGET', KEYS[1], 'count') or '0')
`)

// RedisTracker 는 usage:{user}:{date} 해시에 사용량을 둔다. 키는 만료되지 않는다.
type RedisTracker struct {
	client *redis.Client
	limit  int
}

func NewRedisTracker(client *redis.Client, limit int) *RedisTracker {
	return &RedisTracker{client: client, limit: limit}
}

// DialRedis 는 URL 로 클라이언트를 만들고 연결을 확인한다.
func DialRedis(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

func usageKey(userID, date string) string {
	return fmt.Sprintf("usage:{%s}:%s", userID, date)
}

func (t *RedisTracker) Limit() int { return t.limit }

func (t *RedisTracker) CheckAndReserve(ctx context.Context, userID, date string) (Reservation, Usage, error) {
	res, err := reserveScript.Run(ctx, t.client, []string{usageKey(userID, date)}, t.limit).Slice()
	if err != nil {
		return Reservation{}, Usage{}, fmt.Errorf("usage 예약 실패: %w", err)
	}
	if len(res) != 2 {
		return Reservation{}, Usage{}, fmt.Errorf("usage 예약 응답 형식 오류: %v", res)
	}
	allowed, _ := res[0].(int64)
	count, _ := res[1].(int64)
	usage := newUsage(date, int(count), t.limit)
	if allowed != 1 {
		return Reservation{}, Usage{}, &QuotaExceededError{Usage: usage}
	}
	return Reservation{UserID: userID, Date: date}, usage, nil
}

func (t *RedisTracker) settle(ctx context.Context, r Reservation, commit bool) (int, error) {
	flag := "0"
	if commit {
		flag = "1"
	}
	count, err := settleScript.Run(ctx, t.client, []string{usageKey(r.UserID, r.Date)}, flag).Int()
	if err != nil {
		return 0, err
	}
	if count < 0 {
		return 0, ErrNoReservation
	}
	return count, nil
}

func (t *RedisTracker) Commit(ctx context.Context, r Reservation) (Usage, error) {
	count, err := t.settle(ctx, r, true)
	if err != nil {
		return Usage{}, fmt.Errorf("usage 확정 실패: %w", err)
	}
	return newUsage(r.Date, count, t.limit), nil
}

func (t *RedisTracker) Release(ctx context.Context, r Reservation) error {
	if _, err := t.settle(ctx, r, false); err != nil {
		return fmt.Errorf("usage 반환 실패: %w", err)
	}
	return nil
}

func (t *RedisTracker) GetUsage(ctx context.Context, userID, date string) (Usage, error) {
	count, err := t.client.HGet(ctx, usageKey(userID, date), "count").Int()
	if errors.Is(err, redis.Nil) {
		return newUsage(date, 0, t.limit), nil
	}
	if err != nil {
		return Usage{}, fmt.Errorf("usage 조회 실패: %w", err)
	}
	return newUsage(date, count, t.limit), nil
}
