package quota

import (
	"context"
	"sync"
	"time"

	"edu-gen/config"
)

// GenerationPacer 는 워커 인스턴스의 LLM 호출에 분당 간격과 일일 예산을 적용한다.
// 인메모리로 동작하므로 워커가 재시작되면 카운터가 초기화된다.
// 사용자별 한도는 API 의 사용량 추적기가 담당하고, 여기서는 provider 비용만 막는다.
type GenerationPacer struct {
	mu sync.Mutex

	dailyLimit int
	usedToday  int
	dayKey     string

	interval time.Duration
	lastCall time.Time

	now func() time.Time
}

// NewGenerationPacerFromConfig 는 worker.requests_per_minute / requests_per_day 로 pacer 를 만든다.
// 0 이하인 값은 해당 방향의 제한을 두지 않는다.
func NewGenerationPacerFromConfig(cfg config.WorkerConfig) *GenerationPacer {
	return NewGenerationPacer(cfg.RequestsPerMinute, cfg.RequestsPerDay)
}

func NewGenerationPacer(requestsPerMinute, requestsPerDay int) *GenerationPacer {
	if requestsPerDay < 0 {
		requestsPerDay = 0
	}

	var interval time.Duration
	if requestsPerMinute > 0 {
		interval = time.Minute / time.Duration(requestsPerMinute)
	}

	return &GenerationPacer{
		dailyLimit: requestsPerDay,
		interval:   interval,
		now:        time.Now,
	}
}

// WaitAndReserve 는 호출 전에 분당/일일 한도를 적용한다.
// - 일일 예산 소진: (false, nil). 호출자는 LLM 을 부르지 않고 요청을 실패로 끝낸다.
// - 컨텍스트 취소: (false, ctx.Err()).
func (l *GenerationPacer) WaitAndReserve(ctx context.Context) (bool, error) {
	for {
		l.mu.Lock()

		now := l.now().UTC()
		todayKey := now.Format("2006-01-02")
		if l.dayKey != todayKey {
			l.dayKey = todayKey
			l.usedToday = 0
		}

		if l.dailyLimit > 0 && l.usedToday >= l.dailyLimit {
			l.mu.Unlock()
			return false, nil
		}

		var delay time.Duration
		if l.interval > 0 && !l.lastCall.IsZero() {
			delay = l.lastCall.Add(l.interval).Sub(now)
		}

		if delay <= 0 {
			l.usedToday++
			l.lastCall = now
			l.mu.Unlock()
			return true, nil
		}

		// 락을 풀고 기다린 뒤 상태를 다시 평가한다.
		l.mu.Unlock()
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		}
	}
}

// UsedToday 는 오늘 예약된 호출 수다.
func (l *GenerationPacer) UsedToday() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.usedToday
}
