package eventbus

import (
	"context"
	"sync"
)

// MemoryEventBus 는 단일 프로세스용 EventBus 구현이다. 로컬 실행과 테스트에 쓰며
// 프로세스가 재시작되면 메시지는 사라진다. 재시도는 지연 없이 같은 루프에서 수행한다.
type MemoryEventBus struct {
	mu      sync.Mutex
	cond    *sync.Cond
	topics  map[string][]Event
	offsets map[string]int // groupID|topic -> 다음에 읽을 위치
	closed  bool

	// PublishErr 가 설정되면 Publish 는 메시지를 저장하지 않고 이 오류를 반환한다.
	PublishErr error
}

func NewMemoryEventBus() *MemoryEventBus {
	b := &MemoryEventBus{
		topics:  map[string][]Event{},
		offsets: map[string]int{},
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *MemoryEventBus) Publish(ctx context.Context, topic string, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.PublishErr != nil {
		return b.PublishErr
	}
	b.topics[topic] = append(b.topics[topic], event)
	b.cond.Broadcast()
	return nil
}

// Messages 는 토픽에 발행된 메시지의 복사본을 반환한다.
func (b *MemoryEventBus) Messages(topic string) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Event, len(b.topics[topic]))
	copy(out, b.topics[topic])
	return out
}

// next 는 그룹의 다음 메시지를 기다린다. ctx 가 끝나거나 버스가 닫히면 false.
func (b *MemoryEventBus) next(ctx context.Context, groupID, topic string) (Event, bool) {
	key := groupID + "|" + topic
	b.mu.Lock()
	defer b.mu.Unlock()
	for {
		if b.closed || ctx.Err() != nil {
			return Event{}, false
		}
		if off := b.offsets[key]; off < len(b.topics[topic]) {
			b.offsets[key] = off + 1
			return b.topics[topic][off], true
		}
		b.cond.Wait()
	}
}

func (b *MemoryEventBus) Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error {
	stop := context.AfterFunc(ctx, func() {
		b.mu.Lock()
		b.cond.Broadcast()
		b.mu.Unlock()
	})
	defer stop()

	for {
		evt, ok := b.next(ctx, groupID, topic.Base())
		if !ok {
			return ctx.Err()
		}
		if evt.MaxRetry <= 0 || evt.MaxRetry > len(RetryDelays) {
			evt.MaxRetry = len(RetryDelays)
		}
		for {
			err := handler(ctx, evt)
			if err == nil || ctx.Err() != nil {
				break
			}
			dest, isDLQ := nextDestination(topic, &evt, err)
			if isDLQ {
				if pubErr := b.Publish(context.Background(), dest, evt); pubErr != nil {
					return pubErr
				}
				break
			}
		}
	}
}

// StartRetryReinjector 는 Subscribe 가 재시도를 직접 처리하므로 ctx 종료까지 대기만 한다.
func (b *MemoryEventBus) StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error {
	<-ctx.Done()
	return ctx.Err()
}

func (b *MemoryEventBus) Close() {
	b.mu.Lock()
	b.closed = true
	b.cond.Broadcast()
	b.mu.Unlock()
}
