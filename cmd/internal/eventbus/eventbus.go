package eventbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RetryDelays는 재시도 횟수(1-based)별로 사용할 고정된 지연 시간 목록입니다.
var RetryDelays = []time.Duration{
	10 * time.Second, // 1차 재시도
	30 * time.Second, // 2차 재시도
	1 * time.Minute,  // 3차 재시도
	5 * time.Minute,  // 4차 재시도
	10 * time.Minute, // 5차 재시도
}

// TotalRetryDelay 는 이벤트가 DLQ 로 가기 전까지 재시도 토픽에서 기다리는 시간의 합이다.
func TotalRetryDelay() time.Duration {
	var total time.Duration
	for _, d := range RetryDelays {
		total += d
	}
	return total
}

// Topic은 토픽의 기본 이름, 재시도 토픽, DLQ 토픽 이름을 관리합니다.
type Topic struct {
	base string
}

func NewTopic(base string) Topic {
	return Topic{base: base}
}

func (t Topic) Base() string {
	return t.base
}

// DLQ는 DLQ 토픽 이름을 반환합니다 (예: my_topic.dlq).
func (t Topic) DLQ() string {
	return t.base + ".dlq"
}

// GetRetryTopics는 모든 재시도 토픽의 이름을 반환합니다. 형식: <base>.retry.<n>
func (t Topic) GetRetryTopics() []string {
	topics := make([]string, len(RetryDelays))
	for i := range RetryDelays {
		topics[i] = fmt.Sprintf("%s.retry.%d", t.base, i+1)
	}
	return topics
}

// GetRetryTopic은 다음 재시도 횟수(1-based)에 해당하는 재시도 토픽 이름을 반환합니다.
func (t Topic) GetRetryTopic(retryCount int) (string, error) {
	if retryCount <= 0 || retryCount > len(RetryDelays) {
		return "", ErrMaxRetryExceeded
	}
	return fmt.Sprintf("%s.retry.%d", t.base, retryCount), nil
}

// Event는 Kafka 메시지의 페이로드로 사용되는 구조체입니다.
type Event struct {
	ID        string          `json:"id"`
	Key       string          `json:"key,omitempty"` // 파티션 키. 비어 있으면 ID 사용
	Payload   json.RawMessage `json:"payload"`
	Retry     int             `json:"retry"` // 현재 재시도 횟수 (0부터 시작)
	MaxRetry  int             `json:"max_retry"`
	LastError string          `json:"last_error,omitempty"`
}

// PartitionKey 는 메시지 키로 사용할 값을 반환합니다.
func (e Event) PartitionKey() string {
	if e.Key != "" {
		return e.Key
	}
	return e.ID
}

// EventHandler는 이벤트 처리 함수의 시그니처입니다.
type EventHandler func(ctx context.Context, event Event) error

// EventBus 인터페이스는 이벤트 발행 및 구독의 추상화를 정의합니다.
type EventBus interface {
	Publish(ctx context.Context, topic string, event Event) error
	// Subscribe는 기본 토픽을 구독하여 메인 로직을 실행합니다.
	// 핸들러가 성공하거나 재시도/DLQ 발행이 성공한 뒤에만 오프셋을 커밋합니다.
	Subscribe(ctx context.Context, groupID string, topic Topic, handler EventHandler) error
	// StartRetryReinjector는 모든 재시도 토픽을 구독하고 기본 토픽으로 이벤트를 재발행합니다.
	StartRetryReinjector(ctx context.Context, groupID string, topic Topic) error
	Close()
}

// ErrMaxRetryExceeded는 최대 재시도 횟수를 초과했을 때 반환되는 오류입니다.
var ErrMaxRetryExceeded = errors.New("max retry exceeded")

// permanentError 로 감싼 핸들러 오류는 재시도 없이 곧바로 DLQ 로 보냅니다.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent 는 재시도해도 결과가 달라지지 않는 오류(디코딩 실패 등)를 표시합니다.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent 는 err 가 Permanent 로 감싸졌는지 확인합니다.
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// nextDestination 은 실패한 이벤트를 보낼 토픽을 결정하고 이벤트의 재시도 정보를 갱신합니다.
func nextDestination(topic Topic, evt *Event, handlerErr error) (string, bool) {
	evt.LastError = handlerErr.Error()
	if IsPermanent(handlerErr) || evt.Retry >= evt.MaxRetry {
		return topic.DLQ(), true
	}
	next := evt.Retry + 1
	retryTopic, err := topic.GetRetryTopic(next)
	if err != nil {
		return topic.DLQ(), true
	}
	evt.Retry = next
	return retryTopic, false
}
