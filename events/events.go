package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType 이벤트 타입 정의
type EventType string

const (
	GenerateRequested EventType = "generate"
	GenerateCompleted EventType = "generate.completed"
	GenerateFailed    EventType = "generate.failed"
)

const SchemaVersion = "1.0"

// BaseEvent 모든 이벤트의 기본 구조
type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"` // "api", "worker", "edugenctl"
	Version   string    `json:"version"`
}

// GetType 이벤트 타입을 반환
func (e BaseEvent) GetType() EventType {
	return e.Type
}

// Event 는 세 가지 생성 이벤트 variant 가 공통으로 구현한다.
type Event interface {
	GetType() EventType
	// Key 는 동일 생성 요청의 이벤트를 같은 파티션에 두기 위한 메시지 키다.
	Key() string
	Validate() error
}

// NewBaseEvent 는 새 ID 와 현재 시각으로 BaseEvent 를 만든다.
func NewBaseEvent(t EventType, source string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Version:   SchemaVersion,
	}
}

// GenerateRequestedEvent 는 생성 파이프라인을 시작시킨다.
type GenerateRequestedEvent struct {
	BaseEvent
	Prompt              string   `json:"prompt"`
	Tags                []string `json:"tags,omitempty"`
	UserID              string   `json:"user_id"`
	EducationPersonalID string   `json:"education_personal_id,omitempty"`
}

// ResolveEducationPersonalID 는 payload 의 id 를 우선하고, 없으면 이벤트 ID 에서 파생한다.
// 재전송된 이벤트는 같은 이벤트 ID 를 가지므로 항상 같은 값이 나온다.
func (e *GenerateRequestedEvent) ResolveEducationPersonalID() string {
	if e.EducationPersonalID != "" {
		return e.EducationPersonalID
	}
	return DeriveEducationPersonalID(e.ID)
}

func (e *GenerateRequestedEvent) Key() string { return e.ResolveEducationPersonalID() }

// GenerateCompletedEvent 는 기사 저장까지 끝난 생성 결과다.
type GenerateCompletedEvent struct {
	BaseEvent
	EducationPersonalID string           `json:"education_personal_id"`
	UserID              string           `json:"user_id"`
	ArticleID           string           `json:"article_id,omitempty"`
	Slug                string           `json:"slug,omitempty"`
	Content             GeneratedContent `json:"content"`
}

func (e *GenerateCompletedEvent) Key() string { return e.EducationPersonalID }

// GenerateFailedEvent 는 재시도에 필요한 원본 prompt 를 함께 싣는다.
type GenerateFailedEvent struct {
	BaseEvent
	EducationPersonalID string `json:"education_personal_id,omitempty"`
	Error               string `json:"error"`
	ErrorKind           string `json:"error_kind,omitempty"`
	Prompt              string `json:"prompt"`
	UserID              string `json:"user_id"`
}

func (e *GenerateFailedEvent) Key() string { return e.EducationPersonalID }

// eventNamespace 는 DeriveEducationPersonalID 의 UUIDv5 네임스페이스다.
var eventNamespace = uuid.MustParse("7b0f2c4e-3d1a-5e8b-9c6f-2a4d8e1b7f30")

// DeriveEducationPersonalID 는 이벤트 ID 로부터 결정적인 education_personal_id 를 만든다.
func DeriveEducationPersonalID(eventID string) string {
	return uuid.NewSHA1(eventNamespace, []byte(eventID)).String()
}

// Decode 는 type 필드만 먼저 읽고 알맞은 variant 로 역직렬화한다.
func Decode(data []byte) (Event, error) {
	var peek struct {
		Type EventType `json:"type"`
	}
	if err := json.Unmarshal(data, &peek); err != nil {
		return nil, fmt.Errorf("failed to peek event type: %w", err)
	}

	var event Event
	switch peek.Type {
	case GenerateRequested:
		event = &GenerateRequestedEvent{}
	case GenerateCompleted:
		event = &GenerateCompletedEvent{}
	case GenerateFailed:
		event = &GenerateFailedEvent{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, peek.Type)
	}

	if err := json.Unmarshal(data, event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return event, nil
}
