package dispatcher

import (
	"context"
	"fmt"
	"strings"

	"edu-gen/cmd/internal/eventbus"
	"edu-gen/cmd/internal/metrics"
	"edu-gen/content"
	"edu-gen/events"
)

// EventDispatcher API/운영 도구용 generate 이벤트 발행 서비스
type EventDispatcher struct {
	bus    eventbus.EventBus
	topic  eventbus.Topic
	source string
}

// NewEventDispatcher 는 source ("api", "edugenctl") 를 BaseEvent 에 기록하는 디스패처를 만든다.
func NewEventDispatcher(bus eventbus.EventBus, source string) *EventDispatcher {
	return &EventDispatcher{
		bus:    bus,
		topic:  eventbus.TopicGenerationEvents,
		source: source,
	}
}

// NewGenerateEvent 는 prompt 와 태그를 다듬어 generate 이벤트를 만든다.
// educationPersonalID 가 비어 있으면 워커가 이벤트 ID 로부터 파생한다.
func (d *EventDispatcher) NewGenerateEvent(userID, prompt string, tags []string, educationPersonalID string) *events.GenerateRequestedEvent {
	return &events.GenerateRequestedEvent{
		BaseEvent:           events.NewBaseEvent(events.GenerateRequested, d.source),
		Prompt:              strings.TrimSpace(prompt),
		Tags:                content.NormalizeTags(tags),
		UserID:              userID,
		EducationPersonalID: strings.TrimSpace(educationPersonalID),
	}
}

// PublishGenerate 는 검증 후 education_personal_id 를 키로 발행한다.
// 검증 실패는 *events.ValidationError 로 즉시 반환하고 버스에는 아무것도 쓰지 않는다.
func (d *EventDispatcher) PublishGenerate(ctx context.Context, e *events.GenerateRequestedEvent) error {
	if err := e.Validate(); err != nil {
		return err
	}
	evt, err := eventbus.NewJSONEvent(e.ID, e.Key(), e, 0)
	if err != nil {
		return fmt.Errorf("failed to build event: %w", err)
	}
	err = d.bus.Publish(ctx, d.topic.Base(), evt)
	metrics.EventsPublished.WithLabelValues(string(e.GetType()), metrics.PublishStatus(err)).Inc()
	return err
}
