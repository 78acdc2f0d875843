package dispatcher

import (
	"context"
	"fmt"

	"edu-gen/cmd/internal/eventbus"
	"edu-gen/cmd/internal/metrics"
	"edu-gen/events"
)

const source = "worker"

// EventDispatcher 워커용 이벤트 발행 서비스
type EventDispatcher struct {
	bus   eventbus.EventBus
	topic eventbus.Topic
}

// NewEventDispatcher 새로운 이벤트 디스패처 생성
func NewEventDispatcher(bus eventbus.EventBus) *EventDispatcher {
	return &EventDispatcher{
		bus:   bus,
		topic: eventbus.TopicGenerationEvents,
	}
}

// NewCompletedEvent 는 Base 필드를 채운 generate.completed 이벤트를 만든다.
func NewCompletedEvent(educationPersonalID, userID, articleID, slug string, content events.GeneratedContent) *events.GenerateCompletedEvent {
	return &events.GenerateCompletedEvent{
		BaseEvent:           events.NewBaseEvent(events.GenerateCompleted, source),
		EducationPersonalID: educationPersonalID,
		UserID:              userID,
		ArticleID:           articleID,
		Slug:                slug,
		Content:             content,
	}
}

// NewFailedEvent 는 Base 필드를 채운 generate.failed 이벤트를 만든다.
func NewFailedEvent(educationPersonalID, userID, prompt, reason, kind string) *events.GenerateFailedEvent {
	return &events.GenerateFailedEvent{
		BaseEvent:           events.NewBaseEvent(events.GenerateFailed, source),
		EducationPersonalID: educationPersonalID,
		Error:               reason,
		ErrorKind:           kind,
		Prompt:              prompt,
		UserID:              userID,
	}
}

// PublishCompleted 생성 완료 이벤트 발행
func (d *EventDispatcher) PublishCompleted(ctx context.Context, e *events.GenerateCompletedEvent) error {
	return d.publish(ctx, e.ID, e)
}

// PublishFailed 생성 실패 이벤트 발행
func (d *EventDispatcher) PublishFailed(ctx context.Context, e *events.GenerateFailedEvent) error {
	return d.publish(ctx, e.ID, e)
}

func (d *EventDispatcher) publish(ctx context.Context, id string, e events.Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	evt, err := eventbus.NewJSONEvent(id, e.Key(), e, 0)
	if err != nil {
		return fmt.Errorf("failed to build event: %w", err)
	}
	err = d.bus.Publish(ctx, d.topic.Base(), evt)
	metrics.EventsPublished.WithLabelValues(string(e.GetType()), metrics.PublishStatus(err)).Inc()
	return err
}
