package handler

import (
	"context"

	"edu-gen/cmd/internal/eventbus"
	"edu-gen/cmd/internal/logger"
	"edu-gen/events"
)

// HandleEvent 는 버스 메시지를 이벤트 variant 로 풀어 알맞은 처리기로 보낸다.
// 같은 토픽의 generate.completed / generate.failed 는 다른 서비스용이므로 커밋만 한다.
func (h *EventHandlers) HandleEvent(ctx context.Context, ev eventbus.Event) error {
	decoded, err := events.Decode(ev.Payload)
	if err != nil {
		return eventbus.Permanent(err)
	}

	switch e := decoded.(type) {
	case *events.GenerateRequestedEvent:
		return h.HandleGenerate(ctx, e)
	case *events.GenerateCompletedEvent, *events.GenerateFailedEvent:
		logger.Log.Debugf("skip %s event %s", e.GetType(), ev.ID)
		return nil
	default:
		return eventbus.Permanent(events.ErrUnknownEventType)
	}
}
