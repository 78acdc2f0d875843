package handler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-gen/cmd/internal/eventbus"
	"edu-gen/cmd/worker/event/dispatcher"
	"edu-gen/events"
)

func TestHandleEventRoutesGenerate(t *testing.T) {
	f := newFixture(t, succeedWith("Kompos", "isi"), time.Second)
	e := newGenerateEvent("edu-1", "kompos")
	msg, err := eventbus.NewJSONEvent(e.ID, e.Key(), e, 0)
	require.NoError(t, err)

	require.NoError(t, f.handler.HandleEvent(context.Background(), msg))
	assert.Equal(t, int32(1), f.provider.calls.Load())
}

func TestHandleEventSkipsTerminalEvents(t *testing.T) {
	f := newFixture(t, succeedWith("Kompos", "isi"), time.Second)
	e := dispatcher.NewCompletedEvent("edu-1", "user-1", "a", "kompos", events.GeneratedContent{Title: "K", Content: "C"})
	msg, err := eventbus.NewJSONEvent(e.ID, e.Key(), e, 0)
	require.NoError(t, err)

	require.NoError(t, f.handler.HandleEvent(context.Background(), msg))
	assert.Zero(t, f.provider.calls.Load())
}

func TestHandleEventRejectsGarbage(t *testing.T) {
	f := newFixture(t, succeedWith("Kompos", "isi"), time.Second)

	err := f.handler.HandleEvent(context.Background(), eventbus.Event{ID: "1", Payload: []byte(`{"type":"post.created"}`)})
	assert.True(t, eventbus.IsPermanent(err))
	assert.ErrorIs(t, err, events.ErrUnknownEventType)

	err = f.handler.HandleEvent(context.Background(), eventbus.Event{ID: "2", Payload: []byte(`not json`)})
	assert.True(t, eventbus.IsPermanent(err))
}

func TestConsumerOverMemoryBus(t *testing.T) {
	f := newFixture(t, succeedWith("Kompos", "isi"), time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e := newGenerateEvent("edu-1", "kompos")
	msg, err := eventbus.NewJSONEvent(e.ID, e.Key(), e, 0)
	require.NoError(t, err)
	// 같은 이벤트를 두 번 전달해도 완료 이벤트는 하나
	require.NoError(t, f.bus.Publish(ctx, eventbus.TopicGenerationEvents.Base(), msg))
	require.NoError(t, f.bus.Publish(ctx, eventbus.TopicGenerationEvents.Base(), msg))

	go func() { _ = f.bus.Subscribe(ctx, "worker", eventbus.TopicGenerationEvents, f.handler.HandleEvent) }()

	require.Eventually(t, func() bool { return len(f.published(t)) == 3 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	var completed int
	for _, ev := range f.published(t) {
		if ev.GetType() == events.GenerateCompleted {
			completed++
		}
	}
	assert.Equal(t, 1, completed)
	assert.Equal(t, int32(1), f.provider.calls.Load())
}
