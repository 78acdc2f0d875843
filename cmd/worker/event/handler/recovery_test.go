package handler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edu-gen/cmd/internal/eventbus"
	"edu-gen/cmd/worker/generator"
	"edu-gen/events"
	"edu-gen/models"
	"edu-gen/repositories"
)

type recoveryStore struct {
	generations *fakeGenerations
	before      time.Time
	err         error
}

func (s *recoveryStore) ListUnpublishedTerminal(ctx context.Context, before time.Time, limit int64) ([]models.GenerationRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.before = before
	return s.list(limit, func(rec *models.GenerationRecord) bool {
		terminal := rec.State == models.GenerationCompleted || rec.State == models.GenerationFailed
		return terminal && !rec.TerminalPublished
	}), nil
}

func (s *recoveryStore) ListStalled(ctx context.Context, before time.Time, limit int64) ([]models.GenerationRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.list(limit, func(rec *models.GenerationRecord) bool {
		return isInFlight(rec.State) && rec.UpdatedAt.Before(before)
	}), nil
}

func (s *recoveryStore) MarkStalled(ctx context.Context, id string, before time.Time, reason, kind string) error {
	s.generations.mu.Lock()
	defer s.generations.mu.Unlock()
	rec, ok := s.generations.records[id]
	if !ok || !isInFlight(rec.State) || !rec.UpdatedAt.Before(before) {
		return repositories.ErrStateConflict
	}
	rec.State = models.GenerationFailed
	rec.LastError = reason
	rec.ErrorKind = kind
	rec.TerminalPublished = false
	return nil
}

func (s *recoveryStore) list(limit int64, match func(*models.GenerationRecord) bool) []models.GenerationRecord {
	s.generations.mu.Lock()
	defer s.generations.mu.Unlock()
	var out []models.GenerationRecord
	for _, rec := range s.generations.records {
		if match(rec) && int64(len(out)) < limit {
			out = append(out, *rec)
		}
	}
	return out
}

func isInFlight(state models.GenerationState) bool {
	return state == models.GenerationPending || state == models.GenerationGenerating
}

func TestRecoveryRepublishesCompletedAndFailed(t *testing.T) {
	f := newFixture(t, succeedWith("Kompos", "isi"), time.Second)
	ctx := context.Background()

	f.bus.PublishErr = errors.New("broker down")
	require.Error(t, f.handler.HandleGenerate(ctx, newGenerateEvent("edu-1", "kompos")))

	f.provider.generate = func(ctx context.Context, req generator.Request) (*generator.Result, error) {
		return nil, &generator.ProviderError{Kind: generator.KindPolicy, Err: errors.New("blocked")}
	}
	require.Error(t, f.handler.HandleGenerate(ctx, newGenerateEvent("edu-2", "senjata")))
	f.bus.PublishErr = nil

	lister := &recoveryStore{generations: f.generations}
	recovery := NewRecoveryService(lister, f.handler, time.Minute)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	recovery.now = func() time.Time { return now }

	n, err := recovery.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, now.Add(-time.Minute), lister.before)

	byID := map[string]events.Event{}
	for _, e := range f.published(t) {
		switch evt := e.(type) {
		case *events.GenerateCompletedEvent:
			byID[evt.EducationPersonalID] = evt
		case *events.GenerateFailedEvent:
			byID[evt.EducationPersonalID] = evt
		}
	}
	require.Len(t, byID, 2)
	assert.Equal(t, "kompos", byID["edu-1"].(*events.GenerateCompletedEvent).Slug)
	failed := byID["edu-2"].(*events.GenerateFailedEvent)
	assert.Equal(t, "senjata", failed.Prompt)
	assert.Equal(t, string(generator.KindPolicy), failed.ErrorKind)

	for _, id := range []string{"edu-1", "edu-2"} {
		rec, _ := f.generations.Get(ctx, id)
		assert.True(t, rec.TerminalPublished, id)
	}

	n, err = recovery.RunOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, f.published(t), 2)
	assert.Equal(t, int32(2), f.provider.calls.Load())
}

func TestRecoveryKeepsGoingWhenOneRecordFails(t *testing.T) {
	f := newFixture(t, succeedWith("Kompos", "isi"), time.Second)
	f.generations.records["edu-orphan"] = &models.GenerationRecord{ID: "edu-orphan", UserID: "user-1", State: models.GenerationCompleted}
	f.generations.records["edu-failed"] = &models.GenerationRecord{ID: "edu-failed", UserID: "user-1", Prompt: "x", State: models.GenerationFailed, ErrorKind: "timeout"}

	recovery := NewRecoveryService(&recoveryStore{generations: f.generations}, f.handler, time.Minute)
	n, err := recovery.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	orphan, _ := f.generations.Get(context.Background(), "edu-orphan")
	assert.False(t, orphan.TerminalPublished)
}

func TestRecoveryListError(t *testing.T) {
	f := newFixture(t, succeedWith("Kompos", "isi"), time.Second)
	recovery := NewRecoveryService(&recoveryStore{generations: f.generations, err: errors.New("mongo down")}, f.handler, time.Minute)

	_, err := recovery.RunOnce(context.Background())
	assert.ErrorContains(t, err, "mongo down")
}

func TestRecoveryRunStopsOnCancel(t *testing.T) {
	f := newFixture(t, succeedWith("Kompos", "isi"), time.Second)
	recovery := NewRecoveryService(&recoveryStore{generations: f.generations}, f.handler, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- recovery.Run(ctx, 10*time.Millisecond) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("recovery loop did not stop")
	}
}

func TestRecoveryFailsGenerationStuckAfterDeadLetter(t *testing.T) {
	f := newFixture(t, succeedWith("Kompos", "isi"), time.Second)
	f.articles.saveErr = errors.New("mongo unavailable")
	evt := newGenerateEvent("edu-1", "kompos")

	msg, err := eventbus.NewJSONEvent(evt.ID, evt.Key(), evt, 0)
	require.NoError(t, err)
	require.NoError(t, f.bus.Publish(context.Background(), eventbus.TopicGenerationEvents.Base(), msg))

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = f.bus.Subscribe(ctx, "worker", eventbus.TopicGenerationEvents, f.handler.HandleEvent) }()
	require.Eventually(t, func() bool {
		return len(f.bus.Messages(eventbus.TopicGenerationEvents.DLQ())) == 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	rec, _ := f.generations.Get(context.Background(), "edu-1")
	require.Equal(t, models.GenerationGenerating, rec.State)
	calls := f.provider.calls.Load()

	store := &recoveryStore{generations: f.generations}
	recovery := NewRecoveryService(store, f.handler, time.Minute)
	n, err := recovery.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var failed []*events.GenerateFailedEvent
	for _, e := range f.published(t) {
		if fe, ok := e.(*events.GenerateFailedEvent); ok {
			failed = append(failed, fe)
		}
	}
	require.Len(t, failed, 1)
	assert.Equal(t, string(generator.KindStalled), failed[0].ErrorKind)
	assert.Equal(t, "kompos", failed[0].Prompt)
	assert.Equal(t, "user-1", failed[0].UserID)

	rec, _ = f.generations.Get(context.Background(), "edu-1")
	assert.Equal(t, models.GenerationFailed, rec.State)
	assert.True(t, rec.TerminalPublished)

	// DLQ 에서 같은 이벤트를 다시 넣어도 두 번째 터미널 이벤트는 나가지 않는다.
	f.articles.saveErr = nil
	require.NoError(t, f.handler.HandleGenerate(context.Background(), evt))
	assert.Equal(t, calls, f.provider.calls.Load())
	assert.Zero(t, f.articles.count())

	n, err = recovery.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecoverySkipsRecentlyUpdatedGenerations(t *testing.T) {
	f := newFixture(t, succeedWith("Kompos", "isi"), time.Second)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	f.generations.records["edu-fresh"] = &models.GenerationRecord{ID: "edu-fresh", UserID: "user-1", State: models.GenerationGenerating, UpdatedAt: now.Add(-10 * time.Minute)}
	f.generations.records["edu-old"] = &models.GenerationRecord{ID: "edu-old", UserID: "user-1", Prompt: "x", State: models.GenerationPending, UpdatedAt: now.Add(-time.Hour)}

	recovery := NewRecoveryService(&recoveryStore{generations: f.generations}, f.handler, time.Minute)
	recovery.now = func() time.Time { return now }
	assert.Equal(t, time.Minute+time.Second+eventbus.TotalRetryDelay(), recovery.stallAfter)

	n, err := recovery.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	fresh, _ := f.generations.Get(context.Background(), "edu-fresh")
	assert.Equal(t, models.GenerationGenerating, fresh.State)
	old, _ := f.generations.Get(context.Background(), "edu-old")
	assert.Equal(t, models.GenerationFailed, old.State)
	assert.Equal(t, string(generator.KindStalled), old.ErrorKind)
}

func TestLateResultAfterStalledFailureIsDropped(t *testing.T) {
	var f *fixture
	f = newFixture(t, func(ctx context.Context, req generator.Request) (*generator.Result, error) {
		// 호출이 끝나기 전에 복구 스윕이 요청을 failed 로 정리했다.
		require.NoError(t, f.generations.MarkFailed(ctx, "edu-1", "stalled", string(generator.KindStalled)))
		return succeedWith("Kompos", "isi")(ctx, req)
	}, time.Second)

	require.NoError(t, f.handler.HandleGenerate(context.Background(), newGenerateEvent("edu-1", "kompos")))

	for _, e := range f.published(t) {
		_, completed := e.(*events.GenerateCompletedEvent)
		assert.False(t, completed)
	}
	rec, _ := f.generations.Get(context.Background(), "edu-1")
	assert.Equal(t, models.GenerationFailed, rec.State)
}
