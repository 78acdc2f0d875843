package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"edu-gen/cmd/api/event/dispatcher"
	"edu-gen/cmd/api/quota"
	"edu-gen/cmd/internal/eventbus"
	"edu-gen/events"
	"edu-gen/models"
	"edu-gen/repositories"
)

type fakeGenerationStore struct {
	records map[string]models.GenerationRecord
	logs    []models.AILog
}

func (f *fakeGenerationStore) Get(ctx context.Context, id string) (*models.GenerationRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &rec, nil
}

func (f *fakeGenerationStore) ListByUser(ctx context.Context, userID string, limit int64) ([]models.GenerationRecord, error) {
	var out []models.GenerationRecord
	for _, rec := range f.records {
		if rec.UserID == userID && int64(len(out)) < limit {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeGenerationStore) ResetForRetry(ctx context.Context, id, eventID string) (*models.GenerationRecord, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if rec.State != models.GenerationFailed {
		return nil, repositories.ErrStateConflict
	}
	rec.State = models.GenerationPending
	rec.LastEventID = eventID
	f.records[id] = rec
	return &rec, nil
}

func (f *fakeGenerationStore) MarkFailed(ctx context.Context, id, reason, kind string) error {
	rec := f.records[id]
	rec.State = models.GenerationFailed
	rec.LastError = reason
	rec.ErrorKind = kind
	f.records[id] = rec
	return nil
}

func (f *fakeGenerationStore) ListByEducationPersonalID(ctx context.Context, id string) ([]models.AILog, error) {
	return f.logs, nil
}

func TestRunUsageDefaultsToToday(t *testing.T) {
	tracker := quota.NewMemoryTracker(5)
	ctx := context.Background()
	today := models.DayKey(time.Now())

	res, _, err := tracker.CheckAndReserve(ctx, "user-1", today)
	require.NoError(t, err)
	_, err = tracker.Commit(ctx, res)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runUsage(ctx, tracker, "user-1", "", &out))

	var usage quota.Usage
	require.NoError(t, json.Unmarshal(out.Bytes(), &usage))
	assert.Equal(t, quota.Usage{Date: today, Current: 1, Limit: 5, Remaining: 4}, usage)

	out.Reset()
	require.NoError(t, runUsage(ctx, tracker, "user-1", "2020-01-01", &out))
	require.NoError(t, json.Unmarshal(out.Bytes(), &usage))
	assert.Equal(t, 0, usage.Current)
}

func TestRunStatusWithLogs(t *testing.T) {
	store := &fakeGenerationStore{
		records: map[string]models.GenerationRecord{"edu-1": {ID: "edu-1", UserID: "user-1", State: models.GenerationFailed, ErrorKind: "timeout"}},
		logs:    []models.AILog{{EducationPersonalID: "edu-1", Provider: "google", ErrorKind: "timeout"}},
	}

	var out bytes.Buffer
	require.NoError(t, runStatus(context.Background(), store, store, "edu-1", &out))

	var got statusOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, models.GenerationFailed, got.Generation.State)
	require.Len(t, got.AILogs, 1)
	assert.Equal(t, "google", got.AILogs[0].Provider)

	err := runStatus(context.Background(), store, nil, "missing", &out)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestRunListPrintsEmptyArray(t *testing.T) {
	store := &fakeGenerationStore{records: map[string]models.GenerationRecord{}}
	var out bytes.Buffer
	require.NoError(t, runList(context.Background(), store, "nobody", 0, &out))
	assert.Equal(t, "[]\n", out.String())
}

func TestRunRetryPublishesWithoutQuota(t *testing.T) {
	store := &fakeGenerationStore{records: map[string]models.GenerationRecord{
		"edu-1": {ID: "edu-1", UserID: "user-1", Prompt: "Explain tides", Tags: []string{"ocean"}, State: models.GenerationFailed, Attempts: 2},
	}}
	bus := eventbus.NewMemoryEventBus()

	var out bytes.Buffer
	require.NoError(t, runRetry(context.Background(), store, dispatcher.NewEventDispatcher(bus, "edugenctl"), "edu-1", &out))
	assert.Contains(t, out.String(), "attempt 3")

	msgs := bus.Messages(eventbus.TopicGenerationEvents.Base())
	require.Len(t, msgs, 1)
	decoded, err := events.Decode(msgs[0].Payload)
	require.NoError(t, err)
	e := decoded.(*events.GenerateRequestedEvent)
	assert.Equal(t, "edu-1", e.EducationPersonalID)
	assert.Equal(t, "edugenctl", e.Source)
	assert.Equal(t, e.ID, store.records["edu-1"].LastEventID)
	assert.Equal(t, models.GenerationPending, store.records["edu-1"].State)
}

func TestRunRetryRejectsNonFailed(t *testing.T) {
	store := &fakeGenerationStore{records: map[string]models.GenerationRecord{
		"edu-1": {ID: "edu-1", UserID: "user-1", Prompt: "p", State: models.GenerationCompleted},
	}}
	bus := eventbus.NewMemoryEventBus()

	err := runRetry(context.Background(), store, dispatcher.NewEventDispatcher(bus, "edugenctl"), "edu-1", &bytes.Buffer{})
	assert.ErrorIs(t, err, repositories.ErrStateConflict)
	assert.Empty(t, bus.Messages(eventbus.TopicGenerationEvents.Base()))
}

func TestRunRetryRestoresStateOnPublishFailure(t *testing.T) {
	store := &fakeGenerationStore{records: map[string]models.GenerationRecord{
		"edu-1": {ID: "edu-1", UserID: "user-1", Prompt: "p", State: models.GenerationFailed, LastError: "boom", ErrorKind: "transport"},
	}}
	bus := eventbus.NewMemoryEventBus()
	bus.PublishErr = errors.New("broker down")

	err := runRetry(context.Background(), store, dispatcher.NewEventDispatcher(bus, "edugenctl"), "edu-1", &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, models.GenerationFailed, store.records["edu-1"].State)
	assert.Equal(t, "boom", store.records["edu-1"].LastError)
}

type fakeArticleStore struct {
	article *models.EducationArticle
	marked  models.ArticleStatus
}

func (f *fakeArticleStore) GetBySlug(ctx context.Context, slug string, includeUnpublished bool) (*models.EducationArticle, error) {
	if f.article == nil || f.article.Slug != slug {
		return nil, repositories.ErrNotFound
	}
	cp := *f.article
	return &cp, nil
}

func (f *fakeArticleStore) MarkStatus(ctx context.Context, id primitive.ObjectID, status models.ArticleStatus) error {
	f.marked = status
	f.article.Status = status
	return nil
}

func TestRunPublish(t *testing.T) {
	generatedAt := time.Now()
	store := &fakeArticleStore{article: &models.EducationArticle{
		ID: primitive.NewObjectID(), Slug: "kompos", Status: models.ArticleDraft, GeneratedAt: &generatedAt,
	}}

	var out bytes.Buffer
	require.NoError(t, runPublish(context.Background(), store, "kompos", models.ArticlePublished, &out))
	assert.Equal(t, models.ArticlePublished, store.marked)
	assert.Contains(t, out.String(), "draft -> published")

	out.Reset()
	require.NoError(t, runPublish(context.Background(), store, "kompos", models.ArticlePublished, &out))
	assert.Contains(t, out.String(), "already published")

	err := runPublish(context.Background(), store, "missing", models.ArticlePublished, &out)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestRunPublishRequiresGeneratedContent(t *testing.T) {
	store := &fakeArticleStore{article: &models.EducationArticle{ID: primitive.NewObjectID(), Slug: "empty", Status: models.ArticleDraft}}

	err := runPublish(context.Background(), store, "empty", models.ArticlePublished, &bytes.Buffer{})
	require.Error(t, err)
	assert.Empty(t, store.marked)
}
