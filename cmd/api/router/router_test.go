package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"edu-gen/cmd/api/auth"
	"edu-gen/cmd/api/dto"
	"edu-gen/cmd/api/event/dispatcher"
	"edu-gen/cmd/api/quota"
	"edu-gen/cmd/api/services"
	"edu-gen/cmd/internal/eventbus"
	"edu-gen/models"
	"edu-gen/repositories"
)

type memGenerations struct {
	mu      sync.Mutex
	records map[string]models.GenerationRecord
}

func (m *memGenerations) Get(ctx context.Context, id string) (*models.GenerationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &rec, nil
}

func (m *memGenerations) EnsurePending(ctx context.Context, in repositories.BeginInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[in.ID]; !ok {
		m.records[in.ID] = models.GenerationRecord{ID: in.ID, UserID: in.UserID, Prompt: in.Prompt, State: models.GenerationPending}
	}
	return nil
}

func (m *memGenerations) ResetForRetry(ctx context.Context, id, eventID string) (*models.GenerationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if rec.State != models.GenerationFailed {
		return nil, repositories.ErrStateConflict
	}
	rec.State = models.GenerationPending
	m.records[id] = rec
	return &rec, nil
}

func (m *memGenerations) MarkFailed(ctx context.Context, id, reason, kind string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.records[id]
	rec.State = models.GenerationFailed
	m.records[id] = rec
	return nil
}

type memArticles struct {
	mu    sync.Mutex
	items []models.EducationArticle
}

func (m *memArticles) Create(ctx context.Context, a *models.EducationArticle) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = primitive.NewObjectID()
	m.items = append(m.items, *a)
	return a.ID, nil
}

func (m *memArticles) GetBySlug(ctx context.Context, slug string, includeUnpublished bool) (*models.EducationArticle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if a.Slug == slug && (includeUnpublished || a.Status == models.ArticlePublished) {
			return &a, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memArticles) FindByEducationPersonalID(ctx context.Context, id string) (*models.EducationArticle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.items {
		if a.EducationPersonalID == id {
			return &a, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (m *memArticles) List(ctx context.Context, f repositories.ListFilter) ([]models.EducationArticle, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.EducationArticle
	for _, a := range m.items {
		if a.Status == models.ArticlePublished {
			out = append(out, a)
		}
	}
	return out, int64(len(out)), nil
}

type testServer struct {
	engine      *gin.Engine
	tokens      *auth.JWTManager
	bus         *eventbus.MemoryEventBus
	generations *memGenerations
	articles    *memArticles
}

func newTestServer(t *testing.T, limit int) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ts := &testServer{
		tokens:      auth.NewJWTManager("test-secret", "edu-gen", time.Hour),
		bus:         eventbus.NewMemoryEventBus(),
		generations: &memGenerations{records: map[string]models.GenerationRecord{}},
		articles:    &memArticles{},
	}
	ts.engine = New(Deps{
		Generation: services.NewGenerationService(
			quota.NewMemoryTracker(limit),
			dispatcher.NewEventDispatcher(ts.bus, "api"),
			ts.generations,
			ts.articles,
		),
		Articles:       services.NewArticleService(ts.articles),
		Tokens:         ts.tokens,
		AllowedOrigins: []string{"https://edu.example.com"},
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, userID, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if userID != "" {
		token, err := ts.tokens.Sign(userID, auth.RoleUser)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, 10)
	w := ts.do(t, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[dto.HealthResponseDTO](t, w).Status)
}

func TestHealthDegraded(t *testing.T) {
	gin.SetMode(gin.TestMode)
	engine := New(Deps{
		Tokens: auth.NewJWTManager("s", "edu-gen", time.Hour),
		Health: func(ctx context.Context) error { return errors.New("no primary") },
	})
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, 10)
	ts.do(t, http.MethodGet, "/health", "", "")

	w := ts.do(t, http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "edugen_http_requests_total")
}

func TestGenerationRequiresToken(t *testing.T) {
	ts := newTestServer(t, 10)
	w := ts.do(t, http.MethodPost, "/api/v1/generation", "", `{"prompt":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGenerateFlowUntilQuotaExceeded(t *testing.T) {
	ts := newTestServer(t, 2)

	w := ts.do(t, http.MethodPost, "/api/v1/generation", "user-1", `{"prompt":"Explain tides","tags":["ocean"]}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	accepted := decode[dto.GenerateAcceptedDTO](t, w)
	assert.NotEmpty(t, accepted.EventID)
	assert.Equal(t, 1, accepted.Usage.Current)
	assert.Equal(t, 1, accepted.Usage.Remaining)

	w = ts.do(t, http.MethodGet, "/api/v1/generation/"+accepted.EducationPersonalID, "user-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pending", decode[dto.GenerationStatusDTO](t, w).State)

	w = ts.do(t, http.MethodGet, "/api/v1/generation/"+accepted.EducationPersonalID, "user-2", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/generation", "user-1", `{"prompt":"second"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = ts.do(t, http.MethodPost, "/api/v1/generation", "user-1", `{"prompt":"third"}`)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	exceeded := decode[dto.QuotaExceededDTO](t, w)
	assert.Equal(t, dto.QuotaExceededDTO{Error: "quota_exceeded", Current: 2, Limit: 2, Remaining: 0}, exceeded)

	w = ts.do(t, http.MethodGet, "/api/v1/generation/usage", "user-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	usage := decode[dto.UsageDTO](t, w)
	assert.Equal(t, 2, usage.Current)
	assert.Equal(t, 0, usage.Remaining)

	assert.Len(t, ts.bus.Messages(eventbus.TopicGenerationEvents.Base()), 2)
}

func TestGenerateValidation(t *testing.T) {
	ts := newTestServer(t, 10)

	w := ts.do(t, http.MethodPost, "/api/v1/generation", "user-1", `{"prompt":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_prompt", decode[dto.ErrorResponseDTO](t, w).Error)

	w = ts.do(t, http.MethodPost, "/api/v1/generation", "user-1", `{"prompt":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request", decode[dto.ErrorResponseDTO](t, w).Error)
}

func TestGeneratePublishFailure(t *testing.T) {
	ts := newTestServer(t, 10)
	ts.bus.PublishErr = errors.New("broker down")

	w := ts.do(t, http.MethodPost, "/api/v1/generation", "user-1", `{"prompt":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "publish_failed", decode[dto.ErrorResponseDTO](t, w).Error)

	ts.bus.PublishErr = nil
	w = ts.do(t, http.MethodGet, "/api/v1/generation/usage", "user-1", "")
	assert.Equal(t, 0, decode[dto.UsageDTO](t, w).Current)
}

func TestRetryEndpoint(t *testing.T) {
	ts := newTestServer(t, 10)
	ts.generations.records["edu-1"] = models.GenerationRecord{ID: "edu-1", UserID: "user-1", Prompt: "p", State: models.GenerationFailed}
	ts.generations.records["edu-2"] = models.GenerationRecord{ID: "edu-2", UserID: "user-1", Prompt: "p", State: models.GenerationCompleted}

	w := ts.do(t, http.MethodPost, "/api/v1/generation/edu-1/retry", "user-1", "")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, "edu-1", decode[dto.GenerateAcceptedDTO](t, w).EducationPersonalID)

	w = ts.do(t, http.MethodPost, "/api/v1/generation/edu-2/retry", "user-1", "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "not_retryable", decode[dto.ErrorResponseDTO](t, w).Error)
}

func TestDraftAndArticleEndpoints(t *testing.T) {
	ts := newTestServer(t, 10)

	w := ts.do(t, http.MethodPost, "/api/v1/education/drafts", "user-1", `{"title":"Tides","tags":["Ocean"]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	draft := decode[dto.CreateDraftResponseDTO](t, w)
	assert.NotEmpty(t, draft.EducationPersonalID)

	w = ts.do(t, http.MethodPost, "/api/v1/education/drafts", "user-1", "")
	require.Equal(t, http.StatusCreated, w.Code, "body is optional")

	ts.articles.items = append(ts.articles.items,
		models.EducationArticle{ID: primitive.NewObjectID(), UserID: "user-1", Title: "Kompos", Slug: "kompos", Status: models.ArticlePublished, ReadingTime: 2},
		models.EducationArticle{ID: primitive.NewObjectID(), UserID: "user-1", Title: "Secret", Slug: "secret", Status: models.ArticleDraft},
	)

	w = ts.do(t, http.MethodGet, "/api/v1/education/kompos", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decode[dto.ArticleDTO](t, w).ReadingTime)

	w = ts.do(t, http.MethodGet, "/api/v1/education/secret", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = ts.do(t, http.MethodGet, "/api/v1/education/secret", "user-1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/v1/education?page=1&page_size=10", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[dto.Pagination[dto.ArticleSummaryDTO]](t, w)
	assert.Equal(t, int64(1), page.Total)
	assert.Equal(t, 10, page.PageSize)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "kompos", page.Data[0].Slug)
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, 10)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/generation", nil)
	req.Header.Set("Origin", "https://edu.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Authorization, Content-Type")
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://edu.example.com", w.Header().Get("Access-Control-Allow-Origin"))
}
