package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"edu-gen/cmd/internal/eventbus"
	"edu-gen/cmd/internal/logger"
	"edu-gen/cmd/internal/metrics"
	"edu-gen/cmd/worker/event/dispatcher"
	"edu-gen/cmd/worker/generator"
	"edu-gen/content"
	"edu-gen/events"
	"edu-gen/models"
	"edu-gen/repositories"
)

const defaultProviderTimeout = 60 * time.Second

type GenerationStore interface {
	Get(ctx context.Context, id string) (*models.GenerationRecord, error)
	Begin(ctx context.Context, in repositories.BeginInput) (*models.GenerationRecord, error)
	MarkCompleted(ctx context.Context, id string, articleID primitive.ObjectID, slug string) error
	MarkFailed(ctx context.Context, id, reason, kind string) error
	MarkTerminalPublished(ctx context.Context, id string) error
}

type ArticleStore interface {
	FindByEducationPersonalID(ctx context.Context, id string) (*models.EducationArticle, error)
	SaveGenerated(ctx context.Context, a *models.EducationArticle) (*models.EducationArticle, error)
}

type AILogStore interface {
	Insert(ctx context.Context, log models.AILog) error
}

type Publisher interface {
	PublishCompleted(ctx context.Context, e *events.GenerateCompletedEvent) error
	PublishFailed(ctx context.Context, e *events.GenerateFailedEvent) error
}

type Pacer interface {
	WaitAndReserve(ctx context.Context) (bool, error)
}

type EventHandlers struct {
	generations     GenerationStore
	articles        ArticleStore
	aiLogs          AILogStore
	publisher       Publisher
	provider        generator.Provider
	pacer           Pacer
	providerTimeout time.Duration
}

func NewEventHandlers(
	generations GenerationStore,
	articles ArticleStore,
	aiLogs AILogStore,
	publisher Publisher,
	provider generator.Provider,
	pacer Pacer,
	providerTimeout time.Duration,
) *EventHandlers {
	if providerTimeout <= 0 {
		providerTimeout = defaultProviderTimeout
	}
	return &EventHandlers{
		generations:     generations,
		articles:        articles,
		aiLogs:          aiLogs,
		publisher:       publisher,
		provider:        provider,
		pacer:           pacer,
		providerTimeout: providerTimeout,
	}
}

// HandleGenerate 는 generate 이벤트 하나를 처리한다.
// 반환된 오류는 버스의 재시도 토픽으로 이어지므로 저장/발행 실패만 오류로 돌려준다.
// provider 실패는 generate.failed 로 끝내고 nil 을 반환한다.
func (h *EventHandlers) HandleGenerate(ctx context.Context, event *events.GenerateRequestedEvent) error {
	if err := event.Validate(); err != nil {
		return eventbus.Permanent(err)
	}
	id := event.ResolveEducationPersonalID()
	fields := logger.Fields{"education_personal_id": id, "event_id": event.ID, "user_id": event.UserID}

	rec, err := h.generations.Get(ctx, id)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("failed to load generation %s: %w", id, err)
	}
	if rec != nil {
		if done, err := h.resumeTerminal(ctx, rec, event, fields); done || err != nil {
			return err
		}
	}

	rec, err = h.generations.Begin(ctx, repositories.BeginInput{
		ID:      id,
		UserID:  event.UserID,
		Prompt:  event.Prompt,
		Tags:    event.Tags,
		EventID: event.ID,
	})
	if errors.Is(err, repositories.ErrStateConflict) {
		logger.InfoWithFields("generation already finished, skip", fields)
		metrics.GenerationOutcomes.WithLabelValues("duplicate", "").Inc()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to begin generation %s: %w", id, err)
	}
	fields["attempt"] = rec.Attempts

	allowed, err := h.pacer.WaitAndReserve(ctx)
	if err != nil {
		return err
	}
	if !allowed {
		logger.WarnWithFields("worker generation budget exhausted, failing request", fields)
		return h.fail(ctx, id, event, &generator.ProviderError{
			Kind: generator.KindQuota,
			Err:  errors.New("worker daily generation budget exhausted"),
		}, fields)
	}

	logger.InfoWithFields("calling AI provider", fields)
	result, genErr := h.callProvider(ctx, event)
	if result != nil && result.Log != nil {
		h.saveAILog(ctx, id, event.UserID, result.Log, genErr)
	}
	if genErr != nil {
		if ctx.Err() != nil {
			// 종료 중 취소: 재시작 후 다시 받도록 커밋하지 않는다.
			return ctx.Err()
		}
		return h.fail(ctx, id, event, generator.Classify(genErr), fields)
	}

	return h.complete(ctx, id, event, result, fields)
}

// resumeTerminal 은 이미 끝난 요청의 재전달을 처리한다. done 이 true 면 더 진행하지 않는다.
func (h *EventHandlers) resumeTerminal(ctx context.Context, rec *models.GenerationRecord, event *events.GenerateRequestedEvent, fields logger.Fields) (bool, error) {
	switch {
	case rec.State == models.GenerationCompleted && rec.TerminalPublished:
		logger.InfoWithFields("duplicate generate event for completed request, skip", fields)
		metrics.GenerationOutcomes.WithLabelValues("duplicate", "").Inc()
		return true, nil

	case rec.State == models.GenerationCompleted:
		// 저장 후 발행 전에 중단된 경우: 저장된 글로 완료 이벤트만 다시 보낸다.
		article, err := h.articles.FindByEducationPersonalID(ctx, rec.ID)
		if err != nil {
			return true, fmt.Errorf("failed to load article for %s: %w", rec.ID, err)
		}
		logger.InfoWithFields("re-publishing completed event for stored article", fields)
		metrics.GenerationOutcomes.WithLabelValues("republished", "").Inc()
		return true, h.publishCompleted(ctx, rec.ID, article, fields)

	case rec.State == models.GenerationFailed && rec.LastEventID == event.ID:
		if rec.TerminalPublished {
			logger.InfoWithFields("duplicate generate event for failed request, skip", fields)
			metrics.GenerationOutcomes.WithLabelValues("duplicate", rec.ErrorKind).Inc()
			return true, nil
		}
		logger.InfoWithFields("re-publishing failed event", fields)
		metrics.GenerationOutcomes.WithLabelValues("republished", rec.ErrorKind).Inc()
		return true, h.publishFailed(ctx, rec.ID, rec.UserID, rec.Prompt, rec.LastError, rec.ErrorKind, fields)
	}
	return false, nil
}

func (h *EventHandlers) callProvider(ctx context.Context, event *events.GenerateRequestedEvent) (*generator.Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, h.providerTimeout)
	defer cancel()

	start := time.Now()
	result, err := h.provider.Generate(callCtx, generator.Request{Prompt: event.Prompt, Tags: event.Tags})
	if err == nil && callCtx.Err() != nil {
		// SDK 가 취소를 무시하고 늦게 돌아온 경우도 시간 초과로 본다.
		err = &generator.ProviderError{Kind: generator.KindTimeout, Err: callCtx.Err()}
	}

	status := "ok"
	if err != nil {
		status = string(generator.Classify(err).Kind)
	}
	metrics.ProviderLatency.WithLabelValues(h.provider.Name(), status).Observe(float64(time.Since(start).Milliseconds()))
	return result, err
}

func (h *EventHandlers) complete(ctx context.Context, id string, event *events.GenerateRequestedEvent, result *generator.Result, fields logger.Fields) error {
	generated := result.Content
	article := &models.EducationArticle{
		EducationPersonalID: id,
		UserID:              event.UserID,
		Title:               generated.Title,
		Content:             generated.Content,
		Sections:            toArticleSections(generated.Sections),
		Tags:                event.Tags,
		ReadingTime:         content.ReadingTime(generated.Content),
		Excerpt:             content.Excerpt(generated.Content),
	}
	if result.Log != nil {
		article.ModelName = result.Log.ModelName
	}

	saved, err := h.articles.SaveGenerated(ctx, article)
	if err != nil {
		return fmt.Errorf("failed to save article for %s: %w", id, err)
	}
	if err := h.generations.MarkCompleted(ctx, id, saved.ID, saved.Slug); err != nil {
		if errors.Is(err, repositories.ErrStateConflict) {
			logger.InfoWithFields("generation finished concurrently, dropping result", fields)
			return nil
		}
		return fmt.Errorf("failed to mark generation %s completed: %w", id, err)
	}
	fields["slug"] = saved.Slug
	logger.InfoWithFields("article generated", fields)
	metrics.GenerationOutcomes.WithLabelValues("completed", "").Inc()

	return h.publishCompleted(ctx, id, saved, fields)
}

func (h *EventHandlers) publishCompleted(ctx context.Context, id string, article *models.EducationArticle, fields logger.Fields) error {
	e := dispatcher.NewCompletedEvent(id, article.UserID, article.ID.Hex(), article.Slug, events.GeneratedContent{
		Title:    article.Title,
		Content:  article.Content,
		Sections: toEventSections(article.Sections),
	})
	if err := h.publisher.PublishCompleted(ctx, e); err != nil {
		return fmt.Errorf("failed to publish generate.completed for %s: %w", id, err)
	}
	h.markPublished(ctx, id, fields)
	return nil
}

func (h *EventHandlers) fail(ctx context.Context, id string, event *events.GenerateRequestedEvent, pe *generator.ProviderError, fields logger.Fields) error {
	kind := string(pe.Kind)
	fields["error_kind"] = kind
	fields["error"] = pe.Error()

	if err := h.generations.MarkFailed(ctx, id, pe.Error(), kind); err != nil {
		if errors.Is(err, repositories.ErrStateConflict) {
			logger.InfoWithFields("generation finished concurrently, dropping failure", fields)
			return nil
		}
		return fmt.Errorf("failed to mark generation %s failed: %w", id, err)
	}
	logger.WarnWithFields("generation failed", fields)
	metrics.GenerationOutcomes.WithLabelValues("failed", kind).Inc()

	return h.publishFailed(ctx, id, event.UserID, event.Prompt, pe.Error(), kind, fields)
}

func (h *EventHandlers) publishFailed(ctx context.Context, id, userID, prompt, reason, kind string, fields logger.Fields) error {
	e := dispatcher.NewFailedEvent(id, userID, prompt, reason, kind)
	if err := h.publisher.PublishFailed(ctx, e); err != nil {
		return fmt.Errorf("failed to publish generate.failed for %s: %w", id, err)
	}
	h.markPublished(ctx, id, fields)
	return nil
}

// markPublished 실패는 재전달 시 터미널 이벤트를 한 번 더 보내게 할 뿐이므로 로그만 남긴다.
func (h *EventHandlers) markPublished(ctx context.Context, id string, fields logger.Fields) {
	if err := h.generations.MarkTerminalPublished(ctx, id); err != nil {
		fields["error"] = err.Error()
		logger.ErrorWithFields("failed to mark terminal event published", fields)
	}
}

func (h *EventHandlers) saveAILog(ctx context.Context, id, userID string, reqLog *generator.LLMRequestLog, genErr error) {
	entry := models.AILog{
		EducationPersonalID: id,
		UserID:              userID,
		Provider:            reqLog.Provider,
		ModelName:           reqLog.ModelName,
		ModelVersion:        reqLog.ModelVersion,
		InputTokens:         reqLog.TokenUsage.InputTokens,
		OutputTokens:        reqLog.TokenUsage.OutputTokens,
		TotalTokens:         reqLog.TokenUsage.TotalTokens,
		DurationMs:          reqLog.LatencyMs,
		InputPrompt:         reqLog.Prompt,
		OutputResponse:      reqLog.Response,
		RequestedAt:         reqLog.GeneratedAt.Add(-time.Duration(reqLog.LatencyMs) * time.Millisecond),
		CompletedAt:         reqLog.GeneratedAt,
	}
	if genErr != nil {
		msg := genErr.Error()
		entry.ErrorMessage = &msg
		entry.ErrorKind = string(generator.Classify(genErr).Kind)
	}
	if err := h.aiLogs.Insert(ctx, entry); err != nil {
		logger.Log.Warnf("failed to save ai log for %s: %v", id, err)
	}
}

func toArticleSections(in []events.Section) []models.ArticleSection {
	out := make([]models.ArticleSection, 0, len(in))
	for _, s := range in {
		out = append(out, models.ArticleSection{Title: s.Title, Content: s.Content})
	}
	return out
}

func toEventSections(in []models.ArticleSection) []events.Section {
	out := make([]events.Section, 0, len(in))
	for _, s := range in {
		out = append(out, events.Section{Title: s.Title, Content: s.Content})
	}
	return out
}
