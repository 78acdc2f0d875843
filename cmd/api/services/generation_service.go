package services

import (
	"context"
	"errors"
	"net/http"
	"time"

	"edu-gen/cmd/api/dto"
	"edu-gen/cmd/api/quota"
	"edu-gen/cmd/api/trace"
	"edu-gen/cmd/internal/logger"
	"edu-gen/cmd/internal/metrics"
	"edu-gen/events"
	"edu-gen/models"
	"edu-gen/repositories"
)

type GenerationStore interface {
	Get(ctx context.Context, id string) (*models.GenerationRecord, error)
	EnsurePending(ctx context.Context, in repositories.BeginInput) error
	ResetForRetry(ctx context.Context, id, eventID string) (*models.GenerationRecord, error)
	MarkFailed(ctx context.Context, id, reason, kind string) error
}

type DraftFinder interface {
	FindByEducationPersonalID(ctx context.Context, id string) (*models.EducationArticle, error)
}

type GeneratePublisher interface {
	NewGenerateEvent(userID, prompt string, tags []string, educationPersonalID string) *events.GenerateRequestedEvent
	PublishGenerate(ctx context.Context, e *events.GenerateRequestedEvent) error
}

// Viewer 는 요청한 사용자다. Operator 는 다른 사용자의 요청도 조회/재시도할 수 있다.
type Viewer struct {
	UserID   string
	Operator bool
}

func (v Viewer) canAccess(ownerID string) bool {
	return v.Operator || (v.UserID != "" && v.UserID == ownerID)
}

type GenerationService struct {
	tracker     quota.Tracker
	publisher   GeneratePublisher
	generations GenerationStore
	drafts      DraftFinder
	now         func() time.Time
}

func NewGenerationService(tracker quota.Tracker, publisher GeneratePublisher, generations GenerationStore, drafts DraftFinder) *GenerationService {
	return &GenerationService{
		tracker:     tracker,
		publisher:   publisher,
		generations: generations,
		drafts:      drafts,
		now:         time.Now,
	}
}

type GenerateInput struct {
	Prompt              string
	Tags                []string
	EducationPersonalID string
}

// Generate 는 한도를 예약하고 generate 이벤트를 발행한다.
// 발행에 실패하면 예약을 풀고 503, 성공하면 count 를 확정하고 202 용 응답을 만든다.
func (s *GenerationService) Generate(ctx context.Context, userID string, in GenerateInput) (dto.GenerateAcceptedDTO, *ServiceError) {
	e := s.publisher.NewGenerateEvent(userID, in.Prompt, in.Tags, in.EducationPersonalID)
	if err := e.Validate(); err != nil {
		return dto.GenerateAcceptedDTO{}, validationError(err)
	}
	if e.EducationPersonalID != "" {
		if svcErr := s.checkDraft(ctx, userID, e.EducationPersonalID); svcErr != nil {
			return dto.GenerateAcceptedDTO{}, svcErr
		}
	}

	res, svcErr := s.reserve(ctx, userID)
	if svcErr != nil {
		return dto.GenerateAcceptedDTO{}, svcErr
	}
	usage, svcErr := s.publish(ctx, res, e)
	if svcErr != nil {
		return dto.GenerateAcceptedDTO{}, svcErr
	}

	id := e.ResolveEducationPersonalID()
	pending := repositories.BeginInput{ID: id, UserID: userID, Prompt: e.Prompt, Tags: e.Tags, EventID: e.ID}
	if err := s.generations.EnsurePending(ctx, pending); err != nil {
		// 워커가 Begin 에서 레코드를 만들기 때문에 상태 조회가 잠시 404 일 뿐이다.
		logger.WarnWithFields("generation record 선기록 실패", trace.Fields(ctx, logger.Fields{
			"education_personal_id": id,
			"error":                 err.Error(),
		}))
	}

	return dto.GenerateAcceptedDTO{EventID: e.ID, EducationPersonalID: id, Usage: toUsageDTO(usage)}, nil
}

// Retry 는 failed 요청을 같은 education_personal_id 로 다시 발행한다. 새 요청처럼 한도를 쓴다.
func (s *GenerationService) Retry(ctx context.Context, viewer Viewer, id string) (dto.GenerateAcceptedDTO, *ServiceError) {
	rec, svcErr := s.getRecord(ctx, viewer, id)
	if svcErr != nil {
		return dto.GenerateAcceptedDTO{}, svcErr
	}
	if rec.State != models.GenerationFailed {
		return dto.GenerateAcceptedDTO{}, newError(http.StatusConflict, CodeNotRetryable, repositories.ErrStateConflict)
	}

	res, svcErr := s.reserve(ctx, rec.UserID)
	if svcErr != nil {
		return dto.GenerateAcceptedDTO{}, svcErr
	}

	e := s.publisher.NewGenerateEvent(rec.UserID, rec.Prompt, rec.Tags, rec.ID)
	if _, err := s.generations.ResetForRetry(ctx, rec.ID, e.ID); err != nil {
		s.release(ctx, res)
		switch {
		case errors.Is(err, repositories.ErrStateConflict):
			return dto.GenerateAcceptedDTO{}, newError(http.StatusConflict, CodeNotRetryable, err)
		case errors.Is(err, repositories.ErrNotFound):
			return dto.GenerateAcceptedDTO{}, notFoundError(err)
		default:
			return dto.GenerateAcceptedDTO{}, internalError(err)
		}
	}

	usage, svcErr := s.publish(ctx, res, e)
	if svcErr != nil {
		// pending 으로 남으면 다시 재시도할 수 없으므로 failed 로 되돌린다.
		if err := s.generations.MarkFailed(context.WithoutCancel(ctx), rec.ID, rec.LastError, rec.ErrorKind); err != nil {
			logger.ErrorWithFields("재시도 발행 실패 후 상태 복구 실패", trace.Fields(ctx, logger.Fields{
				"education_personal_id": rec.ID,
				"error":                 err.Error(),
			}))
		}
		return dto.GenerateAcceptedDTO{}, svcErr
	}

	logger.InfoWithFields("생성 재시도 발행", trace.Fields(ctx, logger.Fields{
		"education_personal_id": rec.ID,
		"event_id":              e.ID,
		"attempts":              rec.Attempts,
	}))
	return dto.GenerateAcceptedDTO{EventID: e.ID, EducationPersonalID: rec.ID, Usage: toUsageDTO(usage)}, nil
}

func (s *GenerationService) Status(ctx context.Context, viewer Viewer, id string) (dto.GenerationStatusDTO, *ServiceError) {
	rec, svcErr := s.getRecord(ctx, viewer, id)
	if svcErr != nil {
		return dto.GenerationStatusDTO{}, svcErr
	}
	return toGenerationStatusDTO(rec), nil
}

func (s *GenerationService) Usage(ctx context.Context, userID string) (dto.UsageDTO, *ServiceError) {
	usage, err := s.tracker.GetUsage(ctx, userID, models.DayKey(s.now()))
	if err != nil {
		return dto.UsageDTO{}, newError(http.StatusServiceUnavailable, CodeQuotaUnavailable, err)
	}
	return toUsageDTO(usage), nil
}

func (s *GenerationService) getRecord(ctx context.Context, viewer Viewer, id string) (*models.GenerationRecord, *ServiceError) {
	rec, err := s.generations.Get(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, notFoundError(err)
	}
	if err != nil {
		return nil, internalError(err)
	}
	// 남의 요청은 존재 여부도 드러내지 않는다.
	if !viewer.canAccess(rec.UserID) {
		return nil, notFoundError(repositories.ErrNotFound)
	}
	return rec, nil
}

// checkDraft 는 미리 만든 draft 가 요청자 소유이고 아직 생성 요청이 없는지 확인한다.
func (s *GenerationService) checkDraft(ctx context.Context, userID, id string) *ServiceError {
	draft, err := s.drafts.FindByEducationPersonalID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return newError(http.StatusNotFound, CodeDraftNotFound, err)
	}
	if err != nil {
		return internalError(err)
	}
	if draft.UserID != userID {
		return newError(http.StatusNotFound, CodeDraftNotFound, repositories.ErrNotFound)
	}
	if draft.IsGenerated() {
		return newError(http.StatusConflict, CodeAlreadyRequested, repositories.ErrStateConflict)
	}

	_, err = s.generations.Get(ctx, id)
	switch {
	case err == nil:
		return newError(http.StatusConflict, CodeAlreadyRequested, repositories.ErrStateConflict)
	case errors.Is(err, repositories.ErrNotFound):
		return nil
	default:
		return internalError(err)
	}
}

func (s *GenerationService) reserve(ctx context.Context, userID string) (quota.Reservation, *ServiceError) {
	res, _, err := s.tracker.CheckAndReserve(ctx, userID, models.DayKey(s.now()))
	if err == nil {
		metrics.QuotaDecisions.WithLabelValues("accepted").Inc()
		return res, nil
	}

	var exceeded *quota.QuotaExceededError
	if errors.As(err, &exceeded) {
		metrics.QuotaDecisions.WithLabelValues("exceeded").Inc()
		return quota.Reservation{}, newError(http.StatusTooManyRequests, CodeQuotaExceeded, err)
	}
	metrics.QuotaDecisions.WithLabelValues("error").Inc()
	logger.ErrorWithFields("사용량 예약 실패", trace.Fields(ctx, logger.Fields{"user_id": userID, "error": err.Error()}))
	return quota.Reservation{}, newError(http.StatusServiceUnavailable, CodeQuotaUnavailable, err)
}

// publish 는 이벤트를 발행하고 예약을 확정한다. 발행 실패면 예약을 풀고 503.
func (s *GenerationService) publish(ctx context.Context, res quota.Reservation, e *events.GenerateRequestedEvent) (quota.Usage, *ServiceError) {
	if err := s.publisher.PublishGenerate(ctx, e); err != nil {
		s.release(ctx, res)
		var ve *events.ValidationError
		if errors.As(err, &ve) {
			return quota.Usage{}, validationError(err)
		}
		logger.ErrorWithFields("generate 이벤트 발행 실패", trace.Fields(ctx, logger.Fields{
			"event_id": e.ID,
			"user_id":  e.UserID,
			"error":    err.Error(),
		}))
		return quota.Usage{}, newError(http.StatusServiceUnavailable, CodePublishFailed, err)
	}

	// 이벤트는 이미 버스에 있다. 확정 실패는 기록만 하고 요청은 수락한다.
	commitCtx := context.WithoutCancel(ctx)
	usage, err := s.tracker.Commit(commitCtx, res)
	if err != nil {
		logger.ErrorWithFields("사용량 확정 실패", trace.Fields(ctx, logger.Fields{
			"event_id": e.ID,
			"user_id":  res.UserID,
			"date":     res.Date,
			"error":    err.Error(),
		}))
		usage, _ = s.tracker.GetUsage(commitCtx, res.UserID, res.Date)
	}
	return usage, nil
}

func (s *GenerationService) release(ctx context.Context, res quota.Reservation) {
	if err := s.tracker.Release(context.WithoutCancel(ctx), res); err != nil {
		logger.ErrorWithFields("사용량 예약 해제 실패", trace.Fields(ctx, logger.Fields{
			"user_id": res.UserID,
			"date":    res.Date,
			"error":   err.Error(),
		}))
	}
}

func validationError(err error) *ServiceError {
	var ve *events.ValidationError
	if errors.As(err, &ve) && ve.Field == "prompt" {
		return newError(http.StatusBadRequest, CodeInvalidPrompt, err)
	}
	return newError(http.StatusBadRequest, CodeInvalidRequest, err)
}
