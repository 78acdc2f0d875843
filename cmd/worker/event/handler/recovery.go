package handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"edu-gen/cmd/internal/eventbus"
	"edu-gen/cmd/internal/logger"
	"edu-gen/cmd/internal/metrics"
	"edu-gen/cmd/worker/generator"
	"edu-gen/models"
	"edu-gen/repositories"
)

const defaultRecoveryBatch = 100

type RecoveryStore interface {
	ListUnpublishedTerminal(ctx context.Context, before time.Time, limit int64) ([]models.GenerationRecord, error)
	ListStalled(ctx context.Context, before time.Time, limit int64) ([]models.GenerationRecord, error)
	MarkStalled(ctx context.Context, id string, before time.Time, reason, kind string) error
}

// RecoveryService 는 터미널 이벤트 없이 남은 요청을 정리한다.
//   - completed/failed 로 저장됐지만 이벤트가 나가지 않은 요청: 이벤트를 다시 발행한다.
//   - pending/generating 에 멈춘 요청(generate 이벤트가 DLQ 로 간 경우 등): failed(stalled) 로 끝낸다.
//
// 멈춤 판정은 grace + provider timeout + 버스 재시도 지연 합계보다 오래 갱신이 없을 때다.
type RecoveryService struct {
	store      RecoveryStore
	handlers   *EventHandlers
	grace      time.Duration
	stallAfter time.Duration
	batch      int64
	now        func() time.Time
}

func NewRecoveryService(store RecoveryStore, handlers *EventHandlers, grace time.Duration) *RecoveryService {
	return &RecoveryService{
		store:      store,
		handlers:   handlers,
		grace:      grace,
		stallAfter: grace + handlers.providerTimeout + eventbus.TotalRetryDelay(),
		batch:      defaultRecoveryBatch,
		now:        time.Now,
	}
}

// RunOnce 는 한 번 훑어서 정리한 건수를 반환한다. 개별 실패는 다음 주기로 넘긴다.
func (s *RecoveryService) RunOnce(ctx context.Context) (int, error) {
	now := s.now()

	failed, err := s.failStalled(ctx, now.Add(-s.stallAfter))
	if err != nil {
		return failed, err
	}

	records, err := s.store.ListUnpublishedTerminal(ctx, now.Add(-s.grace), s.batch)
	if err != nil {
		return failed, fmt.Errorf("failed to list unpublished terminal generations: %w", err)
	}

	republished := 0
	for i := range records {
		if ctx.Err() != nil {
			return failed + republished, ctx.Err()
		}
		rec := &records[i]
		fields := recoveryFields(rec)
		if err := s.handlers.republishTerminal(ctx, rec, fields); err != nil {
			fields["error"] = err.Error()
			logger.WarnWithFields("terminal event recovery failed", fields)
			continue
		}
		republished++
	}
	if failed+republished > 0 {
		logger.InfoWithFields("generation recovery sweep", logger.Fields{
			"stalled_failed": failed,
			"republished":    republished,
			"scanned":        len(records),
		})
	}
	return failed + republished, nil
}

// failStalled 는 cutoff 이전부터 멈춘 요청을 failed 로 바꾸고 generate.failed 를 발행한다.
// 발행이 실패해도 상태는 failed 이므로 다음 주기의 재발행 대상이 된다.
func (s *RecoveryService) failStalled(ctx context.Context, cutoff time.Time) (int, error) {
	records, err := s.store.ListStalled(ctx, cutoff, s.batch)
	if err != nil {
		return 0, fmt.Errorf("failed to list stalled generations: %w", err)
	}

	failed := 0
	for i := range records {
		if ctx.Err() != nil {
			return failed, ctx.Err()
		}
		rec := &records[i]
		fields := recoveryFields(rec)
		reason := fmt.Sprintf("no result while %s since %s", rec.State, rec.UpdatedAt.UTC().Format(time.RFC3339))
		kind := string(generator.KindStalled)

		if err := s.store.MarkStalled(ctx, rec.ID, cutoff, reason, kind); err != nil {
			if errors.Is(err, repositories.ErrStateConflict) {
				logger.InfoWithFields("stalled generation moved on, skip", fields)
				continue
			}
			fields["error"] = err.Error()
			logger.WarnWithFields("failed to mark stalled generation", fields)
			continue
		}
		failed++
		metrics.GenerationOutcomes.WithLabelValues("failed", kind).Inc()
		logger.WarnWithFields("stalled generation failed", fields)

		if err := s.handlers.publishFailed(ctx, rec.ID, rec.UserID, rec.Prompt, reason, kind, fields); err != nil {
			fields["error"] = err.Error()
			logger.WarnWithFields("failed to publish generate.failed for stalled generation", fields)
		}
	}
	return failed, nil
}

// Run 은 ctx 가 끝날 때까지 interval 마다 RunOnce 를 실행한다.
func (s *RecoveryService) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := s.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logger.ErrorWithFields("generation recovery sweep failed", logger.Fields{"error": err.Error()})
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func recoveryFields(rec *models.GenerationRecord) logger.Fields {
	return logger.Fields{
		"education_personal_id": rec.ID,
		"user_id":               rec.UserID,
		"state":                 rec.State,
	}
}

func (h *EventHandlers) republishTerminal(ctx context.Context, rec *models.GenerationRecord, fields logger.Fields) error {
	switch rec.State {
	case models.GenerationCompleted:
		article, err := h.articles.FindByEducationPersonalID(ctx, rec.ID)
		if err != nil {
			return fmt.Errorf("failed to load article for %s: %w", rec.ID, err)
		}
		metrics.GenerationOutcomes.WithLabelValues("recovered", "").Inc()
		return h.publishCompleted(ctx, rec.ID, article, fields)
	case models.GenerationFailed:
		metrics.GenerationOutcomes.WithLabelValues("recovered", rec.ErrorKind).Inc()
		return h.publishFailed(ctx, rec.ID, rec.UserID, rec.Prompt, rec.LastError, rec.ErrorKind, fields)
	}
	return nil
}
