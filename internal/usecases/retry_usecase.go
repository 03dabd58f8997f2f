package usecases

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"docucheck.backend/internal/domain/entities"
	domainerrors "docucheck.backend/internal/domain/errors"
	"docucheck.backend/internal/domain/repositories"
	"docucheck.backend/pkg/logger"
	"docucheck.backend/pkg/metrics"
)

// Retry triggers used in metrics
const (
	RetryTriggerAdmin = "admin"
	RetryTriggerAuto  = "auto"
)

// AutoRetryPolicy configures automatic delivery re-drives
type AutoRetryPolicy struct {
	Enabled     bool
	MaxRetries  int
	BaseBackoff time.Duration
}

// RetryUsecase re-drives failed deliveries
type RetryUsecase struct {
	requestRepo repositories.VerificationRequestRepository
	delivery    *DeliveryUsecase
	auto        AutoRetryPolicy
	now         func() time.Time
}

// NewRetryUsecase creates a new retry usecase
func NewRetryUsecase(
	requestRepo repositories.VerificationRequestRepository,
	delivery *DeliveryUsecase,
	auto AutoRetryPolicy,
) *RetryUsecase {
	return &RetryUsecase{
		requestRepo: requestRepo,
		delivery:    delivery,
		auto:        auto,
		now:         time.Now,
	}
}

// Retry is the operator-triggered full reset. The stored file is fetched
// before anything is reset so a missing blob leaves the request untouched.
func (u *RetryUsecase) Retry(ctx context.Context, id uuid.UUID) (*entities.VerificationRequest, error) {
	ctx = logger.WithVerificationID(ctx, id.String())

	req, err := u.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status == entities.RequestStatusCompleted {
		return nil, domainerrors.InvalidState("completed requests cannot be retried")
	}
	if !req.HasFile() {
		return nil, domainerrors.FileNotFound("request has no stored file")
	}

	content, err := u.delivery.FetchDocument(ctx, req)
	if errors.Is(err, domainerrors.ErrFileNotFound) {
		return nil, domainerrors.FileNotFound("stored file is missing")
	}
	if err != nil {
		return nil, domainerrors.ServiceUnavailable("storage unavailable", err)
	}

	resetForRedelivery(req)
	req.RetryCount = 0
	if err := u.requestRepo.Update(ctx, req); err != nil {
		return nil, err
	}
	logger.Info(ctx, "Request reset for redelivery")

	if err := u.delivery.Deliver(ctx, req, content); err != nil {
		metrics.ObserveRetry(RetryTriggerAdmin, metrics.ResultFailure)
		return nil, domainerrors.ServiceUnavailable(err.Error(), err)
	}
	if req.Status == entities.RequestStatusFailed {
		metrics.ObserveRetry(RetryTriggerAdmin, metrics.ResultFailure)
		return req, nil
	}
	metrics.ObserveRetry(RetryTriggerAdmin, metrics.ResultSuccess)
	return req, nil
}

// AutoRetry is the incremental re-drive used by the background job. It
// reports whether a send was attempted. Once RetryCount reaches the maximum
// the request is failed terminally.
func (u *RetryUsecase) AutoRetry(ctx context.Context, id uuid.UUID) (bool, error) {
	if !u.auto.Enabled {
		return false, nil
	}
	ctx = logger.WithVerificationID(ctx, id.String())

	req, err := u.requestRepo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if req.Status != entities.RequestStatusPending || req.TelegramStatus != entities.TelegramStatusFailed {
		return false, nil
	}

	if req.RetryCount >= u.auto.MaxRetries {
		req.Status = entities.RequestStatusFailed
		req.Metadata.InteractionStep = entities.StepFailed
		req.Metadata.FailureReason = "delivery retries exhausted"
		if err := u.requestRepo.Update(ctx, req); err != nil && !errors.Is(err, domainerrors.ErrStaleUpdate) {
			return false, err
		}
		logger.Warn(ctx, "Delivery retries exhausted", zap.Int("retry_count", req.RetryCount))
		return false, nil
	}

	if u.now().Before(req.UpdatedAt.Add(u.backoffFor(req.RetryCount))) {
		return false, nil
	}

	content, err := u.delivery.FetchDocument(ctx, req)
	if errors.Is(err, domainerrors.ErrFileNotFound) {
		req.Status = entities.RequestStatusFailed
		req.Metadata.FailureReason = "stored file is missing"
		if uerr := u.requestRepo.Update(ctx, req); uerr != nil && !errors.Is(uerr, domainerrors.ErrStaleUpdate) {
			return false, uerr
		}
		return false, nil
	}
	if err != nil {
		return false, err
	}

	req.RetryCount++
	resetForRedelivery(req)
	if err := u.requestRepo.Update(ctx, req); err != nil {
		if errors.Is(err, domainerrors.ErrStaleUpdate) {
			return false, nil
		}
		return false, err
	}

	if err := u.delivery.Deliver(ctx, req, content); err != nil {
		metrics.ObserveRetry(RetryTriggerAuto, metrics.ResultFailure)
		logger.Warn(ctx, "Automatic redelivery failed", zap.Int("retry_count", req.RetryCount), zap.Error(err))
		return true, nil
	}
	metrics.ObserveRetry(RetryTriggerAuto, metrics.ResultSuccess)
	return true, nil
}

// RetryFailedDeliveries runs AutoRetry over the retryable backlog and
// returns the number of sends attempted.
func (u *RetryUsecase) RetryFailedDeliveries(ctx context.Context, limit int) (int, error) {
	if !u.auto.Enabled {
		return 0, nil
	}
	reqs, err := u.requestRepo.ListDeliveryRetryable(ctx, limit)
	if err != nil {
		return 0, err
	}

	attempted := 0
	for _, req := range reqs {
		if ctx.Err() != nil {
			return attempted, ctx.Err()
		}
		sent, err := u.AutoRetry(ctx, req.ID)
		if err != nil {
			logger.Warn(ctx, "Automatic retry failed", zap.String("request_id", req.ID.String()), zap.Error(err))
			continue
		}
		if sent {
			attempted++
		}
	}
	return attempted, nil
}

func (u *RetryUsecase) backoffFor(retryCount int) time.Duration {
	if retryCount > 16 {
		retryCount = 16
	}
	return u.auto.BaseBackoff * time.Duration(1<<uint(retryCount))
}

func resetForRedelivery(req *entities.VerificationRequest) {
	req.Status = entities.RequestStatusPending
	req.TelegramStatus = entities.TelegramStatusPending
	req.TelegramError = null.String{}
	req.TelegramMessageID = null.Int64{}
	req.Metadata.InteractionStep = entities.StepDocumentSent
	req.Metadata.FailureReason = ""
	req.Metadata.ProcessingStartedAt = nil
	req.Metadata.ProcessingTimeMs = nil
}
