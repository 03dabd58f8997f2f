package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docucheck.backend/internal/domain/entities"
	domainerrors "docucheck.backend/internal/domain/errors"
	"docucheck.backend/internal/domain/gateways"
	"docucheck.backend/internal/domain/repositories"
	"docucheck.backend/pkg/logger"
	"docucheck.backend/pkg/metrics"
	"docucheck.backend/pkg/utils"
)

// Health states
const (
	HealthHealthy   = "healthy"
	HealthDegraded  = "degraded"
	HealthUnhealthy = "unhealthy"
)

// HealthPolicy holds the thresholds of the health summary
type HealthPolicy struct {
	StaleThreshold   time.Duration
	FailureThreshold int64
}

// HealthReport is the admin health summary
type HealthReport struct {
	Status string   `json:"status"`
	Issues []string `json:"issues"`
}

// ListRequestsInput filters and pages the admin listing
type ListRequestsInput struct {
	Page           int
	Limit          int
	Status         entities.RequestStatus
	TelegramStatus entities.TelegramStatus
}

// AdminUsecase serves operator endpoints
type AdminUsecase struct {
	requestRepo repositories.VerificationRequestRepository
	storage     gateways.StorageGateway
	completion  *CompletionUsecase
	pingCache   func(ctx context.Context) error
	health      HealthPolicy
	now         func() time.Time
}

// NewAdminUsecase creates a new admin usecase. pingCache may be nil.
func NewAdminUsecase(
	requestRepo repositories.VerificationRequestRepository,
	storage gateways.StorageGateway,
	completion *CompletionUsecase,
	pingCache func(ctx context.Context) error,
	health HealthPolicy,
) *AdminUsecase {
	return &AdminUsecase{
		requestRepo: requestRepo,
		storage:     storage,
		completion:  completion,
		pingCache:   pingCache,
		health:      health,
		now:         time.Now,
	}
}

// List returns one page of requests
func (u *AdminUsecase) List(ctx context.Context, input ListRequestsInput) ([]*entities.VerificationRequest, utils.PaginationMeta, error) {
	if input.Status != "" && !input.Status.IsValid() {
		return nil, utils.PaginationMeta{}, domainerrors.BadRequest("invalid status filter")
	}
	if input.TelegramStatus != "" && !input.TelegramStatus.IsValid() {
		return nil, utils.PaginationMeta{}, domainerrors.BadRequest("invalid telegramStatus filter")
	}

	params := utils.GetPaginationParams(input.Page, input.Limit)
	reqs, total, err := u.requestRepo.List(ctx, repositories.VerificationRequestFilter{
		Status:         input.Status,
		TelegramStatus: input.TelegramStatus,
	}, params.Limit, params.CalculateOffset())
	if err != nil {
		return nil, utils.PaginationMeta{}, err
	}
	return reqs, utils.CalculateMeta(total, params.Page, params.Limit), nil
}

// Get returns the full request including transport errors
func (u *AdminUsecase) Get(ctx context.Context, id uuid.UUID) (*entities.VerificationRequest, error) {
	return u.requestRepo.GetByID(ctx, id)
}

// Delete removes the stored blob first and the record second. The record
// stays when the blob cannot be deleted.
func (u *AdminUsecase) Delete(ctx context.Context, id uuid.UUID) error {
	ctx = logger.WithVerificationID(ctx, id.String())
	req, err := u.requestRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if req.HasFile() {
		if err := u.storage.DeleteFile(ctx, req.Metadata.FileKey); err != nil {
			logger.Error(ctx, "Blob delete failed, keeping request", zap.Error(err))
			return domainerrors.ServiceUnavailable("failed to delete stored file", err)
		}
	}
	if err := u.requestRepo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info(ctx, "Request deleted")
	return nil
}

// Complete records a reviewer verdict on behalf of an operator
func (u *AdminUsecase) Complete(ctx context.Context, id uuid.UUID, input CompletionInput) (*entities.VerificationRequest, error) {
	return u.completion.Complete(ctx, id, input)
}

// FileURL returns a time-limited download URL for the stored document
func (u *AdminUsecase) FileURL(ctx context.Context, id uuid.UUID) (string, error) {
	req, err := u.requestRepo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !req.HasFile() {
		return "", domainerrors.FileNotFound("request has no stored file")
	}
	return u.storage.GetSignedURL(ctx, req.Metadata.FileKey)
}

// Health summarizes storage reachability, recent failures and stuck reviews
func (u *AdminUsecase) Health(ctx context.Context) *HealthReport {
	report := &HealthReport{Status: HealthHealthy, Issues: []string{}}
	degrade := func(issue string) {
		report.Issues = append(report.Issues, issue)
		if report.Status == HealthHealthy {
			report.Status = HealthDegraded
		}
	}

	if err := u.storage.Ping(ctx); err != nil {
		report.Status = HealthUnhealthy
		report.Issues = append(report.Issues, "storage unreachable")
	}
	if u.pingCache != nil {
		if err := u.pingCache(ctx); err != nil {
			degrade("cache unreachable")
		}
	}

	now := u.now()
	failed, err := u.requestRepo.CountFailedSince(ctx, now.Add(-time.Hour))
	switch {
	case err != nil:
		degrade("failed to count recent failures")
	case u.health.FailureThreshold > 0 && failed >= u.health.FailureThreshold:
		degrade(fmt.Sprintf("%d requests failed in the last hour", failed))
	}

	stuck, err := u.CountStuck(ctx)
	switch {
	case err != nil:
		degrade("failed to count stuck requests")
	case stuck > 0:
		degrade(fmt.Sprintf("%d requests stuck in processing", stuck))
	}
	return report
}

// CountStuck counts PROCESSING requests older than the staleness threshold
// and publishes the count as a gauge.
func (u *AdminUsecase) CountStuck(ctx context.Context) (int64, error) {
	stuck, err := u.requestRepo.CountStuckProcessing(ctx, u.now().Add(-u.health.StaleThreshold))
	if err != nil {
		return 0, err
	}
	metrics.SetStuckProcessing(stuck)
	return stuck, nil
}
