package usecases

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"docucheck.backend/internal/domain/entities"
	domainerrors "docucheck.backend/internal/domain/errors"
	"docucheck.backend/internal/domain/gateways"
	"docucheck.backend/internal/domain/repositories"
	"docucheck.backend/pkg/logger"
	"docucheck.backend/pkg/metrics"
)

// CreateChargeInput is a user's payment initiation
type CreateChargeInput struct {
	Amount   string            `json:"amount" binding:"required"`
	Currency string            `json:"currency" binding:"required"`
	Metadata map[string]string `json:"metadata"`
}

// ChargeUsecase mirrors processor charges locally
type ChargeUsecase struct {
	chargeRepo  repositories.ChargeRepository
	eventRepo   repositories.ChargeEventRepository
	requestRepo repositories.VerificationRequestRepository
	uow         repositories.UnitOfWork
	payment     gateways.PaymentGateway
	retry       RetryPolicy
	now         func() time.Time
}

// NewChargeUsecase creates a new charge usecase
func NewChargeUsecase(
	chargeRepo repositories.ChargeRepository,
	eventRepo repositories.ChargeEventRepository,
	requestRepo repositories.VerificationRequestRepository,
	uow repositories.UnitOfWork,
	payment gateways.PaymentGateway,
	retry RetryPolicy,
) *ChargeUsecase {
	return &ChargeUsecase{
		chargeRepo:  chargeRepo,
		eventRepo:   eventRepo,
		requestRepo: requestRepo,
		uow:         uow,
		payment:     payment,
		retry:       retry,
		now:         time.Now,
	}
}

// CreateCharge opens a processor charge and stores it as PENDING
func (u *ChargeUsecase) CreateCharge(ctx context.Context, ownerID uuid.UUID, input CreateChargeInput) (*entities.Charge, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(input.Amount))
	if err != nil || !amount.IsPositive() {
		return nil, domainerrors.BadRequest("amount must be a positive decimal")
	}
	currency := strings.ToUpper(strings.TrimSpace(input.Currency))
	if len(currency) != 3 {
		return nil, domainerrors.BadRequest("currency must be a 3-letter code")
	}

	metadata := make(map[string]string, len(input.Metadata)+1)
	for k, v := range input.Metadata {
		metadata[k] = v
	}
	metadata["ownerId"] = ownerID.String()

	var created *gateways.CreatedCharge
	err = u.retry.Do(ctx, func() error {
		var err error
		created, err = u.payment.CreateCharge(ctx, amount.String(), currency, metadata)
		return err
	})
	if err != nil {
		return nil, err
	}

	charge := &entities.Charge{
		ID:        created.ChargeID,
		Code:      created.Code,
		OwnerID:   &ownerID,
		Amount:    amount.String(),
		Currency:  currency,
		Status:    entities.ChargeStatusPending,
		HostedURL: created.HostedURL,
		Metadata:  metadata,
	}
	if err := u.chargeRepo.Create(ctx, charge); err != nil {
		return nil, err
	}
	logger.Info(ctx, "Charge created", zap.String("charge_id", charge.ID))
	return charge, nil
}

// GetCharge returns a charge owned by ownerID, refreshing non-terminal
// charges from the processor. A processor outage serves the local mirror.
func (u *ChargeUsecase) GetCharge(ctx context.Context, ownerID uuid.UUID, chargeID string) (*entities.Charge, error) {
	charge, err := u.chargeRepo.GetByID(ctx, chargeID)
	if err != nil {
		return nil, err
	}
	if charge.OwnerID != nil && *charge.OwnerID != ownerID {
		return nil, domainerrors.NotFound("charge not found")
	}
	if charge.Status.IsTerminal() {
		return charge, nil
	}

	refreshed, err := u.CheckCharge(ctx, chargeID)
	if err != nil {
		logger.Warn(ctx, "Charge refresh failed, serving local status", zap.String("charge_id", chargeID), zap.Error(err))
		return charge, nil
	}
	return refreshed, nil
}

// CheckCharge polls the processor and applies the verified status
func (u *ChargeUsecase) CheckCharge(ctx context.Context, chargeID string) (*entities.Charge, error) {
	var status entities.ChargeStatus
	err := u.retry.Do(ctx, func() error {
		var err error
		status, err = u.payment.VerifyCharge(ctx, chargeID)
		return err
	})
	if err != nil {
		return nil, err
	}

	if _, err := u.ApplyChargeStatus(ctx, chargeID, status, entities.ChargeObservation{
		Source:    entities.ChargeEventSourcePoll,
		EventType: "poll:" + strings.ToLower(string(status)),
	}); err != nil {
		return nil, err
	}
	return u.chargeRepo.GetByID(ctx, chargeID)
}

// ApplyChargeStatus is the single place a normalized status reaches the
// local mirror. It reports whether the charge changed. Repeating the same
// observation is a no-op.
func (u *ChargeUsecase) ApplyChargeStatus(
	ctx context.Context,
	chargeID string,
	status entities.ChargeStatus,
	obs entities.ChargeObservation,
) (bool, error) {
	if status == entities.ChargeStatusUnknown || status == "" {
		return false, nil
	}

	applied := false
	err := u.uow.Do(ctx, func(txCtx context.Context) error {
		applied = false
		charge, err := u.chargeRepo.GetByID(txCtx, chargeID)
		if err != nil {
			return err
		}
		if charge.Status == status || charge.Status.IsTerminal() || status == entities.ChargeStatusPending {
			return nil
		}

		ok, err := u.chargeRepo.TransitionStatus(txCtx, chargeID, charge.Status, status)
		if err != nil || !ok {
			return err
		}
		applied = true

		event := &entities.ChargeEvent{
			ChargeID:  chargeID,
			Source:    obs.Source,
			EventType: obs.EventType,
			Status:    status,
			Applied:   true,
			Payload:   obs.Payload,
		}
		if obs.EventID != "" {
			event.EventID = null.StringFrom(obs.EventID)
		}
		if err := u.eventRepo.Create(txCtx, event); err != nil {
			return err
		}

		if charge.RequestID != nil {
			return u.reconcileRequest(txCtx, *charge.RequestID, status)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if applied {
		metrics.ObserveChargeTransition(string(status), string(obs.Source))
		logger.Info(ctx, "Charge status applied",
			zap.String("charge_id", chargeID),
			zap.String("status", string(status)),
			zap.String("source", string(obs.Source)),
		)
	}
	return applied, nil
}

// reconcileRequest keeps the linked request consistent with a terminal
// charge. A failure before review fails the request; a failure after review
// started is flagged for refund review without touching Status.
func (u *ChargeUsecase) reconcileRequest(ctx context.Context, requestID uuid.UUID, status entities.ChargeStatus) error {
	if status != entities.ChargeStatusFailed {
		return nil
	}
	ctx = logger.WithVerificationID(ctx, requestID.String())

	_, err := mutateRequest(ctx, u.requestRepo, requestID, func(req *entities.VerificationRequest) error {
		switch req.Status {
		case entities.RequestStatusPending:
			req.Status = entities.RequestStatusFailed
			req.Metadata.FailureReason = "payment failed"
			logger.Warn(ctx, "Payment failed before review, failing request")
		case entities.RequestStatusProcessing, entities.RequestStatusCompleted:
			if req.Metadata.Reconciliation == entities.ReconciliationRefundReview {
				return errNoChange
			}
			req.Metadata.Reconciliation = entities.ReconciliationRefundReview
			logger.Warn(ctx, "Payment failed after review started, flagged for refund review",
				zap.String("status", string(req.Status)))
		default:
			return errNoChange
		}
		return nil
	})
	if errors.Is(err, domainerrors.ErrNotFound) {
		logger.Warn(ctx, "Charge linked to a deleted request")
		return nil
	}
	return err
}

// ReconcilePending polls PENDING charges older than minAge. It returns the
// number of charges that changed.
func (u *ChargeUsecase) ReconcilePending(ctx context.Context, minAge time.Duration, limit int) (int, error) {
	charges, err := u.chargeRepo.ListPendingBefore(ctx, u.now().Add(-minAge), limit)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, charge := range charges {
		if ctx.Err() != nil {
			return changed, ctx.Err()
		}
		before := charge.Status
		refreshed, err := u.CheckCharge(ctx, charge.ID)
		if err != nil {
			logger.Warn(ctx, "Charge reconciliation failed", zap.String("charge_id", charge.ID), zap.Error(err))
			continue
		}
		if refreshed.Status != before {
			changed++
		}
	}
	return changed, nil
}
