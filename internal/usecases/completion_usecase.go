package usecases

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docucheck.backend/internal/domain/entities"
	domainerrors "docucheck.backend/internal/domain/errors"
	"docucheck.backend/internal/domain/repositories"
	"docucheck.backend/pkg/logger"
)

// Review outcomes
const (
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)

// CompletionInput records the reviewer's verdict
type CompletionInput struct {
	Outcome         string   `json:"outcome" binding:"required"`
	Note            string   `json:"note"`
	SimilarityScore *float64 `json:"similarityScore"`
	AIScore         *float64 `json:"aiScore"`
}

// CompletionUsecase records the end of a human review. It is the only path
// that moves a request out of PROCESSING.
type CompletionUsecase struct {
	requestRepo repositories.VerificationRequestRepository
	chargeRepo  repositories.ChargeRepository
	now         func() time.Time
}

// NewCompletionUsecase creates a new completion usecase
func NewCompletionUsecase(
	requestRepo repositories.VerificationRequestRepository,
	chargeRepo repositories.ChargeRepository,
) *CompletionUsecase {
	return &CompletionUsecase{
		requestRepo: requestRepo,
		chargeRepo:  chargeRepo,
		now:         time.Now,
	}
}

// Complete applies the verdict. The request must be in PROCESSING; a
// completed verdict additionally needs a healthy transport leg and a linked
// charge that has not failed.
func (u *CompletionUsecase) Complete(ctx context.Context, id uuid.UUID, input CompletionInput) (*entities.VerificationRequest, error) {
	outcome := strings.ToLower(strings.TrimSpace(input.Outcome))
	if outcome != OutcomeCompleted && outcome != OutcomeFailed {
		return nil, domainerrors.BadRequest("outcome must be completed or failed")
	}
	if err := validateScore(input.SimilarityScore); err != nil {
		return nil, err
	}
	if err := validateScore(input.AIScore); err != nil {
		return nil, err
	}

	ctx = logger.WithVerificationID(ctx, id.String())
	req, err := mutateRequest(ctx, u.requestRepo, id, func(req *entities.VerificationRequest) error {
		if req.Status != entities.RequestStatusProcessing {
			return domainerrors.InvalidState("request is not awaiting review")
		}
		if outcome == OutcomeCompleted {
			if req.TelegramStatus == entities.TelegramStatusFailed {
				return domainerrors.InvalidState("request delivery has failed")
			}
			if err := u.ensureChargeNotFailed(ctx, req); err != nil {
				return err
			}
		}

		now := u.now().UTC()
		if outcome == OutcomeCompleted {
			req.Status = entities.RequestStatusCompleted
			req.Metadata.InteractionStep = entities.StepCompleted
		} else {
			req.Status = entities.RequestStatusFailed
			req.Metadata.InteractionStep = entities.StepFailed
			req.Metadata.FailureReason = "rejected by reviewer"
		}
		if started := req.Metadata.ProcessingStartedAt; started != nil {
			elapsed := now.Sub(*started).Milliseconds()
			req.Metadata.ProcessingTimeMs = &elapsed
		}
		req.Metadata.OutcomeNote = strings.TrimSpace(input.Note)
		req.Metadata.SimilarityScore = input.SimilarityScore
		req.Metadata.AIScore = input.AIScore
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "Review recorded", zap.String("outcome", outcome))
	return req, nil
}

func (u *CompletionUsecase) ensureChargeNotFailed(ctx context.Context, req *entities.VerificationRequest) error {
	if !req.ChargeID.Valid {
		return nil
	}
	charge, err := u.chargeRepo.GetByID(ctx, req.ChargeID.String)
	if errors.Is(err, domainerrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if charge.Status == entities.ChargeStatusFailed {
		return domainerrors.InvalidState("linked payment has failed")
	}
	return nil
}

func validateScore(score *float64) error {
	if score == nil {
		return nil
	}
	if *score < 0 || *score > 100 {
		return domainerrors.BadRequest("scores must be between 0 and 100")
	}
	return nil
}
