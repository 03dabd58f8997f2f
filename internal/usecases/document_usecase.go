package usecases

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"go.uber.org/zap"

	"docucheck.backend/internal/domain/entities"
	domainerrors "docucheck.backend/internal/domain/errors"
	"docucheck.backend/internal/domain/gateways"
	"docucheck.backend/internal/domain/repositories"
	"docucheck.backend/pkg/logger"
)

// DocumentPolicy holds the submission limits
type DocumentPolicy struct {
	MaxUploadBytes int64
	AllowedRegions []string
}

// SubmitDocumentInput is one user submission
type SubmitDocumentInput struct {
	OwnerID     uuid.UUID
	FileName    string
	MimeType    string
	Content     []byte
	Region      string
	QuestionOne *bool
	QuestionTwo *bool
	ChargeID    string
}

// DocumentView is what a submitting user may see about a request
type DocumentView struct {
	RequestID uuid.UUID              `json:"requestId"`
	Status    string                 `json:"status"`
	Payment   *entities.ChargeStatus `json:"paymentStatus,omitempty"`
}

// DocumentUsecase handles user submissions
type DocumentUsecase struct {
	requestRepo repositories.VerificationRequestRepository
	chargeRepo  repositories.ChargeRepository
	uow         repositories.UnitOfWork
	storage     gateways.StorageGateway
	delivery    *DeliveryUsecase
	policy      DocumentPolicy
	retry       RetryPolicy
}

// NewDocumentUsecase creates a new document usecase
func NewDocumentUsecase(
	requestRepo repositories.VerificationRequestRepository,
	chargeRepo repositories.ChargeRepository,
	uow repositories.UnitOfWork,
	storage gateways.StorageGateway,
	delivery *DeliveryUsecase,
	policy DocumentPolicy,
	retry RetryPolicy,
) *DocumentUsecase {
	return &DocumentUsecase{
		requestRepo: requestRepo,
		chargeRepo:  chargeRepo,
		uow:         uow,
		storage:     storage,
		delivery:    delivery,
		policy:      policy,
		retry:       retry,
	}
}

// Submit creates the request, stores the file and delivers it for review.
// Storage and delivery failures are recorded on the request, not returned.
func (u *DocumentUsecase) Submit(ctx context.Context, input SubmitDocumentInput) (*entities.VerificationRequest, error) {
	region, err := u.validate(&input)
	if err != nil {
		return nil, err
	}

	var charge *entities.Charge
	if input.ChargeID != "" {
		if charge, err = u.loadCharge(ctx, input.OwnerID, input.ChargeID); err != nil {
			return nil, err
		}
	}

	req := &entities.VerificationRequest{
		OwnerID:        input.OwnerID,
		Status:         entities.RequestStatusPending,
		TelegramStatus: entities.TelegramStatusPending,
		Metadata: entities.RequestMetadata{
			FileName:        input.FileName,
			MimeType:        input.MimeType,
			FileSize:        int64(len(input.Content)),
			Region:          region,
			QuestionOne:     input.QuestionOne,
			QuestionTwo:     input.QuestionTwo,
			InteractionStep: entities.StepDocumentSent,
		},
	}
	if charge != nil {
		req.ChargeID = null.StringFrom(charge.ID)
	}

	err = u.uow.Do(ctx, func(txCtx context.Context) error {
		if err := u.requestRepo.Create(txCtx, req); err != nil {
			return err
		}
		if charge != nil {
			return u.chargeRepo.AttachRequest(txCtx, charge.ID, req.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if charge != nil {
		req.Payment = charge.Ref()
	}

	ctx = logger.WithVerificationID(ctx, req.ID.String())
	logger.Info(ctx, "Verification request created", zap.String("region", region))

	var fileKey string
	err = u.retry.Do(ctx, func() error {
		var err error
		fileKey, err = u.storage.Upload(ctx, input.Content, input.FileName, input.MimeType, map[string]string{
			"requestId": req.ID.String(),
			"ownerId":   input.OwnerID.String(),
		})
		return err
	})
	if err != nil {
		logger.Error(ctx, "Document upload failed", zap.Error(err))
		req.Status = entities.RequestStatusFailed
		req.Metadata.FailureReason = "storage upload failed: " + err.Error()
		if uerr := u.requestRepo.Update(ctx, req); uerr != nil {
			logger.Error(ctx, "Failed to record upload failure", zap.Error(uerr))
		}
		return req, nil
	}

	req.Metadata.FileKey = fileKey
	if err := u.requestRepo.Update(ctx, req); err != nil {
		return nil, err
	}

	if err := u.delivery.Deliver(ctx, req, input.Content); err != nil {
		logger.Warn(ctx, "Delivery deferred to retry", zap.Error(err))
	}
	return req, nil
}

// GetForOwner returns the coarse view of a request owned by ownerID
func (u *DocumentUsecase) GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (*DocumentView, error) {
	req, err := u.requestRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.OwnerID != ownerID {
		return nil, domainerrors.NotFound("request not found")
	}
	return ToDocumentView(req), nil
}

// ToDocumentView strips everything but the coarse status
func ToDocumentView(req *entities.VerificationRequest) *DocumentView {
	view := &DocumentView{
		RequestID: req.ID,
		Status:    strings.ToLower(string(req.Status)),
	}
	if req.Payment != nil {
		status := req.Payment.Status
		view.Payment = &status
	}
	return view
}

func (u *DocumentUsecase) validate(input *SubmitDocumentInput) (string, error) {
	if len(input.Content) == 0 {
		return "", domainerrors.BadRequest("file is required")
	}
	if u.policy.MaxUploadBytes > 0 && int64(len(input.Content)) > u.policy.MaxUploadBytes {
		return "", domainerrors.BadRequest("file exceeds the maximum upload size")
	}
	input.FileName = strings.TrimSpace(input.FileName)
	if input.FileName == "" {
		return "", domainerrors.BadRequest("file name is required")
	}
	if input.MimeType == "" {
		input.MimeType = "application/octet-stream"
	}
	if input.QuestionOne == nil || input.QuestionTwo == nil {
		return "", domainerrors.BadRequest("questionOne and questionTwo are required")
	}

	region := strings.TrimSpace(input.Region)
	if region == "" {
		return "", domainerrors.BadRequest("region is required")
	}
	if len(u.policy.AllowedRegions) > 0 && !containsFold(u.policy.AllowedRegions, region) {
		return "", domainerrors.BadRequest("unsupported region")
	}
	return region, nil
}

func (u *DocumentUsecase) loadCharge(ctx context.Context, ownerID uuid.UUID, chargeID string) (*entities.Charge, error) {
	charge, err := u.chargeRepo.GetByID(ctx, chargeID)
	if errors.Is(err, domainerrors.ErrNotFound) {
		return nil, domainerrors.BadRequest("unknown charge")
	}
	if err != nil {
		return nil, err
	}
	if charge.OwnerID != nil && *charge.OwnerID != ownerID {
		return nil, domainerrors.Forbidden("charge belongs to another user")
	}
	if charge.RequestID != nil {
		return nil, domainerrors.Conflict("charge is already linked to a request")
	}
	if charge.Status == entities.ChargeStatusFailed {
		return nil, domainerrors.BadRequest("charge has failed")
	}
	return charge, nil
}

func containsFold(list []string, v string) bool {
	for _, item := range list {
		if strings.EqualFold(strings.TrimSpace(item), v) {
			return true
		}
	}
	return false
}
