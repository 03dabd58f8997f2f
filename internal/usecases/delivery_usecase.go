package usecases

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"docucheck.backend/internal/domain/entities"
	domainerrors "docucheck.backend/internal/domain/errors"
	"docucheck.backend/internal/domain/gateways"
	"docucheck.backend/internal/domain/repositories"
	"docucheck.backend/pkg/logger"
	"docucheck.backend/pkg/metrics"
)

// DeliveryUsecase relays a stored document to the review channel
type DeliveryUsecase struct {
	requestRepo repositories.VerificationRequestRepository
	storage     gateways.StorageGateway
	bot         gateways.BotTransport
	interaction *InteractionUsecase
	retry       RetryPolicy
}

// NewDeliveryUsecase creates a new delivery usecase
func NewDeliveryUsecase(
	requestRepo repositories.VerificationRequestRepository,
	storage gateways.StorageGateway,
	bot gateways.BotTransport,
	interaction *InteractionUsecase,
	retry RetryPolicy,
) *DeliveryUsecase {
	return &DeliveryUsecase{
		requestRepo: requestRepo,
		storage:     storage,
		bot:         bot,
		interaction: interaction,
		retry:       retry,
	}
}

// FetchDocument loads the stored blob of req. A missing blob maps to
// ErrFileNotFound.
func (u *DeliveryUsecase) FetchDocument(ctx context.Context, req *entities.VerificationRequest) ([]byte, error) {
	if !req.HasFile() {
		return nil, domainerrors.ErrFileNotFound
	}

	var content []byte
	err := u.retry.Do(ctx, func() error {
		var err error
		content, _, err = u.storage.GetFile(ctx, req.Metadata.FileKey)
		return err
	})
	if errors.Is(err, domainerrors.ErrNotFound) {
		return nil, fmt.Errorf("file %s: %w", req.Metadata.FileKey, domainerrors.ErrFileNotFound)
	}
	if err != nil {
		return nil, err
	}
	return content, nil
}

// Deliver sends content to the review channel with the correlation caption
// and starts the conversation. A failed send marks the transport leg FAILED
// and leaves Status untouched. content nil means load it from storage.
func (u *DeliveryUsecase) Deliver(ctx context.Context, req *entities.VerificationRequest, content []byte) error {
	ctx = logger.WithVerificationID(ctx, req.ID.String())
	if !req.HasFile() {
		return domainerrors.ErrFileNotFound
	}
	if content == nil {
		var err error
		if content, err = u.FetchDocument(ctx, req); err != nil {
			return err
		}
	}

	messageID, sendErr := u.bot.SendDocument(ctx, content, req.Metadata.FileName, DocumentCaption(req))
	if sendErr != nil {
		metrics.ObserveDelivery(metrics.ResultFailure)
		logger.Warn(ctx, "Document delivery failed", zap.Error(sendErr))
		stored, err := mutateRequest(ctx, u.requestRepo, req.ID, func(r *entities.VerificationRequest) error {
			if r.Status == entities.RequestStatusCompleted {
				return errNoChange
			}
			r.MarkTransportFailed(sendErr.Error())
			return nil
		})
		if err != nil {
			logger.Error(ctx, "Failed to record delivery failure", zap.Error(err))
			req.MarkTransportFailed(sendErr.Error())
		} else {
			*req = *stored
		}
		return fmt.Errorf("send document: %w", sendErr)
	}

	metrics.ObserveDelivery(metrics.ResultSuccess)
	req.MarkSent(messageID)
	req.Metadata.InteractionStep = entities.StepDocumentSent
	if err := u.requestRepo.Update(ctx, req); err != nil {
		return fmt.Errorf("record delivery: %w", err)
	}
	logger.Info(ctx, "Document delivered", zap.Int64("message_id", messageID))

	return u.interaction.Start(ctx, req)
}

// DocumentCaption builds the review caption. The first line is always
// ID:<requestId>.
func DocumentCaption(req *entities.VerificationRequest) string {
	var lines []string
	if req.Metadata.Region != "" {
		lines = append(lines, "Region: "+req.Metadata.Region)
	}
	if req.Metadata.QuestionOne != nil {
		lines = append(lines, "Question 1: "+yesNo(*req.Metadata.QuestionOne))
	}
	if req.Metadata.QuestionTwo != nil {
		lines = append(lines, "Question 2: "+yesNo(*req.Metadata.QuestionTwo))
	}
	if req.Metadata.FileName != "" {
		lines = append(lines, "File: "+req.Metadata.FileName)
	}
	return entities.CorrelationCaption(req.ID, lines...)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
