package handlers

import (
	"context"

	"github.com/google/uuid"

	"docucheck.backend/internal/domain/entities"
	"docucheck.backend/internal/usecases"
	"docucheck.backend/pkg/utils"
)

type documentService interface {
	Submit(ctx context.Context, input usecases.SubmitDocumentInput) (*entities.VerificationRequest, error)
	GetForOwner(ctx context.Context, ownerID, id uuid.UUID) (*usecases.DocumentView, error)
}

type chargeService interface {
	CreateCharge(ctx context.Context, ownerID uuid.UUID, input usecases.CreateChargeInput) (*entities.Charge, error)
	GetCharge(ctx context.Context, ownerID uuid.UUID, chargeID string) (*entities.Charge, error)
}

type webhookService interface {
	HandlePaymentWebhook(ctx context.Context, rawBody []byte, signature string) error
	HandleBotWebhook(ctx context.Context, rawBody []byte, secretToken string) error
}

type adminService interface {
	List(ctx context.Context, input usecases.ListRequestsInput) ([]*entities.VerificationRequest, utils.PaginationMeta, error)
	Get(ctx context.Context, id uuid.UUID) (*entities.VerificationRequest, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Complete(ctx context.Context, id uuid.UUID, input usecases.CompletionInput) (*entities.VerificationRequest, error)
	FileURL(ctx context.Context, id uuid.UUID) (string, error)
	Health(ctx context.Context) *usecases.HealthReport
}

type retryService interface {
	Retry(ctx context.Context, id uuid.UUID) (*entities.VerificationRequest, error)
}
