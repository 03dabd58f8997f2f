package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"docucheck.backend/internal/domain/entities"
)

// VerificationRequestFilter narrows admin listings
type VerificationRequestFilter struct {
	OwnerID        *uuid.UUID
	Status         entities.RequestStatus
	TelegramStatus entities.TelegramStatus
}

// VerificationRequestRepository defines verification request data operations.
// Update is conditional on the entity's Version: when the stored row has moved
// on it returns domainerrors.ErrStaleUpdate and leaves the row untouched.
type VerificationRequestRepository interface {
	Create(ctx context.Context, request *entities.VerificationRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.VerificationRequest, error)
	Update(ctx context.Context, request *entities.VerificationRequest) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter VerificationRequestFilter, limit, offset int) ([]*entities.VerificationRequest, int64, error)
	CountFailedSince(ctx context.Context, since time.Time) (int64, error)
	CountStuckProcessing(ctx context.Context, olderThan time.Time) (int64, error)
	ListDeliveryRetryable(ctx context.Context, limit int) ([]*entities.VerificationRequest, error)
}
