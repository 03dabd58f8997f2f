package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"docucheck.backend/internal/domain/entities"
)

// ChargeRepository defines charge data operations. Charges are never deleted.
type ChargeRepository interface {
	Create(ctx context.Context, charge *entities.Charge) error
	GetByID(ctx context.Context, id string) (*entities.Charge, error)
	// TransitionStatus moves a charge from one status to another and reports
	// whether a row changed.
	TransitionStatus(ctx context.Context, id string, from, to entities.ChargeStatus) (bool, error)
	AttachRequest(ctx context.Context, id string, requestID uuid.UUID) error
	ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]*entities.Charge, error)
}

// ChargeEventRepository defines charge event audit operations
type ChargeEventRepository interface {
	Create(ctx context.Context, event *entities.ChargeEvent) error
	ListByChargeID(ctx context.Context, chargeID string) ([]*entities.ChargeEvent, error)
}
