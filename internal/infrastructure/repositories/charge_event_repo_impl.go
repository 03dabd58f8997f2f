package repositories

import (
	"context"
	"encoding/json"
	"time"

	"docucheck.backend/internal/domain/entities"
	"docucheck.backend/internal/infrastructure/models"
	"docucheck.backend/pkg/utils"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChargeEventRepository implements charge event audit operations
type ChargeEventRepository struct {
	db *gorm.DB
}

// NewChargeEventRepository creates a new charge event repository
func NewChargeEventRepository(db *gorm.DB) *ChargeEventRepository {
	return &ChargeEventRepository{db: db}
}

// Create records a status observation
func (r *ChargeEventRepository) Create(ctx context.Context, event *entities.ChargeEvent) error {
	if event.ID == uuid.Nil {
		event.ID = utils.GenerateUUIDv7()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}

	payload := datatypes.JSON("{}")
	if len(event.Payload) > 0 && json.Valid(event.Payload) {
		payload = datatypes.JSON(event.Payload)
	}

	m := &models.ChargeEvent{
		ID:        event.ID,
		ChargeID:  event.ChargeID,
		Source:    string(event.Source),
		EventID:   event.EventID.Ptr(),
		EventType: event.EventType,
		Status:    string(event.Status),
		Applied:   event.Applied,
		Payload:   payload,
		CreatedAt: event.CreatedAt,
	}
	return GetDB(ctx, r.db).Create(m).Error
}

// ListByChargeID returns the audit trail of a charge in arrival order
func (r *ChargeEventRepository) ListByChargeID(ctx context.Context, chargeID string) ([]*entities.ChargeEvent, error) {
	var ms []models.ChargeEvent
	if err := GetDB(ctx, r.db).
		Where("charge_id = ?", chargeID).
		Order("created_at ASC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	events := make([]*entities.ChargeEvent, 0, len(ms))
	for _, m := range ms {
		events = append(events, &entities.ChargeEvent{
			ID:        m.ID,
			ChargeID:  m.ChargeID,
			Source:    entities.ChargeEventSource(m.Source),
			EventID:   null.StringFromPtr(m.EventID),
			EventType: m.EventType,
			Status:    entities.ChargeStatus(m.Status),
			Applied:   m.Applied,
			Payload:   []byte(m.Payload),
			CreatedAt: m.CreatedAt,
		})
	}
	return events, nil
}
