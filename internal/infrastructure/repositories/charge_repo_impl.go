package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"docucheck.backend/internal/domain/entities"
	domainerrors "docucheck.backend/internal/domain/errors"
	"docucheck.backend/internal/infrastructure/models"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ChargeRepository implements charge data operations
type ChargeRepository struct {
	db *gorm.DB
}

// NewChargeRepository creates a new charge repository
func NewChargeRepository(db *gorm.DB) *ChargeRepository {
	return &ChargeRepository{db: db}
}

// Create stores a charge mirror
func (r *ChargeRepository) Create(ctx context.Context, charge *entities.Charge) error {
	now := time.Now().UTC()
	if charge.CreatedAt.IsZero() {
		charge.CreatedAt = now
	}
	charge.UpdatedAt = now
	if charge.Status == "" {
		charge.Status = entities.ChargeStatusPending
	}

	meta := datatypes.JSON("{}")
	if len(charge.Metadata) > 0 {
		raw, err := json.Marshal(charge.Metadata)
		if err != nil {
			return err
		}
		meta = datatypes.JSON(raw)
	}

	m := &models.Charge{
		ID:        charge.ID,
		Code:      charge.Code,
		RequestID: charge.RequestID,
		OwnerID:   charge.OwnerID,
		Amount:    charge.Amount,
		Currency:  charge.Currency,
		Status:    string(charge.Status),
		HostedURL: charge.HostedURL,
		Metadata:  meta,
		CreatedAt: charge.CreatedAt,
		UpdatedAt: charge.UpdatedAt,
	}
	if err := GetDB(ctx, r.db).Create(m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domainerrors.ErrAlreadyExists
		}
		return err
	}
	return nil
}

// GetByID gets a charge by processor id
func (r *ChargeRepository) GetByID(ctx context.Context, id string) (*entities.Charge, error) {
	var m models.Charge
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toChargeEntity(&m), nil
}

// TransitionStatus applies from -> to only when the stored status is still from
func (r *ChargeRepository) TransitionStatus(ctx context.Context, id string, from, to entities.ChargeStatus) (bool, error) {
	result := GetDB(ctx, r.db).Model(&models.Charge{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(map[string]interface{}{
			"status":     string(to),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// AttachRequest links a charge to the request it pays for
func (r *ChargeRepository) AttachRequest(ctx context.Context, id string, requestID uuid.UUID) error {
	result := GetDB(ctx, r.db).Model(&models.Charge{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"request_id": requestID,
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// ListPendingBefore returns PENDING charges created before the cutoff
func (r *ChargeRepository) ListPendingBefore(ctx context.Context, before time.Time, limit int) ([]*entities.Charge, error) {
	var ms []models.Charge
	if err := GetDB(ctx, r.db).
		Where("status = ? AND created_at < ?", string(entities.ChargeStatusPending), before.UTC()).
		Order("created_at ASC").
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}

	charges := make([]*entities.Charge, 0, len(ms))
	for i := range ms {
		charges = append(charges, toChargeEntity(&ms[i]))
	}
	return charges, nil
}

func toChargeEntity(m *models.Charge) *entities.Charge {
	charge := &entities.Charge{
		ID:        m.ID,
		Code:      m.Code,
		RequestID: m.RequestID,
		OwnerID:   m.OwnerID,
		Amount:    m.Amount,
		Currency:  m.Currency,
		Status:    entities.ChargeStatus(m.Status),
		HostedURL: m.HostedURL,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if len(m.Metadata) > 0 {
		_ = json.Unmarshal(m.Metadata, &charge.Metadata)
	}
	return charge
}
