package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"docucheck.backend/internal/domain/entities"
	domainerrors "docucheck.backend/internal/domain/errors"
	domainRepos "docucheck.backend/internal/domain/repositories"
	"docucheck.backend/internal/infrastructure/models"
	"docucheck.backend/pkg/utils"
	"github.com/google/uuid"
	"github.com/volatiletech/null/v8"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// VerificationRequestRepository implements verification request data operations
type VerificationRequestRepository struct {
	db *gorm.DB
}

// NewVerificationRequestRepository creates a new verification request repository
func NewVerificationRequestRepository(db *gorm.DB) *VerificationRequestRepository {
	return &VerificationRequestRepository{db: db}
}

// Create creates a new verification request
func (r *VerificationRequestRepository) Create(ctx context.Context, request *entities.VerificationRequest) error {
	if request.ID == uuid.Nil {
		request.ID = utils.GenerateUUIDv7()
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now
	if request.Version == 0 {
		request.Version = 1
	}

	m, err := toVerificationRequestModel(request)
	if err != nil {
		return err
	}
	return GetDB(ctx, r.db).Create(m).Error
}

// GetByID gets a verification request by ID with its linked charge
func (r *VerificationRequestRepository) GetByID(ctx context.Context, id uuid.UUID) (*entities.VerificationRequest, error) {
	var m models.VerificationRequest
	if err := GetDB(ctx, r.db).Where("id = ?", id).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}

	request, err := r.toEntity(&m)
	if err != nil {
		return nil, err
	}
	if err := r.attachCharges(ctx, []*entities.VerificationRequest{request}); err != nil {
		return nil, err
	}
	return request, nil
}

// Update writes request back when its stored version still matches.
// On success request.Version and request.UpdatedAt are advanced.
func (r *VerificationRequestRepository) Update(ctx context.Context, request *entities.VerificationRequest) error {
	meta, err := json.Marshal(request.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":              string(request.Status),
		"telegram_status":     string(request.TelegramStatus),
		"telegram_error":      request.TelegramError.Ptr(),
		"telegram_message_id": request.TelegramMessageID.Ptr(),
		"retry_count":         request.RetryCount,
		"metadata":            datatypes.JSON(meta),
		"charge_id":           request.ChargeID.Ptr(),
		"version":             request.Version + 1,
		"updated_at":          now,
	}

	db := GetDB(ctx, r.db)
	result := db.Model(&models.VerificationRequest{}).
		Where("id = ? AND version = ?", request.ID, request.Version).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := db.Model(&models.VerificationRequest{}).Where("id = ?", request.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return domainerrors.ErrNotFound
		}
		return domainerrors.ErrStaleUpdate
	}

	request.Version++
	request.UpdatedAt = now
	return nil
}

// Delete removes a verification request
func (r *VerificationRequestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := GetDB(ctx, r.db).Where("id = ?", id).Delete(&models.VerificationRequest{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrNotFound
	}
	return nil
}

// List returns a page of verification requests, newest first
func (r *VerificationRequestRepository) List(ctx context.Context, filter domainRepos.VerificationRequestFilter, limit, offset int) ([]*entities.VerificationRequest, int64, error) {
	query := GetDB(ctx, r.db).Model(&models.VerificationRequest{})
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.TelegramStatus != "" {
		query = query.Where("telegram_status = ?", string(filter.TelegramStatus))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var ms []models.VerificationRequest
	if err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&ms).Error; err != nil {
		return nil, 0, err
	}

	items, err := r.toEntities(ms)
	if err != nil {
		return nil, 0, err
	}
	if err := r.attachCharges(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// CountFailedSince counts requests that failed after since
func (r *VerificationRequestRepository) CountFailedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&models.VerificationRequest{}).
		Where("status = ? AND updated_at >= ?", string(entities.RequestStatusFailed), since.UTC()).
		Count(&count).Error
	return count, err
}

// CountStuckProcessing counts requests in PROCESSING not touched since olderThan
func (r *VerificationRequestRepository) CountStuckProcessing(ctx context.Context, olderThan time.Time) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&models.VerificationRequest{}).
		Where("status = ? AND updated_at < ?", string(entities.RequestStatusProcessing), olderThan.UTC()).
		Count(&count).Error
	return count, err
}

// ListDeliveryRetryable returns pending requests whose delivery failed, oldest first
func (r *VerificationRequestRepository) ListDeliveryRetryable(ctx context.Context, limit int) ([]*entities.VerificationRequest, error) {
	var ms []models.VerificationRequest
	if err := GetDB(ctx, r.db).
		Where("status = ? AND telegram_status = ?", string(entities.RequestStatusPending), string(entities.TelegramStatusFailed)).
		Order("updated_at ASC").
		Limit(limit).
		Find(&ms).Error; err != nil {
		return nil, err
	}
	return r.toEntities(ms)
}

// attachCharges batch-loads linked charges instead of per-row lookups
func (r *VerificationRequestRepository) attachCharges(ctx context.Context, items []*entities.VerificationRequest) error {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.ChargeID.Valid {
			ids = append(ids, item.ChargeID.String)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	var charges []models.Charge
	if err := GetDB(ctx, r.db).Where("id IN ?", ids).Find(&charges).Error; err != nil {
		return err
	}
	byID := make(map[string]*entities.ChargeRef, len(charges))
	for i := range charges {
		c := charges[i]
		byID[c.ID] = &entities.ChargeRef{
			ID:       c.ID,
			Amount:   c.Amount,
			Currency: c.Currency,
			Status:   entities.ChargeStatus(c.Status),
		}
	}
	for _, item := range items {
		if item.ChargeID.Valid {
			item.Payment = byID[item.ChargeID.String]
		}
	}
	return nil
}

func (r *VerificationRequestRepository) toEntities(ms []models.VerificationRequest) ([]*entities.VerificationRequest, error) {
	items := make([]*entities.VerificationRequest, 0, len(ms))
	for i := range ms {
		item, err := r.toEntity(&ms[i])
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *VerificationRequestRepository) toEntity(m *models.VerificationRequest) (*entities.VerificationRequest, error) {
	var meta entities.RequestMetadata
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &meta); err != nil {
			return nil, fmt.Errorf("unmarshal metadata for %s: %w", m.ID, err)
		}
	}

	return &entities.VerificationRequest{
		ID:                m.ID,
		OwnerID:           m.OwnerID,
		Status:            entities.RequestStatus(m.Status),
		TelegramStatus:    entities.TelegramStatus(m.TelegramStatus),
		TelegramError:     null.StringFromPtr(m.TelegramError),
		TelegramMessageID: null.Int64FromPtr(m.TelegramMessageID),
		RetryCount:        m.RetryCount,
		Metadata:          meta,
		ChargeID:          null.StringFromPtr(m.ChargeID),
		Version:           m.Version,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}, nil
}

func toVerificationRequestModel(request *entities.VerificationRequest) (*models.VerificationRequest, error) {
	meta, err := json.Marshal(request.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return &models.VerificationRequest{
		ID:                request.ID,
		OwnerID:           request.OwnerID,
		Status:            string(request.Status),
		TelegramStatus:    string(request.TelegramStatus),
		TelegramError:     request.TelegramError.Ptr(),
		TelegramMessageID: request.TelegramMessageID.Ptr(),
		RetryCount:        request.RetryCount,
		Metadata:          datatypes.JSON(meta),
		ChargeID:          request.ChargeID.Ptr(),
		Version:           request.Version,
		CreatedAt:         request.CreatedAt,
		UpdatedAt:         request.UpdatedAt,
	}, nil
}
