package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type VerificationRequest struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey"`
	OwnerID           uuid.UUID      `gorm:"type:uuid;not null;index"`
	Status            string         `gorm:"type:varchar(20);not null;index"`
	TelegramStatus    string         `gorm:"type:varchar(20);not null;index"`
	TelegramError     *string        `gorm:"type:text"`
	TelegramMessageID *int64         // nullable
	RetryCount        int            `gorm:"not null;default:0"`
	Metadata          datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	ChargeID          *string        `gorm:"type:varchar(100);index"`
	Version           int            `gorm:"not null;default:1"`
	CreatedAt         time.Time
	UpdatedAt         time.Time `gorm:"index"`
}

func (VerificationRequest) TableName() string {
	return "verification_requests"
}
