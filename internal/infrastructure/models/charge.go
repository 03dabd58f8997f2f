package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Charge struct {
	ID        string         `gorm:"type:varchar(100);primaryKey"`
	Code      string         `gorm:"type:varchar(50);index"`
	RequestID *uuid.UUID     `gorm:"type:uuid;index"`
	OwnerID   *uuid.UUID     `gorm:"type:uuid;index"`
	Amount    string         `gorm:"type:varchar(100);not null"`
	Currency  string         `gorm:"type:varchar(10);not null"`
	Status    string         `gorm:"type:varchar(20);not null;index"`
	HostedURL string         `gorm:"type:text"`
	Metadata  datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type ChargeEvent struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	ChargeID  string         `gorm:"type:varchar(100);not null;index"`
	Source    string         `gorm:"type:varchar(20);not null"`
	EventID   *string        `gorm:"type:varchar(100);index"`
	EventType string         `gorm:"type:varchar(50);not null"`
	Status    string         `gorm:"type:varchar(20);not null"`
	Applied   bool           `gorm:"not null;default:false"`
	Payload   datatypes.JSON `gorm:"type:jsonb;default:'{}'"`
	CreatedAt time.Time
}
