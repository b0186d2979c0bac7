package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kmarsack/storeyard-backend/pkg/enums"
)

// Equipment is a rentable fleet asset. Availability is owned by the
// reservation engine and flips as bookings open and close.
type Equipment struct {
	ID           uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	Code         string                      `gorm:"column:code;not null;uniqueIndex"`
	Name         string                      `gorm:"column:name;not null"`
	Description  *string                     `gorm:"column:description"`
	Value        decimal.Decimal             `gorm:"column:value;type:numeric(12,2);not null;default:0"`
	Category     string                      `gorm:"column:category;not null"`
	Type         string                      `gorm:"column:type;not null"`
	TrackingID   *string                     `gorm:"column:tracking_id"`
	Availability enums.EquipmentAvailability `gorm:"column:availability;not null;default:'Available'"`
	CreatedAt    time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}
