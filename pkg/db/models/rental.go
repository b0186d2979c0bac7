package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/kmarsack/storeyard-backend/pkg/enums"
)

// Rental is an interval-bound claim on a piece of equipment. EquipmentID is
// nil for external-scope bookings that carry no tracked asset. The booking
// invariant: no two rentals on the same equipment with overlapping
// [StartDate, EndDate) may both be non-terminal.
type Rental struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	RentalCode  string             `gorm:"column:rental_code;not null;uniqueIndex"`
	AccountID   int64              `gorm:"column:account_id;not null;index"`
	EquipmentID *uuid.UUID         `gorm:"column:equipment_id;type:uuid;index"`
	StartDate   time.Time          `gorm:"column:start_date;not null"`
	EndDate     time.Time          `gorm:"column:end_date;not null"`
	Status      enums.RentalStatus `gorm:"column:status;not null;default:'Reserved'"`
	Notes       *string            `gorm:"column:notes"`
	Scope       enums.RentalScope  `gorm:"column:scope;not null;default:'Internal'"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
