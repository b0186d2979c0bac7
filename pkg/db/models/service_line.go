package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ServiceLine records billed labor within a payment. It never touches the
// stock ledger.
type ServiceLine struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	PaymentID   uuid.UUID       `gorm:"column:payment_id;type:uuid;not null;index"`
	ServiceID   int64           `gorm:"column:service_id;not null"`
	HoursWorked decimal.Decimal `gorm:"column:hours_worked;type:numeric(8,2);not null"`
	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}
