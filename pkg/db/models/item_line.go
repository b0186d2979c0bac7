package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemLine records a product sale within a payment. Persisting one is coupled
// to a stock debit of the same quantity.
type ItemLine struct {
	ID         uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	PaymentID  uuid.UUID       `gorm:"column:payment_id;type:uuid;not null;index"`
	ResourceID int64           `gorm:"column:resource_id;not null"`
	Quantity   int             `gorm:"column:quantity;not null"`
	Subtotal   decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null"`
	CreatedAt  time.Time       `gorm:"column:created_at;autoCreateTime"`
}
