package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kmarsack/storeyard-backend/pkg/enums"
)

// Payment is a point-of-sale payment record. Amount is derived from confirmed
// line subtotals and starts at zero. Card data is stored opaque: the last four
// digits plus a reference token, never the raw number.
type Payment struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	AccountID int64               `gorm:"column:account_id;not null;index"`
	Method    enums.PaymentMethod `gorm:"column:method;not null;default:'credit_card'"`
	CardLast4 string              `gorm:"column:card_last4;not null"`
	CardToken string              `gorm:"column:card_token;not null"`
	Amount    decimal.Decimal     `gorm:"column:amount;type:numeric(12,2);not null;default:0"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
