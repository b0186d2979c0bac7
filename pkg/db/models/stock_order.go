package models

import (
	"time"

	"github.com/google/uuid"
)

// StockOrder is a replenishment order against a stock item. It is created
// pending (ReceivedAt null) and becomes immutable once received.
type StockOrder struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ResourceID      int64      `gorm:"column:resource_id;not null;index"`
	QuantityOrdered int        `gorm:"column:quantity_ordered;not null"`
	SupplierName    string     `gorm:"column:supplier_name;not null"`
	OrderedAt       time.Time  `gorm:"column:ordered_at;not null"`
	ReceivedAt      *time.Time `gorm:"column:received_at"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
