package models

import "time"

// StockItem is the ledger row for a sellable product. ResourceID is the
// product identifier issued by the external catalog. QuantityAvailable is only
// mutated through the stock engine's atomic debit/credit statements.
type StockItem struct {
	ResourceID        int64      `gorm:"column:resource_id;primaryKey;autoIncrement:false"`
	QuantityAvailable int        `gorm:"column:quantity_available;not null;default:0"`
	RestockThreshold  int        `gorm:"column:restock_threshold;not null;default:0"`
	LastRestockAt     *time.Time `gorm:"column:last_restock_at"`
	CreatedAt         time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
