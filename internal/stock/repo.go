package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kmarsack/storeyard-backend/pkg/db/models"
)

// Repository manages persistence for stock items and stock orders. Debit and
// Credit are the only writers of quantity_available and both are single
// conditional statements, so the check and the mutation can never interleave
// with another writer on the same row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateItem(ctx context.Context, item *models.StockItem) error
	GetItem(ctx context.Context, resourceID int64) (*models.StockItem, error)
	ListItems(ctx context.Context) ([]models.StockItem, error)
	ListItemsBelowThreshold(ctx context.Context, limit int) ([]models.StockItem, error)

	// Debit decrements quantity_available when the row holds at least qty.
	// It returns the post-debit quantity and false when no row passed the
	// guard (missing item or insufficient stock).
	Debit(ctx context.Context, resourceID int64, qty int) (int, bool, error)
	// Credit increments quantity_available and stamps last_restock_at.
	// It reports whether the item row exists.
	Credit(ctx context.Context, resourceID int64, qty int, when time.Time) (bool, error)

	CreateOrder(ctx context.Context, order *models.StockOrder) error
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.StockOrder, error)
	ListOrders(ctx context.Context) ([]models.StockOrder, error)
	// MarkOrderReceived flips received_at exactly once; it reports whether a
	// pending row was transitioned.
	MarkOrderReceived(ctx context.Context, orderID uuid.UUID, when time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateItem(ctx context.Context, item *models.StockItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) GetItem(ctx context.Context, resourceID int64) (*models.StockItem, error) {
	var item models.StockItem
	if err := r.db.WithContext(ctx).
		Where("resource_id = ?", resourceID).
		First(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ListItems(ctx context.Context) ([]models.StockItem, error) {
	var items []models.StockItem
	if err := r.db.WithContext(ctx).
		Order("resource_id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) ListItemsBelowThreshold(ctx context.Context, limit int) ([]models.StockItem, error) {
	query := r.db.WithContext(ctx).
		Where("quantity_available < restock_threshold").
		Order("resource_id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var items []models.StockItem
	if err := query.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) Debit(ctx context.Context, resourceID int64, qty int) (int, bool, error) {
	var remaining []int
	res := r.db.WithContext(ctx).Raw(`
		UPDATE stock_items
		SET quantity_available = quantity_available - ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE resource_id = ? AND quantity_available >= ?
		RETURNING quantity_available
	`, qty, resourceID, qty).Scan(&remaining)
	if res.Error != nil {
		return 0, false, res.Error
	}
	if len(remaining) == 0 {
		return 0, false, nil
	}
	return remaining[0], true, nil
}

func (r *repository) Credit(ctx context.Context, resourceID int64, qty int, when time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stock_items
		SET quantity_available = quantity_available + ?,
			last_restock_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE resource_id = ?
	`, qty, when, resourceID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.StockOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.StockOrder, error) {
	var order models.StockOrder
	if err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListOrders(ctx context.Context) ([]models.StockOrder, error) {
	var orders []models.StockOrder
	if err := r.db.WithContext(ctx).
		Order("ordered_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) MarkOrderReceived(ctx context.Context, orderID uuid.UUID, when time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE stock_orders
		SET received_at = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND received_at IS NULL
	`, when, orderID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
