package payments

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kmarsack/storeyard-backend/pkg/db/models"
)

// Repository manages persistence for payments and their line items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreatePayment(ctx context.Context, payment *models.Payment) error
	GetPayment(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error)
	ListPayments(ctx context.Context) ([]models.Payment, error)
	// AddToAmount applies the subtotal delta to the payment's running total.
	// It reports whether the payment row exists.
	AddToAmount(ctx context.Context, paymentID uuid.UUID, delta decimal.Decimal) (bool, error)

	CreateItemLine(ctx context.Context, line *models.ItemLine) error
	ListItemLines(ctx context.Context) ([]models.ItemLine, error)
	ListItemLinesByPayment(ctx context.Context, paymentID uuid.UUID) ([]models.ItemLine, error)

	CreateServiceLine(ctx context.Context, line *models.ServiceLine) error
	ListServiceLines(ctx context.Context) ([]models.ServiceLine, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payments repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreatePayment(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repository) GetPayment(ctx context.Context, paymentID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).
		Where("id = ?", paymentID).
		First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repository) ListPayments(ctx context.Context) ([]models.Payment, error) {
	var paymentRows []models.Payment
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&paymentRows).Error; err != nil {
		return nil, err
	}
	return paymentRows, nil
}

func (r *repository) AddToAmount(ctx context.Context, paymentID uuid.UUID, delta decimal.Decimal) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE payments
		SET amount = amount + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, delta, paymentID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CreateItemLine(ctx context.Context, line *models.ItemLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *repository) ListItemLines(ctx context.Context) ([]models.ItemLine, error) {
	var lines []models.ItemLine
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) ListItemLinesByPayment(ctx context.Context, paymentID uuid.UUID) ([]models.ItemLine, error) {
	var lines []models.ItemLine
	if err := r.db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("created_at ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *repository) CreateServiceLine(ctx context.Context, line *models.ServiceLine) error {
	return r.db.WithContext(ctx).Create(line).Error
}

func (r *repository) ListServiceLines(ctx context.Context) ([]models.ServiceLine, error) {
	var lines []models.ServiceLine
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}
