package stock

import (
	"context"
	stdErrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kmarsack/storeyard-backend/pkg/db"
	"github.com/kmarsack/storeyard-backend/pkg/db/models"
	pkgerrors "github.com/kmarsack/storeyard-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service is the stock transaction engine: the only writer of the stock
// ledger. Debits and credits apply atomically per resource.
type Service interface {
	CreateItem(ctx context.Context, input CreateItemInput) (*models.StockItem, error)
	ListItems(ctx context.Context) ([]ItemStatus, error)
	Debit(ctx context.Context, resourceID int64, qty int) (int, error)
	Credit(ctx context.Context, resourceID int64, qty int, when time.Time) error
	ThresholdBreach(ctx context.Context, resourceID int64) (bool, error)

	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.StockOrder, error)
	ListOrders(ctx context.Context) ([]models.StockOrder, error)
	ReceiveOrder(ctx context.Context, orderID uuid.UUID, receivedAt time.Time) (*models.StockOrder, error)
}

type service struct {
	repo Repository
	tx   txRunner
}

// CreateItemInput initializes a ledger row for a catalog product.
type CreateItemInput struct {
	ResourceID        int64
	QuantityAvailable int
	RestockThreshold  int
	LastRestockAt     *time.Time
}

// CreateOrderInput opens a pending replenishment order.
type CreateOrderInput struct {
	ResourceID      int64
	QuantityOrdered int
	SupplierName    string
	OrderedAt       time.Time
}

// ItemStatus is a ledger row plus its derived restock flag.
type ItemStatus struct {
	models.StockItem
	RestockNeeded bool `json:"restock_needed"`
}

// NewService wires the stock engine with its repository and transaction runner.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

func (s *service) CreateItem(ctx context.Context, input CreateItemInput) (*models.StockItem, error) {
	if input.ResourceID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "resourceId is required").
			WithDetails(map[string]string{"field": "resourceId"})
	}
	if input.QuantityAvailable < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must not be negative").
			WithDetails(map[string]string{"field": "quantity"})
	}
	if input.RestockThreshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restock threshold must not be negative").
			WithDetails(map[string]string{"field": "restockThreshold"})
	}

	item := &models.StockItem{
		ResourceID:        input.ResourceID,
		QuantityAvailable: input.QuantityAvailable,
		RestockThreshold:  input.RestockThreshold,
		LastRestockAt:     input.LastRestockAt,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeResourceConflict, err,
				fmt.Sprintf("stock item %d already exists", input.ResourceID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "create stock item")
	}
	return item, nil
}

func (s *service) ListItems(ctx context.Context) ([]ItemStatus, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "list stock items")
	}
	statuses := make([]ItemStatus, 0, len(items))
	for _, item := range items {
		statuses = append(statuses, ItemStatus{
			StockItem:     item,
			RestockNeeded: item.QuantityAvailable < item.RestockThreshold,
		})
	}
	return statuses, nil
}

// Debit performs the atomic check-and-decrement. The quantity check and the
// decrement execute as one statement, so concurrent debits on the same
// resource can never drive the quantity negative.
func (s *service) Debit(ctx context.Context, resourceID int64, qty int) (int, error) {
	if qty <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]string{"field": "quantity"})
	}

	remaining, ok, err := s.repo.Debit(ctx, resourceID, qty)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "debit stock")
	}
	if ok {
		return remaining, nil
	}

	// The guard rejected the update: either the item is unknown or the
	// quantity on hand is too low.
	item, err := s.repo.GetItem(ctx, resourceID)
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("stock item %d not found", resourceID))
	}
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "load stock item")
	}
	return 0, pkgerrors.New(pkgerrors.CodeInsufficientStock,
		fmt.Sprintf("stock item %d has %d available, %d requested", resourceID, item.QuantityAvailable, qty)).
		WithDetails(map[string]any{"available": item.QuantityAvailable, "requested": qty})
}

func (s *service) Credit(ctx context.Context, resourceID int64, qty int, when time.Time) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]string{"field": "quantity"})
	}

	ok, err := s.repo.Credit(ctx, resourceID, qty, when)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "credit stock")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("stock item %d not found", resourceID))
	}
	return nil
}

func (s *service) ThresholdBreach(ctx context.Context, resourceID int64) (bool, error) {
	item, err := s.repo.GetItem(ctx, resourceID)
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return false, pkgerrors.New(pkgerrors.CodeNotFound,
			fmt.Sprintf("stock item %d not found", resourceID))
	}
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "load stock item")
	}
	return item.QuantityAvailable < item.RestockThreshold, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.StockOrder, error) {
	if input.ResourceID <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "resourceId is required").
			WithDetails(map[string]string{"field": "resourceId"})
	}
	if input.QuantityOrdered <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]string{"field": "quantity"})
	}
	if input.SupplierName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplierName is required").
			WithDetails(map[string]string{"field": "supplierName"})
	}
	if input.OrderedAt.IsZero() {
		input.OrderedAt = time.Now().UTC()
	}

	if _, err := s.repo.GetItem(ctx, input.ResourceID); err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("stock item %d not found", input.ResourceID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "load stock item")
	}

	order := &models.StockOrder{
		ID:              uuid.New(),
		ResourceID:      input.ResourceID,
		QuantityOrdered: input.QuantityOrdered,
		SupplierName:    input.SupplierName,
		OrderedAt:       input.OrderedAt,
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "create stock order")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context) ([]models.StockOrder, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "list stock orders")
	}
	return orders, nil
}

// ReceiveOrder marks a pending order received and credits the matching stock
// item, all in one transaction. The received transition is one-way: a second
// receive finds no pending row and fails without touching the ledger.
func (s *service) ReceiveOrder(ctx context.Context, orderID uuid.UUID, receivedAt time.Time) (*models.StockOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderId is required").
			WithDetails(map[string]string{"field": "orderId"})
	}
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	var received *models.StockOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		ok, err := repo.MarkOrderReceived(ctx, orderID, receivedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "mark stock order received")
		}
		if !ok {
			order, err := repo.GetOrder(ctx, orderID)
			if stdErrors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound,
					fmt.Sprintf("stock order %s not found", orderID))
			}
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "load stock order")
			}
			return pkgerrors.New(pkgerrors.CodeResourceConflict,
				fmt.Sprintf("stock order %s already received", orderID)).
				WithDetails(map[string]any{"receivedAt": order.ReceivedAt})
		}

		order, err := repo.GetOrder(ctx, orderID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "load stock order")
		}

		credited, err := repo.Credit(ctx, order.ResourceID, order.QuantityOrdered, receivedAt)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "credit stock")
		}
		if !credited {
			return pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("stock item %d not found", order.ResourceID))
		}

		received = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return received, nil
}
