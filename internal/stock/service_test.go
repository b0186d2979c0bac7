package stock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kmarsack/storeyard-backend/pkg/db/models"
	pkgerrors "github.com/kmarsack/storeyard-backend/pkg/errors"
)

type fakeRepository struct {
	createItemFn        func(ctx context.Context, item *models.StockItem) error
	getItemFn           func(ctx context.Context, resourceID int64) (*models.StockItem, error)
	listItemsFn         func(ctx context.Context) ([]models.StockItem, error)
	listBelowFn         func(ctx context.Context, limit int) ([]models.StockItem, error)
	debitFn             func(ctx context.Context, resourceID int64, qty int) (int, bool, error)
	creditFn            func(ctx context.Context, resourceID int64, qty int, when time.Time) (bool, error)
	createOrderFn       func(ctx context.Context, order *models.StockOrder) error
	getOrderFn          func(ctx context.Context, orderID uuid.UUID) (*models.StockOrder, error)
	listOrdersFn        func(ctx context.Context) ([]models.StockOrder, error)
	markOrderReceivedFn func(ctx context.Context, orderID uuid.UUID, when time.Time) (bool, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) CreateItem(ctx context.Context, item *models.StockItem) error {
	if f.createItemFn != nil {
		return f.createItemFn(ctx, item)
	}
	return nil
}

func (f *fakeRepository) GetItem(ctx context.Context, resourceID int64) (*models.StockItem, error) {
	if f.getItemFn != nil {
		return f.getItemFn(ctx, resourceID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListItems(ctx context.Context) ([]models.StockItem, error) {
	if f.listItemsFn != nil {
		return f.listItemsFn(ctx)
	}
	return nil, nil
}

func (f *fakeRepository) ListItemsBelowThreshold(ctx context.Context, limit int) ([]models.StockItem, error) {
	if f.listBelowFn != nil {
		return f.listBelowFn(ctx, limit)
	}
	return nil, nil
}

func (f *fakeRepository) Debit(ctx context.Context, resourceID int64, qty int) (int, bool, error) {
	if f.debitFn != nil {
		return f.debitFn(ctx, resourceID, qty)
	}
	return 0, false, nil
}

func (f *fakeRepository) Credit(ctx context.Context, resourceID int64, qty int, when time.Time) (bool, error) {
	if f.creditFn != nil {
		return f.creditFn(ctx, resourceID, qty, when)
	}
	return false, nil
}

func (f *fakeRepository) CreateOrder(ctx context.Context, order *models.StockOrder) error {
	if f.createOrderFn != nil {
		return f.createOrderFn(ctx, order)
	}
	return nil
}

func (f *fakeRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.StockOrder, error) {
	if f.getOrderFn != nil {
		return f.getOrderFn(ctx, orderID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListOrders(ctx context.Context) ([]models.StockOrder, error) {
	if f.listOrdersFn != nil {
		return f.listOrdersFn(ctx)
	}
	return nil, nil
}

func (f *fakeRepository) MarkOrderReceived(ctx context.Context, orderID uuid.UUID, when time.Time) (bool, error) {
	if f.markOrderReceivedFn != nil {
		return f.markOrderReceivedFn(ctx, orderID, when)
	}
	return false, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, fakeTxRunner{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestService_DebitValidation(t *testing.T) {
	svc := newTestService(t, &fakeRepository{})

	for _, qty := range []int{0, -3} {
		if _, err := svc.Debit(context.Background(), 1, qty); pkgerrors.As(err) == nil ||
			pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for qty=%d, got %v", qty, err)
		}
	}
}

func TestService_DebitSuccess(t *testing.T) {
	repo := &fakeRepository{
		debitFn: func(ctx context.Context, resourceID int64, qty int) (int, bool, error) {
			if resourceID != 1 || qty != 3 {
				t.Fatalf("unexpected debit args: %d %d", resourceID, qty)
			}
			return 2, true, nil
		},
	}
	svc := newTestService(t, repo)

	remaining, err := svc.Debit(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("Debit error: %v", err)
	}
	if remaining != 2 {
		t.Fatalf("expected remaining 2, got %d", remaining)
	}
}

func TestService_DebitGuardFailures(t *testing.T) {
	t.Run("unknown item", func(t *testing.T) {
		repo := &fakeRepository{
			debitFn: func(ctx context.Context, resourceID int64, qty int) (int, bool, error) {
				return 0, false, nil
			},
		}
		svc := newTestService(t, repo)

		_, err := svc.Debit(context.Background(), 99, 1)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("insufficient stock", func(t *testing.T) {
		repo := &fakeRepository{
			debitFn: func(ctx context.Context, resourceID int64, qty int) (int, bool, error) {
				return 0, false, nil
			},
			getItemFn: func(ctx context.Context, resourceID int64) (*models.StockItem, error) {
				return &models.StockItem{ResourceID: resourceID, QuantityAvailable: 2}, nil
			},
		}
		svc := newTestService(t, repo)

		_, err := svc.Debit(context.Background(), 1, 3)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeInsufficientStock {
			t.Fatalf("expected insufficient stock, got %v", err)
		}
	})
}

func TestService_Credit(t *testing.T) {
	when := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	var gotWhen time.Time
	repo := &fakeRepository{
		creditFn: func(ctx context.Context, resourceID int64, qty int, w time.Time) (bool, error) {
			gotWhen = w
			return true, nil
		},
	}
	svc := newTestService(t, repo)

	if err := svc.Credit(context.Background(), 1, 25, when); err != nil {
		t.Fatalf("Credit error: %v", err)
	}
	if !gotWhen.Equal(when) {
		t.Fatalf("expected restock timestamp %v, got %v", when, gotWhen)
	}

	repo.creditFn = func(ctx context.Context, resourceID int64, qty int, w time.Time) (bool, error) {
		return false, nil
	}
	err := svc.Credit(context.Background(), 42, 5, when)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestService_CreateItemValidation(t *testing.T) {
	svc := newTestService(t, &fakeRepository{})

	tests := []struct {
		name  string
		input CreateItemInput
	}{
		{name: "missing resource id", input: CreateItemInput{QuantityAvailable: 1}},
		{name: "negative quantity", input: CreateItemInput{ResourceID: 1, QuantityAvailable: -1}},
		{name: "negative threshold", input: CreateItemInput{ResourceID: 1, RestockThreshold: -1}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateItem(context.Background(), tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_CreateItemDuplicate(t *testing.T) {
	repo := &fakeRepository{
		createItemFn: func(ctx context.Context, item *models.StockItem) error {
			return errors.New(`duplicate key value violates unique constraint "stock_items_pkey"`)
		},
	}
	svc := newTestService(t, repo)

	_, err := svc.CreateItem(context.Background(), CreateItemInput{ResourceID: 1, QuantityAvailable: 5})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeResourceConflict {
		t.Fatalf("expected resource conflict, got %v", err)
	}
}

func TestService_ListItemsDerivesRestockFlag(t *testing.T) {
	repo := &fakeRepository{
		listItemsFn: func(ctx context.Context) ([]models.StockItem, error) {
			return []models.StockItem{
				{ResourceID: 1, QuantityAvailable: 3, RestockThreshold: 10},
				{ResourceID: 2, QuantityAvailable: 50, RestockThreshold: 10},
			}, nil
		},
	}
	svc := newTestService(t, repo)

	items, err := svc.ListItems(context.Background())
	if err != nil {
		t.Fatalf("ListItems error: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if !items[0].RestockNeeded || items[1].RestockNeeded {
		t.Fatalf("unexpected restock flags: %+v", items)
	}
}

func TestService_ReceiveOrder(t *testing.T) {
	orderID := uuid.New()
	when := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	t.Run("credits on first receive", func(t *testing.T) {
		var creditedQty int
		repo := &fakeRepository{
			markOrderReceivedFn: func(ctx context.Context, id uuid.UUID, w time.Time) (bool, error) {
				return true, nil
			},
			getOrderFn: func(ctx context.Context, id uuid.UUID) (*models.StockOrder, error) {
				return &models.StockOrder{ID: id, ResourceID: 7, QuantityOrdered: 25}, nil
			},
			creditFn: func(ctx context.Context, resourceID int64, qty int, w time.Time) (bool, error) {
				creditedQty = qty
				return true, nil
			},
		}
		svc := newTestService(t, repo)

		order, err := svc.ReceiveOrder(context.Background(), orderID, when)
		if err != nil {
			t.Fatalf("ReceiveOrder error: %v", err)
		}
		if order == nil || order.ResourceID != 7 {
			t.Fatalf("unexpected order: %+v", order)
		}
		if creditedQty != 25 {
			t.Fatalf("expected credit of 25, got %d", creditedQty)
		}
	})

	t.Run("second receive conflicts", func(t *testing.T) {
		received := when
		repo := &fakeRepository{
			markOrderReceivedFn: func(ctx context.Context, id uuid.UUID, w time.Time) (bool, error) {
				return false, nil
			},
			getOrderFn: func(ctx context.Context, id uuid.UUID) (*models.StockOrder, error) {
				return &models.StockOrder{ID: id, ResourceID: 7, QuantityOrdered: 25, ReceivedAt: &received}, nil
			},
		}
		svc := newTestService(t, repo)

		_, err := svc.ReceiveOrder(context.Background(), orderID, when)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeResourceConflict {
			t.Fatalf("expected resource conflict, got %v", err)
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		repo := &fakeRepository{
			markOrderReceivedFn: func(ctx context.Context, id uuid.UUID, w time.Time) (bool, error) {
				return false, nil
			},
		}
		svc := newTestService(t, repo)

		_, err := svc.ReceiveOrder(context.Background(), orderID, when)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

func TestService_CreateOrderValidation(t *testing.T) {
	repo := &fakeRepository{
		getItemFn: func(ctx context.Context, resourceID int64) (*models.StockItem, error) {
			return &models.StockItem{ResourceID: resourceID}, nil
		},
	}
	svc := newTestService(t, repo)

	tests := []struct {
		name  string
		input CreateOrderInput
	}{
		{name: "missing resource id", input: CreateOrderInput{QuantityOrdered: 5, SupplierName: "acme"}},
		{name: "zero quantity", input: CreateOrderInput{ResourceID: 1, SupplierName: "acme"}},
		{name: "missing supplier", input: CreateOrderInput{ResourceID: 1, QuantityOrdered: 5}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateOrder(context.Background(), tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	repo.getItemFn = func(ctx context.Context, resourceID int64) (*models.StockItem, error) {
		return nil, gorm.ErrRecordNotFound
	}
	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{ResourceID: 1, QuantityOrdered: 5, SupplierName: "acme"})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for unknown item, got %v", err)
	}
}

func TestService_ThresholdBreach(t *testing.T) {
	repo := &fakeRepository{
		getItemFn: func(ctx context.Context, resourceID int64) (*models.StockItem, error) {
			return &models.StockItem{ResourceID: resourceID, QuantityAvailable: 4, RestockThreshold: 10}, nil
		},
	}
	svc := newTestService(t, repo)

	breached, err := svc.ThresholdBreach(context.Background(), 1)
	if err != nil {
		t.Fatalf("ThresholdBreach error: %v", err)
	}
	if !breached {
		t.Fatal("expected breach when quantity below threshold")
	}

	repo.getItemFn = func(ctx context.Context, resourceID int64) (*models.StockItem, error) {
		return &models.StockItem{ResourceID: resourceID, QuantityAvailable: 10, RestockThreshold: 10}, nil
	}
	breached, err = svc.ThresholdBreach(context.Background(), 1)
	if err != nil {
		t.Fatalf("ThresholdBreach error: %v", err)
	}
	if breached {
		t.Fatal("expected no breach at the threshold boundary")
	}
}
