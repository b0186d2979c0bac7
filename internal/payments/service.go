package payments

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/kmarsack/storeyard-backend/pkg/db/models"
	"github.com/kmarsack/storeyard-backend/pkg/enums"
	pkgerrors "github.com/kmarsack/storeyard-backend/pkg/errors"
	"github.com/kmarsack/storeyard-backend/pkg/logger"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// stockEngine is the slice of the stock engine the façade needs: a debit per
// item line and a credit to compensate when the line fails to persist.
type stockEngine interface {
	Debit(ctx context.Context, resourceID int64, qty int) (int, error)
	Credit(ctx context.Context, resourceID int64, qty int, when time.Time) error
}

// Service composes payments with item and service lines. Item lines debit the
// stock ledger before they persist; the debit is compensated if persistence
// fails afterwards.
type Service interface {
	CreatePayment(ctx context.Context, input CreatePaymentInput) (*models.Payment, error)
	ListPayments(ctx context.Context) ([]models.Payment, error)
	AddItemLine(ctx context.Context, input AddItemLineInput) (*models.ItemLine, error)
	ListItemLines(ctx context.Context) ([]models.ItemLine, error)
	AddServiceLine(ctx context.Context, input AddServiceLineInput) (*models.ServiceLine, error)
	ListServiceLines(ctx context.Context) ([]models.ServiceLine, error)
}

type service struct {
	repo  Repository
	stock stockEngine
	tx    txRunner
	logg  *logger.Logger

	compensateAttempts int
	compensateBackoff  time.Duration
}

// CreatePaymentInput carries the fields required to open a payment. CardNo is
// accepted opaque and never stored in full.
type CreatePaymentInput struct {
	AccountID int64
	CardNo    string
	Method    string
}

// AddItemLineInput attaches a product sale to a payment.
type AddItemLineInput struct {
	PaymentID  uuid.UUID
	ResourceID int64
	Quantity   int
	Subtotal   decimal.Decimal
}

// AddServiceLineInput attaches billed labor to a payment.
type AddServiceLineInput struct {
	PaymentID   uuid.UUID
	ServiceID   int64
	HoursWorked decimal.Decimal
	Subtotal    decimal.Decimal
}

// NewService wires the payment façade with its dependencies.
func NewService(repo Repository, stock stockEngine, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock engine required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:               repo,
		stock:              stock,
		tx:                 tx,
		logg:               logg,
		compensateAttempts: 3,
		compensateBackoff:  50 * time.Millisecond,
	}, nil
}

func (s *service) CreatePayment(ctx context.Context, input CreatePaymentInput) (*models.Payment, error) {
	if input.AccountID <= 0 {
		return nil, missingField("accountId")
	}
	cardNo := strings.TrimSpace(input.CardNo)
	if cardNo == "" {
		return nil, missingField("cardNo")
	}
	if len(cardNo) < 4 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cardNo is malformed").
			WithDetails(map[string]string{"field": "cardNo"})
	}

	method := enums.PaymentMethodCreditCard
	if input.Method != "" {
		parsed, err := enums.ParsePaymentMethod(input.Method)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method").
				WithDetails(map[string]string{"field": "method"})
		}
		method = parsed
	}

	payment := &models.Payment{
		ID:        uuid.New(),
		AccountID: input.AccountID,
		Method:    method,
		CardLast4: cardNo[len(cardNo)-4:],
		CardToken: "tok_" + uuid.NewString(),
		Amount:    decimal.Zero,
	}
	if err := s.repo.CreatePayment(ctx, payment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "create payment")
	}
	return payment, nil
}

func (s *service) ListPayments(ctx context.Context) ([]models.Payment, error) {
	paymentRows, err := s.repo.ListPayments(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "list payments")
	}
	return paymentRows, nil
}

// AddItemLine debits stock first, then persists the line and updates the
// payment amount in one transaction. A debit failure surfaces unchanged with
// no line state; a persistence failure after a successful debit triggers the
// compensating credit.
func (s *service) AddItemLine(ctx context.Context, input AddItemLineInput) (*models.ItemLine, error) {
	if input.PaymentID == uuid.Nil {
		return nil, missingField("paymentId")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive").
			WithDetails(map[string]string{"field": "quantity"})
	}
	if input.Subtotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must not be negative").
			WithDetails(map[string]string{"field": "subtotal"})
	}

	if _, err := s.repo.GetPayment(ctx, input.PaymentID); err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("payment %s not found", input.PaymentID))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "load payment")
	}

	if _, err := s.stock.Debit(ctx, input.ResourceID, input.Quantity); err != nil {
		return nil, err
	}

	line := &models.ItemLine{
		ID:         uuid.New(),
		PaymentID:  input.PaymentID,
		ResourceID: input.ResourceID,
		Quantity:   input.Quantity,
		Subtotal:   input.Subtotal,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateItemLine(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "create item line")
		}
		ok, err := repo.AddToAmount(ctx, input.PaymentID, input.Subtotal)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "update payment amount")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("payment %s not found", input.PaymentID))
		}
		return nil
	})
	if err != nil {
		return nil, multierr.Append(err, s.compensateDebit(ctx, input.ResourceID, input.Quantity))
	}
	return line, nil
}

// compensateDebit restores stock debited for a line that failed to persist.
// This is the only internally retried action in the system.
func (s *service) compensateDebit(ctx context.Context, resourceID int64, qty int) error {
	var lastErr error
	for attempt := 0; attempt < s.compensateAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.compensateBackoff << (attempt - 1)):
			}
		}
		lastErr = s.stock.Credit(ctx, resourceID, qty, time.Now().UTC())
		if lastErr == nil {
			return nil
		}
	}
	s.logg.Error(ctx, "compensating credit failed", lastErr)
	return pkgerrors.Wrap(pkgerrors.CodeUnavailable, lastErr,
		fmt.Sprintf("compensating credit for stock item %d", resourceID))
}

func (s *service) ListItemLines(ctx context.Context) ([]models.ItemLine, error) {
	lines, err := s.repo.ListItemLines(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "list item lines")
	}
	return lines, nil
}

func (s *service) AddServiceLine(ctx context.Context, input AddServiceLineInput) (*models.ServiceLine, error) {
	if input.PaymentID == uuid.Nil {
		return nil, missingField("paymentId")
	}
	if input.ServiceID <= 0 {
		return nil, missingField("serviceId")
	}
	if !input.HoursWorked.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "hoursWorked must be positive").
			WithDetails(map[string]string{"field": "hoursWorked"})
	}
	if input.Subtotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must not be negative").
			WithDetails(map[string]string{"field": "subtotal"})
	}

	line := &models.ServiceLine{
		ID:          uuid.New(),
		PaymentID:   input.PaymentID,
		ServiceID:   input.ServiceID,
		HoursWorked: input.HoursWorked,
		Subtotal:    input.Subtotal,
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateServiceLine(ctx, line); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "create service line")
		}
		ok, err := repo.AddToAmount(ctx, input.PaymentID, input.Subtotal)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "update payment amount")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("payment %s not found", input.PaymentID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func (s *service) ListServiceLines(ctx context.Context) ([]models.ServiceLine, error) {
	lines, err := s.repo.ListServiceLines(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "list service lines")
	}
	return lines, nil
}

func missingField(field string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is required", field)).
		WithDetails(map[string]string{"field": field})
}
