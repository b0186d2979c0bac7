package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kmarsack/storeyard-backend/api/responses"
	"github.com/kmarsack/storeyard-backend/api/validators"
	"github.com/kmarsack/storeyard-backend/internal/payments"
	pkgerrors "github.com/kmarsack/storeyard-backend/pkg/errors"
	"github.com/kmarsack/storeyard-backend/pkg/logger"
)

// CreatePayment opens a payment shell. Amount starts at zero and grows as
// lines attach.
func CreatePayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var payload createPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payment, err := svc.CreatePayment(r.Context(), payments.CreatePaymentInput{
			AccountID: payload.AccountID,
			CardNo:    payload.CardNo,
			Method:    payload.Method,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "payment created", payment)
	}
}

// ListPayments returns all payments.
func ListPayments(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		list, err := svc.ListPayments(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "payments fetched", list)
	}
}

// CreateItemTransaction attaches a product sale to a payment and debits stock.
func CreateItemTransaction(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var payload createItemTransactionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.AddItemLine(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "item transaction created", line)
	}
}

// ListItemTransactions returns all item lines.
func ListItemTransactions(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		list, err := svc.ListItemLines(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "item transactions fetched", list)
	}
}

// CreateServiceTransaction attaches billed labor to a payment. No stock moves.
func CreateServiceTransaction(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		var payload createServiceTransactionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		line, err := svc.AddServiceLine(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "service transaction created", line)
	}
}

// ListServiceTransactions returns all service lines.
func ListServiceTransactions(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		list, err := svc.ListServiceLines(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "service transactions fetched", list)
	}
}

type createPaymentRequest struct {
	AccountID int64  `json:"accountId" validate:"required,min=1"`
	CardNo    string `json:"cardNo" validate:"required,min=4"`
	Method    string `json:"method,omitempty"`
}

type createItemTransactionRequest struct {
	PaymentID  string `json:"paymentId" validate:"required"`
	ResourceID int64  `json:"resourceId" validate:"required,min=1"`
	Quantity   int    `json:"quantity" validate:"required,min=1"`
	Subtotal   string `json:"subtotal" validate:"required"`
}

func (r createItemTransactionRequest) toInput() (payments.AddItemLineInput, error) {
	paymentID, err := uuid.Parse(r.PaymentID)
	if err != nil {
		return payments.AddItemLineInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment id")
	}
	subtotal, err := decimal.NewFromString(r.Subtotal)
	if err != nil {
		return payments.AddItemLineInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subtotal")
	}
	return payments.AddItemLineInput{
		PaymentID:  paymentID,
		ResourceID: r.ResourceID,
		Quantity:   r.Quantity,
		Subtotal:   subtotal,
	}, nil
}

type createServiceTransactionRequest struct {
	PaymentID   string `json:"paymentId" validate:"required"`
	ServiceID   int64  `json:"serviceId" validate:"required,min=1"`
	HoursWorked string `json:"hoursWorked" validate:"required"`
	Subtotal    string `json:"subtotal" validate:"required"`
}

func (r createServiceTransactionRequest) toInput() (payments.AddServiceLineInput, error) {
	paymentID, err := uuid.Parse(r.PaymentID)
	if err != nil {
		return payments.AddServiceLineInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment id")
	}
	hours, err := decimal.NewFromString(r.HoursWorked)
	if err != nil {
		return payments.AddServiceLineInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid hoursWorked")
	}
	subtotal, err := decimal.NewFromString(r.Subtotal)
	if err != nil {
		return payments.AddServiceLineInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid subtotal")
	}
	return payments.AddServiceLineInput{
		PaymentID:   paymentID,
		ServiceID:   r.ServiceID,
		HoursWorked: hours,
		Subtotal:    subtotal,
	}, nil
}
