package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kmarsack/storeyard-backend/api/responses"
	"github.com/kmarsack/storeyard-backend/api/validators"
	"github.com/kmarsack/storeyard-backend/internal/stock"
	pkgerrors "github.com/kmarsack/storeyard-backend/pkg/errors"
	"github.com/kmarsack/storeyard-backend/pkg/logger"
)

// CreateProductStock registers a ledger row for a catalog product.
func CreateProductStock(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		var payload createProductStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.CreateItem(r.Context(), stock.CreateItemInput{
			ResourceID:        payload.ResourceID,
			QuantityAvailable: payload.QuantityAvailable,
			RestockThreshold:  payload.RestockThreshold,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "product stock created", item)
	}
}

// ListProductStock returns every ledger row with its restock flag.
func ListProductStock(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		items, err := svc.ListItems(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "product stock fetched", items)
	}
}

// CreateStockOrder opens a pending replenishment order.
func CreateStockOrder(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		var payload createStockOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := stock.CreateOrderInput{
			ResourceID:      payload.ResourceID,
			QuantityOrdered: payload.QuantityOrdered,
			SupplierName:    validators.SanitizeString(payload.SupplierName, 120),
		}
		if payload.OrderedAt != nil {
			input.OrderedAt = *payload.OrderedAt
		}

		order, err := svc.CreateOrder(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "stock order created", order)
	}
}

// ListStockOrders returns the replenishment orders, pending and received.
func ListStockOrders(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		orders, err := svc.ListOrders(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "stock orders fetched", orders)
	}
}

// ReceiveStockOrder marks an order received and credits the stock item.
func ReceiveStockOrder(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock service unavailable"))
			return
		}

		orderID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id"))
			return
		}

		order, err := svc.ReceiveOrder(r.Context(), orderID, time.Now().UTC())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "stock order received", order)
	}
}

type createProductStockRequest struct {
	ResourceID        int64 `json:"resourceId" validate:"required,min=1"`
	QuantityAvailable int   `json:"quantityAvailable" validate:"omitempty,min=0"`
	RestockThreshold  int   `json:"restockThreshold" validate:"omitempty,min=0"`
}

type createStockOrderRequest struct {
	ResourceID      int64      `json:"resourceId" validate:"required,min=1"`
	QuantityOrdered int        `json:"quantityOrdered" validate:"required,min=1"`
	SupplierName    string     `json:"supplierName" validate:"required"`
	OrderedAt       *time.Time `json:"orderedAt,omitempty"`
}
