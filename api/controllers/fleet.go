package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kmarsack/storeyard-backend/api/responses"
	"github.com/kmarsack/storeyard-backend/api/validators"
	"github.com/kmarsack/storeyard-backend/internal/rentals"
	"github.com/kmarsack/storeyard-backend/pkg/enums"
	pkgerrors "github.com/kmarsack/storeyard-backend/pkg/errors"
	"github.com/kmarsack/storeyard-backend/pkg/logger"
)

// CreateEquipment registers a fleet asset.
func CreateEquipment(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rentals service unavailable"))
			return
		}

		var payload createEquipmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		equipment, err := svc.CreateEquipment(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "equipment created", equipment)
	}
}

// ListEquipment returns the fleet ordered by code.
func ListEquipment(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rentals service unavailable"))
			return
		}

		fleet, err := svc.ListEquipment(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "equipment fetched", fleet)
	}
}

// GetEquipment returns one fleet asset.
func GetEquipment(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rentals service unavailable"))
			return
		}

		equipmentID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid equipment id"))
			return
		}

		equipment, err := svc.GetEquipment(r.Context(), equipmentID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "equipment fetched", equipment)
	}
}

// UpdateEquipment patches fleet asset fields.
func UpdateEquipment(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rentals service unavailable"))
			return
		}

		equipmentID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid equipment id"))
			return
		}

		var payload updateEquipmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		equipment, err := svc.UpdateEquipment(r.Context(), equipmentID, rentals.UpdateEquipmentInput{
			Name:         payload.Name,
			Description:  payload.Description,
			Category:     payload.Category,
			Type:         payload.Type,
			TrackingID:   payload.TrackingID,
			Availability: payload.Availability,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "equipment updated", equipment)
	}
}

// DeleteEquipment removes a fleet asset with no open rentals.
func DeleteEquipment(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rentals service unavailable"))
			return
		}

		equipmentID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid equipment id"))
			return
		}

		if err := svc.DeleteEquipment(r.Context(), equipmentID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "equipment deleted", map[string]string{"id": equipmentID.String()})
	}
}

// BookRental books equipment for an interval, or records an external rental.
func BookRental(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rentals service unavailable"))
			return
		}

		var payload bookRentalRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rental, err := svc.Book(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "rental booked", rental)
	}
}

// ListRentals returns all rentals ordered by start date.
func ListRentals(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rentals service unavailable"))
			return
		}

		list, err := svc.ListRentals(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "rentals fetched", list)
	}
}

// GetRental returns one rental.
func GetRental(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rentals service unavailable"))
			return
		}

		rentalID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rental id"))
			return
		}

		rental, err := svc.GetRental(r.Context(), rentalID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "rental fetched", rental)
	}
}

// UpdateRental patches a rental. A status change is a state-machine
// transition and cannot be combined with other field changes.
func UpdateRental(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rentals service unavailable"))
			return
		}

		rentalID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rental id"))
			return
		}

		var payload updateRentalRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if payload.Status != nil {
			if payload.StartDate != nil || payload.EndDate != nil || payload.Notes != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation,
					"status cannot be combined with other updates").
					WithDetails(map[string]string{"field": "status"}))
				return
			}
			next, err := enums.ParseRentalStatus(*payload.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			rental, err := svc.Transition(r.Context(), rentalID, next)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, "rental status updated", rental)
			return
		}

		rental, err := svc.Update(r.Context(), rentalID, rentals.UpdateRentalInput{
			StartDate: payload.StartDate,
			EndDate:   payload.EndDate,
			Notes:     payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "rental updated", rental)
	}
}

// DeleteRental removes a terminal rental.
func DeleteRental(svc rentals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "rentals service unavailable"))
			return
		}

		rentalID, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid rental id"))
			return
		}

		if err := svc.Delete(r.Context(), rentalID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, "rental deleted", map[string]string{"id": rentalID.String()})
	}
}

type createEquipmentRequest struct {
	Code        string  `json:"code" validate:"required"`
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description,omitempty"`
	Value       string  `json:"value,omitempty"`
	Category    string  `json:"category" validate:"required"`
	Type        string  `json:"type" validate:"required"`
	TrackingID  *string `json:"trackingId,omitempty"`
}

func (r createEquipmentRequest) toInput() (rentals.CreateEquipmentInput, error) {
	value := decimal.Zero
	if r.Value != "" {
		parsed, err := decimal.NewFromString(r.Value)
		if err != nil {
			return rentals.CreateEquipmentInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid value")
		}
		value = parsed
	}
	return rentals.CreateEquipmentInput{
		Code:        validators.SanitizeString(r.Code, 64),
		Name:        validators.SanitizeString(r.Name, 120),
		Description: r.Description,
		Value:       value,
		Category:    r.Category,
		Type:        r.Type,
		TrackingID:  r.TrackingID,
	}, nil
}

type updateEquipmentRequest struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	Category     *string `json:"category,omitempty"`
	Type         *string `json:"type,omitempty"`
	TrackingID   *string `json:"trackingId,omitempty"`
	Availability *string `json:"availability,omitempty"`
}

type bookRentalRequest struct {
	EquipmentID *string   `json:"equipmentId,omitempty"`
	AccountID   int64     `json:"accountId" validate:"required,min=1"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required"`
	Scope       string    `json:"scope,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	RentalCode  string    `json:"rentalCode,omitempty"`
}

func (r bookRentalRequest) toInput() (rentals.BookInput, error) {
	input := rentals.BookInput{
		AccountID:  r.AccountID,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		Scope:      r.Scope,
		Notes:      r.Notes,
		RentalCode: r.RentalCode,
	}
	if r.EquipmentID != nil {
		equipmentID, err := uuid.Parse(*r.EquipmentID)
		if err != nil {
			return rentals.BookInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid equipment id")
		}
		input.EquipmentID = &equipmentID
	}
	return input, nil
}

type updateRentalRequest struct {
	Status    *string    `json:"status,omitempty"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	Notes     *string    `json:"notes,omitempty"`
}
