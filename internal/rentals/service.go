package rentals

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/kmarsack/storeyard-backend/pkg/db"
	"github.com/kmarsack/storeyard-backend/pkg/db/models"
	"github.com/kmarsack/storeyard-backend/pkg/enums"
	pkgerrors "github.com/kmarsack/storeyard-backend/pkg/errors"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// errStatusRace marks a status edge that lost to a concurrent writer; the
// retry loop reloads and re-validates instead of surfacing it.
var errStatusRace = stdErrors.New("rental status changed concurrently")

// Service is the reservation engine: it owns rental bookings, the status
// state machine, and the equipment availability field.
type Service interface {
	CreateEquipment(ctx context.Context, input CreateEquipmentInput) (*models.Equipment, error)
	GetEquipment(ctx context.Context, equipmentID uuid.UUID) (*models.Equipment, error)
	ListEquipment(ctx context.Context) ([]models.Equipment, error)
	UpdateEquipment(ctx context.Context, equipmentID uuid.UUID, input UpdateEquipmentInput) (*models.Equipment, error)
	DeleteEquipment(ctx context.Context, equipmentID uuid.UUID) error

	Book(ctx context.Context, input BookInput) (*models.Rental, error)
	GetRental(ctx context.Context, rentalID uuid.UUID) (*models.Rental, error)
	ListRentals(ctx context.Context) ([]models.Rental, error)
	Transition(ctx context.Context, rentalID uuid.UUID, next enums.RentalStatus) (*models.Rental, error)
	Update(ctx context.Context, rentalID uuid.UUID, input UpdateRentalInput) (*models.Rental, error)
	Delete(ctx context.Context, rentalID uuid.UUID) error
}

type service struct {
	repo Repository
	tx   txRunner

	retryAttempts int
	retryBackoff  time.Duration
}

// CreateEquipmentInput registers a fleet asset.
type CreateEquipmentInput struct {
	Code        string
	Name        string
	Description *string
	Value       decimal.Decimal
	Category    string
	Type        string
	TrackingID  *string
}

// UpdateEquipmentInput patches equipment fields; nil means unchanged.
type UpdateEquipmentInput struct {
	Name         *string
	Description  *string
	Category     *string
	Type         *string
	TrackingID   *string
	Availability *string
}

// BookInput requests a reservation. EquipmentID is required for internal
// scope and absent for external scope.
type BookInput struct {
	EquipmentID *uuid.UUID
	AccountID   int64
	StartDate   time.Time
	EndDate     time.Time
	Scope       string
	Notes       *string
	RentalCode  string
}

// UpdateRentalInput patches non-status rental fields; nil means unchanged.
type UpdateRentalInput struct {
	StartDate *time.Time
	EndDate   *time.Time
	Notes     *string
}

// NewService wires the reservation engine with its repository and transaction
// runner.
func NewService(repo Repository, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("rentals repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:          repo,
		tx:            tx,
		retryAttempts: 4,
		retryBackoff:  25 * time.Millisecond,
	}, nil
}

// withRetry runs fn in a transaction, retrying transient conflicts with
// exponential backoff. Exhausting the bound surfaces Conflict, never a silent
// failure.
func (s *service) withRetry(ctx context.Context, fn func(tx *gorm.DB) error) error {
	backoff := s.retryBackoff
	var err error
	for attempt := 0; attempt < s.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		err = s.tx.WithTx(ctx, fn)
		if err == nil {
			return nil
		}
		if !db.IsSerializationFailure(err) && !stdErrors.Is(err, errStatusRace) {
			return err
		}
	}
	return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "booking retries exhausted")
}

func (s *service) CreateEquipment(ctx context.Context, input CreateEquipmentInput) (*models.Equipment, error) {
	if strings.TrimSpace(input.Code) == "" {
		return nil, missingField("code")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, missingField("name")
	}
	if strings.TrimSpace(input.Category) == "" {
		return nil, missingField("category")
	}
	if strings.TrimSpace(input.Type) == "" {
		return nil, missingField("type")
	}

	if input.Value.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "value must not be negative").
			WithDetails(map[string]string{"field": "value"})
	}

	equipment := &models.Equipment{
		ID:           uuid.New(),
		Code:         strings.TrimSpace(input.Code),
		Name:         strings.TrimSpace(input.Name),
		Description:  input.Description,
		Value:        input.Value,
		Category:     strings.TrimSpace(input.Category),
		Type:         strings.TrimSpace(input.Type),
		TrackingID:   input.TrackingID,
		Availability: enums.EquipmentAvailable,
	}
	if err := s.repo.CreateEquipment(ctx, equipment); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeResourceConflict, err,
				fmt.Sprintf("equipment code %q already exists", equipment.Code))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "create equipment")
	}
	return equipment, nil
}

func (s *service) GetEquipment(ctx context.Context, equipmentID uuid.UUID) (*models.Equipment, error) {
	equipment, err := s.repo.GetEquipment(ctx, equipmentID)
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, equipmentNotFound(equipmentID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "load equipment")
	}
	return equipment, nil
}

func (s *service) ListEquipment(ctx context.Context) ([]models.Equipment, error) {
	fleet, err := s.repo.ListEquipment(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "list equipment")
	}
	return fleet, nil
}

func (s *service) UpdateEquipment(ctx context.Context, equipmentID uuid.UUID, input UpdateEquipmentInput) (*models.Equipment, error) {
	equipment, err := s.GetEquipment(ctx, equipmentID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		equipment.Name = *input.Name
	}
	if input.Description != nil {
		equipment.Description = input.Description
	}
	if input.Category != nil {
		equipment.Category = *input.Category
	}
	if input.Type != nil {
		equipment.Type = *input.Type
	}
	if input.TrackingID != nil {
		equipment.TrackingID = input.TrackingID
	}
	if input.Availability != nil {
		availability, err := enums.ParseEquipmentAvailability(*input.Availability)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid availability").
				WithDetails(map[string]string{"field": "availability"})
		}
		equipment.Availability = availability
	}

	if err := s.repo.SaveEquipment(ctx, equipment); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "update equipment")
	}
	return equipment, nil
}

// DeleteEquipment refuses removal while non-terminal rentals still reference
// the asset, so the booking invariant cannot be bypassed by deletion.
func (s *service) DeleteEquipment(ctx context.Context, equipmentID uuid.UUID) error {
	if _, err := s.GetEquipment(ctx, equipmentID); err != nil {
		return err
	}

	count, err := s.repo.CountNonTerminal(ctx, equipmentID, uuid.Nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "count rentals")
	}
	if count > 0 {
		return pkgerrors.New(pkgerrors.CodeResourceConflict,
			fmt.Sprintf("equipment %s has %d open rentals", equipmentID, count))
	}
	if err := s.repo.DeleteEquipment(ctx, equipmentID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "delete equipment")
	}
	return nil
}

func (s *service) Book(ctx context.Context, input BookInput) (*models.Rental, error) {
	if input.AccountID <= 0 {
		return nil, missingField("accountId")
	}
	if input.StartDate.IsZero() {
		return nil, missingField("startDate")
	}
	if input.EndDate.IsZero() {
		return nil, missingField("endDate")
	}
	if input.EndDate.Before(input.StartDate) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "endDate must not be before startDate").
			WithDetails(map[string]string{"field": "endDate"})
	}

	scope := enums.RentalScopeInternal
	if input.Scope != "" {
		parsed, err := enums.ParseRentalScope(input.Scope)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid scope").
				WithDetails(map[string]string{"field": "scope"})
		}
		scope = parsed
	}
	if scope == enums.RentalScopeInternal && input.EquipmentID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "equipmentId is required for internal rentals").
			WithDetails(map[string]string{"field": "equipmentId"})
	}

	code := strings.TrimSpace(input.RentalCode)
	if code == "" {
		code = "RNT-" + strings.ToUpper(uuid.NewString()[:8])
	}

	rental := &models.Rental{
		ID:         uuid.New(),
		RentalCode: code,
		AccountID:  input.AccountID,
		StartDate:  input.StartDate,
		EndDate:    input.EndDate,
		Status:     enums.RentalStatusReserved,
		Notes:      input.Notes,
		Scope:      scope,
	}

	if scope == enums.RentalScopeExternal {
		if err := s.repo.CreateRental(ctx, rental); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "create rental")
		}
		return rental, nil
	}

	rental.EquipmentID = input.EquipmentID
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		// The row lock serializes concurrent bookings on the asset: the
		// second transaction blocks here and its guard then sees the first
		// booking committed.
		locked, err := repo.LockEquipment(ctx, *input.EquipmentID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "lock equipment")
		}
		if !locked {
			return equipmentNotFound(*input.EquipmentID)
		}

		inserted, err := repo.CreateRentalGuarded(ctx, rental)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "create rental")
		}
		if !inserted {
			blocking, err := s.findOverlapping(ctx, repo, *input.EquipmentID, input.StartDate, input.EndDate, uuid.Nil)
			if err != nil {
				return err
			}
			return overlapConflict(blocking)
		}

		if _, err := repo.SetEquipmentAvailability(ctx, *input.EquipmentID, enums.EquipmentReserved); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "reserve equipment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rental, nil
}

func (s *service) GetRental(ctx context.Context, rentalID uuid.UUID) (*models.Rental, error) {
	rental, err := s.repo.GetRental(ctx, rentalID)
	if stdErrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, rentalNotFound(rentalID)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "load rental")
	}
	return rental, nil
}

func (s *service) ListRentals(ctx context.Context) ([]models.Rental, error) {
	rentals, err := s.repo.ListRentals(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "list rentals")
	}
	return rentals, nil
}

// Transition advances the rental along one of the legal status edges. On
// entering a terminal state the equipment is freed when no other non-terminal
// rental references it.
func (s *service) Transition(ctx context.Context, rentalID uuid.UUID, next enums.RentalStatus) (*models.Rental, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid rental status %q", next)).
			WithDetails(map[string]string{"field": "status"})
	}

	var updated *models.Rental
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rental, err := repo.GetRental(ctx, rentalID)
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return rentalNotFound(rentalID)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "load rental")
		}

		if !rental.Status.CanTransitionTo(next) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition,
				fmt.Sprintf("cannot transition rental from %s to %s", rental.Status, next))
		}

		applied, err := repo.UpdateRentalStatus(ctx, rentalID, rental.Status, next)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "update rental status")
		}
		if !applied {
			return errStatusRace
		}

		if next.IsTerminal() && rental.EquipmentID != nil {
			// Lock so two rentals closing together cannot both count the
			// other as open and leave the equipment reserved forever.
			locked, err := repo.LockEquipment(ctx, *rental.EquipmentID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "lock equipment")
			}
			if !locked {
				return equipmentNotFound(*rental.EquipmentID)
			}
			open, err := repo.CountNonTerminal(ctx, *rental.EquipmentID, rentalID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "count rentals")
			}
			if open == 0 {
				if _, err := repo.SetEquipmentAvailability(ctx, *rental.EquipmentID, enums.EquipmentAvailable); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "release equipment")
				}
			}
		}

		rental.Status = next
		updated = rental
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Update mutates non-status fields. Date changes on a non-terminal rental
// re-run the overlap check against its equipment.
func (s *service) Update(ctx context.Context, rentalID uuid.UUID, input UpdateRentalInput) (*models.Rental, error) {
	var updated *models.Rental
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rental, err := repo.GetRental(ctx, rentalID)
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return rentalNotFound(rentalID)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "load rental")
		}

		datesChanged := false
		if input.StartDate != nil && !input.StartDate.Equal(rental.StartDate) {
			rental.StartDate = *input.StartDate
			datesChanged = true
		}
		if input.EndDate != nil && !input.EndDate.Equal(rental.EndDate) {
			rental.EndDate = *input.EndDate
			datesChanged = true
		}
		if input.Notes != nil {
			rental.Notes = input.Notes
		}

		if rental.EndDate.Before(rental.StartDate) {
			return pkgerrors.New(pkgerrors.CodeValidation, "endDate must not be before startDate").
				WithDetails(map[string]string{"field": "endDate"})
		}

		if datesChanged && !rental.Status.IsTerminal() && rental.EquipmentID != nil {
			locked, err := repo.LockEquipment(ctx, *rental.EquipmentID)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "lock equipment")
			}
			if !locked {
				return equipmentNotFound(*rental.EquipmentID)
			}
			blocking, err := s.findOverlapping(ctx, repo, *rental.EquipmentID, rental.StartDate, rental.EndDate, rental.ID)
			if err != nil {
				return err
			}
			if blocking != nil {
				return overlapConflict(blocking)
			}
		}

		if err := repo.SaveRental(ctx, rental); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "update rental")
		}
		updated = rental
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete refuses removal of reserved or active rentals; they must be returned
// or closed first.
func (s *service) Delete(ctx context.Context, rentalID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		rental, err := repo.GetRental(ctx, rentalID)
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return rentalNotFound(rentalID)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "load rental")
		}

		if !rental.Status.IsTerminal() {
			return pkgerrors.New(pkgerrors.CodeResourceConflict,
				fmt.Sprintf("rental %s is %s and cannot be deleted", rentalID, rental.Status))
		}
		if err := repo.DeleteRental(ctx, rentalID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "delete rental")
		}
		return nil
	})
}

// findOverlapping applies the half-open interval comparison to the open
// rentals on the equipment. Returns nil when nothing overlaps.
func (s *service) findOverlapping(ctx context.Context, repo Repository, equipmentID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (*models.Rental, error) {
	open, err := repo.ListOpenByEquipment(ctx, equipmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnavailable, err, "list open rentals")
	}
	for i := range open {
		if open[i].ID == excludeID {
			continue
		}
		if intervalsOverlap(open[i].StartDate, open[i].EndDate, start, end) {
			return &open[i], nil
		}
	}
	return nil, nil
}

func overlapConflict(blocking *models.Rental) *pkgerrors.Error {
	if blocking == nil {
		return pkgerrors.New(pkgerrors.CodeResourceConflict, "booking overlaps an existing rental")
	}
	return pkgerrors.New(pkgerrors.CodeResourceConflict,
		fmt.Sprintf("booking overlaps rental %s", blocking.ID)).
		WithDetails(map[string]any{"conflictingRentalId": blocking.ID})
}

func rentalNotFound(rentalID uuid.UUID) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("rental %s not found", rentalID))
}

func equipmentNotFound(equipmentID uuid.UUID) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("equipment %s not found", equipmentID))
}

func missingField(field string) *pkgerrors.Error {
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("%s is required", field)).
		WithDetails(map[string]string{"field": field})
}
