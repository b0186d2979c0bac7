package rentals

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kmarsack/storeyard-backend/pkg/db/models"
	"github.com/kmarsack/storeyard-backend/pkg/enums"
	pkgerrors "github.com/kmarsack/storeyard-backend/pkg/errors"
)

type fakeRepository struct {
	createEquipmentFn     func(ctx context.Context, equipment *models.Equipment) error
	getEquipmentFn        func(ctx context.Context, equipmentID uuid.UUID) (*models.Equipment, error)
	lockEquipmentFn       func(ctx context.Context, equipmentID uuid.UUID) (bool, error)
	getRentalFn           func(ctx context.Context, rentalID uuid.UUID) (*models.Rental, error)
	createRentalGuardedFn func(ctx context.Context, rental *models.Rental) (bool, error)
	listOpenFn            func(ctx context.Context, equipmentID uuid.UUID) ([]models.Rental, error)
	updateStatusFn        func(ctx context.Context, rentalID uuid.UUID, from, to enums.RentalStatus) (bool, error)
	countNonTerminalFn    func(ctx context.Context, equipmentID uuid.UUID, excludeID uuid.UUID) (int64, error)
	setAvailabilityFn     func(ctx context.Context, equipmentID uuid.UUID, availability enums.EquipmentAvailability) (bool, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) CreateEquipment(ctx context.Context, equipment *models.Equipment) error {
	if f.createEquipmentFn != nil {
		return f.createEquipmentFn(ctx, equipment)
	}
	return nil
}

func (f *fakeRepository) GetEquipment(ctx context.Context, equipmentID uuid.UUID) (*models.Equipment, error) {
	if f.getEquipmentFn != nil {
		return f.getEquipmentFn(ctx, equipmentID)
	}
	return &models.Equipment{ID: equipmentID, Availability: enums.EquipmentAvailable}, nil
}

func (f *fakeRepository) LockEquipment(ctx context.Context, equipmentID uuid.UUID) (bool, error) {
	if f.lockEquipmentFn != nil {
		return f.lockEquipmentFn(ctx, equipmentID)
	}
	return true, nil
}

func (f *fakeRepository) ListEquipment(ctx context.Context) ([]models.Equipment, error) {
	return nil, nil
}

func (f *fakeRepository) SaveEquipment(ctx context.Context, equipment *models.Equipment) error {
	return nil
}

func (f *fakeRepository) DeleteEquipment(ctx context.Context, equipmentID uuid.UUID) error {
	return nil
}

func (f *fakeRepository) SetEquipmentAvailability(ctx context.Context, equipmentID uuid.UUID, availability enums.EquipmentAvailability) (bool, error) {
	if f.setAvailabilityFn != nil {
		return f.setAvailabilityFn(ctx, equipmentID, availability)
	}
	return true, nil
}

func (f *fakeRepository) GetRental(ctx context.Context, rentalID uuid.UUID) (*models.Rental, error) {
	if f.getRentalFn != nil {
		return f.getRentalFn(ctx, rentalID)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepository) ListRentals(ctx context.Context) ([]models.Rental, error) {
	return nil, nil
}

func (f *fakeRepository) SaveRental(ctx context.Context, rental *models.Rental) error {
	return nil
}

func (f *fakeRepository) DeleteRental(ctx context.Context, rentalID uuid.UUID) error {
	return nil
}

func (f *fakeRepository) CreateRental(ctx context.Context, rental *models.Rental) error {
	return nil
}

func (f *fakeRepository) CreateRentalGuarded(ctx context.Context, rental *models.Rental) (bool, error) {
	if f.createRentalGuardedFn != nil {
		return f.createRentalGuardedFn(ctx, rental)
	}
	return true, nil
}

func (f *fakeRepository) ListOpenByEquipment(ctx context.Context, equipmentID uuid.UUID) ([]models.Rental, error) {
	if f.listOpenFn != nil {
		return f.listOpenFn(ctx, equipmentID)
	}
	return nil, nil
}

func (f *fakeRepository) UpdateRentalStatus(ctx context.Context, rentalID uuid.UUID, from, to enums.RentalStatus) (bool, error) {
	if f.updateStatusFn != nil {
		return f.updateStatusFn(ctx, rentalID, from, to)
	}
	return true, nil
}

func (f *fakeRepository) CountNonTerminal(ctx context.Context, equipmentID uuid.UUID, excludeID uuid.UUID) (int64, error) {
	if f.countNonTerminalFn != nil {
		return f.countNonTerminalFn(ctx, equipmentID, excludeID)
	}
	return 0, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newFakeService(t *testing.T, repo Repository) *service {
	t.Helper()
	svc, err := NewService(repo, fakeTxRunner{})
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	impl := svc.(*service)
	impl.retryBackoff = time.Millisecond
	return impl
}

func TestBook_Validation(t *testing.T) {
	svc := newFakeService(t, &fakeRepository{})
	equipmentID := uuid.New()
	start := time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input BookInput
	}{
		{name: "missing account", input: BookInput{EquipmentID: &equipmentID, StartDate: start, EndDate: end}},
		{name: "missing start", input: BookInput{EquipmentID: &equipmentID, AccountID: 1, EndDate: end}},
		{name: "missing end", input: BookInput{EquipmentID: &equipmentID, AccountID: 1, StartDate: start}},
		{name: "end before start", input: BookInput{EquipmentID: &equipmentID, AccountID: 1, StartDate: end, EndDate: start}},
		{name: "bad scope", input: BookInput{EquipmentID: &equipmentID, AccountID: 1, StartDate: start, EndDate: end, Scope: "galactic"}},
		{name: "internal without equipment", input: BookInput{AccountID: 1, StartDate: start, EndDate: end}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Book(context.Background(), tc.input)
			if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestBook_UnknownEquipment(t *testing.T) {
	repo := &fakeRepository{
		lockEquipmentFn: func(ctx context.Context, equipmentID uuid.UUID) (bool, error) {
			return false, nil
		},
	}
	svc := newFakeService(t, repo)
	equipmentID := uuid.New()

	_, err := svc.Book(context.Background(), BookInput{
		EquipmentID: &equipmentID,
		AccountID:   1,
		StartDate:   time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestBook_RetriesExhaustedSurfaceConflict(t *testing.T) {
	attempts := 0
	repo := &fakeRepository{
		createRentalGuardedFn: func(ctx context.Context, rental *models.Rental) (bool, error) {
			attempts++
			return false, errSerialization{}
		},
	}
	svc := newFakeService(t, repo)
	equipmentID := uuid.New()

	_, err := svc.Book(context.Background(), BookInput{
		EquipmentID: &equipmentID,
		AccountID:   1,
		StartDate:   time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC),
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict after exhausted retries, got %v", err)
	}
	if attempts != 4 {
		t.Fatalf("expected 4 attempts, got %d", attempts)
	}
}

type errSerialization struct{}

func (errSerialization) Error() string { return "pq: could not serialize access due to concurrent update" }

func TestBook_LocksEquipmentBeforeGuardedInsert(t *testing.T) {
	var calls []string
	repo := &fakeRepository{
		lockEquipmentFn: func(ctx context.Context, equipmentID uuid.UUID) (bool, error) {
			calls = append(calls, "lock")
			return true, nil
		},
		createRentalGuardedFn: func(ctx context.Context, rental *models.Rental) (bool, error) {
			calls = append(calls, "guard")
			return true, nil
		},
	}
	svc := newFakeService(t, repo)
	equipmentID := uuid.New()

	if _, err := svc.Book(context.Background(), BookInput{
		EquipmentID: &equipmentID,
		AccountID:   1,
		StartDate:   time.Date(2025, time.January, 15, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("booking failed: %v", err)
	}
	if len(calls) != 2 || calls[0] != "lock" || calls[1] != "guard" {
		t.Fatalf("equipment lock must precede the guarded insert, got %v", calls)
	}
}

func TestUpdate_LocksEquipmentBeforeOverlapCheck(t *testing.T) {
	rentalID := uuid.New()
	equipmentID := uuid.New()
	var calls []string
	repo := &fakeRepository{
		getRentalFn: func(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
			return &models.Rental{
				ID:          id,
				Status:      enums.RentalStatusReserved,
				EquipmentID: &equipmentID,
				StartDate:   time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
				EndDate:     time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
			}, nil
		},
		lockEquipmentFn: func(ctx context.Context, id uuid.UUID) (bool, error) {
			calls = append(calls, "lock")
			return true, nil
		},
		listOpenFn: func(ctx context.Context, id uuid.UUID) ([]models.Rental, error) {
			calls = append(calls, "list")
			return nil, nil
		},
	}
	svc := newFakeService(t, repo)

	newEnd := time.Date(2025, time.March, 8, 0, 0, 0, 0, time.UTC)
	if _, err := svc.Update(context.Background(), rentalID, UpdateRentalInput{EndDate: &newEnd}); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if len(calls) != 2 || calls[0] != "lock" || calls[1] != "list" {
		t.Fatalf("equipment lock must precede the overlap check, got %v", calls)
	}
}

func TestTransition_InvalidStatus(t *testing.T) {
	svc := newFakeService(t, &fakeRepository{})

	_, err := svc.Transition(context.Background(), uuid.New(), enums.RentalStatus("Paused"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestTransition_IllegalEdge(t *testing.T) {
	rentalID := uuid.New()
	repo := &fakeRepository{
		getRentalFn: func(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
			return &models.Rental{ID: id, Status: enums.RentalStatusReturned}, nil
		},
	}
	svc := newFakeService(t, repo)

	_, err := svc.Transition(context.Background(), rentalID, enums.RentalStatusActive)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeInvalidTransition {
		t.Fatalf("expected invalid transition, got %v", err)
	}
}

func TestTransition_FreesEquipmentOnlyWhenLastOpenRental(t *testing.T) {
	rentalID := uuid.New()
	equipmentID := uuid.New()
	freed := false
	repo := &fakeRepository{
		getRentalFn: func(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
			return &models.Rental{ID: id, Status: enums.RentalStatusActive, EquipmentID: &equipmentID}, nil
		},
		countNonTerminalFn: func(ctx context.Context, eqID uuid.UUID, excludeID uuid.UUID) (int64, error) {
			return 1, nil
		},
		setAvailabilityFn: func(ctx context.Context, eqID uuid.UUID, availability enums.EquipmentAvailability) (bool, error) {
			freed = true
			return true, nil
		},
	}
	svc := newFakeService(t, repo)

	if _, err := svc.Transition(context.Background(), rentalID, enums.RentalStatusReturned); err != nil {
		t.Fatalf("transition error: %v", err)
	}
	if freed {
		t.Fatal("equipment must stay reserved while another rental is open")
	}
}

func TestTransition_LocksEquipmentBeforeCountingOpenRentals(t *testing.T) {
	rentalID := uuid.New()
	equipmentID := uuid.New()
	var calls []string
	repo := &fakeRepository{
		getRentalFn: func(ctx context.Context, id uuid.UUID) (*models.Rental, error) {
			return &models.Rental{ID: id, Status: enums.RentalStatusActive, EquipmentID: &equipmentID}, nil
		},
		lockEquipmentFn: func(ctx context.Context, id uuid.UUID) (bool, error) {
			calls = append(calls, "lock")
			return true, nil
		},
		countNonTerminalFn: func(ctx context.Context, eqID uuid.UUID, excludeID uuid.UUID) (int64, error) {
			calls = append(calls, "count")
			return 0, nil
		},
	}
	svc := newFakeService(t, repo)

	if _, err := svc.Transition(context.Background(), rentalID, enums.RentalStatusReturned); err != nil {
		t.Fatalf("transition error: %v", err)
	}
	if len(calls) != 2 || calls[0] != "lock" || calls[1] != "count" {
		t.Fatalf("equipment lock must precede the open-rental count, got %v", calls)
	}
}
