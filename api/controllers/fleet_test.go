package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kmarsack/storeyard-backend/internal/rentals"
	"github.com/kmarsack/storeyard-backend/pkg/db/models"
	"github.com/kmarsack/storeyard-backend/pkg/enums"
	pkgerrors "github.com/kmarsack/storeyard-backend/pkg/errors"
)

type testRentalsService struct {
	createEquipmentFn func(ctx context.Context, input rentals.CreateEquipmentInput) (*models.Equipment, error)
	bookFn            func(ctx context.Context, input rentals.BookInput) (*models.Rental, error)
	transitionFn      func(ctx context.Context, rentalID uuid.UUID, next enums.RentalStatus) (*models.Rental, error)
	updateFn          func(ctx context.Context, rentalID uuid.UUID, input rentals.UpdateRentalInput) (*models.Rental, error)
	deleteFn          func(ctx context.Context, rentalID uuid.UUID) error
}

func (s *testRentalsService) CreateEquipment(ctx context.Context, input rentals.CreateEquipmentInput) (*models.Equipment, error) {
	if s.createEquipmentFn != nil {
		return s.createEquipmentFn(ctx, input)
	}
	return &models.Equipment{Code: input.Code}, nil
}

func (s *testRentalsService) GetEquipment(ctx context.Context, equipmentID uuid.UUID) (*models.Equipment, error) {
	return &models.Equipment{ID: equipmentID}, nil
}

func (s *testRentalsService) ListEquipment(ctx context.Context) ([]models.Equipment, error) {
	return nil, nil
}

func (s *testRentalsService) UpdateEquipment(ctx context.Context, equipmentID uuid.UUID, input rentals.UpdateEquipmentInput) (*models.Equipment, error) {
	return &models.Equipment{ID: equipmentID}, nil
}

func (s *testRentalsService) DeleteEquipment(ctx context.Context, equipmentID uuid.UUID) error {
	return nil
}

func (s *testRentalsService) Book(ctx context.Context, input rentals.BookInput) (*models.Rental, error) {
	if s.bookFn != nil {
		return s.bookFn(ctx, input)
	}
	return &models.Rental{}, nil
}

func (s *testRentalsService) GetRental(ctx context.Context, rentalID uuid.UUID) (*models.Rental, error) {
	return &models.Rental{ID: rentalID}, nil
}

func (s *testRentalsService) ListRentals(ctx context.Context) ([]models.Rental, error) {
	return nil, nil
}

func (s *testRentalsService) Transition(ctx context.Context, rentalID uuid.UUID, next enums.RentalStatus) (*models.Rental, error) {
	if s.transitionFn != nil {
		return s.transitionFn(ctx, rentalID, next)
	}
	return &models.Rental{ID: rentalID, Status: next}, nil
}

func (s *testRentalsService) Update(ctx context.Context, rentalID uuid.UUID, input rentals.UpdateRentalInput) (*models.Rental, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, rentalID, input)
	}
	return &models.Rental{ID: rentalID}, nil
}

func (s *testRentalsService) Delete(ctx context.Context, rentalID uuid.UUID) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, rentalID)
	}
	return nil
}

func TestCreateEquipmentParsesValue(t *testing.T) {
	var captured rentals.CreateEquipmentInput
	svc := &testRentalsService{
		createEquipmentFn: func(ctx context.Context, input rentals.CreateEquipmentInput) (*models.Equipment, error) {
			captured = input
			return &models.Equipment{Code: input.Code}, nil
		},
	}
	body := `{"code":"EX-100","name":"Excavator","value":"45000.00","category":"Heavy","type":"Tracked"}`
	req := httptest.NewRequest(http.MethodPost, "/api/fleet/equipment", strings.NewReader(body))
	resp := httptest.NewRecorder()
	CreateEquipment(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if !captured.Value.Equal(decimal.RequireFromString("45000.00")) {
		t.Fatalf("unexpected value %s", captured.Value)
	}
	if captured.Code != "EX-100" {
		t.Fatalf("unexpected code %s", captured.Code)
	}
}

func TestCreateEquipmentBadValue(t *testing.T) {
	body := `{"code":"EX-100","name":"Excavator","value":"lots","category":"Heavy","type":"Tracked"}`
	req := httptest.NewRequest(http.MethodPost, "/api/fleet/equipment", strings.NewReader(body))
	resp := httptest.NewRecorder()
	CreateEquipment(&testRentalsService{}, testLogger())(resp, req)

	env := decodeEnvelope(t, resp)
	if env.Success {
		t.Fatal("expected validation failure")
	}
	if data := decodeErrorData(t, env); data.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected validation code got %s", data.Code)
	}
}

func TestBookRentalPassesEquipmentID(t *testing.T) {
	equipmentID := uuid.New()
	var captured rentals.BookInput
	svc := &testRentalsService{
		bookFn: func(ctx context.Context, input rentals.BookInput) (*models.Rental, error) {
			captured = input
			return &models.Rental{}, nil
		},
	}
	body := `{"equipmentId":"` + equipmentID.String() + `","accountId":4,"startDate":"2026-02-01T00:00:00Z","endDate":"2026-02-08T00:00:00Z","scope":"Internal"}`
	req := httptest.NewRequest(http.MethodPost, "/api/fleet/rental", strings.NewReader(body))
	resp := httptest.NewRecorder()
	BookRental(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if captured.EquipmentID == nil || *captured.EquipmentID != equipmentID {
		t.Fatalf("unexpected equipment id %v", captured.EquipmentID)
	}
	if captured.AccountID != 4 || captured.Scope != "Internal" {
		t.Fatalf("unexpected input %+v", captured)
	}
}

func TestBookRentalConflictStaysHTTP200(t *testing.T) {
	svc := &testRentalsService{
		bookFn: func(ctx context.Context, input rentals.BookInput) (*models.Rental, error) {
			return nil, pkgerrors.New(pkgerrors.CodeResourceConflict, "equipment already booked for this interval")
		},
	}
	body := `{"equipmentId":"` + uuid.NewString() + `","accountId":4,"startDate":"2026-02-01T00:00:00Z","endDate":"2026-02-08T00:00:00Z"}`
	req := httptest.NewRequest(http.MethodPost, "/api/fleet/rental", strings.NewReader(body))
	resp := httptest.NewRecorder()
	BookRental(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("booking conflict is a business outcome, expected 200 got %d", resp.Code)
	}
	env := decodeEnvelope(t, resp)
	if env.Success {
		t.Fatal("expected failure envelope")
	}
	if data := decodeErrorData(t, env); data.Code != string(pkgerrors.CodeResourceConflict) {
		t.Fatalf("expected conflict got %s", data.Code)
	}
}

func TestUpdateRentalStatusRoutesToTransition(t *testing.T) {
	rentalID := uuid.New()
	var transitioned enums.RentalStatus
	svc := &testRentalsService{
		transitionFn: func(ctx context.Context, id uuid.UUID, next enums.RentalStatus) (*models.Rental, error) {
			if id != rentalID {
				t.Fatalf("unexpected rental id %s", id)
			}
			transitioned = next
			return &models.Rental{ID: id, Status: next}, nil
		},
		updateFn: func(ctx context.Context, id uuid.UUID, input rentals.UpdateRentalInput) (*models.Rental, error) {
			t.Fatal("field update should not run for a status change")
			return nil, nil
		},
	}
	req := httptest.NewRequest(http.MethodPatch, "/api/fleet/rental/"+rentalID.String(), strings.NewReader(`{"status":"Active"}`))
	req = addRouteParam(req, "id", rentalID.String())
	resp := httptest.NewRecorder()
	UpdateRental(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if transitioned != enums.RentalStatusActive {
		t.Fatalf("expected Active transition got %s", transitioned)
	}
}

func TestUpdateRentalRejectsStatusMixedWithFields(t *testing.T) {
	rentalID := uuid.New()
	body := `{"status":"Active","notes":"also change this"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/fleet/rental/"+rentalID.String(), strings.NewReader(body))
	req = addRouteParam(req, "id", rentalID.String())
	resp := httptest.NewRecorder()
	UpdateRental(&testRentalsService{}, testLogger())(resp, req)

	env := decodeEnvelope(t, resp)
	if env.Success {
		t.Fatal("expected validation failure")
	}
	if data := decodeErrorData(t, env); data.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected validation code got %s", data.Code)
	}
}

func TestUpdateRentalUnknownStatus(t *testing.T) {
	rentalID := uuid.New()
	req := httptest.NewRequest(http.MethodPatch, "/api/fleet/rental/"+rentalID.String(), strings.NewReader(`{"status":"Paused"}`))
	req = addRouteParam(req, "id", rentalID.String())
	resp := httptest.NewRecorder()
	UpdateRental(&testRentalsService{}, testLogger())(resp, req)

	env := decodeEnvelope(t, resp)
	if env.Success {
		t.Fatal("expected validation failure")
	}
	if data := decodeErrorData(t, env); data.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("expected validation code got %s", data.Code)
	}
}

func TestUpdateRentalFieldsRoutesToUpdate(t *testing.T) {
	rentalID := uuid.New()
	var captured rentals.UpdateRentalInput
	svc := &testRentalsService{
		updateFn: func(ctx context.Context, id uuid.UUID, input rentals.UpdateRentalInput) (*models.Rental, error) {
			captured = input
			return &models.Rental{ID: id}, nil
		},
	}
	req := httptest.NewRequest(http.MethodPatch, "/api/fleet/rental/"+rentalID.String(), strings.NewReader(`{"notes":"returned early"}`))
	req = addRouteParam(req, "id", rentalID.String())
	resp := httptest.NewRecorder()
	UpdateRental(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	if captured.Notes == nil || *captured.Notes != "returned early" {
		t.Fatalf("unexpected notes %v", captured.Notes)
	}
}

func TestDeleteRentalOpenRentalStaysHTTP200(t *testing.T) {
	rentalID := uuid.New()
	svc := &testRentalsService{
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			return pkgerrors.New(pkgerrors.CodeResourceConflict, "only terminal rentals can be deleted")
		},
	}
	req := httptest.NewRequest(http.MethodDelete, "/api/fleet/rental/"+rentalID.String(), nil)
	req = addRouteParam(req, "id", rentalID.String())
	resp := httptest.NewRecorder()
	DeleteRental(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
	env := decodeEnvelope(t, resp)
	if data := decodeErrorData(t, env); data.Code != string(pkgerrors.CodeResourceConflict) {
		t.Fatalf("expected resource conflict got %s", data.Code)
	}
}
