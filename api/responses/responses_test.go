package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/kmarsack/storeyard-backend/pkg/errors"
	"github.com/kmarsack/storeyard-backend/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, "item created", map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}

	var body types.Envelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if !body.Success {
		t.Fatal("expected success=true")
	}
	if body.Message != "item created" {
		t.Fatalf("unexpected message %q", body.Message)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteErrorBusinessOutcomeStaysHTTP200(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock for resource 10").
		WithDetails(map[string]any{"available": 2, "requested": 5})
	WriteError(context.Background(), nil, w, err)

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("business failures must stay 200, got %d", got)
	}

	var body struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    types.ErrorData `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if body.Success {
		t.Fatal("expected success=false")
	}
	if body.Message != "insufficient stock for resource 10" {
		t.Fatalf("unexpected message %q", body.Message)
	}
	if body.Data.Code != string(pkgerrors.CodeInsufficientStock) {
		t.Fatalf("unexpected code %s", body.Data.Code)
	}
	if body.Data.Details == nil {
		t.Fatal("expected details in public payload")
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}

	var body struct {
		Success bool            `json:"success"`
		Message string          `json:"message"`
		Data    types.ErrorData `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if body.Success {
		t.Fatal("expected success=false")
	}
	if body.Data.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %s", body.Data.Code)
	}
	if body.Data.Details != nil {
		t.Fatal("details should be omitted for internal errors")
	}
	if body.Message != "internal server error" {
		t.Fatalf("internal errors must not leak messages, got %q", body.Message)
	}
}

func TestWriteErrorUnavailableUses503(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.Wrap(pkgerrors.CodeUnavailable, errors.New("dial tcp: refused"), "load item")
	WriteError(context.Background(), nil, w, err)

	if got := w.Code; got != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 but got %d", got)
	}
}
