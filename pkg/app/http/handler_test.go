package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/chainsafe/custody-ledger/pkg/app/errors"
)

func TestHandleError_ServiceError(t *testing.T) {
	h := HandleError(func(w http.ResponseWriter, r *http.Request) error {
		return apperrors.InsufficientLiquidityError(nil, "insufficient liquidity")
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodPost, "/withdraw", nil))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["success"] != false {
		t.Fatalf("expected success=false, got %v", body["success"])
	}
	if body["kind"] != "InsufficientLiquidity" {
		t.Fatalf("expected kind InsufficientLiquidity, got %v", body["kind"])
	}
	if body["error"] != "insufficient liquidity" {
		t.Fatalf("unexpected error message %v", body["error"])
	}
}

func TestHandleError_UnknownError(t *testing.T) {
	h := HandleError(func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("db exploded")
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/balance", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["kind"] != "Internal" {
		t.Fatalf("expected kind Internal, got %v", body["kind"])
	}
	if body["error"] == "db exploded" {
		t.Fatal("internal error details must not leak")
	}
}

func TestHandleError_NoError(t *testing.T) {
	h := HandleError(func(w http.ResponseWriter, r *http.Request) error {
		w.WriteHeader(http.StatusNoContent)
		return nil
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
}

func TestWriteJSON_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteJSON(rec, http.StatusAccepted, map[string]string{"id": "w1"}); err != nil {
		t.Fatalf("WriteJSON() failed: %v", err)
	}

	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var body struct {
		Success bool              `json:"success"`
		Data    map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success || body.Data["id"] != "w1" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}
