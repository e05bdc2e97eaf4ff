package dto_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/quantstream/marketd/internal/adapters/http/dto"
	"github.com/quantstream/marketd/internal/domain"
)

func TestNewErrorResponse_StatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "validation", err: fmt.Errorf("bad symbol: %w", domain.ErrValidation), wantStatus: http.StatusBadRequest},
		{name: "not found", err: fmt.Errorf("bollinger: %w", domain.ErrNotFound), wantStatus: http.StatusNotFound},
		{name: "not ready", err: fmt.Errorf("^GSPC: %w", domain.ErrNotReady), wantStatus: http.StatusServiceUnavailable},
		{name: "unavailable", err: fmt.Errorf("quote-api: %w", domain.ErrUnavailable), wantStatus: http.StatusBadGateway},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := httptest.NewRequest(http.MethodGet, "/api/v1/history?symbol=%5EGSPC", nil)
			resp := dto.NewErrorResponse(r, tt.err)

			if resp.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", resp.Status, tt.wantStatus)
			}
			if resp.Title != http.StatusText(tt.wantStatus) {
				t.Errorf("Title = %q, want %q", resp.Title, http.StatusText(tt.wantStatus))
			}
			if resp.Detail != tt.err.Error() {
				t.Errorf("Detail = %q, want %q", resp.Detail, tt.err.Error())
			}
			if resp.Instance == "" {
				t.Error("Instance is empty, want request URI")
			}
		})
	}
}

func TestNewErrorResponse_ValidationFields(t *testing.T) {
	t.Parallel()

	err := &domain.ValidationError{Fields: map[string]string{
		"symbol": "must match the symbol pattern",
		"pool":   "unknown pool",
	}}

	r := httptest.NewRequest(http.MethodGet, "/api/v1/history", nil)
	resp := dto.NewErrorResponse(r, err)

	if resp.Status != http.StatusBadRequest {
		t.Errorf("Status = %d, want %d", resp.Status, http.StatusBadRequest)
	}
	if len(resp.Errors) != 2 {
		t.Fatalf("len(Errors) = %d, want 2", len(resp.Errors))
	}
	// Details are sorted by location.
	if resp.Errors[0].Location != "pool" || resp.Errors[1].Location != "symbol" {
		t.Errorf("Errors locations = %q, %q, want pool, symbol",
			resp.Errors[0].Location, resp.Errors[1].Location)
	}
}

func TestWriteErrorResponse(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/api/v1/history?symbol=NOPE", nil)
	w := httptest.NewRecorder()

	dto.WriteErrorResponse(w, r, fmt.Errorf("NOPE: %w", domain.ErrNotFound))

	if w.Code != http.StatusNotFound {
		t.Errorf("code = %d, want %d", w.Code, http.StatusNotFound)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("Content-Type = %q, want problem+json", ct)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshaling body: %v", err)
	}
	if resp.Status != http.StatusNotFound {
		t.Errorf("body status = %d, want 404", resp.Status)
	}
}
