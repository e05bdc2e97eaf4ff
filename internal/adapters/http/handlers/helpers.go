// Package handlers contains the HTTP and WebSocket handlers for the
// market-data API.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/quantstream/marketd/internal/adapters/http/dto"
	"github.com/quantstream/marketd/internal/domain"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.Any("error", err))
	}
}

// symbolParam extracts the required symbol query parameter. On a missing
// parameter it writes a 400 validation error and returns false.
func symbolParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		dto.WriteErrorResponse(w, r, &domain.ValidationError{
			Fields: map[string]string{"symbol": "query parameter is required"},
		})
		return "", false
	}
	return symbol, true
}
