package handlers

import (
	"net/http"

	"github.com/quantstream/marketd/internal/adapters/http/dto"
	"github.com/quantstream/marketd/internal/ports"
)

// MarketHandler serves the REST market-data endpoints.
type MarketHandler struct {
	service ports.MarketService
}

// NewMarketHandler creates a new MarketHandler with the given service.
func NewMarketHandler(service ports.MarketService) *MarketHandler {
	return &MarketHandler{service: service}
}

// History handles GET /api/v1/history?symbol=. The first request for a
// symbol starts its feed; until the feed has loaded a daily series the
// endpoint answers 503 so clients retry.
func (h *MarketHandler) History(w http.ResponseWriter, r *http.Request) {
	symbol, ok := symbolParam(w, r)
	if !ok {
		return
	}

	series, err := h.service.History(r.Context(), symbol)
	if err != nil {
		dto.WriteErrorResponse(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.FromSeries(series))
}

// Symbols handles GET /api/v1/symbols. It lists the symbols with a running
// feed and the registered analytics strategies.
func (h *MarketHandler) Symbols(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.SymbolsResponse{
		Symbols:    h.service.ActiveSymbols(r.Context()),
		Strategies: h.service.Strategies(r.Context()),
	})
}
