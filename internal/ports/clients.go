package ports

import (
	"context"

	"github.com/quantstream/marketd/internal/domain/market"
)

// QuoteClient is the client port for the upstream market-data API.
// Implemented by the chart-API adapter; called by the feed loop.
type QuoteClient interface {
	// DailyHistory returns the full daily series for the symbol.
	// Returns domain.ErrNotFound when the upstream has no data for it.
	DailyHistory(ctx context.Context, symbol string) (market.Series, error)

	// LatestIntraday returns the most recent complete one-minute bar.
	// ok is false when no fresh datapoint is available (market closed,
	// upstream lag); this is not an error.
	LatestIntraday(ctx context.Context, symbol string) (market.Bar, bool, error)
}
