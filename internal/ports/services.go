package ports

import (
	"context"

	"github.com/quantstream/marketd/internal/domain/market"
)

// LivePool is the broadcast pool carrying raw intraday updates.
const LivePool = "live"

// AnalyticsPoolPrefix prefixes per-strategy broadcast pools
// ("analytics-sma" carries SMA results).
const AnalyticsPoolPrefix = "analytics-"

// Subscriber receives broadcast payloads for a pool. Implemented by the
// WebSocket adapter; a failed Send drops the subscriber from its pool.
type Subscriber interface {
	// Send delivers one payload. An error marks the subscriber dead.
	Send(payload []byte) error
}

// MarketService is the service port for market data operations.
// Implemented by the application layer's feed manager.
type MarketService interface {
	// History returns the full daily series for the symbol, starting the
	// feed on first use. Returns domain.ErrValidation for a malformed
	// symbol and domain.ErrNotReady while the feed has no data yet.
	History(ctx context.Context, symbol string) (market.Series, error)

	// ActiveSymbols returns the symbols with a running feed, sorted.
	ActiveSymbols(ctx context.Context) []string

	// Subscribe registers sub on the named pool of the symbol's feed,
	// starting the feed on first use. Pool is LivePool or an
	// AnalyticsPoolPrefix pool whose strategy must be registered;
	// an unknown strategy returns domain.ErrNotFound.
	Subscribe(ctx context.Context, symbol, pool string, sub Subscriber) error

	// Unsubscribe removes sub from the named pool. Unknown symbols or
	// pools are ignored.
	Unsubscribe(ctx context.Context, symbol, pool string, sub Subscriber)

	// Strategies returns the registered analytics strategy names, sorted.
	Strategies(ctx context.Context) []string
}
