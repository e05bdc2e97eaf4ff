package ports

import (
	"context"

	"github.com/quantstream/marketd/internal/domain/market"
)

// BarStore is the persistence port for per-symbol daily series.
// Implemented by the CSV storage adapter.
type BarStore interface {
	// Load reads the persisted series for the symbol. A missing file is
	// not an error: it returns (nil, nil).
	Load(ctx context.Context, symbol string) (market.Series, error)

	// Save persists the series, replacing any previous state atomically.
	Save(ctx context.Context, symbol string, s market.Series) error

	// Archive moves the symbol's current file to the stale archive with a
	// timestamped name. Archiving a symbol with no file is a no-op.
	Archive(ctx context.Context, symbol string) error
}
