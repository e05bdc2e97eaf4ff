package app

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/quantstream/marketd/internal/app/fanout"
	"github.com/quantstream/marketd/internal/domain"
	"github.com/quantstream/marketd/internal/domain/market"
	"github.com/quantstream/marketd/internal/platform/config"
	"github.com/quantstream/marketd/internal/ports"
)

// Compile-time check that Manager implements ports.MarketService.
var _ ports.MarketService = (*Manager)(nil)

// Manager owns the running feeds. Configured symbols are preloaded at
// startup; any other valid symbol gets a feed created on the first request
// that names it. Feeds run until StopAll.
type Manager struct {
	cfg    config.MarketConfig
	deps   FeedDeps
	logger *slog.Logger

	mu    sync.RWMutex
	feeds map[string]*Feed
}

// NewManager creates a Manager. Feeds are not started until Preload or the
// first request for a symbol.
func NewManager(cfg config.MarketConfig, deps FeedDeps) *Manager {
	return &Manager{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger,
		feeds:  make(map[string]*Feed),
	}
}

// Preload starts feeds for all configured symbols, bounded by the configured
// worker count so startup does not hammer the upstream API. Failures are
// logged per symbol; the remaining feeds still start.
func (m *Manager) Preload(ctx context.Context) {
	symbols := m.cfg.Symbols
	if len(symbols) == 0 {
		return
	}

	workers := m.cfg.PreloadWorkers
	if workers < 1 {
		workers = 1
	}

	m.logger.InfoContext(ctx, "preloading symbol feeds",
		slog.Int("symbols", len(symbols)),
		slog.Int("workers", workers),
	)

	results := fanout.Run(ctx, workers, symbols, func(ctx context.Context, symbol string) (struct{}, error) {
		_, err := m.feed(ctx, symbol)
		return struct{}{}, err
	})

	for i, r := range results {
		if r.Err != nil {
			m.logger.ErrorContext(ctx, "preloading symbol feed",
				slog.String("symbol", symbols[i]),
				slog.Any("error", r.Err),
			)
		}
	}
}

// History returns the full daily series for the symbol, starting its feed on
// first use. A feed that has not finished loading yields domain.ErrNotReady.
func (m *Manager) History(ctx context.Context, symbol string) (market.Series, error) {
	f, err := m.feed(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if !f.Ready() {
		return nil, fmt.Errorf("%s: %w", symbol, domain.ErrNotReady)
	}
	return f.Series(), nil
}

// ActiveSymbols returns the symbols with a running feed, sorted.
func (m *Manager) ActiveSymbols(_ context.Context) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	symbols := make([]string, 0, len(m.feeds))
	for symbol := range m.feeds {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// Subscribe registers sub on the named pool of the symbol's feed, starting
// the feed on first use.
func (m *Manager) Subscribe(ctx context.Context, symbol, pool string, sub ports.Subscriber) error {
	f, err := m.feed(ctx, symbol)
	if err != nil {
		return err
	}
	return f.Subscribe(pool, sub)
}

// Unsubscribe removes sub from the named pool. Symbols without a feed are
// ignored; unsubscribing never starts one.
func (m *Manager) Unsubscribe(_ context.Context, symbol, pool string, sub ports.Subscriber) {
	m.mu.RLock()
	f, ok := m.feeds[symbol]
	m.mu.RUnlock()
	if ok {
		f.Unsubscribe(pool, sub)
	}
}

// Strategies returns the registered analytics strategy names, sorted.
func (m *Manager) Strategies(_ context.Context) []string {
	return m.deps.Strategies.Names()
}

// StopAll stops every running feed and blocks until their loops have exited.
func (m *Manager) StopAll() {
	m.mu.Lock()
	feeds := m.feeds
	m.feeds = make(map[string]*Feed)
	m.mu.Unlock()

	for _, f := range feeds {
		f.Stop()
	}
	m.logger.Info("all feeds stopped", slog.Int("count", len(feeds)))
}

// Name identifies the manager in readiness reports.
func (m *Manager) Name() string { return "market-feeds" }

// HealthCheck reports readiness: an error names the feeds that have no data
// loaded yet. A manager with no running feeds is healthy.
func (m *Manager) HealthCheck(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var notReady []string
	for symbol, f := range m.feeds {
		if !f.Ready() {
			notReady = append(notReady, symbol)
		}
	}
	if len(notReady) > 0 {
		sort.Strings(notReady)
		return fmt.Errorf("feeds not ready: %s", strings.Join(notReady, ", "))
	}
	return nil
}

// feed returns the running feed for the symbol, creating and starting one on
// first use. The feed's lifetime is detached from the request context that
// created it; feeds stop via StopAll.
func (m *Manager) feed(ctx context.Context, symbol string) (*Feed, error) {
	if err := market.ValidateSymbol(symbol); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if f, ok := m.feeds[symbol]; ok {
		return f, nil
	}

	f := NewFeed(symbol, m.cfg.PollInterval, m.deps)
	f.Start(context.WithoutCancel(ctx))
	m.feeds[symbol] = f

	m.logger.InfoContext(ctx, "feed created", slog.String("symbol", symbol))
	return f, nil
}
