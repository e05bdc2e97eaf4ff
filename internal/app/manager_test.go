package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/quantstream/marketd/internal/domain"
	"github.com/quantstream/marketd/internal/domain/analytics"
	"github.com/quantstream/marketd/internal/domain/market"
	"github.com/quantstream/marketd/internal/platform/config"
)

func testManager(t *testing.T, quotes *fakeQuotes, symbols ...string) *Manager {
	t.Helper()

	strat := &stubStrategy{name: "sma", result: &analytics.Result{Fields: map[string]float64{}}}
	m := NewManager(config.MarketConfig{
		Symbols:        symbols,
		PollInterval:   time.Minute,
		PreloadWorkers: 2,
	}, testDeps(quotes, newFakeStore(), nil, strat))
	t.Cleanup(m.StopAll)
	return m
}

// waitReady polls History until the feed has loaded or the deadline passes.
func waitReady(t *testing.T, m *Manager, symbol string) market.Series {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		series, err := m.History(context.Background(), symbol)
		if err == nil {
			return series
		}
		if !errors.Is(err, domain.ErrNotReady) {
			t.Fatalf("History(%q) error = %v", symbol, err)
		}
		select {
		case <-deadline:
			t.Fatalf("feed %q never became ready", symbol)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestHistory_StartsFeedOnDemand(t *testing.T) {
	t.Parallel()

	quotes := &fakeQuotes{daily: market.Series{dailyBar(prevTradingDay, 100, 100)}}
	m := testManager(t, quotes)

	series := waitReady(t, m, "AAPL")
	if series.Len() != 1 {
		t.Errorf("Series().Len() = %d, want 1", series.Len())
	}

	if got := m.ActiveSymbols(context.Background()); len(got) != 1 || got[0] != "AAPL" {
		t.Errorf("ActiveSymbols() = %v, want [AAPL]", got)
	}
}

func TestHistory_InvalidSymbol(t *testing.T) {
	t.Parallel()

	m := testManager(t, &fakeQuotes{})

	_, err := m.History(context.Background(), "not a symbol!")
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("History() error = %v, want ErrValidation", err)
	}

	if got := m.ActiveSymbols(context.Background()); len(got) != 0 {
		t.Errorf("ActiveSymbols() = %v, want none after invalid symbol", got)
	}
}

func TestPreload_StartsConfiguredSymbols(t *testing.T) {
	t.Parallel()

	quotes := &fakeQuotes{daily: market.Series{dailyBar(prevTradingDay, 100, 100)}}
	m := testManager(t, quotes, "^GSPC", "AAPL")

	m.Preload(context.Background())

	got := m.ActiveSymbols(context.Background())
	want := []string{"AAPL", "^GSPC"}
	if len(got) != len(want) {
		t.Fatalf("ActiveSymbols() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ActiveSymbols()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSubscribe_UnknownStrategyPropagates(t *testing.T) {
	t.Parallel()

	quotes := &fakeQuotes{daily: market.Series{dailyBar(prevTradingDay, 100, 100)}}
	m := testManager(t, quotes)

	err := m.Subscribe(context.Background(), "AAPL", "analytics-bollinger", &testSub{})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Subscribe() error = %v, want ErrNotFound", err)
	}
}

func TestUnsubscribe_UnknownSymbolNoop(t *testing.T) {
	t.Parallel()

	m := testManager(t, &fakeQuotes{})

	// Must not start a feed.
	m.Unsubscribe(context.Background(), "AAPL", "live", &testSub{})
	if got := m.ActiveSymbols(context.Background()); len(got) != 0 {
		t.Errorf("ActiveSymbols() = %v, want none", got)
	}
}

func TestStrategies_SortedNames(t *testing.T) {
	t.Parallel()

	m := testManager(t, &fakeQuotes{})

	got := m.Strategies(context.Background())
	if len(got) != 1 || got[0] != "sma" {
		t.Errorf("Strategies() = %v, want [sma]", got)
	}
}

func TestStopAll_ClearsFeeds(t *testing.T) {
	t.Parallel()

	quotes := &fakeQuotes{daily: market.Series{dailyBar(prevTradingDay, 100, 100)}}
	m := testManager(t, quotes)

	waitReady(t, m, "AAPL")
	m.StopAll()

	if got := m.ActiveSymbols(context.Background()); len(got) != 0 {
		t.Errorf("ActiveSymbols() = %v after StopAll, want none", got)
	}
}

func TestHealthCheck_ReportsNotReadyFeeds(t *testing.T) {
	t.Parallel()

	// Downloads fail and the store is empty: the feed can never load.
	quotes := &fakeQuotes{dailyErr: errors.New("upstream down")}
	m := testManager(t, quotes)

	_, err := m.History(context.Background(), "AAPL")
	if !errors.Is(err, domain.ErrNotReady) {
		t.Fatalf("History() error = %v, want ErrNotReady", err)
	}

	if err := m.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() = nil, want error naming the unready feed")
	}
}

func TestHealthCheck_HealthyWhenReady(t *testing.T) {
	t.Parallel()

	quotes := &fakeQuotes{daily: market.Series{dailyBar(prevTradingDay, 100, 100)}}
	m := testManager(t, quotes)

	waitReady(t, m, "AAPL")

	if err := m.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() = %v, want nil", err)
	}
}
