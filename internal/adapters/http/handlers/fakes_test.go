package handlers_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantstream/marketd/internal/domain/market"
	"github.com/quantstream/marketd/internal/ports"
)

// fakeService is a scriptable ports.MarketService. Subscribers are recorded
// per symbol/pool so WebSocket tests can push broadcasts through them.
type fakeService struct {
	mu           sync.Mutex
	series       market.Series
	historyErr   error
	symbols      []string
	strategies   []string
	subscribeErr error
	subs         map[string][]ports.Subscriber
	unsubscribes int
}

func newFakeService() *fakeService {
	return &fakeService{
		symbols:    []string{},
		strategies: []string{},
		subs:       make(map[string][]ports.Subscriber),
	}
}

func poolKey(symbol, pool string) string { return symbol + "/" + pool }

func (f *fakeService) History(_ context.Context, _ string) (market.Series, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.series, nil
}

func (f *fakeService) ActiveSymbols(_ context.Context) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.symbols
}

func (f *fakeService) Subscribe(_ context.Context, symbol, pool string, sub ports.Subscriber) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return f.subscribeErr
	}
	key := poolKey(symbol, pool)
	f.subs[key] = append(f.subs[key], sub)
	return nil
}

func (f *fakeService) Unsubscribe(_ context.Context, symbol, pool string, sub ports.Subscriber) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := poolKey(symbol, pool)
	kept := f.subs[key][:0]
	for _, s := range f.subs[key] {
		if s != sub {
			kept = append(kept, s)
		}
	}
	f.subs[key] = kept
	f.unsubscribes++
}

func (f *fakeService) Strategies(_ context.Context) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.strategies
}

// publish pushes a payload to every subscriber of the symbol's pool and
// returns how many sends succeeded.
func (f *fakeService) publish(symbol, pool string, payload []byte) int {
	f.mu.Lock()
	subs := append([]ports.Subscriber(nil), f.subs[poolKey(symbol, pool)]...)
	f.mu.Unlock()

	delivered := 0
	for _, s := range subs {
		if err := s.Send(payload); err == nil {
			delivered++
		}
	}
	return delivered
}

func (f *fakeService) subscriberCount(symbol, pool string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[poolKey(symbol, pool)])
}

func (f *fakeService) unsubscribeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubscribes
}

// fakeRegistry is a ports.HealthRegistry returning canned check results.
type fakeRegistry struct {
	results map[string]error
}

func (r *fakeRegistry) Register(_ ports.HealthChecker) {}

func (r *fakeRegistry) CheckAll(_ context.Context) map[string]error {
	return r.results
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}
