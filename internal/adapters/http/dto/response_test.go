package dto_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/quantstream/marketd/internal/adapters/http/dto"
	"github.com/quantstream/marketd/internal/domain/market"
)

func TestFromSeries(t *testing.T) {
	t.Parallel()

	series := market.Series{
		{
			Day:      time.Date(2026, time.January, 6, 0, 0, 0, 0, market.Eastern()),
			Open:     99.5,
			High:     101,
			Low:      98,
			Close:    100,
			AdjClose: 90,
			Volume:   12345,
		},
	}

	records := dto.FromSeries(series)
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}

	got := records[0]
	if got.Date != "2026-01-06" {
		t.Errorf("Date = %q, want 2026-01-06", got.Date)
	}
	if got.Close != 100 || got.AdjClose != 90 || got.Volume != 12345 {
		t.Errorf("record = %+v", got)
	}
}

func TestFromSeries_EmptyIsJSONArray(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(dto.FromSeries(nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != "[]" {
		t.Errorf("empty series marshals to %s, want []", raw)
	}
}

func TestBarRecord_WireKeys(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(dto.FromBar(market.Bar{
		Day: time.Date(2026, time.January, 6, 0, 0, 0, 0, market.Eastern()),
	}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"date", "open", "high", "low", "close", "adj_close", "volume"} {
		if _, ok := m[key]; !ok {
			t.Errorf("missing wire key %q", key)
		}
	}
}
