package yahoo

import (
	"time"

	"github.com/quantstream/marketd/internal/domain/market"
)

// toDailySeries translates a chart result with 1d interval into a domain
// series. Rows with a null close (no trading) are skipped; a missing
// adjusted close falls back to the raw close. Timestamps are normalized to
// Eastern midnight so each bar keys one trading day.
func toDailySeries(r *resultDTO) market.Series {
	bars := toBars(r, func(t time.Time) time.Time {
		return market.NormalizeDay(t)
	})
	return market.Series(bars)
}

// toIntradayBars translates a chart result with 1m interval into bars keyed
// by their minute timestamp in Eastern time. The adjusted close is left equal
// to the raw close; back-adjustment against the daily series is the feed's
// concern.
func toIntradayBars(r *resultDTO) []market.Bar {
	return toBars(r, func(t time.Time) time.Time { return t })
}

func toBars(r *resultDTO, key func(time.Time) time.Time) []market.Bar {
	if r == nil || len(r.Indicators.Quote) == 0 {
		return nil
	}
	quote := r.Indicators.Quote[0]

	var adj []*float64
	if len(r.Indicators.AdjClose) > 0 {
		adj = r.Indicators.AdjClose[0].AdjClose
	}

	bars := make([]market.Bar, 0, len(r.Timestamp))
	for i, ts := range r.Timestamp {
		closePrice := at(quote.Close, i)
		if closePrice == nil {
			continue
		}

		bar := market.Bar{
			Day:      key(time.Unix(ts, 0).In(market.Eastern())),
			Close:    *closePrice,
			AdjClose: *closePrice,
		}
		if v := at(quote.Open, i); v != nil {
			bar.Open = *v
		}
		if v := at(quote.High, i); v != nil {
			bar.High = *v
		}
		if v := at(quote.Low, i); v != nil {
			bar.Low = *v
		}
		if v := at(quote.Volume, i); v != nil {
			bar.Volume = *v
		}
		if v := at(adj, i); v != nil {
			bar.AdjClose = *v
		}
		bars = append(bars, bar)
	}
	return bars
}

// at safely indexes a parallel array that may be shorter than Timestamp.
func at[T any](values []*T, i int) *T {
	if i >= len(values) {
		return nil
	}
	return values[i]
}
