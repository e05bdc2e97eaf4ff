// Package dto defines the wire representations of the HTTP API: bar records
// for history responses and RFC 9457 problem details for errors.
package dto

import (
	"github.com/quantstream/marketd/internal/domain/market"
)

// dateLayout is the wire format for trading days.
const dateLayout = "2006-01-02"

// BarRecord is one daily OHLCV row in a history response.
type BarRecord struct {
	Date     string  `json:"date"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	AdjClose float64 `json:"adj_close"`
	Volume   int64   `json:"volume"`
}

// SymbolsResponse lists the symbols with a running feed and the strategies
// available on the analytics WebSocket endpoint.
type SymbolsResponse struct {
	Symbols    []string `json:"symbols"`
	Strategies []string `json:"strategies"`
}

// FromBar converts a domain bar to its wire representation.
func FromBar(b market.Bar) BarRecord {
	return BarRecord{
		Date:     b.Day.Format(dateLayout),
		Open:     b.Open,
		High:     b.High,
		Low:      b.Low,
		Close:    b.Close,
		AdjClose: b.AdjClose,
		Volume:   b.Volume,
	}
}

// FromSeries converts a domain series to wire bar records. An empty series
// yields an empty, non-nil slice so the response is always a JSON array.
func FromSeries(s market.Series) []BarRecord {
	records := make([]BarRecord, 0, s.Len())
	for _, b := range s {
		records = append(records, FromBar(b))
	}
	return records
}
