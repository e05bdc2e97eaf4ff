// Package market holds the core market-data model: OHLCV bars, date-ordered
// series, symbol handling, and the US equity trading calendar. All
// market-time decisions (trading days, session hours) are made in US/Eastern.
package market

import "time"

// Bar is one trading day's OHLCV row. During the live session the current
// day's bar is repeatedly replaced by the latest intraday datapoint.
// Day is normalized to midnight in US/Eastern.
type Bar struct {
	Day      time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   int64
}

// NormalizeDay truncates t to midnight on its calendar day in US/Eastern.
func NormalizeDay(t time.Time) time.Time {
	et := t.In(Eastern())
	return time.Date(et.Year(), et.Month(), et.Day(), 0, 0, 0, 0, Eastern())
}

// SameDay reports whether a and b fall on the same US/Eastern calendar day.
func SameDay(a, b time.Time) bool {
	ae, be := a.In(Eastern()), b.In(Eastern())
	ay, am, ad := ae.Date()
	by, bm, bd := be.Date()
	return ay == by && am == bm && ad == bd
}
