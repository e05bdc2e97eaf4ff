package market

import (
	"sort"
	"time"
)

// Series is a collection of daily bars ordered by Day ascending with at most
// one bar per trading day. The zero value is an empty, ready-to-use series.
type Series []Bar

// Len returns the number of bars in the series.
func (s Series) Len() int { return len(s) }

// Last returns the most recent bar. ok is false for an empty series.
func (s Series) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

// LastDay returns the most recent trading day in the series, or the zero
// time for an empty series.
func (s Series) LastDay() time.Time {
	if last, ok := s.Last(); ok {
		return last.Day
	}
	return time.Time{}
}

// Upsert replaces the bar for b's day if one exists, otherwise inserts b
// keeping the series sorted. It returns the updated series; callers must use
// the return value, as with append.
func (s Series) Upsert(b Bar) Series {
	b.Day = NormalizeDay(b.Day)

	i := sort.Search(len(s), func(i int) bool {
		return !s[i].Day.Before(b.Day)
	})
	if i < len(s) && SameDay(s[i].Day, b.Day) {
		s[i] = b
		return s
	}

	s = append(s, Bar{})
	copy(s[i+1:], s[i:])
	s[i] = b
	return s
}

// Before returns the sub-series of bars strictly before the given day.
// The result shares backing storage with s.
func (s Series) Before(day time.Time) Series {
	day = NormalizeDay(day)
	i := sort.Search(len(s), func(i int) bool {
		return !s[i].Day.Before(day)
	})
	return s[:i]
}

// Window returns the trailing n bars, or the whole series if it is shorter.
// The result shares backing storage with s.
func (s Series) Window(n int) Series {
	if n >= len(s) {
		return s
	}
	return s[len(s)-n:]
}

// Clone returns a deep copy of the series.
func (s Series) Clone() Series {
	out := make(Series, len(s))
	copy(out, s)
	return out
}

// AdjustmentFactor derives the split/dividend adjustment ratio from the most
// recent daily bar (adjusted close over raw close). It is used to back-adjust
// intraday closes so they are comparable with the daily history. Returns 1
// when the series is empty or the close is zero.
func (s Series) AdjustmentFactor() float64 {
	last, ok := s.Last()
	if !ok || last.Close == 0 {
		return 1
	}
	return last.AdjClose / last.Close
}
