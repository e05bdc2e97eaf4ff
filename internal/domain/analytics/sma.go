package analytics

import (
	"fmt"

	"github.com/quantstream/marketd/internal/domain/market"
)

// DefaultSMAWindow is the classic long-term trend window in trading days.
const DefaultSMAWindow = 200

// SMA is the simple-moving-average strategy with a threshold band. It
// compares the latest adjusted close against the rolling mean of the
// trailing window and signals when the price crosses out of the band
// sma*(1±threshold) relative to the previous bar's position.
//
// Crossing detection is derived entirely from the series, so the strategy is
// stateless and safe to share across feeds.
type SMA struct {
	window       int
	thresholdPct float64
}

// NewSMA creates an SMA strategy. window must be >= 1; thresholdPct is the
// band half-width as a fraction (0.02 = 2%).
func NewSMA(window int, thresholdPct float64) *SMA {
	if window < 1 {
		window = DefaultSMAWindow
	}
	return &SMA{window: window, thresholdPct: thresholdPct}
}

// Name returns "sma".
func (s *SMA) Name() string { return "sma" }

// Evaluate computes the SMA over the trailing window of adjusted closes.
// Returns a nil Result when the series holds fewer bars than the window.
func (s *SMA) Evaluate(series market.Series) (*Result, *Signal, error) {
	if series.Len() < s.window {
		return nil, nil, nil
	}

	last, _ := series.Last()
	sma := mean(series.Window(s.window))

	res := &Result{
		AsOf: last.Day,
		Fields: map[string]float64{
			"price":        last.AdjClose,
			"sma":          sma,
			"window":       float64(s.window),
			"distance_pct": distancePct(last.AdjClose, sma),
		},
	}

	sig := s.crossing(series)
	return res, sig, nil
}

// crossing detects a band exit on the latest bar: the previous bar was at or
// inside the band (or on the other side) and the latest bar is outside it.
func (s *SMA) crossing(series market.Series) *Signal {
	if series.Len() < s.window+1 {
		return nil
	}

	last, _ := series.Last()
	prev := series[series.Len()-2]

	// SMA as of the previous bar, over the same window length.
	prevSMA := mean(series[:series.Len()-1].Window(s.window))
	curSMA := mean(series.Window(s.window))

	prevPos := bandPosition(prev.AdjClose, prevSMA, s.thresholdPct)
	curPos := bandPosition(last.AdjClose, curSMA, s.thresholdPct)

	if curPos == prevPos || curPos == 0 {
		return nil
	}

	label := "below"
	direction := "under"
	if curPos > 0 {
		label = "above"
		direction = "over"
	}
	return &Signal{
		Label: label,
		Message: fmt.Sprintf("price %.2f crossed %s the %d-day SMA %.2f (threshold %.1f%%)",
			last.AdjClose, direction, s.window, curSMA, s.thresholdPct*100),
	}
}

// bandPosition classifies a price against the threshold band around the SMA:
// +1 above, -1 below, 0 inside.
func bandPosition(price, sma, thresholdPct float64) int {
	switch {
	case price > sma*(1+thresholdPct):
		return 1
	case price < sma*(1-thresholdPct):
		return -1
	default:
		return 0
	}
}

func mean(bars market.Series) float64 {
	if len(bars) == 0 {
		return 0
	}
	var sum float64
	for _, b := range bars {
		sum += b.AdjClose
	}
	return sum / float64(len(bars))
}

func distancePct(price, sma float64) float64 {
	if sma == 0 {
		return 0
	}
	return (price - sma) / sma * 100
}

// Compile-time interface check.
var _ Strategy = (*SMA)(nil)
