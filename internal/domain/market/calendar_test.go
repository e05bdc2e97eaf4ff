package market_test

import (
	"testing"
	"time"

	"github.com/quantstream/marketd/internal/domain/market"
)

func TestIsTradingDay_Weekend(t *testing.T) {
	t.Parallel()

	if market.IsTradingDay(day(2026, time.March, 7)) { // Saturday
		t.Error("Saturday reported as trading day")
	}
	if market.IsTradingDay(day(2026, time.March, 8)) { // Sunday
		t.Error("Sunday reported as trading day")
	}
	if !market.IsTradingDay(day(2026, time.March, 9)) { // Monday
		t.Error("regular Monday not a trading day")
	}
}

func TestIsTradingDay_Holidays(t *testing.T) {
	t.Parallel()

	holidays := []time.Time{
		day(2026, time.January, 1),   // New Year's Day
		day(2026, time.January, 19),  // MLK Day (3rd Monday)
		day(2026, time.February, 16), // Washington's Birthday
		day(2026, time.April, 3),     // Good Friday
		day(2026, time.May, 25),      // Memorial Day (last Monday)
		day(2026, time.June, 19),     // Juneteenth
		day(2026, time.July, 3),      // Independence Day observed (Jul 4 is Saturday)
		day(2026, time.September, 7), // Labor Day
		day(2026, time.November, 26), // Thanksgiving
		day(2026, time.December, 25), // Christmas
	}
	for _, h := range holidays {
		if market.IsTradingDay(h) {
			t.Errorf("%s reported as trading day", h.Format("2006-01-02"))
		}
	}

	if market.IsTradingDay(day(2025, time.April, 18)) { // Good Friday 2025
		t.Error("Good Friday 2025 reported as trading day")
	}
}

func TestIsTradingDay_RegularDays(t *testing.T) {
	t.Parallel()

	regular := []time.Time{
		day(2026, time.March, 10),
		day(2026, time.July, 6), // Monday after observed July 4th
		day(2026, time.November, 27),
	}
	for _, d := range regular {
		if !market.IsTradingDay(d) {
			t.Errorf("%s not reported as trading day", d.Format("2006-01-02"))
		}
	}
}

func TestNextTradingDay_SkipsWeekendAndHoliday(t *testing.T) {
	t.Parallel()

	// Thursday April 2 2026 -> Good Friday + weekend -> Monday April 6.
	next := market.NextTradingDay(day(2026, time.April, 2))
	if !market.SameDay(next, day(2026, time.April, 6)) {
		t.Errorf("NextTradingDay = %v, want April 6", next)
	}
}

func TestIsConsecutiveTradingDays(t *testing.T) {
	t.Parallel()

	if !market.IsConsecutiveTradingDays(day(2026, time.March, 6), day(2026, time.March, 9)) {
		t.Error("Friday -> Monday should be consecutive trading days")
	}
	if market.IsConsecutiveTradingDays(day(2026, time.March, 6), day(2026, time.March, 10)) {
		t.Error("Friday -> Tuesday skips Monday; not consecutive")
	}
}

func TestIsOpen(t *testing.T) {
	t.Parallel()

	et := market.Eastern()
	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"before open", time.Date(2026, time.March, 10, 9, 29, 0, 0, et), false},
		{"at open", time.Date(2026, time.March, 10, 9, 30, 0, 0, et), true},
		{"midday", time.Date(2026, time.March, 10, 12, 0, 0, 0, et), true},
		{"at close", time.Date(2026, time.March, 10, 16, 0, 0, 0, et), false},
		{"weekend", time.Date(2026, time.March, 7, 12, 0, 0, 0, et), false},
		{"holiday", time.Date(2026, time.December, 25, 12, 0, 0, 0, et), false},
	}

	for _, tc := range cases {
		if got := market.IsOpen(tc.at); got != tc.want {
			t.Errorf("%s: IsOpen(%v) = %v, want %v", tc.name, tc.at, got, tc.want)
		}
	}
}
