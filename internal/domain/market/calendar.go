package market

import (
	"sync"
	"time"
)

// Regular NYSE session hours (US/Eastern). Early closes are not modeled;
// a half day counts as a full trading day and the session simply ends early
// on the exchange side.
const (
	sessionOpenHour    = 9
	sessionOpenMinute  = 30
	sessionCloseHour   = 16
	sessionCloseMinute = 0
)

var (
	easternOnce sync.Once
	eastern     *time.Location
)

// Eastern returns the US/Eastern location. Falls back to a fixed UTC-5 zone
// if the tz database is unavailable.
func Eastern() *time.Location {
	easternOnce.Do(func() {
		loc, err := time.LoadLocation("America/New_York")
		if err != nil {
			loc = time.FixedZone("EST", -5*60*60)
		}
		eastern = loc
	})
	return eastern
}

// IsTradingDay reports whether the given date is a regular NYSE trading day:
// a weekday that is not an exchange holiday.
func IsTradingDay(t time.Time) bool {
	d := NormalizeDay(t)
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	return !isHoliday(d)
}

// NextTradingDay returns the first trading day strictly after t.
func NextTradingDay(t time.Time) time.Time {
	d := NormalizeDay(t)
	for {
		d = d.AddDate(0, 0, 1)
		if IsTradingDay(d) {
			return d
		}
	}
}

// IsConsecutiveTradingDays reports whether b is the trading day immediately
// following a. A false result means trading days between a and b were missed.
func IsConsecutiveTradingDays(a, b time.Time) bool {
	return SameDay(NextTradingDay(a), b)
}

// IsOpen reports whether the regular session is in progress at the given
// instant: a trading day between 09:30 and 16:00 US/Eastern, inclusive of
// the open and exclusive of the close.
func IsOpen(now time.Time) bool {
	et := now.In(Eastern())
	if !IsTradingDay(et) {
		return false
	}

	open := time.Date(et.Year(), et.Month(), et.Day(), sessionOpenHour, sessionOpenMinute, 0, 0, Eastern())
	close := time.Date(et.Year(), et.Month(), et.Day(), sessionCloseHour, sessionCloseMinute, 0, 0, Eastern())
	return !et.Before(open) && et.Before(close)
}

// isHoliday reports whether the date (already normalized) is an NYSE full-day
// holiday under the current rule set.
func isHoliday(d time.Time) bool {
	y, m, day := d.Date()

	// Fixed-date holidays shift to Friday when they fall on Saturday and to
	// Monday when they fall on Sunday.
	if observedEquals(d, y, time.January, 1) { // New Year's Day
		return true
	}
	if y >= 2022 && observedEquals(d, y, time.June, 19) { // Juneteenth
		return true
	}
	if observedEquals(d, y, time.July, 4) { // Independence Day
		return true
	}
	if observedEquals(d, y, time.December, 25) { // Christmas Day
		return true
	}

	switch {
	case m == time.January && d.Weekday() == time.Monday && weekOfMonth(day) == 3:
		return true // Martin Luther King Jr. Day
	case m == time.February && d.Weekday() == time.Monday && weekOfMonth(day) == 3:
		return true // Washington's Birthday
	case m == time.May && d.Weekday() == time.Monday && day+7 > 31:
		return true // Memorial Day (last Monday)
	case m == time.September && d.Weekday() == time.Monday && weekOfMonth(day) == 1:
		return true // Labor Day
	case m == time.November && d.Weekday() == time.Thursday && weekOfMonth(day) == 4:
		return true // Thanksgiving Day
	}

	return SameDay(d, goodFriday(y))
}

// observedEquals reports whether d is the observed date of the fixed holiday
// year/month/day (Saturday observed the Friday before, Sunday the Monday after).
func observedEquals(d time.Time, year int, month time.Month, day int) bool {
	h := time.Date(year, month, day, 0, 0, 0, 0, Eastern())
	switch h.Weekday() {
	case time.Saturday:
		h = h.AddDate(0, 0, -1)
	case time.Sunday:
		h = h.AddDate(0, 0, 1)
	}
	return SameDay(d, h)
}

// weekOfMonth returns the ordinal of the weekday occurrence for the given
// day of month (1-7 -> 1st, 8-14 -> 2nd, ...).
func weekOfMonth(day int) int {
	return (day-1)/7 + 1
}

// goodFriday returns Good Friday for the given year: two days before Easter
// Sunday, computed with the anonymous Gregorian computus.
func goodFriday(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1

	easter := time.Date(year, time.Month(month), day, 0, 0, 0, 0, Eastern())
	return easter.AddDate(0, 0, -2)
}
