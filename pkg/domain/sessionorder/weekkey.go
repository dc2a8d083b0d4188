package sessionorder

import (
	"fmt"
	"time"
)

// WeekKey identifies the ISO-8601 calendar week containing a date.
// Late-December dates can belong to week 1 of the following year and
// early-January dates to week 52/53 of the previous one, so Year here is
// the ISO week-year, not the calendar year.
//
// Kept as a structured tuple so ordering never depends on string
// formatting.
type WeekKey struct {
	Year int
	Week int
}

// WeekKeyOf returns the ISO week of t. The time-of-day and zone of t are
// irrelevant; only the calendar date matters.
func WeekKeyOf(t time.Time) WeekKey {
	year, week := t.ISOWeek()
	return WeekKey{Year: year, Week: week}
}

// Before reports whether k is an earlier week than other.
func (k WeekKey) Before(other WeekKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Week < other.Week
}

// String formats the key as "<year>-W<2-digit-week>", e.g. "2026-W03".
func (k WeekKey) String() string {
	return fmt.Sprintf("%04d-W%02d", k.Year, k.Week)
}
