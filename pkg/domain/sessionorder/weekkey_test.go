package sessionorder

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekKeyOf(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want WeekKey
	}{
		{"mid-year monday", date(2026, time.June, 8), WeekKey{2026, 24}},
		{"mid-year sunday same week", date(2026, time.June, 14), WeekKey{2026, 24}},
		{"next monday rolls over", date(2026, time.June, 15), WeekKey{2026, 25}},
		// 2026-01-01 is a Thursday, so the year starts in week 1.
		{"jan 1 2026", date(2026, time.January, 1), WeekKey{2026, 1}},
		// 2024-12-30 is a Monday whose Thursday falls in 2025.
		{"late december belongs to next year", date(2024, time.December, 30), WeekKey{2025, 1}},
		// 2027-01-01 is a Friday; its week's Thursday is 2026-12-31.
		{"early january belongs to previous year", date(2027, time.January, 1), WeekKey{2026, 53}},
		{"jan 3 2027 still previous year", date(2027, time.January, 3), WeekKey{2026, 53}},
		{"jan 4 2027 week 1", date(2027, time.January, 4), WeekKey{2027, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeekKeyOf(tt.in); got != tt.want {
				t.Errorf("WeekKeyOf(%s) = %v, want %v", tt.in.Format("2006-01-02"), got, tt.want)
			}
		})
	}
}

func TestWeekKeyOf_IgnoresTimeOfDay(t *testing.T) {
	morning := time.Date(2026, time.March, 4, 6, 30, 0, 0, time.UTC)
	night := time.Date(2026, time.March, 4, 23, 59, 59, 0, time.UTC)
	if WeekKeyOf(morning) != WeekKeyOf(night) {
		t.Errorf("same day produced different week keys: %v vs %v", WeekKeyOf(morning), WeekKeyOf(night))
	}
}

func TestWeekKey_Before(t *testing.T) {
	a := WeekKey{2025, 52}
	b := WeekKey{2026, 1}
	c := WeekKey{2026, 2}

	if !a.Before(b) || !b.Before(c) {
		t.Error("expected year-then-week ordering")
	}
	if b.Before(a) || b.Before(b) {
		t.Error("Before must be a strict ordering")
	}
}

func TestWeekKey_String(t *testing.T) {
	if got := (WeekKey{2026, 3}).String(); got != "2026-W03" {
		t.Errorf("String() = %q, want %q", got, "2026-W03")
	}
	if got := (WeekKey{2025, 52}).String(); got != "2025-W52" {
		t.Errorf("String() = %q, want %q", got, "2025-W52")
	}
}
