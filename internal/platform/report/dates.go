package report

import "time"

// Date-window helpers. Each function derives from its immutable argument;
// nothing here shares or mutates a clock value, so start-of-day and
// start-of-week computed from the same instant are always independent.

// StartOfDay returns midnight of t's date in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns midnight of the Sunday beginning t's week.
func StartOfWeek(t time.Time) time.Time {
	return StartOfDay(t.AddDate(0, 0, -int(t.Weekday())))
}

// MonthWindow returns the half-open interval [first of t's month, first of
// the next month).
func MonthWindow(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return start, start.AddDate(0, 1, 0)
}

// TrendWindowStart returns the first day of the month `months-1` months
// before t, so a 6-month trend covers the current month and the five
// before it.
func TrendWindowStart(t time.Time, months int) time.Time {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first.AddDate(0, -(months - 1), 0)
}
