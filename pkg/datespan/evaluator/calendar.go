package evaluator

import (
	"time"

	"github.com/sambeau/datespan/pkg/datespan/period"
)

// Calendar helpers. Each takes the anchor instant explicitly; none reads the
// clock.

// thisPeriod returns the full unit containing now.
func thisPeriod(now time.Time, u period.Unit) period.Value {
	return period.At(now).TruncateTo(u)
}

// rolling returns a window ending at now and starting n units earlier,
// aligned to the start of the current day (or of the unit, below a day).
// Weeks are the exception: n full weeks ending with last week.
func rolling(now time.Time, n int, u period.Unit) period.Value {
	if u == period.Week {
		return previous(now, n, u)
	}
	floor := period.Day
	if u < period.Day {
		floor = u
	}
	return period.New(period.Floor(now, floor), now).ShiftStart(u, -n)
}

// previous returns n consecutive full units ending just before the current one.
func previous(now time.Time, n int, u period.Unit) period.Value {
	return thisPeriod(now, u).Shift(u, -1).ShiftStart(u, -(n - 1))
}

// future returns n consecutive full units starting just after the current one.
func future(now time.Time, n int, u period.Unit) period.Value {
	return thisPeriod(now, u).Shift(u, 1).ShiftEnd(u, n-1)
}

// nthWeekday returns the full day of the n-th wd within the unit containing
// now, and false when the unit has fewer than n of them.
func nthWeekday(now time.Time, n int, wd time.Weekday, u period.Unit) (period.Value, bool) {
	if n <= 0 {
		return period.Value{}, false
	}
	p := thisPeriod(now, u)
	first := period.Floor(p.Start, period.Day)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	day := first.AddDate(0, 0, offset+7*(n-1))
	if day.After(p.End) {
		return period.Value{}, false
	}
	return fullDay(day), true
}

// lastWeekday returns the full day of the last wd within the unit containing now.
func lastWeekday(now time.Time, wd time.Weekday, u period.Unit) period.Value {
	p := thisPeriod(now, u)
	last := period.Floor(p.End, period.Day)
	offset := (int(last.Weekday()) - int(wd) + 7) % 7
	return fullDay(last.AddDate(0, 0, -offset))
}

// weekdayOccurrence returns the full day of wd relative to now: the most
// recent one strictly before today (dir < 0), the first one strictly after
// today (dir > 0), or the one in the current week (dir == 0).
func weekdayOccurrence(now time.Time, wd time.Weekday, dir int) period.Value {
	today := period.Floor(now, period.Day)
	switch {
	case dir < 0:
		back := (int(today.Weekday()) - int(wd) + 7) % 7
		if back == 0 {
			back = 7
		}
		return fullDay(today.AddDate(0, 0, -back))
	case dir > 0:
		ahead := (int(wd) - int(today.Weekday()) + 7) % 7
		if ahead == 0 {
			ahead = 7
		}
		return fullDay(today.AddDate(0, 0, ahead))
	}
	monday := period.Floor(now, period.Week)
	return fullDay(monday.AddDate(0, 0, (int(wd)+6)%7))
}

// nextOrCurrent returns today if it is a wd, otherwise the next wd.
func nextOrCurrent(now time.Time, wd time.Weekday) period.Value {
	today := period.Floor(now, period.Day)
	ahead := (int(wd) - int(today.Weekday()) + 7) % 7
	return fullDay(today.AddDate(0, 0, ahead))
}

// isNthWeekdayOfMonth reports whether day is the n-th occurrence of its
// weekday in its month. n == -1 asks for the last occurrence.
func isNthWeekdayOfMonth(day time.Time, n int) bool {
	if n == -1 {
		return day.AddDate(0, 0, 7).Month() != day.Month()
	}
	return (day.Day()-1)/7+1 == n
}

func fullDay(t time.Time) period.Value {
	return period.At(t).TruncateTo(period.Day)
}

func fullMonth(year int, month time.Month, loc *time.Location) period.Value {
	return period.At(time.Date(year, month, 1, 0, 0, 0, 0, loc)).TruncateTo(period.Month)
}
