// Package period implements Value, an inclusive [Start, End] time interval
// with calendar-aware truncation and shifting.
//
// All arithmetic is naive: values keep whatever Location they were created
// with and no conversion ever happens. Weeks start on Monday. The last
// instant of a unit is one microsecond before the start of the next unit.
package period

import (
	"fmt"
	"time"
)

// Resolution is the smallest step between two distinct boundaries.
const Resolution = time.Microsecond

// Layout is the display layout for boundaries.
const Layout = "2006-01-02T15:04:05.000000"

// Unit is a calendar unit, ordered finest to coarsest.
type Unit int

const (
	Millisecond Unit = iota
	Second
	Minute
	Hour
	Day
	Week
	Month
	Quarter
	Year
)

var unitNames = [...]string{
	Millisecond: "millisecond",
	Second:      "second",
	Minute:      "minute",
	Hour:        "hour",
	Day:         "day",
	Week:        "week",
	Month:       "month",
	Quarter:     "quarter",
	Year:        "year",
}

// String returns the canonical singular unit name.
func (u Unit) String() string {
	if u < Millisecond || u > Year {
		return fmt.Sprintf("unit(%d)", int(u))
	}
	return unitNames[u]
}

// Valid reports whether u is one of the defined units.
func (u Unit) Valid() bool {
	return u >= Millisecond && u <= Year
}

// ParseUnit looks up a canonical unit name.
func ParseUnit(name string) (Unit, bool) {
	for u, n := range unitNames {
		if n == name {
			return Unit(u), true
		}
	}
	return 0, false
}

// Units returns every unit, finest first.
func Units() []Unit {
	return []Unit{Millisecond, Second, Minute, Hour, Day, Week, Month, Quarter, Year}
}

// Value is an inclusive time interval. Start never follows End.
type Value struct {
	Start time.Time
	End   time.Time
}

// New returns the interval between start and end, swapping them if reversed.
func New(start, end time.Time) Value {
	if end.Before(start) {
		start, end = end, start
	}
	return Value{Start: start, End: end}
}

// At returns the point interval [t, t].
func At(t time.Time) Value {
	return Value{Start: t, End: t}
}

// TruncateTo widens the value to whole units: Start moves to the first
// instant of its unit and End to the last instant of its unit.
func (v Value) TruncateTo(u Unit) Value {
	return New(Floor(v.Start, u), Ceil(v.End, u))
}

// Shift moves both boundaries by n units.
func (v Value) Shift(u Unit, n int) Value {
	return New(Add(v.Start, u, n), Add(v.End, u, n))
}

// ShiftStart moves only Start by n units.
func (v Value) ShiftStart(u Unit, n int) Value {
	return New(Add(v.Start, u, n), v.End)
}

// ShiftEnd moves only End by n units.
func (v Value) ShiftEnd(u Unit, n int) Value {
	return New(v.Start, Add(v.End, u, n))
}

// Contains reports whether t lies within the interval, boundaries included.
func (v Value) Contains(t time.Time) bool {
	return !t.Before(v.Start) && !t.After(v.End)
}

// Overlaps reports whether the two intervals share at least one instant.
func (v Value) Overlaps(o Value) bool {
	return !o.End.Before(v.Start) && !o.Start.After(v.End)
}

// Duration returns End - Start.
func (v Value) Duration() time.Duration {
	return v.End.Sub(v.Start)
}

// IsPoint reports whether Start and End are the same instant.
func (v Value) IsPoint() bool {
	return v.Start.Equal(v.End)
}

// Equal reports whether both boundaries are the same instants.
func (v Value) Equal(o Value) bool {
	return v.Start.Equal(o.Start) && v.End.Equal(o.End)
}

// String renders the value as "(start, end)".
func (v Value) String() string {
	return fmt.Sprintf("(%s, %s)", v.Start.Format(Layout), v.End.Format(Layout))
}

// Floor returns the first instant of the unit containing t.
func Floor(t time.Time, u Unit) time.Time {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	loc := t.Location()

	switch u {
	case Millisecond:
		ms := t.Nanosecond() / int(time.Millisecond) * int(time.Millisecond)
		return time.Date(y, mo, d, h, mi, s, ms, loc)
	case Second:
		return time.Date(y, mo, d, h, mi, s, 0, loc)
	case Minute:
		return time.Date(y, mo, d, h, mi, 0, 0, loc)
	case Hour:
		return time.Date(y, mo, d, h, 0, 0, 0, loc)
	case Day:
		return time.Date(y, mo, d, 0, 0, 0, 0, loc)
	case Week:
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, mo, d-offset, 0, 0, 0, 0, loc)
	case Month:
		return time.Date(y, mo, 1, 0, 0, 0, 0, loc)
	case Quarter:
		first := time.Month((int(mo)-1)/3*3 + 1)
		return time.Date(y, first, 1, 0, 0, 0, 0, loc)
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	}
	return t
}

// Ceil returns the last instant of the unit containing t.
func Ceil(t time.Time, u Unit) time.Time {
	return Add(Floor(t, u), u, 1).Add(-Resolution)
}

// Add moves t by n units. Month, quarter and year steps use calendar-month
// arithmetic and clamp the day to the target month's length. A t that is
// the last instant of its month maps to the last instant of the target month.
func Add(t time.Time, u Unit, n int) time.Time {
	switch u {
	case Millisecond:
		return t.Add(time.Duration(n) * time.Millisecond)
	case Second:
		return t.Add(time.Duration(n) * time.Second)
	case Minute:
		return t.Add(time.Duration(n) * time.Minute)
	case Hour:
		return t.Add(time.Duration(n) * time.Hour)
	case Day:
		return t.AddDate(0, 0, n)
	case Week:
		return t.AddDate(0, 0, 7*n)
	case Month:
		return addMonths(t, n)
	case Quarter:
		return addMonths(t, 3*n)
	case Year:
		return addMonths(t, 12*n)
	}
	return t
}

// addMonths adds n calendar months to t with end-of-month clamping.
func addMonths(t time.Time, n int) time.Time {
	if n == 0 {
		return t
	}
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	loc := t.Location()

	if isMonthEnd(t) {
		first := time.Date(y, mo+time.Month(n), 1, 0, 0, 0, 0, loc)
		return first.AddDate(0, 1, 0).Add(-Resolution)
	}

	target := time.Date(y, mo+time.Month(n), 1, 0, 0, 0, 0, loc)
	if last := DaysIn(target.Year(), target.Month()); d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, h, mi, s, t.Nanosecond(), loc)
}

// isMonthEnd reports whether t is the last instant of its month.
func isMonthEnd(t time.Time) bool {
	y, mo, _ := t.Date()
	next := time.Date(y, mo+1, 1, 0, 0, 0, 0, t.Location())
	return t.Equal(next.Add(-Resolution))
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
