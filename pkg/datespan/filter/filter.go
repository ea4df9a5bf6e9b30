// Package filter applies resolved spans to tabular data: boolean masks over
// in-memory timestamps and WHERE clauses over a SQL column.
package filter

import (
	"time"

	"github.com/sambeau/datespan/pkg/datespan/period"
)

// Mask reports, for each timestamp, whether it falls inside any span.
// Boundaries are inclusive.
func Mask(ts []time.Time, spans []period.Value) []bool {
	mask := make([]bool, len(ts))
	for i, t := range ts {
		mask[i] = inAny(t, spans)
	}
	return mask
}

// Select returns the timestamps that fall inside any span, in input order.
func Select(ts []time.Time, spans []period.Value) []time.Time {
	var out []time.Time
	for _, t := range ts {
		if inAny(t, spans) {
			out = append(out, t)
		}
	}
	return out
}

// Count returns the number of timestamps inside any span.
func Count(ts []time.Time, spans []period.Value) int {
	n := 0
	for _, t := range ts {
		if inAny(t, spans) {
			n++
		}
	}
	return n
}

func inAny(t time.Time, spans []period.Value) bool {
	for _, s := range spans {
		if s.Contains(t) {
			return true
		}
	}
	return false
}
