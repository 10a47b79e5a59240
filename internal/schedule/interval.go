// Package schedule implements the availability cell grid: building a
// day's fixed-width cells from opening hours and busy intervals, finding
// valid booking starts under lead-time and buffer policy, and checking a
// proposed interval for conflicts. Everything here is pure; the current
// time is always passed in.
package schedule

import "time"

// Interval is a half-open [Start, End) busy period or proposed booking.
// Invariant: Start < End.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether the interval overlaps [start, end). Half-open
// semantics: touching endpoints do not overlap.
func (iv Interval) Overlaps(start, end time.Time) bool {
	return start.Before(iv.End) && end.After(iv.Start)
}

func overlapsAny(busy []Interval, start, end time.Time) bool {
	for _, b := range busy {
		if b.Overlaps(start, end) {
			return true
		}
	}
	return false
}
