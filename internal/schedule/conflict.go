package schedule

import "time"

// HasConflict reports whether the proposed [start, end) interval overlaps
// any busy interval. Half-open: a proposal starting exactly when a busy
// period ends (or vice versa) does not conflict.
func HasConflict(busy []Interval, start, end time.Time) bool {
	return overlapsAny(busy, start, end)
}

// IsBeforeLeadTime reports whether a proposed start violates the minimum
// notice requirement. It applies the same now+lead cutoff as
// FindValidStarts so free-form placements (drag and drop bypassing the
// cell grid) are held to the identical rule.
func IsBeforeLeadTime(start time.Time, leadMinutes int, now time.Time) bool {
	return start.Before(now.Add(time.Duration(leadMinutes) * time.Minute))
}
