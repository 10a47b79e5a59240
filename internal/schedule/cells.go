package schedule

import (
	"time"

	"github.com/walid-afk/salon-scheduler/internal/timegrid"
)

// Cell is a fixed-duration slice of a day's opening window. Cells are
// contiguous, ordered by Index from 0, and request-scoped: they are
// rebuilt for every availability query and never persisted.
type Cell struct {
	Index int       `json:"index"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Busy  bool      `json:"busy"`
}

// BuildCells slices the opening window of day (its date taken in loc)
// into stepMinutes-wide cells and marks each one busy when it overlaps
// any busy interval. A cell partially covered by a busy interval is
// marked fully busy. If the window length is not a multiple of the step,
// the trailing partial period is dropped rather than emitted as a short
// cell, so the last few minutes of the day are never offered.
func BuildCells(day time.Time, opening timegrid.OpeningSpec, stepMinutes int, busy []Interval, loc *time.Location) []Cell {
	if stepMinutes <= 0 {
		return nil
	}

	openAt := opening.OpenAt(day, loc)
	closeAt := opening.CloseAt(day, loc)
	step := time.Duration(stepMinutes) * time.Minute

	var cells []Cell
	for start := openAt; ; start = start.Add(step) {
		end := start.Add(step)
		if end.After(closeAt) {
			break
		}
		cells = append(cells, Cell{
			Index: len(cells),
			Start: start,
			End:   end,
			Busy:  overlapsAny(busy, start, end),
		})
	}
	return cells
}
