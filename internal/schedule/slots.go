package schedule

import (
	"fmt"
	"time"

	"github.com/walid-afk/salon-scheduler/internal/timegrid"
)

// NoSlotsReason classifies why a day produced zero valid starts. It is
// advisory: an empty result is a normal outcome, not an error.
type NoSlotsReason string

const (
	// ReasonNone means the result was not empty.
	ReasonNone NoSlotsReason = ""
	// ReasonNoCells means the opening window produced no cells at all.
	ReasonNoCells NoSlotsReason = "no_cells"
	// ReasonDurationExceedsWindow means the service cannot fit in the
	// opening window even on an empty day.
	ReasonDurationExceedsWindow NoSlotsReason = "duration_exceeds_window"
	// ReasonDayBlocked means every cell of the day is busy, e.g. an
	// all-day calendar block.
	ReasonDayBlocked NoSlotsReason = "day_blocked"
	// ReasonLeadTime means every candidate start fell inside the
	// minimum-notice window.
	ReasonLeadTime NoSlotsReason = "lead_time"
	// ReasonBuffer means every otherwise-bookable start was rejected by
	// the post-booking buffer requirement.
	ReasonBuffer NoSlotsReason = "buffer"
	// ReasonConflicts means existing bookings conflict with every
	// remaining candidate.
	ReasonConflicts NoSlotsReason = "conflicts"
)

// Diagnostics records why candidate starts were rejected, so the caller
// can explain an empty result instead of just saying "fully booked".
type Diagnostics struct {
	Candidates            int  `json:"candidates"`
	RejectedLead          int  `json:"rejectedLead"`
	RejectedBusy          int  `json:"rejectedBusy"`
	RejectedBuffer        int  `json:"rejectedBuffer"`
	RejectedTruncated     int  `json:"rejectedTruncated"`
	AllCellsBusy          bool `json:"allCellsBusy"`
	DurationExceedsWindow bool `json:"durationExceedsWindow"`
}

// Reason returns the dominant explanation for an empty result. A buffer
// rejection outranks plain conflicts because it is the one constraint
// whose relaxation would have yielded slots; lead time only wins when it
// filtered every candidate outright.
func (d Diagnostics) Reason() NoSlotsReason {
	switch {
	case d.Candidates == 0:
		return ReasonNoCells
	case d.DurationExceedsWindow:
		return ReasonDurationExceedsWindow
	case d.AllCellsBusy:
		return ReasonDayBlocked
	case d.RejectedLead == d.Candidates:
		return ReasonLeadTime
	case d.RejectedBuffer > 0:
		return ReasonBuffer
	default:
		return ReasonConflicts
	}
}

// ValidStartSet is the result of FindValidStarts.
type ValidStartSet struct {
	// ValidIndices holds cell indices where a booking may start,
	// ascending, uncapped.
	ValidIndices []int `json:"validIndices"`
	// CellsNeeded is the whole-cell span the booking occupies. A
	// duration that does not fill its last cell still claims it.
	CellsNeeded int `json:"cellsNeeded"`
	// CellsNeededWithBuffer additionally counts the trailing free cells
	// required (but not claimed) after the booking.
	CellsNeededWithBuffer int `json:"cellsNeededWithBuffer"`

	Diagnostics Diagnostics `json:"diagnostics"`
}

// FindValidStarts computes which cell indices can start a booking of
// totalMinutes. A start is valid when the booking's whole-cell span fits
// before closing, every spanned cell is free and contiguous, the start
// is not before now+leadMinutes, and any buffer cells after the span
// exist and are free. Buffer cells gate availability but are not claimed
// by the booking.
func FindValidStarts(cells []Cell, totalMinutes, stepMinutes, leadMinutes, bufferMinutes int, now time.Time) (ValidStartSet, error) {
	if totalMinutes <= 0 {
		return ValidStartSet{}, fmt.Errorf("%w: duration %d must be positive", timegrid.ErrInvalidFormat, totalMinutes)
	}
	if stepMinutes <= 0 {
		return ValidStartSet{}, fmt.Errorf("%w: step %d must be positive", timegrid.ErrInvalidFormat, stepMinutes)
	}
	if leadMinutes < 0 {
		return ValidStartSet{}, fmt.Errorf("%w: lead time %d must not be negative", timegrid.ErrInvalidFormat, leadMinutes)
	}
	if bufferMinutes < 0 {
		return ValidStartSet{}, fmt.Errorf("%w: buffer %d must not be negative", timegrid.ErrInvalidFormat, bufferMinutes)
	}

	cellsNeeded := ceilDiv(totalMinutes, stepMinutes)
	bufferCells := 0
	if bufferMinutes > 0 {
		bufferCells = ceilDiv(bufferMinutes, stepMinutes)
	}

	out := ValidStartSet{
		CellsNeeded:           cellsNeeded,
		CellsNeededWithBuffer: cellsNeeded + bufferCells,
	}
	out.Diagnostics.Candidates = len(cells)
	out.Diagnostics.DurationExceedsWindow = cellsNeeded > len(cells)
	out.Diagnostics.AllCellsBusy = allBusy(cells)

	leadCutoff := now.Add(time.Duration(leadMinutes) * time.Minute)

	for i := range cells {
		if cells[i].Start.Before(leadCutoff) {
			out.Diagnostics.RejectedLead++
			continue
		}
		if i+cellsNeeded > len(cells) {
			out.Diagnostics.RejectedTruncated++
			continue
		}
		if !spanFree(cells, i, cellsNeeded) {
			out.Diagnostics.RejectedBusy++
			continue
		}
		if bufferCells > 0 {
			if i+cellsNeeded+bufferCells > len(cells) ||
				!cells[i+cellsNeeded-1].End.Equal(cells[i+cellsNeeded].Start) ||
				!spanFree(cells, i+cellsNeeded, bufferCells) {
				out.Diagnostics.RejectedBuffer++
				continue
			}
		}
		out.ValidIndices = append(out.ValidIndices, i)
	}

	return out, nil
}

// spanFree reports whether n cells starting at i are all free and
// contiguous. The contiguity check guards against any future grid change
// that could introduce gaps.
func spanFree(cells []Cell, i, n int) bool {
	for k := i; k < i+n; k++ {
		if cells[k].Busy {
			return false
		}
		if k > i && !cells[k-1].End.Equal(cells[k].Start) {
			return false
		}
	}
	return true
}

func allBusy(cells []Cell) bool {
	if len(cells) == 0 {
		return false
	}
	for _, c := range cells {
		if !c.Busy {
			return false
		}
	}
	return true
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
