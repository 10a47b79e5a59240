// Package calendar supplies busy intervals for an employee's day from an
// external calendar, and creates events for confirmed bookings. The rest
// of the system only sees the BusySource interface.
package calendar

import (
	"context"
	"errors"
	"time"

	"github.com/walid-afk/salon-scheduler/internal/schedule"
	"github.com/walid-afk/salon-scheduler/internal/timegrid"
)

// ErrSourceUnavailable means the calendar backend cannot be reached or
// refuses our credentials. Callers surface a "reconnect calendar" prompt
// rather than "fully booked".
var ErrSourceUnavailable = errors.New("calendar: source unavailable")

// ErrTimeout means the calendar call exceeded its bound. Distinct from
// ErrSourceUnavailable so callers can offer a retry instead.
var ErrTimeout = errors.New("calendar: timeout")

// BusySource fetches the busy intervals blocking an employee on a given
// day. Implementations must expand all-day events to the full opening
// window: an all-day entry conventionally means the employee is
// unavailable for the whole day, not just midnight to midnight.
type BusySource interface {
	FetchBusyIntervals(ctx context.Context, employeeID string, day time.Time, opening timegrid.OpeningSpec) ([]schedule.Interval, error)
}

// EventWriter creates a calendar event for a confirmed booking.
type EventWriter interface {
	CreateEvent(ctx context.Context, employeeID string, start, end time.Time, summary, description string) (string, error)
}
