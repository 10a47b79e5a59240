package calendar

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/walid-afk/salon-scheduler/internal/schedule"
	"github.com/walid-afk/salon-scheduler/internal/timegrid"
	"github.com/walid-afk/salon-scheduler/pkg/logging"
)

const defaultFetchTimeout = 10 * time.Second

// GoogleSource reads busy intervals from Google Calendar. Each employee
// maps to one calendar ID.
type GoogleSource struct {
	svc     *gcal.Service
	loc     *time.Location
	timeout time.Duration
	logger  *logging.Logger
}

// NewGoogleSource builds a source from Google API client options
// (credentials, or a test endpoint + http client).
func NewGoogleSource(ctx context.Context, loc *time.Location, logger *logging.Logger, opts ...option.ClientOption) (*GoogleSource, error) {
	if logger == nil {
		logger = logging.Default()
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	return &GoogleSource{
		svc:     svc,
		loc:     loc,
		timeout: defaultFetchTimeout,
		logger:  logger,
	}, nil
}

// WithTimeout overrides the per-fetch deadline.
func (g *GoogleSource) WithTimeout(d time.Duration) *GoogleSource {
	if d > 0 {
		g.timeout = d
	}
	return g
}

// FetchBusyIntervals lists the employee's events for the opening window
// of day. Cancelled events are skipped; all-day events become one
// interval spanning the entire opening window.
func (g *GoogleSource) FetchBusyIntervals(ctx context.Context, employeeID string, day time.Time, opening timegrid.OpeningSpec) ([]schedule.Interval, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	openAt := opening.OpenAt(day, g.loc)
	closeAt := opening.CloseAt(day, g.loc)

	call := g.svc.Events.List(employeeID).
		TimeMin(openAt.Format(time.RFC3339)).
		TimeMax(closeAt.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx)

	res, err := call.Do()
	if err != nil {
		return nil, classify(err)
	}

	var busy []schedule.Interval
	for _, ev := range res.Items {
		if ev.Status == "cancelled" {
			continue
		}
		iv, ok := eventInterval(ev, openAt, closeAt)
		if !ok {
			g.logger.Warn("skipping calendar event with unreadable times",
				"employee_id", employeeID, "event_id", ev.Id)
			continue
		}
		busy = append(busy, iv)
	}
	return busy, nil
}

// CreateEvent inserts a booking event on the employee's calendar and
// returns the created event ID.
func (g *GoogleSource) CreateEvent(ctx context.Context, employeeID string, start, end time.Time, summary, description string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	ev := &gcal.Event{
		Summary:     summary,
		Description: description,
		Start:       &gcal.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}
	created, err := g.svc.Events.Insert(employeeID, ev).Context(ctx).Do()
	if err != nil {
		return "", classify(err)
	}
	return created.Id, nil
}

// eventInterval converts a calendar event into a busy interval. All-day
// events (date, no time component) occupy the whole opening window.
func eventInterval(ev *gcal.Event, openAt, closeAt time.Time) (schedule.Interval, bool) {
	if ev.Start == nil || ev.End == nil {
		return schedule.Interval{}, false
	}
	if ev.Start.DateTime == "" && ev.Start.Date != "" {
		return schedule.Interval{Start: openAt, End: closeAt}, true
	}

	start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
	if err != nil {
		return schedule.Interval{}, false
	}
	end, err := time.Parse(time.RFC3339, ev.End.DateTime)
	if err != nil {
		return schedule.Interval{}, false
	}
	if !start.Before(end) {
		return schedule.Interval{}, false
	}
	return schedule.Interval{Start: start, End: end}, true
}

// classify maps transport errors onto the package's error taxonomy.
func classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: calendar API status %d", ErrSourceUnavailable, apiErr.Code)
	}
	return fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
}
