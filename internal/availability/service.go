// Package availability is the slot engine's front door: it runs the
// cell-grid pipeline for one employee, fans out across all employees for
// "no preference" queries, and applies the salon's timing policy.
package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/walid-afk/salon-scheduler/internal/calendar"
	"github.com/walid-afk/salon-scheduler/internal/observability/metrics"
	"github.com/walid-afk/salon-scheduler/internal/schedule"
	"github.com/walid-afk/salon-scheduler/internal/timegrid"
	"github.com/walid-afk/salon-scheduler/pkg/logging"
)

var tracer = otel.Tracer("salon.internal.availability")

// DefaultStepMinutes is the booking start granularity used when the
// policy does not override it.
const DefaultStepMinutes = 15

// Policy bundles the timing parameters of an availability query.
type Policy struct {
	// Opening is the day's opening hours as "HH:MM-HH:MM".
	Opening string
	// StepMinutes is the cell width; zero means DefaultStepMinutes.
	StepMinutes int
	// LeadMinutes is the minimum notice before a bookable start.
	LeadMinutes int
	// BufferMinutes is idle time required after a booking; default 0.
	BufferMinutes int
}

type resolvedPolicy struct {
	opening timegrid.OpeningSpec
	step    int
	lead    int
	buffer  int
}

func (p Policy) resolve() (resolvedPolicy, error) {
	opening, err := timegrid.ParseOpening(p.Opening)
	if err != nil {
		return resolvedPolicy{}, err
	}
	step := p.StepMinutes
	if step == 0 {
		step = DefaultStepMinutes
	}
	if step < 0 {
		return resolvedPolicy{}, fmt.Errorf("%w: step %d must be positive", timegrid.ErrInvalidFormat, step)
	}
	if p.LeadMinutes < 0 {
		return resolvedPolicy{}, fmt.Errorf("%w: lead time %d must not be negative", timegrid.ErrInvalidFormat, p.LeadMinutes)
	}
	if p.BufferMinutes < 0 {
		return resolvedPolicy{}, fmt.Errorf("%w: buffer %d must not be negative", timegrid.ErrInvalidFormat, p.BufferMinutes)
	}
	return resolvedPolicy{opening: opening, step: step, lead: p.LeadMinutes, buffer: p.BufferMinutes}, nil
}

// DayAvailability is the single-employee query result.
type DayAvailability struct {
	EmployeeID  string              `json:"employeeId"`
	Cells       []schedule.Cell     `json:"cells"`
	ValidStarts []time.Time         `json:"validStarts"`
	// StartIndices are the cell indices behind ValidStarts.
	StartIndices []int                  `json:"startIndices"`
	CellsNeeded  int                    `json:"cellsNeeded"`
	Diagnostics  schedule.Diagnostics   `json:"diagnostics"`
	Reason       schedule.NoSlotsReason `json:"reason,omitempty"`
}

// SlotOption is one offer in the aggregated "no preference" view.
// EmployeeID records which employee actually provides the time, because
// the eventual booking must target one concrete calendar.
type SlotOption struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	DisplayTime string    `json:"displayTime"`
	EmployeeID  string    `json:"employeeId"`
}

// AnyAvailability is the aggregated query result. Failures holds
// per-employee fetch errors; they never fail the aggregate and callers
// only see them by inspecting this map.
type AnyAvailability struct {
	Slots    []SlotOption     `json:"slots"`
	Failures map[string]error `json:"-"`
}

// Config wires a Service. Now is injectable so lead-time behavior is
// deterministic under test.
type Config struct {
	Source   calendar.BusySource
	Location *time.Location
	Metrics  *metrics.AvailabilityMetrics
	Logger   *logging.Logger
	Now      func() time.Time
}

// Service computes bookable start times. It holds no mutable state;
// every query is pure given its inputs and the injected clock.
type Service struct {
	source  calendar.BusySource
	loc     *time.Location
	metrics *metrics.AvailabilityMetrics
	logger  *logging.Logger
	now     func() time.Time
}

// NewService builds an availability service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Source == nil {
		return nil, errors.New("availability: busy source required")
	}
	if cfg.Location == nil {
		return nil, errors.New("availability: location required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		source:  cfg.Source,
		loc:     cfg.Location,
		metrics: cfg.Metrics,
		logger:  logger,
		now:     now,
	}, nil
}

// GetAvailableSlots runs the full pipeline for one employee. Collaborator
// failures (calendar.ErrSourceUnavailable, calendar.ErrTimeout) propagate
// unchanged so the caller can prompt reconnection or retry; an empty
// result is a normal outcome carrying diagnostics.
func (s *Service) GetAvailableSlots(ctx context.Context, employeeID string, day time.Time, durationMinutes int, policy Policy) (*DayAvailability, error) {
	ctx, span := tracer.Start(ctx, "availability.single")
	defer span.End()
	span.SetAttributes(
		attribute.String("salon.employee_id", employeeID),
		attribute.String("salon.day", day.In(s.loc).Format("2006-01-02")),
		attribute.Int("salon.duration_minutes", durationMinutes),
	)
	started := time.Now()

	if durationMinutes <= 0 {
		s.metrics.ObserveQuery("single", "invalid", time.Since(started), 0)
		return nil, fmt.Errorf("%w: duration %d must be positive", timegrid.ErrInvalidFormat, durationMinutes)
	}
	pol, err := policy.resolve()
	if err != nil {
		s.metrics.ObserveQuery("single", "invalid", time.Since(started), 0)
		return nil, err
	}

	busy, err := s.source.FetchBusyIntervals(ctx, employeeID, day, pol.opening)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveFetchError(errorKind(err))
		s.metrics.ObserveQuery("single", "error", time.Since(started), 0)
		return nil, err
	}

	result, err := s.compute(employeeID, day, durationMinutes, pol, busy)
	if err != nil {
		s.metrics.ObserveQuery("single", "invalid", time.Since(started), 0)
		return nil, err
	}

	s.metrics.ObserveQuery("single", "ok", time.Since(started), len(result.ValidStarts))
	s.logger.Debug("availability computed",
		"employee_id", employeeID,
		"valid_starts", len(result.ValidStarts),
		"reason", string(result.Reason),
	)
	return result, nil
}

// compute is the pure part: grid, valid starts, diagnostics.
func (s *Service) compute(employeeID string, day time.Time, durationMinutes int, pol resolvedPolicy, busy []schedule.Interval) (*DayAvailability, error) {
	cells := schedule.BuildCells(day, pol.opening, pol.step, busy, s.loc)
	set, err := schedule.FindValidStarts(cells, durationMinutes, pol.step, pol.lead, pol.buffer, s.now())
	if err != nil {
		return nil, err
	}

	result := &DayAvailability{
		EmployeeID:   employeeID,
		Cells:        cells,
		StartIndices: set.ValidIndices,
		CellsNeeded:  set.CellsNeeded,
		Diagnostics:  set.Diagnostics,
	}
	for _, idx := range set.ValidIndices {
		result.ValidStarts = append(result.ValidStarts, cells[idx].Start)
	}
	if len(result.ValidStarts) == 0 {
		result.Reason = set.Diagnostics.Reason()
	}
	return result, nil
}

// ValidateDrop re-checks a free-form placement (drag and drop bypasses
// the cell grid) against busy intervals and the lead-time rule.
func (s *Service) ValidateDrop(busy []schedule.Interval, start, end time.Time, leadMinutes int) (bool, string) {
	if !start.Before(end) {
		return false, "start must be before end"
	}
	if schedule.IsBeforeLeadTime(start, leadMinutes, s.now()) {
		return false, "start is inside the minimum notice window"
	}
	if schedule.HasConflict(busy, start, end) {
		return false, "requested time conflicts with an existing appointment"
	}
	return true, ""
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, calendar.ErrTimeout):
		return "timeout"
	case errors.Is(err, calendar.ErrSourceUnavailable):
		return "unavailable"
	default:
		return "other"
	}
}
