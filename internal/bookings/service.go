// Package bookings turns a validated draft into a persisted appointment:
// it is the last gate before anything is written, re-checking conflicts
// against a fresh busy fetch even though the slot was already offered by
// the availability engine.
package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/walid-afk/salon-scheduler/internal/calendar"
	"github.com/walid-afk/salon-scheduler/internal/notify"
	"github.com/walid-afk/salon-scheduler/internal/observability/metrics"
	"github.com/walid-afk/salon-scheduler/internal/schedule"
	"github.com/walid-afk/salon-scheduler/internal/timegrid"
	"github.com/walid-afk/salon-scheduler/pkg/logging"
)

var bookingsTracer = otel.Tracer("salon.internal.bookings")

// ErrConflict means the requested time overlaps an existing appointment.
var ErrConflict = errors.New("bookings: time conflicts with an existing appointment")

// ErrTooSoon means the requested start violates the minimum notice rule.
var ErrTooSoon = errors.New("bookings: start is inside the minimum notice window")

// Draft is a booking request assembled by the UI layer from the cart and
// a chosen start time.
type Draft struct {
	EmployeeID    string    `json:"employeeId"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Services      []string  `json:"services"`
	CustomerName  string    `json:"customerName"`
	CustomerEmail string    `json:"customerEmail"`
}

// Config wires a booking service.
type Config struct {
	Repo      *Repository
	Source    calendar.BusySource
	Events    calendar.EventWriter
	Email     notify.EmailSender
	Metrics   *metrics.AvailabilityMetrics
	Logger    *logging.Logger
	Location  *time.Location
	SalonName string
	Now       func() time.Time
}

// Service books appointments.
type Service struct {
	repo      *Repository
	source    calendar.BusySource
	events    calendar.EventWriter
	email     notify.EmailSender
	metrics   *metrics.AvailabilityMetrics
	logger    *logging.Logger
	loc       *time.Location
	salonName string
	now       func() time.Time
}

// NewService constructs a booking service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Repo == nil {
		return nil, errors.New("bookings: repository required")
	}
	if cfg.Source == nil {
		return nil, errors.New("bookings: busy source required")
	}
	if cfg.Events == nil {
		return nil, errors.New("bookings: event writer required")
	}
	if cfg.Location == nil {
		return nil, errors.New("bookings: location required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	salonName := cfg.SalonName
	if salonName == "" {
		salonName = "the salon"
	}
	return &Service{
		repo:      cfg.Repo,
		source:    cfg.Source,
		events:    cfg.Events,
		email:     cfg.Email,
		metrics:   cfg.Metrics,
		logger:    logger,
		loc:       cfg.Location,
		salonName: salonName,
		now:       now,
	}, nil
}

// Book validates the draft, re-checks conflicts against a fresh busy
// fetch, creates the calendar event, persists the booking and sends the
// confirmation email (best effort). Calendar fetch failures propagate
// unchanged so the caller can distinguish them from a genuine conflict.
func (s *Service) Book(ctx context.Context, draft Draft, opening timegrid.OpeningSpec, leadMinutes int) (*Booking, error) {
	ctx, span := bookingsTracer.Start(ctx, "bookings.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("salon.employee_id", draft.EmployeeID),
		attribute.String("salon.start", draft.Start.Format(time.RFC3339)),
	)

	if err := s.validate(draft); err != nil {
		s.metrics.ObserveBooking("invalid")
		return nil, err
	}
	if schedule.IsBeforeLeadTime(draft.Start, leadMinutes, s.now()) {
		s.metrics.ObserveBooking("too_soon")
		return nil, ErrTooSoon
	}

	busy, err := s.source.FetchBusyIntervals(ctx, draft.EmployeeID, draft.Start, opening)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveBooking("fetch_error")
		return nil, err
	}
	if schedule.HasConflict(busy, draft.Start, draft.End) {
		s.metrics.ObserveBooking("conflict")
		return nil, ErrConflict
	}

	summary := fmt.Sprintf("%s - %s", draft.CustomerName, s.salonName)
	description := fmt.Sprintf("Booked online: %v", draft.Services)
	eventID, err := s.events.CreateEvent(ctx, draft.EmployeeID, draft.Start, draft.End, summary, description)
	if err != nil {
		span.RecordError(err)
		s.metrics.ObserveBooking("event_error")
		return nil, err
	}

	booking := &Booking{
		ID:              uuid.New(),
		EmployeeID:      draft.EmployeeID,
		CustomerName:    draft.CustomerName,
		CustomerEmail:   draft.CustomerEmail,
		StartAt:         draft.Start,
		EndAt:           draft.End,
		Services:        draft.Services,
		CalendarEventID: eventID,
		CreatedAt:       s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, booking); err != nil {
		span.RecordError(err)
		s.metrics.ObserveBooking("store_error")
		return nil, err
	}

	s.sendConfirmation(ctx, booking)
	s.metrics.ObserveBooking("confirmed")
	s.logger.Info("booking confirmed",
		"booking_id", booking.ID,
		"employee_id", booking.EmployeeID,
		"start", booking.StartAt,
	)
	return booking, nil
}

func (s *Service) validate(draft Draft) error {
	if draft.EmployeeID == "" {
		return fmt.Errorf("%w: employee required", timegrid.ErrInvalidFormat)
	}
	if draft.Start.IsZero() || draft.End.IsZero() || !draft.Start.Before(draft.End) {
		return fmt.Errorf("%w: booking must start before it ends", timegrid.ErrInvalidFormat)
	}
	if draft.CustomerName == "" {
		return fmt.Errorf("%w: customer name required", timegrid.ErrInvalidFormat)
	}
	return nil
}

// sendConfirmation emails the customer; failures are logged and never
// fail the booking.
func (s *Service) sendConfirmation(ctx context.Context, b *Booking) {
	if s.email == nil || b.CustomerEmail == "" {
		return
	}
	msg := notify.BookingConfirmation(b.CustomerName, b.CustomerEmail, s.salonName, b.StartAt, b.EndAt, s.loc, b.Services)
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Warn("confirmation email failed", "booking_id", b.ID, "error", err)
	}
}

// ListFrom exposes upcoming bookings for the staff view.
func (s *Service) ListFrom(ctx context.Context, from time.Time, limit int) ([]Booking, error) {
	return s.repo.ListFrom(ctx, from, limit)
}
