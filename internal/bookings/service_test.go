package bookings

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/walid-afk/salon-scheduler/internal/calendar"
	"github.com/walid-afk/salon-scheduler/internal/notify"
	"github.com/walid-afk/salon-scheduler/internal/schedule"
	"github.com/walid-afk/salon-scheduler/internal/timegrid"
	"github.com/walid-afk/salon-scheduler/pkg/logging"
)

type fakeBusySource struct {
	busy []schedule.Interval
	err  error
}

func (f *fakeBusySource) FetchBusyIntervals(_ context.Context, _ string, _ time.Time, _ timegrid.OpeningSpec) ([]schedule.Interval, error) {
	return f.busy, f.err
}

type fakeEventWriter struct {
	eventID string
	err     error
	created int
}

func (f *fakeEventWriter) CreateEvent(_ context.Context, _ string, _, _ time.Time, _, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.created++
	return f.eventID, nil
}

type fakeEmailSender struct {
	sent []notify.EmailMessage
	err  error
}

func (f *fakeEmailSender) Send(_ context.Context, msg notify.EmailMessage) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

var bookingClock = time.Date(2026, 2, 3, 8, 0, 0, 0, time.UTC)

func newBookingService(t *testing.T, src *fakeBusySource, events *fakeEventWriter, email *fakeEmailSender) (*Service, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mock.Close)
	var sender notify.EmailSender
	if email != nil {
		sender = email
	}
	svc, err := NewService(Config{
		Repo:      NewRepositoryWithDB(mock),
		Source:    src,
		Events:    events,
		Email:     sender,
		Logger:    logging.Default(),
		Location:  time.UTC,
		SalonName: "Salon Lumiere",
		Now:       func() time.Time { return bookingClock },
	})
	if err != nil {
		t.Fatal(err)
	}
	return svc, mock
}

func validDraft() Draft {
	return Draft{
		EmployeeID:    "anna",
		Start:         time.Date(2026, 2, 3, 14, 0, 0, 0, time.UTC),
		End:           time.Date(2026, 2, 3, 14, 45, 0, 0, time.UTC),
		Services:      []string{"Haircut"},
		CustomerName:  "Lea",
		CustomerEmail: "lea@example.com",
	}
}

func mustOpening(t *testing.T) timegrid.OpeningSpec {
	t.Helper()
	opening, err := timegrid.ParseOpening("09:00-18:00")
	if err != nil {
		t.Fatal(err)
	}
	return opening
}

func TestBookHappyPath(t *testing.T) {
	events := &fakeEventWriter{eventID: "evt-42"}
	email := &fakeEmailSender{}
	svc, mock := newBookingService(t, &fakeBusySource{}, events, email)

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(
			pgxmock.AnyArg(), "anna", "Lea", "lea@example.com",
			pgxmock.AnyArg(), pgxmock.AnyArg(), []string{"Haircut"}, "evt-42", pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	got, err := svc.Book(context.Background(), validDraft(), mustOpening(t), 60)
	if err != nil {
		t.Fatal(err)
	}
	if got.CalendarEventID != "evt-42" {
		t.Fatalf("event id = %q, want evt-42", got.CalendarEventID)
	}
	if events.created != 1 {
		t.Fatalf("created %d events, want 1", events.created)
	}
	if len(email.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(email.sent))
	}
	if email.sent[0].To != "lea@example.com" {
		t.Fatalf("email to %q", email.sent[0].To)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestBookRejectsShortNotice(t *testing.T) {
	svc, _ := newBookingService(t, &fakeBusySource{}, &fakeEventWriter{}, nil)

	draft := validDraft()
	draft.Start = bookingClock.Add(30 * time.Minute)
	draft.End = draft.Start.Add(45 * time.Minute)

	_, err := svc.Book(context.Background(), draft, mustOpening(t), 60)
	if !errors.Is(err, ErrTooSoon) {
		t.Fatalf("err = %v, want ErrTooSoon", err)
	}
}

func TestBookRejectsConflict(t *testing.T) {
	src := &fakeBusySource{busy: []schedule.Interval{{
		Start: time.Date(2026, 2, 3, 14, 30, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 3, 15, 0, 0, 0, time.UTC),
	}}}
	events := &fakeEventWriter{eventID: "evt-1"}
	svc, _ := newBookingService(t, src, events, nil)

	_, err := svc.Book(context.Background(), validDraft(), mustOpening(t), 60)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
	if events.created != 0 {
		t.Fatal("no event should be created on conflict")
	}
}

func TestBookTouchingBookingIsNotConflict(t *testing.T) {
	// A busy block that ends exactly when the draft starts must not
	// count as a conflict.
	src := &fakeBusySource{busy: []schedule.Interval{{
		Start: time.Date(2026, 2, 3, 13, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 3, 14, 0, 0, 0, time.UTC),
	}}}
	svc, mock := newBookingService(t, src, &fakeEventWriter{eventID: "evt-9"}, nil)

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if _, err := svc.Book(context.Background(), validDraft(), mustOpening(t), 60); err != nil {
		t.Fatalf("touching bookings should not conflict: %v", err)
	}
}

func TestBookPropagatesCalendarErrors(t *testing.T) {
	src := &fakeBusySource{err: calendar.ErrSourceUnavailable}
	svc, _ := newBookingService(t, src, &fakeEventWriter{}, nil)

	_, err := svc.Book(context.Background(), validDraft(), mustOpening(t), 60)
	if !errors.Is(err, calendar.ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestBookEventWriteFailure(t *testing.T) {
	events := &fakeEventWriter{err: errors.New("calendar write refused")}
	svc, mock := newBookingService(t, &fakeBusySource{}, events, nil)

	_, err := svc.Book(context.Background(), validDraft(), mustOpening(t), 60)
	if err == nil {
		t.Fatal("expected error when event creation fails")
	}
	// Nothing must be persisted without a calendar event.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestBookEmailFailureDoesNotFailBooking(t *testing.T) {
	email := &fakeEmailSender{err: errors.New("smtp down")}
	svc, mock := newBookingService(t, &fakeBusySource{}, &fakeEventWriter{eventID: "evt-7"}, email)

	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if _, err := svc.Book(context.Background(), validDraft(), mustOpening(t), 60); err != nil {
		t.Fatalf("email failure must not fail the booking: %v", err)
	}
}

func TestBookValidatesDraft(t *testing.T) {
	svc, _ := newBookingService(t, &fakeBusySource{}, &fakeEventWriter{}, nil)

	cases := []struct {
		name  string
		edit  func(*Draft)
	}{
		{"missing employee", func(d *Draft) { d.EmployeeID = "" }},
		{"end before start", func(d *Draft) { d.End = d.Start.Add(-time.Hour) }},
		{"missing name", func(d *Draft) { d.CustomerName = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			draft := validDraft()
			tc.edit(&draft)
			_, err := svc.Book(context.Background(), draft, mustOpening(t), 60)
			if !errors.Is(err, timegrid.ErrInvalidFormat) {
				t.Fatalf("err = %v, want ErrInvalidFormat", err)
			}
		})
	}
}
