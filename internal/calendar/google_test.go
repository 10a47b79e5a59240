package calendar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"google.golang.org/api/option"

	"github.com/walid-afk/salon-scheduler/internal/timegrid"
	"github.com/walid-afk/salon-scheduler/pkg/logging"
)

var testOpening = timegrid.OpeningSpec{OpenMinute: 540, CloseMinute: 1020}

func newTestSource(t *testing.T, handler http.HandlerFunc) *GoogleSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	src, err := NewGoogleSource(context.Background(), time.UTC, logging.New("error", "text"),
		option.WithEndpoint(srv.URL),
		option.WithHTTPClient(srv.Client()),
	)
	if err != nil {
		t.Fatal(err)
	}
	return src
}

func TestFetchBusyIntervalsParsesEvents(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{"id": "a", "status": "confirmed",
				 "start": {"dateTime": "2026-01-28T10:00:00Z"},
				 "end": {"dateTime": "2026-01-28T11:00:00Z"}},
				{"id": "b", "status": "cancelled",
				 "start": {"dateTime": "2026-01-28T12:00:00Z"},
				 "end": {"dateTime": "2026-01-28T13:00:00Z"}}
			]
		}`))
	})

	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	busy, err := src.FetchBusyIntervals(context.Background(), "emp-1", day, testOpening)
	if err != nil {
		t.Fatal(err)
	}
	if len(busy) != 1 {
		t.Fatalf("expected 1 interval (cancelled skipped), got %d", len(busy))
	}
	if !busy[0].Start.Equal(day.Add(10 * time.Hour)) {
		t.Fatalf("interval start = %s", busy[0].Start)
	}
}

func TestFetchBusyIntervalsAllDayBlocksOpening(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"items": [
				{"id": "vac", "status": "confirmed",
				 "start": {"date": "2026-01-28"},
				 "end": {"date": "2026-01-29"}}
			]
		}`))
	})

	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	busy, err := src.FetchBusyIntervals(context.Background(), "emp-1", day, testOpening)
	if err != nil {
		t.Fatal(err)
	}
	if len(busy) != 1 {
		t.Fatalf("expected 1 interval, got %d", len(busy))
	}
	// The all-day event must occupy the opening window, not midnight to
	// midnight.
	if !busy[0].Start.Equal(day.Add(9*time.Hour)) || !busy[0].End.Equal(day.Add(17*time.Hour)) {
		t.Fatalf("all-day interval = %s..%s, want 09:00..17:00", busy[0].Start, busy[0].End)
	}
}

func TestFetchBusyIntervalsAuthFailure(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": {"code": 401, "message": "unauthorized"}}`, http.StatusUnauthorized)
	})

	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	_, err := src.FetchBusyIntervals(context.Background(), "emp-1", day, testOpening)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("expected ErrSourceUnavailable, got %v", err)
	}
}

func TestFetchBusyIntervalsTimeout(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`{"items": []}`))
	})
	src = src.WithTimeout(20 * time.Millisecond)

	day := time.Date(2026, 1, 28, 0, 0, 0, 0, time.UTC)
	_, err := src.FetchBusyIntervals(context.Background(), "emp-1", day, testOpening)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestCreateEvent(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "evt-123"}`))
	})

	start := time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC)
	id, err := src.CreateEvent(context.Background(), "emp-1", start, start.Add(30*time.Minute), "Haircut", "Booked online")
	if err != nil {
		t.Fatal(err)
	}
	if id != "evt-123" {
		t.Fatalf("event id = %q", id)
	}
}
