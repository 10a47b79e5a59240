package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/walid-afk/salon-scheduler/internal/availability"
	"github.com/walid-afk/salon-scheduler/internal/bookings"
	"github.com/walid-afk/salon-scheduler/internal/calendar"
	"github.com/walid-afk/salon-scheduler/internal/timegrid"
	"github.com/walid-afk/salon-scheduler/pkg/logging"
)

// BookingsConfig wires a BookingsHandler.
type BookingsConfig struct {
	Bookings *bookings.Service
	Policy   availability.Policy
	Location *time.Location
	Logger   *logging.Logger
	Now      func() time.Time
}

// BookingsHandler serves booking submission and the staff listing.
type BookingsHandler struct {
	svc    *bookings.Service
	policy availability.Policy
	loc    *time.Location
	logger *logging.Logger
	now    func() time.Time
}

// NewBookingsHandler builds the handler.
func NewBookingsHandler(cfg BookingsConfig) *BookingsHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &BookingsHandler{
		svc:    cfg.Bookings,
		policy: cfg.Policy,
		loc:    loc,
		logger: logger,
		now:    now,
	}
}

// Create handles POST /api/bookings.
func (h *BookingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var draft bookings.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	opening, err := timegrid.ParseOpening(h.policy.Opening)
	if err != nil {
		h.logger.Error("invalid opening hours configured", "opening", h.policy.Opening, "error", err)
		http.Error(w, "opening hours misconfigured", http.StatusInternalServerError)
		return
	}

	booking, err := h.svc.Book(r.Context(), draft, opening, h.policy.LeadMinutes)
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

// ListStaff handles GET /api/staff/bookings?from=&limit=.
func (h *BookingsHandler) ListStaff(w http.ResponseWriter, r *http.Request) {
	from := h.now().In(h.loc)
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, h.loc)
		if err != nil {
			http.Error(w, "from must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		from = parsed
	}
	limit := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			http.Error(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	list, err := h.svc.ListFrom(r.Context(), from, limit)
	if err != nil {
		h.logger.Error("staff booking listing failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []bookings.Booking{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": list})
}

func (h *BookingsHandler) writeBookingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, timegrid.ErrInvalidFormat):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, bookings.ErrTooSoon):
		http.Error(w, "this time no longer satisfies the minimum notice", http.StatusUnprocessableEntity)
	case errors.Is(err, bookings.ErrConflict):
		http.Error(w, "this time was just taken, please pick another slot", http.StatusConflict)
	case errors.Is(err, calendar.ErrTimeout):
		http.Error(w, "calendar timed out, please try again", http.StatusGatewayTimeout)
	case errors.Is(err, calendar.ErrSourceUnavailable):
		http.Error(w, "calendar unavailable, please reconnect the calendar", http.StatusBadGateway)
	default:
		h.logger.Error("booking failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
