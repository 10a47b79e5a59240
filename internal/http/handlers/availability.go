// Package handlers exposes the booking engine over HTTP for the shop
// widget and the staff dashboard.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/walid-afk/salon-scheduler/internal/availability"
	"github.com/walid-afk/salon-scheduler/internal/calendar"
	"github.com/walid-afk/salon-scheduler/internal/catalog"
	"github.com/walid-afk/salon-scheduler/internal/schedule"
	"github.com/walid-afk/salon-scheduler/internal/timegrid"
	"github.com/walid-afk/salon-scheduler/pkg/logging"
)

// EmployeeAny selects the "no preference" aggregated view.
const EmployeeAny = "any"

// AvailabilityConfig wires an AvailabilityHandler.
type AvailabilityConfig struct {
	Availability *availability.Service
	Source       calendar.BusySource
	Catalog      catalog.API
	// Employees is the bookable staff roster, in display order. The
	// aggregated view merges in this order.
	Employees []string
	Policy    availability.Policy
	Location  *time.Location
	Logger    *logging.Logger
}

// AvailabilityHandler serves slot queries and drag-drop validation.
type AvailabilityHandler struct {
	svc       *availability.Service
	source    calendar.BusySource
	catalog   catalog.API
	employees []string
	policy    availability.Policy
	loc       *time.Location
	logger    *logging.Logger
}

// NewAvailabilityHandler builds the handler.
func NewAvailabilityHandler(cfg AvailabilityConfig) *AvailabilityHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &AvailabilityHandler{
		svc:       cfg.Availability,
		source:    cfg.Source,
		catalog:   cfg.Catalog,
		employees: cfg.Employees,
		policy:    cfg.Policy,
		loc:       loc,
		logger:    logger,
	}
}

// DayResponse is the concrete-employee availability payload.
type DayResponse struct {
	EmployeeID  string                 `json:"employeeId"`
	Date        string                 `json:"date"`
	ValidStarts []time.Time            `json:"validStarts"`
	Cells       []schedule.Cell        `json:"cells"`
	CellsNeeded int                    `json:"cellsNeeded"`
	Reason      schedule.NoSlotsReason `json:"reason,omitempty"`
	Explanation string                 `json:"explanation,omitempty"`
}

// AnyResponse is the aggregated "no preference" payload.
type AnyResponse struct {
	Date     string                    `json:"date"`
	Slots    []availability.SlotOption `json:"slots"`
	Degraded []string                  `json:"degraded,omitempty"`
}

// ValidateRequest is the drag-drop validation payload.
type ValidateRequest struct {
	EmployeeID string    `json:"employeeId"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

// ValidateResponse reports whether a free-form placement is allowed.
type ValidateResponse struct {
	OK     bool   `json:"ok"`
	Reason string `json:"reason,omitempty"`
}

// GetAvailability handles GET /api/availability?date=&employee=&duration=.
// The duration comes either from the duration query param (minutes) or
// from variants, a comma-separated list of catalog variant IDs.
func (h *AvailabilityHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	day, err := h.parseDate(r.URL.Query().Get("date"))
	if err != nil {
		http.Error(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	duration, err := h.resolveDuration(r)
	if err != nil {
		if errors.Is(err, catalog.ErrUnknownVariant) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.writeCollaboratorError(w, err)
		return
	}
	if duration <= 0 {
		http.Error(w, "duration must be positive", http.StatusBadRequest)
		return
	}

	employee := strings.TrimSpace(r.URL.Query().Get("employee"))
	if employee == "" || employee == EmployeeAny {
		h.getAny(w, r, day, duration)
		return
	}
	h.getForEmployee(w, r, employee, day, duration)
}

func (h *AvailabilityHandler) getForEmployee(w http.ResponseWriter, r *http.Request, employee string, day time.Time, duration int) {
	result, err := h.svc.GetAvailableSlots(r.Context(), employee, day, duration, h.policy)
	if err != nil {
		h.writeQueryError(w, err)
		return
	}
	resp := DayResponse{
		EmployeeID:  result.EmployeeID,
		Date:        day.Format("2006-01-02"),
		ValidStarts: result.ValidStarts,
		Cells:       result.Cells,
		CellsNeeded: result.CellsNeeded,
		Reason:      result.Reason,
		Explanation: explain(result.Reason),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AvailabilityHandler) getAny(w http.ResponseWriter, r *http.Request, day time.Time, duration int) {
	if len(h.employees) == 0 {
		http.Error(w, "no bookable employees configured", http.StatusServiceUnavailable)
		return
	}
	result, err := h.svc.GetAnySlots(r.Context(), h.employees, day, duration, h.policy)
	if err != nil {
		h.writeQueryError(w, err)
		return
	}
	resp := AnyResponse{
		Date:  day.Format("2006-01-02"),
		Slots: result.Slots,
	}
	for _, id := range h.employees {
		if _, failed := result.Failures[id]; failed {
			resp.Degraded = append(resp.Degraded, id)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ValidateDrop handles POST /api/availability/validate.
func (h *AvailabilityHandler) ValidateDrop(w http.ResponseWriter, r *http.Request) {
	var req ValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.EmployeeID == "" || req.Start.IsZero() || req.End.IsZero() {
		http.Error(w, "employeeId, start and end are required", http.StatusBadRequest)
		return
	}
	opening, err := timegrid.ParseOpening(h.policy.Opening)
	if err != nil {
		h.logger.Error("invalid opening hours configured", "opening", h.policy.Opening, "error", err)
		http.Error(w, "opening hours misconfigured", http.StatusInternalServerError)
		return
	}
	busy, err := h.source.FetchBusyIntervals(r.Context(), req.EmployeeID, req.Start.In(h.loc), opening)
	if err != nil {
		h.writeQueryError(w, err)
		return
	}
	ok, reason := h.svc.ValidateDrop(busy, req.Start, req.End, h.policy.LeadMinutes)
	writeJSON(w, http.StatusOK, ValidateResponse{OK: ok, Reason: reason})
}

func (h *AvailabilityHandler) parseDate(raw string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(raw), h.loc)
}

func (h *AvailabilityHandler) resolveDuration(r *http.Request) (int, error) {
	q := r.URL.Query()
	if raw := strings.TrimSpace(q.Get("duration")); raw != "" {
		return strconv.Atoi(raw)
	}
	raw := strings.TrimSpace(q.Get("variants"))
	if raw == "" || h.catalog == nil {
		return 0, nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			return 0, nil
		}
		ids = append(ids, id)
	}
	return catalog.ResolveDuration(r.Context(), h.catalog, ids)
}

func (h *AvailabilityHandler) writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, timegrid.ErrInvalidFormat):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, calendar.ErrTimeout):
		http.Error(w, "calendar timed out, please try again", http.StatusGatewayTimeout)
	case errors.Is(err, calendar.ErrSourceUnavailable):
		http.Error(w, "calendar unavailable, please reconnect the calendar", http.StatusBadGateway)
	default:
		h.logger.Error("availability query failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *AvailabilityHandler) writeCollaboratorError(w http.ResponseWriter, err error) {
	h.logger.Error("catalog lookup failed", "error", err)
	http.Error(w, "catalog unavailable", http.StatusBadGateway)
}

// explain renders the diagnostics classification as a customer-facing
// sentence accompanying an empty result.
func explain(reason schedule.NoSlotsReason) string {
	switch reason {
	case schedule.ReasonNoCells:
		return "The salon is not open on this day."
	case schedule.ReasonDurationExceedsWindow:
		return "The selected services do not fit within the opening hours."
	case schedule.ReasonDayBlocked:
		return "This day is fully booked."
	case schedule.ReasonLeadTime:
		return "No remaining time today satisfies the minimum notice."
	case schedule.ReasonBuffer:
		return "No start leaves enough preparation time between appointments."
	case schedule.ReasonConflicts:
		return "Existing appointments conflict with every possible start."
	default:
		return ""
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
