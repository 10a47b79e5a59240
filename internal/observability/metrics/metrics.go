package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AvailabilityMetrics exposes counters/histograms for slot queries and
// booking flows. All observe methods are safe on a nil receiver so
// wiring stays optional in tests.
type AvailabilityMetrics struct {
	queriesTotal   *prometheus.CounterVec
	queryLatency   *prometheus.HistogramVec
	fetchErrors    *prometheus.CounterVec
	bookingsTotal  *prometheus.CounterVec
	emptyResults   prometheus.Counter
	slotsPerResult prometheus.Histogram
}

func NewAvailabilityMetrics(reg prometheus.Registerer) *AvailabilityMetrics {
	m := &AvailabilityMetrics{
		queriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "availability",
			Name:      "queries_total",
			Help:      "Total availability queries",
		}, []string{"mode", "status"}),
		queryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "salon",
			Subsystem: "availability",
			Name:      "query_latency_seconds",
			Help:      "Latency of availability queries including busy fetches",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "calendar",
			Name:      "fetch_errors_total",
			Help:      "Busy-interval fetch failures by kind",
		}, []string{"kind"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "bookings",
			Name:      "submissions_total",
			Help:      "Booking submissions by outcome",
		}, []string{"outcome"}),
		emptyResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "salon",
			Subsystem: "availability",
			Name:      "empty_results_total",
			Help:      "Availability queries that returned zero valid starts",
		}),
		slotsPerResult: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "salon",
			Subsystem: "availability",
			Name:      "slots_per_result",
			Help:      "Valid starts returned per query",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 40, 96},
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.queriesTotal, m.queryLatency, m.fetchErrors, m.bookingsTotal, m.emptyResults, m.slotsPerResult)
	return m
}

// ObserveQuery records one availability query. Mode is "single" or "any".
func (m *AvailabilityMetrics) ObserveQuery(mode, status string, elapsed time.Duration, slots int) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(mode, status).Inc()
	m.queryLatency.WithLabelValues(mode).Observe(elapsed.Seconds())
	if status == "ok" {
		m.slotsPerResult.Observe(float64(slots))
		if slots == 0 {
			m.emptyResults.Inc()
		}
	}
}

// ObserveFetchError records a failed busy-interval fetch.
func (m *AvailabilityMetrics) ObserveFetchError(kind string) {
	if m == nil {
		return
	}
	m.fetchErrors.WithLabelValues(kind).Inc()
}

// ObserveBooking records a booking submission outcome.
func (m *AvailabilityMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}
