package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// SlowQueryThreshold marks queries worth logging individually.
const SlowQueryThreshold = 200 * time.Millisecond

// Metrics holds all application metrics
type Metrics struct {
	// HTTP metrics
	RequestDuration *prometheus.HistogramVec
	RequestsTotal   *prometheus.CounterVec

	// Database metrics
	QueryDuration *prometheus.HistogramVec
	SlowQueries   *prometheus.CounterVec

	// Booking metrics
	BookingOutcomes *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "path", "status"}),
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),

		QueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "db_query_duration_seconds",
			Help:      "Duration of database queries",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"query"}),
		SlowQueries: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "db_slow_queries_total",
			Help:      "Queries slower than the slow query threshold",
		}, []string{"query"}),

		BookingOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_outcomes_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
	}
}

// ObserveQuery records one query timing and counts it as slow when it
// crossed the threshold. Safe on a nil receiver so repositories can run
// without metrics in tests.
func (m *Metrics) ObserveQuery(name string, start time.Time) time.Duration {
	elapsed := time.Since(start)
	if m == nil {
		return elapsed
	}
	m.QueryDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if elapsed > SlowQueryThreshold {
		m.SlowQueries.WithLabelValues(name).Inc()
	}
	return elapsed
}

// CountBooking records a booking outcome label ("accepted", "rejected_ooo", ...).
func (m *Metrics) CountBooking(outcome string) {
	if m == nil {
		return
	}
	m.BookingOutcomes.WithLabelValues(outcome).Inc()
}
