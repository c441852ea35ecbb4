// Package metrics holds the Prometheus collectors of the foyer backend.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "foyer",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foyer",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "foyer",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	reservationsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "foyer",
			Subsystem: "reservations",
			Name:      "created_total",
			Help:      "Reservations created.",
		},
	)

	reservationsCancelled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foyer",
			Subsystem: "reservations",
			Name:      "cancelled_total",
			Help:      "Students removed from a reservation, by whether the reservation was invalidated.",
		},
		[]string{"invalidated"},
	)

	reservationRejections = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foyer",
			Subsystem: "reservations",
			Name:      "rejections_total",
			Help:      "Reservation attempts rejected, by reason.",
		},
		[]string{"reason"},
	)

	reservationRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "foyer",
			Subsystem: "reservations",
			Name:      "retries_total",
			Help:      "Reservation writes retried after a store conflict.",
		},
	)

	availableRooms = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "foyer",
			Name:      "available_rooms",
			Help:      "Rooms with no valid reservation in the current academic year, per university.",
		},
		[]string{"university"},
	)

	snapshotRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "foyer",
			Subsystem: "availability",
			Name:      "snapshot_runs_total",
			Help:      "Availability snapshot runs.",
		},
		[]string{"success"},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		reservationsCreated,
		reservationsCancelled,
		reservationRejections,
		reservationRetries,
		availableRooms,
		snapshotRuns,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

func InFlightInc() { httpInFlight.Inc() }
func InFlightDec() { httpInFlight.Dec() }

// RecordHTTPRequest records one handled request. route should be the
// registered route pattern, not the raw path, to keep label cardinality low.
func RecordHTTPRequest(method, route, status string, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	httpRequests.WithLabelValues(method, route, status).Inc()
	httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordReservationCreated() { reservationsCreated.Inc() }

func RecordReservationCancelled(invalidated bool) {
	label := "false"
	if invalidated {
		label = "true"
	}
	reservationsCancelled.WithLabelValues(label).Inc()
}

func RecordReservationRejected(reason string) {
	reservationRejections.WithLabelValues(reason).Inc()
}

func RecordReservationRetry() { reservationRetries.Inc() }

// SetAvailableRooms replaces the per-university gauge values.
func SetAvailableRooms(counts map[string]int) {
	availableRooms.Reset()
	for university, n := range counts {
		availableRooms.WithLabelValues(university).Set(float64(n))
	}
}

func RecordSnapshotRun(success bool) {
	label := "false"
	if success {
		label = "true"
	}
	snapshotRuns.WithLabelValues(label).Inc()
}
