package metrics

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	// Request duration by method, route pattern and status
	RequestDuration *prometheus.HistogramVec
	// Login attempts by outcome (success, invalid_credentials, error)
	LoginAttempts *prometheus.CounterVec
	// Requests rejected by the request gate, by reason
	GateRejections *prometheus.CounterVec
	// Database query duration by query name and status
	DBQueryDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		LoginAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "login_attempts_total",
			Help: "Total number of login attempts.",
		}, []string{"outcome"}),
		GateRejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auth_gate_rejections_total",
			Help: "Requests rejected before reaching a handler.",
		}, []string{"reason"}),
		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of database queries in seconds.",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"query", "status"}),
	}

	reg.MustRegister(m.RequestDuration, m.LoginAttempts, m.GateRejections, m.DBQueryDuration)
	return m
}

// NewNop returns metrics registered on a private registry, for tests and tools.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// ObserveDB records how long a query took; use it in a defer with the named error result.
func (m *Metrics) ObserveDB(query string, start time.Time, err error) {
	if m == nil {
		return
	}

	status := "ok"
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			status = "not_found"
		} else {
			status = "error"
		}
	}

	m.DBQueryDuration.WithLabelValues(query, status).Observe(time.Since(start).Seconds())
}

func (m *Metrics) LoginAttempt(outcome string) {
	if m == nil {
		return
	}
	m.LoginAttempts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) GateRejected(reason string) {
	if m == nil {
		return
	}
	m.GateRejections.WithLabelValues(reason).Inc()
}
