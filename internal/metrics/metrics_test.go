package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestObserveDBStatusLabels(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())
	start := time.Now()

	m.ObserveDB("select_user", start, nil)
	m.ObserveDB("select_user", start, pgx.ErrNoRows)
	m.ObserveDB("select_user", start, errors.New("boom"))

	require.Equal(t, 3, testutil.CollectAndCount(m.DBQueryDuration))
}

func TestCounters(t *testing.T) {
	t.Parallel()

	m := NewNop()
	m.LoginAttempt("success")
	m.LoginAttempt("success")
	m.GateRejected("missing_token")

	require.Equal(t, float64(2), testutil.ToFloat64(m.LoginAttempts.WithLabelValues("success")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.GateRejections.WithLabelValues("missing_token")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	require.NotPanics(t, func() {
		m.ObserveDB("q", time.Now(), nil)
		m.LoginAttempt("success")
		m.GateRejected("x")
	})
}
