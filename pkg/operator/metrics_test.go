package operator

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestNewReconcileMetricsRegistersAllSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReconcileMetrics(reg)
	require.NotNil(t, m)

	m.SyncDuration.WithLabelValues("crawljob").Observe(0.5)
	m.ActiveCrawls.Inc()
	m.ExecSecondsDebited.Add(12)
	m.ReconcileErrors.WithLabelValues("crawljob").Inc()

	require.Equal(t, 1, testutil.CollectAndCount(m.SyncDuration))
	require.Equal(t, 1, testutil.CollectAndCount(m.ActiveCrawls))
	require.Equal(t, 1, testutil.CollectAndCount(m.ExecSecondsDebited))
	require.Equal(t, 1, testutil.CollectAndCount(m.ReconcileErrors))

	require.Equal(t, float64(1), testutil.ToFloat64(m.ActiveCrawls))
	require.Equal(t, float64(12), testutil.ToFloat64(m.ExecSecondsDebited))
}

func TestNewReconcileMetricsNilRegistererIsSafe(t *testing.T) {
	m := NewReconcileMetrics(nil)
	require.NotNil(t, m)
	m.ActiveCrawls.Inc()
	require.Equal(t, float64(1), testutil.ToFloat64(m.ActiveCrawls))
}
