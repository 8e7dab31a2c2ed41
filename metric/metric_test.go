package metric

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	require.NotNil(t, r)
	require.NotNil(t, r.Metrics)
	require.NotNil(t, r.Prometheus())

	r.Metrics.PluginsRegistered.Set(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(r.Metrics.PluginsRegistered))
}

func TestRegistry_DuplicateRegister(t *testing.T) {
	r := NewRegistry()
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: "custom_gauge"})
	require.NoError(t, r.Register(g))

	dup := prometheus.NewGauge(prometheus.GaugeOpts{Name: "custom_gauge"})
	assert.Error(t, r.Register(dup))
}

func TestRegistry_Handler(t *testing.T) {
	r := NewRegistry()
	r.Metrics.PluginState.WithLabelValues("chain").Set(2)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `appkernel_plugins_state{plugin="chain"} 2`)
}

func TestObserveDuration(t *testing.T) {
	m := NewMetrics()
	ObserveDuration(m.StartupDuration, "chain", time.Now().Add(-10*time.Millisecond))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StartupDuration))
}
