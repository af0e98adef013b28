package prometheus

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haidi-ustc/stk/internal/infrastructure/monitoring/logging"
)

func TestNewMetricsCollector_RequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, logging.Nop())
	assert.Error(t, err)

	c, err := NewMetricsCollector(CollectorConfig{Namespace: "stk"}, logging.Nop())
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestCollector_RegisterAndServe(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "stk"}, logging.Nop())
	require.NoError(t, err)

	counter := c.RegisterCounter("constructions_total", "Construction requests", "topology", "status")
	counter.WithLabelValues("linear:A:2", "success").Inc()
	counter.WithLabelValues("linear:A:2", "success").Add(2)

	hist := c.RegisterHistogram("construction_bonds_made", "Bonds made", DefaultBondBuckets, "topology")
	hist.WithLabelValues("linear:A:2").Observe(3)

	// Re-registering the same name reuses the existing collector.
	again := c.RegisterCounter("constructions_total", "Construction requests", "topology", "status")
	again.WithLabelValues("linear:A:2", "failure").Inc()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "stk_constructions_total")
	assert.Contains(t, body, "stk_construction_bonds_made")
}

func TestNewAppMetrics(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "stk", Subsystem: "construction"}, logging.Nop())
	require.NoError(t, err)
	m := NewAppMetrics(c)
	require.NotNil(t, m)
	m.ConstructionsTotal.WithLabelValues("cyclic:AB:2", "success").Inc()
	m.CacheHitsTotal.WithLabelValues().Inc()
	m.BondsMade.WithLabelValues("cyclic:AB:2").Observe(4)
}

func TestNopCollector(t *testing.T) {
	c := NewNopCollector()
	c.RegisterCounter("x", "x").WithLabelValues().Inc()
	c.RegisterGauge("y", "y").WithLabelValues().Set(1)
	c.RegisterHistogram("z", "z", nil).WithLabelValues().Observe(1)
	assert.NotNil(t, c.Handler())
}
