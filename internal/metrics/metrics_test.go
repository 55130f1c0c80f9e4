package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsForTestingBuildsIndependentRegistries(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()
	require.NotNil(t, a)
	require.NotNil(t, b)

	a.RowsIngested.Inc()
	a.TideAPIRequests.WithLabelValues("GetTimeSeriesBlock", "success").Inc()
	a.PipelineRunning.Set(1)

	assert.Equal(t, float64(1), testutil.ToFloat64(a.RowsIngested))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.RowsIngested))
}

func TestBuiltMetricsRegisterWithFreshRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := build()
	reg.MustRegister(m.RowsIngested, m.PipelineRunning)

	m.RowsIngested.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(m.RowsIngested))
}
