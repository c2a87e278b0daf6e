package metric_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/ctffs/metric"
)

func TestIncCounterKnownName(t *testing.T) {
	r := metric.NewRegistry()
	r.IncCounter("ctffs_notifications_emitted_total", map[string]string{"kind": "event"})

	families, err := r.PrometheusRegistry().Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "ctffs_notifications_emitted_total" {
			found = true
			assert.NotEmpty(t, f.GetMetric())
		}
	}
	assert.True(t, found)
}

func TestRegisterCounterVecRejectsDuplicate(t *testing.T) {
	r := metric.NewRegistry()
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "ctffs_traces_discovered_total"}, []string{"trace"})
	err := r.RegisterCounterVec("ctffs_traces_discovered_total", vec)
	assert.Error(t, err)
}
