// Package metric wraps prometheus/client_golang the way the teacher
// framework's metric package does: a small registrar that owns one
// prometheus.Registry and hands out named counters, guarding against
// duplicate registration.
package metric

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/c360/ctffs/errors"
)

// Registry manages counters for the ctffs source and sink components.
type Registry struct {
	mu       sync.RWMutex
	prom     *prometheus.Registry
	counters map[string]*prometheus.CounterVec
}

// NewRegistry creates a Registry with the counters the CTF plugins report.
func NewRegistry() *Registry {
	r := &Registry{
		prom:     prometheus.NewRegistry(),
		counters: make(map[string]*prometheus.CounterVec),
	}

	r.mustRegisterCounterVec("ctffs_traces_discovered_total",
		"Number of CTF trace directories discovered.", "trace")
	r.mustRegisterCounterVec("ctffs_notifications_emitted_total",
		"Notifications emitted by the source, by kind.", "kind")
	r.mustRegisterCounterVec("ctffs_packets_flushed_total",
		"Packets flushed to disk by the sink.", "stream")
	r.mustRegisterCounterVec("ctffs_schema_copies_total",
		"Schema elements copied by the sink on first sight, by kind.", "kind")

	return r
}

func (r *Registry) mustRegisterCounterVec(name, help string, label string) {
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, []string{label})
	r.prom.MustRegister(vec)
	r.counters[name] = vec
}

// PrometheusRegistry exposes the underlying registry for an HTTP /metrics handler.
func (r *Registry) PrometheusRegistry() *prometheus.Registry { return r.prom }

// IncCounter increments the named counter with the given single-value label
// set, satisfying component.MetricsRegistrar. Only the first label value is
// used. An unknown counter name is ignored: nothing is incremented and
// nothing is reported.
func (r *Registry) IncCounter(name string, labels map[string]string) {
	r.mu.RLock()
	vec, ok := r.counters[name]
	r.mu.RUnlock()
	if !ok {
		return
	}

	for _, v := range labels {
		vec.WithLabelValues(v).Inc()
		return
	}
	vec.WithLabelValues("").Inc()
}

// RegisterCounterVec registers an additional, caller-owned counter vector.
// Returns an error if the name is already taken, matching the teacher
// registry's duplicate-registration guard.
func (r *Registry) RegisterCounterVec(name string, vec *prometheus.CounterVec) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.counters[name]; exists {
		return errors.WrapInvalid(fmt.Errorf("metric %s already registered", name),
			"Registry", "RegisterCounterVec", "duplicate metric registration")
	}
	if err := r.prom.Register(vec); err != nil {
		return errors.WrapFatal(err, "Registry", "RegisterCounterVec", "prometheus registration")
	}
	r.counters[name] = vec
	return nil
}
