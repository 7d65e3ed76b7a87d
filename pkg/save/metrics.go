package save

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/arkvale/worldsave-go/pkg/snapshot"
)

// Metrics holds the Prometheus instruments for the save and load pipelines.
// A nil *Metrics disables collection; every observer method is safe on nil.
type Metrics struct {
	saves         *prometheus.CounterVec
	saveFailures  prometheus.Counter
	saveDuration  prometheus.Histogram
	snapshotBytes prometheus.Gauge
	savedEntities prometheus.Gauge

	loads           prometheus.Counter
	loadFailures    *prometheus.CounterVec
	loadDuration    prometheus.Histogram
	spawnedEntities prometheus.Gauge
}

// RegisterMetrics creates the pipeline metrics and registers them with the
// given Prometheus registry.
//
// Call once during initialization; share the result across pipelines via
// Config.Metrics.
func RegisterMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "worldsave",
			Subsystem: "pipeline",
			Name:      "saves_total",
			Help:      "Completed snapshot writes by mode (save or dump)",
		}, []string{"mode"}),

		saveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "worldsave",
			Subsystem: "pipeline",
			Name:      "save_failures_total",
			Help:      "Failed snapshot writes",
		}),

		saveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "worldsave",
			Subsystem: "pipeline",
			Name:      "save_duration_seconds",
			Help:      "Time spent writing a snapshot",
			Buckets:   prometheus.DefBuckets,
		}),

		snapshotBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "worldsave",
			Subsystem: "pipeline",
			Name:      "snapshot_size_bytes",
			Help:      "Size of the most recently written snapshot in bytes",
		}),

		savedEntities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "worldsave",
			Subsystem: "pipeline",
			Name:      "saved_entities",
			Help:      "Entity count of the most recently written snapshot",
		}),

		loads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "worldsave",
			Subsystem: "pipeline",
			Name:      "loads_total",
			Help:      "Completed snapshot loads",
		}),

		loadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "worldsave",
			Subsystem: "pipeline",
			Name:      "load_failures_total",
			Help:      "Failed snapshot loads by pipeline phase",
		}, []string{"phase"}),

		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "worldsave",
			Subsystem: "pipeline",
			Name:      "load_duration_seconds",
			Help:      "Time spent loading a snapshot",
			Buckets:   prometheus.DefBuckets,
		}),

		spawnedEntities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "worldsave",
			Subsystem: "pipeline",
			Name:      "spawned_entities",
			Help:      "Entities spawned by the most recent load",
		}),
	}

	registry.MustRegister(
		m.saves,
		m.saveFailures,
		m.saveDuration,
		m.snapshotBytes,
		m.savedEntities,
		m.loads,
		m.loadFailures,
		m.loadDuration,
		m.spawnedEntities,
	)

	return m
}

func (m *Metrics) saveDone(mode string, info *snapshot.Info, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.saves.WithLabelValues(mode).Inc()
	m.saveDuration.Observe(elapsed.Seconds())
	m.snapshotBytes.Set(float64(info.Size))
	m.savedEntities.Set(float64(info.Entities))
}

func (m *Metrics) saveFailed() {
	if m == nil {
		return
	}
	m.saveFailures.Inc()
}

func (m *Metrics) loadDone(res *LoadResult, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.loads.Inc()
	m.loadDuration.Observe(elapsed.Seconds())
	m.spawnedEntities.Set(float64(res.Spawned))
}

func (m *Metrics) loadFailed(phase Phase) {
	if m == nil {
		return
	}
	m.loadFailures.WithLabelValues(string(phase)).Inc()
}
