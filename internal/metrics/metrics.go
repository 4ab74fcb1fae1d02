// Package metrics exposes sync cycle outcomes to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"festivalrisk/internal/reconcile"
)

const namespace = "festival"

// Sync collects per-cycle counters. It satisfies reconcile.Recorder.
type Sync struct {
	cycles         *prometheus.CounterVec
	rowsSkipped    *prometheus.CounterVec
	artists        *prometheus.CounterVec
	eventsInserted prometheus.Gauge
	duration       prometheus.Summary
	lastSuccess    prometheus.Gauge
	now            func() time.Time
}

// NewSync registers the sync collectors on reg.
func NewSync(reg prometheus.Registerer) *Sync {
	m := &Sync{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "cycles_total",
			Help:      "Sync cycles by result.",
		}, []string{"result"}),
		rowsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "rows_skipped_total",
			Help:      "Feed rows left out of a cycle, by reason.",
		}, []string{"reason"}),
		artists: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "artists_total",
			Help:      "Artist rows written by committed cycles, by operation.",
		}, []string{"op"}),
		eventsInserted: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "events_inserted",
			Help:      "Events inserted by the last cycle that replaced the schedule.",
		}),
		duration: prometheus.NewSummary(prometheus.SummaryOpts{
			Namespace:  namespace,
			Subsystem:  "sync",
			Name:       "duration_seconds",
			Help:       "Wall time of sync cycles.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last committed cycle.",
		}),
		now: time.Now,
	}
	reg.MustRegister(m.cycles, m.rowsSkipped, m.artists, m.eventsInserted, m.duration, m.lastSuccess)
	return m
}

// RecordCycle updates the collectors from one cycle outcome.
func (m *Sync) RecordCycle(result string, rep reconcile.Report, elapsed time.Duration) {
	m.cycles.WithLabelValues(result).Inc()
	if result == reconcile.ResultOverlap {
		return
	}
	m.duration.Observe(elapsed.Seconds())

	m.addSkipped("feed_item", rep.FeedItemsSkipped)
	m.addSkipped("artist", rep.ArtistsSkipped)
	m.addSkipped("event_parse", rep.EventParseErrors)
	m.addSkipped("event_unresolved", rep.EventsUnresolved)
	m.addSkipped("event_end", rep.EventEndsDropped)

	if result != reconcile.ResultSuccess {
		return
	}
	m.artists.WithLabelValues("inserted").Add(float64(rep.ArtistsInserted))
	m.artists.WithLabelValues("updated").Add(float64(rep.ArtistsUpdated))
	m.artists.WithLabelValues("deleted").Add(float64(rep.ArtistsDeleted))
	if rep.EventsReplaced {
		m.eventsInserted.Set(float64(rep.EventsInserted))
	}
	m.lastSuccess.Set(float64(m.now().Unix()))
}

func (m *Sync) addSkipped(reason string, n int) {
	if n > 0 {
		m.rowsSkipped.WithLabelValues(reason).Add(float64(n))
	}
}

// NewRegistry returns a registry with the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the registry in the Prometheus text format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}
