// Package metrics exposes Prometheus collectors of mandant synchronization.
package metrics

import (
	"time"

	"github.com/heatcare/heatcare/pkg/mandantsync"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "heatcare"

// Sync collects metrics of synchronization runs.
//
// It is a mandantsync.Observer.
type Sync struct {
	runs          *prometheus.CounterVec
	objects       *prometheus.CounterVec
	associations  *prometheus.CounterVec
	duration      prometheus.Histogram
	lastSuccess   prometheus.Gauge
	lastProcessed prometheus.Gauge
}

var _ mandantsync.Observer = &Sync{}

// NewSync creates collectors and registers them to reg.
func NewSync(reg prometheus.Registerer) *Sync {
	f := promauto.With(reg)
	return &Sync{
		runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Total number of synchronization runs by result",
		}, []string{"result"}),
		objects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "objects_total",
			Help:      "Total number of objects processed by outcome",
		}, []string{"outcome"}),
		associations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "associations_changed_total",
			Help:      "Total number of associations inserted or deleted",
		}, []string{"change"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "run_duration_seconds",
			Help:      "Duration of synchronization runs in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		lastSuccess: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful synchronization run",
		}),
		lastProcessed: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "sync",
			Name:      "last_processed_objects",
			Help:      "Number of objects processed in the last synchronization run",
		}),
	}
}

func (s *Sync) ObserveObject(outcome mandantsync.Outcome) {
	s.objects.WithLabelValues(string(outcome)).Inc()
}

func (s *Sync) ObserveRun(summary mandantsync.Summary, err error, elapsed time.Duration) {
	s.duration.Observe(elapsed.Seconds())
	s.associations.WithLabelValues("added").Add(float64(summary.Added))
	s.associations.WithLabelValues("removed").Add(float64(summary.Removed))
	s.lastProcessed.Set(float64(summary.Processed))

	if err != nil {
		s.runs.WithLabelValues("failure").Inc()
		return
	}
	s.runs.WithLabelValues("success").Inc()
	s.lastSuccess.SetToCurrentTime()
}

// Runs returns the counter of runs with result "success" or "failure".
func (s *Sync) Runs(result string) prometheus.Counter {
	return s.runs.WithLabelValues(result)
}

// Objects returns the counter of objects with the outcome.
func (s *Sync) Objects(outcome mandantsync.Outcome) prometheus.Counter {
	return s.objects.WithLabelValues(string(outcome))
}
