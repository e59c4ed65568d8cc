// Package metrics records simulation run metrics in a Prometheus registry
// that can be written out for the node exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "grmpy"

// Recorder holds the run metrics on a private registry.
type Recorder struct {
	registry     *prometheus.Registry
	runs         prometheus.Counter
	agents       prometheus.Counter
	treated      prometheus.Counter
	treatedShare prometheus.Gauge
	duration     prometheus.Histogram
}

// NewRecorder creates a Recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "simulations_total",
			Help:      "Total number of completed simulation runs",
		}),
		agents: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agents_simulated_total",
			Help:      "Total number of simulated agents",
		}),
		treated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agents_treated_total",
			Help:      "Total number of simulated agents selecting into treatment",
		}),
		treatedShare: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "treated_share",
			Help:      "Share of treated agents in the most recent run",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "simulation_duration_seconds",
			Help:      "Wall-clock duration of simulation runs in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
	}
	r.registry.MustRegister(r.runs, r.agents, r.treated, r.treatedShare, r.duration)
	return r
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Observe records one completed run.
func (r *Recorder) Observe(agents, treated int, elapsed time.Duration) {
	r.runs.Inc()
	r.agents.Add(float64(agents))
	r.treated.Add(float64(treated))
	if agents > 0 {
		r.treatedShare.Set(float64(treated) / float64(agents))
	}
	r.duration.Observe(elapsed.Seconds())
}

// WriteTextfile writes all metrics in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
