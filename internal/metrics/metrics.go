// Package metrics exposes packing run progress as Prometheus metrics.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/piwi3910/SquarePack/internal/model"
)

// Collector is a statistics sink that updates Prometheus metrics on every
// recorded generation. Each Collector owns its registry so several runs in
// one process do not collide.
type Collector struct {
	registry *prometheus.Registry

	generation   prometheus.Gauge
	bestFitness  prometheus.Gauge
	meanFitness  prometheus.Gauge
	worstFitness prometheus.Gauge
	valid        prometheus.Gauge
	disasters    prometheus.Counter
	stepDuration prometheus.Histogram

	mu     sync.Mutex
	closed bool
}

// NewCollector registers the run metrics, labelled with the run id.
func NewCollector(runID string) *Collector {
	labels := prometheus.Labels{"run_id": runID}
	c := &Collector{
		registry:     prometheus.NewRegistry(),
		generation:   prometheus.NewGauge(prometheus.GaugeOpts{Name: "squarepack_generation", Help: "Current generation number", ConstLabels: labels}),
		bestFitness:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "squarepack_best_fitness", Help: "Fitness of the best packing", ConstLabels: labels}),
		meanFitness:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "squarepack_mean_fitness", Help: "Mean fitness of the population", ConstLabels: labels}),
		worstFitness: prometheus.NewGauge(prometheus.GaugeOpts{Name: "squarepack_worst_fitness", Help: "Fitness of the worst packing", ConstLabels: labels}),
		valid:        prometheus.NewGauge(prometheus.GaugeOpts{Name: "squarepack_valid", Help: "1 when the best packing has no overlap", ConstLabels: labels}),
		disasters:    prometheus.NewCounter(prometheus.CounterOpts{Name: "squarepack_disasters_total", Help: "Generations bred under hypermutation", ConstLabels: labels}),
		stepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "squarepack_generation_duration_seconds",
			Help:        "Wall time of one generation step",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
	}
	c.registry.MustRegister(c.generation, c.bestFitness, c.meanFitness, c.worstFitness, c.valid, c.disasters, c.stepDuration)
	return c
}

// Record updates the metrics from a snapshot. Recording after Close is a
// no-op.
func (c *Collector) Record(s model.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}

	c.generation.Set(float64(s.Generation))
	c.bestFitness.Set(s.BestFitness)
	c.meanFitness.Set(s.MeanFitness)
	c.worstFitness.Set(s.WorstFitness)
	if s.Valid() {
		c.valid.Set(1)
	} else {
		c.valid.Set(0)
	}
	if s.Disaster {
		c.disasters.Inc()
	}
	if s.Generation > 0 {
		c.stepDuration.Observe(s.StepDuration.Seconds())
	}
	return nil
}

// Close stops further updates. The last values stay scrapeable.
func (c *Collector) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
