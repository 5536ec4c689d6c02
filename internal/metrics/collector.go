// Package metrics provides Prometheus metrics for go-cstest.
//
// All metrics are per-process aggregates: one series per test name, outcome
// or output stream. Scene labels only appear for scenes that failed a run.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Namespace prefixes every metric name.
const Namespace = "cstest"

// Collector records test run metrics.
type Collector struct {
	info            *prometheus.GaugeVec
	runsTotal       *prometheus.CounterVec
	runActive       prometheus.Gauge
	iterations      *prometheus.GaugeVec
	runDuration     *prometheus.HistogramVec
	outputLines     *prometheus.CounterVec
	runsRejected    prometheus.Counter
	scriptErrors    *prometheus.CounterVec
	iterationPeriod *prometheus.HistogramVec

	// For summary generation
	mu        sync.Mutex
	outcomes  map[string]int64
	totalRuns int64
}

// CollectorConfig holds configuration for the collector.
type CollectorConfig struct {
	Version     string
	ProjectPath string
}

// =============================================================================
// Construction
// =============================================================================

// NewCollector creates a new metrics collector on the default registry.
func NewCollector(cfg CollectorConfig) *Collector {
	return NewCollectorWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewCollectorWithRegistry creates a collector with a custom registry.
// Useful for testing.
func NewCollectorWithRegistry(cfg CollectorConfig, registry prometheus.Registerer) *Collector {
	c := &Collector{
		info: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "info",
				Help:      "Information about the test runner (value always 1)",
			},
			[]string{"version", "project"},
		),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "runs_total",
				Help:      "Finished test runs by test and outcome",
			},
			[]string{"test", "outcome"},
		),
		runActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "run_active",
				Help:      "1 while a test run is active",
			},
		),
		iterations: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "iterations",
				Help:      "Last iteration marker seen in the current or last run",
			},
			[]string{"test"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "run_duration_seconds",
				Help:      "Wall time of finished test runs",
				Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12), // 0.5s .. ~17m
			},
			[]string{"test"},
		),
		outputLines: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "output_lines_total",
				Help:      "Lines written by test scripts, by stream",
			},
			[]string{"stream"},
		),
		runsRejected: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "runs_rejected_total",
				Help:      "Start requests rejected because a run was active",
			},
		),
		scriptErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "script_errors_total",
				Help:      "Failed runs with a scene location, by scene",
			},
			[]string{"scene"},
		),
		iterationPeriod: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "iteration_interval_seconds",
				Help:      "Time between consecutive iteration markers",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10), // 1ms .. ~4m
			},
			[]string{"test"},
		),
		outcomes: make(map[string]int64),
	}

	registry.MustRegister(
		c.info,
		c.runsTotal,
		c.runActive,
		c.iterations,
		c.runDuration,
		c.outputLines,
		c.runsRejected,
		c.scriptErrors,
		c.iterationPeriod,
	)

	c.info.WithLabelValues(cfg.Version, cfg.ProjectPath).Set(1)
	return c
}

// =============================================================================
// Recording
// =============================================================================

// RunStarted marks a run as active and resets its iteration gauge.
func (c *Collector) RunStarted(test string) {
	c.runActive.Set(1)
	c.iterations.WithLabelValues(test).Set(0)
}

// RunRejected counts a start refused because a run was active.
func (c *Collector) RunRejected() {
	c.runsRejected.Inc()
}

// RecordIteration records the latest iteration marker and, when known, the
// time since the previous one.
func (c *Collector) RecordIteration(test string, count uint64, sincePrev time.Duration) {
	c.iterations.WithLabelValues(test).Set(float64(count))
	if sincePrev > 0 {
		c.iterationPeriod.WithLabelValues(test).Observe(sincePrev.Seconds())
	}
}

// RecordScriptError counts a failure located in scene.
func (c *Collector) RecordScriptError(scene string) {
	c.scriptErrors.WithLabelValues(scene).Inc()
}

// RunFinished records a finished run.
func (c *Collector) RunFinished(test, outcome string, d time.Duration, stdoutLines, stderrLines int64) {
	c.runActive.Set(0)
	c.runsTotal.WithLabelValues(test, outcome).Inc()
	c.runDuration.WithLabelValues(test).Observe(d.Seconds())
	c.outputLines.WithLabelValues("stdout").Add(float64(stdoutLines))
	c.outputLines.WithLabelValues("stderr").Add(float64(stderrLines))

	c.mu.Lock()
	c.totalRuns++
	c.outcomes[outcome]++
	c.mu.Unlock()
}

// TotalRuns returns the number of finished runs.
func (c *Collector) TotalRuns() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalRuns
}

// Outcomes returns finished run counts by outcome.
func (c *Collector) Outcomes() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.outcomes))
	for k, v := range c.outcomes {
		out[k] = v
	}
	return out
}
