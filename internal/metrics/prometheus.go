// Package metrics exposes the agent's parse outcomes as Prometheus metrics.
//
// The agent is a one-shot process on most boots, so metrics are not
// scraped from a listener. They are written to a node_exporter textfile
// collector file instead.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/stensonb/cloud-agent/internal/clock"
	"github.com/stensonb/cloud-agent/internal/sysconfig"
)

const namespace = "cloud_agent"

// Recorder holds the agent metrics on a private registry.
type Recorder struct {
	reg *prometheus.Registry

	ParseTotal    *prometheus.CounterVec
	ParseDuration prometheus.Histogram
	LastParse     prometheus.Gauge
	Addresses     *prometheus.CounterVec
	FirstBoot     prometheus.Gauge

	mu    sync.Mutex
	clock clock.Clock
}

var (
	once     sync.Once
	recorder *Recorder
)

// Get returns the process-wide recorder, creating it if necessary.
func Get() *Recorder {
	once.Do(func() {
		recorder = New()
	})
	return recorder
}

// New creates a recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		reg:   reg,
		clock: clock.Default,

		ParseTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "context_parse_total",
			Help:      "Context file parse attempts by result",
		}, []string{"result"}),

		ParseDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "context_parse_duration_seconds",
			Help:      "Time spent reading and hashing the context file",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1},
		}),

		LastParse: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "context_last_parse_timestamp_seconds",
			Help:      "Unix timestamp of the last parse attempt",
		}),

		Addresses: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "context_addresses_total",
			Help:      "Network address entries registered from the context, by kind",
		}, []string{"kind"}),

		FirstBoot: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "instance_first_boot",
			Help:      "1 if this boot is the first seen for the current instance identity",
		}),
	}
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.reg
}

// ObserveParse records a parse attempt.
func (r *Recorder) ObserveParse(result string, d time.Duration) {
	r.ParseTotal.WithLabelValues(result).Inc()
	r.ParseDuration.Observe(d.Seconds())

	r.mu.Lock()
	now := r.clock.Now()
	r.mu.Unlock()
	r.LastParse.Set(float64(now.UnixNano()) / 1e9)
}

// ObserveAddress records one registered network address.
func (r *Recorder) ObserveAddress(kind sysconfig.Kind) {
	r.Addresses.WithLabelValues(kind.String()).Inc()
}

// SetFirstBoot records whether the instance identity is new.
func (r *Recorder) SetFirstBoot(first bool) {
	if first {
		r.FirstBoot.Set(1)
	} else {
		r.FirstBoot.Set(0)
	}
}

// SetClock replaces the time source.
func (r *Recorder) SetClock(c clock.Clock) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = c
}

// WriteTextfile writes every metric to path in the text exposition
// format. The file is replaced atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
