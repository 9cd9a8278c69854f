// Package metrics records evaluation latency and outcomes.
package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tariel36/rpncalc/internal/expression"
)

const (
	minLatency  = int64(1) // 1µs
	maxLatency  = int64(60 * time.Second / time.Microsecond)
	significant = 3
)

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// Recorder aggregates evaluation latencies in an HDR histogram and mirrors
// them into Prometheus collectors.
type Recorder struct {
	mu     sync.Mutex
	hist   *hdrhistogram.Histogram
	errors int64
	byKind map[string]int64

	registry    *prometheus.Registry
	evaluations *prometheus.CounterVec
	failures    *prometheus.CounterVec
	latency     prometheus.Histogram
}

// NewRecorder creates a Recorder with its own Prometheus registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		hist:     hdrhistogram.New(minLatency, maxLatency, significant),
		byKind:   make(map[string]int64),
		registry: prometheus.NewRegistry(),
		evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpncalc_evaluations_total",
				Help: "Total number of expression evaluations",
			},
			[]string{"outcome"},
		),
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rpncalc_errors_total",
				Help: "Total number of failed evaluations by error kind",
			},
			[]string{"kind"},
		),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rpncalc_evaluation_seconds",
			Help:    "Expression evaluation latency",
			Buckets: prometheus.ExponentialBuckets(0.000005, 4, 10),
		}),
	}
	r.registry.MustRegister(r.evaluations, r.failures, r.latency)
	return r
}

// Registry returns the Prometheus registry holding the recorder's collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ErrorKind returns the label used for err.
func ErrorKind(err error) string {
	if kind := expression.KindOf(err); kind != 0 {
		return kind.String()
	}
	return "Other"
}

// Observe records one evaluation that took d and ended with err.
func (r *Recorder) Observe(d time.Duration, err error) {
	us := d.Microseconds()
	if us < minLatency {
		us = minLatency
	}
	if us > maxLatency {
		us = maxLatency
	}

	r.mu.Lock()
	_ = r.hist.RecordValue(us)
	if err != nil {
		r.errors++
		r.byKind[ErrorKind(err)]++
	}
	r.mu.Unlock()

	r.latency.Observe(d.Seconds())
	if err != nil {
		r.evaluations.WithLabelValues(OutcomeError).Inc()
		r.failures.WithLabelValues(ErrorKind(err)).Inc()
	} else {
		r.evaluations.WithLabelValues(OutcomeOK).Inc()
	}
}

// Time runs fn and observes its duration and error.
func (r *Recorder) Time(fn func() error) error {
	start := time.Now()
	err := fn()
	r.Observe(time.Since(start), err)
	return err
}

// Snapshot is a point-in-time summary of recorded evaluations.
type Snapshot struct {
	Count        int64            `json:"count" yaml:"count"`
	Errors       int64            `json:"errors" yaml:"errors"`
	ErrorsByKind map[string]int64 `json:"errors_by_kind,omitempty" yaml:"errors_by_kind,omitempty"`
	MinMicros    int64            `json:"min_us" yaml:"min_us"`
	MeanMicros   float64          `json:"mean_us" yaml:"mean_us"`
	P50Micros    int64            `json:"p50_us" yaml:"p50_us"`
	P90Micros    int64            `json:"p90_us" yaml:"p90_us"`
	P99Micros    int64            `json:"p99_us" yaml:"p99_us"`
	MaxMicros    int64            `json:"max_us" yaml:"max_us"`
}

// Snapshot returns the current summary.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := Snapshot{
		Count:  r.hist.TotalCount(),
		Errors: r.errors,
	}
	if len(r.byKind) > 0 {
		s.ErrorsByKind = make(map[string]int64, len(r.byKind))
		for k, v := range r.byKind {
			s.ErrorsByKind[k] = v
		}
	}
	if s.Count > 0 {
		s.MinMicros = r.hist.Min()
		s.MeanMicros = r.hist.Mean()
		s.P50Micros = r.hist.ValueAtQuantile(50)
		s.P90Micros = r.hist.ValueAtQuantile(90)
		s.P99Micros = r.hist.ValueAtQuantile(99)
		s.MaxMicros = r.hist.Max()
	}
	return s
}

// Reset clears the histogram and error counts. Prometheus counters are
// monotonic and keep their values.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hist.Reset()
	r.errors = 0
	r.byKind = make(map[string]int64)
}
