// Package batch evaluates many expressions concurrently.
package batch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tariel36/rpncalc/internal/metrics"
	"github.com/tariel36/rpncalc/pkg/logger"
)

// Evaluator evaluates a single expression. Both *expression.Calculator and
// *rpncache.Cache satisfy it.
type Evaluator interface {
	Evaluate(expr string) (string, error)
}

// Result is the outcome of one expression. Results keep input order.
type Result struct {
	ID            string        `json:"id" yaml:"id"`
	Index         int           `json:"index" yaml:"index"`
	Expression    string        `json:"expression" yaml:"expression"`
	Value         string        `json:"value,omitempty" yaml:"value,omitempty"`
	Error         string        `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorKind     string        `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	Latency       time.Duration `json:"-" yaml:"-"`
	LatencyMicros int64         `json:"latency_us" yaml:"latency_us"`
}

// Failed reports whether the expression did not evaluate.
func (r Result) Failed() bool { return r.Error != "" }

// Summary aggregates a run.
type Summary struct {
	Total     int              `json:"total" yaml:"total"`
	Succeeded int              `json:"succeeded" yaml:"succeeded"`
	Failed    int              `json:"failed" yaml:"failed"`
	Workers   int              `json:"workers" yaml:"workers"`
	Elapsed   time.Duration    `json:"-" yaml:"-"`
	ElapsedMs int64            `json:"elapsed_ms" yaml:"elapsed_ms"`
	Latency   metrics.Snapshot `json:"latency" yaml:"latency"`
}

// Report is the full output of a run.
type Report struct {
	Results []Result `json:"results" yaml:"results"`
	Summary Summary  `json:"summary" yaml:"summary"`
}

// Runner evaluates expressions on a bounded pool of workers.
type Runner struct {
	eval     Evaluator
	workers  int
	recorder *metrics.Recorder
	log      *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers sets the number of concurrent workers. Values below 1 mean 1.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n < 1 {
			n = 1
		}
		r.workers = n
	}
}

// WithRecorder makes the runner record into rec as well as its own
// per-run histogram.
func WithRecorder(rec *metrics.Recorder) Option {
	return func(r *Runner) {
		r.recorder = rec
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(eval Evaluator, opts ...Option) *Runner {
	r := &Runner{
		eval:    eval,
		workers: 1,
		log:     logger.Named("batch"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run evaluates exprs. Expression failures are reported per result; the
// returned error is the context error when ctx ended before every item
// ran, in which case the skipped results carry it too. A ctx that ends after
// the last item started does not fail the run.
func (r *Runner) Run(ctx context.Context, exprs []string) (*Report, error) {
	start := time.Now()
	results := make([]Result, len(exprs))
	run := metrics.NewRecorder()

	workers := r.workers
	if workers > len(exprs) {
		workers = len(exprs)
	}

	jobs := make(chan int, len(exprs))
	for i := range exprs {
		jobs <- i
	}
	close(jobs)

	var skipped atomic.Bool
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				if err := ctx.Err(); err != nil {
					skipped.Store(true)
					results[i] = r.skipped(i, exprs[i], err)
					continue
				}
				results[i] = r.evaluate(run, i, exprs[i])
			}
		}()
	}
	wg.Wait()

	report := &Report{Results: results}
	s := &report.Summary
	s.Total = len(results)
	s.Workers = workers
	for _, res := range results {
		if res.Failed() {
			s.Failed++
		} else {
			s.Succeeded++
		}
	}
	s.Elapsed = time.Since(start)
	s.ElapsedMs = s.Elapsed.Milliseconds()
	s.Latency = run.Snapshot()

	r.log.Debug("batch finished",
		zap.Int("total", s.Total),
		zap.Int("failed", s.Failed),
		zap.Int("workers", workers),
		zap.Duration("elapsed", s.Elapsed),
	)

	if skipped.Load() {
		return report, ctx.Err()
	}
	return report, nil
}

func (r *Runner) evaluate(run *metrics.Recorder, index int, expr string) Result {
	res := Result{ID: uuid.NewString(), Index: index, Expression: expr}

	start := time.Now()
	value, err := r.eval.Evaluate(expr)
	res.Latency = time.Since(start)
	res.LatencyMicros = res.Latency.Microseconds()

	run.Observe(res.Latency, err)
	if r.recorder != nil {
		r.recorder.Observe(res.Latency, err)
	}

	if err != nil {
		res.Error = err.Error()
		res.ErrorKind = metrics.ErrorKind(err)
		r.log.Debug("expression failed", zap.Int("index", index), zap.Error(err))
		return res
	}
	res.Value = value
	return res
}

func (r *Runner) skipped(index int, expr string, err error) Result {
	return Result{
		ID:         uuid.NewString(),
		Index:      index,
		Expression: expr,
		Error:      err.Error(),
		ErrorKind:  metrics.ErrorKind(err),
	}
}
