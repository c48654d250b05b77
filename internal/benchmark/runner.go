// Package benchmark runs an OCR provider over a batch of inputs and
// collects one result record per input.
package benchmark

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/ocr-bench/internal/cost"
	"github.com/sells-group/ocr-bench/internal/model"
	"github.com/sells-group/ocr-bench/internal/ocr"
	"github.com/sells-group/ocr-bench/internal/resilience"
)

// DefaultConcurrency bounds in-flight extractions when Runner.Concurrency is unset.
const DefaultConcurrency = 4

// Runner fans extractions out to a provider.
type Runner struct {
	Provider    ocr.Provider
	Calc        *cost.Calculator
	Concurrency int
	// Limiter paces submissions. Nil means unlimited.
	Limiter *rate.Limiter
	// Now is overridable in tests.
	Now func() time.Time
}

// NewLimiter returns a limiter allowing rps submissions per second, or nil
// when rps is not positive.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// Run extracts every input and returns results in input order. A failed
// extraction is recorded on its result and never aborts the batch.
func (r *Runner) Run(ctx context.Context, inputs []model.Input) []model.Result {
	results := make([]model.Result, len(inputs))
	if len(inputs) == 0 {
		return results
	}

	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}
	provider := r.Provider.Name()

	zap.L().Info("benchmark: starting run",
		zap.String("provider", provider),
		zap.Int("inputs", len(inputs)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var done, failed atomic.Int64

	for i, in := range inputs {
		g.Go(func() error {
			res := model.NewResult(in, provider)
			res.StartedAt = now().UTC()

			if err := r.wait(gctx); err != nil {
				res.Error = err.Error()
				res.ErrorType = resilience.ClassifyError(err)
			} else {
				text, usage, err := ocr.Extract(gctx, r.Provider, r.Calc, in.ImageURL)
				res.PredictedMarkdown = text
				res.Usage = usage
				if err != nil {
					res.Error = err.Error()
					res.ErrorType = resilience.ClassifyError(err)
				}
			}
			results[i] = res

			n := done.Add(1)
			if !res.Succeeded() {
				failed.Add(1)
				zap.L().Warn("benchmark: extraction failed",
					zap.Int("index", i),
					zap.String("provider", provider),
					zap.String("error_type", res.ErrorType),
					zap.String("error", res.Error),
				)
			}
			zap.L().Debug("benchmark: progress",
				zap.Int64("done", n),
				zap.Int("total", len(inputs)),
			)
			return nil // don't abort batch on individual failure
		})
	}
	_ = g.Wait()

	zap.L().Info("benchmark: run complete",
		zap.String("provider", provider),
		zap.Int64("succeeded", done.Load()-failed.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return results
}

func (r *Runner) wait(ctx context.Context) error {
	if r.Limiter == nil {
		return ctx.Err()
	}
	return r.Limiter.Wait(ctx)
}

// Summary aggregates a batch of results.
type Summary struct {
	Total          int     `json:"total" yaml:"total"`
	Succeeded      int     `json:"succeeded" yaml:"succeeded"`
	Failed         int     `json:"failed" yaml:"failed"`
	TotalCost      float64 `json:"total_cost" yaml:"total_cost"`
	MeanDurationMs float64 `json:"mean_duration_ms" yaml:"mean_duration_ms"`
}

// Summarize totals results. The mean duration covers successful extractions only.
func Summarize(results []model.Result) Summary {
	s := Summary{Total: len(results)}
	var totalMs float64
	for _, res := range results {
		s.TotalCost += res.Usage.TotalCost
		if !res.Succeeded() {
			s.Failed++
			continue
		}
		s.Succeeded++
		totalMs += res.Usage.DurationMs
	}
	if s.Succeeded > 0 {
		s.MeanDurationMs = totalMs / float64(s.Succeeded)
	}
	return s
}

// Apply copies the summary counts onto a run record.
func (s Summary) Apply(run *model.Run) {
	run.Total = s.Total
	run.Succeeded = s.Succeeded
	run.Failed = s.Failed
	run.TotalCost = s.TotalCost
}
