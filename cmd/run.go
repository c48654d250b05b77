package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ocr-bench/internal/benchmark"
	"github.com/sells-group/ocr-bench/internal/cost"
	"github.com/sells-group/ocr-bench/internal/dataset"
	"github.com/sells-group/ocr-bench/internal/model"
	"github.com/sells-group/ocr-bench/internal/ocr"
	"github.com/sells-group/ocr-bench/internal/results"
	"github.com/sells-group/ocr-bench/internal/store"
)

const resultsFile = "results.json"

var (
	runName   string
	runUnique bool
	runRecord bool
	runSource string
	runLimit  int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a benchmark over local fixtures or sampled documents",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if runSource != "" {
			cfg.Data.Source = runSource
		}
		if runLimit > 0 {
			cfg.Data.Limit = runLimit
			cfg.Store.SampleLimit = runLimit
		}
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		provider, err := ocr.NewProvider(cfg)
		if err != nil {
			return eris.Wrap(err, "init provider")
		}

		var st store.Store
		if cfg.Data.Source == string(model.DataSourceDB) || runRecord {
			st, err = initStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		inputs, err := loadInputs(ctx, st)
		if err != nil {
			return err
		}

		var recorder store.Store
		if runRecord {
			recorder = st
		}

		run, report, err := executeRun(ctx, runOptions{
			Name:     runName,
			Unique:   runUnique,
			Source:   model.DataSource(cfg.Data.Source),
			Provider: provider,
			Inputs:   inputs,
			Recorder: recorder,
		})
		if err != nil {
			return err
		}

		formatRunSummary(os.Stdout, run, report)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runName, "name", "", "run folder name (default: UTC timestamp)")
	runCmd.Flags().BoolVar(&runUnique, "unique", false, "append a random suffix to the generated run name")
	runCmd.Flags().BoolVar(&runRecord, "record", false, "record the run in the store")
	runCmd.Flags().StringVar(&runSource, "source", "", "input source override (local, db)")
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "max number of inputs (overrides data.limit and store.sample_limit)")
	rootCmd.AddCommand(runCmd)
}

// loadInputs reads benchmark inputs from the configured source.
func loadInputs(ctx context.Context, st store.Store) ([]model.Input, error) {
	switch model.DataSource(cfg.Data.Source) {
	case model.DataSourceLocal:
		inputs, err := dataset.LoadLocal(cfg.Data.Folder, cfg.Data.Limit)
		return inputs, eris.Wrap(err, "load local inputs")
	case model.DataSourceDB:
		if st == nil {
			return nil, eris.New("db source requires a store")
		}
		inputs, err := st.SampleDocuments(ctx, cfg.Store.SampleLimit)
		return inputs, eris.Wrap(err, "sample documents")
	default:
		return nil, eris.Errorf("unknown data source %q", cfg.Data.Source)
	}
}

// runOptions describes one benchmark run.
type runOptions struct {
	Name     string
	Unique   bool
	Source   model.DataSource
	Provider ocr.Provider
	Inputs   []model.Input
	// Recorder, when set, receives the run record at start and finish.
	Recorder store.Store
	Now      func() time.Time
}

// executeRun benchmarks the inputs and writes results.json and run.yaml
// into a fresh run folder under cfg.Results.Dir.
func executeRun(ctx context.Context, opts runOptions) (*model.Run, *results.Report, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	started := now().UTC()

	name := opts.Name
	if name == "" {
		if opts.Unique {
			name = results.UniqueRunID(started)
		} else {
			name = results.RunID(started)
		}
	}

	dir, err := results.CreateRunFolder(cfg.Results.Dir, name)
	if err != nil {
		return nil, nil, err
	}

	run := &model.Run{
		ID:        name,
		Provider:  opts.Provider.Name(),
		Source:    opts.Source,
		Status:    model.RunStatusRunning,
		Total:     len(opts.Inputs),
		StartedAt: started,
	}
	recordRun(ctx, opts.Recorder, run)

	runner := &benchmark.Runner{
		Provider:    opts.Provider,
		Calc:        cost.NewCalculator(cfg.Pricing.Rates()),
		Concurrency: cfg.Benchmark.Concurrency,
		Limiter:     benchmark.NewLimiter(cfg.Benchmark.RequestsPerSecond),
	}
	out := runner.Run(ctx, opts.Inputs)
	summary := benchmark.Summarize(out)
	summary.Apply(run)

	report, writeErr := results.WriteResults(out, filepath.Join(dir, resultsFile))
	run.FinishedAt = now().UTC()
	if writeErr != nil {
		run.Status = model.RunStatusFailed
	} else {
		run.Status = model.RunStatusComplete
		run.Written = report.Written
		run.ResultsPath = report.Path
	}

	if err := results.WriteManifest(dir, results.Manifest{Run: *run, Output: report}); err != nil {
		zap.L().Warn("run: write manifest failed", zap.String("run_id", run.ID), zap.Error(err))
	}
	// Detach from ctx so an interrupted run is still recorded.
	recordRun(context.WithoutCancel(ctx), opts.Recorder, run)

	if writeErr != nil {
		return run, nil, eris.Wrap(writeErr, "write results")
	}

	zap.L().Info("run complete",
		zap.String("run_id", run.ID),
		zap.String("provider", run.Provider),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
		zap.Float64("total_cost", summary.TotalCost),
		zap.Float64("mean_duration_ms", summary.MeanDurationMs),
	)
	return run, report, nil
}

func recordRun(ctx context.Context, st store.Store, run *model.Run) {
	if st == nil {
		return
	}
	if err := st.SaveRun(ctx, run); err != nil {
		zap.L().Warn("run: record run failed", zap.String("run_id", run.ID), zap.Error(err))
	}
}

// formatRunSummary writes a short run report to w.
func formatRunSummary(out io.Writer, run *model.Run, report *results.Report) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", run.ID)
	_, _ = fmt.Fprintf(w, "Provider:\t%s\n", run.Provider)
	_, _ = fmt.Fprintf(w, "Documents:\t%d\n", run.Total)
	_, _ = fmt.Fprintf(w, "Succeeded:\t%d\n", run.Succeeded)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", run.Failed)
	_, _ = fmt.Fprintf(w, "Total cost:\t$%.4f\n", run.TotalCost)
	_, _ = fmt.Fprintf(w, "Duration:\t%s\n", run.Duration().Round(time.Millisecond))
	if report != nil {
		_, _ = fmt.Fprintf(w, "Results:\t%s (%d written)\n", report.Path, report.Written)
		if len(report.Failed) > 0 {
			_, _ = fmt.Fprintf(w, "Unserializable:\t%d (see %s)\n", len(report.Failed), report.ErrorLogPath)
		}
	}
	_ = w.Flush()
}
