package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/ocr-bench/internal/model"
	"github.com/sells-group/ocr-bench/internal/results"
	"github.com/sells-group/ocr-bench/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect benchmark run history",
	Long:  "Commands for listing and viewing benchmark runs recorded with run --record, or stored in a results folder.",
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded benchmark runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		provider, _ := cmd.Flags().GetString("provider")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{
			Provider: provider,
			Status:   model.RunStatus(status),
			Limit:    limit,
		})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

// -- runs show --

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show full details of a run",
	Long:  "Reads the run manifest from the results folder, falling back to the store when no folder exists.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		m, err := results.ReadManifest(filepath.Join(cfg.Results.Dir, args[0]))
		if err == nil {
			return writeJSON(os.Stdout, m)
		}

		st, serr := initStore(ctx)
		if serr != nil {
			return eris.Wrapf(err, "runs show %s", args[0])
		}
		defer st.Close() //nolint:errcheck

		run, err := st.GetRun(ctx, args[0])
		if err != nil {
			return eris.Wrap(err, "runs show")
		}
		return writeJSON(os.Stdout, run)
	},
}

func init() {
	runsListCmd.Flags().String("provider", "", "filter by provider (chunkr, mistral)")
	runsListCmd.Flags().String("status", "", "filter by run status (running, complete, failed)")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsCmd.AddCommand(runsListCmd)
	runsCmd.AddCommand(runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tPROVIDER\tSOURCE\tSTATUS\tOK\tFAILED\tCOST\tSTARTED\tDURATION")
	_, _ = fmt.Fprintln(w, "--\t--------\t------\t------\t--\t------\t----\t-------\t--------")

	for _, r := range runs {
		dur := "-"
		if !r.FinishedAt.IsZero() {
			dur = r.Duration().Round(time.Second).String()
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t$%.4f\t%s\t%s\n",
			r.ID,
			r.Provider,
			r.Source,
			r.Status,
			r.Succeeded,
			r.Failed,
			r.TotalCost,
			r.StartedAt.Format("2006-01-02 15:04"),
			dur,
		)
	}
	_ = w.Flush()
}
