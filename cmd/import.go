package main

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/ocr-bench/internal/dataset"
	"github.com/sells-group/ocr-bench/internal/store"
)

var (
	importFolder string
	importLimit  int
	importStrict bool
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import local fixtures into the documents table",
	Long:  "Loads every *.jsonl fixture in a folder and inserts the records as held-out documents, so db-sourced runs can sample them.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		folder := importFolder
		if folder == "" {
			folder = cfg.Data.Folder
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		_, err = importFixtures(ctx, st, folder, importLimit, importStrict)
		return err
	},
}

func init() {
	importCmd.Flags().StringVar(&importFolder, "folder", "", "fixture folder (default: data.folder)")
	importCmd.Flags().IntVar(&importLimit, "limit", 0, "max number of records to import (0 = all)")
	importCmd.Flags().BoolVar(&importStrict, "strict", false, "fail when a record's true_json_output does not match its json_schema")
	rootCmd.AddCommand(importCmd)
}

// importFixtures inserts local fixtures as held-out documents. Records whose
// ground truth does not match their schema are reported, and rejected in
// strict mode.
func importFixtures(ctx context.Context, st store.Store, folder string, limit int, strict bool) (int64, error) {
	docs, err := dataset.LoadLocal(folder, limit)
	if err != nil {
		return 0, eris.Wrap(err, "import: load fixtures")
	}

	var invalid int
	for i, d := range docs {
		if verr := dataset.ValidateGroundTruth(d); verr != nil {
			if strict {
				return 0, eris.Wrapf(verr, "import: record %d", i)
			}
			invalid++
			zap.L().Warn("import: ground truth does not match schema",
				zap.Int("index", i),
				zap.Error(verr),
			)
		}
	}

	n, err := st.InsertDocuments(ctx, docs)
	if err != nil {
		return 0, eris.Wrap(err, "import: insert documents")
	}

	zap.L().Info("import complete",
		zap.Int64("inserted", n),
		zap.Int("schema_mismatches", invalid),
		zap.String("folder", folder),
	)
	return n, nil
}
