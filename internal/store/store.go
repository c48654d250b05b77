// Package store reads held-out benchmark documents from a relational
// database and records the history of benchmark runs.
package store

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ocr-bench/internal/config"
	"github.com/sells-group/ocr-bench/internal/db"
	"github.com/sells-group/ocr-bench/internal/model"
	"github.com/sells-group/ocr-bench/internal/resilience"
)

// DefaultSampleLimit is the number of documents sampled when no limit is given.
const DefaultSampleLimit = 100

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Provider string          `json:"provider,omitempty"`
	Status   model.RunStatus `json:"status,omitempty"`
	Limit    int             `json:"limit,omitempty"`
}

// Store defines the persistence interface for benchmark inputs and runs.
type Store interface {
	// Documents
	SampleDocuments(ctx context.Context, limit int) ([]model.Input, error)
	InsertDocuments(ctx context.Context, docs []model.Input) (int64, error)

	// Runs
	SaveRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open connects to the store selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "ocr-bench.db"
		}
		return NewSQLite(dsn)
	case "postgres", "":
		if cfg.DatabaseURL == "" {
			return nil, eris.New("store: postgres requires store.database_url (DATABASE_URL)")
		}
		return NewPostgres(ctx, cfg.DatabaseURL, db.ConnectConfig{
			MaxConns: cfg.MaxConns,
			Retry:    resilience.StartupRetryConfig(),
		})
	default:
		return nil, eris.Errorf("store: unsupported driver %q", cfg.Driver)
	}
}

func sampleLimit(limit int) int {
	if limit <= 0 {
		return DefaultSampleLimit
	}
	return limit
}

// decodeJSONColumn unmarshals a nullable JSON object column.
func decodeJSONColumn(raw []byte, column string) (map[string]any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, eris.Wrapf(err, "decode %s", column)
	}
	return out, nil
}

// encodeJSONColumn marshals an object for storage, keeping nil as NULL.
func encodeJSONColumn(v map[string]any, column string) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrapf(err, "encode %s", column)
	}
	return data, nil
}

func documentFromColumns(url string, cfgJSON, schemaJSON, extractedJSON []byte, markdown *string) (model.Input, error) {
	in := model.Input{ImageURL: url}
	var err error
	if in.Metadata, err = decodeJSONColumn(cfgJSON, "config"); err != nil {
		return in, err
	}
	if in.JSONSchema, err = decodeJSONColumn(schemaJSON, "schema"); err != nil {
		return in, err
	}
	if in.TrueJSONOutput, err = decodeJSONColumn(extractedJSON, "extracted_json"); err != nil {
		return in, err
	}
	if markdown != nil {
		in.TrueMarkdownOutput = *markdown
	}
	return in, nil
}
