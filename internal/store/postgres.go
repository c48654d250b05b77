package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/ocr-bench/internal/db"
	"github.com/sells-group/ocr-bench/internal/model"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = eris.New("store: not found")

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, cfg db.ConnectConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	url                 TEXT NOT NULL,
	config              JSONB,
	schema              JSONB,
	extracted_json      JSONB,
	markdown            TEXT,
	include_in_training BOOLEAN NOT NULL DEFAULT FALSE,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_documents_include_in_training ON documents(include_in_training);

CREATE TABLE IF NOT EXISTS benchmark_runs (
	id           TEXT PRIMARY KEY,
	provider     TEXT NOT NULL,
	source       TEXT NOT NULL,
	status       TEXT NOT NULL,
	total        INTEGER NOT NULL DEFAULT 0,
	succeeded    INTEGER NOT NULL DEFAULT 0,
	failed       INTEGER NOT NULL DEFAULT 0,
	written      INTEGER NOT NULL DEFAULT 0,
	total_cost   DOUBLE PRECISION NOT NULL DEFAULT 0,
	results_path TEXT NOT NULL DEFAULT '',
	started_at   TIMESTAMPTZ NOT NULL,
	finished_at  TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_benchmark_runs_started_at ON benchmark_runs(started_at DESC);
`

const pgSampleDocuments = `SELECT url, config, schema, extracted_json, markdown
FROM documents
WHERE include_in_training = FALSE
ORDER BY RANDOM()
LIMIT $1`

const pgUpsertRun = `INSERT INTO benchmark_runs
	(id, provider, source, status, total, succeeded, failed, written, total_cost, results_path, started_at, finished_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
	status = EXCLUDED.status,
	total = EXCLUDED.total,
	succeeded = EXCLUDED.succeeded,
	failed = EXCLUDED.failed,
	written = EXCLUDED.written,
	total_cost = EXCLUDED.total_cost,
	results_path = EXCLUDED.results_path,
	finished_at = EXCLUDED.finished_at`

const runColumns = `id, provider, source, status, total, succeeded, failed, written, total_cost, results_path, started_at, finished_at`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SampleDocuments returns up to limit random documents held out of training.
func (s *PostgresStore) SampleDocuments(ctx context.Context, limit int) ([]model.Input, error) {
	rows, err := s.pool.Query(ctx, pgSampleDocuments, sampleLimit(limit))
	if err != nil {
		return nil, eris.Wrap(err, "postgres: sample documents")
	}
	defer rows.Close()

	var docs []model.Input
	for rows.Next() {
		var (
			url                                string
			cfgJSON, schemaJSON, extractedJSON []byte
			markdown                           *string
		)
		if err := rows.Scan(&url, &cfgJSON, &schemaJSON, &extractedJSON, &markdown); err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		in, err := documentFromColumns(url, cfgJSON, schemaJSON, extractedJSON, markdown)
		if err != nil {
			return nil, eris.Wrapf(err, "postgres: document %s", url)
		}
		docs = append(docs, in)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: sample documents iterate")
}

// InsertDocuments bulk-loads held-out documents with COPY.
func (s *PostgresStore) InsertDocuments(ctx context.Context, docs []model.Input) (int64, error) {
	rows := make([][]any, 0, len(docs))
	for _, d := range docs {
		row, err := documentRow(d)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: insert documents")
		}
		rows = append(rows, row)
	}
	return db.CopyFrom(ctx, s.pool, "documents", documentColumns, rows)
}

func (s *PostgresStore) SaveRun(ctx context.Context, run *model.Run) error {
	_, err := s.pool.Exec(ctx, pgUpsertRun, runArgs(run)...)
	return eris.Wrapf(err, "postgres: save run %s", run.ID)
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM benchmark_runs WHERE id = $1`, runID)
	r, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "postgres: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM benchmark_runs WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Provider != "" {
		query += fmt.Sprintf(` AND provider = $%d`, argIdx)
		args = append(args, filter.Provider)
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

var documentColumns = []string{"id", "url", "config", "schema", "extracted_json", "markdown", "include_in_training"}

func documentRow(d model.Input) ([]any, error) {
	cfgJSON, err := encodeJSONColumn(d.Metadata, "config")
	if err != nil {
		return nil, err
	}
	schemaJSON, err := encodeJSONColumn(d.JSONSchema, "schema")
	if err != nil {
		return nil, err
	}
	extractedJSON, err := encodeJSONColumn(d.TrueJSONOutput, "extracted_json")
	if err != nil {
		return nil, err
	}
	return []any{uuid.NewString(), d.ImageURL, cfgJSON, schemaJSON, extractedJSON, d.TrueMarkdownOutput, false}, nil
}

func runArgs(r *model.Run) []any {
	var finished *time.Time
	if !r.FinishedAt.IsZero() {
		f := r.FinishedAt.UTC()
		finished = &f
	}
	return []any{
		r.ID, r.Provider, string(r.Source), string(r.Status),
		r.Total, r.Succeeded, r.Failed, r.Written, r.TotalCost, r.ResultsPath,
		r.StartedAt.UTC(), finished,
	}
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var (
		r              model.Run
		source, status string
		finished       *time.Time
	)
	if err := row.Scan(&r.ID, &r.Provider, &source, &status,
		&r.Total, &r.Succeeded, &r.Failed, &r.Written, &r.TotalCost, &r.ResultsPath,
		&r.StartedAt, &finished); err != nil {
		return nil, err
	}
	r.Source = model.DataSource(source)
	r.Status = model.RunStatus(status)
	if finished != nil {
		r.FinishedAt = *finished
	}
	return &r, nil
}
