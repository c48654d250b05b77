package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/ocr-bench/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It suits local
// fixture databases; JSON columns are stored as TEXT.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id                  TEXT PRIMARY KEY,
	url                 TEXT NOT NULL,
	config              TEXT,
	schema              TEXT,
	extracted_json      TEXT,
	markdown            TEXT,
	include_in_training BOOLEAN NOT NULL DEFAULT FALSE,
	created_at          DATETIME NOT NULL DEFAULT (datetime('now'))
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
	total_cost   REAL NOT NULL DEFAULT 0,
	results_path TEXT NOT NULL DEFAULT '',
	started_at   DATETIME NOT NULL,
	finished_at  DATETIME
);

CREATE INDEX IF NOT EXISTS idx_benchmark_runs_started_at ON benchmark_runs(started_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SampleDocuments returns up to limit random documents held out of training.
func (s *SQLiteStore) SampleDocuments(ctx context.Context, limit int) ([]model.Input, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT url, config, schema, extracted_json, markdown
		FROM documents
		WHERE include_in_training = FALSE
		ORDER BY RANDOM()
		LIMIT ?`,
		sampleLimit(limit),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: sample documents")
	}
	defer rows.Close() //nolint:errcheck

	var docs []model.Input
	for rows.Next() {
		var (
			url                                string
			cfgJSON, schemaJSON, extractedJSON []byte
			markdown                           sql.NullString
		)
		if err := rows.Scan(&url, &cfgJSON, &schemaJSON, &extractedJSON, &markdown); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan document")
		}
		var md *string
		if markdown.Valid {
			md = &markdown.String
		}
		in, err := documentFromColumns(url, cfgJSON, schemaJSON, extractedJSON, md)
		if err != nil {
			return nil, eris.Wrapf(err, "sqlite: document %s", url)
		}
		docs = append(docs, in)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: sample documents iterate")
}

// InsertDocuments adds held-out documents in a single transaction.
func (s *SQLiteStore) InsertDocuments(ctx context.Context, docs []model.Input) (int64, error) {
	if len(docs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (id, url, config, schema, extracted_json, markdown, include_in_training)
		VALUES (?, ?, ?, ?, ?, ?, FALSE)`)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert document")
	}
	defer stmt.Close() //nolint:errcheck

	var n int64
	for _, d := range docs {
		cfgJSON, err := encodeJSONColumn(d.Metadata, "config")
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: insert documents")
		}
		schemaJSON, err := encodeJSONColumn(d.JSONSchema, "schema")
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: insert documents")
		}
		extractedJSON, err := encodeJSONColumn(d.TrueJSONOutput, "extracted_json")
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: insert documents")
		}
		if _, err := stmt.ExecContext(ctx, uuid.NewString(), d.ImageURL,
			textOrNull(cfgJSON), textOrNull(schemaJSON), textOrNull(extractedJSON), d.TrueMarkdownOutput); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert document %s", d.ImageURL)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit documents")
	}
	return n, nil
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run *model.Run) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO benchmark_runs
			(id, provider, source, status, total, succeeded, failed, written, total_cost, results_path, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			status = excluded.status,
			total = excluded.total,
			succeeded = excluded.succeeded,
			failed = excluded.failed,
			written = excluded.written,
			total_cost = excluded.total_cost,
			results_path = excluded.results_path,
			finished_at = excluded.finished_at`,
		runArgs(run)...,
	)
	return eris.Wrapf(err, "sqlite: save run %s", run.ID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM benchmark_runs WHERE id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "sqlite: get run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get run %s", runID)
	}
	return r, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM benchmark_runs WHERE 1=1`
	var args []any

	if filter.Provider != "" {
		query += ` AND provider = ?`
		args = append(args, filter.Provider)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func textOrNull(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}
