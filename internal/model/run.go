package model

import "time"

// RunStatus represents the current state of a benchmark run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// DataSource names where a run's inputs came from.
type DataSource string

const (
	DataSourceLocal DataSource = "local"
	DataSourceDB    DataSource = "db"
)

// Run describes one benchmark run over a batch of inputs.
type Run struct {
	ID          string     `json:"id" yaml:"id"`
	Provider    string     `json:"provider" yaml:"provider"`
	Source      DataSource `json:"source" yaml:"source"`
	Status      RunStatus  `json:"status" yaml:"status"`
	Total       int        `json:"total" yaml:"total"`
	Succeeded   int        `json:"succeeded" yaml:"succeeded"`
	Failed      int        `json:"failed" yaml:"failed"`
	Written     int        `json:"written" yaml:"written"`
	TotalCost   float64    `json:"total_cost" yaml:"total_cost"`
	ResultsPath string     `json:"results_path,omitempty" yaml:"results_path,omitempty"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt  time.Time  `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
}

// Duration is the wall-clock time of a finished run.
func (r *Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
