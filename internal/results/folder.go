package results

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// RunID returns the default run folder name for a run started at t.
func RunID(t time.Time) string {
	return t.UTC().Format("2006-01-02-15-04-05")
}

// UniqueRunID appends a short random suffix to RunID so that concurrent runs
// started in the same second get distinct folders.
func UniqueRunID(t time.Time) string {
	return RunID(t) + "-" + uuid.NewString()[:8]
}

// CreateRunFolder creates root/name (and root) and returns its path.
func CreateRunFolder(root, name string) (string, error) {
	if name == "" {
		return "", eris.New("results: run folder name is empty")
	}
	dir := filepath.Join(root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "results: create run folder %s", dir)
	}
	return dir, nil
}

// WriteResult writes one value as indented JSON to dir/fileName.
func WriteResult(dir, fileName string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return eris.Wrapf(err, "results: marshal %s", fileName)
	}
	path := filepath.Join(dir, fileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "results: write %s", path)
	}
	return nil
}
