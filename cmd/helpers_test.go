package main

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/ocr-bench/internal/config"
	"github.com/sells-group/ocr-bench/internal/cost"
	"github.com/sells-group/ocr-bench/internal/ocr"
)

// testConfig installs a config that benchmarks into a temp results dir.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	c := &config.Config{
		OCR:       config.OCRConfig{Provider: cost.ProviderChunkr},
		Chunkr:    config.ChunkrConfig{URL: "http://chunkr.invalid", APIKey: "test-key", Mode: "markdown"},
		Data:      config.DataConfig{Source: "local", Folder: t.TempDir(), Limit: 10},
		Results:   config.ResultsConfig{Dir: t.TempDir()},
		Benchmark: config.BenchmarkConfig{Concurrency: 2},
		Pricing: config.PricingConfig{
			Chunkr:  config.PagePricing{PerPage: 0.005},
			Mistral: config.PagePricing{PerPage: 0.001},
		},
		Store: config.StoreConfig{
			Driver:      "sqlite",
			DatabaseURL: filepath.Join(t.TempDir(), "bench.db"),
			SampleLimit: 100,
		},
	}
	cfg = c
	t.Cleanup(func() { cfg = nil })
	return c
}

// stubProvider echoes the image as markdown and fails images listed in fail.
type stubProvider struct {
	fail map[string]error
}

func (s stubProvider) Name() string { return cost.ProviderChunkr }

func (s stubProvider) OCR(_ context.Context, image string) ocr.Result {
	if err, ok := s.fail[image]; ok {
		return ocr.Result{Err: err}
	}
	return ocr.Result{Text: "# " + image}
}

// writeFixtures writes n single-record fixtures with a shared page image.
func writeFixtures(t *testing.T, dir string, n int) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.png"), []byte{0x89, 'P', 'N', 'G'}, 0o644))

	f, err := os.Create(filepath.Join(dir, "fixtures.jsonl"))
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	enc := json.NewEncoder(f)
	for i := 0; i < n; i++ {
		require.NoError(t, enc.Encode(map[string]string{
			"file_name":            "page.png",
			"metadata":             `{"orientation":"portrait"}`,
			"json_schema":          `{"type":"object"}`,
			"true_json_output":     `{"total":42}`,
			"true_markdown_output": "# Invoice",
		}))
	}
}
