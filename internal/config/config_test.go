package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// inTempDir runs the test from an empty directory with the legacy
// unprefixed variables cleared, so the host environment does not leak in.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck

	for _, env := range []string{"CHUNKR_URL", "CHUNKR_API_KEY", "MISTRAL_API_KEY", "DATABASE_URL"} {
		t.Setenv(env, "")
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "chunkr", cfg.OCR.Provider)
	assert.Equal(t, "https://api.chunkr.ai", cfg.Chunkr.URL)
	assert.Equal(t, 500, cfg.Chunkr.PollIntervalMs)
	assert.Equal(t, "markdown", cfg.Chunkr.Mode)
	assert.Equal(t, "mistral-ocr-latest", cfg.Mistral.Model)
	assert.InDelta(t, 0.005, cfg.Pricing.Chunkr.PerPage, 1e-9)
	assert.InDelta(t, 0.001, cfg.Pricing.Mistral.PerPage, 1e-9)
	assert.Equal(t, "local", cfg.Data.Source)
	assert.Equal(t, "data", cfg.Data.Folder)
	assert.Equal(t, 10, cfg.Data.Limit)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 100, cfg.Store.SampleLimit)
	assert.Equal(t, "results", cfg.Results.Dir)
	assert.Equal(t, 4, cfg.Benchmark.Concurrency)
	assert.Zero(t, cfg.Benchmark.RequestsPerSecond)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Chunkr.APIKey)
}

func TestLoadFromYAML(t *testing.T) {
	dir := inTempDir(t)

	yaml := `
ocr:
  provider: mistral
data:
  source: db
  limit: 3
benchmark:
  concurrency: 8
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mistral", cfg.OCR.Provider)
	assert.Equal(t, "db", cfg.Data.Source)
	assert.Equal(t, 3, cfg.Data.Limit)
	assert.Equal(t, 8, cfg.Benchmark.Concurrency)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, "data", cfg.Data.Folder)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := inTempDir(t)

	yaml := `
chunkr:
  url: http://file.example
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("BENCH_CHUNKR_URL", "http://env.example")
	t.Setenv("BENCH_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://env.example", cfg.Chunkr.URL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadLegacyEnvNames(t *testing.T) {
	inTempDir(t)

	t.Setenv("CHUNKR_URL", "http://localhost:8000")
	t.Setenv("CHUNKR_API_KEY", "ck_test")
	t.Setenv("MISTRAL_API_KEY", "mk_test")
	t.Setenv("DATABASE_URL", "postgres://localhost/docs")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000", cfg.Chunkr.URL)
	assert.Equal(t, "ck_test", cfg.Chunkr.APIKey)
	assert.Equal(t, "mk_test", cfg.Mistral.APIKey)
	assert.Equal(t, "postgres://localhost/docs", cfg.Store.DatabaseURL)
}

func TestLoadPrefixedEnvWinsOverLegacy(t *testing.T) {
	inTempDir(t)

	t.Setenv("CHUNKR_API_KEY", "legacy")
	t.Setenv("BENCH_CHUNKR_API_KEY", "prefixed")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "prefixed", cfg.Chunkr.APIKey)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	inTempDir(t)

	t.Setenv("BENCH_BENCHMARK_CONCURRENCY", "16")
	t.Setenv("BENCH_PRICING_CHUNKR_PER_PAGE", "0.01")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Benchmark.Concurrency)
	assert.InDelta(t, 0.01, cfg.Pricing.Chunkr.PerPage, 1e-9)
}

func TestPricingRates(t *testing.T) {
	p := PricingConfig{
		Chunkr:  PagePricing{PerPage: 0.005},
		Mistral: PagePricing{PerPage: 0.001},
	}
	rates := p.Rates()
	assert.InDelta(t, 0.005, rates.Chunkr.PerPage, 1e-9)
	assert.InDelta(t, 0.001, rates.Mistral.PerPage, 1e-9)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{}
	cfg.OCR.Provider = "chunkr"
	cfg.Chunkr.URL = "http://localhost:8000"
	cfg.Chunkr.APIKey = "ck_test"
	cfg.Data.Source = "local"
	cfg.Data.Folder = "data"
	cfg.Benchmark.Concurrency = 4
	return cfg
}

func TestValidateRun_AllPresent(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("run"))
}

func TestValidateRun_MissingChunkrKey(t *testing.T) {
	cfg := validDefaults()
	cfg.Chunkr.APIKey = ""
	cfg.Chunkr.URL = ""

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunkr.url is required")
	assert.Contains(t, err.Error(), "chunkr.api_key is required")
}

func TestValidateRun_Mistral(t *testing.T) {
	cfg := validDefaults()
	cfg.OCR.Provider = "mistral"

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mistral.api_key is required")

	cfg.Mistral.APIKey = "mk_test"
	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateRun_UnknownProvider(t *testing.T) {
	cfg := validDefaults()
	cfg.OCR.Provider = "tesseract"

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ocr.provider")
}

func TestValidateRun_DBSourceNeedsURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Data.Source = "db"

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url")

	cfg.Store.DatabaseURL = "postgres://localhost/docs"
	assert.NoError(t, cfg.Validate("run"))
}

func TestValidateRun_UnknownSource(t *testing.T) {
	cfg := validDefaults()
	cfg.Data.Source = "s3"

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "data.source")
}

func TestValidateUnknownMode(t *testing.T) {
	err := validDefaults().Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown validation mode")
}

func TestValidateConcurrencyBounds(t *testing.T) {
	tests := []struct {
		name        string
		concurrency int
		wantErr     bool
	}{
		{"zero", 0, true},
		{"one", 1, false},
		{"max", 64, false},
		{"too many", 65, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			cfg.Benchmark.Concurrency = tt.concurrency
			err := cfg.Validate("run")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateNegativeRate(t *testing.T) {
	cfg := validDefaults()
	cfg.Benchmark.RequestsPerSecond = -1

	err := cfg.Validate("run")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requests_per_second")
}
