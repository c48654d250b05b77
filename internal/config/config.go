package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/ocr-bench/internal/cost"
)

// Config holds the full application configuration.
type Config struct {
	OCR       OCRConfig       `yaml:"ocr" mapstructure:"ocr"`
	Chunkr    ChunkrConfig    `yaml:"chunkr" mapstructure:"chunkr"`
	Mistral   MistralConfig   `yaml:"mistral" mapstructure:"mistral"`
	Pricing   PricingConfig   `yaml:"pricing" mapstructure:"pricing"`
	Data      DataConfig      `yaml:"data" mapstructure:"data"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Results   ResultsConfig   `yaml:"results" mapstructure:"results"`
	Benchmark BenchmarkConfig `yaml:"benchmark" mapstructure:"benchmark"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// OCRConfig selects the extraction provider under test.
type OCRConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"`
}

// ChunkrConfig holds Chunkr API settings.
type ChunkrConfig struct {
	URL            string `yaml:"url" mapstructure:"url"`
	APIKey         string `yaml:"api_key" mapstructure:"api_key"`
	PollIntervalMs int    `yaml:"poll_interval_ms" mapstructure:"poll_interval_ms"`
	Mode           string `yaml:"mode" mapstructure:"mode"`
}

// MistralConfig holds Mistral OCR settings.
type MistralConfig struct {
	URL    string `yaml:"url" mapstructure:"url"`
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	Model  string `yaml:"model" mapstructure:"model"`
}

// PricingConfig holds per-provider page pricing (USD).
type PricingConfig struct {
	Chunkr  PagePricing `yaml:"chunkr" mapstructure:"chunkr"`
	Mistral PagePricing `yaml:"mistral" mapstructure:"mistral"`
}

// PagePricing is a flat price per page.
type PagePricing struct {
	PerPage float64 `yaml:"per_page" mapstructure:"per_page"`
}

// Rates converts pricing config into cost rates.
func (p PricingConfig) Rates() cost.Rates {
	return cost.Rates{
		Chunkr:  cost.PageRate{PerPage: p.Chunkr.PerPage},
		Mistral: cost.PageRate{PerPage: p.Mistral.PerPage},
	}
}

// DataConfig configures where benchmark inputs come from.
type DataConfig struct {
	Source string `yaml:"source" mapstructure:"source"`
	Folder string `yaml:"folder" mapstructure:"folder"`
	Limit  int    `yaml:"limit" mapstructure:"limit"`
}

// StoreConfig configures the database holding held-out documents.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	SampleLimit int    `yaml:"sample_limit" mapstructure:"sample_limit"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
}

// ResultsConfig configures where run output is written.
type ResultsConfig struct {
	Dir string `yaml:"dir" mapstructure:"dir"`
}

// BenchmarkConfig configures run fan-out.
type BenchmarkConfig struct {
	Concurrency       int     `yaml:"concurrency" mapstructure:"concurrency"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("BENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unprefixed names used by existing benchmark setups.
	for key, env := range map[string]string{
		"chunkr.url":         "CHUNKR_URL",
		"chunkr.api_key":     "CHUNKR_API_KEY",
		"mistral.api_key":    "MISTRAL_API_KEY",
		"store.database_url": "DATABASE_URL",
	} {
		if err := v.BindEnv(key, "BENCH_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", env)
		}
	}

	// Defaults
	v.SetDefault("ocr.provider", "chunkr")
	v.SetDefault("chunkr.url", "https://api.chunkr.ai")
	v.SetDefault("chunkr.poll_interval_ms", 500)
	v.SetDefault("chunkr.mode", "markdown")
	v.SetDefault("mistral.url", "https://api.mistral.ai/v1/ocr")
	v.SetDefault("mistral.model", "mistral-ocr-latest")
	v.SetDefault("pricing.chunkr.per_page", 0.005)
	v.SetDefault("pricing.mistral.per_page", 0.001)
	v.SetDefault("data.source", "local")
	v.SetDefault("data.folder", "data")
	v.SetDefault("data.limit", 10)
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.sample_limit", 100)
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("results.dir", "results")
	v.SetDefault("benchmark.concurrency", 4)
	v.SetDefault("benchmark.requests_per_second", 0)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the settings needed by the given command are present.
// Supported modes: "run".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "run":
		switch c.OCR.Provider {
		case "chunkr":
			if c.Chunkr.URL == "" {
				problems = append(problems, "chunkr.url is required")
			}
			if c.Chunkr.APIKey == "" {
				problems = append(problems, "chunkr.api_key is required (CHUNKR_API_KEY)")
			}
		case "mistral":
			if c.Mistral.APIKey == "" {
				problems = append(problems, "mistral.api_key is required (MISTRAL_API_KEY)")
			}
		default:
			problems = append(problems, "ocr.provider must be chunkr or mistral")
		}

		switch c.Data.Source {
		case "local":
			if c.Data.Folder == "" {
				problems = append(problems, "data.folder is required for the local source")
			}
		case "db":
			if c.Store.DatabaseURL == "" {
				problems = append(problems, "store.database_url is required for the db source (DATABASE_URL)")
			}
		default:
			problems = append(problems, "data.source must be local or db")
		}

		if c.Benchmark.Concurrency < 1 || c.Benchmark.Concurrency > 64 {
			problems = append(problems, "benchmark.concurrency must be between 1 and 64")
		}
		if c.Benchmark.RequestsPerSecond < 0 {
			problems = append(problems, "benchmark.requests_per_second must not be negative")
		}
	default:
		return eris.Errorf("config: unknown validation mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
