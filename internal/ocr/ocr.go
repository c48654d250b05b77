// Package ocr runs single-page extractions against an OCR provider and
// reports the text, latency and error of each attempt.
package ocr

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/ocr-bench/internal/config"
	"github.com/sells-group/ocr-bench/internal/cost"
	"github.com/sells-group/ocr-bench/pkg/chunkr"
)

// ErrMissingConfig is returned when a provider lacks its endpoint or credentials.
var ErrMissingConfig = eris.New("ocr: missing provider configuration")

// Provider extracts text from a single page image.
type Provider interface {
	Name() string
	// OCR never fails with a Go error; failures are carried in Result.Err.
	OCR(ctx context.Context, image string) Result
}

// Result is the outcome of one extraction.
type Result struct {
	Text     string
	Err      error
	Duration time.Duration
}

// Succeeded reports whether text extraction completed end to end.
func (r Result) Succeeded() bool {
	return r.Err == nil
}

// NewProvider creates the Provider selected by cfg.OCR.Provider.
func NewProvider(cfg *config.Config) (Provider, error) {
	switch cfg.OCR.Provider {
	case cost.ProviderChunkr, "":
		if cfg.Chunkr.URL == "" || cfg.Chunkr.APIKey == "" {
			return nil, eris.Wrap(ErrMissingConfig, "ocr: chunkr provider requires url and api_key")
		}
		mode, err := chunkr.ParseMode(cfg.Chunkr.Mode)
		if err != nil {
			return nil, eris.Wrap(err, "ocr: chunkr mode")
		}
		client := chunkr.NewClient(cfg.Chunkr.APIKey, chunkr.WithBaseURL(cfg.Chunkr.URL))
		opts := []ChunkrOption{WithMode(mode)}
		if cfg.Chunkr.PollIntervalMs > 0 {
			interval := time.Duration(cfg.Chunkr.PollIntervalMs) * time.Millisecond
			opts = append(opts, WithPollOptions(chunkr.WithPollInterval(interval)))
		}
		return NewChunkrProvider(client, opts...), nil
	case cost.ProviderMistral:
		if cfg.Mistral.APIKey == "" {
			return nil, eris.Wrap(ErrMissingConfig, "ocr: mistral provider requires api_key")
		}
		return NewMistralProvider(cfg.Mistral.APIKey, cfg.Mistral.Model, WithEndpoint(cfg.Mistral.URL)), nil
	default:
		return nil, eris.Errorf("ocr: unknown provider %q", cfg.OCR.Provider)
	}
}
