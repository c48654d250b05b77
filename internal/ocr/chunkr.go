package ocr

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ocr-bench/internal/cost"
	"github.com/sells-group/ocr-bench/pkg/chunkr"
)

// ChunkrProvider extracts text by submitting a parse task to Chunkr and
// polling it to completion.
type ChunkrProvider struct {
	client   chunkr.Client
	mode     chunkr.Mode
	pollOpts []chunkr.PollOption
}

// ChunkrOption configures a ChunkrProvider.
type ChunkrOption func(*ChunkrProvider)

// WithMode selects the segment rendering read from the task output.
func WithMode(mode chunkr.Mode) ChunkrOption {
	return func(p *ChunkrProvider) { p.mode = mode }
}

// WithPollOptions passes options through to chunkr.PollTask.
func WithPollOptions(opts ...chunkr.PollOption) ChunkrOption {
	return func(p *ChunkrProvider) { p.pollOpts = append(p.pollOpts, opts...) }
}

// NewChunkrProvider creates a ChunkrProvider. Markdown is flattened by default.
func NewChunkrProvider(client chunkr.Client, opts ...ChunkrOption) *ChunkrProvider {
	p := &ChunkrProvider{client: client, mode: chunkr.ModeMarkdown}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Name implements Provider.
func (p *ChunkrProvider) Name() string { return cost.ProviderChunkr }

// OCR implements Provider. Duration covers submission, polling and flattening.
func (p *ChunkrProvider) OCR(ctx context.Context, image string) Result {
	start := time.Now()
	taskID, text, err := p.extract(ctx, image)
	res := Result{Err: err, Duration: time.Since(start)}
	if err != nil {
		fields := []zap.Field{zap.Duration("duration", res.Duration), zap.Error(err)}
		if taskID != "" {
			fields = append(fields, zap.String("task_id", taskID))
		}
		zap.L().Error("ocr: chunkr extraction failed", fields...)
		return res
	}
	res.Text = text
	return res
}

// extract returns the task id once submission succeeds, so failures after
// that point can be traced to the remote task.
func (p *ChunkrProvider) extract(ctx context.Context, image string) (string, string, error) {
	taskID, err := chunkr.SubmitTask(ctx, p.client, image)
	if err != nil {
		return "", "", err
	}

	log := zap.L().With(zap.String("task_id", taskID))
	log.Debug("ocr: chunkr task submitted")

	task, err := chunkr.PollTask(ctx, p.client, taskID, p.pollOpts...)
	if err != nil {
		return taskID, "", err
	}

	text, err := chunkr.Flatten(task, p.mode)
	if err != nil {
		return taskID, "", eris.Wrapf(err, "ocr: flatten task %s", taskID)
	}

	log.Debug("ocr: chunkr task complete", zap.Int("chars", len(text)))
	return taskID, text, nil
}
