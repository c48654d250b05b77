package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunStatusValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status RunStatus
		want   string
	}{
		{RunStatusRunning, "running"},
		{RunStatusComplete, "complete"},
		{RunStatusFailed, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, string(tt.status))
		})
	}
}

func TestRunDuration(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := Run{StartedAt: start}
	assert.Zero(t, r.Duration())

	r.FinishedAt = start.Add(90 * time.Second)
	assert.Equal(t, 90*time.Second, r.Duration())
}

func TestNewResult(t *testing.T) {
	t.Parallel()

	in := Input{
		ImageURL:           "data:image/png;base64,abc",
		Metadata:           map[string]any{"orientation": "portrait"},
		JSONSchema:         map[string]any{"type": "object"},
		TrueJSONOutput:     map[string]any{"total": 12.5},
		TrueMarkdownOutput: "# Receipt",
	}

	r := NewResult(in, "chunkr")
	assert.Equal(t, in.ImageURL, r.FileURL)
	assert.Equal(t, "chunkr", r.OCRModel)
	assert.Equal(t, "# Receipt", r.TrueMarkdown)
	assert.Equal(t, in.TrueJSONOutput, r.TrueJSON)
	assert.Equal(t, in.Metadata, r.Metadata)
	assert.Empty(t, r.PredictedMarkdown)
	assert.True(t, r.Succeeded())

	r.Error = "boom"
	assert.False(t, r.Succeeded())
}
