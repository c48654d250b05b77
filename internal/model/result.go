package model

import "time"

// Usage records the latency and cost of one extraction.
type Usage struct {
	DurationMs float64 `json:"duration"`
	TotalCost  float64 `json:"totalCost"`
}

// Result is the persisted record for one benchmarked document.
type Result struct {
	FileURL           string         `json:"fileUrl"`
	Metadata          map[string]any `json:"metadata"`
	JSONSchema        map[string]any `json:"jsonSchema"`
	OCRModel          string         `json:"ocrModel"`
	TrueMarkdown      string         `json:"trueMarkdown"`
	PredictedMarkdown string         `json:"predictedMarkdown"`
	TrueJSON          map[string]any `json:"trueJson"`
	Usage             Usage          `json:"usage"`
	Error             string         `json:"error,omitempty"`
	ErrorType         string         `json:"errorType,omitempty"` // "transient" or "permanent"
	StartedAt         time.Time      `json:"startedAt"`
}

// NewResult seeds a Result with the ground truth carried by in.
func NewResult(in Input, provider string) Result {
	return Result{
		FileURL:      in.ImageURL,
		Metadata:     in.Metadata,
		JSONSchema:   in.JSONSchema,
		OCRModel:     provider,
		TrueMarkdown: in.TrueMarkdownOutput,
		TrueJSON:     in.TrueJSONOutput,
	}
}

// Succeeded reports whether the extraction completed without error.
func (r Result) Succeeded() bool {
	return r.Error == ""
}
