package chunkr

import (
	"context"
	"errors"
	"net/http"
	"regexp"
)

const defaultFileName = "image.png"

var dataURIPrefix = regexp.MustCompile(`^data:[\w.+-]+/[\w.+-]+;base64,`)

// StripDataURI removes a leading "data:<mime>;base64," marker.
func StripDataURI(image string) string {
	return dataURIPrefix.ReplaceAllString(image, "")
}

// NewParseRequest builds the fixed task configuration used for benchmarking:
// OCR on all content, high resolution, and LLM markdown for picture and page
// segments. Headers and footers are kept.
func NewParseRequest(image string) CreateTaskRequest {
	return CreateTaskRequest{
		File:           StripDataURI(image),
		FileName:       defaultFileName,
		OCRStrategy:    "All",
		HighResolution: true,
		ChunkProcessing: ChunkProcessing{
			IgnoreHeadersAndFooters: false,
			TargetLength:            0,
		},
		SegmentProcessing: map[string]SegmentConfig{
			"Picture": {Markdown: "LLM"},
			"Page":    {Markdown: "LLM"},
		},
	}
}

// SubmitTask creates a parse task for the image and returns its id. All
// failures are reported as *SubmissionError.
func SubmitTask(ctx context.Context, client Client, image string) (string, error) {
	resp, err := client.CreateTask(ctx, NewParseRequest(image))
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			msg := apiErr.Message
			if msg == "" {
				msg = http.StatusText(apiErr.StatusCode)
			}
			return "", &SubmissionError{StatusCode: apiErr.StatusCode, Message: msg, Err: err}
		}
		return "", &SubmissionError{Message: err.Error(), Err: err}
	}
	if resp.TaskID == "" {
		return "", &SubmissionError{Message: "response carried no task_id"}
	}
	return resp.TaskID, nil
}
