package chunkr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Default base URL for the Chunkr API.
const defaultBaseURL = "https://api.chunkr.ai"

// Client defines the Chunkr task API operations.
type Client interface {
	CreateTask(ctx context.Context, req CreateTaskRequest) (*CreateTaskResponse, error)
	GetTask(ctx context.Context, taskID string) (*Task, error)
}

// CreateTaskRequest is the body for POST /api/v1/task/parse.
type CreateTaskRequest struct {
	File              string                   `json:"file"`
	FileName          string                   `json:"file_name"`
	OCRStrategy       string                   `json:"ocr_strategy"`
	HighResolution    bool                     `json:"high_resolution"`
	ChunkProcessing   ChunkProcessing          `json:"chunk_processing"`
	SegmentProcessing map[string]SegmentConfig `json:"segment_processing"`
}

// ChunkProcessing controls how segments are grouped into chunks.
type ChunkProcessing struct {
	IgnoreHeadersAndFooters bool `json:"ignore_headers_and_footers"`
	TargetLength            int  `json:"target_length"`
}

// SegmentConfig selects the renderer for one segment type.
type SegmentConfig struct {
	Markdown string `json:"markdown,omitempty"`
	HTML     string `json:"html,omitempty"`
}

// CreateTaskResponse is the response from POST /api/v1/task/parse.
type CreateTaskResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Task is the response from GET /api/v1/task/{id}.
type Task struct {
	TaskID  string  `json:"task_id"`
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Output  *Output `json:"output"`
}

// Output holds the processed document. Chunks is nil when the field is absent.
type Output struct {
	Chunks []Chunk `json:"chunks"`
}

// Chunk is a group of segments.
type Chunk struct {
	ChunkID  string    `json:"chunk_id,omitempty"`
	Segments []Segment `json:"segments"`
}

// Segment is one content block on a page.
type Segment struct {
	SegmentID   string `json:"segment_id,omitempty"`
	SegmentType string `json:"segment_type,omitempty"`
	Content     string `json:"content,omitempty"`
	Markdown    string `json:"markdown,omitempty"`
	HTML        string `json:"html,omitempty"`
}

// APIError is returned when Chunkr responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("chunkr: HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("chunkr: HTTP %d: %s", e.StatusCode, e.Body)
}

// HTTPStatusCode reports the response status for error classification.
func (e *APIError) HTTPStatusCode() int {
	return e.StatusCode
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *httpClient) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Chunkr client. The API key is sent as-is in the
// Authorization header.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) CreateTask(ctx context.Context, req CreateTaskRequest) (*CreateTaskResponse, error) {
	var resp CreateTaskResponse
	if err := c.post(ctx, "/api/v1/task/parse", req, &resp); err != nil {
		return nil, eris.Wrap(err, "chunkr: create task")
	}
	return &resp, nil
}

func (c *httpClient) GetTask(ctx context.Context, taskID string) (*Task, error) {
	var resp Task
	if err := c.get(ctx, "/api/v1/task/"+url.PathEscape(taskID), &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("chunkr: get task %s", taskID))
	}
	return &resp, nil
}

func (c *httpClient) post(ctx context.Context, path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.apiKey)

	return c.do(req, out)
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", c.apiKey)

	return c.do(req, out)
}

func (c *httpClient) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errorMessage(data),
			Body:       string(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}

	return nil
}

// errorMessage pulls the "message" field out of an error body, if any.
func errorMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	return e.Message
}
