package chunkr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripDataURI(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"data:image/png;base64,aGVsbG8=", "aGVsbG8="},
		{"data:image/jpeg;base64,abc", "abc"},
		{"aGVsbG8=", "aGVsbG8="},
		{"", ""},
		{"prefix data:image/png;base64,abc", "prefix data:image/png;base64,abc"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StripDataURI(tt.in), tt.in)
	}
}

func TestNewParseRequest(t *testing.T) {
	req := NewParseRequest("data:image/png;base64,aGVsbG8=")

	buf, err := json.Marshal(req)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf, &got))

	assert.Equal(t, "aGVsbG8=", got["file"])
	assert.Equal(t, "image.png", got["file_name"])
	assert.Equal(t, "All", got["ocr_strategy"])
	assert.Equal(t, true, got["high_resolution"])
	assert.Equal(t, map[string]any{
		"ignore_headers_and_footers": false,
		"target_length":              float64(0),
	}, got["chunk_processing"])
	assert.Equal(t, map[string]any{
		"Picture": map[string]any{"markdown": "LLM"},
		"Page":    map[string]any{"markdown": "LLM"},
	}, got["segment_processing"])
}

func TestSubmitTask(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req CreateTaskRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "aGVsbG8=", req.File)
		w.Write([]byte(`{"task_id":"task-1","status":"Starting"}`)) //nolint:errcheck
	})

	id, err := SubmitTask(context.Background(), c, "data:image/png;base64,aGVsbG8=")
	require.NoError(t, err)
	assert.Equal(t, "task-1", id)
}

func TestSubmitTask_ServiceMessage(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"unsupported file type"}`)) //nolint:errcheck
	})

	_, err := SubmitTask(context.Background(), c, "abc")
	require.Error(t, err)

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, http.StatusUnprocessableEntity, subErr.StatusCode)
	assert.Equal(t, "unsupported file type", subErr.Message)
	assert.Equal(t, "chunkr: failed to create task: unsupported file type", err.Error())

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestSubmitTask_StatusTextFallback(t *testing.T) {
	_, c := newTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := SubmitTask(context.Background(), c, "abc")
	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, "Service Unavailable", subErr.Message)
}

type createOnlyClient struct {
	resp *CreateTaskResponse
	err  error
}

func (c *createOnlyClient) CreateTask(context.Context, CreateTaskRequest) (*CreateTaskResponse, error) {
	return c.resp, c.err
}

func (c *createOnlyClient) GetTask(context.Context, string) (*Task, error) {
	return nil, errors.New("not implemented")
}

func TestSubmitTask_TransportError(t *testing.T) {
	_, err := SubmitTask(context.Background(), &createOnlyClient{err: errors.New("connection refused")}, "abc")

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, 0, subErr.StatusCode)
	assert.Contains(t, subErr.Message, "connection refused")
}

func TestSubmitTask_EmptyTaskID(t *testing.T) {
	_, err := SubmitTask(context.Background(), &createOnlyClient{resp: &CreateTaskResponse{}}, "abc")

	var subErr *SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Contains(t, subErr.Message, "task_id")
}
