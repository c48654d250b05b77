package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMistralTestServer(t *testing.T, handler http.HandlerFunc) *MistralProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewMistralProvider("test-key", "test-model", WithEndpoint(srv.URL), WithMistralHTTPClient(srv.Client()))
}

func TestMistralProvider_DefaultModel(t *testing.T) {
	m := NewMistralProvider("key", "")
	assert.Equal(t, defaultMistralModel, m.model)
	assert.Equal(t, mistralOCREndpoint, m.endpoint)
}

func TestMistralProvider_EmptyEndpointKeepsDefault(t *testing.T) {
	m := NewMistralProvider("key", "custom-model", WithEndpoint(""))
	assert.Equal(t, "custom-model", m.model)
	assert.Equal(t, mistralOCREndpoint, m.endpoint)
}

func TestMistralProvider_OCR(t *testing.T) {
	m := newMistralTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req mistralOCRRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.Equal(t, "image_url", req.Document.Type)
		assert.Equal(t, "data:image/png;base64,AAAA", req.Document.ImageURL)

		resp := mistralOCRResponse{
			Pages: []mistralOCRPage{
				{Index: 0, Markdown: "Page one content"},
				{Index: 1, Markdown: "Page two content"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp) //nolint:errcheck
	})

	res := m.OCR(context.Background(), "AAAA")
	require.NoError(t, res.Err)
	assert.True(t, res.Succeeded())
	assert.Equal(t, "Page one content\n\nPage two content", res.Text)
}

func TestMistralProvider_APIError(t *testing.T) {
	m := newMistralTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid api key"}`)) //nolint:errcheck
	})

	res := m.OCR(context.Background(), "AAAA")
	require.Error(t, res.Err)
	assert.Empty(t, res.Text)

	var apiErr *MistralAPIError
	require.ErrorAs(t, res.Err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.HTTPStatusCode())
	assert.Contains(t, apiErr.Error(), "invalid api key")
}

func TestMistralProvider_MalformedResponse(t *testing.T) {
	m := newMistralTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{invalid json`)) //nolint:errcheck
	})

	res := m.OCR(context.Background(), "AAAA")
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "unmarshal mistral response")
}

func TestMistralProvider_EmptyPages(t *testing.T) {
	m := newMistralTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(mistralOCRResponse{Pages: []mistralOCRPage{}}) //nolint:errcheck
	})

	res := m.OCR(context.Background(), "AAAA")
	require.NoError(t, res.Err)
	assert.Empty(t, res.Text)
}

func TestImageURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"AAAA", "data:image/png;base64,AAAA"},
		{"data:image/jpeg;base64,BBBB", "data:image/jpeg;base64,BBBB"},
		{"https://cdn.example.com/page.png", "https://cdn.example.com/page.png"},
		{"http://localhost/page.png", "http://localhost/page.png"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, imageURL(tt.in), tt.in)
	}
}
