package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/ocr-bench/internal/cost"
)

const (
	mistralOCREndpoint  = "https://api.mistral.ai/v1/ocr"
	defaultMistralModel = "mistral-ocr-latest"
)

// MistralProvider extracts text from images using the Mistral OCR API.
type MistralProvider struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// MistralOption configures a MistralProvider.
type MistralOption func(*MistralProvider)

// WithEndpoint overrides the OCR endpoint. Empty keeps the default.
func WithEndpoint(endpoint string) MistralOption {
	return func(m *MistralProvider) {
		if endpoint != "" {
			m.endpoint = endpoint
		}
	}
}

// WithMistralHTTPClient sets the HTTP client used for API calls.
func WithMistralHTTPClient(hc *http.Client) MistralOption {
	return func(m *MistralProvider) { m.client = hc }
}

// NewMistralProvider creates a MistralProvider. If model is empty, the default is used.
func NewMistralProvider(apiKey, model string, opts ...MistralOption) *MistralProvider {
	if model == "" {
		model = defaultMistralModel
	}
	m := &MistralProvider{
		apiKey:   apiKey,
		model:    model,
		endpoint: mistralOCREndpoint,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

type mistralOCRRequest struct {
	Model    string             `json:"model"`
	Document mistralOCRDocument `json:"document"`
}

type mistralOCRDocument struct {
	Type     string `json:"type"`
	ImageURL string `json:"image_url"`
}

type mistralOCRResponse struct {
	Pages []mistralOCRPage `json:"pages"`
}

type mistralOCRPage struct {
	Index    int    `json:"index"`
	Markdown string `json:"markdown"`
}

// MistralAPIError is returned for a non-200 response.
type MistralAPIError struct {
	StatusCode int
	Body       string
}

func (e *MistralAPIError) Error() string {
	return "ocr: mistral API returned " + http.StatusText(e.StatusCode) + ": " + e.Body
}

// HTTPStatusCode returns the response status.
func (e *MistralAPIError) HTTPStatusCode() int { return e.StatusCode }

// Name implements Provider.
func (m *MistralProvider) Name() string { return cost.ProviderMistral }

// OCR implements Provider.
func (m *MistralProvider) OCR(ctx context.Context, image string) Result {
	start := time.Now()
	text, err := m.extract(ctx, image)
	res := Result{Err: err, Duration: time.Since(start)}
	if err != nil {
		zap.L().Error("ocr: mistral extraction failed", zap.Error(err))
		return res
	}
	res.Text = text
	return res
}

func (m *MistralProvider) extract(ctx context.Context, image string) (string, error) {
	reqBody := mistralOCRRequest{
		Model: m.model,
		Document: mistralOCRDocument{
			Type:     "image_url",
			ImageURL: imageURL(image),
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", eris.Wrap(err, "ocr: marshal mistral request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", eris.Wrap(err, "ocr: create mistral request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "ocr: mistral API call")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "ocr: read mistral response")
	}

	if resp.StatusCode != http.StatusOK {
		return "", &MistralAPIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var ocrResp mistralOCRResponse
	if err := json.Unmarshal(respBody, &ocrResp); err != nil {
		return "", eris.Wrap(err, "ocr: unmarshal mistral response")
	}

	var sb strings.Builder
	for i, page := range ocrResp.Pages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(page.Markdown)
	}

	return sb.String(), nil
}

// imageURL passes remote and data URLs through and wraps bare base64 as PNG.
func imageURL(image string) string {
	if strings.HasPrefix(image, "data:") ||
		strings.HasPrefix(image, "http://") ||
		strings.HasPrefix(image, "https://") {
		return image
	}
	return "data:image/png;base64," + image
}
