package trend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultDetectorTimeout bounds one detection round trip. Detection
// payloads are large, so this is looser than single-post analysis.
const DefaultDetectorTimeout = 60 * time.Second

// HTTPDetector calls a remote detection service over HTTP. The service
// receives the combined post context and the tickers mentioned in it and
// returns the trends it found.
type HTTPDetector struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPDetector creates a detector client for the given endpoint.
func NewHTTPDetector(endpoint, apiKey string, timeout time.Duration) *HTTPDetector {
	if timeout == 0 {
		timeout = DefaultDetectorTimeout
	}
	return &HTTPDetector{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// detectRequest is the wire format sent to the detection service.
type detectRequest struct {
	Context string   `json:"context"`
	Tickers []string `json:"tickers,omitempty"`
}

// detectResponse is the wire format returned by the detection service.
type detectResponse struct {
	Trends []DetectedTrend `json:"trends"`
}

// DetectTrends sends the combined context for detection and returns the
// parsed trends.
func (d *HTTPDetector) DetectTrends(ctx context.Context, combinedContext string, tickers []string) ([]DetectedTrend, error) {
	body, err := json.Marshal(detectRequest{Context: combinedContext, Tickers: tickers})
	if err != nil {
		return nil, fmt.Errorf("failed to encode detect request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build detect request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detect request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("detector returned status %d: %s", resp.StatusCode, snippet)
	}

	var parsed detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to decode detector response: %w", err)
	}
	return parsed.Trends, nil
}
