package insight

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

// DefaultAnalyzerTimeout bounds one analysis round trip.
const DefaultAnalyzerTimeout = 30 * time.Second

// HTTPAnalyzer calls a remote analysis service over HTTP. The service
// receives the post content and tagged tickers and returns a structured
// analysis. Requests carry an OpenTelemetry-instrumented transport.
type HTTPAnalyzer struct {
	endpoint string
	apiKey   string
	client   *http.Client
}

// NewHTTPAnalyzer creates an analyzer client for the given endpoint. The
// apiKey may be empty for unauthenticated deployments.
func NewHTTPAnalyzer(endpoint, apiKey string, timeout time.Duration) *HTTPAnalyzer {
	if timeout == 0 {
		timeout = DefaultAnalyzerTimeout
	}
	return &HTTPAnalyzer{
		endpoint: endpoint,
		apiKey:   apiKey,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// analyzeRequest is the wire format sent to the analysis service.
type analyzeRequest struct {
	Content string   `json:"content"`
	Tickers []string `json:"tickers,omitempty"`
}

// AnalyzePost sends post content for analysis and returns the parsed
// result. Non-2xx responses and malformed bodies are errors; the caller's
// retry policy decides what happens next.
func (a *HTTPAnalyzer) AnalyzePost(ctx context.Context, content string, tickers []string) (Analysis, error) {
	started := time.Now()

	body, err := json.Marshal(analyzeRequest{Content: content, Tickers: tickers})
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to encode analyze request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to build analyze request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return Analysis{}, fmt.Errorf("analyze request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Analysis{}, fmt.Errorf("analyzer returned status %d: %s", resp.StatusCode, snippet)
	}

	var analysis Analysis
	if err := json.NewDecoder(resp.Body).Decode(&analysis); err != nil {
		return Analysis{}, fmt.Errorf("failed to decode analyzer response: %w", err)
	}

	analysis.LatencyMS = time.Since(started).Milliseconds()
	analysis.Normalize()
	return analysis, nil
}
