package checkers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPChecker checks that an HTTP endpoint answers without a 5xx status.
// Used for the LLM provider base URL, where any 4xx still means "reachable".
type HTTPChecker struct {
	url     string
	name    string
	client  *http.Client
	headers http.Header
}

// HTTPOption configures an HTTPChecker.
type HTTPOption func(*HTTPChecker)

// WithHTTPClient replaces the default client (10s timeout).
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTPChecker) {
		if c != nil {
			h.client = c
		}
	}
}

// WithHeader adds a header to every probe request.
func WithHeader(key, value string) HTTPOption {
	return func(h *HTTPChecker) {
		h.headers.Set(key, value)
	}
}

// NewHTTPChecker creates a new HTTP endpoint health checker. If name is empty the URL is used.
func NewHTTPChecker(url, name string, opts ...HTTPOption) *HTTPChecker {
	if name == "" {
		name = url
	}
	h := &HTTPChecker{
		url:     url,
		name:    name,
		client:  &http.Client{Timeout: 10 * time.Second},
		headers: make(http.Header),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Name returns the name of this health check.
func (h *HTTPChecker) Name() string {
	return h.name
}

// Check performs a GET against the endpoint.
func (h *HTTPChecker) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range h.headers {
		req.Header[k] = v
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("unhealthy status code: %d", resp.StatusCode)
	}
	return nil
}
