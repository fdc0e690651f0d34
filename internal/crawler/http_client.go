package crawler

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	maxLineSize    = 4 * 1024 * 1024
	probeDrainSize = 4 * 1024
)

// HTTPClient is the Fetcher backed by net/http
type HTTPClient struct {
	client        *http.Client
	userAgent     string
	customHeaders map[string]string
}

// NewHTTPClient creates a new HTTP client. Redirects are handed back to the
// caller as status codes instead of being followed.
func NewHTTPClient(userAgent string, timeout time.Duration) *HTTPClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	client := &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	return &HTTPClient{
		client:        client,
		userAgent:     userAgent,
		customHeaders: make(map[string]string),
	}
}

// SetCustomHeaders sets custom HTTP headers
func (h *HTTPClient) SetCustomHeaders(headers map[string]string) {
	for k, v := range headers {
		h.customHeaders[k] = v
	}
}

// Fetch performs a GET and returns the status code with the body split into lines.
// The body is always closed, including when reading it fails.
func (h *HTTPClient) Fetch(ctx context.Context, url string) (*Response, error) {
	start := time.Now()
	resp, err := h.do(ctx, url)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{
		URL:         url,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Lines:       lines,
		Duration:    time.Since(start),
	}, nil
}

// Probe performs a GET and reports only the status code
func (h *HTTPClient) Probe(ctx context.Context, url string) (int, error) {
	resp, err := h.do(ctx, url)
	if err != nil {
		return 0, err
	}
	// A short drain lets small bodies keep the connection reusable.
	_, _ = io.CopyN(io.Discard, resp.Body, probeDrainSize)
	_ = resp.Body.Close()
	return resp.StatusCode, nil
}

// Close releases idle connections
func (h *HTTPClient) Close() {
	h.client.CloseIdleConnections()
}

func (h *HTTPClient) do(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	for name, value := range h.customHeaders {
		req.Header.Set(name, value)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		var urlErr interface{ Timeout() bool }
		if errors.As(err, &urlErr) && urlErr.Timeout() {
			return nil, fmt.Errorf("request timed out: %w", err)
		}
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}
