// Package httpclient implements the controlled outbound HTTP plugin: the
// frontend's fetch capability, with scheme and size limits enforced host-side.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/streamio/streamio/internal/config"
)

// FetchRequest describes a frontend-initiated outbound request.
type FetchRequest struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// FetchResponse carries the upstream response back to the frontend.
type FetchResponse struct {
	Status    int               `json:"status"`
	Headers   map[string]string `json:"headers"`
	Body      string            `json:"body"`
	Truncated bool              `json:"truncated"`
}

// Client performs outbound requests on behalf of the frontend.
type Client struct {
	logger         hclog.Logger
	httpClient     *http.Client
	userAgent      string
	maxBodySize    int64
	allowedSchemes map[string]bool
}

// NewClient creates a fetch client from the plugin configuration.
func NewClient(logger hclog.Logger, cfg config.HTTPClientConfig) *Client {
	schemes := make(map[string]bool, len(cfg.AllowedSchemes))
	for _, scheme := range cfg.AllowedSchemes {
		schemes[strings.ToLower(scheme)] = true
	}

	maxRedirects := cfg.MaxRedirects
	return &Client{
		logger: logger,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return fmt.Errorf("stopped after %d redirects", maxRedirects)
				}
				return nil
			},
		},
		userAgent:      cfg.UserAgent,
		maxBodySize:    cfg.MaxResponseSize,
		allowedSchemes: schemes,
	}
}

// Fetch performs the request and returns the capped response.
func (c *Client) Fetch(ctx context.Context, req FetchRequest) (*FetchResponse, error) {
	parsed, err := url.Parse(req.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	if !c.allowedSchemes[strings.ToLower(parsed.Scheme)] {
		return nil, fmt.Errorf("scheme not allowed: %s", parsed.Scheme)
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != "" {
		body = bytes.NewBufferString(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("User-Agent", c.userAgent)
	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	limited := io.LimitReader(resp.Body, c.maxBodySize+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	truncated := false
	if int64(len(data)) > c.maxBodySize {
		data = data[:c.maxBodySize]
		truncated = true
		c.logger.Warn("response body truncated", "url", req.URL, "limit", c.maxBodySize)
	}

	headers := make(map[string]string, len(resp.Header))
	for key := range resp.Header {
		headers[key] = resp.Header.Get(key)
	}

	return &FetchResponse{
		Status:    resp.StatusCode,
		Headers:   headers,
		Body:      string(data),
		Truncated: truncated,
	}, nil
}
