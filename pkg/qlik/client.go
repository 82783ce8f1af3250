// Package qlik provides a client for the Qlik Cloud tenant REST APIs.
package qlik

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/qlikfox/qlikfox/pkg/logging"
)

// DefaultTimeout is the maximum time to wait for tenant responses.
const DefaultTimeout = 30 * time.Second

// Client provides access to the tenant REST APIs. It performs no
// retries; callers decide whether a failed call is worth repeating.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a tenant client. baseURL is the tenant root, e.g.
// https://your-tenant.eu.qlikcloud.com.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("qlik"),
	}
}

// get performs an authenticated GET and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, out any) error {
	u, err := buildURL(c.baseURL, endpoint, query)
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	return c.do(req, out)
}

// post performs an authenticated POST with an optional JSON body and
// decodes the JSON response into out (out may be nil).
func (c *Client) post(ctx context.Context, endpoint string, body any, out any) error {
	u, err := buildURL(c.baseURL, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to build URL: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, out)
}

// do executes the request with auth headers and decodes the response.
func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug("tenant API call",
		zap.String("method", req.Method),
		zap.String("url", req.URL.Redacted()))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call tenant API: %s", logging.SanitizeError(err))
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("tenant API returned error",
			zap.Int("status", resp.StatusCode),
			zap.String("url", req.URL.Redacted()))
		return fmt.Errorf("tenant API returned status %d: %s", resp.StatusCode, string(payload))
	}

	if out == nil || len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// buildURL joins the tenant base URL with an endpoint path and query.
func buildURL(baseURL, endpoint string, query url.Values) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	joined := u.ResolveReference(ref)
	if query != nil {
		joined.RawQuery = query.Encode()
	}
	return joined.String(), nil
}
