// Package confluence implements a Confluence REST API client with rate
// limiting, satisfying the content-store capability set consumed by the
// publish engine.
package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/fclairamb/cfpub/internal/apperrors"
)

const (
	// apiPath is the REST API prefix appended to the base URL.
	apiPath = "/rest/api"

	// HTTP client configuration.
	httpTimeout = 30 * time.Second // Timeout for HTTP requests

	// Rate limiting configuration (~10 requests/second).
	rateLimitInterval = 100 * time.Millisecond

	// HTTP status codes.
	httpStatusBadRequest = 400 // First status code indicating an error

	// Retry configuration for rate-limited requests.
	maxRetries     = 5
	initialBackoff = time.Second
)

// Client is a Confluence REST API client with rate limiting.
type Client struct {
	httpClient  *http.Client
	username    string
	password    string
	rateLimiter *rate.Limiter
	baseURL     string
	logger      *slog.Logger
}

// ClientOption configures the client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = l
	}
}

// WithTimeout overrides the HTTP request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(client *Client) {
		client.httpClient.Timeout = d
	}
}

// NewClient creates a new Confluence API client. baseURL is the root
// Confluence URL without the REST path suffix.
func NewClient(baseURL, username, password string, opts ...ClientOption) *Client {
	client := &Client{
		httpClient:  &http.Client{Timeout: httpTimeout},
		username:    username,
		password:    password,
		rateLimiter: rate.NewLimiter(rate.Every(rateLimitInterval), 1), // ~10 req/s
		baseURL:     baseURL,
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// do performs a JSON HTTP request against the REST API with rate limiting
// and retries on rate-limit responses.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
	}

	respBody, _, err := c.send(ctx, method, apiPath+path, func() (io.Reader, string) {
		if jsonBody == nil {
			return nil, ""
		}
		return bytes.NewReader(jsonBody), "application/json"
	})
	if err != nil {
		return err
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// send performs an HTTP request with rate limiting, retrying with
// exponential backoff when the server answers 429. The request body is
// rebuilt for every attempt via makeBody.
func (c *Client) send(
	ctx context.Context, method, path string, makeBody func() (io.Reader, string),
) ([]byte, int, error) {
	c.logger.DebugContext(ctx, "API request", "method", method, "path", path)
	startTime := time.Now()

	backoff := initialBackoff

	for attempt := range maxRetries {
		// Every attempt goes through the rate limiter, retries included
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, 0, fmt.Errorf("rate limiter: %w", err)
		}

		bodyReader, contentType := makeBody()

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
		if err != nil {
			return nil, 0, fmt.Errorf("create request: %w", err)
		}
		req.SetBasicAuth(c.username, c.password)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		req.Header.Set("X-Atlassian-Token", "nocheck")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, 0, fmt.Errorf("do request: %w", err)
		}

		respBody, err := io.ReadAll(resp.Body)
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.WarnContext(ctx, "failed to close response body", "error", closeErr)
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			c.logger.WarnContext(ctx, "rate limited, backing off", "attempt", attempt+1, "backoff", backoff)
			select {
			case <-ctx.Done():
				return nil, 0, ctx.Err()
			case <-time.After(backoff):
				backoff *= 2
				continue
			}
		}

		if resp.StatusCode == http.StatusNotFound {
			return nil, resp.StatusCode, apperrors.ErrNotFound
		}

		if resp.StatusCode >= httpStatusBadRequest {
			return nil, resp.StatusCode, apperrors.NewHTTPError(resp.StatusCode, string(respBody))
		}

		c.logger.DebugContext(ctx, "API response",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"duration", time.Since(startTime))

		return respBody, resp.StatusCode, nil
	}

	return nil, 0, apperrors.ErrMaxRetriesExceeded
}
