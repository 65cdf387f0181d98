package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/puteus/puteus/app/retry"
)

// FetchError is the terminal failure of a fetch after retries are
// exhausted or a non-retryable response was received.
type FetchError struct {
	URI string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s: %v", e.URI, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// statusError marks HTTP responses that should not be retried (4xx).
type statusError struct {
	code      int
	status    string
	retryable bool
}

func (e *statusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s", e.code, e.status)
}

// Client performs time-bounded GETs with transport-level retries.
// Connection failures, timeouts and 5xx responses are retried up to
// the policy limit; 4xx responses surface immediately.
type Client struct {
	httpClient *http.Client
	userAgent  string
	timeout    time.Duration
	policy     retry.Policy
}

func NewClient(httpClient *http.Client, userAgent string, timeout time.Duration) *Client {
	return &Client{
		httpClient: httpClient,
		userAgent:  userAgent,
		timeout:    timeout,
		policy: retry.Policy{
			Name:        "fetch",
			MaxAttempts: 3,
			Schedule:    retry.Exponential(1*time.Second, 10*time.Second, 2),
			RetryIf:     isRetryable,
		},
	}
}

func isRetryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.retryable
	}
	return true
}

// Fetch returns the response body of uri as text
func (c *Client) Fetch(ctx context.Context, uri string) (string, error) {
	slog.Debug("Fetching content", "uri", uri)

	var body string
	err := c.policy.Run(ctx, func() error {
		var attemptErr error
		body, attemptErr = c.get(ctx, uri)
		return attemptErr
	})
	if err != nil {
		return "", &FetchError{URI: uri, Err: err}
	}

	slog.Info("Fetched content", "uri", uri, "bytes", len(body))
	return body, nil
}

func (c *Client) get(ctx context.Context, uri string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, "GET", uri, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &statusError{
			code:      resp.StatusCode,
			status:    resp.Status,
			retryable: resp.StatusCode >= 500,
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	return string(data), nil
}
