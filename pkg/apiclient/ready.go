package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// healthURL is the backend health route, mounted beside the versioned API.
func (c *Client) healthURL() string {
	return c.baseURL + "/health"
}

// Ping performs a single health probe.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.healthURL(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return &APIError{Status: resp.StatusCode}
	}
	return nil
}

// WaitReady polls the backend health route with exponential backoff until
// it answers or maxWait elapses. Only used at startup; API calls themselves
// are never retried.
func (c *Client) WaitReady(ctx context.Context, maxWait time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = maxWait

	attempts := 0
	op := func() error {
		attempts++
		return c.Ping(ctx)
	}
	if err := backoff.Retry(op, backoff.WithContext(b, ctx)); err != nil {
		return fmt.Errorf("backend %s not ready after %d attempts: %w",
			strings.TrimSuffix(c.healthURL(), "/health"), attempts, err)
	}
	return nil
}
