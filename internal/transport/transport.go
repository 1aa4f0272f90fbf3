// Package transport is the JSON-over-HTTP plumbing shared by the broker clients.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"FyersSentinel/internal/apperr"
)

const maxBodyBytes = 4 << 20

// Client issues JSON requests with a per-call timeout and an optional client-side rate limit.
type Client struct {
	HTTP    *http.Client
	Timeout time.Duration
	Limiter *rate.Limiter
}

// NewClient creates a client with optional proxy support.
// Redirects are not followed: the broker's token endpoint answers with a 3xx carrying a JSON body.
func NewClient(proxyURL string, timeout time.Duration, requestsPerSecond float64) *Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	c := &Client{
		HTTP: &http.Client{
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		Timeout: timeout,
	}
	if requestsPerSecond > 0 {
		c.Limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return c
}

// StatusError is a non-success HTTP status. It unwraps to the matching apperr kind, if any.
type StatusError struct {
	Op     string
	Status int
	Body   string
	kind   error
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d, body: %s", e.Op, e.Status, e.Body)
}

func (e *StatusError) Unwrap() error { return e.kind }

func newStatusError(op string, status int, body []byte) *StatusError {
	b := string(body)
	if len(b) > 256 {
		b = b[:256] + "..."
	}
	e := &StatusError{Op: op, Status: status, Body: b}
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		e.kind = apperr.ErrAuthExpired
	case status == http.StatusTooManyRequests:
		e.kind = apperr.ErrRateLimited
	case status >= 500:
		e.kind = apperr.ErrUnavailable
	}
	return e
}

// Do sends in (if non-nil) as JSON and decodes the response into out (if non-nil).
func (c *Client) Do(ctx context.Context, op, method, endpoint string, header http.Header, in, out any) error {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return callError(ctx, op, err)
		}
	}

	callCtx := ctx
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(callCtx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return callError(ctx, op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return callError(ctx, op, err)
	}
	if resp.StatusCode >= 400 {
		return newStatusError(op, resp.StatusCode, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("%s: decode response: %w: %w", op, apperr.ErrProtocol, err)
		}
	}
	return nil
}

// callError classifies a failed round trip. Cancellation by the caller passes through
// untouched; anything else, including the per-call timeout, is Unavailable.
func callError(parent context.Context, op string, err error) error {
	if perr := parent.Err(); perr != nil && errors.Is(perr, context.Canceled) {
		return fmt.Errorf("%s: %w", op, perr)
	}
	return fmt.Errorf("%s: %w: %v", op, apperr.ErrUnavailable, err)
}
