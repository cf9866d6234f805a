// Package httpapi sends JSON requests to AI provider APIs.
//
// Rate limits (429) and server errors (5xx) are retried with exponential
// backoff. A Retry-After header, when present, replaces the next delay.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/qplens/qplens/internal/logger"
)

// Retry defaults.
const (
	DefaultMaxRetries = 3
	DefaultBackoff    = time.Second

	maxBackoff = 10 * time.Second
)

// maxMessageLen bounds how much of an error body ends up in an error message.
const maxMessageLen = 300

// Client is a JSON client bound to one provider's base URL.
type Client struct {
	provider   string
	baseURL    string
	http       *http.Client
	header     map[string]string
	maxRetries int
	backoff    time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithHeader sets a header on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.header[key] = value
	}
}

// WithRetries sets how often a failed POST is retried and the first delay.
// Zero values keep the defaults; a negative maxRetries disables retries.
func WithRetries(maxRetries int, initial time.Duration) Option {
	return func(c *Client) {
		switch {
		case maxRetries < 0:
			c.maxRetries = 0
		case maxRetries > 0:
			c.maxRetries = maxRetries
		}
		if initial > 0 {
			c.backoff = initial
		}
	}
}

// New creates a client for provider (used in error messages) at baseURL.
func New(provider, baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		provider:   provider,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		http:       &http.Client{Timeout: timeout},
		header:     make(map[string]string),
		maxRetries: DefaultMaxRetries,
		backoff:    DefaultBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the URL requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Post sends in as JSON to path and decodes the response into out.
// out may be nil when the body is not needed.
func (c *Client) Post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: marshal request: %w", c.provider, err)
	}

	b := &hintedBackOff{ExponentialBackOff: newExponential(c.backoff)}

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		err := c.do(ctx, http.MethodPost, path, body, out)
		if err == nil {
			return struct{}{}, nil
		}
		if !retryable(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		var se *StatusError
		if errors.As(err, &se) {
			b.hint = se.RetryAfter
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.maxRetries)+1),
		backoff.WithNotify(func(err error, next time.Duration) {
			logger.Debug("%s %s failed, retrying in %v: %v", c.provider, path, next, err)
		}),
	)
	return err
}

// Get sends a single GET to path. Used for connectivity checks, so it is
// never retried.
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", c.provider, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.header {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: send request: %w", c.provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", c.provider, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{
			Provider:   c.provider,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(raw),
			RetryAfter: retryAfter(resp.Header.Get("Retry-After")),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", c.provider, err)
	}
	return nil
}

// StatusError is a non-2xx response from a provider.
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string

	// RetryAfter is the server's requested delay, zero if none was given.
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: API returned status %d", e.Provider, e.StatusCode)
	}
	return fmt.Sprintf("%s: API returned status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Temporary reports whether the request may succeed if sent again.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// errorMessage pulls the human-readable message out of an error body.
// OpenAI and Anthropic send {"error":{"message":...}}, Ollama {"error":"..."}.
func errorMessage(raw []byte) string {
	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &nested) == nil && nested.Error.Message != "" {
		return nested.Error.Message
	}

	var flat struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &flat) == nil && flat.Error != "" {
		return flat.Error
	}

	msg := strings.TrimSpace(string(raw))
	if len(msg) > maxMessageLen {
		msg = msg[:maxMessageLen] + "..."
	}
	return msg
}

// retryAfter parses a Retry-After header given in seconds.
func retryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func newExponential(initial time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = maxBackoff
	b.Reset()
	return b
}

// hintedBackOff is an exponential backoff that yields once to a server hint.
type hintedBackOff struct {
	*backoff.ExponentialBackOff
	hint time.Duration
}

func (b *hintedBackOff) NextBackOff() time.Duration {
	next := b.ExponentialBackOff.NextBackOff()
	if b.hint > 0 {
		next = min(b.hint, maxBackoff)
		b.hint = 0
	}
	return next
}
