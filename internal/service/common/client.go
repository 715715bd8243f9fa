//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultMaxResponseBytes bounds decoded API responses (32 MB).
const DefaultMaxResponseBytes = 32 << 20

// ErrResponseTooLarge is returned when a JSON body exceeds the configured bound.
var ErrResponseTooLarge = errors.New("response body too large")

// Client wraps an *http.Client with the identification header every request carries.
// It is built once per process and shared by all services.
type Client struct {
	// httpClient performs the requests and owns the connection pool.
	httpClient *http.Client
	// userAgent is sent as the User-Agent header.
	userAgent string
	// timeout bounds a single request when positive.
	timeout time.Duration
	// maxResponseBytes bounds bodies decoded by GetJSON.
	maxResponseBytes int64
}

// Option configures client behaviour.
type Option func(*Client)

// RequestOption adjusts a single outgoing request.
type RequestOption func(*http.Request)

// WithHTTPClient sets the underlying HTTP client, useful for tests or proxies.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithTimeout bounds every request, including streamed bodies.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithMaxResponseBytes bounds the bodies decoded by GetJSON.
func WithMaxResponseBytes(limit int64) Option {
	return func(c *Client) {
		if limit > 0 {
			c.maxResponseBytes = limit
		}
	}
}

// WithHeader sets a header on one request.
func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) {
		r.Header.Set(key, value)
	}
}

// WithBearerToken authenticates one request. An empty token is ignored.
func WithBearerToken(token string) RequestOption {
	return func(r *http.Request) {
		if token != "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
	}
}

// New creates a Client. The provided *http.Client is copied when a timeout is
// set so shared clients such as http.DefaultClient are never mutated.
func New(opts ...Option) *Client {
	client := &Client{
		httpClient:       new(http.Client),
		maxResponseBytes: DefaultMaxResponseBytes,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.timeout > 0 {
		httpClient := *client.httpClient
		httpClient.Timeout = client.timeout
		client.httpClient = &httpClient
	}

	return client
}

// UserAgent returns the identification header value.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// Get performs a GET request and returns the response when the status is 200.
// The caller must close the response body. Any other outcome is a *NetworkError.
func (c *Client) Get(ctx context.Context, rawURL string, opts ...RequestOption) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, &NetworkError{URL: redactURL(rawURL), Err: fmt.Errorf("create request: %w", err)}
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	for _, opt := range opts {
		opt(req)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: redactURL(rawURL), Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 1<<10)
		_ = resp.Body.Close()

		return nil, statusError(redactURL(rawURL), resp)
	}

	return resp, nil
}

// GetJSON decodes the JSON body of a GET request into target.
// The response headers are returned so callers can follow pagination links.
func (c *Client) GetJSON(ctx context.Context, rawURL string, target any, opts ...RequestOption) (http.Header, error) {
	opts = append([]RequestOption{WithHeader("Accept", "application/json")}, opts...)

	resp, err := c.Get(ctx, rawURL, opts...)
	if err != nil {
		return nil, err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	// One byte past the bound tells a truncated body apart from a malformed one.
	body := &io.LimitedReader{R: resp.Body, N: c.maxResponseBytes + 1}

	if err = json.NewDecoder(body).Decode(target); err != nil {
		if body.N <= 0 {
			err = fmt.Errorf("%w: more than %d bytes", ErrResponseTooLarge, c.maxResponseBytes)
		} else {
			err = fmt.Errorf("decode response: %w", err)
		}

		return nil, &NetworkError{URL: redactURL(rawURL), Err: err}
	}

	return resp.Header, nil
}

// Stream copies the body of a GET request into w chunk by chunk and returns
// the number of bytes copied. The body is never held in memory as a whole.
func (c *Client) Stream(ctx context.Context, rawURL string, w io.Writer, opts ...RequestOption) (int64, error) {
	resp, err := c.Get(ctx, rawURL, opts...)
	if err != nil {
		return 0, err
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	written, err := io.Copy(w, resp.Body)
	if err != nil {
		return written, &NetworkError{URL: redactURL(rawURL), Err: fmt.Errorf("read body: %w", err)}
	}

	return written, nil
}

// redactURL strips query parameters and fragments so tokens never end up in errors.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}

	u.RawQuery = ""
	u.Fragment = ""
	u.User = nil

	return u.String()
}
