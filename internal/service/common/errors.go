//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrNetwork classifies every failure to obtain a usable response.
var ErrNetwork = errors.New("network error")

// NetworkError describes a failed HTTP exchange.
// It matches ErrNetwork with errors.Is.
type NetworkError struct {
	// URL is the requested address without query string.
	URL string
	// StatusCode is set when the server answered with a non-success status.
	StatusCode int
	// RateLimitReset is set when the server reported an exhausted rate limit.
	RateLimitReset time.Time
	// Err is the underlying transport or decoding error, if any.
	Err error
}

// Error formats the failure for logs.
func (e *NetworkError) Error() string {
	switch {
	case !e.RateLimitReset.IsZero():
		return fmt.Sprintf("request %s: rate limit exceeded, resets at %s",
			e.URL, e.RateLimitReset.UTC().Format(time.RFC3339))
	case e.StatusCode != 0 && e.Err == nil:
		return fmt.Sprintf("request %s: unexpected status %d %s",
			e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	case e.StatusCode != 0:
		return fmt.Sprintf("request %s: status %d: %v", e.URL, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("request %s: %v", e.URL, e.Err)
	}
}

// Unwrap exposes ErrNetwork and the underlying error.
func (e *NetworkError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrNetwork}
	}

	return []error{ErrNetwork, e.Err}
}

// RateLimited reports whether the server refused the request because of a rate limit.
func (e *NetworkError) RateLimited() bool {
	return !e.RateLimitReset.IsZero()
}

// statusError builds a NetworkError for a non-success response.
// An exhausted X-RateLimit-Remaining quota is recorded with its reset time.
func statusError(rawURL string, resp *http.Response) *NetworkError {
	netErr := &NetworkError{
		URL:        rawURL,
		StatusCode: resp.StatusCode,
	}

	if resp.Header.Get("X-RateLimit-Remaining") != "0" {
		return netErr
	}

	// Malformed reset values still mark the error as rate limited.
	resetUnix, err := strconv.ParseInt(resp.Header.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil || resetUnix <= 0 {
		netErr.RateLimitReset = time.Now()
		return netErr
	}

	netErr.RateLimitReset = time.Unix(resetUnix, 0)

	return netErr
}
