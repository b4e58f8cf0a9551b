package etoro

import (
	"errors"
	"fmt"
)

// HTTPError is returned for non-2xx responses other than 429.
type HTTPError struct {
	Status int
	Body   string
	URL    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("etoro: HTTP %d from %s: %s", e.Status, e.URL, e.Body)
}

// RateLimitError is returned on HTTP 429. The client does not retry;
// it pushes the shared throttle watermark forward so the next request
// anywhere in the process waits longer.
type RateLimitError struct {
	URL string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("etoro: rate limited (429) on %s", e.URL)
}

// TimeoutError is returned when a request exceeds the client's
// per-request timeout.
type TimeoutError struct {
	URL string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("etoro: request timed out: %s", e.URL)
}

// IsRateLimit reports whether err is (or wraps) a RateLimitError.
func IsRateLimit(err error) bool {
	var rl *RateLimitError
	return errors.As(err, &rl)
}

// IsTimeout reports whether err is (or wraps) a TimeoutError.
func IsTimeout(err error) bool {
	var to *TimeoutError
	return errors.As(err, &to)
}
