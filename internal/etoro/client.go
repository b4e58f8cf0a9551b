// Package etoro implements the client for eToro's public (unauthenticated)
// REST API: popular-investor rankings, live public portfolios, trade
// statistics, and batched instrument/user metadata lookups.
//
// The API is not officially documented and is aggressively rate limited,
// so every request goes through a single shared throttle: a watermark of
// the earliest allowed send time. A 429 response pushes the watermark
// forward for the whole process, not just the failing call.
package etoro

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultBaseURL is the public web API root.
	DefaultBaseURL = "https://www.etoro.com"

	// DefaultMinInterval is the minimum wall-clock gap between two
	// consecutive outbound requests.
	DefaultMinInterval = 1100 * time.Millisecond

	// DefaultTimeout bounds a single request end to end.
	DefaultTimeout = 15 * time.Second

	// RateLimitPenalty is how far a 429 pushes the throttle watermark.
	RateLimitPenalty = 5 * time.Second

	// maxErrorBody caps how much of an error response body is kept.
	maxErrorBody = 512
)

// Fixed identity headers expected by the public API.
const (
	headerAccountType = "AccountType"
	headerAppID       = "ApplicationIdentifier"
	headerAppVersion  = "ApplicationVersion"

	accountTypeReal = "Real"
	appIdentifier   = "ReToro"
	appVersion      = "v602.519.2"
)

// Config holds client settings. The zero value is usable; unset fields
// fall back to the Default* constants.
type Config struct {
	BaseURL     string
	MinInterval time.Duration
	Timeout     time.Duration
	BatchSize   int           // ids per metadata batch request
	BatchDelay  time.Duration // pause between metadata batch requests
}

// Client talks to the eToro public API. It owns the shared request
// throttle; create one Client per process and pass it around.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	minInterval time.Duration
	timeout     time.Duration
	batchSize   int
	batchDelay  time.Duration

	mu          sync.Mutex
	nextAllowed time.Time // earliest time the next request may be sent

	sleep func(time.Duration) // overridable in tests
}

// NewClient creates a client with the given config.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.MinInterval == 0 {
		cfg.MinInterval = DefaultMinInterval
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 50
	}
	if cfg.BatchDelay == 0 {
		cfg.BatchDelay = 500 * time.Millisecond
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		minInterval: cfg.MinInterval,
		timeout:     cfg.Timeout,
		batchSize:   cfg.BatchSize,
		batchDelay:  cfg.BatchDelay,
		sleep:       time.Sleep,
	}
}

// Penalize pushes the throttle watermark at least d into the future.
// Every caller of the client is delayed, which is the point: 429s are a
// signal about the whole process, not one call.
func (c *Client) Penalize(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t := time.Now().Add(d); t.After(c.nextAllowed) {
		c.nextAllowed = t
	}
}

// throttleWait blocks until the minimum interval since the previous
// request has elapsed, then claims the next send slot.
func (c *Client) throttleWait() {
	c.mu.Lock()
	now := time.Now()
	wait := c.nextAllowed.Sub(now)
	if wait < 0 {
		wait = 0
	}
	c.nextAllowed = now.Add(wait + c.minInterval)
	c.mu.Unlock()

	if wait > 0 {
		c.sleep(wait)
	}
}

// getJSON performs a throttled GET against path (relative to the base
// URL) and decodes the JSON response into dest.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, dest any) error {
	c.throttleWait()

	if query == nil {
		query = url.Values{}
	}
	query.Set("client_request_id", uuid.NewString())
	u := c.baseURL + path + "?" + query.Encode()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(headerAccountType, accountTypeReal)
	req.Header.Set(headerAppID, appIdentifier)
	req.Header.Set(headerAppVersion, appVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var nerr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
			return &TimeoutError{URL: u}
		}
		return fmt.Errorf("etoro: GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		c.Penalize(RateLimitPenalty)
		return &RateLimitError{URL: u}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{Status: resp.StatusCode, Body: string(body), URL: u}
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("etoro: parse response from %s: %w", u, err)
	}
	return nil
}
