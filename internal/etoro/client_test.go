package etoro

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// testClient creates a client against a test server with throttling
// effectively disabled and sleeps recorded instead of executed.
func testClient(t *testing.T, handler http.Handler) (*Client, *[]time.Duration) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient(Config{
		BaseURL:     srv.URL,
		MinInterval: time.Nanosecond,
		Timeout:     5 * time.Second,
		BatchDelay:  time.Nanosecond,
	})
	var slept []time.Duration
	c.sleep = func(d time.Duration) { slept = append(slept, d) }
	return c, &slept
}

func TestClientSendsFixedHeaders(t *testing.T) {
	var gotHeaders http.Header
	var gotReqID string
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotReqID = r.URL.Query().Get("client_request_id")
		json.NewEncoder(w).Encode(map[string]any{})
	}))

	var out map[string]any
	if err := c.getJSON(context.Background(), "/sapi/anything", nil, &out); err != nil {
		t.Fatalf("getJSON: %v", err)
	}

	tests := []struct {
		header string
		want   string
	}{
		{"AccountType", "Real"},
		{"ApplicationIdentifier", "ReToro"},
		{"Accept", "application/json"},
	}
	for _, tt := range tests {
		if got := gotHeaders.Get(tt.header); got != tt.want {
			t.Errorf("header %s = %q, want %q", tt.header, got, tt.want)
		}
	}
	if gotHeaders.Get("ApplicationVersion") == "" {
		t.Error("ApplicationVersion header not set")
	}
	if gotReqID == "" {
		t.Error("client_request_id query param not set")
	}
}

func TestClientCorrelationIDUniquePerRequest(t *testing.T) {
	var ids []string
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids = append(ids, r.URL.Query().Get("client_request_id"))
		json.NewEncoder(w).Encode(map[string]any{})
	}))

	var out map[string]any
	for i := 0; i < 3; i++ {
		if err := c.getJSON(context.Background(), "/x", nil, &out); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}

	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("correlation id %q repeated", id)
		}
		seen[id] = true
	}
}

func TestClientThrottleSpacing(t *testing.T) {
	c := NewClient(Config{MinInterval: 100 * time.Millisecond})
	var slept []time.Duration
	c.sleep = func(d time.Duration) { slept = append(slept, d) }

	// First call claims the slot without waiting; the second must wait
	// close to the full interval.
	c.throttleWait()
	c.throttleWait()

	if len(slept) != 1 {
		t.Fatalf("expected 1 sleep, got %d (%v)", len(slept), slept)
	}
	if slept[0] < 50*time.Millisecond || slept[0] > 100*time.Millisecond {
		t.Errorf("second request waited %v, want close to 100ms", slept[0])
	}
}

func TestClientRateLimitPenalty(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	var out map[string]any
	err := c.getJSON(context.Background(), "/x", nil, &out)
	if !IsRateLimit(err) {
		t.Fatalf("expected rate limit error, got %v", err)
	}

	// The penalty must push the shared watermark several seconds out.
	c.mu.Lock()
	wait := time.Until(c.nextAllowed)
	c.mu.Unlock()
	if wait < 4*time.Second {
		t.Errorf("watermark only %v away after 429, want >= ~5s", wait)
	}
}

func TestClientPenalizeNeverMovesWatermarkBackward(t *testing.T) {
	c := NewClient(Config{})
	c.Penalize(10 * time.Second)
	c.Penalize(time.Second) // shorter penalty must not shrink the wait

	c.mu.Lock()
	wait := time.Until(c.nextAllowed)
	c.mu.Unlock()
	if wait < 9*time.Second {
		t.Errorf("watermark moved backward: %v remaining, want ~10s", wait)
	}
}

func TestClientHTTPError(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream exploded"))
	}))

	var out map[string]any
	err := c.getJSON(context.Background(), "/x", nil, &out)

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %T: %v", err, err)
	}
	if httpErr.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", httpErr.Status)
	}
	if httpErr.Body != "upstream exploded" {
		t.Errorf("body = %q", httpErr.Body)
	}
	if IsRateLimit(err) || IsTimeout(err) {
		t.Error("plain HTTP error misclassified")
	}
}

func TestClientTimeout(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	c.timeout = 20 * time.Millisecond

	var out map[string]any
	err := c.getJSON(context.Background(), "/slow", nil, &out)
	if !IsTimeout(err) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestClientBadJSON(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))

	var out map[string]any
	if err := c.getJSON(context.Background(), "/x", nil, &out); err == nil {
		t.Fatal("expected parse error for non-JSON body")
	}
}

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(Config{})
	if c.baseURL != DefaultBaseURL {
		t.Errorf("baseURL = %q", c.baseURL)
	}
	if c.minInterval != DefaultMinInterval {
		t.Errorf("minInterval = %v", c.minInterval)
	}
	if c.timeout != DefaultTimeout {
		t.Errorf("timeout = %v", c.timeout)
	}
	if c.batchSize != 50 {
		t.Errorf("batchSize = %d, want 50", c.batchSize)
	}
}
