package evm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"evm-token-gateway/internal/observability"
)

const (
	DefaultTimeout    = 30 * time.Second
	DefaultMaxRetries = 0
	DefaultRetryDelay = 500 * time.Millisecond
	DefaultMaxDelay   = 5 * time.Second

	maxResponseBytes = 32 << 20
	maxErrorBody     = 256
)

// Broadcasting methods are sent exactly once regardless of the retry setting.
var neverRetry = map[string]struct{}{
	"eth_sendRawTransaction": {},
	"eth_sendTransaction":    {},
}

// HTTPClient is a Transport that POSTs one JSON-RPC request per call.
type HTTPClient struct {
	endpoint   string
	http       *http.Client
	maxRetries int
	retryDelay time.Duration
	maxDelay   time.Duration
	ids        atomic.Uint64
}

var _ Transport = (*HTTPClient)(nil)

// ClientOption configures an HTTPClient.
type ClientOption func(*HTTPClient)

// WithTimeout bounds each HTTP round trip.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) { c.http.Timeout = d }
}

// WithMaxRetries sets how often a transport failure is retried. RPC error
// responses are final.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) { c.maxRetries = n }
}

// WithRetryDelay sets the delay before the first retry. Later delays grow
// exponentially up to the max delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) { c.retryDelay = d }
}

// WithMaxDelay caps the delay between retries.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) { c.maxDelay = d }
}

// WithHTTPClient replaces the underlying http.Client. Its Timeout bounds
// each attempt.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *HTTPClient) { c.http = hc }
}

// NewHTTPClient creates a JSON-RPC client for endpoint. Without options it
// uses DefaultTimeout and does not retry.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:   endpoint,
		http:       &http.Client{Timeout: DefaultTimeout},
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		maxDelay:   DefaultMaxDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Call invokes method and decodes the result into result. Transport failures
// are retried per the client options, except for broadcast methods. When
// every attempt fails the error wraps ErrUnavailable.
func (c *HTTPClient) Call(ctx context.Context, result any, method string, params ...any) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordRPCLatency(method, time.Since(start).Seconds())
		if err != nil {
			observability.RecordRPCError(method)
		}
	}()

	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: c.ids.Add(1), Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("encode %s request: %w", method, err)
	}

	attempts := c.maxRetries + 1
	if _, ok := neverRetry[method]; ok {
		attempts = 1
	}
	bo := newBackoff(c.retryDelay, c.maxDelay, 2)

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := bo.wait(ctx); err != nil {
				return fmt.Errorf("%s: %w", method, err)
			}
		}

		resp, err := c.roundTrip(ctx, body)
		if err == nil {
			return resp.decodeResult(result)
		}
		if ctx.Err() != nil {
			return fmt.Errorf("%s: %w", method, ctx.Err())
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, method, lastErr)
}

// roundTrip posts body and decodes the JSON-RPC envelope. An error object in
// the envelope is returned inside the response, not as err.
func (c *HTTPClient) roundTrip(ctx context.Context, body []byte) (*rpcResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out rpcResponse
	decodeErr := json.Unmarshal(raw, &out)
	switch {
	case decodeErr == nil && out.Error != nil:
		return &out, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("http status %d: %s", resp.StatusCode, clip(raw))
	case decodeErr != nil:
		return nil, fmt.Errorf("decode response: %w", decodeErr)
	}
	return &out, nil
}

// Close is a no-op.
func (c *HTTPClient) Close() error { return nil }

func clip(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
