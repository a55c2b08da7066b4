// Package content retrieves off-chain documents from HTTP(S) and IPFS.
package content

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"evm-token-gateway/internal/observability"
)

// Default configuration values.
const (
	DefaultGatewayURL = "https://ipfs.io"
	DefaultMaxBytes   = 16 << 20
	DefaultTimeout    = 30 * time.Second
	chunkSize         = 32 << 10
)

// Fetcher implements content retrieval over HTTP. IPFS content is read from
// a Kubo RPC API when configured and from a public gateway otherwise.
type Fetcher struct {
	client     *http.Client
	gatewayURL string
	apiURL     string
	maxBytes   int64
	log        *zap.Logger
}

// Option configures Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithGateway sets the IPFS gateway base URL.
func WithGateway(u string) Option {
	return func(f *Fetcher) {
		if u != "" {
			f.gatewayURL = strings.TrimRight(u, "/")
		}
	}
}

// WithAPI sets the Kubo RPC API base URL used for hash retrieval.
func WithAPI(u string) Option {
	return func(f *Fetcher) {
		f.apiURL = strings.TrimRight(u, "/")
	}
}

// WithMaxBytes bounds the size of a single payload.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

// NewFetcher creates a new content fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:     &http.Client{Timeout: DefaultTimeout},
		gatewayURL: DefaultGatewayURL,
		maxBytes:   DefaultMaxBytes,
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FetchJSON resolves uri and returns the document bytes unchanged.
// The payload must be valid JSON.
func (f *Fetcher) FetchJSON(ctx context.Context, uri string) ([]byte, error) {
	target, err := Resolve(uri, f.gatewayURL)
	if err != nil {
		return nil, err
	}

	var data []byte
	if target.Source == SourceData {
		data = target.Data
	} else {
		data, err = f.get(ctx, target.Source, http.MethodGet, target.URL)
		if err != nil {
			return nil, err
		}
	}

	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidJSON, uri)
	}
	return data, nil
}

// Cat returns the full content addressed by an IPFS hash.
func (f *Fetcher) Cat(ctx context.Context, hash string) ([]byte, error) {
	if err := ValidateCID(hash); err != nil {
		return nil, err
	}

	if f.apiURL != "" {
		// Kubo RPC only accepts POST.
		return f.get(ctx, SourceAPI, http.MethodPost, f.apiURL+"/api/v0/cat?arg="+url.QueryEscape(hash))
	}
	return f.get(ctx, SourceGateway, http.MethodGet, f.gatewayURL+"/ipfs/"+hash)
}

// get performs one request and reads the body in chunks up to maxBytes.
func (f *Fetcher) get(ctx context.Context, source Source, method, target string) (data []byte, err error) {
	start := time.Now()
	defer func() {
		observability.RecordContentFetch(string(source), time.Since(start).Seconds(), len(data), err)
		if err != nil {
			f.log.Debug("content fetch failed", zap.String("source", string(source)), zap.String("url", target), zap.Error(err))
		}
	}()

	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("fetch %s: %w", target, ctxErr)
		}
		return nil, fmt.Errorf("fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, target)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		if isKuboNotFound(source, body) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, target)
		}
		return nil, &StatusError{URL: target, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	return f.readChunks(ctx, resp.Body)
}

// readChunks concatenates body chunks into one buffer.
func (f *Fetcher) readChunks(ctx context.Context, body io.Reader) ([]byte, error) {
	var buf bytes.Buffer
	chunk := make([]byte, chunkSize)

	for {
		n, err := body.Read(chunk)
		if n > 0 {
			if int64(buf.Len()+n) > f.maxBytes {
				return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, f.maxBytes)
			}
			buf.Write(chunk[:n])
		}
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("read body: %w", ctxErr)
			}
			return nil, fmt.Errorf("read body: %w", err)
		}
	}
}

// isKuboNotFound detects the 500 "not found" errors the Kubo RPC API returns
// for unknown or unreachable blocks.
func isKuboNotFound(source Source, body []byte) bool {
	if source != SourceAPI {
		return false
	}
	var kuboErr struct {
		Message string `json:"Message"`
	}
	if err := json.Unmarshal(body, &kuboErr); err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(kuboErr.Message), "not found")
}
