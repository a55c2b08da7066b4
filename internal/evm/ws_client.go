package evm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"evm-token-gateway/internal/observability"
)

// WSClientConfig configures the WebSocket transport.
type WSClientConfig struct {
	ReconnectDelay    time.Duration // first redial delay, doubled per failure
	MaxReconnectDelay time.Duration
	PingInterval      time.Duration
	ReadTimeout       time.Duration // extended by every message and pong
	WriteTimeout      time.Duration
	HandshakeTimeout  time.Duration
	Logger            *zap.Logger // nil disables logging
}

// DefaultWSConfig returns the default WebSocket configuration.
func DefaultWSConfig() WSClientConfig {
	return WSClientConfig{
		ReconnectDelay:    time.Second,
		MaxReconnectDelay: 30 * time.Second,
		PingInterval:      30 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Second,
		HandshakeTimeout:  10 * time.Second,
	}
}

// withDefaults fills zero durations from DefaultWSConfig.
func (c WSClientConfig) withDefaults() WSClientConfig {
	d := DefaultWSConfig()
	for _, f := range []struct{ v, def *time.Duration }{
		{&c.ReconnectDelay, &d.ReconnectDelay},
		{&c.MaxReconnectDelay, &d.MaxReconnectDelay},
		{&c.PingInterval, &d.PingInterval},
		{&c.ReadTimeout, &d.ReadTimeout},
		{&c.WriteTimeout, &d.WriteTimeout},
		{&c.HandshakeTimeout, &d.HandshakeTimeout},
	} {
		if *f.v <= 0 {
			*f.v = *f.def
		}
	}
	return c
}

// WSClient is a Transport over one persistent WebSocket connection. A
// supervisor goroutine owns the read side and redials with backoff when the
// connection drops. Calls in flight at that moment fail with ErrUnavailable
// and are never replayed.
type WSClient struct {
	endpoint string
	cfg      WSClientConfig
	log      *zap.Logger
	dialer   websocket.Dialer

	// mu guards conn and serializes writes on it.
	mu   sync.Mutex
	conn *websocket.Conn

	nextID    atomic.Uint64
	pendingMu sync.Mutex
	pending   map[uint64]chan *rpcResponse

	ctx    context.Context // cancelled by Close
	cancel context.CancelFunc
	closed atomic.Bool
	wg     sync.WaitGroup
}

var _ Transport = (*WSClient)(nil)

// NewWSClient dials endpoint and starts the supervisor. A nil config uses
// DefaultWSConfig.
func NewWSClient(ctx context.Context, endpoint string, config *WSClientConfig) (*WSClient, error) {
	cfg := DefaultWSConfig()
	if config != nil {
		cfg = config.withDefaults()
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	c := &WSClient{
		endpoint: endpoint,
		cfg:      cfg,
		log:      log.With(zap.String("transport", "ws")),
		dialer:   websocket.Dialer{HandshakeTimeout: cfg.HandshakeTimeout},
		pending:  make(map[uint64]chan *rpcResponse),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())

	conn, err := c.dial(ctx)
	if err != nil {
		c.cancel()
		return nil, err
	}
	c.conn = conn

	c.wg.Add(1)
	go c.supervise(conn)
	return c, nil
}

func (c *WSClient) dial(ctx context.Context) (*websocket.Conn, error) {
	conn, _, err := c.dialer.DialContext(ctx, c.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: websocket dial: %w", ErrUnavailable, err)
	}
	return conn, nil
}

// Call writes one request and waits for the response with the same id.
func (c *WSClient) Call(ctx context.Context, result any, method string, params ...any) (err error) {
	start := time.Now()
	defer func() {
		observability.RecordRPCLatency(method, time.Since(start).Seconds())
		if err != nil {
			observability.RecordRPCError(method)
		}
	}()

	if c.closed.Load() {
		return ErrClientClosed
	}
	if params == nil {
		params = []any{}
	}

	id := c.nextID.Add(1)
	ch := make(chan *rpcResponse, 1)
	c.pendingMu.Lock()
	c.pending[id] = ch
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, id)
		c.pendingMu.Unlock()
	}()

	if err := c.write(rpcRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnavailable, method, err)
	}

	select {
	case resp, ok := <-ch:
		if !ok {
			return fmt.Errorf("%w: connection lost during %s", ErrUnavailable, method)
		}
		return resp.decodeResult(result)
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", method, ctx.Err())
	case <-c.ctx.Done():
		return ErrClientClosed
	}
}

func (c *WSClient) write(req rpcRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("not connected")
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	return c.conn.WriteJSON(req)
}

// Close stops the supervisor and fails every waiting call.
func (c *WSClient) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.cancel()

	c.mu.Lock()
	if c.conn != nil {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.conn.Close()
	}
	c.mu.Unlock()

	c.wg.Wait()
	c.failPending()
	return nil
}

// supervise reads conn until it fails, then redials until it succeeds or the
// client is closed.
func (c *WSClient) supervise(conn *websocket.Conn) {
	defer c.wg.Done()
	bo := newBackoff(c.cfg.ReconnectDelay, c.cfg.MaxReconnectDelay, 2)

	for {
		err := c.serve(conn)

		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		conn.Close()
		c.failPending()

		if c.closed.Load() {
			return
		}
		c.log.Warn("connection lost", zap.Error(err))

		for conn = nil; conn == nil; {
			if bo.wait(c.ctx) != nil {
				return
			}
			observability.RecordWSReconnect()
			conn, err = c.dial(c.ctx)
			if err != nil {
				c.log.Warn("reconnect failed", zap.Error(err))
			}
		}
		bo.reset()

		c.mu.Lock()
		if c.closed.Load() {
			c.mu.Unlock()
			conn.Close()
			return
		}
		c.conn = conn
		c.mu.Unlock()
		c.log.Info("reconnected")
	}
}

// serve dispatches responses from conn and keeps it alive with pings until a
// read fails.
func (c *WSClient) serve(conn *websocket.Conn) error {
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
	})

	stop := make(chan struct{})
	defer close(stop)
	c.wg.Add(1)
	go c.keepAlive(conn, stop)

	for {
		_ = conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.dispatch(msg)
	}
}

func (c *WSClient) keepAlive(conn *websocket.Conn, stop <-chan struct{}) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mu.Lock()
			// a dead connection surfaces as a read error in serve
			_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.cfg.WriteTimeout))
			c.mu.Unlock()
		}
	}
}

// dispatch hands a response to the call waiting for its id.
func (c *WSClient) dispatch(msg []byte) {
	var resp rpcResponse
	if err := json.Unmarshal(msg, &resp); err != nil {
		c.log.Debug("ignoring undecodable message", zap.Error(err))
		return
	}

	c.pendingMu.Lock()
	ch, ok := c.pending[resp.ID]
	delete(c.pending, resp.ID)
	c.pendingMu.Unlock()

	if !ok {
		c.log.Debug("response for unknown request", zap.Uint64("id", resp.ID))
		return
	}
	ch <- &resp
}

// failPending closes the channel of every waiting call.
func (c *WSClient) failPending() {
	c.pendingMu.Lock()
	defer c.pendingMu.Unlock()
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}
