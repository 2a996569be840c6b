// Package client provides the two call surfaces over a bridge session: a
// blocking facade (Client) and a future-based one (AsyncClient). Both speak
// the same wire protocol over one multiplexed session.
package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"mt5bridge/codec"
	"mt5bridge/contract"
	"mt5bridge/message"
	"mt5bridge/registry"
	"mt5bridge/transport"
)

// DefaultTimeout bounds a call when no per-client timeout is configured.
// Terminal operations can be slow (history scans over years of deals), so
// the default is generous.
const DefaultTimeout = 300 * time.Second

// Client is the synchronous facade: one blocking method per contract
// operation. Construct with New, establish the session with Connect (or use
// WithSession for scoped acquisition), and share freely across goroutines;
// the session multiplexes concurrent calls.
type Client struct {
	addr    string
	timeout time.Duration
	logger  *zap.Logger

	reg    registry.Registry
	picker registry.Picker

	sessOpts []transport.Option

	mu   sync.Mutex // guards sess across Connect/Close
	sess *transport.Session
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the default per-call timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the client logger, also passed to the session layer.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// WithDiscovery resolves the endpoint through a registry at connect time
// instead of the static address.
func WithDiscovery(reg registry.Registry, picker registry.Picker) ClientOption {
	return func(c *Client) {
		c.reg = reg
		c.picker = picker
	}
}

// WithSessionOptions forwards options to the underlying session (codec,
// heartbeat interval).
func WithSessionOptions(opts ...transport.Option) ClientOption {
	return func(c *Client) { c.sessOpts = append(c.sessOpts, opts...) }
}

// New creates a disconnected client for the given endpoint address. The
// address may be empty when WithDiscovery is used.
func New(addr string, opts ...ClientOption) *Client {
	c := &Client{
		addr:    addr,
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Connect establishes the session. Fails with ErrConnection on any
// network-level failure, including an empty discovery result.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess != nil && !c.sess.IsClosed() {
		return nil
	}

	addr := c.addr
	if c.reg != nil {
		instances, err := c.reg.Discover(registry.ServiceName)
		if err != nil {
			return fmt.Errorf("%w: discover: %v", contract.ErrConnection, err)
		}
		inst, err := c.picker.Pick(instances)
		if err != nil {
			return fmt.Errorf("%w: %v", contract.ErrConnection, err)
		}
		addr = inst.Addr
	}

	opts := append([]transport.Option{transport.WithLogger(c.logger)}, c.sessOpts...)
	sess, err := transport.Dial(ctx, addr, opts...)
	if err != nil {
		return err
	}
	c.sess = sess
	c.logger.Debug("session established", zap.String("addr", addr))
	return nil
}

// Close tears the session down. Idempotent; safe on a never-connected
// client.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil {
		return nil
	}
	err := c.sess.Close()
	c.sess = nil
	return err
}

// WithSession runs fn inside a managed connection scope: Connect before,
// Close after, unconditionally. fn's error (or panic) does not leak the
// session.
func (c *Client) WithSession(ctx context.Context, fn func(*Client) error) error {
	if err := c.Connect(ctx); err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

// session returns the live session or ErrConnectionClosed when the client
// is not connected.
func (c *Client) session() (*transport.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sess == nil || c.sess.IsClosed() {
		return nil, fmt.Errorf("%w: not connected, call Connect first", contract.ErrConnectionClosed)
	}
	return c.sess, nil
}

// roundTrip performs one request/response exchange and unwraps the error
// descriptor.
func (c *Client) roundTrip(ctx context.Context, op string, params any) (*message.Envelope, error) {
	sess, err := c.session()
	if err != nil {
		return nil, err
	}
	payload, err := codec.EncodeRecord(params)
	if err != nil {
		return nil, err
	}
	env, err := sess.Call(ctx, op, message.KindRecord, payload, c.timeout)
	if err != nil {
		return nil, err
	}
	if err := contract.ErrorFromEnvelope(op, env); err != nil {
		return nil, err
	}
	return env, nil
}

// call exchanges a record request for a record response decoded into out.
// Pass nil out for operations without a result payload.
func (c *Client) call(ctx context.Context, op string, params, out any) error {
	env, err := c.roundTrip(ctx, op, params)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return codec.DecodeRecord(env.Payload, out)
}

// callArray exchanges a record request for a typed numeric array response.
func (c *Client) callArray(ctx context.Context, op string, params any) (*codec.Array, error) {
	env, err := c.roundTrip(ctx, op, params)
	if err != nil {
		return nil, err
	}
	if env.Kind != message.KindArray {
		return nil, fmt.Errorf("%w: %s returned kind %d, want array", contract.ErrMalformedPayload, op, env.Kind)
	}
	return codec.DecodeArray(env.Payload)
}
