// Package transport implements the client-side session layer with
// multiplexing over a single TCP connection.
//
// Each request gets a unique correlation id, and a background goroutine
// (recvLoop) continuously reads responses and routes them to the matching
// pending completion. Responses may arrive in any order:
//
//	goroutine-1 ──Call(corr=1)──┐
//	goroutine-2 ──Call(corr=2)──┼──→ single TCP conn ──→ dispatcher
//	goroutine-3 ──Call(corr=3)──┘
//
//	recvLoop:  ←── response(corr=2) → pending[2] ← envelope → goroutine-2 wakes up
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"mt5bridge/codec"
	"mt5bridge/contract"
	"mt5bridge/message"
	"mt5bridge/protocol"
)

// State is the session lifecycle state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateClosing:
		return "closing"
	}
	return "unknown"
}

// DefaultHeartbeatInterval keeps idle sessions alive through NAT and
// server-side idle timeouts.
const DefaultHeartbeatInterval = 30 * time.Second

// Session manages one multiplexed connection to a bridge server.
//
// A Session is safe for concurrent Call and Close; the pending-completion
// map is guarded against races between the reader path, new-call
// registration, timeout expiry, and teardown.
type Session struct {
	conn      net.Conn
	codec     codec.Codec
	logger    *zap.Logger
	heartbeat time.Duration

	state atomic.Int32

	mu      sync.Mutex // guards corr and pending
	corr    uint32     // monotonically increasing correlation id
	pending map[uint32]chan *message.Envelope

	sending sync.Mutex // serializes frame writes; interleaved writes corrupt the stream

	done      chan struct{} // closed on teardown; wakes every pending caller
	closeOnce sync.Once
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithCodec sets the envelope codec. Defaults to the binary codec.
func WithCodec(c codec.Codec) Option {
	return func(s *Session) { s.codec = c }
}

// WithHeartbeatInterval sets the keepalive probe interval. Zero disables
// heartbeats.
func WithHeartbeatInterval(d time.Duration) Option {
	return func(s *Session) { s.heartbeat = d }
}

// Dial connects to a bridge server endpoint and returns an established
// session. Network-level failure is reported as ErrConnection.
func Dial(ctx context.Context, addr string, opts ...Option) (*Session, error) {
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", contract.ErrConnection, addr, err)
	}
	return NewSession(conn, opts...), nil
}

// NewSession wraps an established connection and starts the reader and
// heartbeat goroutines. Useful for tests that pre-dial their own conn.
func NewSession(conn net.Conn, opts ...Option) *Session {
	s := &Session{
		conn:      conn,
		codec:     codec.Get(codec.TypeBinary),
		logger:    zap.NewNop(),
		heartbeat: DefaultHeartbeatInterval,
		pending:   make(map[uint32]chan *message.Envelope),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.state.Store(int32(StateConnected))
	go s.recvLoop()
	if s.heartbeat > 0 {
		go s.heartbeatLoop(s.heartbeat)
	}
	return s
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Send serializes one request envelope, registers a pending completion, and
// writes the frame. It returns the correlation id and the channel the
// response will arrive on. Most callers want Call instead.
func (s *Session) Send(op string, kind message.Kind, payload []byte) (uint32, <-chan *message.Envelope, error) {
	if s.State() != StateConnected {
		return 0, nil, fmt.Errorf("%w: session is %s", contract.ErrConnectionClosed, s.State())
	}

	env := &message.Envelope{Op: op, Kind: kind, Payload: payload}
	body, err := s.codec.Encode(env)
	if err != nil {
		return 0, nil, err
	}

	// Register the completion BEFORE writing, so a fast response cannot
	// race past the reader lookup. Buffered so recvLoop never blocks.
	ch := make(chan *message.Envelope, 1)
	s.mu.Lock()
	s.corr++
	corr := s.corr
	s.pending[corr] = ch
	s.mu.Unlock()

	header := &protocol.Header{
		CodecType: byte(s.codec.Type()),
		MsgType:   protocol.MsgTypeRequest,
		Corr:      corr,
		BodyLen:   uint32(len(body)),
	}

	s.sending.Lock()
	err = protocol.Encode(s.conn, header, body)
	s.sending.Unlock()
	if err != nil {
		s.forget(corr)
		return 0, nil, fmt.Errorf("%w: write %s: %v", contract.ErrConnectionClosed, op, err)
	}

	return corr, ch, nil
}

// Call performs one blocking request/response exchange. On timeout expiry
// the pending completion is removed and ErrTimeout returned; a late
// response for that correlation id is discarded by the reader. Context
// expiry behaves the same way: a deadline surfaces ErrTimeout, a plain
// cancellation ErrCancelled; the request already on the wire is not
// retracted.
func (s *Session) Call(ctx context.Context, op string, kind message.Kind, payload []byte, timeout time.Duration) (*message.Envelope, error) {
	corr, ch, err := s.Send(op, kind, payload)
	if err != nil {
		return nil, err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case env := <-ch:
		return env, nil
	case <-timer.C:
		s.forget(corr)
		return nil, fmt.Errorf("%w: %s after %s", contract.ErrTimeout, op, timeout)
	case <-ctx.Done():
		s.forget(corr)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s: %v", contract.ErrTimeout, op, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %s: %v", contract.ErrCancelled, op, ctx.Err())
	case <-s.done:
		// The response may have been delivered just before teardown.
		select {
		case env := <-ch:
			return env, nil
		default:
			return nil, fmt.Errorf("%w: %s", contract.ErrConnectionClosed, op)
		}
	}
}

// Close tears the session down: pending completions fail with
// ErrConnectionClosed and the connection is released. Idempotent.
func (s *Session) Close() error {
	s.state.Store(int32(StateClosing))
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
		s.mu.Lock()
		clear(s.pending)
		s.mu.Unlock()
	})
	s.state.Store(int32(StateDisconnected))
	return nil
}

// forget removes a pending completion after timeout or cancellation. The
// reader drops any response whose correlation id is no longer registered.
func (s *Session) forget(corr uint32) {
	s.mu.Lock()
	delete(s.pending, corr)
	s.mu.Unlock()
}

// recvLoop is the single reader: TCP frame parsing must be sequential, so
// exactly one goroutine reads, then demultiplexes by correlation id.
func (s *Session) recvLoop() {
	for {
		header, body, err := protocol.Decode(s.conn)
		if err != nil {
			if s.State() == StateConnected {
				s.logger.Debug("session reader stopped", zap.Error(err))
			}
			s.Close()
			return
		}
		if header.MsgType != protocol.MsgTypeResponse {
			continue
		}

		env := &message.Envelope{}
		if err := codec.Get(codec.Type(header.CodecType)).Decode(body, env); err != nil {
			s.logger.Warn("dropping undecodable response",
				zap.Uint32("corr", header.Corr), zap.Error(err))
			continue
		}

		s.mu.Lock()
		ch, ok := s.pending[header.Corr]
		delete(s.pending, header.Corr)
		s.mu.Unlock()
		if !ok {
			// Late response for a timed-out or cancelled call.
			s.logger.Debug("discarding late response", zap.Uint32("corr", header.Corr))
			continue
		}
		ch <- env
	}
}

// heartbeatLoop sends periodic keepalive frames. Heartbeats share the write
// lock so they never interleave with request frames.
func (s *Session) heartbeatLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
		header := &protocol.Header{
			CodecType: byte(s.codec.Type()),
			MsgType:   protocol.MsgTypeHeartbeat,
		}
		s.sending.Lock()
		err := protocol.Encode(s.conn, header, nil)
		s.sending.Unlock()
		if err != nil {
			return
		}
	}
}

// IsClosed reports whether the session has been torn down.
func (s *Session) IsClosed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
