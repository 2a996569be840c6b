// Package server implements the bridge dispatcher: it accepts sessions,
// routes each inbound request envelope to the bound terminal operation, and
// writes the result back tagged with the request's correlation id.
//
// Request pipeline:
//
//	Accept conn → handleConn (single goroutine reads frames)
//	  → per request: go handleRequest (bounded by the worker semaphore)
//	    → codec decode → middleware chain → terminal binding → codec encode → write response
package server

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
	"mt5bridge/middleware"
	"mt5bridge/protocol"
	"mt5bridge/registry"
)

// DefaultWorkers bounds concurrent handler executions when no worker count
// is configured.
const DefaultWorkers = 10

// Server is the bridge dispatcher bound to one terminal capability.
type Server struct {
	terminal    Terminal
	handlers    map[string]handlerFunc
	middlewares []middleware.Middleware
	handler     middleware.HandlerFunc // chain built once at Serve time
	logger      *zap.Logger

	listener net.Listener
	wg       sync.WaitGroup // in-flight requests, for graceful shutdown
	shutdown atomic.Bool    // suppresses the Accept error raised by Close
	workers  chan struct{}  // semaphore bounding concurrent handlers
	conns    sync.Map       // active sessions, closed at the end of Shutdown

	reg           registry.Registry
	advertiseAddr string
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// WithWorkers bounds the number of concurrently executing handlers across
// all sessions. Sessions stay isolated; only handler execution is pooled.
func WithWorkers(n int) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.workers = make(chan struct{}, n)
		}
	}
}

// New creates a dispatcher for the given terminal capability.
func New(t Terminal, opts ...ServerOption) *Server {
	s := &Server{
		terminal: t,
		handlers: bindTerminal(t),
		logger:   zap.NewNop(),
		workers:  make(chan struct{}, DefaultWorkers),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Use registers a middleware. Middlewares run in registration order around
// the dispatch handler. Must be called before Serve.
func (svr *Server) Use(mw middleware.Middleware) {
	svr.middlewares = append(svr.middlewares, mw)
}

// Listen binds the listener without starting the accept loop. Serve binds
// implicitly; calling Listen first lets the caller learn the bound address
// when listening on port 0.
func (svr *Server) Listen(network, address string) error {
	listener, err := net.Listen(network, address)
	if err != nil {
		return fmt.Errorf("%w: listen %s: %v", contract.ErrConnection, address, err)
	}
	svr.listener = listener
	return nil
}

// Addr returns the bound listen address, or nil before Listen.
func (svr *Server) Addr() net.Addr {
	if svr.listener == nil {
		return nil
	}
	return svr.listener.Addr()
}

// Serve listens on address and runs the accept loop until Shutdown. When a
// registry is provided, the advertise address is registered under
// registry.ServiceName with a TTL lease (advertiseAddr must be routable; the listen
// address often is not, e.g. ":18812").
func (svr *Server) Serve(network, address, advertiseAddr string, reg registry.Registry) error {
	if svr.listener == nil {
		if err := svr.Listen(network, address); err != nil {
			return err
		}
	}
	listener := svr.listener

	// Build the middleware chain once, not per request.
	svr.handler = middleware.Chain(svr.middlewares...)(svr.dispatch)

	svr.advertiseAddr = advertiseAddr
	if reg != nil {
		svr.reg = reg
		if err := reg.Register(registry.ServiceName, registry.Instance{
			Addr:    advertiseAddr,
			Version: contract.Version,
		}, 10); err != nil {
			listener.Close()
			return err
		}
	}

	svr.logger.Info("bridge server listening",
		zap.String("addr", listener.Addr().String()),
		zap.String("contract_version", contract.Version))

	for {
		conn, err := listener.Accept()
		if err != nil {
			// Shutdown closes the listener; only report unexpected errors.
			if svr.shutdown.Load() {
				return nil
			}
			return err
		}
		go svr.handleConn(conn)
	}
}

// handleConn reads frames from one session. Reads are sequential (frame
// boundaries only parse from a single reader) but each request is handled
// on its own goroutine so a slow terminal call never blocks the next
// request on the same session. Responses therefore complete out of request
// order, which the client session layer supports.
func (svr *Server) handleConn(conn net.Conn) {
	svr.conns.Store(conn, struct{}{})
	defer func() {
		svr.conns.Delete(conn)
		conn.Close()
	}()
	svr.logger.Debug("session opened", zap.String("remote", conn.RemoteAddr().String()))

	writeMu := &sync.Mutex{} // shared by all requests on this conn
	for {
		header, body, err := protocol.Decode(conn)
		if err != nil {
			svr.logger.Debug("session closed",
				zap.String("remote", conn.RemoteAddr().String()), zap.Error(err))
			return
		}
		if header.MsgType == protocol.MsgTypeHeartbeat {
			continue
		}
		// Register before spawning so Shutdown cannot observe an empty
		// WaitGroup while a just-read request is still starting up.
		svr.wg.Add(1)
		go svr.handleRequest(header, body, conn, writeMu)
	}
}

// handleRequest processes one request end to end: decode → middleware →
// terminal binding → encode → write.
func (svr *Server) handleRequest(header *protocol.Header, body []byte, conn net.Conn, writeMu *sync.Mutex) {
	defer svr.wg.Done()

	// Bound concurrent handler executions.
	svr.workers <- struct{}{}
	defer func() { <-svr.workers }()

	c := codec.Get(codec.Type(header.CodecType))
	req := &message.Envelope{}
	var resp *message.Envelope
	if err := c.Decode(body, req); err != nil {
		resp = &message.Envelope{ErrCode: contract.CodeInvalidParams, ErrMsg: err.Error()}
	} else {
		resp = svr.handler(context.Background(), req)
	}

	result, err := c.Encode(resp)
	if err != nil {
		svr.logger.Error("failed to encode response", zap.String("op", req.Op), zap.Error(err))
		return
	}

	replyHeader := &protocol.Header{
		CodecType: header.CodecType,
		MsgType:   protocol.MsgTypeResponse,
		Corr:      header.Corr, // same id as the request, this is the multiplexing key
		BodyLen:   uint32(len(result)),
	}

	writeMu.Lock()
	defer writeMu.Unlock()
	if err := protocol.Encode(conn, replyHeader, result); err != nil {
		svr.logger.Warn("failed to write response", zap.String("op", req.Op), zap.Error(err))
	}
}

// dispatch is the innermost handler: catalog lookup, parameter validation
// against the descriptor, terminal invocation, and error-descriptor
// translation.
func (svr *Server) dispatch(ctx context.Context, req *message.Envelope) *message.Envelope {
	desc, err := contract.Lookup(req.Op)
	if err != nil {
		return &message.Envelope{
			Op:      req.Op,
			ErrCode: contract.CodeUnknownOperation,
			ErrMsg:  fmt.Sprintf("operation %q is not in contract version %s", req.Op, contract.Version),
		}
	}
	handler, ok := svr.handlers[req.Op]
	if !ok {
		// Catalog and binding table out of sync. A bug, not a client error.
		return &message.Envelope{
			Op:      req.Op,
			ErrCode: contract.CodeInternal,
			ErrMsg:  fmt.Sprintf("operation %q has no terminal binding", req.Op),
		}
	}

	params, err := desc.Prepare(req.Payload)
	if err != nil {
		return errorEnvelope(req.Op, err)
	}
	payload, err := handler(ctx, params)
	if err != nil {
		return errorEnvelope(req.Op, err)
	}
	return &message.Envelope{Op: req.Op, Kind: desc.Response.Kind(), Payload: payload}
}

// errorEnvelope translates a handler error into a response error
// descriptor. Terminal domain failures keep their code; decode failures
// map to the invalid-params code; everything else is internal.
func errorEnvelope(op string, err error) *message.Envelope {
	var remote *contract.RemoteError
	switch {
	case errors.As(err, &remote):
		return &message.Envelope{Op: op, ErrCode: remote.Code, ErrMsg: remote.Message}
	case errors.Is(err, contract.ErrMalformedPayload):
		return &message.Envelope{Op: op, ErrCode: contract.CodeInvalidParams, ErrMsg: err.Error()}
	default:
		return &message.Envelope{Op: op, ErrCode: contract.CodeInternal, ErrMsg: err.Error()}
	}
}

// Shutdown gracefully stops the server:
//  1. deregister from the registry so clients stop targeting this instance
//  2. set the shutdown flag, then close the listener
//  3. wait for in-flight requests, bounded by timeout
//  4. close the remaining sessions so clients fail over promptly
func (svr *Server) Shutdown(timeout time.Duration) error {
	if svr.reg != nil {
		if err := svr.reg.Deregister(registry.ServiceName, svr.advertiseAddr); err != nil {
			svr.logger.Warn("deregister failed", zap.Error(err))
		}
	}

	// Flag before close, so the Accept error is recognized as intentional.
	svr.shutdown.Store(true)
	if svr.listener != nil {
		svr.listener.Close()
	}

	done := make(chan struct{})
	go func() {
		svr.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-time.After(timeout):
		err = fmt.Errorf("timeout waiting for in-flight requests to finish")
	}

	svr.conns.Range(func(key, _ any) bool {
		key.(net.Conn).Close()
		return true
	})
	return err
}
