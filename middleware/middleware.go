// Package middleware provides the server-side handler chain.
//
// Middlewares wrap the dispatcher in an onion model: Chain(A, B, C)(h)
// executes A.before → B.before → C.before → h → C.after → B.after → A.after.
package middleware

import (
	"context"

	"mt5bridge/message"
)

// HandlerFunc processes one request envelope and produces the response
// envelope. It never returns nil.
type HandlerFunc func(ctx context.Context, req *message.Envelope) *message.Envelope

// Middleware wraps a handler with extra behavior.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain combines middlewares into one, applied in registration order.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
