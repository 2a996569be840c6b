package middleware

import (
	"context"
	"time"

	"mt5bridge/contract"
	"mt5bridge/message"
)

// Timeout bounds handler execution. The terminal capability can block for
// a long time (it serializes all access); this keeps one stuck call from
// holding a dispatch slot forever. The abandoned handler goroutine still
// runs to completion, its result is dropped.
func Timeout(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Envelope) *message.Envelope {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan *message.Envelope, 1)
			go func() {
				done <- next(ctx, req)
			}()

			select {
			case resp := <-done:
				return resp
			case <-ctx.Done():
				return &message.Envelope{
					Op:      req.Op,
					ErrCode: contract.CodeInternal,
					ErrMsg:  "request timed out on the server",
				}
			}
		}
	}
}
