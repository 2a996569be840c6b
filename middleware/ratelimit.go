package middleware

import (
	"context"

	"golang.org/x/time/rate"

	"mt5bridge/contract"
	"mt5bridge/message"
)

// RateLimit rejects requests above a token-bucket rate. The terminal
// capability is a single exclusively-accessed resource, so shedding load
// here is cheaper than queueing it behind the terminal lock.
func RateLimit(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Envelope) *message.Envelope {
			if !limiter.Allow() {
				return &message.Envelope{
					Op:      req.Op,
					ErrCode: contract.CodeInternal,
					ErrMsg:  "rate limit exceeded",
				}
			}
			return next(ctx, req)
		}
	}
}
