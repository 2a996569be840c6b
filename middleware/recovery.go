package middleware

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"mt5bridge/contract"
	"mt5bridge/message"
)

// Recovery converts a handler panic into an internal error descriptor so a
// misbehaving terminal binding cannot take the whole dispatcher down.
func Recovery(logger *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Envelope) (resp *message.Envelope) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error("handler panicked",
						zap.String("op", req.Op), zap.Any("panic", r))
					resp = &message.Envelope{
						Op:      req.Op,
						ErrCode: contract.CodeInternal,
						ErrMsg:  fmt.Sprintf("handler panic: %v", r),
					}
				}
			}()
			return next(ctx, req)
		}
	}
}
