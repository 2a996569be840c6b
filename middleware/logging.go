package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"mt5bridge/message"
)

// Logging logs every dispatched operation with its duration and outcome.
func Logging(logger *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Envelope) *message.Envelope {
			start := time.Now()
			resp := next(ctx, req)
			fields := []zap.Field{
				zap.String("op", req.Op),
				zap.Duration("duration", time.Since(start)),
			}
			if resp.IsError() {
				fields = append(fields,
					zap.Int32("err_code", resp.ErrCode),
					zap.String("err_msg", resp.ErrMsg))
				logger.Warn("operation failed", fields...)
			} else {
				logger.Debug("operation served", fields...)
			}
			return resp
		}
	}
}
