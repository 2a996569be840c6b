package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"mt5bridge/contract"
	"mt5bridge/message"
)

func okHandler(ctx context.Context, req *message.Envelope) *message.Envelope {
	return &message.Envelope{Op: req.Op, Payload: []byte("ok")}
}

func TestChainOrder(t *testing.T) {
	var trace []string
	mk := func(name string) Middleware {
		return func(next HandlerFunc) HandlerFunc {
			return func(ctx context.Context, req *message.Envelope) *message.Envelope {
				trace = append(trace, name+"-in")
				resp := next(ctx, req)
				trace = append(trace, name+"-out")
				return resp
			}
		}
	}

	h := Chain(mk("a"), mk("b"))(okHandler)
	resp := h(context.Background(), &message.Envelope{Op: "health_check"})
	require.False(t, resp.IsError())
	assert.Equal(t, []string{"a-in", "b-in", "b-out", "a-out"}, trace)
}

func TestRecovery(t *testing.T) {
	h := Recovery(zap.NewNop())(func(ctx context.Context, req *message.Envelope) *message.Envelope {
		panic("terminal exploded")
	})

	resp := h(context.Background(), &message.Envelope{Op: "order_send"})
	require.True(t, resp.IsError())
	assert.Equal(t, contract.CodeInternal, resp.ErrCode)
	assert.Contains(t, resp.ErrMsg, "terminal exploded")
	assert.Equal(t, "order_send", resp.Op)
}

func TestRecoveryPassesThrough(t *testing.T) {
	h := Recovery(zap.NewNop())(okHandler)
	resp := h(context.Background(), &message.Envelope{Op: "version"})
	assert.False(t, resp.IsError())
	assert.Equal(t, []byte("ok"), resp.Payload)
}

func TestRateLimit(t *testing.T) {
	// Rate near zero: only the burst passes.
	h := RateLimit(0.0001, 2)(okHandler)

	for i := 0; i < 2; i++ {
		resp := h(context.Background(), &message.Envelope{Op: "symbols_total"})
		assert.False(t, resp.IsError(), "request %d within burst", i)
	}
	resp := h(context.Background(), &message.Envelope{Op: "symbols_total"})
	require.True(t, resp.IsError())
	assert.Equal(t, contract.CodeInternal, resp.ErrCode)
	assert.Contains(t, resp.ErrMsg, "rate limit")
}

func TestTimeout(t *testing.T) {
	h := Timeout(20 * time.Millisecond)(func(ctx context.Context, req *message.Envelope) *message.Envelope {
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
		}
		return okHandler(ctx, req)
	})

	start := time.Now()
	resp := h(context.Background(), &message.Envelope{Op: "copy_ticks_range"})
	require.True(t, resp.IsError())
	assert.Equal(t, contract.CodeInternal, resp.ErrCode)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestTimeoutFastHandler(t *testing.T) {
	h := Timeout(time.Second)(okHandler)
	resp := h(context.Background(), &message.Envelope{Op: "version"})
	assert.False(t, resp.IsError())
}

func TestLoggingReturnsResponseUnchanged(t *testing.T) {
	h := Logging(zap.NewNop())(okHandler)
	resp := h(context.Background(), &message.Envelope{Op: "account_info"})
	assert.Equal(t, "account_info", resp.Op)
	assert.Equal(t, []byte("ok"), resp.Payload)

	h = Logging(zap.NewNop())(func(ctx context.Context, req *message.Envelope) *message.Envelope {
		return &message.Envelope{Op: req.Op, ErrCode: contract.RetcodeInvalidVolume, ErrMsg: "Invalid volume"}
	})
	resp = h(context.Background(), &message.Envelope{Op: "order_send"})
	assert.Equal(t, contract.RetcodeInvalidVolume, resp.ErrCode)
}
