package server_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"mt5bridge/codec"
	"mt5bridge/contract"
	"mt5bridge/message"
	"mt5bridge/middleware"
	"mt5bridge/server"
	"mt5bridge/sim"
	"mt5bridge/transport"
)

func startServer(t *testing.T) (*server.Server, string) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	svr := server.New(sim.New(), server.WithLogger(logger), server.WithWorkers(4))
	svr.Use(middleware.Recovery(logger))

	require.NoError(t, svr.Listen("tcp", "127.0.0.1:0"))
	addr := svr.Addr().String()
	go svr.Serve("tcp", addr, addr, nil)
	t.Cleanup(func() { svr.Shutdown(time.Second) })
	return svr, addr
}

func call(t *testing.T, sess *transport.Session, op string, payload []byte) *message.Envelope {
	t.Helper()
	env, err := sess.Call(context.Background(), op, message.KindRecord, payload, 5*time.Second)
	require.NoError(t, err)
	return env
}

func TestDispatchRecordOperation(t *testing.T) {
	_, addr := startServer(t)
	sess, err := transport.Dial(context.Background(), addr)
	require.NoError(t, err)
	defer sess.Close()

	env := call(t, sess, contract.OpInitialize, []byte(`{}`))
	require.False(t, env.IsError(), env.ErrMsg)

	env = call(t, sess, contract.OpAccountInfo, nil)
	require.False(t, env.IsError(), env.ErrMsg)

	var acc contract.AccountInfo
	require.NoError(t, codec.DecodeRecord(env.Payload, &acc))
	assert.Equal(t, int64(12345), acc.Login)
	assert.Equal(t, 1000.0, acc.Balance)
}

func TestDispatchArrayOperation(t *testing.T) {
	_, addr := startServer(t)
	sess, err := transport.Dial(context.Background(), addr)
	require.NoError(t, err)
	defer sess.Close()

	call(t, sess, contract.OpInitialize, []byte(`{}`))

	from := time.Now().Add(-2 * time.Hour).Unix()
	payload, err := codec.EncodeRecord(&contract.CopyRatesFromRequest{
		Symbol: "EURUSD", Timeframe: contract.TimeframeM1, From: from, Count: 100,
	})
	require.NoError(t, err)

	env := call(t, sess, contract.OpCopyRatesFrom, payload)
	require.False(t, env.IsError(), env.ErrMsg)
	require.Equal(t, message.KindArray, env.Kind)

	arr, err := codec.DecodeArray(env.Payload)
	require.NoError(t, err)
	assert.Equal(t, []int{100, codec.RateColumns}, arr.Shape)

	rates, err := codec.ArrayToRates(arr)
	require.NoError(t, err)
	assert.Len(t, rates, 100)
}

func TestDispatchUnknownOperation(t *testing.T) {
	_, addr := startServer(t)
	sess, err := transport.Dial(context.Background(), addr)
	require.NoError(t, err)
	defer sess.Close()

	env := call(t, sess, "warp_ten", nil)
	require.True(t, env.IsError())
	assert.Equal(t, contract.CodeUnknownOperation, env.ErrCode)
	assert.ErrorIs(t, contract.ErrorFromEnvelope("warp_ten", env), contract.ErrUnknownOperation)
}

func TestDispatchInvalidParams(t *testing.T) {
	_, addr := startServer(t)
	sess, err := transport.Dial(context.Background(), addr)
	require.NoError(t, err)
	defer sess.Close()

	env := call(t, sess, contract.OpLogin, []byte(`{"login":`))
	require.True(t, env.IsError())
	assert.Equal(t, contract.CodeInvalidParams, env.ErrCode)
	assert.ErrorIs(t, contract.ErrorFromEnvelope(contract.OpLogin, env), contract.ErrMalformedPayload)
}

func TestDispatchMissingRequiredParam(t *testing.T) {
	_, addr := startServer(t)
	sess, err := transport.Dial(context.Background(), addr)
	require.NoError(t, err)
	defer sess.Close()

	call(t, sess, contract.OpInitialize, []byte(`{}`))

	// An absent symbol is a contract violation, not an unknown-symbol
	// domain failure.
	env := call(t, sess, contract.OpSymbolInfo, []byte(`{}`))
	require.True(t, env.IsError())
	assert.Equal(t, contract.CodeInvalidParams, env.ErrCode)
	assert.Contains(t, env.ErrMsg, "symbol")

	env = call(t, sess, contract.OpOrderSend, []byte(`{"symbol":"EURUSD"}`))
	require.True(t, env.IsError())
	assert.Equal(t, contract.CodeInvalidParams, env.ErrCode)
	assert.Contains(t, env.ErrMsg, "action")
}

func TestDispatchRemoteRetcode(t *testing.T) {
	_, addr := startServer(t)
	sess, err := transport.Dial(context.Background(), addr)
	require.NoError(t, err)
	defer sess.Close()

	call(t, sess, contract.OpInitialize, []byte(`{}`))

	payload, err := codec.EncodeRecord(&contract.TradeRequest{
		Action: contract.TradeActionDeal, Symbol: "EURUSD", Volume: -1, Type: contract.OrderTypeBuy,
	})
	require.NoError(t, err)
	env := call(t, sess, contract.OpOrderSend, payload)
	require.True(t, env.IsError())
	assert.Equal(t, contract.RetcodeInvalidVolume, env.ErrCode)

	var remote *contract.RemoteError
	require.ErrorAs(t, contract.ErrorFromEnvelope(contract.OpOrderSend, env), &remote)
	assert.Equal(t, contract.RetcodeInvalidVolume, remote.Code)
}

func TestJSONCodecSession(t *testing.T) {
	_, addr := startServer(t)
	sess, err := transport.Dial(context.Background(), addr, transport.WithCodec(&codec.JSONCodec{}))
	require.NoError(t, err)
	defer sess.Close()

	env := call(t, sess, contract.OpHealthCheck, nil)
	require.False(t, env.IsError(), env.ErrMsg)

	var h contract.Health
	require.NoError(t, codec.DecodeRecord(env.Payload, &h))
	assert.True(t, h.Healthy)
}

func TestConcurrentSessionsAndRequests(t *testing.T) {
	_, addr := startServer(t)

	for s := 0; s < 3; s++ {
		sess, err := transport.Dial(context.Background(), addr)
		require.NoError(t, err)
		defer sess.Close()

		call(t, sess, contract.OpInitialize, []byte(`{}`))
		done := make(chan *message.Envelope, 10)
		for i := 0; i < 10; i++ {
			go func() {
				env, err := sess.Call(context.Background(), contract.OpSymbolsTotal, message.KindRecord, nil, 5*time.Second)
				assert.NoError(t, err)
				done <- env
			}()
		}
		for i := 0; i < 10; i++ {
			env := <-done
			require.NotNil(t, env)
			assert.False(t, env.IsError())
		}
	}
}

func TestShutdownDrainsInFlightRequests(t *testing.T) {
	logger := zaptest.NewLogger(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	svr := server.New(sim.New(), server.WithLogger(logger), server.WithWorkers(4))
	svr.Use(func(next middleware.HandlerFunc) middleware.HandlerFunc {
		return func(ctx context.Context, req *message.Envelope) *message.Envelope {
			close(entered)
			<-release
			return next(ctx, req)
		}
	})
	require.NoError(t, svr.Listen("tcp", "127.0.0.1:0"))
	addr := svr.Addr().String()
	go svr.Serve("tcp", addr, addr, nil)

	sess, err := transport.Dial(context.Background(), addr)
	require.NoError(t, err)
	defer sess.Close()

	type result struct {
		env *message.Envelope
		err error
	}
	got := make(chan result, 1)
	go func() {
		env, err := sess.Call(context.Background(), contract.OpHealthCheck, message.KindRecord, nil, 5*time.Second)
		got <- result{env, err}
	}()

	// The handler is parked inside the chain, so it must be registered with
	// the in-flight accounting by now. Shutdown may not return before it
	// finishes and its response is written.
	<-entered
	go func() {
		time.Sleep(50 * time.Millisecond)
		close(release)
	}()
	require.NoError(t, svr.Shutdown(2*time.Second))

	res := <-got
	require.NoError(t, res.err)
	assert.False(t, res.env.IsError())
}

func TestShutdownStopsAccepting(t *testing.T) {
	svr, addr := startServer(t)
	require.NoError(t, svr.Shutdown(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	_, err := transport.Dial(ctx, addr)
	assert.ErrorIs(t, err, contract.ErrConnection)
}
