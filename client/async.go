package client

import (
	"context"
	"errors"
	"time"

	"mt5bridge/contract"
)

// Call is an in-flight asynchronous operation. The result becomes available
// through Await once the underlying request completes; multiple Await calls
// return the same outcome.
type Call[T any] struct {
	done chan struct{}
	val  T
	err  error
}

func async[T any](fn func() (T, error)) *Call[T] {
	c := &Call[T]{done: make(chan struct{})}
	go func() {
		c.val, c.err = fn()
		close(c.done)
	}()
	return c
}

// Await blocks until the call completes or ctx is cancelled.
func (c *Call[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.val, c.err
	case <-ctx.Done():
		var zero T
		return zero, contract.ErrCancelled
	}
}

// Wait discards the value and reports only the error. It exists so calls of
// different result types can be joined together.
func (c *Call[T]) Wait(ctx context.Context) error {
	_, err := c.Await(ctx)
	return err
}

// Waiter is the completion side of a Call, independent of its result type.
type Waiter interface {
	Wait(ctx context.Context) error
}

// Join waits for every call and combines their errors.
func Join(ctx context.Context, calls ...Waiter) error {
	errs := make([]error, 0, len(calls))
	for _, c := range calls {
		if err := c.Wait(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// AsyncClient issues operations without blocking the caller. Each method
// starts the request immediately and returns a Call handle; the shared
// session multiplexes all of them over one connection.
type AsyncClient struct {
	c *Client
}

// Async returns the non-blocking view of the client. Both views share the
// connection and may be used concurrently.
func (c *Client) Async() *AsyncClient {
	return &AsyncClient{c: c}
}

func (a *AsyncClient) HealthCheck(ctx context.Context) *Call[*contract.Health] {
	return async(func() (*contract.Health, error) { return a.c.HealthCheck(ctx) })
}

func (a *AsyncClient) Initialize(ctx context.Context, req *contract.InitializeRequest) *Call[bool] {
	return async(func() (bool, error) { return a.c.Initialize(ctx, req) })
}

func (a *AsyncClient) Login(ctx context.Context, req *contract.LoginRequest) *Call[bool] {
	return async(func() (bool, error) { return a.c.Login(ctx, req) })
}

func (a *AsyncClient) Shutdown(ctx context.Context) *Call[struct{}] {
	return async(func() (struct{}, error) { return struct{}{}, a.c.Shutdown(ctx) })
}

func (a *AsyncClient) Version(ctx context.Context) *Call[*contract.VersionInfo] {
	return async(func() (*contract.VersionInfo, error) { return a.c.Version(ctx) })
}

func (a *AsyncClient) LastError(ctx context.Context) *Call[*contract.LastError] {
	return async(func() (*contract.LastError, error) { return a.c.LastError(ctx) })
}

func (a *AsyncClient) TerminalInfo(ctx context.Context) *Call[*contract.TerminalInfo] {
	return async(func() (*contract.TerminalInfo, error) { return a.c.TerminalInfo(ctx) })
}

func (a *AsyncClient) AccountInfo(ctx context.Context) *Call[*contract.AccountInfo] {
	return async(func() (*contract.AccountInfo, error) { return a.c.AccountInfo(ctx) })
}

func (a *AsyncClient) SymbolsTotal(ctx context.Context) *Call[int] {
	return async(func() (int, error) { return a.c.SymbolsTotal(ctx) })
}

func (a *AsyncClient) SymbolsGet(ctx context.Context, group string) *Call[[]contract.SymbolInfo] {
	return async(func() ([]contract.SymbolInfo, error) { return a.c.SymbolsGet(ctx, group) })
}

func (a *AsyncClient) SymbolInfo(ctx context.Context, symbol string) *Call[*contract.SymbolInfo] {
	return async(func() (*contract.SymbolInfo, error) { return a.c.SymbolInfo(ctx, symbol) })
}

func (a *AsyncClient) SymbolInfoTick(ctx context.Context, symbol string) *Call[*contract.Tick] {
	return async(func() (*contract.Tick, error) { return a.c.SymbolInfoTick(ctx, symbol) })
}

func (a *AsyncClient) SymbolSelect(ctx context.Context, symbol string, enable bool) *Call[bool] {
	return async(func() (bool, error) { return a.c.SymbolSelect(ctx, symbol, enable) })
}

func (a *AsyncClient) CopyRatesFrom(ctx context.Context, symbol string, tf contract.Timeframe, from time.Time, count int) *Call[[]contract.Rate] {
	return async(func() ([]contract.Rate, error) { return a.c.CopyRatesFrom(ctx, symbol, tf, from, count) })
}

func (a *AsyncClient) CopyRatesFromPos(ctx context.Context, symbol string, tf contract.Timeframe, startPos, count int) *Call[[]contract.Rate] {
	return async(func() ([]contract.Rate, error) { return a.c.CopyRatesFromPos(ctx, symbol, tf, startPos, count) })
}

func (a *AsyncClient) CopyRatesRange(ctx context.Context, symbol string, tf contract.Timeframe, from, to time.Time) *Call[[]contract.Rate] {
	return async(func() ([]contract.Rate, error) { return a.c.CopyRatesRange(ctx, symbol, tf, from, to) })
}

func (a *AsyncClient) CopyTicksFrom(ctx context.Context, symbol string, from time.Time, count int, flags contract.CopyTicksFlag) *Call[[]contract.Tick] {
	return async(func() ([]contract.Tick, error) { return a.c.CopyTicksFrom(ctx, symbol, from, count, flags) })
}

func (a *AsyncClient) CopyTicksRange(ctx context.Context, symbol string, from, to time.Time, flags contract.CopyTicksFlag) *Call[[]contract.Tick] {
	return async(func() ([]contract.Tick, error) { return a.c.CopyTicksRange(ctx, symbol, from, to, flags) })
}

func (a *AsyncClient) OrderCalcMargin(ctx context.Context, action contract.OrderType, symbol string, volume, price float64) *Call[float64] {
	return async(func() (float64, error) { return a.c.OrderCalcMargin(ctx, action, symbol, volume, price) })
}

func (a *AsyncClient) OrderCalcProfit(ctx context.Context, action contract.OrderType, symbol string, volume, priceOpen, priceClose float64) *Call[float64] {
	return async(func() (float64, error) {
		return a.c.OrderCalcProfit(ctx, action, symbol, volume, priceOpen, priceClose)
	})
}

func (a *AsyncClient) OrderCheck(ctx context.Context, req *contract.TradeRequest) *Call[*contract.TradeResult] {
	return async(func() (*contract.TradeResult, error) { return a.c.OrderCheck(ctx, req) })
}

func (a *AsyncClient) OrderSend(ctx context.Context, req *contract.TradeRequest) *Call[*contract.TradeResult] {
	return async(func() (*contract.TradeResult, error) { return a.c.OrderSend(ctx, req) })
}

func (a *AsyncClient) PositionsTotal(ctx context.Context) *Call[int] {
	return async(func() (int, error) { return a.c.PositionsTotal(ctx) })
}

func (a *AsyncClient) PositionsGet(ctx context.Context, req *contract.PositionsGetRequest) *Call[[]contract.Position] {
	return async(func() ([]contract.Position, error) { return a.c.PositionsGet(ctx, req) })
}

func (a *AsyncClient) OrdersTotal(ctx context.Context) *Call[int] {
	return async(func() (int, error) { return a.c.OrdersTotal(ctx) })
}

func (a *AsyncClient) OrdersGet(ctx context.Context, req *contract.OrdersGetRequest) *Call[[]contract.Order] {
	return async(func() ([]contract.Order, error) { return a.c.OrdersGet(ctx, req) })
}

func (a *AsyncClient) HistoryOrdersTotal(ctx context.Context, from, to time.Time) *Call[int] {
	return async(func() (int, error) { return a.c.HistoryOrdersTotal(ctx, from, to) })
}

func (a *AsyncClient) HistoryOrdersGet(ctx context.Context, req *contract.HistoryOrdersGetRequest) *Call[[]contract.Order] {
	return async(func() ([]contract.Order, error) { return a.c.HistoryOrdersGet(ctx, req) })
}

func (a *AsyncClient) HistoryDealsTotal(ctx context.Context, from, to time.Time) *Call[int] {
	return async(func() (int, error) { return a.c.HistoryDealsTotal(ctx, from, to) })
}

func (a *AsyncClient) HistoryDealsGet(ctx context.Context, req *contract.HistoryDealsGetRequest) *Call[[]contract.Deal] {
	return async(func() ([]contract.Deal, error) { return a.c.HistoryDealsGet(ctx, req) })
}

func (a *AsyncClient) MarketBookAdd(ctx context.Context, symbol string) *Call[bool] {
	return async(func() (bool, error) { return a.c.MarketBookAdd(ctx, symbol) })
}

func (a *AsyncClient) MarketBookGet(ctx context.Context, symbol string) *Call[[]contract.BookEntry] {
	return async(func() ([]contract.BookEntry, error) { return a.c.MarketBookGet(ctx, symbol) })
}

func (a *AsyncClient) MarketBookRelease(ctx context.Context, symbol string) *Call[bool] {
	return async(func() (bool, error) { return a.c.MarketBookRelease(ctx, symbol) })
}
