package client

import (
	"context"
	"time"

	"mt5bridge/codec"
	"mt5bridge/contract"
)

// One blocking method per contract operation. Success payloads decode into
// the contract's typed records; error descriptors surface as
// contract.RemoteError (or the matching sentinel for bridge-level codes).

// HealthCheck reports server and terminal availability.
func (c *Client) HealthCheck(ctx context.Context) (*contract.Health, error) {
	var h contract.Health
	if err := c.call(ctx, contract.OpHealthCheck, nil, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// Initialize starts the terminal connection. All fields of req are
// optional; zero values keep the terminal's defaults.
func (c *Client) Initialize(ctx context.Context, req *contract.InitializeRequest) (bool, error) {
	var ok bool
	if err := c.call(ctx, contract.OpInitialize, req, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Login authenticates a trading account on the connected terminal.
func (c *Client) Login(ctx context.Context, req *contract.LoginRequest) (bool, error) {
	var ok bool
	if err := c.call(ctx, contract.OpLogin, req, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Shutdown closes the terminal connection on the server side. The bridge
// session itself stays open.
func (c *Client) Shutdown(ctx context.Context) error {
	return c.call(ctx, contract.OpShutdown, nil, nil)
}

func (c *Client) Version(ctx context.Context) (*contract.VersionInfo, error) {
	var v contract.VersionInfo
	if err := c.call(ctx, contract.OpVersion, nil, &v); err != nil {
		return nil, err
	}
	return &v, nil
}

func (c *Client) LastError(ctx context.Context) (*contract.LastError, error) {
	var e contract.LastError
	if err := c.call(ctx, contract.OpLastError, nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (c *Client) TerminalInfo(ctx context.Context) (*contract.TerminalInfo, error) {
	var t contract.TerminalInfo
	if err := c.call(ctx, contract.OpTerminalInfo, nil, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) AccountInfo(ctx context.Context) (*contract.AccountInfo, error) {
	var a contract.AccountInfo
	if err := c.call(ctx, contract.OpAccountInfo, nil, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) SymbolsTotal(ctx context.Context) (int, error) {
	var n int
	if err := c.call(ctx, contract.OpSymbolsTotal, nil, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// SymbolsGet enumerates instruments, optionally filtered by group. The
// chunked bulk reply is fully assembled before the flat list is returned.
func (c *Client) SymbolsGet(ctx context.Context, group string) ([]contract.SymbolInfo, error) {
	var chunks contract.SymbolChunks
	req := &contract.SymbolsGetRequest{Group: group}
	if err := c.call(ctx, contract.OpSymbolsGet, req, &chunks); err != nil {
		return nil, err
	}
	return chunks.Symbols(), nil
}

func (c *Client) SymbolInfo(ctx context.Context, symbol string) (*contract.SymbolInfo, error) {
	var s contract.SymbolInfo
	if err := c.call(ctx, contract.OpSymbolInfo, &contract.SymbolRequest{Symbol: symbol}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) SymbolInfoTick(ctx context.Context, symbol string) (*contract.Tick, error) {
	var t contract.Tick
	if err := c.call(ctx, contract.OpSymbolInfoTick, &contract.SymbolRequest{Symbol: symbol}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// SymbolSelect shows or hides a symbol in the terminal's market watch.
func (c *Client) SymbolSelect(ctx context.Context, symbol string, enable bool) (bool, error) {
	var ok bool
	req := &contract.SymbolSelectRequest{Symbol: symbol, Enable: enable}
	if err := c.call(ctx, contract.OpSymbolSelect, req, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// CopyRatesFrom retrieves count bars starting at from. Bars travel as an
// [n, 8] float64 array, decoded back into records locally.
func (c *Client) CopyRatesFrom(ctx context.Context, symbol string, tf contract.Timeframe, from time.Time, count int) ([]contract.Rate, error) {
	arr, err := c.callArray(ctx, contract.OpCopyRatesFrom, &contract.CopyRatesFromRequest{
		Symbol: symbol, Timeframe: tf, From: from.Unix(), Count: int32(count),
	})
	if err != nil {
		return nil, err
	}
	return codec.ArrayToRates(arr)
}

// CopyRatesFromPos retrieves count bars starting at a bar index, 0 being
// the current bar.
func (c *Client) CopyRatesFromPos(ctx context.Context, symbol string, tf contract.Timeframe, startPos, count int) ([]contract.Rate, error) {
	arr, err := c.callArray(ctx, contract.OpCopyRatesFromPos, &contract.CopyRatesFromPosRequest{
		Symbol: symbol, Timeframe: tf, StartPos: int32(startPos), Count: int32(count),
	})
	if err != nil {
		return nil, err
	}
	return codec.ArrayToRates(arr)
}

// CopyRatesRange retrieves the bars between from and to inclusive.
func (c *Client) CopyRatesRange(ctx context.Context, symbol string, tf contract.Timeframe, from, to time.Time) ([]contract.Rate, error) {
	arr, err := c.callArray(ctx, contract.OpCopyRatesRange, &contract.CopyRatesRangeRequest{
		Symbol: symbol, Timeframe: tf, From: from.Unix(), To: to.Unix(),
	})
	if err != nil {
		return nil, err
	}
	return codec.ArrayToRates(arr)
}

// CopyTicksFrom retrieves count ticks starting at from.
func (c *Client) CopyTicksFrom(ctx context.Context, symbol string, from time.Time, count int, flags contract.CopyTicksFlag) ([]contract.Tick, error) {
	arr, err := c.callArray(ctx, contract.OpCopyTicksFrom, &contract.CopyTicksFromRequest{
		Symbol: symbol, From: from.Unix(), Count: int32(count), Flags: flags,
	})
	if err != nil {
		return nil, err
	}
	return codec.ArrayToTicks(arr)
}

// CopyTicksRange retrieves the ticks between from and to inclusive.
func (c *Client) CopyTicksRange(ctx context.Context, symbol string, from, to time.Time, flags contract.CopyTicksFlag) ([]contract.Tick, error) {
	arr, err := c.callArray(ctx, contract.OpCopyTicksRange, &contract.CopyTicksRangeRequest{
		Symbol: symbol, From: from.Unix(), To: to.Unix(), Flags: flags,
	})
	if err != nil {
		return nil, err
	}
	return codec.ArrayToTicks(arr)
}

// OrderCalcMargin returns the margin required for a prospective order, in
// the account currency.
func (c *Client) OrderCalcMargin(ctx context.Context, action contract.OrderType, symbol string, volume, price float64) (float64, error) {
	var margin float64
	req := &contract.OrderCalcMarginRequest{Action: action, Symbol: symbol, Volume: volume, Price: price}
	if err := c.call(ctx, contract.OpOrderCalcMargin, req, &margin); err != nil {
		return 0, err
	}
	return margin, nil
}

// OrderCalcProfit returns the profit of a prospective trade between two
// prices, in the account currency.
func (c *Client) OrderCalcProfit(ctx context.Context, action contract.OrderType, symbol string, volume, priceOpen, priceClose float64) (float64, error) {
	var profit float64
	req := &contract.OrderCalcProfitRequest{
		Action: action, Symbol: symbol, Volume: volume, PriceOpen: priceOpen, PriceClose: priceClose,
	}
	if err := c.call(ctx, contract.OpOrderCalcProfit, req, &profit); err != nil {
		return 0, err
	}
	return profit, nil
}

// OrderCheck validates a trade request without executing it.
func (c *Client) OrderCheck(ctx context.Context, req *contract.TradeRequest) (*contract.TradeResult, error) {
	var res contract.TradeResult
	if err := c.call(ctx, contract.OpOrderCheck, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// OrderSend executes a trade request. A rejection by the terminal surfaces
// as a RemoteError carrying the trade retcode.
func (c *Client) OrderSend(ctx context.Context, req *contract.TradeRequest) (*contract.TradeResult, error) {
	var res contract.TradeResult
	if err := c.call(ctx, contract.OpOrderSend, req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) PositionsTotal(ctx context.Context) (int, error) {
	var n int
	if err := c.call(ctx, contract.OpPositionsTotal, nil, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// PositionsGet enumerates open positions. A nil req means no filter.
func (c *Client) PositionsGet(ctx context.Context, req *contract.PositionsGetRequest) ([]contract.Position, error) {
	if req == nil {
		req = &contract.PositionsGetRequest{}
	}
	var positions []contract.Position
	if err := c.call(ctx, contract.OpPositionsGet, req, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

func (c *Client) OrdersTotal(ctx context.Context) (int, error) {
	var n int
	if err := c.call(ctx, contract.OpOrdersTotal, nil, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// OrdersGet enumerates pending orders. A nil req means no filter.
func (c *Client) OrdersGet(ctx context.Context, req *contract.OrdersGetRequest) ([]contract.Order, error) {
	if req == nil {
		req = &contract.OrdersGetRequest{}
	}
	var orders []contract.Order
	if err := c.call(ctx, contract.OpOrdersGet, req, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) HistoryOrdersTotal(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	req := &contract.HistoryRangeRequest{From: from.Unix(), To: to.Unix()}
	if err := c.call(ctx, contract.OpHistoryOrdersTotal, req, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// HistoryOrdersGet enumerates historical orders. A nil req means no filter.
func (c *Client) HistoryOrdersGet(ctx context.Context, req *contract.HistoryOrdersGetRequest) ([]contract.Order, error) {
	if req == nil {
		req = &contract.HistoryOrdersGetRequest{}
	}
	var orders []contract.Order
	if err := c.call(ctx, contract.OpHistoryOrdersGet, req, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) HistoryDealsTotal(ctx context.Context, from, to time.Time) (int, error) {
	var n int
	req := &contract.HistoryRangeRequest{From: from.Unix(), To: to.Unix()}
	if err := c.call(ctx, contract.OpHistoryDealsTotal, req, &n); err != nil {
		return 0, err
	}
	return n, nil
}

// HistoryDealsGet enumerates executed deals. A nil req means no filter.
func (c *Client) HistoryDealsGet(ctx context.Context, req *contract.HistoryDealsGetRequest) ([]contract.Deal, error) {
	if req == nil {
		req = &contract.HistoryDealsGetRequest{}
	}
	var deals []contract.Deal
	if err := c.call(ctx, contract.OpHistoryDealsGet, req, &deals); err != nil {
		return nil, err
	}
	return deals, nil
}

// MarketBookAdd subscribes to market-depth updates for a symbol.
func (c *Client) MarketBookAdd(ctx context.Context, symbol string) (bool, error) {
	var ok bool
	if err := c.call(ctx, contract.OpMarketBookAdd, &contract.MarketBookRequest{Symbol: symbol}, &ok); err != nil {
		return false, err
	}
	return ok, nil
}

// MarketBookGet returns the current market-depth snapshot for a subscribed
// symbol.
func (c *Client) MarketBookGet(ctx context.Context, symbol string) ([]contract.BookEntry, error) {
	var book []contract.BookEntry
	if err := c.call(ctx, contract.OpMarketBookGet, &contract.MarketBookRequest{Symbol: symbol}, &book); err != nil {
		return nil, err
	}
	return book, nil
}

// MarketBookRelease cancels a market-depth subscription.
func (c *Client) MarketBookRelease(ctx context.Context, symbol string) (bool, error) {
	var ok bool
	if err := c.call(ctx, contract.OpMarketBookRelease, &contract.MarketBookRequest{Symbol: symbol}, &ok); err != nil {
		return false, err
	}
	return ok, nil
}
