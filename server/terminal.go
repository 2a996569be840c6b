package server

import (
	"context"

	"mt5bridge/contract"
)

// Terminal is the external trading-terminal capability the dispatcher
// delegates to. Each method maps one contract operation onto one underlying
// terminal call; the bridge defines the call/response shapes, never the
// trading semantics behind them.
//
// Implementations serialize their own access to the terminal; the bridge
// invokes methods concurrently from dispatch goroutines.
type Terminal interface {
	HealthCheck(ctx context.Context) (*contract.Health, error)
	Initialize(ctx context.Context, req *contract.InitializeRequest) (bool, error)
	Login(ctx context.Context, req *contract.LoginRequest) (bool, error)
	Shutdown(ctx context.Context) error
	Version(ctx context.Context) (*contract.VersionInfo, error)
	LastError(ctx context.Context) (*contract.LastError, error)
	TerminalInfo(ctx context.Context) (*contract.TerminalInfo, error)
	AccountInfo(ctx context.Context) (*contract.AccountInfo, error)

	SymbolsTotal(ctx context.Context) (int, error)
	SymbolsGet(ctx context.Context, group string) ([]contract.SymbolInfo, error)
	SymbolInfo(ctx context.Context, symbol string) (*contract.SymbolInfo, error)
	SymbolInfoTick(ctx context.Context, symbol string) (*contract.Tick, error)
	SymbolSelect(ctx context.Context, symbol string, enable bool) (bool, error)

	CopyRatesFrom(ctx context.Context, req *contract.CopyRatesFromRequest) ([]contract.Rate, error)
	CopyRatesFromPos(ctx context.Context, req *contract.CopyRatesFromPosRequest) ([]contract.Rate, error)
	CopyRatesRange(ctx context.Context, req *contract.CopyRatesRangeRequest) ([]contract.Rate, error)
	CopyTicksFrom(ctx context.Context, req *contract.CopyTicksFromRequest) ([]contract.Tick, error)
	CopyTicksRange(ctx context.Context, req *contract.CopyTicksRangeRequest) ([]contract.Tick, error)

	OrderCalcMargin(ctx context.Context, req *contract.OrderCalcMarginRequest) (float64, error)
	OrderCalcProfit(ctx context.Context, req *contract.OrderCalcProfitRequest) (float64, error)
	OrderCheck(ctx context.Context, req *contract.TradeRequest) (*contract.TradeResult, error)
	OrderSend(ctx context.Context, req *contract.TradeRequest) (*contract.TradeResult, error)

	PositionsTotal(ctx context.Context) (int, error)
	PositionsGet(ctx context.Context, req *contract.PositionsGetRequest) ([]contract.Position, error)
	OrdersTotal(ctx context.Context) (int, error)
	OrdersGet(ctx context.Context, req *contract.OrdersGetRequest) ([]contract.Order, error)
	HistoryOrdersTotal(ctx context.Context, req *contract.HistoryRangeRequest) (int, error)
	HistoryOrdersGet(ctx context.Context, req *contract.HistoryOrdersGetRequest) ([]contract.Order, error)
	HistoryDealsTotal(ctx context.Context, req *contract.HistoryRangeRequest) (int, error)
	HistoryDealsGet(ctx context.Context, req *contract.HistoryDealsGetRequest) ([]contract.Deal, error)

	MarketBookAdd(ctx context.Context, symbol string) (bool, error)
	MarketBookGet(ctx context.Context, symbol string) ([]contract.BookEntry, error)
	MarketBookRelease(ctx context.Context, symbol string) (bool, error)
}
