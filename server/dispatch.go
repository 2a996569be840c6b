package server

import (
	"context"

	"mt5bridge/codec"
	"mt5bridge/contract"
)

// handlerFunc decodes one operation's parameters, invokes the terminal, and
// returns the encoded result payload. The payload kind comes from the
// catalog descriptor, not from the handler.
type handlerFunc func(ctx context.Context, payload []byte) ([]byte, error)

// symbolChunkSize bounds one symbols_get chunk. Brokers expose 9000+
// instruments; chunking keeps any single record document modest while the
// whole reply is still assembled before it is returned.
const symbolChunkSize = 500

// recordHandler builds a handler from a typed decode/invoke pair for
// record-shaped responses.
func recordHandler[Req any, Resp any](invoke func(ctx context.Context, req *Req) (Resp, error)) handlerFunc {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		req := new(Req)
		if err := codec.DecodeRecord(payload, req); err != nil {
			return nil, err
		}
		resp, err := invoke(ctx, req)
		if err != nil {
			return nil, err
		}
		return codec.EncodeRecord(resp)
	}
}

// arrayHandler builds a handler for operations returning a typed numeric
// array.
func arrayHandler[Req any](invoke func(ctx context.Context, req *Req) (*codec.Array, error)) handlerFunc {
	return func(ctx context.Context, payload []byte) ([]byte, error) {
		req := new(Req)
		if err := codec.DecodeRecord(payload, req); err != nil {
			return nil, err
		}
		arr, err := invoke(ctx, req)
		if err != nil {
			return nil, err
		}
		return codec.EncodeArray(arr)
	}
}

// bindTerminal maps every catalog operation onto a terminal method. The
// contract package names the operations; this table is the dispatcher's
// half of the agreement, updated in lockstep with the catalog version.
func bindTerminal(t Terminal) map[string]handlerFunc {
	type empty struct{}

	return map[string]handlerFunc{
		contract.OpHealthCheck: recordHandler(func(ctx context.Context, _ *empty) (*contract.Health, error) {
			return t.HealthCheck(ctx)
		}),
		contract.OpInitialize: recordHandler(func(ctx context.Context, req *contract.InitializeRequest) (bool, error) {
			return t.Initialize(ctx, req)
		}),
		contract.OpLogin: recordHandler(func(ctx context.Context, req *contract.LoginRequest) (bool, error) {
			return t.Login(ctx, req)
		}),
		contract.OpShutdown: recordHandler(func(ctx context.Context, _ *empty) (*empty, error) {
			return nil, t.Shutdown(ctx)
		}),
		contract.OpVersion: recordHandler(func(ctx context.Context, _ *empty) (*contract.VersionInfo, error) {
			return t.Version(ctx)
		}),
		contract.OpLastError: recordHandler(func(ctx context.Context, _ *empty) (*contract.LastError, error) {
			return t.LastError(ctx)
		}),
		contract.OpTerminalInfo: recordHandler(func(ctx context.Context, _ *empty) (*contract.TerminalInfo, error) {
			return t.TerminalInfo(ctx)
		}),
		contract.OpAccountInfo: recordHandler(func(ctx context.Context, _ *empty) (*contract.AccountInfo, error) {
			return t.AccountInfo(ctx)
		}),
		contract.OpSymbolsTotal: recordHandler(func(ctx context.Context, _ *empty) (int, error) {
			return t.SymbolsTotal(ctx)
		}),
		contract.OpSymbolsGet: recordHandler(func(ctx context.Context, req *contract.SymbolsGetRequest) (*contract.SymbolChunks, error) {
			symbols, err := t.SymbolsGet(ctx, req.Group)
			if err != nil {
				return nil, err
			}
			return chunkSymbols(symbols), nil
		}),
		contract.OpSymbolInfo: recordHandler(func(ctx context.Context, req *contract.SymbolRequest) (*contract.SymbolInfo, error) {
			return t.SymbolInfo(ctx, req.Symbol)
		}),
		contract.OpSymbolInfoTick: recordHandler(func(ctx context.Context, req *contract.SymbolRequest) (*contract.Tick, error) {
			return t.SymbolInfoTick(ctx, req.Symbol)
		}),
		contract.OpSymbolSelect: recordHandler(func(ctx context.Context, req *contract.SymbolSelectRequest) (bool, error) {
			return t.SymbolSelect(ctx, req.Symbol, req.Enable)
		}),
		contract.OpCopyRatesFrom: arrayHandler(func(ctx context.Context, req *contract.CopyRatesFromRequest) (*codec.Array, error) {
			rates, err := t.CopyRatesFrom(ctx, req)
			if err != nil {
				return nil, err
			}
			return codec.RatesToArray(rates)
		}),
		contract.OpCopyRatesFromPos: arrayHandler(func(ctx context.Context, req *contract.CopyRatesFromPosRequest) (*codec.Array, error) {
			rates, err := t.CopyRatesFromPos(ctx, req)
			if err != nil {
				return nil, err
			}
			return codec.RatesToArray(rates)
		}),
		contract.OpCopyRatesRange: arrayHandler(func(ctx context.Context, req *contract.CopyRatesRangeRequest) (*codec.Array, error) {
			rates, err := t.CopyRatesRange(ctx, req)
			if err != nil {
				return nil, err
			}
			return codec.RatesToArray(rates)
		}),
		contract.OpCopyTicksFrom: arrayHandler(func(ctx context.Context, req *contract.CopyTicksFromRequest) (*codec.Array, error) {
			ticks, err := t.CopyTicksFrom(ctx, req)
			if err != nil {
				return nil, err
			}
			return codec.TicksToArray(ticks)
		}),
		contract.OpCopyTicksRange: arrayHandler(func(ctx context.Context, req *contract.CopyTicksRangeRequest) (*codec.Array, error) {
			ticks, err := t.CopyTicksRange(ctx, req)
			if err != nil {
				return nil, err
			}
			return codec.TicksToArray(ticks)
		}),
		contract.OpOrderCalcMargin: recordHandler(func(ctx context.Context, req *contract.OrderCalcMarginRequest) (float64, error) {
			return t.OrderCalcMargin(ctx, req)
		}),
		contract.OpOrderCalcProfit: recordHandler(func(ctx context.Context, req *contract.OrderCalcProfitRequest) (float64, error) {
			return t.OrderCalcProfit(ctx, req)
		}),
		contract.OpOrderCheck: recordHandler(func(ctx context.Context, req *contract.TradeRequest) (*contract.TradeResult, error) {
			return t.OrderCheck(ctx, req)
		}),
		contract.OpOrderSend: recordHandler(func(ctx context.Context, req *contract.TradeRequest) (*contract.TradeResult, error) {
			return t.OrderSend(ctx, req)
		}),
		contract.OpPositionsTotal: recordHandler(func(ctx context.Context, _ *empty) (int, error) {
			return t.PositionsTotal(ctx)
		}),
		contract.OpPositionsGet: recordHandler(func(ctx context.Context, req *contract.PositionsGetRequest) ([]contract.Position, error) {
			return t.PositionsGet(ctx, req)
		}),
		contract.OpOrdersTotal: recordHandler(func(ctx context.Context, _ *empty) (int, error) {
			return t.OrdersTotal(ctx)
		}),
		contract.OpOrdersGet: recordHandler(func(ctx context.Context, req *contract.OrdersGetRequest) ([]contract.Order, error) {
			return t.OrdersGet(ctx, req)
		}),
		contract.OpHistoryOrdersTotal: recordHandler(func(ctx context.Context, req *contract.HistoryRangeRequest) (int, error) {
			return t.HistoryOrdersTotal(ctx, req)
		}),
		contract.OpHistoryOrdersGet: recordHandler(func(ctx context.Context, req *contract.HistoryOrdersGetRequest) ([]contract.Order, error) {
			return t.HistoryOrdersGet(ctx, req)
		}),
		contract.OpHistoryDealsTotal: recordHandler(func(ctx context.Context, req *contract.HistoryRangeRequest) (int, error) {
			return t.HistoryDealsTotal(ctx, req)
		}),
		contract.OpHistoryDealsGet: recordHandler(func(ctx context.Context, req *contract.HistoryDealsGetRequest) ([]contract.Deal, error) {
			return t.HistoryDealsGet(ctx, req)
		}),
		contract.OpMarketBookAdd: recordHandler(func(ctx context.Context, req *contract.MarketBookRequest) (bool, error) {
			return t.MarketBookAdd(ctx, req.Symbol)
		}),
		contract.OpMarketBookGet: recordHandler(func(ctx context.Context, req *contract.MarketBookRequest) ([]contract.BookEntry, error) {
			return t.MarketBookGet(ctx, req.Symbol)
		}),
		contract.OpMarketBookRelease: recordHandler(func(ctx context.Context, req *contract.MarketBookRequest) (bool, error) {
			return t.MarketBookRelease(ctx, req.Symbol)
		}),
	}
}

// chunkSymbols packages a symbol list into the fully-buffered chunked reply
// shape.
func chunkSymbols(symbols []contract.SymbolInfo) *contract.SymbolChunks {
	out := &contract.SymbolChunks{Total: len(symbols)}
	if len(symbols) == 0 {
		out.Chunks = [][]contract.SymbolInfo{}
		return out
	}
	for i := 0; i < len(symbols); i += symbolChunkSize {
		end := i + symbolChunkSize
		if end > len(symbols) {
			end = len(symbols)
		}
		out.Chunks = append(out.Chunks, symbols[i:end])
	}
	return out
}
