package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mt5bridge/contract"
)

func connected(t *testing.T, opts ...Option) *Terminal {
	t.Helper()
	term := New(opts...)
	ok, err := term.Initialize(context.Background(), &contract.InitializeRequest{})
	require.NoError(t, err)
	require.True(t, ok)
	return term
}

func fixedClock() func() time.Time {
	at := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	return func() time.Time { return at }
}

func TestRequiresInitialize(t *testing.T) {
	term := New()
	ctx := context.Background()

	_, err := term.AccountInfo(ctx)
	var remote *contract.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, errCodeNotConnected, remote.Code)

	le, err := term.LastError(ctx)
	require.NoError(t, err)
	assert.Equal(t, errCodeNotConnected, le.Code)

	h, err := term.HealthCheck(ctx)
	require.NoError(t, err)
	assert.True(t, h.Healthy)
	assert.False(t, h.TerminalAvailable)
}

func TestInitializeLoginShutdown(t *testing.T) {
	term := New()
	ctx := context.Background()

	ok, err := term.Initialize(ctx, &contract.InitializeRequest{})
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = term.Login(ctx, &contract.LoginRequest{Login: 999, Password: "x", Server: "s"})
	var remote *contract.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, errCodeAuthFailed, remote.Code)

	ok, err = term.Login(ctx, &contract.LoginRequest{Login: 12345, Password: "x", Server: "s"})
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, term.Shutdown(ctx))
	_, err = term.Version(ctx)
	assert.Error(t, err)
}

func TestAccountAndTerminalInfo(t *testing.T) {
	term := connected(t)
	ctx := context.Background()

	acc, err := term.AccountInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(12345), acc.Login)
	assert.Equal(t, 1000.0, acc.Balance)
	assert.Equal(t, "USD", acc.Currency)

	info, err := term.TerminalInfo(ctx)
	require.NoError(t, err)
	assert.True(t, info.Connected)

	v, err := term.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(500), v.Version)
}

func TestSymbolEnumeration(t *testing.T) {
	term := connected(t)
	ctx := context.Background()

	total, err := term.SymbolsTotal(ctx)
	require.NoError(t, err)
	all, err := term.SymbolsGet(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, total)

	usd, err := term.SymbolsGet(ctx, "*USD")
	require.NoError(t, err)
	for _, s := range usd {
		assert.Contains(t, s.Name, "USD")
	}
	assert.NotEmpty(t, usd)

	noJPY, err := term.SymbolsGet(ctx, "*,!*JPY")
	require.NoError(t, err)
	for _, s := range noJPY {
		assert.NotContains(t, s.Name, "JPY")
	}
	assert.Len(t, noJPY, total-1)
}

func TestSymbolInfoAndSelect(t *testing.T) {
	term := connected(t)
	ctx := context.Background()

	s, err := term.SymbolInfo(ctx, "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, "EURUSD", s.Name)
	assert.Greater(t, s.Ask, s.Bid)

	_, err = term.SymbolInfo(ctx, "NOPE")
	var remote *contract.RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, errCodeNotFound, remote.Code)

	ok, err := term.SymbolSelect(ctx, "EURUSD", false)
	require.NoError(t, err)
	assert.True(t, ok)
	s, err = term.SymbolInfo(ctx, "EURUSD")
	require.NoError(t, err)
	assert.False(t, s.Visible)
}

func TestBarsAreDeterministic(t *testing.T) {
	term := connected(t, WithClock(fixedClock()))
	ctx := context.Background()
	from := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

	req := &contract.CopyRatesFromRequest{
		Symbol: "EURUSD", Timeframe: contract.TimeframeM1, From: from.Unix(), Count: 100,
	}
	first, err := term.CopyRatesFrom(ctx, req)
	require.NoError(t, err)
	second, err := term.CopyRatesFrom(ctx, req)
	require.NoError(t, err)

	require.Len(t, first, 100)
	assert.Equal(t, first, second)
	for i, bar := range first {
		assert.Equal(t, from.Add(time.Duration(i)*time.Minute).Unix(), bar.Time)
		assert.GreaterOrEqual(t, bar.High, bar.Open)
		assert.LessOrEqual(t, bar.Low, bar.Open)
		assert.GreaterOrEqual(t, bar.High, bar.Close)
		assert.LessOrEqual(t, bar.Low, bar.Close)
	}
}

func TestRatesRangeAndTicks(t *testing.T) {
	term := connected(t, WithClock(fixedClock()))
	ctx := context.Background()
	from := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	to := from.Add(59 * time.Minute)

	bars, err := term.CopyRatesRange(ctx, &contract.CopyRatesRangeRequest{
		Symbol: "EURUSD", Timeframe: contract.TimeframeM1, From: from.Unix(), To: to.Unix(),
	})
	require.NoError(t, err)
	assert.Len(t, bars, 60)

	ticks, err := term.CopyTicksFrom(ctx, &contract.CopyTicksFromRequest{
		Symbol: "EURUSD", From: from.Unix(), Count: 10, Flags: contract.CopyTicksAll,
	})
	require.NoError(t, err)
	require.Len(t, ticks, 10)
	assert.Equal(t, from.Unix(), ticks[0].Time)
	assert.Greater(t, ticks[0].Ask, ticks[0].Bid)
}

func TestOrderSendDeal(t *testing.T) {
	term := connected(t)
	ctx := context.Background()

	res, err := term.OrderSend(ctx, &contract.TradeRequest{
		Action: contract.TradeActionDeal,
		Symbol: "EURUSD",
		Volume: 0.1,
		Type:   contract.OrderTypeBuy,
	})
	require.NoError(t, err)
	assert.Equal(t, contract.RetcodeDone, res.Retcode)
	assert.NotZero(t, res.Order)
	assert.NotZero(t, res.Deal)

	n, err := term.PositionsTotal(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	positions, err := term.PositionsGet(ctx, &contract.PositionsGetRequest{Symbol: "EURUSD"})
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, res.Order, positions[0].Ticket)
	assert.Equal(t, 0.1, positions[0].Volume)
}

func TestOrderSendRejectsInvalidVolume(t *testing.T) {
	term := connected(t)
	ctx := context.Background()

	for _, volume := range []float64{-1, 0, 0.005, 1000000} {
		_, err := term.OrderSend(ctx, &contract.TradeRequest{
			Action: contract.TradeActionDeal,
			Symbol: "EURUSD",
			Volume: volume,
			Type:   contract.OrderTypeBuy,
		})
		var remote *contract.RemoteError
		require.ErrorAs(t, err, &remote, "volume %v", volume)
		assert.Equal(t, contract.RetcodeInvalidVolume, remote.Code)
	}

	le, err := term.LastError(ctx)
	require.NoError(t, err)
	assert.Equal(t, contract.RetcodeInvalidVolume, le.Code)

	n, err := term.PositionsTotal(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPendingOrderLifecycle(t *testing.T) {
	term := connected(t)
	ctx := context.Background()

	res, err := term.OrderSend(ctx, &contract.TradeRequest{
		Action: contract.TradeActionPending,
		Symbol: "GBPUSD",
		Volume: 0.2,
		Type:   contract.OrderTypeBuyLimit,
		Price:  1.25,
	})
	require.NoError(t, err)
	ticket := res.Order

	orders, err := term.OrdersGet(ctx, &contract.OrdersGetRequest{Ticket: ticket})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 1.25, orders[0].PriceOpen)

	_, err = term.OrderSend(ctx, &contract.TradeRequest{
		Action: contract.TradeActionModify,
		Symbol: "GBPUSD",
		Order:  ticket,
		Price:  1.24,
		SL:     1.20,
	})
	require.NoError(t, err)
	orders, err = term.OrdersGet(ctx, &contract.OrdersGetRequest{Ticket: ticket})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, 1.24, orders[0].PriceOpen)
	assert.Equal(t, 1.20, orders[0].SL)

	_, err = term.OrderSend(ctx, &contract.TradeRequest{
		Action: contract.TradeActionRemove,
		Symbol: "GBPUSD",
		Order:  ticket,
	})
	require.NoError(t, err)
	n, err := term.OrdersTotal(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSLTPModifiesPosition(t *testing.T) {
	term := connected(t)
	ctx := context.Background()

	res, err := term.OrderSend(ctx, &contract.TradeRequest{
		Action: contract.TradeActionDeal, Symbol: "EURUSD", Volume: 0.1, Type: contract.OrderTypeBuy,
	})
	require.NoError(t, err)

	_, err = term.OrderSend(ctx, &contract.TradeRequest{
		Action:   contract.TradeActionSLTP,
		Symbol:   "EURUSD",
		Position: res.Order,
		SL:       1.05,
		TP:       1.12,
	})
	require.NoError(t, err)

	positions, err := term.PositionsGet(ctx, &contract.PositionsGetRequest{Ticket: res.Order})
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, 1.05, positions[0].SL)
	assert.Equal(t, 1.12, positions[0].TP)
}

func TestHistoryAfterDeals(t *testing.T) {
	term := connected(t, WithClock(fixedClock()))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := term.OrderSend(ctx, &contract.TradeRequest{
			Action: contract.TradeActionDeal, Symbol: "EURUSD", Volume: 0.1, Type: contract.OrderTypeBuy,
		})
		require.NoError(t, err)
	}

	at := fixedClock()().Unix()
	rng := &contract.HistoryRangeRequest{From: at - 3600, To: at + 3600}

	n, err := term.HistoryDealsTotal(ctx, rng)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	deals, err := term.HistoryDealsGet(ctx, &contract.HistoryDealsGetRequest{From: rng.From, To: rng.To})
	require.NoError(t, err)
	assert.Len(t, deals, 3)

	orders, err := term.HistoryOrdersGet(ctx, &contract.HistoryOrdersGetRequest{From: rng.From, To: rng.To})
	require.NoError(t, err)
	assert.Len(t, orders, 3)

	// Outside the range nothing matches.
	n, err = term.HistoryDealsTotal(ctx, &contract.HistoryRangeRequest{From: at + 7200, To: at + 9999})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCalcMarginAndProfit(t *testing.T) {
	term := connected(t)
	ctx := context.Background()

	margin, err := term.OrderCalcMargin(ctx, &contract.OrderCalcMarginRequest{
		Action: contract.OrderTypeBuy, Symbol: "EURUSD", Volume: 1, Price: 1.1,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1100.0, margin, 1e-9) // 1 lot × 100000 × 1.1 / leverage 100

	profit, err := term.OrderCalcProfit(ctx, &contract.OrderCalcProfitRequest{
		Action: contract.OrderTypeBuy, Symbol: "EURUSD", Volume: 1, PriceOpen: 1.10, PriceClose: 1.11,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1000.0, profit, 1e-6)

	profit, err = term.OrderCalcProfit(ctx, &contract.OrderCalcProfitRequest{
		Action: contract.OrderTypeSell, Symbol: "EURUSD", Volume: 1, PriceOpen: 1.10, PriceClose: 1.11,
	})
	require.NoError(t, err)
	assert.InDelta(t, -1000.0, profit, 1e-6)
}

func TestMarketBookSubscription(t *testing.T) {
	term := connected(t)
	ctx := context.Background()

	_, err := term.MarketBookGet(ctx, "EURUSD")
	assert.Error(t, err, "unsubscribed book read must fail")

	ok, err := term.MarketBookAdd(ctx, "EURUSD")
	require.NoError(t, err)
	assert.True(t, ok)

	book, err := term.MarketBookGet(ctx, "EURUSD")
	require.NoError(t, err)
	require.NotEmpty(t, book)
	assert.Equal(t, contract.BookTypeSell, book[0].Type)
	assert.Equal(t, contract.BookTypeBuy, book[len(book)-1].Type)

	ok, err = term.MarketBookRelease(ctx, "EURUSD")
	require.NoError(t, err)
	assert.True(t, ok)
	_, err = term.MarketBookGet(ctx, "EURUSD")
	assert.Error(t, err)
}
