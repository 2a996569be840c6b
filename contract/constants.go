package contract

// Timeframe identifies a bar period. Values match the terminal's encoding:
// minutes are literal, hours/days/weeks/months carry a range flag in the
// high bits.
type Timeframe int32

const (
	TimeframeM1  Timeframe = 1
	TimeframeM2  Timeframe = 2
	TimeframeM3  Timeframe = 3
	TimeframeM4  Timeframe = 4
	TimeframeM5  Timeframe = 5
	TimeframeM6  Timeframe = 6
	TimeframeM10 Timeframe = 10
	TimeframeM12 Timeframe = 12
	TimeframeM15 Timeframe = 15
	TimeframeM20 Timeframe = 20
	TimeframeM30 Timeframe = 30
	TimeframeH1  Timeframe = 16385
	TimeframeH2  Timeframe = 16386
	TimeframeH3  Timeframe = 16387
	TimeframeH4  Timeframe = 16388
	TimeframeH6  Timeframe = 16390
	TimeframeH8  Timeframe = 16392
	TimeframeH12 Timeframe = 16396
	TimeframeD1  Timeframe = 16408
	TimeframeW1  Timeframe = 32769
	TimeframeMN1 Timeframe = 49153
)

// OrderType enumerates order kinds accepted by the terminal.
type OrderType int32

const (
	OrderTypeBuy           OrderType = 0
	OrderTypeSell          OrderType = 1
	OrderTypeBuyLimit      OrderType = 2
	OrderTypeSellLimit     OrderType = 3
	OrderTypeBuyStop       OrderType = 4
	OrderTypeSellStop      OrderType = 5
	OrderTypeBuyStopLimit  OrderType = 6
	OrderTypeSellStopLimit OrderType = 7
	OrderTypeCloseBy       OrderType = 8
)

// TradeAction selects the trade request kind for order_send/order_check.
type TradeAction int32

const (
	TradeActionDeal    TradeAction = 1  // instant deal (market order)
	TradeActionPending TradeAction = 5  // pending order at specified conditions
	TradeActionSLTP    TradeAction = 6  // change position stop loss / take profit
	TradeActionModify  TradeAction = 7  // change a placed order's parameters
	TradeActionRemove  TradeAction = 8  // remove a pending order
	TradeActionCloseBy TradeAction = 10 // close a position by an opposite one
)

// CopyTicksFlag filters which ticks a copy_ticks_* operation returns.
type CopyTicksFlag int32

const (
	CopyTicksAll   CopyTicksFlag = -1
	CopyTicksInfo  CopyTicksFlag = 1
	CopyTicksTrade CopyTicksFlag = 2
)

// BookType tags a market-depth entry.
type BookType int32

const (
	BookTypeSell       BookType = 1
	BookTypeBuy        BookType = 2
	BookTypeSellMarket BookType = 3
	BookTypeBuyMarket  BookType = 4
)

// Trade retcodes the bridge itself inspects. The full terminal retcode set
// is passed through untouched.
const (
	RetcodeDone          int32 = 10009
	RetcodeInvalid       int32 = 10013
	RetcodeInvalidVolume int32 = 10014
	RetcodeInvalidPrice  int32 = 10015
	RetcodeNoMoney       int32 = 10019
	RetcodeMarketClosed  int32 = 10018
)
