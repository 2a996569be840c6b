package contract

// Parameter records for operations whose request is more than a bare value.
// Optional fields use omitempty so absent parameters keep their server-side
// defaults.

type InitializeRequest struct {
	Path     string `json:"path,omitempty"`
	Login    int64  `json:"login,omitempty"`
	Password string `json:"password,omitempty"`
	Server   string `json:"server,omitempty"`
	Timeout  int64  `json:"timeout,omitempty"` // milliseconds
	Portable bool   `json:"portable,omitempty"`
}

type LoginRequest struct {
	Login    int64  `json:"login"`
	Password string `json:"password"`
	Server   string `json:"server"`
	Timeout  int64  `json:"timeout,omitempty"` // milliseconds, default 60000
}

type SymbolRequest struct {
	Symbol string `json:"symbol"`
}

type SymbolSelectRequest struct {
	Symbol string `json:"symbol"`
	Enable bool   `json:"enable"`
}

type SymbolsGetRequest struct {
	Group string `json:"group,omitempty"`
}

type CopyRatesFromRequest struct {
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
	From      int64     `json:"date_from"` // unix seconds
	Count     int32     `json:"count"`
}

type CopyRatesFromPosRequest struct {
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
	StartPos  int32     `json:"start_pos"`
	Count     int32     `json:"count"`
}

type CopyRatesRangeRequest struct {
	Symbol    string    `json:"symbol"`
	Timeframe Timeframe `json:"timeframe"`
	From      int64     `json:"date_from"`
	To        int64     `json:"date_to"`
}

type CopyTicksFromRequest struct {
	Symbol string        `json:"symbol"`
	From   int64         `json:"date_from"` // unix seconds
	Count  int32         `json:"count"`
	Flags  CopyTicksFlag `json:"flags"`
}

type CopyTicksRangeRequest struct {
	Symbol string        `json:"symbol"`
	From   int64         `json:"date_from"`
	To     int64         `json:"date_to"`
	Flags  CopyTicksFlag `json:"flags"`
}

type OrderCalcMarginRequest struct {
	Action OrderType `json:"action"`
	Symbol string    `json:"symbol"`
	Volume float64   `json:"volume"`
	Price  float64   `json:"price"`
}

type OrderCalcProfitRequest struct {
	Action     OrderType `json:"action"`
	Symbol     string    `json:"symbol"`
	Volume     float64   `json:"volume"`
	PriceOpen  float64   `json:"price_open"`
	PriceClose float64   `json:"price_close"`
}

// PositionsGetRequest filters positions_get; zero values mean "no filter".
type PositionsGetRequest struct {
	Symbol string `json:"symbol,omitempty"`
	Group  string `json:"group,omitempty"`
	Ticket int64  `json:"ticket,omitempty"`
}

// OrdersGetRequest filters orders_get; zero values mean "no filter".
type OrdersGetRequest struct {
	Symbol string `json:"symbol,omitempty"`
	Group  string `json:"group,omitempty"`
	Ticket int64  `json:"ticket,omitempty"`
}

type HistoryRangeRequest struct {
	From int64 `json:"date_from"`
	To   int64 `json:"date_to"`
}

type HistoryOrdersGetRequest struct {
	From     int64  `json:"date_from,omitempty"`
	To       int64  `json:"date_to,omitempty"`
	Group    string `json:"group,omitempty"`
	Ticket   int64  `json:"ticket,omitempty"`
	Position int64  `json:"position,omitempty"`
}

type HistoryDealsGetRequest struct {
	From     int64  `json:"date_from,omitempty"`
	To       int64  `json:"date_to,omitempty"`
	Group    string `json:"group,omitempty"`
	Ticket   int64  `json:"ticket,omitempty"`
	Position int64  `json:"position,omitempty"`
}

type MarketBookRequest struct {
	Symbol string `json:"symbol"`
}
