package contract

// Records exchanged with the terminal capability. Field names follow the
// terminal's snake_case wire names so records survive the JSON document
// round trip unchanged.

// VersionInfo is the reply shape of the version operation.
type VersionInfo struct {
	Version int32  `json:"version"`
	Build   int32  `json:"build"`
	Date    string `json:"date"`
}

// LastError is the reply shape of the last_error operation.
type LastError struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

// TerminalInfo describes the terminal state.
type TerminalInfo struct {
	Connected    bool   `json:"connected"`
	TradeAllowed bool   `json:"trade_allowed"`
	Build        int32  `json:"build"`
	Name         string `json:"name"`
	Company      string `json:"company"`
	Path         string `json:"path"`
}

// AccountInfo describes the trading account state.
type AccountInfo struct {
	Login        int64   `json:"login"`
	TradeMode    int32   `json:"trade_mode"`
	Leverage     int64   `json:"leverage"`
	Balance      float64 `json:"balance"`
	Credit       float64 `json:"credit"`
	Profit       float64 `json:"profit"`
	Equity       float64 `json:"equity"`
	Margin       float64 `json:"margin"`
	MarginFree   float64 `json:"margin_free"`
	MarginLevel  float64 `json:"margin_level"`
	Currency     string  `json:"currency"`
	Server       string  `json:"server"`
	Company      string  `json:"company"`
	TradeAllowed bool    `json:"trade_allowed"`
	TradeExpert  bool    `json:"trade_expert"`
}

// SymbolInfo describes one trading instrument.
type SymbolInfo struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Path              string  `json:"path"`
	Bid               float64 `json:"bid"`
	Ask               float64 `json:"ask"`
	Spread            int32   `json:"spread"`
	Digits            int32   `json:"digits"`
	Point             float64 `json:"point"`
	TradeMode         int32   `json:"trade_mode"`
	TradeContractSize float64 `json:"trade_contract_size"`
	VolumeMin         float64 `json:"volume_min"`
	VolumeMax         float64 `json:"volume_max"`
	VolumeStep        float64 `json:"volume_step"`
	SwapLong          float64 `json:"swap_long"`
	SwapShort         float64 `json:"swap_short"`
	CurrencyBase      string  `json:"currency_base"`
	CurrencyProfit    string  `json:"currency_profit"`
	Visible           bool    `json:"visible"`
}

// SymbolChunks is the bulk reply shape of symbols_get. Large symbol sets
// (9000+ instruments) travel as fixed-size chunks; the session layer
// assembles them fully before handing the list to the caller.
type SymbolChunks struct {
	Total  int            `json:"total"`
	Chunks [][]SymbolInfo `json:"chunks"`
}

// Symbols flattens the chunked reply into a single list.
func (s *SymbolChunks) Symbols() []SymbolInfo {
	out := make([]SymbolInfo, 0, s.Total)
	for _, c := range s.Chunks {
		out = append(out, c...)
	}
	return out
}

// Tick is one price quote.
type Tick struct {
	Time    int64   `json:"time"`     // unix seconds
	Bid     float64 `json:"bid"`
	Ask     float64 `json:"ask"`
	Last    float64 `json:"last"`
	Volume  int64   `json:"volume"`
	TimeMsc int64   `json:"time_msc"` // unix milliseconds
	Flags   int32   `json:"flags"`
}

// Rate is one OHLCV bar. On the wire bars travel as rows of an 8-column
// float64 array (see codec.RatesToArray), not as JSON records.
type Rate struct {
	Time       int64   `json:"time"`
	Open       float64 `json:"open"`
	High       float64 `json:"high"`
	Low        float64 `json:"low"`
	Close      float64 `json:"close"`
	TickVolume int64   `json:"tick_volume"`
	Spread     int32   `json:"spread"`
	RealVolume int64   `json:"real_volume"`
}

// TradeRequest is the order_send / order_check parameter record.
type TradeRequest struct {
	Action      TradeAction `json:"action"`
	Symbol      string      `json:"symbol"`
	Volume      float64     `json:"volume"`
	Type        OrderType   `json:"type"`
	Price       float64     `json:"price,omitempty"`
	StopLimit   float64     `json:"stoplimit,omitempty"`
	SL          float64     `json:"sl,omitempty"`
	TP          float64     `json:"tp,omitempty"`
	Deviation   int32       `json:"deviation,omitempty"`
	Magic       int64       `json:"magic,omitempty"`
	Order       int64       `json:"order,omitempty"`
	Position    int64       `json:"position,omitempty"`
	PositionBy  int64       `json:"position_by,omitempty"`
	Comment     string      `json:"comment,omitempty"`
	TypeTime    int32       `json:"type_time,omitempty"`
	TypeFilling int32       `json:"type_filling,omitempty"`
	Expiration  int64       `json:"expiration,omitempty"`
}

// TradeResult is the order_send / order_check reply record.
type TradeResult struct {
	Retcode         int32   `json:"retcode"`
	Deal            int64   `json:"deal"`
	Order           int64   `json:"order"`
	Volume          float64 `json:"volume"`
	Price           float64 `json:"price"`
	Bid             float64 `json:"bid"`
	Ask             float64 `json:"ask"`
	Comment         string  `json:"comment"`
	RequestID       int64   `json:"request_id"`
	RetcodeExternal int32   `json:"retcode_external"`
}

// Position is one open position.
type Position struct {
	Ticket     int64   `json:"ticket"`
	Time       int64   `json:"time"`
	Symbol     string  `json:"symbol"`
	Type       int32   `json:"type"`
	Magic      int64   `json:"magic"`
	Volume     float64 `json:"volume"`
	PriceOpen  float64 `json:"price_open"`
	SL         float64 `json:"sl"`
	TP         float64 `json:"tp"`
	PriceNow   float64 `json:"price_current"`
	Swap       float64 `json:"swap"`
	Profit     float64 `json:"profit"`
	Comment    string  `json:"comment"`
	Identifier int64   `json:"identifier"`
}

// Order is one pending or historical order.
type Order struct {
	Ticket       int64     `json:"ticket"`
	TimeSetup    int64     `json:"time_setup"`
	TimeDone     int64     `json:"time_done"`
	Symbol       string    `json:"symbol"`
	Type         OrderType `json:"type"`
	State        int32     `json:"state"`
	Magic        int64     `json:"magic"`
	VolumeInit   float64   `json:"volume_initial"`
	VolumeCur    float64   `json:"volume_current"`
	PriceOpen    float64   `json:"price_open"`
	SL           float64   `json:"sl"`
	TP           float64   `json:"tp"`
	PriceCurrent float64   `json:"price_current"`
	Comment      string    `json:"comment"`
	PositionID   int64     `json:"position_id"`
}

// Deal is one executed trade from history.
type Deal struct {
	Ticket     int64   `json:"ticket"`
	Order      int64   `json:"order"`
	Time       int64   `json:"time"`
	Symbol     string  `json:"symbol"`
	Type       int32   `json:"type"`
	Entry      int32   `json:"entry"`
	Magic      int64   `json:"magic"`
	PositionID int64   `json:"position_id"`
	Volume     float64 `json:"volume"`
	Price      float64 `json:"price"`
	Commission float64 `json:"commission"`
	Swap       float64 `json:"swap"`
	Profit     float64 `json:"profit"`
	Comment    string  `json:"comment"`
}

// BookEntry is one market-depth level.
type BookEntry struct {
	Type         BookType `json:"type"`
	Price        float64  `json:"price"`
	Volume       float64  `json:"volume"`
	VolumeReal   float64  `json:"volume_dbl"`
}

// Health is the health_check reply record.
type Health struct {
	Healthy           bool `json:"healthy"`
	TerminalAvailable bool `json:"terminal_available"`
}
