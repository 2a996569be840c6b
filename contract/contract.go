// Package contract is the fixed catalog of remote operations shared by the
// client facades and the server dispatcher.
//
// The catalog is the single source of truth for operation names, parameter
// lists, and response shapes. Both sides carry the same catalog version;
// an unknown operation name is a contract violation, not a recoverable
// runtime condition. Changing any shape requires bumping Version and
// updating the facades and the dispatcher together.
package contract

import (
	"encoding/json"
	"fmt"

	"mt5bridge/message"
)

// Version identifies the catalog revision both peers must agree on.
const Version = "1"

// Operation names. These are the wire identifiers carried in request
// envelopes; they follow the terminal's snake_case API names.
const (
	OpHealthCheck        = "health_check"
	OpInitialize         = "initialize"
	OpLogin              = "login"
	OpShutdown           = "shutdown"
	OpVersion            = "version"
	OpLastError          = "last_error"
	OpTerminalInfo       = "terminal_info"
	OpAccountInfo        = "account_info"
	OpSymbolsTotal       = "symbols_total"
	OpSymbolsGet         = "symbols_get"
	OpSymbolInfo         = "symbol_info"
	OpSymbolInfoTick     = "symbol_info_tick"
	OpSymbolSelect       = "symbol_select"
	OpCopyRatesFrom      = "copy_rates_from"
	OpCopyRatesFromPos   = "copy_rates_from_pos"
	OpCopyRatesRange     = "copy_rates_range"
	OpCopyTicksFrom      = "copy_ticks_from"
	OpCopyTicksRange     = "copy_ticks_range"
	OpOrderCalcMargin    = "order_calc_margin"
	OpOrderCalcProfit    = "order_calc_profit"
	OpOrderCheck         = "order_check"
	OpOrderSend          = "order_send"
	OpPositionsTotal     = "positions_total"
	OpPositionsGet       = "positions_get"
	OpOrdersTotal        = "orders_total"
	OpOrdersGet          = "orders_get"
	OpHistoryOrdersTotal = "history_orders_total"
	OpHistoryOrdersGet   = "history_orders_get"
	OpHistoryDealsTotal  = "history_deals_total"
	OpHistoryDealsGet    = "history_deals_get"
	OpMarketBookAdd      = "market_book_add"
	OpMarketBookGet      = "market_book_get"
	OpMarketBookRelease  = "market_book_release"
)

// ParamType is the semantic type of one operation parameter.
type ParamType string

const (
	TypeString ParamType = "string"
	TypeInt    ParamType = "int"
	TypeFloat  ParamType = "float"
	TypeBool   ParamType = "bool"
	TypeTime   ParamType = "time" // unix seconds
)

// ResponseShape categorizes what a successful response carries.
type ResponseShape int

const (
	ResponseNone       ResponseShape = iota // no payload (e.g. shutdown)
	ResponseScalar                          // single bool/int/float value
	ResponseRecord                          // one JSON record
	ResponseRecordList                      // list of JSON records (or chunked record)
	ResponseArray                           // typed numeric array
)

// Kind returns the payload encoding used for this response shape.
func (s ResponseShape) Kind() message.Kind {
	if s == ResponseArray {
		return message.KindArray
	}
	return message.KindRecord
}

// Param describes one parameter of an operation.
type Param struct {
	Name     string
	Type     ParamType
	Required bool
	Default  any // used when the parameter is optional and absent
}

// Descriptor is the typed contract for one remote operation. Descriptors
// are immutable and defined once, at contract-design time.
type Descriptor struct {
	Name     string
	Params   []Param
	Response ResponseShape
}

// Catalog enumerates every supported operation. Order matters only for
// documentation; lookup goes through the index built in init.
var Catalog = []Descriptor{
	{Name: OpHealthCheck, Response: ResponseRecord},
	{Name: OpInitialize, Response: ResponseScalar, Params: []Param{
		{Name: "path", Type: TypeString},
		{Name: "login", Type: TypeInt},
		{Name: "password", Type: TypeString},
		{Name: "server", Type: TypeString},
		{Name: "timeout", Type: TypeInt},
		{Name: "portable", Type: TypeBool, Default: false},
	}},
	{Name: OpLogin, Response: ResponseScalar, Params: []Param{
		{Name: "login", Type: TypeInt, Required: true},
		{Name: "password", Type: TypeString, Required: true},
		{Name: "server", Type: TypeString, Required: true},
		{Name: "timeout", Type: TypeInt, Default: int64(60000)},
	}},
	{Name: OpShutdown, Response: ResponseNone},
	{Name: OpVersion, Response: ResponseRecord},
	{Name: OpLastError, Response: ResponseRecord},
	{Name: OpTerminalInfo, Response: ResponseRecord},
	{Name: OpAccountInfo, Response: ResponseRecord},
	{Name: OpSymbolsTotal, Response: ResponseScalar},
	{Name: OpSymbolsGet, Response: ResponseRecordList, Params: []Param{
		{Name: "group", Type: TypeString},
	}},
	{Name: OpSymbolInfo, Response: ResponseRecord, Params: []Param{
		{Name: "symbol", Type: TypeString, Required: true},
	}},
	{Name: OpSymbolInfoTick, Response: ResponseRecord, Params: []Param{
		{Name: "symbol", Type: TypeString, Required: true},
	}},
	{Name: OpSymbolSelect, Response: ResponseScalar, Params: []Param{
		{Name: "symbol", Type: TypeString, Required: true},
		{Name: "enable", Type: TypeBool, Default: true},
	}},
	{Name: OpCopyRatesFrom, Response: ResponseArray, Params: []Param{
		{Name: "symbol", Type: TypeString, Required: true},
		{Name: "timeframe", Type: TypeInt, Required: true},
		{Name: "date_from", Type: TypeTime, Required: true},
		{Name: "count", Type: TypeInt, Required: true},
	}},
	{Name: OpCopyRatesFromPos, Response: ResponseArray, Params: []Param{
		{Name: "symbol", Type: TypeString, Required: true},
		{Name: "timeframe", Type: TypeInt, Required: true},
		{Name: "start_pos", Type: TypeInt, Required: true},
		{Name: "count", Type: TypeInt, Required: true},
	}},
	{Name: OpCopyRatesRange, Response: ResponseArray, Params: []Param{
		{Name: "symbol", Type: TypeString, Required: true},
		{Name: "timeframe", Type: TypeInt, Required: true},
		{Name: "date_from", Type: TypeTime, Required: true},
		{Name: "date_to", Type: TypeTime, Required: true},
	}},
	{Name: OpCopyTicksFrom, Response: ResponseArray, Params: []Param{
		{Name: "symbol", Type: TypeString, Required: true},
		{Name: "date_from", Type: TypeTime, Required: true},
		{Name: "count", Type: TypeInt, Required: true},
		{Name: "flags", Type: TypeInt, Default: int64(CopyTicksAll)},
	}},
	{Name: OpCopyTicksRange, Response: ResponseArray, Params: []Param{
		{Name: "symbol", Type: TypeString, Required: true},
		{Name: "date_from", Type: TypeTime, Required: true},
		{Name: "date_to", Type: TypeTime, Required: true},
		{Name: "flags", Type: TypeInt, Default: int64(CopyTicksAll)},
	}},
	{Name: OpOrderCalcMargin, Response: ResponseScalar, Params: []Param{
		{Name: "action", Type: TypeInt, Required: true},
		{Name: "symbol", Type: TypeString, Required: true},
		{Name: "volume", Type: TypeFloat, Required: true},
		{Name: "price", Type: TypeFloat, Required: true},
	}},
	{Name: OpOrderCalcProfit, Response: ResponseScalar, Params: []Param{
		{Name: "action", Type: TypeInt, Required: true},
		{Name: "symbol", Type: TypeString, Required: true},
		{Name: "volume", Type: TypeFloat, Required: true},
		{Name: "price_open", Type: TypeFloat, Required: true},
		{Name: "price_close", Type: TypeFloat, Required: true},
	}},
	{Name: OpOrderCheck, Response: ResponseRecord, Params: []Param{
		{Name: "action", Type: TypeInt, Required: true},
		{Name: "symbol", Type: TypeString},
		{Name: "volume", Type: TypeFloat},
		{Name: "type", Type: TypeInt},
	}},
	{Name: OpOrderSend, Response: ResponseRecord, Params: []Param{
		{Name: "action", Type: TypeInt, Required: true},
		{Name: "symbol", Type: TypeString},
		{Name: "volume", Type: TypeFloat},
		{Name: "type", Type: TypeInt},
	}},
	{Name: OpPositionsTotal, Response: ResponseScalar},
	{Name: OpPositionsGet, Response: ResponseRecordList, Params: []Param{
		{Name: "symbol", Type: TypeString},
		{Name: "group", Type: TypeString},
		{Name: "ticket", Type: TypeInt},
	}},
	{Name: OpOrdersTotal, Response: ResponseScalar},
	{Name: OpOrdersGet, Response: ResponseRecordList, Params: []Param{
		{Name: "symbol", Type: TypeString},
		{Name: "group", Type: TypeString},
		{Name: "ticket", Type: TypeInt},
	}},
	{Name: OpHistoryOrdersTotal, Response: ResponseScalar, Params: []Param{
		{Name: "date_from", Type: TypeTime, Required: true},
		{Name: "date_to", Type: TypeTime, Required: true},
	}},
	{Name: OpHistoryOrdersGet, Response: ResponseRecordList, Params: []Param{
		{Name: "date_from", Type: TypeTime},
		{Name: "date_to", Type: TypeTime},
		{Name: "group", Type: TypeString},
		{Name: "ticket", Type: TypeInt},
		{Name: "position", Type: TypeInt},
	}},
	{Name: OpHistoryDealsTotal, Response: ResponseScalar, Params: []Param{
		{Name: "date_from", Type: TypeTime, Required: true},
		{Name: "date_to", Type: TypeTime, Required: true},
	}},
	{Name: OpHistoryDealsGet, Response: ResponseRecordList, Params: []Param{
		{Name: "date_from", Type: TypeTime},
		{Name: "date_to", Type: TypeTime},
		{Name: "group", Type: TypeString},
		{Name: "ticket", Type: TypeInt},
		{Name: "position", Type: TypeInt},
	}},
	{Name: OpMarketBookAdd, Response: ResponseScalar, Params: []Param{
		{Name: "symbol", Type: TypeString, Required: true},
	}},
	{Name: OpMarketBookGet, Response: ResponseRecordList, Params: []Param{
		{Name: "symbol", Type: TypeString, Required: true},
	}},
	{Name: OpMarketBookRelease, Response: ResponseScalar, Params: []Param{
		{Name: "symbol", Type: TypeString, Required: true},
	}},
}

var index = make(map[string]*Descriptor, len(Catalog))

func init() {
	for i := range Catalog {
		index[Catalog[i].Name] = &Catalog[i]
	}
}

// Lookup returns the descriptor for an operation name, or
// ErrUnknownOperation if the name is not in the catalog.
func Lookup(name string) (*Descriptor, error) {
	d, ok := index[name]
	if !ok {
		return nil, ErrUnknownOperation
	}
	return d, nil
}

// Prepare checks a parameter record against the descriptor before dispatch:
// required parameters must be present and non-null, and absent optional
// parameters with a declared default get the default filled in. Returns the
// payload the handler should decode; the input is returned untouched when
// nothing had to change.
func (d *Descriptor) Prepare(payload []byte) ([]byte, error) {
	if len(d.Params) == 0 {
		return payload, nil
	}
	fields := make(map[string]json.RawMessage, len(d.Params))
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &fields); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, d.Name, err)
		}
	}
	changed := false
	for _, p := range d.Params {
		if raw, ok := fields[p.Name]; ok && string(raw) != "null" {
			continue
		}
		if p.Required {
			return nil, fmt.Errorf("%w: %s: missing required parameter %q",
				ErrMalformedPayload, d.Name, p.Name)
		}
		if p.Default == nil {
			continue
		}
		raw, err := json.Marshal(p.Default)
		if err != nil {
			return nil, fmt.Errorf("%s: encode default for %q: %w", d.Name, p.Name, err)
		}
		fields[p.Name] = raw
		changed = true
	}
	if !changed {
		return payload, nil
	}
	return json.Marshal(fields)
}
