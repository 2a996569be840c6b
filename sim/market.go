package sim

import (
	"context"
	"math"
	"path"
	"strings"
	"time"

	"mt5bridge/contract"
)

func defaultSymbols() []contract.SymbolInfo {
	fx := func(name, base, profit string, bid float64, digits int32) contract.SymbolInfo {
		point := math.Pow10(-int(digits))
		return contract.SymbolInfo{
			Name:              name,
			Description:       base + " vs " + profit,
			Path:              "Forex\\Majors\\" + name,
			Bid:               bid,
			Ask:               bid + 2*point,
			Spread:            2,
			Digits:            digits,
			Point:             point,
			TradeContractSize: 100000,
			VolumeMin:         0.01,
			VolumeMax:         100,
			VolumeStep:        0.01,
			SwapLong:          -0.5,
			SwapShort:         -0.3,
			CurrencyBase:      base,
			CurrencyProfit:    profit,
			Visible:           true,
		}
	}
	gold := fx("XAUUSD", "XAU", "USD", 2400.50, 2)
	gold.Path = "Metals\\XAUUSD"
	gold.TradeContractSize = 100
	return []contract.SymbolInfo{
		fx("EURUSD", "EUR", "USD", 1.08500, 5),
		fx("GBPUSD", "GBP", "USD", 1.27300, 5),
		fx("USDJPY", "USD", "JPY", 147.250, 3),
		fx("AUDUSD", "AUD", "USD", 0.66400, 5),
		gold,
	}
}

// matchGroup applies the terminal's group filter syntax: comma-separated
// patterns with * wildcards, a leading ! excluding matches.
func matchGroup(group, symbolPath, name string) bool {
	if group == "" {
		return true
	}
	matched := false
	for _, pat := range strings.Split(group, ",") {
		pat = strings.TrimSpace(pat)
		if pat == "" {
			continue
		}
		negate := strings.HasPrefix(pat, "!")
		if negate {
			pat = pat[1:]
		}
		ok, err := path.Match(pat, name)
		if err != nil {
			continue
		}
		if !ok {
			ok, _ = path.Match(pat, strings.ReplaceAll(symbolPath, "\\", "/"))
		}
		if ok {
			if negate {
				return false
			}
			matched = true
		}
	}
	return matched
}

func (t *Terminal) SymbolsTotal(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return 0, err
	}
	return len(t.symbols), nil
}

func (t *Terminal) SymbolsGet(ctx context.Context, group string) ([]contract.SymbolInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return nil, err
	}
	out := make([]contract.SymbolInfo, 0, len(t.symbols))
	for _, s := range t.symbols {
		if matchGroup(group, s.Path, s.Name) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (t *Terminal) SymbolInfo(ctx context.Context, symbol string) (*contract.SymbolInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return nil, err
	}
	i, ok := t.symIndex[symbol]
	if !ok {
		return nil, t.fail(errCodeNotFound, "unknown symbol %q", symbol)
	}
	s := t.symbols[i]
	s.Bid, s.Ask = t.quote(&s, t.now())
	return &s, nil
}

func (t *Terminal) SymbolInfoTick(ctx context.Context, symbol string) (*contract.Tick, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return nil, err
	}
	i, ok := t.symIndex[symbol]
	if !ok {
		return nil, t.fail(errCodeNotFound, "unknown symbol %q", symbol)
	}
	now := t.now()
	bid, ask := t.quote(&t.symbols[i], now)
	return &contract.Tick{
		Time:    now.Unix(),
		Bid:     bid,
		Ask:     ask,
		Last:    bid,
		Volume:  1,
		TimeMsc: now.UnixMilli(),
		Flags:   int32(contract.CopyTicksInfo),
	}, nil
}

func (t *Terminal) SymbolSelect(ctx context.Context, symbol string, enable bool) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return false, err
	}
	i, ok := t.symIndex[symbol]
	if !ok {
		return false, t.fail(errCodeNotFound, "unknown symbol %q", symbol)
	}
	t.symbols[i].Visible = enable
	return true, nil
}

// quote derives a deterministic bid/ask pair for a moment in time. The
// price follows a slow sine drift around the symbol's base bid so repeated
// calls in tests are reproducible. Must be called with the mutex held.
func (t *Terminal) quote(s *contract.SymbolInfo, at time.Time) (bid, ask float64) {
	drift := math.Sin(float64(at.Unix()%86400)/86400*2*math.Pi) * 0.001
	bid = s.Bid * (1 + drift)
	bid = math.Round(bid/s.Point) * s.Point
	return bid, bid + float64(s.Spread)*s.Point
}

func timeframeDuration(tf contract.Timeframe) time.Duration {
	switch {
	case tf >= contract.TimeframeMN1:
		return 30 * 24 * time.Hour
	case tf >= contract.TimeframeW1:
		return 7 * 24 * time.Hour
	case tf >= contract.TimeframeH1:
		return time.Duration(tf-contract.TimeframeH1+1) * time.Hour
	default:
		return time.Duration(tf) * time.Minute
	}
}

// bars generates count bars ending before the current clock, spaced by the
// timeframe, oldest first. Must be called with the mutex held.
func (t *Terminal) bars(s *contract.SymbolInfo, tf contract.Timeframe, start time.Time, count int) []contract.Rate {
	if count <= 0 {
		return nil
	}
	step := timeframeDuration(tf)
	start = start.Truncate(step)
	out := make([]contract.Rate, count)
	for i := range out {
		open := start.Add(time.Duration(i) * step)
		bid, _ := t.quote(s, open)
		nextBid, _ := t.quote(s, open.Add(step))
		high := math.Max(bid, nextBid) + 5*s.Point
		low := math.Min(bid, nextBid) - 5*s.Point
		out[i] = contract.Rate{
			Time:       open.Unix(),
			Open:       bid,
			High:       high,
			Low:        low,
			Close:      nextBid,
			TickVolume: int64(100 + open.Unix()%50),
			Spread:     s.Spread,
			RealVolume: 0,
		}
	}
	return out
}

func (t *Terminal) CopyRatesFrom(ctx context.Context, req *contract.CopyRatesFromRequest) ([]contract.Rate, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return nil, err
	}
	i, ok := t.symIndex[req.Symbol]
	if !ok {
		return nil, t.fail(errCodeNotFound, "unknown symbol %q", req.Symbol)
	}
	return t.bars(&t.symbols[i], req.Timeframe, time.Unix(req.From, 0).UTC(), int(req.Count)), nil
}

func (t *Terminal) CopyRatesFromPos(ctx context.Context, req *contract.CopyRatesFromPosRequest) ([]contract.Rate, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return nil, err
	}
	i, ok := t.symIndex[req.Symbol]
	if !ok {
		return nil, t.fail(errCodeNotFound, "unknown symbol %q", req.Symbol)
	}
	step := timeframeDuration(req.Timeframe)
	start := t.now().Add(-time.Duration(int(req.StartPos)+int(req.Count)) * step)
	return t.bars(&t.symbols[i], req.Timeframe, start.UTC(), int(req.Count)), nil
}

func (t *Terminal) CopyRatesRange(ctx context.Context, req *contract.CopyRatesRangeRequest) ([]contract.Rate, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return nil, err
	}
	i, ok := t.symIndex[req.Symbol]
	if !ok {
		return nil, t.fail(errCodeNotFound, "unknown symbol %q", req.Symbol)
	}
	step := timeframeDuration(req.Timeframe)
	span := time.Unix(req.To, 0).Sub(time.Unix(req.From, 0))
	if span < 0 {
		return nil, nil
	}
	count := int(span/step) + 1
	return t.bars(&t.symbols[i], req.Timeframe, time.Unix(req.From, 0).UTC(), count), nil
}

// ticksFrom generates spaced synthetic ticks. Must be called with the mutex
// held.
func (t *Terminal) ticksFrom(s *contract.SymbolInfo, start time.Time, count int) []contract.Tick {
	if count <= 0 {
		return nil
	}
	out := make([]contract.Tick, count)
	for i := range out {
		at := start.Add(time.Duration(i) * time.Second)
		bid, ask := t.quote(s, at)
		out[i] = contract.Tick{
			Time:    at.Unix(),
			Bid:     bid,
			Ask:     ask,
			Last:    bid,
			Volume:  1,
			TimeMsc: at.UnixMilli(),
			Flags:   int32(contract.CopyTicksInfo),
		}
	}
	return out
}

func (t *Terminal) CopyTicksFrom(ctx context.Context, req *contract.CopyTicksFromRequest) ([]contract.Tick, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return nil, err
	}
	i, ok := t.symIndex[req.Symbol]
	if !ok {
		return nil, t.fail(errCodeNotFound, "unknown symbol %q", req.Symbol)
	}
	return t.ticksFrom(&t.symbols[i], time.Unix(req.From, 0).UTC(), int(req.Count)), nil
}

func (t *Terminal) CopyTicksRange(ctx context.Context, req *contract.CopyTicksRangeRequest) ([]contract.Tick, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return nil, err
	}
	i, ok := t.symIndex[req.Symbol]
	if !ok {
		return nil, t.fail(errCodeNotFound, "unknown symbol %q", req.Symbol)
	}
	span := req.To - req.From
	if span < 0 {
		return nil, nil
	}
	return t.ticksFrom(&t.symbols[i], time.Unix(req.From, 0).UTC(), int(span)+1), nil
}

func (t *Terminal) MarketBookAdd(ctx context.Context, symbol string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return false, err
	}
	if _, ok := t.symIndex[symbol]; !ok {
		return false, t.fail(errCodeNotFound, "unknown symbol %q", symbol)
	}
	t.bookSubs[symbol] = true
	return true, nil
}

func (t *Terminal) MarketBookGet(ctx context.Context, symbol string) ([]contract.BookEntry, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return nil, err
	}
	if !t.bookSubs[symbol] {
		return nil, t.fail(errCodeNotFound, "no market book subscription for %q", symbol)
	}
	s := t.symbols[t.symIndex[symbol]]
	bid, ask := t.quote(&s, t.now())
	const depth = 5
	book := make([]contract.BookEntry, 0, 2*depth)
	for i := depth; i >= 1; i-- {
		book = append(book, contract.BookEntry{
			Type:       contract.BookTypeSell,
			Price:      ask + float64(i-1)*s.Point,
			Volume:     float64(10 * i),
			VolumeReal: float64(10 * i),
		})
	}
	for i := 1; i <= depth; i++ {
		book = append(book, contract.BookEntry{
			Type:       contract.BookTypeBuy,
			Price:      bid - float64(i-1)*s.Point,
			Volume:     float64(10 * i),
			VolumeReal: float64(10 * i),
		})
	}
	return book, nil
}

func (t *Terminal) MarketBookRelease(ctx context.Context, symbol string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return false, err
	}
	if !t.bookSubs[symbol] {
		return false, t.fail(errCodeNotFound, "no market book subscription for %q", symbol)
	}
	delete(t.bookSubs, symbol)
	return true, nil
}
