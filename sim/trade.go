package sim

import (
	"context"
	"math"

	"mt5bridge/contract"
)

// validateVolume must be called with the mutex held.
func (t *Terminal) validateVolume(s *contract.SymbolInfo, volume float64) *contract.TradeResult {
	if volume < s.VolumeMin || volume > s.VolumeMax {
		return &contract.TradeResult{Retcode: contract.RetcodeInvalidVolume, Comment: "Invalid volume"}
	}
	steps := volume / s.VolumeStep
	if math.Abs(steps-math.Round(steps)) > 1e-9 {
		return &contract.TradeResult{Retcode: contract.RetcodeInvalidVolume, Comment: "Invalid volume"}
	}
	return nil
}

func (t *Terminal) OrderCalcMargin(ctx context.Context, req *contract.OrderCalcMarginRequest) (float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return 0, err
	}
	i, ok := t.symIndex[req.Symbol]
	if !ok {
		return 0, t.fail(errCodeNotFound, "unknown symbol %q", req.Symbol)
	}
	s := t.symbols[i]
	leverage := t.account.Leverage
	if leverage <= 0 {
		leverage = 1
	}
	return req.Volume * req.Price * s.TradeContractSize / float64(leverage), nil
}

func (t *Terminal) OrderCalcProfit(ctx context.Context, req *contract.OrderCalcProfitRequest) (float64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return 0, err
	}
	i, ok := t.symIndex[req.Symbol]
	if !ok {
		return 0, t.fail(errCodeNotFound, "unknown symbol %q", req.Symbol)
	}
	s := t.symbols[i]
	diff := req.PriceClose - req.PriceOpen
	if req.Action == contract.OrderTypeSell {
		diff = -diff
	}
	return diff * req.Volume * s.TradeContractSize, nil
}

// checkRequest validates a trade request without executing it. A non-nil
// result with a non-done retcode describes the rejection. Must be called
// with the mutex held.
func (t *Terminal) checkRequest(req *contract.TradeRequest) (*contract.TradeResult, *contract.SymbolInfo, error) {
	i, ok := t.symIndex[req.Symbol]
	if !ok {
		return nil, nil, t.fail(errCodeNotFound, "unknown symbol %q", req.Symbol)
	}
	s := &t.symbols[i]
	switch req.Action {
	case contract.TradeActionDeal, contract.TradeActionPending:
		if res := t.validateVolume(s, req.Volume); res != nil {
			return res, s, nil
		}
		if req.Action == contract.TradeActionPending && req.Price <= 0 {
			return &contract.TradeResult{Retcode: contract.RetcodeInvalidPrice, Comment: "Invalid price"}, s, nil
		}
	case contract.TradeActionSLTP, contract.TradeActionModify, contract.TradeActionRemove, contract.TradeActionCloseBy:
		// validated against existing tickets at execution time
	default:
		return &contract.TradeResult{Retcode: contract.RetcodeInvalid, Comment: "Invalid request"}, s, nil
	}
	return nil, s, nil
}

func (t *Terminal) OrderCheck(ctx context.Context, req *contract.TradeRequest) (*contract.TradeResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return nil, err
	}
	rej, s, err := t.checkRequest(req)
	if err != nil {
		return nil, err
	}
	if rej != nil {
		return rej, errFromRetcode(rej)
	}
	bid, ask := t.quote(s, t.now())
	return &contract.TradeResult{Retcode: 0, Volume: req.Volume, Bid: bid, Ask: ask, Comment: "Done"}, nil
}

// errFromRetcode turns a rejection result into the error that ferries its
// retcode to the client.
func errFromRetcode(res *contract.TradeResult) error {
	return &contract.RemoteError{Code: res.Retcode, Message: res.Comment}
}

func (t *Terminal) OrderSend(ctx context.Context, req *contract.TradeRequest) (*contract.TradeResult, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return nil, err
	}
	rej, s, err := t.checkRequest(req)
	if err != nil {
		return nil, err
	}
	if rej != nil {
		t.lastErr = contract.LastError{Code: rej.Retcode, Message: rej.Comment}
		return rej, errFromRetcode(rej)
	}
	now := t.now()
	bid, ask := t.quote(s, now)

	switch req.Action {
	case contract.TradeActionDeal:
		price := ask
		if req.Type == contract.OrderTypeSell {
			price = bid
		}
		t.ticket++
		order := t.ticket
		t.ticket++
		deal := t.ticket
		t.positions = append(t.positions, contract.Position{
			Ticket:     order,
			Time:       now.Unix(),
			Symbol:     req.Symbol,
			Type:       int32(req.Type),
			Magic:      req.Magic,
			Volume:     req.Volume,
			PriceOpen:  price,
			SL:         req.SL,
			TP:         req.TP,
			PriceNow:   price,
			Comment:    req.Comment,
			Identifier: order,
		})
		t.deals = append(t.deals, contract.Deal{
			Ticket:     deal,
			Order:      order,
			Time:       now.Unix(),
			Symbol:     req.Symbol,
			Type:       int32(req.Type),
			Entry:      0,
			Magic:      req.Magic,
			PositionID: order,
			Volume:     req.Volume,
			Price:      price,
			Comment:    req.Comment,
		})
		return &contract.TradeResult{
			Retcode: contract.RetcodeDone,
			Deal:    deal,
			Order:   order,
			Volume:  req.Volume,
			Price:   price,
			Bid:     bid,
			Ask:     ask,
			Comment: "Request executed",
		}, nil

	case contract.TradeActionPending:
		t.ticket++
		order := t.ticket
		t.orders = append(t.orders, contract.Order{
			Ticket:       order,
			TimeSetup:    now.Unix(),
			Symbol:       req.Symbol,
			Type:         req.Type,
			Magic:        req.Magic,
			VolumeInit:   req.Volume,
			VolumeCur:    req.Volume,
			PriceOpen:    req.Price,
			SL:           req.SL,
			TP:           req.TP,
			PriceCurrent: bid,
			Comment:      req.Comment,
		})
		return &contract.TradeResult{
			Retcode: contract.RetcodeDone,
			Order:   order,
			Volume:  req.Volume,
			Price:   req.Price,
			Bid:     bid,
			Ask:     ask,
			Comment: "Request executed",
		}, nil

	case contract.TradeActionSLTP:
		for i := range t.positions {
			if t.positions[i].Ticket == req.Position {
				t.positions[i].SL = req.SL
				t.positions[i].TP = req.TP
				return &contract.TradeResult{Retcode: contract.RetcodeDone, Comment: "Request executed"}, nil
			}
		}
		return nil, t.fail(errCodeNotFound, "position %d not found", req.Position)

	case contract.TradeActionModify:
		for i := range t.orders {
			if t.orders[i].Ticket == req.Order {
				t.orders[i].PriceOpen = req.Price
				t.orders[i].SL = req.SL
				t.orders[i].TP = req.TP
				return &contract.TradeResult{Retcode: contract.RetcodeDone, Order: req.Order, Comment: "Request executed"}, nil
			}
		}
		return nil, t.fail(errCodeNotFound, "order %d not found", req.Order)

	case contract.TradeActionRemove:
		for i := range t.orders {
			if t.orders[i].Ticket == req.Order {
				t.orders = append(t.orders[:i], t.orders[i+1:]...)
				return &contract.TradeResult{Retcode: contract.RetcodeDone, Order: req.Order, Comment: "Request executed"}, nil
			}
		}
		return nil, t.fail(errCodeNotFound, "order %d not found", req.Order)

	case contract.TradeActionCloseBy:
		return t.closeBy(req, now.Unix())
	}
	return nil, t.fail(errCodeNotFound, "unsupported action %d", req.Action)
}

// closeBy nets a position against an opposite one. Must be called with the
// mutex held.
func (t *Terminal) closeBy(req *contract.TradeRequest, now int64) (*contract.TradeResult, error) {
	var a, b = -1, -1
	for i := range t.positions {
		switch t.positions[i].Ticket {
		case req.Position:
			a = i
		case req.PositionBy:
			b = i
		}
	}
	if a < 0 || b < 0 {
		return nil, t.fail(errCodeNotFound, "close-by positions not found")
	}
	volume := math.Min(t.positions[a].Volume, t.positions[b].Volume)
	t.ticket++
	deal := t.ticket
	t.deals = append(t.deals, contract.Deal{
		Ticket:     deal,
		Time:       now,
		Symbol:     t.positions[a].Symbol,
		Entry:      1,
		PositionID: t.positions[a].Ticket,
		Volume:     volume,
		Price:      t.positions[a].PriceNow,
	})
	keep := t.positions[:0]
	for i := range t.positions {
		if i != a && i != b {
			keep = append(keep, t.positions[i])
		}
	}
	t.positions = keep
	return &contract.TradeResult{Retcode: contract.RetcodeDone, Deal: deal, Volume: volume, Comment: "Request executed"}, nil
}

func (t *Terminal) PositionsTotal(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return 0, err
	}
	return len(t.positions), nil
}

func (t *Terminal) PositionsGet(ctx context.Context, req *contract.PositionsGetRequest) ([]contract.Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return nil, err
	}
	out := make([]contract.Position, 0, len(t.positions))
	for _, p := range t.positions {
		if req.Ticket != 0 && p.Ticket != req.Ticket {
			continue
		}
		if req.Symbol != "" && p.Symbol != req.Symbol {
			continue
		}
		if req.Group != "" && !matchGroup(req.Group, "", p.Symbol) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (t *Terminal) OrdersTotal(ctx context.Context) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return 0, err
	}
	return len(t.orders), nil
}

func (t *Terminal) OrdersGet(ctx context.Context, req *contract.OrdersGetRequest) ([]contract.Order, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return nil, err
	}
	out := make([]contract.Order, 0, len(t.orders))
	for _, o := range t.orders {
		if req.Ticket != 0 && o.Ticket != req.Ticket {
			continue
		}
		if req.Symbol != "" && o.Symbol != req.Symbol {
			continue
		}
		if req.Group != "" && !matchGroup(req.Group, "", o.Symbol) {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

func inRange(at, from, to int64) bool {
	return (from == 0 || at >= from) && (to == 0 || at <= to)
}

func (t *Terminal) HistoryOrdersTotal(ctx context.Context, req *contract.HistoryRangeRequest) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return 0, err
	}
	n := 0
	for _, d := range t.deals {
		if inRange(d.Time, req.From, req.To) && d.Order != 0 {
			n++
		}
	}
	return n, nil
}

func (t *Terminal) HistoryOrdersGet(ctx context.Context, req *contract.HistoryOrdersGetRequest) ([]contract.Order, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return nil, err
	}
	out := make([]contract.Order, 0, len(t.deals))
	for _, d := range t.deals {
		if d.Order == 0 || !inRange(d.Time, req.From, req.To) {
			continue
		}
		if req.Ticket != 0 && d.Order != req.Ticket {
			continue
		}
		if req.Position != 0 && d.PositionID != req.Position {
			continue
		}
		if req.Group != "" && !matchGroup(req.Group, "", d.Symbol) {
			continue
		}
		out = append(out, contract.Order{
			Ticket:     d.Order,
			TimeSetup:  d.Time,
			TimeDone:   d.Time,
			Symbol:     d.Symbol,
			Type:       contract.OrderType(d.Type),
			State:      4, // filled
			Magic:      d.Magic,
			VolumeInit: d.Volume,
			PriceOpen:  d.Price,
			Comment:    d.Comment,
			PositionID: d.PositionID,
		})
	}
	return out, nil
}

func (t *Terminal) HistoryDealsTotal(ctx context.Context, req *contract.HistoryRangeRequest) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return 0, err
	}
	n := 0
	for _, d := range t.deals {
		if inRange(d.Time, req.From, req.To) {
			n++
		}
	}
	return n, nil
}

func (t *Terminal) HistoryDealsGet(ctx context.Context, req *contract.HistoryDealsGetRequest) ([]contract.Deal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return nil, err
	}
	out := make([]contract.Deal, 0, len(t.deals))
	for _, d := range t.deals {
		if !inRange(d.Time, req.From, req.To) {
			continue
		}
		if req.Ticket != 0 && d.Ticket != req.Ticket {
			continue
		}
		if req.Position != 0 && d.PositionID != req.Position {
			continue
		}
		if req.Group != "" && !matchGroup(req.Group, "", d.Symbol) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}
