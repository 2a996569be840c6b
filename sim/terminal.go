// Package sim provides an in-memory Terminal implementation. It stands in
// for the real trading terminal during development and tests: lifecycle,
// market data, and trade execution behave deterministically, so the bridge
// can run end to end on any machine.
package sim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mt5bridge/contract"
	"mt5bridge/server"
)

// Terminal error codes reported through last_error, mirroring the codes a
// real terminal emits for the same conditions.
const (
	errCodeOK           int32 = 1
	errCodeNotConnected int32 = -10004
	errCodeNotFound     int32 = -4
	errCodeAuthFailed   int32 = -6
)

const simBuild = 4620

// Terminal is a simulated trading terminal. All methods are safe for
// concurrent use; a single mutex serializes state changes the way a real
// terminal serializes IPC requests.
type Terminal struct {
	mu        sync.Mutex
	connected bool
	loggedIn  bool
	account   contract.AccountInfo
	symbols   []contract.SymbolInfo
	symIndex  map[string]int
	positions []contract.Position
	orders    []contract.Order
	deals     []contract.Deal
	bookSubs  map[string]bool
	lastErr   contract.LastError
	ticket    int64
	now       func() time.Time
}

var _ server.Terminal = (*Terminal)(nil)

// Option configures the simulated terminal.
type Option func(*Terminal)

// WithAccount replaces the default demo account.
func WithAccount(a contract.AccountInfo) Option {
	return func(t *Terminal) { t.account = a }
}

// WithSymbols replaces the default instrument set.
func WithSymbols(symbols []contract.SymbolInfo) Option {
	return func(t *Terminal) { t.symbols = symbols }
}

// WithClock overrides the time source. Tests pin it for reproducible bars.
func WithClock(now func() time.Time) Option {
	return func(t *Terminal) { t.now = now }
}

// New builds a simulated terminal with a demo account and a small set of
// liquid instruments.
func New(opts ...Option) *Terminal {
	t := &Terminal{
		account: contract.AccountInfo{
			Login:        12345,
			TradeMode:    0,
			Leverage:     100,
			Balance:      1000.0,
			Equity:       1000.0,
			MarginFree:   1000.0,
			Currency:     "USD",
			Server:       "SimServer",
			Company:      "Simulated Broker",
			TradeAllowed: true,
			TradeExpert:  true,
		},
		symbols:  defaultSymbols(),
		bookSubs: make(map[string]bool),
		lastErr:  contract.LastError{Code: errCodeOK, Message: "success"},
		ticket:   100000,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.symIndex = make(map[string]int, len(t.symbols))
	for i, s := range t.symbols {
		t.symIndex[s.Name] = i
	}
	return t
}

func (t *Terminal) fail(code int32, format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	t.lastErr = contract.LastError{Code: code, Message: msg}
	return &contract.RemoteError{Code: code, Message: msg}
}

// requireConnected must be called with the mutex held.
func (t *Terminal) requireConnected() error {
	if !t.connected {
		return t.fail(errCodeNotConnected, "terminal not connected")
	}
	return nil
}

func (t *Terminal) HealthCheck(ctx context.Context) (*contract.Health, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return &contract.Health{Healthy: true, TerminalAvailable: t.connected}, nil
}

func (t *Terminal) Initialize(ctx context.Context, req *contract.InitializeRequest) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = true
	if req.Login != 0 {
		if req.Login != t.account.Login {
			t.connected = false
			return false, t.fail(errCodeAuthFailed, "authorization failed for account %d", req.Login)
		}
		t.loggedIn = true
	}
	t.lastErr = contract.LastError{Code: errCodeOK, Message: "success"}
	return true, nil
}

func (t *Terminal) Login(ctx context.Context, req *contract.LoginRequest) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return false, err
	}
	if req.Login != t.account.Login {
		return false, t.fail(errCodeAuthFailed, "authorization failed for account %d", req.Login)
	}
	t.loggedIn = true
	t.lastErr = contract.LastError{Code: errCodeOK, Message: "success"}
	return true, nil
}

func (t *Terminal) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = false
	t.loggedIn = false
	return nil
}

func (t *Terminal) Version(ctx context.Context) (*contract.VersionInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return nil, err
	}
	return &contract.VersionInfo{Version: 500, Build: simBuild, Date: "26 Aug 2026"}, nil
}

func (t *Terminal) LastError(ctx context.Context) (*contract.LastError, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.lastErr
	return &e, nil
}

func (t *Terminal) TerminalInfo(ctx context.Context) (*contract.TerminalInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return nil, err
	}
	return &contract.TerminalInfo{
		Connected:    true,
		TradeAllowed: t.account.TradeAllowed,
		Build:        simBuild,
		Name:         "Simulated Terminal",
		Company:      t.account.Company,
		Path:         "/opt/sim-terminal",
	}, nil
}

func (t *Terminal) AccountInfo(ctx context.Context) (*contract.AccountInfo, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.requireConnected(); err != nil {
		return nil, err
	}
	a := t.account
	a.Equity = a.Balance + t.openProfit()
	return &a, nil
}

// openProfit must be called with the mutex held.
func (t *Terminal) openProfit() float64 {
	var sum float64
	for _, p := range t.positions {
		sum += p.Profit
	}
	return sum
}
