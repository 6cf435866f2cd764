package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Mohsinsiddi/tscsale/internal/chain"
	"github.com/Mohsinsiddi/tscsale/internal/provider"
	"github.com/rs/zerolog"
)

// Connector errors.
var (
	ErrNoProvider            = errors.New("no wallet provider available")
	ErrUserRejected          = errors.New("user rejected the request")
	ErrNoAccounts            = errors.New("wallet returned no accounts")
	ErrWrongNetwork          = errors.New("wallet is on the wrong network")
	ErrNetworkSwitchRejected = errors.New("network switch rejected")
	ErrNetworkUnavailable    = errors.New("network unavailable")
	ErrNotConnected          = errors.New("wallet not connected")
)

// BalanceFetcher reads display balances. Failures are expected to come back
// as "0" rather than errors.
type BalanceFetcher interface {
	NativeBalance(ctx context.Context, address string) string
	TokenBalance(ctx context.Context, address, token string, decimals int) string
}

// Connector owns the ConnectionState and is its only writer.
type Connector struct {
	p        provider.Provider
	balances BalanceFetcher
	tokens   []TokenSpec
	log      zerolog.Logger

	mu    sync.Mutex
	state ConnectionState
	epoch uint64

	subMu  sync.Mutex
	nextID int
	subs   map[int]func(StateChange)

	runCtx context.Context
	stop   func()
}

// NewConnector creates a connector over p. p may be nil, in which case every
// operation fails with ErrNoProvider.
func NewConnector(p provider.Provider, balances BalanceFetcher, tokens []TokenSpec, log zerolog.Logger) *Connector {
	return &Connector{
		p:        p,
		balances: balances,
		tokens:   tokens,
		log:      log.With().Str("component", "connector").Logger(),
		state:    emptyState(),
		subs:     make(map[int]func(StateChange)),
		runCtx:   context.Background(),
	}
}

// Start subscribes to provider notifications. ctx bounds the balance fetches
// triggered by events. Calling Start twice is a no-op.
func (c *Connector) Start(ctx context.Context) error {
	if c.p == nil {
		return ErrNoProvider
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop != nil {
		return nil
	}
	c.runCtx = ctx
	c.stop = c.p.Subscribe(c.handleEvent)
	return nil
}

// Close tears down the provider subscription.
func (c *Connector) Close() {
	c.mu.Lock()
	stop := c.stop
	c.stop = nil
	c.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// Connect asks the wallet for account access and loads the state for the
// first returned account.
func (c *Connector) Connect(ctx context.Context) (string, error) {
	if c.p == nil {
		return "", ErrNoProvider
	}
	res, err := c.p.Request(ctx, provider.MethodRequestAccounts)
	if err != nil {
		if provider.IsUserRejection(err) {
			return "", fmt.Errorf("%w: %v", ErrUserRejected, err)
		}
		return "", fmt.Errorf("requesting accounts: %w", err)
	}
	return c.adopt(ctx, res)
}

// Restore picks up an existing authorization without prompting. It returns
// "" and no error when the wallet has not authorized this client.
func (c *Connector) Restore(ctx context.Context) (string, error) {
	if c.p == nil {
		return "", ErrNoProvider
	}
	res, err := c.p.Request(ctx, provider.MethodAccounts)
	if err != nil {
		return "", fmt.Errorf("reading accounts: %w", err)
	}
	addr, err := c.adopt(ctx, res)
	if errors.Is(err, ErrNoAccounts) {
		return "", nil
	}
	return addr, err
}

func (c *Connector) adopt(ctx context.Context, res json.RawMessage) (string, error) {
	var accounts []string
	if err := json.Unmarshal(res, &accounts); err != nil {
		return "", fmt.Errorf("decoding accounts: %w", err)
	}
	if len(accounts) == 0 {
		return "", ErrNoAccounts
	}
	addr := accounts[0]

	chainID, err := c.chainID(ctx)
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.state = emptyState()
	c.state.Address = addr
	c.state.ChainID = chainID
	c.epoch++
	c.mu.Unlock()

	c.log.Info().Str("address", addr).Int64("chain_id", chainID).Msg("wallet connected")
	c.notify(Connected)
	c.refresh(ctx)
	return addr, nil
}

// EnsureNetwork makes sure the wallet is on want. On a mismatch it issues one
// switch request; if the wallet does not know the chain it registers it and
// retries the switch once.
func (c *Connector) EnsureNetwork(ctx context.Context, want chain.Network) error {
	if c.p == nil {
		return ErrNoProvider
	}
	current, err := c.chainID(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
	}
	if current == want.ChainID {
		c.setChain(ctx, current)
		return nil
	}

	c.log.Info().Int64("from", current).Int64("to", want.ChainID).Msg("switching network")
	err = c.switchTo(ctx, want)
	if provider.Code(err) == provider.CodeUnrecognizedChain {
		if _, addErr := c.p.Request(ctx, provider.MethodAddChain, want.AddChainParams()); addErr != nil {
			return classifySwitch(addErr)
		}
		err = c.switchTo(ctx, want)
	}
	if err != nil {
		return classifySwitch(err)
	}
	c.setChain(ctx, want.ChainID)
	return nil
}

func (c *Connector) switchTo(ctx context.Context, n chain.Network) error {
	_, err := c.p.Request(ctx, provider.MethodSwitchChain, provider.SwitchChainParams{ChainID: n.HexChainID()})
	return err
}

func classifySwitch(err error) error {
	if provider.IsUserRejection(err) {
		return fmt.Errorf("%w: %v", ErrNetworkSwitchRejected, err)
	}
	return fmt.Errorf("%w: %v", ErrNetworkUnavailable, err)
}

// Disconnect clears the local state. Wallet-side permissions are untouched.
func (c *Connector) Disconnect() {
	c.mu.Lock()
	c.state = emptyState()
	c.epoch++
	c.mu.Unlock()
	c.log.Info().Msg("wallet disconnected")
	c.notify(Disconnected)
}

// State returns a copy of the current connection state.
func (c *Connector) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Validate checks that an account is connected on requiredChainID.
func (c *Connector) Validate(requiredChainID int64) error {
	s := c.State()
	if !s.Connected() {
		return ErrNotConnected
	}
	if s.ChainID != requiredChainID {
		return fmt.Errorf("%w: on chain %d, need %d", ErrWrongNetwork, s.ChainID, requiredChainID)
	}
	return nil
}

// Subscribe registers fn for every state change until cancel is called.
func (c *Connector) Subscribe(fn func(StateChange)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
		})
	}
}

// RefreshBalances refetches balances for the current account.
func (c *Connector) RefreshBalances(ctx context.Context) {
	c.refresh(ctx)
}

// --- event handling ---

func (c *Connector) handleEvent(ev provider.Event) {
	c.mu.Lock()
	ctx := c.runCtx
	c.mu.Unlock()

	switch ev.Kind {
	case provider.AccountsChanged:
		if len(ev.Accounts) == 0 {
			c.mu.Lock()
			c.state = emptyState()
			c.epoch++
			c.mu.Unlock()
			c.log.Info().Msg("wallet accounts cleared")
			c.notify(AccountsCleared)
			return
		}
		addr := ev.Accounts[0]
		c.mu.Lock()
		if strings.EqualFold(c.state.Address, addr) {
			c.mu.Unlock()
			return
		}
		chainID := c.state.ChainID
		c.state = emptyState()
		c.state.Address = addr
		c.state.ChainID = chainID
		c.epoch++
		c.mu.Unlock()
		c.log.Info().Str("address", addr).Msg("wallet account changed")
		c.notify(AccountChanged)
		c.refresh(ctx)

	case provider.ChainChanged:
		c.mu.Lock()
		if c.state.ChainID == ev.ChainID {
			c.mu.Unlock()
			return
		}
		c.mu.Unlock()
		c.log.Info().Int64("chain_id", ev.ChainID).Msg("wallet chain changed")
		c.setChain(ctx, ev.ChainID)
	}
}

// setChain resets balances on a chain change and reloads them.
func (c *Connector) setChain(ctx context.Context, id int64) {
	c.mu.Lock()
	if c.state.ChainID == id {
		c.mu.Unlock()
		return
	}
	addr := c.state.Address
	c.state = emptyState()
	c.state.Address = addr
	c.state.ChainID = id
	c.epoch++
	c.mu.Unlock()
	c.notify(ChainChanged)
	c.refresh(ctx)
}

// refresh fetches balances for the current account and applies them only if
// nothing changed while the fetch was running.
func (c *Connector) refresh(ctx context.Context) {
	if c.balances == nil {
		return
	}
	c.mu.Lock()
	addr := c.state.Address
	epoch := c.epoch
	c.mu.Unlock()
	if addr == "" {
		return
	}

	native := c.balances.NativeBalance(ctx, addr)
	tokens := make(map[string]string, len(c.tokens))
	for _, t := range c.tokens {
		tokens[t.Symbol] = c.balances.TokenBalance(ctx, addr, t.Address, t.Decimals)
	}

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		c.log.Debug().Str("address", addr).Msg("dropping stale balances")
		return
	}
	c.state.NativeBalance = native
	c.state.TokenBalances = tokens
	c.mu.Unlock()
	c.notify(BalancesUpdated)
}

func (c *Connector) chainID(ctx context.Context) (int64, error) {
	res, err := c.p.Request(ctx, provider.MethodChainID)
	if err != nil {
		return 0, fmt.Errorf("reading chain id: %w", err)
	}
	var hex string
	if err := json.Unmarshal(res, &hex); err != nil {
		return 0, fmt.Errorf("decoding chain id: %w", err)
	}
	return chain.ParseChainID(hex)
}

func (c *Connector) notify(kind ChangeKind) {
	change := StateChange{Kind: kind, State: c.State()}
	c.subMu.Lock()
	fns := make([]func(StateChange), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()
	for _, fn := range fns {
		fn(change)
	}
}
