// Package purchase sequences the approve-then-buy token purchase.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/Mohsinsiddi/tscsale/internal/chain"
	"github.com/Mohsinsiddi/tscsale/internal/provider"
	"github.com/Mohsinsiddi/tscsale/internal/wallet"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State is a purchase flow state.
type State string

const (
	Idle      State = "idle"
	Approving State = "approving"
	Approved  State = "approved"
	Buying    State = "buying"
	Completed State = "completed"
	Failed    State = "failed"
)

// Reason says why a flow ended in Failed.
type Reason string

const (
	ApprovalFailed     Reason = "approval-failed"
	PurchaseFailed     Reason = "purchase-failed"
	WalletDisconnected Reason = "wallet-disconnected"
	AccountChanged     Reason = "account-changed"
	NetworkChanged     Reason = "network-changed"
)

var (
	// ErrPurchaseInProgress is returned when a flow is already running.
	ErrPurchaseInProgress = errors.New("a purchase is already in progress")
	// ErrWalletChanged is returned when the connection changed mid-flow.
	ErrWalletChanged = errors.New("wallet changed during purchase")
)

// Wallet is the connection the orchestrator validates against.
type Wallet interface {
	State() wallet.ConnectionState
	Validate(requiredChainID int64) error
	Subscribe(fn func(wallet.StateChange)) (cancel func())
}

// PaymentToken is the ERC-20 the purchase is paid with.
type PaymentToken interface {
	Allowance(ctx context.Context, owner, spender string) (*big.Int, error)
	Approve(ctx context.Context, spender string, amount *big.Int) (*provider.Receipt, error)
}

// Seller submits the purchase on the business contract.
type Seller interface {
	SubmitPurchase(ctx context.Context, amount *big.Int) (*provider.Receipt, error)
}

// Config fixes the parameters every flow runs with.
type Config struct {
	ChainID        int64  // required network
	Spender        string // business contract address
	Decimals       int    // payment token decimals
	ReuseAllowance bool   // skip approve when the standing allowance covers the amount
}

// Request is one user purchase: the decimal amount typed in and the same
// amount in payment-token base units.
type Request struct {
	FiatAmount     string
	TokenAmountWei *big.Int
}

// NewRequest converts amount exactly into base units.
func NewRequest(amount string, decimals int) (Request, error) {
	wei, err := chain.ToBaseUnits(amount, decimals)
	if err != nil {
		return Request{}, err
	}
	if wei.Sign() == 0 {
		return Request{}, fmt.Errorf("%w: amount must be greater than zero", chain.ErrInvalidAmount)
	}
	return Request{FiatAmount: amount, TokenAmountWei: wei}, nil
}

// Transition is reported to observers on every state change.
type Transition struct {
	FlowID string
	From   State
	To     State
	Reason Reason
}

// Outcome summarizes a finished flow.
type Outcome struct {
	FlowID     string
	State      State
	Reason     Reason
	Request    Request
	ApprovalTx string
	PurchaseTx string
	Receipt    *provider.Receipt
}

// Orchestrator runs at most one purchase flow at a time.
type Orchestrator struct {
	cfg    Config
	wallet Wallet
	token  PaymentToken
	seller Seller
	log    zerolog.Logger

	mu        sync.Mutex
	state     State
	busy      bool
	observers []func(Transition)
}

// New creates an orchestrator.
func New(cfg Config, w Wallet, token PaymentToken, seller Seller, log zerolog.Logger) *Orchestrator {
	if cfg.Decimals == 0 {
		cfg.Decimals = chain.EtherDecimals
	}
	return &Orchestrator{
		cfg:    cfg,
		wallet: w,
		token:  token,
		seller: seller,
		log:    log.With().Str("component", "purchase").Logger(),
		state:  Idle,
	}
}

// State returns the state of the current or last flow.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// InFlight reports whether a flow is running.
func (o *Orchestrator) InFlight() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.busy
}

// OnTransition registers fn for every state change. Observers run on the
// flow's goroutine and must not call Submit.
func (o *Orchestrator) OnTransition(fn func(Transition)) {
	o.mu.Lock()
	o.observers = append(o.observers, fn)
	o.mu.Unlock()
}

// Quote returns how many sale tokens amount buys at price.
func Quote(amount, price string) (string, error) {
	return chain.Quote(amount, price, chain.EtherDecimals)
}

// flow is the per-submission bookkeeping.
type flow struct {
	id     string
	log    zerolog.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.Mutex
	reason Reason
}

func (f *flow) invalidate(r Reason) {
	f.mu.Lock()
	if f.reason == "" {
		f.reason = r
	}
	f.mu.Unlock()
	f.cancel()
}

func (f *flow) invalidated() Reason {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reason
}

// Submit runs one flow for amount: approve the business contract for the
// amount, then buy. The connection is re-validated before every step and
// any wallet change during the flow fails it.
func (o *Orchestrator) Submit(ctx context.Context, amount string) (Outcome, error) {
	o.mu.Lock()
	if o.busy {
		o.mu.Unlock()
		return Outcome{}, ErrPurchaseInProgress
	}
	o.busy = true
	o.state = Idle
	o.mu.Unlock()
	defer func() {
		o.mu.Lock()
		o.busy = false
		o.mu.Unlock()
	}()

	req, err := NewRequest(amount, o.cfg.Decimals)
	if err != nil {
		return Outcome{}, err
	}

	f := &flow{id: uuid.NewString()}
	f.ctx, f.cancel = context.WithCancel(ctx)
	defer f.cancel()
	f.log = o.log.With().Str("flow_id", f.id).Str("amount", req.FiatAmount).Logger()

	stop := o.wallet.Subscribe(func(ch wallet.StateChange) {
		switch ch.Kind {
		case wallet.Disconnected, wallet.AccountsCleared:
			f.invalidate(WalletDisconnected)
		case wallet.AccountChanged:
			f.invalidate(AccountChanged)
		case wallet.ChainChanged:
			if ch.State.ChainID != o.cfg.ChainID {
				f.invalidate(NetworkChanged)
			}
		}
	})
	defer stop()

	// Subscribed first so a change racing this check still fails the flow.
	if err := o.wallet.Validate(o.cfg.ChainID); err != nil {
		return Outcome{}, err
	}
	owner := o.wallet.State().Address

	out := Outcome{FlowID: f.id, Request: req}
	o.transition(f, Approving, "")
	if r := f.invalidated(); r != "" {
		return o.fail(f, out, r, nil)
	}

	// Approving → Approved
	approved := false
	if o.cfg.ReuseAllowance {
		allowance, err := o.token.Allowance(f.ctx, owner, o.cfg.Spender)
		if err == nil && allowance.Cmp(req.TokenAmountWei) >= 0 {
			f.log.Info().Str("allowance", allowance.String()).Msg("standing allowance covers amount, skipping approve")
			approved = true
		}
	}
	if !approved {
		receipt, err := o.token.Approve(f.ctx, o.cfg.Spender, req.TokenAmountWei)
		if receipt != nil {
			out.ApprovalTx = receipt.TransactionHash
		}
		if err != nil {
			return o.fail(f, out, ApprovalFailed, err)
		}
	}
	if r := o.check(f, owner); r != "" {
		return o.fail(f, out, r, nil)
	}
	o.transition(f, Approved, "")

	// Approved → Buying → Completed
	if r := o.check(f, owner); r != "" {
		return o.fail(f, out, r, nil)
	}
	o.transition(f, Buying, "")
	receipt, err := o.seller.SubmitPurchase(f.ctx, req.TokenAmountWei)
	if receipt != nil {
		out.PurchaseTx = receipt.TransactionHash
		out.Receipt = receipt
	}
	if err != nil {
		// the allowance granted above is left in place
		return o.fail(f, out, PurchaseFailed, err)
	}

	o.transition(f, Completed, "")
	out.State = Completed
	f.log.Info().Str("tx", out.PurchaseTx).Msg("purchase completed")
	return out, nil
}

// check re-validates the connection before a step.
func (o *Orchestrator) check(f *flow, owner string) Reason {
	if r := f.invalidated(); r != "" {
		return r
	}
	err := o.wallet.Validate(o.cfg.ChainID)
	switch {
	case errors.Is(err, wallet.ErrNotConnected):
		return WalletDisconnected
	case errors.Is(err, wallet.ErrWrongNetwork):
		return NetworkChanged
	case err != nil:
		return WalletDisconnected
	}
	if o.wallet.State().Address != owner {
		return AccountChanged
	}
	return ""
}

func (o *Orchestrator) fail(f *flow, out Outcome, reason Reason, cause error) (Outcome, error) {
	// A wallet change that cancelled the step outranks the step's own error.
	if r := f.invalidated(); r != "" {
		reason = r
	}
	o.transition(f, Failed, reason)
	out.State = Failed
	out.Reason = reason

	ev := f.log.Warn().Str("reason", string(reason))
	if cause != nil {
		ev = ev.Err(cause)
	}
	ev.Msg("purchase failed")

	if cause == nil {
		cause = ErrWalletChanged
	}
	return out, fmt.Errorf("purchase %s: %w", reason, cause)
}

func (o *Orchestrator) transition(f *flow, to State, reason Reason) {
	o.mu.Lock()
	from := o.state
	o.state = to
	observers := append([]func(Transition){}, o.observers...)
	o.mu.Unlock()

	f.log.Debug().Str("from", string(from)).Str("to", string(to)).Msg("transition")
	t := Transition{FlowID: f.id, From: from, To: to, Reason: reason}
	for _, fn := range observers {
		fn(t)
	}
}
