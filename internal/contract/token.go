package contract

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/Mohsinsiddi/tscsale/internal/provider"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// Token is an ERC-20 contract: the payment token or the sale token.
type Token struct {
	h      Handle
	caller *Caller
	sender *Sender
	log    zerolog.Logger
}

// NewToken binds the ERC-20 contract at address.
func NewToken(p provider.Provider, address string, poll time.Duration, log zerolog.Logger) (*Token, error) {
	h, err := NewHandle(address, BuiltinERC20)
	if err != nil {
		return nil, err
	}
	return &Token{
		h:      h,
		caller: NewCaller(p),
		sender: NewSender(p, poll),
		log:    log.With().Str("component", "token").Str("contract", h.Address.Hex()).Logger(),
	}, nil
}

// Address returns the token contract address.
func (t *Token) Address() common.Address { return t.h.Address }

// BalanceOf returns owner's balance in base units.
func (t *Token) BalanceOf(ctx context.Context, owner string) (*big.Int, error) {
	if !common.IsHexAddress(owner) {
		return nil, fmt.Errorf("%w: invalid address %q", ErrContractCall, owner)
	}
	return t.callBig(ctx, "balanceOf", common.HexToAddress(owner))
}

// Allowance returns how much spender may move from owner.
func (t *Token) Allowance(ctx context.Context, owner, spender string) (*big.Int, error) {
	if !common.IsHexAddress(owner) || !common.IsHexAddress(spender) {
		return nil, fmt.Errorf("%w: invalid address", ErrContractCall)
	}
	return t.callBig(ctx, "allowance", common.HexToAddress(owner), common.HexToAddress(spender))
}

// Decimals returns the token's decimals.
func (t *Token) Decimals(ctx context.Context) (uint8, error) {
	out, err := t.caller.Call(ctx, t.h, "decimals")
	if err != nil {
		return 0, err
	}
	d, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("%w: decimals: unexpected result %v", ErrContractCall, out[0])
	}
	return d, nil
}

// Approve lets spender move amount from the selected account and waits for
// the approval to be mined.
func (t *Token) Approve(ctx context.Context, spender string, amount *big.Int) (*provider.Receipt, error) {
	if !common.IsHexAddress(spender) {
		return nil, fmt.Errorf("%w: invalid spender %q", ErrTransactionFailed, spender)
	}
	t.log.Debug().Str("spender", spender).Str("amount", amount.String()).Msg("approving")
	return t.sender.Transact(ctx, t.h, "approve", common.HexToAddress(spender), amount)
}

func (t *Token) callBig(ctx context.Context, method string, args ...any) (*big.Int, error) {
	out, err := t.caller.Call(ctx, t.h, method, args...)
	if err != nil {
		return nil, err
	}
	n, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("%w: %s: unexpected result %v", ErrContractCall, method, out[0])
	}
	return n, nil
}
