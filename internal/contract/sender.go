package contract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Mohsinsiddi/tscsale/internal/provider"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DefaultPollInterval is how often WaitForReceipt asks for a receipt.
const DefaultPollInterval = 2 * time.Second

var (
	// ErrTransactionFailed wraps every failed write: rejected, not broadcast,
	// or reverted.
	ErrTransactionFailed = errors.New("transaction failed")
	// ErrNoAccount is returned when the wallet exposes no selected account.
	ErrNoAccount = errors.New("no account selected")
)

// Sender sends write transactions to contracts from the wallet's selected
// account.
type Sender struct {
	p    provider.Provider
	poll time.Duration
}

// NewSender creates a Sender. A zero poll uses DefaultPollInterval.
func NewSender(p provider.Provider, poll time.Duration) *Sender {
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	return &Sender{p: p, poll: poll}
}

// From returns the wallet's currently selected account.
func (s *Sender) From(ctx context.Context) (string, error) {
	res, err := s.p.Request(ctx, provider.MethodAccounts)
	if err != nil {
		return "", err
	}
	var accounts []string
	if err := json.Unmarshal(res, &accounts); err != nil {
		return "", fmt.Errorf("decoding accounts: %w", err)
	}
	if len(accounts) == 0 {
		return "", ErrNoAccount
	}
	return accounts[0], nil
}

// Send calls a write function and returns the transaction hash.
func (s *Sender) Send(ctx context.Context, h Handle, method string, args ...any) (string, error) {
	fn, ok := h.ABI.Methods[method]
	if !ok {
		return "", fmt.Errorf("function %q not found in ABI", method)
	}
	if fn.IsConstant() {
		return "", fmt.Errorf("function %q is not a write function", method)
	}

	calldata, err := h.ABI.Pack(method, args...)
	if err != nil {
		return "", fmt.Errorf("encoding call: %w", err)
	}

	from, err := s.From(ctx)
	if err != nil {
		return "", err
	}

	res, err := s.p.Request(ctx, provider.MethodSendTransaction, provider.TxParams{
		From: from,
		To:   h.Address.Hex(),
		Data: hexutil.Encode(calldata),
	})
	if err != nil {
		return "", err
	}
	var hash string
	if err := json.Unmarshal(res, &hash); err != nil {
		return "", fmt.Errorf("unexpected result: %s", res)
	}
	return hash, nil
}

// WaitForReceipt polls until hash is mined or ctx ends. A reverted
// transaction returns its receipt together with ErrTransactionFailed.
func (s *Sender) WaitForReceipt(ctx context.Context, hash string) (*provider.Receipt, error) {
	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()
	for {
		res, err := s.p.Request(ctx, provider.MethodGetReceipt, hash)
		if err != nil {
			return nil, err
		}
		var receipt *provider.Receipt
		if err := json.Unmarshal(res, &receipt); err != nil {
			return nil, fmt.Errorf("decoding receipt: %w", err)
		}
		if receipt != nil {
			if !receipt.Succeeded() {
				return receipt, fmt.Errorf("%w: reverted (hash: %s)", ErrTransactionFailed, hash)
			}
			return receipt, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("transaction %s not mined: %w", hash, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Transact sends a write and waits for its receipt. Every failure wraps
// ErrTransactionFailed and keeps the provider error in the chain.
func (s *Sender) Transact(ctx context.Context, h Handle, method string, args ...any) (*provider.Receipt, error) {
	hash, err := s.Send(ctx, h, method, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTransactionFailed, method, err)
	}
	receipt, err := s.WaitForReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ErrTransactionFailed) {
			return receipt, err
		}
		return receipt, fmt.Errorf("%w: %s: %w", ErrTransactionFailed, method, err)
	}
	return receipt, nil
}
