// Package provider models the injected wallet boundary: a request/response
// channel plus account and chain change notifications (EIP-1193).
package provider

import (
	"context"
	"encoding/json"
	"sync"
)

// Request methods understood by wallets.
const (
	MethodRequestAccounts = "eth_requestAccounts"
	MethodAccounts        = "eth_accounts"
	MethodChainID         = "eth_chainId"
	MethodSwitchChain     = "wallet_switchEthereumChain"
	MethodAddChain        = "wallet_addEthereumChain"
	MethodGetBalance      = "eth_getBalance"
	MethodCall            = "eth_call"
	MethodGetCode         = "eth_getCode"
	MethodSendTransaction = "eth_sendTransaction"
	MethodGetReceipt      = "eth_getTransactionReceipt"
	MethodBlockNumber     = "eth_blockNumber"
)

// EventKind names a provider notification.
type EventKind string

const (
	AccountsChanged EventKind = "accountsChanged"
	ChainChanged    EventKind = "chainChanged"
)

// Event is a provider notification. Accounts is set for AccountsChanged,
// ChainID for ChainChanged.
type Event struct {
	Kind     EventKind
	Accounts []string
	ChainID  int64
}

// Provider is the wallet boundary every component talks through.
type Provider interface {
	// Request sends one JSON-RPC style request. Wallet-side failures are
	// returned as *Error.
	Request(ctx context.Context, method string, params ...any) (json.RawMessage, error)
	// Subscribe registers fn for every notification until cancel is called.
	Subscribe(fn func(Event)) (cancel func())
}

// SwitchChainParams is the wallet_switchEthereumChain parameter (EIP-3326).
type SwitchChainParams struct {
	ChainID string `json:"chainId"`
}

// TxParams is the eth_sendTransaction / eth_call parameter object.
type TxParams struct {
	From  string `json:"from,omitempty"`
	To    string `json:"to"`
	Data  string `json:"data,omitempty"`
	Value string `json:"value,omitempty"`
	Gas   string `json:"gas,omitempty"`
}

// Receipt is the subset of a transaction receipt callers look at.
type Receipt struct {
	TransactionHash string `json:"transactionHash"`
	Status          string `json:"status"`
	BlockNumber     string `json:"blockNumber"`
	GasUsed         string `json:"gasUsed"`
	Logs            []Log  `json:"logs"`
}

// Log is an event log entry of a receipt.
type Log struct {
	Address string   `json:"address"`
	Topics  []string `json:"topics"`
	Data    string   `json:"data"`
}

// Succeeded reports whether the receipt status is 0x1.
func (r *Receipt) Succeeded() bool { return r.Status == "0x1" }

// Emitter fans events out to subscribers. Providers embed it.
type Emitter struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]func(Event)
}

// Subscribe implements Provider.
func (e *Emitter) Subscribe(fn func(Event)) func() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.subs == nil {
		e.subs = make(map[int]func(Event))
	}
	id := e.nextID
	e.nextID++
	e.subs[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.subs, id)
			e.mu.Unlock()
		})
	}
}

// Emit delivers ev to every current subscriber, synchronously and outside
// the lock so handlers may call back into the provider.
func (e *Emitter) Emit(ev Event) {
	e.mu.Lock()
	fns := make([]func(Event), 0, len(e.subs))
	for _, fn := range e.subs {
		fns = append(fns, fn)
	}
	e.mu.Unlock()
	for _, fn := range fns {
		fn(ev)
	}
}

// Subscribers returns the number of live subscriptions.
func (e *Emitter) Subscribers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}
