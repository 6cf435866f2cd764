package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/Mohsinsiddi/tscsale/internal/chain"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
)

// DefaultGasLimit is used when the node cannot estimate a contract call.
const DefaultGasLimit = uint64(200_000)

// Account is a signing identity the local wallet can act as.
type Account interface {
	Address() string
	SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error)
}

// Prompt describes something the wallet user has to approve.
type Prompt struct {
	Method  string
	Summary string
}

// Approver asks the user to accept a prompt. Returning false is a rejection.
type Approver func(ctx context.Context, p Prompt) bool

// AutoApprove accepts every prompt.
func AutoApprove(context.Context, Prompt) bool { return true }

// Local is a wallet that answers provider requests from keystore-backed
// accounts and a JSON-RPC node per known network.
type Local struct {
	Emitter

	mu         sync.Mutex
	networks   map[int64]chain.Network
	endpoints  map[int64]string
	clients    map[int64]*chain.EVMClient
	chainID    int64
	accounts   []Account
	selected   int
	authorized bool
	approve    Approver
}

// LocalOption configures a Local provider.
type LocalOption func(*Local)

// WithApprover sets the prompt handler (default AutoApprove).
func WithApprover(a Approver) LocalOption {
	return func(l *Local) { l.approve = a }
}

// WithKnownNetworks registers networks the wallet can switch to without an
// add-chain request.
func WithKnownNetworks(nets ...chain.Network) LocalOption {
	return func(l *Local) {
		for _, n := range nets {
			l.networks[n.ChainID] = n
		}
	}
}

// WithEndpoint pins the node URL used for a chain id.
func WithEndpoint(chainID int64, url string) LocalOption {
	return func(l *Local) { l.endpoints[chainID] = url }
}

// NewLocal creates a wallet whose active chain is initial.
func NewLocal(initial chain.Network, accounts []Account, opts ...LocalOption) *Local {
	l := &Local{
		networks:  map[int64]chain.Network{initial.ChainID: initial},
		endpoints: make(map[int64]string),
		clients:   make(map[int64]*chain.EVMClient),
		chainID:   initial.ChainID,
		accounts:  accounts,
		approve:   AutoApprove,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Request implements Provider.
func (l *Local) Request(ctx context.Context, method string, params ...any) (json.RawMessage, error) {
	switch method {
	case MethodRequestAccounts:
		return l.requestAccounts(ctx)
	case MethodAccounts:
		return marshal(l.exposedAccounts())
	case MethodChainID:
		l.mu.Lock()
		id := l.chainID
		l.mu.Unlock()
		return marshal(hexutil.EncodeBig(big.NewInt(id)))
	case MethodSwitchChain:
		return l.switchChain(ctx, params)
	case MethodAddChain:
		return l.addChain(ctx, params)
	case MethodSendTransaction:
		return l.sendTransaction(ctx, params)
	case MethodGetBalance, MethodCall, MethodGetCode, MethodGetReceipt, MethodBlockNumber:
		return l.forward(ctx, method, params)
	default:
		return nil, NewError(CodeUnsupportedMethod, "method %s is not supported", method)
	}
}

// SelectAccount makes accounts[i] the active account and notifies
// subscribers when this client is authorized.
func (l *Local) SelectAccount(i int) error {
	l.mu.Lock()
	if i < 0 || i >= len(l.accounts) {
		l.mu.Unlock()
		return fmt.Errorf("account index %d out of range", i)
	}
	changed := l.selected != i
	l.selected = i
	authorized := l.authorized
	addr := l.accounts[i].Address()
	l.mu.Unlock()

	if changed && authorized {
		l.Emit(Event{Kind: AccountsChanged, Accounts: []string{addr}})
	}
	return nil
}

// Revoke withdraws this client's access, as when the user locks the wallet.
func (l *Local) Revoke() {
	l.mu.Lock()
	was := l.authorized
	l.authorized = false
	l.mu.Unlock()
	if was {
		l.Emit(Event{Kind: AccountsChanged, Accounts: []string{}})
	}
}

// Addresses lists every account the wallet holds.
func (l *Local) Addresses() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.accounts))
	for i, a := range l.accounts {
		out[i] = a.Address()
	}
	return out
}

// Selected returns the active account index.
func (l *Local) Selected() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.selected
}

// --- request handlers ---

func (l *Local) requestAccounts(ctx context.Context) (json.RawMessage, error) {
	l.mu.Lock()
	if len(l.accounts) == 0 {
		l.mu.Unlock()
		return marshal([]string{})
	}
	authorized := l.authorized
	addr := l.accounts[l.selected].Address()
	l.mu.Unlock()

	if !authorized {
		if !l.approve(ctx, Prompt{Method: MethodRequestAccounts, Summary: "Connect account " + addr}) {
			return nil, NewError(CodeUserRejected, "User rejected the request.")
		}
		l.mu.Lock()
		l.authorized = true
		l.mu.Unlock()
	}
	return marshal([]string{addr})
}

func (l *Local) exposedAccounts() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.authorized || len(l.accounts) == 0 {
		return []string{}
	}
	return []string{l.accounts[l.selected].Address()}
}

func (l *Local) switchChain(ctx context.Context, params []any) (json.RawMessage, error) {
	var p SwitchChainParams
	if err := decodeParam(params, &p); err != nil {
		return nil, err
	}
	id, err := chain.ParseChainID(p.ChainID)
	if err != nil {
		return nil, NewError(CodeInvalidParams, "%v", err)
	}

	l.mu.Lock()
	n, known := l.networks[id]
	current := l.chainID
	l.mu.Unlock()

	if !known {
		return nil, NewError(CodeUnrecognizedChain, "Unrecognized chain ID %q. Try adding the chain using wallet_addEthereumChain first.", p.ChainID)
	}
	if id == current {
		return json.RawMessage("null"), nil
	}
	if !l.approve(ctx, Prompt{Method: MethodSwitchChain, Summary: "Switch network to " + n.DisplayName}) {
		return nil, NewError(CodeUserRejected, "User rejected the request.")
	}

	l.mu.Lock()
	l.chainID = id
	l.mu.Unlock()
	l.Emit(Event{Kind: ChainChanged, ChainID: id})
	return json.RawMessage("null"), nil
}

func (l *Local) addChain(ctx context.Context, params []any) (json.RawMessage, error) {
	var p chain.AddChainParams
	if err := decodeParam(params, &p); err != nil {
		return nil, err
	}
	n, err := chain.NetworkFromAddParams(p)
	if err != nil {
		return nil, NewError(CodeInvalidParams, "%v", err)
	}
	if !l.approve(ctx, Prompt{Method: MethodAddChain, Summary: fmt.Sprintf("Add network %s (chain id %d)", n.DisplayName, n.ChainID)}) {
		return nil, NewError(CodeUserRejected, "User rejected the request.")
	}
	l.mu.Lock()
	l.networks[n.ChainID] = n
	l.mu.Unlock()
	return json.RawMessage("null"), nil
}

func (l *Local) sendTransaction(ctx context.Context, params []any) (json.RawMessage, error) {
	var p TxParams
	if err := decodeParam(params, &p); err != nil {
		return nil, err
	}

	l.mu.Lock()
	if !l.authorized || len(l.accounts) == 0 {
		l.mu.Unlock()
		return nil, NewError(CodeUnauthorized, "The requested account has not been authorized by the user.")
	}
	acct := l.accounts[l.selected]
	chainID := l.chainID
	l.mu.Unlock()

	if !strings.EqualFold(p.From, acct.Address()) {
		return nil, NewError(CodeUnauthorized, "account %s is not the selected account", p.From)
	}

	client, err := l.client(chainID)
	if err != nil {
		return nil, err
	}

	value := new(big.Int)
	if p.Value != "" {
		if value, err = hexutil.DecodeBig(p.Value); err != nil {
			return nil, NewError(CodeInvalidParams, "invalid value %q", p.Value)
		}
	}
	data, err := hexutil.Decode(orEmptyHex(p.Data))
	if err != nil {
		return nil, NewError(CodeInvalidParams, "invalid data: %v", err)
	}

	gas, err := client.EstimateGas(ctx, acct.Address(), p.To, p.Data, value)
	if err != nil {
		gas = DefaultGasLimit
	}
	gasPrice, err := client.GasPrice(ctx)
	if err != nil {
		return nil, nodeError(err)
	}
	nonce, err := client.GetPendingNonce(ctx, acct.Address())
	if err != nil {
		return nil, nodeError(err)
	}

	summary := fmt.Sprintf("Send transaction to %s (gas %d)", p.To, gas)
	if !l.approve(ctx, Prompt{Method: MethodSendTransaction, Summary: summary}) {
		return nil, NewError(CodeUserRejected, "MetaMask Tx Signature: User denied transaction signature.")
	}

	to := common.HexToAddress(p.To)
	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   big.NewInt(chainID),
		Nonce:     nonce,
		GasTipCap: gasPrice,
		GasFeeCap: new(big.Int).Mul(gasPrice, big.NewInt(2)),
		Gas:       gas,
		To:        &to,
		Value:     value,
		Data:      data,
	})

	raw, err := acct.SignTx(tx, big.NewInt(chainID))
	if err != nil {
		return nil, NewError(CodeInternal, "signing transaction: %v", err)
	}
	hash, err := client.SendRawTransaction(ctx, raw)
	if err != nil {
		return nil, nodeError(err)
	}
	return marshal(hash)
}

func (l *Local) forward(ctx context.Context, method string, params []any) (json.RawMessage, error) {
	l.mu.Lock()
	id := l.chainID
	l.mu.Unlock()

	client, err := l.client(id)
	if err != nil {
		return nil, err
	}
	res, err := client.Call(ctx, method, params...)
	if err != nil {
		return nil, nodeError(err)
	}
	return res, nil
}

func (l *Local) client(id int64) (*chain.EVMClient, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok := l.clients[id]; ok {
		return c, nil
	}
	url := l.endpoints[id]
	if url == "" {
		n, ok := l.networks[id]
		if !ok || len(n.RPCs) == 0 {
			return nil, NewError(CodeChainDisconnected, "no RPC endpoint for chain %d", id)
		}
		url = n.RPCs[0]
	}
	c := chain.NewEVMClient(url)
	l.clients[id] = c
	return c, nil
}

// --- helpers ---

// nodeError keeps the node's code when it sent one; transport failures map
// to "chain disconnected".
func nodeError(err error) error {
	var rpcErr *chain.RPCError
	if errors.As(err, &rpcErr) {
		return &Error{Code: rpcErr.Code, Message: rpcErr.Message}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return NewError(CodeChainDisconnected, "%v", err)
}

func decodeParam(params []any, dst any) error {
	if len(params) == 0 {
		return NewError(CodeInvalidParams, "missing parameter")
	}
	raw, err := json.Marshal(params[0])
	if err != nil {
		return NewError(CodeInvalidParams, "%v", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return NewError(CodeInvalidParams, "%v", err)
	}
	return nil
}

func marshal(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func orEmptyHex(s string) string {
	if s == "" {
		return "0x"
	}
	return s
}
