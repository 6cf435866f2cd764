package purchase_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Mohsinsiddi/tscsale/internal/balance"
	"github.com/Mohsinsiddi/tscsale/internal/chain"
	"github.com/Mohsinsiddi/tscsale/internal/contract"
	"github.com/Mohsinsiddi/tscsale/internal/provider"
	"github.com/Mohsinsiddi/tscsale/internal/purchase"
	"github.com/Mohsinsiddi/tscsale/internal/wallet"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tusdt = "0xfA6d5d51bc2f5868B9f2A5Df217554697218605F"

// node is a JSON-RPC test double that accepts raw transactions and mines
// them immediately.
type node struct {
	t        *testing.T
	mu       sync.Mutex
	txs      []*types.Transaction
	revertOn []byte // selector whose transactions revert
}

func (n *node) serve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     int64             `json:"id"`
		Method string            `json:"method"`
		Params []json.RawMessage `json:"params"`
	}
	if !assert.NoError(n.t, json.NewDecoder(r.Body).Decode(&req)) {
		return
	}

	var result any
	switch req.Method {
	case "eth_getBalance":
		result = "0xde0b6b3a7640000" // 1 tBNB
	case "eth_call":
		result = hexutil.Encode(common.LeftPadBytes([]byte{0x03, 0xe8}, 32))
	case "eth_estimateGas":
		result = "0xea60"
	case "eth_gasPrice":
		result = "0x3b9aca00"
	case "eth_getTransactionCount":
		n.mu.Lock()
		result = hexutil.EncodeUint64(uint64(len(n.txs)))
		n.mu.Unlock()
	case "eth_sendRawTransaction":
		var raw string
		_ = json.Unmarshal(req.Params[0], &raw)
		tx := new(types.Transaction)
		b, err := hexutil.Decode(raw)
		if err == nil {
			err = tx.UnmarshalBinary(b)
		}
		if !assert.NoError(n.t, err) {
			return
		}
		n.mu.Lock()
		n.txs = append(n.txs, tx)
		n.mu.Unlock()
		result = tx.Hash().Hex()
	case "eth_getTransactionReceipt":
		var hash string
		_ = json.Unmarshal(req.Params[0], &hash)
		status := "0x1"
		if tx := n.find(hash); tx != nil && n.revertOn != nil && bytes.HasPrefix(tx.Data(), n.revertOn) {
			status = "0x0"
		}
		result = map[string]any{"transactionHash": hash, "status": status, "blockNumber": "0x2", "gasUsed": "0xea60", "logs": []any{}}
	default:
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "error": map[string]any{"code": -32601, "message": fmt.Sprintf("method %s not found", req.Method)}})
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
}

func (n *node) find(hash string) *types.Transaction {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, tx := range n.txs {
		if tx.Hash().Hex() == hash {
			return tx
		}
	}
	return nil
}

func (n *node) selectors() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.txs))
	for i, tx := range n.txs {
		out[i] = hexutil.Encode(tx.Data()[:4])
	}
	return out
}

type stack struct {
	node  *node
	local *provider.Local
	conn  *wallet.Connector
	o     *purchase.Orchestrator
}

func newStack(t *testing.T, opts ...provider.LocalOption) *stack {
	t.Helper()
	n := &node{t: t}
	srv := httptest.NewServer(http.HandlerFunc(n.serve))
	t.Cleanup(srv.Close)

	mgr := wallet.NewManager(wallet.WithInMemoryStore())
	require.NoError(t, mgr.AddWithKey("main", "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"))
	require.NoError(t, mgr.AddWithKey("alt", "59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"))
	signers, err := mgr.Signers()
	require.NoError(t, err)
	accounts := make([]provider.Account, len(signers))
	for i, s := range signers {
		accounts[i] = s
	}

	log := zerolog.Nop()
	opts = append(opts, provider.WithEndpoint(chain.BSCTestnet.ChainID, srv.URL))
	local := provider.NewLocal(chain.BSCTestnet, accounts, opts...)
	conn := wallet.NewConnector(local, balance.NewReader(local, log),
		[]wallet.TokenSpec{{Symbol: "TUSDT", Address: tusdt, Decimals: 18}}, log)
	require.NoError(t, conn.Start(context.Background()))
	t.Cleanup(conn.Close)

	token, err := contract.NewToken(local, tusdt, time.Millisecond, log)
	require.NoError(t, err)
	gw, err := contract.NewGateway(local, business, time.Millisecond, log)
	require.NoError(t, err)

	o := purchase.New(purchase.Config{ChainID: 97, Spender: business}, conn, token, gw, log)
	return &stack{node: n, local: local, conn: conn, o: o}
}

func selector(id, method string) string {
	b, _ := contract.GetBuiltin(id)
	return hexutil.Encode(b.ABI.Methods[method].ID)
}

func TestEndToEndPurchase(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	addr, err := s.conn.Connect(ctx)
	require.NoError(t, err)
	require.NoError(t, s.conn.EnsureNetwork(ctx, chain.BSCTestnet))
	assert.Equal(t, owner, addr)
	assert.Equal(t, "1.0000", s.conn.State().NativeBalance)

	out, err := s.o.Submit(ctx, "100")
	require.NoError(t, err)
	assert.Equal(t, purchase.Completed, out.State)

	assert.Equal(t, []string{
		selector(contract.BuiltinERC20, "approve"),
		selector(contract.BuiltinBusiness, contract.MethodBuy),
	}, s.node.selectors())
	assert.Equal(t, common.HexToAddress(tusdt), *s.node.txs[0].To())
	assert.Equal(t, common.HexToAddress(business), *s.node.txs[1].To())
}

func TestEndToEndApprovalRevert(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	b, _ := contract.GetBuiltin(contract.BuiltinERC20)
	s.node.revertOn = b.ABI.Methods["approve"].ID

	_, err := s.conn.Connect(ctx)
	require.NoError(t, err)

	out, err := s.o.Submit(ctx, "100")
	assert.ErrorIs(t, err, contract.ErrTransactionFailed)
	assert.Equal(t, purchase.ApprovalFailed, out.Reason)
	assert.Len(t, s.node.selectors(), 1)
}

func TestEndToEndRejectedSignature(t *testing.T) {
	// connect is accepted, every transaction prompt is declined
	s := newStack(t, provider.WithApprover(func(_ context.Context, p provider.Prompt) bool {
		return p.Method != provider.MethodSendTransaction
	}))
	ctx := context.Background()
	_, err := s.conn.Connect(ctx)
	require.NoError(t, err)

	out, err := s.o.Submit(ctx, "100")
	require.Error(t, err)
	assert.True(t, provider.IsUserRejection(err))
	assert.Equal(t, purchase.ApprovalFailed, out.Reason)
	assert.Empty(t, s.node.selectors())
}

func TestEndToEndAccountSwitchInvalidatesNextStep(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	_, err := s.conn.Connect(ctx)
	require.NoError(t, err)

	s.o.OnTransition(func(tr purchase.Transition) {
		if tr.To == purchase.Approved {
			require.NoError(t, s.local.SelectAccount(1))
		}
	})

	out, err := s.o.Submit(ctx, "100")
	require.Error(t, err)
	assert.Equal(t, purchase.AccountChanged, out.Reason)
	assert.Len(t, s.node.selectors(), 1, "buy must not be sent from the new account")
	assert.Equal(t, "0x70997970C51812dc3A010C7d01b50e0d17dc79C8", s.conn.State().Address)
}

func TestEndToEndDisconnectBeforeSubmit(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	_, err := s.conn.Connect(ctx)
	require.NoError(t, err)

	s.conn.Disconnect()
	_, err = s.o.Submit(ctx, "100")
	assert.ErrorIs(t, err, wallet.ErrNotConnected)
	assert.Empty(t, s.node.selectors())
}
