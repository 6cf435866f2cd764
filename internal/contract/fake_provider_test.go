package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/Mohsinsiddi/tscsale/internal/provider"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/require"
)

const (
	testBusiness = "0x715d6D1a0879998b3f1b1A490D0c28942aB294ce"
	testUSDT     = "0xfA6d5d51bc2f5868B9f2A5Df217554697218605F"
	testAccount  = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"
)

// fakeChain answers contract reads by selector and records writes.
type fakeChain struct {
	provider.Emitter

	mu            sync.Mutex
	accounts      []string
	reads         map[string][]byte
	callErr       error
	code          string
	sent          []provider.TxParams
	sendErr       error
	receiptStatus string
	pendingPolls  int
	receiptPolls  int
	logs          []provider.Log
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		accounts:      []string{testAccount},
		reads:         map[string][]byte{},
		code:          "0x",
		receiptStatus: "0x1",
	}
}

func (f *fakeChain) Request(_ context.Context, method string, params ...any) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch method {
	case provider.MethodAccounts:
		return json.Marshal(f.accounts)
	case provider.MethodCall:
		if f.callErr != nil {
			return nil, f.callErr
		}
		tx := params[0].(provider.TxParams)
		data, ok := f.reads[tx.Data[:10]]
		if !ok {
			return nil, provider.NewError(3, "execution reverted")
		}
		return json.Marshal(hexutil.Encode(data))
	case provider.MethodGetCode:
		return json.Marshal(f.code)
	case provider.MethodSendTransaction:
		if f.sendErr != nil {
			return nil, f.sendErr
		}
		f.sent = append(f.sent, params[0].(provider.TxParams))
		return json.Marshal(fmt.Sprintf("0x%064x", len(f.sent)))
	case provider.MethodGetReceipt:
		f.receiptPolls++
		if f.pendingPolls > 0 {
			f.pendingPolls--
			return json.RawMessage("null"), nil
		}
		return json.Marshal(provider.Receipt{
			TransactionHash: params[0].(string),
			Status:          f.receiptStatus,
			BlockNumber:     "0x10",
			Logs:            f.logs,
		})
	}
	return nil, provider.NewError(provider.CodeUnsupportedMethod, "unsupported %s", method)
}

func (f *fakeChain) setRead(t *testing.T, h Handle, method string, vals ...any) {
	t.Helper()
	m, ok := h.ABI.Methods[method]
	require.True(t, ok, method)
	data, err := m.Outputs.Pack(vals...)
	require.NoError(t, err)
	f.mu.Lock()
	f.reads[hexutil.Encode(m.ID)] = data
	f.mu.Unlock()
}

func (f *fakeChain) sentTxs() []provider.TxParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]provider.TxParams(nil), f.sent...)
}
