package contract

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestToken(t *testing.T, f *fakeChain) *Token {
	t.Helper()
	tok, err := NewToken(f, testUSDT, time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	return tok
}

func TestTokenBalanceOf(t *testing.T) {
	f := newFakeChain()
	tok := newTestToken(t, f)
	f.setRead(t, tok.h, "balanceOf", big.NewInt(42))

	bal, err := tok.BalanceOf(context.Background(), testAccount)
	require.NoError(t, err)
	assert.Equal(t, int64(42), bal.Int64())

	_, err = tok.BalanceOf(context.Background(), "x")
	assert.ErrorIs(t, err, ErrContractCall)
}

func TestTokenAllowanceAndDecimals(t *testing.T) {
	f := newFakeChain()
	tok := newTestToken(t, f)
	f.setRead(t, tok.h, "allowance", big.NewInt(9))
	f.setRead(t, tok.h, "decimals", uint8(18))

	a, err := tok.Allowance(context.Background(), testAccount, testBusiness)
	require.NoError(t, err)
	assert.Equal(t, int64(9), a.Int64())

	d, err := tok.Decimals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint8(18), d)
}

func TestTokenReadReverted(t *testing.T) {
	tok := newTestToken(t, newFakeChain())
	_, err := tok.Allowance(context.Background(), testAccount, testBusiness)
	assert.ErrorIs(t, err, ErrContractCall)
}

func TestTokenApprove(t *testing.T) {
	f := newFakeChain()
	tok := newTestToken(t, f)
	amount := big.NewInt(1e18)

	r, err := tok.Approve(context.Background(), testBusiness, amount)
	require.NoError(t, err)
	assert.True(t, r.Succeeded())

	sent := f.sentTxs()
	require.Len(t, sent, 1)
	assert.Equal(t, testUSDT, sent[0].To)
	data, _ := hexutil.Decode(sent[0].Data)
	args, err := tok.h.ABI.Methods["approve"].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testBusiness), args[0])
	assert.Equal(t, 0, amount.Cmp(args[1].(*big.Int)))
}

func TestTokenApproveInvalidSpender(t *testing.T) {
	f := newFakeChain()
	_, err := newTestToken(t, f).Approve(context.Background(), "nobody", big.NewInt(1))
	assert.ErrorIs(t, err, ErrTransactionFailed)
	assert.Empty(t, f.sentTxs())
}
