package contract

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitForReceiptPolls(t *testing.T) {
	f := newFakeChain()
	f.pendingPolls = 2
	s := NewSender(f, time.Millisecond)

	r, err := s.WaitForReceipt(context.Background(), "0xaa")
	require.NoError(t, err)
	assert.Equal(t, "0xaa", r.TransactionHash)
	assert.Equal(t, 3, f.receiptPolls)
}

func TestWaitForReceiptContextDone(t *testing.T) {
	f := newFakeChain()
	f.pendingPolls = 1 << 30
	s := NewSender(f, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.WaitForReceipt(ctx, "0xaa")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestTransactWrapsTimeout(t *testing.T) {
	f := newFakeChain()
	f.pendingPolls = 1 << 30
	h, err := NewHandle(testBusiness, BuiltinBusiness)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = NewSender(f, time.Millisecond).Transact(ctx, h, MethodBuy, big.NewInt(1))
	assert.ErrorIs(t, err, ErrTransactionFailed)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSendRejectsReadFunction(t *testing.T) {
	h, _ := NewHandle(testBusiness, BuiltinBusiness)
	_, err := NewSender(newFakeChain(), 0).Send(context.Background(), h, MethodGetBrandSize)
	assert.Error(t, err)
}

func TestCallRejectsWriteFunction(t *testing.T) {
	h, _ := NewHandle(testBusiness, BuiltinBusiness)
	_, err := NewCaller(newFakeChain()).Call(context.Background(), h, MethodBuy, big.NewInt(1))
	assert.ErrorIs(t, err, ErrContractCall)
}

func TestNewSenderDefaultPoll(t *testing.T) {
	assert.Equal(t, DefaultPollInterval, NewSender(newFakeChain(), 0).poll)
}
