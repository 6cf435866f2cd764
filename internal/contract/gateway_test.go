package contract

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/Mohsinsiddi/tscsale/internal/provider"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGateway(t *testing.T, f *fakeChain) *Gateway {
	t.Helper()
	g, err := NewGateway(f, testBusiness, time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	return g
}

func TestNewGatewayInvalidAddress(t *testing.T) {
	_, err := NewGateway(newFakeChain(), "nope", 0, zerolog.Nop())
	assert.Error(t, err)
}

func TestGatewayCounts(t *testing.T) {
	f := newFakeChain()
	g := newTestGateway(t, f)
	f.setRead(t, g.Handle(), MethodGetExpertSize, big.NewInt(3))
	f.setRead(t, g.Handle(), MethodGetBrandSize, big.NewInt(7))
	f.setRead(t, g.Handle(), MethodGetInvitationSize, big.NewInt(2))

	ctx := context.Background()
	assert.Equal(t, uint64(3), g.ExpertCount(ctx))
	assert.Equal(t, uint64(7), g.BrandCount(ctx))
	assert.Equal(t, uint64(2), g.InvitationCount(ctx, testAccount))
}

func TestGatewayReadsDefaultOnFailure(t *testing.T) {
	f := newFakeChain()
	f.callErr = provider.NewError(provider.CodeChainDisconnected, "node unreachable")
	g := newTestGateway(t, f)

	ctx := context.Background()
	assert.Zero(t, g.ExpertCount(ctx))
	assert.Zero(t, g.BrandCount(ctx))
	assert.Zero(t, g.InvitationCount(ctx, testAccount))
	assert.Empty(t, g.Experts(ctx))
	assert.NotNil(t, g.Experts(ctx))
	assert.Empty(t, g.Brands(ctx))
	assert.Empty(t, g.Invitations(ctx, testAccount))
}

func TestGatewayInvalidAddressReads(t *testing.T) {
	g := newTestGateway(t, newFakeChain())
	assert.Zero(t, g.InvitationCount(context.Background(), "bob"))
	assert.Empty(t, g.Invitations(context.Background(), "bob"))
}

func TestGatewayExperts(t *testing.T) {
	f := newFakeChain()
	g := newTestGateway(t, f)
	want := []Expert{
		{TikTokId: "@alice", Email: "alice@example.com", Account: common.HexToAddress(testAccount)},
		{TikTokId: "@bob", Email: "bob@example.com", Account: common.HexToAddress(testUSDT)},
	}
	f.setRead(t, g.Handle(), MethodGetExpertInfo, want)

	assert.Equal(t, want, g.Experts(context.Background()))
}

func TestGatewayInvitations(t *testing.T) {
	f := newFakeChain()
	g := newTestGateway(t, f)
	want := []UserBuy{{Account: common.HexToAddress(testUSDT), Amount: big.NewInt(5e18)}}
	f.setRead(t, g.Handle(), MethodGetInvitationInfo, want)

	got := g.Invitations(context.Background(), testAccount)
	require.Len(t, got, 1)
	assert.Equal(t, want[0].Account, got[0].Account)
	assert.Equal(t, 0, want[0].Amount.Cmp(got[0].Amount))
}

func TestGatewayBrands(t *testing.T) {
	f := newFakeChain()
	g := newTestGateway(t, f)
	want := []Brand{{Name: "Acme", Remarks: "coffee", Logo: "https://example.com/acme.png"}}
	f.setRead(t, g.Handle(), MethodGetBrandInfo, want)

	assert.Equal(t, want, g.Brands(context.Background()))
}

func TestGatewayEmptyResultIsFailure(t *testing.T) {
	f := newFakeChain()
	g := newTestGateway(t, f)
	f.reads[hexutil.Encode(g.Handle().ABI.Methods[MethodGetBrandSize].ID)] = []byte{}

	assert.Zero(t, g.BrandCount(context.Background()))
}

func TestGatewayPurchase(t *testing.T) {
	f := newFakeChain()
	g := newTestGateway(t, f)
	amount, _ := new(big.Int).SetString("100000000000000000000", 10)

	require.True(t, g.Purchase(context.Background(), amount))

	sent := f.sentTxs()
	require.Len(t, sent, 1)
	assert.Equal(t, testAccount, sent[0].From)
	assert.Equal(t, testBusiness, sent[0].To)

	data, err := hexutil.Decode(sent[0].Data)
	require.NoError(t, err)
	m := g.Handle().ABI.Methods[MethodBuy]
	assert.Equal(t, m.ID, data[:4])
	args, err := m.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, 0, amount.Cmp(args[0].(*big.Int)))
}

func TestGatewayPurchaseRejected(t *testing.T) {
	f := newFakeChain()
	f.sendErr = provider.NewError(provider.CodeUserRejected, "MetaMask Tx Signature: User denied transaction signature.")
	g := newTestGateway(t, f)

	assert.False(t, g.Purchase(context.Background(), big.NewInt(1)))

	_, err := g.SubmitPurchase(context.Background(), big.NewInt(1))
	assert.ErrorIs(t, err, ErrTransactionFailed)
	assert.Equal(t, provider.CodeUserRejected, provider.Code(err))
	assert.True(t, provider.IsUserRejection(err))
}

func TestGatewayPurchaseReverted(t *testing.T) {
	f := newFakeChain()
	f.receiptStatus = "0x0"
	g := newTestGateway(t, f)

	r, err := g.SubmitPurchase(context.Background(), big.NewInt(1))
	assert.ErrorIs(t, err, ErrTransactionFailed)
	require.NotNil(t, r)
	assert.False(t, r.Succeeded())
	assert.False(t, g.Purchase(context.Background(), big.NewInt(1)))
}

func TestGatewayPurchaseNonPositive(t *testing.T) {
	f := newFakeChain()
	g := newTestGateway(t, f)
	assert.False(t, g.Purchase(context.Background(), big.NewInt(0)))
	assert.False(t, g.Purchase(context.Background(), nil))
	assert.Empty(t, f.sentTxs())
}

func TestGatewayPurchaseNoAccount(t *testing.T) {
	f := newFakeChain()
	f.accounts = []string{}
	g := newTestGateway(t, f)

	_, err := g.SubmitPurchase(context.Background(), big.NewInt(1))
	assert.ErrorIs(t, err, ErrTransactionFailed)
	assert.ErrorIs(t, err, ErrNoAccount)
}

func TestGatewayJoinExpert(t *testing.T) {
	f := newFakeChain()
	g := newTestGateway(t, f)

	require.True(t, g.JoinExpert(context.Background(), "@alice", "alice@example.com"))

	sent := f.sentTxs()
	require.Len(t, sent, 1)
	data, _ := hexutil.Decode(sent[0].Data)
	args, err := g.Handle().ABI.Methods[MethodJoinExpert].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, []any{"@alice", "alice@example.com"}, args)
}

func TestGatewayAcceptInvitation(t *testing.T) {
	f := newFakeChain()
	g := newTestGateway(t, f)

	assert.False(t, g.AcceptInvitation(context.Background(), "not-an-address"))
	assert.Empty(t, f.sentTxs())

	require.True(t, g.AcceptInvitation(context.Background(), testUSDT))
	data, _ := hexutil.Decode(f.sentTxs()[0].Data)
	args, err := g.Handle().ABI.Methods[MethodAcceptInvitation].Inputs.Unpack(data[4:])
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testUSDT), args[0])
}

func TestGatewayDeployed(t *testing.T) {
	f := newFakeChain()
	g := newTestGateway(t, f)

	assert.ErrorIs(t, g.Deployed(context.Background()), ErrContractCall)

	f.code = "0x6080604052"
	assert.NoError(t, g.Deployed(context.Background()))
}

func TestGatewayDecodeBuy(t *testing.T) {
	f := newFakeChain()
	g := newTestGateway(t, f)
	ev := g.Handle().ABI.Events[EventBuy]

	pay := big.NewInt(100)
	tsc := big.NewInt(2000)
	up := common.HexToAddress(testUSDT)
	data, err := ev.Inputs.Pack(common.HexToAddress(testAccount), pay, tsc, up, big.NewInt(200))
	require.NoError(t, err)

	f.logs = []provider.Log{
		{Address: testUSDT, Topics: []string{"0x01"}, Data: "0x"},
		{Address: testBusiness, Topics: []string{ev.ID.Hex()}, Data: hexutil.Encode(data)},
	}
	r, err := g.SubmitPurchase(context.Background(), pay)
	require.NoError(t, err)

	got, err := g.DecodeBuy(r)
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress(testAccount), got.Account)
	assert.Equal(t, 0, tsc.Cmp(got.TscAmount))
	assert.Equal(t, up, got.Up)
}

func TestGatewayDecodeBuyMissing(t *testing.T) {
	g := newTestGateway(t, newFakeChain())
	_, err := g.DecodeBuy(&provider.Receipt{TransactionHash: "0xabc"})
	assert.Error(t, err)
	_, err = g.DecodeBuy(nil)
	assert.Error(t, err)
}
