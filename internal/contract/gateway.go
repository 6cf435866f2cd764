package contract

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Mohsinsiddi/tscsale/internal/provider"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"
)

// Expert is a registered influencer.
type Expert struct {
	TikTokId string
	Email    string
	Account  common.Address
}

// UserBuy is one purchase made through an invitation.
type UserBuy struct {
	Account common.Address
	Amount  *big.Int
}

// Brand is a registered merchant.
type Brand struct {
	Name    string
	Remarks string
	Logo    string
}

// BuyEvent is the Buy log emitted by a successful purchase.
type BuyEvent struct {
	Account     common.Address
	PayAmount   *big.Int
	TscAmount   *big.Int
	Up          common.Address
	UpTscAmount *big.Int
}

// Gateway is the only place that knows the business contract's address and
// method names. Reads default to zero values on failure; the bool writes
// report failure as false. Both log what went wrong.
type Gateway struct {
	h      Handle
	caller *Caller
	sender *Sender
	log    zerolog.Logger
}

// NewGateway binds the business contract at address.
func NewGateway(p provider.Provider, address string, poll time.Duration, log zerolog.Logger) (*Gateway, error) {
	h, err := NewHandle(address, BuiltinBusiness)
	if err != nil {
		return nil, err
	}
	return &Gateway{
		h:      h,
		caller: NewCaller(p),
		sender: NewSender(p, poll),
		log:    log.With().Str("component", "gateway").Str("contract", h.Address.Hex()).Logger(),
	}, nil
}

// Handle returns the bound contract.
func (g *Gateway) Handle() Handle { return g.h }

// Deployed checks that code exists at the contract address.
func (g *Gateway) Deployed(ctx context.Context) error {
	code, err := g.caller.Code(ctx, g.h)
	if err != nil {
		return err
	}
	if len(code) == 0 {
		return fmt.Errorf("%w: no contract deployed at %s", ErrContractCall, g.h.Address.Hex())
	}
	return nil
}

// --- writes ---

// SubmitJoinExpert registers the selected account as an expert.
func (g *Gateway) SubmitJoinExpert(ctx context.Context, tiktokID, email string) (*provider.Receipt, error) {
	return g.sender.Transact(ctx, g.h, MethodJoinExpert, tiktokID, email)
}

// JoinExpert is SubmitJoinExpert reduced to success or failure.
func (g *Gateway) JoinExpert(ctx context.Context, tiktokID, email string) bool {
	_, err := g.SubmitJoinExpert(ctx, tiktokID, email)
	return g.succeeded(MethodJoinExpert, err)
}

// SubmitAcceptInvitation records sponsor as the selected account's inviter.
func (g *Gateway) SubmitAcceptInvitation(ctx context.Context, sponsor string) (*provider.Receipt, error) {
	if !common.IsHexAddress(sponsor) {
		return nil, fmt.Errorf("%w: invalid sponsor address %q", ErrTransactionFailed, sponsor)
	}
	return g.sender.Transact(ctx, g.h, MethodAcceptInvitation, common.HexToAddress(sponsor))
}

// AcceptInvitation is SubmitAcceptInvitation reduced to success or failure.
func (g *Gateway) AcceptInvitation(ctx context.Context, sponsor string) bool {
	_, err := g.SubmitAcceptInvitation(ctx, sponsor)
	return g.succeeded(MethodAcceptInvitation, err)
}

// SubmitPurchase calls buy with amount in payment-token base units.
func (g *Gateway) SubmitPurchase(ctx context.Context, amount *big.Int) (*provider.Receipt, error) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: purchase amount must be positive", ErrTransactionFailed)
	}
	return g.sender.Transact(ctx, g.h, MethodBuy, amount)
}

// Purchase is SubmitPurchase reduced to success or failure.
func (g *Gateway) Purchase(ctx context.Context, amount *big.Int) bool {
	_, err := g.SubmitPurchase(ctx, amount)
	return g.succeeded(MethodBuy, err)
}

func (g *Gateway) succeeded(method string, err error) bool {
	if err != nil {
		g.log.Error().Err(err).Str("method", method).Msg("transaction failed")
		return false
	}
	return true
}

// --- reads ---

// ExpertCount returns the number of registered experts.
func (g *Gateway) ExpertCount(ctx context.Context) uint64 {
	return g.count(ctx, MethodGetExpertSize)
}

// Experts returns every registered expert.
func (g *Gateway) Experts(ctx context.Context) []Expert {
	out, err := g.caller.Call(ctx, g.h, MethodGetExpertInfo)
	if err != nil {
		g.readFailed(MethodGetExpertInfo, err)
		return []Expert{}
	}
	return *abi.ConvertType(out[0], new([]Expert)).(*[]Expert)
}

// InvitationCount returns how many purchases account's invitees made.
func (g *Gateway) InvitationCount(ctx context.Context, account string) uint64 {
	if !common.IsHexAddress(account) {
		g.readFailed(MethodGetInvitationSize, fmt.Errorf("invalid address %q", account))
		return 0
	}
	return g.count(ctx, MethodGetInvitationSize, common.HexToAddress(account))
}

// Invitations returns the purchases made by account's invitees.
func (g *Gateway) Invitations(ctx context.Context, account string) []UserBuy {
	if !common.IsHexAddress(account) {
		g.readFailed(MethodGetInvitationInfo, fmt.Errorf("invalid address %q", account))
		return []UserBuy{}
	}
	out, err := g.caller.Call(ctx, g.h, MethodGetInvitationInfo, common.HexToAddress(account))
	if err != nil {
		g.readFailed(MethodGetInvitationInfo, err)
		return []UserBuy{}
	}
	return *abi.ConvertType(out[0], new([]UserBuy)).(*[]UserBuy)
}

// BrandCount returns the number of registered brands.
func (g *Gateway) BrandCount(ctx context.Context) uint64 {
	return g.count(ctx, MethodGetBrandSize)
}

// Brands returns every registered brand.
func (g *Gateway) Brands(ctx context.Context) []Brand {
	out, err := g.caller.Call(ctx, g.h, MethodGetBrandInfo)
	if err != nil {
		g.readFailed(MethodGetBrandInfo, err)
		return []Brand{}
	}
	return *abi.ConvertType(out[0], new([]Brand)).(*[]Brand)
}

func (g *Gateway) count(ctx context.Context, method string, args ...any) uint64 {
	out, err := g.caller.Call(ctx, g.h, method, args...)
	if err != nil {
		g.readFailed(method, err)
		return 0
	}
	n, ok := out[0].(*big.Int)
	if !ok || !n.IsUint64() {
		g.readFailed(method, fmt.Errorf("unexpected result %v", out[0]))
		return 0
	}
	return n.Uint64()
}

func (g *Gateway) readFailed(method string, err error) {
	g.log.Warn().Err(err).Str("method", method).Msg("contract read failed, using default")
}

// DecodeBuy finds the Buy event in a purchase receipt.
func (g *Gateway) DecodeBuy(r *provider.Receipt) (*BuyEvent, error) {
	if r == nil {
		return nil, fmt.Errorf("no receipt")
	}
	ev := g.h.ABI.Events[EventBuy]
	for _, l := range r.Logs {
		if !strings.EqualFold(l.Address, g.h.Address.Hex()) || len(l.Topics) == 0 {
			continue
		}
		topic, err := hexutil.Decode(l.Topics[0])
		if err != nil || !bytes.Equal(topic, ev.ID.Bytes()) {
			continue
		}
		data, err := hexutil.Decode(orEmptyHex(l.Data))
		if err != nil {
			return nil, fmt.Errorf("decoding %s data: %w", EventBuy, err)
		}
		var out BuyEvent
		if err := g.h.ABI.UnpackIntoInterface(&out, EventBuy, data); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", EventBuy, err)
		}
		return &out, nil
	}
	return nil, fmt.Errorf("no %s event in receipt %s", EventBuy, r.TransactionHash)
}

func orEmptyHex(s string) string {
	if s == "" {
		return "0x"
	}
	return s
}
