// Package balance reads display balances. Every failure degrades to "0".
package balance

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Mohsinsiddi/tscsale/internal/chain"
	"github.com/Mohsinsiddi/tscsale/internal/contract"
	"github.com/Mohsinsiddi/tscsale/internal/provider"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"
)

// DisplayPlaces is how many fractional digits balances are rounded to.
const DisplayPlaces = 4

// Reader fetches native and token balances through a wallet provider.
type Reader struct {
	p   provider.Provider
	log zerolog.Logger
}

// NewReader creates a Reader.
func NewReader(p provider.Provider, log zerolog.Logger) *Reader {
	return &Reader{p: p, log: log.With().Str("component", "balance").Logger()}
}

// NativeBalance returns address's native balance in whole units, rounded to
// DisplayPlaces.
func (r *Reader) NativeBalance(ctx context.Context, address string) string {
	res, err := r.p.Request(ctx, provider.MethodGetBalance, address, "latest")
	if err != nil {
		r.failed("native", address, err)
		return "0"
	}
	var hexBal string
	if err := json.Unmarshal(res, &hexBal); err != nil {
		r.failed("native", address, fmt.Errorf("unexpected result %s", res))
		return "0"
	}
	wei, err := hexutil.DecodeBig(hexBal)
	if err != nil {
		r.failed("native", address, err)
		return "0"
	}
	return chain.FormatUnits(wei, chain.EtherDecimals, DisplayPlaces)
}

// TokenBalance returns address's balance of the ERC-20 token, rounded to
// DisplayPlaces.
func (r *Reader) TokenBalance(ctx context.Context, address, token string, decimals int) string {
	tok, err := contract.NewToken(r.p, token, 0, r.log)
	if err != nil {
		r.failed(token, address, err)
		return "0"
	}
	raw, err := tok.BalanceOf(ctx, address)
	if err != nil {
		r.failed(token, address, err)
		return "0"
	}
	return chain.FormatUnits(raw, decimals, DisplayPlaces)
}

func (r *Reader) failed(asset, address string, err error) {
	r.log.Warn().Err(err).Str("asset", asset).Str("address", address).Msg("balance fetch failed")
}
