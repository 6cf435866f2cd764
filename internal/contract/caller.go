package contract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Mohsinsiddi/tscsale/internal/provider"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ErrContractCall wraps every failed read.
var ErrContractCall = errors.New("contract call failed")

// Caller calls read-only (view/pure) contract functions through a wallet
// provider.
type Caller struct {
	p provider.Provider
}

// NewCaller creates a Caller.
func NewCaller(p provider.Provider) *Caller {
	return &Caller{p: p}
}

// Call calls a read function on h and returns the decoded outputs.
func (c *Caller) Call(ctx context.Context, h Handle, method string, args ...any) ([]any, error) {
	fn, ok := h.ABI.Methods[method]
	if !ok {
		return nil, fmt.Errorf("%w: function %q not found in ABI", ErrContractCall, method)
	}
	if !fn.IsConstant() {
		return nil, fmt.Errorf("%w: function %q is not a read function (stateMutability: %s)", ErrContractCall, method, fn.StateMutability)
	}

	calldata, err := h.ABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding %s: %v", ErrContractCall, method, err)
	}

	res, err := c.p.Request(ctx, provider.MethodCall, provider.TxParams{
		To:   h.Address.Hex(),
		Data: hexutil.Encode(calldata),
	}, "latest")
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrContractCall, method, err)
	}

	var hexResult string
	if err := json.Unmarshal(res, &hexResult); err != nil {
		return nil, fmt.Errorf("%w: %s: unexpected result %s", ErrContractCall, method, res)
	}
	data, err := hexutil.Decode(hexResult)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrContractCall, method, err)
	}
	if len(data) == 0 && len(fn.Outputs) > 0 {
		return nil, fmt.Errorf("%w: %s returned no data (is a contract deployed at %s?)", ErrContractCall, method, h.Address.Hex())
	}

	out, err := h.ABI.Unpack(method, data)
	if err != nil {
		return nil, fmt.Errorf("%w: decoding %s: %v", ErrContractCall, method, err)
	}
	return out, nil
}

// Code returns the deployed bytecode at h.
func (c *Caller) Code(ctx context.Context, h Handle) ([]byte, error) {
	res, err := c.p.Request(ctx, provider.MethodGetCode, h.Address.Hex(), "latest")
	if err != nil {
		return nil, fmt.Errorf("%w: getCode: %w", ErrContractCall, err)
	}
	var hexCode string
	if err := json.Unmarshal(res, &hexCode); err != nil {
		return nil, fmt.Errorf("%w: getCode: unexpected result %s", ErrContractCall, res)
	}
	return hexutil.Decode(hexCode)
}
