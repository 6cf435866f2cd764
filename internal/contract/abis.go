package contract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// BuiltinKind describes a contract type whose ABI is embedded in the binary.
// New built-ins register themselves via init() in their own <name>_abi.go.
type BuiltinKind struct {
	ID          string  // machine key, e.g. "erc20"
	Name        string  // human label
	Description string  // one-line summary
	ABI         abi.ABI // parsed ABI
}

var builtinRegistry = map[string]BuiltinKind{}

// RegisterBuiltin parses abiJSON and adds the built-in to the registry. It
// panics on a malformed ABI, which can only happen at init.
func RegisterBuiltin(id, name, description, abiJSON string) {
	parsed, err := abi.JSON(strings.NewReader(abiJSON))
	if err != nil {
		panic(fmt.Sprintf("contract: built-in %s: %v", id, err))
	}
	builtinRegistry[id] = BuiltinKind{ID: id, Name: name, Description: description, ABI: parsed}
}

// GetBuiltin returns a built-in by ID. ok is false if not found.
func GetBuiltin(id string) (BuiltinKind, bool) {
	b, ok := builtinRegistry[id]
	return b, ok
}

// AllBuiltins returns all registered built-ins sorted by ID.
func AllBuiltins() []BuiltinKind {
	out := make([]BuiltinKind, 0, len(builtinRegistry))
	for _, b := range builtinRegistry {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Handle binds a deployed address to its ABI. It is never mutated after
// construction.
type Handle struct {
	Address common.Address
	ABI     abi.ABI
}

// NewHandle binds address to the built-in ABI id.
func NewHandle(address, id string) (Handle, error) {
	if !common.IsHexAddress(address) {
		return Handle{}, fmt.Errorf("invalid contract address %q", address)
	}
	b, ok := GetBuiltin(id)
	if !ok {
		return Handle{}, fmt.Errorf("unknown built-in ABI %q", id)
	}
	return Handle{Address: common.HexToAddress(address), ABI: b.ABI}, nil
}
