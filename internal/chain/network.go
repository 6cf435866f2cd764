package chain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrChainNotFound is returned when a network is not in the registry.
var ErrChainNotFound = errors.New("chain not found")

// Currency describes a network's native currency.
type Currency struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
}

// Network is the fixed descriptor used both to talk to a node and to ask a
// wallet to register the chain.
type Network struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	ChainID     int64    `json:"chain_id"`
	Currency    Currency `json:"native_currency"`
	RPCs        []string `json:"rpc_urls"`
	Explorer    string   `json:"explorer"`
	FaucetURL   string   `json:"faucet_url,omitempty"`
}

// HexChainID returns the chain id in the 0x-prefixed form wallets expect.
func (n Network) HexChainID() string {
	return "0x" + strconv.FormatInt(n.ChainID, 16)
}

// AddressURL links an address on the network's block explorer.
func (n Network) AddressURL(addr string) string {
	return n.Explorer + "/address/" + addr
}

// TxURL links a transaction on the network's block explorer.
func (n Network) TxURL(hash string) string {
	return n.Explorer + "/tx/" + hash
}

// AddChainParams is the wallet_addEthereumChain parameter object (EIP-3085).
type AddChainParams struct {
	ChainID           string   `json:"chainId"`
	ChainName         string   `json:"chainName"`
	NativeCurrency    Currency `json:"nativeCurrency"`
	RPCURLs           []string `json:"rpcUrls"`
	BlockExplorerURLs []string `json:"blockExplorerUrls"`
}

// AddChainParams builds the registration descriptor for this network.
func (n Network) AddChainParams() AddChainParams {
	rpcs := n.RPCs
	if len(rpcs) > 1 {
		rpcs = rpcs[:1]
	}
	return AddChainParams{
		ChainID:           n.HexChainID(),
		ChainName:         n.DisplayName,
		NativeCurrency:    n.Currency,
		RPCURLs:           rpcs,
		BlockExplorerURLs: []string{n.Explorer},
	}
}

// NetworkFromAddParams is the inverse of AddChainParams, used by wallets that
// accept a registration request.
func NetworkFromAddParams(p AddChainParams) (Network, error) {
	id, err := ParseChainID(p.ChainID)
	if err != nil {
		return Network{}, err
	}
	if len(p.RPCURLs) == 0 {
		return Network{}, fmt.Errorf("chain %s: no rpc url", p.ChainID)
	}
	n := Network{
		Name:        strings.ToLower(strings.ReplaceAll(p.ChainName, " ", "-")),
		DisplayName: p.ChainName,
		ChainID:     id,
		Currency:    p.NativeCurrency,
		RPCs:        p.RPCURLs,
	}
	if len(p.BlockExplorerURLs) > 0 {
		n.Explorer = p.BlockExplorerURLs[0]
	}
	return n, nil
}

// ParseChainID accepts "0x61", "97" or a JSON-quoted form of either.
func ParseChainID(s string) (int64, error) {
	s = strings.Trim(strings.TrimSpace(s), `"`)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		id, err := strconv.ParseInt(s[2:], 16, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse chain id %q: %w", s, err)
		}
		return id, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("could not parse chain id %q: %w", s, err)
	}
	return id, nil
}

// Well-known networks.
var (
	BSCTestnet = Network{
		Name:        "bsc-testnet",
		DisplayName: "BSC Testnet",
		ChainID:     97,
		Currency:    Currency{Name: "tBNB", Symbol: "tBNB", Decimals: 18},
		RPCs: []string{
			"https://data-seed-prebsc-1-s1.binance.org:8545",
			"https://data-seed-prebsc-2-s1.binance.org:8545",
			"https://bsc-testnet-rpc.publicnode.com",
		},
		Explorer:  "https://testnet.bscscan.com",
		FaucetURL: "https://testnet.binance.org/faucet-smart",
	}

	BSCMainnet = Network{
		Name:        "bsc",
		DisplayName: "BNB Smart Chain",
		ChainID:     56,
		Currency:    Currency{Name: "BNB", Symbol: "BNB", Decimals: 18},
		RPCs: []string{
			"https://bsc-dataseed.binance.org",
			"https://bsc-rpc.publicnode.com",
		},
		Explorer: "https://bscscan.com",
	}
)

// Registry looks networks up by slug or chain id.
type Registry struct {
	byName map[string]Network
	byID   map[int64]Network
}

// NewRegistry returns a registry seeded with the given networks, or the
// well-known ones when none are passed.
func NewRegistry(nets ...Network) *Registry {
	if len(nets) == 0 {
		nets = []Network{BSCTestnet, BSCMainnet}
	}
	r := &Registry{
		byName: make(map[string]Network, len(nets)),
		byID:   make(map[int64]Network, len(nets)),
	}
	for _, n := range nets {
		r.Add(n)
	}
	return r
}

// Add registers or replaces a network.
func (r *Registry) Add(n Network) {
	r.byName[strings.ToLower(n.Name)] = n
	r.byID[n.ChainID] = n
}

// GetByName finds a network by its slug (e.g. "bsc-testnet").
func (r *Registry) GetByName(name string) (Network, error) {
	n, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return Network{}, fmt.Errorf("%w: %s", ErrChainNotFound, name)
	}
	return n, nil
}

// GetByChainID finds a network by numeric chain id.
func (r *Registry) GetByChainID(id int64) (Network, error) {
	n, ok := r.byID[id]
	if !ok {
		return Network{}, fmt.Errorf("%w: chain id %d", ErrChainNotFound, id)
	}
	return n, nil
}

// DisplayName names a chain id for output, "Unknown Network" when unregistered.
func (r *Registry) DisplayName(id int64) string {
	if n, ok := r.byID[id]; ok {
		return n.DisplayName
	}
	return "Unknown Network"
}
