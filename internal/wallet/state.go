package wallet

// ConnectionState is what the connector knows about the wallet. An empty
// Address means no account is connected.
type ConnectionState struct {
	Address       string
	ChainID       int64
	NativeBalance string
	TokenBalances map[string]string
}

// Connected reports whether an account is set.
func (s ConnectionState) Connected() bool { return s.Address != "" }

func emptyState() ConnectionState {
	return ConnectionState{NativeBalance: "0", TokenBalances: map[string]string{}}
}

func (s ConnectionState) clone() ConnectionState {
	out := s
	out.TokenBalances = make(map[string]string, len(s.TokenBalances))
	for k, v := range s.TokenBalances {
		out.TokenBalances[k] = v
	}
	return out
}

// ChangeKind names a connection state transition.
type ChangeKind string

const (
	Connected       ChangeKind = "connected"
	AccountChanged  ChangeKind = "account-changed"
	AccountsCleared ChangeKind = "accounts-cleared"
	ChainChanged    ChangeKind = "chain-changed"
	BalancesUpdated ChangeKind = "balances-updated"
	Disconnected    ChangeKind = "disconnected"
)

// StateChange is delivered to connector subscribers after State has been
// updated. State is a copy.
type StateChange struct {
	Kind  ChangeKind
	State ConnectionState
}

// TokenSpec is a token whose balance the connector tracks.
type TokenSpec struct {
	Symbol   string
	Address  string
	Decimals int
}
