package wallet

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrWatchOnly is returned when a watch-only wallet is asked to sign.
var ErrWatchOnly = errors.New("watch-only wallet cannot sign")

// Signer acts as one stored wallet for the local provider (it satisfies
// provider.Account). The key is read from the keystore on first use and
// kept, so an approve and the buy that follows unlock the keychain once.
type Signer struct {
	w  *Wallet
	ks KeystoreBackend

	mu  sync.Mutex
	key *ecdsa.PrivateKey
}

// NewSigner creates a signer for w.
func NewSigner(w *Wallet, ks KeystoreBackend) *Signer {
	return &Signer{w: w, ks: ks}
}

// Address returns the wallet's address.
func (s *Signer) Address() string { return s.w.Address }

// Name returns the wallet's name.
func (s *Signer) Name() string { return s.w.Name }

// SignTx signs tx for chainID and returns the raw transaction.
func (s *Signer) SignTx(tx *types.Transaction, chainID *big.Int) ([]byte, error) {
	key, err := s.privateKey()
	if err != nil {
		return nil, err
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("wallet %q: signing transaction: %w", s.w.Name, err)
	}
	return signed.MarshalBinary()
}

func (s *Signer) privateKey() (*ecdsa.PrivateKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key != nil {
		return s.key, nil
	}
	if s.w.Type != TypeSigning {
		return nil, fmt.Errorf("%w: %q", ErrWatchOnly, s.w.Name)
	}

	hexKey, err := s.ks.Retrieve(s.w.KeyRef)
	if err != nil {
		return nil, fmt.Errorf("wallet %q: retrieving key: %w", s.w.Name, err)
	}
	key, err := crypto.HexToECDSA(normaliseHexKey(hexKey))
	if err != nil {
		return nil, fmt.Errorf("wallet %q: %w: %v", s.w.Name, ErrInvalidKey, err)
	}
	// A key stored under another wallet's ref would sign as the wrong account.
	if addr := crypto.PubkeyToAddress(key.PublicKey).Hex(); !strings.EqualFold(addr, s.w.Address) {
		return nil, fmt.Errorf("wallet %q: stored key is for %s, not %s", s.w.Name, addr, s.w.Address)
	}
	s.key = key
	return key, nil
}
